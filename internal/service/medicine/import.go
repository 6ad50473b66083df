package medicine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/jwalitptl/meditracker-api/internal/model"
	"github.com/jwalitptl/meditracker-api/internal/repository"
	apperrors "github.com/jwalitptl/meditracker-api/pkg/errors"
)

// MaxImportRecords bounds one import request.
const MaxImportRecords = 50000

// maxImportedFieldLength matches the medicines VARCHAR(255) columns.
const maxImportedFieldLength = 255

var (
	unsafeNameChars         = regexp.MustCompile(`[^a-zA-Z0-9\s\-(),./]`)
	unsafeManufacturerChars = regexp.MustCompile(`[^a-zA-Z0-9\s\-(),./&]`)
)

type importOutcome int

const (
	importCreated importOutcome = iota
	importUpdated
	importDuplicate
	importNoName
)

// Import upserts openFDA records by name and manufacturer in one
// transaction. Known medicines only gain a generic name they lacked or that
// changed; records without a usable name or that fail to decode are counted
// and skipped.
func (s *Service) Import(ctx context.Context, req *model.ImportMedicinesRequest) (*model.ImportResult, error) {
	if len(req.Results) > MaxImportRecords {
		return nil, apperrors.NewValidation("results",
			fmt.Sprintf("too many records: max %d allowed", MaxImportRecords))
	}

	var result model.ImportResult
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		result = model.ImportResult{}
		for _, raw := range req.Results {
			var rec model.OpenFDARecord
			if err := json.Unmarshal(raw, &rec); err != nil {
				result.Skipped++
				result.SkippedError++
				continue
			}

			outcome, err := s.importRecord(ctx, rec)
			if err != nil {
				return err
			}
			switch outcome {
			case importCreated:
				result.Created++
			case importUpdated:
				result.Updated++
			case importDuplicate:
				result.Skipped++
			case importNoName:
				result.Skipped++
				result.SkippedNoName++
			}
		}

		if result.Created+result.Updated == 0 {
			return nil
		}
		return s.events.Emit(ctx, model.EventMedicinesImported, map[string]int{
			"created": result.Created,
			"updated": result.Updated,
			"skipped": result.Skipped,
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("medicines imported",
		"records", len(req.Results),
		"created", result.Created,
		"updated", result.Updated,
		"skipped", result.Skipped,
	)
	return &result, nil
}

func (s *Service) importRecord(ctx context.Context, rec model.OpenFDARecord) (importOutcome, error) {
	name := sanitize(rec.DisplayName(), unsafeNameChars)
	if name == "" {
		return importNoName, nil
	}
	manufacturer := optional(sanitize(rec.Manufacturer(), unsafeManufacturerChars))
	generic := optional(sanitize(rec.OpenFDA.GenericName.First(), unsafeNameChars))

	existing, err := s.medicines.FindByNameAndManufacturer(ctx, name, manufacturer)
	if errors.Is(err, repository.ErrNotFound) {
		m := &model.Medicine{
			Name:         name,
			GenericName:  generic,
			Manufacturer: manufacturer,
			Active:       true,
		}
		if err := s.medicines.Create(ctx, m); err != nil {
			return 0, fmt.Errorf("failed to import medicine %q: %w", name, err)
		}
		return importCreated, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to look up medicine %q: %w", name, err)
	}

	if generic == nil || (existing.GenericName != nil && *existing.GenericName == *generic) {
		return importDuplicate, nil
	}
	existing.GenericName = generic
	if err := s.medicines.Update(ctx, existing); err != nil {
		return 0, fmt.Errorf("failed to update medicine %d: %w", existing.ID, err)
	}
	return importUpdated, nil
}

// sanitize drops characters outside allowed and trims the result to the
// column length.
func sanitize(s string, unsafe *regexp.Regexp) string {
	s = strings.TrimSpace(unsafe.ReplaceAllString(s, ""))
	if len(s) > maxImportedFieldLength {
		s = strings.TrimSpace(s[:maxImportedFieldLength])
	}
	return s
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
