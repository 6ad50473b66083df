package prescription

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jwalitptl/meditracker-api/internal/model"
	apperrors "github.com/jwalitptl/meditracker-api/pkg/errors"
)

// Options tunes prescription validation.
type Options struct {
	// StrictSchedule rejects repeated (day, time) entries instead of collapsing them.
	StrictSchedule bool
	// ResolveTimeZones checks zones against the tz database, not just their shape.
	ResolveTimeZones bool
}

// fields holds the validated, mutable part of a prescription.
type fields struct {
	dosage   model.Dosage
	start    model.Date
	end      *model.Date
	timeZone string
	schedule model.Schedule
}

func (f *fields) applyTo(p *model.Prescription) {
	p.Dosage = f.dosage
	p.StartDate = f.start
	p.EndDate = f.end
	p.TimeZone = f.timeZone
	p.Schedule = f.schedule
}

// buildFields validates raw input in wire order and reports the first
// failing field.
func buildFields(opts Options, dosage model.DosageInput, startDate string, endDate *string,
	timeZone string, entries []model.ScheduleEntryInput) (*fields, error) {
	var f fields
	var err error

	if f.dosage, err = buildDosage(dosage); err != nil {
		return nil, err
	}

	if strings.TrimSpace(startDate) == "" {
		return nil, apperrors.NewValidation("startDate", "startDate required")
	}
	if f.start, err = model.ParseDate(strings.TrimSpace(startDate)); err != nil {
		return nil, apperrors.NewValidation("startDate", err.Error())
	}
	if endDate != nil && strings.TrimSpace(*endDate) != "" {
		end, err := model.ParseDate(strings.TrimSpace(*endDate))
		if err != nil {
			return nil, apperrors.NewValidation("endDate", err.Error())
		}
		if end.Before(f.start) {
			return nil, apperrors.NewValidation("endDate", "endDate before startDate")
		}
		f.end = &end
	}

	if f.schedule, err = buildSchedule(entries, opts.StrictSchedule); err != nil {
		return nil, err
	}

	f.timeZone = strings.TrimSpace(timeZone)
	if err := model.ValidateTimeZone(f.timeZone, opts.ResolveTimeZones); err != nil {
		return nil, apperrors.NewValidation("timeZone", err.Error())
	}

	return &f, nil
}

func buildDosage(in model.DosageInput) (model.Dosage, error) {
	if strings.TrimSpace(string(in.Amount)) == "" {
		return model.Dosage{}, apperrors.NewValidation("dosage.amount", "amount required")
	}
	if strings.TrimSpace(in.Unit) == "" {
		return model.Dosage{}, apperrors.NewValidation("dosage.unit", "unit required")
	}
	d, err := model.ParseDosage(string(in.Amount), in.Unit)
	switch {
	case errors.Is(err, model.ErrInvalidDosageUnit):
		return model.Dosage{}, apperrors.NewValidation("dosage.unit", err.Error())
	case err != nil:
		return model.Dosage{}, apperrors.NewValidation("dosage.amount", err.Error())
	}
	return d, nil
}

func buildSchedule(in []model.ScheduleEntryInput, strict bool) (model.Schedule, error) {
	if len(in) == 0 {
		return model.Schedule{}, apperrors.NewValidation("schedule", "schedule required")
	}

	entries := make([]model.ScheduleEntry, 0, len(in))
	seen := make(map[model.ScheduleEntry]struct{}, len(in))
	for i, raw := range in {
		day, err := model.ParseDayOfWeek(raw.DayOfWeek)
		if err != nil {
			return model.Schedule{}, apperrors.NewValidation(fmt.Sprintf("schedule[%d].dayOfWeek", i), err.Error())
		}
		tod, err := model.ParseTimeOfDay(raw.TimeOfDay)
		if err != nil {
			return model.Schedule{}, apperrors.NewValidation(fmt.Sprintf("schedule[%d].timeOfDay", i), err.Error())
		}
		entry := model.ScheduleEntry{Day: day, Time: tod}
		if _, dup := seen[entry]; dup && strict {
			return model.Schedule{}, apperrors.NewConflict(fmt.Sprintf("schedule[%d]", i),
				fmt.Sprintf("duplicate schedule entry %s", entry))
		}
		seen[entry] = struct{}{}
		entries = append(entries, entry)
	}

	schedule, _ := model.NewSchedule(entries...)
	return schedule, nil
}
