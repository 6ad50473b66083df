package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// StringList decodes openFDA fields that are sometimes a single string and
// sometimes a list. Non-string list items are kept in their printed form.
type StringList []string

func (l *StringList) UnmarshalJSON(b []byte) error {
	var one *string
	if err := json.Unmarshal(b, &one); err == nil {
		if one != nil {
			*l = StringList{*one}
		}
		return nil
	}

	var many []interface{}
	if err := json.Unmarshal(b, &many); err != nil {
		return fmt.Errorf("expected string or list of strings: %w", err)
	}
	out := make(StringList, 0, len(many))
	for _, v := range many {
		switch v := v.(type) {
		case nil:
		case string:
			out = append(out, v)
		default:
			out = append(out, fmt.Sprint(v))
		}
	}
	*l = out
	return nil
}

// First returns the first non-blank item.
func (l StringList) First() string {
	for _, s := range l {
		if strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}

type OpenFDAFields struct {
	BrandName        StringList `json:"brand_name"`
	GenericName      StringList `json:"generic_name"`
	SubstanceName    StringList `json:"substance_name"`
	ManufacturerName StringList `json:"manufacturer_name"`
}

type OpenFDAProduct struct {
	BrandName   string `json:"brand_name"`
	GenericName string `json:"generic_name"`
}

// OpenFDARecord is one entry of an openFDA drugs@FDA "results" array.
type OpenFDARecord struct {
	OpenFDA           OpenFDAFields    `json:"openfda"`
	Products          []OpenFDAProduct `json:"products"`
	ApplicationNumber string           `json:"application_number"`
	SponsorName       StringList       `json:"sponsor_name"`
}

// DisplayName picks the catalogue name: brand, generic, then substance
// name, then the first product's names, then the application number.
func (r OpenFDARecord) DisplayName() string {
	for _, l := range []StringList{r.OpenFDA.BrandName, r.OpenFDA.GenericName, r.OpenFDA.SubstanceName} {
		if name := l.First(); name != "" {
			return name
		}
	}
	if len(r.Products) > 0 {
		p := r.Products[0]
		if strings.TrimSpace(p.BrandName) != "" {
			return p.BrandName
		}
		if strings.TrimSpace(p.GenericName) != "" {
			return p.GenericName
		}
	}
	if strings.TrimSpace(r.ApplicationNumber) != "" {
		return "Application " + strings.TrimSpace(r.ApplicationNumber)
	}
	return ""
}

func (r OpenFDARecord) Manufacturer() string {
	if m := r.OpenFDA.ManufacturerName.First(); m != "" {
		return m
	}
	return r.SponsorName.First()
}

// ImportMedicinesRequest carries raw records so one malformed record does
// not reject the whole batch.
type ImportMedicinesRequest struct {
	Results []json.RawMessage `json:"results" binding:"required"`
}

type ImportResult struct {
	Created       int `json:"created"`
	Updated       int `json:"updated"`
	Skipped       int `json:"skipped"`
	SkippedNoName int `json:"skippedNoName"`
	SkippedError  int `json:"skippedError"`
}
