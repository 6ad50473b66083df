package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// DosageUnit is the unit a dose amount is measured in.
type DosageUnit string

const (
	UnitMilligram  DosageUnit = "MG"
	UnitMicrogram  DosageUnit = "MCG"
	UnitGram       DosageUnit = "G"
	UnitMilliliter DosageUnit = "ML"
	UnitIU         DosageUnit = "IU"
	UnitTablet     DosageUnit = "TABLET"
	UnitCapsule    DosageUnit = "CAPSULE"
	UnitDrop       DosageUnit = "DROP"
	UnitPuff       DosageUnit = "PUFF"
	UnitPatch      DosageUnit = "PATCH"
	UnitSachet     DosageUnit = "SACHET"
	UnitUnit       DosageUnit = "UNIT"
)

var dosageUnits = map[DosageUnit]struct{}{
	UnitMilligram: {}, UnitMicrogram: {}, UnitGram: {}, UnitMilliliter: {},
	UnitIU: {}, UnitTablet: {}, UnitCapsule: {}, UnitDrop: {},
	UnitPuff: {}, UnitPatch: {}, UnitSachet: {}, UnitUnit: {},
}

const (
	// DosageAmountScale is the number of fractional digits a dose amount may carry.
	DosageAmountScale = 2
	// DosageAmountPrecision is the total number of digits a dose amount may carry.
	DosageAmountPrecision = 10
)

// maxDosageAmount is the smallest amount too large to store.
var maxDosageAmount = decimal.New(1, DosageAmountPrecision-DosageAmountScale)

var (
	ErrInvalidDosageAmount = errors.New("amount must be a positive decimal")
	ErrInvalidDosageUnit   = errors.New("unrecognized dosage unit")
)

func ParseDosageUnit(s string) (DosageUnit, error) {
	u := DosageUnit(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := dosageUnits[u]; !ok {
		return "", fmt.Errorf("%w %q", ErrInvalidDosageUnit, s)
	}
	return u, nil
}

// DosageUnits lists the accepted units in lexical order.
func DosageUnits() []DosageUnit {
	units := make([]DosageUnit, 0, len(dosageUnits))
	for u := range dosageUnits {
		units = append(units, u)
	}
	sort.Slice(units, func(i, j int) bool { return units[i] < units[j] })
	return units
}

// Dosage is the amount of a medicine taken at each scheduled occurrence.
// It is immutable once constructed.
type Dosage struct {
	amount decimal.Decimal
	unit   DosageUnit
}

func NewDosage(amount decimal.Decimal, unit DosageUnit) (Dosage, error) {
	if !amount.IsPositive() {
		return Dosage{}, fmt.Errorf("%w, got %s", ErrInvalidDosageAmount, amount.String())
	}
	if amount.Exponent() < -DosageAmountScale && !amount.Equal(amount.Truncate(DosageAmountScale)) {
		return Dosage{}, fmt.Errorf("%w with at most %d decimal places, got %s",
			ErrInvalidDosageAmount, DosageAmountScale, amount.String())
	}
	if amount.GreaterThanOrEqual(maxDosageAmount) {
		return Dosage{}, fmt.Errorf("%w below %s, got %s",
			ErrInvalidDosageAmount, maxDosageAmount.String(), amount.String())
	}
	if _, ok := dosageUnits[unit]; !ok {
		return Dosage{}, fmt.Errorf("%w %q", ErrInvalidDosageUnit, unit)
	}
	return Dosage{amount: amount, unit: unit}, nil
}

// ParseDosage builds a Dosage from its wire representation.
func ParseDosage(amount, unit string) (Dosage, error) {
	a, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		return Dosage{}, fmt.Errorf("%w, got %q", ErrInvalidDosageAmount, amount)
	}
	u, err := ParseDosageUnit(unit)
	if err != nil {
		return Dosage{}, err
	}
	return NewDosage(a, u)
}

func (d Dosage) Amount() decimal.Decimal { return d.amount }
func (d Dosage) Unit() DosageUnit        { return d.unit }
func (d Dosage) IsZero() bool            { return d.unit == "" }

// AmountString renders the amount with the fixed storage scale, e.g. "12.50".
func (d Dosage) AmountString() string {
	return d.amount.StringFixed(DosageAmountScale)
}

func (d Dosage) Equal(o Dosage) bool {
	return d.unit == o.unit && d.amount.Equal(o.amount)
}

func (d Dosage) String() string {
	return d.AmountString() + " " + string(d.unit)
}

type dosageJSON struct {
	Amount string     `json:"amount"`
	Unit   DosageUnit `json:"unit"`
}

func (d Dosage) MarshalJSON() ([]byte, error) {
	return json.Marshal(dosageJSON{Amount: d.AmountString(), Unit: d.unit})
}

// DecimalString accepts a JSON number or a JSON string and keeps its literal text.
type DecimalString string

func (s *DecimalString) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		*s = ""
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = DecimalString(v)
		return nil
	}
	*s = DecimalString(raw)
	return nil
}
