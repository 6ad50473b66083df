package model

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDosage(t *testing.T) {
	tests := []struct {
		name    string
		amount  string
		unit    string
		want    string
		wantErr error
	}{
		{name: "integer", amount: "500", unit: "mg", want: "500.00 MG"},
		{name: "fraction", amount: "2.5", unit: "ML", want: "2.50 ML"},
		{name: "two places", amount: "0.25", unit: "tablet", want: "0.25 TABLET"},
		{name: "trailing zeros", amount: "1.500", unit: "G", want: "1.50 G"},
		{name: "zero", amount: "0", unit: "MG", wantErr: ErrInvalidDosageAmount},
		{name: "negative", amount: "-1", unit: "MG", wantErr: ErrInvalidDosageAmount},
		{name: "too precise", amount: "0.125", unit: "MG", wantErr: ErrInvalidDosageAmount},
		{name: "largest storable", amount: "99999999.99", unit: "MG", want: "99999999.99 MG"},
		{name: "too large", amount: "100000000", unit: "MG", wantErr: ErrInvalidDosageAmount},
		{name: "far too large", amount: "123456789012", unit: "MG", wantErr: ErrInvalidDosageAmount},
		{name: "not a number", amount: "lots", unit: "MG", wantErr: ErrInvalidDosageAmount},
		{name: "unknown unit", amount: "1", unit: "SPOONFUL", wantErr: ErrInvalidDosageUnit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := ParseDosage(tt.amount, tt.unit)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.String())
		})
	}
}

func TestDosageEqual(t *testing.T) {
	a, err := NewDosage(decimal.RequireFromString("2.5"), UnitMilligram)
	require.NoError(t, err)
	b, err := NewDosage(decimal.RequireFromString("2.50"), UnitMilligram)
	require.NoError(t, err)
	c, err := NewDosage(decimal.RequireFromString("2.5"), UnitMilliliter)
	require.NoError(t, err)

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
}

func TestDosageMarshalJSON(t *testing.T) {
	d, err := ParseDosage("12.5", "mg")
	require.NoError(t, err)

	data, err := json.Marshal(d)
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount":"12.50","unit":"MG"}`, string(data))
}

func TestDecimalStringAcceptsNumberAndString(t *testing.T) {
	var in DosageInput
	require.NoError(t, json.Unmarshal([]byte(`{"amount": 2.5, "unit": "MG"}`), &in))
	assert.Equal(t, DecimalString("2.5"), in.Amount)

	require.NoError(t, json.Unmarshal([]byte(`{"amount": "0.25", "unit": "MG"}`), &in))
	assert.Equal(t, DecimalString("0.25"), in.Amount)

	require.NoError(t, json.Unmarshal([]byte(`{"amount": null, "unit": "MG"}`), &in))
	assert.Equal(t, DecimalString(""), in.Amount)
}

func TestDosageUnitsSorted(t *testing.T) {
	units := DosageUnits()
	require.NotEmpty(t, units)
	for i := 1; i < len(units); i++ {
		assert.Less(t, string(units[i-1]), string(units[i]))
	}
}
