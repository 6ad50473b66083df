package model

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateTimeZone(t *testing.T) {
	valid := []string{"UTC", "Europe/Berlin", "America/Argentina/Buenos_Aires", "Etc/GMT+5", "America/Port-au-Prince"}
	for _, tz := range valid {
		assert.NoError(t, ValidateTimeZone(tz, true), tz)
	}

	invalid := []string{"", "Local", "Europe Berlin", "/Berlin", "Europe//Berlin", "+05:00", strings.Repeat("A", MaxTimeZoneLength+1)}
	for _, tz := range invalid {
		assert.ErrorIs(t, ValidateTimeZone(tz, false), ErrInvalidTimeZone, tz)
	}
}

func TestValidateTimeZoneResolve(t *testing.T) {
	// well formed but not in the zone database
	assert.NoError(t, ValidateTimeZone("Mars/Olympus_Mons", false))
	assert.ErrorIs(t, ValidateTimeZone("Mars/Olympus_Mons", true), ErrInvalidTimeZone)
}
