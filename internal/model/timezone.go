package model

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	// bundles the IANA database so zone lookups do not depend on the host
	_ "time/tzdata"
)

// MaxTimeZoneLength matches the width of the time_zone column.
const MaxTimeZoneLength = 64

var ErrInvalidTimeZone = errors.New("invalid IANA time zone")

var ianaZonePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_+\-]*(/[A-Za-z0-9][A-Za-z0-9_+\-]*)*$`)

// ValidateTimeZone checks that name is shaped like an IANA zone identifier
// ("Area/Location", "UTC", "Etc/GMT+5"). With resolve set, it also has to
// exist in the zone database.
func ValidateTimeZone(name string, resolve bool) error {
	if name == "" {
		return fmt.Errorf("%w: time zone is required", ErrInvalidTimeZone)
	}
	if len(name) > MaxTimeZoneLength || name == "Local" || !ianaZonePattern.MatchString(name) {
		return fmt.Errorf("%w %q", ErrInvalidTimeZone, name)
	}
	if resolve {
		if _, err := time.LoadLocation(name); err != nil {
			return fmt.Errorf("%w %q: unknown zone", ErrInvalidTimeZone, name)
		}
	}
	return nil
}
