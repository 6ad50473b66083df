package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// DayOfWeek numbers days ISO style, Monday=1 through Sunday=7.
type DayOfWeek int

const (
	Monday DayOfWeek = iota + 1
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

var dayNames = [...]string{"", "MONDAY", "TUESDAY", "WEDNESDAY", "THURSDAY", "FRIDAY", "SATURDAY", "SUNDAY"}

var (
	ErrInvalidDayOfWeek = errors.New("invalid day of week")
	ErrInvalidTimeOfDay = errors.New("invalid time of day, expected HH:mm")
)

func ParseDayOfWeek(s string) (DayOfWeek, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	for i := Monday; i <= Sunday; i++ {
		if dayNames[i] == name {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w %q", ErrInvalidDayOfWeek, s)
}

func (d DayOfWeek) Valid() bool { return d >= Monday && d <= Sunday }

func (d DayOfWeek) String() string {
	if !d.Valid() {
		return fmt.Sprintf("DayOfWeek(%d)", int(d))
	}
	return dayNames[d]
}

// Weekday converts to the time package's Sunday-first numbering.
func (d DayOfWeek) Weekday() time.Weekday {
	return time.Weekday(int(d) % 7)
}

// TimeOfDay is a wall-clock time with minute precision, stored as minutes past midnight.
type TimeOfDay int

func NewTimeOfDay(hour, minute int) (TimeOfDay, error) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("%w, got %02d:%02d", ErrInvalidTimeOfDay, hour, minute)
	}
	return TimeOfDay(hour*60 + minute), nil
}

// ParseTimeOfDay accepts exactly "HH:mm" on a 24-hour clock.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	if len(s) != 5 || s[2] != ':' || !isDigits(s[:2]) || !isDigits(s[3:]) {
		return 0, fmt.Errorf("%w, got %q", ErrInvalidTimeOfDay, s)
	}
	h := int(s[0]-'0')*10 + int(s[1]-'0')
	m := int(s[3]-'0')*10 + int(s[4]-'0')
	if h > 23 || m > 59 {
		return 0, fmt.Errorf("%w, got %q", ErrInvalidTimeOfDay, s)
	}
	return TimeOfDay(h*60 + m), nil
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func (t TimeOfDay) Hour() int   { return int(t) / 60 }
func (t TimeOfDay) Minute() int { return int(t) % 60 }

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

func (t TimeOfDay) Value() (driver.Value, error) {
	return t.String() + ":00", nil
}

func (t *TimeOfDay) Scan(src interface{}) error {
	var s string
	switch v := src.(type) {
	case time.Time:
		*t = TimeOfDay(v.Hour()*60 + v.Minute())
		return nil
	case []byte:
		s = string(v)
	case string:
		s = v
	default:
		return fmt.Errorf("cannot scan %T into TimeOfDay", src)
	}
	// TIME columns come back as HH:MM:SS[.ffffff]
	if len(s) >= 5 {
		parsed, err := ParseTimeOfDay(s[:5])
		if err != nil {
			return err
		}
		*t = parsed
		return nil
	}
	return fmt.Errorf("%w, got %q", ErrInvalidTimeOfDay, s)
}

// ScheduleEntry is one weekly recurrence point. Two entries are equal when
// day and time match.
type ScheduleEntry struct {
	Day  DayOfWeek
	Time TimeOfDay
}

func ParseScheduleEntry(day, timeOfDay string) (ScheduleEntry, error) {
	d, err := ParseDayOfWeek(day)
	if err != nil {
		return ScheduleEntry{}, err
	}
	t, err := ParseTimeOfDay(timeOfDay)
	if err != nil {
		return ScheduleEntry{}, err
	}
	return ScheduleEntry{Day: d, Time: t}, nil
}

func (e ScheduleEntry) String() string {
	return e.Day.String() + " " + e.Time.String()
}

func (e ScheduleEntry) less(o ScheduleEntry) bool {
	if e.Day != o.Day {
		return e.Day < o.Day
	}
	return e.Time < o.Time
}

type scheduleEntryJSON struct {
	DayOfWeek string `json:"dayOfWeek"`
	TimeOfDay string `json:"timeOfDay"`
}

func (e ScheduleEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal(scheduleEntryJSON{DayOfWeek: e.Day.String(), TimeOfDay: e.Time.String()})
}

func (e *ScheduleEntry) UnmarshalJSON(data []byte) error {
	var raw scheduleEntryJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseScheduleEntry(raw.DayOfWeek, raw.TimeOfDay)
	if err != nil {
		return err
	}
	*e = parsed
	return nil
}

// Schedule is the set of weekly recurrence points of a prescription.
type Schedule struct {
	entries map[ScheduleEntry]struct{}
}

// NewSchedule builds a set from entries. Entries seen more than once are
// returned as duplicates, once per extra occurrence.
func NewSchedule(entries ...ScheduleEntry) (Schedule, []ScheduleEntry) {
	s := Schedule{entries: make(map[ScheduleEntry]struct{}, len(entries))}
	var dups []ScheduleEntry
	for _, e := range entries {
		if _, seen := s.entries[e]; seen {
			dups = append(dups, e)
			continue
		}
		s.entries[e] = struct{}{}
	}
	return s, dups
}

func (s Schedule) Len() int      { return len(s.entries) }
func (s Schedule) IsEmpty() bool { return len(s.entries) == 0 }

func (s Schedule) Contains(e ScheduleEntry) bool {
	_, ok := s.entries[e]
	return ok
}

// Entries returns the entries ordered by day, then time.
func (s Schedule) Entries() []ScheduleEntry {
	out := make([]ScheduleEntry, 0, len(s.entries))
	for e := range s.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].less(out[j]) })
	return out
}

func (s Schedule) Equal(o Schedule) bool {
	if s.Len() != o.Len() {
		return false
	}
	for e := range s.entries {
		if !o.Contains(e) {
			return false
		}
	}
	return true
}

func (s Schedule) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Entries())
}

func (s *Schedule) UnmarshalJSON(data []byte) error {
	var entries []ScheduleEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return err
	}
	*s, _ = NewSchedule(entries...)
	return nil
}
