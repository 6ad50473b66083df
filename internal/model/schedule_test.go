package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeOfDay(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "08:00", want: "08:00"},
		{in: "00:00", want: "00:00"},
		{in: "23:59", want: "23:59"},
		{in: "24:00", wantErr: true},
		{in: "12:60", wantErr: true},
		{in: "8:00", wantErr: true},
		{in: "08:00:00", wantErr: true},
		{in: "8am", wantErr: true},
		{in: "", wantErr: true},
		{in: "ab:cd", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTimeOfDay(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidTimeOfDay)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestParseDayOfWeek(t *testing.T) {
	d, err := ParseDayOfWeek("monday")
	require.NoError(t, err)
	assert.Equal(t, Monday, d)
	assert.Equal(t, time.Monday, d.Weekday())

	d, err = ParseDayOfWeek(" SUNDAY ")
	require.NoError(t, err)
	assert.Equal(t, Sunday, d)
	assert.Equal(t, time.Sunday, d.Weekday())

	_, err = ParseDayOfWeek("FUNDAY")
	assert.ErrorIs(t, err, ErrInvalidDayOfWeek)
}

func TestTimeOfDayScan(t *testing.T) {
	var tod TimeOfDay
	require.NoError(t, tod.Scan("08:30:00"))
	assert.Equal(t, "08:30", tod.String())

	require.NoError(t, tod.Scan([]byte("21:05:00.000000")))
	assert.Equal(t, "21:05", tod.String())

	require.NoError(t, tod.Scan(time.Date(0, 1, 1, 6, 15, 0, 0, time.UTC)))
	assert.Equal(t, "06:15", tod.String())

	assert.Error(t, tod.Scan(42))

	v, err := tod.Value()
	require.NoError(t, err)
	assert.Equal(t, "06:15:00", v)
}

func TestNewScheduleCollapsesDuplicates(t *testing.T) {
	mon8 := ScheduleEntry{Day: Monday, Time: 8 * 60}
	wed20 := ScheduleEntry{Day: Wednesday, Time: 20 * 60}

	s, dups := NewSchedule(mon8, wed20, mon8, mon8)
	assert.Equal(t, 2, s.Len())
	assert.Len(t, dups, 2)
	assert.True(t, s.Contains(mon8))
	assert.True(t, s.Contains(wed20))
}

func TestScheduleEntriesOrdered(t *testing.T) {
	s, _ := NewSchedule(
		ScheduleEntry{Day: Friday, Time: 60},
		ScheduleEntry{Day: Monday, Time: 20 * 60},
		ScheduleEntry{Day: Monday, Time: 8 * 60},
	)

	var got []string
	for _, e := range s.Entries() {
		got = append(got, e.String())
	}
	assert.Equal(t, []string{"MONDAY 08:00", "MONDAY 20:00", "FRIDAY 01:00"}, got)
}

func TestScheduleEqualIgnoresOrder(t *testing.T) {
	a, _ := NewSchedule(ScheduleEntry{Day: Monday, Time: 480}, ScheduleEntry{Day: Tuesday, Time: 480})
	b, _ := NewSchedule(ScheduleEntry{Day: Tuesday, Time: 480}, ScheduleEntry{Day: Monday, Time: 480})
	c, _ := NewSchedule(ScheduleEntry{Day: Tuesday, Time: 480})

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
}

func TestScheduleJSON(t *testing.T) {
	s, _ := NewSchedule(ScheduleEntry{Day: Monday, Time: 480})

	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"dayOfWeek":"MONDAY","timeOfDay":"08:00"}]`, string(data))

	var decoded Schedule
	require.NoError(t, json.Unmarshal([]byte(
		`[{"dayOfWeek":"MONDAY","timeOfDay":"08:00"},{"dayOfWeek":"monday","timeOfDay":"08:00"}]`), &decoded))
	assert.True(t, s.Equal(decoded))

	assert.Error(t, json.Unmarshal([]byte(`[{"dayOfWeek":"MONDAY","timeOfDay":"8am"}]`), &decoded))
}
