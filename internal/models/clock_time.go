package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ClockTime is a wall-clock time of day without a date or zone, stored in a TIME column.
type ClockTime struct {
	Hour   int
	Minute int
	Second int
}

var clockLayouts = []string{"15:04:05", "15:04"}

// ParseClockTime parses "HH:MM" or "HH:MM:SS".
func ParseClockTime(raw string) (ClockTime, error) {
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return ClockTime{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second()}, nil
		}
	}
	return ClockTime{}, fmt.Errorf("invalid time of day %q", raw)
}

// MustClockTime is ParseClockTime for literals.
func MustClockTime(raw string) ClockTime {
	c, err := ParseClockTime(raw)
	if err != nil {
		panic(err)
	}
	return c
}

// On places the time of day on the calendar date of day, in loc.
func (c ClockTime) On(day time.Time, loc *time.Location) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), c.Hour, c.Minute, c.Second, 0, loc)
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", c.Hour, c.Minute, c.Second)
}

// Scan implements sql.Scanner. lib/pq hands TIME columns over as time.Time.
func (c *ClockTime) Scan(src interface{}) error {
	switch v := src.(type) {
	case time.Time:
		*c = ClockTime{Hour: v.Hour(), Minute: v.Minute(), Second: v.Second()}
		return nil
	case string:
		parsed, err := ParseClockTime(v)
		if err != nil {
			return err
		}
		*c = parsed
		return nil
	case []byte:
		return c.Scan(string(v))
	case nil:
		*c = ClockTime{}
		return nil
	default:
		return fmt.Errorf("cannot scan %T into ClockTime", src)
	}
}

// Value implements driver.Valuer.
func (c ClockTime) Value() (driver.Value, error) {
	return c.String(), nil
}

// MarshalJSON renders the time as "HH:MM:SS".
func (c ClockTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// UnmarshalJSON accepts "HH:MM" or "HH:MM:SS".
func (c *ClockTime) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseClockTime(raw)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
