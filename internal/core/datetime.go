package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const (
	LocalDateTimeLayout = "2006-01-02T15:04:05"
	DateLayout          = "2006-01-02"
)

var dateTimeLayouts = []string{
	LocalDateTimeLayout,
	"2006-01-02T15:04:05.999999999",
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	DateLayout,
}

// LocalDateTime is a wall-clock timestamp serialized without zone, e.g. 2026-01-31T12:00:00.
// Values carrying an offset are converted to UTC.
type LocalDateTime struct {
	time.Time
}

func ParseLocalDateTime(s string) (LocalDateTime, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return LocalDateTime{Time: t.UTC()}, nil
		}
	}
	return LocalDateTime{}, fmt.Errorf("invalid date-time %q", s)
}

// ParseDay parses a bound for date filters, keeping only the calendar day.
func ParseDay(s string) (time.Time, error) {
	dt, err := ParseLocalDateTime(s)
	if err != nil {
		return time.Time{}, err
	}
	y, m, d := dt.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
}

func (t LocalDateTime) String() string {
	return t.UTC().Format(LocalDateTimeLayout)
}

func (t LocalDateTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *LocalDateTime) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*t = LocalDateTime{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("accountingDate: %w", err)
	}
	parsed, err := ParseLocalDateTime(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
