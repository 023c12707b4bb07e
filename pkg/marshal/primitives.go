package marshal

import (
	"fmt"
	"net/url"
	"reflect"
	"time"

	"github.com/google/uuid"
)

// DateOnly is a calendar date without a time-of-day component. It
// encodes on the wire as an ISO 8601 date string.
type DateOnly struct {
	Year  int
	Month time.Month
	Day   int
}

// ParseDateOnly parses an ISO 8601 date string ("2026-08-25").
func ParseDateOnly(s string) (DateOnly, error) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return DateOnly{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return DateOnly{Year: t.Year(), Month: t.Month(), Day: t.Day()}, nil
}

// String returns the ISO 8601 date string.
func (d DateOnly) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// TimeOnly is a time-of-day without a date component. It encodes on the
// wire as an ISO 8601 time string.
type TimeOnly struct {
	Hour   int
	Minute int
	Second int
}

// ParseTimeOnly parses an ISO 8601 time string ("15:04:05").
func ParseTimeOnly(s string) (TimeOnly, error) {
	t, err := time.Parse(time.TimeOnly, s)
	if err != nil {
		return TimeOnly{}, fmt.Errorf("invalid time %q: %w", s, err)
	}
	return TimeOnly{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second()}, nil
}

// String returns the ISO 8601 time string.
func (t TimeOnly) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
}

// Special-cased native types in the primitive table.
var (
	durationType = reflect.TypeOf(time.Duration(0))
	timeType     = reflect.TypeOf(time.Time{})
	dateOnlyType = reflect.TypeOf(DateOnly{})
	timeOnlyType = reflect.TypeOf(TimeOnly{})
	uuidType     = reflect.TypeOf(uuid.UUID{})
	urlType      = reflect.TypeOf(url.URL{})
)

// isPrimitiveType reports whether t encodes as a wire primitive (enums
// aside, which need the surface).
func isPrimitiveType(t reflect.Type) bool {
	switch t {
	case durationType, timeType, dateOnlyType, timeOnlyType, uuidType, urlType:
		return true
	}
	switch t.Kind() {
	case reflect.String, reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// durationToMillis converts a duration to total milliseconds as a
// double, the fixed wire encoding for time spans.
func durationToMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// millisToDuration converts total milliseconds back to a duration.
func millisToDuration(ms float64) time.Duration {
	return time.Duration(ms * float64(time.Millisecond))
}
