package timeutil

import "time"

// Now returns the current time in UTC
// Always use this instead of time.Now() to ensure timezone consistency
func Now() time.Time {
	return time.Now().UTC()
}

// ISO8601 formats t the way OpenPayU expects timestamps (RFC 3339, second precision)
func ISO8601(t time.Time) string {
	return t.Format(time.RFC3339)
}

// ParseISO8601 parses an OpenPayU timestamp and returns it in UTC
func ParseISO8601(value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
