package types

import "time"

// TimestampLayout is ISO-8601 in UTC with millisecond precision.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// FormatTimestamp renders t the way every API payload exposes dates.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}
