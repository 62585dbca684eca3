package record

import "time"

// StoreTime converts t to the form timestamps are stored and compared in:
// UTC, without a monotonic clock reading.
func StoreTime(t time.Time) time.Time {
	return t.UTC().Round(0)
}
