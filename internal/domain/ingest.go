package domain

import "time"

// IngestStats holds counters for one pipeline run, used for logging
// and the refresh response.
type IngestStats struct {
	Fetched       int
	New           int
	Skipped       int
	SummaryFailed int
	Notified      int
	Duration      time.Duration
}
