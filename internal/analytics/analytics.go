package analytics

import (
	"fmt"
	"time"

	"daily-spark/internal/storage"
)

// Summary counts a slice of history records by origin.
type Summary struct {
	Total       int
	Scheduled   int
	Interactive int
	First       time.Time
	Last        time.Time
}

// Summarize ignores records without a parsed moment when computing the span.
func Summarize(records []storage.Record) Summary {
	var s Summary
	for _, r := range records {
		s.Total++
		switch r.Origin {
		case storage.OriginScheduled:
			s.Scheduled++
		case storage.OriginInteractive:
			s.Interactive++
		}
		if r.Timestamp.IsZero() {
			continue
		}
		if s.First.IsZero() || r.Timestamp.Before(s.First) {
			s.First = r.Timestamp
		}
		if s.Last.IsZero() || r.Timestamp.After(s.Last) {
			s.Last = r.Timestamp
		}
	}
	return s
}

// String renders the summary line used in report headers.
func (s Summary) String() string {
	line := fmt.Sprintf("%d snippets: %d scheduled, %d interactive", s.Total, s.Scheduled, s.Interactive)
	if !s.First.IsZero() {
		line += fmt.Sprintf(" (%s - %s)", s.First.Format("02/01/2006"), s.Last.Format("02/01/2006"))
	}
	return line
}
