package storage

import (
	"context"
	"errors"
	"time"
)

// Origin records which trigger produced a snippet.
type Origin string

const (
	OriginScheduled   Origin = "Scheduled"
	OriginInteractive Origin = "Interactive"
)

func (o Origin) Valid() bool {
	return o == OriginScheduled || o == OriginInteractive
}

// Record is one delivered snippet. Records are immutable once created and
// are never updated or deleted.
//
// RawTimestamp is set instead of Timestamp when a backend holds a moment it
// could not parse; renderers show it verbatim.
type Record struct {
	ID           string    `json:"id"`
	Text         string    `json:"text"`
	Origin       Origin    `json:"origin"`
	Timestamp    time.Time `json:"-"`
	RawTimestamp string    `json:"-"`
}

// Store abstracts persistence of snippet records.
// Recent returns at most limit records, newest first; records with equal
// moments come back in reverse insertion order.
// Implementations must be safe for concurrent use and serialize their own writes.
type Store interface {
	Append(ctx context.Context, rec Record) error
	Recent(ctx context.Context, limit int) ([]Record, error)
	Close() error
}

var (
	ErrNotConfigured = errors.New("store connection string not configured")
	ErrInvalidRecord = errors.New("invalid record")
)

func validate(rec Record) error {
	if rec.ID == "" || rec.Text == "" || !rec.Origin.Valid() || rec.Timestamp.IsZero() {
		return ErrInvalidRecord
	}
	return nil
}

// momentLayout is how backends without a native time type store moments.
const momentLayout = time.RFC3339Nano

// parseMoment fills Timestamp or, if raw does not parse, RawTimestamp.
func parseMoment(rec *Record, raw string, loc *time.Location) {
	t, err := time.Parse(momentLayout, raw)
	if err != nil {
		rec.RawTimestamp = raw
		return
	}
	if loc != nil {
		t = t.In(loc)
	}
	rec.Timestamp = t
}
