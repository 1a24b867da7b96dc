// Package history is the bot's view of snippet persistence. A Manager built
// without a store runs in degraded mode: appends and reads do nothing and
// report failure.Unavailable, each logged as a warning.
package history

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"daily-spark/internal/failure"
	"daily-spark/internal/storage"
)

var ErrUnavailable = failure.New(failure.Unavailable, "history", errors.New("database not connected"))

type Manager struct {
	store   storage.Store
	timeout time.Duration
	log     zerolog.Logger
}

// New wraps store. A nil store yields a degraded Manager.
func New(store storage.Store, timeout time.Duration, log zerolog.Logger) *Manager {
	return &Manager{store: store, timeout: timeout, log: log}
}

// Connect opens the store named by dsn and falls back to degraded mode on
// any failure. It never returns an error: an unavailable store is a
// supported operating state.
func Connect(ctx context.Context, dsn string, loc *time.Location, timeout time.Duration, log zerolog.Logger) *Manager {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	store, err := storage.Open(ctx, dsn, loc)
	if err != nil {
		log.Warn().Err(err).Str("dsn", storage.Redact(dsn)).Msg("⚠️ history store unavailable, running without persistence")
		return New(nil, timeout, log)
	}
	kind, _ := storage.Classify(dsn)
	log.Info().Str("backend", kind).Msg("history store connected")
	return New(store, timeout, log)
}

func (m *Manager) Available() bool { return m != nil && m.store != nil }

func (m *Manager) Append(ctx context.Context, rec storage.Record) error {
	if !m.Available() {
		m.log.Warn().Str("origin", string(rec.Origin)).Str("text", rec.Text).Msg("⚠️ store unavailable, snippet not saved")
		return ErrUnavailable
	}
	ctx, cancel := m.bound(ctx)
	defer cancel()
	if err := m.store.Append(ctx, rec); err != nil {
		return failure.Wrap("history append", failure.Transport, err)
	}
	m.log.Info().
		Str("origin", string(rec.Origin)).
		Str("at", rec.Timestamp.Format("02/01/2006 15:04")).
		Str("text", rec.Text).
		Msg("💾 snippet saved")
	return nil
}

// Recent returns up to limit records, newest first.
func (m *Manager) Recent(ctx context.Context, limit int) ([]storage.Record, error) {
	if !m.Available() {
		m.log.Warn().Msg("⚠️ store unavailable, history not read")
		return nil, ErrUnavailable
	}
	ctx, cancel := m.bound(ctx)
	defer cancel()
	recs, err := m.store.Recent(ctx, limit)
	if err != nil {
		return nil, failure.Wrap("history recent", failure.Transport, err)
	}
	return recs, nil
}

func (m *Manager) Close() error {
	if !m.Available() {
		return nil
	}
	return m.store.Close()
}

func (m *Manager) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if m.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, m.timeout)
}
