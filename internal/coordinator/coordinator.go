// Package coordinator reconciles the three triggers of the bot (the daily
// timer, free-text messages and button clicks) against one
// generate, deliver, persist pipeline.
package coordinator

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"daily-spark/internal/clock"
	"daily-spark/internal/delivery"
	"daily-spark/internal/generator"
	"daily-spark/internal/logging"
	"daily-spark/internal/metrics"
	"daily-spark/internal/storage"
)

const (
	MenuText         = "Stay motivated! Choose an option below:"
	NoHistoryText    = "No snippets found in history."
	NotConnectedText = "Error: database is not connected."
	ReportFailedText = "Could not build the history report."
)

type Generator interface {
	Generate(ctx context.Context) generator.Result
}

type History interface {
	Append(ctx context.Context, rec storage.Record) error
	Recent(ctx context.Context, limit int) ([]storage.Record, error)
}

type Renderer interface {
	Render(ctx context.Context, records []storage.Record) (string, error)
}

// Path names the trigger a cycle came from.
type Path string

const (
	PathScheduled Path = "scheduled"
	PathMessage   Path = "message"
	PathAction    Path = "action"
)

// Outcome is how a cycle ended. Every outcome is terminal: nothing is retried.
type Outcome string

const (
	OutcomeDelivered        Outcome = "delivered"
	OutcomeDeliveredUnsaved Outcome = "delivered_unsaved"
	OutcomeDeliveryFailed   Outcome = "delivery_failed"
	OutcomeMenuSent         Outcome = "menu_sent"
	OutcomeReportSent       Outcome = "report_sent"
	OutcomeNoHistory        Outcome = "no_history"
	OutcomeStoreUnavailable Outcome = "store_unavailable"
	OutcomeReportFailed     Outcome = "report_failed"
	OutcomeIgnored          Outcome = "ignored"
)

// Stage is the step a snippet cycle is in; it only appears in logs.
type Stage string

const (
	StageGenerating Stage = "generating"
	StageDelivering Stage = "delivering"
	StagePersisting Stage = "persisting"
)

type Deps struct {
	Generator Generator
	History   History
	Renderer  Renderer
	Channel   delivery.Channel
	Clock     *clock.Clock
	Metrics   *metrics.Metrics
	Log       zerolog.Logger

	// Broadcast is the fixed destination of scheduled snippets.
	Broadcast delivery.Target
	// HistoryLimit caps the records in a report.
	HistoryLimit int
}

type Coordinator struct {
	gen       Generator
	hist      History
	render    Renderer
	ch        delivery.Channel
	clock     *clock.Clock
	metrics   *metrics.Metrics
	log       zerolog.Logger
	broadcast delivery.Target
	limit     int
	newID     func() string

	wg sync.WaitGroup
}

func New(d Deps) *Coordinator {
	clk := d.Clock
	if clk == nil {
		clk = clock.New(time.UTC)
	}
	limit := d.HistoryLimit
	if limit <= 0 {
		limit = 30
	}
	return &Coordinator{
		gen:       d.Generator,
		hist:      d.History,
		render:    d.Renderer,
		ch:        d.Channel,
		clock:     clk,
		metrics:   d.Metrics,
		log:       d.Log,
		broadcast: d.Broadcast,
		limit:     limit,
		newID:     uuid.NewString,
	}
}

// Run is the event loop. Each firing from ticks and each event is handled in
// its own goroutine, so a stuck call only holds up its own cycle. Run returns
// when ctx is done or both channels are closed, after in-flight cycles finish.
func (c *Coordinator) Run(ctx context.Context, ticks <-chan time.Time, events <-chan delivery.Event) error {
	c.log.Info().Msg("🤖 coordinator running")
	defer c.wg.Wait()
	for ticks != nil || events != nil {
		select {
		case <-ctx.Done():
			c.log.Info().Msg("coordinator stopping, waiting for in-flight cycles")
			return nil
		case at, ok := <-ticks:
			if !ok {
				ticks = nil
				continue
			}
			c.spawn(ctx, PathScheduled, func(ctx context.Context) { c.RunScheduled(ctx, at) })
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			c.spawn(ctx, pathOf(ev), func(ctx context.Context) { c.HandleEvent(ctx, ev) })
		}
	}
	return nil
}

// spawn detaches the cycle from loop cancellation: shutdown lets in-flight
// cycles finish within their own call timeouts.
func (c *Coordinator) spawn(ctx context.Context, path Path, fn func(ctx context.Context)) {
	cctx := context.WithoutCancel(ctx)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				c.log.Error().Str("path", string(path)).Interface("panic", r).Msg("cycle panicked")
			}
		}()
		fn(cctx)
	}()
}

func pathOf(ev delivery.Event) Path {
	if ev.Kind == delivery.ActionEvent {
		return PathAction
	}
	return PathMessage
}

func (c *Coordinator) cycleLogger(path Path) zerolog.Logger {
	return c.log.With().Str("cycle", c.newID()).Str("path", string(path)).Logger()
}

func (c *Coordinator) finish(log zerolog.Logger, path Path, started time.Time, out Outcome) Outcome {
	c.metrics.Cycle(string(path), string(out))
	log.Info().Str("outcome", string(out)).Dur("took", logging.Since(started)).Msg("cycle done")
	return out
}
