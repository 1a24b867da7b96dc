package coordinator

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"daily-spark/internal/failure"
	"daily-spark/internal/storage"
)

// RunScheduled is one timer cycle: generate, send to the broadcast target,
// persist as Scheduled.
func (c *Coordinator) RunScheduled(ctx context.Context, firedAt time.Time) Outcome {
	started := time.Now()
	log := c.cycleLogger(PathScheduled)
	log.Info().Time("fired_at", firedAt).Int64("chat_id", c.broadcast.ChatID).Msg("🕗 scheduled delivery triggered")

	out := c.snippetCycle(ctx, log, storage.OriginScheduled, func(ctx context.Context, text string) error {
		return c.ch.SendText(ctx, c.broadcast, text)
	})
	return c.finish(log, PathScheduled, started, out)
}

// snippetCycle runs generate, deliver, persist strictly in that order.
// Generation cannot fail (it falls back); a failed delivery skips
// persistence; a failed persistence still counts as delivered.
func (c *Coordinator) snippetCycle(ctx context.Context, log zerolog.Logger, origin storage.Origin, send func(context.Context, string) error) Outcome {
	log.Debug().Str("stage", string(StageGenerating)).Msg("stage")
	res := c.gen.Generate(ctx)
	rec := storage.Record{
		ID:        c.newID(),
		Text:      res.Text,
		Origin:    origin,
		Timestamp: c.clock.Now(),
	}
	if res.Fallback {
		c.metrics.Fallback(res.Failure.String())
		log.Warn().Err(res.Err).Str("kind", res.Failure.String()).Msg("using fallback snippet")
	}

	log.Debug().Str("stage", string(StageDelivering)).Msg("stage")
	if err := send(ctx, rec.Text); err != nil {
		log.Error().Err(err).Str("kind", failure.KindOf(err).String()).Msg("❌ delivery failed, snippet not persisted")
		return OutcomeDeliveryFailed
	}
	log.Info().Str("text", rec.Text).Msg("✅ snippet delivered")

	log.Debug().Str("stage", string(StagePersisting)).Msg("stage")
	if err := c.hist.Append(ctx, rec); err != nil {
		kind := failure.KindOf(err)
		c.metrics.StoreWrite(kind.String())
		log.Warn().Err(err).Str("kind", kind.String()).Str("record_id", rec.ID).Msg("snippet delivered but not persisted")
		return OutcomeDeliveredUnsaved
	}
	c.metrics.StoreWrite("ok")
	return OutcomeDelivered
}
