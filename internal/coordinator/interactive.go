package coordinator

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"

	"daily-spark/internal/delivery"
	"daily-spark/internal/failure"
	"daily-spark/internal/storage"
)

// HandleEvent routes one inbound event. It always reaches a terminal outcome.
func (c *Coordinator) HandleEvent(ctx context.Context, ev delivery.Event) Outcome {
	switch ev.Kind {
	case delivery.ActionEvent:
		return c.handleAction(ctx, ev)
	default:
		return c.handleMessage(ctx, ev)
	}
}

// handleMessage answers any free text with the action menu. Replying is the
// acknowledgement; nothing is generated or stored.
func (c *Coordinator) handleMessage(ctx context.Context, ev delivery.Event) Outcome {
	started := time.Now()
	log := c.cycleLogger(PathMessage).With().Int64("chat_id", ev.ReplyTo.ChatID).Logger()
	log.Info().Int64("user_id", ev.UserID).Msg("📩 message received, showing menu")

	if err := c.ch.SendMenu(ctx, ev.ReplyTo, MenuText); err != nil {
		log.Error().Err(err).Str("kind", failure.KindOf(err).String()).Msg("failed to send menu")
		return c.finish(log, PathMessage, started, OutcomeDeliveryFailed)
	}
	return c.finish(log, PathMessage, started, OutcomeMenuSent)
}

// handleAction acknowledges the click first, whatever happens next, so the
// platform never re-delivers it.
func (c *Coordinator) handleAction(ctx context.Context, ev delivery.Event) Outcome {
	started := time.Now()
	log := c.cycleLogger(PathAction).With().
		Int64("chat_id", ev.ReplyTo.ChatID).
		Str("action", string(ev.Action)).
		Logger()
	log.Info().Int64("user_id", ev.UserID).Msg("🔘 button clicked")

	if err := c.ch.Acknowledge(ctx, ev.CallbackID); err != nil {
		log.Warn().Err(err).Str("kind", failure.KindOf(err).String()).Msg("failed to acknowledge callback")
	}

	var out Outcome
	switch ev.Action {
	case delivery.ActionRequestSnippet:
		out = c.snippetCycle(ctx, log, storage.OriginInteractive, func(ctx context.Context, text string) error {
			return c.ch.SendText(ctx, ev.ReplyTo, text)
		})
	case delivery.ActionViewHistory:
		out = c.viewHistory(ctx, log, ev.ReplyTo)
	default:
		log.Warn().Msg("unknown action ignored")
		out = OutcomeIgnored
	}
	return c.finish(log, PathAction, started, out)
}

// viewHistory replies with exactly one of: the report document, "no
// history", or "database not connected".
func (c *Coordinator) viewHistory(ctx context.Context, log zerolog.Logger, to delivery.Target) Outcome {
	recs, err := c.hist.Recent(ctx, c.limit)
	if err != nil {
		log.Warn().Err(err).Str("kind", failure.KindOf(err).String()).Msg("⚠️ history unavailable")
		c.reply(ctx, log, to, NotConnectedText)
		return OutcomeStoreUnavailable
	}
	if len(recs) == 0 {
		c.reply(ctx, log, to, NoHistoryText)
		return OutcomeNoHistory
	}

	path, err := c.render.Render(ctx, recs)
	if err != nil {
		log.Error().Err(err).Int("records", len(recs)).Msg("failed to render history report")
		c.reply(ctx, log, to, ReportFailedText)
		return OutcomeReportFailed
	}
	defer func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			log.Warn().Err(err).Str("path", path).Msg("failed to remove report file")
		}
	}()

	if err := c.ch.SendFile(ctx, to, path); err != nil {
		log.Error().Err(err).Str("kind", failure.KindOf(err).String()).Msg("failed to send history report")
		return OutcomeDeliveryFailed
	}
	log.Info().Int("records", len(recs)).Msg("📄 history report sent")
	return OutcomeReportSent
}

func (c *Coordinator) reply(ctx context.Context, log zerolog.Logger, to delivery.Target, text string) {
	if err := c.ch.SendText(ctx, to, text); err != nil {
		log.Error().Err(err).Str("kind", failure.KindOf(err).String()).Msg("failed to send reply")
	}
}
