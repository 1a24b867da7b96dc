package telegram

import (
	"context"
	"errors"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"daily-spark/internal/delivery"
	"daily-spark/internal/failure"
)

const (
	pollTimeout = 60 // seconds

	ButtonSnippet = "Motivate me!"
	ButtonHistory = "📜 View history"
)

// Bot is the Telegram side of delivery.Channel.
type Bot struct {
	api     *tgbotapi.BotAPI
	s       sender
	limiter *rate.Limiter
	timeout time.Duration
	log     zerolog.Logger
}

var _ delivery.Channel = (*Bot)(nil)

// New connects to the Bot API. timeout bounds every outbound call.
func New(botToken string, timeout time.Duration, log zerolog.Logger) (*Bot, error) {
	client := &http.Client{Timeout: timeout + pollTimeout*time.Second}
	api, err := tgbotapi.NewBotAPIWithClient(botToken, tgbotapi.APIEndpoint, client)
	if err != nil {
		return nil, err
	}
	log.Info().Str("username", api.Self.UserName).Msg("🤖 authorized on telegram")
	return &Bot{
		api: api,
		s:   botAPISender{api: api},
		// Telegram allows about 30 messages per second per bot.
		limiter: rate.NewLimiter(rate.Limit(20), 5),
		timeout: timeout,
		log:     log,
	}, nil
}

// Listen streams inbound updates as delivery events until ctx is done.
func (b *Bot) Listen(ctx context.Context) <-chan delivery.Event {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = pollTimeout

	updates := b.api.GetUpdatesChan(u)
	out := make(chan delivery.Event)
	go func() {
		defer close(out)
		defer b.api.StopReceivingUpdates()
		for {
			select {
			case <-ctx.Done():
				return
			case update, ok := <-updates:
				if !ok {
					return
				}
				ev, ok := toEvent(update)
				if !ok {
					continue
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

// toEvent keeps non-command text and button clicks; commands and everything
// else are dropped.
func toEvent(update tgbotapi.Update) (delivery.Event, bool) {
	if msg := update.Message; msg != nil {
		if msg.Text == "" || msg.Chat == nil {
			return delivery.Event{}, false
		}
		if msg.IsCommand() {
			return delivery.Event{}, false
		}
		ev := delivery.Event{
			Kind:    delivery.MessageEvent,
			ReplyTo: delivery.Target{ChatID: msg.Chat.ID},
			Text:    msg.Text,
		}
		if msg.From != nil {
			ev.UserID = msg.From.ID
		}
		return ev, true
	}
	if cb := update.CallbackQuery; cb != nil {
		ev := delivery.Event{
			Kind:       delivery.ActionEvent,
			Action:     delivery.Action(cb.Data),
			CallbackID: cb.ID,
		}
		if cb.From != nil {
			ev.UserID = cb.From.ID
			ev.ReplyTo = delivery.Target{ChatID: cb.From.ID}
		}
		if cb.Message != nil && cb.Message.Chat != nil {
			ev.ReplyTo = delivery.Target{ChatID: cb.Message.Chat.ID}
		}
		return ev, true
	}
	return delivery.Event{}, false
}

func (b *Bot) menuKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(ButtonSnippet, string(delivery.ActionRequestSnippet)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(ButtonHistory, string(delivery.ActionViewHistory)),
		),
	)
}

func (b *Bot) SendText(ctx context.Context, to delivery.Target, text string) error {
	return b.do(ctx, "send text", func() error {
		_, err := b.s.Send(tgbotapi.NewMessage(to.ChatID, text))
		return err
	})
}

func (b *Bot) SendMenu(ctx context.Context, to delivery.Target, text string) error {
	return b.do(ctx, "send menu", func() error {
		msg := tgbotapi.NewMessage(to.ChatID, text)
		msg.ReplyMarkup = b.menuKeyboard()
		_, err := b.s.Send(msg)
		return err
	})
}

func (b *Bot) SendFile(ctx context.Context, to delivery.Target, path string) error {
	return b.do(ctx, "send file", func() error {
		_, err := b.s.Send(tgbotapi.NewDocument(to.ChatID, tgbotapi.FilePath(path)))
		return err
	})
}

func (b *Bot) Acknowledge(ctx context.Context, callbackID string) error {
	return b.do(ctx, "answer callback", func() error {
		_, err := b.s.Request(tgbotapi.NewCallback(callbackID, ""))
		return err
	})
}

// do rate-limits and bounds one API call. The call itself cannot be
// interrupted; on timeout it finishes in the background and its result is dropped.
func (b *Bot) do(ctx context.Context, op string, fn func() error) error {
	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}
	if b.limiter != nil {
		if err := b.limiter.Wait(ctx); err != nil {
			return failure.Wrap(op, failure.Timeout, err)
		}
	}
	done := make(chan error, 1)
	go func() { done <- fn() }()
	select {
	case err := <-done:
		return classify(op, err)
	case <-ctx.Done():
		return failure.Wrap(op, failure.Timeout, ctx.Err())
	}
}

// classify maps Bot API errors: 4xx except 429 means the request itself is
// bad (unknown chat, bot blocked), anything else is a transport problem.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) {
		if apiErr.Code >= 400 && apiErr.Code < 500 && apiErr.Code != http.StatusTooManyRequests {
			return failure.New(failure.Rejected, op, err)
		}
		return failure.New(failure.Transport, op, err)
	}
	return failure.Wrap(op, failure.Transport, err)
}
