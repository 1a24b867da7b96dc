// Package generator produces the motivational snippet text. It never fails:
// any problem with the generation service is reported as a failure kind
// alongside the fallback text.
package generator

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"daily-spark/internal/failure"
	"daily-spark/internal/llm"
)

const (
	Fallback = "Don't give up, keep trying!"

	DefaultSystemPrompt = "You are a generator of short motivational phrases."
	DefaultUserPrompt   = "Send me a simple, short and positive motivational phrase."

	Temperature = 0.7
	MaxTokens   = 60
	MaxRunes    = 280
)

// Result is what a generation attempt produced. Text is never empty.
type Result struct {
	Text     string
	Fallback bool
	Failure  failure.Kind
	Err      error
}

type Generator struct {
	client       llm.Client
	systemPrompt string
	userPrompt   string
	timeout      time.Duration
	log          zerolog.Logger
}

type Option func(*Generator)

func WithSystemPrompt(p string) Option {
	return func(g *Generator) {
		if strings.TrimSpace(p) != "" {
			g.systemPrompt = strings.TrimSpace(p)
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(g *Generator) { g.timeout = d }
}

func New(client llm.Client, log zerolog.Logger, opts ...Option) *Generator {
	g := &Generator{
		client:       client,
		systemPrompt: DefaultSystemPrompt,
		userPrompt:   DefaultUserPrompt,
		log:          log,
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

func (g *Generator) Generate(ctx context.Context) Result {
	if g.client == nil {
		return g.fallback(failure.New(failure.Unavailable, "generate", errors.New("no llm client configured")))
	}
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	resp, err := g.call(ctx)
	if err != nil {
		return g.fallback(err)
	}
	text := normalize(resp.Content)
	if text == "" {
		return g.fallback(failure.New(failure.Malformed, "generate", errors.New("empty completion")))
	}
	g.log.Info().Str("model", resp.Model).Int("total_tokens", resp.TotalTokens).Str("text", text).Msg("✨ snippet generated")
	return Result{Text: text}
}

// call shields the caller from panics inside provider SDKs.
func (g *Generator) call(ctx context.Context) (resp llm.Response, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = failure.New(failure.Internal, "generate", errors.New("llm client panicked"))
		}
	}()
	return g.client.Generate(ctx, llm.Request{
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: g.systemPrompt},
			{Role: llm.RoleUser, Content: g.userPrompt},
		},
		Temperature: Temperature,
		MaxTokens:   MaxTokens,
	})
}

func (g *Generator) fallback(err error) Result {
	kind := failure.KindOf(err)
	g.log.Warn().Err(err).Str("kind", kind.String()).Msg("generation failed, using fallback")
	return Result{Text: Fallback, Fallback: true, Failure: kind, Err: err}
}

func normalize(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, "\"“”")
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) > MaxRunes {
		r := []rune(s)
		s = strings.TrimSpace(string(r[:MaxRunes]))
	}
	return s
}
