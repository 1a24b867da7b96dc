package llm

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Morwran/yagpt"

	"daily-spark/internal/failure"
)

// iamTokenTTL is how long an IAM token is reused. Yandex issues tokens valid
// for up to 12 hours and asks clients to renew them hourly.
const iamTokenTTL = time.Hour

type (
	issueFunc    func() (string, error)
	completeFunc func(ctx context.Context, iamToken string, msgs []Message) (Response, error)
)

// YandexClient ignores Request.Temperature and Request.MaxTokens: yagpt's
// completion call takes no options and uses the model defaults.
//
// The IAM token is renewed after iamTokenTTL, and after any failed
// completion so a revoked or expired token is not reused.
type YandexClient struct {
	issue    issueFunc
	complete completeFunc
	now      func() time.Time

	mu       sync.Mutex
	iamToken string
	issuedAt time.Time
}

func NewYandex(oauthToken, folderID string) (*YandexClient, error) {
	iam, err := yagpt.NewYaIam(oauthToken)
	if err != nil {
		return nil, fmt.Errorf("failed to init yandex iam: %w", err)
	}
	ya, err := yagpt.NewYagpt(folderID)
	if err != nil {
		return nil, fmt.Errorf("failed to init yagpt: %w", err)
	}

	issue := func() (string, error) {
		resp, err := iam.Create()
		if err != nil {
			return "", err
		}
		return resp.IamToken, nil
	}
	complete := func(ctx context.Context, token string, msgs []Message) (Response, error) {
		messages := make([]yagpt.Message, 0, len(msgs))
		for _, m := range msgs {
			messages = append(messages, yagpt.Message{Role: m.Role, Content: m.Content})
		}
		resp, err := ya.CompletionWithCtx(ctx, token, messages)
		if err != nil {
			return Response{}, failure.Wrap("yagpt completion", failure.Transport, fmt.Errorf("yagpt completion failed: %w", err))
		}
		if resp == nil || len(resp.Alternatives) == 0 {
			return Response{}, failure.New(failure.Malformed, "yagpt completion", errors.New("yagpt returned empty response"))
		}
		out := Response{Content: resp.Alternatives[0].Message.Content, Model: yagpt.YaModelLite}
		out.PromptTokens = int(resp.Usage.InputTextTokens)
		out.CompletionTokens = int(resp.Usage.CompletionTokens)
		out.TotalTokens = int(resp.Usage.TotalTokens)
		return out, nil
	}

	c := newYandexClient(issue, complete, time.Now)
	// Fail fast on a bad OAuth token.
	if _, err := c.token(); err != nil {
		return nil, err
	}
	return c, nil
}

func newYandexClient(issue issueFunc, complete completeFunc, now func() time.Time) *YandexClient {
	return &YandexClient{issue: issue, complete: complete, now: now}
}

// token returns the cached IAM token, issuing a new one when none is held or
// the current one is older than iamTokenTTL.
func (c *YandexClient) token() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.iamToken != "" && c.now().Sub(c.issuedAt) < iamTokenTTL {
		return c.iamToken, nil
	}
	tok, err := c.issue()
	if err != nil {
		return "", failure.Wrap("yandex iam", failure.Rejected, fmt.Errorf("failed to create iam token: %w", err))
	}
	c.iamToken = tok
	c.issuedAt = c.now()
	return tok, nil
}

func (c *YandexClient) invalidate(tok string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.iamToken == tok {
		c.iamToken = ""
	}
}

func (c *YandexClient) Generate(ctx context.Context, r Request) (Response, error) {
	tok, err := c.token()
	if err != nil {
		return Response{}, err
	}
	resp, err := c.complete(ctx, tok, r.Messages)
	if err != nil {
		c.invalidate(tok)
		return Response{}, err
	}
	return resp, nil
}
