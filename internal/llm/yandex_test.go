package llm

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"daily-spark/internal/failure"
)

type fakeIAM struct {
	issued int
	err    error
}

func (f *fakeIAM) issue() (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.issued++
	return fmt.Sprintf("iam-%d", f.issued), nil
}

type fakeCompleter struct {
	tokens []string
	err    error
}

func (f *fakeCompleter) complete(ctx context.Context, tok string, msgs []Message) (Response, error) {
	f.tokens = append(f.tokens, tok)
	if f.err != nil {
		return Response{}, f.err
	}
	return Response{Content: "Keep going!"}, nil
}

func TestYandex_RenewsTokenAfterTTL(t *testing.T) {
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	iam := &fakeIAM{}
	comp := &fakeCompleter{}
	c := newYandexClient(iam.issue, comp.complete, func() time.Time { return now })

	req := Request{Messages: []Message{{Role: RoleUser, Content: "x"}}}
	_, err := c.Generate(context.Background(), req)
	require.NoError(t, err)

	now = now.Add(30 * time.Minute)
	_, err = c.Generate(context.Background(), req)
	require.NoError(t, err)

	// A daily firing long after the token was issued.
	now = now.Add(24 * time.Hour)
	resp, err := c.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "Keep going!", resp.Content)

	assert.Equal(t, 2, iam.issued)
	assert.Equal(t, []string{"iam-1", "iam-1", "iam-2"}, comp.tokens)
}

func TestYandex_FailedCompletionDropsToken(t *testing.T) {
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	iam := &fakeIAM{}
	comp := &fakeCompleter{err: failure.New(failure.Transport, "yagpt completion", errors.New("401 unauthenticated"))}
	c := newYandexClient(iam.issue, comp.complete, func() time.Time { return now })
	req := Request{Messages: []Message{{Role: RoleUser, Content: "x"}}}

	_, err := c.Generate(context.Background(), req)
	assert.Equal(t, failure.Transport, failure.KindOf(err))

	comp.err = nil
	_, err = c.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, []string{"iam-1", "iam-2"}, comp.tokens)
}

func TestYandex_IssueFailureIsRejected(t *testing.T) {
	iam := &fakeIAM{err: errors.New("invalid oauth token")}
	comp := &fakeCompleter{}
	c := newYandexClient(iam.issue, comp.complete, time.Now)

	_, err := c.Generate(context.Background(), Request{})
	assert.Equal(t, failure.Rejected, failure.KindOf(err))
	assert.Empty(t, comp.tokens)
}
