package coordinator

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"daily-spark/internal/delivery"
	"daily-spark/internal/failure"
	"daily-spark/internal/generator"
	"daily-spark/internal/history"
	"daily-spark/internal/storage"
)

// journal records the order of calls across fakes.
type journal struct {
	mu    sync.Mutex
	steps []string
}

func (j *journal) add(s string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.steps = append(j.steps, s)
}

func (j *journal) all() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.steps...)
}

type fakeGen struct {
	j    *journal
	res  generator.Result
	gate chan struct{}
}

func (g *fakeGen) Generate(ctx context.Context) generator.Result {
	if g.gate != nil {
		<-g.gate
	}
	g.j.add("generate")
	if g.res.Text == "" {
		return generator.Result{Text: "You can do it."}
	}
	return g.res
}

type sent struct {
	kind string
	to   int64
	text string
}

type fakeChannel struct {
	j     *journal
	mu    sync.Mutex
	sent  []sent
	acks  []string
	files []string

	sendErr error
	menuErr error
	fileErr error
	ackErr  error
}

func (f *fakeChannel) record(s sent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, s)
}

func (f *fakeChannel) SendText(ctx context.Context, to delivery.Target, text string) error {
	f.j.add("send")
	if f.sendErr != nil {
		return f.sendErr
	}
	f.record(sent{"text", to.ChatID, text})
	return nil
}

func (f *fakeChannel) SendMenu(ctx context.Context, to delivery.Target, text string) error {
	f.j.add("menu")
	if f.menuErr != nil {
		return f.menuErr
	}
	f.record(sent{"menu", to.ChatID, text})
	return nil
}

func (f *fakeChannel) SendFile(ctx context.Context, to delivery.Target, path string) error {
	f.j.add("file")
	_, statErr := os.Stat(path)
	f.mu.Lock()
	if statErr == nil {
		f.files = append(f.files, path)
	}
	f.mu.Unlock()
	if f.fileErr != nil {
		return f.fileErr
	}
	f.record(sent{"file", to.ChatID, path})
	return nil
}

func (f *fakeChannel) Acknowledge(ctx context.Context, id string) error {
	f.j.add("ack")
	f.mu.Lock()
	f.acks = append(f.acks, id)
	f.mu.Unlock()
	return f.ackErr
}

func (f *fakeChannel) snapshot() []sent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sent(nil), f.sent...)
}

type fakeHistory struct {
	j         *journal
	mu        sync.Mutex
	recs      []storage.Record
	appendErr error
	recentErr error
	gotLimit  int
}

func (h *fakeHistory) Append(ctx context.Context, rec storage.Record) error {
	h.j.add("persist")
	if h.appendErr != nil {
		return h.appendErr
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.recs = append(h.recs, rec)
	return nil
}

func (h *fakeHistory) Recent(ctx context.Context, limit int) ([]storage.Record, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.gotLimit = limit
	if h.recentErr != nil {
		return nil, h.recentErr
	}
	out := make([]storage.Record, 0, len(h.recs))
	for i := len(h.recs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, h.recs[i])
	}
	return out, nil
}

func (h *fakeHistory) all() []storage.Record {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]storage.Record(nil), h.recs...)
}

type fakeRenderer struct {
	t   *testing.T
	err error
	got []storage.Record
}

func (r *fakeRenderer) Render(ctx context.Context, recs []storage.Record) (string, error) {
	r.got = recs
	if r.err != nil {
		return "", r.err
	}
	p := filepath.Join(r.t.TempDir(), "history.pdf")
	if err := os.WriteFile(p, []byte("%PDF-1.3"), 0o644); err != nil {
		return "", err
	}
	return p, nil
}

var (
	errSend    = failure.New(failure.Rejected, "send text", errors.New("chat not found"))
	errStore   = failure.New(failure.Transport, "history append", errors.New("connection reset"))
	errRender  = failure.New(failure.Internal, "render", errors.New("disk full"))
	errUnavail = history.ErrUnavailable
)
