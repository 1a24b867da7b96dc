package report

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"daily-spark/internal/storage"
)

func records(n int) []storage.Record {
	base := time.Date(2026, 6, 10, 8, 0, 0, 0, time.FixedZone("UTC-3", -3*3600))
	out := make([]storage.Record, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, storage.Record{
			ID:        fmt.Sprint(i),
			Text:      fmt.Sprintf("snippet %d", i),
			Origin:    storage.OriginScheduled,
			Timestamp: base.Add(-time.Duration(i) * 24 * time.Hour),
		})
	}
	return out
}

func TestLayout_SeparatorsAfterEveryFifthEntry(t *testing.T) {
	lines := Layout(records(11))

	var seps []int
	entries := 0
	for _, ln := range lines {
		if ln.Kind == Entry {
			entries++
			continue
		}
		seps = append(seps, entries)
	}
	assert.Equal(t, 11, entries)
	assert.Equal(t, []int{5, 10}, seps)
	assert.Equal(t, Entry, lines[len(lines)-1].Kind)
}

func TestLayout_EntryFormat(t *testing.T) {
	lines := Layout(records(1))
	require.Len(t, lines, 1)
	assert.Equal(t, "10/06/2026 08:00 - [Scheduled] snippet 0", lines[0].Text)
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "Keep going! You got this", Sanitize("Keep going! 🚀💪 You got this ✨"))
	assert.Equal(t, "Não desista de tentar!", Sanitize("Não desista de tentar!"))
	assert.Equal(t, "line one line two", Sanitize("line one\nline two"))
	assert.Equal(t, "", Sanitize("🌟🌈"))
	assert.Equal(t, "gone", Sanitize("日本 gone"))
}

func TestFormatMoment(t *testing.T) {
	cases := []struct {
		name string
		rec  storage.Record
		want string
	}{
		{"structured", storage.Record{Timestamp: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}, "02/01/2026 03:04"},
		{"iso text with fraction", storage.Record{RawTimestamp: "2026-01-02T03:04:05.123456"}, "02/01/2026 03:04"},
		{"python str", storage.Record{RawTimestamp: "2026-01-02 03:04:05"}, "02/01/2026 03:04"},
		{"garbage verbatim", storage.Record{RawTimestamp: "yesterday-ish"}, "yesterday-ish"},
		{"missing", storage.Record{}, invalidDate},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, FormatMoment(tc.rec))
		})
	}
}

func TestRender_WritesPDF(t *testing.T) {
	dir := t.TempDir()
	recs := records(12)
	recs[3].Text = "🔥🔥"
	recs[4].Timestamp = time.Time{}
	recs[4].RawTimestamp = "not a date"
	recs[5].Text = "Siga em frente 🙌 com coração"

	path, err := New(dir).Render(context.Background(), recs)
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.Remove(path) })

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
	assert.Contains(t, path, dir)
}

func TestRender_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(t.TempDir()).Render(ctx, records(1))
	assert.Error(t, err)
}
