package storage

import (
	"bufio"
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"
)

type fileLine struct {
	ID     string `json:"id"`
	At     string `json:"at"`
	Origin Origin `json:"origin"`
	Text   string `json:"text"`
}

// FileStore keeps records in an append-only JSONL file.
type FileStore struct {
	path string
	loc  *time.Location
	mu   sync.Mutex
}

func NewFileStore(path string, loc *time.Location) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to ensure store dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to init store file: %w", err)
	}
	_ = f.Close()
	return &FileStore{path: path, loc: loc}, nil
}

func (s *FileStore) Append(ctx context.Context, rec Record) error {
	if err := validate(rec); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open append: %w", err)
	}
	defer f.Close()
	line := fileLine{ID: rec.ID, At: rec.Timestamp.Format(momentLayout), Origin: rec.Origin, Text: rec.Text}
	if err := json.NewEncoder(f).Encode(line); err != nil {
		return fmt.Errorf("encode append: %w", err)
	}
	return nil
}

func (s *FileStore) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open read: %w", err)
	}
	defer f.Close()

	type indexed struct {
		rec Record
		pos int
	}
	var all []indexed
	sc := bufio.NewScanner(f)
	buf := make([]byte, 0, 64*1024)
	sc.Buffer(buf, 1024*1024)
	for sc.Scan() {
		b := sc.Bytes()
		if len(b) == 0 {
			continue
		}
		var ln fileLine
		if err := json.Unmarshal(b, &ln); err != nil {
			continue
		}
		rec := Record{ID: ln.ID, Text: ln.Text, Origin: ln.Origin}
		parseMoment(&rec, ln.At, s.loc)
		all = append(all, indexed{rec: rec, pos: len(all)})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}

	// Unparsable moments sort after every parsed one.
	slices.SortFunc(all, func(a, b indexed) int {
		if c := b.rec.Timestamp.Compare(a.rec.Timestamp); c != 0 {
			return c
		}
		return cmp.Compare(b.pos, a.pos)
	})
	if len(all) > limit {
		all = all[:limit]
	}
	out := make([]Record, 0, len(all))
	for _, it := range all {
		out = append(out, it.rec)
	}
	return out, nil
}

func (s *FileStore) Close() error { return nil }
