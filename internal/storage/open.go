package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Open connects to the backend named by dsn:
//
//	postgres://…, postgresql://…   PostgreSQL
//	redis://…, rediss://…          Redis
//	sqlite://path, *.db, *.sqlite  SQLite
//	file://path, *.jsonl           JSONL file
//
// An empty dsn returns ErrNotConfigured.
func Open(ctx context.Context, dsn string, loc *time.Location) (Store, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, ErrNotConfigured
	}
	kind, target := Classify(dsn)
	switch kind {
	case "postgres":
		return OpenPostgres(ctx, target, loc)
	case "redis":
		return OpenRedis(ctx, target, loc)
	case "sqlite":
		return OpenSQLite(ctx, target, loc)
	case "file":
		return NewFileStore(target, loc)
	default:
		return nil, fmt.Errorf("unsupported store dsn %q", Redact(dsn))
	}
}

// Classify returns the backend kind for dsn and the target passed to it.
func Classify(dsn string) (kind, target string) {
	low := strings.ToLower(dsn)
	switch {
	case strings.HasPrefix(low, "postgres://"), strings.HasPrefix(low, "postgresql://"):
		return "postgres", dsn
	case strings.HasPrefix(low, "redis://"), strings.HasPrefix(low, "rediss://"):
		return "redis", dsn
	case strings.HasPrefix(low, "sqlite://"):
		return "sqlite", dsn[len("sqlite://"):]
	case strings.HasPrefix(low, "file://"):
		return "file", dsn[len("file://"):]
	case strings.Contains(low, "://"):
		return "", ""
	}
	switch strings.ToLower(filepath.Ext(dsn)) {
	case ".db", ".sqlite", ".sqlite3":
		return "sqlite", dsn
	case ".jsonl":
		return "file", dsn
	}
	return "", ""
}

// Redact hides credentials in a dsn for logs.
func Redact(dsn string) string {
	scheme, rest, ok := strings.Cut(dsn, "://")
	if !ok {
		return dsn
	}
	at := strings.LastIndex(rest, "@")
	if at < 0 {
		return dsn
	}
	return scheme + "://***@" + rest[at+1:]
}
