// Package persist hands finished team splits to durable storage.
//
// Backends are selected by DSN scheme:
//
//	memory://                 in-process, lost on exit
//	file:///path/teams.json   one JSON document holding every snapshot
//	sqlite:///path/teams.db   internal/store archive
//	postgres://user@host/db   lib/pq, one row per snapshot
//
// Every backend treats snapshot IDs as content addresses: writing an ID that
// already exists is a no-op.
package persist

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/roach88/teamsplit/internal/ir"
	"github.com/roach88/teamsplit/internal/store"
)

// ErrInvalidDSN is returned by Open for a DSN it cannot interpret.
var ErrInvalidDSN = errors.New("invalid persistence dsn")

// Writer accepts finished snapshots.
type Writer interface {
	Write(ctx context.Context, snap ir.Snapshot) error
	Close() error
}

// Reader retrieves stored snapshots. Get returns ir.ErrNotFound for an
// unknown ID; List returns newest first.
type Reader interface {
	List(ctx context.Context) ([]ir.Snapshot, error)
	Get(ctx context.Context, id string) (ir.Snapshot, error)
}

// Backend is a Writer that can also read back what it stored.
type Backend interface {
	Writer
	Reader
}

var _ Backend = (*store.Store)(nil)

// Open returns the backend named by dsn. An empty dsn means memory://.
func Open(dsn string) (Backend, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return NewMemoryBackend(), nil
	}
	parsed, err := url.Parse(dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDSN, err)
	}

	switch scheme := strings.ToLower(parsed.Scheme); scheme {
	case "memory", "mem":
		return NewMemoryBackend(), nil
	case "", "file":
		path, err := dsnPath(parsed, dsn)
		if err != nil {
			return nil, err
		}
		return NewFileBackend(path), nil
	case "sqlite", "sqlite3":
		path, err := dsnPath(parsed, dsn)
		if err != nil {
			return nil, err
		}
		s, err := store.Open(path)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "postgres", "postgresql":
		b, err := NewPostgresBackend(dsn)
		if err != nil {
			return nil, err
		}
		return b, nil
	default:
		return nil, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidDSN, scheme)
	}
}

func dsnPath(parsed *url.URL, raw string) (string, error) {
	if parsed.Scheme == "" {
		return raw, nil
	}
	path := parsed.Path
	if path == "" {
		path = parsed.Opaque
	}
	if path == "" {
		path = parsed.Host
	}
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("%w: %q has no path", ErrInvalidDSN, raw)
	}
	return path, nil
}

// sortNewestFirst orders snapshots the way every Reader lists them.
func sortNewestFirst(snaps []ir.Snapshot) {
	slices.SortFunc(snaps, func(a, b ir.Snapshot) int {
		if c := b.Metadata.CreatedAt.Compare(a.Metadata.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}

func cloneSnapshot(snap ir.Snapshot) ir.Snapshot {
	out := snap
	out.Teams = make([]ir.Team, len(snap.Teams))
	for i, t := range snap.Teams {
		out.Teams[i] = ir.Team{Index: t.Index, Members: slices.Clone(t.Members)}
	}
	return out
}
