package persist

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/lib/pq"

	"github.com/roach88/teamsplit/internal/ir"
)

const (
	postgresTableName        = "teamsplit_snapshots"
	postgresOperationTimeout = 5 * time.Second
)

type sqlOpenFunc func(driverName, dsn string) (*sql.DB, error)

// PostgresBackend stores one row per snapshot with the teams as JSON.
// The table is created lazily on first use.
type PostgresBackend struct {
	dsn       string
	tableName string
	openDB    sqlOpenFunc

	initOnce sync.Once
	initErr  error
	db       *sql.DB
}

// NewPostgresBackend creates a backend for dsn without connecting.
func NewPostgresBackend(dsn string) (*PostgresBackend, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, fmt.Errorf("%w: empty postgres dsn", ErrInvalidDSN)
	}
	return &PostgresBackend{
		dsn:       dsn,
		tableName: postgresTableName,
		openDB:    sql.Open,
	}, nil
}

// Write inserts snap unless its ID is already stored.
func (b *PostgresBackend) Write(ctx context.Context, snap ir.Snapshot) error {
	if snap.ID == "" {
		return fmt.Errorf("write snapshot: empty id")
	}
	if err := b.ensureReady(ctx); err != nil {
		return err
	}
	teams, err := json.Marshal(snap.Teams)
	if err != nil {
		return fmt.Errorf("encode teams: %w", err)
	}
	meta, err := json.Marshal(snap.Metadata)
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, postgresOperationTimeout)
	defer cancel()

	query := fmt.Sprintf(`
		INSERT INTO %s (id, teams, metadata, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO NOTHING`, postgresQuoteIdentifier(b.tableName))
	if _, err := b.db.ExecContext(ctx, query, snap.ID, string(teams), string(meta), snap.Metadata.CreatedAt.UTC()); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

// Get returns the snapshot with id.
func (b *PostgresBackend) Get(ctx context.Context, id string) (ir.Snapshot, error) {
	if err := b.ensureReady(ctx); err != nil {
		return ir.Snapshot{}, err
	}
	ctx, cancel := context.WithTimeout(ctx, postgresOperationTimeout)
	defer cancel()

	query := fmt.Sprintf("SELECT id, teams, metadata FROM %s WHERE id = $1", postgresQuoteIdentifier(b.tableName))
	snap, err := scanPostgresSnapshot(b.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return ir.Snapshot{}, fmt.Errorf("%w: %s", ir.ErrNotFound, id)
	}
	return snap, err
}

// List returns every snapshot, newest first.
func (b *PostgresBackend) List(ctx context.Context) ([]ir.Snapshot, error) {
	if err := b.ensureReady(ctx); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, postgresOperationTimeout)
	defer cancel()

	query := fmt.Sprintf("SELECT id, teams, metadata FROM %s ORDER BY created_at DESC, id ASC", postgresQuoteIdentifier(b.tableName))
	rows, err := b.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	out := []ir.Snapshot{}
	for rows.Next() {
		snap, err := scanPostgresSnapshot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshots: %w", err)
	}
	return out, nil
}

// Close releases the connection pool, if one was opened.
func (b *PostgresBackend) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

func (b *PostgresBackend) ensureReady(ctx context.Context) error {
	b.initOnce.Do(func() {
		db, err := b.openDB("postgres", b.dsn)
		if err != nil {
			b.initErr = err
			return
		}
		ctx, cancel := context.WithTimeout(ctx, postgresOperationTimeout)
		defer cancel()

		query := fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id TEXT PRIMARY KEY,
				teams TEXT NOT NULL,
				metadata TEXT NOT NULL,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)`, postgresQuoteIdentifier(b.tableName))
		if _, err := db.ExecContext(ctx, query); err != nil {
			_ = db.Close()
			b.initErr = fmt.Errorf("create %s: %w", b.tableName, err)
			return
		}
		b.db = db
	})
	return b.initErr
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPostgresSnapshot(sc rowScanner) (ir.Snapshot, error) {
	var (
		snap        ir.Snapshot
		teams, meta string
	)
	if err := sc.Scan(&snap.ID, &teams, &meta); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ir.Snapshot{}, err
		}
		return ir.Snapshot{}, fmt.Errorf("scan snapshot: %w", err)
	}
	if err := json.Unmarshal([]byte(teams), &snap.Teams); err != nil {
		return ir.Snapshot{}, fmt.Errorf("decode teams for %s: %w", snap.ID, err)
	}
	if err := json.Unmarshal([]byte(meta), &snap.Metadata); err != nil {
		return ir.Snapshot{}, fmt.Errorf("decode metadata for %s: %w", snap.ID, err)
	}
	return snap, nil
}

func postgresQuoteIdentifier(identifier string) string {
	return `"` + strings.ReplaceAll(strings.TrimSpace(identifier), `"`, `""`) + `"`
}
