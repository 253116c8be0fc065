package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/teamsplit/internal/ir"
)

// createdAtLayout is fixed-width so TEXT ordering matches time ordering.
const createdAtLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Write inserts a snapshot and its member placements in one transaction.
// Writing an ID that already exists is a no-op.
func (s *Store) Write(ctx context.Context, snap ir.Snapshot) error {
	if snap.ID == "" {
		return fmt.Errorf("write snapshot: empty id")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write snapshot: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	m := snap.Metadata
	res, err := tx.ExecContext(ctx, `
		INSERT INTO snapshots
		(id, session, seed, strategy, team_count, member_count, created_at, schema_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		snap.ID,
		m.Session,
		m.Seed,
		m.Strategy,
		m.TeamCount,
		m.MemberCount,
		m.CreatedAt.UTC().Format(createdAtLayout),
		m.SchemaVersion,
	)
	if err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("write snapshot: rows affected: %w", err)
	}
	if inserted == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO snapshot_members (snapshot_id, team_index, position, base, number, tag)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("write snapshot members: %w", err)
	}
	defer stmt.Close()

	for _, team := range snap.Teams {
		for pos, name := range team.Members {
			if _, err := stmt.ExecContext(ctx, snap.ID, team.Index, pos, name.Base, name.Number, name.Tag); err != nil {
				return fmt.Errorf("write snapshot member %s: %w", name, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write snapshot: commit: %w", err)
	}
	return nil
}

// Get returns the snapshot with id, or ir.ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (ir.Snapshot, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, session, seed, strategy, team_count, member_count, created_at, schema_version
		FROM snapshots
		WHERE id = ?
	`, id)

	snap, err := scanSnapshot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ir.Snapshot{}, fmt.Errorf("%w: %s", ir.ErrNotFound, id)
	}
	if err != nil {
		return ir.Snapshot{}, err
	}

	if err := s.loadTeams(ctx, &snap); err != nil {
		return ir.Snapshot{}, err
	}
	return snap, nil
}

// List returns every snapshot, newest first.
// Returns an empty slice (not nil) when the archive is empty.
func (s *Store) List(ctx context.Context) ([]ir.Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session, seed, strategy, team_count, member_count, created_at, schema_version
		FROM snapshots
		ORDER BY created_at DESC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}

	snaps := []ir.Snapshot{}
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		snaps = append(snaps, snap)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate snapshots: %w", err)
	}
	rows.Close()

	// Members are loaded after the cursor closes; the pool holds one connection.
	for i := range snaps {
		if err := s.loadTeams(ctx, &snaps[i]); err != nil {
			return nil, err
		}
	}
	return snaps, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(sc scanner) (ir.Snapshot, error) {
	var (
		snap    ir.Snapshot
		created string
	)
	err := sc.Scan(
		&snap.ID,
		&snap.Metadata.Session,
		&snap.Metadata.Seed,
		&snap.Metadata.Strategy,
		&snap.Metadata.TeamCount,
		&snap.Metadata.MemberCount,
		&created,
		&snap.Metadata.SchemaVersion,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ir.Snapshot{}, err
		}
		return ir.Snapshot{}, fmt.Errorf("scan snapshot: %w", err)
	}

	at, err := time.Parse(createdAtLayout, created)
	if err != nil {
		return ir.Snapshot{}, fmt.Errorf("parse created_at for %s: %w", snap.ID, err)
	}
	snap.Metadata.CreatedAt = at
	return snap, nil
}

func (s *Store) loadTeams(ctx context.Context, snap *ir.Snapshot) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT team_index, base, number, tag
		FROM snapshot_members
		WHERE snapshot_id = ?
		ORDER BY team_index ASC, position ASC
	`, snap.ID)
	if err != nil {
		return fmt.Errorf("query snapshot members: %w", err)
	}
	defer rows.Close()

	teams := make([]ir.Team, snap.Metadata.TeamCount)
	for i := range teams {
		teams[i] = ir.Team{Index: i, Members: []ir.Name{}}
	}
	for rows.Next() {
		var (
			idx  int
			name ir.Name
		)
		if err := rows.Scan(&idx, &name.Base, &name.Number, &name.Tag); err != nil {
			return fmt.Errorf("scan snapshot member: %w", err)
		}
		if idx < 0 || idx >= len(teams) {
			return fmt.Errorf("snapshot %s: member in team %d of %d", snap.ID, idx, len(teams))
		}
		teams[idx].Members = append(teams[idx].Members, name)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate snapshot members: %w", err)
	}

	snap.Teams = teams
	return nil
}
