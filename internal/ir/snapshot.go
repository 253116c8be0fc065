package ir

import (
	"errors"
	"time"
)

// ErrNotFound is returned by snapshot readers for an unknown ID.
var ErrNotFound = errors.New("snapshot not found")

// Snapshot is the serializable result handed to a persistence writer.
type Snapshot struct {
	ID       string           `json:"id"` // Content-addressed (SnapshotID)
	Teams    []Team           `json:"teams"`
	Metadata SnapshotMetadata `json:"metadata"`
}

// SnapshotMetadata describes how and when a split was produced.
type SnapshotMetadata struct {
	Session       string    `json:"session"`
	Seed          int64     `json:"seed"`
	Strategy      string    `json:"strategy"`
	TeamCount     int       `json:"team_count"`
	MemberCount   int       `json:"member_count"`
	CreatedAt     time.Time `json:"created_at"`
	SchemaVersion string    `json:"schema_version"`
}

// NewSnapshot builds a snapshot from the teams currently held in s.
// Returns a ValidationError if no teams have been generated.
func NewSnapshot(s State, session string, at time.Time) (Snapshot, error) {
	if len(s.Teams) == 0 {
		return Snapshot{}, Reject("teams", "no teams generated")
	}
	teams := s.Clone().Teams
	id, err := SnapshotID(teams, s.Seed, s.Strategy)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{
		ID:    id,
		Teams: teams,
		Metadata: SnapshotMetadata{
			Session:       session,
			Seed:          s.Seed,
			Strategy:      s.Strategy,
			TeamCount:     len(teams),
			MemberCount:   len(s.Members),
			CreatedAt:     at.UTC(),
			SchemaVersion: SchemaVersion,
		},
	}, nil
}
