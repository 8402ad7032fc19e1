package player

import (
	"fmt"
	"time"
)

// Attributes is the raw CHPP attribute bag for one player. Keys come from the
// feed verbatim (KeeperSkill, PlayerForm, Loyalty, ...) and are never renamed;
// diffing and position scoring both read them by the original names.
type Attributes map[string]any

// Player is one observed roster member, keyed by (ExternalID, TeamID).
// Rows are never hard-deleted: a player that disappears from the fetched
// roster is flipped inactive and reactivated if they show up again.
type Player struct {
	ID               int64
	ExternalID       int64
	TeamID           int64
	Name             string
	Active           bool
	LatestSnapshotID *int64
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Snapshot is one immutable capture of a player's attribute bag.
// Hash is the content hash of Data at fetch time; two snapshots with the
// same hash carry no observable change between them.
type Snapshot struct {
	ID        int64
	PlayerID  int64
	FetchedAt time.Time
	Data      Attributes
	Hash      string
}

// Change is one audit row: a single field whose serialized value differed
// between the previous snapshot and the snapshot that produced it.
type Change struct {
	ID         int64
	PlayerID   int64
	SnapshotID int64
	FieldName  string
	OldValue   *string
	NewValue   *string
	RecordedAt time.Time
}

// Observation is one freshly fetched roster entry about to be recorded.
type Observation struct {
	ExternalID int64
	TeamID     int64
	Name       string
	Data       Attributes
	FetchedAt  time.Time
}

func (o Observation) Validate() error {
	if o.ExternalID <= 0 {
		return fmt.Errorf("observation external player id must be greater than zero")
	}
	if o.TeamID <= 0 {
		return fmt.Errorf("observation team id must be greater than zero")
	}
	if o.Name == "" {
		return fmt.Errorf("observation player name is required")
	}
	return nil
}

// SyncOutcome reports what one recorded observation did to storage.
type SyncOutcome struct {
	PlayerID     int64
	Created      bool
	SnapshotID   int64
	SnapshotNew  bool
	ChangesCount int
}
