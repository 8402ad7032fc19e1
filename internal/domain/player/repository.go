package player

import "context"

// Repository describes player persistence needs from use cases.
//
// RecordObservation runs the whole per-player write as one transaction: it
// upserts the player row, short-circuits on an unchanged content hash, and
// otherwise appends a snapshot, moves the latest-snapshot pointer, and records
// the field changes against the previous snapshot.
type Repository interface {
	RecordObservation(ctx context.Context, obs Observation) (SyncOutcome, error)
	GetByID(ctx context.Context, playerID int64) (Player, bool, error)
	GetByExternalID(ctx context.Context, externalID int64) (Player, bool, error)
	ListByTeam(ctx context.Context, teamID int64, activeOnly bool) ([]Player, error)
	DeactivateMissing(ctx context.Context, teamID int64, seenExternalIDs []int64) (int64, error)
	// ListSnapshots returns the player's snapshots newest first.
	ListSnapshots(ctx context.Context, playerID int64) ([]Snapshot, error)
	GetSnapshot(ctx context.Context, snapshotID int64) (Snapshot, bool, error)
	ListChangesByPlayer(ctx context.Context, playerID int64, limit int) ([]Change, error)
}
