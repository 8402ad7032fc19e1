package usecase

import (
	"context"
	"time"
)

// ExternalPlayerRecord is one roster entry from the CHPP players feed. The
// attribute bag keeps the feed's element names verbatim; change rows and
// position scoring read them by those names.
type ExternalPlayerRecord struct {
	ExternalID int64
	TeamID     int64
	Name       string
	Attributes map[string]any
}

// AvatarLayer is one stacked avatar image fragment.
type AvatarLayer struct {
	ImageURL string `json:"imageUrl"`
	X        int    `json:"x"`
	Y        int    `json:"y"`
}

// ExternalAvatar is the cosmetic avatar data for one player, merged into the
// player's attribute bag under the Avatar key before snapshotting.
type ExternalAvatar struct {
	PlayerExternalID   int64         `json:"-"`
	BackgroundImageURL string        `json:"backgroundImageUrl"`
	Layers             []AvatarLayer `json:"layers"`
}

// ExternalMatch is one row from the CHPP matches feed.
type ExternalMatch struct {
	ExternalID    int64
	TeamID        int64
	Date          time.Time
	HomeID        int64
	HomeName      string
	HomeShortName string
	AwayID        int64
	AwayName      string
	AwayShortName string
	HomeGoals     *int
	AwayGoals     *int
	Status        string
	TypeCode      int
	ContextID     *int64
	CupLevel      *int
	CupLevelIndex *int
	SourceSystem  *string
	OrdersGiven   *bool
}

// Feed is the CHPP collaborator as seen by the sync pipeline. Any transport,
// auth, or parse error is fatal for the running sync cycle.
type Feed interface {
	FetchPlayers(ctx context.Context) ([]ExternalPlayerRecord, error)
	FetchAvatars(ctx context.Context) ([]ExternalAvatar, error)
	FetchMatches(ctx context.Context, teamID int64) ([]ExternalMatch, error)
}
