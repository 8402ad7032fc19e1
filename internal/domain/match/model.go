package match

import "time"

// Status is the lifecycle state of a match.
type Status string

const (
	StatusFinished Status = "FINISHED"
	StatusOngoing  Status = "ONGOING"
	StatusUpcoming Status = "UPCOMING"
)

// Type categorizes a match by competition.
type Type string

const (
	TypeLeague          Type = "LEAGUE"
	TypeQualification   Type = "QUALIFICATION"
	TypeCup             Type = "CUP"
	TypeFriendly        Type = "FRIENDLY"
	TypeHattrickMasters Type = "HATTRICK_MASTERS"
	TypeWorldCup        Type = "WORLD_CUP"
	TypeU20WorldCup     Type = "U20_WORLD_CUP"
	TypeLadder          Type = "LADDER"
	TypeTournament      Type = "TOURNAMENT"
	TypeSingle          Type = "SINGLE"
	TypePreparation     Type = "PREPARATION"
)

var typeByCode = map[int]Type{
	1:  TypeLeague,
	2:  TypeQualification,
	3:  TypeCup,
	4:  TypeFriendly,
	5:  TypeHattrickMasters,
	6:  TypeWorldCup,
	7:  TypeU20WorldCup,
	8:  TypeLadder,
	9:  TypeTournament,
	10: TypeSingle,
	11: TypePreparation,
}

// TypeFromCode maps the feed's numeric match type to its enum value.
// Unknown codes fall back to FRIENDLY.
func TypeFromCode(code int) Type {
	if t, ok := typeByCode[code]; ok {
		return t
	}
	return TypeFriendly
}

// Side is one team of a match as reported by the feed.
type Side struct {
	ID        int64  `json:"id" db:"-"`
	Name      string `json:"name" db:"-"`
	ShortName string `json:"shortName" db:"-"`
}

// Match is one row per unique external match id. Scores, status, and the
// orders-given flag are updated in place on later syncs; rows are never
// deleted.
type Match struct {
	ID            int64     `json:"id" db:"id"`
	ExternalID    int64     `json:"externalId" db:"external_id"`
	TeamID        int64     `json:"teamId" db:"team_id"`
	Date          time.Time `json:"date" db:"match_date"`
	Home          Side      `json:"homeTeam" db:"-"`
	Away          Side      `json:"awayTeam" db:"-"`
	HomeGoals     *int      `json:"homeGoals" db:"home_goals"`
	AwayGoals     *int      `json:"awayGoals" db:"away_goals"`
	Status        Status    `json:"status" db:"status"`
	Type          Type      `json:"matchType" db:"match_type"`
	ContextID     *int64    `json:"contextId" db:"context_id"`
	CupLevel      *int      `json:"cupLevel" db:"cup_level"`
	CupLevelIndex *int      `json:"cupLevelIndex" db:"cup_level_index"`
	SourceSystem  *string   `json:"sourceSystem" db:"source_system"`
	OrdersGiven   *bool     `json:"ordersGiven" db:"orders_given"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time `json:"updatedAt" db:"updated_at"`
}

// LastFriday returns the most recent Friday at 00:00 UTC at or before now.
// It is the single week anchor shared by the weekly diff cutoff and the
// official-matches query, so both agree on what "this week" means.
func LastFriday(now time.Time) time.Time {
	now = now.UTC()
	day := now.Truncate(24 * time.Hour)
	offset := (int(day.Weekday()) - int(time.Friday) + 7) % 7
	return day.AddDate(0, 0, -offset)
}

// MatchPeriod is the half-open week window [last Friday 00:00 UTC, +7d).
func MatchPeriod(now time.Time) (time.Time, time.Time) {
	start := LastFriday(now)
	return start, start.AddDate(0, 0, 7)
}

// IsOfficial reports whether the match counts for the weekly played check.
func (m Match) IsOfficial() bool {
	return m.Type == TypeLeague || m.Type == TypeCup
}
