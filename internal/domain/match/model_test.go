package match

import (
	"testing"
	"time"
)

func TestTypeFromCode(t *testing.T) {
	tests := []struct {
		code int
		want Type
	}{
		{1, TypeLeague},
		{2, TypeQualification},
		{3, TypeCup},
		{4, TypeFriendly},
		{5, TypeHattrickMasters},
		{6, TypeWorldCup},
		{7, TypeU20WorldCup},
		{8, TypeLadder},
		{9, TypeTournament},
		{10, TypeSingle},
		{11, TypePreparation},
		{99, TypeFriendly},
		{0, TypeFriendly},
	}

	for _, tc := range tests {
		if got := TypeFromCode(tc.code); got != tc.want {
			t.Fatalf("code %d: got=%s want=%s", tc.code, got, tc.want)
		}
	}
}

func TestLastFriday(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{
			"friday maps to itself",
			time.Date(2026, 8, 28, 15, 30, 0, 0, time.UTC),
			time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC),
		},
		{
			"saturday maps back one day",
			time.Date(2026, 8, 29, 0, 0, 1, 0, time.UTC),
			time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC),
		},
		{
			"thursday maps back six days",
			time.Date(2026, 9, 3, 23, 59, 0, 0, time.UTC),
			time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC),
		},
		{
			"non-utc input is anchored in utc",
			time.Date(2026, 8, 29, 1, 0, 0, 0, time.FixedZone("east", 3*3600)),
			time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := LastFriday(tc.now); !got.Equal(tc.want) {
				t.Fatalf("got=%s want=%s", got, tc.want)
			}
		})
	}
}

func TestMatchPeriod(t *testing.T) {
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	start, end := MatchPeriod(now)

	if !start.Equal(time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected period start: %s", start)
	}
	if !end.Equal(time.Date(2026, 9, 4, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected period end: %s", end)
	}
}

func TestIsOfficial(t *testing.T) {
	if !(Match{Type: TypeLeague}).IsOfficial() {
		t.Fatal("league match should be official")
	}
	if !(Match{Type: TypeCup}).IsOfficial() {
		t.Fatal("cup match should be official")
	}
	if (Match{Type: TypeFriendly}).IsOfficial() {
		t.Fatal("friendly should not be official")
	}
}
