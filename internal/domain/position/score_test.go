package position

import (
	"math"
	"testing"

	"github.com/htdash/htdash/internal/domain/player"
)

func TestComputeScores_AllPositionsPresent(t *testing.T) {
	scores := ComputeScores(player.Attributes{})
	if len(scores) != 6 {
		t.Fatalf("unexpected score count: got=%d want=6", len(scores))
	}
	for _, pos := range Order {
		if _, ok := scores[pos]; !ok {
			t.Fatalf("missing score for %s", pos)
		}
	}
}

func TestComputeScores_ZeroBagIsZero(t *testing.T) {
	scores := ComputeScores(player.Attributes{
		player.AttrPlayerForm:   float64(5),
		player.AttrStaminaSkill: float64(6),
	})
	for pos, score := range scores {
		if score != 0 {
			t.Fatalf("expected zero score for %s with zero skills, got %f", pos, score)
		}
	}
}

func TestComputeScores_GoalkeeperArithmetic(t *testing.T) {
	scores := ComputeScores(player.Attributes{
		player.AttrKeeperSkill:  float64(20),
		player.AttrLoyalty:      float64(0),
		player.AttrPlayerForm:   float64(8),
		player.AttrExperience:   float64(0),
		player.AttrStaminaSkill: float64(8),
	})

	want := (0.8 * (0.85 * 20)) * (0.85 + 0.025*8) * (0.9 + 0.01*8)
	if got := scores[Goalkeeper]; math.Abs(got-want) > 1e-9 {
		t.Fatalf("unexpected GK score: got=%f want=%f", got, want)
	}
}

func TestComputeScores_LoyaltyBoost(t *testing.T) {
	without := ComputeScores(player.Attributes{
		player.AttrScorerSkill: float64(10),
		player.AttrPlayerForm:  float64(8),
	})
	with := ComputeScores(player.Attributes{
		player.AttrScorerSkill: float64(10),
		player.AttrLoyalty:     float64(20),
		player.AttrPlayerForm:  float64(8),
	})

	// Max loyalty adds a flat +1 to each of the seven skills, which feeds
	// every position's weighted sum.
	for _, pos := range Order {
		if with[pos] <= without[pos] {
			t.Fatalf("loyalty should raise %s score: with=%f without=%f", pos, with[pos], without[pos])
		}
	}
}

func TestComputeScores_StringAttributes(t *testing.T) {
	fromStrings := ComputeScores(player.Attributes{
		player.AttrKeeperSkill:  "20",
		player.AttrPlayerForm:   "8",
		player.AttrStaminaSkill: "8",
	})
	fromNumbers := ComputeScores(player.Attributes{
		player.AttrKeeperSkill:  float64(20),
		player.AttrPlayerForm:   float64(8),
		player.AttrStaminaSkill: float64(8),
	})

	if fromStrings[Goalkeeper] != fromNumbers[Goalkeeper] {
		t.Fatalf("string attributes should parse like numbers: got=%f want=%f", fromStrings[Goalkeeper], fromNumbers[Goalkeeper])
	}
}

func TestBest_PicksArgmax(t *testing.T) {
	scores := Scores{
		Goalkeeper:      1.0,
		CentralDefender: 4.5,
		WingBack:        3.0,
		InnerMidfielder: 4.4,
		Winger:          2.0,
		Forward:         1.5,
	}

	pos, score := scores.Best()
	if pos != CentralDefender || score != 4.5 {
		t.Fatalf("unexpected best: got=%s/%f want=CD/4.5", pos, score)
	}
}

func TestBest_TieBreaksByFixedOrder(t *testing.T) {
	scores := Scores{
		Goalkeeper:      2.0,
		CentralDefender: 5.0,
		WingBack:        5.0,
		InnerMidfielder: 5.0,
		Winger:          1.0,
		Forward:         1.0,
	}

	if pos, _ := scores.Best(); pos != CentralDefender {
		t.Fatalf("tie should resolve to earliest position in order, got %s", pos)
	}
}
