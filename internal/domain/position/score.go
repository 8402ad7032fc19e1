package position

import "github.com/htdash/htdash/internal/domain/player"

// Position is one of the six pitch roles a player is scored for.
type Position string

const (
	Goalkeeper      Position = "GK"
	CentralDefender Position = "CD"
	WingBack        Position = "WB"
	InnerMidfielder Position = "IM"
	Winger          Position = "WNG"
	Forward         Position = "FW"
)

// Order fixes the iteration order for scoring output and tie-breaking.
var Order = []Position{Goalkeeper, CentralDefender, WingBack, InnerMidfielder, Winger, Forward}

// Scores maps every position to its weighted score. ComputeScores always
// fills all six entries.
type Scores map[Position]float64

type skillWeights struct {
	keeper    float64
	defender  float64
	playmaker float64
	passing   float64
	winger    float64
	scorer    float64
	setPieces float64
}

// Each row sums to 1.0.
var weightsByPosition = map[Position]skillWeights{
	Goalkeeper:      {keeper: 0.85, defender: 0.05, passing: 0.03, setPieces: 0.05, playmaker: 0.02},
	CentralDefender: {defender: 0.70, passing: 0.12, playmaker: 0.08, setPieces: 0.05, winger: 0.05},
	WingBack:        {defender: 0.55, winger: 0.20, passing: 0.12, playmaker: 0.07, scorer: 0.03, setPieces: 0.03},
	InnerMidfielder: {playmaker: 0.60, passing: 0.15, defender: 0.10, winger: 0.05, scorer: 0.05, setPieces: 0.05},
	Winger:          {winger: 0.55, passing: 0.15, playmaker: 0.10, scorer: 0.10, defender: 0.07, setPieces: 0.03},
	Forward:         {scorer: 0.60, passing: 0.20, winger: 0.07, playmaker: 0.05, setPieces: 0.05, defender: 0.03},
}

// ComputeScores derives the six position scores from a raw attribute bag.
// Missing skills default to zero, so an empty bag yields a fully populated
// near-zero map rather than an error.
//
// Each of the seven skills is first loyalty-boosted (raw + loyalty/20), then
// combined per position with the fixed weight table, and finally scaled by
// the form, experience, and stamina modifiers.
func ComputeScores(data player.Attributes) Scores {
	loyalty := numericOrZero(data, player.AttrLoyalty)
	boost := loyalty / 20

	effective := skillWeights{
		keeper:    numericOrZero(data, player.AttrKeeperSkill) + boost,
		defender:  numericOrZero(data, player.AttrDefenderSkill) + boost,
		playmaker: numericOrZero(data, player.AttrPlaymakerSkill) + boost,
		passing:   numericOrZero(data, player.AttrPassingSkill) + boost,
		winger:    numericOrZero(data, player.AttrWingerSkill) + boost,
		scorer:    numericOrZero(data, player.AttrScorerSkill) + boost,
		setPieces: numericOrZero(data, player.AttrSetPiecesSkill) + boost,
	}

	form := numericOrZero(data, player.AttrPlayerForm)
	experience := numericOrZero(data, player.AttrExperience)
	stamina := numericOrZero(data, player.AttrStaminaSkill)

	formFactor := 0.85 + 0.025*form
	experienceFactor := 0.02 * experience
	staminaFactor := 0.9 + 0.01*stamina

	scores := make(Scores, len(Order))
	for _, pos := range Order {
		w := weightsByPosition[pos]
		base := w.keeper*effective.keeper +
			w.defender*effective.defender +
			w.playmaker*effective.playmaker +
			w.passing*effective.passing +
			w.winger*effective.winger +
			w.scorer*effective.scorer +
			w.setPieces*effective.setPieces

		scores[pos] = ((0.8*base)*formFactor + 0.2*experienceFactor) * staminaFactor
	}
	return scores
}

// Best returns the position with the greatest score. Exact ties resolve to
// the position appearing first in Order.
func (scores Scores) Best() (Position, float64) {
	var (
		bestPos   Position
		bestScore float64
		found     bool
	)
	for _, pos := range Order {
		score, ok := scores[pos]
		if !ok {
			continue
		}
		if !found || score > bestScore {
			bestPos, bestScore, found = pos, score, true
		}
	}
	return bestPos, bestScore
}

func numericOrZero(data player.Attributes, key string) float64 {
	v, _ := player.NumericAttr(data, key)
	return v
}
