package position

import "sort"

// Formation is an ordered list of outfield-and-keeper slot tokens. Tokens
// repeat when a role needs more than one player.
type Formation struct {
	Name  string
	Slots []Position
}

// Formations are the selectable lineup templates, keeper slot included.
var Formations = []Formation{
	{Name: "4-4-2", Slots: []Position{Goalkeeper, CentralDefender, CentralDefender, WingBack, WingBack, InnerMidfielder, InnerMidfielder, Winger, Winger, Forward, Forward}},
	{Name: "3-5-2", Slots: []Position{Goalkeeper, CentralDefender, CentralDefender, CentralDefender, InnerMidfielder, InnerMidfielder, InnerMidfielder, Winger, Winger, Forward, Forward}},
	{Name: "4-3-3", Slots: []Position{Goalkeeper, CentralDefender, CentralDefender, WingBack, WingBack, InnerMidfielder, InnerMidfielder, InnerMidfielder, Forward, Forward, Forward}},
	{Name: "5-3-2", Slots: []Position{Goalkeeper, CentralDefender, CentralDefender, CentralDefender, WingBack, WingBack, InnerMidfielder, InnerMidfielder, InnerMidfielder, Forward, Forward}},
	{Name: "4-5-1", Slots: []Position{Goalkeeper, CentralDefender, CentralDefender, WingBack, WingBack, InnerMidfielder, InnerMidfielder, InnerMidfielder, Winger, Winger, Forward}},
	{Name: "3-4-3", Slots: []Position{Goalkeeper, CentralDefender, CentralDefender, CentralDefender, InnerMidfielder, InnerMidfielder, Winger, Winger, Forward, Forward, Forward}},
}

// FormationByName looks up a built-in formation template.
func FormationByName(name string) (Formation, bool) {
	for _, f := range Formations {
		if f.Name == name {
			return f, true
		}
	}
	return Formation{}, false
}

// Candidate is one player offered to the formation selector.
type Candidate struct {
	PlayerID            int64
	BestPosition        Position
	Scores              Scores
	HasPlayedThisPeriod bool
}

// SelectBestForFormation greedily fills each distinct slot of the formation:
// per position, candidates whose best position matches, who have not played
// this period, and who carry a score for it are ranked descending and the
// top required count is taken. A player is only ever considered for their own
// best position, so an unfilled slot stays unfilled rather than borrowing a
// well-scoring player from another role. Returns the selected player ids.
func SelectBestForFormation(candidates []Candidate, formation Formation) []int64 {
	required := make(map[Position]int, len(formation.Slots))
	for _, slot := range formation.Slots {
		required[slot]++
	}

	selected := make([]int64, 0, len(formation.Slots))
	for _, pos := range Order {
		count, ok := required[pos]
		if !ok {
			continue
		}

		eligible := make([]Candidate, 0, len(candidates))
		for _, c := range candidates {
			if c.BestPosition != pos || c.HasPlayedThisPeriod {
				continue
			}
			if _, hasScore := c.Scores[pos]; !hasScore {
				continue
			}
			eligible = append(eligible, c)
		}

		// Stable keeps original relative order on equal scores.
		sort.SliceStable(eligible, func(i, j int) bool {
			return eligible[i].Scores[pos] > eligible[j].Scores[pos]
		})

		if len(eligible) > count {
			eligible = eligible[:count]
		}
		for _, c := range eligible {
			selected = append(selected, c.PlayerID)
		}
	}
	return selected
}
