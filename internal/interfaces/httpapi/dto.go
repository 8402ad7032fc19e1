package httpapi

import "github.com/htdash/htdash/internal/domain/position"

type formationDTO struct {
	Name  string   `json:"name"`
	Slots []string `json:"slots"`
}

func formationToDTO(f position.Formation) formationDTO {
	slots := make([]string, 0, len(f.Slots))
	for _, slot := range f.Slots {
		slots = append(slots, string(slot))
	}
	return formationDTO{Name: f.Name, Slots: slots}
}

type formationSelectionRequest struct {
	Formation string `json:"formation" validate:"required"`
}

type formationSelectionDTO struct {
	Formation string  `json:"formation"`
	PlayerIDs []int64 `json:"playerIds"`
}

type playerScoresDTO struct {
	PlayerID     int64              `json:"playerId"`
	Scores       map[string]float64 `json:"scores"`
	BestPosition string             `json:"bestPosition"`
	BestScore    float64            `json:"bestScore"`
}

func scoresToDTO(playerID int64, scores position.Scores, best position.Position, bestScore float64) playerScoresDTO {
	out := make(map[string]float64, len(scores))
	for pos, score := range scores {
		out[string(pos)] = score
	}
	return playerScoresDTO{
		PlayerID:     playerID,
		Scores:       out,
		BestPosition: string(best),
		BestScore:    bestScore,
	}
}
