package player

import "strconv"

// Attribute keys read by the scoring and weekly diff paths. The bag stays
// dynamic; only these keys get typed extraction.
const (
	AttrTSI            = "TSI"
	AttrPlayerForm     = "PlayerForm"
	AttrExperience     = "Experience"
	AttrLoyalty        = "Loyalty"
	AttrStaminaSkill   = "StaminaSkill"
	AttrKeeperSkill    = "KeeperSkill"
	AttrDefenderSkill  = "DefenderSkill"
	AttrPlaymakerSkill = "PlaymakerSkill"
	AttrPassingSkill   = "PassingSkill"
	AttrWingerSkill    = "WingerSkill"
	AttrScorerSkill    = "ScorerSkill"
	AttrSetPiecesSkill = "SetPiecesSkill"
	AttrInjuryLevel    = "InjuryLevel"
	AttrAvatar         = "Avatar"
)

// TrackedFields is the allow-list of numeric attributes the weekly diff
// reports on.
var TrackedFields = []string{
	AttrTSI,
	AttrPlayerForm,
	AttrExperience,
	AttrStaminaSkill,
	AttrKeeperSkill,
	AttrPlaymakerSkill,
	AttrScorerSkill,
	AttrPassingSkill,
	AttrWingerSkill,
	AttrDefenderSkill,
	AttrSetPiecesSkill,
}

// NumericAttr extracts key as a number with best effort: native numbers pass
// through, numeric strings are parsed, and anything else reports absence.
func NumericAttr(data Attributes, key string) (float64, bool) {
	v, ok := data[key]
	if !ok || v == nil {
		return 0, false
	}

	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
