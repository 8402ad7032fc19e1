package position

import "testing"

func cdCandidate(id int64, score float64, played bool) Candidate {
	return Candidate{
		PlayerID:            id,
		BestPosition:        CentralDefender,
		Scores:              Scores{CentralDefender: score},
		HasPlayedThisPeriod: played,
	}
}

func TestSelectBestForFormation_CapsPerPositionCount(t *testing.T) {
	formation := Formation{Name: "test", Slots: []Position{CentralDefender, CentralDefender}}
	candidates := []Candidate{
		cdCandidate(1, 5.0, false),
		cdCandidate(2, 9.0, false),
		cdCandidate(3, 7.0, false),
		cdCandidate(4, 6.0, false),
		cdCandidate(5, 8.0, false),
	}

	got := SelectBestForFormation(candidates, formation)
	if len(got) != 2 {
		t.Fatalf("unexpected selection size: got=%d want=2", len(got))
	}
	if got[0] != 2 || got[1] != 5 {
		t.Fatalf("expected top two scorers (2, 5), got %v", got)
	}
}

func TestSelectBestForFormation_SkipsPlayedCandidates(t *testing.T) {
	formation := Formation{Name: "test", Slots: []Position{CentralDefender}}
	candidates := []Candidate{
		cdCandidate(1, 9.0, true),
		cdCandidate(2, 3.0, false),
	}

	got := SelectBestForFormation(candidates, formation)
	if len(got) != 1 || got[0] != 2 {
		t.Fatalf("played candidate must never be selected, got %v", got)
	}
}

func TestSelectBestForFormation_NeverBorrowsAcrossPositions(t *testing.T) {
	// One FW slot, but the only candidate is best at CD even though they
	// carry an FW score. The slot stays unfilled.
	formation := Formation{Name: "test", Slots: []Position{Forward}}
	candidates := []Candidate{
		{
			PlayerID:     1,
			BestPosition: CentralDefender,
			Scores:       Scores{CentralDefender: 8.0, Forward: 7.5},
		},
	}

	if got := SelectBestForFormation(candidates, formation); len(got) != 0 {
		t.Fatalf("candidate must only fill their best position, got %v", got)
	}
}

func TestSelectBestForFormation_StableOnEqualScores(t *testing.T) {
	formation := Formation{Name: "test", Slots: []Position{CentralDefender}}
	candidates := []Candidate{
		cdCandidate(10, 5.0, false),
		cdCandidate(11, 5.0, false),
	}

	got := SelectBestForFormation(candidates, formation)
	if len(got) != 1 || got[0] != 10 {
		t.Fatalf("equal scores should keep original order, got %v", got)
	}
}

func TestFormationByName(t *testing.T) {
	f, ok := FormationByName("4-4-2")
	if !ok {
		t.Fatal("expected built-in 4-4-2")
	}
	if len(f.Slots) != 11 {
		t.Fatalf("unexpected slot count: got=%d want=11", len(f.Slots))
	}

	if _, ok := FormationByName("2-2-6"); ok {
		t.Fatal("unknown formation should not resolve")
	}
}

func TestBuiltInFormationsHaveElevenSlots(t *testing.T) {
	for _, f := range Formations {
		if len(f.Slots) != 11 {
			t.Fatalf("%s has %d slots, want 11", f.Name, len(f.Slots))
		}
		if f.Slots[0] != Goalkeeper {
			t.Fatalf("%s should start with the keeper slot", f.Name)
		}
	}
}

func TestBuiltInFormationsArePairwiseDistinct(t *testing.T) {
	slotKey := func(f Formation) string {
		key := ""
		for _, slot := range f.Slots {
			key += string(slot) + ","
		}
		return key
	}

	seen := make(map[string]string, len(Formations))
	for _, f := range Formations {
		key := slotKey(f)
		if other, dup := seen[key]; dup {
			t.Fatalf("%s and %s share the same slot list", other, f.Name)
		}
		seen[key] = f.Name
	}
}

func TestFormation433FieldsThreeForwards(t *testing.T) {
	f, ok := FormationByName("4-3-3")
	if !ok {
		t.Fatal("expected built-in 4-3-3")
	}

	forwards := 0
	for _, slot := range f.Slots {
		if slot == Forward {
			forwards++
		}
	}
	if forwards != 3 {
		t.Fatalf("4-3-3 has %d forward slots, want 3", forwards)
	}
}
