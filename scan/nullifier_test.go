package scan

import "testing"

func TestMatchNullifiers_Match(t *testing.T) {
	nf := [32]byte{1, 2, 3}
	tracked := []TrackedNullifier{
		{Account: 5, Nullifier: [32]byte{9, 9, 9}},
		{Account: 7, Nullifier: nf},
	}
	spends := []CompactSpend{{Nf: nf}}

	found, unlinked := matchNullifiers(spends, tracked)
	if len(found) != 1 {
		t.Fatalf("expected 1 match, got %d", len(found))
	}
	if found[0].Account != 7 {
		t.Errorf("expected account 7, got %d", found[0].Account)
	}
	if len(unlinked) != 0 {
		t.Errorf("expected no unlinked nullifiers, got %d", len(unlinked))
	}
}

func TestMatchNullifiers_NoMatch(t *testing.T) {
	spends := []CompactSpend{{Nf: [32]byte{1}}}
	tracked := []TrackedNullifier{{Account: 1, Nullifier: [32]byte{2}}}

	found, unlinked := matchNullifiers(spends, tracked)
	if len(found) != 0 {
		t.Fatalf("expected 0 matches, got %d", len(found))
	}
	if len(unlinked) != 1 || unlinked[0] != [32]byte{1} {
		t.Errorf("expected the spend nullifier to be unlinked, got %+v", unlinked)
	}
}

func TestMatchNullifiers_FirstOccurrenceWins(t *testing.T) {
	nf := [32]byte{4, 4, 4}
	tracked := []TrackedNullifier{
		{Account: 1, Nullifier: nf},
		{Account: 2, Nullifier: nf},
	}
	spends := []CompactSpend{{Nf: nf}}

	found, _ := matchNullifiers(spends, tracked)
	if len(found) != 1 || found[0].Account != 1 {
		t.Fatalf("expected first tracked account (1) to win, got %+v", found)
	}
}

func TestMatchNullifiers_PreservesSourceOrder(t *testing.T) {
	nfA := [32]byte{1}
	nfB := [32]byte{2}
	tracked := []TrackedNullifier{{Account: 9, Nullifier: nfB}}
	spends := []CompactSpend{{Nf: nfA}, {Nf: nfB}}

	found, unlinked := matchNullifiers(spends, tracked)
	if len(found) != 1 || found[0].Index != 1 {
		t.Fatalf("expected match at index 1, got %+v", found)
	}
	if len(unlinked) != 1 || unlinked[0] != nfA {
		t.Fatalf("expected nfA unlinked, got %+v", unlinked)
	}
}

func TestMatchNullifiers_EmptyTrackedSet(t *testing.T) {
	spends := []CompactSpend{{Nf: [32]byte{1}}, {Nf: [32]byte{2}}}
	found, unlinked := matchNullifiers(spends, nil)
	if len(found) != 0 {
		t.Fatalf("expected no matches against empty tracked set, got %d", len(found))
	}
	if len(unlinked) != 2 {
		t.Fatalf("expected both spends unlinked, got %d", len(unlinked))
	}
}
