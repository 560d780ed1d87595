package legalnlp

import (
	"context"
	"testing"
)

func TestResolveCourtExactAlias(t *testing.T) {
	r := NewCourtResolver()

	res, err := r.ResolveCourt(context.Background(), "Ninth Circuit")
	if err != nil {
		t.Fatalf("ResolveCourt: %v", err)
	}
	if !res.Resolved || res.CourtID != "ca9" {
		t.Fatalf("resolution = %+v, want ca9", res)
	}
}

func TestResolveCourtEmbeddedAlias(t *testing.T) {
	r := NewCourtResolver()

	res, err := r.ResolveCourt(context.Background(), "In the United States Court of Appeals for the Second Circuit, decided")
	if err != nil {
		t.Fatalf("ResolveCourt: %v", err)
	}
	if !res.Resolved || res.CourtID != "ca2" {
		t.Fatalf("resolution = %+v, want ca2", res)
	}
}

func TestResolveCourtLongestEmbeddedAliasWins(t *testing.T) {
	r := NewCourtResolver()

	// "southern district of new york" contains no shorter alias ambiguity but
	// must beat any partial match.
	res, err := r.ResolveCourt(context.Background(), "filed in the Southern District of New York yesterday")
	if err != nil {
		t.Fatalf("ResolveCourt: %v", err)
	}
	if !res.Resolved || res.CourtID != "nysd" {
		t.Fatalf("resolution = %+v, want nysd", res)
	}
}

func TestResolveCourtNoMatch(t *testing.T) {
	r := NewCourtResolver()

	res, err := r.ResolveCourt(context.Background(), "Intergalactic Tribunal")
	if err != nil {
		t.Fatalf("ResolveCourt: %v", err)
	}
	if res.Resolved {
		t.Fatalf("expected unresolved, got %+v", res)
	}
	if res.Reason == "" {
		t.Fatal("unresolved result must carry a reason")
	}
}

func TestResolveCourtEmptyHint(t *testing.T) {
	r := NewCourtResolver()

	res, err := r.ResolveCourt(context.Background(), "   ")
	if err != nil {
		t.Fatalf("ResolveCourt: %v", err)
	}
	if res.Resolved {
		t.Fatalf("expected unresolved for empty hint, got %+v", res)
	}
}
