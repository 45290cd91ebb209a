package sdr

import "testing"

func TestNormalize_SortsAndDedupes(t *testing.T) {
	v := Normalize([]int{9, 3, -1, 3, 5})
	want := Vector{3, 5, 9}
	if !Equal(v, want) {
		t.Fatalf("expected %v, got %v", want, v)
	}
}

func TestOverlap(t *testing.T) {
	a := Vector{1, 4, 6, 10}
	b := Vector{0, 4, 5, 6, 11}
	if got := Overlap(a, b); got != 2 {
		t.Fatalf("expected overlap 2, got %d", got)
	}
	if got := Overlap(a, nil); got != 0 {
		t.Fatalf("expected overlap 0 with empty, got %d", got)
	}
}

func TestFromDense(t *testing.T) {
	v := FromDense([]int{0, 1, 1, 0, 1})
	if !Equal(v, Vector{1, 2, 4}) {
		t.Fatalf("unexpected dense conversion: %v", v)
	}
}

func TestContains(t *testing.T) {
	u := Normalize(Vector{3, 1, 2, 3})
	if !u.Contains(2) || u.Contains(4) {
		t.Fatal("Contains returned wrong membership")
	}
}

func TestSimilarity(t *testing.T) {
	if s := Similarity(Vector{1, 2, 3, 4}, Vector{1, 2}); s != 0.5 {
		t.Fatalf("expected 0.5, got %f", s)
	}
	if s := Similarity(nil, nil); s != 1 {
		t.Fatalf("expected empty vectors to be identical, got %f", s)
	}
}

func TestStringAndKey(t *testing.T) {
	v := Vector{3, 7, 12}
	if v.String() != "3, 7, 12" {
		t.Errorf("unexpected String: %q", v.String())
	}
	if v.Key() != "3.7.12" {
		t.Errorf("unexpected Key: %q", v.Key())
	}
}
