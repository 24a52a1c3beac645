package runlist

import (
	"fmt"
	"testing"
)

func TestAddRange(t *testing.T) {
	var s List[int]

	expect := func(title, expected string) {
		t.Helper()
		if got := fmt.Sprint(&s); got != expected {
			t.Fatalf("%v: got %v, want %v", title, got, expected)
		}
	}

	s.AddRange(1, 2)
	expect("single", "{[1,2)}")
	s.AddRange(0, 1)
	expect("touching before stays separate", "{[0,1) [1,2)}")
	s.AddRange(2, 3)
	expect("touching after stays separate", "{[0,1) [1,2) [2,3)}")
	s.AddRange(0, 3)
	expect("covering all three", "{[0,3)}")
	s.AddRange(1, 2)
	expect("contained is a no-op", "{[0,3)}")
	s.AddRange(1, 2)
	expect("idempotent", "{[0,3)}")
	s.AddRange(4, 7)
	expect("disjoint after", "{[0,3) [4,7)}")
	s.AddRange(2, 5)
	expect("bridging merge", "{[0,7)}")
	s.AddRange(-3, -1)
	expect("disjoint before", "{[-3,-1) [0,7)}")
	s.AddRange(-5, 10)
	expect("covering everything", "{[-5,10)}")
	s.Reset()
	expect("reset", "{}")
}

func TestAddRangeKeepsContainingRun(t *testing.T) {
	var s List[int]
	s.AddRange(0, 10)
	s.AddRange(2, 5)
	if got := fmt.Sprint(&s); got != "{[0,10)}" {
		t.Fatalf("larger existing run must win: got %v", got)
	}

	s.Reset()
	s.AddRange(2, 5)
	s.AddRange(0, 10)
	if got := fmt.Sprint(&s); got != "{[0,10)}" {
		t.Fatalf("larger inserted run must win: got %v", got)
	}
}

func TestAddRangeTransitiveMerge(t *testing.T) {
	var s List[int]
	s.AddRange(0, 2)
	s.AddRange(4, 6)
	s.AddRange(8, 10)
	s.AddRange(1, 9)
	if got := fmt.Sprint(&s); got != "{[0,10)}" {
		t.Fatalf("got %v", got)
	}
}

func TestTouchingRunsAreNotMerged(t *testing.T) {
	var s List[int]
	s.AddRange(0, 5)
	s.AddRange(5, 10)
	if s.Len() != 2 {
		t.Fatalf("want 2 runs, got %v", &s)
	}
	if !s.Contains(5) {
		t.Fatal("5 must be covered by the second run")
	}
}

func TestDeleteRange(t *testing.T) {
	var s List[int]

	expect := func(title, expected string) {
		t.Helper()
		if got := fmt.Sprint(&s); got != expected {
			t.Fatalf("%v: got %v, want %v", title, got, expected)
		}
	}

	s.AddRange(0, 10)
	s.DeleteRange(3, 6)
	expect("middle split", "{[0,3) [6,10)}")
	s.DeleteRange(0, 1)
	expect("left truncation", "{[1,3) [6,10)}")
	s.DeleteRange(9, 20)
	expect("right truncation", "{[1,3) [6,9)}")
	s.DeleteRange(1, 3)
	expect("exact cover", "{[6,9)}")
	s.DeleteRange(10, 20)
	expect("outside is a no-op", "{[6,9)}")
	s.DeleteRange(0, 6)
	expect("touching is a no-op", "{[6,9)}")
	s.DeleteRange(-5, 50)
	expect("covering everything", "{}")
	s.DeleteRange(0, 1)
	expect("empty set", "{}")
}

func TestDeleteRangeAcrossRuns(t *testing.T) {
	var s List[int]
	s.AddRange(0, 3)
	s.AddRange(5, 8)
	s.AddRange(10, 13)
	s.DeleteRange(2, 11)
	if got := fmt.Sprint(&s); got != "{[0,2) [11,13)}" {
		t.Fatalf("got %v", got)
	}
}

func TestAddDeleteSinglePoints(t *testing.T) {
	var s List[int]
	s.Add(1)
	s.Add(0)
	s.Add(2)
	if got := fmt.Sprint(&s); got != "{[0,1) [1,2) [2,3)}" {
		t.Fatalf("got %v", got)
	}
	if s.Size() != 3 {
		t.Fatalf("size: got %v", s.Size())
	}
	s.Delete(1)
	if s.Contains(1) {
		t.Fatal("1 must be gone")
	}
	if !s.Contains(0) || !s.Contains(2) {
		t.Fatal("neighbors must survive")
	}
}

func TestContainsBoundaries(t *testing.T) {
	var s List[int]
	s.AddRange(0, 5)
	s.AddRange(10, 15)

	for _, tc := range []struct {
		key  int
		want bool
	}{
		{-1, false},
		{0, true},
		{4, true},
		{5, false},
		{9, false},
		{10, true},
		{14, true},
		{15, false},
	} {
		if got := s.Contains(tc.key); got != tc.want {
			t.Errorf("Contains(%v): got %v, want %v", tc.key, got, tc.want)
		}
	}
}

func TestInvert(t *testing.T) {
	var s List[int]
	s.AddRange(0, 5)

	keys := []int{-1, 0, 4, 5, 100}
	before := make(map[int]bool)
	for _, k := range keys {
		before[k] = s.Contains(k)
	}

	s.Invert()
	if !s.Inverted() {
		t.Fatal("flag must be set")
	}
	for _, k := range keys {
		if s.Contains(k) != !before[k] {
			t.Fatalf("Contains(%v) must flip", k)
		}
	}
	if s.Len() != 1 {
		t.Fatal("stored runs must be untouched")
	}

	s.Invert()
	for _, k := range keys {
		if s.Contains(k) != before[k] {
			t.Fatalf("double inversion must restore Contains(%v)", k)
		}
	}
}

func TestUnion(t *testing.T) {
	var a, b List[int]
	a.AddRange(0, 5)
	b.AddRange(3, 8)
	b.AddRange(10, 12)
	a.Union(&b)
	if got := fmt.Sprint(&a); got != "{[0,8) [10,12)}" {
		t.Fatalf("got %v", got)
	}
	if got := fmt.Sprint(&b); got != "{[3,8) [10,12)}" {
		t.Fatalf("operand must be untouched: got %v", got)
	}

	a.Union(&a)
	if got := fmt.Sprint(&a); got != "{[0,8) [10,12)}" {
		t.Fatalf("self union: got %v", got)
	}
}

func TestSubtract(t *testing.T) {
	var a, b List[int]
	a.AddRange(0, 10)
	b.AddRange(3, 6)
	a.Subtract(&b)
	if got := fmt.Sprint(&a); got != "{[0,3) [6,10)}" {
		t.Fatalf("got %v", got)
	}

	a.Subtract(&a)
	if got := fmt.Sprint(&a); got != "{}" {
		t.Fatalf("self subtraction: got %v", got)
	}
}

func TestUnionWithInvertedOperands(t *testing.T) {
	// Small domain so the materialized complement is easy to read:
	// int8 models [-128, 127).
	var a, b List[int8]
	a.AddRange(0, 10)
	b.Invert() // empty inverted = the whole domain
	a.Union(&b)
	if got := fmt.Sprint(&a); got != "{[-128,127)}" {
		t.Fatalf("union with full domain: got %v", got)
	}

	var c List[int8]
	c.AddRange(0, 5)
	c.Invert()
	var empty List[int8]
	c.Union(&empty)
	if got := fmt.Sprint(&c); got != "{[-128,0) [5,127)}" {
		t.Fatalf("inverted receiver must normalize: got %v", got)
	}
	if c.Inverted() {
		t.Fatal("normalized list must not stay inverted")
	}
}

func TestSubtractWithInvertedOperands(t *testing.T) {
	var a, b List[int8]
	a.AddRange(-5, 5)
	b.AddRange(0, 3)
	b.Invert() // everything except [0, 3)
	a.Subtract(&b)
	if got := fmt.Sprint(&a); got != "{[0,3)}" {
		t.Fatalf("got %v", got)
	}
}

func TestDomainMaximum(t *testing.T) {
	var s List[uint8]
	s.Add(254)
	if !s.Contains(254) {
		t.Fatal("254 must be covered")
	}

	defer func() {
		if recover() == nil {
			t.Fatal("Add at the domain maximum must panic")
		}
	}()
	s.Add(255)
}

func TestEmptyRunPanics(t *testing.T) {
	var s List[int]
	for _, f := range []func(){
		func() { s.AddRange(3, 3) },
		func() { s.AddRange(5, 2) },
		func() { s.DeleteRange(3, 3) },
	} {
		func() {
			defer func() {
				if recover() == nil {
					t.Fatal("empty run must panic")
				}
			}()
			f()
		}()
	}
}

func TestDisjointnessInvariant(t *testing.T) {
	var s List[int]
	ops := []struct {
		del       bool
		low, high int
	}{
		{false, 0, 100},
		{true, 10, 20},
		{false, 15, 18},
		{true, 50, 120},
		{false, 200, 300},
		{false, 90, 210},
		{true, 0, 5},
		{false, 19, 21},
	}
	for _, op := range ops {
		if op.del {
			s.DeleteRange(op.low, op.high)
		} else {
			s.AddRange(op.low, op.high)
		}
		runs := s.Runs()
		for i := 1; i < len(runs); i++ {
			if runs[i-1].End > runs[i].Start || runs[i-1].Overlaps(runs[i]) {
				t.Fatalf("after %+v: runs out of order or overlapping: %v", op, &s)
			}
		}
	}
}

func TestRunHelpers(t *testing.T) {
	r := Run[int]{2, 5}
	if !r.Contains(2) || r.Contains(5) || !r.Contains(4) {
		t.Fatal("Contains is half-open")
	}
	if r.Len() != 3 {
		t.Fatalf("Len: got %v", r.Len())
	}
	if !r.Overlaps(Run[int]{4, 9}) {
		t.Fatal("sharing a point is overlap")
	}
	if r.Overlaps(Run[int]{5, 9}) || r.Overlaps(Run[int]{0, 2}) {
		t.Fatal("touching is not overlap")
	}
	if got := r.String(); got != "[2,5)" {
		t.Fatalf("String: got %v", got)
	}
}

func TestCoalesced(t *testing.T) {
	var s List[int]
	s.Add(0)
	s.Add(1)
	s.Add(2)
	s.AddRange(5, 7)
	s.AddRange(7, 9)
	c := s.Coalesced()
	if got := fmt.Sprint(c); got != "{[0,3) [5,9)}" {
		t.Fatalf("got %v", got)
	}
	if got := fmt.Sprint(&s); got != "{[0,1) [1,2) [2,3) [5,7) [7,9)}" {
		t.Fatalf("original must keep touching runs separate: got %v", got)
	}
}

func TestClone(t *testing.T) {
	var s List[int]
	s.AddRange(0, 5)
	s.Invert()
	c := s.Clone()
	c.Invert()
	c.AddRange(10, 20)
	if got := fmt.Sprint(&s); got != "~{[0,5)}" {
		t.Fatalf("original must be unaffected: got %v", got)
	}
	if !s.Inverted() || c.Inverted() {
		t.Fatal("invert flags diverged wrongly")
	}
}
