// Package runlist represents a set of integers as a sorted collection of
// disjoint half-open runs, with an optional inversion flag that makes the
// same collection stand for its complement.
package runlist

import (
	"fmt"
	"sort"
	"strings"
	"unsafe"

	"golang.org/x/exp/constraints"
)

// A Run is a half-open interval [Start, End) over an integer domain.
// A Run is never empty: Start < End.
type Run[T constraints.Integer] struct {
	Start, End T
}

// Contains reports whether k lies within r.
func (r Run[T]) Contains(k T) bool {
	return r.Start <= k && k < r.End
}

// Overlaps reports whether r and o share at least one point. Runs that
// merely touch (one's End equals the other's Start) do not overlap.
func (r Run[T]) Overlaps(o Run[T]) bool {
	return r.Start < o.End && o.Start < r.End
}

// Len returns the number of points covered by r.
func (r Run[T]) Len() T {
	return r.End - r.Start
}

func (r Run[T]) String() string {
	return fmt.Sprintf("[%v,%v)", r.Start, r.End)
}

// A List is a set of integers stored as sorted, non-overlapping runs.
// Runs that merely touch are kept as separate entries. When the invert
// flag is set, membership queries report the complement of the stored
// runs over the domain [minOf(T), maxOf(T)); the maximum value of T is
// outside the modeled domain, since no half-open run can cover it.
//
// The zero value is an empty, non-inverted list. A List must not be
// accessed concurrently with a mutation.
type List[T constraints.Integer] struct {
	runs   []Run[T]
	invert bool
}

// AddRange inserts [low, high) into the set, merging every stored run it
// overlaps. Touching runs are left separate. Panics if low >= high.
func (s *List[T]) AddRange(low, high T) {
	if low >= high {
		panic("runlist: empty run")
	}

	runs := s.runs
	i := sort.Search(len(runs), func(i int) bool { return runs[i].End > low })
	j := sort.Search(len(runs), func(i int) bool { return runs[i].Start >= high })

	// runs[i:j] is exactly the span of runs overlapping [low, high).
	r := Run[T]{low, high}
	if i < j {
		if runs[i].Start < r.Start {
			r.Start = runs[i].Start
		}
		if runs[j-1].End > r.End {
			r.End = runs[j-1].End
		}
		runs[i] = r
		s.runs = append(runs[:i+1], runs[j:]...)
		return
	}

	runs = append(runs, Run[T]{})
	copy(runs[i+1:], runs[i:])
	runs[i] = r
	s.runs = runs
}

// Add inserts the single point k. Panics if k is the maximum value of T,
// which lies outside the modeled domain.
func (s *List[T]) Add(k T) {
	next := k + 1
	if next < k {
		panic("runlist: point at domain maximum")
	}
	s.AddRange(k, next)
}

// DeleteRange removes [low, high) from every run it overlaps: runs fully
// covered are dropped, a run split in the middle becomes two, and runs
// cut on one side are shrunk. Panics if low >= high.
func (s *List[T]) DeleteRange(low, high T) {
	if low >= high {
		panic("runlist: empty run")
	}

	runs := s.runs
	i := sort.Search(len(runs), func(i int) bool { return runs[i].End > low })
	j := sort.Search(len(runs), func(i int) bool { return runs[i].Start >= high })
	if i >= j {
		return
	}

	left := Run[T]{runs[i].Start, low}
	right := Run[T]{high, runs[j-1].End}

	if left.Start < left.End {
		runs[i] = left
		i++
	}
	if right.Start < right.End {
		if i == j {
			// Middle split of a single run; grow instead of trim.
			runs = append(runs, Run[T]{})
			copy(runs[i+1:], runs[i:])
			runs[i] = right
			s.runs = runs
			return
		}
		runs[i] = right
		i++
	}

	if i < j {
		s.runs = append(runs[:i], runs[j:]...)
	}
}

// Delete removes the single point k. Panics if k is the maximum value
// of T.
func (s *List[T]) Delete(k T) {
	next := k + 1
	if next < k {
		panic("runlist: point at domain maximum")
	}
	s.DeleteRange(k, next)
}

// Contains reports whether k is a member of the set, honoring the invert
// flag.
func (s *List[T]) Contains(k T) bool {
	runs := s.runs
	i := sort.Search(len(runs), func(i int) bool { return runs[i].Start > k }) - 1
	in := i >= 0 && k < runs[i].End
	return in != s.invert
}

// Invert toggles the inversion flag. The stored runs are untouched; every
// subsequent Contains reports the complement of what it reported before.
func (s *List[T]) Invert() {
	s.invert = !s.invert
}

// Inverted reports whether the list currently represents the complement
// of its stored runs.
func (s *List[T]) Inverted() bool {
	return s.invert
}

// Union makes s the union of s and o. Inverted operands are first
// normalized by materializing their complement over [minOf(T), maxOf(T)).
func (s *List[T]) Union(o *List[T]) {
	s.normalize()
	if o == s {
		return
	}
	for _, r := range o.materialized() {
		s.AddRange(r.Start, r.End)
	}
}

// Subtract removes every point of o from s. Inverted operands are first
// normalized as in Union.
func (s *List[T]) Subtract(o *List[T]) {
	if o == s {
		s.runs, s.invert = nil, false
		return
	}
	s.normalize()
	for _, r := range o.materialized() {
		s.DeleteRange(r.Start, r.End)
	}
}

// Len returns the number of stored runs.
func (s *List[T]) Len() int {
	return len(s.runs)
}

// Empty reports whether no runs are stored. An empty inverted list still
// contains every point of the domain.
func (s *List[T]) Empty() bool {
	return len(s.runs) == 0
}

// Runs returns a copy of the stored runs, ignoring the invert flag.
func (s *List[T]) Runs() []Run[T] {
	if len(s.runs) == 0 {
		return nil
	}
	return append([]Run[T](nil), s.runs...)
}

// Size returns the total number of points covered by the stored runs,
// ignoring the invert flag.
func (s *List[T]) Size() T {
	var n T
	for _, r := range s.runs {
		n += r.End - r.Start
	}
	return n
}

// Coalesced returns a copy of s in which touching runs are joined. The
// list itself keeps touching runs separate; reporting code usually wants
// them merged.
func (s *List[T]) Coalesced() *List[T] {
	c := &List[T]{invert: s.invert}
	for _, r := range s.runs {
		if n := len(c.runs); n > 0 && c.runs[n-1].End == r.Start {
			c.runs[n-1].End = r.End
		} else {
			c.runs = append(c.runs, r)
		}
	}
	return c
}

// Clone returns an independent copy of s.
func (s *List[T]) Clone() *List[T] {
	c := &List[T]{invert: s.invert}
	if len(s.runs) > 0 {
		c.runs = append([]Run[T](nil), s.runs...)
	}
	return c
}

// Reset restores s to the empty, non-inverted state.
func (s *List[T]) Reset() {
	s.runs, s.invert = nil, false
}

func (s *List[T]) String() string {
	var b strings.Builder
	if s.invert {
		b.WriteByte('~')
	}
	b.WriteByte('{')
	for i, r := range s.runs {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(r.String())
	}
	b.WriteByte('}')
	return b.String()
}

// normalize materializes the complement of an inverted list so that its
// stored runs and its membership semantics agree.
func (s *List[T]) normalize() {
	if s.invert {
		s.runs = complement(s.runs)
		s.invert = false
	}
}

func (s *List[T]) materialized() []Run[T] {
	if s.invert {
		return complement(s.runs)
	}
	return s.runs
}

func complement[T constraints.Integer](runs []Run[T]) []Run[T] {
	lo, hi := domain[T]()
	out := make([]Run[T], 0, len(runs)+1)
	next := lo
	for _, r := range runs {
		if next < r.Start {
			out = append(out, Run[T]{next, r.Start})
		}
		next = r.End
	}
	if next < hi {
		out = append(out, Run[T]{next, hi})
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// domain returns the modeled domain [min, max) of T: the full range of
// the type, excluding its maximum value.
func domain[T constraints.Integer]() (min, max T) {
	ones := ^T(0)
	if ones > 0 {
		return 0, ones
	}
	bits := 8 * unsafe.Sizeof(ones)
	min = ones << (bits - 1)
	return min, ^min
}
