// Package intset implements an ordered set of small non-negative integers,
// used throughout bridge-solver to track deal ids ("dids") — which of the
// hypothesized opposing layouts are still live at a given point in the
// search.
package intset

import (
	"fmt"
	"sort"
	"strings"
)

// Set is an ordered set of non-negative ints. The zero value is the empty
// set. Sets are small in practice (bounded by the number of hypothesized
// layouts in a Problem), so a sorted slice beats a map for iteration order
// and memory density.
type Set struct {
	data []int
}

// New returns an empty Set.
func New() *Set {
	return &Set{}
}

// FullSet returns the set {0, 1, ..., n-1}.
func FullSet(n int) *Set {
	s := &Set{data: make([]int, n)}
	for i := 0; i < n; i++ {
		s.data[i] = i
	}
	return s
}

// Clone returns a copy of s.
func (s *Set) Clone() *Set {
	if s == nil || len(s.data) == 0 {
		return &Set{}
	}
	out := make([]int, len(s.data))
	copy(out, s.data)
	return &Set{data: out}
}

func (s *Set) search(x int) (int, bool) {
	i := sort.SearchInts(s.data, x)
	return i, i < len(s.data) && s.data[i] == x
}

// Insert adds x to the set.
func (s *Set) Insert(x int) {
	i, found := s.search(x)
	if found {
		return
	}
	s.data = append(s.data, 0)
	copy(s.data[i+1:], s.data[i:])
	s.data[i] = x
}

// Remove deletes x from the set, if present.
func (s *Set) Remove(x int) {
	i, found := s.search(x)
	if !found {
		return
	}
	s.data = append(s.data[:i], s.data[i+1:]...)
}

// RemoveAll empties the set.
func (s *Set) RemoveAll() {
	s.data = nil
}

// Contains reports whether x is in the set.
func (s *Set) Contains(x int) bool {
	_, found := s.search(x)
	return found
}

// Size returns the number of elements.
func (s *Set) Size() int {
	return len(s.data)
}

// Empty reports whether the set has no elements.
func (s *Set) Empty() bool {
	return len(s.data) == 0
}

// PopSmallest removes and returns the smallest element. Panics if empty.
func (s *Set) PopSmallest() int {
	if len(s.data) == 0 {
		panic("intset: PopSmallest on empty set")
	}
	out := s.data[0]
	s.data = s.data[1:]
	return out
}

// Slice returns the elements in ascending order. The returned slice must
// not be mutated by the caller.
func (s *Set) Slice() []int {
	return s.data
}

// Equal reports whether s and o contain the same elements.
func (s *Set) Equal(o *Set) bool {
	for p := NewPairIter(s, o); p.More(); p.Next() {
		if !p.Both() {
			return false
		}
	}
	return true
}

// SubsetOf reports whether every element of s is also in other.
func (s *Set) SubsetOf(other *Set) bool {
	for p := NewPairIter(s, other); p.More(); p.Next() {
		if p.AOnly() {
			return false
		}
	}
	return true
}

// SupersetOf reports whether every element of other is also in s.
func (s *Set) SupersetOf(other *Set) bool {
	return other.SubsetOf(s)
}

// Combine returns the union of a and b (each element present in either).
func Combine(a, b *Set) *Set {
	out := &Set{data: make([]int, 0, a.Size()+b.Size())}
	for p := NewPairIter(a, b); p.More(); p.Next() {
		out.data = append(out.data, p.Current())
	}
	return out
}

// String renders the set as e.g. "[1,3,7]".
func (s *Set) String() string {
	parts := make([]string, len(s.data))
	for i, x := range s.data {
		parts[i] = fmt.Sprintf("%d", x)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// Iter walks the set in ascending order.
type Iter struct {
	data []int
	pos  int
}

// NewIter returns an iterator over s in ascending order.
func NewIter(s *Set) *Iter {
	return &Iter{data: s.data}
}

func (it *Iter) More() bool     { return it.pos < len(it.data) }
func (it *Iter) Current() int   { return it.data[it.pos] }
func (it *Iter) Next()          { it.pos++ }

// PairIter walks the union of two sets in ascending order, reporting at
// each step whether the current element belongs to a only, b only, or
// both — the building block for subset/superset/union/equality tests.
type PairIter struct {
	a, b     []int
	ai, bi   int
	aOnly    bool
	bOnly    bool
	both     bool
}

// NewPairIter returns a paired iterator over a and b.
func NewPairIter(a, b *Set) *PairIter {
	p := &PairIter{a: a.data, b: b.data}
	p.calc()
	return p
}

func (p *PairIter) calc() {
	p.aOnly, p.bOnly, p.both = false, false, false
	aDone := p.ai >= len(p.a)
	bDone := p.bi >= len(p.b)
	switch {
	case aDone && bDone:
		return
	case aDone:
		p.bOnly = true
	case bDone:
		p.aOnly = true
	case p.a[p.ai] < p.b[p.bi]:
		p.aOnly = true
	case p.a[p.ai] > p.b[p.bi]:
		p.bOnly = true
	default:
		p.both = true
	}
}

// More reports whether either set has unvisited elements.
func (p *PairIter) More() bool {
	return p.ai < len(p.a) || p.bi < len(p.b)
}

// Current returns the current element under the iteration.
func (p *PairIter) Current() int {
	if p.aOnly || p.both {
		return p.a[p.ai]
	}
	return p.b[p.bi]
}

func (p *PairIter) AOnly() bool { return p.aOnly }
func (p *PairIter) BOnly() bool { return p.bOnly }
func (p *PairIter) Both() bool  { return p.both }

// Next advances the iterator.
func (p *PairIter) Next() {
	if p.aOnly {
		p.ai++
	} else if p.bOnly {
		p.bi++
	} else {
		p.ai++
		p.bi++
	}
	p.calc()
}
