// Package bdt implements a hash-consed zero-suppressed decision diagram
// (a "BDT": a DAG whose nodes each test membership of one variable,
// representing a family of IntSets) with memoized set algebra, used to
// describe which subsets of hypothesized deal ids are jointly solvable.
package bdt

import (
	"github.com/behrlich/bridge-solver/pkg/intset"
)

// Handle identifies a node within a Manager. The zero Handle is the null
// family (the empty collection of sets, distinct from the family
// containing only the empty set).
type Handle uint32

// Null is the reserved handle for the empty family.
const Null Handle = 0

// IsNull reports whether h is the null family.
func (h Handle) IsNull() bool {
	return h == Null
}

type node struct {
	var_ uint32
	avec Handle
	sans Handle
}

type opKey struct {
	a, b Handle
}

type varKey struct {
	v uint32
	h Handle
}

// Manager owns an append-only node arena plus the memo tables for every
// operation. Handles from one Manager are meaningless in another.
type Manager struct {
	nodes   []node
	nodeRev map[node]Handle

	unionMap    map[opKey]Handle
	intersectMap map[opKey]Handle
	extrudeMap  map[varKey]Handle
	removeMap   map[varKey]Handle
	requireMap  map[varKey]Handle
}

// NewManager returns an empty Manager, with handle 0 reserved for Null.
func NewManager() *Manager {
	return &Manager{
		nodes:        make([]node, 1), // index 0 is the sentinel
		nodeRev:      make(map[node]Handle),
		unionMap:     make(map[opKey]Handle),
		intersectMap: make(map[opKey]Handle),
		extrudeMap:   make(map[varKey]Handle),
		removeMap:    make(map[varKey]Handle),
		requireMap:   make(map[varKey]Handle),
	}
}

func (m *Manager) make(v uint32, avec, sans Handle) Handle {
	n := node{var_: v, avec: avec, sans: sans}
	if h, ok := m.nodeRev[n]; ok {
		return h
	}
	h := Handle(len(m.nodes))
	m.nodes = append(m.nodes, n)
	m.nodeRev[n] = h
	return h
}

// Atom returns the family containing exactly the single-element set {v}.
func (m *Manager) Atom(v uint32) Handle {
	return m.make(v, Null, Null)
}

// Cube returns the family containing exactly the one set s.
func (m *Manager) Cube(s *intset.Set) Handle {
	var out Handle
	for it := intset.NewIter(s); it.More(); it.Next() {
		out = m.Extrude(out, uint32(it.Current()))
	}
	return out
}

// SetToAtoms returns the family {{v} : v in s}, i.e. the union of one
// atom per element, as opposed to Cube's single set containing all of
// s's elements together.
func (m *Manager) SetToAtoms(s *intset.Set) Handle {
	var out Handle
	for it := intset.NewIter(s); it.More(); it.Next() {
		out = m.Unionize(out, m.Atom(uint32(it.Current())))
	}
	return out
}

// Node returns the (var, avec, sans) triple for a non-null handle.
// Panics if h is out of range: an out-of-range handle is a programmer
// bug, not a domain error.
func (m *Manager) Node(h Handle) (v uint32, avec, sans Handle) {
	if h == Null || int(h) >= len(m.nodes) {
		panic("bdt: handle out of range")
	}
	n := m.nodes[h]
	return n.var_, n.avec, n.sans
}

// Unionize returns the family A ∪ B.
func (m *Manager) Unionize(a, b Handle) Handle {
	if a == Null {
		return b
	}
	if b == Null {
		return a
	}
	if a == b {
		return a
	}

	lo, hi := a, b
	if lo > hi {
		lo, hi = hi, lo
	}
	key := opKey{lo, hi}
	if out, ok := m.unionMap[key]; ok {
		return out
	}

	an, bn := m.nodes[a], m.nodes[b]
	var out Handle
	switch {
	case an.var_ < bn.var_:
		out = m.make(an.var_, an.avec, m.Unionize(an.sans, b))
	case an.var_ > bn.var_:
		out = m.make(bn.var_, bn.avec, m.Unionize(bn.sans, a))
	default:
		out = m.make(an.var_, m.Unionize(an.avec, bn.avec), m.Unionize(an.sans, bn.sans))
	}

	m.unionMap[key] = out
	return out
}

// Intersect returns the family A ∩ B.
func (m *Manager) Intersect(a, b Handle) Handle {
	if a == Null || b == Null {
		return Null
	}
	if a == b {
		return a
	}

	lo, hi := a, b
	if lo > hi {
		lo, hi = hi, lo
	}
	key := opKey{lo, hi}
	if out, ok := m.intersectMap[key]; ok {
		return out
	}

	an, bn := m.nodes[a], m.nodes[b]
	var out Handle
	switch {
	case an.var_ < bn.var_:
		out = m.Intersect(an.sans, b)
	case an.var_ > bn.var_:
		out = m.Intersect(a, bn.sans)
	default:
		out = m.make(an.var_, m.Intersect(an.avec, bn.avec), m.Intersect(an.sans, bn.sans))
	}

	m.intersectMap[key] = out
	return out
}

// Extrude forces v into every set of the family, including sets that
// previously lacked it: the family the result describes is
// {S ∪ {v} : S in F}.
func (m *Manager) Extrude(key Handle, v uint32) Handle {
	if key == Null {
		return m.make(v, Null, Null)
	}

	vk := varKey{v, key}
	if out, ok := m.extrudeMap[vk]; ok {
		return out
	}

	n := m.nodes[key]
	var out Handle
	switch {
	case n.var_ < v:
		out = m.make(n.var_, m.Extrude(n.avec, v), m.Extrude(n.sans, v))
	case n.var_ > v:
		out = m.make(v, key, key)
	default:
		out = m.make(v, n.sans, n.sans)
	}

	m.extrudeMap[vk] = out
	return out
}

// Require keeps only the sets of the family that contain v.
func (m *Manager) Require(key Handle, v uint32) Handle {
	if key == Null {
		return Null
	}

	n := m.nodes[key]
	if n.var_ == v {
		return m.make(n.var_, n.avec, n.avec)
	}
	if n.var_ > v {
		return Null
	}

	vk := varKey{v, key}
	if out, ok := m.requireMap[vk]; ok {
		return out
	}

	avec := m.Require(n.avec, v)
	sans := m.Require(n.sans, v)

	var out Handle
	if avec == Null {
		out = sans
	} else {
		out = m.make(n.var_, avec, sans)
	}
	m.requireMap[vk] = out
	return out
}

// Remove drops v from every set of the family that contains it, and
// keeps every set that already lacked it (the family {S \ {v} : S in F}).
func (m *Manager) Remove(key Handle, v uint32) Handle {
	if key == Null {
		return Null
	}

	n := m.nodes[key]
	if n.var_ == v {
		return n.sans
	}
	if n.var_ > v {
		return key
	}

	vk := varKey{v, key}
	if out, ok := m.removeMap[vk]; ok {
		return out
	}

	avec := m.Remove(n.avec, v)
	sans := m.Remove(n.sans, v)
	out := m.make(n.var_, avec, sans)
	m.removeMap[vk] = out
	return out
}

// Contains reports whether s, as a set, is a member of the family key.
func (m *Manager) Contains(key Handle, s *intset.Set) bool {
	for it := intset.NewIter(s); it.More(); it.Next() {
		target := uint32(it.Current())
		for key != Null && m.nodes[key].var_ < target {
			key = m.nodes[key].sans
		}
		if key == Null || m.nodes[key].var_ > target {
			return false
		}
		key = m.nodes[key].avec
	}
	return true
}

// SubsetOf reports whether family a is a subset of family b.
func (m *Manager) SubsetOf(a, b Handle) bool {
	return m.Intersect(a, b) == a
}

// SupersetOf reports whether family a is a superset of family b.
func (m *Manager) SupersetOf(a, b Handle) bool {
	return m.Intersect(a, b) == b
}

// AntiCube returns the family {T ⊆ big : small ⊄ T} — every subset of
// big that fails to contain all of small. Walks big in ascending order,
// tracking a "perfect" cube equal to big so far and a "flawed" family
// that, on the first element also in small, pins down a set missing just
// that element, then on each later shared element unions in one more way
// to miss it.
func (m *Manager) AntiCube(big, small *intset.Set) Handle {
	var perfect, flawed Handle
	anyFlaws := false

	for p := intset.NewPairIter(big, small); p.More(); p.Next() {
		v := uint32(p.Current())
		switch {
		case p.AOnly():
			perfect = m.Extrude(perfect, v)
			flawed = m.Extrude(flawed, v)
		case p.Both():
			if anyFlaws {
				flawed = m.Unionize(perfect, m.Extrude(flawed, v))
			} else {
				anyFlaws = true
				flawed = perfect
			}
			perfect = m.Extrude(perfect, v)
		}
	}
	return flawed
}

// GetUsedVars returns the set of variables appearing along key's "sans"
// spine — every variable this family branches on.
func (m *Manager) GetUsedVars(key Handle) *intset.Set {
	out := intset.New()
	for key != Null {
		n := m.nodes[key]
		out.Insert(int(n.var_))
		key = n.sans
	}
	return out
}

// GetCubes enumerates the distinct sets described by key: their union is
// exactly key's family, and no cube is a subset of an earlier one.
func (m *Manager) GetCubes(key Handle) []*intset.Set {
	var out []*intset.Set
	m.getCubesInner(key, &out, intset.New(), Null, true)
	return out
}

func (m *Manager) getCubesInner(key Handle, out *[]*intset.Set, head *intset.Set, seen Handle, stoppable bool) {
	if key == Null {
		if stoppable {
			*out = append(*out, head.Clone())
		}
		return
	}

	if m.SubsetOf(key, seen) {
		return
	}

	n := m.nodes[key]
	if n.avec == n.sans {
		head.Insert(int(n.var_))
		m.getCubesInner(n.avec, out, head, m.Require(seen, n.var_), true)
		head.Remove(int(n.var_))
		return
	}

	head.Insert(int(n.var_))
	if !m.SubsetOf(m.Extrude(n.avec, n.var_), seen) {
		m.getCubesInner(n.avec, out, head, m.Require(seen, n.var_), true)
	}
	head.Remove(int(n.var_))

	seen = m.Unionize(seen, n.avec)
	m.getCubesInner(n.sans, out, head, seen, false)
}

// MapSizes returns diagnostic counts: node count, then the size of each
// memo table (union, intersect, extrude, remove, require), matching the
// original engine's get_map_sizes layout.
func (m *Manager) MapSizes() [6]int {
	return [6]int{
		len(m.nodes) - 1, // exclude the sentinel
		len(m.unionMap),
		len(m.intersectMap),
		len(m.extrudeMap),
		len(m.removeMap),
		len(m.requireMap),
	}
}
