// Package solver implements the existential declarer-play search: an
// alpha-beta-style recursion over hypothesized layouts whose result is a
// BDT describing which subsets of those layouts are jointly solvable
// for declarer's side, pruned by a transposition table keyed on a
// canonical state hash.
package solver

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/behrlich/bridge-solver/pkg/bdt"
	"github.com/behrlich/bridge-solver/pkg/cards"
	"github.com/behrlich/bridge-solver/pkg/ddcache"
	"github.com/behrlich/bridge-solver/pkg/ddoracle"
	"github.com/behrlich/bridge-solver/pkg/intset"
	"github.com/behrlich/bridge-solver/pkg/problem"
	"github.com/behrlich/bridge-solver/pkg/state"
	"github.com/behrlich/bridge-solver/pkg/sthash"
)

// Stats are cumulative diagnostic counters for one Solver's lifetime.
// CacheHits/CacheMisses/CacheSize describe the transposition table;
// DDSCalls/DDSBoards describe oracle traffic; DDSRepeats counts
// subproblems queried more than once (a canonicalization collision, or
// a genuine re-derivation along a different line of play);
// NodeVisits counts recursive doit calls.
type Stats struct {
	CacheHits   int
	CacheMisses int
	CacheSize   int
	DDSCalls    int
	DDSBoards   int
	DDSRepeats  int
	NodeVisits  int
}

// Solver holds one Problem's fixed search state: the BDT manager, the
// transposition table, and the oracle used to resolve subproblems once
// dids narrow down to where lookahead is actually required.
type Solver struct {
	p      *problem.Problem
	b      *bdt.Manager
	oracle ddoracle.Oracle
	hasher *sthash.Hasher

	allDids *intset.Set
	allCube bdt.Handle

	tt      map[uint64]bdt.LUBDT
	tracker map[ddcache.Key]struct{}

	stats Stats
}

// NewSolver returns a Solver for p, ready to answer Eval/EvalHistory
// queries against oracle.
func NewSolver(p *problem.Problem, oracle ddoracle.Oracle) *Solver {
	b := bdt.NewManager()
	allDids := p.AllDids()
	return &Solver{
		p:       p,
		b:       b,
		oracle:  oracle,
		hasher:  sthash.NewHasher(p),
		allDids: allDids,
		allCube: b.Cube(allDids),
		tt:      make(map[uint64]bdt.LUBDT),
		tracker: make(map[ddcache.Key]struct{}),
	}
}

// BdtMgr returns the Manager backing every BDT handle this Solver
// produces or consumes.
func (s *Solver) BdtMgr() *bdt.Manager { return s.b }

// Problem returns the search input.
func (s *Solver) Problem() *problem.Problem { return s.p }

// CountEW returns the number of hypothesized East/West layouts.
func (s *Solver) CountEW() int { return s.p.NumDids() }

// West returns the i-th hypothesized West hand.
func (s *Solver) West(i int) cards.Hand { return s.p.Wests[i] }

// East returns the i-th hypothesized East hand.
func (s *Solver) East(i int) cards.Hand { return s.p.Easts[i] }

// North returns declarer's side's fixed North hand.
func (s *Solver) North() cards.Hand { return s.p.North }

// South returns declarer's side's fixed South hand.
func (s *Solver) South() cards.Hand { return s.p.South }

// Trump returns the contract's trump strain.
func (s *Solver) Trump() cards.Strain { return s.p.Trump }

// Target returns the trick target declarer's side must reach.
func (s *Solver) Target() int { return s.p.Target }

// Stats returns a snapshot of the solver's cumulative counters.
func (s *Solver) Stats() Stats { return s.stats }

// GetStats returns the counters as a string-keyed map, matching the
// original engine's diagnostic dump, with the BDT manager's memo table
// sizes appended.
func (s *Solver) GetStats() map[string]int {
	out := map[string]int{
		"cache_hits":   s.stats.CacheHits,
		"cache_misses": s.stats.CacheMisses,
		"cache_size":   s.stats.CacheSize,
		"dds_calls":    s.stats.DDSCalls,
		"dds_boards":   s.stats.DDSBoards,
		"dds_repeats":  s.stats.DDSRepeats,
		"node_visits":  s.stats.NodeVisits,
	}
	sizes := s.b.MapSizes()
	out["bdt_nodes"] = sizes[0]
	out["bdt_union_map"] = sizes[1]
	out["bdt_intersect_map"] = sizes[2]
	out["bdt_extrude_map"] = sizes[3]
	out["bdt_remove_map"] = sizes[4]
	out["bdt_require_map"] = sizes[5]
	return out
}

// EvalHistory replays declarer's opening lead and every play so far
// against each hypothesized layout, drops any did a play turns out to
// be inconsistent with, filters to dids that can still reach target
// from here, and returns the BDT of jointly-solvable did-subsets.
func (s *Solver) EvalHistory(declarer cards.Direction, playsSoFar []cards.Card) bdt.Handle {
	st, dids := ddoracle.LoadFromHistory(s.p, declarer, playsSoFar)
	s.filterToWinnable(st, dids)
	result := s.Eval(st, dids)
	log.Debug().
		Int("dids", dids.Size()).
		Int("node_visits", s.stats.NodeVisits).
		Int("dds_calls", s.stats.DDSCalls).
		Msg("solver: eval complete")
	return result
}

// filterToWinnable drops any did in dids that cannot reach the current
// target from st, per this search's invariant that every did entering
// doit already has a winning line.
func (s *Solver) filterToWinnable(st *state.State, dids *intset.Set) {
	s.trackDDS(st, dids)
	loader, err := ddoracle.NewLoader(s.p, st, dids, ddoracle.ModeScore, ddoracle.SolutionsFirst, s.oracle)
	if err != nil {
		panic(fmt.Sprintf("solver: filterToWinnable: %v", err))
	}
	s.stats.DDSCalls++
	s.stats.DDSBoards += dids.Size()

	for loader.More() {
		for i := 0; i < loader.ChunkSize(); i++ {
			sol := loader.ChunkSolution(i)
			score := 0
			if len(sol.Cards) > 0 {
				score = sol.Cards[0].Score
			}
			did := loader.ChunkDid(i)
			if st.ToPlayNS() && score <= 0 {
				dids.Remove(did)
			}
			if st.ToPlayEW() && score > 0 {
				dids.Remove(did)
			}
		}
		if err := loader.Next(); err != nil {
			panic(fmt.Sprintf("solver: filterToWinnable: %v", err))
		}
	}
}

// Eval returns the BDT of did-subsets jointly solvable for declarer's
// side from st, restricted to dids.
func (s *Solver) Eval(st *state.State, dids *intset.Set) bdt.Handle {
	searchBounds := bdt.LUBDT{Lower: s.b.SetToAtoms(dids), Upper: s.b.Cube(dids)}
	result := s.doit(st, dids, searchBounds)
	return s.b.Intersect(searchBounds.Upper, s.b.Unionize(result.Lower, searchBounds.Lower))
}

// doit is the recursive search core. search_bounds narrows as this
// branch's siblings are explored (an alpha-beta window); the returned
// LUBDT is this node's own bound, independent of the caller's window,
// and is what gets cached in the transposition table.
func (s *Solver) doit(st *state.State, dids *intset.Set, searchBounds bdt.LUBDT) bdt.LUBDT {
	s.stats.NodeVisits++

	if st.NSTricks() >= s.p.Target {
		cube := s.b.Cube(dids)
		return bdt.LUBDT{Lower: cube, Upper: cube}
	}
	if s.p.North.Count()-st.EWTricks() < s.p.Target {
		panic("solver: defenders already hold enough tricks to beat target; caller failed to prune")
	}

	nodeBounds := bdt.LUBDT{Lower: bdt.Null, Upper: s.allCube}
	newTrick := st.NewTrick()
	var stateKey uint64

	if newTrick {
		stateKey = s.hasher.Hash(st)
		if cached, ok := s.tt[stateKey]; ok {
			nodeBounds = cached
			s.stats.CacheHits++
		} else {
			s.stats.CacheMisses++
		}
	}

	nodeDids := s.b.GetUsedVars(nodeBounds.Lower)
	for p := intset.NewPairIter(dids, nodeDids); p.More(); p.Next() {
		if p.AOnly() {
			v := uint32(p.Current())
			nodeBounds.Lower = s.b.Unionize(nodeBounds.Lower, s.b.Atom(v))
			nodeBounds.Upper = s.b.Extrude(nodeBounds.Upper, v)
		}
	}

	searchBounds.Lower = s.b.Unionize(searchBounds.Lower, nodeBounds.Lower)
	searchBounds.Upper = s.b.Intersect(searchBounds.Upper, nodeBounds.Upper)
	if s.b.SubsetOf(searchBounds.Upper, searchBounds.Lower) {
		return nodeBounds
	}

	var out bdt.LUBDT
	if st.ToPlayEW() {
		out = s.doitEW(st, dids, searchBounds, nodeBounds)
	} else {
		out = s.doitNS(st, dids, searchBounds, nodeBounds)
	}

	if newTrick {
		if _, ok := s.tt[stateKey]; !ok {
			s.stats.CacheSize++
		}
		s.tt[stateKey] = out
	}
	return out
}

// doitEW explores the defenders' usable plays. Any card only one did can
// hold is skipped: playing it reveals nothing, since the search already
// knows which layout it belongs to.
func (s *Solver) doitEW(st *state.State, dids *intset.Set, searchBounds, nodeBounds bdt.LUBDT) bdt.LUBDT {
	plays := ddoracle.FindUsablePlaysEW(s.p, st, dids)
	cumLower := nodeBounds.Upper

	for _, card := range sortedUsableCards(plays) {
		subDids := plays[card]
		if subDids.Size() == 1 {
			continue
		}

		subLower := reduceRequireBDT(s.b, searchBounds.Lower, dids, subDids)
		subUpper := reduceBDT(s.b, searchBounds.Upper, dids, subDids)
		subBounds := bdt.LUBDT{Lower: subLower, Upper: subUpper}

		st.Play(card)
		result := s.doit(st, subDids, subBounds)
		st.Undo()

		searchBounds.Upper = s.b.Intersect(searchBounds.Upper, expandBDT(s.b, result.Upper, dids, subDids))
		nodeBounds.Upper = s.b.Intersect(nodeBounds.Upper, expandBDT(s.b, result.Upper, s.allDids, subDids))
		cumLower = s.b.Intersect(cumLower, expandBDT(s.b, result.Upper, s.allDids, subDids))

		if s.b.SubsetOf(searchBounds.Upper, searchBounds.Lower) {
			return nodeBounds
		}
	}

	nodeBounds.Lower = s.b.Unionize(nodeBounds.Lower, cumLower)
	return nodeBounds
}

// doitNS explores declarer's side's usable plays, trying the play with
// the most dids still undecided first.
func (s *Solver) doitNS(st *state.State, dids *intset.Set, searchBounds, nodeBounds bdt.LUBDT) bdt.LUBDT {
	usablePlays := s.findUsablePlaysNS(st, dids)
	cumUpper := nodeBounds.Lower

	for len(usablePlays) > 0 {
		card := recommendUsablePlay(usablePlays)
		subDids := usablePlays[card]
		delete(usablePlays, card)

		if subDids.Size() == 0 {
			panic("solver: usable play reported with no consistent dids")
		}
		if subDids.Size() == 1 {
			continue
		}

		subLower := reduceBDT(s.b, searchBounds.Lower, dids, subDids)
		subUpper := reduceBDT(s.b, searchBounds.Upper, dids, subDids)
		subBounds := bdt.LUBDT{Lower: subLower, Upper: subUpper}

		st.Play(card)
		result := s.doit(st, subDids, subBounds)
		st.Undo()

		result.Lower = reduceBDT(s.b, result.Lower, dids, subDids)
		result.Upper = reduceBDT(s.b, result.Upper, dids, subDids)

		searchBounds.Lower = s.b.Unionize(searchBounds.Lower, result.Lower)
		nodeBounds.Lower = s.b.Unionize(nodeBounds.Lower, result.Lower)
		cumUpper = s.b.Unionize(cumUpper, result.Upper)

		if s.b.SubsetOf(searchBounds.Upper, searchBounds.Lower) {
			return nodeBounds
		}
	}

	nodeBounds.Upper = s.b.Intersect(nodeBounds.Upper, cumUpper)
	return nodeBounds
}

// findUsablePlaysNS asks the oracle which of declarer's side's legal
// cards preserve the best reachable score, grouping dids by which cards
// achieve it for them.
func (s *Solver) findUsablePlaysNS(st *state.State, dids *intset.Set) ddoracle.UsablePlays {
	out := make(ddoracle.UsablePlays)

	s.trackDDS(st, dids)
	loader, err := ddoracle.NewLoader(s.p, st, dids, ddoracle.ModeCandidates, ddoracle.SolutionsAllMax, s.oracle)
	if err != nil {
		panic(fmt.Sprintf("solver: findUsablePlaysNS: %v", err))
	}
	s.stats.DDSCalls++
	s.stats.DDSBoards += dids.Size()

	for loader.More() {
		for i := 0; i < loader.ChunkSize(); i++ {
			sol := loader.ChunkSolution(i)
			did := loader.ChunkDid(i)
			for _, cr := range sol.Cards {
				if cr.Score <= 0 {
					continue
				}
				addUsable(out, cr.Card, did)
				for hi := cards.NewHandIter(cr.EqualRank); hi.More(); hi.Next() {
					addUsable(out, hi.Current(), did)
				}
			}
		}
		if err := loader.Next(); err != nil {
			panic(fmt.Sprintf("solver: findUsablePlaysNS: %v", err))
		}
	}
	return out
}

func addUsable(plays ddoracle.UsablePlays, card cards.Card, did int) {
	if plays[card] == nil {
		plays[card] = intset.New()
	}
	plays[card].Insert(did)
}

// trackDDS records, for each did in dids, the (state, did) pair this
// oracle query covers, counting repeats so canonicalization collisions
// and re-derivations along other lines of play are both observable via
// Stats.DDSRepeats.
func (s *Solver) trackDDS(st *state.State, dids *intset.Set) {
	for it := intset.NewIter(dids); it.More(); it.Next() {
		key := ddcache.KeyForState(st, it.Current())
		if _, ok := s.tracker[key]; ok {
			s.stats.DDSRepeats++
		} else {
			s.tracker[key] = struct{}{}
		}
	}
}

// sortedUsableCards returns plays' keys in a fixed (suit, rank)
// order, so iteration order never affects which cutoff triggers first.
func sortedUsableCards(plays ddoracle.UsablePlays) []cards.Card {
	out := make([]cards.Card, 0, len(plays))
	for c := range plays {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

// recommendUsablePlay picks the play whose did-subset is largest
// (ties broken by card order), on the principle that trying the most
// informative play first narrows the search window fastest.
func recommendUsablePlay(plays ddoracle.UsablePlays) cards.Card {
	ordered := sortedUsableCards(plays)
	best := ordered[0]
	for _, c := range ordered[1:] {
		if plays[c].Size() > plays[best].Size() {
			best = c
		}
	}
	return best
}

// expandBDT lifts x, a family over small's variables, up to big's
// variable space by forcing every did in big-but-not-small into every
// set of the family.
func expandBDT(b *bdt.Manager, x bdt.Handle, big, small *intset.Set) bdt.Handle {
	for p := intset.NewPairIter(big, small); p.More(); p.Next() {
		if p.AOnly() {
			x = b.Extrude(x, uint32(p.Current()))
		}
	}
	return x
}

// reduceBDT drops every did in big-but-not-small from x's variable
// space, keeping whichever branch each such node would take regardless.
func reduceBDT(b *bdt.Manager, x bdt.Handle, big, small *intset.Set) bdt.Handle {
	for p := intset.NewPairIter(big, small); p.More(); p.Next() {
		if p.AOnly() {
			x = b.Remove(x, uint32(p.Current()))
		}
	}
	return x
}

// reduceRequireBDT restricts x to sets containing every did in
// big-but-not-small, then drops those dids from the variable space —
// used when a dropped did must have held the card just played, not
// merely be compatible with either branch.
func reduceRequireBDT(b *bdt.Manager, x bdt.Handle, big, small *intset.Set) bdt.Handle {
	for p := intset.NewPairIter(big, small); p.More(); p.Next() {
		if p.AOnly() {
			v := uint32(p.Current())
			x = b.Require(x, v)
			x = b.Remove(x, v)
		}
	}
	return x
}
