// Package ansolver implements the all-or-none declarer-play search: a
// yes/no recursion answering whether every hypothesized layout in a did
// set lets declarer's side reach the target, pruned by a transposition
// table of (lower, upper) bound cubes keyed on a canonical state hash.
//
// This differs from pkg/solver in what question it answers (a single
// bool across all dids, not a BDT of which dids succeed) but shares the
// same recursive shape and the same transposition-table discipline.
package ansolver

import (
	"bytes"
	"fmt"
	"io"
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/behrlich/bridge-solver/internal/persist"
	"github.com/behrlich/bridge-solver/pkg/bdt"
	"github.com/behrlich/bridge-solver/pkg/cards"
	"github.com/behrlich/bridge-solver/pkg/ddcache"
	"github.com/behrlich/bridge-solver/pkg/ddoracle"
	"github.com/behrlich/bridge-solver/pkg/intset"
	"github.com/behrlich/bridge-solver/pkg/problem"
	"github.com/behrlich/bridge-solver/pkg/state"
	"github.com/behrlich/bridge-solver/pkg/sthash"
)

// Magic is the on-disk header identifier for a Solver dump.
const Magic uint32 = 0x0F136898

// TTMagic is the on-disk record identifier for the transposition-table
// payload within a Solver dump, framed separately from the header so
// it carries its own checksum like the Problem and BDT Manager records
// that precede it.
const TTMagic uint32 = 0x0F136899

// Stats are cumulative diagnostic counters for one Solver's lifetime.
type Stats struct {
	CacheCutoffs int
	CacheHits    int
	CacheMisses  int
	CacheSize    int
	DDSCalls     int
	NodeVisits   int
}

// Solver answers, for a Problem and a subset of its hypothesized
// layouts, whether declarer's side can reach target against every one
// of them simultaneously.
type Solver struct {
	p      *problem.Problem
	b      *bdt.Manager
	hasher *sthash.Hasher
	cache  *ddcache.Cache
	oracle ddoracle.Oracle

	allDids *intset.Set
	allCube bdt.Handle

	tt map[uint64]bdt.LUBDT

	stats Stats
}

// NewSolver returns a Solver for p, querying oracle for subproblem
// solutions as the search needs them.
func NewSolver(p *problem.Problem, oracle ddoracle.Oracle) *Solver {
	return &Solver{
		p:       p,
		b:       bdt.NewManager(),
		hasher:  sthash.NewHasher(p),
		cache:   ddcache.NewCache(p, oracle),
		oracle:  oracle,
		allDids: p.AllDids(),
		allCube: bdt.Null,
		tt:      make(map[uint64]bdt.LUBDT),
	}
}

// Problem returns the solver's fixed input.
func (s *Solver) Problem() *problem.Problem { return s.p }

// Stats returns the solver's cumulative counters.
func (s *Solver) Stats() Stats { return s.stats }

// GetStats reports the same counters as Stats, plus the transposition
// table's current size, keyed the way the host API surfaces them.
func (s *Solver) GetStats() map[string]int {
	return map[string]int{
		"cache_cutoffs": s.stats.CacheCutoffs,
		"cache_hits":    s.stats.CacheHits,
		"cache_misses":  s.stats.CacheMisses,
		"cache_size":    s.stats.CacheSize,
		"dds_calls":     s.stats.DDSCalls,
		"node_visits":   s.stats.NodeVisits,
		"tt_size":       len(s.tt),
	}
}

// cube lazily computes and memoizes the cube of every hypothesized did,
// mirroring the original's lazy set_to_cube(_all_dids) call on first use
// rather than computing it unconditionally at construction time.
func (s *Solver) cube() bdt.Handle {
	if s.allCube.IsNull() {
		s.allCube = s.b.Cube(s.allDids)
	}
	return s.allCube
}

// EvalHistory replays plays against every hypothesized layout, checks
// that target is still achievable and that every surviving did can
// still reach it, and if so evaluates from there. Returns false (with no
// panic) the moment either precondition fails, matching the original's
// defensive early-outs rather than treating them as programmer errors.
func (s *Solver) EvalHistory(declarer cards.Direction, plays []cards.Card) (bool, error) {
	return s.EvalHistoryDids(declarer, plays, s.p.AllDids())
}

// EvalHistoryDids is EvalHistory starting from a caller-supplied did set
// rather than every hypothesized layout.
func (s *Solver) EvalHistoryDids(declarer cards.Direction, plays []cards.Card, didsIn *intset.Set) (bool, error) {
	st, dids := ddoracle.LoadFromHistoryDids(s.p, declarer, plays, didsIn)
	if !ddoracle.IsTargetAchievable(s.p, st) {
		return false, nil
	}
	s.stats.DDSCalls++
	ok, err := ddoracle.AllCanWin(s.p, st, dids, s.oracle)
	if err != nil {
		return false, fmt.Errorf("ansolver: %w", err)
	}
	if !ok {
		return false, nil
	}
	return s.Eval(st, dids), nil
}

// Eval answers whether declarer's side can reach target from st against
// every did in dids, consulting and updating the transposition table on
// trick boundaries.
func (s *Solver) Eval(st *state.State, dids *intset.Set) bool {
	s.stats.NodeVisits++

	if st.NSTricks() >= s.p.Target {
		return true
	}
	if s.p.North.Count()-st.EWTricks() < s.p.Target {
		panic("ansolver: defenders already hold enough tricks to beat target; caller failed to prune")
	}

	newTrick := st.NewTrick()
	stateKey := s.hasher.Hash(st)

	if newTrick {
		if cached, ok := s.tt[stateKey]; ok {
			s.stats.CacheHits++
			if s.b.Contains(cached.Lower, dids) {
				s.stats.CacheCutoffs++
				return true
			}
			if !s.b.Contains(cached.Upper, dids) {
				s.stats.CacheCutoffs++
				return false
			}
		} else {
			s.stats.CacheMisses++
		}
	}

	var result bool
	if st.ToPlayEW() {
		result = s.doitEW(st, dids)
	} else {
		result = s.doitNS(st, dids)
	}

	if newTrick {
		if _, ok := s.tt[stateKey]; !ok {
			s.tt[stateKey] = bdt.LUBDT{Lower: s.b.SetToAtoms(dids), Upper: s.cube()}
			s.stats.CacheSize++
		}
		cur := s.tt[stateKey]
		if result {
			cur.Lower = s.b.Unionize(cur.Lower, s.b.Cube(dids))
		} else {
			cur.Upper = s.b.Intersect(cur.Upper, s.b.AntiCube(s.allDids, dids))
		}
		s.tt[stateKey] = cur
	}

	return result
}

// doitEW requires that every legal defensive card lead to a win; a card
// only one did can even play carries no information and is skipped.
func (s *Solver) doitEW(st *state.State, dids *intset.Set) bool {
	plays := ddoracle.FindUsablePlaysEW(s.p, st, dids)

	for _, card := range sortedUsableCards(plays) {
		subDids := plays[card]
		if subDids.Size() == 1 {
			continue
		}

		st.Play(card)
		result := s.Eval(st, subDids)
		st.Undo()

		if !result {
			return false
		}
	}
	return true
}

// doitNS requires only that some legal declarer-side card lead to a win.
func (s *Solver) doitNS(st *state.State, dids *intset.Set) bool {
	for _, card := range s.findUsablePlaysNS(st, dids) {
		st.Play(card)
		result := s.Eval(st, dids)
		st.Undo()

		if result {
			return true
		}
	}
	return false
}

// findUsablePlaysNS returns every card that wins its trick subproblem
// for every did in dids at once: the intersection, across dids, of each
// did's winning-card bitmask from the double-dummy cache.
func (s *Solver) findUsablePlaysNS(st *state.State, dids *intset.Set) []cards.Card {
	s.stats.DDSCalls++

	wins, err := s.cache.SolveMany(st, dids)
	if err != nil {
		panic(fmt.Sprintf("ansolver: findUsablePlaysNS: %v", err))
	}

	all := cards.AllCardsBits
	for it := intset.NewIter(dids); it.More(); it.Next() {
		all &= wins[it.Current()]
	}

	var out []cards.Card
	for hi := cards.NewHandIter(all); hi.More(); hi.Next() {
		out = append(out, hi.Current())
	}
	return out
}

// FillTT runs Eval along lines of play from the position plays reaches,
// populating the transposition table so a later Eval over the same lines
// of play hits cache rather than re-querying the oracle. It does not
// visit every reachable line: on N/S turns it follows only the cards
// findUsablePlaysNS returns, on E/W turns only the cards whose did subset
// is the largest (none when that subset has a single did), and it stops
// descending wherever Eval reports a loss.
func (s *Solver) FillTT(declarer cards.Direction, plays []cards.Card) error {
	st, dids := ddoracle.LoadFromHistory(s.p, declarer, plays)
	if !ddoracle.IsTargetAchievable(s.p, st) {
		return fmt.Errorf("ansolver: FillTT: target not achievable from this history")
	}
	s.stats.DDSCalls++
	ok, err := ddoracle.AllCanWin(s.p, st, dids, s.oracle)
	if err != nil {
		return fmt.Errorf("ansolver: %w", err)
	}
	if !ok {
		return fmt.Errorf("ansolver: FillTT: not every hypothesized layout can still reach target")
	}

	visited := make(map[uint64]bdt.Handle)
	s.fillTTInner(visited, st, dids)
	log.Debug().
		Int("dids", dids.Size()).
		Int("tt_size", len(s.tt)).
		Int("node_visits", s.stats.NodeVisits).
		Msg("ansolver: fill_tt complete")
	return nil
}

// fillTTInner is the recursive body of FillTT. visited is local to one
// FillTT call, distinct from the persistent s.tt: it only prevents this
// traversal from revisiting a (canonical state, dids-superset) pair it
// has already fully explored, and never itself prunes future Eval calls.
func (s *Solver) fillTTInner(visited map[uint64]bdt.Handle, st *state.State, dids *intset.Set) {
	if st.NewTrick() {
		key := s.hasher.Hash(st)
		if cube, ok := visited[key]; ok {
			if s.b.Contains(cube, dids) {
				return
			}
			visited[key] = s.b.Unionize(cube, s.b.Cube(dids))
		} else {
			visited[key] = s.b.Cube(dids)
		}
	}

	if !s.Eval(st, dids) {
		return
	}

	if st.ToPlayNS() {
		for _, card := range s.findUsablePlaysNS(st, dids) {
			st.Play(card)
			s.fillTTInner(visited, st, dids)
			st.Undo()
		}
		return
	}

	plays := ddoracle.FindUsablePlaysEW(s.p, st, dids)
	maxLen := 0
	for _, subDids := range plays {
		if subDids.Size() > maxLen {
			maxLen = subDids.Size()
		}
	}
	if maxLen <= 1 {
		return
	}

	for _, card := range sortedUsableCards(plays) {
		subDids := plays[card]
		if subDids.Size() != maxLen {
			continue
		}
		st.Play(card)
		s.fillTTInner(visited, st, subDids)
		st.Undo()
	}
}

// Diff reports every canonical state key present in other's
// transposition table but absent from s's, explained as strings for a
// caller to print or log, for comparing two solvers run over the same
// problem from different starting lines.
func (s *Solver) Diff(other *Solver) []string {
	var missing []uint64
	for key := range other.tt {
		if _, ok := s.tt[key]; !ok {
			missing = append(missing, key)
		}
	}
	sort.Slice(missing, func(i, j int) bool { return missing[i] < missing[j] })

	out := make([]string, len(missing))
	for i, key := range missing {
		out[i] = sthash.Explain(key)
	}
	return out
}

func sortedUsableCards(plays ddoracle.UsablePlays) []cards.Card {
	out := make([]cards.Card, 0, len(plays))
	for c := range plays {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

// WriteTo writes a Magic header followed by the solver's problem, BDT
// manager, and transposition table, each as its own framed record, so
// ReadSolverFrom can rebuild an equivalent solver without re-running the
// search that produced it.
func (s *Solver) WriteTo(w io.Writer) error {
	if err := persist.WriteUint32(w, Magic); err != nil {
		return fmt.Errorf("ansolver: write header: %w", err)
	}
	if err := s.p.WriteTo(w); err != nil {
		return fmt.Errorf("ansolver: write problem: %w", err)
	}
	if err := s.b.WriteTo(w); err != nil {
		return fmt.Errorf("ansolver: write bdt manager: %w", err)
	}

	var buf bytes.Buffer
	if err := persist.WriteUint32(&buf, uint32(len(s.tt))); err != nil {
		return err
	}
	for key, lu := range s.tt {
		if err := persist.WriteUint64(&buf, key); err != nil {
			return err
		}
		if err := persist.WriteUint32(&buf, uint32(lu.Lower)); err != nil {
			return err
		}
		if err := persist.WriteUint32(&buf, uint32(lu.Upper)); err != nil {
			return err
		}
	}
	if err := persist.WriteRecord(w, TTMagic, buf.Bytes()); err != nil {
		return fmt.Errorf("ansolver: write tt: %w", err)
	}
	return nil
}

// ReadSolverFrom reads a solver written by WriteTo, re-validating the
// embedded problem via problem.ReadFrom and rebuilding the BDT manager
// and transposition table against a fresh Manager tied to the result.
func ReadSolverFrom(r io.Reader, oracle ddoracle.Oracle) (*Solver, error) {
	magic, err := persist.ReadUint32(r)
	if err != nil {
		return nil, fmt.Errorf("ansolver: read header: %w", err)
	}
	if magic != Magic {
		return nil, fmt.Errorf("ansolver: bad magic %#x, want %#x", magic, Magic)
	}

	p, err := problem.ReadFrom(r)
	if err != nil {
		return nil, fmt.Errorf("ansolver: read problem: %w", err)
	}
	s := NewSolver(p, oracle)

	if err := bdt.ReadInto(r, s.b); err != nil {
		return nil, fmt.Errorf("ansolver: read bdt manager: %w", err)
	}

	payload, err := persist.ReadRecord(r, TTMagic)
	if err != nil {
		return nil, fmt.Errorf("ansolver: read tt: %w", err)
	}
	ttBuf := bytes.NewReader(payload)

	count, err := persist.ReadUint32(ttBuf)
	if err != nil {
		return nil, fmt.Errorf("ansolver: read tt count: %w", err)
	}
	for i := uint32(0); i < count; i++ {
		key, err := persist.ReadUint64(ttBuf)
		if err != nil {
			return nil, fmt.Errorf("ansolver: read tt key %d: %w", i, err)
		}
		lower, err := persist.ReadUint32(ttBuf)
		if err != nil {
			return nil, fmt.Errorf("ansolver: read tt lower %d: %w", i, err)
		}
		upper, err := persist.ReadUint32(ttBuf)
		if err != nil {
			return nil, fmt.Errorf("ansolver: read tt upper %d: %w", i, err)
		}
		s.tt[key] = bdt.LUBDT{Lower: bdt.Handle(lower), Upper: bdt.Handle(upper)}
	}

	return s, nil
}
