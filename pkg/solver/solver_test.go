package solver

import (
	"testing"

	"github.com/behrlich/bridge-solver/pkg/cards"
	"github.com/behrlich/bridge-solver/pkg/ddoracle"
	"github.com/behrlich/bridge-solver/pkg/intset"
	"github.com/behrlich/bridge-solver/pkg/problem"
	"github.com/behrlich/bridge-solver/pkg/state"
	"github.com/stretchr/testify/require"
)

func mustHand(t *testing.T, s string) cards.Hand {
	t.Helper()
	h, err := cards.ParseHand(s)
	require.NoError(t, err)
	return h
}

// panicOracle fails the test if the solver ever issues a query, for
// scenarios where the search should resolve without any lookahead.
type panicOracle struct{ t *testing.T }

func (o panicOracle) SolveBatch(ddoracle.BatchRequest) (ddoracle.BatchResult, error) {
	o.t.Fatal("solver: unexpected oracle call")
	return ddoracle.BatchResult{}, nil
}

// constWinOracle reports every card in the hand on lead as winning with
// a fixed score, for scenarios where the exact cutoff path doesn't
// matter, only that every did reports success.
type constWinOracle struct{ score int }

func (o constWinOracle) SolveBatch(req ddoracle.BatchRequest) (ddoracle.BatchResult, error) {
	boards := make([]ddoracle.BoardSolution, len(req.Deals))
	for i, d := range req.Deals {
		hand := onLeadHand(d)
		it := cards.NewHandIter(hand)
		if !it.More() {
			boards[i] = ddoracle.BoardSolution{}
			continue
		}
		card := it.Current()
		boards[i] = ddoracle.BoardSolution{
			Cards: []ddoracle.CardResult{{Card: card, Score: o.score}},
		}
	}
	return ddoracle.BatchResult{Boards: boards}, nil
}

// modeRecordingOracle behaves like constWinOracle but also records the
// Mode of every deal it was asked to solve.
type modeRecordingOracle struct {
	score int
	modes []ddoracle.Mode
}

func (o *modeRecordingOracle) SolveBatch(req ddoracle.BatchRequest) (ddoracle.BatchResult, error) {
	boards := make([]ddoracle.BoardSolution, len(req.Deals))
	for i, d := range req.Deals {
		o.modes = append(o.modes, d.Mode)
		hand := onLeadHand(d)
		it := cards.NewHandIter(hand)
		if !it.More() {
			boards[i] = ddoracle.BoardSolution{}
			continue
		}
		card := it.Current()
		boards[i] = ddoracle.BoardSolution{
			Cards: []ddoracle.CardResult{{Card: card, Score: o.score}},
		}
	}
	return ddoracle.BatchResult{Boards: boards}, nil
}

func numPlayed(d ddoracle.Deal) int {
	n := 0
	for _, c := range d.CurrentTrick {
		if c.Valid() {
			n++
		}
	}
	return n
}

func onLead(d ddoracle.Deal) cards.Direction {
	on := d.Leader
	for i := 0; i < numPlayed(d); i++ {
		on = on.Next()
	}
	return on
}

func onLeadHand(d ddoracle.Deal) cards.Hand {
	switch onLead(d) {
	case cards.North:
		return d.North
	case cards.South:
		return d.South
	case cards.East:
		return d.East
	default:
		return d.West
	}
}

func twoDidProblem(t *testing.T) *problem.Problem {
	t.Helper()
	north := mustHand(t, "AKQJ/AKQJ/AKQ/AK")
	south := mustHand(t, "2345/2345/234/23")
	westA := mustHand(t, "T98/T98/98/T9854")
	westB := mustHand(t, "T98/T98/98/98654")
	p, err := problem.New(north, south, cards.StrainNotrump, 1, []cards.Hand{westA, westB})
	require.NoError(t, err)
	return p
}

func TestEvalTrivialWinReturnsFullCubeWithoutOracleCall(t *testing.T) {
	p := twoDidProblem(t)
	p.Target = 0 // already met before any card is played
	s := NewSolver(p, panicOracle{t})

	st := state.New(p.Trump, cards.North)
	dids := p.AllDids()

	result := s.Eval(st, dids)
	require.Equal(t, s.BdtMgr().Cube(dids), result)
	require.True(t, s.BdtMgr().Contains(result, dids))
}

func TestEvalSingleDidResolvesWithoutOracleCall(t *testing.T) {
	p := twoDidProblem(t)
	s := NewSolver(p, panicOracle{t})

	st := state.New(p.Trump, cards.North)
	single := intset.New()
	single.Insert(0)

	result := s.Eval(st, single)
	require.Equal(t, s.BdtMgr().Cube(single), result)
}

func TestEvalResultIsSubsetOfDidsCube(t *testing.T) {
	p := twoDidProblem(t)
	s := NewSolver(p, constWinOracle{score: 1})

	st := state.New(p.Trump, cards.North)
	dids := p.AllDids()

	result := s.Eval(st, dids)
	require.True(t, s.BdtMgr().SubsetOf(result, s.BdtMgr().Cube(dids)))

	used := s.BdtMgr().GetUsedVars(result)
	require.True(t, used.SubsetOf(dids))
	require.Greater(t, s.Stats().DDSCalls, 0)
}

func TestEvalHistoryDropsInconsistentDidsBeforeSearching(t *testing.T) {
	p := twoDidProblem(t)
	s := NewSolver(p, constWinOracle{score: 1})

	result := s.EvalHistory(cards.North, nil)
	require.True(t, s.BdtMgr().SubsetOf(result, s.allCube))
}

func TestGetStatsIncludesCountersAndBdtMapSizes(t *testing.T) {
	p := twoDidProblem(t)
	s := NewSolver(p, constWinOracle{score: 1})

	st := state.New(p.Trump, cards.North)
	s.Eval(st, p.AllDids())

	out := s.GetStats()
	for _, key := range []string{
		"cache_hits", "cache_misses", "cache_size",
		"dds_calls", "dds_boards", "dds_repeats", "node_visits",
		"bdt_nodes", "bdt_union_map", "bdt_intersect_map",
		"bdt_extrude_map", "bdt_remove_map", "bdt_require_map",
	} {
		_, ok := out[key]
		require.True(t, ok, "missing stat key %q", key)
	}
	require.Equal(t, s.Stats().DDSCalls, out["dds_calls"])
}

func TestRecommendUsablePlayPrefersLargerSubsetThenCardOrder(t *testing.T) {
	small := intset.New()
	small.Insert(0)
	big := intset.New()
	big.Insert(0)
	big.Insert(1)

	plays := ddoracle.UsablePlays{
		{Suit: cards.Spades, Rank: cards.RankAce}: small,
		{Suit: cards.Clubs, Rank: cards.RankTwo}:  big,
	}
	require.Equal(t, cards.Card{Suit: cards.Clubs, Rank: cards.RankTwo}, recommendUsablePlay(plays))

	tied := ddoracle.UsablePlays{
		{Suit: cards.Spades, Rank: cards.RankAce}: big.Clone(),
		{Suit: cards.Clubs, Rank: cards.RankTwo}:  big.Clone(),
	}
	require.Equal(t, cards.Card{Suit: cards.Clubs, Rank: cards.RankTwo}, recommendUsablePlay(tied))
}

func TestTrackDDSCountsRepeatsAcrossCalls(t *testing.T) {
	p := twoDidProblem(t)
	s := NewSolver(p, constWinOracle{score: 1})
	st := state.New(p.Trump, cards.North)
	dids := p.AllDids()

	s.trackDDS(st, dids)
	require.Equal(t, 0, s.Stats().DDSRepeats)

	s.trackDDS(st, dids)
	require.Equal(t, dids.Size(), s.Stats().DDSRepeats)
}

func TestFindUsablePlaysNSRequestsCandidateMode(t *testing.T) {
	p := twoDidProblem(t)
	oracle := &modeRecordingOracle{score: 1}
	s := NewSolver(p, oracle)
	st := state.New(p.Trump, cards.North)

	s.findUsablePlaysNS(st, p.AllDids())

	require.NotEmpty(t, oracle.modes)
	for _, m := range oracle.modes {
		require.Equal(t, ddoracle.ModeCandidates, m)
	}
}

func TestExpandReduceRoundTripOnFullDids(t *testing.T) {
	p := twoDidProblem(t)
	s := NewSolver(p, panicOracle{t})
	dids := p.AllDids()

	x := s.BdtMgr().Cube(dids)
	// big == small: neither loop body should fire, x unchanged.
	require.Equal(t, x, expandBDT(s.BdtMgr(), x, dids, dids))
	require.Equal(t, x, reduceBDT(s.BdtMgr(), x, dids, dids))
	require.Equal(t, x, reduceRequireBDT(s.BdtMgr(), x, dids, dids))
}
