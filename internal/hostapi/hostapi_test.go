package hostapi

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/behrlich/bridge-solver/pkg/cards"
	"github.com/behrlich/bridge-solver/pkg/ddoracle"
)

func twoDidDeal() DealSpec {
	return DealSpec{
		North: "AKQJ/AKQJ/AKQ/AK",
		South: "2345/2345/234/23",
		West:  "T98/T98/98/T9854",
		East:  "76/76/JT765/QJ76",
	}
}

// fixedOracle answers every deal in a batch identically, via solve,
// unless solve is nil, in which case it reports a single fixed score.
type fixedOracle struct {
	score int
	solve func(d ddoracle.Deal) []ddoracle.CardResult
}

func (o fixedOracle) SolveBatch(req ddoracle.BatchRequest) (ddoracle.BatchResult, error) {
	boards := make([]ddoracle.BoardSolution, len(req.Deals))
	for i, d := range req.Deals {
		if o.solve != nil {
			boards[i] = ddoracle.BoardSolution{Cards: o.solve(d)}
			continue
		}
		boards[i] = ddoracle.BoardSolution{Cards: []ddoracle.CardResult{{Score: o.score}}}
	}
	return ddoracle.BatchResult{Boards: boards}, nil
}

func TestSolveDealConvertsDefenseScoreToDeclarerTricks(t *testing.T) {
	tricks, err := SolveDeal(twoDidDeal(), "N", "N", fixedOracle{score: 5})
	require.NoError(t, err)
	require.Equal(t, 8, tricks) // leader is East (EW side): 13-5
}

func TestSolveDealRejectsBadHand(t *testing.T) {
	d := twoDidDeal()
	d.North = "AKQJ/AKQJ/AKQ/A" // 12 cards
	_, err := SolveDeal(d, "N", "N", fixedOracle{score: 5})
	require.Error(t, err)
}

func TestSolveManyDealsMatchesSolveDealPerEntry(t *testing.T) {
	deals := []DealSpec{twoDidDeal(), twoDidDeal()}
	tricks, err := SolveManyDeals(deals, []string{"N", "S"}, []string{"N", "N"}, fixedOracle{score: 5})
	require.NoError(t, err)
	require.Len(t, tricks, 2)
	require.Equal(t, 8, tricks[0])
}

func TestSolveManyDealsRejectsMismatchedLengths(t *testing.T) {
	_, err := SolveManyDeals([]DealSpec{twoDidDeal()}, nil, []string{"N"}, fixedOracle{score: 5})
	require.Error(t, err)
}

func TestSolveManyPlaysReportsOracleCards(t *testing.T) {
	d := twoDidDeal()
	q := PlayQuery{
		North: d.North, South: d.South, West: d.West, East: d.East,
		OnPlay: "N", Strain: "N", TrickSoFar: "",
	}
	oracle := fixedOracle{solve: func(ddoracle.Deal) []ddoracle.CardResult {
		return []ddoracle.CardResult{{Card: cards.Card{Suit: cards.Spades, Rank: cards.RankAce}, Score: 7}}
	}}

	out, err := SolveManyPlays([]PlayQuery{q}, oracle)
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Len(t, out[0], 1)
	require.Equal(t, "SA", out[0][0].Card)
	require.Equal(t, 7, out[0][0].Tricks)
}

func TestSolveManyPlaysFormatsWinRanksWhenRequested(t *testing.T) {
	d := twoDidDeal()
	q := PlayQuery{
		North: d.North, South: d.South, West: d.West, East: d.East,
		OnPlay: "N", Strain: "N", TrickSoFar: "", WantWinRanks: true,
	}
	oracle := fixedOracle{solve: func(ddoracle.Deal) []ddoracle.CardResult {
		return []ddoracle.CardResult{{
			Card:      cards.Card{Suit: cards.Spades, Rank: cards.RankAce},
			EqualRank: cards.CardBit(cards.Card{Suit: cards.Spades, Rank: cards.RankKing}),
			Score:     7,
		}}
	}}

	out, err := SolveManyPlays([]PlayQuery{q}, oracle)
	require.NoError(t, err)
	require.Equal(t, "SK", out[0][0].WinRanks)
}

func TestAnalyzeDealPlayMarksOracleCardGood(t *testing.T) {
	d := twoDidDeal()
	good := cards.Card{Suit: cards.Clubs, Rank: cards.RankQueen} // East, the opening leader against a North declarer
	oracle := fixedOracle{solve: func(ddoracle.Deal) []ddoracle.CardResult {
		return []ddoracle.CardResult{{Card: good, Score: 1}}
	}}

	history := cards.FormatCompressed([]cards.Card{good})
	out, err := AnalyzeDealPlay(d, "N", "N", history, oracle)
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.True(t, out[0].WasGood)
	require.False(t, out[0].Bad)
}

func TestAnalyzeDealPlayRejectsCardNotInHand(t *testing.T) {
	d := twoDidDeal()
	notHeld := cards.Card{Suit: cards.Spades, Rank: cards.RankAce} // North holds this, not the opening leader (East)
	history := cards.FormatCompressed([]cards.Card{notHeld})

	_, err := AnalyzeDealPlay(d, "N", "N", history, fixedOracle{score: 0})
	require.Error(t, err)
}

func TestPlayMenuSortsGroupsByTricksDescending(t *testing.T) {
	d := twoDidDeal()
	oracle := fixedOracle{solve: func(ddoracle.Deal) []ddoracle.CardResult {
		return []ddoracle.CardResult{
			{Card: cards.Card{Suit: cards.Clubs, Rank: cards.RankTwo}, Score: 3},
			{Card: cards.Card{Suit: cards.Spades, Rank: cards.RankAce}, Score: 9},
		}
	}}

	groups, err := PlayMenu(d, "N", "N", "", oracle)
	require.NoError(t, err)
	require.Len(t, groups, 2)
	require.Equal(t, 9, groups[0].Tricks)
	require.Equal(t, 3, groups[1].Tricks)
}

func TestNewProblemAndSolverWiring(t *testing.T) {
	p, err := NewProblem(twoDidDeal().North, twoDidDeal().South, "N", 1, []string{twoDidDeal().West})
	require.NoError(t, err)

	s := NewSolver(p, fixedOracle{score: 1})
	cubes, err := SolverEval(s, "N", "")
	require.NoError(t, err)
	require.NotEmpty(t, cubes)
}

func TestNewANSolverEvalAndFillTTAndPersistRoundTrip(t *testing.T) {
	p, err := NewProblem(twoDidDeal().North, twoDidDeal().South, "N", 1, []string{twoDidDeal().West})
	require.NoError(t, err)

	oracle := fixedOracle{solve: func(d ddoracle.Deal) []ddoracle.CardResult {
		hand := d.North
		it := cards.NewHandIter(hand)
		if !it.More() {
			return nil
		}
		return []ddoracle.CardResult{{Card: it.Current(), Score: 1}}
	}}

	s := NewANSolver(p, oracle)
	ok, err := ANSolverEval(s, "N", "", nil)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, ANSolverFillTT(s, "N", ""))

	path := t.TempDir() + "/tt.bin"
	require.NoError(t, ANSolverWriteToFile(s, path))
	defer os.Remove(path)

	loaded, err := ANSolverReadFromFile(path, oracle)
	require.NoError(t, err)
	require.Empty(t, loaded.Diff(s))
}
