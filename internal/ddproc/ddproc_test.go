package ddproc

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/behrlich/bridge-solver/pkg/cards"
	"github.com/behrlich/bridge-solver/pkg/ddoracle"
)

// echoScript reads one request line (discarded) and writes back a fixed
// one-board, one-card response, simulating a trivial external solver.
const echoScript = `read line; echo '{"Boards":[{"Cards":[{"Card":{"Suit":3,"Rank":14},"EqualRank":0,"Score":7}]}]}'`

func TestSolveBatchRoundTripsThroughSubprocess(t *testing.T) {
	o, err := Dial("/bin/sh", "-c", echoScript)
	require.NoError(t, err)
	defer o.Close()

	req := ddoracle.BatchRequest{Deals: []ddoracle.Deal{{
		North: 0, South: 0, West: 0, East: 0,
		Trump: cards.StrainNotrump, Leader: cards.North,
		Mode: ddoracle.ModeScore, Solutions: ddoracle.SolutionsFirst,
	}}}

	result, err := o.SolveBatch(req)
	require.NoError(t, err)
	require.Len(t, result.Boards, 1)
	require.Equal(t, 7, result.Boards[0].Cards[0].Score)
	require.Equal(t, cards.Card{Suit: cards.Spades, Rank: cards.RankAce}, result.Boards[0].Cards[0].Card)
}

func TestSolveBatchRejectsMismatchedBoardCount(t *testing.T) {
	o, err := Dial("/bin/sh", "-c", `read line; echo '{"Boards":[]}'`)
	require.NoError(t, err)
	defer o.Close()

	_, err = o.SolveBatch(ddoracle.BatchRequest{Deals: []ddoracle.Deal{{}}})
	require.Error(t, err)
}
