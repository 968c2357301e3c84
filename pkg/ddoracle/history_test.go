package ddoracle

import (
	"testing"

	"github.com/behrlich/bridge-solver/pkg/cards"
	"github.com/behrlich/bridge-solver/pkg/problem"
	"github.com/stretchr/testify/require"
)

func mustCard(t *testing.T, s string) cards.Card {
	t.Helper()
	c, err := cards.ParseCard(s)
	require.NoError(t, err)
	return c
}

func twoLayoutProblem(t *testing.T) *problem.Problem {
	t.Helper()
	north := mustHand(t, "AKQJ/AKQJ/AKQ/AK")
	south := mustHand(t, "2345/2345/234/23")
	westA := mustHand(t, "T98/T98/98/T9854") // holds club ten
	westB := mustHand(t, "T98/T98/98/98654") // does not hold club ten

	p, err := problem.New(north, south, cards.StrainNotrump, 7, []cards.Hand{westA, westB})
	require.NoError(t, err)
	return p
}

func TestLoadFromHistoryDropsInconsistentDid(t *testing.T) {
	p := twoLayoutProblem(t)

	// Opening leader (East) leads the club ten; westA holds it, so only
	// westB's matching east has it and the westA layout is dropped.
	_, dids := LoadFromHistory(p, cards.North, []cards.Card{mustCard(t, "CT")})
	require.Equal(t, 1, dids.Size())
}

func TestLoadFromHistoryKeepsConsistentDids(t *testing.T) {
	p := twoLayoutProblem(t)

	// The seven of spades is East's in both layouts, so East leading it
	// disqualifies neither.
	st, dids := LoadFromHistory(p, cards.North, []cards.Card{mustCard(t, "S7")})
	require.Equal(t, 2, dids.Size())
	require.Equal(t, 1, st.NumPlayed())
}

func TestFindUsablePlaysEWGroupsByCard(t *testing.T) {
	p := twoLayoutProblem(t)
	st, dids := LoadFromHistory(p, cards.North, nil)

	plays := FindUsablePlaysEW(p, st, dids)
	require.NotEmpty(t, plays)
	for _, ds := range plays {
		require.Greater(t, ds.Size(), 0)
	}
}

func TestIsTargetAchievableReflectsEwTricks(t *testing.T) {
	p := twoLayoutProblem(t)
	st, _ := LoadFromHistory(p, cards.North, nil)
	require.True(t, IsTargetAchievable(p, st))
}
