package ddoracle

import (
	"github.com/rs/zerolog/log"

	"github.com/behrlich/bridge-solver/pkg/cards"
	"github.com/behrlich/bridge-solver/pkg/intset"
	"github.com/behrlich/bridge-solver/pkg/problem"
	"github.com/behrlich/bridge-solver/pkg/state"
)

// LoadFromHistory replays plays against every hypothesized layout in p,
// returning the resulting State and the subset of dids still consistent
// with every play. A did is dropped the moment a play requires a card
// that did's West/East (or the fixed North/South) hand doesn't hold.
func LoadFromHistory(p *problem.Problem, declarer cards.Direction, plays []cards.Card) (*state.State, *intset.Set) {
	return LoadFromHistoryDids(p, declarer, plays, p.AllDids())
}

// LoadFromHistoryDids is LoadFromHistory starting from a caller-supplied
// did set rather than the full set of hypothesized layouts.
func LoadFromHistoryDids(p *problem.Problem, declarer cards.Direction, plays []cards.Card, didsIn *intset.Set) (*state.State, *intset.Set) {
	st := state.New(p.Trump, declarer)
	dids := didsIn.Clone()

	for _, card := range plays {
		bit := cards.CardBit(card)

		switch {
		case st.ToPlayEW():
			good := intset.New()
			for it := intset.NewIter(dids); it.More(); it.Next() {
				did := it.Current()
				var hand cards.Hand
				if st.ToPlay() == cards.East {
					hand = p.Easts[did]
				} else {
					hand = p.Wests[did]
				}
				if hand&bit != 0 {
					good.Insert(did)
				} else {
					log.Warn().
						Int("did", did).
						Str("card", card.String()).
						Msg("dropping did as inconsistent with play history")
				}
			}
			dids = good
		case st.ToPlay() == cards.North:
			if p.North&bit == 0 {
				dids.RemoveAll()
			}
		case st.ToPlay() == cards.South:
			if p.South&bit == 0 {
				dids.RemoveAll()
			}
		}

		st.Play(card)
	}

	return st, dids
}

// UsablePlays maps each legal defensive card to the set of dids for
// which that specific card is actually held and legal to play next.
type UsablePlays map[cards.Card]*intset.Set

// FindUsablePlaysEW computes, for the defender on play, every distinct
// card that at least one did in dids can legally play next (following
// suit if the defender's hand in that did holds the suit led).
func FindUsablePlaysEW(p *problem.Problem, st *state.State, dids *intset.Set) UsablePlays {
	plays := make(UsablePlays)

	var followBits cards.Hand
	if !st.NewTrick() {
		followBits = cards.SuitBits(st.SuitLed())
	}
	isEast := st.ToPlay() == cards.East

	for it := intset.NewIter(dids); it.More(); it.Next() {
		did := it.Current()
		var hand cards.Hand
		if isEast {
			hand = p.Easts[did]
		} else {
			hand = p.Wests[did]
		}
		hand &^= st.Played()

		if hand&followBits != 0 {
			hand &= followBits
		}

		for hi := cards.NewHandIter(hand); hi.More(); hi.Next() {
			card := hi.Current()
			if plays[card] == nil {
				plays[card] = intset.New()
			}
			plays[card].Insert(did)
		}
	}
	return plays
}

// IsTargetAchievable reports whether the defense has not yet conceded
// so many tricks that declarer's side can no longer reach target.
func IsTargetAchievable(p *problem.Problem, st *state.State) bool {
	return p.North.Count()-st.EWTricks() >= p.Target
}

// AllCanWin asks the oracle, for every did in dids, whether declarer's
// side can still reach target from st onward: with N/S on play a did
// passes when its score against N/S's target is positive, with E/W on
// play when the defense's score against its own target is not. Returns
// false the moment any did fails.
func AllCanWin(p *problem.Problem, st *state.State, dids *intset.Set, oracle Oracle) (bool, error) {
	loader, err := NewLoader(p, st, dids, ModeScore, SolutionsFirst, oracle)
	if err != nil {
		return false, err
	}
	for loader.More() {
		for i := 0; i < loader.ChunkSize(); i++ {
			sol := loader.ChunkSolution(i)
			score := 0
			if len(sol.Cards) > 0 {
				score = sol.Cards[0].Score
			}
			if st.ToPlayNS() && score <= 0 {
				return false, nil
			}
			if st.ToPlayEW() && score > 0 {
				return false, nil
			}
		}
		if err := loader.Next(); err != nil {
			return false, err
		}
	}
	return true, nil
}
