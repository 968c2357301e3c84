// Package ddcache memoizes double-dummy results per (state, current
// trick prefix, deal id), so the search never re-asks the oracle for a
// subproblem it has already solved along this line of play.
package ddcache

import (
	"fmt"

	"github.com/behrlich/bridge-solver/pkg/cards"
	"github.com/behrlich/bridge-solver/pkg/ddoracle"
	"github.com/behrlich/bridge-solver/pkg/intset"
	"github.com/behrlich/bridge-solver/pkg/problem"
	"github.com/behrlich/bridge-solver/pkg/state"
)

// Key identifies one cached double-dummy answer: the raw (non-canonical)
// state key, the partial trick packed 6 bits per card, and the deal id.
type Key struct {
	StateKey      uint64
	TrickCardBits uint32
	Did           int
}

// KeyForState builds the (state_key, trick_card_bits) portion of a Key
// for did from st. The three partial-trick cards are packed high to low,
// 2 bits of suit then 4 bits of rank each — an empty slot (rank 0)
// packs as zero, matching an as-yet-unplayed trick_card.
func KeyForState(st *state.State, did int) Key {
	var bits uint32
	for i := 0; i < 3; i++ {
		card := st.TrickCard(i)
		bits <<= 6
		bits |= (uint32(card.Suit) & 0x3) << 4
		bits |= uint32(card.Rank) & 0xf
	}
	return Key{StateKey: st.ToKey(), TrickCardBits: bits, Did: did}
}

// Stats reports cumulative cache performance, mirroring the original
// engine's diagnostic counters.
type Stats struct {
	Hits   int
	Misses int
}

// Cache memoizes, per Key, the bitmask of cards that win the current
// trick's subproblem for that did.
type Cache struct {
	problem *problem.Problem
	oracle  ddoracle.Oracle
	data    map[Key]cards.Hand
	stats   Stats
}

// NewCache returns an empty Cache backed by oracle for solving misses.
func NewCache(p *problem.Problem, oracle ddoracle.Oracle) *Cache {
	return &Cache{
		problem: p,
		oracle:  oracle,
		data:    make(map[Key]cards.Hand),
	}
}

// Stats returns the cache's cumulative hit/miss counts.
func (c *Cache) Stats() Stats {
	return c.stats
}

// SolveMany returns, for every did in dids, the bitmask of cards that
// win the subproblem at st for that did — served from cache where
// possible, solved via the oracle (solutions=all-maximal) for the rest.
func (c *Cache) SolveMany(st *state.State, dids *intset.Set) (map[int]cards.Hand, error) {
	out := make(map[int]cards.Hand, dids.Size())
	work := intset.New()

	for it := intset.NewIter(dids); it.More(); it.Next() {
		did := it.Current()
		key := KeyForState(st, did)
		if wins, ok := c.data[key]; ok {
			out[did] = wins
			c.stats.Hits++
		} else {
			work.Insert(did)
		}
	}

	if work.Empty() {
		return out, nil
	}

	loader, err := ddoracle.NewLoader(c.problem, st, work, ddoracle.ModeScore, ddoracle.SolutionsAllMax, c.oracle)
	if err != nil {
		return nil, fmt.Errorf("ddcache: %w", err)
	}

	for loader.More() {
		for i := 0; i < loader.ChunkSize(); i++ {
			did := loader.ChunkDid(i)
			sol := loader.ChunkSolution(i)

			var wins cards.Hand
			for _, cr := range sol.Cards {
				if cr.Score <= 0 {
					continue
				}
				wins |= cards.CardBit(cr.Card) | cr.EqualRank
			}

			key := KeyForState(st, did)
			out[did] = wins
			c.data[key] = wins
			c.stats.Misses++
		}
		if err := loader.Next(); err != nil {
			return nil, fmt.Errorf("ddcache: %w", err)
		}
	}

	return out, nil
}
