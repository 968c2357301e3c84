// Package sthash computes the canonical transposition-table key for a
// state: the same 64-bit layout as State.ToKey, but with each suit's
// played-card mask replaced by a canonical form that treats defender
// small cards separated only by other played or defender cards as
// interchangeable.
package sthash

import (
	"fmt"

	"github.com/behrlich/bridge-solver/pkg/cards"
	"github.com/behrlich/bridge-solver/pkg/problem"
	"github.com/behrlich/bridge-solver/pkg/state"
)

const tblSize = 1 << 13

// owner classifies one of the 13 rank slots within a suit while building
// the canonical table.
type owner int

const (
	ownerNorth owner = iota
	ownerSouth
	ownerDefender
	ownerUsed
)

// Hasher precomputes, per suit, a lookup from raw played-bits to a
// canonical played-bits pattern, keyed to one Problem's North/South
// holdings.
type Hasher struct {
	problem *problem.Problem
	tbl     [4][tblSize]uint16
}

// NewHasher builds and precomputes the canonicalization table for p.
func NewHasher(p *problem.Problem) *Hasher {
	h := &Hasher{problem: p}
	for suit := 0; suit < 4; suit++ {
		for bits := 0; bits < tblSize; bits++ {
			h.tbl[suit][bits] = h.computeOne(cards.Suit(suit), uint16(bits)<<2)
		}
	}
	return h
}

// computeOne returns the canonical played-bits pattern for one suit given
// the raw played mask (in the suit's native bit-2..14 layout). Walks the
// 13 rank slots in slices bounded by defender-held ranks; within a slice,
// each side's unplayed cards are packed down onto that side's lowest
// originally-held ranks, and every slice boundary is marked unplayed in
// the canonical form.
func (h *Hasher) computeOne(suit cards.Suit, played uint16) uint16 {
	north := cards.HandSuitBits(h.problem.North, suit)
	south := cards.HandSuitBits(h.problem.South, suit)

	var owners [13]owner
	for i := 0; i < 13; i++ {
		bit := uint16(4 << i)
		switch {
		case bit&played != 0:
			owners[i] = ownerUsed
		case bit&north != 0:
			owners[i] = ownerNorth
		case bit&south != 0:
			owners[i] = ownerSouth
		default:
			owners[i] = ownerDefender
		}
	}

	var notUsed uint16
	start := 0
	for start < 13 {
		end := start
		for end < 13 && owners[end] != ownerDefender {
			end++
		}

		y, x := start, start
		for x < end {
			var findIn uint16
			switch owners[x] {
			case ownerNorth:
				findIn = north
			case ownerSouth:
				findIn = south
			case ownerUsed:
				x++
				continue
			default:
				panic("sthash: unreachable owner in slice")
			}
			for findIn&(4<<uint(y)) == 0 {
				if y > x {
					panic("sthash: slice packing overran its source card")
				}
				y++
			}
			notUsed |= 4 << uint(y)
			x++
			y++
		}

		if end < 13 {
			notUsed |= 4 << uint(end)
		}
		start = end + 1
	}

	return 0x7ffc ^ notUsed
}

// Hash returns the canonical 64-bit transposition-table key for st,
// identical in layout to State.ToKey but with each suit's played mask
// canonicalized via the precomputed table.
func (h *Hasher) Hash(st *state.State) uint64 {
	var out uint64
	soKey := 0
	for suit := 0; suit < 4; suit++ {
		out <<= 13
		suitPlayed := cards.HandSuitBits(st.Played(), cards.Suit(suit)) >> 2
		out |= uint64(h.tbl[suit][suitPlayed] >> 2)

		soKey *= 3
		soKey += int((st.ShowOutStatus() >> uint(2*suit)) % 4 % 3)
	}

	out <<= 7
	if soKey < 0 || soKey >= 81 {
		panic("sthash: show-out digit sum out of range")
	}
	out |= uint64(soKey)

	out <<= 2
	out |= uint64(st.ToPlay())

	out <<= 3
	ew := st.EWTricks()
	if ew < 0 || ew >= 8 {
		panic("sthash: ew_tricks out of range")
	}
	out |= uint64(ew)

	return out
}

// Explain decodes a key produced by Hash (or by State.ToKey, which shares
// the same layout) into a human-readable diagnostic string.
func Explain(key uint64) string {
	ewTricks := key & 0x7
	key >>= 3
	toPlay := key & 0x3
	key >>= 2
	soKey := key & 0x7f
	key >>= 7

	suits := make([]uint16, 4)
	for i := 3; i >= 0; i-- {
		suits[i] = uint16(key & 0x1fff)
		key >>= 13
	}

	digits := make([]int, 4)
	for i := 3; i >= 0; i-- {
		digits[i] = int(soKey % 3)
		soKey /= 3
	}

	return fmt.Sprintf(
		"played[C=%04x D=%04x H=%04x S=%04x] show_out=%v to_play=%s ew_tricks=%d",
		suits[0], suits[1], suits[2], suits[3], digits, cards.Direction(toPlay), ewTricks,
	)
}
