// Package problem holds the immutable input to a declarer-play search:
// the fixed North/South hands, the trump strain, the trick target, and
// the set of hypothesized West hands (with East derived as whatever
// remains).
package problem

import (
	"bytes"
	"fmt"
	"io"

	"github.com/behrlich/bridge-solver/pkg/cards"
	"github.com/behrlich/bridge-solver/pkg/intset"
	"github.com/behrlich/bridge-solver/internal/persist"
)

// Magic is the on-disk record identifier for a Problem.
const Magic uint32 = 0x1F51991D

// Problem is the fixed input to a search: North/South are known
// exactly, West is hypothesized across Wests (one layout per deal id),
// and East is whatever cards neither North, South, nor that West holds.
type Problem struct {
	North  cards.Hand
	South  cards.Hand
	Trump  cards.Strain
	Target int
	Wests  []cards.Hand
	Easts  []cards.Hand
}

// New validates north/south/target/trump and each hypothesized west
// hand, deriving the matching east hand for each, and returns the
// resulting Problem. Returns an error describing the first bit
// corruption or out-of-range field found, rather than panicking: this is
// input validation, not a programmer invariant.
func New(north, south cards.Hand, trump cards.Strain, target int, wests []cards.Hand) (*Problem, error) {
	if north&cards.AllCardsBits != north || south&cards.AllCardsBits != south {
		return nil, fmt.Errorf("problem: north/south hand has bits outside the 52-card range")
	}
	if north&south != 0 {
		return nil, fmt.Errorf("problem: north and south hands overlap")
	}
	if north.Count() != 13 || south.Count() != 13 {
		return nil, fmt.Errorf("problem: north/south must each hold 13 cards")
	}
	if trump > cards.StrainNotrump {
		return nil, fmt.Errorf("problem: trump strain %d out of range", trump)
	}
	if target < 0 || target > 13 {
		return nil, fmt.Errorf("problem: target %d out of range [0,13]", target)
	}

	easts := make([]cards.Hand, len(wests))
	for i, west := range wests {
		if west&cards.AllCardsBits != west {
			return nil, fmt.Errorf("problem: west hand %d has bits outside the 52-card range", i)
		}
		if west&north != 0 || west&south != 0 {
			return nil, fmt.Errorf("problem: west hand %d overlaps north or south", i)
		}
		if west.Count() != 13 {
			return nil, fmt.Errorf("problem: west hand %d must hold 13 cards", i)
		}
		easts[i] = cards.AllCardsBits &^ (west | north | south)
	}

	wc := make([]cards.Hand, len(wests))
	copy(wc, wests)
	return &Problem{North: north, South: south, Trump: trump, Target: target, Wests: wc, Easts: easts}, nil
}

// NumDids returns the number of hypothesized layouts.
func (p *Problem) NumDids() int {
	return len(p.Wests)
}

// AllDids returns the full set {0, ..., NumDids()-1}.
func (p *Problem) AllDids() *intset.Set {
	return intset.FullSet(p.NumDids())
}

// WriteTo writes the problem as a framed persist record.
func (p *Problem) WriteTo(w io.Writer) error {
	var buf bytes.Buffer
	if err := persist.WriteUint64(&buf, uint64(p.North)); err != nil {
		return err
	}
	if err := persist.WriteUint64(&buf, uint64(p.South)); err != nil {
		return err
	}
	if err := persist.WriteInt32(&buf, int32(p.Trump)); err != nil {
		return err
	}
	if err := persist.WriteInt32(&buf, int32(p.Target)); err != nil {
		return err
	}
	if err := persist.WriteUint32(&buf, uint32(len(p.Wests))); err != nil {
		return err
	}
	for _, west := range p.Wests {
		if err := persist.WriteUint64(&buf, uint64(west)); err != nil {
			return err
		}
	}
	return persist.WriteRecord(w, Magic, buf.Bytes())
}

// ReadFrom reads a problem written by WriteTo, re-deriving and validating
// each East hand exactly as New does.
func ReadFrom(r io.Reader) (*Problem, error) {
	payload, err := persist.ReadRecord(r, Magic)
	if err != nil {
		return nil, fmt.Errorf("problem: %w", err)
	}
	buf := bytes.NewReader(payload)

	north, err := persist.ReadUint64(buf)
	if err != nil {
		return nil, fmt.Errorf("problem: %w", err)
	}
	south, err := persist.ReadUint64(buf)
	if err != nil {
		return nil, fmt.Errorf("problem: %w", err)
	}
	trump, err := persist.ReadInt32(buf)
	if err != nil {
		return nil, fmt.Errorf("problem: %w", err)
	}
	target, err := persist.ReadInt32(buf)
	if err != nil {
		return nil, fmt.Errorf("problem: %w", err)
	}
	count, err := persist.ReadUint32(buf)
	if err != nil {
		return nil, fmt.Errorf("problem: %w", err)
	}

	wests := make([]cards.Hand, count)
	for i := range wests {
		w, err := persist.ReadUint64(buf)
		if err != nil {
			return nil, fmt.Errorf("problem: %w", err)
		}
		wests[i] = cards.Hand(w)
	}

	return New(cards.Hand(north), cards.Hand(south), cards.Strain(trump), int(target), wests)
}
