// Package state tracks the play of a single deal: cards played so far,
// trick history, whose turn it is, and the running trick count for each
// side, with an exact LIFO undo.
package state

import (
	"fmt"
	"strings"

	"github.com/behrlich/bridge-solver/pkg/cards"
)

// showOutNone/showOutOne/showOutBoth are the three values a suit's
// show-out digit takes. A fourth encoding (both-then-reset) never
// occurs: once a side shows out of a suit it stays shown out for the
// rest of the deal.
const (
	showOutNone = 0
	showOutOne  = 1
	showOutBoth = 2
)

// State is the mutable play state of one deal: everything needed to
// resume, undo, or hash the position.
type State struct {
	played  cards.Hand
	history [52]cards.Card
	leader  [13]cards.Direction

	// showOutHistory[i] records showOut as it stood immediately before
	// history[i] was played, so Undo can restore it exactly.
	showOutHistory [52]uint16
	showOut        uint16

	numPlayed int
	nsTricks  int
	ewTricks  int
	toPlay    cards.Direction
	trump     cards.Strain
}

// New returns a State for a deal with the given trump strain, with the
// opening lead belonging to the seat to declarer's left.
func New(trump cards.Strain, declarer cards.Direction) *State {
	opener := declarer.Next()
	s := &State{trump: trump, toPlay: opener}
	s.leader[0] = opener
	return s
}

// Played returns the bitboard of cards played so far.
func (s *State) Played() cards.Hand {
	return s.played
}

// NewTrick reports whether the next play starts a fresh trick.
func (s *State) NewTrick() bool {
	return s.numPlayed%4 == 0
}

// SuitLed returns the suit led in the current trick. Panics if called
// when no trick is in progress.
func (s *State) SuitLed() cards.Suit {
	if s.numPlayed%4 == 0 {
		panic("state: SuitLed called with no trick in progress")
	}
	return s.history[s.numPlayed&^3].Suit
}

// ToPlay returns the seat on turn.
func (s *State) ToPlay() cards.Direction {
	return s.toPlay
}

// ToPlayNS reports whether declarer's side is on turn.
func (s *State) ToPlayNS() bool {
	return s.toPlay == cards.North || s.toPlay == cards.South
}

// ToPlayEW reports whether the defenders are on turn.
func (s *State) ToPlayEW() bool {
	return s.toPlay == cards.East || s.toPlay == cards.West
}

// NSTricks returns the number of tricks won by North/South so far.
func (s *State) NSTricks() int {
	return s.nsTricks
}

// EWTricks returns the number of tricks won by East/West so far.
func (s *State) EWTricks() int {
	return s.ewTricks
}

// TrickLeader returns the leader of the current (possibly in-progress)
// trick.
func (s *State) TrickLeader() cards.Direction {
	return s.leader[s.numPlayed/4]
}

// CurrentTrickNum returns the 0-based index of the current trick.
func (s *State) CurrentTrickNum() int {
	return s.numPlayed / 4
}

// TrickCard returns the i-th card played into the current trick, or the
// zero Card if it has not been played yet.
func (s *State) TrickCard(i int) cards.Card {
	tf := s.numPlayed &^ 3
	if tf+i >= s.numPlayed {
		return cards.Card{}
	}
	return s.history[tf+i]
}

// NumPlayed returns the total number of cards played so far.
func (s *State) NumPlayed() int {
	return s.numPlayed
}

// History returns the i-th card played overall. Panics if i is out of
// range.
func (s *State) History(i int) cards.Card {
	if i < 0 || i >= s.numPlayed {
		panic(fmt.Sprintf("state: History(%d) out of range [0,%d)", i, s.numPlayed))
	}
	return s.history[i]
}

// Trump returns the contract's trump strain.
func (s *State) Trump() cards.Strain {
	return s.trump
}

// ShowOutStatus packs, 2 bits per suit (clubs lowest), whether neither
// side (0), one side (1), or both sides (2) have shown out of that
// suit. Once a side shows out of a suit the corresponding bit stays set
// for the rest of the deal.
func (s *State) ShowOutStatus() uint16 {
	return s.showOut
}

func showOutDigit(status uint16, suit cards.Suit) uint16 {
	return (status >> (2 * uint(suit))) & 0x3
}

// Play appends card to the history, updates played cards and show-out
// tracking, and resolves the trick if this completes one.
func (s *State) Play(card cards.Card) {
	if s.numPlayed >= 52 {
		panic("state: Play called with all 52 cards already played")
	}
	s.showOutHistory[s.numPlayed] = s.showOut
	if s.numPlayed%4 != 0 && card.Suit != s.SuitLed() {
		s.showOut = setShowOut(s.showOut, card.Suit, s.toPlay)
	}

	s.history[s.numPlayed] = card
	s.played = s.played.Add(card)
	s.numPlayed++
	if s.played.Count() != s.numPlayed {
		panic("state: played bit count diverged from numPlayed")
	}

	if s.numPlayed%4 == 0 {
		winner := s.computeWinner()
		if winner == cards.East || winner == cards.West {
			s.ewTricks++
		} else {
			s.nsTricks++
		}
		n := s.numPlayed / 4
		if n < 0 || n >= 13 {
			panic("state: trick index out of range")
		}
		s.leader[n] = winner
		s.toPlay = winner
	} else {
		s.toPlay = s.toPlay.Next()
	}
}

// setShowOut escalates the show-out digit for suit: none -> one on the
// first show-out, one -> both on any subsequent show-out. Which side
// shows out is deliberately not tracked (matching the original engine's
// undifferentiated "one side" digit), so a second show-out always
// escalates rather than trying to tell whether it was the same side
// repeating.
func setShowOut(status uint16, suit cards.Suit, actor cards.Direction) uint16 {
	shift := 2 * uint(suit)
	digit := (status >> shift) & 0x3
	switch digit {
	case showOutBoth:
		return status
	case showOutNone:
		return status | (showOutOne << shift)
	default:
		return (status &^ (0x3 << shift)) | (showOutBoth << shift)
	}
}

// Undo reverses the most recent Play. LIFO only: callers must undo in
// exactly the reverse order plays were made.
func (s *State) Undo() {
	if s.numPlayed%4 == 0 {
		winner := s.leader[s.numPlayed/4]
		if winner == cards.East || winner == cards.West {
			s.ewTricks--
		} else {
			s.nsTricks--
		}
		s.toPlay = cards.Direction((int(s.leader[s.numPlayed/4-1]) + 3) % 4)
	} else {
		s.toPlay = cards.Direction((int(s.toPlay) + 3) % 4)
	}

	s.numPlayed--
	s.played = s.played.Remove(s.history[s.numPlayed])
	s.showOut = s.showOutHistory[s.numPlayed]
	if s.played.Count() != s.numPlayed {
		panic("state: played bit count diverged from numPlayed after undo")
	}
}

func (s *State) computeWinner() cards.Direction {
	if s.numPlayed%4 != 0 {
		panic("state: computeWinner called mid-trick")
	}
	n := s.numPlayed/4 - 1
	winningCard := s.history[s.numPlayed-4]
	winner := s.leader[n]

	for i := 0; i < 3; i++ {
		card := s.history[s.numPlayed-3+i]
		if card.Suit == winningCard.Suit {
			if card.Rank > winningCard.Rank {
				winningCard = card
				winner = cards.Direction((int(s.leader[n]) + i + 1) % 4)
			}
		} else if card.Suit == cards.Suit(s.trump) && s.trump != cards.StrainNotrump {
			winningCard = card
			winner = cards.Direction((int(s.leader[n]) + i + 1) % 4)
		}
	}
	return winner
}

// ToKey returns a 64-bit state key without canonicalization: MSB-to-LSB,
// 52 bits of played cards as four 13-bit suit masks, 7 bits of show-out
// status as a base-3 digit sum across suits, 2 bits of to-play, and 3
// bits of ew_tricks. ew_tricks (not ns_tricks) is included because the
// search prunes on the defenders' trick count; two states differing only
// in ns_tricks at the same total tricks played are equivalent.
func (s *State) ToKey() uint64 {
	var out uint64
	for suit := cards.Clubs; suit <= cards.Spades; suit++ {
		out <<= 13
		out |= uint64(cards.HandSuitBits(s.played, suit)>>2) & 0x1fff
	}

	soKey := uint64(0)
	for suit := cards.Clubs; suit <= cards.Spades; suit++ {
		soKey = soKey*3 + uint64(showOutDigit(s.showOut, suit)%3)
	}
	if soKey >= 81 {
		panic("state: show-out digit sum out of range")
	}
	out <<= 7
	out |= soKey

	out <<= 2
	out |= uint64(s.toPlay)

	if s.ewTricks < 0 || s.ewTricks >= 8 {
		panic("state: ew_tricks out of the 3-bit range expected by ToKey")
	}
	out <<= 3
	out |= uint64(s.ewTricks)

	return out
}

// String renders the play history as comma-separated cards within a
// trick and space-separated tricks, for diagnostics.
func (s *State) String() string {
	var b strings.Builder
	for i := 0; i < s.numPlayed; i++ {
		switch {
		case i == 0:
		case i%4 == 0:
			b.WriteByte(' ')
		default:
			b.WriteByte(',')
		}
		b.WriteString(s.history[i].String())
	}
	return b.String()
}
