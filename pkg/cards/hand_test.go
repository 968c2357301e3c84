package cards

import "testing"

func TestParseHandRoundTrip(t *testing.T) {
	tests := []string{
		"AKQ2/JT98/765/32",
		"-/-/-/AKQJT98765432",
		"A/K/Q/JT98765432",
	}
	for _, in := range tests {
		t.Run(in, func(t *testing.T) {
			h, err := ParseHand(in)
			if err != nil {
				t.Fatalf("ParseHand(%q) error = %v", in, err)
			}
			if h.Count() != 13 {
				t.Errorf("Count() = %d, want 13", h.Count())
			}
			if got := h.String(); got != in {
				t.Errorf("round trip: got %q, want %q", got, in)
			}
		})
	}
}

func TestParseHandErrors(t *testing.T) {
	tests := []string{
		"AKQ2/JT98/765/3",            // too few cards
		"AKQ2/JT98/765/4322",         // too many cards
		"AKQ2/JT98/765",              // too few suits
		"AKQ2/JT98/765/432/KQJ",      // too many suits
		"AKQX/JT98/765/432",          // bad rank
	}
	for _, in := range tests {
		if _, err := ParseHand(in); err == nil {
			t.Errorf("ParseHand(%q): expected error", in)
		}
	}
}

func TestHandAddRemoveContains(t *testing.T) {
	var h Hand
	ace := Card{Spades, RankAce}
	if h.Contains(ace) {
		t.Fatalf("empty hand should not contain a card")
	}
	h = h.Add(ace)
	if !h.Contains(ace) {
		t.Errorf("expected hand to contain %v after Add", ace)
	}
	h = h.Remove(ace)
	if h.Contains(ace) {
		t.Errorf("expected hand not to contain %v after Remove", ace)
	}
}

func TestHandIterOrder(t *testing.T) {
	h, err := ParseHand("AKQJT987//65/432")
	if err != nil {
		t.Fatalf("ParseHand error = %v", err)
	}
	var got []Card
	for it := NewHandIter(h); it.More(); it.Next() {
		got = append(got, it.Current())
	}
	want := []Card{
		{Clubs, RankTwo}, {Clubs, RankThree}, {Clubs, RankFour},
		{Diamonds, RankFive}, {Diamonds, RankSix},
		{Spades, RankSeven}, {Spades, RankEight}, {Spades, RankNine},
		{Spades, RankTen}, {Spades, RankJack}, {Spades, RankQueen},
		{Spades, RankKing}, {Spades, RankAce},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d cards, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("card %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestSuitBitsAndHandSuitBits(t *testing.T) {
	h, err := ParseHand("AKQJT987//65/432")
	if err != nil {
		t.Fatalf("ParseHand error = %v", err)
	}
	clubsLane := HandSuitBits(h, Clubs)
	if clubsLane&(1<<uint(RankTwo)) == 0 {
		t.Errorf("expected clubs lane to contain the deuce")
	}
	full := SuitBits(Clubs)
	if full != Hand(0x7ffc) {
		t.Errorf("SuitBits(Clubs) = %#x, want 0x7ffc", uint64(full))
	}
}

func TestBitSortSwap(t *testing.T) {
	lo := Hand(0x7ffc) // every club
	hi := Hand(0)

	before := lo
	BitSortSwap(&lo, &hi)
	if lo != before || hi != 0 {
		t.Errorf("swap against an empty hand should be a no-op: lo=%#x hi=%#x", uint64(lo), uint64(hi))
	}
}

func TestAllCardsBitsCount(t *testing.T) {
	if AllCardsBits.Count() != 52 {
		t.Errorf("AllCardsBits.Count() = %d, want 52", AllCardsBits.Count())
	}
}
