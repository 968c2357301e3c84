package cards

import (
	"testing"
)

func TestParseCard(t *testing.T) {
	tests := []struct {
		input    string
		wantSuit Suit
		wantRank Rank
		wantErr  bool
	}{
		{"SA", Spades, RankAce, false},
		{"HK", Hearts, RankKing, false},
		{"DQ", Diamonds, RankQueen, false},
		{"CJ", Clubs, RankJack, false},
		{"ST", Spades, RankTen, false},
		{"H9", Hearts, RankNine, false},
		{"C2", Clubs, RankTwo, false},
		{"", 0, 0, true},    // empty
		{"S", 0, 0, true},   // too short
		{"SAx", 0, 0, true}, // too long
		{"XA", 0, 0, true},  // invalid suit
		{"SX", 0, 0, true},  // invalid rank
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseCard(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseCard(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
				return
			}
			if !tt.wantErr && (got.Suit != tt.wantSuit || got.Rank != tt.wantRank) {
				t.Errorf("ParseCard(%q) = %v, want Suit=%v Rank=%v", tt.input, got, tt.wantSuit, tt.wantRank)
			}
		})
	}
}

func TestCardString(t *testing.T) {
	tests := []struct {
		card Card
		want string
	}{
		{Card{Spades, RankAce}, "SA"},
		{Card{Hearts, RankKing}, "HK"},
		{Card{Diamonds, RankTen}, "DT"},
		{Card{Clubs, RankTwo}, "C2"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.card.String(); got != tt.want {
				t.Errorf("Card.String() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCardLess(t *testing.T) {
	if !(Card{Clubs, RankTwo}).Less(Card{Clubs, RankThree}) {
		t.Errorf("expected C2 < C3")
	}
	if !(Card{Clubs, RankAce}).Less(Card{Diamonds, RankTwo}) {
		t.Errorf("expected suit to dominate rank in ordering")
	}
}

func TestParseCompressedRoundTrip(t *testing.T) {
	input := "SAHKDQCJ"
	cards, err := ParseCompressed(input)
	if err != nil {
		t.Fatalf("ParseCompressed(%q) error = %v", input, err)
	}
	if len(cards) != 4 {
		t.Fatalf("ParseCompressed(%q) returned %d cards, want 4", input, len(cards))
	}
	if got := FormatCompressed(cards); got != input {
		t.Errorf("round trip: got %q, want %q", got, input)
	}
}

func TestParseCompressedOddLength(t *testing.T) {
	if _, err := ParseCompressed("SAH"); err == nil {
		t.Errorf("expected error for odd-length compressed list")
	}
}

func TestDirectionPartnerNext(t *testing.T) {
	if North.Partner() != South {
		t.Errorf("North.Partner() = %v, want South", North.Partner())
	}
	if West.Next() != North {
		t.Errorf("West.Next() = %v, want North", West.Next())
	}
}

func TestParseDirection(t *testing.T) {
	for _, d := range []Direction{West, North, East, South} {
		got, err := ParseDirection(d.String())
		if err != nil {
			t.Fatalf("ParseDirection(%q) error = %v", d.String(), err)
		}
		if got != d {
			t.Errorf("ParseDirection(%q) = %v, want %v", d.String(), got, d)
		}
	}
	if _, err := ParseDirection("Q"); err == nil {
		t.Errorf("expected error for unknown direction")
	}
}

func TestParseStrain(t *testing.T) {
	tests := []struct {
		input string
		want  Strain
	}{
		{"C", StrainClubs},
		{"D", StrainDiamonds},
		{"H", StrainHearts},
		{"S", StrainSpades},
		{"N", StrainNotrump},
	}
	for _, tt := range tests {
		got, err := ParseStrain(tt.input)
		if err != nil {
			t.Fatalf("ParseStrain(%q) error = %v", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("ParseStrain(%q) = %v, want %v", tt.input, got, tt.want)
		}
		if got.String() != tt.input {
			t.Errorf("Strain(%v).String() = %q, want %q", got, got.String(), tt.input)
		}
	}
}
