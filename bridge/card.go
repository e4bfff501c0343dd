package bridge

import (
	"fmt"
	"sort"
	"strings"
)

type Suit string

const (
	Clubs    Suit = "C"
	Diamonds Suit = "D"
	Hearts   Suit = "H"
	Spades   Suit = "S"
)

var Suits = []Suit{Clubs, Diamonds, Hearts, Spades}

// Display order used when sorting a hand: spades leftmost, clubs rightmost.
var suitDisplayOrder = map[Suit]int{
	Spades:   4,
	Hearts:   3,
	Diamonds: 2,
	Clubs:    1,
}

type Rank string

var Ranks = []Rank{"2", "3", "4", "5", "6", "7", "8", "9", "T", "J", "Q", "K", "A"}

var rankOrder = map[Rank]int{}

func init() {
	for i, r := range Ranks {
		rankOrder[r] = i + 2
	}
}

// Beats reports whether r outranks o. Ranks compare 2 < 3 < ... < T < J < Q < K < A.
func (r Rank) Beats(o Rank) bool {
	return rankOrder[r] > rankOrder[o]
}

// Card is an immutable suit/rank pair. The wire form is "<suit>-<rank>",
// e.g. "S-A" for the ace of spades.
type Card struct {
	Suit Suit
	Rank Rank
}

func NewCard(s string) (Card, error) {
	parts := strings.Split(s, "-")
	if len(parts) != 2 {
		return Card{}, fmt.Errorf("invalid card [%s]", s)
	}
	suit := Suit(parts[0])
	rank := Rank(parts[1])
	if suitDisplayOrder[suit] == 0 {
		return Card{}, fmt.Errorf("invalid card suit [%s]", s)
	}
	if rankOrder[rank] == 0 {
		return Card{}, fmt.Errorf("invalid card rank [%s]", s)
	}
	return Card{Suit: suit, Rank: rank}, nil
}

func (c Card) String() string {
	return string(c.Suit) + "-" + string(c.Rank)
}

func (c Card) MarshalJSON() ([]byte, error) {
	return []byte("\"" + c.String() + "\""), nil
}

func (c *Card) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), "\"")
	card, err := NewCard(s)
	if err != nil {
		return err
	}
	*c = card
	return nil
}

// SortHand orders cards the way they are fanned at the table:
// spades, hearts, diamonds, clubs, each suit low to high.
func SortHand(hand []Card) []Card {
	sorted := make([]Card, len(hand))
	copy(sorted, hand)
	sort.Slice(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Suit != b.Suit {
			return suitDisplayOrder[a.Suit] > suitDisplayOrder[b.Suit]
		}
		return rankOrder[a.Rank] < rankOrder[b.Rank]
	})
	return sorted
}

// HandContains reports whether the hand still holds the given card.
func HandContains(hand []Card, card Card) bool {
	for _, c := range hand {
		if c == card {
			return true
		}
	}
	return false
}

// HandHasSuit reports whether any card of the given suit remains in the hand.
func HandHasSuit(hand []Card, suit Suit) bool {
	for _, c := range hand {
		if c.Suit == suit {
			return true
		}
	}
	return false
}

// RemoveCard returns the hand without the given card.
func RemoveCard(hand []Card, card Card) []Card {
	remaining := make([]Card, 0, len(hand))
	for _, c := range hand {
		if c != card {
			remaining = append(remaining, c)
		}
	}
	return remaining
}
