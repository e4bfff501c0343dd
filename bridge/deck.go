package bridge

import (
	crypto_rand "crypto/rand"
	"encoding/binary"
	"math/rand"
)

const HandSize = 13

var fullDeck []Card

func init() {
	fullDeck = initializeFullCards()
}

type Deck struct {
	cards   []Card
	randGen *rand.Rand
}

func newSeed() rand.Source {
	var b [8]byte
	_, err := crypto_rand.Read(b[:])
	if err != nil {
		panic("cannot seed math/rand package with cryptographically secure random number generator")
	}
	return rand.NewSource(int64(binary.LittleEndian.Uint64(b[:])))
}

// NewDeck returns a shuffled 52-card deck. Pass a source for deterministic
// shuffles in tests; a nil source is seeded from crypto/rand.
func NewDeck(source rand.Source) *Deck {
	if source == nil {
		source = newSeed()
	}
	deck := &Deck{randGen: rand.New(source)}
	deck.Shuffle()
	return deck
}

func (deck *Deck) Shuffle() *Deck {
	deck.cards = make([]Card, len(fullDeck))
	copy(deck.cards, fullDeck)

	for i := range deck.cards {
		loc := deck.randGen.Intn(len(deck.cards))
		deck.cards[i], deck.cards[loc] = deck.cards[loc], deck.cards[i]
	}
	return deck
}

// Deal partitions the deck into four 13-card hands keyed by seat.
func (deck *Deck) Deal() map[Seat][]Card {
	hands := make(map[Seat][]Card)
	for i, seat := range Seats {
		hand := make([]Card, HandSize)
		copy(hand, deck.cards[i*HandSize:(i+1)*HandSize])
		hands[seat] = hand
	}
	return hands
}

func initializeFullCards() []Card {
	var cards []Card
	for _, suit := range Suits {
		for _, rank := range Ranks {
			cards = append(cards, Card{Suit: suit, Rank: rank})
		}
	}
	return cards
}
