package bridge

// PlayedCard is one card of a trick together with the seat that played it.
type PlayedCard struct {
	Seat Seat `json:"seat"`
	Card Card `json:"card"`
}

// TrickSize is the number of cards in a complete trick.
const TrickSize = 4

// TricksPerDeal is the number of tricks in a full deal.
const TricksPerDeal = 13

// JudgeTrick returns the seat that wins a completed trick under the given
// contract. The contract's strain is trump; a no-trump contract (or a missing
// one) means no trump. A trump beats any non-trump; within trump, and within
// the suit led, higher rank wins. Off-suit discards never win.
func JudgeTrick(played []PlayedCard, contract *Bid) Seat {
	var trump Suit
	if contract != nil && !contract.Pass && contract.Strain != StrainNoTrump {
		trump = Suit(contract.Strain)
	}
	lead := played[0].Card.Suit

	winner := played[0]
	for _, current := range played[1:] {
		winnerSuit := winner.Card.Suit
		currentSuit := current.Card.Suit

		switch {
		case trump != "" && currentSuit == trump && winnerSuit != trump:
			winner = current
		case trump != "" && currentSuit == trump && winnerSuit == trump:
			if current.Card.Rank.Beats(winner.Card.Rank) {
				winner = current
			}
		case currentSuit == lead && winnerSuit == lead:
			if current.Card.Rank.Beats(winner.Card.Rank) {
				winner = current
			}
		}
	}
	return winner.Seat
}
