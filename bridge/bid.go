package bridge

import (
	"fmt"
	"strconv"
	"strings"
)

// Strain is the suit (or no-trump) named in a bid.
type Strain string

const (
	StrainClubs    Strain = "C"
	StrainDiamonds Strain = "D"
	StrainHearts   Strain = "H"
	StrainSpades   Strain = "S"
	StrainNoTrump  Strain = "NT"
)

var Strains = []Strain{StrainClubs, StrainDiamonds, StrainHearts, StrainSpades, StrainNoTrump}

// Bid legality ordering: C < D < H < S < NT.
var strainRank = map[Strain]int{
	StrainClubs:    1,
	StrainDiamonds: 2,
	StrainHearts:   3,
	StrainSpades:   4,
	StrainNoTrump:  5,
}

const (
	MinBidLevel = 1
	MaxBidLevel = 7
)

// Bid is either a pass or a level/strain call. The wire form is "Pass"
// or "<level><strain>", e.g. "3NT".
type Bid struct {
	Pass   bool
	Level  int
	Strain Strain
}

var PassBid = Bid{Pass: true}

func NewBid(s string) (Bid, error) {
	if s == "Pass" {
		return PassBid, nil
	}
	if len(s) < 2 {
		return Bid{}, fmt.Errorf("invalid bid [%s]", s)
	}
	level, err := strconv.Atoi(s[:1])
	if err != nil || level < MinBidLevel || level > MaxBidLevel {
		return Bid{}, fmt.Errorf("invalid bid level [%s]", s)
	}
	strain := Strain(s[1:])
	if strainRank[strain] == 0 {
		return Bid{}, fmt.Errorf("invalid bid strain [%s]", s)
	}
	return Bid{Level: level, Strain: strain}, nil
}

func (b Bid) String() string {
	if b.Pass {
		return "Pass"
	}
	return strconv.Itoa(b.Level) + string(b.Strain)
}

func (b Bid) MarshalJSON() ([]byte, error) {
	return []byte("\"" + b.String() + "\""), nil
}

func (b *Bid) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), "\"")
	bid, err := NewBid(s)
	if err != nil {
		return err
	}
	*b = bid
	return nil
}

// IsLegalBid reports whether candidate may follow lastBid in the auction.
// A pass is always legal. Any call opens the auction. Otherwise the call
// must raise the level, or raise the strain at the same level.
func IsLegalBid(lastBid *Bid, candidate Bid) bool {
	if candidate.Pass {
		return true
	}
	if lastBid == nil || lastBid.Pass {
		return true
	}
	if candidate.Level > lastBid.Level {
		return true
	}
	return candidate.Level == lastBid.Level &&
		strainRank[candidate.Strain] > strainRank[lastBid.Strain]
}
