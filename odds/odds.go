// Package odds computes the dynamic odds quoted to spectators wagering on a
// hidden hand before the auction starts.
package odds

import (
	"strconv"

	"openbridge.com/server/bridge"
	"openbridge.com/server/util"
)

// High-card points: A=4, K=3, Q=2, J=1.
var hcpTable = map[bridge.Rank]int{
	"A": 4,
	"K": 3,
	"Q": 2,
	"J": 1,
}

// Base probability weight per contract level. Levels 6 and 7 are quoted off
// the level-5 row.
var levelWeights = map[int]float64{
	1: 0.10,
	2: 0.20,
	3: 0.40,
	4: 0.35,
	5: 0.12,
}

const (
	MinLevel = 1
	MaxLevel = 5

	minProbability = 0.005
	maxProbability = 0.9
)

// Result is the odds quote for one hand: its high-card-point total, the
// derived strength index, and the payout odds per strain and level.
// JSON field names match the client protocol.
type Result struct {
	HCP      int                               `json:"totalHcp"`
	Strength float64                           `json:"nsWinProb"`
	Matrix   map[bridge.Strain]map[int]float64 `json:"matrix"`
}

// Compute returns the odds matrix for the given 13-card hand.
func Compute(hand []bridge.Card) Result {
	totalHcp := 0
	suitCounts := make(map[bridge.Suit]int)
	for _, card := range hand {
		totalHcp += hcpTable[card.Rank]
		suitCounts[card.Suit]++
	}

	strength := (float64(totalHcp) + 9) / 40.0
	if strength < 0.1 {
		strength = 0.1
	}
	if strength > 0.9 {
		strength = 0.9
	}

	matrix := make(map[bridge.Strain]map[int]float64)
	for _, strain := range bridge.Strains {
		matrix[strain] = make(map[int]float64)
		for level := MinLevel; level <= MaxLevel; level++ {
			prob := levelWeights[level]
			if strain == bridge.StrainSpades || strain == bridge.StrainHearts {
				prob *= 1.25
			}
			if strain != bridge.StrainNoTrump && suitCounts[bridge.Suit(strain)] >= 5 {
				prob *= 1.4
			}
			if strain == bridge.StrainNoTrump && totalHcp >= 12 {
				prob *= 1.3
			}
			if strength > 0.4 {
				prob *= strength
			} else {
				prob *= 1 - strength
			}
			if prob < minProbability {
				prob = minProbability
			}
			if prob > maxProbability {
				prob = maxProbability
			}
			matrix[strain][level] = util.RoundDecimal(1/prob, 2)
		}
	}

	return Result{HCP: totalHcp, Strength: strength, Matrix: matrix}
}

// Combined folds several odds values into one quote for a wager covering all
// of them, using harmonic combination: 1 / sum(1/odds).
func Combined(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += 1 / v
	}
	return util.RoundDecimal(1/sum, 2)
}

// Quote looks up the odds for a prediction string against the matrix.
// A prediction is "<level><strain>", or just a level, or just a strain;
// partial predictions are quoted across the whole row or column. Levels 6
// and 7 collapse to the level-5 row. Returns false for anything it cannot
// parse.
func Quote(r Result, prediction string) (float64, bool) {
	level, strain, ok := parsePrediction(prediction)
	if !ok {
		return 0, false
	}

	switch {
	case level > 0 && strain != "":
		return r.Matrix[strain][level], true
	case level > 0:
		row := make([]float64, 0, len(bridge.Strains))
		for _, s := range bridge.Strains {
			row = append(row, r.Matrix[s][level])
		}
		return Combined(row), true
	default:
		column := make([]float64, 0, MaxLevel)
		for l := MinLevel; l <= MaxLevel; l++ {
			column = append(column, r.Matrix[strain][l])
		}
		return Combined(column), true
	}
}

func parsePrediction(prediction string) (int, bridge.Strain, bool) {
	if prediction == "" {
		return 0, "", false
	}

	level := 0
	rest := prediction
	if n, err := strconv.Atoi(prediction[:1]); err == nil {
		if n < bridge.MinBidLevel || n > bridge.MaxBidLevel {
			return 0, "", false
		}
		level = n
		if level > MaxLevel {
			level = MaxLevel
		}
		rest = prediction[1:]
	}

	if rest == "" {
		return level, "", level > 0
	}
	strain := bridge.Strain(rest)
	for _, s := range bridge.Strains {
		if strain == s {
			return level, strain, true
		}
	}
	return 0, "", false
}
