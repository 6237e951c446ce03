package domain

// DefaultScoreBound is the absolute score limit used when none is configured.
const DefaultScoreBound int64 = 1_000_000

// PlayerScore is a player's score clamped to [-bound, bound].
type PlayerScore struct {
	value int64
	bound int64
}

// NewPlayerScore builds a score, clamping value into the bound.
func NewPlayerScore(value, bound int64) PlayerScore {
	if bound <= 0 {
		bound = DefaultScoreBound
	}
	return PlayerScore{value: clamp(value, bound), bound: bound}
}

func (s PlayerScore) Value() int64 { return s.value }

func (s PlayerScore) Bound() int64 { return s.bound }

// CanAfford reports whether amount can be staked from this score.
func (s PlayerScore) CanAfford(amount int64) bool {
	return amount >= 0 && amount <= s.value
}

// Add returns the score shifted by delta, clamped.
func (s PlayerScore) Add(delta int64) PlayerScore {
	return PlayerScore{value: clamp(s.value+delta, s.bound), bound: s.bound}
}

func clamp(v, bound int64) int64 {
	if v > bound {
		return bound
	}
	if v < -bound {
		return -bound
	}
	return v
}
