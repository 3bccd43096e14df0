package rps

// Verdict is the outcome of comparing move A against move B.
type Verdict int

const (
	Tie Verdict = iota
	AWins
	BWins
)

func (v Verdict) String() string {
	switch v {
	case AWins:
		return "a_wins"
	case BWins:
		return "b_wins"
	default:
		return "tie"
	}
}

// Swap returns the verdict seen from the other side of the table.
func (v Verdict) Swap() Verdict {
	switch v {
	case AWins:
		return BWins
	case BWins:
		return AWins
	default:
		return Tie
	}
}

// beats[x] is the move x defeats.
var beats = map[Move]Move{
	Rock:     Scissors,
	Scissors: Paper,
	Paper:    Rock,
}

// Resolve compares two canonical moves. Anything that is neither a tie nor an A win is a B win.
func Resolve(a, b Move) Verdict {
	if a == b {
		return Tie
	}
	if beats[a] == b {
		return AWins
	}
	return BWins
}
