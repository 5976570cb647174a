package game

import "math/rand/v2"

// Roller produces one throw of two six-sided dice.
type Roller interface {
	Roll() (int, int)
}

// RollerFunc adapts a function to the Roller interface.
type RollerFunc func() (int, int)

func (f RollerFunc) Roll() (int, int) { return f() }

// RandomRoller draws each die uniformly from 1..6.
type RandomRoller struct{}

func (RandomRoller) Roll() (int, int) {
	return rand.IntN(6) + 1, rand.IntN(6) + 1
}

// FixedRoller replays the given throws in order and then repeats the last one.
type FixedRoller struct {
	throws [][2]int
	next   int
}

// NewFixedRoller builds a roller for deterministic play.
func NewFixedRoller(throws ...[2]int) *FixedRoller {
	return &FixedRoller{throws: throws}
}

func (f *FixedRoller) Roll() (int, int) {
	if len(f.throws) == 0 {
		return 1, 1
	}
	i := f.next
	if i >= len(f.throws) {
		i = len(f.throws) - 1
	} else {
		f.next++
	}
	return f.throws[i][0], f.throws[i][1]
}
