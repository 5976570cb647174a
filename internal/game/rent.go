package game

import "github.com/Dimasiktut/monopoly-metal-empire/internal/board"

// rentFor computes what a visitor owes ownerID for landing on sq, using the
// last dice roll for utilities.
func (e *Engine) rentFor(sq *board.Square, ownerID string) int {
	return Rent(e.state.Board, sq, ownerID, e.state.Dice[0]+e.state.Dice[1])
}

// Rent is the amount owed for landing on sq when ownerID holds it and the
// visitor rolled diceSum.
func Rent(squares []board.Square, sq *board.Square, ownerID string, diceSum int) int {
	switch sq.Kind {
	case board.KindProperty:
		return rentAt(sq.Rent, sq.Houses)
	case board.KindRailroad:
		owned := board.CountOwned(squares, board.KindRailroad, ownerID)
		return rentAt(sq.Rent, owned-1)
	case board.KindUtility:
		if board.CountOwned(squares, board.KindUtility, ownerID) >= 2 {
			return diceSum * utilityPairMultiplier
		}
		return diceSum * utilitySingleMultiplier
	default:
		return 0
	}
}

func rentAt(schedule []int, i int) int {
	if len(schedule) == 0 {
		return 0
	}
	if i < 0 {
		i = 0
	}
	if i >= len(schedule) {
		i = len(schedule) - 1
	}
	return schedule[i]
}
