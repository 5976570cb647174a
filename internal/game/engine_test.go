package game

import (
	"fmt"
	"testing"

	"github.com/Dimasiktut/monopoly-metal-empire/internal/board"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestEngine(t *testing.T, state *State, throws ...[2]int) *Engine {
	t.Helper()
	engine := NewEngine(zaptest.NewLogger(t), NewFixedRoller(throws...))
	engine.Initialize(state)
	return engine
}

func twoPlayerState() *State {
	return NewState([]Player{
		NewPlayer("p1", "Alice", 0, 1500),
		NewPlayer("p2", "Bob", 1, 1500),
	})
}

// neutralBoard has no square with a landing effect.
func neutralBoard() []board.Square {
	squares := make([]board.Square, board.Size)
	for i := range squares {
		squares[i] = board.Square{ID: i, Name: fmt.Sprintf("Парковка %d", i), Kind: board.KindFreeParking}
	}
	return squares
}

func totalMoney(s *State) int {
	sum := 0
	for _, p := range s.Players {
		sum += p.Money
	}
	return sum
}

func TestMovementForEveryDicePair(t *testing.T) {
	for _, start := range []int{0, 17, 33, 39} {
		for a := 1; a <= 6; a++ {
			for b := 1; b <= 6; b++ {
				state := twoPlayerState()
				state.Board = neutralBoard()
				state.Players[0].Position = start

				engine := newTestEngine(t, state, [2]int{a, b})
				engine.RollDice()
				require.Equal(t, PhaseDiceRoll, engine.State().Phase)
				engine.ResolveMovement()

				got := engine.State()
				want := (start + a + b) % board.Size
				assert.Equal(t, want, got.Players[0].Position, "start=%d roll=%d,%d", start, a, b)

				expectedMoney := 1500
				if want < start {
					expectedMoney += GoBonus
				}
				assert.Equal(t, expectedMoney, got.Players[0].Money, "start=%d roll=%d,%d", start, a, b)
				assert.Equal(t, [2]int{a, b}, got.Dice)
			}
		}
	}
}

func TestPurchaseFlowEndToEnd(t *testing.T) {
	state := twoPlayerState()
	state.Board[7] = board.Square{
		ID:    7,
		Name:  "X",
		Kind:  board.KindProperty,
		Price: 200,
		Rent:  []int{16, 80, 220, 600, 800, 1000},
		Color: "#fb923c",
	}
	engine := newTestEngine(t, state, [2]int{3, 4})

	engine.RollDice()
	engine.ResolveMovement()

	s := engine.State()
	require.Equal(t, 7, s.Players[0].Position)
	require.Equal(t, 1500, s.Players[0].Money, "no GO bonus without wrapping")
	require.Equal(t, PhaseAction, s.Phase)

	engine.BuyProperty()
	require.NotNil(t, engine.Confirmation())
	assert.Equal(t, `Купить "X" за $200?`, engine.Confirmation().Message)

	engine.ConfirmAction(true)
	s = engine.State()
	assert.Equal(t, 1300, s.Players[0].Money)
	assert.True(t, s.Board[7].OwnedBy("p1"))
	assert.Equal(t, PhaseStartTurn, s.Phase)
	assert.Equal(t, 1, s.CurrentPlayerIndex)
	assert.Nil(t, engine.Confirmation())
}

func TestDeclinedPurchaseLeavesSquareUnowned(t *testing.T) {
	engine := newTestEngine(t, twoPlayerState(), [2]int{3, 3})
	engine.RollDice()
	engine.ResolveMovement()
	require.Equal(t, PhaseAction, engine.State().Phase)

	engine.BuyProperty()
	engine.ConfirmAction(false)

	s := engine.State()
	assert.False(t, s.Board[6].Owned())
	assert.Equal(t, 1500, s.Players[0].Money)
	assert.Equal(t, 1, s.CurrentPlayerIndex)
}

func TestConfirmRechecksAffordability(t *testing.T) {
	engine := newTestEngine(t, twoPlayerState(), [2]int{3, 3})
	engine.RollDice()
	engine.ResolveMovement()
	engine.BuyProperty()
	require.NotNil(t, engine.Confirmation())

	// Money drops between the prompt and the answer.
	engine.state.Players[0].Money = 10
	engine.ConfirmAction(true)

	s := engine.State()
	assert.False(t, s.Board[6].Owned())
	assert.Equal(t, 10, s.Players[0].Money)
	assert.Equal(t, PhaseStartTurn, s.Phase)
}

func TestBuyPropertyRejectsUnaffordableSquare(t *testing.T) {
	state := twoPlayerState()
	state.Players[0].Money = 50
	engine := newTestEngine(t, state, [2]int{3, 3})
	engine.RollDice()
	engine.ResolveMovement()

	engine.BuyProperty()
	assert.Nil(t, engine.Confirmation())
	assert.Equal(t, PhaseAction, engine.State().Phase)
	assert.Contains(t, engine.State().Log[0], "не хватает денег")
}

func TestConfirmWithoutPromptIsNoop(t *testing.T) {
	engine := newTestEngine(t, twoPlayerState())
	before := engine.State()
	engine.ConfirmAction(true)
	assert.Equal(t, before, engine.State())
}

func TestEndTurnOutsideActionIsNoop(t *testing.T) {
	engine := newTestEngine(t, twoPlayerState(), [2]int{1, 2})

	before := engine.State()
	engine.EndTurn()
	assert.Equal(t, before, engine.State(), "START_TURN")

	engine.RollDice()
	before = engine.State()
	engine.EndTurn()
	assert.Equal(t, before, engine.State(), "DICE_ROLL")
}

func TestEndTurnDropsPendingPrompt(t *testing.T) {
	engine := newTestEngine(t, twoPlayerState(), [2]int{3, 3})
	engine.RollDice()
	engine.ResolveMovement()
	engine.BuyProperty()
	require.NotNil(t, engine.Confirmation())

	engine.EndTurn()
	assert.Nil(t, engine.Confirmation())
	assert.Equal(t, 1, engine.State().CurrentPlayerIndex)
	assert.False(t, engine.State().Board[6].Owned())
}

func TestRollDiceOutsideStartTurnIsRejected(t *testing.T) {
	engine := newTestEngine(t, twoPlayerState(), [2]int{1, 2}, [2]int{6, 6})
	engine.RollDice()
	before := engine.State()

	engine.RollDice()
	after := engine.State()
	assert.Equal(t, before.Dice, after.Dice)
	assert.Equal(t, before.Players, after.Players)
	assert.Equal(t, PhaseDiceRoll, after.Phase)
	assert.Contains(t, after.Log[0], "Действие недоступно")
}

func TestRentIsZeroSum(t *testing.T) {
	state := twoPlayerState()
	state.Board[6].SetOwner("p2")
	state.Board[6].Houses = 3
	engine := newTestEngine(t, state, [2]int{3, 3})

	before := totalMoney(engine.State())
	engine.RollDice()
	engine.ResolveMovement()

	s := engine.State()
	assert.Equal(t, before, totalMoney(s))
	assert.Equal(t, 1500-270, s.Players[0].Money)
	assert.Equal(t, 1500+270, s.Players[1].Money)
	assert.Equal(t, PhaseStartTurn, s.Phase)
	assert.Equal(t, 1, s.CurrentPlayerIndex)
}

func TestLandingOnOwnSquareHasNoEffect(t *testing.T) {
	state := twoPlayerState()
	state.Board[6].SetOwner("p1")
	engine := newTestEngine(t, state, [2]int{3, 3})
	engine.RollDice()
	engine.ResolveMovement()

	s := engine.State()
	assert.Equal(t, 1500, s.Players[0].Money)
	assert.Equal(t, 1, s.CurrentPlayerIndex)
}

func TestRailroadRentIncreasesWithHoldings(t *testing.T) {
	squares := board.Default()
	railroads := []int{5, 15, 25, 35}

	previous := 0
	for k, idx := range railroads {
		squares[idx].SetOwner("p2")
		rent := Rent(squares, &squares[5], "p2", 7)
		assert.Greater(t, rent, previous, "%d railroads owned", k+1)
		previous = rent
	}
}

func TestUtilityRentMultipliers(t *testing.T) {
	for sum := 2; sum <= 12; sum++ {
		squares := board.Default()
		squares[12].SetOwner("p2")
		assert.Equal(t, 4*sum, Rent(squares, &squares[12], "p2", sum))

		squares[28].SetOwner("p2")
		assert.Equal(t, 10*sum, Rent(squares, &squares[12], "p2", sum))
	}
}

func TestUtilityRentUsesLastRoll(t *testing.T) {
	state := twoPlayerState()
	state.Players[0].Position = 7
	state.Board[12].SetOwner("p2")
	engine := newTestEngine(t, state, [2]int{2, 3})
	engine.RollDice()
	engine.ResolveMovement()

	s := engine.State()
	assert.Equal(t, 1500-20, s.Players[0].Money)
	assert.Equal(t, 1500+20, s.Players[1].Money)
}

func TestTaxSquare(t *testing.T) {
	engine := newTestEngine(t, twoPlayerState(), [2]int{1, 3})
	engine.RollDice()
	engine.ResolveMovement()

	s := engine.State()
	assert.Equal(t, 4, s.Players[0].Position)
	assert.Equal(t, 1300, s.Players[0].Money)
	assert.Equal(t, 1, s.CurrentPlayerIndex)
}

func TestTurnOrderSkipsBankruptPlayers(t *testing.T) {
	state := NewState([]Player{
		NewPlayer("p1", "Alice", 0, 1500),
		NewPlayer("p2", "Bob", 1, -1),
		NewPlayer("p3", "Carol", 2, 1500),
	})
	state.Board = neutralBoard()
	engine := newTestEngine(t, state, [2]int{1, 2})

	engine.RollDice()
	engine.ResolveMovement()
	s := engine.State()
	assert.Equal(t, 2, s.CurrentPlayerIndex)
	assert.Equal(t, PhaseStartTurn, s.Phase)

	engine.RollDice()
	engine.ResolveMovement()
	assert.Equal(t, 0, engine.State().CurrentPlayerIndex)
}

func TestBankruptcyEndsGameAndReleasesHoldings(t *testing.T) {
	state := twoPlayerState()
	state.Players[0].Money = 10
	state.Board[1].SetOwner("p1")
	state.Board[1].Houses = 2
	state.Board[7] = board.Square{ID: 7, Name: "X", Kind: board.KindProperty, Price: 200, Rent: []int{16, 80, 220, 600, 800, 1000}}
	state.Board[7].SetOwner("p2")
	engine := newTestEngine(t, state, [2]int{3, 4})

	before := totalMoney(engine.State())
	engine.RollDice()
	engine.ResolveMovement()

	s := engine.State()
	assert.Equal(t, before, totalMoney(s))
	assert.Equal(t, -6, s.Players[0].Money)
	assert.False(t, s.Board[1].Owned())
	assert.Zero(t, s.Board[1].Houses)
	assert.True(t, s.Board[7].OwnedBy("p2"))
	assert.Equal(t, PhaseGameOver, s.Phase)
	require.NotNil(t, s.Winner)
	assert.Equal(t, "p2", s.Winner.ID)

	// GAME_OVER is terminal.
	engine.RollDice()
	engine.EndTurn()
	assert.Equal(t, s, engine.State())
}

func TestGoToJail(t *testing.T) {
	state := twoPlayerState()
	state.Players[0].Position = 23
	engine := newTestEngine(t, state, [2]int{3, 4})
	engine.RollDice()
	engine.ResolveMovement()

	p := engine.State().Players[0]
	assert.Equal(t, board.JailIndex, p.Position)
	assert.True(t, p.InJail)
	assert.Equal(t, JailSentence, p.JailTurns)
	assert.Equal(t, 1500, p.Money, "no GO bonus when sent to jail")
	assert.Equal(t, 1, engine.State().CurrentPlayerIndex)
}

func jailedState(turns int) *State {
	state := twoPlayerState()
	state.Players[0].Position = board.JailIndex
	state.Players[0].InJail = true
	state.Players[0].JailTurns = turns
	return state
}

func TestJailedPlayerStaysOnFailedRoll(t *testing.T) {
	engine := newTestEngine(t, jailedState(3), [2]int{1, 2})
	engine.RollDice()

	s := engine.State()
	assert.True(t, s.Players[0].InJail)
	assert.Equal(t, 2, s.Players[0].JailTurns)
	assert.Equal(t, board.JailIndex, s.Players[0].Position)
	assert.Equal(t, PhaseStartTurn, s.Phase)
	assert.Equal(t, 1, s.CurrentPlayerIndex)
}

func TestJailedPlayerLeavesOnDoubles(t *testing.T) {
	engine := newTestEngine(t, jailedState(3), [2]int{2, 2})
	engine.RollDice()
	require.Equal(t, PhaseDiceRoll, engine.State().Phase)
	engine.ResolveMovement()

	p := engine.State().Players[0]
	assert.False(t, p.InJail)
	assert.Equal(t, 14, p.Position)
	assert.Equal(t, 1500, p.Money)
}

func TestJailFineForcedOnLastTurn(t *testing.T) {
	engine := newTestEngine(t, jailedState(1), [2]int{1, 2})
	engine.RollDice()
	engine.ResolveMovement()

	p := engine.State().Players[0]
	assert.False(t, p.InJail)
	assert.Equal(t, 13, p.Position)
	assert.Equal(t, 1500-JailFine, p.Money)
}

func TestPayJailFine(t *testing.T) {
	engine := newTestEngine(t, jailedState(3), [2]int{1, 2})
	engine.PayJailFine()

	s := engine.State()
	assert.False(t, s.Players[0].InJail)
	assert.Equal(t, 1500-JailFine, s.Players[0].Money)
	assert.Equal(t, PhaseStartTurn, s.Phase)

	engine.RollDice()
	engine.ResolveMovement()
	assert.Equal(t, 13, engine.State().Players[0].Position)
}

func TestPayJailFineRequiresJail(t *testing.T) {
	engine := newTestEngine(t, twoPlayerState())
	engine.PayJailFine()

	s := engine.State()
	assert.Equal(t, 1500, s.Players[0].Money)
	assert.Contains(t, s.Log[0], "Действие недоступно")
}

func TestRestoreRearmsPurchasePrompt(t *testing.T) {
	engine := newTestEngine(t, twoPlayerState(), [2]int{3, 3})
	engine.RollDice()
	engine.ResolveMovement()
	engine.BuyProperty()
	saved := engine.State()
	prompt := engine.Confirmation()
	require.NotNil(t, prompt)

	restored := NewEngine(zaptest.NewLogger(t), nil)
	restored.Restore(saved, prompt)
	require.NotNil(t, restored.Confirmation())
	assert.Equal(t, prompt.Message, restored.Confirmation().Message)

	restored.ConfirmAction(true)
	assert.True(t, restored.State().Board[6].OwnedBy("p1"))
}

func TestRestoreIgnoresStalePrompt(t *testing.T) {
	state := twoPlayerState()
	restored := NewEngine(zaptest.NewLogger(t), nil)
	restored.Restore(state, &Confirmation{Message: "stale"})
	assert.Nil(t, restored.Confirmation())
}

func TestLogKeepsMostRecentEntries(t *testing.T) {
	state := twoPlayerState()
	state.Board = neutralBoard()
	engine := newTestEngine(t, state, [2]int{1, 2})

	for i := 0; i < 6; i++ {
		engine.RollDice()
		engine.ResolveMovement()
	}

	s := engine.State()
	require.Len(t, s.Log, LogLimit)
	assert.Contains(t, s.Log[0], "попадает на")
	assert.Contains(t, s.Log[1], "выбросил 1 и 2")
}

func TestEngineWithoutGameIgnoresIntents(t *testing.T) {
	engine := NewEngine(nil, nil)
	engine.RollDice()
	engine.ResolveMovement()
	engine.BuyProperty()
	engine.ConfirmAction(true)
	engine.EndTurn()
	engine.PayJailFine()
	assert.Nil(t, engine.State())
}

func TestStateCloneIsDeep(t *testing.T) {
	original := twoPlayerState()
	original.Board[1].SetOwner("p1")
	clone := original.Clone()

	clone.Players[0].Money = 1
	clone.Board[1].SetOwner("p2")
	clone.Log[0] = "changed"

	assert.Equal(t, 1500, original.Players[0].Money)
	assert.True(t, original.Board[1].OwnedBy("p1"))
	assert.Equal(t, "Игра начинается!", original.Log[0])
}
