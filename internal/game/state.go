package game

import (
	"fmt"
	"strings"

	"github.com/Dimasiktut/monopoly-metal-empire/internal/board"
)

// Phase is the step of the current player's turn.
type Phase int

const (
	PhaseStartTurn Phase = iota
	PhaseDiceRoll
	PhaseAction
	PhaseGameOver
)

var phaseNames = map[Phase]string{
	PhaseStartTurn: "START_TURN",
	PhaseDiceRoll:  "DICE_ROLL",
	PhaseAction:    "ACTION",
	PhaseGameOver:  "GAME_OVER",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return fmt.Sprintf("PHASE_%d", int(p))
}

func (p Phase) MarshalText() ([]byte, error) {
	if _, ok := phaseNames[p]; !ok {
		return nil, fmt.Errorf("unknown game phase %d", int(p))
	}
	return []byte(p.String()), nil
}

func (p *Phase) UnmarshalText(text []byte) error {
	name := strings.ToUpper(strings.TrimSpace(string(text)))
	for phase, n := range phaseNames {
		if n == name {
			*p = phase
			return nil
		}
	}
	return fmt.Errorf("unknown game phase %q", string(text))
}

// Player is a seat in a running game. Negative Money marks the player bankrupt.
type Player struct {
	ID                    string `json:"id"`
	Name                  string `json:"name"`
	Money                 int    `json:"money"`
	Position              int    `json:"position"`
	Color                 string `json:"color"`
	InJail                bool   `json:"inJail"`
	JailTurns             int    `json:"jailTurns"`
	GetOutOfJailFreeCards int    `json:"getOutOfJailFreeCards"`
}

// NewPlayer seats a player at GO with the palette colour for seat.
func NewPlayer(id, name string, seat, money int) Player {
	return Player{
		ID:    id,
		Name:  name,
		Money: money,
		Color: board.ColorForSeat(seat),
	}
}

// Bankrupt reports whether the player has dropped below zero.
func (p Player) Bankrupt() bool {
	return p.Money < 0
}

// State is the full game state. It is replicated to guests as JSON.
type State struct {
	Board              []board.Square `json:"board"`
	Players            []Player       `json:"players"`
	CurrentPlayerIndex int            `json:"currentPlayerIndex"`
	Dice               [2]int         `json:"dice"`
	Phase              Phase          `json:"gamePhase"`
	Log                []string       `json:"gameLog"`
	Winner             *Player        `json:"winner,omitempty"`
}

// NewState starts a game on the default board with players in turn order.
func NewState(players []Player) *State {
	return &State{
		Board:   board.Default(),
		Players: append([]Player(nil), players...),
		Dice:    [2]int{1, 1},
		Phase:   PhaseStartTurn,
		Log:     []string{"Игра начинается!"},
	}
}

// Clone returns a deep copy that shares nothing with s.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	out := *s
	out.Board = board.Clone(s.Board)
	out.Players = append([]Player(nil), s.Players...)
	out.Log = append([]string(nil), s.Log...)
	if s.Winner != nil {
		w := *s.Winner
		out.Winner = &w
	}
	return &out
}

// CurrentPlayer returns the player whose turn it is, or nil for an empty game.
func (s *State) CurrentPlayer() *Player {
	if s == nil || s.CurrentPlayerIndex < 0 || s.CurrentPlayerIndex >= len(s.Players) {
		return nil
	}
	return &s.Players[s.CurrentPlayerIndex]
}

// PlayerByID looks a player up by id.
func (s *State) PlayerByID(id string) *Player {
	for i := range s.Players {
		if s.Players[i].ID == id {
			return &s.Players[i]
		}
	}
	return nil
}

// Confirmation is a pending yes/no decision shown to the acting player.
type Confirmation struct {
	Message string `json:"message"`
}
