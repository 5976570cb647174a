package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Dimasiktut/monopoly-metal-empire/internal/game"
)

// ErrUnknownIntent is returned for an action tag no intent answers to.
var ErrUnknownIntent = errors.New("unknown intent")

// Intent is a player request that only the host executes. The set of
// implementations is closed.
type Intent interface {
	// Action is the wire tag carried in GAME_ACTION.
	Action() string
	// Apply runs the intent against the host's engine.
	Apply(e *game.Engine)

	intent()
}

type RollDice struct{}

type BuyProperty struct{}

type EndTurn struct{}

type PayJailFine struct{}

type ConfirmAction struct {
	Confirmed bool `json:"confirmed"`
}

func (RollDice) Action() string      { return "ROLL_DICE" }
func (BuyProperty) Action() string   { return "BUY_PROPERTY" }
func (EndTurn) Action() string       { return "END_TURN" }
func (PayJailFine) Action() string   { return "PAY_JAIL_FINE" }
func (ConfirmAction) Action() string { return "CONFIRM_ACTION" }

func (RollDice) Apply(e *game.Engine)        { e.RollDice() }
func (BuyProperty) Apply(e *game.Engine)     { e.BuyProperty() }
func (EndTurn) Apply(e *game.Engine)         { e.EndTurn() }
func (PayJailFine) Apply(e *game.Engine)     { e.PayJailFine() }
func (c ConfirmAction) Apply(e *game.Engine) { e.ConfirmAction(c.Confirmed) }

func (RollDice) intent()      {}
func (BuyProperty) intent()   {}
func (EndTurn) intent()       {}
func (PayJailFine) intent()   {}
func (ConfirmAction) intent() {}

// NewGameAction builds the GAME_ACTION payload for intent.
func NewGameAction(playerID string, intent Intent) (GameAction, error) {
	action := GameAction{PlayerID: playerID, Action: intent.Action()}
	if c, ok := intent.(ConfirmAction); ok {
		data, err := json.Marshal(c)
		if err != nil {
			return GameAction{}, fmt.Errorf("failed to encode intent data: %w", err)
		}
		action.Data = data
	}
	return action, nil
}

// ParseIntent turns a wire tag and optional data back into an Intent.
func ParseIntent(action string, data json.RawMessage) (Intent, error) {
	switch action {
	case RollDice{}.Action():
		return RollDice{}, nil
	case BuyProperty{}.Action():
		return BuyProperty{}, nil
	case EndTurn{}.Action():
		return EndTurn{}, nil
	case PayJailFine{}.Action():
		return PayJailFine{}, nil
	case ConfirmAction{}.Action():
		var c ConfirmAction
		if len(data) == 0 {
			return nil, fmt.Errorf("%s requires data", action)
		}
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("failed to decode %s data: %w", action, err)
		}
		return c, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownIntent, action)
	}
}
