package protocol

import (
	"errors"
	"testing"

	"github.com/Dimasiktut/monopoly-metal-empire/internal/game"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeEnvelope(t *testing.T) {
	data, err := Encode(KindJoinRequest, "guest-1", JoinRequest{ID: "guest-1", Name: "Bob"})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"type":"PLAYER_JOIN_REQUEST"`)

	env, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, KindJoinRequest, env.Type)
	assert.Equal(t, "guest-1", env.From)

	var req JoinRequest
	require.NoError(t, env.DecodePayload(&req))
	assert.Equal(t, "Bob", req.Name)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := Decode([]byte("not json"))
	assert.Error(t, err)

	_, err = Decode([]byte(`{"from":"x"}`))
	assert.Error(t, err)

	env, err := Decode([]byte(`{"type":"PLAYER_LEAVE","from":"x"}`))
	require.NoError(t, err)
	var leave PlayerLeave
	assert.Error(t, env.DecodePayload(&leave))
}

func TestStateUpdateOmitsMissingConfirmation(t *testing.T) {
	state := game.NewState([]game.Player{game.NewPlayer("p1", "A", 0, 1500)})
	data, err := Encode(KindGameStateUpdate, "host", GameStateUpdate{GameState: state, Seq: 3})
	require.NoError(t, err)
	assert.NotContains(t, string(data), "confirmation")
	assert.Contains(t, string(data), `"gamePhase":"START_TURN"`)
	assert.Contains(t, string(data), `"seq":3`)
}

func TestIntentRoundtrip(t *testing.T) {
	intents := []Intent{
		RollDice{},
		BuyProperty{},
		EndTurn{},
		PayJailFine{},
		ConfirmAction{Confirmed: true},
		ConfirmAction{Confirmed: false},
	}
	for _, in := range intents {
		action, err := NewGameAction("p1", in)
		require.NoError(t, err)
		assert.Equal(t, "p1", action.PlayerID)

		out, err := ParseIntent(action.Action, action.Data)
		require.NoError(t, err)
		assert.Equal(t, in, out)
	}
}

func TestParseIntentRejectsUnknownTag(t *testing.T) {
	_, err := ParseIntent("MORTGAGE", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownIntent))

	_, err = ParseIntent("CONFIRM_ACTION", nil)
	assert.Error(t, err)
}

func TestIntentApplyDrivesEngine(t *testing.T) {
	engine := game.NewEngine(nil, game.NewFixedRoller([2]int{3, 3}))
	engine.Initialize(game.NewState([]game.Player{
		game.NewPlayer("p1", "A", 0, 1500),
		game.NewPlayer("p2", "B", 1, 1500),
	}))

	RollDice{}.Apply(engine)
	engine.ResolveMovement()
	BuyProperty{}.Apply(engine)
	ConfirmAction{Confirmed: true}.Apply(engine)

	state := engine.State()
	assert.True(t, state.Board[6].OwnedBy("p1"))
	assert.Equal(t, 1, state.CurrentPlayerIndex)
}
