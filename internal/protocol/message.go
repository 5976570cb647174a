package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/Dimasiktut/monopoly-metal-empire/internal/game"
)

// MessageKind names a room message.
type MessageKind string

const (
	KindJoinRequest     MessageKind = "PLAYER_JOIN_REQUEST"
	KindPlayerList      MessageKind = "PLAYER_LIST_UPDATE"
	KindGameStart       MessageKind = "GAME_START"
	KindGameAction      MessageKind = "GAME_ACTION"
	KindGameStateUpdate MessageKind = "GAME_STATE_UPDATE"
	KindPlayerLeave     MessageKind = "PLAYER_LEAVE"
	KindReconnected     MessageKind = "PLAYER_RECONNECTED"
	KindJoinRejected    MessageKind = "JOIN_REJECTED"
)

// RelayJoined is the first frame a relay sends on a new socket, once the socket
// is registered in its room. Frames published after it are delivered.
const RelayJoined = `{"type":"RELAY_JOINED"}`

// Envelope is the frame every room message travels in.
type Envelope struct {
	Type    MessageKind     `json:"type"`
	From    string          `json:"from"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// PlayerProfile is a room member as shown in the lobby.
type PlayerProfile struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	IsHost bool   `json:"isHost"`
}

type JoinRequest struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type PlayerList struct {
	Players []PlayerProfile `json:"players"`
}

type GameStart struct {
	InitialGameState *game.State `json:"initialGameState"`
}

type GameAction struct {
	PlayerID string          `json:"playerId"`
	Action   string          `json:"action"`
	Data     json.RawMessage `json:"data,omitempty"`
}

type GameStateUpdate struct {
	GameState    *game.State        `json:"gameState"`
	Confirmation *game.Confirmation `json:"confirmation,omitempty"`
	Seq          uint64             `json:"seq"`
}

type PlayerLeave struct {
	PlayerID string `json:"playerId"`
}

type Reconnected struct {
	PlayerID string `json:"playerId"`
}

type JoinRejected struct {
	PlayerID string `json:"playerId"`
	Reason   string `json:"reason"`
}

// Encode wraps payload in an envelope and marshals the whole frame.
func Encode(kind MessageKind, from string, payload any) ([]byte, error) {
	env := Envelope{Type: kind, From: from}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s payload: %w", kind, err)
		}
		env.Payload = raw
	}
	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s envelope: %w", kind, err)
	}
	return data, nil
}

// Decode parses an envelope without interpreting its payload.
func Decode(data []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to decode envelope: %w", err)
	}
	if env.Type == "" {
		return nil, fmt.Errorf("envelope has no type")
	}
	return &env, nil
}

// DecodePayload unmarshals the envelope payload into v.
func (e *Envelope) DecodePayload(v any) error {
	if len(e.Payload) == 0 {
		return fmt.Errorf("%s message has no payload", e.Type)
	}
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("failed to decode %s payload: %w", e.Type, err)
	}
	return nil
}
