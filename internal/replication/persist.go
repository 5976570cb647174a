package replication

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Dimasiktut/monopoly-metal-empire/internal/game"
	"github.com/Dimasiktut/monopoly-metal-empire/internal/protocol"
	"github.com/Dimasiktut/monopoly-metal-empire/internal/session"
	"go.uber.org/zap"
)

const (
	SessionKey         = "metal-empire-session"
	GameStateKeyPrefix = "metal-empire-gamestate-"

	errSnapshotInvalid = "Сохранённая игра повреждена."
)

type sessionRecord struct {
	RoomID   string `json:"roomId"`
	PlayerID string `json:"playerId"`
	IsHost   bool   `json:"isHost"`
}

type gameData struct {
	GameState    *game.State        `json:"gameState"`
	Confirmation *game.Confirmation `json:"confirmation,omitempty"`
}

// roomSnapshot is what a host keeps to survive a reload.
type roomSnapshot struct {
	Players       []protocol.PlayerProfile `json:"players"`
	IsGameStarted bool                     `json:"isGameStarted"`
	GameData      *gameData                `json:"gameData,omitempty"`
	Seq           uint64                   `json:"seq"`
	Checksum      string                   `json:"checksum,omitempty"`
}

// RoomKey is the store key of roomID's snapshot.
func RoomKey(roomID string) string {
	return GameStateKeyPrefix + roomID
}

func (l *Layer) storeContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(l.ctx, storeTimeout)
}

func (l *Layer) persistSession() {
	data, err := json.Marshal(sessionRecord{RoomID: l.roomID, PlayerID: l.playerID, IsHost: l.isHost})
	if err != nil {
		l.logger.Error("failed to encode session", zap.Error(err))
		return
	}
	ctx, cancel := l.storeContext()
	defer cancel()

	if err := l.store.Save(ctx, SessionKey, data); err != nil {
		l.logger.Warn("failed to persist session", zap.String("room_id", l.roomID), zap.Error(err))
	}
}

// persistRoom writes the host's snapshot. Guests keep only the session.
func (l *Layer) persistRoom() {
	if !l.isHost || l.roomID == "" {
		return
	}
	snap := roomSnapshot{
		Players:       l.members,
		IsGameStarted: l.started,
		Seq:           l.seq,
	}
	if l.started && l.state != nil {
		snap.GameData = &gameData{GameState: l.state, Confirmation: l.confirmation}
		snap.Checksum = l.state.Checksum()
	}
	data, err := json.Marshal(snap)
	if err != nil {
		l.logger.Error("failed to encode room snapshot", zap.Error(err))
		return
	}
	ctx, cancel := l.storeContext()
	defer cancel()

	if err := l.store.Save(ctx, RoomKey(l.roomID), data); err != nil {
		l.logger.Warn("failed to persist room snapshot", zap.String("room_id", l.roomID), zap.Error(err))
	}
}

func (l *Layer) clearPersisted() {
	ctx, cancel := l.storeContext()
	defer cancel()

	if err := l.store.Clear(ctx, SessionKey); err != nil {
		l.logger.Warn("failed to clear session", zap.Error(err))
	}
	if l.isHost && l.roomID != "" {
		if err := l.store.Clear(ctx, RoomKey(l.roomID)); err != nil {
			l.logger.Warn("failed to clear room snapshot", zap.String("room_id", l.roomID), zap.Error(err))
		}
	}
}

func (l *Layer) loadSession() (sessionRecord, error) {
	ctx, cancel := l.storeContext()
	defer cancel()

	var rec sessionRecord
	data, err := l.store.Load(ctx, SessionKey)
	if err != nil {
		return rec, err
	}
	if err := json.Unmarshal(data, &rec); err != nil {
		return rec, fmt.Errorf("failed to decode session: %w", err)
	}
	if rec.RoomID == "" || rec.PlayerID == "" {
		return rec, errors.New("session record is incomplete")
	}
	return rec, nil
}

func (l *Layer) loadRoom(roomID string) (*roomSnapshot, error) {
	ctx, cancel := l.storeContext()
	defer cancel()

	data, err := l.store.Load(ctx, RoomKey(roomID))
	if err != nil {
		return nil, fmt.Errorf("failed to load room snapshot: %w", err)
	}
	var snap roomSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode room snapshot: %w", err)
	}
	if snap.GameData != nil && snap.GameData.GameState != nil {
		if err := snap.GameData.GameState.VerifyChecksum(snap.Checksum); err != nil {
			return nil, err
		}
	}
	return &snap, nil
}

// restore picks up a persisted session, if any.
func (l *Layer) restore() {
	rec, err := l.loadSession()
	if errors.Is(err, session.ErrNotFound) {
		return
	}
	if err != nil {
		l.logger.Warn("discarding unreadable session", zap.Error(err))
		l.clearSession()
		return
	}

	l.logger.Info("restoring session",
		zap.String("room_id", rec.RoomID),
		zap.String("player_id", rec.PlayerID),
		zap.Bool("host", rec.IsHost),
	)
	if rec.IsHost {
		err = l.restoreHost(rec)
	} else {
		err = l.restoreGuest(rec)
	}
	if err == nil {
		return
	}

	l.logger.Error("failed to restore session", zap.String("room_id", rec.RoomID), zap.Error(err))
	msg := ReconnectFailedMessage
	if errors.Is(err, game.ErrChecksumMismatch) {
		msg = errSnapshotInvalid
	}
	l.roomID = rec.RoomID
	l.isHost = rec.IsHost
	l.clearPersisted()
	l.reset(msg)
}

func (l *Layer) clearSession() {
	ctx, cancel := l.storeContext()
	defer cancel()

	if err := l.store.Clear(ctx, SessionKey); err != nil {
		l.logger.Warn("failed to clear session", zap.Error(err))
	}
}
