package replication

import (
	"fmt"
	"math/rand/v2"

	"github.com/Dimasiktut/monopoly-metal-empire/internal/game"
	"github.com/Dimasiktut/monopoly-metal-empire/internal/protocol"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	roomCodeLength   = 5
	roomCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	reasonRoomFull    = "Комната заполнена."
	reasonGameStarted = "Игра уже началась."
	errNotEnough      = "Нужно минимум 2 игрока."
	errSubscribe      = "Не удалось подключиться к комнате."
)

// NewRoomCode returns a random five character room code.
func NewRoomCode() string {
	code := make([]byte, roomCodeLength)
	for i := range code {
		code[i] = roomCodeAlphabet[rand.IntN(len(roomCodeAlphabet))]
	}
	return string(code)
}

func (l *Layer) createRoom(name string) {
	if l.roomID != "" {
		l.logger.Debug("already in a room", zap.String("room_id", l.roomID))
		return
	}
	l.errMsg = ""
	l.roomID = NewRoomCode()
	l.playerID = uuid.NewString()
	l.isHost = true
	l.members = []protocol.PlayerProfile{{ID: l.playerID, Name: name, IsHost: true}}

	if err := l.subscribe(l.roomID); err != nil {
		l.logger.Error("failed to subscribe to new room", zap.String("room_id", l.roomID), zap.Error(err))
		l.reset(errSubscribe)
		l.publishView()
		return
	}

	l.logger.Info("created room", zap.String("room_id", l.roomID), zap.String("player_id", l.playerID))
	l.persistSession()
	l.persistRoom()
	l.publishView()
}

func (l *Layer) startGame() {
	if !l.isHost || l.started {
		l.logger.Debug("start ignored", zap.Bool("host", l.isHost), zap.Bool("started", l.started))
		return
	}
	if len(l.members) < 2 {
		l.errMsg = errNotEnough
		l.publishView()
		return
	}

	players := make([]game.Player, 0, len(l.members))
	for seat, m := range l.members {
		players = append(players, game.NewPlayer(m.ID, m.Name, seat, l.startingMoney))
	}
	l.engine.Initialize(game.NewState(players))

	l.started = true
	l.errMsg = ""
	l.seq = 0
	l.state = l.engine.State()
	l.confirmation = nil
	l.replaySaved = false
	if l.recorder != nil {
		l.recorder.StartRecording(l.roomID)
		l.recorder.RecordState(l.roomID, l.state)
	}

	l.logger.Info("game started", zap.String("room_id", l.roomID), zap.Int("players", len(players)))
	l.publish(protocol.KindGameStart, protocol.GameStart{InitialGameState: l.state})
	l.persistRoom()
	l.publishView()
}

// applyIntent runs intent for actor if actor holds the turn.
func (l *Layer) applyIntent(actor string, intent protocol.Intent) {
	if !l.started || l.state == nil {
		l.logger.Debug("intent before game start", zap.String("action", intent.Action()))
		return
	}
	current := l.state.CurrentPlayer()
	if current == nil || current.ID != actor {
		l.logger.Warn("dropping intent from player out of turn",
			zap.String("room_id", l.roomID),
			zap.String("player_id", actor),
			zap.String("action", intent.Action()),
		)
		return
	}

	before := l.state.Phase
	intent.Apply(l.engine)

	if before != game.PhaseDiceRoll && l.engine.State().Phase == game.PhaseDiceRoll {
		l.scheduleMovement()
	}
	l.commit()
}

// scheduleMovement resolves a roll after the dice delay.
func (l *Layer) scheduleMovement() {
	if l.diceDelay <= 0 {
		l.engine.ResolveMovement()
		return
	}
	l.after(l.diceDelay, l.resolveMovement)
}

func (l *Layer) resolveMovement() {
	if !l.isHost || !l.started {
		return
	}
	l.engine.ResolveMovement()
	l.commit()
}

// commit publishes the engine's state as the next update.
func (l *Layer) commit() {
	l.state = l.engine.State()
	l.confirmation = l.engine.Confirmation()
	l.seq++

	l.record()
	l.broadcastState()
	l.persistRoom()
	l.publishView()
}

func (l *Layer) broadcastState() {
	l.publish(protocol.KindGameStateUpdate, protocol.GameStateUpdate{
		GameState:    l.state,
		Confirmation: l.confirmation,
		Seq:          l.seq,
	})
}

func (l *Layer) broadcastMembers() {
	l.publish(protocol.KindPlayerList, protocol.PlayerList{Players: l.members})
}

func (l *Layer) record() {
	if l.recorder == nil || l.replaySaved {
		return
	}
	l.recorder.RecordState(l.roomID, l.state)
	if l.state.Phase != game.PhaseGameOver {
		return
	}
	l.replaySaved = true
	if err := l.recorder.SaveReplay(l.roomID); err != nil {
		l.logger.Error("failed to save replay", zap.String("room_id", l.roomID), zap.Error(err))
	}
}

func (l *Layer) handleAsHost(env *protocol.Envelope) {
	switch env.Type {
	case protocol.KindJoinRequest:
		var req protocol.JoinRequest
		if err := env.DecodePayload(&req); err != nil || req.ID == "" {
			l.logger.Debug("bad join request", zap.Error(err))
			return
		}
		l.admit(req)

	case protocol.KindReconnected:
		var msg protocol.Reconnected
		if err := env.DecodePayload(&msg); err != nil {
			l.logger.Debug("bad reconnect notice", zap.Error(err))
			return
		}
		if l.memberIndex(msg.PlayerID) < 0 {
			l.logger.Debug("reconnect from unknown player", zap.String("player_id", msg.PlayerID))
			return
		}
		l.logger.Info("player reconnected", zap.String("room_id", l.roomID), zap.String("player_id", msg.PlayerID))
		if l.started {
			l.broadcastState()
		} else {
			l.broadcastMembers()
		}

	case protocol.KindGameAction:
		var action protocol.GameAction
		if err := env.DecodePayload(&action); err != nil {
			l.logger.Debug("bad game action", zap.Error(err))
			return
		}
		if env.From != "" && env.From != action.PlayerID {
			l.logger.Warn("game action sender mismatch",
				zap.String("from", env.From),
				zap.String("player_id", action.PlayerID),
			)
			return
		}
		intent, err := protocol.ParseIntent(action.Action, action.Data)
		if err != nil {
			l.logger.Debug("bad intent", zap.String("action", action.Action), zap.Error(err))
			return
		}
		l.applyIntent(action.PlayerID, intent)

	case protocol.KindPlayerLeave:
		var msg protocol.PlayerLeave
		if err := env.DecodePayload(&msg); err != nil {
			l.logger.Debug("bad leave notice", zap.Error(err))
			return
		}
		idx := l.memberIndex(msg.PlayerID)
		if idx < 0 {
			return
		}
		if l.started {
			// Members map 1:1 to players once dealt; the seat stays.
			l.logger.Info("player left running game", zap.String("room_id", l.roomID), zap.String("player_id", msg.PlayerID))
			return
		}
		l.members = append(l.members[:idx], l.members[idx+1:]...)
		l.logger.Info("player left", zap.String("room_id", l.roomID), zap.String("player_id", msg.PlayerID))
		l.broadcastMembers()
		l.persistRoom()
		l.publishView()

	default:
		l.logger.Debug("host ignoring message", zap.String("type", string(env.Type)))
	}
}

func (l *Layer) admit(req protocol.JoinRequest) {
	if l.memberIndex(req.ID) >= 0 {
		if l.started {
			l.broadcastState()
		} else {
			l.broadcastMembers()
		}
		return
	}

	var reason string
	switch {
	case l.started:
		reason = reasonGameStarted
	case len(l.members) >= l.maxPlayers:
		reason = reasonRoomFull
	}
	if reason != "" {
		l.logger.Info("rejected join request",
			zap.String("room_id", l.roomID),
			zap.String("player_id", req.ID),
			zap.String("reason", reason),
		)
		l.publish(protocol.KindJoinRejected, protocol.JoinRejected{PlayerID: req.ID, Reason: reason})
		return
	}

	l.members = append(l.members, protocol.PlayerProfile{ID: req.ID, Name: req.Name})
	l.logger.Info("player joined",
		zap.String("room_id", l.roomID),
		zap.String("player_id", req.ID),
		zap.Int("members", len(l.members)),
	)
	l.broadcastMembers()
	l.persistRoom()
	l.publishView()
}

// restoreHost brings a reloaded host back to where it was.
func (l *Layer) restoreHost(rec sessionRecord) error {
	snap, err := l.loadRoom(rec.RoomID)
	if err != nil {
		return err
	}
	if snap.IsGameStarted && (snap.GameData == nil || snap.GameData.GameState == nil) {
		return fmt.Errorf("room snapshot %s has no game data", rec.RoomID)
	}

	l.roomID = rec.RoomID
	l.playerID = rec.PlayerID
	l.isHost = true
	l.members = snap.Players
	l.started = snap.IsGameStarted
	l.seq = snap.Seq

	if err := l.subscribe(l.roomID); err != nil {
		return fmt.Errorf("failed to resubscribe: %w", err)
	}

	if !l.started {
		l.broadcastMembers()
		return nil
	}
	l.engine.Restore(snap.GameData.GameState, snap.GameData.Confirmation)
	l.state = l.engine.State()
	l.confirmation = l.engine.Confirmation()
	l.replaySaved = l.state.Phase == game.PhaseGameOver
	if l.state.Phase == game.PhaseDiceRoll {
		// The roll was made but not resolved before the reload.
		l.after(l.diceDelay, l.resolveMovement)
	}
	l.broadcastState()
	return nil
}
