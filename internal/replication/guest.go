package replication

import (
	"strings"

	"github.com/Dimasiktut/monopoly-metal-empire/internal/protocol"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	ReconnectFailedMessage = "Не удалось переподключиться к хосту."
	JoinTimedOutMessage    = "Хост не ответил на запрос."
	HostLeftMessage        = "Хост покинул комнату."
)

// hostOnly lists the kinds only a host publishes.
var hostOnly = map[protocol.MessageKind]bool{
	protocol.KindPlayerList:      true,
	protocol.KindGameStart:       true,
	protocol.KindGameStateUpdate: true,
	protocol.KindJoinRejected:    true,
}

func (l *Layer) joinRoom(roomID, name string) {
	roomID = strings.ToUpper(strings.TrimSpace(roomID))
	if l.roomID != "" || roomID == "" {
		l.logger.Debug("join ignored", zap.String("room_id", roomID), zap.String("current_room", l.roomID))
		return
	}
	l.errMsg = ""
	l.roomID = roomID
	l.playerID = uuid.NewString()
	l.isHost = false
	l.joining = true

	if err := l.subscribe(roomID); err != nil {
		l.logger.Error("failed to subscribe to room", zap.String("room_id", roomID), zap.Error(err))
		l.reset(errSubscribe)
		l.publishView()
		return
	}
	l.persistSession()

	req := protocol.JoinRequest{ID: l.playerID, Name: name}
	l.after(l.joinAnnounceDelay, func() {
		l.publish(protocol.KindJoinRequest, req)
	})
	l.after(l.reconnectTimeout, func() {
		if !l.joining {
			return
		}
		l.logger.Warn("join request timed out", zap.String("room_id", l.roomID))
		l.abandon(JoinTimedOutMessage)
	})

	l.logger.Info("joining room", zap.String("room_id", roomID), zap.String("player_id", l.playerID))
	l.publishView()
}

func (l *Layer) sendGameAction(intent protocol.Intent) {
	if l.isHost || l.roomID == "" || !l.started {
		l.logger.Debug("game action ignored", zap.String("action", intent.Action()))
		return
	}
	action, err := protocol.NewGameAction(l.playerID, intent)
	if err != nil {
		l.logger.Error("failed to build game action", zap.Error(err))
		return
	}
	l.publish(protocol.KindGameAction, action)
}

// restoreGuest resubscribes and asks the host for the current state.
func (l *Layer) restoreGuest(rec sessionRecord) error {
	l.roomID = rec.RoomID
	l.playerID = rec.PlayerID
	l.isHost = false
	l.reconnecting = true

	if err := l.subscribe(l.roomID); err != nil {
		return err
	}

	notice := protocol.Reconnected{PlayerID: l.playerID}
	l.after(l.reconnectAnnounceDelay, func() {
		l.publish(protocol.KindReconnected, notice)
	})
	l.after(l.reconnectTimeout, func() {
		if !l.reconnecting {
			return
		}
		l.logger.Warn("reconnection timed out", zap.String("room_id", l.roomID))
		l.abandon(ReconnectFailedMessage)
	})
	return nil
}

func (l *Layer) handleAsGuest(env *protocol.Envelope) {
	if l.roomID == "" {
		return
	}
	if env.From != "" && hostOnly[env.Type] {
		l.hostID = env.From
	}

	switch env.Type {
	case protocol.KindPlayerList:
		var list protocol.PlayerList
		if err := env.DecodePayload(&list); err != nil {
			l.logger.Debug("bad member list", zap.Error(err))
			return
		}
		l.members = list.Players
		if l.memberIndex(l.playerID) >= 0 {
			l.joining = false
		}
		l.reconnecting = false
		l.publishView()

	case protocol.KindGameStart:
		var start protocol.GameStart
		if err := env.DecodePayload(&start); err != nil || start.InitialGameState == nil {
			l.logger.Debug("bad game start", zap.Error(err))
			return
		}
		l.state = start.InitialGameState
		l.confirmation = nil
		l.started = true
		l.joining = false
		l.reconnecting = false
		l.seq = 0
		l.publishView()

	case protocol.KindGameStateUpdate:
		var update protocol.GameStateUpdate
		if err := env.DecodePayload(&update); err != nil || update.GameState == nil {
			l.logger.Debug("bad state update", zap.Error(err))
			return
		}
		if update.Seq < l.seq {
			l.logger.Debug("dropping stale state update", zap.Uint64("seq", update.Seq), zap.Uint64("held", l.seq))
			return
		}
		l.state = update.GameState
		l.confirmation = update.Confirmation
		l.seq = update.Seq
		l.started = true
		l.joining = false
		l.reconnecting = false
		l.publishView()

	case protocol.KindPlayerLeave:
		var msg protocol.PlayerLeave
		if err := env.DecodePayload(&msg); err != nil {
			return
		}
		if !l.isHostID(msg.PlayerID) {
			return
		}
		l.logger.Info("host left the room", zap.String("room_id", l.roomID))
		l.abandon(HostLeftMessage)

	case protocol.KindJoinRejected:
		var msg protocol.JoinRejected
		if err := env.DecodePayload(&msg); err != nil || msg.PlayerID != l.playerID {
			return
		}
		l.logger.Info("join rejected", zap.String("room_id", l.roomID), zap.String("reason", msg.Reason))
		l.abandon(msg.Reason)

	default:
		l.logger.Debug("guest ignoring message", zap.String("type", string(env.Type)))
	}
}

// isHostID reports whether id is the room's host as far as the guest knows.
func (l *Layer) isHostID(id string) bool {
	if id == "" {
		return false
	}
	if id == l.hostID {
		return true
	}
	idx := l.memberIndex(id)
	return idx >= 0 && l.members[idx].IsHost
}
