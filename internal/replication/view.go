package replication

import (
	"github.com/Dimasiktut/monopoly-metal-empire/internal/game"
	"github.com/Dimasiktut/monopoly-metal-empire/internal/protocol"
)

// View is what a presentation layer renders. It is a copy and may be kept.
type View struct {
	RoomID       string
	PlayerID     string
	IsHost       bool
	Members      []protocol.PlayerProfile
	Started      bool
	Reconnecting bool
	Joining      bool
	State        *game.State
	Confirmation *game.Confirmation
	Error        string
}

// InLobby reports whether the participant is outside any room.
func (v View) InLobby() bool {
	return v.RoomID == ""
}

// MyTurn reports whether the local player is the current player.
func (v View) MyTurn() bool {
	if v.State == nil {
		return false
	}
	current := v.State.CurrentPlayer()
	return current != nil && current.ID == v.PlayerID
}

// Prompt returns the confirmation only when the local player should answer it.
func (v View) Prompt() *game.Confirmation {
	if !v.MyTurn() {
		return nil
	}
	return v.Confirmation
}

func (l *Layer) view() View {
	v := View{
		RoomID:       l.roomID,
		PlayerID:     l.playerID,
		IsHost:       l.isHost,
		Members:      append([]protocol.PlayerProfile(nil), l.members...),
		Started:      l.started,
		Reconnecting: l.reconnecting,
		Joining:      l.joining,
		State:        l.state.Clone(),
		Error:        l.errMsg,
	}
	if l.confirmation != nil {
		c := *l.confirmation
		v.Confirmation = &c
	}
	return v
}

// publishView refreshes the snapshot and notifies the observer.
func (l *Layer) publishView() {
	v := l.view()

	l.viewMu.Lock()
	l.current = v
	l.viewMu.Unlock()

	if l.onChange != nil {
		l.onChange(v)
	}
}
