package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/Dimasiktut/monopoly-metal-empire/internal/game"
	"github.com/Dimasiktut/monopoly-metal-empire/internal/replication"
)

func render(w io.Writer, seat int, v replication.View) {
	var b strings.Builder
	fmt.Fprintf(&b, "---- место %d ----\n", seat)

	switch {
	case v.InLobby():
		b.WriteString("Лобби. create <имя> или join <код> <имя>\n")
	default:
		role := "гость"
		if v.IsHost {
			role = "хост"
		}
		fmt.Fprintf(&b, "Комната %s (%s)", v.RoomID, role)
		if v.Joining {
			b.WriteString(", ожидание хоста...")
		}
		if v.Reconnecting {
			b.WriteString(", переподключение...")
		}
		b.WriteString("\n")
		if !v.Started {
			for _, m := range v.Members {
				marker := " "
				if m.ID == v.PlayerID {
					marker = ">"
				}
				host := ""
				if m.IsHost {
					host = " [хост]"
				}
				fmt.Fprintf(&b, " %s %s%s\n", marker, m.Name, host)
			}
		}
	}

	if s := v.State; s != nil {
		writeState(&b, s)
		if v.MyTurn() && s.Winner == nil {
			b.WriteString("Ваш ход.\n")
		}
	}
	if prompt := v.Prompt(); prompt != nil {
		fmt.Fprintf(&b, "%s (yes/no)\n", prompt.Message)
	}
	if v.Error != "" {
		fmt.Fprintf(&b, "Ошибка: %s\n", v.Error)
	}

	io.WriteString(w, b.String())
}

// renderReplay shows one recorded state of r.
func renderReplay(w io.Writer, r *game.Replay, s *game.State) {
	var b strings.Builder
	fmt.Fprintf(&b, "---- повтор %s: %d/%d ----\n", r.RoomID, r.CurrentIndex+1, r.Size())
	writeState(&b, s)
	io.WriteString(w, b.String())
}

func writeState(b *strings.Builder, s *game.State) {
	for i, p := range s.Players {
		marker := " "
		if i == s.CurrentPlayerIndex {
			marker = "*"
		}
		status := ""
		switch {
		case p.Bankrupt():
			status = " банкрот"
		case p.InJail:
			status = fmt.Sprintf(" в тюрьме (%d)", p.JailTurns)
		}
		square := ""
		if p.Position >= 0 && p.Position < len(s.Board) {
			square = s.Board[p.Position].Name
		}
		fmt.Fprintf(b, " %s %-12s $%-5d «%s»%s\n", marker, p.Name, p.Money, square, status)
	}
	fmt.Fprintf(b, "Фаза: %s  Кубики: %d+%d\n", s.Phase, s.Dice[0], s.Dice[1])
	for _, line := range s.Log {
		fmt.Fprintf(b, "  · %s\n", line)
	}
	if s.Winner != nil {
		fmt.Fprintf(b, "Победитель: %s\n", s.Winner.Name)
	}
}
