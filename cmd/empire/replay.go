package main

import (
	"fmt"

	"github.com/Dimasiktut/monopoly-metal-empire/internal/game"
)

func (c *client) openReplay(roomID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.recorder == nil {
		fmt.Fprintln(c.out, "Повторы отключены: задайте game.replay_dir.")
		return
	}
	if c.recorder.IsRecording(roomID) {
		fmt.Fprintf(c.out, "Игра %s ещё идёт, повтор появится после её окончания.\n", roomID)
		return
	}
	replay, err := c.recorder.LoadReplay(roomID)
	if err != nil {
		fmt.Fprintf(c.out, "Не удалось открыть повтор %s: %v\n", roomID, err)
		return
	}
	first := replay.Start()
	if first == nil {
		fmt.Fprintf(c.out, "Повтор %s пуст.\n", roomID)
		return
	}
	c.replay = replay
	renderReplay(c.out, replay, first)
}

// stepReplay moves the open replay one state forward or back.
func (c *client) stepReplay(forward bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.replay == nil {
		fmt.Fprintln(c.out, "Сначала откройте повтор: replay <код>")
		return
	}
	var s *game.State
	if forward {
		s = c.replay.Next()
	} else {
		s = c.replay.Previous()
	}
	if s == nil {
		if forward {
			fmt.Fprintln(c.out, "Конец повтора.")
		} else {
			fmt.Fprintln(c.out, "Начало повтора.")
		}
		return
	}
	renderReplay(c.out, c.replay, s)
}
