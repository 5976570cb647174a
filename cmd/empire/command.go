package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Dimasiktut/monopoly-metal-empire/internal/protocol"
)

type commandKind int

const (
	cmdNone commandKind = iota
	cmdHelp
	cmdCreate
	cmdJoin
	cmdStart
	cmdIntent
	cmdLeave
	cmdState
	cmdSeat
	cmdReplay
	cmdReplayNext
	cmdReplayPrev
	cmdQuit
)

type command struct {
	kind   commandKind
	name   string
	room   string
	seat   int
	intent protocol.Intent
}

const helpText = `Команды:
  create <имя>          создать комнату
  join <код> <имя>      войти в комнату
  start                 начать игру (хост)
  roll                  бросить кубики
  buy                   купить текущее поле
  yes | no              ответить на предложение
  end                   закончить ход
  fine                  заплатить штраф за выход из тюрьмы
  leave                 покинуть комнату
  state                 показать состояние
  seat <n>              переключить место (общая шина)
  replay <код>          открыть повтор законченной игры
  next | prev           шаг повтора вперёд или назад
  quit                  выйти
`

var intentCommands = map[string]protocol.Intent{
	"roll": protocol.RollDice{},
	"buy":  protocol.BuyProperty{},
	"yes":  protocol.ConfirmAction{Confirmed: true},
	"no":   protocol.ConfirmAction{Confirmed: false},
	"end":  protocol.EndTurn{},
	"fine": protocol.PayJailFine{},
}

func parseCommand(line string) (command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return command{kind: cmdNone}, nil
	}
	verb := strings.ToLower(fields[0])
	args := fields[1:]

	if intent, ok := intentCommands[verb]; ok {
		return command{kind: cmdIntent, intent: intent}, nil
	}

	switch verb {
	case "help", "?":
		return command{kind: cmdHelp}, nil
	case "create":
		if len(args) == 0 {
			return command{}, fmt.Errorf("использование: create <имя>")
		}
		return command{kind: cmdCreate, name: strings.Join(args, " ")}, nil
	case "join":
		if len(args) < 2 {
			return command{}, fmt.Errorf("использование: join <код> <имя>")
		}
		return command{kind: cmdJoin, room: strings.ToUpper(args[0]), name: strings.Join(args[1:], " ")}, nil
	case "start":
		return command{kind: cmdStart}, nil
	case "leave":
		return command{kind: cmdLeave}, nil
	case "state":
		return command{kind: cmdState}, nil
	case "seat":
		if len(args) != 1 {
			return command{}, fmt.Errorf("использование: seat <n>")
		}
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return command{}, fmt.Errorf("номер места должен быть числом: %w", err)
		}
		return command{kind: cmdSeat, seat: n}, nil
	case "replay":
		if len(args) != 1 {
			return command{}, fmt.Errorf("использование: replay <код>")
		}
		return command{kind: cmdReplay, room: strings.ToUpper(args[0])}, nil
	case "next":
		return command{kind: cmdReplayNext}, nil
	case "prev":
		return command{kind: cmdReplayPrev}, nil
	case "quit", "exit":
		return command{kind: cmdQuit}, nil
	default:
		return command{}, fmt.Errorf("неизвестная команда %q, введите help", verb)
	}
}
