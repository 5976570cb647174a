package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/Dimasiktut/monopoly-metal-empire/internal/channel"
	"github.com/Dimasiktut/monopoly-metal-empire/internal/config"
	"github.com/Dimasiktut/monopoly-metal-empire/internal/game"
	"github.com/Dimasiktut/monopoly-metal-empire/internal/logging"
	"github.com/Dimasiktut/monopoly-metal-empire/internal/replication"
	"github.com/Dimasiktut/monopoly-metal-empire/internal/session"
	"go.uber.org/zap"
)

var (
	configPath = flag.String("config", "config/config.yaml", "path to configuration file")
	seats      = flag.Int("seats", 2, "local seats sharing the in-process bus (bus transport only)")
	version    = "dev" // set via ldflags during build
)

// seat is one participant driven from this terminal.
type seat struct {
	layer *replication.Layer
	store session.Backend
}

type client struct {
	out    io.Writer
	mu     sync.Mutex
	seats  []*seat
	active int

	// Shared by every seat; nil when replays are off.
	recorder *game.ReplayRecorder
	replay   *game.Replay
}

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting client",
		zap.String("version", version),
		zap.String("transport", cfg.Transport.Kind),
		zap.String("session_backend", cfg.Session.Backend),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.Info("received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	}()

	ch, closeChannel, err := openChannel(cfg.Transport, logger.Named("channel"))
	if err != nil {
		logger.Fatal("failed to open room channel", zap.Error(err))
	}
	defer closeChannel()

	store, err := session.Open(ctx, session.Options{
		Backend:     cfg.Session.Backend,
		Path:        cfg.Session.Path,
		RedisAddr:   cfg.Session.RedisAddr,
		RedisPrefix: cfg.Session.RedisPrefix,
		PostgresDSN: cfg.Session.PostgresDSN,
	}, logger.Named("session"))
	if err != nil {
		logger.Fatal("failed to open session store", zap.Error(err))
	}

	count := 1
	if cfg.Transport.Kind == config.TransportBus && *seats > 1 {
		count = *seats
	}

	c := &client{out: os.Stdout}
	if cfg.Game.ReplayDir != "" {
		c.recorder = game.NewReplayRecorder(logger.Named("replay"), cfg.Game.ReplayDir)
	}
	var wg sync.WaitGroup
	for i := 0; i < count; i++ {
		backend := store
		if i > 0 {
			// Extra hot-seat players keep their session in memory only.
			backend = session.NewMemoryStore()
		}
		s := &seat{store: backend}
		s.layer = replication.New(layerOptions(cfg.Game, ch, backend, c.recorder, logger.Named(fmt.Sprintf("seat%d", i)), c.onChange(i)))
		c.seats = append(c.seats, s)

		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.layer.Run(ctx)
		}()
	}

	fmt.Fprintln(c.out, "Metal Empire. Введите help для списка команд.")
	c.repl(ctx, bufio.NewScanner(os.Stdin))

	cancel()
	wg.Wait()
	for _, s := range c.seats {
		if err := s.store.Close(); err != nil {
			logger.Warn("failed to close session store", zap.Error(err))
		}
	}
	logger.Info("client stopped")
}

func layerOptions(cfg config.GameConfig, ch channel.RoomChannel, store session.Store, recorder *game.ReplayRecorder, logger *zap.Logger, onChange func(replication.View)) replication.Options {
	return replication.Options{
		Logger:                 logger,
		Channel:                ch,
		Store:                  store,
		DiceDelay:              cfg.DiceDelay,
		JoinAnnounceDelay:      cfg.JoinAnnounceDelay,
		ReconnectAnnounceDelay: cfg.ReconnectAnnounceDelay,
		ReconnectTimeout:       cfg.ReconnectTimeout,
		MaxPlayers:             cfg.MaxPlayers,
		StartingMoney:          cfg.StartingMoney,
		ReplayDir:              cfg.ReplayDir,
		Recorder:               recorder,
		OnChange:               onChange,
	}
}

func openChannel(cfg config.TransportConfig, logger *zap.Logger) (channel.RoomChannel, func() error, error) {
	switch cfg.Kind {
	case config.TransportBus:
		bus := channel.NewBus(logger)
		return bus, bus.Close, nil
	case config.TransportNATS:
		nc, err := channel.DialNATS(cfg.NATSURL, logger)
		if err != nil {
			return nil, nil, err
		}
		return nc, nc.Close, nil
	case config.TransportWebSocket:
		ws, err := channel.NewWebSocket(cfg.RelayURL, logger)
		if err != nil {
			return nil, nil, err
		}
		return ws, func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unknown transport %q", cfg.Kind)
	}
}

func (c *client) onChange(index int) func(replication.View) {
	return func(v replication.View) {
		c.mu.Lock()
		defer c.mu.Unlock()
		if index != c.active {
			return
		}
		render(c.out, index, v)
	}
}

func (c *client) current() (int, *seat) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active, c.seats[c.active]
}

func (c *client) repl(ctx context.Context, in *bufio.Scanner) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		for in.Scan() {
			lines <- in.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			cmd, err := parseCommand(line)
			if err != nil {
				fmt.Fprintln(c.out, err)
				continue
			}
			if cmd.kind == cmdQuit {
				return
			}
			c.execute(cmd)
		}
	}
}

func (c *client) execute(cmd command) {
	index, s := c.current()
	switch cmd.kind {
	case cmdNone:
	case cmdHelp:
		fmt.Fprint(c.out, helpText)
	case cmdCreate:
		s.layer.CreateRoom(cmd.name)
	case cmdJoin:
		s.layer.JoinRoom(cmd.room, cmd.name)
	case cmdStart:
		s.layer.StartGame()
	case cmdIntent:
		s.layer.Dispatch(cmd.intent)
	case cmdLeave:
		s.layer.LeaveRoom()
	case cmdState:
		c.mu.Lock()
		render(c.out, index, s.layer.Snapshot())
		c.mu.Unlock()
	case cmdSeat:
		c.mu.Lock()
		defer c.mu.Unlock()
		if cmd.seat < 0 || cmd.seat >= len(c.seats) {
			fmt.Fprintf(c.out, "Нет места %d (доступно: %d)\n", cmd.seat, len(c.seats))
			return
		}
		c.active = cmd.seat
		render(c.out, cmd.seat, c.seats[cmd.seat].layer.Snapshot())
	case cmdReplay:
		c.openReplay(cmd.room)
	case cmdReplayNext:
		c.stepReplay(true)
	case cmdReplayPrev:
		c.stepReplay(false)
	}
}
