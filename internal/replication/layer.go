// Package replication keeps a room of participants in agreement about one
// game. The host runs the engine and broadcasts every resulting state; guests
// send intents and mirror what the host publishes.
package replication

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Dimasiktut/monopoly-metal-empire/internal/channel"
	"github.com/Dimasiktut/monopoly-metal-empire/internal/game"
	"github.com/Dimasiktut/monopoly-metal-empire/internal/protocol"
	"github.com/Dimasiktut/monopoly-metal-empire/internal/session"
	"go.uber.org/zap"
)

const (
	DefaultJoinAnnounceDelay      = 100 * time.Millisecond
	DefaultReconnectAnnounceDelay = 250 * time.Millisecond
	DefaultReconnectTimeout       = 5 * time.Second
	DefaultMaxPlayers             = 4
	DefaultStartingMoney          = 1500

	storeTimeout   = 2 * time.Second
	publishTimeout = 5 * time.Second
)

// ErrAlreadyRunning is returned when Run is called on a layer that is running.
var ErrAlreadyRunning = errors.New("replication layer already running")

// Options configures a Layer. Zero durations and counts take the defaults
// above, except DiceDelay where zero resolves movement immediately.
type Options struct {
	Logger  *zap.Logger
	Channel channel.RoomChannel
	Store   session.Store
	// Roller feeds the host's engine. Nil means fair random dice.
	Roller game.Roller

	DiceDelay              time.Duration
	JoinAnnounceDelay      time.Duration
	ReconnectAnnounceDelay time.Duration
	ReconnectTimeout       time.Duration
	MaxPlayers             int
	StartingMoney          int

	// ReplayDir enables replay recording on the host when set.
	ReplayDir string
	// Recorder, when set, is used instead of one built from ReplayDir, so a
	// client can see which rooms are still being recorded.
	Recorder *game.ReplayRecorder

	// OnChange is called from the event loop after every change. It must not
	// block or call back into the layer synchronously.
	OnChange func(View)
}

// Layer is one participant's replication state machine. All of its state is
// owned by the goroutine running Run; public methods only enqueue work.
type Layer struct {
	logger   *zap.Logger
	ch       channel.RoomChannel
	store    session.Store
	engine   *game.Engine
	recorder *game.ReplayRecorder
	onChange func(View)

	diceDelay              time.Duration
	joinAnnounceDelay      time.Duration
	reconnectAnnounceDelay time.Duration
	reconnectTimeout       time.Duration
	maxPlayers             int
	startingMoney          int

	running atomic.Bool
	queueMu sync.Mutex
	queue   []func()
	wake    chan struct{}

	viewMu  sync.RWMutex
	current View

	// Owned by the event loop.
	ctx          context.Context
	roomID       string
	playerID     string
	isHost       bool
	hostID       string
	members      []protocol.PlayerProfile
	started      bool
	reconnecting bool
	joining      bool
	state        *game.State
	confirmation *game.Confirmation
	seq          uint64
	errMsg       string
	replaySaved  bool
	sub          channel.Subscription
	subGen       uint64
	timerGen     uint64
	timerID      uint64
	timers       map[uint64]*time.Timer
}

// New creates a layer. Nothing happens until Run is called.
func New(opts Options) *Layer {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Store == nil {
		opts.Store = session.NewMemoryStore()
	}
	if opts.JoinAnnounceDelay <= 0 {
		opts.JoinAnnounceDelay = DefaultJoinAnnounceDelay
	}
	if opts.ReconnectAnnounceDelay <= 0 {
		opts.ReconnectAnnounceDelay = DefaultReconnectAnnounceDelay
	}
	if opts.ReconnectTimeout <= 0 {
		opts.ReconnectTimeout = DefaultReconnectTimeout
	}
	if opts.MaxPlayers <= 0 {
		opts.MaxPlayers = DefaultMaxPlayers
	}
	if opts.StartingMoney <= 0 {
		opts.StartingMoney = DefaultStartingMoney
	}

	l := &Layer{
		logger:                 logger,
		ch:                     opts.Channel,
		store:                  opts.Store,
		engine:                 game.NewEngine(logger.Named("engine"), opts.Roller),
		onChange:               opts.OnChange,
		diceDelay:              opts.DiceDelay,
		joinAnnounceDelay:      opts.JoinAnnounceDelay,
		reconnectAnnounceDelay: opts.ReconnectAnnounceDelay,
		reconnectTimeout:       opts.ReconnectTimeout,
		maxPlayers:             opts.MaxPlayers,
		startingMoney:          opts.StartingMoney,
		wake:                   make(chan struct{}, 1),
		ctx:                    context.Background(),
		timers:                 make(map[uint64]*time.Timer),
	}
	switch {
	case opts.Recorder != nil:
		l.recorder = opts.Recorder
	case opts.ReplayDir != "":
		l.recorder = game.NewReplayRecorder(logger.Named("replay"), opts.ReplayDir)
	}
	return l
}

// Run restores any persisted session and then processes work until ctx is
// cancelled. The session survives cancellation so a later Run reconnects.
func (l *Layer) Run(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer l.running.Store(false)

	l.ctx = ctx
	l.restore()
	l.publishView()

	for {
		select {
		case <-ctx.Done():
			l.shutdown()
			return ctx.Err()
		case <-l.wake:
			for _, fn := range l.drain() {
				fn()
			}
		}
	}
}

// Snapshot returns the latest view.
func (l *Layer) Snapshot() View {
	l.viewMu.RLock()
	v := l.current
	l.viewMu.RUnlock()

	v.Members = append([]protocol.PlayerProfile(nil), v.Members...)
	v.State = v.State.Clone()
	if v.Confirmation != nil {
		c := *v.Confirmation
		v.Confirmation = &c
	}
	return v
}

// CreateRoom opens a new room with the caller as host.
func (l *Layer) CreateRoom(name string) {
	l.post(func() { l.createRoom(name) })
}

// JoinRoom asks the host of roomID to admit the caller.
func (l *Layer) JoinRoom(roomID, name string) {
	l.post(func() { l.joinRoom(roomID, name) })
}

// StartGame deals the game to the current members. Host only.
func (l *Layer) StartGame() {
	l.post(l.startGame)
}

// SendGameAction forwards intent to the host. Guest only.
func (l *Layer) SendGameAction(intent protocol.Intent) {
	l.post(func() { l.sendGameAction(intent) })
}

// HostAction applies intent on behalf of the host's own player.
func (l *Layer) HostAction(intent protocol.Intent) {
	l.post(func() {
		if !l.isHost {
			l.logger.Debug("ignoring host action from guest", zap.String("action", intent.Action()))
			return
		}
		l.applyIntent(l.playerID, intent)
	})
}

// Dispatch routes intent by role.
func (l *Layer) Dispatch(intent protocol.Intent) {
	l.post(func() {
		if l.isHost {
			l.applyIntent(l.playerID, intent)
			return
		}
		l.sendGameAction(intent)
	})
}

// LeaveRoom tells the room the caller is leaving and forgets the session.
func (l *Layer) LeaveRoom() {
	l.post(l.leaveRoom)
}

func (l *Layer) post(fn func()) {
	l.queueMu.Lock()
	l.queue = append(l.queue, fn)
	l.queueMu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

func (l *Layer) drain() []func() {
	l.queueMu.Lock()
	defer l.queueMu.Unlock()

	work := l.queue
	l.queue = nil
	return work
}

// after schedules fn on the event loop. A timer forgets itself once it
// fires; firings from before the last cancelTimers are dropped.
func (l *Layer) after(d time.Duration, fn func()) {
	gen := l.timerGen
	l.timerID++
	id := l.timerID
	l.timers[id] = time.AfterFunc(d, func() {
		l.post(func() {
			delete(l.timers, id)
			if gen != l.timerGen {
				return
			}
			fn()
		})
	})
}

func (l *Layer) cancelTimers() {
	for _, t := range l.timers {
		t.Stop()
	}
	l.timers = make(map[uint64]*time.Timer)
	l.timerGen++
}

func (l *Layer) subscribe(roomID string) error {
	if l.sub != nil {
		l.unsubscribe()
	}
	l.subGen++
	gen := l.subGen
	sub, err := l.ch.Subscribe(roomID, func(data []byte) {
		l.post(func() {
			if gen != l.subGen {
				return
			}
			l.handleFrame(data)
		})
	})
	if err != nil {
		return err
	}
	l.sub = sub
	return nil
}

func (l *Layer) unsubscribe() {
	if l.sub == nil {
		return
	}
	if err := l.sub.Close(); err != nil && !errors.Is(err, channel.ErrClosed) {
		l.logger.Warn("failed to close room subscription", zap.String("room_id", l.roomID), zap.Error(err))
	}
	l.sub = nil
	l.subGen++
}

func (l *Layer) publish(kind protocol.MessageKind, payload any) {
	data, err := protocol.Encode(kind, l.playerID, payload)
	if err != nil {
		l.logger.Error("failed to encode message", zap.String("type", string(kind)), zap.Error(err))
		return
	}
	ctx, cancel := context.WithTimeout(l.ctx, publishTimeout)
	defer cancel()

	if err := l.ch.Publish(ctx, l.roomID, data); err != nil {
		l.logger.Warn("failed to publish message",
			zap.String("room_id", l.roomID),
			zap.String("type", string(kind)),
			zap.Error(err),
		)
		return
	}
	l.logger.Debug("published message", zap.String("room_id", l.roomID), zap.String("type", string(kind)))
}

func (l *Layer) handleFrame(data []byte) {
	env, err := protocol.Decode(data)
	if err != nil {
		l.logger.Debug("ignoring undecodable frame", zap.Error(err))
		return
	}
	if env.From != "" && env.From == l.playerID {
		return
	}
	if l.isHost {
		l.handleAsHost(env)
	} else {
		l.handleAsGuest(env)
	}
}

// reset returns to the lobby and keeps only the error message.
func (l *Layer) reset(errMsg string) {
	l.cancelTimers()
	l.unsubscribe()
	if l.recorder != nil && l.isHost && l.roomID != "" {
		l.recorder.ClearReplay(l.roomID)
	}
	l.roomID = ""
	l.playerID = ""
	l.isHost = false
	l.hostID = ""
	l.members = nil
	l.started = false
	l.reconnecting = false
	l.joining = false
	l.state = nil
	l.confirmation = nil
	l.seq = 0
	l.replaySaved = false
	l.engine.Initialize(nil)
	l.errMsg = errMsg
}

// abandon forgets the persisted session and drops to the lobby with errMsg.
func (l *Layer) abandon(errMsg string) {
	l.clearPersisted()
	l.reset(errMsg)
	l.publishView()
}

func (l *Layer) leaveRoom() {
	if l.roomID == "" {
		l.errMsg = ""
		l.publishView()
		return
	}
	l.publish(protocol.KindPlayerLeave, protocol.PlayerLeave{PlayerID: l.playerID})
	l.logger.Info("left room", zap.String("room_id", l.roomID), zap.String("player_id", l.playerID))
	l.abandon("")
}

func (l *Layer) shutdown() {
	l.cancelTimers()
	l.unsubscribe()
	l.logger.Debug("replication layer stopped", zap.String("room_id", l.roomID))
}

func (l *Layer) memberIndex(id string) int {
	for i, m := range l.members {
		if m.ID == id {
			return i
		}
	}
	return -1
}
