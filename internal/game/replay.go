package game

import (
	"compress/gzip"
	"encoding/gob"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
)

const replayVersion = 1

// Replay is a recorded room: every state the host broadcast, in order.
type Replay struct {
	RoomID       string
	States       []*State
	CurrentIndex int
	mu           sync.RWMutex
}

// NewReplay creates an empty replay for roomID.
func NewReplay(roomID string) *Replay {
	return &Replay{
		RoomID: roomID,
		States: make([]*State, 0),
	}
}

// RecordState appends a copy of state.
func (r *Replay) RecordState(state *State) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.States = append(r.States, state.Clone())
}

// Start rewinds playback and returns the first state, or nil when empty.
func (r *Replay) Start() *State {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.CurrentIndex = 0
	if len(r.States) == 0 {
		return nil
	}
	return r.States[0]
}

// Next advances the cursor and returns that state. At the last state it
// returns nil and the cursor stays.
func (r *Replay) Next() *State {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.CurrentIndex+1 < len(r.States) {
		r.CurrentIndex++
		return r.States[r.CurrentIndex]
	}
	return nil
}

// Previous steps the cursor back and returns that state, or nil at the first.
func (r *Replay) Previous() *State {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.CurrentIndex > 0 && r.CurrentIndex <= len(r.States) {
		r.CurrentIndex--
		return r.States[r.CurrentIndex]
	}
	return nil
}

// Size returns the number of recorded states.
func (r *Replay) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.States)
}

// StateAt returns the state at index, or nil when out of range.
func (r *Replay) StateAt(index int) *State {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if index >= 0 && index < len(r.States) {
		return r.States[index]
	}
	return nil
}

// SaveToFile writes the replay as gzip-compressed gob to <directory>/<roomID>.replay.
func (r *Replay) SaveToFile(directory string) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if err := os.MkdirAll(directory, 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	filename := filepath.Join(directory, fmt.Sprintf("%s.replay", r.RoomID))
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	if err := r.encode(file); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close file: %w", err)
	}
	return nil
}

// encode writes the metadata and states through gzip. The gzip footer is
// only written by Close, so its error matters.
func (r *Replay) encode(w io.Writer) error {
	gzipWriter := gzip.NewWriter(w)
	encoder := gob.NewEncoder(gzipWriter)

	metadata := replayMetadata{
		RoomID:     r.RoomID,
		Timestamp:  time.Now(),
		Version:    replayVersion,
		StateCount: len(r.States),
	}
	if err := encoder.Encode(&metadata); err != nil {
		gzipWriter.Close()
		return fmt.Errorf("failed to encode metadata: %w", err)
	}

	for i, state := range r.States {
		if err := encoder.Encode(state); err != nil {
			gzipWriter.Close()
			return fmt.Errorf("failed to encode state %d: %w", i, err)
		}
	}

	if err := gzipWriter.Close(); err != nil {
		return fmt.Errorf("failed to finalize replay: %w", err)
	}
	return nil
}

// LoadReplayFromFile reads a replay written by SaveToFile.
func LoadReplayFromFile(directory, roomID string) (*Replay, error) {
	filename := filepath.Join(directory, fmt.Sprintf("%s.replay", roomID))

	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	gzipReader, err := gzip.NewReader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gzipReader.Close()

	decoder := gob.NewDecoder(gzipReader)

	var metadata replayMetadata
	if err := decoder.Decode(&metadata); err != nil {
		return nil, fmt.Errorf("failed to decode metadata: %w", err)
	}
	if metadata.Version != replayVersion {
		return nil, fmt.Errorf("unsupported replay version: %d", metadata.Version)
	}

	replay := NewReplay(metadata.RoomID)
	for i := 0; i < metadata.StateCount; i++ {
		var state State
		if err := decoder.Decode(&state); err != nil {
			return nil, fmt.Errorf("failed to decode state %d: %w", i, err)
		}
		replay.States = append(replay.States, &state)
	}

	return replay, nil
}

type replayMetadata struct {
	RoomID     string
	Timestamp  time.Time
	Version    int
	StateCount int
}

// ReplayRecorder keeps one in-memory replay per room until it is saved.
type ReplayRecorder struct {
	logger  *zap.Logger
	mu      sync.Mutex
	replays map[string]*Replay
	saveDir string
}

// NewReplayRecorder creates a recorder that writes into saveDir.
func NewReplayRecorder(logger *zap.Logger, saveDir string) *ReplayRecorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReplayRecorder{
		logger:  logger,
		replays: make(map[string]*Replay),
		saveDir: saveDir,
	}
}

// StartRecording begins a fresh replay for roomID, discarding any earlier one.
func (rr *ReplayRecorder) StartRecording(roomID string) {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	rr.replays[roomID] = NewReplay(roomID)
	rr.logger.Info("started replay recording", zap.String("room_id", roomID))
}

// RecordState appends state to roomID's replay, starting one if needed.
func (rr *ReplayRecorder) RecordState(roomID string, state *State) {
	rr.mu.Lock()
	replay, ok := rr.replays[roomID]
	if !ok {
		replay = NewReplay(roomID)
		rr.replays[roomID] = replay
	}
	rr.mu.Unlock()

	replay.RecordState(state)
	rr.logger.Debug("recorded replay state",
		zap.String("room_id", roomID),
		zap.Int("state_count", replay.Size()),
	)
}

// IsRecording reports whether roomID has an unsaved replay.
func (rr *ReplayRecorder) IsRecording(roomID string) bool {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	_, ok := rr.replays[roomID]
	return ok
}

// SaveReplay flushes roomID's replay to disk and forgets it.
func (rr *ReplayRecorder) SaveReplay(roomID string) error {
	rr.mu.Lock()
	replay, ok := rr.replays[roomID]
	if !ok {
		rr.mu.Unlock()
		return fmt.Errorf("no replay found for room %s", roomID)
	}
	delete(rr.replays, roomID)
	rr.mu.Unlock()

	if err := replay.SaveToFile(rr.saveDir); err != nil {
		return fmt.Errorf("failed to save replay: %w", err)
	}

	rr.logger.Info("saved replay to disk",
		zap.String("room_id", roomID),
		zap.Int("state_count", replay.Size()),
		zap.String("directory", rr.saveDir),
	)
	return nil
}

// LoadReplay reads roomID's replay back from disk.
func (rr *ReplayRecorder) LoadReplay(roomID string) (*Replay, error) {
	return LoadReplayFromFile(rr.saveDir, roomID)
}

// ClearReplay drops roomID's replay without saving it.
func (rr *ReplayRecorder) ClearReplay(roomID string) {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	delete(rr.replays, roomID)
}
