package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, TransportWebSocket, cfg.Transport.Kind)
	assert.Equal(t, "bolt", cfg.Session.Backend)
	assert.Equal(t, time.Second, cfg.Game.DiceDelay)
	assert.Equal(t, 100*time.Millisecond, cfg.Game.JoinAnnounceDelay)
	assert.Equal(t, 250*time.Millisecond, cfg.Game.ReconnectAnnounceDelay)
	assert.Equal(t, 5*time.Second, cfg.Game.ReconnectTimeout)
	assert.Equal(t, 4, cfg.Game.MaxPlayers)
	assert.Equal(t, 1500, cfg.Game.StartingMoney)
	assert.Equal(t, ":8090", cfg.Relay.Address)
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
logging:
  level: debug
  format: json
transport:
  kind: nats
game:
  dice_delay: 0s
  max_players: 3
relay:
  allowed_origins:
    - https://empire.example
`), 0o644))

	t.Setenv("EMPIRE_SESSION_BACKEND", "memory")
	t.Setenv("EMPIRE_GAME_REPLAY_DIR", "/tmp/replays")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, TransportNATS, cfg.Transport.Kind)
	assert.Zero(t, cfg.Game.DiceDelay)
	assert.Equal(t, 3, cfg.Game.MaxPlayers)
	assert.Equal(t, []string{"https://empire.example"}, cfg.Relay.AllowedOrigins)
	assert.Equal(t, "memory", cfg.Session.Backend)
	assert.Equal(t, "/tmp/replays", cfg.Game.ReplayDir)
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging: [unclosed"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadRejectsOversizedRoom(t *testing.T) {
	t.Setenv("EMPIRE_GAME_MAX_PLAYERS", "6")

	_, err := Load("")
	assert.ErrorContains(t, err, "game.max_players")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Logging:   LoggingConfig{Level: "info", Format: "console"},
			Transport: TransportConfig{Kind: TransportBus},
			Session:   SessionConfig{Backend: "memory"},
			Game: GameConfig{
				MaxPlayers:       4,
				StartingMoney:    1500,
				ReconnectTimeout: 5 * time.Second,
			},
		}
	}
	require.NoError(t, valid().Validate())

	cases := map[string]func(c *Config){
		"transport":      func(c *Config) { c.Transport.Kind = "carrier-pigeon" },
		"backend":        func(c *Config) { c.Session.Backend = "floppy" },
		"bolt path":      func(c *Config) { c.Session.Backend = "bolt"; c.Session.Path = "" },
		"capacity":       func(c *Config) { c.Game.MaxPlayers = 1 },
		"capacity above": func(c *Config) { c.Game.MaxPlayers = 5 },
		"money":          func(c *Config) { c.Game.StartingMoney = 0 },
		"dice delay":     func(c *Config) { c.Game.DiceDelay = -time.Second },
		"reconnect":      func(c *Config) { c.Game.ReconnectTimeout = 0 },
		"log format":     func(c *Config) { c.Logging.Format = "xml" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := valid()
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
