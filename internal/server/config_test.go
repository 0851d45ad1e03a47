package server

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dingxinghu/Scat31/internal/cpu"
)

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.hcl"))
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Server.Address)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Server.LogLevel)
	assert.Equal(t, 0, cfg.Server.TurnTimeoutSeconds)
	assert.Equal(t, "localhost:8080", cfg.GetServerAddress())
	require.NoError(t, cfg.Validate())
}

func TestLoadConfigParsesHCL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scat31.hcl")
	content := `
server {
  address              = "0.0.0.0"
  port                 = 9000
  log_level            = "debug"
  turn_timeout_seconds = 30
}

rules {
  starting_lives        = 5
  allow_knock_any_score = false
  knock_min_score       = 21
}

cpu {
  difficulty = "hard"
}

redis {
  addr = "localhost:6379"
  db   = 2
}
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "0.0.0.0:9000", cfg.GetServerAddress())
	assert.Equal(t, "debug", cfg.Server.LogLevel)
	assert.Equal(t, 30, cfg.Server.TurnTimeoutSeconds)

	rules := cfg.GameRules()
	assert.Equal(t, 5, rules.StartingLives)
	assert.False(t, rules.AllowKnockAnyScore)
	assert.Equal(t, 21, rules.KnockMinScore)
	assert.Equal(t, 30.5, rules.ThreeOfAKindValue, "unset fields keep defaults")

	assert.Equal(t, cpu.Hard, cfg.DefaultDifficulty())
	require.NotNil(t, cfg.Redis)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 2, cfg.Redis.DB)
}

func TestLoadConfigRejectsBadHCL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.hcl")
	require.NoError(t, os.WriteFile(path, []byte(`server { port = `), 0o644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Server.Port = 0
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Server.TurnTimeoutSeconds = -1
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.CPU = &CPUSettings{Difficulty: "brutal"}
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Server.LogLevel = "loud"
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Server.LogLevel = "warn"
	assert.NoError(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Redis = &RedisSettings{}
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Rules = &RulesConfig{StartingLives: -2}
	assert.NoError(t, cfg.Validate(), "non-positive overrides are ignored")
}

func TestDefaultDifficulty(t *testing.T) {
	assert.Equal(t, cpu.Medium, DefaultConfig().DefaultDifficulty())

	cfg := DefaultConfig()
	cfg.CPU = &CPUSettings{Difficulty: "easy"}
	assert.Equal(t, cpu.Easy, cfg.DefaultDifficulty())
}
