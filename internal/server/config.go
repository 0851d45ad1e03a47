package server

import (
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/rs/zerolog"

	"github.com/dingxinghu/Scat31/internal/cpu"
	"github.com/dingxinghu/Scat31/internal/game"
)

// Config represents the complete server configuration
type Config struct {
	Server ServerSettings `hcl:"server,block"`
	Rules  *RulesConfig   `hcl:"rules,block"`
	CPU    *CPUSettings   `hcl:"cpu,block"`
	Redis  *RedisSettings `hcl:"redis,block"`
}

// ServerSettings contains server-level configuration
type ServerSettings struct {
	Address  string `hcl:"address,optional"`
	Port     int    `hcl:"port,optional"`
	LogLevel string `hcl:"log_level,optional"`

	// TurnTimeoutSeconds is the idle timeout for human turns. Zero disables
	// the timer; an expired turn is auto-played (draw from stock, discard
	// the drawn card).
	TurnTimeoutSeconds int `hcl:"turn_timeout_seconds,optional"`
}

// RulesConfig overrides the default table rules for new rooms.
type RulesConfig struct {
	StartingLives      int      `hcl:"starting_lives,optional"`
	AllowKnockAnyScore *bool    `hcl:"allow_knock_any_score,optional"`
	KnockMinScore      int      `hcl:"knock_min_score,optional"`
	ThreeOfAKindValue  *float64 `hcl:"three_of_a_kind_value,optional"`
}

// CPUSettings configures the default automated-opponent behaviour.
type CPUSettings struct {
	Difficulty string `hcl:"difficulty,optional"`
}

// RedisSettings enables the redis-backed leaderboard when present.
type RedisSettings struct {
	Addr     string `hcl:"addr"`
	Password string `hcl:"password,optional"`
	DB       int    `hcl:"db,optional"`
}

// DefaultConfig returns the default server configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerSettings{
			Address:            "localhost",
			Port:               8080,
			LogLevel:           "info",
			TurnTimeoutSeconds: 0,
		},
	}
}

// LoadConfig loads server configuration from an HCL file, falling back to
// defaults when the file does not exist.
func LoadConfig(filename string) (*Config, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var config Config
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	// Apply defaults for missing values
	if config.Server.Address == "" {
		config.Server.Address = "localhost"
	}
	if config.Server.Port == 0 {
		config.Server.Port = 8080
	}
	if config.Server.LogLevel == "" {
		config.Server.LogLevel = "info"
	}

	return &config, nil
}

// Validate validates the server configuration
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if c.Server.TurnTimeoutSeconds < 0 {
		return fmt.Errorf("turn timeout must not be negative")
	}
	if c.Server.LogLevel != "" {
		if _, err := zerolog.ParseLevel(c.Server.LogLevel); err != nil {
			return fmt.Errorf("invalid log level %q", c.Server.LogLevel)
		}
	}
	if c.CPU != nil && c.CPU.Difficulty != "" {
		if _, err := cpu.ParseDifficulty(c.CPU.Difficulty); err != nil {
			return err
		}
	}
	if c.Redis != nil && c.Redis.Addr == "" {
		return fmt.Errorf("redis block requires an addr")
	}
	if err := c.GameRules().Validate(); err != nil {
		return fmt.Errorf("rules: %w", err)
	}
	return nil
}

// GetServerAddress returns the full server address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}

// GameRules returns the default rules for new rooms, with any configured
// overrides applied.
func (c *Config) GameRules() game.Rules {
	rules := game.DefaultRules()
	if c.Rules == nil {
		return rules
	}
	if c.Rules.StartingLives > 0 {
		rules.StartingLives = c.Rules.StartingLives
	}
	if c.Rules.AllowKnockAnyScore != nil {
		rules.AllowKnockAnyScore = *c.Rules.AllowKnockAnyScore
	}
	if c.Rules.KnockMinScore > 0 {
		rules.KnockMinScore = c.Rules.KnockMinScore
	}
	if c.Rules.ThreeOfAKindValue != nil {
		rules.ThreeOfAKindValue = *c.Rules.ThreeOfAKindValue
	}
	return rules
}

// DefaultDifficulty returns the configured CPU difficulty tier.
func (c *Config) DefaultDifficulty() cpu.Difficulty {
	if c.CPU == nil {
		return cpu.Medium
	}
	d, err := cpu.ParseDifficulty(c.CPU.Difficulty)
	if err != nil {
		return cpu.Medium
	}
	return d
}
