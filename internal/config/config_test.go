package config

import (
	"testing"
	"time"

	"github.com/DoyleJ11/pixeliz-backend/internal/engine"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaults(t *testing.T, args ...string) *Config {
	t.Helper()
	cfg := &Config{}
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	Register(fs, cfg)
	require.NoError(t, fs.Parse(args))
	BindEnv(fs)
	return cfg
}

func TestDefaultsAreValid(t *testing.T) {
	cfg := defaults(t)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "0.0.0.0:3000", cfg.Addr())
	assert.Equal(t, engine.DefaultSchedule, cfg.ParsedSchedule())
	assert.Equal(t, 150*time.Millisecond, cfg.ShimmerInterval)
	assert.Equal(t, SourceAPI, cfg.SourceMode)
}

func TestEnvFillsUnsetFlags(t *testing.T) {
	t.Setenv("PIXELIZ_PORT", "9000")
	t.Setenv("PIXELIZ_SOURCE_MODE", "file")
	t.Setenv("PIXELIZ_ROUNDS_FILE", "rounds.yaml")
	t.Setenv("PIXELIZ_SCHEDULE", "4:2,16:3")

	cfg := defaults(t, "--port", "8081")
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 8081, cfg.Port, "command line wins over env")
	assert.Equal(t, SourceFile, cfg.SourceMode)
	assert.Equal(t, "rounds.yaml", cfg.RoundsFile)
	assert.Equal(t, engine.Schedule{{Resolution: 4, DurationSeconds: 2}, {Resolution: 16, DurationSeconds: 3}}, cfg.ParsedSchedule())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port", func(c *Config) { c.Port = 0 }},
		{"log level", func(c *Config) { c.LogLevel = "loud" }},
		{"schedule", func(c *Config) { c.Schedule = "4:0" }},
		{"shimmer", func(c *Config) { c.ShimmerInterval = 0 }},
		{"mode", func(c *Config) { c.SourceMode = "ftp" }},
		{"db without dsn", func(c *Config) { c.SourceMode = SourceDB }},
		{"file without path", func(c *Config) { c.SourceMode = SourceFile }},
		{"image side", func(c *Config) { c.ImageMaxSide = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaults(t)
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("expected %s to be rejected", tt.name)
			}
		})
	}
}
