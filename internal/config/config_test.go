package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
database:
  url: postgres://localhost:5432/vampires
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "postgres://localhost:5432/vampires", cfg.Database.URL)
	assert.Equal(t, int32(4), cfg.Database.MaxConns)
	assert.Equal(t, time.Hour, cfg.Database.MaxConnLifetime)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.Equal(t, "config/combat_rates.json", cfg.Game.CombatRatesPath)
	assert.Equal(t, "onpoint-clash", cfg.Game.ContestedPolicy)
	assert.Equal(t, "oldest-first", cfg.Game.AttackOrder)
}

func TestLoadOverrides(t *testing.T) {
	path := writeConfig(t, `
database:
  url: postgres://db:5432/game
  max_conns: 16
logging:
  level: debug
  format: json
game:
  contested_policy: multiple-claims
  attack_order: newest-first
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, int32(16), cfg.Database.MaxConns)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "multiple-claims", cfg.Game.ContestedPolicy)
	assert.Equal(t, "newest-first", cfg.Game.AttackOrder)
}

func TestLoadMissingURL(t *testing.T) {
	path := writeConfig(t, `
logging:
  level: info
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database.url")
}

func TestLoadBadPolicy(t *testing.T) {
	path := writeConfig(t, `
database:
  url: postgres://localhost/db
game:
  contested_policy: winner-takes-all
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "contested_policy")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
