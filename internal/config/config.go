package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config is the top-level engine configuration.
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Game     GameConfig     `mapstructure:"game"`
}

// DatabaseConfig holds the PostgreSQL connection settings.
type DatabaseConfig struct {
	URL             string        `mapstructure:"url"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
}

// LoggingConfig controls the zap logger.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// GameConfig holds the cycle engine's tunables.
type GameConfig struct {
	// CombatRatesPath points at the JSON rate table. The file must
	// exist; its absence aborts the run before any phase starts.
	CombatRatesPath string `mapstructure:"combat_rates_path"`
	// ContestedPolicy selects the contested-district rule:
	// "onpoint-clash" (default) or "multiple-claims".
	ContestedPolicy string `mapstructure:"contested_policy"`
	// AttackOrder is "oldest-first" (default) or "newest-first".
	AttackOrder string `mapstructure:"attack_order"`
}

// Load reads configuration from the given file, with environment
// variables (prefix VAMPIRES_) overriding file values.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	v.SetDefault("database.max_conns", 4)
	v.SetDefault("database.min_conns", 1)
	v.SetDefault("database.max_conn_lifetime", time.Hour)
	v.SetDefault("database.connect_timeout", 10*time.Second)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("game.combat_rates_path", "config/combat_rates.json")
	v.SetDefault("game.contested_policy", "onpoint-clash")
	v.SetDefault("game.attack_order", "oldest-first")

	v.SetEnvPrefix("VAMPIRES")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("database.url is required")
	}
	switch c.Game.ContestedPolicy {
	case "onpoint-clash", "multiple-claims":
	default:
		return fmt.Errorf("game.contested_policy: unknown policy %q", c.Game.ContestedPolicy)
	}
	switch c.Game.AttackOrder {
	case "oldest-first", "newest-first":
	default:
		return fmt.Errorf("game.attack_order: unknown order %q", c.Game.AttackOrder)
	}
	return nil
}
