package atomgame

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/atomicprogress/atomgame/atomgame/database"
	"github.com/pelletier/go-toml/v2"
)

func LoadConfig(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config: %w", err)
	}
	defer file.Close()

	cfg := DefaultConfig()
	if err = toml.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// DefaultConfig returns the configuration used when a field is absent from
// the config file.
func DefaultConfig() Config {
	return Config{
		Game: GameConfig{
			MinAccrualInterval: time.Second,
			OfflineCap:         24 * time.Hour,
		},
		Sweep: SweepConfig{
			AccrualInterval:       5 * time.Minute,
			BoosterExpiryInterval: 15 * time.Minute,
		},
	}
}

type Config struct {
	Log   LogConfig         `toml:"log"`
	DB    database.DBConfig `toml:"db"`
	Game  GameConfig        `toml:"game"`
	Sweep SweepConfig       `toml:"sweep"`
}

type LogConfig struct {
	Level slog.Level `toml:"level"`
}

// GameConfig tunes the accrual engine.
type GameConfig struct {
	// Elapsed time below this is left to accumulate instead of being
	// settled, so rapid calls do not write zero-gain checkpoints.
	MinAccrualInterval time.Duration `toml:"min_accrual_interval"`
	// Offline production stops counting past this horizon.
	OfflineCap time.Duration `toml:"offline_cap"`
}

// SweepConfig tunes the background jobs.
type SweepConfig struct {
	AccrualInterval       time.Duration `toml:"accrual_interval"`
	BoosterExpiryInterval time.Duration `toml:"booster_expiry_interval"`
}
