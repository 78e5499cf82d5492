package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Editor  EditorConfig  `toml:"editor"`
	Train   TrainConfig   `toml:"train"`
	Viewer  ViewerConfig  `toml:"viewer"`
	Logging LoggingConfig `toml:"logging"`
}

type EditorConfig struct {
	Gauge            float64 `toml:"gauge"`
	ProjectionRadius float64 `toml:"projection_radius"`
	MinElevation     int     `toml:"min_elevation"`
	MaxElevation     int     `toml:"max_elevation"`
}

type TrainConfig struct {
	BogieOffsets []float64     `toml:"bogie_offsets"`
	TickRate     time.Duration `toml:"tick_rate"`
}

type ViewerConfig struct {
	BindAddress  string        `toml:"bind_address"`
	AllowOrigins []string      `toml:"allow_origins"`
	WriteTimeout time.Duration `toml:"write_timeout"`
	ReadTimeout  time.Duration `toml:"read_timeout"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := Defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

func Defaults() *Config {
	return &Config{
		Editor: EditorConfig{
			Gauge:            1.067,
			ProjectionRadius: 1.0,
			MinElevation:     0,
			MaxElevation:     4,
		},
		Train: TrainConfig{
			BogieOffsets: []float64{40, 10, 40, 10, 40},
			TickRate:     16 * time.Millisecond,
		},
		Viewer: ViewerConfig{
			BindAddress:  "127.0.0.1:8090",
			AllowOrigins: []string{"*"},
			WriteTimeout: 10 * time.Second,
			ReadTimeout:  60 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
