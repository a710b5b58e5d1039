package config

import (
	"log/slog"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/mathviz/mathviz/backend-go/internal/engine"
	"github.com/mathviz/mathviz/backend-go/internal/viewport"
)

type Config struct {
	Port             int           `envconfig:"PORT" default:"8080"`
	DatabaseURL      string        `envconfig:"DATABASE_URL" default:"sqlite://./data/mathviz.db"`
	JWTSecret        string        `envconfig:"JWT_SECRET" default:"dev-secret-change-in-production"`
	AllowedOrigins   string        `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:5173,http://localhost:3000"`
	LogLevel         string        `envconfig:"LOG_LEVEL" default:"info"`
	CanvasWidth      float64       `envconfig:"CANVAS_WIDTH" default:"1200"`
	CanvasHeight     float64       `envconfig:"CANVAS_HEIGHT" default:"800"`
	BaseGridScale    float64       `envconfig:"BASE_GRID_SCALE" default:"50"`
	SnapToGrid       bool          `envconfig:"SNAP_TO_GRID" default:"false"`
	AutosaveInterval time.Duration `envconfig:"AUTOSAVE_INTERVAL" default:"30s"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Origins splits AllowedOrigins on commas.
func (c *Config) Origins() []string {
	var out []string
	for o := range strings.SplitSeq(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// Level maps LogLevel to a slog level, defaulting to info.
func (c *Config) Level() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// EngineOptions returns engine options for a canvas in the given area.
func (c *Config) EngineOptions() engine.Options {
	opts := engine.DefaultOptions()
	opts.Canvas = viewport.Size{Width: c.CanvasWidth, Height: c.CanvasHeight}
	opts.BaseGridScale = c.BaseGridScale
	opts.SnapToGrid = c.SnapToGrid
	return opts
}
