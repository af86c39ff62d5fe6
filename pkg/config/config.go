// Package config loads interlock settings from a YAML file, a .env file
// and INTERLOCK_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/chazu/interlock/pkg/module"
	"github.com/chazu/interlock/pkg/part"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "INTERLOCK_"

// Config is the complete configuration.
type Config struct {
	Module  ModuleConfig  `yaml:"module"`
	Export  ExportConfig  `yaml:"export"`
	Logging LoggingConfig `yaml:"logging"`
}

// ModuleConfig holds the geometry parameters, in millimeters.
type ModuleConfig struct {
	SizeX             float64 `yaml:"size_x" env:"SIZE_X"`
	SizeY             float64 `yaml:"size_y" env:"SIZE_Y"`
	SizeZ             float64 `yaml:"size_z" env:"SIZE_Z"`
	MagnetDiameter    float64 `yaml:"magnet_diameter" env:"MAGNET_DIAMETER"`
	MagnetDepth       float64 `yaml:"magnet_depth" env:"MAGNET_DEPTH"`
	PegDiameter       float64 `yaml:"peg_diameter" env:"PEG_DIAMETER"`
	PegLength         float64 `yaml:"peg_length" env:"PEG_LENGTH"`
	SecondaryDiameter float64 `yaml:"secondary_diameter" env:"SECONDARY_DIAMETER"`
	SecondaryDepth    float64 `yaml:"secondary_depth" env:"SECONDARY_DEPTH"`
	// SplitAt unset splits at half the block height.
	SplitAt   *float64 `yaml:"split_at" env:"SPLIT_AT"`
	Clearance float64  `yaml:"clearance" env:"CLEARANCE"`
}

// ExportConfig controls tessellation and output files.
type ExportConfig struct {
	OutDir    string `yaml:"out_dir" env:"OUT_DIR"`
	MeshCells int    `yaml:"mesh_cells" env:"MESH_CELLS"`
	LowerName string `yaml:"lower_name" env:"LOWER_NAME"`
	UpperName string `yaml:"upper_name" env:"UPPER_NAME"`
}

// LoggingConfig selects the log level and handler format.
type LoggingConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL"`
	Format string `yaml:"format" env:"LOG_FORMAT"` // text | json
}

// Default returns the built-in configuration.
func Default() *Config {
	p := module.DefaultParams()
	return &Config{
		Module: ModuleConfig{
			SizeX:             p.Dims.X,
			SizeY:             p.Dims.Y,
			SizeZ:             p.Dims.Z,
			MagnetDiameter:    p.Magnet.Diameter,
			MagnetDepth:       p.Magnet.Depth,
			PegDiameter:       p.Peg.Diameter,
			PegLength:         p.Peg.Length,
			SecondaryDiameter: p.Secondary.Diameter,
			SecondaryDepth:    p.Secondary.Depth,
			Clearance:         p.Clearance,
		},
		Export: ExportConfig{
			OutDir:    "./out",
			MeshCells: 128,
			LowerName: "module1",
			UpperName: "module2",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load builds a Config from the defaults, the YAML file at path (skipped
// when path is empty), the given .env files (".env" when none are given;
// missing files are ignored) and INTERLOCK_* environment variables.
func Load(path string, envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("environment overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks the non-geometric settings. Geometry is validated by
// module.Check so errors carry their construction kind.
func (c *Config) Validate() error {
	if c.Export.MeshCells <= 0 {
		return fmt.Errorf("export.mesh_cells must be positive, got %d", c.Export.MeshCells)
	}
	if c.Export.LowerName == "" || c.Export.UpperName == "" {
		return fmt.Errorf("export.lower_name and export.upper_name must be set")
	}
	if c.Export.LowerName == c.Export.UpperName {
		return fmt.Errorf("export.lower_name and export.upper_name must differ")
	}
	if _, err := ParseLevel(c.Logging.Level); err != nil {
		return err
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}
	return nil
}

// Params converts the module section into generation parameters.
func (c *Config) Params() module.Params {
	m := c.Module
	p := module.Params{
		Dims:      part.Dimensions{X: m.SizeX, Y: m.SizeY, Z: m.SizeZ},
		Magnet:    part.SocketSpec{Diameter: m.MagnetDiameter, Depth: m.MagnetDepth},
		Peg:       part.PegSpec{Diameter: m.PegDiameter, Length: m.PegLength},
		Secondary: part.SocketSpec{Diameter: m.SecondaryDiameter, Depth: m.SecondaryDepth},
		SplitAt:   m.SizeZ / 2,
		Clearance: m.Clearance,
	}
	if m.SplitAt != nil {
		p.SplitAt = *m.SplitAt
	}
	return p
}

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("logging.level: unknown level %q", s)
}
