package config

import (
	"encoding/json"
	"fmt"
	"os"
	"runtime"

	"mcf-skeleton/internal/mcf"
)

// Config holds output settings and the contraction parameters.
type Config struct {
	OutputDir string   `json:"output_dir"`
	Shapes    []string `json:"shapes"`
	Workers   int      `json:"workers"`

	// Preview settings
	Preview     bool `json:"preview"`
	PreviewSize int  `json:"preview_size"`
	Supersample int  `json:"supersample"`

	// Params starts from mcf.DefaultParams; MaxTriangleAngle is in radians.
	Params mcf.Params `json:"params"`
}

// Default returns a Config with the contraction defaults and nothing else set.
func Default() Config {
	return Config{Params: mcf.DefaultParams()}
}

// Load reads a JSON config file. Fields not set in the file keep the values
// of Default.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg := Default()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// Resolve applies CLI flags and fills remaining empty fields.
// CLI flags take priority when non-zero/non-empty.
func (c *Config) Resolve(flags Flags) {
	if flags.OutputDir != "" {
		c.OutputDir = flags.OutputDir
	}
	if flags.Workers > 0 {
		c.Workers = flags.Workers
	}
	if flags.Shape != "" {
		c.Shapes = []string{flags.Shape}
	}
	if flags.Preview {
		c.Preview = true
	}
	if flags.MaxIterations > 0 {
		c.Params.MaxIterations = flags.MaxIterations
	}

	if c.OutputDir == "" {
		c.OutputDir = "skeletons"
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.PreviewSize <= 0 {
		c.PreviewSize = 256
	}
	if c.Supersample <= 0 {
		c.Supersample = 2
	}
}

// Flags holds CLI flag values that override config file settings.
type Flags struct {
	OutputDir     string
	Shape         string
	Workers       int
	Preview       bool
	MaxIterations int
}
