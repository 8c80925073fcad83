// Package inkframe exports SVG diagrams to standalone artifacts: vector
// files, raster images, print documents and clipboard payloads that
// reproduce what the interactive viewer shows.
package inkframe

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/inkframe/inkframe/api"
)

// Duration wraps time.Duration so config files can use strings like "10s".
type Duration time.Duration

// Duration returns the wrapped value.
func (d Duration) Duration() time.Duration { return time.Duration(d) }

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Config is the read-only configuration shared across export calls. No
// pipeline stage mutates it.
type Config struct {
	// HighResScale is the requested render scale on standard devices.
	HighResScale float64 `yaml:"high_res_scale"`
	// MobileScale is the requested render scale on compact devices, kept
	// lower to control file size.
	MobileScale float64 `yaml:"mobile_scale"`
	// PixelBudget caps outputW*outputH; plans degrade resolution rather than
	// exceed it.
	PixelBudget int64 `yaml:"pixel_budget"`
	// MinimumPadding is the absolute padding floor in scene units; half of it
	// is guaranteed around small diagrams.
	MinimumPadding float64 `yaml:"minimum_padding"`
	// JPEGQuality is the fixed quality for the compressed raster format.
	JPEGQuality int `yaml:"jpeg_quality"`
	// CapabilityTimeout bounds document-generator acquisition.
	CapabilityTimeout Duration `yaml:"capability_timeout"`
	// PreferredGenerator names the document generator to try first.
	PreferredGenerator string `yaml:"preferred_generator"`
	// EnableBrowserGenerator registers the headless-browser document
	// generator, which may download a browser on first use.
	EnableBrowserGenerator bool `yaml:"enable_browser_generator"`
	// Theme is the resolved theme triple applied to non-transparent exports.
	Theme api.Theme `yaml:"theme"`
	// FallbackName seeds timestamped filenames for untitled diagrams.
	FallbackName string `yaml:"fallback_name"`
	// OutputDir receives downloaded artifacts.
	OutputDir string `yaml:"output_dir"`
}

// DefaultConfig returns the operator defaults.
func DefaultConfig() Config {
	return Config{
		HighResScale:      3,
		MobileScale:       2,
		PixelBudget:       25_000_000,
		MinimumPadding:    20,
		JPEGQuality:       90,
		CapabilityTimeout: Duration(10 * time.Second),
		Theme: api.Theme{
			Background: "#ffffff",
			TextColor:  "#333333",
		},
		FallbackName: "diagram",
		OutputDir:    ".",
	}
}

// LoadConfig reads a YAML config file over the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg.withDefaults(), nil
}

// withDefaults backfills zero values so a sparse config file stays usable.
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.HighResScale <= 0 {
		c.HighResScale = def.HighResScale
	}
	if c.MobileScale <= 0 {
		c.MobileScale = def.MobileScale
	}
	if c.PixelBudget <= 0 {
		c.PixelBudget = def.PixelBudget
	}
	if c.MinimumPadding < 0 {
		c.MinimumPadding = def.MinimumPadding
	}
	if c.JPEGQuality <= 0 || c.JPEGQuality > 100 {
		c.JPEGQuality = def.JPEGQuality
	}
	if c.CapabilityTimeout <= 0 {
		c.CapabilityTimeout = def.CapabilityTimeout
	}
	if c.Theme.Background == "" {
		c.Theme.Background = def.Theme.Background
	}
	if c.Theme.TextColor == "" {
		c.Theme.TextColor = def.Theme.TextColor
	}
	if c.FallbackName == "" {
		c.FallbackName = def.FallbackName
	}
	if c.OutputDir == "" {
		c.OutputDir = def.OutputDir
	}
	return c
}
