package config

import (
	"fmt"

	"github.com/kbukum/framegraph/debugserver"
	"github.com/kbukum/framegraph/logger"
	"github.com/kbukum/framegraph/validation"
)

// AppConfig is the top-level configuration of the framegraph binary.
type AppConfig struct {
	Name        string          `yaml:"name" mapstructure:"name"`
	Environment string          `yaml:"environment" mapstructure:"environment" validate:"oneof=development staging production"`
	Version     string          `yaml:"version" mapstructure:"version"`
	Logging     logger.Config   `yaml:"logging" mapstructure:"logging"`
	Render      RenderConfig    `yaml:"render" mapstructure:"render"`
	Debug       DebugConfig     `yaml:"debug" mapstructure:"debug"`
	Telemetry   TelemetryConfig `yaml:"telemetry" mapstructure:"telemetry"`
}

// RenderConfig selects and drives a pipeline.
type RenderConfig struct {
	// Pipeline names a registered pipeline factory.
	Pipeline string `yaml:"pipeline" mapstructure:"pipeline" validate:"required"`
	// Frames bounds the run; 0 renders until cancelled.
	Frames     int     `yaml:"frames" mapstructure:"frames" validate:"gte=0"`
	FrameRate  int     `yaml:"frame_rate" mapstructure:"frame_rate" validate:"gte=1,lte=1000"`
	Width      int     `yaml:"width" mapstructure:"width" validate:"gt=0"`
	Height     int     `yaml:"height" mapstructure:"height" validate:"gt=0"`
	PixelRatio float64 `yaml:"pixel_ratio" mapstructure:"pixel_ratio" validate:"gt=0"`
	Stereo     bool    `yaml:"stereo" mapstructure:"stereo"`
	// Profile is loaded from ProfileDir and applied before the first frame.
	Profile    string `yaml:"profile" mapstructure:"profile"`
	ProfileDir string `yaml:"profile_dir" mapstructure:"profile_dir"`
	// Set holds "path=value" overrides applied after the profile.
	Set []string `yaml:"set" mapstructure:"set"`
}

// DebugConfig configures the HTTP configuration surface. Every server
// setting lives in the embedded debugserver.Config under debug.*.
type DebugConfig struct {
	Enabled            bool `yaml:"enabled" mapstructure:"enabled"`
	debugserver.Config `yaml:",inline" mapstructure:",squash"`
}

// TelemetryConfig configures OpenTelemetry export.
type TelemetryConfig struct {
	Enabled  bool   `yaml:"enabled" mapstructure:"enabled"`
	Endpoint string `yaml:"endpoint" mapstructure:"endpoint" validate:"required_if=Enabled true"`
	Insecure bool   `yaml:"insecure" mapstructure:"insecure"`
}

// ApplyDefaults fills unset fields.
func (c *AppConfig) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "framegraph"
	}
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.Logging.ServiceName == "" {
		c.Logging.ServiceName = c.Name
	}
	c.Logging.ApplyDefaults()

	r := &c.Render
	if r.Pipeline == "" {
		r.Pipeline = "forward"
	}
	if r.FrameRate == 0 {
		r.FrameRate = 60
	}
	if r.Width == 0 {
		r.Width = 1280
	}
	if r.Height == 0 {
		r.Height = 720
	}
	if r.PixelRatio == 0 {
		r.PixelRatio = 1
	}
	if r.ProfileDir == "" {
		r.ProfileDir = "./profiles"
	}
	c.Debug.ApplyDefaults()
}

// Validate checks the whole configuration.
func (c *AppConfig) Validate() error {
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("config.logging: %w", err)
	}
	if err := validation.Validate(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := c.Debug.Config.Validate(); err != nil {
		return fmt.Errorf("config.%w", err)
	}
	return nil
}
