package debugserver

import (
	"fmt"
	"net"

	"github.com/kbukum/framegraph/debugserver/middleware"
	"github.com/kbukum/framegraph/security"
	"github.com/kbukum/framegraph/util"
)

// Config holds the debug server settings.
type Config struct {
	Addr         string                `yaml:"addr" mapstructure:"addr"`
	ReadTimeout  int                   `yaml:"read_timeout" mapstructure:"read_timeout"`   // seconds
	WriteTimeout int                   `yaml:"write_timeout" mapstructure:"write_timeout"` // seconds
	IdleTimeout  int                   `yaml:"idle_timeout" mapstructure:"idle_timeout"`   // seconds
	FrameEvents  int                   `yaml:"frame_events" mapstructure:"frame_events"`   // ms between frame events
	MaxBodySize  string                `yaml:"max_body_size" mapstructure:"max_body_size"`
	JWTSecret    string                `yaml:"jwt_secret" mapstructure:"jwt_secret"`
	CORS         middleware.CORSConfig `yaml:"cors" mapstructure:"cors"`
	TLS          security.TLSConfig    `yaml:"tls" mapstructure:"tls"`
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.Addr == "" {
		c.Addr = "127.0.0.1:8089"
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 10
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 10
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 60
	}
	if c.FrameEvents == 0 {
		c.FrameEvents = 250
	}
	if c.MaxBodySize == "" {
		c.MaxBodySize = "64KB"
	}
	if len(c.CORS.AllowedMethods) == 0 {
		c.CORS.AllowedMethods = []string{"GET", "PATCH", "PUT", "OPTIONS"}
	}
	if len(c.CORS.AllowedHeaders) == 0 {
		c.CORS.AllowedHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if _, _, err := net.SplitHostPort(c.Addr); err != nil {
		return fmt.Errorf("debug.addr %q: %w", c.Addr, err)
	}
	if c.ReadTimeout < 0 || c.WriteTimeout < 0 || c.IdleTimeout < 0 || c.FrameEvents < 0 {
		return fmt.Errorf("debug timeouts and intervals must be non-negative")
	}
	if _, err := util.ParseSize(c.MaxBodySize); err != nil {
		return fmt.Errorf("debug.max_body_size: %w", err)
	}
	if err := c.TLS.Validate(); err != nil {
		return fmt.Errorf("debug.%w", err)
	}
	if c.JWTSecret != "" && len(c.JWTSecret) < 16 {
		return fmt.Errorf("debug.jwt_secret must be at least 16 bytes")
	}
	return nil
}
