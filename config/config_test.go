package config

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

func TestAppConfigApplyDefaults(t *testing.T) {
	var cfg AppConfig
	cfg.ApplyDefaults()

	if cfg.Name != "framegraph" || cfg.Environment != "development" {
		t.Errorf("unexpected identity defaults: %q %q", cfg.Name, cfg.Environment)
	}
	if cfg.Logging.ServiceName != "framegraph" {
		t.Errorf("expected logging service name to follow app name, got %q", cfg.Logging.ServiceName)
	}
	if cfg.Render.Pipeline != "forward" || cfg.Render.FrameRate != 60 {
		t.Errorf("unexpected render defaults: %+v", cfg.Render)
	}
	if cfg.Render.Width != 1280 || cfg.Render.Height != 720 || cfg.Render.PixelRatio != 1 {
		t.Errorf("unexpected surface defaults: %+v", cfg.Render)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate, got %v", err)
	}
}

func TestAppConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*AppConfig)
		wantErr string
	}{
		{"defaults", func(*AppConfig) {}, ""},
		{"bad environment", func(c *AppConfig) { c.Environment = "qa" }, "environment"},
		{"negative frames", func(c *AppConfig) { c.Render.Frames = -1 }, "frames"},
		{"zero pixel ratio", func(c *AppConfig) { c.Render.PixelRatio = -1 }, "pixel_ratio"},
		{"bad debug addr", func(c *AppConfig) { c.Debug.Addr = "nowhere" }, "addr"},
		{"tls key without cert", func(c *AppConfig) { c.Debug.TLS.KeyFile = "k.pem" }, "debug.tls"},
		{"negative frame events", func(c *AppConfig) { c.Debug.FrameEvents = -1 }, "debug"},
		{"bad body size", func(c *AppConfig) { c.Debug.MaxBodySize = "lots" }, "debug.max_body_size"},
		{"telemetry without endpoint", func(c *AppConfig) { c.Telemetry.Enabled = true }, "endpoint"},
		{"bad log level", func(c *AppConfig) { c.Logging.Level = "loud" }, "logging.level"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var cfg AppConfig
			cfg.ApplyDefaults()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error mentioning %q", tc.wantErr)
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("expected %q in %q", tc.wantErr, err.Error())
			}
		})
	}
}

func TestLoadConfigWithYAML(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yml")
	yamlContent := `
name: bench
environment: staging
render:
  pipeline: forward
  frames: 30
  pixel_ratio: 2
  set:
    - Forward.Draw.maxDrawn=10
debug:
  enabled: true
  addr: 127.0.0.1:9000
  frame_events: 500
  read_timeout: 3
  max_body_size: 1MB
  cors:
    allowed_origins: ["http://localhost:3000"]
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	var cfg AppConfig
	if err := LoadConfig("framegraph", &cfg, WithConfigFile(configPath)); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Name != "bench" || cfg.Environment != "staging" {
		t.Errorf("unexpected identity: %q %q", cfg.Name, cfg.Environment)
	}
	if cfg.Render.Frames != 30 || cfg.Render.PixelRatio != 2 {
		t.Errorf("unexpected render section: %+v", cfg.Render)
	}
	if !slices.Equal(cfg.Render.Set, []string{"Forward.Draw.maxDrawn=10"}) {
		t.Errorf("unexpected overrides: %v", cfg.Render.Set)
	}
	if !cfg.Debug.Enabled || cfg.Debug.Addr != "127.0.0.1:9000" {
		t.Errorf("unexpected debug section: %+v", cfg.Debug)
	}
	if cfg.Debug.FrameEvents != 500 || cfg.Debug.ReadTimeout != 3 || cfg.Debug.MaxBodySize != "1MB" {
		t.Errorf("debug server settings not decoded: %+v", cfg.Debug.Config)
	}
	if !slices.Equal(cfg.Debug.CORS.AllowedOrigins, []string{"http://localhost:3000"}) {
		t.Errorf("unexpected cors origins: %v", cfg.Debug.CORS.AllowedOrigins)
	}

	cfg.ApplyDefaults()
	if cfg.Debug.FrameEvents != 500 || cfg.Debug.WriteTimeout != 10 {
		t.Errorf("defaults must keep loaded values and fill the rest: %+v", cfg.Debug.Config)
	}
}

func TestLoadConfigDebugEnv(t *testing.T) {
	t.Setenv("FRAMEGRAPH_DEBUG_FRAME_EVENTS", "100")
	t.Setenv("FRAMEGRAPH_DEBUG_MAX_BODY_SIZE", "2MB")

	var cfg AppConfig
	if err := LoadConfig("framegraph", &cfg, WithConfigFile("/nonexistent/path.yml")); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Debug.FrameEvents != 100 || cfg.Debug.MaxBodySize != "2MB" {
		t.Errorf("expected env to reach the debug server config, got %+v", cfg.Debug.Config)
	}
}

func TestLoadConfigEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yml")
	if err := os.WriteFile(configPath, []byte("render:\n  frames: 30\n"), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	t.Setenv("FRAMEGRAPH_RENDER_FRAMES", "120")
	t.Setenv("FRAMEGRAPH_RENDER_PIXEL_RATIO", "1.5")

	var cfg AppConfig
	if err := LoadConfig("framegraph", &cfg, WithConfigFile(configPath)); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Render.Frames != 120 {
		t.Errorf("expected env to win, got frames=%d", cfg.Render.Frames)
	}
	if cfg.Render.PixelRatio != 1.5 {
		t.Errorf("expected pixel_ratio=1.5, got %v", cfg.Render.PixelRatio)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	var cfg AppConfig
	err := LoadConfig("framegraph", &cfg,
		WithConfigFile("/nonexistent/path.yml"),
		WithEnvFile("/nonexistent/.env"))
	if err != nil {
		t.Fatalf("expected LoadConfig to succeed with missing file, got %v", err)
	}
}

type mockFS struct {
	files map[string]bool
}

func (m *mockFS) Exists(path string) bool  { return m.files[path] }
func (m *mockFS) LoadEnv(path string) error { return nil }

func TestResolverSearchOrder(t *testing.T) {
	tests := []struct {
		name     string
		files    map[string]bool
		wantConf string
		wantEnv  string
	}{
		{
			name:     "cmd dir wins",
			files:    map[string]bool{"./cmd/framegraph/config.yml": true, "./config.yml": true},
			wantConf: "./cmd/framegraph/config.yml",
		},
		{
			name:     "root fallback",
			files:    map[string]bool{"./config.yml": true, "./.env": true},
			wantConf: "./config.yml",
			wantEnv:  "./.env",
		},
		{
			name:    "app specific env first",
			files:   map[string]bool{"./.env": true, "./.env.framegraph": true},
			wantEnv: "./.env.framegraph",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := &Resolver{FileSystem: &mockFS{files: tc.files}}
			got := r.ResolveFiles("framegraph", LoaderConfig{})
			if got.ConfigFile != tc.wantConf {
				t.Errorf("config file = %q, want %q", got.ConfigFile, tc.wantConf)
			}
			if got.EnvFile != tc.wantEnv {
				t.Errorf("env file = %q, want %q", got.EnvFile, tc.wantEnv)
			}
		})
	}
}

func TestResolverExplicitPathsWin(t *testing.T) {
	r := &Resolver{FileSystem: &mockFS{files: map[string]bool{"./config.yml": true}}}
	got := r.ResolveFiles("framegraph", LoaderConfig{ConfigFile: "/etc/fg.yml", EnvFile: "/etc/fg.env"})
	if got.ConfigFile != "/etc/fg.yml" || got.EnvFile != "/etc/fg.env" {
		t.Errorf("explicit paths not kept: %+v", got)
	}
}

func TestEnvKeyVariants(t *testing.T) {
	got := envKeyVariants("RENDER_PIXEL_RATIO")
	want := []string{"render_pixel_ratio", "render.pixel_ratio", "render_pixel.ratio", "render.pixel.ratio"}
	if len(got) != len(want) {
		t.Fatalf("expected %d variants, got %v", len(want), got)
	}
	for _, w := range want {
		if !slices.Contains(got, w) {
			t.Errorf("missing variant %q in %v", w, got)
		}
	}
	if single := envKeyVariants("NAME"); !slices.Equal(single, []string{"name"}) {
		t.Errorf("unexpected single-part variants: %v", single)
	}
}

func TestLoaderOptions(t *testing.T) {
	var lc LoaderConfig
	fs := &mockFS{}
	WithFileSystem(fs)(&lc)
	WithConfigFile("/path/to/config.yml")(&lc)
	WithEnvFile("/path/to/.env")(&lc)
	if lc.FileSystem != fs || lc.ConfigFile != "/path/to/config.yml" || lc.EnvFile != "/path/to/.env" {
		t.Errorf("options not applied: %+v", lc)
	}
}
