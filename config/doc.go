// Package config loads framegraph application settings.
//
// Settings come from a YAML file found in the usual places
// (./cmd/<app>/config.yml, ./config/config.yml, ./config.yml), an optional
// .env file, and FRAMEGRAPH_* environment variables, in increasing order of
// precedence:
//
//	var cfg config.AppConfig
//	if err := config.LoadConfig("framegraph", &cfg); err != nil { ... }
//	cfg.ApplyDefaults()
//	if err := cfg.Validate(); err != nil { ... }
//
// FRAMEGRAPH_RENDER_FRAMES=120 sets render.frames; nested keys are resolved
// by trying each underscore as a possible level separator.
package config
