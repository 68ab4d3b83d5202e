package version

import (
	"fmt"
	"runtime/debug"
	"strings"
	"time"
)

// Set at build time using -ldflags.
var (
	Version   = "dev"
	GitCommit = ""
	BuildTime = ""
)

// Info describes one build.
type Info struct {
	Version   string    `json:"version" yaml:"version"`
	Commit    string    `json:"commit,omitempty" yaml:"commit,omitempty"`
	Dirty     bool      `json:"dirty,omitempty" yaml:"dirty,omitempty"`
	GoVersion string    `json:"goVersion" yaml:"go_version"`
	BuildTime time.Time `json:"buildTime,omitzero" yaml:"build_time,omitempty"`
}

// Release reports whether the build is a tagged, clean version.
func (i Info) Release() bool {
	return i.Version != "dev" && !i.Dirty && !strings.HasSuffix(i.Version, "-dirty")
}

// Short renders "version[-commit][-dirty]".
func (i Info) Short() string {
	parts := []string{i.Version}
	if i.Commit != "" {
		parts = append(parts, i.Commit)
	}
	if i.Dirty {
		parts = append(parts, "dirty")
	}
	return strings.Join(parts, "-")
}

// String renders the short form plus the Go version and build time.
func (i Info) String() string {
	s := fmt.Sprintf("%s (%s", i.Short(), i.GoVersion)
	if !i.BuildTime.IsZero() {
		s += ", built " + i.BuildTime.UTC().Format(time.RFC3339)
	}
	return s + ")"
}

// Fields is the build as log fields.
func (i Info) Fields() map[string]interface{} {
	f := map[string]interface{}{"version": i.Short(), "go": i.GoVersion}
	if !i.BuildTime.IsZero() {
		f["built"] = i.BuildTime.UTC().Format(time.RFC3339)
	}
	return f
}

// Get collects the build information. Link-time values win over VCS settings.
func Get() Info {
	info := Info{Version: Version, Commit: GitCommit}
	if BuildTime != "" {
		if t, err := time.Parse(time.RFC3339, BuildTime); err == nil {
			info.BuildTime = t
		}
	}

	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	info.GoVersion = bi.GoVersion
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.Commit == "" {
				info.Commit = shortCommit(s.Value)
			}
		case "vcs.modified":
			info.Dirty = s.Value == "true"
		case "vcs.time":
			if info.BuildTime.IsZero() {
				if t, err := time.Parse(time.RFC3339, s.Value); err == nil {
					info.BuildTime = t
				}
			}
		}
	}
	return info
}

func shortCommit(rev string) string {
	if len(rev) > 7 {
		return rev[:7]
	}
	return rev
}
