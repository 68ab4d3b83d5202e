package bootstrap

import (
	"fmt"
	"io"
	"time"
)

// Summary sections, printed in this order.
const (
	SectionRender   = "🎬 Render"
	SectionServices = "🔌 Services"
	SectionDebug    = "🐞 Debug surface"
)

var sectionOrder = []string{SectionRender, SectionServices, SectionDebug}

type summaryEntry struct {
	name   string
	detail string
}

// Summary collects what a run started with and prints it once at startup.
type Summary struct {
	serviceName     string
	version         string
	startupDuration time.Duration
	sections        map[string][]summaryEntry
}

// NewSummary creates an empty summary.
func NewSummary(serviceName, version string) *Summary {
	return &Summary{
		serviceName: serviceName,
		version:     version,
		sections:    make(map[string][]summaryEntry),
	}
}

// SetStartupDuration records how long startup took.
func (s *Summary) SetStartupDuration(d time.Duration) {
	s.startupDuration = d
}

// Track adds a line to a section.
func (s *Summary) Track(section, name, detail string) {
	s.sections[section] = append(s.sections[section], summaryEntry{name: name, detail: detail})
}

// Write prints the summary as a small tree.
func (s *Summary) Write(w io.Writer) {
	version := s.version
	if version == "" {
		version = "dev"
	}
	fmt.Fprintf(w, "\n🚀 %s %s started in %.2fs\n", s.serviceName, version, s.startupDuration.Seconds())

	for _, section := range sectionOrder {
		entries := s.sections[section]
		if len(entries) == 0 {
			continue
		}
		fmt.Fprintf(w, "\n%s\n", section)
		for i, e := range entries {
			prefix := "├──"
			if i == len(entries)-1 {
				prefix = "└──"
			}
			if e.detail == "" {
				fmt.Fprintf(w, "   %s %s\n", prefix, e.name)
				continue
			}
			fmt.Fprintf(w, "   %s %s: %s\n", prefix, e.name, e.detail)
		}
	}
	fmt.Fprintln(w)
}
