package observability

import (
	"context"
	"time"
)

// HealthStatus is the state of a component. Down is worse than degraded,
// which is worse than up.
type HealthStatus string

const (
	HealthStatusUp       HealthStatus = "up"
	HealthStatusDegraded HealthStatus = "degraded"
	HealthStatusDown     HealthStatus = "down"
)

func (s HealthStatus) severity() int {
	switch s {
	case HealthStatusDown:
		return 2
	case HealthStatusDegraded:
		return 1
	}
	return 0
}

// Worse returns the more severe of s and other.
func (s HealthStatus) Worse(other HealthStatus) HealthStatus {
	if other.severity() > s.severity() {
		return other
	}
	return s
}

// Health is one component's report. Details are keyed by whatever the
// component considers a sub-part, e.g. a node path.
type Health struct {
	Name    string            `json:"name"`
	Status  HealthStatus      `json:"status"`
	Message string            `json:"message,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// HealthChecker reports its own health.
type HealthChecker interface {
	CheckHealth(ctx context.Context) Health
}

// ServiceHealth is the body of the /health route.
type ServiceHealth struct {
	Service    string       `json:"service"`
	Version    string       `json:"version,omitempty"`
	Status     HealthStatus `json:"status"`
	CheckedAt  time.Time    `json:"checkedAt"`
	Components []Health     `json:"components,omitempty"`
}

// NewServiceHealth starts a report with status up.
func NewServiceHealth(service, version string) *ServiceHealth {
	return &ServiceHealth{Service: service, Version: version, Status: HealthStatusUp, CheckedAt: time.Now().UTC()}
}

// AddComponent records h. The service takes the worst component status.
func (sh *ServiceHealth) AddComponent(h Health) {
	sh.Components = append(sh.Components, h)
	sh.Status = sh.Status.Worse(h.Status)
}

// Check asks every checker and records the results.
func (sh *ServiceHealth) Check(ctx context.Context, checkers ...HealthChecker) *ServiceHealth {
	for _, c := range checkers {
		sh.AddComponent(c.CheckHealth(ctx))
	}
	return sh
}
