package endpoint

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/sttkit/component"
)

// Report states used in health bodies.
const (
	StateUp       = "up"
	StateDegraded = "degraded"
	StateDown     = "down"
)

// HealthChecker returns health status for registered components.
type HealthChecker func(ctx context.Context) []component.Health

// ServiceHealth is the /health body. Providers flattens the per-engine
// reachability every component reported; an engine any component sees as
// unreachable is down.
type ServiceHealth struct {
	Service    string            `json:"service"`
	Status     string            `json:"status"`
	Version    string            `json:"version,omitempty"`
	Providers  map[string]string `json:"providers,omitempty"`
	Components []ComponentHealth `json:"components,omitempty"`
}

// ComponentHealth is one component's entry in ServiceHealth.
type ComponentHealth struct {
	Name    string            `json:"name"`
	Status  string            `json:"status"`
	Message string            `json:"message,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// Health reports service health with one entry per component. A component
// that is down turns the response into a 503.
func Health(serviceName, version string, checker HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		report := BuildServiceHealth(c.Request.Context(), serviceName, version, checker)

		httpStatus := http.StatusOK
		if report.Status == StateDown {
			httpStatus = http.StatusServiceUnavailable
		}
		c.JSON(httpStatus, report)
	}
}

// BuildServiceHealth runs checker and folds the results into one report.
// The overall status is the worst component status.
func BuildServiceHealth(ctx context.Context, serviceName, version string, checker HealthChecker) *ServiceHealth {
	report := &ServiceHealth{Service: serviceName, Status: StateUp, Version: version}
	if checker == nil {
		return report
	}
	hs := checker(ctx)
	report.Status = state(component.Worst(hs))
	for _, h := range hs {
		ch := ComponentHealth{Name: h.Name, Status: state(h.Status), Message: h.Message}
		for engine, reachable := range h.Details {
			if ch.Details == nil {
				ch.Details = make(map[string]string, len(h.Details))
			}
			ch.Details[engine] = upDown(reachable)
			report.addProvider(engine, reachable)
		}
		report.Components = append(report.Components, ch)
	}
	return report
}

func (r *ServiceHealth) addProvider(engine string, reachable bool) {
	if r.Providers == nil {
		r.Providers = make(map[string]string)
	}
	if r.Providers[engine] == StateDown {
		return
	}
	r.Providers[engine] = upDown(reachable)
}

func state(s component.HealthStatus) string {
	switch s {
	case component.StatusHealthy:
		return StateUp
	case component.StatusDegraded:
		return StateDegraded
	}
	return StateDown
}

func upDown(reachable bool) string {
	if reachable {
		return StateUp
	}
	return StateDown
}
