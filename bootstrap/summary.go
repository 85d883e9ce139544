package bootstrap

import (
	"context"
	"time"

	"github.com/kbukum/sttkit/component"
	"github.com/kbukum/sttkit/logger"
)

// Route is a registered HTTP route or message subject.
type Route struct {
	Method  string
	Path    string
	Handler string
}

// Summary collects what an application exposes and logs it once startup
// has finished.
type Summary struct {
	serviceName     string
	version         string
	startupDuration time.Duration
	routes          []Route
}

// NewSummary creates a new startup summary.
func NewSummary(serviceName, version string) *Summary {
	return &Summary{serviceName: serviceName, version: version}
}

// SetStartupDuration records the total startup time.
func (s *Summary) SetStartupDuration(d time.Duration) {
	s.startupDuration = d
}

// TrackRoute records an exposed route.
func (s *Summary) TrackRoute(method, path, handler string) {
	s.routes = append(s.routes, Route{Method: method, Path: path, Handler: handler})
}

// Routes returns the tracked routes in insertion order.
func (s *Summary) Routes() []Route {
	return s.routes
}

// Log writes one line per component health and route, then a closing line
// with the overall status.
func (s *Summary) Log(ctx context.Context, reg *component.Registry, log *logger.Logger) {
	var health []component.Health
	if reg != nil {
		health = reg.HealthAll(ctx)
	}
	for _, h := range health {
		fields := logger.Fields("component", h.Name, "status", string(h.Status))
		if h.Message != "" {
			fields["message"] = h.Message
		}
		for name, up := range h.Details {
			fields[name] = up
		}
		log.Info("Component", fields)
	}
	for _, r := range s.routes {
		log.Info("Route", logger.Fields("method", r.Method, "path", r.Path, "handler", r.Handler))
	}

	log.Info("Startup complete", logger.Fields(
		"service", s.serviceName,
		"version", s.version,
		"status", string(component.Worst(health)),
		"components", len(health),
		"routes", len(s.routes),
		"startup", s.startupDuration.String(),
	))
}
