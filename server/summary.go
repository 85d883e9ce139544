package server

import (
	"slices"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/sttkit/bootstrap"
)

// Paths registered by RegisterDefaultEndpoints.
var systemPaths = map[string]bool{
	"/health":       true,
	"/health/live":  true,
	"/health/ready": true,
	"/info":         true,
	"/metrics":      true,
}

// TrackRoutes adds every registered Gin route to the startup summary, API
// routes first. Call it after all routes are registered.
func (s *Server) TrackRoutes(summary *bootstrap.Summary) {
	for _, r := range sortedRoutes(s.engine.Routes()) {
		handler := formatHandlerName(r.Handler)
		if systemPaths[r.Path] {
			handler += " (system)"
		}
		summary.TrackRoute(r.Method, r.Path, handler)
	}
}

func sortedRoutes(routes gin.RoutesInfo) gin.RoutesInfo {
	out := slices.Clone(routes)
	slices.SortStableFunc(out, func(a, b gin.RouteInfo) int {
		if sa, sb := systemPaths[a.Path], systemPaths[b.Path]; sa != sb {
			if sa {
				return 1
			}
			return -1
		}
		if c := strings.Compare(a.Path, b.Path); c != 0 {
			return c
		}
		return methodOrder(a.Method) - methodOrder(b.Method)
	})
	return out
}

// formatHandlerName shortens Gin's handler symbol:
//
//	github.com/kbukum/sttkit/api.(*Handler).Transcribe-fm -> Handler.Transcribe
//	github.com/kbukum/sttkit/server/endpoint.Health.func1 -> endpoint.Health
func formatHandlerName(symbol string) string {
	name := strings.TrimSuffix(symbol, "-fm")
	if idx := strings.LastIndex(name, "/"); idx >= 0 {
		name = name[idx+1:]
	}
	name = strings.NewReplacer("(*", "", ")", "").Replace(name)

	parts := strings.Split(name, ".")
	for len(parts) > 1 && strings.HasPrefix(parts[len(parts)-1], "func") {
		parts = parts[:len(parts)-1]
	}
	// Drop the package when a receiver type follows it.
	if len(parts) > 2 || (len(parts) == 2 && isExported(parts[1]) && isExported(parts[0])) {
		parts = parts[1:]
	}
	return strings.Join(parts, ".")
}

func isExported(s string) bool {
	return s != "" && s[0] >= 'A' && s[0] <= 'Z'
}

func methodOrder(method string) int {
	order := []string{"GET", "POST", "PUT", "PATCH", "DELETE"}
	if i := slices.Index(order, method); i >= 0 {
		return i
	}
	return len(order)
}
