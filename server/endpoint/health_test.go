package endpoint

import (
	"context"
	"testing"

	"github.com/kbukum/sttkit/component"
)

func TestBuildServiceHealth(t *testing.T) {
	tests := []struct {
		name          string
		health        []component.Health
		wantStatus    string
		wantProviders map[string]string
	}{
		{
			name:       "no checker results",
			wantStatus: StateUp,
		},
		{
			name: "one engine down degrades",
			health: []component.Health{{
				Name:    "transcription",
				Status:  component.StatusDegraded,
				Details: map[string]bool{"streaming": false, "batchHttp": true},
			}},
			wantStatus:    StateDegraded,
			wantProviders: map[string]string{"streaming": StateDown, "batchHttp": StateUp},
		},
		{
			name: "down wins over degraded",
			health: []component.Health{
				{Name: "transcription", Status: component.StatusDegraded},
				{Name: "nats", Status: component.StatusUnhealthy, Message: "disconnected"},
			},
			wantStatus: StateDown,
		},
		{
			name: "engine down in any component stays down",
			health: []component.Health{
				{Name: "a", Status: component.StatusHealthy, Details: map[string]bool{"streaming": false}},
				{Name: "b", Status: component.StatusHealthy, Details: map[string]bool{"streaming": true}},
			},
			wantStatus:    StateUp,
			wantProviders: map[string]string{"streaming": StateDown},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			checker := func(context.Context) []component.Health { return tc.health }
			report := BuildServiceHealth(context.Background(), "sttd", "1.0.0", checker)

			if report.Service != "sttd" || report.Version != "1.0.0" {
				t.Errorf("identity = %s %s", report.Service, report.Version)
			}
			if report.Status != tc.wantStatus {
				t.Errorf("status = %s, want %s", report.Status, tc.wantStatus)
			}
			if len(report.Components) != len(tc.health) {
				t.Fatalf("components = %d, want %d", len(report.Components), len(tc.health))
			}
			if len(report.Providers) != len(tc.wantProviders) {
				t.Fatalf("providers = %v, want %v", report.Providers, tc.wantProviders)
			}
			for engine, want := range tc.wantProviders {
				if report.Providers[engine] != want {
					t.Errorf("providers[%s] = %s, want %s", engine, report.Providers[engine], want)
				}
			}
		})
	}
}

func TestBuildServiceHealth_NilChecker(t *testing.T) {
	report := BuildServiceHealth(context.Background(), "sttd", "", nil)
	if report.Status != StateUp || report.Components != nil {
		t.Fatalf("unexpected report %+v", report)
	}
}
