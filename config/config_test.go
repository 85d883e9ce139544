package config

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/spf13/viper"

	"github.com/kbukum/sttkit/logger"
)

type sttSection struct {
	Primary       string `mapstructure:"primary"`
	Secondary     string `mapstructure:"secondary"`
	MaxDurationMs int    `mapstructure:"max_duration_ms"`
}

type testConfig struct {
	ServiceConfig `yaml:",inline" mapstructure:",squash"`
	STT           sttSection `mapstructure:"stt"`
}

func TestServiceConfigApplyDefaults(t *testing.T) {
	t.Run("empty environment defaults to development with debug logging", func(t *testing.T) {
		cfg := ServiceConfig{Name: "sttd"}
		cfg.ApplyDefaults()
		if cfg.Environment != "development" {
			t.Errorf("expected 'development', got %q", cfg.Environment)
		}
		if !cfg.Debug {
			t.Error("expected debug=true for development")
		}
		if cfg.Logging.Level != "debug" {
			t.Errorf("expected debug log level, got %q", cfg.Logging.Level)
		}
	})

	t.Run("production keeps debug false and info logging", func(t *testing.T) {
		cfg := ServiceConfig{Name: "sttd", Environment: "production"}
		cfg.ApplyDefaults()
		if cfg.Debug {
			t.Error("expected debug=false for production")
		}
		if cfg.Logging.Level != "info" {
			t.Errorf("expected info log level, got %q", cfg.Logging.Level)
		}
	})
}

func TestServiceConfigValidate(t *testing.T) {
	valid := func(env string) ServiceConfig {
		c := ServiceConfig{Name: "sttd", Environment: env}
		c.Logging.ApplyDefaults()
		return c
	}
	badLogging := valid("production")
	badLogging.Logging.Level = "loud"

	tests := []struct {
		name   string
		cfg    ServiceConfig
		errMsg string
	}{
		{"valid development", valid("development"), ""},
		{"valid production", valid("production"), ""},
		{"missing name", ServiceConfig{Environment: "production"}, "config.name is required"},
		{"invalid environment", ServiceConfig{Name: "sttd", Environment: "qa"}, "config.environment must be one of"},
		{"invalid logging", badLogging, "config.logging"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.errMsg == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tc.errMsg) {
				t.Errorf("expected error containing %q, got %q", tc.errMsg, err.Error())
			}
		})
	}
}

func TestLoadConfigWithYAML(t *testing.T) {
	logger.SetGlobalLogger(logger.Nop())
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yml")

	yamlContent := `
name: sttd
environment: staging
stt:
  primary: batchHttp
  secondary: streaming
  max_duration_ms: 15000
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	var cfg testConfig
	if err := LoadConfig("sttd", &cfg, WithConfigFile(configPath), WithEnvPrefix("STTKIT_TEST_UNUSED_")); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Name != "sttd" || cfg.Environment != "staging" {
		t.Errorf("unexpected service config %+v", cfg.ServiceConfig)
	}
	if cfg.STT.Primary != "batchHttp" || cfg.STT.Secondary != "streaming" || cfg.STT.MaxDurationMs != 15000 {
		t.Errorf("unexpected stt section %+v", cfg.STT)
	}
}

func TestLoadConfigEnvOverridesFile(t *testing.T) {
	logger.SetGlobalLogger(logger.Nop())
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yml")
	if err := os.WriteFile(configPath, []byte("name: sttd\nstt:\n  primary: streaming\n"), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	t.Setenv("STTDTEST_STT_PRIMARY", "batchHttp")
	t.Setenv("STTDTEST_STT_MAX_DURATION_MS", "12000")

	var cfg testConfig
	if err := LoadConfig("sttd", &cfg, WithConfigFile(configPath), WithEnvPrefix("sttdtest_")); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.STT.Primary != "batchHttp" {
		t.Errorf("expected env override, got %q", cfg.STT.Primary)
	}
	if cfg.STT.MaxDurationMs != 12000 {
		t.Errorf("expected max_duration_ms 12000, got %d", cfg.STT.MaxDurationMs)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	logger.SetGlobalLogger(logger.Nop())
	var cfg testConfig
	err := LoadConfig("nonexistent-service", &cfg,
		WithConfigFile("/nonexistent/path.yml"),
		WithEnvFile("/nonexistent/.env"),
		WithEnvPrefix("STTKIT_TEST_UNUSED_"))
	if err != nil {
		t.Fatalf("expected LoadConfig to succeed with missing file, got %v", err)
	}
}

type mockFS struct {
	files map[string]bool
}

func (m *mockFS) Exists(path string) bool   { return m.files[path] }
func (m *mockFS) LoadEnv(path string) error { return nil }

func TestResolverSearchOrder(t *testing.T) {
	tests := []struct {
		name       string
		service    string
		files      []string
		wantConfig string
		wantEnv    string
	}{
		{
			name:       "cmd dir wins over root",
			service:    "sttd",
			files:      []string{"./config.yml", "cmd/sttd/config.yml"},
			wantConfig: "cmd/sttd/config.yml",
		},
		{
			name:       "short name",
			service:    "acme-sttd",
			files:      []string{"cmd/sttd/config.yml"},
			wantConfig: "cmd/sttd/config.yml",
		},
		{
			name:       "service env file before plain env",
			service:    "sttd",
			files:      []string{"./.env", "config/.env.sttd"},
			wantConfig: "",
			wantEnv:    "config/.env.sttd",
		},
		{
			name:    "nothing found",
			service: "sttd",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fs := &mockFS{files: map[string]bool{}}
			for _, f := range tc.files {
				fs.files[f] = true
			}
			r := &Resolver{FileSystem: fs}
			got := r.ResolveFiles(tc.service, LoaderConfig{})
			if got.ConfigFile != tc.wantConfig {
				t.Errorf("ConfigFile = %q, want %q", got.ConfigFile, tc.wantConfig)
			}
			if got.EnvFile != tc.wantEnv {
				t.Errorf("EnvFile = %q, want %q", got.EnvFile, tc.wantEnv)
			}
		})
	}
}

func TestResolverExplicitPaths(t *testing.T) {
	r := &Resolver{FileSystem: &mockFS{files: map[string]bool{"cmd/sttd/config.yml": true}}}
	got := r.ResolveFiles("sttd", LoaderConfig{ConfigFile: "/etc/sttd.yml", EnvFile: "/etc/sttd.env"})
	if got.ConfigFile != "/etc/sttd.yml" || got.EnvFile != "/etc/sttd.env" {
		t.Errorf("explicit paths not kept: %+v", got)
	}
}

func TestEnvKeyVariants(t *testing.T) {
	got := envKeyVariants("STT_MAX_DURATION_MS")
	for _, want := range []string{"stt_max_duration_ms", "stt.max_duration_ms", "stt.max.duration.ms"} {
		if !slices.Contains(got, want) {
			t.Errorf("variants %v missing %q", got, want)
		}
	}
	got = envKeyVariants("STT_BATCH_HTTP_ENDPOINT")
	if len(got) != 8 || got[0] != "stt_batch_http_endpoint" {
		t.Errorf("unexpected variants %v", got)
	}
	if !slices.Contains(got, "stt.batch_http.endpoint") {
		t.Errorf("variants %v missing stt.batch_http.endpoint", got)
	}
	if got := envKeyVariants("DEBUG"); len(got) != 1 || got[0] != "debug" {
		t.Errorf("single-part key variants = %v", got)
	}
}

func TestBindEnvPrefix(t *testing.T) {
	v := viper.New()
	bindEnv(v, []string{"STTD_STREAMING_ENDPOINT=ws://vosk:2700", "PATH=/bin", "BROKEN"}, "STTD_")

	if got := v.GetString("streaming.endpoint"); got != "ws://vosk:2700" {
		t.Errorf("streaming.endpoint = %q", got)
	}
	if v.IsSet("path") {
		t.Error("unprefixed variable must not be bound")
	}
}
