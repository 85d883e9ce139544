package validation

import (
	"regexp"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/kbukum/sttkit/errors"
)

func TestValidatorRequired(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{"present", "de-DE", false},
		{"empty", "", true},
		{"whitespace only", "   ", true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v := New().Required("language", tc.value)
			if v.HasErrors() != tc.wantErr {
				t.Errorf("HasErrors() = %v, want %v", v.HasErrors(), tc.wantErr)
			}
		})
	}
}

func TestValidatorOptionalUUID(t *testing.T) {
	if New().OptionalUUID("request_id", "").HasErrors() {
		t.Error("empty value must be accepted")
	}
	if New().OptionalUUID("request_id", uuid.NewString()).HasErrors() {
		t.Error("valid UUID must be accepted")
	}
	if !New().OptionalUUID("request_id", "not-a-uuid").HasErrors() {
		t.Error("expected error for invalid UUID")
	}
}

func TestValidatorMaxLengthAndRange(t *testing.T) {
	v := New().MaxLength("language", "de-DE", 35).Range("max_duration_ms", 30000, 1, 600000)
	if v.HasErrors() {
		t.Errorf("expected no errors, got %v", v.Errors())
	}

	v = New().MaxLength("language", strings.Repeat("x", 36), 35).Range("max_duration_ms", 0, 1, 600000)
	if len(v.Errors()) != 2 {
		t.Fatalf("expected 2 errors, got %v", v.Errors())
	}
	if v.Errors()[1].Message != "must be between 1 and 600000" {
		t.Errorf("unexpected range message %q", v.Errors()[1].Message)
	}
}

func TestValidatorPattern(t *testing.T) {
	tag := regexp.MustCompile(`^[A-Za-z]{2,3}(-[A-Za-z0-9]{2,8})*$`)

	tests := []struct {
		value   string
		wantErr bool
	}{
		{"", false},
		{"de", false},
		{"en-US", false},
		{"de_DE", true},
		{"1234", true},
	}
	for _, tc := range tests {
		t.Run(tc.value, func(t *testing.T) {
			if got := New().Pattern("language", tc.value, tag).HasErrors(); got != tc.wantErr {
				t.Errorf("HasErrors() = %v, want %v", got, tc.wantErr)
			}
		})
	}
}

func TestValidatorLanguageTag(t *testing.T) {
	tests := []struct {
		value   string
		wantErr bool
	}{
		{"", false},
		{"de-DE", false},
		{"gsw-CH", false},
		{"en-Latn-US", false},
		{"de-DE!", true},
		{"1234", true},
		{"not a tag", true},
	}
	for _, tc := range tests {
		t.Run(tc.value, func(t *testing.T) {
			v := New().LanguageTag("language", tc.value)
			if v.HasErrors() != tc.wantErr {
				t.Errorf("HasErrors() = %v, want %v", v.HasErrors(), tc.wantErr)
			}
			if tc.wantErr && v.Errors()[0].Message != "must be a BCP-47 language tag" {
				t.Errorf("unexpected message %q", v.Errors()[0].Message)
			}
		})
	}
}

func TestValidatorOneOf(t *testing.T) {
	allowed := []string{"streaming", "batchHttp", "none"}

	if New().OneOf("primary", "streaming", allowed).HasErrors() {
		t.Error("expected allowed value to pass")
	}
	if New().OneOf("primary", "", allowed).HasErrors() {
		t.Error("expected empty value to be skipped")
	}
	v := New().OneOf("primary", "whisper", allowed)
	if !v.HasErrors() {
		t.Fatal("expected error for unknown value")
	}
	if !strings.Contains(v.Errors()[0].Message, "streaming, batchHttp, none") {
		t.Errorf("unexpected message %q", v.Errors()[0].Message)
	}
}

func TestValidatorCustom(t *testing.T) {
	v := New().Custom(false, "audio", "must not be empty")
	if !v.HasErrors() || v.Errors()[0].Message != "must not be empty" {
		t.Errorf("unexpected errors %v", v.Errors())
	}
}

func TestValidatorValidate(t *testing.T) {
	if New().Required("language", "de").Validate() != nil {
		t.Error("expected nil for valid input")
	}
	if New().Err() != nil {
		t.Error("expected nil error for empty validator")
	}

	appErr := New().Required("language", "").Required("audio", "").Validate()
	if appErr == nil {
		t.Fatal("expected error")
	}
	if appErr.Code != errors.ErrCodeInvalidInput {
		t.Errorf("code = %s, want %s", appErr.Code, errors.ErrCodeInvalidInput)
	}
	if !strings.Contains(appErr.Message, "language") || !strings.Contains(appErr.Message, "audio") {
		t.Errorf("expected both fields in message, got %q", appErr.Message)
	}
	fields, ok := appErr.Details["fields"].([]FieldError)
	if !ok || len(fields) != 2 {
		t.Errorf("expected 2 field errors in details, got %v", appErr.Details["fields"])
	}
}

type breakerConfig struct {
	MaxFailures int `mapstructure:"max_failures" validate:"gte=0"`
}

type engineConfig struct {
	Endpoint       string        `mapstructure:"endpoint" validate:"required,url"`
	Language       string        `mapstructure:"language" validate:"omitempty,bcp47_language_tag"`
	Exporter       string        `mapstructure:"exporter" validate:"omitempty,oneof=otlp prometheus"`
	CircuitBreaker breakerConfig `mapstructure:"circuit_breaker"`
}

func TestStructValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     engineConfig
		wantMsg string
	}{
		{
			name: "valid",
			cfg:  engineConfig{Endpoint: "ws://localhost:2700", Language: "de-DE"},
		},
		{
			name:    "missing endpoint",
			cfg:     engineConfig{},
			wantMsg: "endpoint: is required",
		},
		{
			name:    "bad url",
			cfg:     engineConfig{Endpoint: "not a url"},
			wantMsg: "endpoint: must be a valid URL",
		},
		{
			name:    "bad language",
			cfg:     engineConfig{Endpoint: "http://stt:9000", Language: "xx_yy!"},
			wantMsg: "language: must be a BCP-47 language tag",
		},
		{
			name:    "bad exporter",
			cfg:     engineConfig{Endpoint: "http://stt:9000", Exporter: "statsd"},
			wantMsg: "exporter: must be one of: otlp prometheus",
		},
		{
			name:    "nested negative",
			cfg:     engineConfig{Endpoint: "http://stt:9000", CircuitBreaker: breakerConfig{MaxFailures: -1}},
			wantMsg: "circuit_breaker.max_failures: must be at least 0",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(tc.cfg)
			if tc.wantMsg == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error containing %q", tc.wantMsg)
			}
			if !errors.HasCode(err, errors.ErrCodeInvalidInput) {
				t.Errorf("expected validation code, got %v", err)
			}
			if !strings.Contains(err.Error(), tc.wantMsg) {
				t.Errorf("expected error containing %q, got %q", tc.wantMsg, err.Error())
			}
		})
	}
}

func TestToSnakeCase(t *testing.T) {
	tests := map[string]string{
		"Endpoint":      "endpoint",
		"MaxDurationMs": "max_duration_ms",
		"x":             "x",
	}
	for in, want := range tests {
		if got := toSnakeCase(in); got != want {
			t.Errorf("toSnakeCase(%q) = %q, want %q", in, got, want)
		}
	}
}
