package streaming

import "testing"

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"largest frame", func(c *Config) { c.ChunkSize = 8192 }, false},
		{"frame too large", func(c *Config) { c.ChunkSize = 8193 }, true},
		{"negative frame", func(c *Config) { c.ChunkSize = -1 }, true},
		{"missing endpoint", func(c *Config) { c.Endpoint = "" }, true},
		{"negative timeout", func(c *Config) { c.ResponseTimeoutMs = -5 }, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Config{Endpoint: "ws://vosk:2700"}
			cfg.ApplyDefaults()
			tc.mutate(&cfg)
			if err := cfg.Validate(); (err != nil) != tc.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestConfig_ApplyDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	if cfg.ChunkSize != 8192 || cfg.ConnectTimeoutMs != 2000 || cfg.ResponseTimeoutMs != 30000 {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if len(cfg.PhraseList) == 0 {
		t.Error("expected default phrase list")
	}
}
