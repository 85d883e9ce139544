// Package config loads service configuration with Viper.
//
// LoadConfig looks for cmd/<service>/config.yml (and a few parent and
// config/ directories), then overlays a .env file and process environment
// variables. Environment keys map onto nested config keys by splitting on
// underscores, so STT_PRIMARY sets stt.primary and
// STREAMING_ENDPOINT sets streaming.endpoint.
//
//	var cfg Config
//	err := config.LoadConfig("sttd", &cfg, config.WithConfigFile(path))
package config
