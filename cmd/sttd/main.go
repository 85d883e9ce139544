// Command sttd runs the speech-to-text orchestrator as a daemon with an HTTP
// API and an optional NATS surface, or transcribes a single file and exits.
//
//	sttd -config config.yml
//	sttd -file clip.webm -language de-DE
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/kbukum/sttkit/audio"
	"github.com/kbukum/sttkit/bootstrap"
	"github.com/kbukum/sttkit/config"
	"github.com/kbukum/sttkit/server/endpoint"
	"github.com/kbukum/sttkit/transcription"
)

var version = "0.1.0-dev"

type flags struct {
	configPath  string
	envFile     string
	file        string
	mimeType    string
	language    string
	showVersion bool
}

func main() {
	var f flags
	flag.StringVar(&f.configPath, "config", "", "Path to configuration file (default: search cmd/sttd, config, .)")
	flag.StringVar(&f.envFile, "env", "", "Path to .env file")
	flag.StringVar(&f.file, "file", "", "Transcribe this audio file, print the result as JSON and exit")
	flag.StringVar(&f.mimeType, "mime", "", "MIME type of -file (default: sniffed)")
	flag.StringVar(&f.language, "language", "", "Language tag for -file (default: stt.language)")
	flag.BoolVar(&f.showVersion, "version", false, "Print version and exit")
	flag.Parse()

	if f.showVersion {
		info := endpoint.ReadBuildInfo(version)
		fmt.Printf("%s %s (%s)\n", serviceName, info.Version, info.GoVersion)
		return
	}

	if err := run(context.Background(), f); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", serviceName, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, f flags) error {
	cfg := defaultConfig()
	cfg.Version = version

	var opts []config.LoaderOption
	if f.configPath != "" {
		opts = append(opts, config.WithConfigFile(f.configPath))
	}
	if f.envFile != "" {
		opts = append(opts, config.WithEnvFile(f.envFile))
	}
	if err := config.LoadConfig(serviceName, cfg, opts...); err != nil {
		return err
	}

	if f.file != "" && cfg.Logging.Output == "" {
		// stdout carries the result.
		cfg.Logging.Output = "stderr"
	}

	app, err := bootstrap.NewApp(cfg)
	if err != nil {
		return err
	}

	d, err := wire(ctx, app, f.file == "")
	if err != nil {
		return err
	}

	if f.file != "" {
		return app.RunTask(ctx, func(ctx context.Context) error {
			return transcribeFile(ctx, d, f)
		})
	}
	return app.Run(ctx)
}

// transcribeFile is the one-shot mode: validate, transcribe, print.
func transcribeFile(ctx context.Context, d *daemon, f flags) error {
	data, err := os.ReadFile(f.file)
	if err != nil {
		return err
	}
	mimeType := f.mimeType
	if mimeType == "" {
		mimeType = audio.DetectMIME(data, "")
	}

	sttCfg := d.orchestrator.Config()
	maxDuration := sttCfg.MaxDuration()
	if d.validator != nil {
		if v := d.validator.Validate(ctx, data, mimeType, maxDuration); !v.Valid {
			return v.Err
		}
	}

	res, err := d.orchestrator.Transcribe(ctx, transcription.Request{
		Audio:       data,
		MimeType:    mimeType,
		Language:    f.language,
		MaxDuration: maxDuration,
	})
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
