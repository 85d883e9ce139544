// Package logger provides structured zerolog logging for sttkit services.
//
// Loggers are injected through constructors; the global logger only serves
// the command entry point and package-level helpers.
//
//	logging:
//	  level: "info"
//	  format: "json"
//
//	log := logger.New(&cfg, "sttd").WithComponent("orchestrator")
//	log.Info("provider selected", logger.Fields(logger.FieldProvider, "vosk"))
package logger
