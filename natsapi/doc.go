// Package natsapi serves the orchestrator over NATS request-reply.
//
// Subjects, with the default "stt" prefix:
//
//	stt.transcribe  TranscribeRequest -> transcription.Result or errors.ErrorResponse
//	stt.status      empty             -> {"streaming": true, "batchHttp": false}
//
// Subscriptions join a queue group so several daemons can share the load.
// Transcriptions run concurrently under a bulkhead. With Embedded set the
// service starts an in-process NATS server and connects to it.
package natsapi
