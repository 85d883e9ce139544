// Package api exposes the orchestrator over HTTP.
//
// Routes, registered under /api/v1:
//
//	POST /transcribe          multipart field "audio" or a raw audio body
//	GET  /providers/status    {"data": {"streaming": true, "batchHttp": false}}
//
// The language comes from the "language" form field, the "language" query
// parameter or the X-Language header, in that order. Clips are checked
// against the maximum duration before any engine is contacted.
package api
