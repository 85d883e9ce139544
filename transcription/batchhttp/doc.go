// Package batchhttp implements a speech engine reached with a single
// multipart upload (whisper-asr-webservice compatible API).
//
// The raw clip is posted unconverted to POST {endpoint}/asr together with
// the engine's short language code. Availability is a GET against a
// lightweight page such as /docs.
package batchhttp
