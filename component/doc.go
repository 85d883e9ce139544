// Package component defines lifecycle-managed services: the HTTP server,
// the NATS responder and the temp-file janitor all implement Component and
// are started in registration order and stopped in reverse.
package component
