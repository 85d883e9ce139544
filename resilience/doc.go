// Package resilience provides the fault-tolerance primitives used around
// speech backends and transcoder subprocesses.
//
//   - CircuitBreaker: fails fast while a backend keeps failing
//   - Retry: retries transient failures with exponential backoff
//   - Bulkhead: caps concurrent work such as transcoder processes
//
// Example:
//
//	cb := resilience.NewCircuitBreaker(resilience.DefaultCircuitBreakerConfig("batch-http"))
//	err := cb.Execute(func() error { return upload(ctx) })
package resilience
