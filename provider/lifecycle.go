package provider

import "context"

// Initializable is optionally implemented by providers that need setup
// before handling requests, such as validating an endpoint URL.
type Initializable interface {
	Init(ctx context.Context) error
}

// Closeable is optionally implemented by providers that hold resources
// requiring explicit cleanup, such as idle HTTP connections.
type Closeable interface {
	Close(ctx context.Context) error
}
