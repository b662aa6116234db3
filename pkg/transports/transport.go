package transports

import "context"

// Transport is a network boundary that accepts customer traffic and
// hands utterances to the engine. Implementations own their server
// lifecycle.
type Transport interface {
	Name() string
	Start(ctx context.Context) error
	Stop() error
}

// ReadyReporter lets transports expose readiness metadata (bind
// address, endpoint paths) for informational logging only.
type ReadyReporter interface {
	ReadyFields() map[string]any
}
