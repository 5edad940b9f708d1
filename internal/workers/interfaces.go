// Package workers runs the long-lived background loops of the client daemon
// (connectivity probing, the periodic sync trigger, the listener) under one
// lifetime.
package workers

import "context"

// Worker is a background loop. Run blocks until ctx is cancelled or the
// worker fails.
//
// Example implementation:
//
//	type MyWorker struct{}
//
//	func (w *MyWorker) Run(ctx context.Context) error {
//	    <-ctx.Done()
//	    return nil
//	}
type Worker interface {
	Run(ctx context.Context) error
}

// WorkerFunc adapts a function to [Worker].
type WorkerFunc func(ctx context.Context) error

func (f WorkerFunc) Run(ctx context.Context) error {
	return f(ctx)
}
