package server

import "context"

// Server defines the lifecycle contract of the remote store listener.
type Server interface {
	// Run serves requests until ctx is cancelled, then shuts down
	// gracefully. It returns the listener error, if any.
	Run(ctx context.Context) error

	// RunServer is Run bound to SIGTERM, SIGINT and SIGQUIT.
	RunServer()

	// Shutdown gracefully stops the server and frees associated resources.
	Shutdown()
}
