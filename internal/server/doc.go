// Package server runs the HTTP listener of the reference remote store.
//
// It owns the listener lifecycle: startup, signal handling and graceful
// shutdown.
package server
