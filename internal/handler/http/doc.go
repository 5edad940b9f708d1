// Package http is the REST transport of the reference remote store.
//
// Routes are wired with chi in routes.go. Every request gets a trace id and
// an access log line; the note and sync endpoints additionally require a
// bearer token issued by the auth endpoints. Service errors are mapped to
// status codes in errors_mapper.go.
package http
