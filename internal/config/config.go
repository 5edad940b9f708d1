// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"fmt"
	"time"
)

// StructuredConfig is the top-level configuration container. It is populated
// by merging environment variables, an optional config file and flags.
type StructuredConfig struct {
	App     App     `envPrefix:"APP_"`
	Auth    Auth    `envPrefix:"AUTH_"`
	Storage Storage `envPrefix:"STORAGE_"`
	Server  Server  `envPrefix:"SERVER_"`
	Adapter Adapter `envPrefix:"ADAPTER_"`
	Sync    Sync    `envPrefix:"SYNC_"`

	// JSONFilePath is the optional path to a JSON or YAML config file.
	// Env: CONFIG
	JSONFilePath string `env:"CONFIG"`
}

// App holds process-level settings.
type App struct {
	// LogFile is where the client writes its logs.
	// Env: APP_LOG_FILE
	LogFile string `env:"LOG_FILE"`

	// Version is exposed by the server health endpoint.
	// Env: APP_VERSION
	Version string `env:"VERSION" envDefault:"dev"`
}

// Auth holds token settings of the reference remote store.
type Auth struct {
	// TokenSignKey is the HMAC key used to sign and verify JWT tokens.
	// Env: AUTH_TOKEN_SIGN_KEY
	TokenSignKey string `env:"TOKEN_SIGN_KEY"`

	// TokenIssuer is the "iss" claim of every issued token.
	// Env: AUTH_TOKEN_ISSUER
	TokenIssuer string `env:"TOKEN_ISSUER" envDefault:"notes-server"`

	// TokenDuration is how long an issued token stays valid.
	// Env: AUTH_TOKEN_DURATION
	TokenDuration time.Duration `env:"TOKEN_DURATION" envDefault:"24h"`
}

// Storage groups persistence settings.
type Storage struct {
	// Engine selects the client durable store: "sqlite" or "bolt".
	// Env: STORAGE_ENGINE
	Engine string `env:"ENGINE" envDefault:"sqlite"`

	DB DB `envPrefix:"DB_"`
}

// DB holds the database location. For the client this is a file path, for
// the server a PostgreSQL DSN (empty selects the in-memory store).
type DB struct {
	// Env: STORAGE_DB_DATABASE_URI
	DSN string `env:"DATABASE_URI"`
}

// Server holds settings of the reference remote store listener.
type Server struct {
	// HTTPAddress is the "host:port" the server listens on.
	// Env: SERVER_ADDRESS
	HTTPAddress string `env:"ADDRESS"`

	// RequestTimeout bounds the handling of a single request.
	// Env: SERVER_REQUEST_TIMEOUT
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`
}

// Adapter holds the client transport settings.
type Adapter struct {
	// HTTPAddress is the base URL of the remote store.
	// Env: ADAPTER_ADDRESS
	HTTPAddress string `env:"ADDRESS"`

	// RequestTimeout bounds every outbound request. A timed-out request is
	// treated as a transient failure by the sync engine.
	// Env: ADAPTER_REQUEST_TIMEOUT
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"15s"`
}

// Sync holds the sync engine timing settings.
type Sync struct {
	// Interval is the period of the timer trigger while online.
	// Env: SYNC_INTERVAL
	Interval time.Duration `env:"INTERVAL" envDefault:"1m"`

	// ProbeInterval is how often the connectivity observer probes the server.
	// Env: SYNC_PROBE_INTERVAL
	ProbeInterval time.Duration `env:"PROBE_INTERVAL" envDefault:"10s"`

	// ProbeTimeout bounds a single connectivity probe.
	// Env: SYNC_PROBE_TIMEOUT
	ProbeTimeout time.Duration `env:"PROBE_TIMEOUT" envDefault:"3s"`

	// BackoffFloor is the retry delay after a successful cycle.
	// Env: SYNC_BACKOFF_FLOOR
	BackoffFloor time.Duration `env:"BACKOFF_FLOOR" envDefault:"1s"`

	// BackoffCeiling caps the retry delay.
	// Env: SYNC_BACKOFF_CEILING
	BackoffCeiling time.Duration `env:"BACKOFF_CEILING" envDefault:"5m"`

	// SaveDebounce delays the sync trigger after a local save; further saves
	// within the window reschedule it. Zero triggers immediately.
	// Env: SYNC_SAVE_DEBOUNCE
	SaveDebounce time.Duration `env:"SAVE_DEBOUNCE" envDefault:"500ms"`
}

// ClientConfig is the client view of [StructuredConfig].
type ClientConfig struct {
	App     App
	Adapter Adapter
	Storage Storage
	Sync    Sync
}

// ServerConfig is the reference remote store view of [StructuredConfig].
type ServerConfig struct {
	App     App
	Auth    Auth
	Server  Server
	Storage Storage
}

// GetClientConfig loads the merged configuration and returns the validated
// client view. overlay carries values set on the command line; it may be nil.
func GetClientConfig(overlay *StructuredConfig) (*ClientConfig, error) {
	cfg, err := newConfigBuilder().
		withDotEnv().
		withEnv().
		withOverlay(overlay).
		withFile().
		build()
	if err != nil {
		return nil, fmt.Errorf("error get structured config: %w", err)
	}

	clientCfg := &ClientConfig{
		App:     cfg.App,
		Adapter: cfg.Adapter,
		Storage: cfg.Storage,
		Sync:    cfg.Sync,
	}

	return clientCfg, clientCfg.validate()
}

// GetServerConfig loads the merged configuration, parsing args as server
// flags, and returns the validated server view.
func GetServerConfig(args []string) (*ServerConfig, error) {
	cfg, err := newConfigBuilder().
		withDotEnv().
		withEnv().
		withFlags(args).
		withFile().
		build()
	if err != nil {
		return nil, fmt.Errorf("error get structured config: %w", err)
	}

	serverCfg := &ServerConfig{
		App:     cfg.App,
		Auth:    cfg.Auth,
		Server:  cfg.Server,
		Storage: cfg.Storage,
	}

	return serverCfg, serverCfg.validate()
}
