// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

// Storage engines supported by the client.
const (
	EngineSQLite = "sqlite"
	EngineBolt   = "bolt"
)

func (cfg *ClientConfig) validate() error {
	if cfg.Storage.DB.DSN == "" {
		return ErrInvalidStorageConfigs
	}
	switch cfg.Storage.Engine {
	case EngineSQLite, EngineBolt:
	default:
		return ErrInvalidStorageConfigs
	}

	if cfg.Adapter.HTTPAddress == "" || cfg.Adapter.RequestTimeout <= 0 {
		return ErrInvalidAdapterConfigs
	}

	s := cfg.Sync
	if s.Interval <= 0 || s.ProbeInterval <= 0 || s.ProbeTimeout <= 0 ||
		s.BackoffFloor <= 0 || s.BackoffCeiling < s.BackoffFloor || s.SaveDebounce < 0 {
		return ErrInvalidSyncConfigs
	}

	return nil
}

func (cfg *ServerConfig) validate() error {
	if cfg.Server.HTTPAddress == "" {
		return ErrInvalidServerConfigs
	}

	if cfg.Auth.TokenSignKey == "" || cfg.Auth.TokenIssuer == "" || cfg.Auth.TokenDuration <= 0 {
		return ErrInvalidAuthConfigs
	}

	return nil
}
