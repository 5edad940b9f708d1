// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package config provides configuration loading, merging, and validation for
// the notes client and the reference remote store.
//
// Configuration is assembled from several sources. Later sources override
// non-zero fields of earlier ones:
//  1. A .env file in the working directory (loaded into the process environment)
//  2. Environment variables, including defaults from envDefault tags
//  3. A JSON or YAML config file (path from CONFIG, -c/-config or --config)
//  4. Command-line flags
//
// The entry points are [GetClientConfig] and [GetServerConfig].
package config
