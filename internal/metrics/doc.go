// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package metrics holds the Prometheus collectors of the sync engine and of
// the reference remote store.
//
// Collectors are registered on the [prometheus.Registerer] passed to the
// constructor so tests can use a private registry. All methods are safe to
// call on a nil receiver, which disables recording.
package metrics
