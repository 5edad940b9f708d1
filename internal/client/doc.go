// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package client wires one device: the local durable store, the server
// adapter and the sync engine services.
//
// [App] is used by the command line client both for one-shot commands
// (edit, list, sync) and for the long-running daemon that keeps the device
// in sync while connectivity comes and goes.
package client
