// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package validators checks request payloads of the reference remote store
// before they reach the service layer.
//
// Field rules are declared as `validate` struct tags on the models and
// enforced with go-playground/validator; cross-field and collection rules
// are checked by hand.
package validators

import "context"

// Validator validates an input value.
type Validator interface {
	Validate(ctx context.Context, obj any) error
}
