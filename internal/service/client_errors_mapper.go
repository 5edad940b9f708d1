// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"errors"
	"fmt"

	"github.com/mars-alien/NoteTakingApp/internal/adapter"
	"github.com/mars-alien/NoteTakingApp/internal/store"
)

// mapAdapterError translates an adapter error of the auth endpoints into a
// service business error. The original error stays in the chain.
func mapAdapterError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, adapter.ErrUnauthorized):
		return fmt.Errorf("%w: %w", ErrWrongPassword, err)
	case errors.Is(err, adapter.ErrConflict):
		return fmt.Errorf("%w: %w", store.ErrLoginAlreadyExists, err)
	case errors.Is(err, adapter.ErrBadRequest):
		return fmt.Errorf("%w: %w", ErrInvalidDataProvided, err)
	}

	return err
}
