// Copyright (c) 2026 TTBT Enterprises LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package scoring

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation matches every *ValidationError and *NotFoundError.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound matches *NotFoundError.
	ErrNotFound = errors.New("not found in roster")

	ErrNothingPending = errors.New("no pending ball to save")
	ErrSaveInFlight   = errors.New("a save is already in flight")
	ErrUnsavedBall    = errors.New("the pending ball must be saved before the next ball")
	ErrNoInnings      = errors.New("no active innings")
)

// ValidationError is a local input problem. It never reaches the service.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NotFoundError is a player reference that does not resolve against the roster.
type NotFoundError struct {
	Role string // striker, bowler, fielder, ...
	Ref  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found in roster", e.Role, e.Ref)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound || target == ErrValidation
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}
