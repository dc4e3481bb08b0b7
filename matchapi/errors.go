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

package matchapi

import (
	"errors"
	"fmt"
	"strings"
)

// overCompletedMessage is the error text the service returns when a ball is
// addressed to an over that is already complete.
const overCompletedMessage = "Over is already completed"

// ErrOverCompleted matches any *ConflictError.
var ErrOverCompleted = errors.New("over is already completed")

// ConflictError reports that the addressed over is already complete.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return "match service conflict: " + e.Message
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrOverCompleted
}

// TransientError is any other failure talking to the service: network errors,
// 5xx responses and 4xx responses that are not conflicts. Nothing retries it.
type TransientError struct {
	Method     string
	Path       string
	StatusCode int // 0 for network errors
	Message    string
	Err        error
}

func (e *TransientError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "match service %s %s", e.Method, e.Path)
	if e.StatusCode != 0 {
		fmt.Fprintf(&sb, ": status %d", e.StatusCode)
	}
	if e.Message != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Message)
	}
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// IsConflict reports whether err is an over-completed conflict.
func IsConflict(err error) bool {
	return errors.Is(err, ErrOverCompleted)
}

func isOverCompleted(msg string) bool {
	return strings.EqualFold(strings.TrimSpace(msg), overCompletedMessage)
}
