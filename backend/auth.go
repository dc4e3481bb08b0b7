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

package backend

import (
	"net/http"
	"strings"
	"unicode/utf8"
)

type contextKey struct{}

// operatorKey is the context key for the authenticated operator.
// The associated value is always a string.
var operatorKey contextKey

// getOperator returns the operator from the request context, if present.
func getOperator(r *http.Request) string {
	if val := r.Context().Value(operatorKey); val != nil {
		if s, ok := val.(string); ok {
			return s
		}
	}
	return ""
}

// normalizeOperator ensures consistent casing and whitespace for operator ids.
func normalizeOperator(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

// maskOperator obscures an operator id for safe logging.
// e.g. "scorer@example.com" -> "s***@example.com", "umpire1" -> "u***"
func maskOperator(id string) string {
	if id == "" {
		return "<empty>"
	}
	name, domain, ok := strings.Cut(id, "@")
	if name == "" {
		return "****"
	}
	_, size := utf8.DecodeRuneInString(name)
	if !ok {
		return name[:size] + "***"
	}
	return name[:size] + "***@" + domain
}
