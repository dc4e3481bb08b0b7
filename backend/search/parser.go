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

// Package search parses the console's roster query syntax, e.g.
// `role:bowler jersey:>=10 "free text"`.
package search

import (
	"strconv"
	"strings"
	"unicode"
)

// Operator compares a filter value with a field.
type Operator string

const (
	OpEqual          Operator = "="
	OpGreater        Operator = ">"
	OpGreaterOrEqual Operator = ">="
	OpLess           Operator = "<"
	OpLessOrEqual    Operator = "<="
	OpRange          Operator = ".." // jersey:1..11
)

// prefixed operators, longest first so ">=" wins over ">".
var prefixOps = []Operator{OpGreaterOrEqual, OpLessOrEqual, OpGreater, OpLess}

// Filter is one key:value term.
type Filter struct {
	Key      string   // e.g. "role", "jersey", "team"
	Value    string   // e.g. "bowler", "10"
	MaxValue string   // upper bound, OpRange only
	Operator Operator // e.g. "=", ">="
}

// Query is a parsed search string.
type Query struct {
	Filters  []Filter
	FreeText []string
}

// Parse splits input into filters and free text. Terms are separated by
// spaces; quotes group words, in values too (name:"van der Merwe").
// A term with an empty key or value, or an unquoted second colon, is free text.
func Parse(input string) Query {
	q := Query{
		Filters:  make([]Filter, 0),
		FreeText: make([]string, 0),
	}
	for _, token := range tokenize(input) {
		key, val, found := strings.Cut(token, ":")
		key = strings.ToLower(strings.TrimSpace(key))
		val = strings.TrimSpace(val)
		switch {
		case !found || quoted(token):
			q.FreeText = append(q.FreeText, removeQuotes(token))
		case key == "" || val == "":
			q.FreeText = append(q.FreeText, token)
		case strings.Contains(val, ":") && !quoted(val):
			q.FreeText = append(q.FreeText, token)
		default:
			q.Filters = append(q.Filters, parseFilter(key, val))
		}
	}
	return q
}

func parseFilter(key, val string) Filter {
	if lo, hi, ok := strings.Cut(val, ".."); ok && !quoted(val) {
		return Filter{Key: key, Value: lo, MaxValue: hi, Operator: OpRange}
	}
	for _, op := range prefixOps {
		if rest, ok := strings.CutPrefix(val, string(op)); ok {
			return Filter{Key: key, Value: removeQuotes(rest), Operator: op}
		}
	}
	return Filter{Key: key, Value: removeQuotes(val), Operator: OpEqual}
}

// Get returns the first filter with key.
func (q Query) Get(key string) (Filter, bool) {
	for _, f := range q.Filters {
		if f.Key == key {
			return f, true
		}
	}
	return Filter{}, false
}

// Text returns the free text terms joined by a space, lower-cased.
func (q Query) Text() string {
	return strings.ToLower(strings.Join(q.FreeText, " "))
}

// Empty reports whether the query has no terms.
func (q Query) Empty() bool {
	return len(q.Filters) == 0 && len(q.FreeText) == 0
}

// MatchInt compares n with a numeric filter. Non-numeric values never match.
func (f Filter) MatchInt(n int) bool {
	v, err := strconv.Atoi(f.Value)
	if err != nil {
		return false
	}
	switch f.Operator {
	case OpEqual:
		return n == v
	case OpGreater:
		return n > v
	case OpGreaterOrEqual:
		return n >= v
	case OpLess:
		return n < v
	case OpLessOrEqual:
		return n <= v
	case OpRange:
		hi, err := strconv.Atoi(f.MaxValue)
		if err != nil {
			return false
		}
		return n >= v && n <= hi
	}
	return false
}

// MatchString reports whether s equals the filter value, ignoring case.
// Ordering operators compare lexically.
func (f Filter) MatchString(s string) bool {
	s, v := strings.ToLower(s), strings.ToLower(f.Value)
	switch f.Operator {
	case OpEqual:
		return s == v
	case OpGreater:
		return s > v
	case OpGreaterOrEqual:
		return s >= v
	case OpLess:
		return s < v
	case OpLessOrEqual:
		return s <= v
	case OpRange:
		return s >= v && s <= strings.ToLower(f.MaxValue)
	}
	return false
}

// tokenize splits the string by spaces, respecting quotes.
func tokenize(input string) []string {
	var tokens []string
	var cur strings.Builder
	var quote rune
	for _, r := range input {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
			cur.WriteRune(r)
		case unicode.IsSpace(r):
			if cur.Len() > 0 {
				tokens = append(tokens, cur.String())
				cur.Reset()
			}
		case r == '"' || r == '\'':
			quote = r
			cur.WriteRune(r)
		default:
			cur.WriteRune(r)
		}
	}
	if cur.Len() > 0 {
		tokens = append(tokens, cur.String())
	}
	return tokens
}

func quoted(s string) bool {
	return strings.HasPrefix(s, `"`) || strings.HasPrefix(s, "'")
}

func removeQuotes(s string) string {
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if (first == '"' && last == '"') || (first == '\'' && last == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
