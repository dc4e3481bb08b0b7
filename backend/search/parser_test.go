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

package search

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParse(t *testing.T) {
	tests := []struct {
		input    string
		expected Query
	}{
		{
			input: "role:bowler",
			expected: Query{
				Filters:  []Filter{{Key: "role", Value: "bowler", Operator: OpEqual}},
				FreeText: []string{},
			},
		},
		{
			input: `role:bowler jersey:>=10 "free text"`,
			expected: Query{
				Filters: []Filter{
					{Key: "role", Value: "bowler", Operator: OpEqual},
					{Key: "jersey", Value: "10", Operator: OpGreaterOrEqual},
				},
				FreeText: []string{"free text"},
			},
		},
		{
			input: `name:"van der Merwe" Jersey:<5`,
			expected: Query{
				Filters: []Filter{
					{Key: "name", Value: "van der Merwe", Operator: OpEqual},
					{Key: "jersey", Value: "5", Operator: OpLess},
				},
				FreeText: []string{},
			},
		},
		{
			input: "jersey:1..11 batting:left",
			expected: Query{
				Filters: []Filter{
					{Key: "jersey", Value: "1", MaxValue: "11", Operator: OpRange},
					{Key: "batting", Value: "left", Operator: OpEqual},
				},
				FreeText: []string{},
			},
		},
		{
			input: "jersey:>7 jersey:<=9",
			expected: Query{
				Filters: []Filter{
					{Key: "jersey", Value: "7", Operator: OpGreater},
					{Key: "jersey", Value: "9", Operator: OpLessOrEqual},
				},
				FreeText: []string{},
			},
		},
		{
			input: `role: :bowler broken:range:x "a:b" smith`,
			expected: Query{
				Filters:  []Filter{},
				FreeText: []string{"role:", ":bowler", "broken:range:x", "a:b", "smith"},
			},
		},
		{
			input: "   ",
			expected: Query{
				Filters:  []Filter{},
				FreeText: []string{},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := Parse(tt.input)
			if diff := cmp.Diff(tt.expected, got); diff != "" {
				t.Errorf("Parse(%q) mismatch (-want +got):\n%s", tt.input, diff)
			}
		})
	}
}

func TestFilterMatchInt(t *testing.T) {
	tests := []struct {
		query string
		n     int
		want  bool
	}{
		{"jersey:10", 10, true},
		{"jersey:10", 11, false},
		{"jersey:>10", 10, false},
		{"jersey:>=10", 10, true},
		{"jersey:<3", 2, true},
		{"jersey:<=3", 4, false},
		{"jersey:1..11", 11, true},
		{"jersey:1..11", 12, false},
		{"jersey:1..x", 5, false},
		{"jersey:ten", 10, false},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			f, ok := Parse(tt.query).Get("jersey")
			if !ok {
				t.Fatalf("no jersey filter in %q", tt.query)
			}
			if got := f.MatchInt(tt.n); got != tt.want {
				t.Errorf("MatchInt(%d) = %v, want %v", tt.n, got, tt.want)
			}
		})
	}
}

func TestFilterMatchString(t *testing.T) {
	f, _ := Parse("role:Bowler").Get("role")
	if !f.MatchString("bowler") {
		t.Error("role match should ignore case")
	}
	if f.MatchString("allrounder") {
		t.Error("role:bowler matched allrounder")
	}
	r, _ := Parse("name:a..m").Get("name")
	if !r.MatchString("Kohli") || r.MatchString("Smith") {
		t.Errorf("range name filter: got Kohli=%v Smith=%v", r.MatchString("Kohli"), r.MatchString("Smith"))
	}
}

func TestQueryText(t *testing.T) {
	q := Parse(`Root "Joe" role:batsman`)
	if got, want := q.Text(), "root joe"; got != want {
		t.Errorf("Text() = %q, want %q", got, want)
	}
	if q.Empty() {
		t.Error("Empty() = true for a query with terms")
	}
	if !Parse("").Empty() {
		t.Error("Empty() = false for blank query")
	}
}
