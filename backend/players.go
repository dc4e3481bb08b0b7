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
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/ttbt-io/crickeeper/backend/search"
	"github.com/ttbt-io/crickeeper/matchapi"
	"github.com/ttbt-io/crickeeper/scoring"
)

const (
	defaultPageSize = 50
	maxPageSize     = 100
)

// parsePagination reads limit and offset, clamping limit to 1..100.
func parsePagination(r *http.Request) (limit, offset int) {
	limit = defaultPageSize
	if l := r.URL.Query().Get("limit"); l != "" {
		if val, err := strconv.Atoi(l); err == nil {
			limit = val
		}
	}
	if o := r.URL.Query().Get("offset"); o != "" {
		if val, err := strconv.Atoi(o); err == nil {
			offset = val
		}
	}
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// Page is one slice of a list response.
type Page[T any] struct {
	Results []T `json:"results"`
	Total   int `json:"total"`
	Limit   int `json:"limit"`
	Offset  int `json:"offset"`
}

func page[T any](all []T, limit, offset int) Page[T] {
	p := Page[T]{Total: len(all), Limit: limit, Offset: offset, Results: []T{}}
	if offset < len(all) {
		p.Results = all[offset:min(offset+limit, len(all))]
	}
	return p
}

// playerFilter is a parsed roster query.
type playerFilter struct {
	q search.Query
}

var playerKeys = []string{"role", "jersey", "name", "batting", "bowling"}

func parsePlayerQuery(s string) (playerFilter, error) {
	q := search.Parse(s)
	for _, f := range q.Filters {
		if !lo.Contains(playerKeys, f.Key) {
			return playerFilter{}, &scoring.ValidationError{
				Field:   "q",
				Message: "unknown filter " + strconv.Quote(f.Key) + ", want one of " + strings.Join(playerKeys, ", "),
			}
		}
	}
	return playerFilter{q: q}, nil
}

func (pf playerFilter) apply(players []matchapi.Player) []matchapi.Player {
	if pf.q.Empty() {
		return players
	}
	return lo.Filter(players, func(p matchapi.Player, _ int) bool { return pf.match(p) })
}

func (pf playerFilter) match(p matchapi.Player) bool {
	for _, f := range pf.q.Filters {
		var ok bool
		switch f.Key {
		case "role":
			ok = f.MatchString(p.Role)
		case "jersey":
			ok = p.JerseyNumber != nil && f.MatchInt(*p.JerseyNumber)
		case "name":
			ok = containsText(f, p.Name())
		case "batting":
			ok = containsText(f, p.BattingStyle)
		case "bowling":
			ok = containsText(f, p.BowlingStyle)
		}
		if !ok {
			return false
		}
	}
	name := strings.ToLower(p.FirstName + " " + p.LastName + " " + p.DisplayName)
	for _, term := range pf.q.FreeText {
		if !strings.Contains(name, strings.ToLower(term)) {
			return false
		}
	}
	return true
}

// containsText treats "=" as a substring match, other operators compare.
func containsText(f search.Filter, s string) bool {
	if f.Operator == search.OpEqual {
		return strings.Contains(strings.ToLower(s), strings.ToLower(f.Value))
	}
	return f.MatchString(s)
}
