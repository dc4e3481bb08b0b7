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
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/ttbt-io/crickeeper/matchapi"
)

// Crease holds the operator's current selections. Each reference is a
// display name, a "first last" name or a numeric player id.
type Crease struct {
	Striker    string `json:"striker"`
	NonStriker string `json:"non_striker"`
	Bowler     string `json:"bowler"`
}

// Swap exchanges striker and non-striker.
func (c Crease) Swap() Crease {
	c.Striker, c.NonStriker = c.NonStriker, c.Striker
	return c
}

// Lineup is the roster state a ball is composed against.
type Lineup struct {
	Batting []matchapi.Player
	Bowling []matchapi.Player
	Crease  Crease
}

func (l Lineup) Striker() (matchapi.Player, error) {
	return resolve(l.Batting, "striker", l.Crease.Striker)
}

func (l Lineup) NonStriker() (matchapi.Player, error) {
	return resolve(l.Batting, "non-striker", l.Crease.NonStriker)
}

func (l Lineup) Bowler() (matchapi.Player, error) {
	return resolve(l.Bowling, "bowler", l.Crease.Bowler)
}

// Fielder resolves ref against the bowling side.
func (l Lineup) Fielder(ref string) (matchapi.Player, error) {
	return resolve(l.Bowling, "fielder", ref)
}

// FindPlayer looks ref up in players.
func FindPlayer(players []matchapi.Player, ref string) (matchapi.Player, bool) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return matchapi.Player{}, false
	}
	id, idErr := strconv.ParseInt(ref, 10, 64)
	return lo.Find(players, func(p matchapi.Player) bool {
		if idErr == nil && p.ID == id {
			return true
		}
		return strings.EqualFold(p.Name(), ref) ||
			strings.EqualFold(strings.TrimSpace(p.FirstName+" "+p.LastName), ref)
	})
}

func resolve(players []matchapi.Player, role, ref string) (matchapi.Player, error) {
	if strings.TrimSpace(ref) == "" {
		return matchapi.Player{}, invalid(role, "no %s selected", role)
	}
	p, ok := FindPlayer(players, ref)
	if !ok {
		return matchapi.Player{}, &NotFoundError{Role: role, Ref: ref}
	}
	return p, nil
}
