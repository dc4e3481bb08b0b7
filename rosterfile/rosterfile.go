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

// Package rosterfile imports teams and players from YAML roster files.
package rosterfile

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/ttbt-io/crickeeper/match"
	"github.com/ttbt-io/crickeeper/matchapi"
)

// File is a roster file.
type File struct {
	Teams []Team `yaml:"teams"`
}

type Team struct {
	Name      string   `yaml:"name"`
	ShortName string   `yaml:"short_name"`
	Players   []Player `yaml:"players"`
}

type Player struct {
	FirstName    string `yaml:"fname"`
	LastName     string `yaml:"lname"`
	DisplayName  string `yaml:"display_name"`
	Role         string `yaml:"role"`
	BattingStyle string `yaml:"batting_style"`
	BowlingStyle string `yaml:"bowling_style"`
	JerseyNumber *int   `yaml:"jersey_number"`
}

// Service is what an import needs from the match service.
type Service interface {
	Teams(ctx context.Context) ([]matchapi.Team, error)
	CreateTeam(ctx context.Context, t matchapi.Team) (matchapi.Team, error)
	Players(ctx context.Context, teamID int64) ([]matchapi.Player, error)
	CreatePlayer(ctx context.Context, p matchapi.Player) (matchapi.Player, error)
}

// Report counts what an import did.
type Report struct {
	TeamsCreated   int `json:"teams_created"`
	TeamsExisting  int `json:"teams_existing"`
	PlayersCreated int `json:"players_created"`
	PlayersSkipped int `json:"players_skipped"`
}

// Parse decodes and validates a roster file.
func Parse(r io.Reader) (File, error) {
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return File{}, fmt.Errorf("decode roster: %w", err)
	}
	for i, t := range f.Teams {
		if err := (match.TeamForm{Name: t.Name, ShortName: t.ShortName}).Validate(); err != nil {
			return File{}, fmt.Errorf("team %d: %w", i+1, err)
		}
		for j, p := range t.Players {
			// Team id is not known yet; any non-zero value passes the form.
			if err := p.form(1).Validate(); err != nil {
				return File{}, fmt.Errorf("team %q player %d: %w", t.Name, j+1, err)
			}
		}
	}
	return f, nil
}

// ParseFile reads a roster file from disk.
func ParseFile(path string) (File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return File{}, err
	}
	defer fh.Close()
	return Parse(fh)
}

func (p Player) form(team int64) match.PlayerForm {
	return match.PlayerForm{
		FirstName:    p.FirstName,
		LastName:     p.LastName,
		DisplayName:  p.DisplayName,
		Team:         team,
		Role:         p.Role,
		BattingStyle: p.BattingStyle,
		BowlingStyle: p.BowlingStyle,
		JerseyNumber: p.JerseyNumber,
	}
}

// Import creates the file's teams and players. Teams are matched by name and
// players by first and last name, so importing the same file twice creates
// nothing the second time.
func Import(ctx context.Context, svc Service, f File, logger *zap.Logger) (Report, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var rep Report
	existing, err := svc.Teams(ctx)
	if err != nil {
		return rep, fmt.Errorf("list teams: %w", err)
	}
	for _, t := range f.Teams {
		team, ok := lo.Find(existing, func(e matchapi.Team) bool {
			return strings.EqualFold(strings.TrimSpace(e.Name), strings.TrimSpace(t.Name))
		})
		var roster []matchapi.Player
		if ok {
			rep.TeamsExisting++
			if roster, err = svc.Players(ctx, team.ID); err != nil {
				return rep, fmt.Errorf("list players of %s: %w", team.Name, err)
			}
		} else {
			form := match.TeamForm{Name: t.Name, ShortName: t.ShortName}
			if team, err = svc.CreateTeam(ctx, form.Team()); err != nil {
				return rep, fmt.Errorf("create team %s: %w", t.Name, err)
			}
			existing = append(existing, team)
			rep.TeamsCreated++
			logger.Info("team created", zap.String("team", team.Name), zap.Int64("id", team.ID))
		}

		for _, p := range t.Players {
			if lo.ContainsBy(roster, func(e matchapi.Player) bool {
				return strings.EqualFold(e.FirstName, strings.TrimSpace(p.FirstName)) &&
					strings.EqualFold(e.LastName, strings.TrimSpace(p.LastName))
			}) {
				rep.PlayersSkipped++
				continue
			}
			created, err := svc.CreatePlayer(ctx, p.form(team.ID).Player())
			if err != nil {
				return rep, fmt.Errorf("create player %s %s: %w", p.FirstName, p.LastName, err)
			}
			roster = append(roster, created)
			rep.PlayersCreated++
		}
	}
	return rep, nil
}
