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

package match

import (
	"strings"

	"github.com/ttbt-io/crickeeper/matchapi"
	"github.com/ttbt-io/crickeeper/scoring"
)

// Format is the match format.
type Format string

const (
	FormatT20    Format = "T20"
	FormatODI    Format = "ODI"
	FormatTest   Format = "Test"
	FormatCustom Format = "custom"
)

// PresetOvers are the overs per innings of the standard formats.
var PresetOvers = map[Format]int{
	FormatT20:  20,
	FormatODI:  50,
	FormatTest: 90,
}

const (
	DefaultVenue = "Fischer County Ground"
	// MinPlayers is the smallest squad a team can take the field with.
	MinPlayers = 11
)

// Setup is the match setup form.
type Setup struct {
	Format     Format `json:"format" validate:"required,oneof=T20 ODI Test custom"`
	CustomName string `json:"custom_name" validate:"required_if=Format custom,max=50"`
	Overs      int    `json:"overs" validate:"gte=0,lte=200"`
	Venue      string `json:"venue" validate:"max=100"`
	Team1      int64  `json:"team1" validate:"required"`
	Team2      int64  `json:"team2" validate:"required,nefield=Team1"`
}

// Normalize fills the preset overs and the default venue.
func (s Setup) Normalize() Setup {
	if overs, ok := PresetOvers[s.Format]; ok {
		s.Overs = overs
	}
	s.CustomName = strings.TrimSpace(s.CustomName)
	s.Venue = strings.TrimSpace(s.Venue)
	if s.Venue == "" {
		s.Venue = DefaultVenue
	}
	return s
}

// Validate checks the form given the squad sizes of both teams.
func (s Setup) Validate(team1Players, team2Players int) error {
	if err := check(s); err != nil {
		return err
	}
	if s.Overs <= 0 {
		return &scoring.ValidationError{Field: "overs", Message: "must be at least 1"}
	}
	if team1Players < MinPlayers {
		return &scoring.ValidationError{Field: "team1", Message: "needs at least 11 players"}
	}
	if team2Players < MinPlayers {
		return &scoring.ValidationError{Field: "team2", Message: "needs at least 11 players"}
	}
	return nil
}

// MatchType is the match_type sent to the service.
func (s Setup) MatchType() string {
	if s.Format == FormatCustom {
		return s.CustomName
	}
	return string(s.Format)
}

// TeamForm is the create team form.
type TeamForm struct {
	Name      string `json:"name" validate:"required,max=100"`
	ShortName string `json:"short_name" validate:"max=10"`
}

func (f TeamForm) Validate() error {
	return check(f)
}

func (f TeamForm) Team() matchapi.Team {
	return matchapi.Team{Name: strings.TrimSpace(f.Name), ShortName: strings.TrimSpace(f.ShortName)}
}

// PlayerForm is the create player form.
type PlayerForm struct {
	FirstName    string `json:"fname" validate:"required,max=50"`
	LastName     string `json:"lname" validate:"required,max=50"`
	DisplayName  string `json:"display_name" validate:"max=50"`
	Team         int64  `json:"team" validate:"required"`
	Role         string `json:"role" validate:"omitempty,oneof=batsman bowler allrounder wicketkeeper"`
	BattingStyle string `json:"batting_style" validate:"max=30"`
	BowlingStyle string `json:"bowling_style" validate:"max=30"`
	JerseyNumber *int   `json:"jersey_number" validate:"omitempty,gte=0,lte=999"`
}

func (f PlayerForm) Validate() error {
	return check(f)
}

// Player converts the form, defaulting the role to batsman.
func (f PlayerForm) Player() matchapi.Player {
	role := f.Role
	if role == "" {
		role = "batsman"
	}
	return matchapi.Player{
		Team:         f.Team,
		FirstName:    strings.TrimSpace(f.FirstName),
		LastName:     strings.TrimSpace(f.LastName),
		DisplayName:  strings.TrimSpace(f.DisplayName),
		Role:         role,
		BattingStyle: f.BattingStyle,
		BowlingStyle: f.BowlingStyle,
		JerseyNumber: f.JerseyNumber,
	}
}

// Toss decisions
const (
	DecisionBat  = "bat"
	DecisionBowl = "bowl"
)

// TossForm is the toss form.
type TossForm struct {
	Winner   int64  `json:"toss_winner" validate:"required"`
	Decision string `json:"toss_decision" validate:"required,oneof=bat bowl"`
}

// ResultForm is the match completion form.
type ResultForm struct {
	Result      string `json:"result" validate:"required,max=200"`
	WinningTeam int64  `json:"winning_team"`
	WinMargin   string `json:"win_margin" validate:"max=50"`
}
