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
	"strings"

	"github.com/shopspring/decimal"
)

// Match status values as stored by the match service.
const (
	StatusScheduled = "scheduled"
	StatusInning1   = "inning1"
	StatusInning2   = "inning2"
	StatusFinished  = "finished"
)

// Team is a team as returned by the match service.
type Team struct {
	ID        int64    `json:"id,omitempty"`
	Name      string   `json:"name"`
	ShortName string   `json:"short_name,omitempty"`
	Players   []Player `json:"players,omitempty"`
}

// Player is a roster entry. Identifiers are assigned by the service.
type Player struct {
	ID           int64  `json:"id,omitempty"`
	Team         int64  `json:"team"`
	FirstName    string `json:"fname"`
	LastName     string `json:"lname"`
	DisplayName  string `json:"display_name,omitempty"`
	Role         string `json:"role"`
	BattingStyle string `json:"batting_style,omitempty"`
	BowlingStyle string `json:"bowling_style,omitempty"`
	JerseyNumber *int   `json:"jersey_number,omitempty"`
}

// Name returns the display name, falling back to "first last".
func (p Player) Name() string {
	if p.DisplayName != "" {
		return p.DisplayName
	}
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// Match is the match record.
type Match struct {
	ID              int64  `json:"id,omitempty"`
	MatchType       string `json:"match_type"`
	OversPerInnings int    `json:"overs_per_innings"`
	Team1           int64  `json:"team1"`
	Team2           int64  `json:"team2"`
	Venue           string `json:"venue"`
	Status          string `json:"status"`
	TossWinner      int64  `json:"toss_winner,omitempty"`
	TossDecision    string `json:"toss_decision,omitempty"`
	CreatedAt       string `json:"created_at,omitempty"`
}

// Toss is the set_toss payload.
type Toss struct {
	Winner   int64  `json:"toss_winner"`
	Decision string `json:"toss_decision"`
}

// OnField is the update_players payload.
type OnField struct {
	Striker    int64 `json:"striker"`
	NonStriker int64 `json:"non_striker"`
	Bowler     int64 `json:"bowler"`
}

// Result is the complete_match payload.
type Result struct {
	Result      string `json:"result"`
	WinningTeam int64  `json:"winning_team,omitempty"`
	WinMargin   string `json:"win_margin,omitempty"`
}

// Ball is a delivery as exchanged with the service.
type Ball struct {
	ID               int64  `json:"id,omitempty"`
	BallNumber       int    `json:"ball_number"`
	Event            string `json:"event"`
	Runs             int    `json:"runs"`
	IsExtra          bool   `json:"is_extra"`
	ExtraType        string `json:"extra_type"`
	ExtraRuns        int    `json:"extra_runs"`
	IsWicket         bool   `json:"is_wicket"`
	WicketType       string `json:"wicket_type,omitempty"`
	DismissedBatsman int64  `json:"dismissed_batsman,omitempty"`
	Fielder          int64  `json:"fielder,omitempty"`
	Batsman          int64  `json:"batsman"`
	Bowler           int64  `json:"bowler"`
}

// AddBall addresses a ball to an (innings, over) pair.
type AddBall struct {
	InningNumber int `json:"inning_number"`
	OverNumber   int `json:"over_number"`
	Ball
}

// Over groups the balls bowled in one over.
type Over struct {
	ID         int64  `json:"id,omitempty"`
	OverNumber int    `json:"over_number"`
	Bowler     int64  `json:"bowler,omitempty"`
	Runs       int    `json:"runs"`
	Balls      []Ball `json:"balls"`
}

// BattingRecord is a batsman's line in one innings.
type BattingRecord struct {
	ID            int64           `json:"id,omitempty"`
	Inning        int64           `json:"inning"`
	Player        int64           `json:"player"`
	PlayerName    string          `json:"player_name,omitempty"`
	Runs          int             `json:"runs"`
	BallsFaced    int             `json:"balls_faced"`
	Fours         int             `json:"fours"`
	Sixes         int             `json:"sixes"`
	StrikeRate    decimal.Decimal `json:"strike_rate"`
	IsOut         bool            `json:"is_out"`
	DismissalType string          `json:"dismissal_type"`
	Fielder       *int64          `json:"fielder"`
	Bowler        *int64          `json:"bowler"`
}

// BowlingRecord is a bowler's line in one innings.
type BowlingRecord struct {
	ID           int64           `json:"id,omitempty"`
	Inning       int64           `json:"inning"`
	Player       int64           `json:"player"`
	PlayerName   string          `json:"player_name,omitempty"`
	OversBowled  decimal.Decimal `json:"overs_bowled"`
	Maidens      int             `json:"maidens"`
	RunsConceded int             `json:"runs_conceded"`
	Wickets      int             `json:"wickets"`
	Wides        int             `json:"wides"`
	NoBalls      int             `json:"no_balls"`
	EconomyRate  decimal.Decimal `json:"economy_rate"`
}

// Innings is the authoritative innings snapshot.
type Innings struct {
	ID             int64           `json:"id"`
	Match          int64           `json:"match"`
	InningNumber   int             `json:"inning_number"`
	BattingTeam    int64           `json:"batting_team"`
	BowlingTeam    int64           `json:"bowling_team"`
	TotalRuns      int             `json:"total_runs"`
	Wickets        int             `json:"wickets"`
	CurrentOver    int             `json:"current_over"`
	CurrentBall    int             `json:"current_ball"`
	Striker        int64           `json:"striker,omitempty"`
	NonStriker     int64           `json:"non_striker,omitempty"`
	CurrentBowler  int64           `json:"current_bowler,omitempty"`
	StrikerName    string          `json:"striker_name,omitempty"`
	NonStrikerName string          `json:"non_striker_name,omitempty"`
	BowlerName     string          `json:"bowler_name,omitempty"`
	Overs          []Over          `json:"overs"`
	BattingRecords []BattingRecord `json:"batting_records"`
	BowlingRecords []BowlingRecord `json:"bowling_records"`
}

// SelectInnings picks the innings to display: the one matching the match
// status, then the requested number, then the first one.
func SelectInnings(innings []Innings, status string, number int) (Innings, bool) {
	if len(innings) == 0 {
		return Innings{}, false
	}
	want := number
	switch status {
	case StatusInning1:
		want = 1
	case StatusInning2:
		want = 2
	}
	for _, in := range innings {
		if in.InningNumber == want {
			return in, true
		}
	}
	return innings[0], true
}
