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
	"cmp"
	"fmt"
	"slices"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/ttbt-io/crickeeper/matchapi"
)

const (
	ballsPerOver = 6
	// RecentBallCount is the length of the recent-balls log.
	RecentBallCount = 10
)

var (
	six      = decimal.NewFromInt(ballsPerOver)
	zeroRate = decimal.Zero.StringFixed(2)
)

// BallsBowled counts legal balls from the service's over/ball counters.
// An over of 0 is read as the first over.
func BallsBowled(currentOver, currentBall int) int {
	return (max(currentOver, 1)-1)*ballsPerOver + currentBall
}

// CurrentRunRate is runs per six balls, "0.00" before the first ball.
func CurrentRunRate(totalRuns, ballsBowled int) string {
	if ballsBowled <= 0 {
		return zeroRate
	}
	return perOver(totalRuns, ballsBowled).StringFixed(2)
}

// RequiredRunRate spreads totalRuns over the balls left in the innings.
func RequiredRunRate(totalRuns, ballsRemaining int) string {
	if ballsRemaining <= 0 {
		return zeroRate
	}
	return perOver(totalRuns, ballsRemaining).StringFixed(2)
}

// ProjectedScore extrapolates the current rate to the full innings.
func ProjectedScore(totalRuns, ballsBowled, overs int) int {
	if ballsBowled <= 0 {
		return 0
	}
	p := decimal.NewFromInt(int64(totalRuns)).
		Mul(decimal.NewFromInt(int64(overs)).Mul(six)).
		Div(decimal.NewFromInt(int64(ballsBowled)))
	return int(p.Round(0).IntPart())
}

func perOver(runs, balls int) decimal.Decimal {
	return decimal.NewFromInt(int64(runs)).Mul(six).Div(decimal.NewFromInt(int64(balls)))
}

// OversDisplay renders completed overs and balls, e.g. "9.3".
func OversDisplay(currentOver, currentBall int) string {
	return fmt.Sprintf("%d.%d", max(currentOver, 1)-1, currentBall)
}

// TossLine describes the toss result, or "" when it has not happened.
func TossLine(winner, decision string) string {
	if winner == "" || decision == "" {
		return ""
	}
	return fmt.Sprintf("%s won toss, chose to %s", winner, decision)
}

// Metrics are the figures derived from one snapshot.
type Metrics struct {
	BallsBowled     int    `json:"balls_bowled"`
	BallsRemaining  int    `json:"balls_remaining"`
	CurrentRunRate  string `json:"current_run_rate"`
	RequiredRunRate string `json:"required_run_rate"`
	ProjectedScore  int    `json:"projected_score"`
}

// Derive computes the metrics for an innings of overs overs.
func Derive(snap matchapi.Innings, overs int) Metrics {
	bowled := BallsBowled(snap.CurrentOver, snap.CurrentBall)
	remaining := overs*ballsPerOver - bowled
	return Metrics{
		BallsBowled:     bowled,
		BallsRemaining:  max(remaining, 0),
		CurrentRunRate:  CurrentRunRate(snap.TotalRuns, bowled),
		RequiredRunRate: RequiredRunRate(snap.TotalRuns, remaining),
		ProjectedScore:  ProjectedScore(snap.TotalRuns, bowled, overs),
	}
}

// RecentBall is one entry of the recent-balls log.
type RecentBall struct {
	Over  int    `json:"over"`
	Ball  int    `json:"ball"`
	Kind  Kind   `json:"event"`
	Label string `json:"label"`
}

// RecentBalls returns up to n balls across overs, most recent first.
func RecentBalls(snap matchapi.Innings, n int) []RecentBall {
	overs := slices.Clone(snap.Overs)
	slices.SortStableFunc(overs, func(a, b matchapi.Over) int {
		return cmp.Compare(a.OverNumber, b.OverNumber)
	})
	all := lo.FlatMap(overs, func(o matchapi.Over, _ int) []RecentBall {
		return lo.Map(o.Balls, func(b matchapi.Ball, _ int) RecentBall {
			ev := EventFromWire(o.OverNumber, b)
			return RecentBall{Over: ev.Over, Ball: ev.Ball, Kind: ev.Kind, Label: ev.Label()}
		})
	})
	if len(all) > n {
		all = all[len(all)-n:]
	}
	slices.Reverse(all)
	return all
}

type BatterLine struct {
	Name       string `json:"name"`
	Runs       int    `json:"runs"`
	Balls      int    `json:"balls"`
	Fours      int    `json:"fours"`
	Sixes      int    `json:"sixes"`
	StrikeRate string `json:"strike_rate"`
}

type BowlerLine struct {
	Name    string `json:"name"`
	Overs   string `json:"overs"`
	Maidens int    `json:"maidens"`
	Runs    int    `json:"runs"`
	Wickets int    `json:"wickets"`
	Economy string `json:"economy"`
}

// Scoreboard is the live view pushed to viewers.
type Scoreboard struct {
	MatchID     int64        `json:"match_id"`
	Innings     int          `json:"innings"`
	BattingTeam string       `json:"batting_team,omitempty"`
	BowlingTeam string       `json:"bowling_team,omitempty"`
	Toss        string       `json:"toss,omitempty"`
	TotalRuns   int          `json:"total_runs"`
	Wickets     int          `json:"wickets"`
	CurrentOver int          `json:"current_over"`
	CurrentBall int          `json:"current_ball"`
	Overs       string       `json:"overs"`
	Metrics     Metrics      `json:"metrics"`
	Striker     *BatterLine  `json:"striker,omitempty"`
	NonStriker  *BatterLine  `json:"non_striker,omitempty"`
	Bowler      *BowlerLine  `json:"bowler,omitempty"`
	Recent      []RecentBall `json:"recent"`
}

// Score renders "runs/wickets".
func (s Scoreboard) Score() string {
	return fmt.Sprintf("%d/%d", s.TotalRuns, s.Wickets)
}

// BuildScoreboard assembles the scoreboard of an innings of overs overs.
// Team names and the toss line are left for the caller.
func BuildScoreboard(snap matchapi.Innings, overs int) Scoreboard {
	return Scoreboard{
		MatchID:     snap.Match,
		Innings:     snap.InningNumber,
		TotalRuns:   snap.TotalRuns,
		Wickets:     snap.Wickets,
		CurrentOver: max(snap.CurrentOver, 1),
		CurrentBall: snap.CurrentBall,
		Overs:       OversDisplay(snap.CurrentOver, snap.CurrentBall),
		Metrics:     Derive(snap, overs),
		Striker:     batterLine(snap, snap.Striker, snap.StrikerName),
		NonStriker:  batterLine(snap, snap.NonStriker, snap.NonStrikerName),
		Bowler:      bowlerLine(snap),
		Recent:      RecentBalls(snap, RecentBallCount),
	}
}

func batterLine(snap matchapi.Innings, id int64, name string) *BatterLine {
	if id == 0 {
		return nil
	}
	line := &BatterLine{Name: name, StrikeRate: zeroRate}
	if rec, ok := lo.Find(snap.BattingRecords, func(r matchapi.BattingRecord) bool {
		return r.Player == id && !r.IsOut
	}); ok {
		line.Runs, line.Balls = rec.Runs, rec.BallsFaced
		line.Fours, line.Sixes = rec.Fours, rec.Sixes
		line.StrikeRate = rec.StrikeRate.StringFixed(2)
		if line.Name == "" {
			line.Name = rec.PlayerName
		}
	}
	return line
}

func bowlerLine(snap matchapi.Innings) *BowlerLine {
	if snap.CurrentBowler == 0 {
		return nil
	}
	line := &BowlerLine{Name: snap.BowlerName, Overs: "0", Economy: zeroRate}
	if rec, ok := lo.Find(snap.BowlingRecords, func(r matchapi.BowlingRecord) bool {
		return r.Player == snap.CurrentBowler
	}); ok {
		line.Overs = rec.OversBowled.String()
		line.Maidens, line.Runs, line.Wickets = rec.Maidens, rec.RunsConceded, rec.Wickets
		line.Economy = rec.EconomyRate.StringFixed(2)
		if line.Name == "" {
			line.Name = rec.PlayerName
		}
	}
	return line
}
