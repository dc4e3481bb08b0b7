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
	"github.com/ttbt-io/crickeeper/matchapi"
)

// BallEvent is a single delivery or fielding event as recorded by the operator.
// Player references are service ids.
type BallEvent struct {
	Over             int        `json:"over_number"`
	Ball             int        `json:"ball_number"`
	Kind             Kind       `json:"event"`
	Runs             int        `json:"runs"`
	IsExtra          bool       `json:"is_extra"`
	ExtraType        Kind       `json:"extra_type,omitempty"`
	ExtraRuns        int        `json:"extra_runs"`
	IsWicket         bool       `json:"is_wicket"`
	WicketType       WicketType `json:"wicket_type,omitempty"`
	DismissedBatsman int64      `json:"dismissed_batsman,omitempty"`
	Fielder          int64      `json:"fielder,omitempty"`
	Batsman          int64      `json:"batsman,omitempty"`
	Bowler           int64      `json:"bowler,omitempty"`
}

// Wire converts the event to the add_ball payload of the match service.
func (e BallEvent) Wire(inning int) matchapi.AddBall {
	return matchapi.AddBall{
		InningNumber: inning,
		OverNumber:   e.Over,
		Ball: matchapi.Ball{
			BallNumber:       e.Ball,
			Event:            string(e.Kind),
			Runs:             e.Runs,
			IsExtra:          e.IsExtra,
			ExtraType:        string(e.ExtraType),
			ExtraRuns:        e.ExtraRuns,
			IsWicket:         e.IsWicket,
			WicketType:       string(e.WicketType),
			DismissedBatsman: e.DismissedBatsman,
			Fielder:          e.Fielder,
			Batsman:          e.Batsman,
			Bowler:           e.Bowler,
		},
	}
}

// EventFromWire converts a recorded ball of over number over.
func EventFromWire(over int, b matchapi.Ball) BallEvent {
	return BallEvent{
		Over:             over,
		Ball:             b.BallNumber,
		Kind:             Kind(b.Event),
		Runs:             b.Runs,
		IsExtra:          b.IsExtra,
		ExtraType:        Kind(b.ExtraType),
		ExtraRuns:        b.ExtraRuns,
		IsWicket:         b.IsWicket,
		WicketType:       WicketType(b.WicketType),
		DismissedBatsman: b.DismissedBatsman,
		Fielder:          b.Fielder,
		Batsman:          b.Batsman,
		Bowler:           b.Bowler,
	}
}

// Label is the short notation used in the recent-balls log.
func (e BallEvent) Label() string {
	switch e.Kind {
	case KindDot:
		return "0"
	case KindSingle:
		return "1"
	case KindTwo:
		return "2"
	case KindThree:
		return "3"
	case KindFour:
		return "4"
	case KindFive:
		return "5"
	case KindSix:
		return "6"
	case KindWide:
		return "Wd"
	case KindNoBall:
		return "Nb"
	case KindBye:
		return "B"
	case KindLegBye:
		return "Lb"
	case KindPenalty:
		return "P5"
	case KindWicket:
		return "W"
	case KindCatchTaken:
		return "Ct"
	case KindCatchMissed:
		return "Dr"
	case KindRunOutAttempt:
		return "RoA"
	case KindStumpingAttempt:
		return "StA"
	case KindDirectHit:
		return "DH"
	case KindGoodFielding:
		return "GF"
	case KindPoorFielding:
		return "PF"
	}
	return "?"
}
