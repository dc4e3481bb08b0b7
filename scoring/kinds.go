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

// Kind is the closed set of ball event kinds.
type Kind string

// Run kinds
const (
	KindDot    Kind = "dot"
	KindSingle Kind = "single"
	KindTwo    Kind = "two"
	KindThree  Kind = "three"
	KindFour   Kind = "four"
	KindFive   Kind = "five"
	KindSix    Kind = "six"
)

// Extra kinds
const (
	KindWide    Kind = "wide"
	KindNoBall  Kind = "noball"
	KindBye     Kind = "bye"
	KindLegBye  Kind = "legbye"
	KindPenalty Kind = "penalty"
)

// KindWicket is a dismissal.
const KindWicket Kind = "wicket"

// Field event kinds. They carry no run or wicket effect.
const (
	KindCatchTaken      Kind = "catch_taken"
	KindCatchMissed     Kind = "catch_missed"
	KindRunOutAttempt   Kind = "run_out_attempt"
	KindStumpingAttempt Kind = "stumping_attempt"
	KindDirectHit       Kind = "direct_hit"
	KindGoodFielding    Kind = "good_fielding"
	KindPoorFielding    Kind = "poor_fielding"
)

// runKinds is indexed by runs scored off the bat.
var runKinds = [...]Kind{KindDot, KindSingle, KindTwo, KindThree, KindFour, KindFive, KindSix}

// RunKind maps 0..6 runs to its kind.
func RunKind(runs int) (Kind, bool) {
	if runs < 0 || runs >= len(runKinds) {
		return "", false
	}
	return runKinds[runs], true
}

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindDot, KindSingle, KindTwo, KindThree, KindFour, KindFive, KindSix,
		KindWide, KindNoBall, KindBye, KindLegBye, KindPenalty,
		KindWicket,
		KindCatchTaken, KindCatchMissed, KindRunOutAttempt, KindStumpingAttempt,
		KindDirectHit, KindGoodFielding, KindPoorFielding:
		return true
	}
	return false
}

// IsExtra reports whether k is one of the extras.
func (k Kind) IsExtra() bool {
	switch k {
	case KindWide, KindNoBall, KindBye, KindLegBye, KindPenalty:
		return true
	}
	return false
}

// IsFieldEvent reports whether k is a fielding commentary event.
func (k Kind) IsFieldEvent() bool {
	switch k {
	case KindCatchTaken, KindCatchMissed, KindRunOutAttempt, KindStumpingAttempt,
		KindDirectHit, KindGoodFielding, KindPoorFielding:
		return true
	}
	return false
}

// Extra is a selectable extra with its fixed run value.
type Extra struct {
	Kind  Kind   `json:"type"`
	Label string `json:"label"`
	Runs  int    `json:"runs"`
}

// Extras lists the extras in display order.
var Extras = []Extra{
	{Kind: KindWide, Label: "Wide", Runs: 1},
	{Kind: KindNoBall, Label: "No Ball", Runs: 1},
	{Kind: KindBye, Label: "Bye", Runs: 1},
	{Kind: KindLegBye, Label: "Leg Bye", Runs: 1},
	{Kind: KindPenalty, Label: "Penalty Runs", Runs: 5},
}

// ExtraOption returns the extra for k.
func ExtraOption(k Kind) (Extra, bool) {
	for _, e := range Extras {
		if e.Kind == k {
			return e, true
		}
	}
	return Extra{}, false
}

// WicketType is a mode of dismissal.
type WicketType string

// Wicket types
const (
	WicketBowled    WicketType = "bowled"
	WicketCaught    WicketType = "caught"
	WicketLBW       WicketType = "lbw"
	WicketRunOut    WicketType = "run_out"
	WicketStumped   WicketType = "stumped"
	WicketHitWicket WicketType = "hit_wicket"
	WicketRetired   WicketType = "retired"
)

// WicketTypes lists the wicket types in display order.
var WicketTypes = []WicketType{
	WicketBowled, WicketCaught, WicketLBW, WicketRunOut, WicketStumped, WicketHitWicket, WicketRetired,
}

// Valid reports whether t is a known wicket type.
func (t WicketType) Valid() bool {
	switch t {
	case WicketBowled, WicketCaught, WicketLBW, WicketRunOut, WicketStumped, WicketHitWicket, WicketRetired:
		return true
	}
	return false
}

// RequiresFielder reports whether the dismissal names a fielder.
func (t WicketType) RequiresFielder() bool {
	switch t {
	case WicketCaught, WicketRunOut, WicketStumped:
		return true
	}
	return false
}

// FieldEvents lists the field event kinds in display order.
var FieldEvents = []Kind{
	KindCatchTaken, KindCatchMissed, KindRunOutAttempt, KindStumpingAttempt,
	KindDirectHit, KindGoodFielding, KindPoorFielding,
}
