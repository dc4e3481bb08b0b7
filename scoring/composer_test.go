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
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ttbt-io/crickeeper/matchapi"
)

func squad(teamID, firstID int64, short string) []matchapi.Player {
	var out []matchapi.Player
	for i := 0; i < 11; i++ {
		out = append(out, matchapi.Player{
			ID:        firstID + int64(i),
			Team:      teamID,
			FirstName: short,
			LastName:  fmt.Sprintf("Player %d", i+1),
		})
	}
	return out
}

func testLineup() Lineup {
	bowling := squad(2, 200, "CSK")
	bowling[0].DisplayName = "Keeper"
	return Lineup{
		Batting: squad(1, 100, "MUM"),
		Bowling: bowling,
		Crease:  Crease{Striker: "MUM Player 1", NonStriker: "101", Bowler: "csk player 5"},
	}
}

func TestComposeRun(t *testing.T) {
	c := NewComposer(testLineup())
	want := []Kind{KindDot, KindSingle, KindTwo, KindThree, KindFour, KindFive, KindSix}
	for runs, kind := range want {
		ev, err := c.Run(runs)
		if err != nil {
			t.Fatalf("Run(%d): %v", runs, err)
		}
		exp := BallEvent{Kind: kind, Runs: runs, Batsman: 100, Bowler: 204}
		if diff := cmp.Diff(exp, ev); diff != "" {
			t.Errorf("Run(%d) mismatch (-want +got):\n%s", runs, diff)
		}
	}
	for _, runs := range []int{-1, 7} {
		if _, err := c.Run(runs); !errors.Is(err, ErrValidation) {
			t.Errorf("Run(%d) err = %v, want validation error", runs, err)
		}
	}
}

func TestComposeExtra(t *testing.T) {
	c := NewComposer(testLineup())
	tests := []struct {
		kind Kind
		runs int
	}{
		{KindWide, 1},
		{KindNoBall, 1},
		{KindBye, 1},
		{KindLegBye, 1},
		{KindPenalty, 5},
	}
	for _, tc := range tests {
		t.Run(string(tc.kind), func(t *testing.T) {
			ev, err := c.Extra(tc.kind)
			if err != nil {
				t.Fatalf("Extra: %v", err)
			}
			if !ev.IsExtra || ev.ExtraType != tc.kind || ev.ExtraRuns != tc.runs || ev.Runs != tc.runs {
				t.Errorf("Extra(%s) = %+v", tc.kind, ev)
			}
			if ev.IsWicket {
				t.Errorf("Extra(%s) marked as wicket", tc.kind)
			}
		})
	}
	if _, err := c.Extra(KindFour); !errors.Is(err, ErrValidation) {
		t.Errorf("Extra(four) err = %v, want validation error", err)
	}
}

func TestComposeWicket(t *testing.T) {
	c := NewComposer(testLineup())

	ev, err := c.Wicket(WicketCaught, "Keeper")
	if err != nil {
		t.Fatalf("Wicket(caught): %v", err)
	}
	want := BallEvent{
		Kind:             KindWicket,
		IsWicket:         true,
		WicketType:       WicketCaught,
		DismissedBatsman: 100,
		Fielder:          200,
		Batsman:          100,
		Bowler:           204,
	}
	if diff := cmp.Diff(want, ev); diff != "" {
		t.Errorf("Wicket(caught) mismatch (-want +got):\n%s", diff)
	}

	tests := []struct {
		name    string
		wt      WicketType
		fielder string
		wantErr error
	}{
		{"bowled", WicketBowled, "", nil},
		{"lbw", WicketLBW, "", nil},
		{"retired", WicketRetired, "", nil},
		{"caught without fielder", WicketCaught, "", ErrValidation},
		{"run out without fielder", WicketRunOut, "", ErrValidation},
		{"stumped without fielder", WicketStumped, "", ErrValidation},
		{"bowled with fielder", WicketBowled, "Keeper", ErrValidation},
		{"fielder from batting side", WicketCaught, "MUM Player 2", ErrNotFound},
		{"unknown type", WicketType("obstructing"), "", ErrValidation},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := c.Wicket(tc.wt, tc.fielder)
			if tc.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("err = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestComposeFieldEvent(t *testing.T) {
	c := NewComposer(testLineup())
	for _, kind := range FieldEvents {
		ev, err := c.FieldEvent(kind, "202")
		if err != nil {
			t.Fatalf("FieldEvent(%s): %v", kind, err)
		}
		if ev.Runs != 0 || ev.IsWicket || ev.IsExtra || ev.Fielder != 202 {
			t.Errorf("FieldEvent(%s) = %+v", kind, ev)
		}
	}
	if _, err := c.FieldEvent(KindCatchTaken, ""); !errors.Is(err, ErrValidation) {
		t.Errorf("missing fielder err = %v", err)
	}
	if _, err := c.FieldEvent(KindSix, "202"); !errors.Is(err, ErrValidation) {
		t.Errorf("non field event err = %v", err)
	}
}

func TestComposeUnresolvedCrease(t *testing.T) {
	l := testLineup()
	l.Crease.Bowler = "Nobody"
	_, err := NewComposer(l).Run(1)
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("err = %v, want *NotFoundError", err)
	}
	if nf.Role != "bowler" || nf.Ref != "Nobody" {
		t.Errorf("NotFoundError = %+v", nf)
	}
	if !errors.Is(err, ErrValidation) {
		t.Errorf("NotFoundError should be a validation error")
	}

	l = testLineup()
	l.Crease.Striker = ""
	_, err = NewComposer(l).Run(1)
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Field != "striker" {
		t.Fatalf("err = %v, want striker ValidationError", err)
	}
}

func TestLabelsAreExhaustive(t *testing.T) {
	kinds := append([]Kind{}, runKinds[:]...)
	for _, e := range Extras {
		kinds = append(kinds, e.Kind)
	}
	kinds = append(kinds, KindWicket)
	kinds = append(kinds, FieldEvents...)
	seen := map[string]Kind{}
	for _, k := range kinds {
		if !k.Valid() {
			t.Errorf("%s is not valid", k)
		}
		label := BallEvent{Kind: k}.Label()
		if label == "?" {
			t.Errorf("%s has no label", k)
		}
		if prev, ok := seen[label]; ok {
			t.Errorf("%s and %s share label %q", prev, k, label)
		}
		seen[label] = k
	}
	if got := (BallEvent{Kind: "bogus"}).Label(); got != "?" {
		t.Errorf("unknown kind label = %q", got)
	}
}

func TestCreaseSwap(t *testing.T) {
	c := Crease{Striker: "a", NonStriker: "b", Bowler: "c"}
	if got, want := c.Swap(), (Crease{Striker: "b", NonStriker: "a", Bowler: "c"}); got != want {
		t.Errorf("Swap() = %+v, want %+v", got, want)
	}
}
