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

package matchapi_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/ttbt-io/crickeeper/matchapi"
	"github.com/ttbt-io/crickeeper/matchapi/matchapitest"
)

func TestListDecoding(t *testing.T) {
	for _, paginate := range []bool{false, true} {
		fake := matchapitest.New(t)
		fake.Paginate = paginate
		team := fake.SeedTeam("Mumbai", "MUM", 3)
		fake.SeedTeam("Chennai", "CHE", 2)

		c := fake.Client()
		teams, err := c.Teams(context.Background())
		if err != nil {
			t.Fatalf("paginate=%v: Teams: %v", paginate, err)
		}
		if len(teams) != 2 {
			t.Fatalf("paginate=%v: got %d teams, want 2", paginate, len(teams))
		}

		players, err := c.Players(context.Background(), team.ID)
		if err != nil {
			t.Fatalf("paginate=%v: Players: %v", paginate, err)
		}
		if diff := cmp.Diff(team.Players, players); diff != "" {
			t.Errorf("paginate=%v: players mismatch (-want +got):\n%s", paginate, diff)
		}
	}
}

func TestAddBallWireFormat(t *testing.T) {
	var got map[string]any
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		if r.Header.Get("X-Request-ID") == "" {
			t.Errorf("missing X-Request-ID header")
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		b, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(b, &got); err != nil {
			t.Errorf("body is not JSON: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := matchapi.New(srv.URL + "/")
	err := c.AddBall(context.Background(), 7, matchapi.AddBall{
		InningNumber: 1,
		OverNumber:   3,
		Ball: matchapi.Ball{
			BallNumber: 2,
			Event:      "four",
			Runs:       4,
			Batsman:    11,
			Bowler:     21,
		},
	})
	if err != nil {
		t.Fatalf("AddBall: %v", err)
	}
	if path != "/matches/7/add_ball/" {
		t.Errorf("path = %q", path)
	}
	want := map[string]any{
		"inning_number": float64(1),
		"over_number":   float64(3),
		"ball_number":   float64(2),
		"event":         "four",
		"runs":          float64(4),
		"is_extra":      false,
		"extra_type":    "",
		"extra_runs":    float64(0),
		"is_wicket":     false,
		"batsman":       float64(11),
		"bowler":        float64(21),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("body mismatch (-want +got):\n%s", diff)
	}
}

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		conflict   bool
		wantStatus int
		wantMsg    string
	}{
		{name: "over completed", status: 400, body: `{"error":"Over is already completed"}`, conflict: true},
		{name: "over completed 409", status: 409, body: `{"error":"over is already completed"}`, conflict: true},
		{name: "other 400", status: 400, body: `{"error":"Batsman is out"}`, wantStatus: 400, wantMsg: "Batsman is out"},
		{name: "detail", status: 404, body: `{"detail":"Not found."}`, wantStatus: 404, wantMsg: "Not found."},
		{name: "plain 500", status: 500, body: "boom\n", wantStatus: 500, wantMsg: "boom"},
		{name: "500 with conflict text", status: 500, body: `{"error":"Over is already completed"}`, wantStatus: 500, wantMsg: "Over is already completed"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				io.WriteString(w, tc.body)
			}))
			defer srv.Close()

			err := matchapi.New(srv.URL).AddBall(context.Background(), 1, matchapi.AddBall{})
			if err == nil {
				t.Fatal("expected error")
			}
			if got := matchapi.IsConflict(err); got != tc.conflict {
				t.Fatalf("IsConflict = %v, want %v (err: %v)", got, tc.conflict, err)
			}
			if tc.conflict {
				return
			}
			var te *matchapi.TransientError
			if !errors.As(err, &te) {
				t.Fatalf("expected *TransientError, got %T", err)
			}
			if te.StatusCode != tc.wantStatus || te.Message != tc.wantMsg {
				t.Errorf("got status=%d msg=%q, want status=%d msg=%q", te.StatusCode, te.Message, tc.wantStatus, tc.wantMsg)
			}
		})
	}
}

func TestNetworkErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := matchapi.New(url, matchapi.WithTimeout(time.Second)).Innings(context.Background(), 1)
	var te *matchapi.TransientError
	if !errors.As(err, &te) {
		t.Fatalf("expected *TransientError, got %T: %v", err, err)
	}
	if te.StatusCode != 0 || te.Err == nil {
		t.Errorf("unexpected transient error: %+v", te)
	}
}

func TestMatchLifecycleAgainstFake(t *testing.T) {
	fake := matchapitest.New(t)
	a := fake.SeedTeam("Mumbai", "MUM", 11)
	b := fake.SeedTeam("Chennai", "CHE", 11)
	c := fake.Client()
	ctx := context.Background()

	m, err := c.CreateMatch(ctx, matchapi.Match{MatchType: "T20", OversPerInnings: 20, Team1: a.ID, Team2: b.ID, Venue: "Wankhede", Status: matchapi.StatusScheduled})
	if err != nil {
		t.Fatalf("CreateMatch: %v", err)
	}
	if m.ID == 0 {
		t.Fatal("match id not assigned")
	}
	m, err = c.SetToss(ctx, m.ID, matchapi.Toss{Winner: b.ID, Decision: "bowl"})
	if err != nil {
		t.Fatalf("SetToss: %v", err)
	}
	if m.Status != matchapi.StatusInning1 {
		t.Errorf("status = %q, want inning1", m.Status)
	}

	innings, err := c.Innings(ctx, m.ID)
	if err != nil {
		t.Fatalf("Innings: %v", err)
	}
	in, ok := matchapi.SelectInnings(innings, m.Status, 1)
	if !ok {
		t.Fatal("no innings")
	}
	if in.BattingTeam != a.ID || in.BowlingTeam != b.ID {
		t.Errorf("batting=%d bowling=%d, want %d/%d", in.BattingTeam, in.BowlingTeam, a.ID, b.ID)
	}

	rec, err := c.CreateBattingRecord(ctx, matchapi.BattingRecord{Inning: in.ID, Player: a.Players[0].ID})
	if err != nil {
		t.Fatalf("CreateBattingRecord: %v", err)
	}
	if rec.PlayerName != "MUM Player 1" {
		t.Errorf("player name = %q", rec.PlayerName)
	}
	records, err := c.BattingRecords(ctx, in.ID)
	if err != nil {
		t.Fatalf("BattingRecords: %v", err)
	}
	if diff := cmp.Diff([]matchapi.BattingRecord{rec}, records, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}

	if _, err := c.Scorecard(ctx, m.ID); err != nil {
		t.Errorf("Scorecard: %v", err)
	}
	if err := c.CompleteMatch(ctx, m.ID, matchapi.Result{Result: "team1_win", WinningTeam: a.ID}); err != nil {
		t.Fatalf("CompleteMatch: %v", err)
	}
	if got, _ := fake.Match(m.ID); got.Status != matchapi.StatusFinished {
		t.Errorf("status after completion = %q", got.Status)
	}
}

func TestSelectInnings(t *testing.T) {
	list := []matchapi.Innings{{ID: 10, InningNumber: 1}, {ID: 20, InningNumber: 2}}
	tests := []struct {
		status string
		number int
		want   int64
	}{
		{matchapi.StatusInning1, 2, 10},
		{matchapi.StatusInning2, 1, 20},
		{matchapi.StatusScheduled, 2, 20},
		{matchapi.StatusFinished, 3, 10},
	}
	for _, tc := range tests {
		got, ok := matchapi.SelectInnings(list, tc.status, tc.number)
		if !ok || got.ID != tc.want {
			t.Errorf("SelectInnings(%q, %d) = %d, want %d", tc.status, tc.number, got.ID, tc.want)
		}
	}
	if _, ok := matchapi.SelectInnings(nil, matchapi.StatusInning1, 1); ok {
		t.Error("expected no innings from empty list")
	}
}
