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
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/c2FmZQ/storage"
	"go.uber.org/zap"

	"github.com/ttbt-io/crickeeper/matchapi"
	"github.com/ttbt-io/crickeeper/matchapi/matchapitest"
	"github.com/ttbt-io/crickeeper/scoring"
)

type teams struct {
	home, away matchapi.Team
}

func seed(fake *matchapitest.Server) teams {
	return teams{
		home: fake.SeedTeam("Mumbai", "MUM", 11),
		away: fake.SeedTeam("Chennai", "CSK", 12),
	}
}

func newStore(t *testing.T, dir string) *Store {
	t.Helper()
	return NewStore(storage.New(dir, nil))
}

func startMatch(t *testing.T, s *Session, tm teams) Config {
	t.Helper()
	cfg, err := s.Start(context.Background(), Setup{Format: FormatT20, Team1: tm.home.ID, Team2: tm.away.ID})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	return cfg
}

func TestMatchLifecycle(t *testing.T) {
	ctx := context.Background()
	fake := matchapitest.New(t)
	tm := seed(fake)
	dir := t.TempDir()
	s := NewSession(fake.Client(), newStore(t, dir), zap.NewNop())

	var mu sync.Mutex
	var boards []scoring.Scoreboard
	s.Watch(func(sb scoring.Scoreboard) {
		mu.Lock()
		defer mu.Unlock()
		boards = append(boards, sb)
	})

	cfg := startMatch(t, s, tm)
	if cfg.ID == 0 || cfg.Overs != 20 || cfg.Venue != DefaultVenue || cfg.Status != matchapi.StatusScheduled {
		t.Fatalf("config = %+v", cfg)
	}
	if m, err := newStore(t, dir).Load(); err != nil || m.MatchID != cfg.ID {
		t.Fatalf("marker = %+v, %v", m, err)
	}

	if err := s.SetPlayers(ctx, scoring.Crease{Striker: "MUM Player 1", NonStriker: "MUM Player 2", Bowler: "CSK Player 1"}); err == nil {
		t.Fatal("SetPlayers before toss succeeded")
	}

	// Chennai win the toss and bowl, so Mumbai bat.
	if err := s.Toss(ctx, TossForm{Winner: tm.away.ID, Decision: DecisionBowl}); err != nil {
		t.Fatalf("Toss: %v", err)
	}
	if got := s.Config().Status; got != matchapi.StatusInning1 {
		t.Errorf("status after toss = %q", got)
	}
	lineup := s.Lineup()
	if len(lineup.Batting) != 11 || lineup.Batting[0].Team != tm.home.ID || len(lineup.Bowling) != 12 {
		t.Fatalf("lineup sides wrong: %d batting, %d bowling", len(lineup.Batting), len(lineup.Bowling))
	}

	if err := s.SetPlayers(ctx, scoring.Crease{Striker: "MUM Player 1", NonStriker: "MUM Player 1", Bowler: "CSK Player 1"}); err == nil {
		t.Error("same striker and non-striker accepted")
	}
	if err := s.SetPlayers(ctx, scoring.Crease{Striker: "MUM Player 1", NonStriker: "MUM Player 2", Bowler: "CSK Player 9"}); err != nil {
		t.Fatalf("SetPlayers: %v", err)
	}
	onField := fake.OnField(cfg.ID)
	if onField.Striker != tm.home.Players[0].ID || onField.Bowler != tm.away.Players[8].ID {
		t.Errorf("on field = %+v", onField)
	}
	if got := fake.Calls("create_batting_record"); got != 1 {
		t.Errorf("batting records created = %d", got)
	}

	ev, err := s.Composer().Run(4)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if err := s.Input(ev); err != nil {
		t.Fatalf("Input: %v", err)
	}
	if err := s.Save(ctx); err != nil {
		t.Fatalf("Save: %v", err)
	}
	sb, ok := s.Scoreboard()
	if !ok {
		t.Fatal("no scoreboard after save")
	}
	if sb.TotalRuns != 4 || sb.BattingTeam != "Mumbai" || sb.Toss != "Chennai won toss, chose to bowl" {
		t.Errorf("scoreboard = %+v", sb)
	}
	if len(sb.Recent) != 1 || sb.Recent[0].Label != "4" {
		t.Errorf("recent = %+v", sb.Recent)
	}

	if err := s.SwapStrike(ctx); err != nil {
		t.Fatalf("SwapStrike: %v", err)
	}
	if c := s.Crease(); c.Striker != "MUM Player 2" || c.NonStriker != "MUM Player 1" {
		t.Errorf("crease after swap = %+v", c)
	}

	mu.Lock()
	last := boards[len(boards)-1]
	mu.Unlock()
	if last.TotalRuns != 4 {
		t.Errorf("last watched scoreboard = %+v", last)
	}

	if err := s.Complete(ctx, ResultForm{Result: "Mumbai won", WinningTeam: tm.home.ID}); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if res, ok := fake.Result(cfg.ID); !ok || res.Result != "Mumbai won" {
		t.Errorf("service result = %+v", res)
	}
	if m, _ := newStore(t, dir).Load(); m.MatchID != 0 {
		t.Errorf("marker after completion = %+v", m)
	}
	if err := s.Save(ctx); !errors.Is(err, ErrNoMatch) {
		t.Errorf("Save after completion err = %v", err)
	}
}

func TestResumeAfterRestart(t *testing.T) {
	ctx := context.Background()
	fake := matchapitest.New(t)
	tm := seed(fake)
	dir := t.TempDir()

	first := NewSession(fake.Client(), newStore(t, dir), nil)
	cfg := startMatch(t, first, tm)
	if err := first.Toss(ctx, TossForm{Winner: tm.home.ID, Decision: DecisionBat}); err != nil {
		t.Fatalf("Toss: %v", err)
	}
	if err := first.SetPlayers(ctx, scoring.Crease{Striker: "MUM Player 3", NonStriker: "MUM Player 4", Bowler: "CSK Player 2"}); err != nil {
		t.Fatalf("SetPlayers: %v", err)
	}

	second := NewSession(fake.Client(), newStore(t, dir), nil)
	if err := second.Resume(ctx); err != nil {
		t.Fatalf("Resume: %v", err)
	}
	got := second.Config()
	if got.ID != cfg.ID || got.TossWinner != tm.home.ID || got.Status != matchapi.StatusInning1 || got.Format != FormatT20 {
		t.Errorf("resumed config = %+v", got)
	}
	if c := second.Crease(); c.Striker != "MUM Player 3" || c.Bowler != "CSK Player 2" {
		t.Errorf("resumed crease = %+v", c)
	}
	if _, ok := second.Scoreboard(); !ok {
		t.Error("no scoreboard after resume")
	}

	second.Reset()
	if second.Config().ID != 0 {
		t.Error("config survived reset")
	}
	third := NewSession(fake.Client(), newStore(t, dir), nil)
	if err := third.Resume(ctx); err != nil {
		t.Fatalf("Resume after reset: %v", err)
	}
	if third.Config().ID != 0 {
		t.Errorf("reset marker resumed match %d", third.Config().ID)
	}
}

func TestStartRejectsShortSquad(t *testing.T) {
	fake := matchapitest.New(t)
	home := fake.SeedTeam("Mumbai", "MUM", 11)
	away := fake.SeedTeam("Chennai", "CSK", 10)
	s := NewSession(fake.Client(), nil, nil)
	_, err := s.Start(context.Background(), Setup{Format: FormatODI, Team1: home.ID, Team2: away.ID})
	var ve *scoring.ValidationError
	if !errors.As(err, &ve) || ve.Field != "team2" {
		t.Fatalf("err = %v, want team2 validation error", err)
	}
	if got := fake.Calls("create_match"); got != 0 {
		t.Errorf("create_match calls = %d", got)
	}
	_, err = s.Start(context.Background(), Setup{Format: FormatODI, Team1: home.ID, Team2: 999})
	if !errors.Is(err, scoring.ErrNotFound) {
		t.Errorf("unknown team err = %v", err)
	}
}

// idlessService drops the id from created matches.
type idlessService struct {
	*matchapi.Client
}

func (s idlessService) CreateMatch(ctx context.Context, m matchapi.Match) (matchapi.Match, error) {
	created, err := s.Client.CreateMatch(ctx, m)
	created.ID = 0
	return created, err
}

func TestStartFindsNewestMatch(t *testing.T) {
	fake := matchapitest.New(t)
	tm := seed(fake)
	client := fake.Client()
	earlier, err := client.CreateMatch(context.Background(), matchapi.Match{Team1: tm.home.ID, Team2: tm.away.ID})
	if err != nil {
		t.Fatalf("CreateMatch: %v", err)
	}
	s := NewSession(idlessService{client}, nil, nil)
	cfg := startMatch(t, s, tm)
	if cfg.ID == 0 || cfg.ID <= earlier.ID {
		t.Errorf("config id = %d, earlier match %d", cfg.ID, earlier.ID)
	}
}

func TestEncryptedStore(t *testing.T) {
	dir := t.TempDir()
	st, err := OpenStorage(dir, "correct horse", zap.NewNop())
	if err != nil {
		t.Fatalf("OpenStorage: %v", err)
	}
	if err := NewStore(st).Save(Marker{MatchID: 12, Innings: 2}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	again, err := OpenStorage(dir, "correct horse", zap.NewNop())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	m, err := NewStore(again).Load()
	if err != nil || m.MatchID != 12 || m.Innings != 2 {
		t.Fatalf("Load = %+v, %v", m, err)
	}
	if _, err := OpenStorage(dir, "", zap.NewNop()); err == nil {
		t.Error("opened encrypted data dir without a passphrase")
	}
}
