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

// Package matchapitest provides an in-memory match service for tests.
package matchapitest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/ttbt-io/crickeeper/matchapi"
)

// AddBallHook inspects an add_ball request before it is applied. A non-zero
// status makes the server reply with that status and message instead.
// Hooks run without the server lock held, so they may block.
type AddBallHook func(matchID int64, b matchapi.AddBall) (status int, message string)

// Server is a fake match service.
type Server struct {
	URL string

	// Paginate wraps list responses in {"results": [...]}.
	Paginate bool

	srv *httptest.Server

	mu        sync.Mutex
	nextID    int64
	teams     []*matchapi.Team
	players   []*matchapi.Player
	matches   []*matchapi.Match
	innings   map[int64][]*matchapi.Innings
	onField   map[int64]matchapi.OnField
	results   map[int64]matchapi.Result
	calls     map[string]int
	onAddBall AddBallHook
}

// New starts a fake service that is closed when the test ends.
func New(t testing.TB) *Server {
	s := &Server{
		innings: make(map[int64][]*matchapi.Innings),
		onField: make(map[int64]matchapi.OnField),
		results: make(map[int64]matchapi.Result),
		calls:   make(map[string]int),
	}
	s.srv = httptest.NewServer(s.routes())
	s.URL = s.srv.URL
	t.Cleanup(s.srv.Close)
	return s
}

// Client returns a matchapi client for this server.
func (s *Server) Client() *matchapi.Client {
	return matchapi.New(s.URL)
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/teams/", s.listTeams)
	r.Post("/teams/", s.createTeam)
	r.Get("/teams/{id}/statistics/", s.rawOK("team_statistics"))
	r.Get("/players/", s.listPlayers)
	r.Post("/players/", s.createPlayer)
	r.Get("/players/{id}/career_stats/", s.rawOK("career_stats"))
	r.Get("/matches/", s.listMatches)
	r.Post("/matches/", s.createMatch)
	r.Route("/matches/{id}", func(r chi.Router) {
		r.Post("/set_toss/", s.setToss)
		r.Post("/update_players/", s.updatePlayers)
		r.Post("/add_ball/", s.addBall)
		r.Post("/complete_match/", s.completeMatch)
		r.Get("/scorecard/", s.rawOK("scorecard"))
		r.Get("/live_score/", s.rawOK("live_score"))
		r.Get("/statistics/", s.rawOK("statistics"))
		r.Get("/manhattan/", s.rawOK("manhattan"))
		r.Get("/worm_chart/", s.rawOK("worm_chart"))
	})
	r.Get("/innings/", s.listInnings)
	r.Get("/batting-records/", s.listBattingRecords)
	r.Post("/batting-records/", s.createBattingRecord)
	r.Get("/bowling-records/", s.listBowlingRecords)
	r.Post("/bowling-records/", s.createBowlingRecord)
	return r
}

// SeedTeam creates a team with n players named "<short> Player <i>".
func (s *Server) SeedTeam(name, short string, n int) matchapi.Team {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &matchapi.Team{ID: s.id(), Name: name, ShortName: short}
	s.teams = append(s.teams, t)
	out := *t
	for i := 1; i <= n; i++ {
		jersey := i
		p := &matchapi.Player{
			ID:           s.id(),
			Team:         t.ID,
			FirstName:    short,
			LastName:     fmt.Sprintf("Player %d", i),
			Role:         "batsman",
			JerseyNumber: &jersey,
		}
		s.players = append(s.players, p)
		out.Players = append(out.Players, *p)
	}
	return out
}

// OnAddBall installs a hook for add_ball requests.
func (s *Server) OnAddBall(h AddBallHook) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onAddBall = h
}

// AdvanceOver completes the current over of an innings behind the client's back.
func (s *Server) AdvanceOver(matchID int64, inning int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if in := s.findInnings(matchID, inning); in != nil {
		in.CurrentOver++
		in.CurrentBall = 0
	}
}

// SetInnings replaces or adds an innings snapshot.
func (s *Server) SetInnings(in matchapi.Innings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if in.ID == 0 {
		in.ID = s.id()
	}
	c := clone(in)
	list := s.innings[in.Match]
	for i, existing := range list {
		if existing.InningNumber == in.InningNumber {
			list[i] = &c
			return
		}
	}
	s.innings[in.Match] = append(list, &c)
}

// Innings returns a copy of an innings snapshot.
func (s *Server) Innings(matchID int64, inning int) (matchapi.Innings, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	in := s.findInnings(matchID, inning)
	if in == nil {
		return matchapi.Innings{}, false
	}
	return clone(*in), true
}

// Match returns a copy of a match.
func (s *Server) Match(id int64) (matchapi.Match, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := s.findMatch(id)
	if m == nil {
		return matchapi.Match{}, false
	}
	return *m, true
}

// OnField returns the last update_players payload of a match.
func (s *Server) OnField(matchID int64) matchapi.OnField {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.onField[matchID]
}

// Result returns the complete_match payload of a match.
func (s *Server) Result(matchID int64) (matchapi.Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.results[matchID]
	return r, ok
}

// Calls returns how many times an endpoint was hit, keyed by names such as
// "add_ball" or "create_batting_record".
func (s *Server) Calls(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[name]
}

func (s *Server) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *Server) count(name string) {
	s.mu.Lock()
	s.calls[name]++
	s.mu.Unlock()
}

func (s *Server) findMatch(id int64) *matchapi.Match {
	for _, m := range s.matches {
		if m.ID == id {
			return m
		}
	}
	return nil
}

func (s *Server) findInnings(matchID int64, inning int) *matchapi.Innings {
	for _, in := range s.innings[matchID] {
		if in.InningNumber == inning {
			return in
		}
	}
	return nil
}

func (s *Server) findInningsByID(id int64) *matchapi.Innings {
	for _, list := range s.innings {
		for _, in := range list {
			if in.ID == id {
				return in
			}
		}
	}
	return nil
}

func (s *Server) playerName(id int64) string {
	for _, p := range s.players {
		if p.ID == id {
			return p.Name()
		}
	}
	return ""
}

func clone(in matchapi.Innings) matchapi.Innings {
	b, _ := json.Marshal(in)
	var out matchapi.Innings
	json.Unmarshal(b, &out)
	return out
}

func pathID(r *http.Request) int64 {
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id
}

func queryID(r *http.Request, key string) int64 {
	id, _ := strconv.ParseInt(r.URL.Query().Get(key), 10, 64)
	return id
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) writeList(w http.ResponseWriter, v any) {
	if s.Paginate {
		writeJSON(w, http.StatusOK, map[string]any{"results": v})
		return
	}
	writeJSON(w, http.StatusOK, v)
}
