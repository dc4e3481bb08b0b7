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

package matchapitest

import (
	"encoding/json"
	"net/http"

	"github.com/ttbt-io/crickeeper/matchapi"
)

// nonDeliveries do not count toward the six legal balls of an over.
var nonDeliveries = map[string]bool{
	"wide":             true,
	"noball":           true,
	"catch_taken":      true,
	"catch_missed":     true,
	"run_out_attempt":  true,
	"stumping_attempt": true,
	"direct_hit":       true,
	"good_fielding":    true,
	"poor_fielding":    true,
}

func (s *Server) listTeams(w http.ResponseWriter, r *http.Request) {
	s.count("list_teams")
	s.mu.Lock()
	out := make([]matchapi.Team, 0, len(s.teams))
	for _, t := range s.teams {
		out = append(out, *t)
	}
	s.mu.Unlock()
	s.writeList(w, out)
}

func (s *Server) createTeam(w http.ResponseWriter, r *http.Request) {
	s.count("create_team")
	var t matchapi.Team
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil || t.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	s.mu.Lock()
	t.ID = s.id()
	t.Players = nil
	s.teams = append(s.teams, &t)
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, t)
}

func (s *Server) listPlayers(w http.ResponseWriter, r *http.Request) {
	s.count("list_players")
	teamID := queryID(r, "team_id")
	s.mu.Lock()
	out := make([]matchapi.Player, 0, len(s.players))
	for _, p := range s.players {
		if teamID == 0 || p.Team == teamID {
			out = append(out, *p)
		}
	}
	s.mu.Unlock()
	s.writeList(w, out)
}

func (s *Server) createPlayer(w http.ResponseWriter, r *http.Request) {
	s.count("create_player")
	var p matchapi.Player
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil || p.FirstName == "" || p.Team == 0 {
		writeError(w, http.StatusBadRequest, "fname and team are required")
		return
	}
	s.mu.Lock()
	p.ID = s.id()
	s.players = append(s.players, &p)
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) listMatches(w http.ResponseWriter, r *http.Request) {
	s.count("list_matches")
	s.mu.Lock()
	out := make([]matchapi.Match, 0, len(s.matches))
	for _, m := range s.matches {
		out = append(out, *m)
	}
	s.mu.Unlock()
	s.writeList(w, out)
}

func (s *Server) createMatch(w http.ResponseWriter, r *http.Request) {
	s.count("create_match")
	var m matchapi.Match
	if err := json.NewDecoder(r.Body).Decode(&m); err != nil || m.Team1 == 0 || m.Team2 == 0 {
		writeError(w, http.StatusBadRequest, "team1 and team2 are required")
		return
	}
	s.mu.Lock()
	m.ID = s.id()
	if m.Status == "" {
		m.Status = matchapi.StatusScheduled
	}
	s.matches = append(s.matches, &m)
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, m)
}

func (s *Server) setToss(w http.ResponseWriter, r *http.Request) {
	s.count("set_toss")
	var t matchapi.Toss
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
		writeError(w, http.StatusBadRequest, "malformed toss")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	m := s.findMatch(pathID(r))
	if m == nil {
		writeError(w, http.StatusNotFound, "match not found")
		return
	}
	if t.Winner != m.Team1 && t.Winner != m.Team2 {
		writeError(w, http.StatusBadRequest, "toss winner must play in the match")
		return
	}
	m.TossWinner = t.Winner
	m.TossDecision = t.Decision
	m.Status = matchapi.StatusInning1

	other := m.Team1
	if other == t.Winner {
		other = m.Team2
	}
	batting, bowling := t.Winner, other
	if t.Decision == "bowl" {
		batting, bowling = other, t.Winner
	}
	if s.findInnings(m.ID, 1) == nil {
		s.innings[m.ID] = append(s.innings[m.ID], &matchapi.Innings{
			ID:             s.id(),
			Match:          m.ID,
			InningNumber:   1,
			BattingTeam:    batting,
			BowlingTeam:    bowling,
			CurrentOver:    1,
			Overs:          []matchapi.Over{},
			BattingRecords: []matchapi.BattingRecord{},
			BowlingRecords: []matchapi.BowlingRecord{},
		})
	}
	writeJSON(w, http.StatusOK, *m)
}

func (s *Server) updatePlayers(w http.ResponseWriter, r *http.Request) {
	s.count("update_players")
	var p matchapi.OnField
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "malformed players")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	m := s.findMatch(pathID(r))
	if m == nil {
		writeError(w, http.StatusNotFound, "match not found")
		return
	}
	s.onField[m.ID] = p
	for _, in := range s.innings[m.ID] {
		in.Striker, in.NonStriker, in.CurrentBowler = p.Striker, p.NonStriker, p.Bowler
		in.StrikerName = s.playerName(p.Striker)
		in.NonStrikerName = s.playerName(p.NonStriker)
		in.BowlerName = s.playerName(p.Bowler)
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) addBall(w http.ResponseWriter, r *http.Request) {
	s.count("add_ball")
	matchID := pathID(r)
	var b matchapi.AddBall
	if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
		writeError(w, http.StatusBadRequest, "malformed ball")
		return
	}

	s.mu.Lock()
	hook := s.onAddBall
	s.mu.Unlock()
	if hook != nil {
		if status, msg := hook(matchID, b); status != 0 {
			writeError(w, status, msg)
			return
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	in := s.findInnings(matchID, b.InningNumber)
	if in == nil {
		writeError(w, http.StatusNotFound, "innings not found")
		return
	}
	if b.OverNumber < in.CurrentOver {
		writeError(w, http.StatusBadRequest, "Over is already completed")
		return
	}

	ball := b.Ball
	ball.ID = s.id()
	idx := -1
	for i := range in.Overs {
		if in.Overs[i].OverNumber == b.OverNumber {
			idx = i
		}
	}
	if idx < 0 {
		in.Overs = append(in.Overs, matchapi.Over{ID: s.id(), OverNumber: b.OverNumber, Bowler: ball.Bowler})
		idx = len(in.Overs) - 1
	}
	in.Overs[idx].Balls = append(in.Overs[idx].Balls, ball)
	in.Overs[idx].Runs += ball.Runs
	in.TotalRuns += ball.Runs

	legal := !nonDeliveries[ball.Event]
	for i := range in.BattingRecords {
		rec := &in.BattingRecords[i]
		if rec.Player != ball.Batsman || rec.IsOut {
			continue
		}
		if !ball.IsExtra {
			rec.Runs += ball.Runs
		}
		if legal {
			rec.BallsFaced++
		}
		if ball.IsWicket && ball.DismissedBatsman == rec.Player {
			rec.IsOut = true
			rec.DismissalType = ball.WicketType
		}
	}
	for i := range in.BowlingRecords {
		rec := &in.BowlingRecords[i]
		if rec.Player == ball.Bowler {
			rec.RunsConceded += ball.Runs
			if ball.IsWicket && ball.WicketType != "run_out" && ball.WicketType != "retired" {
				rec.Wickets++
			}
		}
	}
	if ball.IsWicket {
		in.Wickets++
	}
	if legal {
		in.CurrentBall++
		if in.CurrentBall >= 6 {
			in.CurrentOver++
			in.CurrentBall = 0
		}
	}
	writeJSON(w, http.StatusCreated, map[string]any{"status": "ok", "ball_id": ball.ID})
}

func (s *Server) completeMatch(w http.ResponseWriter, r *http.Request) {
	s.count("complete_match")
	var res matchapi.Result
	if err := json.NewDecoder(r.Body).Decode(&res); err != nil {
		writeError(w, http.StatusBadRequest, "malformed result")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	m := s.findMatch(pathID(r))
	if m == nil {
		writeError(w, http.StatusNotFound, "match not found")
		return
	}
	m.Status = matchapi.StatusFinished
	s.results[m.ID] = res
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) rawOK(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.count(name)
		writeJSON(w, http.StatusOK, map[string]any{"kind": name, "id": pathID(r)})
	}
}

func (s *Server) listInnings(w http.ResponseWriter, r *http.Request) {
	s.count("list_innings")
	matchID := queryID(r, "match_id")
	s.mu.Lock()
	out := make([]matchapi.Innings, 0)
	for _, in := range s.innings[matchID] {
		out = append(out, clone(*in))
	}
	s.mu.Unlock()
	s.writeList(w, out)
}

func (s *Server) listBattingRecords(w http.ResponseWriter, r *http.Request) {
	s.count("list_batting_records")
	s.mu.Lock()
	var out []matchapi.BattingRecord
	if in := s.findInningsByID(queryID(r, "inning_id")); in != nil {
		out = append(out, in.BattingRecords...)
	}
	s.mu.Unlock()
	s.writeList(w, out)
}

func (s *Server) createBattingRecord(w http.ResponseWriter, r *http.Request) {
	s.count("create_batting_record")
	var rec matchapi.BattingRecord
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		writeError(w, http.StatusBadRequest, "malformed record")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	in := s.findInningsByID(rec.Inning)
	if in == nil {
		writeError(w, http.StatusBadRequest, "innings not found")
		return
	}
	rec.ID = s.id()
	rec.PlayerName = s.playerName(rec.Player)
	in.BattingRecords = append(in.BattingRecords, rec)
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) listBowlingRecords(w http.ResponseWriter, r *http.Request) {
	s.count("list_bowling_records")
	s.mu.Lock()
	var out []matchapi.BowlingRecord
	if in := s.findInningsByID(queryID(r, "inning_id")); in != nil {
		out = append(out, in.BowlingRecords...)
	}
	s.mu.Unlock()
	s.writeList(w, out)
}

func (s *Server) createBowlingRecord(w http.ResponseWriter, r *http.Request) {
	s.count("create_bowling_record")
	var rec matchapi.BowlingRecord
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		writeError(w, http.StatusBadRequest, "malformed record")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	in := s.findInningsByID(rec.Inning)
	if in == nil {
		writeError(w, http.StatusBadRequest, "innings not found")
		return
	}
	rec.ID = s.id()
	rec.PlayerName = s.playerName(rec.Player)
	in.BowlingRecords = append(in.BowlingRecords, rec)
	writeJSON(w, http.StatusCreated, rec)
}
