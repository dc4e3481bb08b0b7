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

package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ttbt-io/crickeeper/fielding"
	"github.com/ttbt-io/crickeeper/match"
	"github.com/ttbt-io/crickeeper/matchapi"
	"github.com/ttbt-io/crickeeper/scoring"
)

type api struct {
	session *match.Session
	client  *matchapi.Client
	hub     *Hub
	metrics *Metrics
	stream  *streamQueue // nil without a publisher
	logger  *zap.Logger
}

// scoreboardChanged runs after every snapshot change of the session.
func (a *api) scoreboardChanged(sb scoring.Scoreboard) {
	a.hub.Publish(sb)
	if a.stream != nil {
		a.stream.Enqueue(sb)
	}
}

// SessionView is the console's whole session state.
type SessionView struct {
	Config     match.Config        `json:"config"`
	Team1      matchapi.Team       `json:"team1"`
	Team2      matchapi.Team       `json:"team2"`
	Crease     scoring.Crease      `json:"crease"`
	Workflow   scoring.View        `json:"workflow"`
	Scoreboard *scoring.Scoreboard `json:"scoreboard,omitempty"`
	Field      fielding.Layout     `json:"field"`
	Operator   string              `json:"operator,omitempty"`
}

func (a *api) sessionView(r *http.Request) SessionView {
	t1, t2 := a.session.Teams()
	v := SessionView{
		Config:   a.session.Config(),
		Team1:    t1,
		Team2:    t2,
		Crease:   a.session.Crease(),
		Workflow: a.session.Workflow().View(),
		Field:    a.session.Field().Layout(),
		Operator: getOperator(r),
	}
	if sb, ok := a.session.Scoreboard(); ok {
		v.Scoreboard = &sb
	}
	return v
}

func (a *api) getSession(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, a.sessionView(r))
}

// --- teams and players ---

func (a *api) listTeams(w http.ResponseWriter, r *http.Request) {
	teams, err := a.client.Teams(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, teams)
}

func (a *api) createTeam(w http.ResponseWriter, r *http.Request) {
	var form match.TeamForm
	if err := decode(w, r, &form); err != nil {
		a.fail(w, r, err)
		return
	}
	if err := form.Validate(); err != nil {
		a.fail(w, r, err)
		return
	}
	team, err := a.client.CreateTeam(r.Context(), form.Team())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.logger.Info("team created", zap.Int64("team", team.ID), zap.String("name", team.Name),
		zap.String("operator", maskOperator(getOperator(r))))
	respondJSON(w, http.StatusCreated, team)
}

// listPlayers lists a team's roster. Team id 0 lists every player; q filters,
// e.g. q=role:bowler jersey:>=10 "smith".
func (a *api) listPlayers(w http.ResponseWriter, r *http.Request) {
	teamID, ok := a.pathID(w, r)
	if !ok {
		return
	}
	filter, err := parsePlayerQuery(r.URL.Query().Get("q"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	players, err := a.client.Players(r.Context(), teamID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	limit, offset := parsePagination(r)
	respondJSON(w, http.StatusOK, page(filter.apply(players), limit, offset))
}

func (a *api) createPlayer(w http.ResponseWriter, r *http.Request) {
	var form match.PlayerForm
	if err := decode(w, r, &form); err != nil {
		a.fail(w, r, err)
		return
	}
	if err := form.Validate(); err != nil {
		a.fail(w, r, err)
		return
	}
	p, err := a.client.CreatePlayer(r.Context(), form.Player())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, p)
}

func (a *api) teamStatistics(w http.ResponseWriter, r *http.Request) {
	id, ok := a.pathID(w, r)
	if !ok {
		return
	}
	a.respondRaw(w, r)(a.client.TeamStatistics(r.Context(), id))
}

func (a *api) careerStats(w http.ResponseWriter, r *http.Request) {
	id, ok := a.pathID(w, r)
	if !ok {
		return
	}
	a.respondRaw(w, r)(a.client.PlayerCareerStats(r.Context(), id))
}

func (a *api) listMatches(w http.ResponseWriter, r *http.Request) {
	matches, err := a.client.Matches(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	limit, offset := parsePagination(r)
	respondJSON(w, http.StatusOK, page(matches, limit, offset))
}

// --- match lifecycle ---

func (a *api) startMatch(w http.ResponseWriter, r *http.Request) {
	var setup match.Setup
	if err := decode(w, r, &setup); err != nil {
		a.fail(w, r, err)
		return
	}
	cfg, err := a.session.Start(r.Context(), setup)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.logger.Info("match started", zap.Int64("match", cfg.ID),
		zap.String("operator", maskOperator(getOperator(r))))
	respondJSON(w, http.StatusCreated, cfg)
}

func (a *api) toss(w http.ResponseWriter, r *http.Request) {
	var form match.TossForm
	if err := decode(w, r, &form); err != nil {
		a.fail(w, r, err)
		return
	}
	if err := a.session.Toss(r.Context(), form); err != nil {
		a.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, a.sessionView(r))
}

func (a *api) setPlayers(w http.ResponseWriter, r *http.Request) {
	var c scoring.Crease
	if err := decode(w, r, &c); err != nil {
		a.fail(w, r, err)
		return
	}
	if err := a.session.SetPlayers(r.Context(), c); err != nil {
		a.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, a.sessionView(r))
}

func (a *api) swapStrike(w http.ResponseWriter, r *http.Request) {
	if err := a.session.SwapStrike(r.Context()); err != nil {
		a.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, a.session.Crease())
}

func (a *api) refresh(w http.ResponseWriter, r *http.Request) {
	sb, err := a.session.Refresh(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, sb)
}

func (a *api) complete(w http.ResponseWriter, r *http.Request) {
	var form match.ResultForm
	if err := decode(w, r, &form); err != nil {
		a.fail(w, r, err)
		return
	}
	if err := a.session.Complete(r.Context(), form); err != nil {
		a.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, a.session.Config())
}

func (a *api) reset(w http.ResponseWriter, r *http.Request) {
	a.session.Reset()
	a.logger.Info("session reset", zap.String("operator", maskOperator(getOperator(r))))
	respondJSON(w, http.StatusOK, a.sessionView(r))
}

// --- ball input ---

type runRequest struct {
	Runs int `json:"runs"`
}

type extraRequest struct {
	Kind scoring.Kind `json:"kind"`
}

type wicketRequest struct {
	WicketType scoring.WicketType `json:"wicket_type"`
	Fielder    string             `json:"fielder"`
}

type fieldEventRequest struct {
	Kind    scoring.Kind `json:"kind"`
	Fielder string       `json:"fielder"`
}

// compose decodes req, builds the event and makes it the pending ball.
func compose[T any](a *api, w http.ResponseWriter, r *http.Request, build func(scoring.Composer, T) (scoring.BallEvent, error)) {
	if _, ok := a.currentMatch(w, r); !ok {
		return
	}
	var req T
	if err := decode(w, r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	ev, err := build(a.session.Composer(), req)
	if err == nil {
		err = a.session.Input(ev)
	}
	if err != nil {
		a.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, a.session.Workflow().View())
}

func (a *api) inputRun(w http.ResponseWriter, r *http.Request) {
	compose(a, w, r, func(c scoring.Composer, req runRequest) (scoring.BallEvent, error) {
		return c.Run(req.Runs)
	})
}

func (a *api) inputExtra(w http.ResponseWriter, r *http.Request) {
	compose(a, w, r, func(c scoring.Composer, req extraRequest) (scoring.BallEvent, error) {
		return c.Extra(req.Kind)
	})
}

func (a *api) inputWicket(w http.ResponseWriter, r *http.Request) {
	compose(a, w, r, func(c scoring.Composer, req wicketRequest) (scoring.BallEvent, error) {
		return c.Wicket(req.WicketType, req.Fielder)
	})
}

func (a *api) inputFieldEvent(w http.ResponseWriter, r *http.Request) {
	compose(a, w, r, func(c scoring.Composer, req fieldEventRequest) (scoring.BallEvent, error) {
		return c.FieldEvent(req.Kind, req.Fielder)
	})
}

// SaveResponse is returned by a successful save.
type SaveResponse struct {
	View       scoring.View        `json:"view"`
	Scoreboard *scoring.Scoreboard `json:"scoreboard,omitempty"`
}

func (a *api) save(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	err := a.session.Save(r.Context())
	a.metrics.ObserveSave(saveOutcome(err), time.Since(start))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	resp := SaveResponse{View: a.session.Workflow().View()}
	if sb, ok := a.session.Scoreboard(); ok {
		resp.Scoreboard = &sb
	}
	respondJSON(w, http.StatusOK, resp)
}

func saveOutcome(err error) string {
	switch status := statusOf(err); {
	case err == nil:
		return OutcomeSaved
	case matchapi.IsConflict(err):
		return OutcomeConflict
	case status < http.StatusInternalServerError:
		return OutcomeRejected
	}
	return OutcomeFailed
}

func (a *api) nextBall(w http.ResponseWriter, r *http.Request) {
	if err := a.session.Workflow().NextBall(); err != nil {
		a.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, a.session.Workflow().View())
}

func (a *api) discard(w http.ResponseWriter, r *http.Request) {
	if err := a.session.Workflow().Discard(); err != nil {
		a.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, a.session.Workflow().View())
}

// --- scoreboard and read-throughs ---

func (a *api) getScoreboard(w http.ResponseWriter, r *http.Request) {
	sb, ok := a.session.Scoreboard()
	if !ok {
		respondError(w, http.StatusNotFound, "no innings snapshot yet")
		return
	}
	respondJSON(w, http.StatusOK, sb)
}

// readThrough serves a raw document of the current match from the service.
func (a *api) readThrough(get func(*matchapi.Client, context.Context, int64) (json.RawMessage, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := a.currentMatch(w, r)
		if !ok {
			return
		}
		a.respondRaw(w, r)(get(a.client, r.Context(), id))
	}
}

func (a *api) manhattan(w http.ResponseWriter, r *http.Request) {
	id, ok := a.currentMatch(w, r)
	if !ok {
		return
	}
	inning := a.session.Config().CurrentInnings
	if s := r.URL.Query().Get("inning"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > 2 {
			a.fail(w, r, &scoring.ValidationError{Field: "inning", Message: "must be 1 or 2"})
			return
		}
		inning = n
	}
	a.respondRaw(w, r)(a.client.Manhattan(r.Context(), id, inning))
}

func (a *api) currentMatch(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id := a.session.Config().ID
	if id == 0 {
		a.fail(w, r, match.ErrNoMatch)
		return 0, false
	}
	return id, true
}

func (a *api) respondRaw(w http.ResponseWriter, r *http.Request) func(json.RawMessage, error) {
	return func(raw json.RawMessage, err error) {
		if err != nil {
			a.fail(w, r, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(raw)
	}
}

func (a *api) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 0 {
		a.fail(w, r, &scoring.ValidationError{Field: "id", Message: "must be a non-negative integer"})
		return 0, false
	}
	return id, true
}

func (a *api) getMetrics(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, a.metrics.Snapshot(a.hub.Viewers()))
}

// --- fielding ---

type presetRequest struct {
	Preset     string `json:"preset"`
	LeftHanded bool   `json:"left_handed"`
}

type assignRequest struct {
	Position int    `json:"position"`
	Player   string `json:"player"`
}

type moveRequest struct {
	Position int `json:"position"`
	X        int `json:"x"`
	Y        int `json:"y"`
}

func (a *api) getFielding(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, a.session.Field().Layout())
}

func (a *api) listPresets(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, fielding.Presets())
}

// fieldChange decodes req, applies change and replies with the layout.
func fieldChange[T any](a *api, w http.ResponseWriter, r *http.Request, change func(*fielding.Field, T) error) {
	var req T
	if err := decode(w, r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	if err := change(a.session.Field(), req); err != nil {
		a.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, a.session.Field().Layout())
}

func (a *api) applyPreset(w http.ResponseWriter, r *http.Request) {
	fieldChange(a, w, r, func(f *fielding.Field, req presetRequest) error {
		return f.Apply(req.Preset, req.LeftHanded)
	})
}

func (a *api) applySituation(w http.ResponseWriter, r *http.Request) {
	fieldChange(a, w, r, func(f *fielding.Field, req fielding.Situation) error {
		return f.ApplySituation(req)
	})
}

// assignFielder places a bowling-side player, named by id or name.
func (a *api) assignFielder(w http.ResponseWriter, r *http.Request) {
	fieldChange(a, w, r, func(f *fielding.Field, req assignRequest) error {
		p, err := a.session.Lineup().Fielder(req.Player)
		if err != nil {
			return err
		}
		return f.Assign(req.Position, p)
	})
}

func (a *api) unassignFielder(w http.ResponseWriter, r *http.Request) {
	fieldChange(a, w, r, func(f *fielding.Field, req assignRequest) error {
		return f.Unassign(req.Position)
	})
}

func (a *api) moveFielder(w http.ResponseWriter, r *http.Request) {
	fieldChange(a, w, r, func(f *fielding.Field, req moveRequest) error {
		return f.Move(req.Position, req.X, req.Y)
	})
}

func (a *api) clearField(w http.ResponseWriter, r *http.Request) {
	a.session.Field().Clear()
	respondJSON(w, http.StatusOK, a.session.Field().Layout())
}
