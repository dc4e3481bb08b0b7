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

// Package match holds the operator's console session: match setup, toss,
// players on the field, ball entry, completion and reset.
package match

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/ttbt-io/crickeeper/fielding"
	"github.com/ttbt-io/crickeeper/matchapi"
	"github.com/ttbt-io/crickeeper/scoring"
)

// ErrNoMatch is returned by operations that need a match in progress.
var ErrNoMatch = errors.New("no match in progress")

// Service is the match service as used by a session. *matchapi.Client
// implements it.
type Service interface {
	scoring.Service
	Teams(ctx context.Context) ([]matchapi.Team, error)
	Players(ctx context.Context, teamID int64) ([]matchapi.Player, error)
	Matches(ctx context.Context) ([]matchapi.Match, error)
	CreateMatch(ctx context.Context, m matchapi.Match) (matchapi.Match, error)
	SetToss(ctx context.Context, matchID int64, t matchapi.Toss) (matchapi.Match, error)
	UpdatePlayers(ctx context.Context, matchID int64, p matchapi.OnField) error
	CompleteMatch(ctx context.Context, matchID int64, r matchapi.Result) error
}

// Config is the match being scored.
type Config struct {
	ID             int64  `json:"id"`
	Format         Format `json:"format"`
	CustomName     string `json:"custom_name,omitempty"`
	Overs          int    `json:"overs"`
	Venue          string `json:"venue"`
	Team1          int64  `json:"team1"`
	Team2          int64  `json:"team2"`
	TossWinner     int64  `json:"toss_winner,omitempty"`
	TossDecision   string `json:"toss_decision,omitempty"`
	CurrentInnings int    `json:"current_innings"`
	Status         string `json:"status"`
}

// Target addresses the innings being scored.
func (c Config) Target() scoring.Target {
	return scoring.Target{MatchID: c.ID, Status: c.Status, Innings: c.CurrentInnings}
}

func (c Config) active() bool {
	return c.ID != 0 && c.Status != matchapi.StatusFinished
}

// Session is one console's view of a match. All methods are safe for
// concurrent use; none holds the session lock across a service call.
type Session struct {
	svc      Service
	store    *Store
	logger   *zap.Logger
	workflow *scoring.Workflow
	field    *fielding.Field

	mu       sync.Mutex
	config   Config
	team1    matchapi.Team
	team2    matchapi.Team
	crease   scoring.Crease
	watchers []func(scoring.Scoreboard)
}

// NewSession returns an empty session. store may be nil.
func NewSession(svc Service, store *Store, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Session{
		svc:      svc,
		store:    store,
		logger:   logger,
		workflow: scoring.NewWorkflow(svc, logger.Named("workflow")),
		field:    fielding.New(),
	}
	s.workflow.Subscribe(s.snapshotChanged)
	return s
}

func (s *Session) Workflow() *scoring.Workflow { return s.workflow }
func (s *Session) Field() *fielding.Field { return s.field }

func (s *Session) Config() Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.config
}

func (s *Session) Crease() scoring.Crease {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.crease
}

// Teams returns both teams with their rosters.
func (s *Session) Teams() (matchapi.Team, matchapi.Team) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.team1, s.team2
}

// Watch registers fn to receive the scoreboard after every snapshot change.
func (s *Session) Watch(fn func(scoring.Scoreboard)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.watchers = append(s.watchers, fn)
}

// Lineup is the roster state balls are composed against.
func (s *Session) Lineup() scoring.Lineup {
	snap, ok := s.workflow.Snapshot()
	s.mu.Lock()
	defer s.mu.Unlock()
	batting, bowling := s.sides(snap, ok)
	return scoring.Lineup{Batting: batting.Players, Bowling: bowling.Players, Crease: s.crease}
}

// sides orders the teams by the snapshot, then by the toss. The caller
// holds s.mu.
func (s *Session) sides(snap matchapi.Innings, ok bool) (batting, bowling matchapi.Team) {
	switch {
	case ok && snap.BattingTeam == s.team2.ID && s.team2.ID != 0:
		return s.team2, s.team1
	case ok && snap.BattingTeam == s.team1.ID && s.team1.ID != 0:
		return s.team1, s.team2
	}
	if s.config.TossWinner == 0 {
		return s.team1, s.team2
	}
	winner, other := s.team1, s.team2
	if s.config.TossWinner == s.team2.ID {
		winner, other = s.team2, s.team1
	}
	if s.config.TossDecision == DecisionBowl {
		return other, winner
	}
	return winner, other
}

// Composer returns a composer for the current lineup.
func (s *Session) Composer() scoring.Composer {
	return scoring.NewComposer(s.Lineup())
}

// Start validates the setup form and creates the match on the service.
func (s *Session) Start(ctx context.Context, setup Setup) (Config, error) {
	setup = setup.Normalize()
	if err := check(setup); err != nil {
		return Config{}, err
	}
	team1, err := s.loadTeam(ctx, setup.Team1)
	if err != nil {
		return Config{}, err
	}
	team2, err := s.loadTeam(ctx, setup.Team2)
	if err != nil {
		return Config{}, err
	}
	if err := setup.Validate(len(team1.Players), len(team2.Players)); err != nil {
		return Config{}, err
	}

	m, err := s.svc.CreateMatch(ctx, matchapi.Match{
		MatchType:       setup.MatchType(),
		OversPerInnings: setup.Overs,
		Team1:           setup.Team1,
		Team2:           setup.Team2,
		Venue:           setup.Venue,
		Status:          matchapi.StatusScheduled,
	})
	if err != nil {
		return Config{}, fmt.Errorf("create match: %w", err)
	}
	if m.ID == 0 {
		if m, err = s.newestMatch(ctx, setup.Team1, setup.Team2); err != nil {
			return Config{}, err
		}
	}

	cfg := Config{
		ID:             m.ID,
		Format:         setup.Format,
		CustomName:     setup.CustomName,
		Overs:          setup.Overs,
		Venue:          setup.Venue,
		Team1:          setup.Team1,
		Team2:          setup.Team2,
		CurrentInnings: 1,
		Status:         lo.CoalesceOrEmpty(m.Status, matchapi.StatusScheduled),
	}
	s.workflow.Reset()
	s.field.Clear()
	s.mu.Lock()
	s.config = cfg
	s.team1, s.team2 = team1, team2
	s.crease = scoring.Crease{}
	s.mu.Unlock()
	s.saveMarker(cfg)
	s.logger.Info("match created", zap.Int64("match", cfg.ID), zap.String("type", setup.MatchType()), zap.Int("overs", cfg.Overs))
	return cfg, nil
}

// newestMatch finds the most recent match between two teams.
func (s *Session) newestMatch(ctx context.Context, team1, team2 int64) (matchapi.Match, error) {
	all, err := s.svc.Matches(ctx)
	if err != nil {
		return matchapi.Match{}, fmt.Errorf("look up created match: %w", err)
	}
	between := lo.Filter(all, func(m matchapi.Match, _ int) bool {
		return m.Team1 == team1 && m.Team2 == team2
	})
	if len(between) == 0 {
		return matchapi.Match{}, errors.New("created match not found on the service")
	}
	return lo.MaxBy(between, func(a, b matchapi.Match) bool { return a.ID > b.ID }), nil
}

func (s *Session) loadTeam(ctx context.Context, id int64) (matchapi.Team, error) {
	teams, err := s.svc.Teams(ctx)
	if err != nil {
		return matchapi.Team{}, fmt.Errorf("list teams: %w", err)
	}
	t, ok := lo.Find(teams, func(t matchapi.Team) bool { return t.ID == id })
	if !ok {
		return matchapi.Team{}, &scoring.NotFoundError{Role: "team", Ref: strconv.FormatInt(id, 10)}
	}
	if t.Players, err = s.svc.Players(ctx, id); err != nil {
		return matchapi.Team{}, fmt.Errorf("list players: %w", err)
	}
	return t, nil
}

// Toss records the toss. The first innings starts.
func (s *Session) Toss(ctx context.Context, form TossForm) error {
	if err := check(form); err != nil {
		return err
	}
	cfg := s.Config()
	if !cfg.active() {
		return ErrNoMatch
	}
	if form.Winner != cfg.Team1 && form.Winner != cfg.Team2 {
		return &scoring.ValidationError{Field: "toss_winner", Message: "must be one of the two teams"}
	}
	m, err := s.svc.SetToss(ctx, cfg.ID, matchapi.Toss{Winner: form.Winner, Decision: form.Decision})
	if err != nil {
		return fmt.Errorf("set toss: %w", err)
	}
	s.mu.Lock()
	s.config.TossWinner = form.Winner
	s.config.TossDecision = form.Decision
	s.config.Status = lo.CoalesceOrEmpty(m.Status, matchapi.StatusInning1)
	s.config.CurrentInnings = 1
	cfg = s.config
	s.mu.Unlock()
	s.saveMarker(cfg)
	if _, err := s.workflow.Refresh(ctx, cfg.Target()); err != nil && !errors.Is(err, scoring.ErrNoInnings) {
		s.logger.Warn("refresh after toss failed", zap.Error(err))
	}
	return nil
}

// SetPlayers puts the striker, non-striker and bowler on the field.
func (s *Session) SetPlayers(ctx context.Context, c scoring.Crease) error {
	cfg := s.Config()
	if !cfg.active() {
		return ErrNoMatch
	}
	if cfg.TossWinner == 0 {
		return &scoring.ValidationError{Field: "toss", Message: "the toss has not been made"}
	}
	lineup := s.Lineup()
	lineup.Crease = c
	striker, err := lineup.Striker()
	if err != nil {
		return err
	}
	nonStriker, err := lineup.NonStriker()
	if err != nil {
		return err
	}
	bowler, err := lineup.Bowler()
	if err != nil {
		return err
	}
	if striker.ID == nonStriker.ID {
		return &scoring.ValidationError{Field: "non_striker", Message: "must differ from the striker"}
	}
	err = s.svc.UpdatePlayers(ctx, cfg.ID, matchapi.OnField{
		Striker:    striker.ID,
		NonStriker: nonStriker.ID,
		Bowler:     bowler.ID,
	})
	if err != nil {
		return fmt.Errorf("update players: %w", err)
	}
	lineup.Crease = scoring.Crease{Striker: striker.Name(), NonStriker: nonStriker.Name(), Bowler: bowler.Name()}
	s.mu.Lock()
	s.crease = lineup.Crease
	s.mu.Unlock()
	if err := s.workflow.EnsureRecords(ctx, cfg.Target(), lineup); err != nil {
		return fmt.Errorf("ensure records: %w", err)
	}
	return nil
}

// SwapStrike exchanges striker and non-striker.
func (s *Session) SwapStrike(ctx context.Context) error {
	return s.SetPlayers(ctx, s.Crease().Swap())
}

// Input sets the pending ball.
func (s *Session) Input(ev scoring.BallEvent) error {
	if !s.Config().active() {
		return ErrNoMatch
	}
	return s.workflow.Input(ev)
}

// Save submits the pending ball.
func (s *Session) Save(ctx context.Context) error {
	cfg := s.Config()
	if !cfg.active() {
		return ErrNoMatch
	}
	return s.workflow.Save(ctx, cfg.Target(), s.Lineup())
}

// Refresh resyncs the match status and the innings snapshot.
func (s *Session) Refresh(ctx context.Context) (scoring.Scoreboard, error) {
	cfg := s.Config()
	if cfg.ID == 0 {
		return scoring.Scoreboard{}, ErrNoMatch
	}
	if err := s.syncStatus(ctx); err != nil {
		s.logger.Warn("match status sync failed", zap.Error(err))
	}
	if _, err := s.workflow.Refresh(ctx, s.Config().Target()); err != nil {
		return scoring.Scoreboard{}, err
	}
	sb, _ := s.Scoreboard()
	return sb, nil
}

func (s *Session) syncStatus(ctx context.Context) error {
	all, err := s.svc.Matches(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := lo.Find(all, func(m matchapi.Match) bool { return m.ID == s.config.ID })
	if !ok || m.Status == "" {
		return nil
	}
	s.config.Status = m.Status
	if m.Status == matchapi.StatusInning2 {
		s.config.CurrentInnings = 2
	}
	return nil
}

// Scoreboard builds the scoreboard from the last snapshot.
func (s *Session) Scoreboard() (scoring.Scoreboard, bool) {
	snap, ok := s.workflow.Snapshot()
	if !ok {
		return scoring.Scoreboard{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scoreboard(snap), true
}

// scoreboard requires s.mu.
func (s *Session) scoreboard(snap matchapi.Innings) scoring.Scoreboard {
	sb := scoring.BuildScoreboard(snap, s.config.Overs)
	sb.BattingTeam = s.teamName(snap.BattingTeam)
	sb.BowlingTeam = s.teamName(snap.BowlingTeam)
	sb.Toss = scoring.TossLine(s.teamName(s.config.TossWinner), s.config.TossDecision)
	return sb
}

func (s *Session) teamName(id int64) string {
	switch {
	case id == 0:
		return ""
	case id == s.team1.ID:
		return s.team1.Name
	case id == s.team2.ID:
		return s.team2.Name
	}
	return ""
}

func (s *Session) snapshotChanged(snap matchapi.Innings) {
	s.mu.Lock()
	if s.config.ID == 0 || (snap.Match != 0 && snap.Match != s.config.ID) {
		s.mu.Unlock()
		return
	}
	sb := s.scoreboard(snap)
	watchers := append([]func(scoring.Scoreboard){}, s.watchers...)
	s.mu.Unlock()
	for _, fn := range watchers {
		fn(sb)
	}
}

// Complete finishes the match and forgets it.
func (s *Session) Complete(ctx context.Context, form ResultForm) error {
	if err := check(form); err != nil {
		return err
	}
	cfg := s.Config()
	if !cfg.active() {
		return ErrNoMatch
	}
	err := s.svc.CompleteMatch(ctx, cfg.ID, matchapi.Result{
		Result:      form.Result,
		WinningTeam: form.WinningTeam,
		WinMargin:   form.WinMargin,
	})
	if err != nil {
		return fmt.Errorf("complete match: %w", err)
	}
	s.mu.Lock()
	s.config.Status = matchapi.StatusFinished
	s.mu.Unlock()
	s.clearMarker()
	s.logger.Info("match completed", zap.Int64("match", cfg.ID), zap.String("result", form.Result))
	return nil
}

// Reset drops the session and its marker.
func (s *Session) Reset() {
	s.workflow.Reset()
	s.field.Clear()
	s.mu.Lock()
	s.config = Config{}
	s.team1, s.team2 = matchapi.Team{}, matchapi.Team{}
	s.crease = scoring.Crease{}
	s.mu.Unlock()
	s.clearMarker()
}

// Resume reloads the match named by the stored marker, if any.
func (s *Session) Resume(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	marker, err := s.store.Load()
	if err != nil {
		return err
	}
	if marker.MatchID == 0 {
		return nil
	}
	all, err := s.svc.Matches(ctx)
	if err != nil {
		return fmt.Errorf("list matches: %w", err)
	}
	m, ok := lo.Find(all, func(m matchapi.Match) bool { return m.ID == marker.MatchID })
	if !ok || m.Status == matchapi.StatusFinished {
		s.logger.Info("stored match is gone or finished", zap.Int64("match", marker.MatchID))
		s.clearMarker()
		return nil
	}
	team1, err := s.loadTeam(ctx, m.Team1)
	if err != nil {
		return err
	}
	team2, err := s.loadTeam(ctx, m.Team2)
	if err != nil {
		return err
	}
	format, custom := formatOf(m.MatchType)
	cfg := Config{
		ID:             m.ID,
		Format:         format,
		CustomName:     custom,
		Overs:          m.OversPerInnings,
		Venue:          m.Venue,
		Team1:          m.Team1,
		Team2:          m.Team2,
		TossWinner:     m.TossWinner,
		TossDecision:   m.TossDecision,
		CurrentInnings: max(marker.Innings, 1),
		Status:         m.Status,
	}
	if m.Status == matchapi.StatusInning2 {
		cfg.CurrentInnings = 2
	}
	s.mu.Lock()
	s.config = cfg
	s.team1, s.team2 = team1, team2
	s.mu.Unlock()

	snap, err := s.workflow.Refresh(ctx, cfg.Target())
	switch {
	case errors.Is(err, scoring.ErrNoInnings):
	case err != nil:
		s.logger.Warn("refresh on resume failed", zap.Error(err))
	default:
		s.mu.Lock()
		s.crease = scoring.Crease{
			Striker:    playerRef(snap.StrikerName, snap.Striker),
			NonStriker: playerRef(snap.NonStrikerName, snap.NonStriker),
			Bowler:     playerRef(snap.BowlerName, snap.CurrentBowler),
		}
		s.mu.Unlock()
	}
	s.logger.Info("resumed match", zap.Int64("match", cfg.ID), zap.String("status", cfg.Status))
	return nil
}

func playerRef(name string, id int64) string {
	if name != "" {
		return name
	}
	if id == 0 {
		return ""
	}
	return strconv.FormatInt(id, 10)
}

func formatOf(matchType string) (Format, string) {
	for f := range PresetOvers {
		if string(f) == matchType {
			return f, ""
		}
	}
	return FormatCustom, matchType
}

func (s *Session) saveMarker(cfg Config) {
	if s.store == nil {
		return
	}
	if err := s.store.Save(Marker{MatchID: cfg.ID, Innings: cfg.CurrentInnings}); err != nil {
		s.logger.Error("saving session marker", zap.Error(err))
	}
}

func (s *Session) clearMarker() {
	if s.store == nil {
		return
	}
	if err := s.store.Clear(); err != nil {
		s.logger.Error("clearing session marker", zap.Error(err))
	}
}
