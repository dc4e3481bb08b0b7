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

// Package matchapi is the client of the remote match service. The service
// owns teams, players, matches, innings and statistics; this package only
// moves JSON.
package matchapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxErrorBody = 4096

// Client talks to the match service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout of the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithLogger sets the logger for request tracing.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New returns a Client for the service rooted at baseURL, e.g.
// "http://127.0.0.1:8000/api".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Teams lists all teams.
func (c *Client) Teams(ctx context.Context) ([]Team, error) {
	return getList[Team](ctx, c, "/teams/", nil)
}

// CreateTeam creates a team and returns it with its assigned id.
func (c *Client) CreateTeam(ctx context.Context, t Team) (Team, error) {
	var out Team
	err := c.do(ctx, http.MethodPost, "/teams/", nil, t, &out)
	return out, err
}

// TeamStatistics returns the service's statistics for a team as raw JSON.
func (c *Client) TeamStatistics(ctx context.Context, teamID int64) (json.RawMessage, error) {
	return c.getRaw(ctx, fmt.Sprintf("/teams/%d/statistics/", teamID), nil)
}

// Players lists players, limited to one team when teamID is not zero.
func (c *Client) Players(ctx context.Context, teamID int64) ([]Player, error) {
	var q url.Values
	if teamID != 0 {
		q = url.Values{"team_id": {strconv.FormatInt(teamID, 10)}}
	}
	return getList[Player](ctx, c, "/players/", q)
}

// CreatePlayer creates a player.
func (c *Client) CreatePlayer(ctx context.Context, p Player) (Player, error) {
	var out Player
	err := c.do(ctx, http.MethodPost, "/players/", nil, p, &out)
	return out, err
}

// PlayerCareerStats returns a player's career statistics as raw JSON.
func (c *Client) PlayerCareerStats(ctx context.Context, playerID int64) (json.RawMessage, error) {
	return c.getRaw(ctx, fmt.Sprintf("/players/%d/career_stats/", playerID), nil)
}

// Matches lists matches.
func (c *Client) Matches(ctx context.Context) ([]Match, error) {
	return getList[Match](ctx, c, "/matches/", nil)
}

// CreateMatch creates a match. The returned id may be zero if the service
// does not echo it back.
func (c *Client) CreateMatch(ctx context.Context, m Match) (Match, error) {
	var out Match
	err := c.do(ctx, http.MethodPost, "/matches/", nil, m, &out)
	return out, err
}

// SetToss records the toss and returns the updated match.
func (c *Client) SetToss(ctx context.Context, matchID int64, t Toss) (Match, error) {
	var out Match
	err := c.do(ctx, http.MethodPost, matchPath(matchID, "set_toss"), nil, t, &out)
	return out, err
}

// UpdatePlayers sets the players on the field.
func (c *Client) UpdatePlayers(ctx context.Context, matchID int64, p OnField) error {
	return c.do(ctx, http.MethodPost, matchPath(matchID, "update_players"), nil, p, nil)
}

// AddBall appends a ball. A *ConflictError is returned when the addressed
// over is already complete.
func (c *Client) AddBall(ctx context.Context, matchID int64, b AddBall) error {
	return c.do(ctx, http.MethodPost, matchPath(matchID, "add_ball"), nil, b, nil)
}

// CompleteMatch finishes the match.
func (c *Client) CompleteMatch(ctx context.Context, matchID int64, r Result) error {
	return c.do(ctx, http.MethodPost, matchPath(matchID, "complete_match"), nil, r, nil)
}

// Scorecard returns the full scorecard as raw JSON.
func (c *Client) Scorecard(ctx context.Context, matchID int64) (json.RawMessage, error) {
	return c.getRaw(ctx, matchPath(matchID, "scorecard"), nil)
}

// LiveScore returns the live score as raw JSON.
func (c *Client) LiveScore(ctx context.Context, matchID int64) (json.RawMessage, error) {
	return c.getRaw(ctx, matchPath(matchID, "live_score"), nil)
}

// MatchStatistics returns match statistics as raw JSON.
func (c *Client) MatchStatistics(ctx context.Context, matchID int64) (json.RawMessage, error) {
	return c.getRaw(ctx, matchPath(matchID, "statistics"), nil)
}

// Manhattan returns the runs-per-over chart data for one innings.
func (c *Client) Manhattan(ctx context.Context, matchID int64, inning int) (json.RawMessage, error) {
	if inning < 1 {
		inning = 1
	}
	q := url.Values{"inning_number": {strconv.Itoa(inning)}}
	return c.getRaw(ctx, matchPath(matchID, "manhattan"), q)
}

// WormChart returns the cumulative runs chart data.
func (c *Client) WormChart(ctx context.Context, matchID int64) (json.RawMessage, error) {
	return c.getRaw(ctx, matchPath(matchID, "worm_chart"), nil)
}

// Innings lists the innings of a match with nested overs and records.
func (c *Client) Innings(ctx context.Context, matchID int64) ([]Innings, error) {
	q := url.Values{"match_id": {strconv.FormatInt(matchID, 10)}}
	return getList[Innings](ctx, c, "/innings/", q)
}

// BattingRecords lists batting records of an innings.
func (c *Client) BattingRecords(ctx context.Context, inningID int64) ([]BattingRecord, error) {
	q := url.Values{"inning_id": {strconv.FormatInt(inningID, 10)}}
	return getList[BattingRecord](ctx, c, "/batting-records/", q)
}

// CreateBattingRecord creates a batting record.
func (c *Client) CreateBattingRecord(ctx context.Context, r BattingRecord) (BattingRecord, error) {
	var out BattingRecord
	err := c.do(ctx, http.MethodPost, "/batting-records/", nil, r, &out)
	return out, err
}

// BowlingRecords lists bowling records of an innings.
func (c *Client) BowlingRecords(ctx context.Context, inningID int64) ([]BowlingRecord, error) {
	q := url.Values{"inning_id": {strconv.FormatInt(inningID, 10)}}
	return getList[BowlingRecord](ctx, c, "/bowling-records/", q)
}

// CreateBowlingRecord creates a bowling record.
func (c *Client) CreateBowlingRecord(ctx context.Context, r BowlingRecord) (BowlingRecord, error) {
	var out BowlingRecord
	err := c.do(ctx, http.MethodPost, "/bowling-records/", nil, r, &out)
	return out, err
}

func matchPath(matchID int64, action string) string {
	return fmt.Sprintf("/matches/%d/%s/", matchID, action)
}

func (c *Client) getRaw(ctx context.Context, path string, q url.Values) (json.RawMessage, error) {
	var out json.RawMessage
	if err := c.do(ctx, http.MethodGet, path, q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// getList decodes either a bare JSON array or a paginated {"results": [...]}.
func getList[T any](ctx context.Context, c *Client, path string, q url.Values) ([]T, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, path, q, nil, &raw); err != nil {
		return nil, err
	}
	return decodeList[T](raw)
}

func decodeList[T any](raw json.RawMessage) ([]T, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []T{}, nil
	}
	if trimmed[0] == '[' {
		var items []T
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("decode list: %w", err)
		}
		return items, nil
	}
	var page struct {
		Results []T `json:"results"`
	}
	if err := json.Unmarshal(trimmed, &page); err != nil {
		return nil, fmt.Errorf("decode page: %w", err)
	}
	if page.Results == nil {
		page.Results = []T{}
	}
	return page.Results, nil
}

func (c *Client) do(ctx context.Context, method, path string, q url.Values, in, out any) error {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("new request %s %s: %w", method, path, err)
	}
	reqID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", reqID)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("match service unreachable",
			zap.String("method", method), zap.String("path", path),
			zap.String("request_id", reqID), zap.Error(err))
		return &TransientError{Method: method, Path: path, Err: err}
	}
	defer resp.Body.Close()

	c.logger.Debug("match service call",
		zap.String("method", method), zap.String("path", path),
		zap.String("request_id", reqID), zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode >= 300 {
		return responseError(method, path, resp)
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return &TransientError{Method: method, Path: path, StatusCode: resp.StatusCode, Message: "malformed response", Err: err}
	}
	return nil
}

// responseError classifies a non-2xx response.
func responseError(method, path string, resp *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	msg := errorMessage(b)
	if resp.StatusCode >= 400 && resp.StatusCode < 500 && isOverCompleted(msg) {
		return &ConflictError{Message: msg}
	}
	return &TransientError{Method: method, Path: path, StatusCode: resp.StatusCode, Message: msg}
}

// errorMessage extracts "error" or "detail" from a JSON error body, or
// returns the body text.
func errorMessage(b []byte) string {
	var body struct {
		Error  string `json:"error"`
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(b, &body); err == nil {
		if body.Error != "" {
			return body.Error
		}
		if body.Detail != "" {
			return body.Detail
		}
	}
	return strings.TrimSpace(string(b))
}
