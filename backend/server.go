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

// Package backend is the operator console: a JSON API over the match session,
// a websocket feed of the live scoreboard and an optional Redis stream.
package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/ttbt-io/crickeeper/fielding"
	"github.com/ttbt-io/crickeeper/match"
	"github.com/ttbt-io/crickeeper/matchapi"
	"github.com/ttbt-io/crickeeper/scoring"
)

// Options represent server options.
type Options struct {
	Addr     string
	Listener net.Listener

	// Session is the match being scored. Client serves team and player
	// management and the remote read-throughs.
	Session *match.Session
	Client  *matchapi.Client

	Logger *zap.Logger

	// Auth Options. Writes are open when both are empty.
	OperatorSecret string
	AuthJWKSURL    string

	CORSOrigins []string

	// Publisher receives every scoreboard, may be nil.
	Publisher Publisher
}

// Server represents the running server instance.
type Server struct {
	httpServer *http.Server
	hub        *Hub
	logger     *zap.Logger
}

// Shutdown stops accepting requests and disconnects the scoreboard viewers.
func (s *Server) Shutdown(ctx context.Context) error {
	var errs []string
	if err := s.httpServer.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Sprintf("http: %v", err))
	}
	s.hub.Close()
	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %s", strings.Join(errs, ", "))
	}
	return nil
}

// StartServer starts the console and registers the API handlers.
func StartServer(opts Options) (*Server, error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	hub, handler := NewServerHandler(opts)

	httpServer := &http.Server{
		Addr:              opts.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	ln := opts.Listener
	if ln == nil {
		var err error
		if ln, err = net.Listen("tcp", opts.Addr); err != nil {
			hub.Close()
			return nil, fmt.Errorf("listen %s: %w", opts.Addr, err)
		}
	}

	go func() {
		opts.Logger.Info("console listening", zap.String("addr", ln.Addr().String()))
		err := httpServer.Serve(ln)
		if err != nil && !errors.Is(err, net.ErrClosed) && !errors.Is(err, http.ErrServerClosed) {
			opts.Logger.Error("server error", zap.Error(err))
		}
	}()

	return &Server{httpServer: httpServer, hub: hub, logger: opts.Logger}, nil
}

// NewServerHandler wires the console routes. The returned hub receives every
// scoreboard of the session; the caller closes it.
func NewServerHandler(opts Options) (*Hub, http.Handler) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	hub := NewHub(logger.Named("hub"))
	api := &api{
		session: opts.Session,
		client:  opts.Client,
		hub:     hub,
		metrics: NewMetrics(),
		logger:  logger,
	}
	if opts.Publisher != nil {
		api.stream = newStreamQueue(opts.Publisher, logger.Named("stream"), hub.done)
	}
	opts.Session.Watch(api.scoreboardChanged)
	auth := newAuthenticator(opts, logger.Named("auth"))

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(cacheControlMiddleware)
	if len(opts.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   opts.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}
	r.Use(auth.identify)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/session", api.getSession)
		r.Get("/teams", api.listTeams)
		r.Get("/teams/{id}/players", api.listPlayers)
		r.Get("/teams/{id}/statistics", api.teamStatistics)
		r.Get("/players/{id}/career", api.careerStats)
		r.Get("/matches", api.listMatches)
		r.Get("/scoreboard", api.getScoreboard)
		r.Get("/match/scorecard", api.readThrough((*matchapi.Client).Scorecard))
		r.Get("/match/live", api.readThrough((*matchapi.Client).LiveScore))
		r.Get("/match/statistics", api.readThrough((*matchapi.Client).MatchStatistics))
		r.Get("/match/worm", api.readThrough((*matchapi.Client).WormChart))
		r.Get("/match/manhattan", api.manhattan)
		r.Get("/fielding", api.getFielding)
		r.Get("/fielding/presets", api.listPresets)
		r.Get("/metrics", api.getMetrics)
		r.Get("/ws", hub.ServeWS)

		r.Group(func(r chi.Router) {
			r.Use(auth.requireOperator)
			r.Post("/teams", api.createTeam)
			r.Post("/players", api.createPlayer)

			r.Post("/match", api.startMatch)
			r.Post("/match/toss", api.toss)
			r.Post("/match/players", api.setPlayers)
			r.Post("/match/swap", api.swapStrike)
			r.Post("/match/refresh", api.refresh)
			r.Post("/match/complete", api.complete)
			r.Post("/match/reset", api.reset)

			r.Post("/ball/run", api.inputRun)
			r.Post("/ball/extra", api.inputExtra)
			r.Post("/ball/wicket", api.inputWicket)
			r.Post("/ball/field", api.inputFieldEvent)
			r.Post("/ball/save", api.save)
			r.Post("/ball/next", api.nextBall)
			r.Post("/ball/discard", api.discard)

			r.Post("/fielding/preset", api.applyPreset)
			r.Post("/fielding/situation", api.applySituation)
			r.Post("/fielding/assign", api.assignFielder)
			r.Post("/fielding/unassign", api.unassignFielder)
			r.Post("/fielding/move", api.moveFielder)
			r.Post("/fielding/clear", api.clearField)
		})
	})

	return hub, r
}

// cacheControlMiddleware keeps proxies from caching live API responses.
func cacheControlMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			w.Header().Set("Cache-Control", "private, no-cache, no-transform")
		}
		next.ServeHTTP(w, r)
	})
}

// requestLogger logs the method, path and status of every request.
func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("took", time.Since(start)),
				zap.String("request_id", chimiddleware.GetReqID(r.Context())),
			)
		})
	}
}

// errorResponse is the body of every non-2xx API response.
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
	Field   string `json:"field,omitempty"`

	// View is the resynced workflow after an over-completed conflict.
	View *scoring.View `json:"view,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    status,
	})
}

// statusOf maps an error to its HTTP status.
func statusOf(err error) int {
	var transient *matchapi.TransientError
	switch {
	case errors.Is(err, scoring.ErrNotFound):
		return http.StatusUnprocessableEntity
	case errors.Is(err, scoring.ErrValidation),
		errors.Is(err, scoring.ErrNothingPending),
		errors.Is(err, fielding.ErrUnknownPosition),
		errors.Is(err, fielding.ErrUnknownPreset):
		return http.StatusBadRequest
	case matchapi.IsConflict(err),
		errors.Is(err, scoring.ErrSaveInFlight),
		errors.Is(err, scoring.ErrUnsavedBall),
		errors.Is(err, scoring.ErrNoInnings),
		errors.Is(err, match.ErrNoMatch):
		return http.StatusConflict
	case errors.As(err, &transient):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// fail writes err with its mapped status. view is attached to conflicts.
func (a *api) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	resp := errorResponse{
		Error:   http.StatusText(status),
		Message: err.Error(),
		Code:    status,
	}
	var verr *scoring.ValidationError
	if errors.As(err, &verr) {
		resp.Field = verr.Field
	}
	if matchapi.IsConflict(err) {
		view := a.session.Workflow().View()
		resp.View = &view
	}
	if status >= http.StatusInternalServerError {
		a.logger.Warn("request failed",
			zap.String("path", r.URL.Path),
			zap.String("operator", maskOperator(getOperator(r))),
			zap.Error(err))
	}
	respondJSON(w, status, resp)
}

// decode reads a JSON body into v. Unknown fields are rejected.
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return &scoring.ValidationError{Field: "body", Message: "invalid JSON: " + err.Error()}
	}
	return nil
}
