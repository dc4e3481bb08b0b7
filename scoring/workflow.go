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
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/ttbt-io/crickeeper/matchapi"
)

// State is the lifecycle state of the pending ball slot.
type State int

const (
	StateEmpty State = iota
	StatePending
	StateSaving
	StateSaved
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StatePending:
		return "pending"
	case StateSaving:
		return "saving"
	case StateSaved:
		return "saved"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(b []byte) error {
	for st := StateEmpty; st <= StateSaved; st++ {
		if st.String() == string(b) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown state %q", b)
}

// Service is the part of the match service the workflow talks to.
// *matchapi.Client implements it.
type Service interface {
	Innings(ctx context.Context, matchID int64) ([]matchapi.Innings, error)
	AddBall(ctx context.Context, matchID int64, b matchapi.AddBall) error
	CreateBattingRecord(ctx context.Context, r matchapi.BattingRecord) (matchapi.BattingRecord, error)
	CreateBowlingRecord(ctx context.Context, r matchapi.BowlingRecord) (matchapi.BowlingRecord, error)
}

// Target addresses the innings balls are submitted to.
type Target struct {
	MatchID int64
	Status  string
	Innings int
}

// View is a point-in-time copy of the workflow state for display.
type View struct {
	State         State      `json:"state"`
	Pending       *BallEvent `json:"pending,omitempty"`
	Saved         bool       `json:"saved"`
	OverCompleted bool       `json:"over_completed"`
	Error         string     `json:"error,omitempty"`
	CanSave       bool       `json:"can_save"`
	CanAdvance    bool       `json:"can_advance"`
}

// Workflow owns the single pending ball slot and its submission. The mutex
// is never held across a call to the service.
type Workflow struct {
	svc    Service
	logger *zap.Logger

	mu            sync.Mutex
	state         State
	pending       *BallEvent
	saved         bool
	overCompleted bool
	lastErr       error
	snapshot      matchapi.Innings
	hasSnapshot   bool
	observers     []func(matchapi.Innings)
	// generation moves on Reset. Results of calls started before are dropped.
	generation uint64
	version    uint64

	// notifyMu orders observer calls. notified is the last version sent.
	notifyMu sync.Mutex
	notified uint64
}

// NewWorkflow returns an empty workflow.
func NewWorkflow(svc Service, logger *zap.Logger) *Workflow {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Workflow{svc: svc, logger: logger}
}

// Subscribe registers fn to be called after every snapshot change.
func (w *Workflow) Subscribe(fn func(matchapi.Innings)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.observers = append(w.observers, fn)
}

// Input replaces the pending ball.
func (w *Workflow) Input(ev BallEvent) error {
	if !ev.Kind.Valid() {
		return invalid("event", "unknown event %q", ev.Kind)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state == StateSaving {
		return ErrSaveInFlight
	}
	w.pending = &ev
	w.saved = false
	w.lastErr = nil
	w.state = StatePending
	return nil
}

// Save submits the pending ball. It returns ErrNothingPending or
// ErrSaveInFlight without side effects when there is nothing to do.
func (w *Workflow) Save(ctx context.Context, t Target, l Lineup) error {
	w.mu.Lock()
	if w.state == StateSaving {
		w.mu.Unlock()
		return ErrSaveInFlight
	}
	if w.pending == nil {
		w.mu.Unlock()
		return ErrNothingPending
	}
	ev := *w.pending
	snap, has := w.snapshot, w.hasSnapshot
	gen := w.generation
	w.state = StateSaving
	w.lastErr = nil
	w.mu.Unlock()

	logger := w.logger.With(zap.Int64("match", t.MatchID), zap.String("event", string(ev.Kind)))
	stamped, err := w.submit(ctx, gen, t, l, ev, snap, has)

	switch {
	case err == nil:
		logger.Info("ball saved", zap.Int("over", stamped.Over), zap.Int("ball", stamped.Ball))
		fresh, rerr := w.fetch(ctx, t)
		w.mu.Lock()
		if w.generation != gen {
			w.mu.Unlock()
			logger.Info("workflow reset during save, result dropped")
			return nil
		}
		w.state = StateSaved
		w.pending = nil
		w.saved = true
		w.overCompleted = false
		if rerr != nil {
			w.lastErr = fmt.Errorf("refresh after save: %w", rerr)
			logger.Warn("refresh after save failed", zap.Error(rerr))
		}
		w.mu.Unlock()
		if rerr == nil {
			w.setSnapshot(gen, fresh)
		}
		return nil

	case matchapi.IsConflict(err):
		logger.Warn("over already completed, resyncing", zap.Int("over", stamped.Over))
		fresh, rerr := w.fetch(ctx, t)
		w.mu.Lock()
		if w.generation != gen {
			w.mu.Unlock()
			return err
		}
		w.state = StatePending
		w.overCompleted = true
		w.lastErr = err
		w.mu.Unlock()
		if rerr == nil {
			w.setSnapshot(gen, fresh)
		} else {
			logger.Warn("resync failed", zap.Error(rerr))
		}
		return err

	default:
		logger.Error("save failed", zap.Error(err))
		w.mu.Lock()
		if w.generation != gen {
			w.mu.Unlock()
			return err
		}
		w.state = StatePending
		w.lastErr = err
		w.mu.Unlock()
		if !errors.Is(err, ErrValidation) {
			if fresh, rerr := w.fetch(ctx, t); rerr == nil {
				w.setSnapshot(gen, fresh)
			}
		}
		return err
	}
}

func (w *Workflow) submit(ctx context.Context, gen uint64, t Target, l Lineup, ev BallEvent, snap matchapi.Innings, has bool) (BallEvent, error) {
	striker, err := l.Striker()
	if err != nil {
		return ev, err
	}
	bowler, err := l.Bowler()
	if err != nil {
		return ev, err
	}
	if !has {
		if snap, err = w.fetch(ctx, t); err != nil {
			return ev, err
		}
		w.setSnapshot(gen, snap)
	}
	created, err := w.ensureRecords(ctx, snap, striker.ID, bowler.ID)
	if err != nil {
		return ev, err
	}
	if created {
		if fresh, err := w.fetch(ctx, t); err == nil {
			snap = fresh
			w.setSnapshot(gen, fresh)
		}
	}

	ev.Over = max(snap.CurrentOver, 1)
	// CurrentBall counts the legal balls already bowled in the over (0 before
	// the first one, as in BallsBowled), so this ball is the next one.
	ev.Ball = snap.CurrentBall + 1
	ev.Batsman = striker.ID
	ev.Bowler = bowler.ID
	if ev.IsWicket && ev.DismissedBatsman == 0 {
		ev.DismissedBatsman = striker.ID
	}
	inning := t.Innings
	if inning == 0 {
		inning = snap.InningNumber
	}
	if err := w.svc.AddBall(ctx, t.MatchID, ev.Wire(inning)); err != nil {
		return ev, fmt.Errorf("add ball: %w", err)
	}
	return ev, nil
}

// ensureRecords creates the striker's batting record and the bowler's
// bowling record when the snapshot has none. The check and the create are
// separate requests, so two consoles can race and create both.
func (w *Workflow) ensureRecords(ctx context.Context, snap matchapi.Innings, striker, bowler int64) (bool, error) {
	created := false
	if !lo.ContainsBy(snap.BattingRecords, func(r matchapi.BattingRecord) bool {
		return r.Player == striker && !r.IsOut
	}) {
		if _, err := w.svc.CreateBattingRecord(ctx, matchapi.BattingRecord{Inning: snap.ID, Player: striker}); err != nil {
			return false, fmt.Errorf("create batting record: %w", err)
		}
		created = true
	}
	if !lo.ContainsBy(snap.BowlingRecords, func(r matchapi.BowlingRecord) bool {
		return r.Player == bowler
	}) {
		if _, err := w.svc.CreateBowlingRecord(ctx, matchapi.BowlingRecord{Inning: snap.ID, Player: bowler}); err != nil {
			return created, fmt.Errorf("create bowling record: %w", err)
		}
		created = true
	}
	return created, nil
}

// EnsureRecords creates missing records for the lineup's striker and bowler
// against the current snapshot. Used after the on-field players change.
func (w *Workflow) EnsureRecords(ctx context.Context, t Target, l Lineup) error {
	striker, err := l.Striker()
	if err != nil {
		return err
	}
	bowler, err := l.Bowler()
	if err != nil {
		return err
	}
	gen := w.gen()
	snap, err := w.fetch(ctx, t)
	if err != nil {
		return err
	}
	created, err := w.ensureRecords(ctx, snap, striker.ID, bowler.ID)
	if err != nil {
		return err
	}
	if created {
		if snap, err = w.fetch(ctx, t); err != nil {
			return err
		}
	}
	w.setSnapshot(gen, snap)
	return nil
}

// NextBall clears a saved ball. It refuses to drop an unsaved one.
func (w *Workflow) NextBall() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	switch w.state {
	case StatePending:
		return ErrUnsavedBall
	case StateSaving:
		return ErrSaveInFlight
	}
	w.state = StateEmpty
	w.pending = nil
	w.saved = false
	w.overCompleted = false
	w.lastErr = nil
	return nil
}

// Discard drops the pending ball without saving it.
func (w *Workflow) Discard() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state == StateSaving {
		return ErrSaveInFlight
	}
	if w.state != StatePending {
		return ErrNothingPending
	}
	w.state = StateEmpty
	w.pending = nil
	w.overCompleted = false
	w.lastErr = nil
	return nil
}

// Refresh refetches the innings snapshot. A successful refresh is the resync
// that lifts the over-completed notice; the pending ball is kept.
func (w *Workflow) Refresh(ctx context.Context, t Target) (matchapi.Innings, error) {
	gen := w.gen()
	snap, err := w.fetch(ctx, t)
	if err != nil {
		return matchapi.Innings{}, err
	}
	w.mu.Lock()
	if w.generation == gen {
		w.overCompleted = false
	}
	w.mu.Unlock()
	w.setSnapshot(gen, snap)
	return snap, nil
}

// Reset clears the slot and the snapshot. Observers stay registered.
func (w *Workflow) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.state = StateEmpty
	w.pending = nil
	w.saved = false
	w.overCompleted = false
	w.lastErr = nil
	w.snapshot = matchapi.Innings{}
	w.hasSnapshot = false
	w.generation++
}

// Snapshot returns the last fetched innings.
func (w *Workflow) Snapshot() (matchapi.Innings, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snapshot, w.hasSnapshot
}

func (w *Workflow) View() View {
	w.mu.Lock()
	defer w.mu.Unlock()
	v := View{
		State:         w.state,
		Saved:         w.saved,
		OverCompleted: w.overCompleted,
		CanSave:       w.state == StatePending,
		CanAdvance:    w.state == StateSaved,
	}
	if w.pending != nil {
		p := *w.pending
		v.Pending = &p
	}
	if w.lastErr != nil {
		v.Error = w.lastErr.Error()
	}
	return v
}

func (w *Workflow) fetch(ctx context.Context, t Target) (matchapi.Innings, error) {
	list, err := w.svc.Innings(ctx, t.MatchID)
	if err != nil {
		return matchapi.Innings{}, fmt.Errorf("fetch innings: %w", err)
	}
	snap, ok := matchapi.SelectInnings(list, t.Status, t.Innings)
	if !ok {
		return matchapi.Innings{}, ErrNoInnings
	}
	return snap, nil
}

func (w *Workflow) gen() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.generation
}

// setSnapshot stores snap unless the workflow was reset since gen, then
// notifies the observers. Observers see snapshots in the order they were
// stored; a notification overtaken by a newer one is skipped.
func (w *Workflow) setSnapshot(gen uint64, snap matchapi.Innings) {
	w.mu.Lock()
	if w.generation != gen {
		w.mu.Unlock()
		return
	}
	w.snapshot = snap
	w.hasSnapshot = true
	w.version++
	version := w.version
	observers := append([]func(matchapi.Innings){}, w.observers...)
	w.mu.Unlock()

	w.notifyMu.Lock()
	defer w.notifyMu.Unlock()
	if version < w.notified {
		return
	}
	w.notified = version
	for _, fn := range observers {
		fn(snap)
	}
}
