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
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"

	"github.com/ttbt-io/crickeeper/scoring"
)

func TestStreamValues(t *testing.T) {
	sb := scoring.Scoreboard{MatchID: 42, Innings: 1, TotalRuns: 61, Wickets: 2, CurrentOver: 7, CurrentBall: 3}
	if got, want := StreamKey(sb.MatchID), "cricket.scoreboard.42"; got != want {
		t.Errorf("StreamKey = %q, want %q", got, want)
	}
	values, err := streamValues(sb)
	if err != nil {
		t.Fatalf("streamValues: %v", err)
	}
	if values["match_id"] != int64(42) || values["over"] != "6.3" {
		t.Errorf("values = %v", values)
	}
	var back scoring.Scoreboard
	if err := json.Unmarshal([]byte(values["data"].(string)), &back); err != nil {
		t.Fatalf("data is not a scoreboard: %v", err)
	}
	if diff := cmp.Diff(sb.Score(), back.Score()); diff != "" {
		t.Errorf("score mismatch (-want +got):\n%s", diff)
	}
}

func TestNewStreamPublisherURL(t *testing.T) {
	if _, err := NewStreamPublisherURL("http://not-redis"); err == nil {
		t.Error("non-redis URL accepted")
	}
	p, err := NewStreamPublisherURL("redis://localhost:6379/0")
	if err != nil {
		t.Fatalf("NewStreamPublisherURL: %v", err)
	}
	p.Close()
}

type recordingPublisher struct {
	mu   sync.Mutex
	runs []int
}

func (p *recordingPublisher) PublishScoreboard(_ context.Context, sb scoring.Scoreboard) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.runs = append(p.runs, sb.TotalRuns)
	return nil
}

func (p *recordingPublisher) seen() []int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]int(nil), p.runs...)
}

func TestStreamQueuePreservesOrder(t *testing.T) {
	pub := &recordingPublisher{}
	done := make(chan struct{})
	q := newStreamQueue(pub, zap.NewNop(), done)

	const n = 40
	for i := 1; i <= n; i++ {
		q.Enqueue(scoring.Scoreboard{MatchID: 7, TotalRuns: i})
	}
	deadline := time.Now().Add(5 * time.Second)
	for len(pub.seen()) < n && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	got := pub.seen()
	if len(got) != n {
		t.Fatalf("published %d scoreboards, want %d", len(got), n)
	}
	for i, runs := range got {
		if runs != i+1 {
			t.Fatalf("publish order = %v", got)
		}
	}

	close(done)
	time.Sleep(20 * time.Millisecond)
	q.Enqueue(scoring.Scoreboard{MatchID: 7, TotalRuns: n + 1})
	time.Sleep(20 * time.Millisecond)
	if got := len(pub.seen()); got != n {
		t.Errorf("published %d scoreboards after shutdown, want %d", got, n)
	}
}
