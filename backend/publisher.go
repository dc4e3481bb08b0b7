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
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ttbt-io/crickeeper/scoring"
)

// Publisher forwards scoreboards to other services.
type Publisher interface {
	PublishScoreboard(ctx context.Context, sb scoring.Scoreboard) error
}

// StreamPublisher publishes scoreboards to Redis streams.
type StreamPublisher struct {
	client *redis.Client
	maxLen int64
}

// DefaultStreamMaxLen caps each match stream, approximately.
const DefaultStreamMaxLen = 5000

// NewStreamPublisher creates a new stream publisher.
func NewStreamPublisher(client *redis.Client) *StreamPublisher {
	return &StreamPublisher{client: client, maxLen: DefaultStreamMaxLen}
}

// NewStreamPublisherURL connects to the Redis server at url,
// e.g. redis://localhost:6379/0.
func NewStreamPublisherURL(url string) (*StreamPublisher, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return NewStreamPublisher(redis.NewClient(opts)), nil
}

// StreamKey names the stream of a match.
func StreamKey(matchID int64) string {
	return fmt.Sprintf("cricket.scoreboard.%d", matchID)
}

func streamValues(sb scoring.Scoreboard) (map[string]any, error) {
	data, err := json.Marshal(sb)
	if err != nil {
		return nil, fmt.Errorf("marshaling scoreboard: %w", err)
	}
	return map[string]any{
		"data":     string(data),
		"match_id": sb.MatchID,
		"over":     scoring.OversDisplay(sb.CurrentOver, sb.CurrentBall),
	}, nil
}

// PublishScoreboard appends sb to the match stream.
func (p *StreamPublisher) PublishScoreboard(ctx context.Context, sb scoring.Scoreboard) error {
	values, err := streamValues(sb)
	if err != nil {
		return err
	}
	return p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: StreamKey(sb.MatchID),
		MaxLen: p.maxLen,
		Approx: true,
		Values: values,
	}).Err()
}

// Ping checks the connection.
func (p *StreamPublisher) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

// Close closes the Redis client.
func (p *StreamPublisher) Close() error {
	return p.client.Close()
}

const (
	// publishTimeout bounds one stream append.
	publishTimeout  = 5 * time.Second
	streamQueueSize = 64
)

// streamQueue feeds a Publisher from a single goroutine so that scoreboards
// reach the stream in the order they were produced. It stops when done is
// closed.
type streamQueue struct {
	pub     Publisher
	logger  *zap.Logger
	updates chan scoring.Scoreboard
	done    <-chan struct{}
}

func newStreamQueue(pub Publisher, logger *zap.Logger, done <-chan struct{}) *streamQueue {
	q := &streamQueue{
		pub:     pub,
		logger:  logger,
		updates: make(chan scoring.Scoreboard, streamQueueSize),
		done:    done,
	}
	go q.run()
	return q
}

// Enqueue queues sb without blocking the caller.
func (q *streamQueue) Enqueue(sb scoring.Scoreboard) {
	select {
	case q.updates <- sb:
	case <-q.done:
	default:
		q.logger.Warn("stream queue full, dropping scoreboard", zap.Int64("match", sb.MatchID))
	}
}

func (q *streamQueue) run() {
	for {
		select {
		case sb := <-q.updates:
			q.publish(sb)
		case <-q.done:
			return
		}
	}
}

func (q *streamQueue) publish(sb scoring.Scoreboard) {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := q.pub.PublishScoreboard(ctx, sb); err != nil {
		q.logger.Warn("scoreboard publish failed", zap.Int64("match", sb.MatchID), zap.Error(err))
	}
}
