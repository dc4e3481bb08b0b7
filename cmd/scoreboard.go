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

package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/ttbt-io/crickeeper/matchapi"
	"github.com/ttbt-io/crickeeper/scoring"
)

// scoreSource is the part of the match service the scoreboard command reads.
type scoreSource interface {
	Teams(ctx context.Context) ([]matchapi.Team, error)
	Matches(ctx context.Context) ([]matchapi.Match, error)
	Innings(ctx context.Context, matchID int64) ([]matchapi.Innings, error)
}

func NewScoreboardCmd() *cobra.Command {
	var matchID int64
	var inning int
	cmd := &cobra.Command{
		Use:   "scoreboard",
		Short: "Print the scoreboard of a match",
		Long: "Print the scoreboard of a match. Without --match the match " +
			"stored by the console is used.",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			defer logger.Sync()
			if matchID == 0 {
				store, err := openStore(logger)
				if err != nil {
					return err
				}
				marker, err := store.Load()
				if err != nil {
					return err
				}
				if marker.MatchID == 0 {
					return fmt.Errorf("no match in progress, pass --match")
				}
				matchID = marker.MatchID
			}
			sb, err := loadScoreboard(cmd.Context(), newClient(logger), matchID, inning)
			if err != nil {
				return err
			}
			return renderScoreboard(cmd.OutOrStdout(), sb)
		},
	}
	cmd.Flags().Int64Var(&matchID, "match", 0, "match id")
	cmd.Flags().IntVar(&inning, "innings", 1, "innings to show when the match is not live")
	return cmd
}

func loadScoreboard(ctx context.Context, svc scoreSource, matchID int64, inning int) (scoring.Scoreboard, error) {
	matches, err := svc.Matches(ctx)
	if err != nil {
		return scoring.Scoreboard{}, err
	}
	m, ok := lo.Find(matches, func(m matchapi.Match) bool { return m.ID == matchID })
	if !ok {
		return scoring.Scoreboard{}, fmt.Errorf("match %d not found", matchID)
	}
	innings, err := svc.Innings(ctx, matchID)
	if err != nil {
		return scoring.Scoreboard{}, err
	}
	snap, ok := matchapi.SelectInnings(innings, m.Status, inning)
	if !ok {
		return scoring.Scoreboard{}, fmt.Errorf("match %d: %w", matchID, scoring.ErrNoInnings)
	}
	teams, err := svc.Teams(ctx)
	if err != nil {
		return scoring.Scoreboard{}, err
	}
	names := lo.SliceToMap(teams, func(t matchapi.Team) (int64, string) { return t.ID, t.Name })

	sb := scoring.BuildScoreboard(snap, m.OversPerInnings)
	sb.BattingTeam = names[snap.BattingTeam]
	sb.BowlingTeam = names[snap.BowlingTeam]
	sb.Toss = scoring.TossLine(names[m.TossWinner], m.TossDecision)
	return sb, nil
}

func renderScoreboard(w io.Writer, sb scoring.Scoreboard) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s vs %s\n", orDash(sb.BattingTeam), orDash(sb.BowlingTeam))
	if sb.Toss != "" {
		fmt.Fprintf(&b, "%s\n", sb.Toss)
	}
	fmt.Fprintf(&b, "Innings %d: %s (%s ov)\n", sb.Innings, sb.Score(), sb.Overs)
	fmt.Fprintf(&b, "CRR %s", sb.Metrics.CurrentRunRate)
	if sb.Innings == 2 {
		fmt.Fprintf(&b, "  RRR %s", sb.Metrics.RequiredRunRate)
	}
	fmt.Fprintf(&b, "  Projected %d\n", sb.Metrics.ProjectedScore)
	batter(&b, "*", sb.Striker)
	batter(&b, " ", sb.NonStriker)
	if bw := sb.Bowler; bw != nil {
		fmt.Fprintf(&b, "Bowler %s  %s-%d-%d-%d  Econ %s\n",
			bw.Name, bw.Overs, bw.Maidens, bw.Runs, bw.Wickets, bw.Economy)
	}
	if len(sb.Recent) > 0 {
		labels := lo.Map(sb.Recent, func(r scoring.RecentBall, _ int) string { return r.Label })
		fmt.Fprintf(&b, "Recent %s\n", strings.Join(labels, " "))
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func batter(b *strings.Builder, mark string, l *scoring.BatterLine) {
	if l == nil {
		return
	}
	fmt.Fprintf(b, "%s %-20s %3d (%d)  4s %d  6s %d  SR %s\n",
		mark, l.Name, l.Runs, l.Balls, l.Fours, l.Sixes, l.StrikeRate)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
