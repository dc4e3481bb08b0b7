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
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ttbt-io/crickeeper/rosterfile"
)

func NewImportRosterCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import-roster FILE",
		Short: "Create the teams and players of a YAML roster file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			defer logger.Sync()

			f, err := rosterfile.ParseFile(args[0])
			if err != nil {
				return err
			}
			report, err := rosterfile.Import(cmd.Context(), newClient(logger), f, logger.Named("roster"))
			if err != nil {
				return err
			}
			logger.Info("roster imported", zap.String("file", args[0]))
			fmt.Fprintf(cmd.OutOrStdout(), "teams: %d created, %d existing\nplayers: %d created, %d skipped\n",
				report.TeamsCreated, report.TeamsExisting, report.PlayersCreated, report.PlayersSkipped)
			return nil
		},
	}
}
