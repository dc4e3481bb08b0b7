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
	"encoding/json"

	"github.com/spf13/cobra"
)

// NewMarkerCmd prints the session marker, decrypting the data dir with the
// master key when one is configured.
func NewMarkerCmd() *cobra.Command {
	var reset bool
	cmd := &cobra.Command{
		Use:   "marker",
		Short: "Print or clear the stored session marker",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			defer logger.Sync()

			store, err := openStore(logger)
			if err != nil {
				return err
			}
			if reset {
				return store.Clear()
			}
			m, err := store.Load()
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(m)
		},
	}
	cmd.Flags().BoolVar(&reset, "clear", false, "forget the stored match")
	return cmd
}
