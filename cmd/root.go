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

// Package cmd holds the crickeeper command line.
package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ttbt-io/crickeeper/config"
	"github.com/ttbt-io/crickeeper/log"
)

const envPrefix = "CRICKEEPER"

var cfgFile string

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "crickeeper",
		Short: "Operator console for scoring cricket matches",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			v := viper.New()
			if err := initConfig(v); err != nil {
				return err
			}
			return bindFlags(cmd, v)
		},
		SilenceUsage: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.crickeeper.yml)")
	pf.StringVar(&config.ServiceURL, "service-url", config.DefaultServiceURL,
		"base URL of the match service")
	pf.DurationVar(&config.RequestTimeout, "request-timeout", config.DefaultTimeout,
		"timeout for a single match service call")
	pf.StringVar(&config.DataDir, "data-dir", "data", "directory for the session marker")
	pf.StringVar(&config.MasterKey, "master-key", "",
		"passphrase of the master key encrypting the data dir")
	pf.StringVar(&config.LogLevel, "log-level", "info", "log level: debug, info, warn, error")
	pf.StringVar(&config.LogFormat, "log-format", log.FormatText, "log format: text or json")

	rootCmd.AddCommand(
		NewServeCmd(),
		NewImportRosterCmd(),
		NewScoreboardCmd(),
		NewMarkerCmd(),
	)
	return rootCmd
}

// Execute runs the command line and exits non-zero on failure.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func initConfig(v *viper.Viper) error {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(".crickeeper")
	}
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("config: %w", err)
		}
	}
	return nil
}

// bindFlags sets every flag the user did not pass from the config file or
// the environment (CRICKEEPER_SERVICE_URL for --service-url).
func bindFlags(cmd *cobra.Command, v *viper.Viper) error {
	var errs []error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if strings.Contains(f.Name, "-") {
			envVar := strings.ToUpper(strings.ReplaceAll(f.Name, "-", "_"))
			v.BindEnv(f.Name, fmt.Sprintf("%s_%s", envPrefix, envVar))
		}
		if f.Changed || !v.IsSet(f.Name) {
			return
		}
		val := fmt.Sprintf("%v", v.Get(f.Name))
		if f.Value.Type() == "stringSlice" {
			val = strings.Join(v.GetStringSlice(f.Name), ",")
		}
		if err := cmd.Flags().Set(f.Name, val); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", f.Name, err))
		}
	})
	return errors.Join(errs...)
}
