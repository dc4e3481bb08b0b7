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
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ttbt-io/crickeeper/backend"
	"github.com/ttbt-io/crickeeper/config"
	"github.com/ttbt-io/crickeeper/log"
	"github.com/ttbt-io/crickeeper/match"
	"github.com/ttbt-io/crickeeper/matchapi"
)

const shutdownTimeout = 10 * time.Second

func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the operator console",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&config.Addr, "addr", config.DefaultAddr, "TCP address of the console")
	cmd.Flags().StringVar(&config.OperatorSecret, "operator-secret", "",
		"HS256 secret operator tokens are signed with")
	cmd.Flags().StringVar(&config.AuthJWKSURL, "auth-jwks-url", "",
		"JWKS endpoint for operator tokens")
	cmd.Flags().StringVar(&config.RedisURL, "redis-url", "",
		"redis URL for the scoreboard stream (disabled when empty)")
	cmd.Flags().StringSliceVar(&config.CORSOrigins, "cors-origins", nil,
		"origins allowed to call the console API")
	return cmd
}

func newLogger() *zap.Logger {
	return log.Must(config.LogFormat, config.LogLevel)
}

func newClient(logger *zap.Logger) *matchapi.Client {
	return matchapi.New(config.ServiceURL,
		matchapi.WithTimeout(config.RequestTimeout),
		matchapi.WithLogger(logger.Named("matchapi")))
}

func openStore(logger *zap.Logger) (*match.Store, error) {
	s, err := match.OpenStorage(config.DataDir, config.MasterKey, logger)
	if err != nil {
		return nil, err
	}
	return match.NewStore(s), nil
}

func serve(ctx context.Context) error {
	logger := newLogger()
	defer logger.Sync()

	store, err := openStore(logger)
	if err != nil {
		return err
	}
	client := newClient(logger)
	session := match.NewSession(client, store, logger.Named("session"))
	if err := session.Resume(ctx); err != nil {
		logger.Warn("could not resume the stored match", zap.Error(err))
	}

	opts := backend.Options{
		Addr:           config.Addr,
		Session:        session,
		Client:         client,
		Logger:         logger.Named("console"),
		OperatorSecret: config.OperatorSecret,
		AuthJWKSURL:    config.AuthJWKSURL,
		CORSOrigins:    config.CORSOrigins,
	}
	if config.RedisURL != "" {
		pub, err := backend.NewStreamPublisherURL(config.RedisURL)
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		defer pub.Close()
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if err := pub.Ping(pingCtx); err != nil {
			logger.Warn("redis is not reachable, scoreboards will be retried on each save", zap.Error(err))
		}
		cancel()
		opts.Publisher = pub
	}

	server, err := backend.StartServer(opts)
	if err != nil {
		return fmt.Errorf("start server: %w", err)
	}
	logger.Info("console listening", zap.String("addr", config.Addr),
		zap.String("service", config.ServiceURL))

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown", zap.Error(err))
		return err
	}
	logger.Info("gracefully stopped")
	return nil
}
