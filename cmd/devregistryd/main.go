/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Command devregistryd hosts the device connection registry as a
// long-lived process: it loads configuration, connects the NATS
// JetStream-backed store, wires up the resolver and readiness probe,
// and blocks until signaled to shut down. It exposes no network
// listener of its own in this build; embedding processes import
// pkg/registry directly.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/carverauto/devregistry/pkg/logger"
	"github.com/carverauto/devregistry/pkg/registry"
	"github.com/carverauto/devregistry/pkg/store"
)

func main() {
	configPath := flag.String("config", "", "path to devregistryd JSON configuration")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}

	if err := logger.Init(&cfg.Logger); err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize logging")
	}

	instanceID := uuid.NewString()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tp, ctx, rootSpan, err := logger.InitializeTracing(ctx, logger.TracingConfig{
		ServiceName: "device-connection-registry",
		Debug:       cfg.Logger.Debug,
		OTel:        cfg.OTel,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize tracing")
	}

	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()

		if err := tp.Shutdown(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("error shutting down tracer provider")
		}
	}()

	defer rootSpan.End()

	natsStore, err := store.NewNATSStore(ctx, &cfg.Store)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to backing store")
	}

	defer func() {
		if err := natsStore.Close(); err != nil {
			logger.Warn().Err(err).Msg("error closing backing store")
		}
	}()

	// reg is what embedding processes (adapters, management APIs) would
	// import pkg/registry for directly; this process has no RPC surface
	// of its own, so reg is only constructed and configured here. The
	// readiness probe below checks natsStore directly.
	reg := registry.New(natsStore)
	reg.GatewayFanoutThreshold = cfg.GatewayFanoutThreshold

	probes := registry.NewProbeRegistry()
	registry.RegisterRemoteCacheConnectionProbe(probes, natsStore)

	startup := probes.Run(ctx, registry.RemoteCacheConnectionProbe)
	if !startup.Ready {
		logger.Fatal().Err(startup.Err).Msg("backing store failed readiness probe at startup")
	}

	logger.Info().
		Str("instance_id", instanceID).
		Str("bucket", cfg.Store.Bucket).
		Msg("device connection registry ready")

	waitForShutdown(ctx)
}

func waitForShutdown(ctx context.Context) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
	case <-ctx.Done():
	}
}
