/*
 * Copyright 2026 PrintForge Authors.
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

// fleetd is the printer fleet core daemon: it keeps the registry reconciled
// with reality and serves the local GUI API.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/printforge/fleetd/pkg/api"
	"github.com/printforge/fleetd/pkg/backend"
	"github.com/printforge/fleetd/pkg/config"
	"github.com/printforge/fleetd/pkg/eventbus"
	"github.com/printforge/fleetd/pkg/lifecycle"
	"github.com/printforge/fleetd/pkg/logger"
	"github.com/printforge/fleetd/pkg/models"
	"github.com/printforge/fleetd/pkg/natsbridge"
	"github.com/printforge/fleetd/pkg/orchestrator"
	"github.com/printforge/fleetd/pkg/registry"
	"github.com/printforge/fleetd/pkg/session"
)

type fleetdConfig struct {
	ListenAddr   string               `json:"listen_addr,omitempty"`
	Logging      *logger.Config       `json:"logging,omitempty"`
	Registry     registry.Config      `json:"registry"`
	Session      session.Config       `json:"session"`
	Orchestrator orchestrator.Config  `json:"orchestrator"`
	NATS         *models.NATSConfig   `json:"nats,omitempty"`
	Events       *models.EventsConfig `json:"events,omitempty"`
}

func (c *fleetdConfig) Validate() error {
	if err := c.Session.Validate(); err != nil {
		return err
	}

	if err := c.Orchestrator.Validate(); err != nil {
		return err
	}

	if c.Events != nil && c.Events.Enabled {
		if c.NATS == nil {
			return fmt.Errorf("event export enabled but nats is not configured")
		}

		if err := c.NATS.Validate(); err != nil {
			return err
		}

		if err := c.Events.Validate(); err != nil {
			return err
		}
	}

	return nil
}

func main() {
	configPath := flag.String("config", "/etc/fleetd/fleetd.json", "Path to config file")
	flag.Parse()

	if err := run(context.Background(), *configPath); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run(ctx context.Context, configPath string) error {
	var cfg fleetdConfig

	cfgLoader := config.NewConfig(nil)
	if err := cfgLoader.LoadAndValidate(ctx, configPath, &cfg); err != nil {
		return err
	}

	logConfig := cfg.Logging
	if logConfig == nil {
		logConfig = logger.DefaultConfig()
	}

	mainLogger, err := lifecycle.CreateComponentLogger("fleetd", logConfig)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	busLogger, err := lifecycle.CreateComponentLogger("eventbus", logConfig)
	if err != nil {
		return err
	}

	bus := eventbus.New(busLogger)

	registryLogger, err := lifecycle.CreateComponentLogger("registry", logConfig)
	if err != nil {
		return err
	}

	reg := registry.New(cfg.Registry, registryLogger)
	if err := reg.Load(); err != nil {
		return fmt.Errorf("failed to load printer registry: %w", err)
	}

	defer func() {
		if err := reg.Close(); err != nil {
			mainLogger.Error().Err(err).Msg("Failed to persist registry on shutdown")
		}
	}()

	reg.InstallHandlers(bus)
	defer reg.RemoveHandlers(bus)

	// Vendor integrations register their host types here.
	factory := backend.NewFactory()

	sessionLogger, err := lifecycle.CreateComponentLogger("session", logConfig)
	if err != nil {
		return err
	}

	sessions := session.NewManager(cfg.Session, factory, lifecycle.RealClock(), sessionLogger)
	if err := sessions.LoadState(); err != nil {
		mainLogger.Warn().Err(err).Msg("Failed to load persisted session state")
	}

	orchLogger, err := lifecycle.CreateComponentLogger("orchestrator", logConfig)
	if err != nil {
		return err
	}

	orch := orchestrator.New(cfg.Orchestrator, reg, bus, sessions, factory, lifecycle.RealClock(), orchLogger)

	services := []lifecycle.Service{sessions, orch}

	if cfg.Events != nil && cfg.Events.Enabled {
		bridgeLogger, err := lifecycle.CreateComponentLogger("natsbridge", logConfig)
		if err != nil {
			return err
		}

		bridge, err := natsbridge.New(ctx, cfg.NATS, cfg.Events, bridgeLogger)
		if err != nil {
			return fmt.Errorf("failed to start event export bridge: %w", err)
		}

		bridge.Attach(bus)
		defer bridge.Detach(bus)

		services = append(services, bridge)
	}

	if cfg.ListenAddr != "" {
		apiLogger, err := lifecycle.CreateComponentLogger("api", logConfig)
		if err != nil {
			return err
		}

		stream := api.NewStreamServer(bus, apiLogger)
		services = append(services, api.NewServer(cfg.ListenAddr, orch, reg, stream, apiLogger))
	}

	mainLogger.Info().Str("config", configPath).Msg("Starting fleetd")

	return lifecycle.Run(ctx, mainLogger, services...)
}
