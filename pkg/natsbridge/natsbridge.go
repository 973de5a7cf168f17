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

// Package natsbridge exports bus events as CloudEvents on NATS JetStream so
// out-of-process consumers (dashboards, automations) can follow the fleet
// without linking the core.
package natsbridge

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/printforge/fleetd/pkg/eventbus"
	"github.com/printforge/fleetd/pkg/logger"
	"github.com/printforge/fleetd/pkg/models"
)

const (
	eventSource = "fleetd/core"
	queueDepth  = 256
)

// Bridge forwards bus events to a JetStream stream. Bus handlers only
// enqueue; a single forwarding goroutine performs the network publishes so
// a slow broker never blocks the synchronous bus.
type Bridge struct {
	nc     *nats.Conn
	js     jetstream.JetStream
	cfg    models.EventsConfig
	queue  chan *models.Event
	subs   map[models.EventType]eventbus.SubscriptionID
	logger logger.Logger
}

// New connects to NATS and ensures the export stream exists.
func New(ctx context.Context, natsCfg *models.NATSConfig, eventsCfg *models.EventsConfig, log logger.Logger) (*Bridge, error) {
	if natsCfg == nil {
		return nil, fmt.Errorf("nats configuration is required")
	}

	nc, err := nats.Connect(natsCfg.URL, nats.Name("fleetd-events"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats: %w", err)
	}

	var js jetstream.JetStream

	if natsCfg.Domain != "" {
		js, err = jetstream.NewWithDomain(nc, natsCfg.Domain)
	} else {
		js, err = jetstream.New(nc)
	}

	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create jetstream context: %w", err)
	}

	cfg := *eventsCfg
	if err := cfg.Validate(); err != nil {
		nc.Close()
		return nil, err
	}

	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     cfg.StreamName,
		Subjects: []string{cfg.SubjectPrefix + ".>"},
	})
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to ensure events stream: %w", err)
	}

	return &Bridge{
		nc:     nc,
		js:     js,
		cfg:    cfg,
		queue:  make(chan *models.Event, queueDepth),
		logger: log,
	}, nil
}

// Attach subscribes the bridge to every bus event type.
func (b *Bridge) Attach(bus *eventbus.Bus) {
	b.subs = make(map[models.EventType]eventbus.SubscriptionID, 4)

	for _, t := range models.EventTypes() {
		b.subs[t] = bus.Connect(t, b.enqueue)
	}
}

// Detach removes the bridge's bus subscriptions.
func (b *Bridge) Detach(bus *eventbus.Bus) {
	for t, id := range b.subs {
		bus.Disconnect(t, id)
	}

	b.subs = nil
}

func (b *Bridge) enqueue(evt *models.Event) {
	select {
	case b.queue <- evt:
	default:
		b.logger.Warn().Str("event_type", string(evt.Type)).Msg("Event export queue full, dropping event")
	}
}

// Start implements lifecycle.Service: the forwarding loop.
func (b *Bridge) Start(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case evt, ok := <-b.queue:
			if !ok {
				return nil
			}

			if err := b.publish(ctx, evt); err != nil {
				b.logger.Error().Err(err).Str("event_type", string(evt.Type)).Msg("Failed to export event")
			}
		}
	}
}

// Stop implements lifecycle.Service.
func (b *Bridge) Stop(_ context.Context) error {
	b.nc.Close()
	return nil
}

func (b *Bridge) publish(ctx context.Context, evt *models.Event) error {
	ts := evt.Timestamp

	cloudEvent := models.CloudEvent{
		SpecVersion:     "1.0",
		ID:              uuid.New().String(),
		Source:          eventSource,
		Type:            fmt.Sprintf("com.printforge.fleetd.printer.%s", evt.Type),
		DataContentType: "application/json",
		Subject:         fmt.Sprintf("%s.%s", b.cfg.SubjectPrefix, evt.Type),
		Time:            &ts,
		Data:            evt,
	}

	payload, err := json.Marshal(cloudEvent)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if _, err := b.js.Publish(ctx, cloudEvent.Subject, payload); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}
