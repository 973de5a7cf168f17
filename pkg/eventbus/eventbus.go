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

// Package eventbus is the in-process typed publish/subscribe channel set for
// printer events. Publish is synchronous: handlers run on the publisher's
// goroutine, in registration order, and a panicking handler never takes down
// the publisher or its siblings.
package eventbus

import (
	"sync"

	"github.com/printforge/fleetd/pkg/logger"
	"github.com/printforge/fleetd/pkg/models"
)

// Handler consumes one event. The event is shared between handlers; treat it
// as read-only.
type Handler func(evt *models.Event)

// SubscriptionID identifies one registered handler for later removal.
type SubscriptionID uint64

// Subscriber is the outward-facing surface handed to layers that may listen
// but never publish (the GUI bridge).
type Subscriber interface {
	Connect(t models.EventType, h Handler) SubscriptionID
	Disconnect(t models.EventType, id SubscriptionID)
}

type registration struct {
	id      SubscriptionID
	handler Handler
}

// Bus fans events out to per-type handler lists.
type Bus struct {
	mu       sync.RWMutex
	handlers map[models.EventType][]registration
	nextID   SubscriptionID
	logger   logger.Logger
}

// New creates an empty bus.
func New(log logger.Logger) *Bus {
	return &Bus{
		handlers: make(map[models.EventType][]registration),
		logger:   log,
	}
}

// Connect registers a handler for one event type and returns its id.
func (b *Bus) Connect(t models.EventType, h Handler) SubscriptionID {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	b.handlers[t] = append(b.handlers[t], registration{id: b.nextID, handler: h})

	return b.nextID
}

// Disconnect removes one handler by id. Unknown ids are ignored.
func (b *Bus) Disconnect(t models.EventType, id SubscriptionID) {
	b.mu.Lock()
	defer b.mu.Unlock()

	regs := b.handlers[t]
	for i, reg := range regs {
		if reg.id == id {
			b.handlers[t] = append(regs[:i:i], regs[i+1:]...)
			return
		}
	}
}

// DisconnectAll removes every handler for the given event type.
func (b *Bus) DisconnectAll(t models.EventType) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.handlers, t)
}

// Publish delivers the event to all handlers registered for its type, in
// registration order, on the calling goroutine.
func (b *Bus) Publish(evt *models.Event) {
	b.mu.RLock()
	regs := make([]registration, len(b.handlers[evt.Type]))
	copy(regs, b.handlers[evt.Type])
	b.mu.RUnlock()

	for _, reg := range regs {
		b.deliver(reg, evt)
	}
}

func (b *Bus) deliver(reg registration, evt *models.Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error().
				Interface("panic", r).
				Str("event_type", string(evt.Type)).
				Str("printer_id", evt.PrinterID).
				Msg("Event handler panicked")
		}
	}()

	reg.handler(evt)
}
