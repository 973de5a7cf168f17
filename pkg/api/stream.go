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

// Package api exposes the local GUI surface: a WebSocket stream of printer
// events filtered by event type.
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/printforge/fleetd/pkg/eventbus"
	"github.com/printforge/fleetd/pkg/logger"
	"github.com/printforge/fleetd/pkg/models"
)

const (
	writeTimeout    = 10 * time.Second
	keepalivePeriod = 30 * time.Second
	clientQueueSize = 64
)

// StreamMessage is one frame on the event stream.
type StreamMessage struct {
	Type      string        `json:"type"` // "event", "keepalive" or "error"
	Event     *models.Event `json:"event,omitempty"`
	Error     string        `json:"error,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

// StreamServer upgrades GUI connections to WebSocket and fans bus events out
// to them. Bus handlers only enqueue onto a per-client buffered channel; a
// client that stops reading loses events rather than stalling the bus.
type StreamServer struct {
	bus    eventbus.Subscriber
	logger logger.Logger

	upgrader websocket.Upgrader
}

// NewStreamServer creates a stream server over the given bus.
func NewStreamServer(bus eventbus.Subscriber, log logger.Logger) *StreamServer {
	return &StreamServer{
		bus:    bus,
		logger: log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// Local GUI surface only; the listener binds to loopback.
			CheckOrigin: func(_ *http.Request) bool { return true },
		},
	}
}

// HandleEvents serves GET /api/events. The optional ?types= query parameter
// is a comma-separated list of event types; absent means all four.
func (s *StreamServer) HandleEvents(w http.ResponseWriter, r *http.Request) {
	types, err := parseTypes(r.URL.Query().Get("types"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	s.serveClient(conn, types)
}

func parseTypes(raw string) ([]models.EventType, error) {
	if raw == "" {
		return models.EventTypes(), nil
	}

	known := make(map[models.EventType]struct{}, 4)
	for _, t := range models.EventTypes() {
		known[t] = struct{}{}
	}

	var types []models.EventType

	for _, part := range strings.Split(raw, ",") {
		t := models.EventType(strings.TrimSpace(part))
		if _, ok := known[t]; !ok {
			return nil, &unknownTypeError{raw: string(t)}
		}

		types = append(types, t)
	}

	return types, nil
}

type unknownTypeError struct{ raw string }

func (e *unknownTypeError) Error() string {
	return "unknown event type: " + e.raw
}

func (s *StreamServer) serveClient(conn *websocket.Conn, types []models.EventType) {
	defer func() {
		if err := conn.Close(); err != nil {
			s.logger.Debug().Err(err).Msg("Error closing stream connection")
		}
	}()

	out := make(chan *StreamMessage, clientQueueSize)
	subs := make(map[models.EventType]eventbus.SubscriptionID, len(types))

	for _, t := range types {
		subs[t] = s.bus.Connect(t, func(evt *models.Event) {
			msg := &StreamMessage{Type: "event", Event: evt, Timestamp: evt.Timestamp}
			select {
			case out <- msg:
			default:
				s.logger.Warn().Str("event_type", string(evt.Type)).Msg("Slow stream client, dropping event")
			}
		})
	}

	defer func() {
		for t, id := range subs {
			s.bus.Disconnect(t, id)
		}
	}()

	// Reader goroutine: the client never sends application frames, but
	// reading is what surfaces close frames and connection loss.
	done := make(chan struct{})

	go func() {
		defer close(done)

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	keepalive := time.NewTicker(keepalivePeriod)
	defer keepalive.Stop()

	for {
		select {
		case <-done:
			return
		case msg := <-out:
			if err := s.writeMessage(conn, msg); err != nil {
				s.logger.Debug().Err(err).Msg("Stream write failed")
				return
			}
		case now := <-keepalive.C:
			if err := s.writeMessage(conn, &StreamMessage{Type: "keepalive", Timestamp: now}); err != nil {
				return
			}
		}
	}
}

func (s *StreamServer) writeMessage(conn *websocket.Conn, msg *StreamMessage) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}

	return conn.WriteJSON(msg)
}
