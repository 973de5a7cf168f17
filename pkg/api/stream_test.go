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

package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/printforge/fleetd/pkg/eventbus"
	"github.com/printforge/fleetd/pkg/logger"
	"github.com/printforge/fleetd/pkg/models"
)

func dialStream(t *testing.T, bus *eventbus.Bus, query string) *websocket.Conn {
	t.Helper()

	log := logger.NewTestLogger()
	stream := NewStreamServer(bus, log)

	ts := httptest.NewServer(http.HandlerFunc(stream.HandleEvents))
	t.Cleanup(ts.Close)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + query

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return conn
}

func TestStreamDeliversEvents(t *testing.T) {
	bus := eventbus.New(logger.NewTestLogger())
	conn := dialStream(t, bus, "")

	// The subscription races the dial returning; publish until a frame
	// arrives.
	done := make(chan struct{})
	defer close(done)

	go func() {
		ticker := time.NewTicker(10 * time.Millisecond)
		defer ticker.Stop()

		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				bus.Publish(&models.Event{
					Type:          models.EventConnectStatus,
					PrinterID:     "p1",
					Timestamp:     time.Now(),
					ConnectStatus: models.ConnectConnected,
				})
			}
		}
	}()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	var msg StreamMessage
	require.NoError(t, conn.ReadJSON(&msg))

	assert.Equal(t, "event", msg.Type)
	require.NotNil(t, msg.Event)
	assert.Equal(t, "p1", msg.Event.PrinterID)
	assert.Equal(t, models.ConnectConnected, msg.Event.ConnectStatus)
}

func TestStreamFiltersByType(t *testing.T) {
	bus := eventbus.New(logger.NewTestLogger())
	conn := dialStream(t, bus, "?types=device_status")

	done := make(chan struct{})
	defer close(done)

	go func() {
		ticker := time.NewTicker(10 * time.Millisecond)
		defer ticker.Stop()

		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				// Filtered-out type first; it must never surface.
				bus.Publish(&models.Event{Type: models.EventConnectStatus, PrinterID: "noise"})
				bus.Publish(&models.Event{Type: models.EventDeviceStatus, PrinterID: "p1", PrinterStatus: models.PrinterStatusIdle})
			}
		}
	}()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	var msg StreamMessage
	require.NoError(t, conn.ReadJSON(&msg))

	require.NotNil(t, msg.Event)
	assert.Equal(t, models.EventDeviceStatus, msg.Event.Type)
	assert.Equal(t, "p1", msg.Event.PrinterID)
}

func TestStreamRejectsUnknownType(t *testing.T) {
	bus := eventbus.New(logger.NewTestLogger())
	log := logger.NewTestLogger()
	stream := NewStreamServer(bus, log)

	ts := httptest.NewServer(http.HandlerFunc(stream.HandleEvents))
	defer ts.Close()

	resp, err := http.Get(ts.URL + "?types=bogus")
	require.NoError(t, err)

	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
