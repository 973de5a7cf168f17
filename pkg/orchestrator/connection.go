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

package orchestrator

import (
	"time"

	"github.com/printforge/fleetd/pkg/backend"
	"github.com/printforge/fleetd/pkg/models"
)

const pumpDrainTimeout = 2 * time.Second

// connection is one live backend handle, tagged with the host it was dialed
// against. Owned exclusively by the orchestrator's connection table.
type connection struct {
	printerID   string
	networkType models.NetworkType
	host        string
	backend     backend.Backend
	pumpDone    chan struct{}
}

// register installs the connection and starts its event pump. The per-record
// keyed lock guarantees no previous connection exists for the id.
func (o *Orchestrator) register(rec *models.PrinterRecord, b backend.Backend) {
	conn := &connection{
		printerID:   rec.PrinterID,
		networkType: rec.NetworkType,
		host:        rec.Host,
		backend:     b,
		pumpDone:    make(chan struct{}),
	}

	o.connMu.Lock()
	o.conns[rec.PrinterID] = conn
	o.connMu.Unlock()

	go o.pump(conn)
}

// pump forwards the backend's push events onto the bus until the backend
// closes its channel on Disconnect.
func (o *Orchestrator) pump(conn *connection) {
	defer close(conn.pumpDone)

	events := conn.backend.Events()
	if events == nil {
		return
	}

	for evt := range events {
		evt.PrinterID = conn.printerID
		evt.NetworkType = conn.networkType

		if evt.Timestamp.IsZero() {
			evt.Timestamp = o.clock.Now()
		}

		o.bus.Publish(&evt)
	}
}

func (o *Orchestrator) lookup(printerID string) *connection {
	o.connMu.Lock()
	defer o.connMu.Unlock()

	return o.conns[printerID]
}

// ConnectionCount reports the size of the live connection table.
func (o *Orchestrator) ConnectionCount() int {
	o.connMu.Lock()
	defer o.connMu.Unlock()

	return len(o.conns)
}

// Backend exposes the live backend for a printer so callers can issue
// device operations (send file, start task) on established connections.
func (o *Orchestrator) Backend(printerID string) (backend.Backend, bool) {
	o.connMu.Lock()
	defer o.connMu.Unlock()

	conn, ok := o.conns[printerID]
	if !ok {
		return nil, false
	}

	return conn.backend, true
}

// teardown removes the connection from the table and disconnects its
// backend. Safe to call when no connection exists.
func (o *Orchestrator) teardown(printerID, reason string) {
	o.connMu.Lock()
	conn, ok := o.conns[printerID]

	if ok {
		delete(o.conns, printerID)
	}
	o.connMu.Unlock()

	if !ok {
		return
	}

	conn.backend.Disconnect()

	select {
	case <-conn.pumpDone:
	case <-time.After(pumpDrainTimeout):
		o.logger.Warn().Str("printer_id", printerID).Msg("Event pump did not drain after disconnect")
	}

	o.logger.Debug().Str("printer_id", printerID).Str("reason", reason).Msg("Connection torn down")
}
