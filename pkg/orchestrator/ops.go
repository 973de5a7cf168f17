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
	"context"

	"github.com/printforge/fleetd/pkg/fleeterr"
	"github.com/printforge/fleetd/pkg/models"
	"github.com/printforge/fleetd/pkg/registry"
)

// AddPrinter registers a new printer. LAN records are connected and
// identity-verified synchronously before insertion; WAN records go through
// the account bind flow and a forced bound-list re-sync. The returned record
// carries the assigned printer id.
func (o *Orchestrator) AddPrinter(ctx context.Context, rec *models.PrinterRecord) (*models.PrinterRecord, error) {
	if rec == nil {
		return nil, fleeterr.New(fleeterr.KindInvalidResponse, "nil record")
	}

	added, wan, err := o.addLocked(ctx, rec.Clone())
	if err != nil {
		return nil, err
	}

	// The re-sync happens after the keyed lock is released: it takes
	// other records' locks while pruning stale WAN entries.
	if wan {
		if err := o.RefreshOnlinePrinters(ctx, true); err != nil {
			o.logger.Warn().Err(err).Msg("Bound printer re-sync after bind failed")
		}
	}

	return added, nil
}

func (o *Orchestrator) addLocked(ctx context.Context, rec *models.PrinterRecord) (*models.PrinterRecord, bool, error) {
	if rec.PrinterID == "" {
		rec.PrinterID = models.NewPrinterID()
	}

	unlock := o.locks.Lock(rec.PrinterID)
	defer unlock()

	if _, ok := o.registry.Get(rec.PrinterID); ok {
		return nil, false, fleeterr.New(fleeterr.KindAlreadyExists, "printer %s already registered", rec.PrinterID)
	}

	if dup, ok := o.registry.FindByIdentity(rec.NetworkType, rec.SerialNumber, rec.MainboardID); ok {
		return nil, false, fleeterr.New(fleeterr.KindAlreadyExists, "device already registered as %s", dup.PrinterID)
	}

	if rec.NetworkType == models.NetworkWAN {
		if err := o.sessions.Bind(ctx, rec); err != nil {
			return nil, false, err
		}

		if err := o.registry.Add(rec); err != nil {
			return nil, false, err
		}

		return rec.Clone(), true, nil
	}

	if rec.Host == "" {
		return nil, false, fleeterr.New(fleeterr.KindInvalidResponse, "lan printer requires a host")
	}

	if dup, ok := o.registry.FindByHost(rec.Host); ok {
		return nil, false, fleeterr.New(fleeterr.KindAlreadyExists, "host %s already used by printer %s", rec.Host, dup.PrinterID)
	}

	b, attrs, err := o.dial(ctx, rec)
	if err != nil {
		return nil, false, err
	}

	registry.ApplyAttributes(rec, attrs)
	rec.ConnectStatus = models.ConnectConnected

	if err := o.registry.Add(rec); err != nil {
		b.Disconnect()
		return nil, false, err
	}

	o.register(rec, b)
	o.publishAttributes(rec, attrs)
	o.bus.Publish(&models.Event{
		Type:          models.EventConnectStatus,
		PrinterID:     rec.PrinterID,
		NetworkType:   rec.NetworkType,
		Timestamp:     o.clock.Now(),
		ConnectStatus: models.ConnectConnected,
	})

	o.logger.Info().Str("printer_id", rec.PrinterID).Str("host", rec.Host).Msg("Printer added")

	return rec.Clone(), false, nil
}

// UpdatePrinterHost repoints a printer at a new address. The host change is
// committed only after the device at the new address passes identity
// verification; on any failure the stored record is left unchanged, so a
// logical printer id can never silently drift onto unrelated hardware.
func (o *Orchestrator) UpdatePrinterHost(ctx context.Context, printerID, newHost string) error {
	if newHost == "" {
		return fleeterr.New(fleeterr.KindInvalidResponse, "empty host")
	}

	unlock := o.locks.Lock(printerID)
	defer unlock()

	rec, ok := o.registry.Get(printerID)
	if !ok {
		return fleeterr.New(fleeterr.KindNotFound, "printer %s not found", printerID)
	}

	if rec.NetworkType != models.NetworkLAN {
		return fleeterr.New(fleeterr.KindInvalidResponse, "host of a cloud printer cannot be changed")
	}

	o.teardown(printerID, "host change")
	o.setConnectStatus(rec, models.ConnectDisconnected)

	trial := rec.Clone()
	trial.Host = newHost

	b, attrs, err := o.dial(ctx, trial)
	if err != nil {
		// Old host stays in place; next tick reconnects to it.
		return err
	}

	if _, ok := o.registry.Get(printerID); !ok {
		b.Disconnect()
		return fleeterr.New(fleeterr.KindNotFound, "printer %s deleted during host change", printerID)
	}

	// Host and verified identity are committed in one registry update so
	// no concurrent Get can observe the new host with stale identity. A
	// parked status is cleared here: identity was just re-verified at the
	// address the user supplied, so reconciliation may resume.
	if err := o.registry.Update(printerID, func(r *models.PrinterRecord) {
		r.Host = newHost
		registry.ApplyAttributes(r, attrs)

		if r.PrinterStatus.Terminal() {
			r.PrinterStatus = models.PrinterStatusUnknown
		}
	}); err != nil {
		b.Disconnect()
		return err
	}

	trial.PrinterID = printerID
	o.register(trial, b)
	o.setConnectStatus(trial, models.ConnectConnected)
	o.publishAttributes(trial, attrs)

	o.logger.Info().Str("printer_id", printerID).Str("host", newHost).Msg("Printer host updated")

	return nil
}

// DeletePrinter removes a printer. WAN records are unbound from the account
// first; an unbind failure is reported but never blocks local removal.
func (o *Orchestrator) DeletePrinter(ctx context.Context, printerID string) error {
	unlock := o.locks.Lock(printerID)
	defer unlock()

	rec, ok := o.registry.Get(printerID)
	if !ok {
		return fleeterr.New(fleeterr.KindNotFound, "printer %s not found", printerID)
	}

	var unbindErr error

	if rec.NetworkType == models.NetworkWAN {
		if unbindErr = o.sessions.Unbind(ctx, rec); unbindErr != nil {
			o.logger.Warn().Err(unbindErr).Str("printer_id", printerID).Msg("Unbind failed, removing locally anyway")
		}
	}

	o.teardown(printerID, "deleted")
	o.registry.Delete(printerID)
	o.clearFailures(printerID)
	o.locks.Evict(printerID)

	o.bus.Publish(&models.Event{
		Type:          models.EventConnectStatus,
		PrinterID:     printerID,
		NetworkType:   rec.NetworkType,
		Timestamp:     o.clock.Now(),
		ConnectStatus: models.ConnectDisconnected,
	})

	o.logger.Info().Str("printer_id", printerID).Msg("Printer deleted")

	return unbindErr
}
