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
	"sync"
	"time"

	"github.com/printforge/fleetd/pkg/models"
)

// DiscoverPrinters broadcasts discovery across every supported host type in
// parallel and merges the results. Devices already present in the registry
// are suppressed; when such a device answered from a new address, the stored
// record's host is opportunistically refreshed. Only genuinely new
// candidates are returned.
func (o *Orchestrator) DiscoverPrinters(ctx context.Context) ([]*models.Candidate, error) {
	hostTypes := o.factory.SupportedHostTypes()

	var (
		mu    sync.Mutex
		found []*models.Candidate
		wg    sync.WaitGroup
	)

	for _, ht := range hostTypes {
		wg.Add(1)

		go func(ht models.HostType) {
			defer wg.Done()

			probe := o.factory.CreatePrinterNetwork(&models.PrinterRecord{HostType: ht})
			if probe == nil {
				return
			}

			defer probe.Disconnect()

			callCtx, cancel := context.WithTimeout(ctx, time.Duration(o.cfg.ConnectTimeout))
			defer cancel()

			candidates, err := probe.Discover(callCtx)
			if err != nil {
				o.logger.Debug().Err(err).Str("host_type", string(ht)).Msg("Discovery failed")
				return
			}

			mu.Lock()
			found = append(found, candidates...)
			mu.Unlock()
		}(ht)
	}

	wg.Wait()

	fresh := make([]*models.Candidate, 0, len(found))
	seen := make(map[string]struct{}, len(found))

	for _, cand := range found {
		if cand == nil {
			continue
		}

		if o.absorbKnown(cand) {
			continue
		}

		key := cand.SerialNumber + "|" + cand.MainboardID
		if _, dup := seen[key]; dup {
			continue
		}

		seen[key] = struct{}{}
		fresh = append(fresh, cand)
	}

	o.logger.Info().Int("found", len(found)).Int("new", len(fresh)).Msg("Discovery finished")

	return fresh, nil
}

// absorbKnown reports whether the candidate matches an existing record. A
// match refreshes the stored host when the device moved, and clears any
// parked status so reconciliation resumes for the rediscovered device.
func (o *Orchestrator) absorbKnown(cand *models.Candidate) bool {
	rec, ok := o.registry.FindByIdentity(models.NetworkLAN, cand.SerialNumber, cand.MainboardID)
	if !ok {
		if _, wan := o.registry.FindByIdentity(models.NetworkWAN, cand.SerialNumber, cand.MainboardID); wan {
			return true
		}

		return false
	}

	if cand.Host != "" && cand.Host != rec.Host {
		if err := o.registry.Update(rec.PrinterID, func(r *models.PrinterRecord) {
			r.Host = cand.Host

			// Rediscovering the device un-parks it; the next tick
			// re-verifies identity at the refreshed address.
			if r.PrinterStatus.Terminal() {
				r.PrinterStatus = models.PrinterStatusUnknown
			}
		}); err == nil {
			o.logger.Info().
				Str("printer_id", rec.PrinterID).
				Str("old_host", rec.Host).
				Str("new_host", cand.Host).
				Msg("Known printer answered from a new address")
		}

		return true
	}

	// Same address, so no persisted change, but a parked record that the
	// user re-discovered resumes reconciliation.
	if rec.PrinterStatus.Terminal() {
		o.registry.UpdateRuntime(rec.PrinterID, func(r *models.PrinterRecord) {
			r.PrinterStatus = models.PrinterStatusUnknown
		})
	}

	return true
}

// RefreshOnlinePrinters reconciles cached WAN records against the account's
// bound printer list: newly bound printers are inserted, records whose
// serial left the bound set are removed, and display names follow drift.
// Non-forced calls are rate-limited.
func (o *Orchestrator) RefreshOnlinePrinters(ctx context.Context, force bool) error {
	o.boundMu.Lock()

	now := o.clock.Now()
	if !force && now.Sub(o.lastBoundSync) < time.Duration(o.cfg.BoundSyncMinWait) {
		o.boundMu.Unlock()
		return nil
	}

	o.lastBoundSync = now
	o.boundMu.Unlock()

	bound, err := o.sessions.FetchBoundPrinters(ctx)
	if err != nil {
		return err
	}

	bySerial := make(map[string]*models.PrinterRecord, len(bound))
	for _, rec := range bound {
		if rec.SerialNumber != "" {
			bySerial[rec.SerialNumber] = rec
		}
	}

	for _, rec := range bound {
		o.adoptBound(rec)
	}

	// Prune cached WAN records the account no longer owns.
	for _, rec := range o.registry.List() {
		if rec.NetworkType != models.NetworkWAN {
			continue
		}

		if _, still := bySerial[rec.SerialNumber]; still {
			continue
		}

		unlock := o.locks.Lock(rec.PrinterID)
		o.teardown(rec.PrinterID, "unbound")
		o.registry.Delete(rec.PrinterID)
		o.locks.Evict(rec.PrinterID)
		unlock()

		o.logger.Info().Str("printer_id", rec.PrinterID).Str("serial_number", rec.SerialNumber).Msg("Bound printer removed")
	}

	return nil
}

func (o *Orchestrator) adoptBound(rec *models.PrinterRecord) {
	if rec.SerialNumber == "" {
		return
	}

	if existing, ok := o.registry.FindByIdentity(models.NetworkWAN, rec.SerialNumber, ""); ok {
		if rec.Name != "" && rec.Name != existing.Name {
			_ = o.registry.Update(existing.PrinterID, func(r *models.PrinterRecord) {
				r.Name = rec.Name
			})
		}

		return
	}

	fresh := rec.Clone()
	fresh.PrinterID = ""
	fresh.NetworkType = models.NetworkWAN

	if err := o.registry.Add(fresh); err != nil {
		o.logger.Warn().Err(err).Str("serial_number", rec.SerialNumber).Msg("Failed to cache bound printer")
		return
	}

	o.logger.Info().Str("printer_id", fresh.PrinterID).Str("serial_number", fresh.SerialNumber).Msg("Bound printer cached")
}
