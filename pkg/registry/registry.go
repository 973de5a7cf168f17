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

// Package registry is the persisted store of known printers, the source of
// truth the reconciliation loop works against.
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/printforge/fleetd/pkg/eventbus"
	"github.com/printforge/fleetd/pkg/fleeterr"
	"github.com/printforge/fleetd/pkg/logger"
	"github.com/printforge/fleetd/pkg/models"
)

const defaultFlushDelay = time.Second

// Config configures the registry store.
type Config struct {
	// Path of the persisted JSON file. Empty disables persistence
	// (in-memory registry, used by tests).
	Path string `json:"path"`

	// FlushDelay is the debounce window between a mutation and the
	// background persist it schedules.
	FlushDelay models.Duration `json:"flush_delay,omitempty"`
}

// Registry is a thread-safe map of PrinterRecord keyed by printer id.
//
// Lookups hand out deep copies. All mutation goes through Add/Update/Delete
// under the registry lock; no caller holds a live reference into the map.
// Every mutation schedules a debounced persist; Persist is synchronous and
// may be called to bound data loss after a batch.
type Registry struct {
	mu      sync.RWMutex
	records map[string]*models.PrinterRecord

	path       string
	flushDelay time.Duration
	persistMu  sync.Mutex

	timerMu sync.Mutex
	timer   *time.Timer

	logger logger.Logger
	now    func() time.Time

	subs map[models.EventType]eventbus.SubscriptionID
}

// New creates a registry. Call Load to pull previously persisted records.
func New(cfg Config, log logger.Logger) *Registry {
	flush := time.Duration(cfg.FlushDelay)
	if flush <= 0 {
		flush = defaultFlushDelay
	}

	return &Registry{
		records:    make(map[string]*models.PrinterRecord),
		path:       cfg.Path,
		flushDelay: flush,
		logger:     log,
		now:        time.Now,
	}
}

// Get returns a copy of the record, or false if absent. Never touches disk.
func (r *Registry) Get(printerID string) (*models.PrinterRecord, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[printerID]
	if !ok {
		return nil, false
	}

	return rec.Clone(), true
}

// List returns a snapshot copy of every record.
func (r *Registry) List() []*models.PrinterRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*models.PrinterRecord, 0, len(r.records))
	for _, rec := range r.records {
		out = append(out, rec.Clone())
	}

	return out
}

// FindByIdentity returns the record of the given network type whose serial
// number or mainboard id matches one of the non-empty arguments.
func (r *Registry) FindByIdentity(nt models.NetworkType, serialNumber, mainboardID string) (*models.PrinterRecord, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec := r.findByIdentityLocked(nt, serialNumber, mainboardID)
	if rec == nil {
		return nil, false
	}

	return rec.Clone(), true
}

func (r *Registry) findByIdentityLocked(nt models.NetworkType, serialNumber, mainboardID string) *models.PrinterRecord {
	for _, rec := range r.records {
		if rec.NetworkType != nt {
			continue
		}

		if serialNumber != "" && rec.SerialNumber == serialNumber {
			return rec
		}

		if mainboardID != "" && rec.MainboardID == mainboardID {
			return rec
		}
	}

	return nil
}

// FindByHost returns the LAN record currently pointing at the given host.
func (r *Registry) FindByHost(host string) (*models.PrinterRecord, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, rec := range r.records {
		if rec.NetworkType == models.NetworkLAN && rec.Host == host {
			return rec.Clone(), true
		}
	}

	return nil, false
}

// Add inserts a new record. The printer id is assigned here when empty; it
// is never taken from the remote device. Fails with AlreadyExists when the
// id or the per-network identity uniqueness invariant would be violated.
func (r *Registry) Add(rec *models.PrinterRecord) error {
	if rec == nil {
		return fleeterr.New(fleeterr.KindInvalidResponse, "nil record")
	}

	r.mu.Lock()

	if rec.PrinterID == "" {
		rec.PrinterID = models.NewPrinterID()
	}

	if _, ok := r.records[rec.PrinterID]; ok {
		r.mu.Unlock()
		return fleeterr.New(fleeterr.KindAlreadyExists, "printer %s already registered", rec.PrinterID)
	}

	if dup := r.findByIdentityLocked(rec.NetworkType, rec.SerialNumber, rec.MainboardID); dup != nil {
		r.mu.Unlock()
		return fleeterr.New(fleeterr.KindAlreadyExists,
			"printer with serial %q or mainboard %q already registered as %s",
			rec.SerialNumber, rec.MainboardID, dup.PrinterID)
	}

	now := r.now().Unix()
	rec.AddTime = now
	rec.ModifyTime = now
	rec.LastActiveTime = now

	r.records[rec.PrinterID] = rec.Clone()
	r.mu.Unlock()

	r.schedulePersist()

	return nil
}

// Update applies the mutator to the stored record under the registry lock
// and stamps modifyTime. Identity fields changed by the mutator are not
// validated here; callers own that invariant.
func (r *Registry) Update(printerID string, mutate func(rec *models.PrinterRecord)) error {
	r.mu.Lock()

	rec, ok := r.records[printerID]
	if !ok {
		r.mu.Unlock()
		return fleeterr.New(fleeterr.KindNotFound, "printer %s not found", printerID)
	}

	mutate(rec)
	rec.ModifyTime = r.now().Unix()
	r.mu.Unlock()

	r.schedulePersist()

	return nil
}

// Touch stamps lastActiveTime without bumping modifyTime.
func (r *Registry) Touch(printerID string) {
	r.mu.Lock()
	if rec, ok := r.records[printerID]; ok {
		rec.LastActiveTime = r.now().Unix()
	}
	r.mu.Unlock()
}

// Delete removes the record, reporting whether it was present.
func (r *Registry) Delete(printerID string) bool {
	r.mu.Lock()

	_, ok := r.records[printerID]
	if ok {
		delete(r.records, printerID)
	}
	r.mu.Unlock()

	if ok {
		r.schedulePersist()
	}

	return ok
}

// Persist synchronously writes the registry to disk. WAN records are
// excluded: they are reconstructed each run from the account's bound
// printer list. Runtime-only fields are stripped by their json tags.
func (r *Registry) Persist() error {
	if r.path == "" {
		return nil
	}

	r.mu.RLock()
	out := make(map[string]*models.PrinterRecord, len(r.records))

	for id, rec := range r.records {
		if rec.NetworkType == models.NetworkWAN {
			continue
		}

		out[id] = rec.Clone()
	}
	r.mu.RUnlock()

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal registry: %w", err)
	}

	r.persistMu.Lock()
	defer r.persistMu.Unlock()

	tmp := r.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(r.path), 0o750); err != nil {
		return fmt.Errorf("failed to create registry directory: %w", err)
	}

	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write registry file: %w", err)
	}

	if err := os.Rename(tmp, r.path); err != nil {
		return fmt.Errorf("failed to replace registry file: %w", err)
	}

	return nil
}

// Load reads the persisted file. A missing or corrupt file is non-fatal:
// the registry starts empty and the condition is logged.
func (r *Registry) Load() error {
	if r.path == "" {
		return nil
	}

	data, err := os.ReadFile(r.path)
	if err != nil {
		if !os.IsNotExist(err) {
			r.logger.Warn().Err(err).Str("path", r.path).Msg("Failed to read registry file, starting empty")
		}

		return nil
	}

	var loaded map[string]*models.PrinterRecord
	if err := json.Unmarshal(data, &loaded); err != nil {
		r.logger.Warn().Err(err).Str("path", r.path).Msg("Corrupt registry file, starting empty")
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for id, rec := range loaded {
		if rec == nil || id == "" {
			continue
		}

		// WAN entries should never be present; drop any that are.
		if rec.NetworkType == models.NetworkWAN {
			continue
		}

		rec.PrinterID = id
		rec.ConnectStatus = models.ConnectUnknown
		rec.PrinterStatus = models.PrinterStatusUnknown
		rec.PrintTask = nil

		r.records[id] = rec
	}

	r.logger.Info().Int("printers", len(r.records)).Str("path", r.path).Msg("Registry loaded")

	return nil
}

// Close flushes any pending scheduled persist.
func (r *Registry) Close() error {
	r.timerMu.Lock()
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
	r.timerMu.Unlock()

	return r.Persist()
}

func (r *Registry) schedulePersist() {
	if r.path == "" {
		return
	}

	r.timerMu.Lock()
	defer r.timerMu.Unlock()

	if r.timer != nil {
		r.timer.Reset(r.flushDelay)
		return
	}

	r.timer = time.AfterFunc(r.flushDelay, func() {
		if err := r.Persist(); err != nil {
			r.logger.Error().Err(err).Msg("Scheduled registry persist failed")
		}
	})
}
