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

// Package orchestrator reconciles the registry's desired state ("printer is
// known") against observed state ("printer is reachable and its identity
// verified"), owning every live backend connection in the process.
package orchestrator

import (
	"context"
	"sync"
	"time"

	"github.com/printforge/fleetd/pkg/backend"
	"github.com/printforge/fleetd/pkg/eventbus"
	"github.com/printforge/fleetd/pkg/fleeterr"
	"github.com/printforge/fleetd/pkg/keymutex"
	"github.com/printforge/fleetd/pkg/lifecycle"
	"github.com/printforge/fleetd/pkg/logger"
	"github.com/printforge/fleetd/pkg/models"
	"github.com/printforge/fleetd/pkg/registry"
)

const (
	defaultTickInterval     = 3 * time.Second
	defaultConnectTimeout   = 5 * time.Second
	defaultMaxConcurrent    = 8
	defaultBoundSyncMinWait = 5 * time.Second
	defaultOfflineThreshold = 10
)

// Config configures the reconciliation loop.
type Config struct {
	// TickInterval is the reconciliation period.
	TickInterval models.Duration `json:"tick_interval,omitempty"`

	// ConnectTimeout bounds each connect/getAttributes call so one
	// unresponsive device cannot stall a tick indefinitely.
	ConnectTimeout models.Duration `json:"connect_timeout,omitempty"`

	// MaxConcurrent bounds per-record fan-out within a tick.
	MaxConcurrent int `json:"max_concurrent,omitempty"`

	// BoundSyncMinWait rate-limits non-forced bound printer re-syncs.
	BoundSyncMinWait models.Duration `json:"bound_sync_min_wait,omitempty"`

	// OfflineThreshold is the number of consecutive failed reconcile
	// attempts after which a record is surfaced as offline. Zero keeps
	// the default; negative disables the promotion.
	OfflineThreshold int `json:"offline_threshold,omitempty"`
}

// Validate fills defaults.
func (c *Config) Validate() error {
	if c.TickInterval <= 0 {
		c.TickInterval = models.Duration(defaultTickInterval)
	}

	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = models.Duration(defaultConnectTimeout)
	}

	if c.MaxConcurrent <= 0 {
		c.MaxConcurrent = defaultMaxConcurrent
	}

	if c.BoundSyncMinWait <= 0 {
		c.BoundSyncMinWait = models.Duration(defaultBoundSyncMinWait)
	}

	if c.OfflineThreshold == 0 {
		c.OfflineThreshold = defaultOfflineThreshold
	}

	return nil
}

// SessionManager is the slice of the account layer the orchestrator needs.
type SessionManager interface {
	LoginStatus() models.LoginStatus
	Bind(ctx context.Context, rec *models.PrinterRecord) error
	Unbind(ctx context.Context, rec *models.PrinterRecord) error
	FetchBoundPrinters(ctx context.Context) ([]*models.PrinterRecord, error)
}

// Orchestrator runs the reconciliation loop and owns the connection table.
type Orchestrator struct {
	cfg      Config
	registry *registry.Registry
	bus      *eventbus.Bus
	sessions SessionManager
	factory  backend.Factory
	locks    *keymutex.Map
	clock    lifecycle.Clock
	logger   logger.Logger

	// connMu guards conns only; it is disjoint from the registry lock so
	// slow teardown never blocks I/O-free registry reads.
	connMu sync.Mutex
	conns  map[string]*connection

	failMu   sync.Mutex
	failures map[string]int

	boundMu       sync.Mutex
	lastBoundSync time.Time

	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// New creates an orchestrator. A nil clock selects the wall clock.
func New(cfg Config, reg *registry.Registry, bus *eventbus.Bus, sessions SessionManager,
	factory backend.Factory, clock lifecycle.Clock, log logger.Logger) *Orchestrator {
	_ = cfg.Validate()

	if clock == nil {
		clock = lifecycle.RealClock()
	}

	return &Orchestrator{
		cfg:      cfg,
		registry: reg,
		bus:      bus,
		sessions: sessions,
		factory:  factory,
		locks:    keymutex.New(),
		clock:    clock,
		logger:   log,
		conns:    make(map[string]*connection),
		failures: make(map[string]int),
		done:     make(chan struct{}),
	}
}

// Start implements lifecycle.Service: the reconciliation loop.
func (o *Orchestrator) Start(ctx context.Context) error {
	interval := time.Duration(o.cfg.TickInterval)
	ticker := o.clock.Ticker(interval)

	defer ticker.Stop()

	o.logger.Info().Dur("interval", interval).Msg("Starting reconciliation loop")

	o.wg.Add(1)
	defer o.wg.Done()

	o.Tick(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-o.done:
			return nil
		case <-ticker.Chan():
			o.Tick(ctx)
		}
	}
}

// Stop implements lifecycle.Service: stops the loop and tears down every
// live connection.
func (o *Orchestrator) Stop(_ context.Context) error {
	o.closeOnce.Do(func() { close(o.done) })
	o.wg.Wait()

	o.connMu.Lock()
	ids := make([]string, 0, len(o.conns))

	for id := range o.conns {
		ids = append(ids, id)
	}
	o.connMu.Unlock()

	for _, id := range ids {
		o.teardown(id, "shutdown")
	}

	return nil
}

// Tick runs one reconciliation pass: fan-out over a bounded worker pool,
// wait-all, then the stale-connection sweep. Exported so tests (and the
// public API after mutations) can drive reconciliation deterministically.
func (o *Orchestrator) Tick(ctx context.Context) {
	records := o.registry.List()

	sem := make(chan struct{}, o.cfg.MaxConcurrent)

	var wg sync.WaitGroup

	for _, rec := range records {
		wg.Add(1)
		sem <- struct{}{}

		go func(printerID string) {
			defer wg.Done()
			defer func() { <-sem }()

			o.reconcile(ctx, printerID)
		}(rec.PrinterID)
	}

	wg.Wait()

	o.sweepStale()

	if o.sessions != nil && o.sessions.LoginStatus() == models.LoginStatusSuccess {
		if err := o.RefreshOnlinePrinters(ctx, false); err != nil {
			o.logger.Debug().Err(err).Msg("Bound printer re-sync failed")
		}
	}
}

// reconcile brings a single record's connection into agreement with the
// registry, serialized against the public API by the record's keyed lock.
func (o *Orchestrator) reconcile(ctx context.Context, printerID string) {
	unlock := o.locks.Lock(printerID)
	defer unlock()

	rec, ok := o.registry.Get(printerID)
	if !ok {
		// Deleted concurrently; drop any connection it left behind and
		// the lock entry, which would otherwise outlive the record.
		o.teardown(printerID, "record deleted")
		o.locks.Evict(printerID)

		return
	}

	if rec.PrinterStatus.Terminal() {
		o.teardown(printerID, "terminal status")
		o.clearFailures(printerID)

		return
	}

	if rec.NetworkType == models.NetworkWAN && o.sessions.LoginStatus() != models.LoginStatusSuccess {
		o.teardown(printerID, "account offline")
		o.setConnectStatus(rec, models.ConnectDisconnected)

		return
	}

	conn := o.lookup(printerID)
	if conn != nil && conn.host == rec.Host && rec.ConnectStatus == models.ConnectConnected {
		o.clearFailures(printerID)
		return
	}

	if conn != nil {
		o.teardown(printerID, "stale connection")
	}

	if err := o.establish(ctx, rec); err != nil {
		o.noteFailure(rec, err)
		return
	}

	o.clearFailures(printerID)
}

// establish dials the record's current host, verifies identity, adopts the
// learned attributes and registers the live connection.
func (o *Orchestrator) establish(ctx context.Context, rec *models.PrinterRecord) error {
	b, attrs, err := o.dial(ctx, rec)
	if err != nil {
		return err
	}

	// The blocking connect may have raced a delete; discard the result
	// rather than resurrecting a removed record.
	if _, ok := o.registry.Get(rec.PrinterID); !ok {
		b.Disconnect()
		return fleeterr.New(fleeterr.KindNotFound, "printer %s deleted during connect", rec.PrinterID)
	}

	if err := o.registry.Update(rec.PrinterID, func(r *models.PrinterRecord) {
		registry.ApplyAttributes(r, attrs)
	}); err != nil {
		b.Disconnect()
		return err
	}

	o.register(rec, b)
	o.setConnectStatus(rec, models.ConnectConnected)
	o.publishAttributes(rec, attrs)

	return nil
}

// dial creates a backend for the record, connects and fetches attributes.
// It performs no registry writes; on any error the backend is torn down.
func (o *Orchestrator) dial(ctx context.Context, rec *models.PrinterRecord) (backend.Backend, *models.Attributes, error) {
	b := o.factory.CreatePrinterNetwork(rec)
	if b == nil {
		return nil, nil, fleeterr.New(fleeterr.KindUnsupportedHostType, "unsupported host type %q", rec.HostType)
	}

	timeout := time.Duration(o.cfg.ConnectTimeout)

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	err := b.Connect(connectCtx)

	cancel()

	if err != nil {
		b.Disconnect()
		return nil, nil, err
	}

	attrCtx, cancel := context.WithTimeout(ctx, timeout)
	attrs, err := b.GetAttributes(attrCtx)

	cancel()

	if err != nil {
		b.Disconnect()
		return nil, nil, err
	}

	if attrs == nil {
		b.Disconnect()
		return nil, nil, fleeterr.New(fleeterr.KindInvalidResponse, "empty attribute report from %s", rec.Host)
	}

	if mismatch, field := identityMismatch(rec, attrs); mismatch {
		b.Disconnect()

		return nil, nil, fleeterr.New(fleeterr.KindIdentityMismatch,
			"device at %s reports a different %s than printer %s", rec.Host, field, rec.PrinterID)
	}

	return b, attrs, nil
}

// identityMismatch compares the record's expected identity against a fresh
// attribute report. Only fields known on both sides can disagree.
func identityMismatch(rec *models.PrinterRecord, attrs *models.Attributes) (bool, string) {
	if rec.MainboardID != "" && attrs.MainboardID != "" && rec.MainboardID != attrs.MainboardID {
		return true, "mainboard id"
	}

	if rec.SerialNumber != "" && attrs.SerialNumber != "" && rec.SerialNumber != attrs.SerialNumber {
		return true, "serial number"
	}

	return false, ""
}

// noteFailure classifies a reconcile failure. Auth and identity failures
// park the record until the user intervenes; transient ones are counted and
// eventually surfaced as offline.
func (o *Orchestrator) noteFailure(rec *models.PrinterRecord, err error) {
	kind := fleeterr.KindOf(err)

	switch kind {
	case fleeterr.KindAuthInvalid:
		o.logger.Warn().Err(err).Str("printer_id", rec.PrinterID).Msg("Credentials rejected, re-authentication required")
		o.setPrinterStatus(rec, models.PrinterStatusAuthError)
		o.setConnectStatus(rec, models.ConnectDisconnected)
		o.clearFailures(rec.PrinterID)
	case fleeterr.KindIdentityMismatch:
		o.logger.Warn().Err(err).Str("printer_id", rec.PrinterID).Msg("Identity mismatch, device swapped behind stable address")
		o.setPrinterStatus(rec, models.PrinterStatusIdNotMatch)
		o.setConnectStatus(rec, models.ConnectDisconnected)
		o.clearFailures(rec.PrinterID)
	case fleeterr.KindUnsupportedHostType:
		o.logger.Error().Err(err).Str("printer_id", rec.PrinterID).Msg("No adapter for host type")
		o.setPrinterStatus(rec, models.PrinterStatusUnsupported)
		o.setConnectStatus(rec, models.ConnectDisconnected)
		o.clearFailures(rec.PrinterID)
	default:
		o.logger.Debug().Err(err).Str("printer_id", rec.PrinterID).Str("kind", string(kind)).Msg("Connect failed, will retry")
		o.setConnectStatus(rec, models.ConnectDisconnected)

		if n := o.bumpFailures(rec.PrinterID); o.cfg.OfflineThreshold > 0 && n == o.cfg.OfflineThreshold {
			o.setPrinterStatus(rec, models.PrinterStatusOffline)
		}
	}
}

func (o *Orchestrator) bumpFailures(printerID string) int {
	o.failMu.Lock()
	defer o.failMu.Unlock()

	o.failures[printerID]++

	return o.failures[printerID]
}

func (o *Orchestrator) clearFailures(printerID string) {
	o.failMu.Lock()
	defer o.failMu.Unlock()

	delete(o.failures, printerID)
}

// sweepStale enforces the at-most-one-connection-matching-current-host
// invariant after each tick, even under concurrent external mutation.
func (o *Orchestrator) sweepStale() {
	o.connMu.Lock()
	stale := make([]string, 0)

	for id, conn := range o.conns {
		rec, ok := o.registry.Get(id)
		if !ok || rec.Host != conn.host {
			stale = append(stale, id)
		}
	}
	o.connMu.Unlock()

	for _, id := range stale {
		o.teardown(id, "stale sweep")
	}
}

// setConnectStatus records and publishes a connect status change. The bus
// handler write is idempotent with the direct write; doing both keeps the
// registry correct even while handlers are detached.
func (o *Orchestrator) setConnectStatus(rec *models.PrinterRecord, status models.ConnectStatus) {
	changed := false

	o.registry.UpdateRuntime(rec.PrinterID, func(r *models.PrinterRecord) {
		changed = r.ConnectStatus != status
		r.ConnectStatus = status
	})

	if !changed {
		return
	}

	o.bus.Publish(&models.Event{
		Type:          models.EventConnectStatus,
		PrinterID:     rec.PrinterID,
		NetworkType:   rec.NetworkType,
		Timestamp:     o.clock.Now(),
		ConnectStatus: status,
	})
}

func (o *Orchestrator) setPrinterStatus(rec *models.PrinterRecord, status models.PrinterStatus) {
	o.registry.UpdateRuntime(rec.PrinterID, func(r *models.PrinterRecord) {
		r.PrinterStatus = status
	})

	o.bus.Publish(&models.Event{
		Type:          models.EventDeviceStatus,
		PrinterID:     rec.PrinterID,
		NetworkType:   rec.NetworkType,
		Timestamp:     o.clock.Now(),
		PrinterStatus: status,
	})
}

func (o *Orchestrator) publishAttributes(rec *models.PrinterRecord, attrs *models.Attributes) {
	o.bus.Publish(&models.Event{
		Type:        models.EventAttributes,
		PrinterID:   rec.PrinterID,
		NetworkType: rec.NetworkType,
		Timestamp:   o.clock.Now(),
		Attributes:  attrs,
	})
}
