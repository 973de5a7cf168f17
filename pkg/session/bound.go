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

package session

import (
	"context"
	"time"

	"github.com/printforge/fleetd/pkg/fleeterr"
	"github.com/printforge/fleetd/pkg/models"
)

// FetchBoundPrinters pulls the account's bound printer list from the cloud
// and caches it on the session. Records come back tagged as WAN.
func (m *Manager) FetchBoundPrinters(ctx context.Context) ([]*models.PrinterRecord, error) {
	m.mu.Lock()
	conn := m.conn
	m.mu.Unlock()

	if conn == nil {
		return nil, fleeterr.New(fleeterr.KindNetworkUnavailable, "no live IoT connection")
	}

	callCtx, cancel := context.WithTimeout(ctx, time.Duration(m.cfg.RequestTimeout))
	defer cancel()

	bound, err := conn.BoundPrinters(callCtx)
	if err != nil {
		return nil, err
	}

	for _, rec := range bound {
		rec.NetworkType = models.NetworkWAN
	}

	m.mu.Lock()
	if m.session != nil {
		m.session.BoundPrinters = bound
	}
	m.mu.Unlock()

	out := make([]*models.PrinterRecord, 0, len(bound))
	for _, rec := range bound {
		out = append(out, rec.Clone())
	}

	return out, nil
}

// Bind authorizes a WAN printer against the signed-in account. The actual
// handshake goes through the printer's own backend adapter.
func (m *Manager) Bind(ctx context.Context, rec *models.PrinterRecord) error {
	if m.LoginStatus() != models.LoginStatusSuccess {
		return fleeterr.New(fleeterr.KindAuthInvalid, "binding requires a signed-in account")
	}

	b := m.factory.CreatePrinterNetwork(rec)
	if b == nil {
		return fleeterr.New(fleeterr.KindUnsupportedHostType, "unsupported host type %q", rec.HostType)
	}

	defer b.Disconnect()

	callCtx, cancel := context.WithTimeout(ctx, time.Duration(m.cfg.RequestTimeout))
	defer cancel()

	if err := b.BindWAN(callCtx, rec); err != nil {
		return err
	}

	m.logger.Info().Str("serial_number", rec.SerialNumber).Msg("Printer bound to account")

	return nil
}

// Unbind releases a WAN printer from the account by serial number.
func (m *Manager) Unbind(ctx context.Context, rec *models.PrinterRecord) error {
	b := m.factory.CreatePrinterNetwork(rec)
	if b == nil {
		return fleeterr.New(fleeterr.KindUnsupportedHostType, "unsupported host type %q", rec.HostType)
	}

	defer b.Disconnect()

	callCtx, cancel := context.WithTimeout(ctx, time.Duration(m.cfg.RequestTimeout))
	defer cancel()

	if err := b.UnbindWAN(callCtx, rec.SerialNumber); err != nil {
		return err
	}

	m.logger.Info().Str("serial_number", rec.SerialNumber).Msg("Printer unbound from account")

	return nil
}
