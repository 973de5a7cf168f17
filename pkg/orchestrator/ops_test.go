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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/printforge/fleetd/pkg/backend"
	"github.com/printforge/fleetd/pkg/fleeterr"
	"github.com/printforge/fleetd/pkg/models"
)

func TestAddPrinterLAN(t *testing.T) {
	h := newHarness(t, Config{})
	ctrl := gomock.NewController(t)

	b, _ := connectedBackend(ctrl, &models.Attributes{SerialNumber: "SN-1", Model: "F1"})
	h.factory.EXPECT().CreatePrinterNetwork(gomock.Any()).Return(b)

	added, err := h.orch.AddPrinter(context.Background(), lanRecord("SN-1", "10.0.0.5"))
	require.NoError(t, err)

	assert.NotEmpty(t, added.PrinterID)
	assert.Equal(t, models.ConnectConnected, added.ConnectStatus)
	assert.Equal(t, "F1", added.Model)
	assert.Equal(t, 1, h.orch.ConnectionCount())

	stored, ok := h.reg.Get(added.PrinterID)
	require.True(t, ok)
	assert.Equal(t, "SN-1", stored.SerialNumber)
}

func TestAddPrinterRejectsNilAndEmptyHost(t *testing.T) {
	h := newHarness(t, Config{})

	_, err := h.orch.AddPrinter(context.Background(), nil)
	require.Error(t, err)

	_, err = h.orch.AddPrinter(context.Background(), &models.PrinterRecord{
		SerialNumber: "SN-1",
		NetworkType:  models.NetworkLAN,
	})
	require.Error(t, err)
	assert.True(t, fleeterr.IsKind(err, fleeterr.KindInvalidResponse))
}

func TestAddPrinterDuplicateHost(t *testing.T) {
	h := newHarness(t, Config{})
	ctrl := gomock.NewController(t)

	b, _ := connectedBackend(ctrl, &models.Attributes{SerialNumber: "SN-1"})
	h.factory.EXPECT().CreatePrinterNetwork(gomock.Any()).Return(b)

	_, err := h.orch.AddPrinter(context.Background(), lanRecord("SN-1", "10.0.0.5"))
	require.NoError(t, err)

	_, err = h.orch.AddPrinter(context.Background(), lanRecord("SN-2", "10.0.0.5"))
	require.Error(t, err)
	assert.True(t, fleeterr.IsKind(err, fleeterr.KindAlreadyExists))
}

func TestAddPrinterDuplicateIdentity(t *testing.T) {
	h := newHarness(t, Config{})
	ctrl := gomock.NewController(t)

	b, _ := connectedBackend(ctrl, &models.Attributes{SerialNumber: "SN-1"})
	h.factory.EXPECT().CreatePrinterNetwork(gomock.Any()).Return(b)

	_, err := h.orch.AddPrinter(context.Background(), lanRecord("SN-1", "10.0.0.5"))
	require.NoError(t, err)

	_, err = h.orch.AddPrinter(context.Background(), lanRecord("SN-1", "10.0.0.6"))
	require.Error(t, err)
	assert.True(t, fleeterr.IsKind(err, fleeterr.KindAlreadyExists))
}

func TestAddPrinterConnectFailureLeavesNoRecord(t *testing.T) {
	h := newHarness(t, Config{})
	ctrl := gomock.NewController(t)

	b := backend.NewMockBackend(ctrl)
	b.EXPECT().Connect(gomock.Any()).Return(fleeterr.New(fleeterr.KindNetworkUnavailable, "refused"))
	b.EXPECT().Disconnect()
	h.factory.EXPECT().CreatePrinterNetwork(gomock.Any()).Return(b)

	_, err := h.orch.AddPrinter(context.Background(), lanRecord("SN-1", "10.0.0.5"))
	require.Error(t, err)

	assert.Empty(t, h.reg.List(), "failed verification must not leave a half-added record")
	assert.Zero(t, h.orch.ConnectionCount())
}

func TestAddPrinterWANBindsAndSyncs(t *testing.T) {
	h := newHarness(t, Config{})
	h.sessions.status = models.LoginStatusSuccess
	h.sessions.bound = []*models.PrinterRecord{{SerialNumber: "SN-W", NetworkType: models.NetworkWAN}}

	added, err := h.orch.AddPrinter(context.Background(), &models.PrinterRecord{
		SerialNumber: "SN-W",
		HostType:     "cloud",
		NetworkType:  models.NetworkWAN,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, added.PrinterID)

	h.sessions.mu.Lock()
	defer h.sessions.mu.Unlock()
	assert.Equal(t, 1, h.sessions.bindCalls)
	assert.Equal(t, 1, h.sessions.fetchCalls, "bind forces a bound list re-sync")
}

func TestAddPrinterWANBindFailure(t *testing.T) {
	h := newHarness(t, Config{})
	h.sessions.status = models.LoginStatusSuccess
	h.sessions.bindErr = fleeterr.New(fleeterr.KindAuthInvalid, "not signed in")

	_, err := h.orch.AddPrinter(context.Background(), &models.PrinterRecord{
		SerialNumber: "SN-W",
		NetworkType:  models.NetworkWAN,
	})
	require.Error(t, err)
	assert.Empty(t, h.reg.List())
}

func TestUpdatePrinterHostCommitsAfterVerification(t *testing.T) {
	h := newHarness(t, Config{})
	ctrl := gomock.NewController(t)

	oldB, _ := connectedBackend(ctrl, &models.Attributes{SerialNumber: "SN-1"})
	newB, _ := connectedBackend(ctrl, &models.Attributes{SerialNumber: "SN-1"})

	gomock.InOrder(
		h.factory.EXPECT().CreatePrinterNetwork(gomock.Any()).Return(oldB),
		h.factory.EXPECT().CreatePrinterNetwork(gomock.Any()).Return(newB),
	)

	added, err := h.orch.AddPrinter(context.Background(), lanRecord("SN-1", "10.0.0.5"))
	require.NoError(t, err)

	require.NoError(t, h.orch.UpdatePrinterHost(context.Background(), added.PrinterID, "10.0.0.99"))

	stored, _ := h.reg.Get(added.PrinterID)
	assert.Equal(t, "10.0.0.99", stored.Host)
	assert.Equal(t, models.ConnectConnected, stored.ConnectStatus)
	assert.Equal(t, 1, h.orch.ConnectionCount())
}

func TestUpdatePrinterHostIdentityMismatchLeavesHost(t *testing.T) {
	h := newHarness(t, Config{})
	ctrl := gomock.NewController(t)

	oldB, _ := connectedBackend(ctrl, &models.Attributes{SerialNumber: "SN-1"})
	// A different device sits at the new address.
	wrongB, _ := connectedBackend(ctrl, &models.Attributes{SerialNumber: "SN-OTHER"})

	gomock.InOrder(
		h.factory.EXPECT().CreatePrinterNetwork(gomock.Any()).Return(oldB),
		h.factory.EXPECT().CreatePrinterNetwork(gomock.Any()).Return(wrongB),
	)

	added, err := h.orch.AddPrinter(context.Background(), lanRecord("SN-1", "10.0.0.5"))
	require.NoError(t, err)

	err = h.orch.UpdatePrinterHost(context.Background(), added.PrinterID, "10.0.0.99")
	require.Error(t, err)
	assert.True(t, fleeterr.IsKind(err, fleeterr.KindIdentityMismatch))

	stored, _ := h.reg.Get(added.PrinterID)
	assert.Equal(t, "10.0.0.5", stored.Host, "stored host must survive a failed verification")
}

func TestUpdatePrinterHostValidation(t *testing.T) {
	h := newHarness(t, Config{})

	err := h.orch.UpdatePrinterHost(context.Background(), "missing", "10.0.0.9")
	assert.True(t, fleeterr.IsKind(err, fleeterr.KindNotFound))

	err = h.orch.UpdatePrinterHost(context.Background(), "whatever", "")
	assert.True(t, fleeterr.IsKind(err, fleeterr.KindInvalidResponse))

	wan := &models.PrinterRecord{SerialNumber: "SN-W", NetworkType: models.NetworkWAN}
	require.NoError(t, h.reg.Add(wan))

	err = h.orch.UpdatePrinterHost(context.Background(), wan.PrinterID, "10.0.0.9")
	assert.True(t, fleeterr.IsKind(err, fleeterr.KindInvalidResponse))
}

func TestUpdatePrinterHostUnparksRecord(t *testing.T) {
	h := newHarness(t, Config{})
	ctrl := gomock.NewController(t)

	rec := lanRecord("SN-1", "10.0.0.5")
	require.NoError(t, h.reg.Add(rec))

	// The device behind 10.0.0.5 was swapped; the record is parked.
	h.reg.UpdateRuntime(rec.PrinterID, func(r *models.PrinterRecord) {
		r.PrinterStatus = models.PrinterStatusIdNotMatch
	})

	b, _ := connectedBackend(ctrl, &models.Attributes{SerialNumber: "SN-1"})
	h.factory.EXPECT().CreatePrinterNetwork(gomock.Any()).Return(b).Times(1)

	require.NoError(t, h.orch.UpdatePrinterHost(context.Background(), rec.PrinterID, "10.0.0.9"))

	stored, _ := h.reg.Get(rec.PrinterID)
	assert.Equal(t, models.PrinterStatusUnknown, stored.PrinterStatus, "pointing the record at verified hardware clears the park")
	require.Equal(t, 1, h.orch.ConnectionCount())

	// The repaired connection survives reconciliation; Times(1) above
	// enforces no re-dial.
	h.orch.Tick(context.Background())

	assert.Equal(t, 1, h.orch.ConnectionCount())

	stored, _ = h.reg.Get(rec.PrinterID)
	assert.Equal(t, models.ConnectConnected, stored.ConnectStatus)
}

func TestDeletePrinterLAN(t *testing.T) {
	h := newHarness(t, Config{})
	ctrl := gomock.NewController(t)

	b, _ := connectedBackend(ctrl, &models.Attributes{SerialNumber: "SN-1"})
	h.factory.EXPECT().CreatePrinterNetwork(gomock.Any()).Return(b)

	added, err := h.orch.AddPrinter(context.Background(), lanRecord("SN-1", "10.0.0.5"))
	require.NoError(t, err)

	var disconnected bool

	h.bus.Connect(models.EventConnectStatus, func(evt *models.Event) {
		if evt.PrinterID == added.PrinterID && evt.ConnectStatus == models.ConnectDisconnected {
			disconnected = true
		}
	})

	require.NoError(t, h.orch.DeletePrinter(context.Background(), added.PrinterID))

	assert.Empty(t, h.reg.List())
	assert.Zero(t, h.orch.ConnectionCount())
	assert.True(t, disconnected, "deletion announces the disconnect")

	err = h.orch.DeletePrinter(context.Background(), added.PrinterID)
	assert.True(t, fleeterr.IsKind(err, fleeterr.KindNotFound))
}

func TestDeletePrinterWANUnbindFailureStillRemoves(t *testing.T) {
	h := newHarness(t, Config{})
	h.sessions.unbindErr = fleeterr.New(fleeterr.KindNetworkUnavailable, "cloud down")

	wan := &models.PrinterRecord{SerialNumber: "SN-W", NetworkType: models.NetworkWAN}
	require.NoError(t, h.reg.Add(wan))

	err := h.orch.DeletePrinter(context.Background(), wan.PrinterID)
	require.Error(t, err, "the unbind failure is reported")

	assert.Empty(t, h.reg.List(), "local removal proceeds regardless")

	h.sessions.mu.Lock()
	defer h.sessions.mu.Unlock()
	assert.Equal(t, 1, h.sessions.unbindCalls)
}

// Concurrent mutations against the same printer must serialize on the keyed
// lock and never leave more than one live connection.
func TestConcurrentMutationsSingleConnection(t *testing.T) {
	h := newHarness(t, Config{})
	ctrl := gomock.NewController(t)

	h.factory.EXPECT().CreatePrinterNetwork(gomock.Any()).DoAndReturn(
		func(*models.PrinterRecord) backend.Backend {
			b, _ := connectedBackend(ctrl, &models.Attributes{SerialNumber: "SN-1"})
			return b
		}).AnyTimes()

	added, err := h.orch.AddPrinter(context.Background(), lanRecord("SN-1", "10.0.0.5"))
	require.NoError(t, err)

	var wg sync.WaitGroup

	for i := 0; i < 4; i++ {
		wg.Add(2)

		go func() {
			defer wg.Done()
			h.orch.Tick(context.Background())
		}()

		go func() {
			defer wg.Done()
			_ = h.orch.UpdatePrinterHost(context.Background(), added.PrinterID, "10.0.0.77")
		}()
	}

	wg.Wait()

	h.orch.Tick(context.Background())

	assert.Equal(t, 1, h.orch.ConnectionCount(), "exactly one live connection may remain")
}
