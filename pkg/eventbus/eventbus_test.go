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

package eventbus

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/printforge/fleetd/pkg/logger"
	"github.com/printforge/fleetd/pkg/models"
)

func TestPublishDeliversInRegistrationOrder(t *testing.T) {
	bus := New(logger.NewTestLogger())

	var order []int

	for i := 0; i < 5; i++ {
		i := i
		bus.Connect(models.EventConnectStatus, func(_ *models.Event) {
			order = append(order, i)
		})
	}

	bus.Publish(&models.Event{Type: models.EventConnectStatus, PrinterID: "p1"})

	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestPublishOnlyReachesMatchingType(t *testing.T) {
	bus := New(logger.NewTestLogger())

	var connectCount, statusCount int

	bus.Connect(models.EventConnectStatus, func(_ *models.Event) { connectCount++ })
	bus.Connect(models.EventDeviceStatus, func(_ *models.Event) { statusCount++ })

	bus.Publish(&models.Event{Type: models.EventDeviceStatus, PrinterID: "p1"})

	assert.Equal(t, 0, connectCount)
	assert.Equal(t, 1, statusCount)
}

func TestPanickingHandlerDoesNotStopDelivery(t *testing.T) {
	bus := New(logger.NewTestLogger())

	var delivered bool

	bus.Connect(models.EventPrintTask, func(_ *models.Event) { panic("boom") })
	bus.Connect(models.EventPrintTask, func(_ *models.Event) { delivered = true })

	require.NotPanics(t, func() {
		bus.Publish(&models.Event{Type: models.EventPrintTask, PrinterID: "p1"})
	})

	assert.True(t, delivered, "handler after the panicking one must still run")
}

func TestDisconnectRemovesOnlyThatHandler(t *testing.T) {
	bus := New(logger.NewTestLogger())

	var first, second int

	id := bus.Connect(models.EventAttributes, func(_ *models.Event) { first++ })
	bus.Connect(models.EventAttributes, func(_ *models.Event) { second++ })

	bus.Disconnect(models.EventAttributes, id)
	bus.Publish(&models.Event{Type: models.EventAttributes, PrinterID: "p1"})

	assert.Equal(t, 0, first)
	assert.Equal(t, 1, second)
}

func TestDisconnectUnknownIDIsNoop(t *testing.T) {
	bus := New(logger.NewTestLogger())

	var count int

	bus.Connect(models.EventAttributes, func(_ *models.Event) { count++ })
	bus.Disconnect(models.EventAttributes, SubscriptionID(9999))

	bus.Publish(&models.Event{Type: models.EventAttributes})
	assert.Equal(t, 1, count)
}

func TestDisconnectAll(t *testing.T) {
	bus := New(logger.NewTestLogger())

	var count int

	bus.Connect(models.EventConnectStatus, func(_ *models.Event) { count++ })
	bus.Connect(models.EventConnectStatus, func(_ *models.Event) { count++ })

	bus.DisconnectAll(models.EventConnectStatus)
	bus.Publish(&models.Event{Type: models.EventConnectStatus})

	assert.Equal(t, 0, count)
}

func TestConcurrentPublishAndSubscribe(t *testing.T) {
	bus := New(logger.NewTestLogger())

	var (
		mu    sync.Mutex
		total int
		wg    sync.WaitGroup
	)

	bus.Connect(models.EventDeviceStatus, func(_ *models.Event) {
		mu.Lock()
		total++
		mu.Unlock()
	})

	for i := 0; i < 20; i++ {
		wg.Add(2)

		go func() {
			defer wg.Done()
			bus.Publish(&models.Event{Type: models.EventDeviceStatus, PrinterID: "p1"})
		}()

		go func() {
			defer wg.Done()
			id := bus.Connect(models.EventPrintTask, func(_ *models.Event) {})
			bus.Disconnect(models.EventPrintTask, id)
		}()
	}

	wg.Wait()
	assert.Equal(t, 20, total)
}
