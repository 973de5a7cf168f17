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

package registry

import (
	"github.com/printforge/fleetd/pkg/eventbus"
	"github.com/printforge/fleetd/pkg/models"
)

// UpdateRuntime mutates runtime-only fields (connect status, device status,
// active task) and stamps lastActiveTime. It does not bump modifyTime or
// schedule a persist: runtime fields are never written to disk.
func (r *Registry) UpdateRuntime(printerID string, mutate func(rec *models.PrinterRecord)) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[printerID]
	if !ok {
		return false
	}

	mutate(rec)
	rec.LastActiveTime = r.now().Unix()

	return true
}

// InstallHandlers subscribes the registry to the bus so backend events flow
// into the stored records. Call RemoveHandlers on shutdown.
func (r *Registry) InstallHandlers(bus *eventbus.Bus) {
	r.subs = map[models.EventType]eventbus.SubscriptionID{
		models.EventConnectStatus: bus.Connect(models.EventConnectStatus, r.onConnectStatus),
		models.EventDeviceStatus:  bus.Connect(models.EventDeviceStatus, r.onDeviceStatus),
		models.EventPrintTask:     bus.Connect(models.EventPrintTask, r.onPrintTask),
		models.EventAttributes:    bus.Connect(models.EventAttributes, r.onAttributes),
	}
}

// RemoveHandlers detaches the registry from the bus.
func (r *Registry) RemoveHandlers(bus *eventbus.Bus) {
	for t, id := range r.subs {
		bus.Disconnect(t, id)
	}

	r.subs = nil
}

func (r *Registry) onConnectStatus(evt *models.Event) {
	r.UpdateRuntime(evt.PrinterID, func(rec *models.PrinterRecord) {
		rec.ConnectStatus = evt.ConnectStatus
	})
}

func (r *Registry) onDeviceStatus(evt *models.Event) {
	r.UpdateRuntime(evt.PrinterID, func(rec *models.PrinterRecord) {
		rec.PrinterStatus = evt.PrinterStatus
	})
}

func (r *Registry) onPrintTask(evt *models.Event) {
	r.UpdateRuntime(evt.PrinterID, func(rec *models.PrinterRecord) {
		if evt.PrintTask != nil {
			task := *evt.PrintTask
			rec.PrintTask = &task
		} else {
			rec.PrintTask = nil
		}
	})
}

func (r *Registry) onAttributes(evt *models.Event) {
	if evt.Attributes == nil {
		return
	}

	// Attributes touch persisted fields, so go through Update for the
	// modifyTime stamp and the scheduled persist.
	_ = r.Update(evt.PrinterID, func(rec *models.PrinterRecord) {
		ApplyAttributes(rec, evt.Attributes)
	})
}

// ApplyAttributes merges a device attribute report into a record. Identity
// fields are only adopted when previously empty; identity conflicts are the
// orchestrator's concern, detected before the report reaches the registry.
func ApplyAttributes(rec *models.PrinterRecord, attrs *models.Attributes) {
	if rec.SerialNumber == "" {
		rec.SerialNumber = attrs.SerialNumber
	}

	if rec.MainboardID == "" {
		rec.MainboardID = attrs.MainboardID
	}

	if attrs.Vendor != "" {
		rec.Vendor = attrs.Vendor
	}

	if attrs.Model != "" {
		rec.Model = attrs.Model
	}

	if attrs.WebURL != "" {
		rec.WebURL = attrs.WebURL
	}

	if attrs.PrintCapabilities != nil {
		rec.PrintCapabilities = append([]string(nil), attrs.PrintCapabilities...)
	}

	if attrs.SystemCapabilities != nil {
		rec.SystemCapabilities = append([]string(nil), attrs.SystemCapabilities...)
	}
}
