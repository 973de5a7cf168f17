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

package backend

import (
	"sort"
	"sync"

	"github.com/printforge/fleetd/pkg/models"
)

// PrinterConstructor builds a Backend for one record.
type PrinterConstructor func(record *models.PrinterRecord) Backend

// UserConstructor builds a UserBackend for one session.
type UserConstructor func(session *models.UserSession) UserBackend

// DefaultFactory is a table-driven Factory. Vendor adapter packages register
// their constructors at wiring time; host types with no registered
// constructor yield nil backends.
type DefaultFactory struct {
	mu       sync.RWMutex
	printers map[models.HostType]PrinterConstructor
	user     UserConstructor
}

// NewFactory creates an empty factory.
func NewFactory() *DefaultFactory {
	return &DefaultFactory{printers: make(map[models.HostType]PrinterConstructor)}
}

// RegisterPrinter installs the constructor for a host type, replacing any
// previous registration.
func (f *DefaultFactory) RegisterPrinter(hostType models.HostType, ctor PrinterConstructor) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.printers[hostType] = ctor
}

// RegisterUser installs the account-layer constructor.
func (f *DefaultFactory) RegisterUser(ctor UserConstructor) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.user = ctor
}

// CreatePrinterNetwork implements Factory.
func (f *DefaultFactory) CreatePrinterNetwork(record *models.PrinterRecord) Backend {
	f.mu.RLock()
	ctor := f.printers[record.HostType]
	f.mu.RUnlock()

	if ctor == nil {
		return nil
	}

	return ctor(record)
}

// CreateUserNetwork implements Factory.
func (f *DefaultFactory) CreateUserNetwork(session *models.UserSession) UserBackend {
	f.mu.RLock()
	ctor := f.user
	f.mu.RUnlock()

	if ctor == nil {
		return nil
	}

	return ctor(session)
}

// SupportedHostTypes implements Factory. The order is stable for
// deterministic discovery fan-out.
func (f *DefaultFactory) SupportedHostTypes() []models.HostType {
	f.mu.RLock()
	defer f.mu.RUnlock()

	types := make([]models.HostType, 0, len(f.printers))
	for ht := range f.printers {
		types = append(types, ht)
	}

	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

	return types
}
