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

// Package keymutex provides a per-key mutex table with refcounted entries so
// the table does not grow without bound as keys churn.
package keymutex

import "sync"

type entry struct {
	mu     sync.Mutex
	refs   int
	doomed bool
}

// Map is a keyed mutex table. The zero value is not usable; call New.
type Map struct {
	mu      sync.Mutex
	entries map[string]*entry
}

// New creates an empty keyed mutex table.
func New() *Map {
	return &Map{entries: make(map[string]*entry)}
}

// Lock acquires the mutex for key, creating it on first use. The returned
// function releases the mutex; an entry marked via Evict is removed from the
// table once the last holder or waiter releases it.
func (m *Map) Lock(key string) (unlock func()) {
	m.mu.Lock()

	e, ok := m.entries[key]
	if !ok {
		e = &entry{}
		m.entries[key] = e
	}

	e.refs++
	m.mu.Unlock()

	e.mu.Lock()

	return func() {
		e.mu.Unlock()

		m.mu.Lock()
		defer m.mu.Unlock()

		e.refs--
		if e.refs == 0 && e.doomed {
			// Only drop the exact entry we hold; the key may have been
			// recreated after a previous eviction.
			if cur, ok := m.entries[key]; ok && cur == e {
				delete(m.entries, key)
			}
		}
	}
}

// Evict marks the key's entry for removal once idle. Call it while holding
// the key's lock, after the keyed resource itself has been deleted.
func (m *Map) Evict(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.entries[key]; ok {
		e.doomed = true
	}
}

// Len reports the number of live entries, for tests and diagnostics.
func (m *Map) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.entries)
}
