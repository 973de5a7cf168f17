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
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/printforge/fleetd/pkg/models"
)

// LoadState restores a previously persisted session. The login status is
// downgraded to NotLogin so the loop re-authenticates, except terminal
// invalid states, which are preserved so the user is re-prompted the same
// way as before the restart. Missing or corrupt files are non-fatal.
func (m *Manager) LoadState() error {
	if m.cfg.StatePath == "" {
		return nil
	}

	data, err := os.ReadFile(m.cfg.StatePath)
	if err != nil {
		if !os.IsNotExist(err) {
			m.logger.Warn().Err(err).Str("path", m.cfg.StatePath).Msg("Failed to read session file")
		}

		return nil
	}

	var sess models.UserSession
	if err := json.Unmarshal(data, &sess); err != nil {
		m.logger.Warn().Err(err).Str("path", m.cfg.StatePath).Msg("Corrupt session file, ignoring")
		return nil
	}

	if sess.UserID == "" {
		return nil
	}

	if !sess.LoginStatus.Terminal() {
		sess.LoginStatus = models.LoginStatusNotLogin
	}

	m.mu.Lock()
	m.session = &sess
	m.mu.Unlock()

	m.logger.Info().Str("user_id", sess.UserID).Str("login_status", string(sess.LoginStatus)).Msg("Session restored")

	return nil
}

// persistState writes the session to disk, or removes the file after
// sign-out. Write failures are logged; the in-memory session is unaffected.
func (m *Manager) persistState() {
	if m.cfg.StatePath == "" {
		return
	}

	m.mu.Lock()
	sess := m.session.Clone()
	m.mu.Unlock()

	if sess == nil {
		if err := os.Remove(m.cfg.StatePath); err != nil && !os.IsNotExist(err) {
			m.logger.Error().Err(err).Msg("Failed to remove session file")
		}

		return
	}

	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		m.logger.Error().Err(err).Msg("Failed to marshal session")
		return
	}

	if err := os.MkdirAll(filepath.Dir(m.cfg.StatePath), 0o750); err != nil {
		m.logger.Error().Err(err).Msg("Failed to create session directory")
		return
	}

	tmp := m.cfg.StatePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		m.logger.Error().Err(err).Msg("Failed to write session file")
		return
	}

	if err := os.Rename(tmp, m.cfg.StatePath); err != nil {
		m.logger.Error().Err(err).Msg("Failed to replace session file")
	}
}
