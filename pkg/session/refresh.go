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

	"github.com/printforge/fleetd/pkg/backend"
	"github.com/printforge/fleetd/pkg/fleeterr"
	"github.com/printforge/fleetd/pkg/models"
)

// RefreshToken submits the refresh token for a new access token.
//
// The candidate snapshot's lastTokenRefreshTime is compared against the live
// session's under the lock: when the live session was already refreshed more
// recently, the call is a no-op returning the already-fresh session. Two
// concurrent callers with the same stale snapshot therefore produce exactly
// one outbound refresh request; a double submit would invalidate the first
// caller's in-flight refresh token server-side.
func (m *Manager) RefreshToken(ctx context.Context, snapshot *models.UserSession) (*models.UserSession, error) {
	if snapshot == nil {
		return nil, fleeterr.New(fleeterr.KindAuthInvalid, "nil session snapshot")
	}

	m.refreshMu.Lock()
	defer m.refreshMu.Unlock()

	m.mu.Lock()

	if m.session == nil || m.session.UserID != snapshot.UserID {
		m.mu.Unlock()
		return nil, fleeterr.New(fleeterr.KindNotFound, "no signed-in session for user %s", snapshot.UserID)
	}

	if m.session.LastTokenRefreshTime > snapshot.LastTokenRefreshTime {
		fresh := m.session.Clone()
		m.mu.Unlock()

		return fresh, nil
	}

	now := m.clock.Now().Unix()
	if m.session.RefreshTokenExpireTime != 0 && now >= m.session.RefreshTokenExpireTime {
		m.session.LoginStatus = models.LoginStatusOfflineInvalidToken
		m.mu.Unlock()
		m.persistState()

		return nil, fleeterr.New(fleeterr.KindAuthInvalid, "refresh token expired")
	}

	if !m.session.LoginStatus.Terminal() {
		m.session.LoginStatus = models.LoginStatusOfflineTokenExpired
	}

	live := m.session.Clone()
	conn := m.conn
	m.mu.Unlock()

	refreshed, err := m.callRefresh(ctx, conn, live)
	if err != nil {
		if fleeterr.KindOf(err) == fleeterr.KindAuthInvalid {
			m.mu.Lock()
			if m.session != nil && m.session.UserID == snapshot.UserID {
				m.session.LoginStatus = models.LoginStatusOfflineInvalidToken
			}
			m.mu.Unlock()
			m.persistState()
		}

		return nil, err
	}

	m.mu.Lock()

	if m.session == nil || m.session.UserID != snapshot.UserID {
		m.mu.Unlock()
		return nil, fleeterr.New(fleeterr.KindNotFound, "session replaced during refresh")
	}

	m.session.Token = refreshed.Token
	if refreshed.RefreshToken != "" {
		m.session.RefreshToken = refreshed.RefreshToken
	}

	m.session.TokenExpireTime = refreshed.TokenExpireTime
	if m.session.TokenExpireTime == 0 {
		m.session.TokenExpireTime = tokenExpiry(m.session.Token)
	}

	if refreshed.RefreshTokenExpireTime != 0 {
		m.session.RefreshTokenExpireTime = refreshed.RefreshTokenExpireTime
	}

	m.session.LastTokenRefreshTime = m.clock.Now().Unix()

	if m.session.LoginStatus == models.LoginStatusOfflineTokenExpired {
		m.session.LoginStatus = models.LoginStatusSuccess
	}

	result := m.session.Clone()
	m.mu.Unlock()

	m.persistState()
	m.logger.Info().Str("user_id", snapshot.UserID).Msg("Access token refreshed")

	return result, nil
}

// callRefresh issues the outbound refresh through the live IoT connection
// when present, or a transient account adapter otherwise.
func (m *Manager) callRefresh(ctx context.Context, conn backend.UserBackend, live *models.UserSession) (*models.UserSession, error) {
	ub := conn
	if ub == nil {
		ub = m.factory.CreateUserNetwork(live)
		if ub == nil {
			return nil, fleeterr.New(fleeterr.KindUnsupportedHostType, "no account-layer adapter registered")
		}

		defer ub.Disconnect()
	}

	callCtx, cancel := context.WithTimeout(ctx, time.Duration(m.cfg.RequestTimeout))
	defer cancel()

	refreshed, err := ub.RefreshToken(callCtx, live)
	if err != nil {
		return nil, err
	}

	if refreshed == nil || refreshed.Token == "" {
		return nil, fleeterr.New(fleeterr.KindInvalidResponse, "refresh response missing token")
	}

	return refreshed, nil
}
