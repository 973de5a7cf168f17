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

// Package session owns the signed-in account: credentials, the IoT
// connection to the cloud, the token refresh loop and the account's bound
// printer list.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/printforge/fleetd/pkg/backend"
	"github.com/printforge/fleetd/pkg/fleeterr"
	"github.com/printforge/fleetd/pkg/lifecycle"
	"github.com/printforge/fleetd/pkg/logger"
	"github.com/printforge/fleetd/pkg/models"
)

const (
	defaultRefreshInterval = 10 * time.Second
	defaultRequestTimeout  = 5 * time.Second
	defaultRefreshMargin   = time.Minute
)

// Config configures the session manager.
type Config struct {
	// RefreshInterval is the background loop period.
	RefreshInterval models.Duration `json:"refresh_interval,omitempty"`

	// RequestTimeout bounds each outbound cloud call.
	RequestTimeout models.Duration `json:"request_timeout,omitempty"`

	// RefreshMargin renews the access token this long before its expiry.
	RefreshMargin models.Duration `json:"refresh_margin,omitempty"`

	// StatePath is the persisted session file. Empty disables persistence.
	StatePath string `json:"state_path,omitempty"`
}

// Validate fills defaults.
func (c *Config) Validate() error {
	if c.RefreshInterval <= 0 {
		c.RefreshInterval = models.Duration(defaultRefreshInterval)
	}

	if c.RequestTimeout <= 0 {
		c.RequestTimeout = models.Duration(defaultRequestTimeout)
	}

	if c.RefreshMargin <= 0 {
		c.RefreshMargin = models.Duration(defaultRefreshMargin)
	}

	return nil
}

// Manager owns the singleton UserSession. All mutation of the session goes
// through the manager's lock; callers only ever see clones.
type Manager struct {
	cfg     Config
	factory backend.Factory
	clock   lifecycle.Clock
	logger  logger.Logger

	mu         sync.Mutex
	session    *models.UserSession
	conn       backend.UserBackend
	connUserID string

	// refreshMu serializes outbound token refreshes so two concurrent
	// callers cannot double-submit a refresh request; the loser observes
	// the winner's lastTokenRefreshTime and short-circuits.
	refreshMu sync.Mutex

	// unsupported latches when the factory has no account-layer adapter;
	// the loop stops attempting connects until the process restarts.
	unsupported bool

	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewManager creates a session manager. A nil clock selects the wall clock.
func NewManager(cfg Config, factory backend.Factory, clock lifecycle.Clock, log logger.Logger) *Manager {
	_ = cfg.Validate()

	if clock == nil {
		clock = lifecycle.RealClock()
	}

	return &Manager{
		cfg:     cfg,
		factory: factory,
		clock:   clock,
		logger:  log,
		done:    make(chan struct{}),
	}
}

// Start implements lifecycle.Service: the periodic refresh loop.
func (m *Manager) Start(ctx context.Context) error {
	interval := time.Duration(m.cfg.RefreshInterval)
	ticker := m.clock.Ticker(interval)

	defer ticker.Stop()

	m.logger.Info().Dur("interval", interval).Msg("Starting session refresh loop")

	m.wg.Add(1)
	defer m.wg.Done()

	m.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-m.done:
			return nil
		case <-ticker.Chan():
			m.tick(ctx)
		}
	}
}

// Stop implements lifecycle.Service.
func (m *Manager) Stop(_ context.Context) error {
	m.closeOnce.Do(func() { close(m.done) })
	m.wg.Wait()

	m.mu.Lock()
	defer m.mu.Unlock()

	m.dropConnLocked()

	return nil
}

// SignIn installs a freshly authenticated session and runs one refresh pass
// immediately so the IoT connection comes up without waiting for the loop.
func (m *Manager) SignIn(ctx context.Context, sess *models.UserSession) error {
	if sess == nil || sess.UserID == "" || sess.Token == "" {
		return fleeterr.New(fleeterr.KindAuthInvalid, "sign-in requires a user id and token")
	}

	s := sess.Clone()
	if s.TokenExpireTime == 0 {
		s.TokenExpireTime = tokenExpiry(s.Token)
	}

	if s.LoginStatus == "" {
		s.LoginStatus = models.LoginStatusNotLogin
	}

	m.mu.Lock()
	m.dropConnLocked()
	m.session = s
	m.unsupported = false
	m.mu.Unlock()

	m.persistState()
	m.tick(ctx)

	return nil
}

// SignOut clears the session and tears down the IoT connection.
func (m *Manager) SignOut() {
	m.mu.Lock()
	m.dropConnLocked()
	m.session = nil
	m.mu.Unlock()

	m.persistState()
	m.logger.Info().Msg("Signed out")
}

// Session returns a copy of the current session, or nil when signed out.
func (m *Manager) Session() *models.UserSession {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.session.Clone()
}

// LoginStatus returns the current login state, NotLogin when signed out.
func (m *Manager) LoginStatus() models.LoginStatus {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session == nil {
		return models.LoginStatusNotLogin
	}

	return m.session.LoginStatus
}

// tick is one pass of the refresh loop.
func (m *Manager) tick(ctx context.Context) {
	m.mu.Lock()

	if m.session == nil || m.session.UserID == "" || m.session.Token == "" || m.session.LoginStatus.Terminal() {
		m.dropConnLocked()
		m.mu.Unlock()

		return
	}

	if m.unsupported {
		m.mu.Unlock()
		return
	}

	// A connection left over from a different account is never reused.
	if m.conn != nil && m.connUserID != m.session.UserID {
		m.dropConnLocked()
	}

	healthy := m.session.LoginStatus == models.LoginStatusSuccess && m.conn != nil
	snapshot := m.session.Clone()
	m.mu.Unlock()

	if healthy {
		if _, err := m.FetchBoundPrinters(ctx); err != nil {
			m.logger.Debug().Err(err).Msg("Opportunistic bound printer sync failed")
		}

		return
	}

	if m.needsRefresh(snapshot) {
		refreshed, err := m.RefreshToken(ctx, snapshot)
		if err != nil {
			m.classifyFailure(err)
			return
		}

		snapshot = refreshed
	}

	m.connect(ctx, snapshot)
}

func (m *Manager) needsRefresh(s *models.UserSession) bool {
	if s.TokenExpireTime == 0 {
		return false
	}

	return m.clock.Now().Unix() >= s.TokenExpireTime-int64(time.Duration(m.cfg.RefreshMargin)/time.Second)
}

// connect establishes the IoT connection with current credentials.
func (m *Manager) connect(ctx context.Context, snapshot *models.UserSession) {
	ub := m.factory.CreateUserNetwork(snapshot)
	if ub == nil {
		m.logger.Error().Str("user_id", snapshot.UserID).Msg("No account-layer adapter registered")

		m.mu.Lock()
		m.unsupported = true
		m.mu.Unlock()

		return
	}

	callCtx, cancel := context.WithTimeout(ctx, time.Duration(m.cfg.RequestTimeout))
	defer cancel()

	result, err := ub.ConnectIoT(callCtx, snapshot)
	if err != nil {
		ub.Disconnect()
		m.classifyFailure(err)

		return
	}

	m.mu.Lock()

	if m.session == nil || m.session.UserID != snapshot.UserID {
		// Signed out (or switched users) while connecting.
		m.mu.Unlock()
		ub.Disconnect()

		return
	}

	if result != nil {
		if result.Nickname != "" {
			m.session.Nickname = result.Nickname
		}

		if result.Avatar != "" {
			m.session.Avatar = result.Avatar
		}

		if result.Email != "" {
			m.session.Email = result.Email
		}
	}

	m.session.LoginStatus = models.LoginStatusSuccess
	m.dropConnLocked()
	m.conn = ub
	m.connUserID = m.session.UserID
	m.mu.Unlock()

	m.persistState()
	m.logger.Info().Str("user_id", snapshot.UserID).Msg("IoT connection established")

	if _, err := m.FetchBoundPrinters(ctx); err != nil {
		m.logger.Debug().Err(err).Msg("Initial bound printer sync failed")
	}
}

// classifyFailure maps an error to the login status state machine. The
// connection stays unset; transient failures are retried next tick.
func (m *Manager) classifyFailure(err error) {
	kind := fleeterr.KindOf(err)

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session == nil || m.session.LoginStatus.Terminal() {
		return
	}

	switch kind {
	case fleeterr.KindAuthInvalid:
		m.session.LoginStatus = models.LoginStatusOfflineInvalidToken
		m.logger.Warn().Err(err).Msg("Credentials rejected, interactive re-login required")
	case fleeterr.KindNotFound:
		m.session.LoginStatus = models.LoginStatusOfflineInvalidUser
		m.logger.Warn().Err(err).Msg("Account no longer valid, interactive re-login required")
	default:
		m.session.LoginStatus = models.LoginStatusOffline
		m.logger.Debug().Err(err).Str("kind", string(kind)).Msg("Cloud unreachable, will retry")
	}
}

func (m *Manager) dropConnLocked() {
	if m.conn != nil {
		m.conn.Disconnect()
		m.conn = nil
		m.connUserID = ""
	}
}
