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
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/printforge/fleetd/pkg/backend"
	"github.com/printforge/fleetd/pkg/fleeterr"
	"github.com/printforge/fleetd/pkg/lifecycle"
	"github.com/printforge/fleetd/pkg/logger"
	"github.com/printforge/fleetd/pkg/models"
)

// fakeClock is a manually advanced lifecycle.Clock.
type fakeClock struct {
	mu   sync.Mutex
	now  time.Time
	tick chan time.Time
}

func newFakeClock(start time.Time) *fakeClock {
	return &fakeClock{now: start, tick: make(chan time.Time, 1)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func (c *fakeClock) Ticker(_ time.Duration) lifecycle.Ticker { return fakeTicker{c: c} }

type fakeTicker struct{ c *fakeClock }

func (t fakeTicker) Chan() <-chan time.Time { return t.c.tick }
func (t fakeTicker) Stop()                  {}

func newTestManager(factory backend.Factory, clk lifecycle.Clock) *Manager {
	return NewManager(Config{}, factory, clk, logger.NewTestLogger())
}

func validSession(clk *fakeClock) *models.UserSession {
	return &models.UserSession{
		UserID:          "u1",
		Token:           "access-token",
		RefreshToken:    "refresh-token",
		TokenExpireTime: clk.Now().Add(time.Hour).Unix(),
	}
}

func TestSignInRequiresCredentials(t *testing.T) {
	ctrl := gomock.NewController(t)
	m := newTestManager(backend.NewMockFactory(ctrl), newFakeClock(time.Now()))

	err := m.SignIn(context.Background(), nil)
	assert.True(t, fleeterr.IsKind(err, fleeterr.KindAuthInvalid))

	err = m.SignIn(context.Background(), &models.UserSession{UserID: "u1"})
	assert.True(t, fleeterr.IsKind(err, fleeterr.KindAuthInvalid))

	err = m.SignIn(context.Background(), &models.UserSession{Token: "tok"})
	assert.True(t, fleeterr.IsKind(err, fleeterr.KindAuthInvalid))
}

func TestSignInEstablishesConnection(t *testing.T) {
	ctrl := gomock.NewController(t)
	clk := newFakeClock(time.Now())

	factory := backend.NewMockFactory(ctrl)
	ub := backend.NewMockUserBackend(ctrl)

	factory.EXPECT().CreateUserNetwork(gomock.Any()).Return(ub)
	ub.EXPECT().ConnectIoT(gomock.Any(), gomock.Any()).Return(&models.UserSession{Nickname: "Sam", Avatar: "http://a/avatar.png"}, nil)
	ub.EXPECT().BoundPrinters(gomock.Any()).Return(nil, nil).AnyTimes()
	ub.EXPECT().Disconnect().AnyTimes()

	m := newTestManager(factory, clk)

	require.NoError(t, m.SignIn(context.Background(), validSession(clk)))

	assert.Equal(t, models.LoginStatusSuccess, m.LoginStatus())

	sess := m.Session()
	require.NotNil(t, sess)
	assert.Equal(t, "Sam", sess.Nickname, "profile fields from the cloud merge into the session")
	assert.Equal(t, "http://a/avatar.png", sess.Avatar)
}

func TestConnectFailureClassification(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want models.LoginStatus
	}{
		{name: "auth rejected", err: fleeterr.New(fleeterr.KindAuthInvalid, "bad token"), want: models.LoginStatusOfflineInvalidToken},
		{name: "account gone", err: fleeterr.New(fleeterr.KindNotFound, "no such user"), want: models.LoginStatusOfflineInvalidUser},
		{name: "network down", err: fleeterr.New(fleeterr.KindNetworkUnavailable, "dns"), want: models.LoginStatusOffline},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			clk := newFakeClock(time.Now())

			factory := backend.NewMockFactory(ctrl)
			ub := backend.NewMockUserBackend(ctrl)

			factory.EXPECT().CreateUserNetwork(gomock.Any()).Return(ub)
			ub.EXPECT().ConnectIoT(gomock.Any(), gomock.Any()).Return(nil, tt.err)
			ub.EXPECT().Disconnect()

			m := newTestManager(factory, clk)

			require.NoError(t, m.SignIn(context.Background(), validSession(clk)))
			assert.Equal(t, tt.want, m.LoginStatus())
		})
	}
}

func TestTerminalStatusStopsTheLoop(t *testing.T) {
	ctrl := gomock.NewController(t)
	clk := newFakeClock(time.Now())

	// No factory expectations: a terminal session must trigger no calls.
	factory := backend.NewMockFactory(ctrl)
	m := newTestManager(factory, clk)

	m.mu.Lock()
	m.session = validSession(clk)
	m.session.LoginStatus = models.LoginStatusOfflineInvalidToken
	m.mu.Unlock()

	m.tick(context.Background())

	assert.Equal(t, models.LoginStatusOfflineInvalidToken, m.LoginStatus())
}

func TestTransientFailureRetriedNextTick(t *testing.T) {
	ctrl := gomock.NewController(t)
	clk := newFakeClock(time.Now())

	factory := backend.NewMockFactory(ctrl)
	ub := backend.NewMockUserBackend(ctrl)

	gomock.InOrder(
		factory.EXPECT().CreateUserNetwork(gomock.Any()).Return(ub),
		ub.EXPECT().ConnectIoT(gomock.Any(), gomock.Any()).Return(nil, fleeterr.New(fleeterr.KindTimeout, "slow")),
		ub.EXPECT().Disconnect(),
		factory.EXPECT().CreateUserNetwork(gomock.Any()).Return(ub),
		ub.EXPECT().ConnectIoT(gomock.Any(), gomock.Any()).Return(&models.UserSession{}, nil),
	)
	ub.EXPECT().BoundPrinters(gomock.Any()).Return(nil, nil).AnyTimes()
	ub.EXPECT().Disconnect().AnyTimes()

	m := newTestManager(factory, clk)

	require.NoError(t, m.SignIn(context.Background(), validSession(clk)))
	assert.Equal(t, models.LoginStatusOffline, m.LoginStatus())

	m.tick(context.Background())
	assert.Equal(t, models.LoginStatusSuccess, m.LoginStatus())
}

func TestNoAccountAdapterLatchesUnsupported(t *testing.T) {
	ctrl := gomock.NewController(t)
	clk := newFakeClock(time.Now())

	factory := backend.NewMockFactory(ctrl)
	factory.EXPECT().CreateUserNetwork(gomock.Any()).Return(nil).Times(1)

	m := newTestManager(factory, clk)

	require.NoError(t, m.SignIn(context.Background(), validSession(clk)))

	// Further ticks must not retry; the Times(1) above enforces it.
	m.tick(context.Background())
	m.tick(context.Background())
}

func TestNeedsRefresh(t *testing.T) {
	clk := newFakeClock(time.Now())
	m := newTestManager(nil, clk)

	sess := validSession(clk)
	assert.False(t, m.needsRefresh(sess), "fresh token needs no refresh")

	// Inside the refresh margin.
	sess.TokenExpireTime = clk.Now().Add(30 * time.Second).Unix()
	assert.True(t, m.needsRefresh(sess))

	// Opaque token with no known expiry is left alone.
	sess.TokenExpireTime = 0
	assert.False(t, m.needsRefresh(sess))
}

func TestSignOutDropsConnection(t *testing.T) {
	ctrl := gomock.NewController(t)
	clk := newFakeClock(time.Now())

	factory := backend.NewMockFactory(ctrl)
	ub := backend.NewMockUserBackend(ctrl)

	factory.EXPECT().CreateUserNetwork(gomock.Any()).Return(ub)
	ub.EXPECT().ConnectIoT(gomock.Any(), gomock.Any()).Return(&models.UserSession{}, nil)
	ub.EXPECT().BoundPrinters(gomock.Any()).Return(nil, nil).AnyTimes()
	ub.EXPECT().Disconnect().Times(1)

	m := newTestManager(factory, clk)

	require.NoError(t, m.SignIn(context.Background(), validSession(clk)))
	m.SignOut()

	assert.Nil(t, m.Session())
	assert.Equal(t, models.LoginStatusNotLogin, m.LoginStatus())
}

func TestStatePersistRoundTrip(t *testing.T) {
	ctrl := gomock.NewController(t)
	clk := newFakeClock(time.Now())
	path := filepath.Join(t.TempDir(), "session.json")

	factory := backend.NewMockFactory(ctrl)
	ub := backend.NewMockUserBackend(ctrl)

	factory.EXPECT().CreateUserNetwork(gomock.Any()).Return(ub)
	ub.EXPECT().ConnectIoT(gomock.Any(), gomock.Any()).Return(&models.UserSession{}, nil)
	ub.EXPECT().BoundPrinters(gomock.Any()).Return(nil, nil).AnyTimes()
	ub.EXPECT().Disconnect().AnyTimes()

	m := NewManager(Config{StatePath: path}, factory, clk, logger.NewTestLogger())
	require.NoError(t, m.SignIn(context.Background(), validSession(clk)))

	// A fresh manager restores the account but demands re-authentication.
	restored := NewManager(Config{StatePath: path}, backend.NewMockFactory(ctrl), clk, logger.NewTestLogger())
	require.NoError(t, restored.LoadState())

	sess := restored.Session()
	require.NotNil(t, sess)
	assert.Equal(t, "u1", sess.UserID)
	assert.Equal(t, models.LoginStatusNotLogin, sess.LoginStatus)
}

func TestStatePreservesTerminalStatus(t *testing.T) {
	ctrl := gomock.NewController(t)
	clk := newFakeClock(time.Now())
	path := filepath.Join(t.TempDir(), "session.json")

	m := NewManager(Config{StatePath: path}, backend.NewMockFactory(ctrl), clk, logger.NewTestLogger())

	m.mu.Lock()
	m.session = validSession(clk)
	m.session.LoginStatus = models.LoginStatusOfflineInvalidToken
	m.mu.Unlock()

	m.persistState()

	restored := NewManager(Config{StatePath: path}, backend.NewMockFactory(ctrl), clk, logger.NewTestLogger())
	require.NoError(t, restored.LoadState())

	assert.Equal(t, models.LoginStatusOfflineInvalidToken, restored.LoginStatus())
}

func TestSignOutRemovesStateFile(t *testing.T) {
	ctrl := gomock.NewController(t)
	clk := newFakeClock(time.Now())
	path := filepath.Join(t.TempDir(), "session.json")

	m := NewManager(Config{StatePath: path}, backend.NewMockFactory(ctrl), clk, logger.NewTestLogger())

	m.mu.Lock()
	m.session = validSession(clk)
	m.mu.Unlock()

	m.persistState()
	m.SignOut()

	restored := NewManager(Config{StatePath: path}, backend.NewMockFactory(ctrl), clk, logger.NewTestLogger())
	require.NoError(t, restored.LoadState())
	assert.Nil(t, restored.Session())
}

func TestFetchBoundPrintersTagsWAN(t *testing.T) {
	ctrl := gomock.NewController(t)
	clk := newFakeClock(time.Now())

	factory := backend.NewMockFactory(ctrl)
	ub := backend.NewMockUserBackend(ctrl)

	factory.EXPECT().CreateUserNetwork(gomock.Any()).Return(ub)
	ub.EXPECT().ConnectIoT(gomock.Any(), gomock.Any()).Return(&models.UserSession{}, nil)
	ub.EXPECT().BoundPrinters(gomock.Any()).Return([]*models.PrinterRecord{
		{SerialNumber: "SN-1", Name: "Office"},
	}, nil).AnyTimes()
	ub.EXPECT().Disconnect().AnyTimes()

	m := newTestManager(factory, clk)
	require.NoError(t, m.SignIn(context.Background(), validSession(clk)))

	bound, err := m.FetchBoundPrinters(context.Background())
	require.NoError(t, err)
	require.Len(t, bound, 1)
	assert.Equal(t, models.NetworkWAN, bound[0].NetworkType)
}

func TestFetchBoundPrintersWithoutConnection(t *testing.T) {
	ctrl := gomock.NewController(t)
	m := newTestManager(backend.NewMockFactory(ctrl), newFakeClock(time.Now()))

	_, err := m.FetchBoundPrinters(context.Background())
	assert.True(t, fleeterr.IsKind(err, fleeterr.KindNetworkUnavailable))
}

func TestBindRequiresLogin(t *testing.T) {
	ctrl := gomock.NewController(t)
	m := newTestManager(backend.NewMockFactory(ctrl), newFakeClock(time.Now()))

	err := m.Bind(context.Background(), &models.PrinterRecord{SerialNumber: "SN-1"})
	assert.True(t, fleeterr.IsKind(err, fleeterr.KindAuthInvalid))
}
