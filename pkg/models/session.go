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

package models

// LoginStatus is the account session state machine.
//
//	NotLogin -> LoginSuccess
//	LoginSuccess -> Offline (transient network failure, auto-retried)
//	LoginSuccess -> OfflineTokenExpired -> LoginSuccess | OfflineInvalidToken
//	* -> OfflineInvalidToken | OfflineInvalidUser (terminal, interactive re-login)
type LoginStatus string

const (
	LoginStatusNotLogin            LoginStatus = "not_login"
	LoginStatusSuccess             LoginStatus = "login_success"
	LoginStatusOffline             LoginStatus = "offline"
	LoginStatusOfflineTokenExpired LoginStatus = "offline_token_expired"
	LoginStatusOfflineInvalidToken LoginStatus = "offline_invalid_token"
	LoginStatusOfflineInvalidUser  LoginStatus = "offline_invalid_user"
)

// Terminal reports whether the status requires interactive re-login and must
// never be auto-exited by the background refresh loop.
func (s LoginStatus) Terminal() bool {
	return s == LoginStatusOfflineInvalidToken || s == LoginStatusOfflineInvalidUser
}

// UserSession is the singleton signed-in account state. BoundPrinters is
// in-memory only and re-fetched from the cloud on demand.
type UserSession struct {
	UserID   string `json:"user_id"`
	Nickname string `json:"nickname,omitempty"`
	Avatar   string `json:"avatar,omitempty"`
	Email    string `json:"email,omitempty"`
	Region   string `json:"region,omitempty"`

	Token                  string `json:"token,omitempty"`
	RefreshToken           string `json:"refresh_token,omitempty"`
	TokenExpireTime        int64  `json:"token_expire_time,omitempty"`
	RefreshTokenExpireTime int64  `json:"refresh_token_expire_time,omitempty"`
	LastTokenRefreshTime   int64  `json:"last_token_refresh_time,omitempty"`

	LoginStatus LoginStatus `json:"login_status"`

	BoundPrinters []*PrinterRecord `json:"-"`
}

// Clone returns a deep copy of the session.
func (s *UserSession) Clone() *UserSession {
	if s == nil {
		return nil
	}

	out := *s

	if s.BoundPrinters != nil {
		out.BoundPrinters = make([]*PrinterRecord, 0, len(s.BoundPrinters))
		for _, rec := range s.BoundPrinters {
			out.BoundPrinters = append(out.BoundPrinters, rec.Clone())
		}
	}

	return &out
}
