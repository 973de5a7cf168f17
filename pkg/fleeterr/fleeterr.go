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

// Package fleeterr carries the error kind taxonomy shared by the fleet core.
// Public API calls return *Error values so callers can branch on Kind;
// background loops use Retryable to decide between retrying next tick and
// parking a record in a terminal status.
package fleeterr

import (
	"context"
	"errors"
	"fmt"
)

// Kind classifies an error for propagation policy decisions.
type Kind string

const (
	KindUnknown             Kind = "unknown"
	KindNotFound            Kind = "not_found"
	KindAlreadyExists       Kind = "already_exists"
	KindIdentityMismatch    Kind = "identity_mismatch"
	KindAuthInvalid         Kind = "auth_invalid"
	KindNetworkUnavailable  Kind = "network_unavailable"
	KindBusy                Kind = "busy"
	KindUnsupportedHostType Kind = "unsupported_host_type"
	KindInvalidResponse     Kind = "invalid_response"
	KindTimeout             Kind = "timeout"
)

// Retryable reports whether the kind is transient: the condition may clear
// on its own and a background loop should simply try again next tick.
func (k Kind) Retryable() bool {
	switch k {
	case KindNetworkUnavailable, KindBusy, KindTimeout:
		return true
	default:
		return false
	}
}

// Error is a kinded error with a human-readable message and optional cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}

	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches two *Error values by kind, so errors.Is(err, fleeterr.New(kind, ""))
// style sentinels work across wrapping.
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}

	return e.Kind == other.Kind
}

// New builds a kinded error from a format string.
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and message to an underlying cause.
func Wrap(kind Kind, err error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf extracts the kind from an error chain. Deadline expiry maps to
// Timeout; anything unclassified is NetworkUnavailable so background loops
// treat it as transient rather than terminal.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}

	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}

	return KindNetworkUnavailable
}

// IsKind reports whether the error chain carries the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}

	return e.Kind == kind
}
