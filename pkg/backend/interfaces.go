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

// Package backend defines the polymorphic network adapter interfaces the
// fleet core drives. Concrete vendor adapters live outside this module and
// register themselves with the factory by host type.
package backend

//go:generate mockgen -destination=mock_backend.go -package=backend github.com/printforge/fleetd/pkg/backend Backend,UserBackend,Factory

import (
	"context"

	"github.com/printforge/fleetd/pkg/models"
)

// ProgressFunc reports file transfer progress.
type ProgressFunc func(sent, total int64)

// SendFileParams describes an upload to a device.
type SendFileParams struct {
	LocalPath  string `json:"local_path"`
	RemotePath string `json:"remote_path,omitempty"`
	StartPrint bool   `json:"start_print,omitempty"`
}

// PrintTaskParams describes a print job start request.
type PrintTaskParams struct {
	FileName string            `json:"file_name"`
	Options  map[string]string `json:"options,omitempty"`
}

// Backend is one live protocol adapter for a single device. All blocking
// calls take a context with a bounded deadline supplied by the caller.
//
// Events returns the adapter's push channel. The channel is valid after a
// successful Connect and is closed by Disconnect; the orchestrator pumps it
// onto the event bus for the connection's lifetime.
type Backend interface {
	Connect(ctx context.Context) error
	Disconnect()
	GetAttributes(ctx context.Context) (*models.Attributes, error)
	GetStatus(ctx context.Context) (*models.StatusReport, error)
	Discover(ctx context.Context) ([]*models.Candidate, error)
	SendFile(ctx context.Context, params SendFileParams, progress ProgressFunc) error
	SendPrintTask(ctx context.Context, params PrintTaskParams) error
	GetConsumableInfo(ctx context.Context) (*models.ConsumableInfo, error)
	GetFileList(ctx context.Context) ([]models.FileInfo, error)
	GetTaskList(ctx context.Context) ([]models.TaskInfo, error)
	SendMessage(ctx context.Context, payload []byte) error
	BindWAN(ctx context.Context, record *models.PrinterRecord) error
	UnbindWAN(ctx context.Context, serialNumber string) error
	Events() <-chan models.Event
}

// UserBackend is the account-layer adapter: IoT session, token refresh and
// the account's bound printer list.
type UserBackend interface {
	ConnectIoT(ctx context.Context, session *models.UserSession) (*models.UserSession, error)
	RefreshToken(ctx context.Context, session *models.UserSession) (*models.UserSession, error)
	BoundPrinters(ctx context.Context) ([]*models.PrinterRecord, error)
	Disconnect()
}

// Factory selects adapter implementations by host type. A nil return means
// the host type is unsupported; callers treat that as a hard error and do
// not retry.
type Factory interface {
	CreatePrinterNetwork(record *models.PrinterRecord) Backend
	CreateUserNetwork(session *models.UserSession) UserBackend
	SupportedHostTypes() []models.HostType
}
