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

// Package models defines the shared data types for the printer fleet core.
package models

import (
	"github.com/google/uuid"
)

// NetworkType distinguishes directly reachable devices from cloud-bound ones.
type NetworkType string

const (
	NetworkLAN NetworkType = "lan"
	NetworkWAN NetworkType = "wan"
)

// HostType is the protocol family a device speaks. The set of supported
// values is owned by the backend adapters registered with the factory.
type HostType string

// AuthMode selects which credential fields of a PrinterRecord are meaningful.
type AuthMode string

const (
	AuthModeNone       AuthMode = ""
	AuthModePassword   AuthMode = "password"
	AuthModeToken      AuthMode = "token"
	AuthModeAccessCode AuthMode = "access_code"
	AuthModePin        AuthMode = "pin"
)

// ConnectStatus is the observed reachability of a device.
type ConnectStatus string

const (
	ConnectUnknown      ConnectStatus = "unknown"
	ConnectConnected    ConnectStatus = "connected"
	ConnectDisconnected ConnectStatus = "disconnected"
)

// PrinterStatus is the device state as reported by (or inferred about) the
// printer. IdNotMatch and AuthError are terminal for automatic reconnection:
// the orchestrator stops retrying until the user intervenes.
type PrinterStatus string

const (
	PrinterStatusUnknown     PrinterStatus = "unknown"
	PrinterStatusIdle        PrinterStatus = "idle"
	PrinterStatusPrinting    PrinterStatus = "printing"
	PrinterStatusPaused      PrinterStatus = "paused"
	PrinterStatusBusy        PrinterStatus = "busy"
	PrinterStatusError       PrinterStatus = "error"
	PrinterStatusOffline     PrinterStatus = "offline"
	PrinterStatusIdNotMatch  PrinterStatus = "id_not_match"
	PrinterStatusAuthError   PrinterStatus = "auth_error"
	PrinterStatusUnsupported PrinterStatus = "unsupported"
)

// Terminal reports whether a status stops the reconciliation loop from
// retrying the record.
func (s PrinterStatus) Terminal() bool {
	switch s {
	case PrinterStatusIdNotMatch, PrinterStatusAuthError, PrinterStatusUnsupported:
		return true
	default:
		return false
	}
}

// PrintTask is a summary of the active job on a device.
type PrintTask struct {
	TaskID        string  `json:"task_id"`
	FileName      string  `json:"file_name,omitempty"`
	Progress      float64 `json:"progress"`
	CurrentLayer  int     `json:"current_layer,omitempty"`
	TotalLayers   int     `json:"total_layers,omitempty"`
	RemainingSecs int64   `json:"remaining_secs,omitempty"`
	Status        string  `json:"status,omitempty"`
	StartTime     int64   `json:"start_time,omitempty"`
}

// PrinterRecord is one entry in the registry, keyed by PrinterID.
//
// Identity fields (PrinterID, SerialNumber, MainboardID, Vendor, Model,
// HostType, NetworkType) are immutable once set. The PrinterID is assigned
// locally, never by the remote device.
//
// ConnectStatus, PrinterStatus and PrintTask are runtime-only: they carry
// `json:"-"` so persistence strips them and every load starts them at their
// zero values.
type PrinterRecord struct {
	PrinterID    string      `json:"printer_id"`
	SerialNumber string      `json:"serial_number,omitempty"`
	MainboardID  string      `json:"mainboard_id,omitempty"`
	Vendor       string      `json:"vendor,omitempty"`
	Model        string      `json:"model,omitempty"`
	Name         string      `json:"name,omitempty"`
	HostType     HostType    `json:"host_type"`
	NetworkType  NetworkType `json:"network_type"`

	Host       string   `json:"host,omitempty"`
	WebURL     string   `json:"web_url,omitempty"`
	AuthMode   AuthMode `json:"auth_mode,omitempty"`
	Username   string   `json:"username,omitempty"`
	Password   string   `json:"password,omitempty"`
	Token      string   `json:"token,omitempty"`
	AccessCode string   `json:"access_code,omitempty"`
	PinCode    string   `json:"pin_code,omitempty"`

	ConnectStatus ConnectStatus `json:"-"`
	PrinterStatus PrinterStatus `json:"-"`
	PrintTask     *PrintTask    `json:"-"`

	PrintCapabilities  []string `json:"print_capabilities,omitempty"`
	SystemCapabilities []string `json:"system_capabilities,omitempty"`

	AddTime        int64 `json:"add_time"`
	ModifyTime     int64 `json:"modify_time"`
	LastActiveTime int64 `json:"last_active_time"`
}

// NewPrinterID returns a fresh locally generated printer id.
func NewPrinterID() string {
	return uuid.New().String()
}

// Clone returns a deep copy of the record. Registry lookups hand out clones
// so callers never observe a record mutating mid-iteration.
func (r *PrinterRecord) Clone() *PrinterRecord {
	if r == nil {
		return nil
	}

	out := *r

	if r.PrintTask != nil {
		task := *r.PrintTask
		out.PrintTask = &task
	}

	if r.PrintCapabilities != nil {
		out.PrintCapabilities = append([]string(nil), r.PrintCapabilities...)
	}

	if r.SystemCapabilities != nil {
		out.SystemCapabilities = append([]string(nil), r.SystemCapabilities...)
	}

	return &out
}

// Attributes is the identity and capability report a backend returns from a
// freshly connected device.
type Attributes struct {
	SerialNumber       string   `json:"serial_number,omitempty"`
	MainboardID        string   `json:"mainboard_id,omitempty"`
	Vendor             string   `json:"vendor,omitempty"`
	Model              string   `json:"model,omitempty"`
	FirmwareVersion    string   `json:"firmware_version,omitempty"`
	WebURL             string   `json:"web_url,omitempty"`
	PrintCapabilities  []string `json:"print_capabilities,omitempty"`
	SystemCapabilities []string `json:"system_capabilities,omitempty"`
}

// StatusReport is a point-in-time device state snapshot from a backend.
type StatusReport struct {
	PrinterStatus PrinterStatus `json:"printer_status"`
	PrintTask     *PrintTask    `json:"print_task,omitempty"`
}

// Candidate is one device found by discovery, before it becomes a record.
type Candidate struct {
	SerialNumber string   `json:"serial_number,omitempty"`
	MainboardID  string   `json:"mainboard_id,omitempty"`
	Vendor       string   `json:"vendor,omitempty"`
	Model        string   `json:"model,omitempty"`
	Name         string   `json:"name,omitempty"`
	Host         string   `json:"host"`
	HostType     HostType `json:"host_type"`
}

// ConsumableInfo describes loaded filament/resin as reported by a device.
type ConsumableInfo struct {
	Slots []ConsumableSlot `json:"slots,omitempty"`
}

// ConsumableSlot is one material slot on a device.
type ConsumableSlot struct {
	Slot     int    `json:"slot"`
	Material string `json:"material,omitempty"`
	Color    string `json:"color,omitempty"`
	Vendor   string `json:"vendor,omitempty"`
	Empty    bool   `json:"empty,omitempty"`
}

// FileInfo is one entry of a device's stored file listing.
type FileInfo struct {
	Name    string `json:"name"`
	Path    string `json:"path,omitempty"`
	Size    int64  `json:"size,omitempty"`
	ModTime int64  `json:"mod_time,omitempty"`
}

// TaskInfo is one entry of a device's historical task listing.
type TaskInfo struct {
	TaskID    string `json:"task_id"`
	FileName  string `json:"file_name,omitempty"`
	Status    string `json:"status,omitempty"`
	StartTime int64  `json:"start_time,omitempty"`
	EndTime   int64  `json:"end_time,omitempty"`
}
