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

import (
	"fmt"
	"time"
)

// EventType identifies one of the four event channels of the core bus.
type EventType string

const (
	EventConnectStatus EventType = "connect_status"
	EventDeviceStatus  EventType = "device_status"
	EventPrintTask     EventType = "print_task"
	EventAttributes    EventType = "attributes"
)

// EventTypes lists every bus channel, in a stable order.
func EventTypes() []EventType {
	return []EventType{EventConnectStatus, EventDeviceStatus, EventPrintTask, EventAttributes}
}

// Event is one tagged notification on the bus. Exactly the payload field
// matching Type is set; the others stay nil/zero.
type Event struct {
	Type        EventType   `json:"type"`
	PrinterID   string      `json:"printer_id"`
	NetworkType NetworkType `json:"network_type"`
	Timestamp   time.Time   `json:"timestamp"`

	ConnectStatus ConnectStatus `json:"connect_status,omitempty"`
	PrinterStatus PrinterStatus `json:"printer_status,omitempty"`
	PrintTask     *PrintTask    `json:"print_task,omitempty"`
	Attributes    *Attributes   `json:"attributes,omitempty"`
}

// NATSConfig configures NATS connectivity for the event export bridge.
type NATSConfig struct {
	URL    string `json:"url"`
	Domain string `json:"domain,omitempty"`
}

// Validate ensures the NATS configuration is valid.
func (c *NATSConfig) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("nats url is required")
	}

	return nil
}

// EventsConfig configures the optional event export stream.
type EventsConfig struct {
	Enabled       bool   `json:"enabled"`
	StreamName    string `json:"stream_name"`
	SubjectPrefix string `json:"subject_prefix"`
}

// Validate ensures the events configuration is valid.
func (c *EventsConfig) Validate() error {
	if !c.Enabled {
		return nil
	}

	if c.StreamName == "" {
		c.StreamName = "events"
	}

	if c.SubjectPrefix == "" {
		c.SubjectPrefix = "events.printer"
	}

	return nil
}

// CloudEvent represents a CloudEvents v1.0 compliant event envelope used by
// the NATS export bridge.
type CloudEvent struct {
	SpecVersion     string      `json:"specversion"`
	ID              string      `json:"id"`
	Source          string      `json:"source"`
	Type            string      `json:"type"`
	DataContentType string      `json:"datacontenttype"`
	Subject         string      `json:"subject,omitempty"`
	Time            *time.Time  `json:"time,omitempty"`
	Data            interface{} `json:"data,omitempty"`
}
