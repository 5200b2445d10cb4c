// Copyright 2025 UPSM Networking Lab
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package floodlight is a typed client for the REST surface of a
// Floodlight-style SDN controller: the device registry, the route
// computation service and the static flow pusher. The controller's
// stringly-typed wire format is confined to this package.
package floodlight

import "context"

// Attachment is the (switch, port) pair where a host enters the fabric.
type Attachment struct {
	DPID string `json:"switchDPID"`
	Port int    `json:"port"`
}

// Device is one entry of the controller's device registry.
type Device struct {
	MACs             []string     `json:"mac"`
	AttachmentPoints []Attachment `json:"attachmentPoint"`
}

// Hop is one element of a computed route: traffic is forwarded out of Port
// on Switch.
type Hop struct {
	Switch string `json:"switch"`
	Port   int    `json:"port"`
}

// FlowMod is the static flow pusher's rule descriptor. All match fields
// are strings on the wire; empty fields are omitted. Exactly one of the
// tcp_*/udp_* pairs is set for L4 matches, depending on ip_proto.
type FlowMod struct {
	Switch   string `json:"switch"`
	Name     string `json:"name"`
	Cookie   string `json:"cookie"`
	Priority string `json:"priority"`
	Active   string `json:"active"`
	InPort   string `json:"in_port,omitempty"`
	EthSrc   string `json:"eth_src,omitempty"`
	EthDst   string `json:"eth_dst,omitempty"`
	EthType  string `json:"eth_type,omitempty"`
	IPv4Src  string `json:"ipv4_src,omitempty"`
	IPv4Dst  string `json:"ipv4_dst,omitempty"`
	IPProto  string `json:"ip_proto,omitempty"`
	TCPSrc   string `json:"tcp_src,omitempty"`
	TCPDst   string `json:"tcp_dst,omitempty"`
	UDPSrc   string `json:"udp_src,omitempty"`
	UDPDst   string `json:"udp_dst,omitempty"`
	Actions  string `json:"actions"`
}

// DeviceLister lists the controller's known devices.
type DeviceLister interface {
	Devices(ctx context.Context) ([]Device, error)
}

// RouteQuerier computes a route between two attachment points.
type RouteQuerier interface {
	Route(ctx context.Context, src, dst Attachment) ([]Hop, error)
}

// FlowWriter installs and removes flow rules. Both operations are
// idempotent by rule name on the controller side.
type FlowWriter interface {
	PushFlow(ctx context.Context, fm FlowMod) error
	DeleteFlow(ctx context.Context, name string) error
}
