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

// Package flowrules models forwarding rules and derives the rule set that
// realizes an authorized connection along a path. Rules are typed; the
// controller's stringly wire format is produced only at the boundary.
package flowrules

import (
	"fmt"
	"strconv"

	"github.com/upsm-netlab/flowgate/pkg/catalog"
	"github.com/upsm-netlab/flowgate/pkg/floodlight"
)

// DefaultPriority is the OpenFlow priority used for all connection rules.
const DefaultPriority = 32768

// EthType selects the matched ether type.
type EthType int

// Matched ether types.
const (
	EthIPv4 EthType = iota
	EthARP
)

func (t EthType) wire() string {
	if t == EthARP {
		return "0x0806"
	}
	return "0x0800"
}

// IPMatch is the IPv4/L4 part of a match. Exactly one of SrcPort/DstPort
// is set for the connection rules derived here; a zero port is not
// matched.
type IPMatch struct {
	Src      string
	Dst      string
	Protocol catalog.Protocol
	SrcPort  uint16
	DstPort  uint16
}

// Match is a tagged match variant: ARP rules carry no IP part, data rules
// always do.
type Match struct {
	InPort  int
	EthType EthType
	EthSrc  string
	EthDst  string
	IP      *IPMatch
}

// Rule is a single match+action forwarding instruction for one switch.
// The only action in scope is output on a port.
type Rule struct {
	Switch   string
	Name     string
	Priority int
	Match    Match
	OutPort  int
}

// WireFlowMod serializes the rule into the controller's flow descriptor.
func (r Rule) WireFlowMod() floodlight.FlowMod {
	fm := floodlight.FlowMod{
		Switch:   r.Switch,
		Name:     r.Name,
		Cookie:   "0",
		Priority: strconv.Itoa(r.Priority),
		Active:   "true",
		InPort:   strconv.Itoa(r.Match.InPort),
		EthSrc:   r.Match.EthSrc,
		EthDst:   r.Match.EthDst,
		EthType:  r.Match.EthType.wire(),
		Actions:  fmt.Sprintf("output=%d", r.OutPort),
	}
	if ip := r.Match.IP; ip != nil {
		fm.IPv4Src = ip.Src
		fm.IPv4Dst = ip.Dst
		switch ip.Protocol {
		case catalog.UDP:
			fm.IPProto = "17"
			if ip.SrcPort != 0 {
				fm.UDPSrc = strconv.Itoa(int(ip.SrcPort))
			}
			if ip.DstPort != 0 {
				fm.UDPDst = strconv.Itoa(int(ip.DstPort))
			}
		default:
			fm.IPProto = "6"
			if ip.SrcPort != 0 {
				fm.TCPSrc = strconv.Itoa(int(ip.SrcPort))
			}
			if ip.DstPort != 0 {
				fm.TCPDst = strconv.Itoa(int(ip.DstPort))
			}
		}
	}
	return fm
}

// Spec carries the connection attributes the rule derivation needs.
type Spec struct {
	// ConnID is the process-unique connection identifier; it keys the
	// deterministic rule names.
	ConnID string
	// UserMAC pins the rules to the user's hardware address.
	UserMAC string
	// ServerAddr is the server's network address.
	ServerAddr string
	// Protocol and ServicePort identify the permitted service.
	Protocol    catalog.Protocol
	ServicePort uint16
	// UserPort is the user's attachment port, the ingress of the first hop.
	UserPort int
}

// Rule name kinds, one per rule of a hop.
const (
	kindForward    = "fwd"
	kindReverse    = "rev"
	kindARPForward = "arpfwd"
	kindARPReverse = "arprev"
)

func ruleName(connID, kind, sw string, in, out int) string {
	return fmt.Sprintf("fg-%s-%s-%s-%d-%d", connID, kind, sw, in, out)
}

// HopRules derives the four rules for a single hop in fixed order: forward
// data, reverse data, forward ARP, reverse ARP. The ingress port is the
// user's attachment port on the first hop and the previous hop's egress
// port otherwise.
func HopRules(spec Spec, hop floodlight.Hop, ingress int) []Rule {
	forward := Rule{
		Switch:   hop.Switch,
		Name:     ruleName(spec.ConnID, kindForward, hop.Switch, ingress, hop.Port),
		Priority: DefaultPriority,
		Match: Match{
			InPort:  ingress,
			EthType: EthIPv4,
			EthSrc:  spec.UserMAC,
			IP: &IPMatch{
				Dst:      spec.ServerAddr,
				Protocol: spec.Protocol,
				DstPort:  spec.ServicePort,
			},
		},
		OutPort: hop.Port,
	}
	reverse := Rule{
		Switch:   hop.Switch,
		Name:     ruleName(spec.ConnID, kindReverse, hop.Switch, hop.Port, ingress),
		Priority: DefaultPriority,
		Match: Match{
			InPort:  hop.Port,
			EthType: EthIPv4,
			EthDst:  spec.UserMAC,
			IP: &IPMatch{
				Src:      spec.ServerAddr,
				Protocol: spec.Protocol,
				SrcPort:  spec.ServicePort,
			},
		},
		OutPort: ingress,
	}
	arpForward := Rule{
		Switch:   hop.Switch,
		Name:     ruleName(spec.ConnID, kindARPForward, hop.Switch, ingress, hop.Port),
		Priority: DefaultPriority,
		Match: Match{
			InPort:  ingress,
			EthType: EthARP,
			EthSrc:  spec.UserMAC,
		},
		OutPort: hop.Port,
	}
	arpReverse := Rule{
		Switch:   hop.Switch,
		Name:     ruleName(spec.ConnID, kindARPReverse, hop.Switch, hop.Port, ingress),
		Priority: DefaultPriority,
		Match: Match{
			InPort:  hop.Port,
			EthType: EthARP,
			EthDst:  spec.UserMAC,
		},
		OutPort: ingress,
	}
	return []Rule{forward, reverse, arpForward, arpReverse}
}

// ConnectionRules derives the full ordered rule set for a path, four rules
// per hop.
func ConnectionRules(spec Spec, path []floodlight.Hop) []Rule {
	rules := make([]Rule, 0, 4*len(path))
	ingress := spec.UserPort
	for _, hop := range path {
		rules = append(rules, HopRules(spec, hop, ingress)...)
		ingress = hop.Port
	}
	return rules
}
