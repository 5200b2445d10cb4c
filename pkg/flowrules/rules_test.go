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

package flowrules_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/upsm-netlab/flowgate/pkg/catalog"
	"github.com/upsm-netlab/flowgate/pkg/floodlight"
	"github.com/upsm-netlab/flowgate/pkg/flowrules"
)

var testSpec = flowrules.Spec{
	ConnID:      "abc123",
	UserMAC:     "aa:bb:cc:dd:ee:01",
	ServerAddr:  "10.0.0.10",
	Protocol:    catalog.TCP,
	ServicePort: 80,
	UserPort:    2,
}

func TestHopRules(t *testing.T) {
	hop := floodlight.Hop{Switch: "00:00:01", Port: 3}
	rules := flowrules.HopRules(testSpec, hop, 2)
	require.Len(t, rules, 4)

	forward := rules[0]
	assert.Equal(t, "fg-abc123-fwd-00:00:01-2-3", forward.Name)
	assert.Equal(t, 2, forward.Match.InPort)
	assert.Equal(t, 3, forward.OutPort)
	assert.Equal(t, "aa:bb:cc:dd:ee:01", forward.Match.EthSrc)
	require.NotNil(t, forward.Match.IP)
	assert.Equal(t, "10.0.0.10", forward.Match.IP.Dst)
	assert.Equal(t, uint16(80), forward.Match.IP.DstPort)

	reverse := rules[1]
	assert.Equal(t, 3, reverse.Match.InPort)
	assert.Equal(t, 2, reverse.OutPort)
	assert.Equal(t, "aa:bb:cc:dd:ee:01", reverse.Match.EthDst)
	require.NotNil(t, reverse.Match.IP)
	assert.Equal(t, "10.0.0.10", reverse.Match.IP.Src)
	assert.Equal(t, uint16(80), reverse.Match.IP.SrcPort)

	arpForward, arpReverse := rules[2], rules[3]
	assert.Equal(t, flowrules.EthARP, arpForward.Match.EthType)
	assert.Nil(t, arpForward.Match.IP)
	assert.Equal(t, "aa:bb:cc:dd:ee:01", arpForward.Match.EthSrc)
	assert.Equal(t, flowrules.EthARP, arpReverse.Match.EthType)
	assert.Equal(t, "aa:bb:cc:dd:ee:01", arpReverse.Match.EthDst)
	assert.Equal(t, 2, arpReverse.OutPort)
}

func TestConnectionRulesIngressChaining(t *testing.T) {
	path := []floodlight.Hop{
		{Switch: "00:00:01", Port: 3},
		{Switch: "00:00:02", Port: 1},
	}
	rules := flowrules.ConnectionRules(testSpec, path)
	require.Len(t, rules, 8)

	// First hop ingress is the user's attachment port.
	assert.Equal(t, 2, rules[0].Match.InPort)
	// Second hop ingress is the first hop's egress port.
	assert.Equal(t, 3, rules[4].Match.InPort)
	assert.Equal(t, 1, rules[4].OutPort)
}

func TestRuleNamesUnique(t *testing.T) {
	path := []floodlight.Hop{
		{Switch: "00:00:01", Port: 3},
		{Switch: "00:00:02", Port: 1},
	}
	seen := map[string]bool{}
	for _, r := range flowrules.ConnectionRules(testSpec, path) {
		assert.False(t, seen[r.Name], "duplicate rule name %s", r.Name)
		seen[r.Name] = true
	}

	// A different connection over the same path yields disjoint names.
	other := testSpec
	other.ConnID = "def456"
	for _, r := range flowrules.ConnectionRules(other, path) {
		assert.False(t, seen[r.Name], "rule name collision across connections %s", r.Name)
	}
}

func TestWireFlowModTCP(t *testing.T) {
	rules := flowrules.HopRules(testSpec, floodlight.Hop{Switch: "00:00:01", Port: 3}, 2)
	fm := rules[0].WireFlowMod()
	assert.Equal(t, floodlight.FlowMod{
		Switch:   "00:00:01",
		Name:     "fg-abc123-fwd-00:00:01-2-3",
		Cookie:   "0",
		Priority: "32768",
		Active:   "true",
		InPort:   "2",
		EthSrc:   "aa:bb:cc:dd:ee:01",
		EthType:  "0x0800",
		IPv4Dst:  "10.0.0.10",
		IPProto:  "6",
		TCPDst:   "80",
		Actions:  "output=3",
	}, fm)

	arp := rules[3].WireFlowMod()
	assert.Equal(t, "0x0806", arp.EthType)
	assert.Empty(t, arp.IPProto)
	assert.Equal(t, "output=2", arp.Actions)
}

func TestWireFlowModUDP(t *testing.T) {
	spec := testSpec
	spec.Protocol = catalog.UDP
	spec.ServicePort = 53

	rules := flowrules.HopRules(spec, floodlight.Hop{Switch: "00:00:01", Port: 3}, 2)
	fm := rules[0].WireFlowMod()
	assert.Equal(t, "17", fm.IPProto)
	assert.Equal(t, "53", fm.UDPDst)
	assert.Empty(t, fm.TCPDst)

	rev := rules[1].WireFlowMod()
	assert.Equal(t, "53", rev.UDPSrc)
	assert.Empty(t, rev.UDPDst)
}
