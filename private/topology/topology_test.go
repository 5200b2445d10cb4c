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

package topology

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/upsm-netlab/flowgate/pkg/floodlight"
	"github.com/upsm-netlab/flowgate/pkg/private/serrors"
	"github.com/upsm-netlab/flowgate/private/env"
)

type fakeController struct {
	devices    []floodlight.Device
	devicesErr error
	hops       []floodlight.Hop
	routeErr   error
	calls      int
}

func (f *fakeController) Devices(ctx context.Context) ([]floodlight.Device, error) {
	f.calls++
	return f.devices, f.devicesErr
}

func (f *fakeController) Route(ctx context.Context, src, dst floodlight.Attachment) ([]floodlight.Hop, error) {
	return f.hops, f.routeErr
}

func testCfg() env.Topology {
	return env.Topology{
		Static: map[string]env.Attachment{
			"AA-BB-CC-DD-EE-02": {Switch: "00:00:05", Port: 4},
		},
		Default:   env.Attachment{Switch: "00:00:09", Port: 3},
		ServerMAC: "fa:16:3e:6c:a0:7c",
	}
}

func TestNormalizeMAC(t *testing.T) {
	want := NormalizeMAC("aa:bb:cc:dd:ee:01")
	assert.Equal(t, want, NormalizeMAC("AA-BB-CC-DD-EE-01"))
	assert.Equal(t, want, NormalizeMAC("aabb.ccdd.ee01"))
	assert.NotEqual(t, want, NormalizeMAC("aa:bb:cc:dd:ee:02"))
}

func TestLocateController(t *testing.T) {
	fc := &fakeController{
		devices: []floodlight.Device{
			{MACs: []string{"11:22:33:44:55:66"}},
			{
				MACs:             []string{"AA:BB:CC:DD:EE:01"},
				AttachmentPoints: []floodlight.Attachment{{DPID: "00:00:01", Port: 2}},
			},
		},
	}
	r := NewResolver(fc, fc, testCfg())

	at, src, err := r.Locate(context.Background(), "aa-bb-cc-dd-ee-01")
	require.NoError(t, err)
	assert.Equal(t, SourceController, src)
	assert.Equal(t, floodlight.Attachment{DPID: "00:00:01", Port: 2}, at)

	// Second lookup is served from the cache.
	_, _, err = r.Locate(context.Background(), "aa:bb:cc:dd:ee:01")
	require.NoError(t, err)
	assert.Equal(t, 1, fc.calls)
}

func TestLocateStaticFallback(t *testing.T) {
	fc := &fakeController{devicesErr: serrors.New("connection refused")}
	r := NewResolver(fc, fc, testCfg())

	at, src, err := r.Locate(context.Background(), "aa:bb:cc:dd:ee:02")
	require.NoError(t, err)
	assert.Equal(t, SourceStatic, src)
	assert.True(t, src.Degraded())
	assert.Equal(t, floodlight.Attachment{DPID: "00:00:05", Port: 4}, at)
}

func TestLocateDefaultFallback(t *testing.T) {
	fc := &fakeController{devices: []floodlight.Device{}}
	r := NewResolver(fc, fc, testCfg())

	at, src, err := r.Locate(context.Background(), "de:ad:be:ef:00:01")
	require.NoError(t, err)
	assert.Equal(t, SourceDefault, src)
	assert.Equal(t, floodlight.Attachment{DPID: "00:00:09", Port: 3}, at)
}

func TestLocateNoDefault(t *testing.T) {
	cfg := testCfg()
	cfg.Default = env.Attachment{}
	fc := &fakeController{devicesErr: serrors.New("down")}
	r := NewResolver(fc, fc, cfg)

	_, _, err := r.Locate(context.Background(), "de:ad:be:ef:00:01")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRouteController(t *testing.T) {
	fc := &fakeController{hops: []floodlight.Hop{
		{Switch: "00:00:01", Port: 3},
		{Switch: "00:00:02", Port: 1},
	}}
	r := NewResolver(fc, fc, testCfg())

	p, err := r.Route(context.Background(),
		floodlight.Attachment{DPID: "00:00:01", Port: 2},
		floodlight.Attachment{DPID: "00:00:02", Port: 1})
	require.NoError(t, err)
	assert.Equal(t, OriginController, p.Origin)
	assert.Len(t, p.Hops, 2)
}

func TestRouteSynthesizedSameSwitch(t *testing.T) {
	fc := &fakeController{routeErr: serrors.New("down")}
	r := NewResolver(fc, fc, testCfg())

	p, err := r.Route(context.Background(),
		floodlight.Attachment{DPID: "00:00:01", Port: 2},
		floodlight.Attachment{DPID: "00:00:01", Port: 5})
	require.NoError(t, err)
	assert.Equal(t, OriginSynthesized, p.Origin)
	assert.Equal(t, []floodlight.Hop{{Switch: "00:00:01", Port: 5}}, p.Hops)
}

func TestRouteSynthesizedTwoSwitches(t *testing.T) {
	// An empty controller answer degrades the same way as an error.
	fc := &fakeController{hops: nil}
	r := NewResolver(fc, fc, testCfg())

	p, err := r.Route(context.Background(),
		floodlight.Attachment{DPID: "00:00:01", Port: 2},
		floodlight.Attachment{DPID: "00:00:02", Port: 5})
	require.NoError(t, err)
	assert.Equal(t, OriginSynthesized, p.Origin)
	assert.Equal(t, []floodlight.Hop{
		{Switch: "00:00:01", Port: 1},
		{Switch: "00:00:02", Port: 5},
	}, p.Hops)
}

func TestServerMAC(t *testing.T) {
	r := NewResolver(nil, nil, testCfg())

	mac, err := r.ServerMAC("02:00:00:00:00:01")
	require.NoError(t, err)
	assert.Equal(t, "02:00:00:00:00:01", mac)

	mac, err = r.ServerMAC("")
	require.NoError(t, err)
	assert.Equal(t, "fa:16:3e:6c:a0:7c", mac)

	cfg := testCfg()
	cfg.ServerMAC = ""
	r = NewResolver(nil, nil, cfg)
	_, err = r.ServerMAC("")
	assert.ErrorIs(t, err, ErrNotFound)
}
