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

// Package topology resolves host attachment points and computes paths
// through the fabric. The controller is the source of truth; when it is
// unreachable or has no answer the resolver degrades to a configured
// static table and finally to a fixed default, and every degraded answer
// is flagged as such in the result.
package topology

import (
	"context"
	"strings"
	"time"

	cache "github.com/patrickmn/go-cache"

	"github.com/upsm-netlab/flowgate/pkg/floodlight"
	"github.com/upsm-netlab/flowgate/pkg/log"
	"github.com/upsm-netlab/flowgate/pkg/private/prom"
	"github.com/upsm-netlab/flowgate/pkg/private/serrors"
	"github.com/upsm-netlab/flowgate/private/env"
)

// ErrUnavailable indicates that the controller could not answer a topology
// query. Callers that receive a degraded result instead of this error got
// a usable fallback.
var ErrUnavailable = serrors.New("topology unavailable")

// ErrNotFound indicates that a host is known to neither the controller nor
// the static table and no default attachment is configured.
var ErrNotFound = serrors.New("attachment point not found")

// Source states where an attachment answer came from.
type Source int

// Attachment answer sources, from authoritative to most degraded.
const (
	SourceController Source = iota
	SourceStatic
	SourceDefault
)

func (s Source) String() string {
	switch s {
	case SourceController:
		return "controller"
	case SourceStatic:
		return "static"
	default:
		return "default"
	}
}

// Degraded reports whether the answer did not come from the controller.
func (s Source) Degraded() bool { return s != SourceController }

// Origin states how a path was computed.
type Origin int

// Path origins.
const (
	// OriginController marks a path verified by the controller.
	OriginController Origin = iota
	// OriginSynthesized marks the minimal offline approximation.
	OriginSynthesized
)

func (o Origin) String() string {
	if o == OriginController {
		return "controller"
	}
	return "synthesized"
}

// Path is an ordered sequence of (switch, egress port) hops plus the
// origin of the computation.
type Path struct {
	Hops   []floodlight.Hop
	Origin Origin
}

// NormalizeMAC lowercases a hardware address and strips the common
// separator styles so differently formatted addresses compare equal.
func NormalizeMAC(mac string) string {
	r := strings.NewReplacer(":", "", "-", "", ".", "")
	return r.Replace(strings.ToLower(mac))
}

// Resolver answers attachment and path queries.
type Resolver struct {
	devices floodlight.DeviceLister
	routes  floodlight.RouteQuerier
	cfg     env.Topology
	cache   *cache.Cache
}

// NewResolver creates a resolver backed by the given controller client and
// the configured offline approximation.
func NewResolver(devices floodlight.DeviceLister, routes floodlight.RouteQuerier,
	cfg env.Topology) *Resolver {

	ttl := cfg.CacheTTL.Duration
	if ttl <= 0 {
		ttl = env.DefaultCacheTTL
	}
	return &Resolver{
		devices: devices,
		routes:  routes,
		cfg:     cfg,
		cache:   cache.New(ttl, 10*time.Minute),
	}
}

// Locate resolves the attachment point of the host with the given hardware
// address. The controller's device registry is authoritative; the static
// table and the configured default are degraded fallbacks, reflected in
// the returned Source and logged.
func (r *Resolver) Locate(ctx context.Context, mac string) (floodlight.Attachment, Source, error) {
	logger := log.FromCtx(ctx)
	norm := NormalizeMAC(mac)

	if entry, ok := r.cache.Get(norm); ok {
		return entry.(floodlight.Attachment), SourceController, nil
	}

	at, err := r.locateController(ctx, norm)
	switch {
	case err == nil:
		r.cache.SetDefault(norm, at)
		return at, SourceController, nil
	case serrors.IsTimeout(err):
		logger.Info("Controller timed out on device query, degrading", "mac", mac)
	default:
		logger.Info("Controller device query failed, degrading", "mac", mac, "err", err)
	}
	fallbacks.WithLabelValues(opLocate, SourceStatic.String()).Inc()

	for staticMAC, at := range r.cfg.Static {
		if NormalizeMAC(staticMAC) == norm {
			logger.Info("Attachment resolved from static table",
				"mac", mac, "switch", at.Switch, "port", at.Port)
			return floodlight.Attachment{DPID: at.Switch, Port: at.Port}, SourceStatic, nil
		}
	}

	if r.cfg.Default.Switch == "" {
		return floodlight.Attachment{}, SourceDefault,
			serrors.Join(ErrNotFound, nil, "mac", mac)
	}
	fallbacks.WithLabelValues(opLocate, SourceDefault.String()).Inc()
	logger.Info("Attachment resolved to configured default",
		"mac", mac, "switch", r.cfg.Default.Switch, "port", r.cfg.Default.Port)
	return floodlight.Attachment{
		DPID: r.cfg.Default.Switch,
		Port: r.cfg.Default.Port,
	}, SourceDefault, nil
}

func (r *Resolver) locateController(ctx context.Context, norm string) (floodlight.Attachment, error) {
	devices, err := r.devices.Devices(ctx)
	if err != nil {
		return floodlight.Attachment{}, serrors.Join(ErrUnavailable, err)
	}
	for _, d := range devices {
		for _, devMAC := range d.MACs {
			if NormalizeMAC(devMAC) != norm {
				continue
			}
			if len(d.AttachmentPoints) == 0 {
				continue
			}
			return d.AttachmentPoints[0], nil
		}
	}
	return floodlight.Attachment{}, serrors.Join(ErrUnavailable, nil,
		"reason", "device not in registry")
}

// Route computes the hop sequence from src to dst. On controller failure a
// minimal path is synthesized so disconnected or simulated environments
// stay usable; the Origin field distinguishes the two cases.
func (r *Resolver) Route(ctx context.Context, src, dst floodlight.Attachment) (Path, error) {
	logger := log.FromCtx(ctx)

	hops, err := r.routes.Route(ctx, src, dst)
	if err == nil && len(hops) > 0 {
		return Path{Hops: hops, Origin: OriginController}, nil
	}
	if err != nil {
		logger.Info("Controller route query failed, synthesizing path",
			"src", src.DPID, "dst", dst.DPID, "err", err)
	} else {
		logger.Info("Controller returned no route, synthesizing path",
			"src", src.DPID, "dst", dst.DPID)
	}
	fallbacks.WithLabelValues(opRoute, OriginSynthesized.String()).Inc()

	if src.DPID == dst.DPID {
		return Path{
			Hops:   []floodlight.Hop{{Switch: src.DPID, Port: dst.Port}},
			Origin: OriginSynthesized,
		}, nil
	}
	return Path{
		Hops: []floodlight.Hop{
			{Switch: src.DPID, Port: 1},
			{Switch: dst.DPID, Port: dst.Port},
		},
		Origin: OriginSynthesized,
	}, nil
}

// ServerMAC returns the hardware address to locate a server by: the
// catalog-provided address when present, the configured fallback
// otherwise.
func (r *Resolver) ServerMAC(catalogMAC string) (string, error) {
	if catalogMAC != "" {
		return catalogMAC, nil
	}
	if r.cfg.ServerMAC == "" {
		return "", serrors.Join(ErrNotFound, nil,
			"reason", "server has no hardware address and no default is configured")
	}
	return r.cfg.ServerMAC, nil
}

// Operation labels for fallback metrics.
const (
	opLocate = "locate"
	opRoute  = "route"
)

var fallbacks = prom.NewCounterVec("topology", "fallbacks_total",
	"Topology answers served from a degraded source.",
	[]string{prom.LabelOperation, prom.LabelSource})
