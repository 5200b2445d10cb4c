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

package orchestrator

import (
	"context"

	"github.com/google/uuid"

	"github.com/upsm-netlab/flowgate/pkg/flowrules"
	"github.com/upsm-netlab/flowgate/pkg/log"
	"github.com/upsm-netlab/flowgate/pkg/policy"
	"github.com/upsm-netlab/flowgate/pkg/private/serrors"
	"github.com/upsm-netlab/flowgate/private/topology"
)

// ErrUnknownConnection indicates a teardown request for a connection id
// that is not registered.
var ErrUnknownConnection = serrors.New("unknown connection")

// Manager drives the connection lifecycle: policy gates topology and
// installation, and the registry is mutated only by successful (or rolled
// back) orchestration.
type Manager struct {
	policy *policy.Engine
	topo   *topology.Resolver
	orch   *Orchestrator
	reg    *Registry
}

// NewManager wires the lifecycle out of its collaborators.
func NewManager(pe *policy.Engine, topo *topology.Resolver, orch *Orchestrator) *Manager {
	return &Manager{
		policy: pe,
		topo:   topo,
		orch:   orch,
		reg:    NewRegistry(),
	}
}

// Registry exposes the connection table for listing and inspection.
func (m *Manager) Registry() *Registry {
	return m.reg
}

// Create runs the full lifecycle for a connection request. On success the
// returned connection is installed and registered. On failure the returned
// connection carries the rejected state and reason, no partial forwarding
// state remains, and the error identifies the failing step.
func (m *Manager) Create(ctx context.Context, userID, server, service string) (*Connection, error) {
	logger := log.FromCtx(ctx)
	conn := &Connection{
		ID:    uuid.New().String()[:8],
		State: StateRequested,
	}

	decision, err := m.policy.Authorize(userID, server, service)
	if err != nil {
		conn.State, conn.Reason = StateRejected, ReasonUnauthorized
		return conn, err
	}
	conn.State = StateAuthorized
	conn.User = decision.User
	conn.Server = decision.Server
	conn.Service = decision.Service
	conn.Course = decision.Course
	logger.Info("Connection authorized",
		"id", conn.ID, "user", userID, "server", server,
		"service", decision.Service.Name, "course", decision.Course.Code)

	userAt, userSrc, err := m.topo.Locate(ctx, decision.User.MAC)
	if err != nil {
		conn.State, conn.Reason = StateRejected, ReasonNoRoute
		return conn, serrors.Wrap("locating user", err, "id", conn.ID)
	}
	serverMAC, err := m.topo.ServerMAC(decision.Server.MAC)
	if err != nil {
		conn.State, conn.Reason = StateRejected, ReasonNoRoute
		return conn, serrors.Wrap("resolving server hardware address", err, "id", conn.ID)
	}
	serverAt, serverSrc, err := m.topo.Locate(ctx, serverMAC)
	if err != nil {
		conn.State, conn.Reason = StateRejected, ReasonNoRoute
		return conn, serrors.Wrap("locating server", err, "id", conn.ID)
	}
	path, err := m.topo.Route(ctx, userAt, serverAt)
	if err != nil || len(path.Hops) == 0 {
		conn.State, conn.Reason = StateRejected, ReasonNoRoute
		return conn, serrors.Wrap("routing", err, "id", conn.ID)
	}
	conn.State = StatePathed
	conn.Path = path
	logger.Info("Path resolved",
		"id", conn.ID, "hops", len(path.Hops), "origin", path.Origin.String(),
		"user_source", userSrc.String(), "server_source", serverSrc.String())

	rules := flowrules.ConnectionRules(flowrules.Spec{
		ConnID:      conn.ID,
		UserMAC:     decision.User.MAC,
		ServerAddr:  decision.Server.Addr,
		Protocol:    decision.Service.Protocol,
		ServicePort: decision.Service.Port,
		UserPort:    userAt.Port,
	}, path.Hops)

	installed, err := m.orch.Install(ctx, rules)
	if err != nil {
		conn.State, conn.Reason = StateRejected, ReasonInstallFailed
		return conn, err
	}
	conn.State = StateInstalled
	if err := m.reg.Add(conn, installed); err != nil {
		// Registration cannot fail for a freshly generated id; treat it
		// like an install failure and take the rules back out.
		m.orch.rollback(ctx, installed)
		conn.State, conn.Reason = StateRejected, ReasonInstallFailed
		return conn, err
	}
	logger.Info("Connection installed", "id", conn.ID, "rules", len(installed))
	return conn, nil
}

// Delete tears down an installed connection. Rule removal is best-effort:
// the registry entry is cleared even when some removals fail, in which
// case the returned error reports the stuck rules.
func (m *Manager) Delete(ctx context.Context, id string) error {
	conn, ok := m.reg.Get(id)
	if !ok {
		return serrors.Join(ErrUnknownConnection, nil, "id", id)
	}
	names, _ := m.reg.Flows(id)
	err := m.orch.Remove(ctx, names)
	m.reg.Remove(id)
	conn.State = StateTeardown
	log.FromCtx(ctx).Info("Connection removed", "id", id, "rules", len(names),
		"clean", err == nil)
	return err
}
