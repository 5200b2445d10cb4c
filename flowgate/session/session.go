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

// Package session ties the catalog, the policy engine, the topology
// resolver and the flow orchestrator into a single-operator session. All
// state is in-memory and lives until the session ends.
package session

import (
	"context"
	"os"

	"github.com/upsm-netlab/flowgate/pkg/catalog"
	"github.com/upsm-netlab/flowgate/pkg/floodlight"
	"github.com/upsm-netlab/flowgate/pkg/log"
	"github.com/upsm-netlab/flowgate/pkg/policy"
	"github.com/upsm-netlab/flowgate/pkg/private/serrors"
	"github.com/upsm-netlab/flowgate/private/env"
	"github.com/upsm-netlab/flowgate/private/orchestrator"
	"github.com/upsm-netlab/flowgate/private/topology"
)

// Session is the mutable state of one operator session. It is driven
// serially by a single caller.
type Session struct {
	store   *catalog.Store
	topo    *topology.Resolver
	orch    *orchestrator.Orchestrator
	manager *orchestrator.Manager
}

// New creates a session with an empty catalog, talking to the controller
// configured in cfg.
func New(cfg env.Config) *Session {
	client := floodlight.NewClient(cfg.Controller.Address, cfg.Controller.Timeout.Duration)
	s := &Session{
		topo: topology.NewResolver(client, client, cfg.Topology),
		orch: orchestrator.NewOrchestrator(client),
	}
	s.setStore(catalog.NewStore())
	return s
}

// setStore swaps the catalog and rebuilds the policy engine and manager
// bound to it. Active connections hold references into the old catalog
// and must be gone before the swap.
func (s *Session) setStore(store *catalog.Store) {
	s.store = store
	s.manager = orchestrator.NewManager(policy.NewEngine(store), s.topo, s.orch)
}

// Store returns the current catalog.
func (s *Session) Store() *catalog.Store {
	return s.store
}

// ImportFile replaces the catalog with the contents of a YAML document.
// Active connections reference the catalog being replaced, so they are
// torn down (best-effort) before the swap.
func (s *Session) ImportFile(ctx context.Context, path string) (catalog.Report, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return catalog.Report{}, serrors.Wrap("reading catalog", err, "file", path)
	}
	store, report, err := catalog.Load(raw)
	if err != nil {
		return report, err
	}
	for _, conn := range s.manager.Registry().List() {
		if err := s.manager.Delete(ctx, conn.ID); err != nil {
			log.FromCtx(ctx).Error("Teardown before catalog reload incomplete",
				"id", conn.ID, "err", err)
		}
	}
	s.setStore(store)
	log.FromCtx(ctx).Info("Catalog imported", "file", path,
		"users", len(store.Users()), "servers", len(store.Servers()),
		"courses", len(store.Courses()), "skipped", len(report.SkippedCourses))
	return report, nil
}

// ExportFile writes the current catalog as a YAML document.
func (s *Session) ExportFile(path string) error {
	raw, err := catalog.Export(s.store)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return serrors.Wrap("writing catalog", err, "file", path)
	}
	return nil
}

// Connect authorizes and installs a connection for the user to the named
// service.
func (s *Session) Connect(ctx context.Context, userID, server, service string) (*orchestrator.Connection, error) {
	return s.manager.Create(ctx, userID, server, service)
}

// Disconnect tears down a connection.
func (s *Session) Disconnect(ctx context.Context, id string) error {
	return s.manager.Delete(ctx, id)
}

// Connections lists the installed connections in creation order.
func (s *Session) Connections() []*orchestrator.Connection {
	return s.manager.Registry().List()
}

// Flows returns the rule names installed for a connection.
func (s *Session) Flows(id string) ([]string, bool) {
	return s.manager.Registry().Flows(id)
}
