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
	"github.com/upsm-netlab/flowgate/pkg/catalog"
	"github.com/upsm-netlab/flowgate/pkg/private/serrors"
	"github.com/upsm-netlab/flowgate/private/topology"
)

// State is a connection lifecycle state.
type State string

// Connection lifecycle states. Only installed connections are visible in
// the registry; rejected and torn-down connections are terminal.
const (
	StateRequested  State = "REQUESTED"
	StateAuthorized State = "AUTHORIZED"
	StatePathed     State = "PATHED"
	StateInstalled  State = "INSTALLED"
	StateTeardown   State = "TEARDOWN"
	StateRejected   State = "REJECTED"
)

// Rejection reasons, one per failing lifecycle step.
const (
	ReasonUnauthorized  = "unauthorized"
	ReasonNoRoute       = "no route"
	ReasonInstallFailed = "install failed"
)

// Connection is a live authorization instance. It holds non-owning
// references into the catalog; a catalog reload invalidates it.
type Connection struct {
	ID      string
	User    *catalog.User
	Server  *catalog.Server
	Service catalog.Service
	// Course is the course that authorized the connection.
	Course *catalog.Course
	// Path is the forwarding path; non-empty for any registered connection.
	Path  topology.Path
	State State
	// Reason is set when State is StateRejected.
	Reason string
}

// Registry is the authoritative table of active connections and of the
// rules installed on their behalf. The two tables move in lockstep: a
// connection is added together with its rule names and removal clears the
// rule entry first. Not safe for concurrent use.
type Registry struct {
	conns map[string]*Connection
	flows map[string][]string
	order []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		conns: make(map[string]*Connection),
		flows: make(map[string][]string),
	}
}

// Add registers an installed connection with the rule names installed for
// it. Only installed connections with a non-empty path are accepted.
func (r *Registry) Add(conn *Connection, ruleNames []string) error {
	if conn.State != StateInstalled {
		return serrors.New("only installed connections are registered",
			"id", conn.ID, "state", conn.State)
	}
	if len(conn.Path.Hops) == 0 {
		return serrors.New("connection without path", "id", conn.ID)
	}
	if _, ok := r.conns[conn.ID]; ok {
		return serrors.New("connection already registered", "id", conn.ID)
	}
	r.conns[conn.ID] = conn
	r.flows[conn.ID] = ruleNames
	r.order = append(r.order, conn.ID)
	return nil
}

// Get returns the connection with the given id.
func (r *Registry) Get(id string) (*Connection, bool) {
	c, ok := r.conns[id]
	return c, ok
}

// Flows returns the rule names installed for the connection.
func (r *Registry) Flows(id string) ([]string, bool) {
	f, ok := r.flows[id]
	return f, ok
}

// List returns all connections in registration order.
func (r *Registry) List() []*Connection {
	cs := make([]*Connection, 0, len(r.order))
	for _, id := range r.order {
		cs = append(cs, r.conns[id])
	}
	return cs
}

// Remove drops the connection and its flow entry, returning the rule
// names that were tracked for it. The flow entry goes first so the two
// tables never disagree about a registered connection.
func (r *Registry) Remove(id string) ([]string, bool) {
	if _, ok := r.conns[id]; !ok {
		return nil, false
	}
	names := r.flows[id]
	delete(r.flows, id)
	delete(r.conns, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return names, true
}
