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

// Package policy decides whether a user may reach a service. The decision
// is a pure function of the catalog: no side effects, no network I/O.
package policy

import (
	"github.com/upsm-netlab/flowgate/pkg/catalog"
	"github.com/upsm-netlab/flowgate/pkg/private/serrors"
)

// ErrUnauthorized indicates that no active course covers the requested
// (user, server, service) triple.
var ErrUnauthorized = serrors.New("unauthorized")

// Decision is the result of an authorization check. On an allowed decision
// the resolved entities are populated so callers do not have to look them
// up again.
type Decision struct {
	Allowed bool
	// Course is the first active course authorizing the request, nil when
	// denied.
	Course  *catalog.Course
	User    *catalog.User
	Server  *catalog.Server
	Service catalog.Service
}

// Engine evaluates access requests against the catalog.
type Engine struct {
	catalog *catalog.Store
}

// NewEngine creates an engine bound to the given catalog store.
func NewEngine(store *catalog.Store) *Engine {
	return &Engine{catalog: store}
}

// Authorize checks whether the user may reach the named service on the
// named server. It scans courses in insertion order and reports the first
// active course in which the user is enrolled and that grants the (server,
// service) pair. Unknown entities yield a denial wrapping
// catalog.ErrNotFound; a known triple without a covering grant yields a
// denial wrapping ErrUnauthorized.
func (e *Engine) Authorize(userID, server, service string) (Decision, error) {
	user, err := e.catalog.User(userID)
	if err != nil {
		return Decision{}, err
	}
	srv, err := e.catalog.Server(server)
	if err != nil {
		return Decision{}, err
	}
	svc, ok := srv.Service(service)
	if !ok {
		return Decision{}, serrors.Join(catalog.ErrNotFound, nil,
			"server", server, "service", service)
	}
	for _, course := range e.catalog.Courses() {
		if course.State != catalog.StateActive {
			continue
		}
		if !course.HasMember(userID) {
			continue
		}
		if course.Permits(srv.Name, svc.Name) {
			return Decision{
				Allowed: true,
				Course:  course,
				User:    user,
				Server:  srv,
				Service: svc,
			}, nil
		}
	}
	return Decision{}, serrors.Join(ErrUnauthorized, nil,
		"user", userID, "server", server, "service", service)
}
