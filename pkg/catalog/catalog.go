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

// Package catalog holds the slowly-changing entities the access policy is
// expressed over: users, servers with their services, and courses with
// their memberships and grants. The store is purely in-memory and lives for
// the duration of an operator session.
package catalog

import (
	"sort"
	"strings"

	"github.com/upsm-netlab/flowgate/pkg/private/serrors"
)

// ErrNotFound indicates an unknown user, server, service or course.
var ErrNotFound = serrors.New("entity not found")

// Protocol is the transport protocol of a service.
type Protocol string

// Supported service protocols.
const (
	TCP Protocol = "TCP"
	UDP Protocol = "UDP"
)

// ParseProtocol parses a protocol name, case-insensitively.
func ParseProtocol(s string) (Protocol, error) {
	switch strings.ToUpper(s) {
	case "TCP":
		return TCP, nil
	case "UDP":
		return UDP, nil
	default:
		return "", serrors.New("unsupported protocol", "protocol", s)
	}
}

// CourseState is the lifecycle state of a course. Only active courses grant
// authorization.
type CourseState string

// Course lifecycle states. The legacy catalog format spells the active
// state "DICTANDO"; ParseCourseState accepts both spellings.
const (
	StateActive   CourseState = "ACTIVE"
	StateInactive CourseState = "INACTIVE"
	StateArchived CourseState = "ARCHIVED"
)

// ParseCourseState parses a course state, accepting the legacy spellings.
func ParseCourseState(s string) (CourseState, error) {
	switch strings.ToUpper(s) {
	case "ACTIVE", "DICTANDO":
		return StateActive, nil
	case "INACTIVE", "INACTIVO":
		return StateInactive, nil
	case "ARCHIVED", "ARCHIVADO":
		return StateArchived, nil
	default:
		return "", serrors.New("unknown course state", "state", s)
	}
}

// User is a subject of the access policy, identified on the network by its
// hardware address.
type User struct {
	ID   string
	Name string
	MAC  string
}

// Service is a single port a server exposes.
type Service struct {
	Name     string
	Protocol Protocol
	Port     uint16
}

// Server exposes an ordered collection of services at a network address.
// MAC is the server's hardware address used to locate its attachment point;
// it may be empty, in which case the topology default applies.
type Server struct {
	Name     string
	Addr     string
	MAC      string
	Services []Service
}

// AddService appends a service. Services are never removed.
func (s *Server) AddService(svc Service) {
	s.Services = append(s.Services, svc)
}

// Service returns the service with the given name, matched
// case-insensitively.
func (s *Server) Service(name string) (Service, bool) {
	for _, svc := range s.Services {
		if strings.EqualFold(svc.Name, name) {
			return svc, true
		}
	}
	return Service{}, false
}

// Grant permits the members of a course to reach the named services on a
// server. The server is referenced by name; resolution against the store
// happens at authorization time.
type Grant struct {
	Server   string
	Services []string
}

// Course groups users and the (server, service) grants they may use.
type Course struct {
	Code    string
	Name    string
	State   CourseState
	members []string
	Grants  []Grant
}

// NewCourse creates a course with no members and no grants.
func NewCourse(code, name string, state CourseState) *Course {
	return &Course{Code: code, Name: name, State: state}
}

// Members returns the member user ids in insertion order. The returned
// slice must not be modified.
func (c *Course) Members() []string {
	return c.members
}

// AddMember enrolls a user. Adding an existing member is a no-op.
func (c *Course) AddMember(userID string) {
	if c.HasMember(userID) {
		return
	}
	c.members = append(c.members, userID)
}

// RemoveMember withdraws a user. Removing an unknown member is a no-op.
func (c *Course) RemoveMember(userID string) {
	for i, m := range c.members {
		if m == userID {
			c.members = append(c.members[:i], c.members[i+1:]...)
			return
		}
	}
}

// HasMember reports whether the user is enrolled.
func (c *Course) HasMember(userID string) bool {
	for _, m := range c.members {
		if m == userID {
			return true
		}
	}
	return false
}

// AddGrant appends a grant.
func (c *Course) AddGrant(g Grant) {
	c.Grants = append(c.Grants, g)
}

// Permits reports whether the course grants access to the named service on
// the named server.
func (c *Course) Permits(server, service string) bool {
	for _, g := range c.Grants {
		if g.Server != server {
			continue
		}
		for _, svc := range g.Services {
			if strings.EqualFold(svc, service) {
				return true
			}
		}
	}
	return false
}

// Store is the in-memory catalog. It is not safe for concurrent use; a
// single operator session drives it serially.
type Store struct {
	users       map[string]*User
	servers     map[string]*Server
	courses     map[string]*Course
	courseOrder []string
}

// NewStore creates an empty catalog store.
func NewStore() *Store {
	s := &Store{}
	s.Reset()
	return s
}

// Reset drops all entities. Connections referencing catalog entities must
// be torn down before a reset, they are not tracked here.
func (s *Store) Reset() {
	s.users = make(map[string]*User)
	s.servers = make(map[string]*Server)
	s.courses = make(map[string]*Course)
	s.courseOrder = nil
}

// AddUser registers a user. The id must be unique.
func (s *Store) AddUser(u *User) error {
	if _, ok := s.users[u.ID]; ok {
		return serrors.New("user already exists", "id", u.ID)
	}
	s.users[u.ID] = u
	return nil
}

// User returns the user with the given id.
func (s *Store) User(id string) (*User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, serrors.Join(ErrNotFound, nil, "user", id)
	}
	return u, nil
}

// Users returns all users sorted by id.
func (s *Store) Users() []*User {
	us := make([]*User, 0, len(s.users))
	for _, u := range s.users {
		us = append(us, u)
	}
	sort.Slice(us, func(i, j int) bool { return us[i].ID < us[j].ID })
	return us
}

// AddServer registers a server. The name must be unique.
func (s *Store) AddServer(srv *Server) error {
	if _, ok := s.servers[srv.Name]; ok {
		return serrors.New("server already exists", "name", srv.Name)
	}
	s.servers[srv.Name] = srv
	return nil
}

// Server returns the server with the given name.
func (s *Store) Server(name string) (*Server, error) {
	srv, ok := s.servers[name]
	if !ok {
		return nil, serrors.Join(ErrNotFound, nil, "server", name)
	}
	return srv, nil
}

// Servers returns all servers sorted by name.
func (s *Store) Servers() []*Server {
	srvs := make([]*Server, 0, len(s.servers))
	for _, srv := range s.servers {
		srvs = append(srvs, srv)
	}
	sort.Slice(srvs, func(i, j int) bool { return srvs[i].Name < srvs[j].Name })
	return srvs
}

// AddCourse registers a course. The code must be unique. Insertion order is
// preserved and determines authorization iteration order.
func (s *Store) AddCourse(c *Course) error {
	if _, ok := s.courses[c.Code]; ok {
		return serrors.New("course already exists", "code", c.Code)
	}
	s.courses[c.Code] = c
	s.courseOrder = append(s.courseOrder, c.Code)
	return nil
}

// Course returns the course with the given code.
func (s *Store) Course(code string) (*Course, error) {
	c, ok := s.courses[code]
	if !ok {
		return nil, serrors.Join(ErrNotFound, nil, "course", code)
	}
	return c, nil
}

// Courses returns all courses in insertion order.
func (s *Store) Courses() []*Course {
	cs := make([]*Course, 0, len(s.courseOrder))
	for _, code := range s.courseOrder {
		cs = append(cs, s.courses[code])
	}
	return cs
}

// CoursesFor returns the courses the user is enrolled in, in insertion
// order.
func (s *Store) CoursesFor(userID string) []*Course {
	var cs []*Course
	for _, c := range s.Courses() {
		if c.HasMember(userID) {
			cs = append(cs, c)
		}
	}
	return cs
}

// CoursesGranting returns the courses that grant access to the named
// service on the named server, in insertion order.
func (s *Store) CoursesGranting(server, service string) []*Course {
	var cs []*Course
	for _, c := range s.Courses() {
		if c.Permits(server, service) {
			cs = append(cs, c)
		}
	}
	return cs
}
