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

package catalog

import (
	"gopkg.in/yaml.v2"

	"github.com/upsm-netlab/flowgate/pkg/private/serrors"
)

// ErrConfig indicates a structurally invalid catalog document.
var ErrConfig = serrors.New("invalid catalog document")

// Document is the external catalog file format. Servers are loaded before
// courses so grants can be checked against known servers.
type Document struct {
	Servers []ServerDoc `yaml:"servers"`
	Users   []UserDoc   `yaml:"users"`
	Courses []CourseDoc `yaml:"courses"`
}

// UserDoc is the document form of a user.
type UserDoc struct {
	Name string `yaml:"name"`
	ID   string `yaml:"id"`
	MAC  string `yaml:"mac"`
}

// ServiceDoc is the document form of a service.
type ServiceDoc struct {
	Name     string `yaml:"name"`
	Protocol string `yaml:"protocol"`
	Port     uint16 `yaml:"port"`
}

// ServerDoc is the document form of a server.
type ServerDoc struct {
	Name     string       `yaml:"name"`
	Addr     string       `yaml:"address"`
	MAC      string       `yaml:"mac,omitempty"`
	Services []ServiceDoc `yaml:"services"`
}

// GrantDoc is the document form of a course grant.
type GrantDoc struct {
	Server   string   `yaml:"name"`
	Services []string `yaml:"permitted_services"`
}

// CourseDoc is the document form of a course.
type CourseDoc struct {
	Code    string     `yaml:"code"`
	Name    string     `yaml:"name"`
	State   string     `yaml:"state"`
	Members []string   `yaml:"members"`
	Grants  []GrantDoc `yaml:"servers"`
}

// Report collects per-record problems that did not abort a load. Courses
// are loaded best-effort: one malformed course does not invalidate the
// rest of the document.
type Report struct {
	SkippedCourses serrors.List
}

// Load parses and validates a catalog document and builds a fresh store.
// A structural violation outside the per-course records fails the whole
// load with ErrConfig.
func Load(raw []byte) (*Store, Report, error) {
	var doc Document
	var report Report
	if err := yaml.UnmarshalStrict(raw, &doc); err != nil {
		return nil, report, serrors.Join(ErrConfig, err)
	}
	store := NewStore()
	for _, sd := range doc.Servers {
		if sd.Name == "" || sd.Addr == "" {
			return nil, report, serrors.Join(ErrConfig, nil,
				"reason", "server requires name and address", "server", sd.Name)
		}
		srv := &Server{Name: sd.Name, Addr: sd.Addr, MAC: sd.MAC}
		for _, svcd := range sd.Services {
			proto, err := ParseProtocol(svcd.Protocol)
			if err != nil {
				return nil, report, serrors.Join(ErrConfig, err,
					"server", sd.Name, "service", svcd.Name)
			}
			if svcd.Name == "" || svcd.Port == 0 {
				return nil, report, serrors.Join(ErrConfig, nil,
					"reason", "service requires name and port", "server", sd.Name)
			}
			srv.AddService(Service{Name: svcd.Name, Protocol: proto, Port: svcd.Port})
		}
		if err := store.AddServer(srv); err != nil {
			return nil, report, serrors.Join(ErrConfig, err)
		}
	}
	for _, ud := range doc.Users {
		if ud.ID == "" || ud.MAC == "" {
			return nil, report, serrors.Join(ErrConfig, nil,
				"reason", "user requires id and mac", "user", ud.ID)
		}
		if err := store.AddUser(&User{ID: ud.ID, Name: ud.Name, MAC: ud.MAC}); err != nil {
			return nil, report, serrors.Join(ErrConfig, err)
		}
	}
	for _, cd := range doc.Courses {
		course, err := loadCourse(store, cd)
		if err != nil {
			report.SkippedCourses = append(report.SkippedCourses, err)
			continue
		}
		if err := store.AddCourse(course); err != nil {
			report.SkippedCourses = append(report.SkippedCourses, err)
		}
	}
	return store, report, nil
}

func loadCourse(store *Store, cd CourseDoc) (*Course, error) {
	if cd.Code == "" {
		return nil, serrors.New("course requires a code", "name", cd.Name)
	}
	state, err := ParseCourseState(cd.State)
	if err != nil {
		return nil, serrors.Wrap("parsing course state", err, "course", cd.Code)
	}
	course := NewCourse(cd.Code, cd.Name, state)
	for _, m := range cd.Members {
		course.AddMember(m)
	}
	for _, gd := range cd.Grants {
		if _, err := store.Server(gd.Server); err != nil {
			return nil, serrors.Wrap("grant references unknown server", err,
				"course", cd.Code, "server", gd.Server)
		}
		course.AddGrant(Grant{Server: gd.Server, Services: gd.Services})
	}
	return course, nil
}

// Export serializes the store back into the document format. Users and
// servers are emitted in sorted order, courses in insertion order;
// Load(Export(s)) reproduces the same entity sets.
func Export(store *Store) ([]byte, error) {
	var doc Document
	for _, srv := range store.Servers() {
		sd := ServerDoc{Name: srv.Name, Addr: srv.Addr, MAC: srv.MAC}
		for _, svc := range srv.Services {
			sd.Services = append(sd.Services, ServiceDoc{
				Name:     svc.Name,
				Protocol: string(svc.Protocol),
				Port:     svc.Port,
			})
		}
		doc.Servers = append(doc.Servers, sd)
	}
	for _, u := range store.Users() {
		doc.Users = append(doc.Users, UserDoc{Name: u.Name, ID: u.ID, MAC: u.MAC})
	}
	for _, c := range store.Courses() {
		cd := CourseDoc{
			Code:    c.Code,
			Name:    c.Name,
			State:   string(c.State),
			Members: c.Members(),
		}
		for _, g := range c.Grants {
			cd.Grants = append(cd.Grants, GrantDoc{Server: g.Server, Services: g.Services})
		}
		doc.Courses = append(doc.Courses, cd)
	}
	out, err := yaml.Marshal(&doc)
	if err != nil {
		return nil, serrors.Wrap("marshaling catalog", err)
	}
	return out, nil
}
