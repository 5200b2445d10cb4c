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

package policy_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/upsm-netlab/flowgate/pkg/catalog"
	"github.com/upsm-netlab/flowgate/pkg/policy"
)

func testStore(t *testing.T) *catalog.Store {
	t.Helper()
	s := catalog.NewStore()
	require.NoError(t, s.AddUser(&catalog.User{ID: "u1", Name: "Ana", MAC: "aa:bb:cc:dd:ee:01"}))
	require.NoError(t, s.AddUser(&catalog.User{ID: "u2", Name: "Bruno", MAC: "aa:bb:cc:dd:ee:02"}))

	srv := &catalog.Server{Name: "s1", Addr: "10.0.0.10"}
	srv.AddService(catalog.Service{Name: "HTTP", Protocol: catalog.TCP, Port: 80})
	srv.AddService(catalog.Service{Name: "SSH", Protocol: catalog.TCP, Port: 22})
	require.NoError(t, s.AddServer(srv))

	c1 := catalog.NewCourse("c1", "Networks", catalog.StateActive)
	c1.AddMember("u1")
	c1.AddGrant(catalog.Grant{Server: "s1", Services: []string{"HTTP"}})
	require.NoError(t, s.AddCourse(c1))
	return s
}

func TestAuthorize(t *testing.T) {
	e := policy.NewEngine(testStore(t))

	d, err := e.Authorize("u1", "s1", "HTTP")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	require.NotNil(t, d.Course)
	assert.Equal(t, "c1", d.Course.Code)
	assert.Equal(t, uint16(80), d.Service.Port)

	// Case-insensitive service match.
	d, err = e.Authorize("u1", "s1", "http")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func TestAuthorizeDenied(t *testing.T) {
	e := policy.NewEngine(testStore(t))

	// Service exists on the server but is not granted.
	d, err := e.Authorize("u1", "s1", "SSH")
	assert.True(t, errors.Is(err, policy.ErrUnauthorized))
	assert.False(t, d.Allowed)
	assert.Nil(t, d.Course)

	// Member of no course.
	_, err = e.Authorize("u2", "s1", "HTTP")
	assert.True(t, errors.Is(err, policy.ErrUnauthorized))
}

func TestAuthorizeUnknownEntities(t *testing.T) {
	e := policy.NewEngine(testStore(t))

	for _, tc := range [][3]string{
		{"ghost", "s1", "HTTP"},
		{"u1", "ghost", "HTTP"},
		{"u1", "s1", "GOPHER"},
	} {
		_, err := e.Authorize(tc[0], tc[1], tc[2])
		assert.True(t, errors.Is(err, catalog.ErrNotFound), "%v", tc)
	}
}

func TestAuthorizeInactiveCourse(t *testing.T) {
	s := testStore(t)
	e := policy.NewEngine(s)

	c, err := s.Course("c1")
	require.NoError(t, err)
	c.State = catalog.StateInactive

	_, err = e.Authorize("u1", "s1", "HTTP")
	assert.True(t, errors.Is(err, policy.ErrUnauthorized))
}

func TestAuthorizeFirstCourseWins(t *testing.T) {
	s := testStore(t)
	c2 := catalog.NewCourse("c2", "Networks II", catalog.StateActive)
	c2.AddMember("u1")
	c2.AddGrant(catalog.Grant{Server: "s1", Services: []string{"HTTP"}})
	require.NoError(t, s.AddCourse(c2))

	d, err := policy.NewEngine(s).Authorize("u1", "s1", "HTTP")
	require.NoError(t, err)
	assert.Equal(t, "c1", d.Course.Code)
}
