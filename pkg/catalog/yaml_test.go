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

package catalog_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/upsm-netlab/flowgate/pkg/catalog"
)

const sampleDoc = `
servers:
  - name: s1
    address: 10.0.0.10
    mac: fa:16:3e:6c:a0:7c
    services:
      - name: HTTP
        protocol: TCP
        port: 80
      - name: DNS
        protocol: UDP
        port: 53
users:
  - name: Ana
    id: u1
    mac: aa:bb:cc:dd:ee:01
  - name: Bruno
    id: u2
    mac: aa:bb:cc:dd:ee:02
courses:
  - code: c1
    name: Networks
    state: DICTANDO
    members: [u1, u2]
    servers:
      - name: s1
        permitted_services: [HTTP]
`

func TestLoad(t *testing.T) {
	store, report, err := catalog.Load([]byte(sampleDoc))
	require.NoError(t, err)
	assert.Empty(t, report.SkippedCourses)

	srv, err := store.Server("s1")
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.10", srv.Addr)
	assert.Equal(t, "fa:16:3e:6c:a0:7c", srv.MAC)
	require.Len(t, srv.Services, 2)
	assert.Equal(t, catalog.UDP, srv.Services[1].Protocol)

	c, err := store.Course("c1")
	require.NoError(t, err)
	assert.Equal(t, catalog.StateActive, c.State)
	assert.Equal(t, []string{"u1", "u2"}, c.Members())
	assert.True(t, c.Permits("s1", "http"))
}

func TestLoadStructuralViolation(t *testing.T) {
	cases := map[string]string{
		"not yaml":          "servers: [",
		"server without ip": "servers:\n  - name: s1",
		"bad protocol": `
servers:
  - name: s1
    address: 10.0.0.10
    services:
      - name: X
        protocol: SCTP
        port: 1
`,
		"user without mac": "users:\n  - id: u1",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, _, err := catalog.Load([]byte(doc))
			assert.True(t, errors.Is(err, catalog.ErrConfig), "got %v", err)
		})
	}
}

func TestLoadSkipsMalformedCourse(t *testing.T) {
	doc := sampleDoc + `
  - code: broken
    name: Broken
    state: WAT
`
	store, report, err := catalog.Load([]byte(doc))
	require.NoError(t, err)
	require.Len(t, report.SkippedCourses, 1)

	_, err = store.Course("c1")
	assert.NoError(t, err)
	_, err = store.Course("broken")
	assert.Error(t, err)
}

func TestLoadCourseWithUnknownServerSkipped(t *testing.T) {
	doc := sampleDoc + `
  - code: c2
    name: Ghost
    state: ACTIVE
    servers:
      - name: missing
        permitted_services: [HTTP]
`
	store, report, err := catalog.Load([]byte(doc))
	require.NoError(t, err)
	assert.Len(t, report.SkippedCourses, 1)
	_, err = store.Course("c2")
	assert.Error(t, err)
}

func TestRoundTrip(t *testing.T) {
	store, _, err := catalog.Load([]byte(sampleDoc))
	require.NoError(t, err)

	out, err := catalog.Export(store)
	require.NoError(t, err)

	store2, report, err := catalog.Load(out)
	require.NoError(t, err)
	assert.Empty(t, report.SkippedCourses)

	assert.Equal(t, store.Users(), store2.Users())
	assert.Equal(t, store.Servers(), store2.Servers())
	assert.Equal(t, store.Courses(), store2.Courses())
}
