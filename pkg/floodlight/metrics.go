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

package floodlight

import "github.com/upsm-netlab/flowgate/pkg/private/prom"

// Operation labels for controller requests.
const (
	opDevices    = "devices"
	opRoute      = "route"
	opPushFlow   = "push_flow"
	opDeleteFlow = "delete_flow"
)

var requests = prom.NewCounterVec("controller", "requests_total",
	"Requests issued against the SDN controller.",
	[]string{prom.LabelOperation, prom.LabelResult})
