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

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/upsm-netlab/flowgate/pkg/log"
	"github.com/upsm-netlab/flowgate/pkg/private/prom"
	"github.com/upsm-netlab/flowgate/pkg/private/serrors"
)

// DefaultTimeout bounds a single controller request. A hung controller
// must surface as unavailable, not stall the session.
const DefaultTimeout = 5 * time.Second

// Client talks to the controller's REST API. The zero value is not usable;
// construct with NewClient.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a client for the controller reachable at baseURL
// (e.g. "http://localhost:8080"). A non-positive timeout falls back to
// DefaultTimeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

var _ DeviceLister = (*Client)(nil)
var _ RouteQuerier = (*Client)(nil)
var _ FlowWriter = (*Client)(nil)

// Devices queries the device registry.
func (c *Client) Devices(ctx context.Context) ([]Device, error) {
	var devices []Device
	err := c.get(ctx, opDevices, c.baseURL+"/wm/device/", &devices)
	if err != nil {
		return nil, err
	}
	return devices, nil
}

// Route queries the controller's route computation between two attachment
// points. An empty result means the controller knows no route.
func (c *Client) Route(ctx context.Context, src, dst Attachment) ([]Hop, error) {
	url := fmt.Sprintf("%s/wm/topology/route/%s/%d/%s/%d/json",
		c.baseURL, src.DPID, src.Port, dst.DPID, dst.Port)
	var hops []Hop
	if err := c.get(ctx, opRoute, url, &hops); err != nil {
		return nil, err
	}
	return hops, nil
}

// PushFlow installs a single flow rule via the static flow pusher.
// Pushing a rule whose name already exists overwrites it.
func (c *Client) PushFlow(ctx context.Context, fm FlowMod) error {
	err := c.write(ctx, opPushFlow, http.MethodPost, fm)
	if err != nil {
		return serrors.Wrap("pushing flow rule", err, "name", fm.Name, "switch", fm.Switch)
	}
	log.FromCtx(ctx).Debug("Flow rule installed", "name", fm.Name, "switch", fm.Switch)
	return nil
}

// DeleteFlow removes a single flow rule by name. Deleting a rule that does
// not exist is not an error on the controller side.
func (c *Client) DeleteFlow(ctx context.Context, name string) error {
	err := c.write(ctx, opDeleteFlow, http.MethodDelete, struct {
		Name string `json:"name"`
	}{Name: name})
	if err != nil {
		return serrors.Wrap("deleting flow rule", err, "name", name)
	}
	log.FromCtx(ctx).Debug("Flow rule removed", "name", name)
	return nil
}

func (c *Client) get(ctx context.Context, op, url string, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return serrors.Wrap("creating request", err, "url", url)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		requests.WithLabelValues(op, prom.ErrResult(err)).Inc()
		return serrors.Wrap("querying controller", err, "url", url)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		requests.WithLabelValues(op, prom.ErrController).Inc()
		return serrors.New("controller returned error status",
			"url", url, "status", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		requests.WithLabelValues(op, prom.ErrDecode).Inc()
		return serrors.Wrap("decoding controller response", err, "url", url)
	}
	requests.WithLabelValues(op, prom.Success).Inc()
	return nil
}

func (c *Client) write(ctx context.Context, op, method string, body interface{}) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return serrors.Wrap("encoding request", err)
	}
	url := c.baseURL + "/wm/staticflowpusher/json"
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(raw))
	if err != nil {
		return serrors.Wrap("creating request", err, "url", url)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.client.Do(req)
	if err != nil {
		requests.WithLabelValues(op, prom.ErrResult(err)).Inc()
		return serrors.Wrap("calling controller", err, "url", url)
	}
	defer resp.Body.Close()
	// The static flow pusher answers 200 with a status document.
	io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		requests.WithLabelValues(op, prom.ErrController).Inc()
		return serrors.New("controller returned error status",
			"url", url, "status", resp.StatusCode)
	}
	requests.WithLabelValues(op, prom.Success).Inc()
	return nil
}
