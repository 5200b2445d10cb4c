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

// Package env holds the session configuration: how to reach the SDN
// controller and the offline topology approximation used when the
// controller cannot answer. Config structs follow the
// InitDefaults/Validate pattern and are loaded from TOML.
package env

import (
	"encoding"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/upsm-netlab/flowgate/pkg/private/serrors"
)

// Default values for an unconfigured session.
const (
	DefaultControllerAddress = "http://localhost:8080"
	DefaultTimeout           = 5 * time.Second
	DefaultCacheTTL          = 30 * time.Second
)

// DurWrap wraps a duration so it can be read from and written to TOML as a
// string like "5s".
type DurWrap struct {
	time.Duration
}

var _ encoding.TextUnmarshaler = (*DurWrap)(nil)
var _ encoding.TextMarshaler = DurWrap{}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *DurWrap) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler.
func (d DurWrap) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Attachment is the configured (switch, port) attachment point of a host.
type Attachment struct {
	Switch string `toml:"switch"`
	Port   int    `toml:"port"`
}

// Controller configures access to the SDN controller's REST API.
type Controller struct {
	// Address is the base URL of the controller REST API.
	Address string `toml:"address,omitempty"`
	// Timeout bounds a single controller request.
	Timeout DurWrap `toml:"timeout,omitempty"`
}

// InitDefaults initializes unset fields to their defaults.
func (c *Controller) InitDefaults() {
	if c.Address == "" {
		c.Address = DefaultControllerAddress
	}
	if c.Timeout.Duration == 0 {
		c.Timeout.Duration = DefaultTimeout
	}
}

// Validate checks the controller configuration.
func (c *Controller) Validate() error {
	if c.Timeout.Duration < 0 {
		return serrors.New("negative controller timeout", "timeout", c.Timeout)
	}
	return nil
}

// Topology configures the offline approximation the topology resolver
// falls back to when the controller is unreachable or has no answer.
type Topology struct {
	// Static maps a hardware address (any separator style) to its known
	// attachment point.
	Static map[string]Attachment `toml:"static,omitempty"`
	// Default is the attachment point assumed for hosts absent from both
	// the controller registry and the static table.
	Default Attachment `toml:"default,omitempty"`
	// ServerMAC is the hardware address assumed for servers whose catalog
	// record carries none.
	ServerMAC string `toml:"server_mac,omitempty"`
	// CacheTTL bounds how long controller attachment answers are reused.
	CacheTTL DurWrap `toml:"cache_ttl,omitempty"`
}

// InitDefaults initializes unset fields to their defaults.
func (t *Topology) InitDefaults() {
	if t.CacheTTL.Duration == 0 {
		t.CacheTTL.Duration = DefaultCacheTTL
	}
}

// Validate checks the topology configuration.
func (t *Topology) Validate() error {
	if t.Default.Switch == "" {
		return serrors.New("topology default attachment requires a switch")
	}
	for mac, at := range t.Static {
		if at.Switch == "" {
			return serrors.New("static attachment requires a switch", "mac", mac)
		}
	}
	return nil
}

// Logging configures the root logger.
type Logging struct {
	// Level is one of debug, info or error.
	Level string `toml:"level,omitempty"`
	// Console switches from JSON to console encoding.
	Console bool `toml:"console,omitempty"`
}

// InitDefaults initializes unset fields to their defaults.
func (l *Logging) InitDefaults() {
	if l.Level == "" {
		l.Level = "info"
	}
}

// Config is the top-level session configuration.
type Config struct {
	Controller Controller `toml:"controller,omitempty"`
	Topology   Topology   `toml:"topology,omitempty"`
	Logging    Logging    `toml:"log,omitempty"`
}

// InitDefaults initializes unset fields to their defaults.
func (cfg *Config) InitDefaults() {
	cfg.Controller.InitDefaults()
	cfg.Topology.InitDefaults()
	cfg.Logging.InitDefaults()
}

// Validate checks the whole configuration.
func (cfg *Config) Validate() error {
	if err := cfg.Controller.Validate(); err != nil {
		return err
	}
	return cfg.Topology.Validate()
}

// Load reads, defaults and validates a configuration file. An empty path
// yields the default configuration.
func Load(path string) (Config, error) {
	var cfg Config
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, serrors.Wrap("reading config", err, "file", path)
		}
		if err := toml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, serrors.Wrap("parsing config", err, "file", path)
		}
	}
	cfg.InitDefaults()
	if cfg.Topology.Default.Switch == "" {
		// Keep a disconnected session usable: the original deployment's
		// generic attachment.
		cfg.Topology.Default = Attachment{Switch: "00:00:5e:c7:6e:c6:11:4c", Port: 3}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, serrors.Wrap("validating config", err, "file", path)
	}
	return cfg, nil
}

// Sample is a commented sample configuration.
const Sample = `# flowgate session configuration

[controller]
# Base URL of the SDN controller REST API.
address = "http://localhost:8080"
# Bound on a single controller request.
timeout = "5s"

[topology]
# Hardware address assumed for servers without one in the catalog.
server_mac = "fa:16:3e:6c:a0:7c"
# How long controller attachment answers are reused.
cache_ttl = "30s"

# Attachment point assumed when neither the controller nor the static
# table knows a host.
[topology.default]
switch = "00:00:5e:c7:6e:c6:11:4c"
port = 3

# Known attachment points used when the controller cannot answer.
[topology.static]
"aa:bb:cc:dd:ee:01" = { switch = "00:00:01", port = 2 }

[log]
level = "info"
console = true
`
