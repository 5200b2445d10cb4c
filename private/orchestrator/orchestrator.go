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

// Package orchestrator turns authorization decisions into installed
// forwarding state and keeps the connection registry consistent with the
// rules actually pushed to the fabric.
package orchestrator

import (
	"context"

	"github.com/upsm-netlab/flowgate/pkg/floodlight"
	"github.com/upsm-netlab/flowgate/pkg/flowrules"
	"github.com/upsm-netlab/flowgate/pkg/log"
	"github.com/upsm-netlab/flowgate/pkg/private/serrors"
)

// ErrInstall indicates that installing the rule set failed; any partially
// installed rules have been rolled back.
var ErrInstall = serrors.New("flow installation failed")

// ErrRemove indicates that one or more rule removals failed during
// teardown. The logical connection is gone regardless.
var ErrRemove = serrors.New("flow removal incomplete")

// Orchestrator installs and removes the rule sets of connections.
type Orchestrator struct {
	flows floodlight.FlowWriter
}

// NewOrchestrator creates an orchestrator pushing rules through the given
// writer.
func NewOrchestrator(flows floodlight.FlowWriter) *Orchestrator {
	return &Orchestrator{flows: flows}
}

// Install pushes the rules sequentially in the given order. On the first
// failure it rolls back every rule already pushed and returns ErrInstall;
// no orphaned rules remain. On success it returns the installed rule
// names in installation order.
func (o *Orchestrator) Install(ctx context.Context, rules []flowrules.Rule) ([]string, error) {
	logger := log.FromCtx(ctx)
	installed := make([]string, 0, len(rules))
	for _, rule := range rules {
		if err := o.flows.PushFlow(ctx, rule.WireFlowMod()); err != nil {
			logger.Error("Rule installation failed, rolling back",
				"rule", rule.Name, "installed", len(installed), "err", err)
			o.rollback(ctx, installed)
			return nil, serrors.Join(ErrInstall, err, "rule", rule.Name)
		}
		installed = append(installed, rule.Name)
	}
	return installed, nil
}

// rollback best-effort deletes the named rules. Failures are logged only:
// there is no better recovery than reporting during an already failing
// install.
func (o *Orchestrator) rollback(ctx context.Context, names []string) {
	logger := log.FromCtx(ctx)
	for _, name := range names {
		if err := o.flows.DeleteFlow(ctx, name); err != nil {
			logger.Error("Rollback of rule failed, manual cleanup required",
				"rule", name, "err", err)
		}
	}
}

// Remove deletes the named rules best-effort. All removals are attempted;
// failures are collected and reported as ErrRemove. Callers clear their
// bookkeeping regardless of the outcome: a stuck rule is recoverable by
// controller inspection, a leaked logical record is not.
func (o *Orchestrator) Remove(ctx context.Context, names []string) error {
	var errs serrors.List
	for _, name := range names {
		if err := o.flows.DeleteFlow(ctx, name); err != nil {
			errs = append(errs, serrors.Wrap("deleting rule", err, "rule", name))
		}
	}
	if err := errs.ToError(); err != nil {
		return serrors.Join(ErrRemove, err, "failed", len(errs), "total", len(names))
	}
	return nil
}
