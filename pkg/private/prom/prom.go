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

// Package prom contains shared conventions for prometheus metrics.
package prom

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace is the metric namespace of all flowgate metrics.
const Namespace = "flowgate"

// Common label names.
const (
	// LabelOperation is the label for the name of an executed operation.
	LabelOperation = "op"
	// LabelResult is the label for result classifications.
	LabelResult = "result"
	// LabelSource is the label for the source of a topology answer.
	LabelSource = "source"
)

// Common result values.
const (
	// Success is no error.
	Success = "ok_success"
	// ErrNetwork is used for errors reaching the controller.
	ErrNetwork = "err_network"
	// ErrTimeout is a timeout error.
	ErrTimeout = "err_timeout"
	// ErrNotFound is used when the controller has no answer for a query.
	ErrNotFound = "err_not_found"
	// ErrController is used when the controller answers with an error status.
	ErrController = "err_controller"
	// ErrDecode is used when a controller response cannot be decoded.
	ErrDecode = "err_decode"
)

// NewCounterVec creates a registered counter vector in the flowgate
// namespace.
func NewCounterVec(subsystem, name, help string, labels []string) *prometheus.CounterVec {
	return promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: subsystem,
			Name:      name,
			Help:      help,
		},
		labels,
	)
}

// ErrResult classifies err into one of the common result values.
func ErrResult(err error) string {
	if err == nil {
		return Success
	}
	var t interface{ Timeout() bool }
	if errors.As(err, &t) && t.Timeout() {
		return ErrTimeout
	}
	return ErrNetwork
}
