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

// Command flowgate is the operator front end of the policy-driven SDN
// access control layer: it loads a catalog, authorizes user requests and
// programs the fabric through the controller.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	executable := "flowgate"
	cmd := &cobra.Command{
		Use:           executable,
		Short:         "Policy-driven access control for the campus SDN fabric",
		SilenceErrors: true,
	}
	cmd.AddCommand(
		newShell(),
		newCatalog(),
		newSampleConfig(),
		newVersion(),
	)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
}

func newVersion() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show the flowgate version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "flowgate %s\n", version)
		},
	}
}

// version is overridden at link time on release builds.
var version = "dev"
