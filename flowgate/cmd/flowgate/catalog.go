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

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/upsm-netlab/flowgate/pkg/catalog"
)

func newCatalog() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect catalog files",
	}
	cmd.AddCommand(newCatalogCheck())
	return cmd
}

func newCatalogCheck() *cobra.Command {
	return &cobra.Command{
		Use:   "check <file>",
		Short: "Validate a catalog file without loading it into a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			store, report, err := catalog.Load(raw)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: %d user(s), %d server(s), %d course(s)\n",
				args[0], len(store.Users()), len(store.Servers()), len(store.Courses()))
			for _, skip := range report.SkippedCourses {
				fmt.Fprintf(out, "skipped course: %v\n", skip)
			}
			if len(report.SkippedCourses) > 0 {
				return fmt.Errorf("%d course(s) skipped", len(report.SkippedCourses))
			}
			return nil
		},
	}
}
