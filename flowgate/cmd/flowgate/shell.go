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
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/upsm-netlab/flowgate/flowgate/session"
	"github.com/upsm-netlab/flowgate/pkg/log"
	"github.com/upsm-netlab/flowgate/private/env"
	"github.com/upsm-netlab/flowgate/private/topology"
)

func newShell() *cobra.Command {
	var flags struct {
		config   string
		catalog  string
		logLevel string
		noColor  bool
	}

	cmd := &cobra.Command{
		Use:   "shell",
		Short: "Run an interactive access control session",
		Long: `'shell' starts an interactive session against the controller. The
session holds the catalog and the installed connections in memory; both
are gone when the session ends, and flow rules left on the fabric expire
on their own once their connections stop sending traffic.

Catalogs are imported from YAML files. A re-import tears down all
installed connections first, since they reference the catalog being
replaced.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			cfg, err := env.Load(flags.config)
			if err != nil {
				return err
			}
			if flags.logLevel != "" {
				cfg.Logging.Level = flags.logLevel
			}
			if err := log.Setup(log.Config{
				Level:   cfg.Logging.Level,
				Console: cfg.Logging.Console,
			}); err != nil {
				return err
			}
			log.Info("Session starting", "controller", cfg.Controller.Address)
			sh := &shell{
				session: session.New(cfg),
				out:     cmd.OutOrStdout(),
				warn:    color.New(color.FgYellow),
			}
			if flags.noColor {
				sh.warn = color.New()
			}
			if flags.catalog != "" {
				if err := sh.importCatalog(cmd.Context(), flags.catalog); err != nil {
					return err
				}
			}
			return sh.run(cmd.Context(), cmd.InOrStdin())
		},
	}

	cmd.Flags().StringVar(&flags.config, "config", "", "Configuration file (TOML)")
	cmd.Flags().StringVar(&flags.catalog, "catalog", "", "Catalog file to import at startup")
	cmd.Flags().StringVar(&flags.logLevel, "log.level", "", "Console logging level: debug|info|error")
	cmd.Flags().BoolVar(&flags.noColor, "no-color", false, "disable colored output")
	return cmd
}

// shell drives one interactive session over a line protocol.
type shell struct {
	session *session.Session
	out     io.Writer
	warn    *color.Color
}

const shellHelp = `Commands:
  import <file>                    Load a catalog, replacing the current one
  export <file>                    Write the current catalog to a file
  users                            List registered users
  servers                          List servers and their services
  courses                          List courses with members and grants
  connections                      List installed connections
  connect <user> <server> <svc>    Authorize and install a connection
  disconnect <id>                  Tear down a connection
  help                             Show this help
  exit                             End the session
`

func (sh *shell) run(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	fmt.Fprint(sh.out, shellHelp)
	for {
		fmt.Fprint(sh.out, "flowgate> ")
		if !scanner.Scan() {
			fmt.Fprintln(sh.out)
			break
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		cmd, args := fields[0], fields[1:]
		if cmd == "exit" || cmd == "quit" {
			break
		}
		if err := sh.dispatch(ctx, cmd, args); err != nil {
			fmt.Fprintf(sh.out, "Error: %v\n", err)
		}
	}
	return sh.shutdown(ctx)
}

func (sh *shell) dispatch(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "help":
		fmt.Fprint(sh.out, shellHelp)
		return nil
	case "import":
		if len(args) != 1 {
			return errUsage("import <file>")
		}
		return sh.importCatalog(ctx, args[0])
	case "export":
		if len(args) != 1 {
			return errUsage("export <file>")
		}
		return sh.session.ExportFile(args[0])
	case "users":
		sh.listUsers()
		return nil
	case "servers":
		sh.listServers()
		return nil
	case "courses":
		sh.listCourses()
		return nil
	case "connections":
		sh.listConnections()
		return nil
	case "connect":
		if len(args) != 3 {
			return errUsage("connect <user> <server> <service>")
		}
		return sh.connect(ctx, args[0], args[1], args[2])
	case "disconnect":
		if len(args) != 1 {
			return errUsage("disconnect <id>")
		}
		if err := sh.session.Disconnect(ctx, args[0]); err != nil {
			return err
		}
		fmt.Fprintf(sh.out, "Connection %s removed\n", args[0])
		return nil
	default:
		return fmt.Errorf("unknown command %q, try 'help'", cmd)
	}
}

func (sh *shell) importCatalog(ctx context.Context, file string) error {
	active := len(sh.session.Connections())
	if active > 0 {
		sh.warn.Fprintf(sh.out, "Tearing down %d connection(s) before reload\n", active)
	}
	report, err := sh.session.ImportFile(ctx, file)
	if err != nil {
		return err
	}
	store := sh.session.Store()
	fmt.Fprintf(sh.out, "Imported %d user(s), %d server(s), %d course(s)\n",
		len(store.Users()), len(store.Servers()), len(store.Courses()))
	for _, skip := range report.SkippedCourses {
		sh.warn.Fprintf(sh.out, "Skipped course: %v\n", skip)
	}
	return nil
}

func (sh *shell) connect(ctx context.Context, user, server, service string) error {
	conn, err := sh.session.Connect(ctx, user, server, service)
	if err != nil {
		if conn != nil && conn.Reason != "" {
			sh.warn.Fprintf(sh.out, "Rejected: %s\n", conn.Reason)
		}
		return err
	}
	fmt.Fprintf(sh.out, "Connection %s installed, %s via %d hop(s):\n",
		conn.ID, conn.Service.Name, len(conn.Path.Hops))
	for _, hop := range conn.Path.Hops {
		fmt.Fprintf(sh.out, "  %s port %d\n", hop.Switch, hop.Port)
	}
	if conn.Path.Origin != topology.OriginController {
		sh.warn.Fprintln(sh.out, "Path synthesized locally, controller gave no route")
	}
	return nil
}

func (sh *shell) listUsers() {
	table := sh.newTable([]string{"ID", "NAME", "MAC"})
	for _, u := range sh.session.Store().Users() {
		table.Append([]string{u.ID, u.Name, u.MAC})
	}
	table.Render()
}

func (sh *shell) listServers() {
	table := sh.newTable([]string{"NAME", "ADDRESS", "SERVICES"})
	for _, srv := range sh.session.Store().Servers() {
		var svcs []string
		for _, svc := range srv.Services {
			svcs = append(svcs, fmt.Sprintf("%s (%s/%d)", svc.Name, svc.Protocol, svc.Port))
		}
		table.Append([]string{srv.Name, srv.Addr, strings.Join(svcs, ", ")})
	}
	table.Render()
}

func (sh *shell) listCourses() {
	table := sh.newTable([]string{"CODE", "NAME", "STATE", "MEMBERS", "GRANTS"})
	for _, c := range sh.session.Store().Courses() {
		var grants []string
		for _, g := range c.Grants {
			grants = append(grants, g.Server+": "+strings.Join(g.Services, ", "))
		}
		table.Append([]string{
			c.Code, c.Name, string(c.State),
			strconv.Itoa(len(c.Members())),
			strings.Join(grants, "; "),
		})
	}
	table.Render()
}

func (sh *shell) listConnections() {
	table := sh.newTable([]string{"ID", "USER", "SERVER", "SERVICE", "COURSE", "HOPS", "ORIGIN"})
	for _, conn := range sh.session.Connections() {
		table.Append([]string{
			conn.ID, conn.User.ID, conn.Server.Name, conn.Service.Name,
			conn.Course.Code,
			strconv.Itoa(len(conn.Path.Hops)),
			conn.Path.Origin.String(),
		})
	}
	table.Render()
}

func (sh *shell) newTable(header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(sh.out)
	table.SetAutoWrapText(false)
	table.SetBorder(false)
	table.SetHeaderLine(false)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeader(header)
	return table
}

// shutdown tears down whatever is still installed so the fabric is not
// left holding rules for a session that no longer exists.
func (sh *shell) shutdown(ctx context.Context) error {
	var failed int
	for _, conn := range sh.session.Connections() {
		if err := sh.session.Disconnect(ctx, conn.ID); err != nil {
			log.Error("Teardown on exit incomplete", "id", conn.ID, "err", err)
			failed++
		}
	}
	if failed > 0 {
		sh.warn.Fprintf(sh.out, "%d connection(s) left stale rules on the fabric\n", failed)
	}
	return nil
}

func errUsage(usage string) error {
	return fmt.Errorf("usage: %s", usage)
}
