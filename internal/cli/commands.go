package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/olivoil/codeflow/tui/internal/app"
	"github.com/olivoil/codeflow/tui/internal/backend"
	"github.com/olivoil/codeflow/tui/internal/channel"
	"github.com/olivoil/codeflow/tui/internal/session"
)

const queryTimeout = 30 * time.Second

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s tui %s\n", app.AppName, app.AppVersion)
		},
	}
}

func newLoginCmd() *cobra.Command {
	var token string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store an access token",
		Long: `Store an access token for the API. Without --token the token is read from the
first line of standard input.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e := getEnv(cmd.Context())
			if token == "" {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && !errors.Is(err, io.EOF) {
					return fmt.Errorf("read token: %w", err)
				}
				token = strings.TrimSpace(line)
			}
			if err := e.tokens.Save(token); err != nil {
				return err
			}
			e.logger.Info("token saved", "path", e.tokens.Path())
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Token saved to %s\n", e.tokens.Path())
			return nil
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "access token")
	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored access token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e := getEnv(cmd.Context())
			if err := e.tokens.Clear(); err != nil {
				return err
			}
			e.logger.Info("token cleared", "path", e.tokens.Path())
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

// ErrServerProblem is returned by status when the session resolves to the
// server error state.
var ErrServerProblem = errors.New("server error")

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Fetch the session once and print its state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e := getEnv(cmd.Context())
			ctx, cancel := context.WithTimeout(cmd.Context(), queryTimeout)
			defer cancel()

			data, err := e.client().UserProjects(ctx, backend.BookmarkedSearch())
			q := session.ResultFrom(data, err)
			st := session.Reconcile(q, channel.Idle, false)
			e.logger.Info("status", "state", st.Kind.String())
			return printStatus(cmd.OutOrStdout(), e.cfg.Server.GraphQLURL, q, st)
		},
	}
}

func printStatus(w io.Writer, endpoint string, q session.QueryResult, st session.State) error {
	_, _ = fmt.Fprintf(w, "server:  %s\n", endpoint)
	_, _ = fmt.Fprintf(w, "session: %s\n", st.Kind)
	switch st.Kind {
	case session.Authenticated:
		_, _ = fmt.Fprintf(w, "user:    %s\n", st.User.Email)
		count := 0
		if st.Projects != nil {
			count = st.Projects.Count
		}
		_, _ = fmt.Fprintf(w, "bookmarked projects: %d\n", count)
	case session.LoginRedirect:
		_, _ = fmt.Fprintln(w, "Run `codeflow-tui login` to sign in.")
	case session.ServerError:
		if q.Err != nil {
			_, _ = fmt.Fprintf(w, "error:   %s (%s)\n", q.Err.Message, session.Classify(*q.Err))
		}
		return ErrServerProblem
	}
	return nil
}

func newProjectsCmd() *cobra.Command {
	var (
		all    bool
		output string
	)
	cmd := &cobra.Command{
		Use:   "projects",
		Short: "List bookmarked projects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if output != "table" && output != "json" {
				return fmt.Errorf("unknown output format %q (want table or json)", output)
			}
			e := getEnv(cmd.Context())
			ctx, cancel := context.WithTimeout(cmd.Context(), queryTimeout)
			defer cancel()

			var list *backend.ProjectList
			c := e.client()
			if all {
				l, err := c.AllProjects(ctx)
				if err != nil {
					return fmt.Errorf("list projects: %w", err)
				}
				list = l
			} else {
				data, err := c.UserProjects(ctx, backend.BookmarkedSearch())
				if err != nil {
					return fmt.Errorf("list projects: %w", err)
				}
				list = data.Projects
			}

			if output == "json" {
				return renderProjectsJSON(cmd.OutOrStdout(), list.All())
			}
			renderProjectsTable(cmd.OutOrStdout(), list.All())
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "list every project, not just bookmarked ones")
	cmd.Flags().StringVarP(&output, "output", "o", "table", "output format (table|json)")
	_ = cmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"table", "json"}, cobra.ShellCompDirectiveNoFileComp
	})
	return cmd
}

func renderProjectsTable(w io.Writer, projects []backend.Project) {
	if len(projects) == 0 {
		_, _ = fmt.Fprintln(w, "(0 projects)")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Name", "Slug", "Environments"})
	for _, p := range projects {
		envs := make([]string, len(p.Environments))
		for i, e := range p.Environments {
			envs[i] = e.Name
		}
		t.AppendRow(table.Row{p.Name, p.Slug, strings.Join(envs, ", ")})
	}
	t.Render()
	_, _ = fmt.Fprintf(w, "(%d projects)\n", len(projects))
}

func renderProjectsJSON(w io.Writer, projects []backend.Project) error {
	if projects == nil {
		projects = []backend.Project{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(projects)
}
