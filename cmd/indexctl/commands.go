package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/lumen-agency/site-core/internal/modules/indexing"
	jwtpkg "github.com/lumen-agency/site-core/internal/pkg/jwt"
	"github.com/spf13/cobra"
)

var errUnhealthy = errors.New("indexing integration is unhealthy")

func newRefreshTokenCommand(rt *cli) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "refresh-token",
		Short: "Make sure a valid access token is stored",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tok, err := rt.svc.RefreshToken(cmd.Context(), force)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), tok)
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "refresh even when the current token is still valid")
	return cmd
}

func newInspectCommand(rt *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect",
		Short: "Inspect every public site URL and record the results",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := rt.svc.InspectAll(cmd.Context())
			if err != nil {
				return err
			}
			return rt.printRun(cmd.OutOrStdout(), result)
		},
	}
}

func newSubmitCommand(rt *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "submit <url>...",
		Short: "Notify the indexing API that the given URLs changed",
		Args:  cobra.RangeArgs(1, indexing.MaxSubmitURLs),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := rt.svc.SubmitURLs(cmd.Context(), args)
			if err != nil {
				return err
			}
			return rt.printRun(cmd.OutOrStdout(), result)
		},
	}
}

func newResealCommand(rt *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "reseal",
		Short: "Encrypt stored credential secrets with indexing.secret_key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := rt.svc.ResealCredentials(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]int{"resealed": n})
		},
	}
}

func newHealthCommand(rt *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check credentials, token refresh, API reachability and scopes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := rt.svc.Health(cmd.Context())
			if err != nil {
				return err
			}
			if err := printJSON(cmd.OutOrStdout(), report); err != nil {
				return err
			}
			if !report.Healthy() {
				return errUnhealthy
			}
			return nil
		},
	}
}

func newURLsCommand(rt *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "urls",
		Short: "List the URLs an inspection run would cover",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			targets, err := rt.svc.PreviewURLs(cmd.Context())
			if err != nil {
				return err
			}
			if rt.output == outputJSON {
				return printJSON(cmd.OutOrStdout(), targets)
			}
			t := newTable(cmd.OutOrStdout())
			t.AppendHeader(table.Row{"URL", "Page type", "Reference"})
			for _, tgt := range targets {
				ref := ""
				if tgt.ReferenceID != nil {
					ref = *tgt.ReferenceID
				}
				t.AppendRow(table.Row{tgt.URL, tgt.PageType, ref})
			}
			t.Render()
			return nil
		},
	}
}

func newStatusCommand(rt *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Summarize stored index statuses by verdict",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			summary, err := rt.svc.StatusSummary(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), summary)
		},
	}
}

func newAdminTokenCommand(rt *cli) *cobra.Command {
	var (
		subject string
		ttl     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "admin-token",
		Short: "Mint a bearer token for the admin HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := jwtpkg.Sign(subject, ttl)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]interface{}{
				"token":      token,
				"expires_at": time.Now().Add(ttl).UTC(),
			})
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "indexctl", "token subject")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	return cmd
}

func (rt *cli) printRun(w io.Writer, result *indexing.RunResult) error {
	if rt.output == outputJSON {
		return printJSON(w, result)
	}
	t := newTable(w)
	t.AppendHeader(table.Row{"URL", "Verdict", "Coverage", "Error"})
	for _, o := range result.Outcomes {
		coverage := ""
		if o.CoverageState != nil {
			coverage = *o.CoverageState
		}
		t.AppendRow(table.Row{o.URL, o.Verdict, coverage, o.ErrorMessage})
	}
	t.AppendFooter(table.Row{
		fmt.Sprintf("%s: %d urls", result.Mode, result.Total),
		fmt.Sprintf("%d ok", result.Succeeded),
		fmt.Sprintf("%d failed", result.Failed),
		result.FinishedAt.Sub(result.StartedAt).Round(time.Millisecond).String(),
	})
	t.Render()
	return nil
}

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	return t
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
