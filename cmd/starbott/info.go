package main

import (
	"fmt"
	goruntime "runtime"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Dhanuzh/starbott/internal/api"
	"github.com/Dhanuzh/starbott/internal/apierr"
)

// ---------------------------------------------------------------------------
// health / whoami / usage
// ---------------------------------------------------------------------------

func healthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check API server health",
		Args:  requireArgs(cobra.NoArgs),
		RunE: withClient(func(cmd *cobra.Command, _ []string, rt *runtime, c *api.Client) error {
			resp, err := c.Health(cmd.Context())
			if err != nil {
				return err
			}
			return rt.out.Result(resp, func() {
				for _, line := range healthLines(resp.JSON) {
					rt.out.Human("%s", line)
				}
			})
		}),
	}
}

func healthLines(payload map[string]any) []string {
	ok, _ := payload["ok"].(bool)
	lines := []string{
		fmt.Sprintf("ok: %t", ok),
		"version: " + orDash(api.StringField(payload, "version")),
		"inference: " + orDash(api.StringField(payload, "inference")),
	}
	providers := api.ObjectField(payload, "providers")
	names := make([]string, 0, len(providers))
	for name := range providers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		lines = append(lines, fmt.Sprintf("provider.%s: %s", name, orDash(api.StringField(providers, name))))
	}
	return lines
}

func whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in account",
		Args:  requireArgs(cobra.NoArgs),
		RunE: withClient(func(cmd *cobra.Command, _ []string, rt *runtime, c *api.Client) error {
			resp, err := c.Me(cmd.Context())
			if err != nil {
				return err
			}
			return rt.out.Result(resp, func() {
				rt.out.Human("id: %s", orDash(resp.String("id")))
				rt.out.Human("email: %s", orDash(resp.String("email")))
				rt.out.Human("plan_status: %s", orDash(resp.String("planStatus")))
				rt.out.Human("period_end: %s", orDash(resp.String("currentPeriodEnd")))
			})
		}),
	}
}

func usageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "usage",
		Short: "Show token usage for the current period",
		Args:  requireArgs(cobra.NoArgs),
		RunE: withClient(func(cmd *cobra.Command, _ []string, rt *runtime, c *api.Client) error {
			resp, err := c.Usage(cmd.Context())
			if err != nil {
				return err
			}
			return rt.out.Result(resp, func() {
				for _, line := range usageLines(resp.JSON) {
					rt.out.Human("%s", line)
				}
			})
		}),
	}
}

func usageLines(payload map[string]any) []string {
	count := func(key string) string {
		if n, ok := api.IntField(payload, key); ok {
			return humanize.Comma(int64(n))
		}
		return "-"
	}
	return []string{
		"total_tokens: " + count("totalTokens"),
		"token_limit: " + count("tokenLimit"),
		"period_start: " + orDash(api.StringField(payload, "periodStart")),
		"period_end: " + orDash(api.StringField(payload, "periodEnd")),
	}
}

// ---------------------------------------------------------------------------
// status: health, account and usage in one call
// ---------------------------------------------------------------------------

type statusPart struct {
	resp *api.Response
	err  error
}

func (p statusPart) value() any {
	if p.err != nil {
		return map[string]any{"error": p.err.Error()}
	}
	return p.resp.JSON
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show server health, account and usage together",
		Args:  requireArgs(cobra.NoArgs),
		RunE: withClient(func(cmd *cobra.Command, _ []string, rt *runtime, c *api.Client) error {
			var health, me, usage statusPart

			g, ctx := errgroup.WithContext(cmd.Context())
			g.Go(func() error {
				health.resp, health.err = c.Health(ctx)
				// An unreachable server cancels the account calls.
				if apierr.Is(health.err, apierr.KindNetwork) {
					return health.err
				}
				return nil
			})
			if c.HasToken() {
				g.Go(func() error {
					me.resp, me.err = c.Me(ctx)
					return nil
				})
				g.Go(func() error {
					usage.resp, usage.err = c.Usage(ctx)
					return nil
				})
			} else {
				me.err = apierr.Auth("%s", api.MissingTokenMessage)
				usage.err = me.err
			}
			if err := g.Wait(); err != nil {
				return err
			}

			// Nothing else is meaningful when the server is unreachable.
			if health.err != nil && me.err != nil {
				return health.err
			}

			profile := rt.profile()
			if rt.out.Structured() {
				return rt.out.Data(map[string]any{
					"profile": profile,
					"apiUrl":  c.BaseURL(),
					"health":  health.value(),
					"me":      me.value(),
					"usage":   usage.value(),
				})
			}

			rt.out.Human("profile: %s", profile)
			rt.out.Human("api_url: %s", c.BaseURL())
			if health.err != nil {
				rt.out.Human("health: %s", health.err)
			} else {
				for _, line := range healthLines(health.resp.JSON) {
					rt.out.Human("%s", line)
				}
			}
			if me.err != nil {
				rt.out.Human("account: %s", me.err)
			} else {
				rt.out.Human("account: %s", orDash(me.resp.String("email")))
			}
			if usage.err == nil {
				for _, line := range usageLines(usage.resp.JSON) {
					rt.out.Human("%s", line)
				}
			}
			return nil
		}),
	}
}

// ---------------------------------------------------------------------------
// version
// ---------------------------------------------------------------------------

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  requireArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := printerFromFlags(cmd)
			if out.Structured() {
				return out.Data(map[string]any{
					"version": api.Version,
					"commit":  commit,
					"go":      goruntime.Version(),
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "starbott version %s (%s)\n", api.Version, commit)
			fmt.Fprintf(cmd.OutOrStdout(), "go version %s %s/%s\n", goruntime.Version(), goruntime.GOOS, goruntime.GOARCH)
			return nil
		},
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
