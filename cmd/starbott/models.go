package main

import (
	"github.com/sahilm/fuzzy"
	"github.com/spf13/cobra"

	"github.com/Dhanuzh/starbott/internal/api"
	"github.com/Dhanuzh/starbott/internal/apierr"
	"github.com/Dhanuzh/starbott/internal/tui"
)

func modelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "models [query]",
		Short: "List models offered by the server",
		Long: `List models offered by the server. An optional query fuzzy-matches
against provider, model id and label. Pass a listed selector to "chat -m".`,
		Args: requireArgs(cobra.MaximumNArgs(1)),
		RunE: withClient(func(cmd *cobra.Command, args []string, rt *runtime, c *api.Client) error {
			resp, err := c.Models(cmd.Context())
			if err != nil {
				return err
			}
			rt.out.Request(resp)

			options, ok := tui.ParseModelOptions(resp.JSON)
			if !ok {
				return apierr.Server("Models response has no providers list.")
			}
			if len(args) > 0 {
				options = filterModels(options, args[0])
			}

			if rt.out.Structured() {
				list := make([]map[string]any, 0, len(options))
				for _, o := range options {
					list = append(list, map[string]any{
						"selector": modelSelector(o),
						"provider": o.Provider,
						"model":    o.Model,
						"label":    o.Label,
					})
				}
				return rt.out.Data(map[string]any{"models": list})
			}

			if len(options) == 0 {
				rt.out.Human("No models.")
				return nil
			}
			for _, o := range options {
				rt.out.Human("- %-40s %s", modelSelector(o), o.Label)
			}
			return nil
		}),
	}
}

// modelSelector renders an option the way ParseModelSelector reads it back.
func modelSelector(o tui.ModelOption) string {
	if o.Model == "" {
		return o.Provider
	}
	return o.Provider + ":" + o.Model
}

type modelSource []tui.ModelOption

func (s modelSource) String(i int) string {
	return modelSelector(s[i]) + " " + s[i].Label
}

func (s modelSource) Len() int { return len(s) }

// filterModels keeps the options matching query, best match first.
func filterModels(options []tui.ModelOption, query string) []tui.ModelOption {
	matches := fuzzy.FindFrom(query, modelSource(options))
	out := make([]tui.ModelOption, 0, len(matches))
	for _, m := range matches {
		out = append(out, options[m.Index])
	}
	return out
}
