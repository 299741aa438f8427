package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Dhanuzh/starbott/internal/api"
	"github.com/Dhanuzh/starbott/internal/apierr"
)

const noTextResponse = "(No text response)"

func chatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat [prompt]",
		Short: "Send one prompt and print the reply",
		Args:  requireArgs(cobra.MaximumNArgs(1)),
		RunE: withClient(func(cmd *cobra.Command, args []string, rt *runtime, c *api.Client) error {
			fromStdin, _ := cmd.Flags().GetBool("stdin")
			selector, _ := cmd.Flags().GetString("model")
			chatID, _ := cmd.Flags().GetString("conversation")
			workspace, _ := cmd.Flags().GetString("workspace")
			stream, _ := cmd.Flags().GetBool("stream")

			prompt, err := resolvePrompt(args, fromStdin, cmd.InOrStdin())
			if err != nil {
				return err
			}

			provider, model := api.ParseModelSelector(selector)
			body := api.NewChatRequest([]api.ChatMessage{{Role: "user", Content: prompt}}, provider, model)
			body.ChatID = chatID
			body.WorkspaceID = rt.workspace(workspace)
			rt.logger.Debug("chat request", "provider", provider, "model", model, "stream", stream)

			if stream && !rt.out.Structured() {
				return streamChat(cmd, rt, c, body)
			}

			resp, err := c.Chat(cmd.Context(), body)
			if err != nil {
				return err
			}
			return rt.out.Result(resp, func() {
				reply, ok := api.ExtractReply(resp.JSON)
				if !ok || strings.TrimSpace(reply) == "" {
					reply = noTextResponse
				}
				rt.out.Human("%s", reply)
				verboseReplyMeta(rt.out, resp.JSON)
			})
		}),
	}

	cmd.Flags().StringP("model", "m", "", "Model selector: provider:model, a provider name or a model id")
	cmd.Flags().StringP("conversation", "c", "", "Continue an existing conversation id")
	cmd.Flags().String("workspace", "", "Workspace id (defaults to the profile workspace)")
	cmd.Flags().Bool("stdin", false, "Read the prompt from stdin")
	cmd.Flags().Bool("stream", false, "Print tokens as they arrive")
	return cmd
}

// resolvePrompt picks the prompt from stdin or the positional argument.
func resolvePrompt(args []string, fromStdin bool, in io.Reader) (string, error) {
	if fromStdin {
		data, err := io.ReadAll(in)
		if err != nil {
			return "", apierr.Wrap(apierr.KindGeneric, err, "Failed reading stdin: %v", err)
		}
		text := strings.TrimSpace(string(data))
		if text == "" {
			return "", apierr.Usage("No prompt provided via stdin. Pipe text or pass a prompt argument.")
		}
		return text, nil
	}
	if len(args) == 0 || strings.TrimSpace(args[0]) == "" {
		return "", apierr.Usage("Missing prompt. Use `starbott chat \"...\"` or pass `--stdin`.")
	}
	return strings.TrimSpace(args[0]), nil
}

func verboseReplyMeta(out *printer, payload map[string]any) {
	provider, model := api.ExtractProviderModel(payload)
	if provider == "" {
		provider = "unknown"
	}
	if model == "" {
		model = "unknown"
	}
	out.Verbose("provider=%s model=%s %s", provider, model, api.UsageLine(payload))
}

// streamChat prints token events as they arrive. A stream that ends without
// tokens falls back to the reply carried by the final event.
func streamChat(cmd *cobra.Command, rt *runtime, c *api.Client, body api.ChatRequest) error {
	w := cmd.OutOrStdout()
	printed := false
	var final map[string]any
	var streamErr error

	err := c.ChatStream(cmd.Context(), body, func(ev api.Event) error {
		var data map[string]any
		if json.Unmarshal([]byte(ev.Data), &data) != nil {
			data = nil
		}
		switch ev.Kind {
		case "token", "token.delta":
			text := ev.Data
			if data != nil {
				text, _ = data["text"].(string)
			}
			if text != "" && !rt.out.quiet {
				fmt.Fprint(w, text)
				printed = true
			}
		case "status":
			if s := api.StringField(data, "message"); s != "" {
				rt.out.Verbose("status: %s", s)
			}
		case "done", "message.final":
			final = data
			return api.ErrStopStream
		case "error":
			msg := api.StringField(data, "message")
			if msg == "" {
				msg = strings.TrimSpace(ev.Data)
			}
			if msg == "" {
				msg = "stream failed"
			}
			streamErr = apierr.Server("%s", msg)
			return api.ErrStopStream
		}
		return nil
	})
	if printed {
		fmt.Fprintln(w)
	}
	if err != nil {
		return err
	}
	if streamErr != nil {
		return streamErr
	}

	if !printed {
		reply, ok := api.ExtractReply(final)
		if !ok || strings.TrimSpace(reply) == "" {
			reply = noTextResponse
		}
		rt.out.Human("%s", reply)
	}
	if final != nil {
		verboseReplyMeta(rt.out, final)
	}
	return nil
}
