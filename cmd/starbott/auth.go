package main

import (
	"context"
	"os"
	goruntime "runtime"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Dhanuzh/starbott/internal/api"
	"github.com/Dhanuzh/starbott/internal/apierr"
	"github.com/Dhanuzh/starbott/internal/config"
)

const (
	devicePollWindow      = 180 * time.Second
	defaultDeviceInterval = 5
)

func authCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage authentication",
	}
	cmd.AddCommand(authLoginCmd(), authLogoutCmd())
	return cmd
}

func authLoginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with the device code flow or a pasted token",
		Long: `Sign in to the active profile.

Without flags a device code is requested and the verification page is opened
in your browser; approve it there and the token is saved automatically.
Use --token to store an existing token (required under CI) or --paste to type
one without echo.`,
		Args: requireArgs(cobra.NoArgs),
		RunE: withRuntime(func(cmd *cobra.Command, _ []string, rt *runtime) error {
			name := rt.profile()

			if cmd.Flags().Changed("token") {
				token, _ := cmd.Flags().GetString("token")
				if strings.TrimSpace(token) == "" {
					return apierr.Usage("Token cannot be empty.")
				}
				if err := rt.store.SetTokens(name, token, ""); err != nil {
					return err
				}
				return loggedIn(rt)
			}
			if config.IsCI() {
				return apierr.Usage("CI mode detected. Pass `--token` explicitly.")
			}

			if paste, _ := cmd.Flags().GetBool("paste"); paste {
				token, err := config.ReadHiddenInput("Token: ", os.Stdin, cmd.ErrOrStderr())
				if err != nil {
					return err
				}
				if err := rt.store.SetTokens(name, token, ""); err != nil {
					return err
				}
				return loggedIn(rt)
			}

			c, err := rt.client()
			if err != nil {
				return err
			}
			noBrowser, _ := cmd.Flags().GetBool("no-browser")
			access, refresh, err := deviceLogin(cmd.Context(), rt, c, !noBrowser)
			if err != nil {
				return err
			}
			if err := rt.store.SetTokens(name, access, refresh); err != nil {
				return err
			}
			return loggedIn(rt)
		}),
	}
	cmd.Flags().String("token", "", "Store this token instead of using the device flow")
	cmd.Flags().Bool("paste", false, "Prompt for a token without echo")
	cmd.Flags().Bool("no-browser", false, "Do not open the verification page automatically")
	cmd.MarkFlagsMutuallyExclusive("token", "paste")
	return cmd
}

func loggedIn(rt *runtime) error {
	if rt.out.Structured() {
		return rt.out.Data(map[string]any{"ok": true})
	}
	rt.out.Human("  Logged in successfully.")
	return nil
}

// deviceLogin runs the device authorization flow and returns the issued
// access and refresh tokens.
func deviceLogin(ctx context.Context, rt *runtime, c *api.Client, openBrowser bool) (string, string, error) {
	hostname, err := os.Hostname()
	if err != nil || hostname == "" {
		hostname = "unknown"
	}
	start, err := c.DeviceStart(ctx, api.DeviceStartRequest{
		ClientName:    "starbott",
		ClientVersion: api.Version,
		DeviceMeta: api.DeviceMeta{
			Hostname: hostname,
			OS:       goruntime.GOOS,
			Arch:     goruntime.GOARCH,
		},
	})
	if err != nil {
		return "", "", err
	}
	rt.out.Request(start)

	deviceCode := start.String("deviceCode")
	userCode := start.String("userCode")
	verificationURL := start.String("verificationUrl")
	for field, v := range map[string]string{"deviceCode": deviceCode, "userCode": userCode, "verificationUrl": verificationURL} {
		if v == "" {
			return "", "", apierr.Server("Missing %s in response", field)
		}
	}
	interval, ok := api.IntField(start.JSON, "interval")
	if !ok || interval <= 0 {
		interval = defaultDeviceInterval
	}

	rt.out.Human("")
	rt.out.Human("  Visit: %s", verificationURL)
	rt.out.Human("  Code: %s", userCode)
	rt.out.Human("")
	rt.out.Human("  Waiting for authorization...")
	if openBrowser {
		if err := config.OpenBrowser(verificationURL + "?code=" + userCode); err != nil {
			rt.logger.Debug("open browser failed", "error", err)
		}
	}

	every := time.Duration(interval) * time.Second
	attempts := int(devicePollWindow / every)
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for i := 0; i < attempts; i++ {
		select {
		case <-ctx.Done():
			return "", "", apierr.Wrap(apierr.KindGeneric, ctx.Err(), "Login cancelled.")
		case <-ticker.C:
		}

		poll, err := c.DevicePoll(ctx, deviceCode)
		if err != nil {
			// Transient failures keep the loop going until the window closes.
			rt.logger.Debug("device poll failed", "attempt", i+1, "error", err)
			continue
		}
		switch poll.String("status") {
		case "authorized":
			return poll.String("accessToken"), poll.String("refreshToken"), nil
		case "expired":
			return "", "", apierr.Auth("Device code expired. Please try again.")
		}
	}
	return "", "", apierr.Auth("Authorization timed out. Please try again.")
}

func authLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove stored tokens from the active profile",
		Args:  requireArgs(cobra.NoArgs),
		RunE: withRuntime(func(cmd *cobra.Command, _ []string, rt *runtime) error {
			if err := rt.store.ClearTokens(rt.profile()); err != nil {
				return err
			}
			if rt.out.Structured() {
				return rt.out.Data(map[string]any{"ok": true})
			}
			rt.out.Human("Logged out.")
			return nil
		}),
	}
}
