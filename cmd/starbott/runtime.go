package main

import (
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/Dhanuzh/starbott/internal/api"
	"github.com/Dhanuzh/starbott/internal/config"
	"github.com/Dhanuzh/starbott/internal/logger"
)

// runtime bundles what every command needs: the printer, the loaded config
// and the global flag values.
type runtime struct {
	out    *printer
	store  *config.Store
	logger *slog.Logger

	profileFlag string
	apiURLFlag  string
	timeout     time.Duration
	retries     int
	debug       bool
}

func newRuntime(cmd *cobra.Command) (*runtime, error) {
	flags := cmd.Root().PersistentFlags()
	verbose, _ := flags.GetBool("verbose")
	debug, _ := flags.GetBool("debug")
	profile, _ := flags.GetString("profile")
	apiURL, _ := flags.GetString("api-url")
	timeoutMS, _ := flags.GetInt("timeout")
	retries, _ := flags.GetInt("retries")

	log, _, err := logger.New(logger.Config{Level: logger.LevelFor(verbose, debug), Output: "stderr"})
	if err != nil {
		return nil, err
	}
	store, err := config.Load("", log)
	if err != nil {
		return nil, err
	}

	return &runtime{
		out:         printerFromFlags(cmd),
		store:       store,
		logger:      log,
		profileFlag: profile,
		apiURLFlag:  apiURL,
		timeout:     time.Duration(timeoutMS) * time.Millisecond,
		retries:     retries,
		debug:       debug,
	}, nil
}

// profile is the active profile name after applying --profile.
func (r *runtime) profile() string {
	return r.store.ActiveProfile(r.profileFlag)
}

// workspace returns flag when set, else the profile's saved workspace.
func (r *runtime) workspace(flag string) string {
	if flag != "" {
		return flag
	}
	p, _ := r.store.Profile(r.profile())
	return p.WorkspaceID
}

// client builds an API client for the active profile.
func (r *runtime) client() (*api.Client, error) {
	name := r.profile()
	baseURL, err := r.store.ResolveAPIURL(name, r.apiURLFlag)
	if err != nil {
		return nil, err
	}
	return api.New(api.Options{
		BaseURL:   baseURL,
		Token:     r.store.ResolveToken(name),
		Timeout:   r.timeout,
		Retries:   r.retries,
		Debug:     r.debug,
		RateLimit: r.store.RateLimit(),
		Breaker:   breakerOptions(r.store.Breaker()),
		Logger:    r.logger,
	}), nil
}

func breakerOptions(b config.BreakerConfig) api.BreakerConfig {
	threshold := b.Threshold
	if threshold < 0 {
		threshold = 0
	}
	return api.BreakerConfig{
		Threshold: uint32(threshold),
		Cooldown:  time.Duration(b.CooldownSeconds) * time.Second,
		Disabled:  b.Disabled,
	}
}

// withClient is the RunE shape shared by commands that only talk to the API.
func withClient(fn func(cmd *cobra.Command, args []string, rt *runtime, c *api.Client) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime(cmd)
		if err != nil {
			return err
		}
		c, err := rt.client()
		if err != nil {
			return err
		}
		return fn(cmd, args, rt, c)
	}
}
