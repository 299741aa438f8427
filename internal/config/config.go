package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/spf13/viper"

	"github.com/Dhanuzh/starbott/internal/apierr"
)

// ---------------------------------------------------------------------------
// Environment variables and defaults
// ---------------------------------------------------------------------------

const (
	EnvConfig = "STARBOTT_CONFIG" // path to a custom config file
	EnvToken  = "STARBOTT_TOKEN"  // overrides the active profile token

	DefaultAPIURL  = "http://localhost:3737"
	DefaultProfile = "default"
	DefaultTheme   = "mocha"
)

// ---------------------------------------------------------------------------
// Config shape
// ---------------------------------------------------------------------------

// Profile is one named backend target.
type Profile struct {
	APIURL       string `mapstructure:"api_url" json:"api_url"`
	Token        string `mapstructure:"token" json:"token,omitempty"`
	RefreshToken string `mapstructure:"refresh_token" json:"refresh_token,omitempty"`
	WorkspaceID  string `mapstructure:"workspace_id" json:"workspace_id,omitempty"`
}

// BreakerConfig tunes the transport circuit breaker.
type BreakerConfig struct {
	Threshold       int  `mapstructure:"threshold" json:"threshold"`
	CooldownSeconds int  `mapstructure:"cooldown_seconds" json:"cooldown_seconds"`
	Disabled        bool `mapstructure:"disabled" json:"disabled,omitempty"`
}

// Config is the on-disk file. Profile names are case-insensitive and stored
// lower-cased.
type Config struct {
	Profile  string              `mapstructure:"profile" json:"profile"`
	Profiles map[string]*Profile `mapstructure:"profiles" json:"profiles"`

	Theme     string        `mapstructure:"theme" json:"theme,omitempty"`
	RateLimit float64       `mapstructure:"rate_limit" json:"rate_limit,omitempty"`
	Breaker   BreakerConfig `mapstructure:"breaker" json:"breaker"`
}

// Store owns a loaded Config and its path. Methods are safe for concurrent
// use; the TUI persists workspace choices from its render goroutine while
// command code may read the same store.
type Store struct {
	mu     sync.Mutex
	path   string
	cfg    Config
	logger *slog.Logger
}

// DefaultPath returns $STARBOTT_CONFIG or <user config dir>/starbott/config.json.
func DefaultPath() (string, error) {
	if p := strings.TrimSpace(os.Getenv(EnvConfig)); p != "" {
		return p, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", apierr.Wrap(apierr.KindGeneric, err, "Could not resolve config directory for this OS.")
	}
	return filepath.Join(base, "starbott", "config.json"), nil
}

// Dir returns the directory holding the config file, used for logs too.
func (s *Store) Dir() string {
	return filepath.Dir(s.path)
}

// ---------------------------------------------------------------------------
// Loading and saving
// ---------------------------------------------------------------------------

// Load reads the config at path. A missing file yields the defaults. Values
// can be overridden by STARBOTT_* environment variables (STARBOTT_PROFILE,
// STARBOTT_THEME, STARBOTT_RATE_LIMIT, ...).
func Load(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	v := viper.New()
	v.SetDefault("profile", DefaultProfile)
	v.SetDefault("theme", DefaultTheme)
	v.SetDefault("rate_limit", 0)
	v.SetDefault("breaker.threshold", 5)
	v.SetDefault("breaker.cooldown_seconds", 30)
	v.SetDefault("breaker.disabled", false)

	v.SetConfigFile(path)
	v.SetConfigType("json")
	v.SetEnvPrefix("STARBOTT")
	v.AutomaticEnv()

	if _, err := os.Stat(path); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return nil, apierr.Wrap(apierr.KindGeneric, err, "Failed to read config %s: %v", path, err)
		}
		logger.Debug("config loaded", "path", path)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, apierr.Wrap(apierr.KindGeneric, err, "Failed to read config %s: %v", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, apierr.Wrap(apierr.KindGeneric, err, "Invalid config %s: %v", path, err)
	}
	cfg.normalize()

	return &Store{path: path, cfg: cfg, logger: logger}, nil
}

// NewStore wraps an in-memory config; used by tests and `config init`.
func NewStore(path string, cfg Config) *Store {
	cfg.normalize()
	return &Store{path: path, cfg: cfg, logger: slog.Default()}
}

func (c *Config) normalize() {
	c.Profile = normalizeName(c.Profile)
	if c.Profile == "" {
		c.Profile = DefaultProfile
	}
	if c.Theme == "" {
		c.Theme = DefaultTheme
	}
	profiles := make(map[string]*Profile, len(c.Profiles))
	for name, p := range c.Profiles {
		if p == nil {
			p = &Profile{}
		}
		if strings.TrimSpace(p.APIURL) == "" {
			p.APIURL = DefaultAPIURL
		}
		profiles[normalizeName(name)] = p
	}
	c.Profiles = profiles
	c.ensure(c.Profile)
}

func (c *Config) ensure(name string) *Profile {
	if p, ok := c.Profiles[name]; ok {
		return p
	}
	p := &Profile{APIURL: DefaultAPIURL}
	c.Profiles[name] = p
	return p
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Path returns the file this store reads and writes.
func (s *Store) Path() string {
	return s.path
}

// Save writes the config as indented JSON with 0600 permissions.
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked()
}

func (s *Store) saveLocked() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return apierr.Wrap(apierr.KindGeneric, err, "Failed to create config directory: %v", err)
	}
	data, err := json.MarshalIndent(s.cfg, "", "  ")
	if err != nil {
		return apierr.Wrap(apierr.KindGeneric, err, "Failed to encode config: %v", err)
	}
	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return apierr.Wrap(apierr.KindGeneric, err, "Failed to write config %s: %v", s.path, err)
	}
	s.logger.Debug("config saved", "path", s.path)
	return nil
}

// ---------------------------------------------------------------------------
// Profiles
// ---------------------------------------------------------------------------

// ActiveProfile returns override when set, else the configured profile.
func (s *Store) ActiveProfile(override string) string {
	if n := normalizeName(override); n != "" {
		return n
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.Profile
}

// Profile returns a copy of the named profile.
func (s *Store) Profile(name string) (Profile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.cfg.Profiles[normalizeName(name)]
	if !ok {
		return Profile{}, false
	}
	return *p, true
}

// EnsureProfile creates name with defaults if it does not exist. It does not save.
func (s *Store) EnsureProfile(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.ensure(normalizeName(name))
}

// Profiles returns all profile names, sorted.
func (s *Store) Profiles() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.cfg.Profiles))
	for name := range s.cfg.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// UseProfile makes name the active profile and saves.
func (s *Store) UseProfile(name string) error {
	name = normalizeName(name)
	if name == "" {
		return apierr.Usage("Profile name cannot be empty.")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.ensure(name)
	s.cfg.Profile = name
	return s.saveLocked()
}

// Settable profile keys. The camelCase spelling matches the server's JSON.
var profileKeys = map[string]string{
	"api_url":      "api_url",
	"apiurl":       "api_url",
	"token":        "token",
	"workspace_id": "workspace_id",
	"workspaceid":  "workspace_id",
}

// SetProfileValue sets one key on the named profile and saves.
func (s *Store) SetProfileValue(name, key, value string) error {
	field, ok := profileKeys[strings.ToLower(strings.TrimSpace(key))]
	if !ok {
		return apierr.Usage("Unknown config key %q (expected apiUrl, token or workspaceId).", key)
	}
	value = strings.TrimSpace(value)
	if field == "api_url" {
		if err := ValidateURL(value); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.cfg.ensure(normalizeName(name))
	switch field {
	case "api_url":
		p.APIURL = value
	case "token":
		p.Token = value
	case "workspace_id":
		p.WorkspaceID = value
	}
	return s.saveLocked()
}

// SaveWorkspace persists the selected workspace for a profile.
func (s *Store) SaveWorkspace(name, workspaceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.cfg.ensure(normalizeName(name))
	p.WorkspaceID = strings.TrimSpace(workspaceID)
	return s.saveLocked()
}

// ---------------------------------------------------------------------------
// Resolution
// ---------------------------------------------------------------------------

// ResolveAPIURL returns the override when given, else the profile's URL. Both
// must be http or https.
func (s *Store) ResolveAPIURL(name, override string) (string, error) {
	if o := strings.TrimSpace(override); o != "" {
		if err := ValidateURL(o); err != nil {
			return "", err
		}
		return o, nil
	}
	p, ok := s.Profile(name)
	if !ok {
		return "", apierr.Usage("Profile '%s' does not exist.", normalizeName(name))
	}
	if err := ValidateURL(p.APIURL); err != nil {
		return "", err
	}
	return p.APIURL, nil
}

// ResolveToken returns $STARBOTT_TOKEN when set, else the profile token.
func (s *Store) ResolveToken(name string) string {
	if t := strings.TrimSpace(os.Getenv(EnvToken)); t != "" {
		return t
	}
	p, _ := s.Profile(name)
	return strings.TrimSpace(p.Token)
}

// Theme returns the configured TUI theme name.
func (s *Store) Theme() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.Theme
}

// RateLimit returns the client-side request pacing in requests per second.
func (s *Store) RateLimit() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.RateLimit
}

// Breaker returns the circuit breaker settings.
func (s *Store) Breaker() BreakerConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.Breaker
}

// Snapshot returns a deep copy of the config for display.
func (s *Store) Snapshot() Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := s.cfg
	cp.Profiles = make(map[string]*Profile, len(s.cfg.Profiles))
	for k, p := range s.cfg.Profiles {
		pc := *p
		cp.Profiles[k] = &pc
	}
	return cp
}

// String renders the config with secrets redacted.
func (c Config) String() string {
	cp := c
	cp.Profiles = make(map[string]*Profile, len(c.Profiles))
	for k, p := range c.Profiles {
		pc := *p
		pc.Token = apierr.RedactSecret(pc.Token)
		pc.RefreshToken = apierr.RedactSecret(pc.RefreshToken)
		cp.Profiles[k] = &pc
	}
	data, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return fmt.Sprintf("profile: %s", cp.Profile)
	}
	return string(data)
}
