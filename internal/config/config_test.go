package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Dhanuzh/starbott/internal/apierr"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(body), 0600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

// TestLoadMissingFileUsesDefaults returns the default profile when no file exists.
func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv(EnvToken, "")
	path := filepath.Join(t.TempDir(), "absent", "config.json")

	s, err := Load(path, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := s.ActiveProfile(""); got != DefaultProfile {
		t.Errorf("ActiveProfile: want %q, got %q", DefaultProfile, got)
	}
	url, err := s.ResolveAPIURL(s.ActiveProfile(""), "")
	if err != nil {
		t.Fatalf("ResolveAPIURL: %v", err)
	}
	if url != DefaultAPIURL {
		t.Errorf("api url: want %q, got %q", DefaultAPIURL, url)
	}
	if s.Theme() != DefaultTheme {
		t.Errorf("theme: want %q, got %q", DefaultTheme, s.Theme())
	}
	if b := s.Breaker(); b.Threshold != 5 || b.CooldownSeconds != 30 {
		t.Errorf("breaker defaults: got %+v", b)
	}
}

// TestLoadReadsProfiles reads profiles and normalizes names.
func TestLoadReadsProfiles(t *testing.T) {
	t.Setenv(EnvToken, "")
	path := writeConfig(t, `{
		"profile": "Work",
		"profiles": {
			"Work": {"api_url": "https://api.example.com", "token": "tok-work", "workspace_id": "ws1"},
			"local": {}
		},
		"rate_limit": 2.5
	}`)

	s, err := Load(path, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := s.ActiveProfile(""); got != "work" {
		t.Errorf("ActiveProfile: want work, got %q", got)
	}
	p, ok := s.Profile("WORK")
	if !ok {
		t.Fatal("profile work missing")
	}
	if p.WorkspaceID != "ws1" || p.Token != "tok-work" {
		t.Errorf("profile: got %+v", p)
	}
	local, _ := s.Profile("local")
	if local.APIURL != DefaultAPIURL {
		t.Errorf("empty api_url should default, got %q", local.APIURL)
	}
	if s.RateLimit() != 2.5 {
		t.Errorf("rate_limit: got %v", s.RateLimit())
	}
	if got := strings.Join(s.Profiles(), ","); got != "local,work" {
		t.Errorf("Profiles: got %q", got)
	}
}

// TestResolveTokenEnvOverride prefers STARBOTT_TOKEN over the stored token.
func TestResolveTokenEnvOverride(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "c.json"), Config{
		Profiles: map[string]*Profile{"default": {Token: "stored"}},
	})

	t.Setenv(EnvToken, "")
	if got := s.ResolveToken("default"); got != "stored" {
		t.Errorf("want stored, got %q", got)
	}
	t.Setenv(EnvToken, "  from-env  ")
	if got := s.ResolveToken("default"); got != "from-env" {
		t.Errorf("want from-env, got %q", got)
	}
}

// TestResolveAPIURL validates overrides and unknown profiles.
func TestResolveAPIURL(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "c.json"), Config{})

	if _, err := s.ResolveAPIURL("default", "ftp://x"); apierr.KindOf(err) != apierr.KindUsage {
		t.Errorf("ftp override: want usage error, got %v", err)
	} else if err.Error() != "API URL must use http:// or https://." {
		t.Errorf("message: got %q", err.Error())
	}
	got, err := s.ResolveAPIURL("default", "https://override.dev")
	if err != nil || got != "https://override.dev" {
		t.Errorf("override: got %q, %v", got, err)
	}
	_, err = s.ResolveAPIURL("nope", "")
	if err == nil || err.Error() != "Profile 'nope' does not exist." {
		t.Errorf("missing profile: got %v", err)
	}
}

// TestSaveWorkspacePersists writes the workspace with 0600 permissions.
func TestSaveWorkspacePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")
	s := NewStore(path, Config{})

	if err := s.SaveWorkspace("default", "ws-42"); err != nil {
		t.Fatalf("SaveWorkspace: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("expected 0600 permissions, got %04o", perm)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	var got Config
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got.Profiles["default"].WorkspaceID != "ws-42" {
		t.Errorf("workspace_id: got %q", got.Profiles["default"].WorkspaceID)
	}
}

// TestSetProfileValue accepts known keys and rejects bad URLs.
func TestSetProfileValue(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "c.json"), Config{})

	if err := s.SetProfileValue("staging", "apiUrl", "https://staging.example"); err != nil {
		t.Fatalf("set apiUrl: %v", err)
	}
	if err := s.SetProfileValue("staging", "token", "t1"); err != nil {
		t.Fatalf("set token: %v", err)
	}
	p, _ := s.Profile("staging")
	if p.APIURL != "https://staging.example" || p.Token != "t1" {
		t.Errorf("profile: got %+v", p)
	}
	if err := s.SetProfileValue("staging", "apiUrl", "not a url"); apierr.KindOf(err) != apierr.KindUsage {
		t.Errorf("bad url: want usage error, got %v", err)
	}
	if err := s.SetProfileValue("staging", "colour", "x"); apierr.KindOf(err) != apierr.KindUsage {
		t.Errorf("unknown key: want usage error, got %v", err)
	}
}

// TestUseProfileAndTokens switches profiles and clears credentials.
func TestUseProfileAndTokens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.json")
	s := NewStore(path, Config{})

	if err := s.UseProfile("Prod"); err != nil {
		t.Fatalf("UseProfile: %v", err)
	}
	if err := s.SetTokens("prod", "access", "refresh"); err != nil {
		t.Fatalf("SetTokens: %v", err)
	}

	t.Setenv(EnvToken, "")
	reloaded, err := Load(path, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if reloaded.ActiveProfile("") != "prod" {
		t.Errorf("active profile not persisted: %q", reloaded.ActiveProfile(""))
	}
	if got := reloaded.ResolveToken("prod"); got != "access" {
		t.Errorf("token: got %q", got)
	}

	if err := reloaded.ClearTokens("prod"); err != nil {
		t.Fatalf("ClearTokens: %v", err)
	}
	if p, _ := reloaded.Profile("prod"); p.Token != "" || p.RefreshToken != "" {
		t.Errorf("tokens not cleared: %+v", p)
	}
	if err := s.SetTokens("prod", "  ", ""); apierr.KindOf(err) != apierr.KindUsage {
		t.Errorf("empty token: want usage error, got %v", err)
	}
}

// TestValidate reports every bad field.
func TestValidate(t *testing.T) {
	cfg := Config{
		Profile:   "default",
		Profiles:  map[string]*Profile{"default": {APIURL: "ftp://bad"}},
		Theme:     "neon",
		RateLimit: -1,
	}
	err := cfg.Validate([]string{"mocha", "latte"})
	verrs, ok := err.(ValidationErrors)
	if !ok {
		t.Fatalf("want ValidationErrors, got %T", err)
	}
	if len(verrs) != 3 {
		t.Errorf("want 3 errors, got %d: %v", len(verrs), verrs)
	}

	good := Config{Profile: "default", Profiles: map[string]*Profile{"default": {APIURL: DefaultAPIURL}}, Theme: "mocha"}
	if err := good.Validate([]string{"mocha"}); err != nil {
		t.Errorf("valid config: %v", err)
	}
}

// TestStringRedactsTokens never prints raw tokens.
func TestStringRedactsTokens(t *testing.T) {
	cfg := Config{Profile: "default", Profiles: map[string]*Profile{"default": {Token: "supersecrettoken"}}}
	out := cfg.String()
	if strings.Contains(out, "supersecrettoken") {
		t.Errorf("token leaked: %s", out)
	}
	if !strings.Contains(out, "sup**********ken") {
		t.Errorf("redacted token missing: %s", out)
	}
}
