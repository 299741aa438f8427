package config

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/Dhanuzh/starbott/internal/apierr"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var sb strings.Builder
	sb.WriteString("configuration validation failed:\n")
	for _, err := range e {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// ValidateURL accepts only absolute http and https URLs.
func ValidateURL(value string) error {
	u, err := url.Parse(strings.TrimSpace(value))
	if err != nil {
		return apierr.Usage("Invalid API URL %q: %v", value, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return apierr.Usage("API URL must use http:// or https://.")
	}
	if u.Host == "" {
		return apierr.Usage("Invalid API URL %q: missing host", value)
	}
	return nil
}

// Validate checks the whole file. knownThemes may be nil to skip the theme check.
func (c *Config) Validate(knownThemes []string) error {
	var errors ValidationErrors

	if _, ok := c.Profiles[c.Profile]; !ok {
		errors = append(errors, ValidationError{
			Field:   "profile",
			Message: fmt.Sprintf("active profile '%s' does not exist", c.Profile),
		})
	}

	names := make([]string, 0, len(c.Profiles))
	for name := range c.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := ValidateURL(c.Profiles[name].APIURL); err != nil {
			errors = append(errors, ValidationError{
				Field:   "profiles." + name + ".api_url",
				Message: err.Error(),
			})
		}
	}

	if c.RateLimit < 0 {
		errors = append(errors, ValidationError{
			Field:   "rate_limit",
			Message: "must be non-negative",
		})
	}
	if c.Breaker.Threshold < 0 {
		errors = append(errors, ValidationError{
			Field:   "breaker.threshold",
			Message: "must be non-negative",
		})
	}
	if c.Breaker.CooldownSeconds < 0 {
		errors = append(errors, ValidationError{
			Field:   "breaker.cooldown_seconds",
			Message: "must be non-negative",
		})
	}

	if knownThemes != nil {
		found := false
		for _, t := range knownThemes {
			if t == c.Theme {
				found = true
				break
			}
		}
		if !found {
			errors = append(errors, ValidationError{
				Field:   "theme",
				Message: fmt.Sprintf("unknown theme '%s', valid: %s", c.Theme, strings.Join(knownThemes, ", ")),
			})
		}
	}

	if len(errors) > 0 {
		return errors
	}
	return nil
}

// GetConfigPrecedence returns a description of config source precedence
func GetConfigPrecedence() string {
	return `Configuration is resolved in the following order (later sources override earlier):

1. Built-in defaults (profile "default", api_url http://localhost:3737)
2. Config file ($STARBOTT_CONFIG or <user config dir>/starbott/config.json)
3. Environment variables (STARBOTT_PROFILE, STARBOTT_THEME, STARBOTT_RATE_LIMIT)
4. STARBOTT_TOKEN for the bearer token of the active profile
5. Command-line flags (--profile, --api-url)
`
}
