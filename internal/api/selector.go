package api

import "strings"

// KnownProviders are selector values that name a provider rather than a model.
var KnownProviders = []string{"auto", "kimi", "gemini", "vertex", "cloudflare", "azure", "openai"}

// ParseModelSelector turns "provider:model", a bare provider name, or a bare
// model id into a provider/model pair. A bare model id routes through "auto".
// An empty selector yields ("auto", "").
func ParseModelSelector(selector string) (provider, model string) {
	s := strings.TrimSpace(selector)
	if s == "" {
		return "auto", ""
	}
	if p, m, ok := strings.Cut(s, ":"); ok {
		provider = strings.ToLower(strings.TrimSpace(p))
		if provider == "" {
			provider = "auto"
		}
		return provider, strings.TrimSpace(m)
	}
	lower := strings.ToLower(s)
	for _, known := range KnownProviders {
		if lower == known {
			return lower, ""
		}
	}
	return "auto", s
}
