package api

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Response is the envelope returned for every successful call.
type Response struct {
	RequestID string
	Elapsed   time.Duration
	Status    int
	JSON      map[string]any
}

// String returns a trimmed string field, or "".
func (r *Response) String(key string) string {
	if r == nil {
		return ""
	}
	return StringField(r.JSON, key)
}

// Bool returns a boolean field, or false.
func (r *Response) Bool(key string) bool {
	if r == nil {
		return false
	}
	b, _ := r.JSON[key].(bool)
	return b
}

// decodeBody parses a response body. Empty bodies become {}, bodies that are
// not JSON become {"raw": text}, and JSON that is not an object is kept under
// "data".
func decodeBody(body []byte) map[string]any {
	text := strings.TrimSpace(string(body))
	if text == "" {
		return map[string]any{}
	}
	var v any
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return map[string]any{"raw": string(body)}
	}
	if obj, ok := v.(map[string]any); ok {
		return obj
	}
	return map[string]any{"data": v}
}

// ─── Field helpers ──────────────────────────────────────────────────────────────

// StringField returns m[key] as a trimmed string.
func StringField(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	s, _ := m[key].(string)
	return strings.TrimSpace(s)
}

// ObjectField returns m[key] when it is a JSON object.
func ObjectField(m map[string]any, key string) map[string]any {
	if m == nil {
		return nil
	}
	o, _ := m[key].(map[string]any)
	return o
}

// ArrayField returns m[key] when it is a JSON array.
func ArrayField(m map[string]any, key string) []any {
	if m == nil {
		return nil
	}
	a, _ := m[key].([]any)
	return a
}

// IntField returns m[key] as an int; JSON numbers decode as float64.
func IntField(m map[string]any, key string) (int, bool) {
	if m == nil {
		return 0, false
	}
	switch v := m[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case json.Number:
		n, err := v.Int64()
		return int(n), err == nil
	}
	return 0, false
}

// ─── Extractors ─────────────────────────────────────────────────────────────────

// ExtractReply returns the assistant text from a chat payload: "reply" first,
// then "message.content".
func ExtractReply(payload map[string]any) (string, bool) {
	if s, ok := payload["reply"].(string); ok {
		return s, true
	}
	if msg := ObjectField(payload, "message"); msg != nil {
		if s, ok := msg["content"].(string); ok {
			return s, true
		}
	}
	return "", false
}

// ExtractProviderModel returns the provider and model that served a reply.
func ExtractProviderModel(payload map[string]any) (provider, model string) {
	provider = StringField(payload, "provider")
	model = StringField(payload, "model")
	if msg := ObjectField(payload, "message"); msg != nil {
		if provider == "" {
			provider = StringField(msg, "provider")
		}
		if model == "" {
			model = StringField(msg, "model")
		}
	}
	return provider, model
}

// UsageLine formats token usage as "usage(input=N, output=N, total=N)".
func UsageLine(payload map[string]any) string {
	usage := ObjectField(payload, "usage")
	if usage == nil {
		return "usage(unknown)"
	}
	pick := func(keys ...string) (int, bool) {
		for _, k := range keys {
			if n, ok := IntField(usage, k); ok {
				return n, true
			}
		}
		return 0, false
	}
	in, _ := pick("inputTokens", "input_tokens")
	out, _ := pick("outputTokens", "output_tokens")
	total, ok := pick("totalTokens", "total_tokens")
	if !ok {
		total = in + out
	}
	return fmt.Sprintf("usage(input=%d, output=%d, total=%d)", in, out, total)
}

// errorMessage picks the server's explanation out of an error payload.
func errorMessage(payload map[string]any, status int) string {
	if s := StringField(payload, "error"); s != "" {
		return s
	}
	if e := ObjectField(payload, "error"); e != nil {
		if s := StringField(e, "message"); s != "" {
			return s
		}
	}
	if s := StringField(payload, "message"); s != "" {
		return s
	}
	return fmt.Sprintf("Request failed with status %d", status)
}
