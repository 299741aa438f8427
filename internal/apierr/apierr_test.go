package apierr

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindForStatus(t *testing.T) {
	tests := []struct {
		status int
		want   Kind
	}{
		{400, KindUsage},
		{401, KindAuth},
		{403, KindAuth},
		{404, KindGeneric},
		{409, KindGeneric},
		{429, KindRateLimited},
		{500, KindServer},
		{503, KindServer},
		{599, KindServer},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.want, KindForStatus(tt.status))
		})
	}
}

func TestExitCodes(t *testing.T) {
	assert.Equal(t, 3, Usage("x").ExitCode())
	assert.Equal(t, 2, Auth("x").ExitCode())
	assert.Equal(t, 4, Network("x").ExitCode())
	assert.Equal(t, 5, RateLimited("x").ExitCode())
	assert.Equal(t, 6, Server("x").ExitCode())
	assert.Equal(t, 1, Generic("x").ExitCode())
}

func TestKindSurvivesWrapping(t *testing.T) {
	base := RateLimited("slow down")
	wrapped := fmt.Errorf("fetch models: %w", base)

	assert.Equal(t, KindRateLimited, KindOf(wrapped))
	assert.Equal(t, ExitRateLimited, ExitCodeOf(wrapped))
	assert.True(t, Is(wrapped, KindRateLimited))
	assert.Equal(t, KindGeneric, KindOf(fmt.Errorf("plain")))
	assert.Equal(t, 0, ExitCodeOf(nil))
}

func TestRedactSecret(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"abc", "abc"},
		{"abcdef", "abcdef"},
		{"abcdefg", "abc*efg"},
		{"sk-live-1234567890", "sk-************890"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := RedactSecret(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Len(t, got, len(tt.in))
		})
	}
}

func TestRedactReplacesEveryOccurrence(t *testing.T) {
	text := `{"token":"tok_secret_value","echo":"tok_secret_value"}`
	got := Redact(text, "tok_secret_value")
	assert.NotContains(t, got, "tok_secret_value")
	assert.Contains(t, got, "tok**********lue")
}

func TestWithDebugHint(t *testing.T) {
	assert.Equal(t, "boom (try --debug for details)", WithDebugHint("boom", false))
	assert.Equal(t, "boom", WithDebugHint("boom", true))
}
