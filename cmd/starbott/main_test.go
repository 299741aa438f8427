package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/Dhanuzh/starbott/internal/apierr"
	"github.com/Dhanuzh/starbott/internal/config"
	"github.com/Dhanuzh/starbott/internal/tui"
)

// testEnv points the config at a temp file and sets a token.
func testEnv(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	t.Setenv(config.EnvConfig, path)
	t.Setenv(config.EnvToken, "test-token")
	t.Setenv("CI", "")
	return path
}

func execute(t *testing.T, stdin string, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--retries", "0"}, args...))
	err = root.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

// recorded holds the last JSON body received per path.
type recorded struct {
	mu     sync.Mutex
	bodies map[string]map[string]any
}

func (r *recorded) get(path string) map[string]any {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.bodies[path]
}

// jsonServer answers each path with the given payload and records request bodies.
func jsonServer(t *testing.T, routes map[string]string) (*httptest.Server, *recorded) {
	t.Helper()
	rec := &recorded{bodies: map[string]map[string]any{}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		payload, ok := routes[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		if data, _ := io.ReadAll(r.Body); len(data) > 0 {
			var m map[string]any
			_ = json.Unmarshal(data, &m)
			rec.mu.Lock()
			rec.bodies[r.URL.Path] = m
			rec.mu.Unlock()
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("x-request-id", "req-1")
		_, _ = io.WriteString(w, payload)
	}))
	t.Cleanup(srv.Close)
	return srv, rec
}

const healthPayload = `{"ok":true,"version":"1.2.0","inference":"ready","providers":{"vertex":"up","azure":"down"}}`

func TestHealthHuman(t *testing.T) {
	testEnv(t)
	srv, _ := jsonServer(t, map[string]string{"/health": healthPayload})

	out, _, err := execute(t, "", "--api-url", srv.URL, "health")
	require.NoError(t, err)
	assert.Equal(t, "ok: true\nversion: 1.2.0\ninference: ready\nprovider.azure: down\nprovider.vertex: up\n", out)
}

func TestHealthStructured(t *testing.T) {
	testEnv(t)
	srv, _ := jsonServer(t, map[string]string{"/health": healthPayload})

	out, _, err := execute(t, "", "--api-url", srv.URL, "--json", "health")
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(out, "\n"), "JSON output is one line")
	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "1.2.0", got["version"])

	out, _, err = execute(t, "", "--api-url", srv.URL, "--yaml", "health")
	require.NoError(t, err)
	got = nil
	require.NoError(t, yaml.Unmarshal([]byte(out), &got))
	assert.Equal(t, true, got["ok"])
}

func TestQuietSuppressesHumanOutput(t *testing.T) {
	testEnv(t)
	srv, _ := jsonServer(t, map[string]string{"/health": healthPayload})

	out, _, err := execute(t, "", "--api-url", srv.URL, "--quiet", "health")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestChatFromStdin(t *testing.T) {
	testEnv(t)
	srv, bodies := jsonServer(t, map[string]string{
		"/v1/inference/chat": `{"reply":"hi there","provider":"azure","model":"gpt-5"}`,
	})

	out, stderr, err := execute(t, "  hello \n", "--api-url", srv.URL, "--verbose", "chat", "--stdin", "-m", "azure:gpt-5")
	require.NoError(t, err)
	assert.Equal(t, "hi there\n", out)
	assert.Contains(t, stderr, "request_id=req-1")
	assert.Contains(t, stderr, "provider=azure model=gpt-5 usage(unknown)")

	body := bodies.get("/v1/inference/chat")
	require.NotNil(t, body)
	assert.Equal(t, "azure", body["provider"])
	assert.Equal(t, "gpt-5", body["model"])
	assert.Equal(t, "cli", body["client"])
	msgs := body["messages"].([]any)
	require.Len(t, msgs, 1)
	assert.Equal(t, "hello", msgs[0].(map[string]any)["content"])
}

func TestChatEmptyReply(t *testing.T) {
	testEnv(t)
	srv, _ := jsonServer(t, map[string]string{"/v1/inference/chat": `{"reply":"  "}`})

	out, _, err := execute(t, "", "--api-url", srv.URL, "chat", "hi")
	require.NoError(t, err)
	assert.Equal(t, noTextResponse+"\n", out)
}

func TestChatPromptErrors(t *testing.T) {
	testEnv(t)

	_, _, err := execute(t, "", "chat")
	require.Error(t, err)
	assert.Equal(t, apierr.ExitUsage, apierr.ExitCodeOf(err))
	assert.Contains(t, err.Error(), "Missing prompt")

	_, _, err = execute(t, "   ", "chat", "--stdin")
	require.Error(t, err)
	assert.Equal(t, "No prompt provided via stdin. Pipe text or pass a prompt argument.", err.Error())
}

func TestChatStream(t *testing.T) {
	testEnv(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/inference/chat/stream", r.URL.Path)
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = io.WriteString(w,
			"event: status\ndata: {\"message\":\"thinking\"}\n\n"+
				"event: token\ndata: {\"text\":\"Hel\"}\n\n"+
				"event: token\ndata: {\"text\":\"lo\"}\n\n"+
				"event: done\ndata: {\"provider\":\"kimi\"}\n\n")
	}))
	t.Cleanup(srv.Close)

	out, _, err := execute(t, "", "--api-url", srv.URL, "chat", "--stream", "hi")
	require.NoError(t, err)
	assert.Equal(t, "Hello\n", out)
}

func TestChatStreamError(t *testing.T) {
	testEnv(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = io.WriteString(w, "event: error\ndata: {\"message\":\"model overloaded\"}\n\n")
	}))
	t.Cleanup(srv.Close)

	_, _, err := execute(t, "", "--api-url", srv.URL, "chat", "--stream", "hi")
	require.Error(t, err)
	assert.True(t, apierr.Is(err, apierr.KindServer))
	assert.Equal(t, "model overloaded", err.Error())
}

func TestToolsProposeWithApproval(t *testing.T) {
	testEnv(t)
	srv, bodies := jsonServer(t, map[string]string{
		"/v1/tools/propose": `{"requiresConfirmation":true,"proposalId":"p1","expiresAt":"soon","preview":{"path":"a"}}`,
		"/v1/tools/commit":  `{"ok":true}`,
	})

	out, stderr, err := execute(t, "y\n", "--api-url", srv.URL,
		"tools", "propose", "--workspace-id", "w1", "--tool-name", "file.write", "--input", `{"path":"a"}`)
	require.NoError(t, err)
	assert.Contains(t, out, "tool requires approval: proposalId=p1 expiresAt=soon\n")
	assert.Contains(t, out, "committed.\n")
	assert.Contains(t, stderr, "Approve? [y/N] ")

	assert.Equal(t, "w1", bodies.get("/v1/tools/propose")["workspaceId"])
	assert.Equal(t, map[string]any{"path": "a"}, bodies.get("/v1/tools/propose")["input"])
	assert.Equal(t, "p1", bodies.get("/v1/tools/commit")["proposalId"])
}

func TestToolsProposeDeny(t *testing.T) {
	testEnv(t)
	srv, bodies := jsonServer(t, map[string]string{
		"/v1/tools/propose": `{"requiresConfirmation":true,"proposalId":"p1"}`,
		"/v1/tools/deny":    `{"ok":true}`,
	})

	out, _, err := execute(t, "\n", "--api-url", srv.URL,
		"tools", "propose", "--workspace-id", "w1", "--tool-name", "shell.exec", "--deny-reason", "nope")
	require.NoError(t, err)
	assert.Contains(t, out, "denied.\n")
	assert.Equal(t, "nope", bodies.get("/v1/tools/deny")["reason"])
}

func TestToolsProposeSafeTool(t *testing.T) {
	testEnv(t)
	srv, _ := jsonServer(t, map[string]string{
		"/v1/tools/propose": `{"runId":"r9","result":{"entries":[]}}`,
	})

	out, _, err := execute(t, "", "--api-url", srv.URL, "tools", "propose", "--workspace-id", "w1", "--tool-name", "file.dir")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "tool completed: runId=r9\n{\n  \"entries\": []\n}"))
}

func TestToolInputValidation(t *testing.T) {
	v, err := parseToolInput("  ")
	require.NoError(t, err)
	assert.Empty(t, v)

	_, err = parseToolInput("[1]")
	require.Error(t, err)
	assert.Equal(t, "Tool input must be a JSON object.", err.Error())

	_, err = parseToolInput("{bad")
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "Invalid JSON input: "))

	testEnv(t)
	_, _, err = execute(t, "{}", "tools", "propose", "--workspace-id", "w1", "--tool-name", "x", "--input", "{}", "--stdin")
	require.Error(t, err)
	assert.Equal(t, "Pass only one of --input, --input-file, or --stdin.", err.Error())

	_, _, err = execute(t, "", "tools", "commit")
	require.Error(t, err)
	assert.Equal(t, "--proposal-id is required.", err.Error())
}

func TestWorkspacePermissions(t *testing.T) {
	testEnv(t)
	srv, bodies := jsonServer(t, map[string]string{
		"/v1/workspaces/w1/permissions": `{"permission":{"can_write_files":true}}`,
	})

	_, _, err := execute(t, "", "--api-url", srv.URL, "workspaces", "permissions", "w1")
	require.Error(t, err)
	assert.Equal(t, "No permission fields provided. Pass e.g. --can-write-files true", err.Error())

	out, _, err := execute(t, "", "--api-url", srv.URL,
		"workspaces", "permissions", "w1", "--can-write-files", "true", "--can-web-search=false")
	require.NoError(t, err)
	assert.Equal(t, "permissions updated: read_files=false write_files=true read_images=false write_images=false web_search=false\n", out)
	assert.Equal(t, map[string]any{"can_write_files": true, "can_web_search": false}, bodies.get("/v1/workspaces/w1/permissions"))

	_, _, err = execute(t, "", "--api-url", srv.URL, "workspaces", "permissions", "w1", "--can-read-files", "maybe")
	require.Error(t, err)
	assert.Equal(t, apierr.ExitUsage, apierr.ExitCodeOf(err))
}

func TestWorkspacesListAndUse(t *testing.T) {
	path := testEnv(t)
	srv, _ := jsonServer(t, map[string]string{
		"/v1/workspaces": `{"workspaces":[
			{"id":"w1","name":"starbot-api","rootPath":"/src/api"},
			{"id":"w2","name":"website","rootPath":"/src/web","archived":true}
		]}`,
	})

	out, _, err := execute(t, "", "--api-url", srv.URL, "workspaces", "list")
	require.NoError(t, err)
	assert.Equal(t, "- starbot-api  (w1)  /src/api\n- website  (w2)  /src/web\n", out)

	out, _, err = execute(t, "", "--api-url", srv.URL, "workspaces", "use", "sbapi")
	require.NoError(t, err)
	assert.Equal(t, "Active workspace: starbot-api (w1)\n", out)

	store, err := config.Load(path, nil)
	require.NoError(t, err)
	p, _ := store.Profile(config.DefaultProfile)
	assert.Equal(t, "w1", p.WorkspaceID)
}

func TestPickWorkspace(t *testing.T) {
	options := []tui.WorkspaceOption{
		{ID: "w1", Name: "starbot-api"},
		{ID: "w2", Name: "website", Archived: true},
		{ID: "w3", Name: "web-tools"},
	}

	ws, err := pickWorkspace(options, "w3")
	require.NoError(t, err)
	assert.Equal(t, "w3", ws.ID)

	_, err = pickWorkspace(options, "w2")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "archived")

	ws, err = pickWorkspace(options, "web")
	require.NoError(t, err)
	assert.Equal(t, "w3", ws.ID, "archived workspaces are not fuzzy candidates")

	_, err = pickWorkspace(options, "zzz")
	require.Error(t, err)
}

func TestModelsFilter(t *testing.T) {
	testEnv(t)
	srv, _ := jsonServer(t, map[string]string{
		"/v1/models": `{"providers":[
			{"provider":"azure","model":"gpt-5","label":"GPT 5"},
			{"provider":"kimi","label":"Kimi"},
			{"provider":"vertex","model":"gemini-2.5-pro","label":"Gemini"}
		]}`,
	})

	out, _, err := execute(t, "", "--api-url", srv.URL, "models", "gemini")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 1)
	assert.True(t, strings.HasPrefix(lines[0], "- vertex:gemini-2.5-pro"))

	out, _, err = execute(t, "", "--api-url", srv.URL, "--json", "models")
	require.NoError(t, err)
	var got struct {
		Models []map[string]any `json:"models"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got.Models, 3)
	assert.Equal(t, "kimi", got.Models[1]["selector"])
}

func TestTasksCreateAndUpdate(t *testing.T) {
	testEnv(t)
	srv, bodies := jsonServer(t, map[string]string{
		"/v1/tasks":    `{"task":{"id":"t1","title":"Ship it"}}`,
		"/v1/tasks/t1": `{"task":{"id":"t1","title":"Ship it"}}`,
	})

	out, _, err := execute(t, "", "--api-url", srv.URL,
		"tasks", "create", "Ship it", "--priority", "3", "--dependencies", "a, b,,c", "--estimated-hours", "2")
	require.NoError(t, err)
	assert.Equal(t, "✓ Created task: Ship it (ID: t1)\n", out)
	body := bodies.get("/v1/tasks")
	assert.Equal(t, "Ship it", body["title"])
	assert.Equal(t, float64(3), body["priority"])
	assert.Equal(t, float64(2), body["estimatedHours"])
	assert.Equal(t, []any{"a", "b", "c"}, body["dependencies"])
	assert.NotContains(t, body, "description")

	out, _, err = execute(t, "", "--api-url", srv.URL, "tasks", "update", "t1", "--status", "IN_PROGRESS")
	require.NoError(t, err)
	assert.Equal(t, "✓ Updated task: Ship it\n", out)
	assert.Equal(t, map[string]any{"status": "IN_PROGRESS"}, bodies.get("/v1/tasks/t1"))

	_, _, err = execute(t, "", "--api-url", srv.URL, "tasks", "update", "t1")
	require.Error(t, err)
	assert.Equal(t, apierr.ExitUsage, apierr.ExitCodeOf(err))
}

func TestTasksList(t *testing.T) {
	testEnv(t)
	srv, _ := jsonServer(t, map[string]string{
		"/v1/tasks": `{"tasks":[{"title":"Write docs","status":"PENDING","priority":2,"description":"README"}]}`,
	})

	out, _, err := execute(t, "", "--api-url", srv.URL, "tasks", "list")
	require.NoError(t, err)
	assert.Equal(t, "Tasks:\n⏳ [2] ⋅⋅ Write docs\n    README\n", out)
}

func TestConfigCommands(t *testing.T) {
	testEnv(t)
	t.Setenv(config.EnvToken, "")

	_, _, err := execute(t, "", "config", "set", "apiUrl", "https://api.example.dev")
	require.NoError(t, err)
	out, _, err := execute(t, "", "config", "get", "apiUrl")
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.dev\n", out)

	out, _, err = execute(t, "", "config", "get", "token")
	require.NoError(t, err)
	assert.Equal(t, "(not set)\n", out)

	_, _, err = execute(t, "", "config", "set", "token", "abcdefghij")
	require.NoError(t, err)
	out, _, err = execute(t, "", "config", "get", "token")
	require.NoError(t, err)
	assert.Equal(t, "abc****hij\n", out)

	_, _, err = execute(t, "", "config", "set", "apiUrl", "ftp://nope")
	require.Error(t, err)
	assert.Equal(t, apierr.ExitUsage, apierr.ExitCodeOf(err))

	out, _, err = execute(t, "", "config", "use", "Work")
	require.NoError(t, err)
	assert.Equal(t, "Active profile: work\n", out)

	out, _, err = execute(t, "", "config", "profiles")
	require.NoError(t, err)
	assert.Equal(t, "  default\n* work\n", out)
}

func TestAuthLoginWithToken(t *testing.T) {
	path := testEnv(t)

	_, _, err := execute(t, "", "auth", "login", "--token", "  ")
	require.Error(t, err)
	assert.Equal(t, "Token cannot be empty.", err.Error())

	out, _, err := execute(t, "", "auth", "login", "--token", "tok-123")
	require.NoError(t, err)
	assert.Equal(t, "  Logged in successfully.\n", out)

	store, err := config.Load(path, nil)
	require.NoError(t, err)
	p, _ := store.Profile(config.DefaultProfile)
	assert.Equal(t, "tok-123", p.Token)

	out, _, err = execute(t, "", "auth", "logout")
	require.NoError(t, err)
	assert.Equal(t, "Logged out.\n", out)
}

func TestAuthLoginRefusesDeviceFlowInCI(t *testing.T) {
	testEnv(t)
	t.Setenv("CI", "true")

	_, _, err := execute(t, "", "auth", "login")
	require.Error(t, err)
	assert.Equal(t, "CI mode detected. Pass `--token` explicitly.", err.Error())
}

func TestPrinterError(t *testing.T) {
	var out, errOut bytes.Buffer
	p := &printer{mode: modeJSON, stdout: &out, stderr: &errOut}
	p.Error(apierr.Usage("bad flag"))
	assert.JSONEq(t, `{"error":"bad flag","code":"usage"}`, out.String())
	assert.Empty(t, errOut.String())

	out.Reset()
	p = &printer{stdout: &out, stderr: &errOut}
	p.Error(apierr.Network("connection refused"))
	assert.Equal(t, "Error: connection refused"+apierr.DebugHint+"\n", errOut.String())
	assert.Empty(t, out.String())

	errOut.Reset()
	p.Error(apierr.Network("%s", apierr.WithDebugHint("Request timed out.", false)))
	assert.Equal(t, "Error: Request timed out."+apierr.DebugHint+"\n", errOut.String())
}

func TestUsageLines(t *testing.T) {
	lines := usageLines(map[string]any{"totalTokens": float64(12345), "periodEnd": "2026-11-01"})
	assert.Equal(t, []string{
		"total_tokens: 12,345",
		"token_limit: -",
		"period_start: -",
		"period_end: 2026-11-01",
	}, lines)
}

func TestUnknownFlagIsUsageError(t *testing.T) {
	testEnv(t)
	_, _, err := execute(t, "", "health", "--bogus")
	require.Error(t, err)
	assert.Equal(t, apierr.ExitUsage, apierr.ExitCodeOf(err))
}

func TestStatusReport(t *testing.T) {
	testEnv(t)
	srv, _ := jsonServer(t, map[string]string{
		"/health":           healthPayload,
		"/v1/auth/me":       `{"email":"ada@example.com"}`,
		"/v1/usage/current": `{"totalTokens":1500}`,
	})

	out, _, err := execute(t, "", "--api-url", srv.URL, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "api_url: "+srv.URL)
	assert.Contains(t, out, "ok: true")
	assert.Contains(t, out, "account: ada@example.com")
	assert.Contains(t, out, "total_tokens: 1,500")
}

func TestStatusUnreachableCancelsAccountCalls(t *testing.T) {
	testEnv(t)
	var cancelled atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			conn, _, err := http.NewResponseController(w).Hijack()
			if err == nil {
				_ = conn.Close()
			}
			return
		}
		select {
		case <-r.Context().Done():
			cancelled.Add(1)
		case <-time.After(5 * time.Second):
		}
	}))
	t.Cleanup(srv.Close)

	_, _, err := execute(t, "", "--api-url", srv.URL, "status")
	require.Error(t, err)
	assert.Equal(t, apierr.ExitNetwork, apierr.ExitCodeOf(err))
	assert.Eventually(t, func() bool { return cancelled.Load() == 2 }, 2*time.Second, 10*time.Millisecond)
}
