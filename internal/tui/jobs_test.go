package tui

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dhanuzh/starbott/internal/api"
)

func testClient(t *testing.T, url string) *api.Client {
	t.Helper()
	return api.New(api.Options{
		BaseURL: url,
		Token:   "tok",
		Retries: 0,
		Timeout: 5 * time.Second,
		Breaker: api.BreakerConfig{Disabled: true},
	})
}

func collect(t *testing.T, job Job, c *api.Client) []Msg {
	t.Helper()
	var got []Msg
	job.Run(context.Background(), c, Tag{Job: "j1"}, func(m Msg) { got = append(got, m) })
	return got
}

func TestStreamMessage(t *testing.T) {
	tag := Tag{Job: "j"}
	tests := []struct {
		name     string
		ev       api.Event
		want     Msg
		terminal bool
	}{
		{"token json", api.Event{Kind: "token", Data: `{"text":" hi"}`}, StreamTokenMsg{Tag: tag, Text: " hi"}, false},
		{"token delta raw", api.Event{Kind: "token.delta", Data: "raw"}, StreamTokenMsg{Tag: tag, Text: "raw"}, false},
		{"empty token", api.Event{Kind: "token", Data: `{"text":""}`}, nil, false},
		{"status", api.Event{Kind: "status", Data: `{"message":"routing"}`}, StreamStatusMsg{Tag: tag, Text: "routing"}, false},
		{"status without message", api.Event{Kind: "status", Data: `{}`}, nil, false},
		{"status names chat", api.Event{Kind: "status", Data: `{"chatId":"c3"}`}, StreamStatusMsg{Tag: tag, ChatID: "c3"}, false},
		{"token names chat", api.Event{Kind: "token", Data: `{"text":"a","chatId":"c3"}`}, StreamTokenMsg{Tag: tag, Text: "a", ChatID: "c3"}, false},
		{"done", api.Event{Kind: "message.final", Data: `{"chatId":"c1"}`}, StreamDoneMsg{Tag: tag, Meta: map[string]any{"chatId": "c1"}}, true},
		{"done no body", api.Event{Kind: "done"}, StreamDoneMsg{Tag: tag, Meta: map[string]any{}}, true},
		{"error json", api.Event{Kind: "error", Data: `{"message":"quota"}`}, StreamErrorMsg{Tag: tag, Text: "quota"}, true},
		{"error raw", api.Event{Kind: "error", Data: " boom "}, StreamErrorMsg{Tag: tag, Text: "boom"}, true},
		{"error empty", api.Event{Kind: "error"}, StreamErrorMsg{Tag: tag, Text: "stream failed"}, true},
		{"unknown", api.Event{Kind: "ping", Data: "{}"}, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, terminal := streamMessage(tag, tt.ev)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.terminal, terminal)
		})
	}
}

func sseServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/inference/chat/stream", r.URL.Path)
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestChatStreamJob(t *testing.T) {
	srv := sseServer(t,
		"event: status\ndata: {\"message\":\"thinking\"}\n\n"+
			"event: token\ndata: {\"text\":\"Hel\"}\n\n"+
			"event: token\ndata: {\"text\":\"lo\"}\n\n"+
			"event: message.final\ndata: {\"chatId\":\"c9\"}\n\n"+
			"event: token\ndata: {\"text\":\"ignored\"}\n\n")

	got := collect(t, chatStream(api.NewChatRequest(nil, "auto", "")), testClient(t, srv.URL))
	require.Len(t, got, 4)
	assert.Equal(t, StreamStatusMsg{Tag: Tag{Job: "j1"}, Text: "thinking"}, got[0])
	assert.Equal(t, StreamTokenMsg{Tag: Tag{Job: "j1"}, Text: "Hel"}, got[1])
	assert.Equal(t, StreamTokenMsg{Tag: Tag{Job: "j1"}, Text: "lo"}, got[2])
	assert.Equal(t, StreamDoneMsg{Tag: Tag{Job: "j1"}, Meta: map[string]any{"chatId": "c9"}}, got[3])
}

func TestChatStreamJobSynthesizesDone(t *testing.T) {
	srv := sseServer(t, "event: token\ndata: {\"text\":\"a\"}\n\n")

	got := collect(t, chatStream(api.NewChatRequest(nil, "auto", "")), testClient(t, srv.URL))
	require.Len(t, got, 2)
	assert.Equal(t, StreamDoneMsg{Tag: Tag{Job: "j1"}, Meta: map[string]any{}}, got[1])
}

func TestChatStreamJobConnectionDropped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, buf, err := http.NewResponseController(w).Hijack()
		if !assert.NoError(t, err) {
			return
		}
		defer conn.Close()
		event := "event: token\ndata: {\"text\":\"Hel\"}\n\n"
		_, _ = io.WriteString(buf, "HTTP/1.1 200 OK\r\nContent-Type: text/event-stream\r\nTransfer-Encoding: chunked\r\n\r\n")
		_, _ = fmt.Fprintf(buf, "%x\r\n%s\r\n", len(event), event)
		_, _ = io.WriteString(buf, "40\r\nevent: tok")
		_ = buf.Flush()
	}))
	defer srv.Close()

	got := collect(t, chatStream(api.NewChatRequest(nil, "auto", "")), testClient(t, srv.URL))
	require.Len(t, got, 2)
	assert.Equal(t, StreamTokenMsg{Tag: Tag{Job: "j1"}, Text: "Hel"}, got[0])
	msg, ok := got[1].(StreamErrorMsg)
	require.True(t, ok, "got %T", got[1])
	assert.Contains(t, msg.Text, "stream interrupted")
}

func TestChatStreamJobHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = io.WriteString(w, `{"error":"upstream down"}`)
	}))
	defer srv.Close()

	got := collect(t, chatStream(api.NewChatRequest(nil, "auto", "")), testClient(t, srv.URL))
	require.Len(t, got, 1)
	msg, ok := got[0].(StreamErrorMsg)
	require.True(t, ok)
	assert.Contains(t, msg.Text, "upstream down")
}

func TestFetchJobsReportResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/models":
			_, _ = io.WriteString(w, `{"providers":[{"provider":"kimi"}]}`)
		case "/v1/chats/t1/messages":
			_, _ = io.WriteString(w, `{"messages":[]}`)
		case "/v1/workspaces/w1/files":
			assert.Equal(t, "src", r.URL.Query().Get("path"))
			_, _ = io.WriteString(w, `{"files":[]}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()
	c := testClient(t, srv.URL)

	got := collect(t, fetchModels(), c)
	require.Len(t, got, 1)
	models := got[0].(ModelsMsg)
	require.NoError(t, models.Err)
	assert.Equal(t, "j1", models.JobID())

	got = collect(t, fetchThreadMessages("t1"), c)
	assert.Equal(t, "t1", got[0].(ThreadMessagesMsg).ThreadID)

	got = collect(t, fetchFiles("w1", "src"), c)
	files := got[0].(FilesMsg)
	require.NoError(t, files.Err)
	assert.Equal(t, "src", files.Path)

	got = collect(t, fetchHealth(), c)
	assert.Error(t, got[0].(HealthMsg).Err)
}

func TestDispatcherDeliversToInbox(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprintf(w, `{"path":%q}`, r.URL.Path)
	}))
	defer srv.Close()

	inbox := NewInbox()
	d := NewDispatcher(testClient(t, srv.URL), inbox, nil)
	id := d.Spawn(fetchModels())
	d.SpawnAll([]Job{fetchHealth(), fetchWorkspaces()})
	d.Wait()

	msgs := inbox.Drain()
	require.Len(t, msgs, 3)
	ids := map[string]bool{}
	for _, m := range msgs {
		ids[m.JobID()] = true
	}
	assert.Len(t, ids, 3, "each job has its own id")
	assert.True(t, ids[id])
	assert.Empty(t, inbox.Drain())

	d.Shutdown()
	inbox.Send(HealthMsg{})
	assert.Zero(t, inbox.Len(), "sends after shutdown are dropped")
}

func TestDispatcherShutdownCancelsJobs(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer srv.Close()
	defer close(release)

	inbox := NewInbox()
	d := NewDispatcher(testClient(t, srv.URL), inbox, nil)
	d.Spawn(fetchModels())
	d.Shutdown()

	done := make(chan struct{})
	go func() {
		d.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("job did not stop after shutdown")
	}
}

func TestInboxOrder(t *testing.T) {
	in := NewInbox()
	assert.Nil(t, in.Drain())
	in.Send(HealthMsg{Tag: Tag{Job: "1"}})
	in.Send(HealthMsg{Tag: Tag{Job: "2"}})
	assert.Equal(t, 2, in.Len())

	got := in.Drain()
	require.Len(t, got, 2)
	assert.Equal(t, "1", got[0].JobID())
	assert.Equal(t, "2", got[1].JobID())
	assert.Zero(t, in.Len())
}
