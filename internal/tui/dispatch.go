package tui

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/Dhanuzh/starbott/internal/api"
)

// Dispatcher runs jobs in the background. Each job gets its own clone of the
// client and reports through the shared Inbox; jobs never touch App.
type Dispatcher struct {
	ctx    context.Context
	cancel context.CancelFunc
	client *api.Client
	inbox  *Inbox
	logger *slog.Logger
	wg     sync.WaitGroup
}

func NewDispatcher(client *api.Client, inbox *Inbox, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{ctx: ctx, cancel: cancel, client: client, inbox: inbox, logger: logger}
}

// Spawn starts job and returns its id. It does not wait.
func (d *Dispatcher) Spawn(job Job) string {
	id := ulid.Make().String()
	tag := Tag{Job: id}
	c := d.client.Clone()

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		start := time.Now()
		d.logger.Debug("job started", "kind", job.Kind, "detail", job.Detail, "job", id)
		job.Run(d.ctx, c, tag, d.inbox.Send)
		d.logger.Debug("job finished", "kind", job.Kind, "job", id, "elapsed", time.Since(start))
	}()
	return id
}

// SpawnAll starts every job in order.
func (d *Dispatcher) SpawnAll(jobs []Job) {
	for _, j := range jobs {
		d.Spawn(j)
	}
}

// Wait blocks until every spawned job has returned.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Shutdown cancels in-flight jobs at process exit and closes the inbox.
func (d *Dispatcher) Shutdown() {
	d.cancel()
	d.inbox.Close()
}
