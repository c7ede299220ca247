package views

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dolphinheart/mulastudio/internal/api"
	"github.com/dolphinheart/mulastudio/internal/core"
	"github.com/dolphinheart/mulastudio/internal/pagestate"
)

// watch is one in-flight poll loop. The worker goroutine pushes every
// status observation onto ch and finishes with a TaskDoneMsg before
// closing; the owning view re-arms core.WaitFor(ch) from its Update until
// the done message arrives. The channel is sized for the whole attempt
// budget so the worker never blocks on a slow UI.
type watch struct {
	taskID string
	cancel context.CancelFunc
	ch     chan tea.Msg
}

func startWatch(m *core.Model, owner pagestate.ViewID, taskID string) (*watch, tea.Cmd) {
	opts := api.PollOptions{
		Interval:    m.Cfg.Poll.Interval,
		MaxAttempts: m.Cfg.Poll.MaxAttempts,
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = api.DefaultPollAttempts
	}
	ctx, cancel := context.WithCancel(m.Ctx)
	ch := make(chan tea.Msg, opts.MaxAttempts+1)
	opts.OnStatus = func(t *api.Task) {
		ch <- core.TaskEventMsg{Owner: owner, Task: *t, Status: t.Status}
	}
	client := m.API
	go func() {
		defer close(ch)
		task, err := client.AwaitTask(ctx, taskID, opts)
		ch <- core.TaskDoneMsg{Owner: owner, Task: task, Err: err}
	}()
	return &watch{taskID: taskID, cancel: cancel, ch: ch}, core.WaitFor(ch)
}

func (w *watch) stop() {
	if w != nil && w.cancel != nil {
		w.cancel()
	}
}

func (w *watch) next() tea.Cmd {
	if w == nil {
		return nil
	}
	return core.WaitFor(w.ch)
}
