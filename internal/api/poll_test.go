package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

// scriptedTaskServer serves GET /tasks/{id} from a fixed status sequence,
// sticking on the last entry once the script runs out.
type scriptedTaskServer struct {
	mu       sync.Mutex
	taskID   string
	statuses []Status
	result   json.RawMessage
	errMsg   string
	fetches  int
}

func (s *scriptedTaskServer) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		idx := s.fetches
		s.fetches++
		if idx >= len(s.statuses) {
			idx = len(s.statuses) - 1
		}
		status := s.statuses[idx]
		s.mu.Unlock()

		task := Task{ID: s.taskID, Type: TaskTypeGenerate, Status: status}
		if status == StatusCompleted {
			task.Result = s.result
		}
		if status == StatusFailed {
			task.ErrorMessage = s.errMsg
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(task)
	})
}

func (s *scriptedTaskServer) fetchCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetches
}

func TestAwaitTaskReturnsCompletedRecord(t *testing.T) {
	srv := &scriptedTaskServer{
		taskID:   "abc123",
		statuses: []Status{StatusPending, StatusPending, StatusRunning, StatusCompleted},
		result:   json.RawMessage(`{"url":"/audio/abc123"}`),
	}
	ts := httptest.NewServer(srv.handler())
	defer ts.Close()

	client := NewClient(ts.URL)
	var seen []Status
	task, err := client.AwaitTask(context.Background(), "abc123", PollOptions{
		OnStatus:    func(t *Task) { seen = append(seen, t.Status) },
		MaxAttempts: 10,
		Interval:    time.Millisecond,
	})
	if err != nil {
		t.Fatalf("await: %v", err)
	}
	if task.Status != StatusCompleted {
		t.Fatalf("status = %s, want completed", task.Status)
	}
	if string(task.Result) != `{"url":"/audio/abc123"}` {
		t.Fatalf("result = %s", task.Result)
	}
	want := []Status{StatusPending, StatusPending, StatusRunning, StatusCompleted}
	if len(seen) != len(want) {
		t.Fatalf("callback fired %d times, want %d", len(seen), len(want))
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("callback %d saw %s, want %s", i, seen[i], want[i])
		}
	}
	if got := srv.fetchCount(); got != 4 {
		t.Fatalf("fetches = %d, want 4", got)
	}
}

func TestAwaitTaskFailedJobIsDataNotError(t *testing.T) {
	srv := &scriptedTaskServer{
		taskID:   "t1",
		statuses: []Status{StatusRunning, StatusFailed},
		errMsg:   "CUDA out of memory",
	}
	ts := httptest.NewServer(srv.handler())
	defer ts.Close()

	client := NewClient(ts.URL)
	task, err := client.AwaitTask(context.Background(), "t1", PollOptions{MaxAttempts: 5, Interval: time.Millisecond})
	if err != nil {
		t.Fatalf("a failed job must come back as data, got error %v", err)
	}
	if task.Status != StatusFailed {
		t.Fatalf("status = %s, want failed", task.Status)
	}
	if task.ErrorMessage != "CUDA out of memory" {
		t.Fatalf("error_message = %q", task.ErrorMessage)
	}
}

func TestAwaitTaskTimeoutAfterExactBudget(t *testing.T) {
	srv := &scriptedTaskServer{taskID: "t2", statuses: []Status{StatusPending}}
	ts := httptest.NewServer(srv.handler())
	defer ts.Close()

	client := NewClient(ts.URL)
	_, err := client.AwaitTask(context.Background(), "t2", PollOptions{MaxAttempts: 5, Interval: time.Millisecond})
	var timeoutErr *PollTimeoutError
	if !errors.As(err, &timeoutErr) {
		t.Fatalf("err = %v, want *PollTimeoutError", err)
	}
	if timeoutErr.TaskID != "t2" || timeoutErr.Attempts != 5 {
		t.Fatalf("unexpected timeout error: %+v", timeoutErr)
	}
	if got := srv.fetchCount(); got != 5 {
		t.Fatalf("fetches = %d, want exactly 5", got)
	}
}

func TestAwaitTaskIntervalSpacesFetches(t *testing.T) {
	srv := &scriptedTaskServer{
		taskID:   "t3",
		statuses: []Status{StatusPending, StatusRunning, StatusCompleted},
	}
	ts := httptest.NewServer(srv.handler())
	defer ts.Close()

	client := NewClient(ts.URL)
	start := time.Now()
	_, err := client.AwaitTask(context.Background(), "t3", PollOptions{MaxAttempts: 3, Interval: 100 * time.Millisecond})
	if err != nil {
		t.Fatalf("await: %v", err)
	}
	elapsed := time.Since(start)
	// Completion on the third fetch means exactly two inter-fetch delays.
	if elapsed < 200*time.Millisecond {
		t.Fatalf("elapsed %v, want >= 200ms", elapsed)
	}
	if elapsed >= 350*time.Millisecond {
		t.Fatalf("elapsed %v, want well under three intervals", elapsed)
	}
}

func TestAwaitTaskFetchErrorPropagatesImmediately(t *testing.T) {
	var fetches int
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetches++
		http.Error(w, `{"detail":"boom"}`, http.StatusInternalServerError)
	}))
	defer ts.Close()

	client := NewClient(ts.URL)
	_, err := client.AwaitTask(context.Background(), "t4", PollOptions{MaxAttempts: 5, Interval: time.Millisecond})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusInternalServerError || apiErr.Detail != "boom" {
		t.Fatalf("unexpected api error: %+v", apiErr)
	}
	if fetches != 1 {
		t.Fatalf("fetches = %d, a transient failure must not be retried", fetches)
	}
}

func TestAwaitTaskCancellation(t *testing.T) {
	srv := &scriptedTaskServer{taskID: "t5", statuses: []Status{StatusPending}}
	ts := httptest.NewServer(srv.handler())
	defer ts.Close()

	client := NewClient(ts.URL)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	_, err := client.AwaitTask(ctx, "t5", PollOptions{MaxAttempts: 100, Interval: time.Hour})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if got := srv.fetchCount(); got != 1 {
		t.Fatalf("fetches = %d, cancellation must short-circuit the next fetch", got)
	}
}

func TestAwaitTaskIndependentLoops(t *testing.T) {
	var mu sync.Mutex
	scripts := map[string][]Status{
		"a": {StatusPending, StatusCompleted},
		"b": {StatusRunning, StatusRunning, StatusCompleted},
	}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Path[len("/tasks/"):]
		mu.Lock()
		task := Task{ID: id, Status: StatusCompleted}
		if seq := scripts[id]; len(seq) > 0 {
			task.Status = seq[0]
			scripts[id] = seq[1:]
		}
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(task)
	}))
	defer ts.Close()

	client := NewClient(ts.URL)
	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, id := range []string{"a", "b"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			task, err := client.AwaitTask(context.Background(), id, PollOptions{MaxAttempts: 10, Interval: time.Millisecond})
			if err == nil && task.Status != StatusCompleted {
				err = fmt.Errorf("task %s finished %s", id, task.Status)
			}
			errs[i] = err
		}()
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			t.Fatalf("concurrent await: %v", err)
		}
	}
}
