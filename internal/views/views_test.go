package views

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/dolphinheart/mulastudio/internal/api"
	"github.com/dolphinheart/mulastudio/internal/config"
	"github.com/dolphinheart/mulastudio/internal/core"
	"github.com/dolphinheart/mulastudio/internal/pagestate"
)

func TestLibraryFilterRanksSubstringFirst(t *testing.T) {
	v := NewLibraryView(pagestate.NewStore(nil))
	v.projects = []api.Project{
		{ID: "1", Title: "Summer Anthem"},
		{ID: "2", Title: "Winter Blues"},
		{ID: "3", Title: "Sumer Antem"},
		{ID: "4", Title: "Unrelated"},
	}
	v.search.Set("summer anthem")
	v.applyFilter()
	if len(v.filtered) < 2 {
		t.Fatalf("filtered = %d entries, want at least 2", len(v.filtered))
	}
	if v.filtered[0].ID != "1" {
		t.Fatalf("substring match not ranked first: %+v", v.filtered[0])
	}
	if v.filtered[1].ID != "3" {
		t.Fatalf("near match not second: %+v", v.filtered[1])
	}
	for _, p := range v.filtered {
		if p.ID == "2" || p.ID == "4" {
			t.Fatalf("unrelated project %q survived the filter", p.Title)
		}
	}
}

func TestLibraryFilterEmptyQueryKeepsEverything(t *testing.T) {
	v := NewLibraryView(pagestate.NewStore(nil))
	v.projects = []api.Project{{ID: "1"}, {ID: "2"}}
	v.search.Set("")
	v.applyFilter()
	if len(v.filtered) != 2 {
		t.Fatalf("filtered = %d, want 2", len(v.filtered))
	}
}

func TestStudioSettingsSurviveReload(t *testing.T) {
	tier := &memTier{data: map[string][]byte{}}
	v := NewStudioView(pagestate.NewStore(tier))
	s := v.settings.Get()
	s.TopK = 80
	s.CFGScale = 2.0
	v.settings.Set(s)
	v.lyrics.Set("verse one")

	reloaded := NewStudioView(pagestate.NewStore(tier))
	got := reloaded.settings.Get()
	if got.TopK != 80 || got.CFGScale != 2.0 {
		t.Fatalf("settings lost across reload: %+v", got)
	}
	if reloaded.lyrics.Get() != "verse one" {
		t.Fatalf("lyrics lost across reload")
	}
	if got.Temperature != api.DefaultTemperature {
		t.Fatalf("untouched field drifted: %+v", got)
	}
}

func TestTranscribeParamsDefaultThenPersist(t *testing.T) {
	tier := &memTier{data: map[string][]byte{}}
	v := NewTranscribeView(pagestate.NewStore(tier))
	p := v.params.Get()
	if p.MaxNewTokens != 256 || p.NumBeams != 2 {
		t.Fatalf("defaults wrong: %+v", p)
	}
	p.NumBeams = 4
	v.params.Set(p)

	reloaded := NewTranscribeView(pagestate.NewStore(tier))
	if got := reloaded.params.Get(); got.NumBeams != 4 {
		t.Fatalf("beams = %d after reload, want 4", got.NumBeams)
	}
}

func TestWatchStreamsEventsThenDone(t *testing.T) {
	var mu sync.Mutex
	statuses := []api.Status{api.StatusPending, api.StatusRunning, api.StatusCompleted}
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		status := statuses[min(calls, len(statuses)-1)]
		calls++
		mu.Unlock()
		json.NewEncoder(w).Encode(map[string]any{"id": "tsk1", "type": "generate", "status": status})
	}))
	defer srv.Close()

	cfg := config.Config{}
	cfg.Poll.Interval = 5 * time.Millisecond
	cfg.Poll.MaxAttempts = 10
	m := core.NewModel(context.Background(), nil, core.NewKeyRegistry(nil), api.NewClient(srv.URL), pagestate.NewStore(nil), cfg, nil)

	w, cmd := startWatch(&m, pagestate.ViewStudio, "tsk1")
	var seen []api.Status
	for i := 0; i < 10; i++ {
		msg := cmd()
		switch msg := msg.(type) {
		case core.TaskEventMsg:
			if msg.Owner != pagestate.ViewStudio {
				t.Fatalf("event owner = %s", msg.Owner)
			}
			seen = append(seen, msg.Status)
			cmd = w.next()
			continue
		case core.TaskDoneMsg:
			if msg.Err != nil {
				t.Fatalf("unexpected error: %v", msg.Err)
			}
			if msg.Task.Status != api.StatusCompleted {
				t.Fatalf("final status = %s", msg.Task.Status)
			}
			want := fmt.Sprintf("%v", []api.Status{api.StatusPending, api.StatusRunning, api.StatusCompleted})
			if got := fmt.Sprintf("%v", seen); got != want {
				t.Fatalf("events = %s, want %s", got, want)
			}
			w.stop()
			return
		default:
			t.Fatalf("unexpected message %#v", msg)
		}
	}
	t.Fatalf("poll never finished")
}

// memTier is an in-memory pagestate tier for reload tests.
type memTier struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (t *memTier) Load(bucket string) ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.data[bucket], nil
}

func (t *memTier) Save(bucket string, data []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.data[bucket] = append([]byte(nil), data...)
	return nil
}

func (t *memTier) Delete(bucket string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.data, bucket)
	return nil
}
