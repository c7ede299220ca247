package core

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dolphinheart/mulastudio/internal/config"
	"github.com/dolphinheart/mulastudio/internal/pagestate"
)

type fakeView struct {
	id      pagestate.ViewID
	title   string
	updates int
	inits   int
	typed   []string
}

func (v *fakeView) ID() pagestate.ViewID { return v.id }
func (v *fakeView) Title() string        { return v.title }

func (v *fakeView) Update(m *Model, msg tea.Msg) tea.Cmd {
	v.updates++
	if key, ok := msg.(tea.KeyMsg); ok {
		v.typed = append(v.typed, key.String())
	}
	return nil
}

func (v *fakeView) View(m *Model, width, height int) string {
	return string(v.id) + " body"
}

func (v *fakeView) InitView(m *Model) tea.Cmd {
	v.inits++
	return nil
}

func newTestModel(t *testing.T) (Model, []*fakeView) {
	t.Helper()
	views := []*fakeView{
		{id: pagestate.ViewLibrary, title: "Library"},
		{id: pagestate.ViewStudio, title: "Studio"},
		{id: pagestate.ViewTranscribe, title: "Transcribe"},
		{id: pagestate.ViewAudioLab, title: "Audio Lab"},
	}
	set := make([]View, len(views))
	for i, v := range views {
		set[i] = v
	}
	state := pagestate.NewStore(nil)
	m := NewModel(context.Background(), set, NewKeyRegistry(DefaultBindings()), nil, state, config.Config{}, nil)
	return m, views
}

func keyMsg(s string) tea.KeyMsg {
	if len(s) == 1 {
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
	return tea.KeyMsg{Type: tea.KeyCtrlC}
}

func TestInitRunsEveryViewOnce(t *testing.T) {
	m, views := newTestModel(t)
	m.Init()
	for _, v := range views {
		if v.inits != 1 {
			t.Fatalf("view %s initialized %d times, want 1", v.id, v.inits)
		}
	}
}

func TestOnlyActiveViewReceivesKeys(t *testing.T) {
	m, views := newTestModel(t)
	next, _ := m.Update(keyMsg("x"))
	m = next.(Model)
	if views[0].updates != 1 {
		t.Fatalf("active view updates = %d, want 1", views[0].updates)
	}
	for _, v := range views[1:] {
		if v.updates != 0 {
			t.Fatalf("inactive view %s received input", v.id)
		}
	}
}

func TestSwitchingViewsNeverReconstructs(t *testing.T) {
	m, views := newTestModel(t)
	before := m.Views()
	for _, k := range []string{"2", "4", "1", "3", "2"} {
		next, _ := m.Update(keyMsg(k))
		m = next.(Model)
	}
	if got := m.ActiveView().ID(); got != pagestate.ViewStudio {
		t.Fatalf("active view = %s, want STUDIO", got)
	}
	after := m.Views()
	for i := range before {
		if before[i] != after[i] {
			t.Fatalf("view %d was replaced by switching", i)
		}
	}
	for _, v := range views {
		if v.inits != 0 {
			t.Fatalf("switching re-initialized view %s", v.id)
		}
	}
}

func TestSwitchKeyDoesNotReachViews(t *testing.T) {
	m, views := newTestModel(t)
	next, _ := m.Update(keyMsg("2"))
	m = next.(Model)
	for _, v := range views {
		if len(v.typed) != 0 {
			t.Fatalf("view %s saw the switch key %v", v.id, v.typed)
		}
	}
}

func TestProjectSelectionBroadcasts(t *testing.T) {
	m, views := newTestModel(t)
	next, _ := m.Update(ProjectSelectedMsg{ID: "p1", Title: "Demo"})
	m = next.(Model)
	if m.Project.ID != "p1" || m.Project.Title != "Demo" {
		t.Fatalf("project not recorded: %+v", m.Project)
	}
	for _, v := range views {
		if v.updates != 1 {
			t.Fatalf("view %s updates = %d, want 1", v.id, v.updates)
		}
	}
}

func TestStatusMessages(t *testing.T) {
	m, _ := newTestModel(t)
	next, _ := m.Update(StatusMsg{Text: "working", IsErr: false})
	m = next.(Model)
	if m.status != "working" || m.statusErr {
		t.Fatalf("status = %q err=%v", m.status, m.statusErr)
	}
	next, _ = m.Update(StatusMsg{Text: "boom", IsErr: true})
	m = next.(Model)
	if !m.statusErr {
		t.Fatalf("error status not flagged")
	}
}

func TestErrorCmdWrapsError(t *testing.T) {
	msg := ErrorCmd(errors.New("nope"))()
	status, ok := msg.(StatusMsg)
	if !ok || !status.IsErr || status.Text != "nope" {
		t.Fatalf("unexpected message %#v", msg)
	}
	if cleared := ErrorCmd(nil)().(StatusMsg); cleared.IsErr || cleared.Text != "" {
		t.Fatalf("nil error should clear status, got %#v", cleared)
	}
}

type stubScreen struct {
	title   string
	updates int
	done    bool
}

func (s *stubScreen) Update(msg tea.Msg) (Screen, tea.Cmd, bool) {
	s.updates++
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "esc" {
		return s, nil, true
	}
	return s, nil, false
}

func (s *stubScreen) View(width, height int) string { return s.title }
func (s *stubScreen) Title() string                 { return s.title }

func TestModalCapturesInputUntilPopped(t *testing.T) {
	m, views := newTestModel(t)
	screen := &stubScreen{title: "confirm"}
	next, _ := m.Update(PushScreenMsg{Screen: screen})
	m = next.(Model)
	if m.ActiveScope() != "modal" {
		t.Fatalf("scope = %q, want modal", m.ActiveScope())
	}
	next, _ = m.Update(keyMsg("x"))
	m = next.(Model)
	if screen.updates != 1 {
		t.Fatalf("screen updates = %d, want 1", screen.updates)
	}
	if views[0].updates != 0 {
		t.Fatalf("view received input while modal open")
	}
	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = next.(Model)
	if m.screens.Len() != 0 {
		t.Fatalf("screen not popped on esc")
	}
	if m.ActiveScope() != string(pagestate.ViewLibrary) {
		t.Fatalf("scope after pop = %q", m.ActiveScope())
	}
}

func TestViewRendersHeaderStatusAndBody(t *testing.T) {
	m, _ := newTestModel(t)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 90, Height: 28})
	m = next.(Model)
	out := m.View()
	for _, want := range []string{"MulaStudio", "1:Library", "2:Studio", "Ready", "LIBRARY body"} {
		if !strings.Contains(out, want) {
			t.Fatalf("rendered view missing %q", want)
		}
	}
	if got := len(strings.Split(out, "\n")); got != 28 {
		t.Fatalf("rendered %d lines, want 28", got)
	}
}
