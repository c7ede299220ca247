package core

import (
	"context"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dolphinheart/mulastudio/internal/api"
	"github.com/dolphinheart/mulastudio/internal/config"
	"github.com/dolphinheart/mulastudio/internal/pagestate"
)

// View is one of the closed set of top-level screens. Every view is
// constructed exactly once at startup and stays alive for the whole session;
// only the active view receives key input and paints. A view must therefore
// never assume it is visible, and must keep its own state between
// activations (component-local fields plus pagestate slices both work,
// because nothing is ever torn down).
type View interface {
	ID() pagestate.ViewID
	Title() string
	Update(m *Model, msg tea.Msg) tea.Cmd
	View(m *Model, width, height int) string
}

// ViewInitializer is implemented by views that want a startup command.
type ViewInitializer interface {
	InitView(m *Model) tea.Cmd
}

// Screen is a transient modal pushed over the active view. Unlike views,
// screens manage their own lifecycle: they are created when pushed and
// dropped when popped, so one-shot flows do not accidentally keep state.
type Screen interface {
	Update(msg tea.Msg) (Screen, tea.Cmd, bool)
	View(width, height int) string
	Title() string
}

// ScreenStack holds the modal screens over the view layer.
type ScreenStack struct {
	items []Screen
}

func (s *ScreenStack) Push(screen Screen) {
	if screen == nil {
		return
	}
	s.items = append(s.items, screen)
}

func (s *ScreenStack) Pop() Screen {
	if len(s.items) == 0 {
		return nil
	}
	last := s.items[len(s.items)-1]
	s.items = s.items[:len(s.items)-1]
	return last
}

func (s ScreenStack) Top() Screen {
	if len(s.items) == 0 {
		return nil
	}
	return s.items[len(s.items)-1]
}

func (s ScreenStack) Len() int {
	return len(s.items)
}

// ActiveProject is the project the user is currently working in.
type ActiveProject struct {
	ID    string
	Title string
}

// Model is the root bubbletea model: the view set, the modal stack, and the
// shared dependencies every view draws on.
type Model struct {
	width      int
	height     int
	views      []View
	activeView int
	screens    ScreenStack
	keys       *KeyRegistry
	status     string
	statusErr  bool
	quitting   bool

	Ctx     context.Context
	API     *api.Client
	State   *pagestate.Store
	Cfg     config.Config
	Logger  *slog.Logger
	Project ActiveProject
}

// NewModel wires up the root model. The views slice is the closed set for
// the whole session; it is never mutated afterwards.
func NewModel(ctx context.Context, views []View, keys *KeyRegistry, client *api.Client, state *pagestate.Store, cfg config.Config, logger *slog.Logger) Model {
	if logger == nil {
		logger = slog.Default()
	}
	return Model{
		views:      views,
		activeView: 0,
		keys:       keys,
		status:     "Ready",
		width:      100,
		height:     32,
		Ctx:        ctx,
		API:        client,
		State:      state,
		Cfg:        cfg,
		Logger:     logger,
	}
}

func (m Model) Init() tea.Cmd {
	cmds := make([]tea.Cmd, 0, len(m.views))
	for _, v := range m.views {
		if init, ok := v.(ViewInitializer); ok {
			if cmd := init.InitView(&m); cmd != nil {
				cmds = append(cmds, cmd)
			}
		}
	}
	return tea.Batch(cmds...)
}

// SetStatus shows an informational message in the status bar.
func (m *Model) SetStatus(msg string) {
	m.status = msg
	m.statusErr = false
}

// SetError shows err in the status bar; nil clears it.
func (m *Model) SetError(err error) {
	if err == nil {
		m.status = ""
		m.statusErr = false
		return
	}
	m.status = err.Error()
	m.statusErr = true
}

// ActiveView returns the currently visible view.
func (m Model) ActiveView() View {
	if len(m.views) == 0 {
		return nil
	}
	return m.views[m.activeView]
}

// ActiveScope is the key-binding scope of whatever has input focus.
func (m Model) ActiveScope() string {
	if top := m.screens.Top(); top != nil {
		return "modal"
	}
	if v := m.ActiveView(); v != nil {
		return string(v.ID())
	}
	return "app"
}

// SwitchView changes which view is visible. The other views stay alive: no
// construction or teardown happens here, which is the whole point.
func (m *Model) SwitchView(index int) {
	if index < 0 || index >= len(m.views) {
		return
	}
	m.activeView = index
}

// SwitchViewByID switches to the view with the given id, if present.
func (m *Model) SwitchViewByID(id pagestate.ViewID) {
	for i, v := range m.views {
		if v.ID() == id {
			m.activeView = i
			return
		}
	}
}

// PushScreen opens a modal over the active view.
func (m *Model) PushScreen(s Screen) {
	m.screens.Push(s)
}

// Views exposes the view set for tests and the header renderer.
func (m Model) Views() []View {
	return m.views
}
