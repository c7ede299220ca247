package views

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dolphinheart/mulastudio/internal/api"
	"github.com/dolphinheart/mulastudio/internal/core"
	"github.com/dolphinheart/mulastudio/internal/pagestate"
	"github.com/dolphinheart/mulastudio/internal/widgets"
)

type tasksLoadedMsg struct {
	page *api.TaskPage
	err  error
}

type downloadedMsg struct {
	path string
	err  error
}

// AudioLabView browses finished tracks and pulls the audio down to disk.
type AudioLabView struct {
	cursor *pagestate.Slice[int]
	tasks  []api.Task
	loaded bool
}

func NewAudioLabView(state *pagestate.Store) *AudioLabView {
	return &AudioLabView{
		cursor: pagestate.For(state, pagestate.ViewAudioLab, "cursor", 0, pagestate.Options{}),
	}
}

func (v *AudioLabView) ID() pagestate.ViewID { return pagestate.ViewAudioLab }
func (v *AudioLabView) Title() string        { return "Audio Lab" }

func (v *AudioLabView) InitView(m *core.Model) tea.Cmd {
	return v.loadTasks(m)
}

func (v *AudioLabView) loadTasks(m *core.Model) tea.Cmd {
	ctx, client := m.Ctx, m.API
	projectID := m.Project.ID
	return func() tea.Msg {
		page, err := client.ListTasks(ctx, api.TaskFilter{
			Status:    api.StatusCompleted,
			Type:      api.TaskTypeGenerate,
			ProjectID: projectID,
			PageSize:  100,
		})
		return tasksLoadedMsg{page: page, err: err}
	}
}

func (v *AudioLabView) Update(m *core.Model, msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tasksLoadedMsg:
		if msg.err != nil {
			return core.ErrorCmd(msg.err)
		}
		v.tasks = msg.page.Items
		v.loaded = true
		if v.cursor.Get() >= len(v.tasks) {
			v.cursor.Set(0)
		}
	case downloadedMsg:
		if msg.err != nil {
			return core.ErrorCmd(msg.err)
		}
		return core.StatusCmd("Saved " + msg.path)
	case core.ProjectSelectedMsg:
		return v.loadTasks(m)
	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			v.cursor.Update(func(c int) int { return max(0, c-1) })
		case "down", "j":
			v.cursor.Update(func(c int) int { return min(len(v.tasks)-1, c+1) })
		case "r":
			return v.loadTasks(m)
		case "d":
			return v.download(m)
		}
	}
	return nil
}

func (v *AudioLabView) download(m *core.Model) tea.Cmd {
	c := v.cursor.Get()
	if c < 0 || c >= len(v.tasks) {
		return nil
	}
	task := v.tasks[c]
	dir := m.Cfg.UI.DownloadDir
	if dir == "" {
		dir = "."
	}
	ctx, client := m.Ctx, m.API
	return func() tea.Msg {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return downloadedMsg{err: err}
		}
		path := filepath.Join(dir, task.ID+".mp3")
		f, err := os.Create(path)
		if err != nil {
			return downloadedMsg{err: err}
		}
		defer f.Close()
		if err := client.DownloadAudio(ctx, task.ID, f); err != nil {
			os.Remove(path)
			return downloadedMsg{err: err}
		}
		return downloadedMsg{path: path}
	}
}

func (v *AudioLabView) View(m *core.Model, width, height int) string {
	items := make([]string, len(v.tasks))
	for i, t := range v.tasks {
		items[i] = fmt.Sprintf("%s  %s", t.CreatedAt.Format("2006-01-02 15:04"), t.ID)
	}
	title := "Completed tracks"
	if !v.loaded {
		title = "Completed tracks (loading)"
	}
	list := widgets.Pane{Title: title, Focused: true, Content: widgets.List{Items: items, Cursor: v.cursor.Get()}.Render(width/2, height-2)}
	detail := widgets.Pane{Title: "Track", Content: v.renderDetail(m)}
	return widgets.HStack{Widgets: []widgets.Widget{list, detail}, Ratios: []float64{0.55, 0.45}, Gap: 1}.Render(width, height)
}

func (v *AudioLabView) renderDetail(m *core.Model) string {
	c := v.cursor.Get()
	if c < 0 || c >= len(v.tasks) {
		return "r: refresh  d: download"
	}
	t := v.tasks[c]
	lines := []string{
		"Task:    " + t.ID,
		"Created: " + t.CreatedAt.Format("2006-01-02 15:04"),
		"Audio:   " + m.API.AudioURL(t.ID),
	}
	if tags, ok := t.Params["tags"].(string); ok && tags != "" {
		lines = append(lines, "Tags:    "+tags)
	}
	lines = append(lines, "", "d: download  r: refresh")
	return strings.Join(lines, "\n")
}
