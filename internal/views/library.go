package views

import (
	"fmt"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/dolphinheart/mulastudio/internal/api"
	"github.com/dolphinheart/mulastudio/internal/core"
	"github.com/dolphinheart/mulastudio/internal/pagestate"
	"github.com/dolphinheart/mulastudio/internal/prefs"
	"github.com/dolphinheart/mulastudio/internal/widgets"
)

type projectsLoadedMsg struct {
	page *api.ProjectPage
	err  error
}

type projectDeletedMsg struct {
	id  string
	err error
}

type savedProjectMsg struct {
	project *api.Project
}

// LibraryView lists projects and picks the active one. The search query
// survives restarts; the fetched project list does not.
type LibraryView struct {
	search   *pagestate.Slice[string]
	cursor   *pagestate.Slice[int]
	projects []api.Project
	filtered []api.Project
	loaded   bool
}

func NewLibraryView(state *pagestate.Store) *LibraryView {
	return &LibraryView{
		search: pagestate.For(state, pagestate.ViewLibrary, "search_query", "", pagestate.Options{Persist: true}),
		cursor: pagestate.For(state, pagestate.ViewLibrary, "cursor", 0, pagestate.Options{}),
	}
}

func (v *LibraryView) ID() pagestate.ViewID { return pagestate.ViewLibrary }
func (v *LibraryView) Title() string        { return "Library" }

func (v *LibraryView) InitView(m *core.Model) tea.Cmd {
	return tea.Batch(v.loadProjects(m), v.restoreProject(m))
}

func (v *LibraryView) loadProjects(m *core.Model) tea.Cmd {
	ctx, client := m.Ctx, m.API
	return func() tea.Msg {
		page, err := client.ListProjects(ctx, api.ProjectFilter{PageSize: 200})
		return projectsLoadedMsg{page: page, err: err}
	}
}

// restoreProject re-selects the project the user had open last session.
func (v *LibraryView) restoreProject(m *core.Model) tea.Cmd {
	ctx, client := m.Ctx, m.API
	return func() tea.Msg {
		id, err := prefs.LoadActiveProject()
		if err != nil || id == "" {
			return nil
		}
		p, err := client.GetProject(ctx, id)
		if err != nil {
			return nil
		}
		return savedProjectMsg{project: p}
	}
}

func (v *LibraryView) Update(m *core.Model, msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case projectsLoadedMsg:
		if msg.err != nil {
			return core.ErrorCmd(msg.err)
		}
		v.projects = msg.page.Items
		v.loaded = true
		v.applyFilter()
		return core.StatusCmd(fmt.Sprintf("%d projects", len(v.projects)))
	case savedProjectMsg:
		return func() tea.Msg {
			return core.ProjectSelectedMsg{ID: msg.project.ID, Title: msg.project.Title}
		}
	case projectDeletedMsg:
		if msg.err != nil {
			return core.ErrorCmd(msg.err)
		}
		return tea.Batch(v.loadProjects(m), core.StatusCmd("Project deleted"))
	case tea.KeyMsg:
		return v.handleKey(m, msg)
	}
	return nil
}

func (v *LibraryView) handleKey(m *core.Model, msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "up", "k":
		v.cursor.Update(func(c int) int { return max(0, c-1) })
	case "down", "j":
		v.cursor.Update(func(c int) int { return min(len(v.filtered)-1, c+1) })
	case "enter":
		return v.selectCurrent(m)
	case "r":
		return v.loadProjects(m)
	case "/":
		return v.openSearch(m)
	case "n":
		return v.openCreate(m)
	case "d":
		return v.openDelete(m)
	case "esc":
		if v.search.Get() != "" {
			v.search.Set("")
			v.applyFilter()
		}
	}
	return nil
}

func (v *LibraryView) selectCurrent(m *core.Model) tea.Cmd {
	c := v.cursor.Get()
	if c < 0 || c >= len(v.filtered) {
		return nil
	}
	p := v.filtered[c]
	logger := m.Logger
	return func() tea.Msg {
		if err := prefs.SaveActiveProject(p.ID); err != nil {
			logger.Warn("saving active project", "error", err)
		}
		return core.ProjectSelectedMsg{ID: p.ID, Title: p.Title}
	}
}

func (v *LibraryView) openSearch(m *core.Model) tea.Cmd {
	screen := NewEditorScreen("Search projects", []EditorField{
		{Key: "q", Label: "Query", Value: v.search.Get()},
	}, func(values map[string]string) tea.Msg {
		v.search.Set(values["q"])
		v.cursor.Set(0)
		v.applyFilter()
		return core.StatusMsg{Text: "Filtered"}
	})
	return func() tea.Msg { return core.PushScreenMsg{Screen: screen} }
}

func (v *LibraryView) openCreate(m *core.Model) tea.Cmd {
	ctx, client := m.Ctx, m.API
	screen := NewEditorScreen("New project", []EditorField{
		{Key: "title", Label: "Title"},
		{Key: "genre", Label: "Genre"},
	}, func(values map[string]string) tea.Msg {
		if strings.TrimSpace(values["title"]) == "" {
			return core.StatusMsg{Text: "Title required", IsErr: true}
		}
		p, err := client.CreateProject(ctx, api.ProjectCreate{Title: values["title"], Genre: values["genre"]})
		if err != nil {
			return core.StatusMsg{Text: err.Error(), IsErr: true}
		}
		return savedProjectMsg{project: p}
	})
	return func() tea.Msg { return core.PushScreenMsg{Screen: screen} }
}

func (v *LibraryView) openDelete(m *core.Model) tea.Cmd {
	c := v.cursor.Get()
	if c < 0 || c >= len(v.filtered) {
		return nil
	}
	p := v.filtered[c]
	ctx, client := m.Ctx, m.API
	screen := NewConfirmScreen("Delete project", fmt.Sprintf("Delete %q and its tasks?", p.Title), func() tea.Msg {
		err := client.DeleteProject(ctx, p.ID)
		return projectDeletedMsg{id: p.ID, err: err}
	})
	return func() tea.Msg { return core.PushScreenMsg{Screen: screen} }
}

// applyFilter ranks projects against the search query: exact substring
// matches first, then close titles by edit distance.
func (v *LibraryView) applyFilter() {
	query := strings.ToLower(strings.TrimSpace(v.search.Get()))
	if query == "" {
		v.filtered = v.projects
		return
	}
	type ranked struct {
		p    api.Project
		rank int
	}
	matches := make([]ranked, 0, len(v.projects))
	for _, p := range v.projects {
		title := strings.ToLower(p.Title)
		switch {
		case strings.Contains(title, query):
			matches = append(matches, ranked{p: p, rank: 0})
		default:
			if d := levenshtein.ComputeDistance(query, title); d <= len(query)/2+1 {
				matches = append(matches, ranked{p: p, rank: d})
			}
		}
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].rank < matches[j].rank })
	v.filtered = make([]api.Project, len(matches))
	for i, r := range matches {
		v.filtered[i] = r.p
	}
	if v.cursor.Get() >= len(v.filtered) {
		v.cursor.Set(max(0, len(v.filtered)-1))
	}
}

func (v *LibraryView) View(m *core.Model, width, height int) string {
	items := make([]string, len(v.filtered))
	for i, p := range v.filtered {
		line := p.Title
		if p.Genre != "" {
			line += "  (" + p.Genre + ")"
		}
		if p.ID == m.Project.ID {
			line += "  *"
		}
		items[i] = line
	}
	title := "Projects"
	if q := v.search.Get(); q != "" {
		title = fmt.Sprintf("Projects matching %q", q)
	}
	if !v.loaded {
		title = "Projects (loading)"
	}
	list := widgets.Pane{Title: title, Focused: true, Content: widgets.List{Items: items, Cursor: v.cursor.Get()}.Render(width/2, height-2)}
	detail := widgets.Pane{Title: "Details", Content: v.renderDetail()}
	return widgets.HStack{Widgets: []widgets.Widget{list, detail}, Ratios: []float64{0.55, 0.45}, Gap: 1}.Render(width, height)
}

func (v *LibraryView) renderDetail() string {
	c := v.cursor.Get()
	if c < 0 || c >= len(v.filtered) {
		return "enter: open  n: new  d: delete  /: search"
	}
	p := v.filtered[c]
	lines := []string{
		"Title:   " + p.Title,
		"Genre:   " + p.Genre,
		"Status:  " + p.Status,
		"Updated: " + p.UpdatedAt.Format("2006-01-02 15:04"),
	}
	if len(p.Tags) > 0 {
		lines = append(lines, "Tags:    "+strings.Join(p.Tags, ", "))
	}
	return strings.Join(lines, "\n")
}
