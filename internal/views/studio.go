package views

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dolphinheart/mulastudio/internal/api"
	"github.com/dolphinheart/mulastudio/internal/core"
	"github.com/dolphinheart/mulastudio/internal/pagestate"
	"github.com/dolphinheart/mulastudio/internal/widgets"
)

type lyricsReadyMsg struct {
	lyrics string
	err    error
}

type generateSubmittedMsg struct {
	taskID string
	err    error
}

type shareCreatedMsg struct {
	share *api.Share
	err   error
}

// genSettings is the persisted slice value backing the generation form.
type genSettings struct {
	TopK             int     `json:"topk"`
	Temperature      float64 `json:"temperature"`
	CFGScale         float64 `json:"cfg_scale"`
	MaxAudioLengthMS int     `json:"max_audio_length_ms"`
	Version          string  `json:"version"`
}

func defaultGenSettings() genSettings {
	return genSettings{
		TopK:             api.DefaultTopK,
		Temperature:      api.DefaultTemperature,
		CFGScale:         api.DefaultCFGScale,
		MaxAudioLengthMS: api.DefaultAudioLength,
		Version:          api.DefaultModelVersion,
	}
}

// StudioView drives music generation. The whole form survives restarts:
// lyrics, tags, prompt fields, and tuning parameters all persist per view.
type StudioView struct {
	lyrics     *pagestate.Slice[string]
	tags       *pagestate.Slice[string]
	genre      *pagestate.Slice[string]
	mood       *pagestate.Slice[string]
	topic      *pagestate.Slice[string]
	settings   *pagestate.Slice[genSettings]
	lastTaskID *pagestate.Slice[string]

	watch    *watch
	lastTask *api.Task
	progress string
	models   []string
	modelIdx int
}

func NewStudioView(state *pagestate.Store) *StudioView {
	persist := pagestate.Options{Persist: true}
	return &StudioView{
		lyrics:     pagestate.For(state, pagestate.ViewStudio, "lyrics", "", persist),
		tags:       pagestate.For(state, pagestate.ViewStudio, "tags", "", persist),
		genre:      pagestate.For(state, pagestate.ViewStudio, "genre", "", persist),
		mood:       pagestate.For(state, pagestate.ViewStudio, "mood", "", persist),
		topic:      pagestate.For(state, pagestate.ViewStudio, "topic", "", persist),
		settings:   pagestate.For(state, pagestate.ViewStudio, "settings", defaultGenSettings(), persist),
		lastTaskID: pagestate.For(state, pagestate.ViewStudio, "last_task_id", "", persist),
	}
}

func (v *StudioView) ID() pagestate.ViewID { return pagestate.ViewStudio }
func (v *StudioView) Title() string        { return "Studio" }

func (v *StudioView) InitView(m *core.Model) tea.Cmd {
	ctx, client := m.Ctx, m.API
	return func() tea.Msg {
		return modelsLoadedMsg{models: client.ListModels(ctx)}
	}
}

type modelsLoadedMsg struct {
	models []string
}

func (v *StudioView) Update(m *core.Model, msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case modelsLoadedMsg:
		v.models = msg.models
	case lyricsReadyMsg:
		if msg.err != nil {
			return core.ErrorCmd(msg.err)
		}
		v.lyrics.Set(msg.lyrics)
		return core.StatusCmd("Lyrics ready")
	case generateSubmittedMsg:
		if msg.err != nil {
			return core.ErrorCmd(msg.err)
		}
		v.lastTaskID.Set(msg.taskID)
		w, first := startWatch(m, v.ID(), msg.taskID)
		v.watch = w
		v.progress = "submitted"
		return tea.Batch(first, core.StatusCmd("Generating "+msg.taskID))
	case core.TaskEventMsg:
		v.progress = string(msg.Status)
		return v.watch.next()
	case core.TaskDoneMsg:
		v.watch.stop()
		v.watch = nil
		if msg.Err != nil {
			if errors.Is(msg.Err, context.Canceled) {
				return nil
			}
			v.progress = "error"
			return core.ErrorCmd(msg.Err)
		}
		v.lastTask = msg.Task
		v.progress = string(msg.Task.Status)
		if msg.Task.Status == api.StatusFailed {
			return core.ErrorCmd(fmt.Errorf("generation failed: %s", msg.Task.ErrorMessage))
		}
		return core.StatusCmd("Track ready: " + m.API.AudioURL(msg.Task.ID))
	case shareCreatedMsg:
		if msg.err != nil {
			return core.ErrorCmd(msg.err)
		}
		return core.StatusCmd("Shared: " + msg.share.ID)
	case core.ProjectSelectedMsg:
		// nothing to recompute; the project id is read at submit time
	case tea.KeyMsg:
		return v.handleKey(m, msg)
	}
	return nil
}

func (v *StudioView) handleKey(m *core.Model, msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "e":
		return v.openPromptEditor()
	case "p":
		return v.openSettingsEditor()
	case "l":
		return v.generateLyrics(m)
	case "g":
		return v.submitGenerate(m)
	case "x":
		if v.watch != nil {
			v.watch.stop()
			v.watch = nil
			v.progress = "cancelled"
			return core.StatusCmd("Polling cancelled")
		}
	case "s":
		return v.shareLast(m)
	case "m":
		if len(v.models) > 0 {
			v.modelIdx = (v.modelIdx + 1) % len(v.models)
		}
	}
	return nil
}

func (v *StudioView) openPromptEditor() tea.Cmd {
	screen := NewEditorScreen("Edit prompt", []EditorField{
		{Key: "lyrics", Label: "Lyrics", Value: v.lyrics.Get()},
		{Key: "tags", Label: "Tags", Value: v.tags.Get()},
		{Key: "genre", Label: "Genre", Value: v.genre.Get()},
		{Key: "mood", Label: "Mood", Value: v.mood.Get()},
		{Key: "topic", Label: "Topic", Value: v.topic.Get()},
	}, func(values map[string]string) tea.Msg {
		v.lyrics.Set(values["lyrics"])
		v.tags.Set(values["tags"])
		v.genre.Set(values["genre"])
		v.mood.Set(values["mood"])
		v.topic.Set(values["topic"])
		return core.StatusMsg{Text: "Prompt saved"}
	})
	return func() tea.Msg { return core.PushScreenMsg{Screen: screen} }
}

func (v *StudioView) openSettingsEditor() tea.Cmd {
	s := v.settings.Get()
	screen := NewEditorScreen("Generation settings", []EditorField{
		{Key: "topk", Label: "Top-K", Value: strconv.Itoa(s.TopK)},
		{Key: "temperature", Label: "Temperature", Value: strconv.FormatFloat(s.Temperature, 'g', -1, 64)},
		{Key: "cfg_scale", Label: "CFG scale", Value: strconv.FormatFloat(s.CFGScale, 'g', -1, 64)},
		{Key: "max_ms", Label: "Max length ms", Value: strconv.Itoa(s.MaxAudioLengthMS)},
		{Key: "version", Label: "Model version", Value: s.Version},
	}, func(values map[string]string) tea.Msg {
		next := s
		if n, err := strconv.Atoi(values["topk"]); err == nil {
			next.TopK = n
		}
		if f, err := strconv.ParseFloat(values["temperature"], 64); err == nil {
			next.Temperature = f
		}
		if f, err := strconv.ParseFloat(values["cfg_scale"], 64); err == nil {
			next.CFGScale = f
		}
		if n, err := strconv.Atoi(values["max_ms"]); err == nil {
			next.MaxAudioLengthMS = n
		}
		if values["version"] != "" {
			next.Version = values["version"]
		}
		v.settings.Set(next)
		return core.StatusMsg{Text: "Settings saved"}
	})
	return func() tea.Msg { return core.PushScreenMsg{Screen: screen} }
}

func (v *StudioView) generateLyrics(m *core.Model) tea.Cmd {
	req := api.LyricsRequest{
		Language: "english",
		Genre:    v.genre.Get(),
		Mood:     v.mood.Get(),
		Topic:    v.topic.Get(),
	}
	if req.Genre == "" || req.Mood == "" {
		return core.ErrorCmd(fmt.Errorf("set genre and mood first (press e)"))
	}
	ctx, client := m.Ctx, m.API
	return func() tea.Msg {
		lyrics, err := client.GenerateLyrics(ctx, req)
		return lyricsReadyMsg{lyrics: lyrics, err: err}
	}
}

func (v *StudioView) submitGenerate(m *core.Model) tea.Cmd {
	if v.watch != nil {
		return core.ErrorCmd(fmt.Errorf("a generation is already running (x to cancel)"))
	}
	s := v.settings.Get()
	req := api.GenerateRequest{
		Lyrics:           v.lyrics.Get(),
		Tags:             v.tags.Get(),
		TopK:             s.TopK,
		Temperature:      s.Temperature,
		CFGScale:         s.CFGScale,
		MaxAudioLengthMS: s.MaxAudioLengthMS,
		Version:          s.Version,
		ProjectID:        m.Project.ID,
	}
	if err := req.Validate(); err != nil {
		return core.ErrorCmd(err)
	}
	ctx, client := m.Ctx, m.API
	return func() tea.Msg {
		id, err := client.Generate(ctx, req)
		return generateSubmittedMsg{taskID: id, err: err}
	}
}

func (v *StudioView) shareLast(m *core.Model) tea.Cmd {
	task := v.lastTask
	if task == nil || task.Status != api.StatusCompleted {
		return core.ErrorCmd(fmt.Errorf("no completed track to share"))
	}
	ctx, client := m.Ctx, m.API
	title := m.Project.Title
	return func() tea.Msg {
		share, err := client.CreateShare(ctx, task.ID, title)
		return shareCreatedMsg{share: share, err: err}
	}
}

func (v *StudioView) View(m *core.Model, width, height int) string {
	s := v.settings.Get()
	prompt := widgets.Pane{Title: "Prompt", Focused: true, Content: strings.Join([]string{
		"Lyrics: " + firstLine(v.lyrics.Get(), 60),
		"Tags:   " + v.tags.Get(),
		"Genre:  " + v.genre.Get(),
		"Mood:   " + v.mood.Get(),
		"Topic:  " + v.topic.Get(),
	}, "\n")}
	model := s.Version
	if len(v.models) > 0 {
		model = v.models[v.modelIdx]
	}
	params := widgets.Pane{Title: "Settings", Content: strings.Join([]string{
		fmt.Sprintf("Top-K:       %d", s.TopK),
		fmt.Sprintf("Temperature: %.2f", s.Temperature),
		fmt.Sprintf("CFG scale:   %.2f", s.CFGScale),
		fmt.Sprintf("Max length:  %ds", s.MaxAudioLengthMS/1000),
		"Model:       " + model,
	}, "\n")}
	status := widgets.Pane{Title: "Generation", Content: v.renderProgress(m)}
	top := widgets.HStack{Widgets: []widgets.Widget{prompt, params}, Ratios: []float64{0.6, 0.4}, Gap: 1}
	return widgets.VStack{Widgets: []widgets.Widget{top, status}, Ratios: []float64{0.65, 0.35}}.Render(width, height)
}

func (v *StudioView) renderProgress(m *core.Model) string {
	lines := []string{"e: prompt  p: settings  l: lyrics  g: generate  s: share"}
	if id := v.lastTaskID.Get(); id != "" {
		lines = append(lines, "", "Task:   "+id)
	}
	if v.progress != "" {
		lines = append(lines, "Status: "+v.progress)
	}
	if v.lastTask != nil && v.lastTask.Status == api.StatusCompleted {
		lines = append(lines, "Audio:  "+m.API.AudioURL(v.lastTask.ID))
	}
	return strings.Join(lines, "\n")
}

func firstLine(s string, width int) string {
	line := s
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i] + " ..."
	}
	if len(line) > width {
		line = line[:width] + "..."
	}
	return line
}
