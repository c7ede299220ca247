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

type transcribeSubmittedMsg struct {
	taskID string
	err    error
}

type transcriptSavedMsg struct {
	task *api.Task
	err  error
}

// TranscribeView submits audio files for transcription and lets the user
// correct the resulting text. The file path and decoder parameters persist;
// the in-flight poll handle does not survive a restart, matching the
// backend's own task lifetime.
type TranscribeView struct {
	audioPath  *pagestate.Slice[string]
	params     *pagestate.Slice[api.TranscribeParams]
	lastTaskID *pagestate.Slice[string]

	watch      *watch
	progress   string
	transcript string
	lastTask   *api.Task
}

func NewTranscribeView(state *pagestate.Store) *TranscribeView {
	persist := pagestate.Options{Persist: true}
	return &TranscribeView{
		audioPath:  pagestate.For(state, pagestate.ViewTranscribe, "audio_path", "", persist),
		params:     pagestate.For(state, pagestate.ViewTranscribe, "decoder_params", api.DefaultTranscribeParams(), persist),
		lastTaskID: pagestate.For(state, pagestate.ViewTranscribe, "last_task_id", "", persist),
	}
}

func (v *TranscribeView) ID() pagestate.ViewID { return pagestate.ViewTranscribe }
func (v *TranscribeView) Title() string        { return "Transcribe" }

func (v *TranscribeView) Update(m *core.Model, msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case transcribeSubmittedMsg:
		if msg.err != nil {
			return core.ErrorCmd(msg.err)
		}
		v.lastTaskID.Set(msg.taskID)
		w, first := startWatch(m, v.ID(), msg.taskID)
		v.watch = w
		v.progress = "submitted"
		return tea.Batch(first, core.StatusCmd("Transcribing "+msg.taskID))
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
			return core.ErrorCmd(fmt.Errorf("transcription failed: %s", msg.Task.ErrorMessage))
		}
		v.transcript = msg.Task.ResultText()
		return core.StatusCmd("Transcript ready")
	case transcriptSavedMsg:
		if msg.err != nil {
			return core.ErrorCmd(msg.err)
		}
		v.lastTask = msg.task
		v.transcript = msg.task.ResultText()
		return core.StatusCmd("Transcript saved")
	case tea.KeyMsg:
		return v.handleKey(m, msg)
	}
	return nil
}

func (v *TranscribeView) handleKey(m *core.Model, msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "f":
		return v.openFileEditor()
	case "p":
		return v.openParamsEditor()
	case "t":
		return v.submit(m)
	case "e":
		return v.openTranscriptEditor(m)
	case "x":
		if v.watch != nil {
			v.watch.stop()
			v.watch = nil
			v.progress = "cancelled"
			return core.StatusCmd("Polling cancelled")
		}
	}
	return nil
}

func (v *TranscribeView) openFileEditor() tea.Cmd {
	screen := NewEditorScreen("Audio file", []EditorField{
		{Key: "path", Label: "Path", Value: v.audioPath.Get()},
	}, func(values map[string]string) tea.Msg {
		v.audioPath.Set(strings.TrimSpace(values["path"]))
		return core.StatusMsg{Text: "File set"}
	})
	return func() tea.Msg { return core.PushScreenMsg{Screen: screen} }
}

func (v *TranscribeView) openParamsEditor() tea.Cmd {
	p := v.params.Get()
	screen := NewEditorScreen("Decoder parameters", []EditorField{
		{Key: "max_new_tokens", Label: "Max new tokens", Value: strconv.Itoa(p.MaxNewTokens)},
		{Key: "num_beams", Label: "Beams", Value: strconv.Itoa(p.NumBeams)},
		{Key: "no_speech", Label: "No-speech threshold", Value: strconv.FormatFloat(p.NoSpeechThreshold, 'g', -1, 64)},
		{Key: "logprob", Label: "Logprob threshold", Value: strconv.FormatFloat(p.LogprobThreshold, 'g', -1, 64)},
	}, func(values map[string]string) tea.Msg {
		next := p
		if n, err := strconv.Atoi(values["max_new_tokens"]); err == nil {
			next.MaxNewTokens = n
		}
		if n, err := strconv.Atoi(values["num_beams"]); err == nil {
			next.NumBeams = n
		}
		if f, err := strconv.ParseFloat(values["no_speech"], 64); err == nil {
			next.NoSpeechThreshold = f
		}
		if f, err := strconv.ParseFloat(values["logprob"], 64); err == nil {
			next.LogprobThreshold = f
		}
		v.params.Set(next)
		return core.StatusMsg{Text: "Parameters saved"}
	})
	return func() tea.Msg { return core.PushScreenMsg{Screen: screen} }
}

func (v *TranscribeView) submit(m *core.Model) tea.Cmd {
	if v.watch != nil {
		return core.ErrorCmd(fmt.Errorf("a transcription is already running (x to cancel)"))
	}
	path := v.audioPath.Get()
	if path == "" {
		return core.ErrorCmd(fmt.Errorf("set an audio file first (press f)"))
	}
	params := v.params.Get()
	ctx, client := m.Ctx, m.API
	return func() tea.Msg {
		id, err := client.Transcribe(ctx, path, params)
		return transcribeSubmittedMsg{taskID: id, err: err}
	}
}

// openTranscriptEditor pushes the corrected text back to the backend so the
// stored task record reflects the edit.
func (v *TranscribeView) openTranscriptEditor(m *core.Model) tea.Cmd {
	task := v.lastTask
	if task == nil || task.Status != api.StatusCompleted {
		return core.ErrorCmd(fmt.Errorf("no completed transcript to edit"))
	}
	ctx, client := m.Ctx, m.API
	screen := NewEditorScreen("Edit transcript", []EditorField{
		{Key: "text", Label: "Text", Value: v.transcript},
	}, func(values map[string]string) tea.Msg {
		updated, err := client.UpdateTaskResult(ctx, task.ID, map[string]string{"text": values["text"]})
		return transcriptSavedMsg{task: updated, err: err}
	})
	return func() tea.Msg { return core.PushScreenMsg{Screen: screen} }
}

func (v *TranscribeView) View(m *core.Model, width, height int) string {
	p := v.params.Get()
	form := widgets.Pane{Title: "Input", Focused: true, Content: strings.Join([]string{
		"File:  " + v.audioPath.Get(),
		"",
		fmt.Sprintf("Max new tokens: %d", p.MaxNewTokens),
		fmt.Sprintf("Beams:          %d", p.NumBeams),
		fmt.Sprintf("No-speech:      %.2f", p.NoSpeechThreshold),
		fmt.Sprintf("Logprob:        %.2f", p.LogprobThreshold),
		"",
		"f: file  p: params  t: transcribe  e: edit result",
	}, "\n")}
	body := v.transcript
	if body == "" {
		body = "(no transcript yet)"
	}
	if v.progress != "" && v.progress != string(api.StatusCompleted) {
		body = "Status: " + v.progress
		if id := v.lastTaskID.Get(); id != "" {
			body += "\nTask:   " + id
		}
	}
	result := widgets.Pane{Title: "Transcript", Content: body}
	return widgets.HStack{Widgets: []widgets.Widget{form, result}, Ratios: []float64{0.45, 0.55}, Gap: 1}.Render(width, height)
}
