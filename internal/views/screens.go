package views

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/dolphinheart/mulastudio/internal/core"
)

// EditorField is one labelled input in an EditorScreen.
type EditorField struct {
	Key    string
	Label  string
	Value  string
	Secret bool
}

// EditorScreen is a small modal form. Enter submits every field through
// onSubmit; esc discards.
type EditorScreen struct {
	title    string
	fields   []EditorField
	inputs   []textinput.Model
	focus    int
	onSubmit func(values map[string]string) tea.Msg
}

func NewEditorScreen(title string, fields []EditorField, onSubmit func(values map[string]string) tea.Msg) *EditorScreen {
	inputs := make([]textinput.Model, 0, len(fields))
	for i, f := range fields {
		inp := textinput.New()
		inp.Prompt = f.Label + ": "
		inp.SetValue(f.Value)
		if f.Secret {
			inp.EchoMode = textinput.EchoPassword
		}
		if i == 0 {
			inp.Focus()
		}
		inputs = append(inputs, inp)
	}
	return &EditorScreen{title: title, fields: fields, inputs: inputs, onSubmit: onSubmit}
}

func (s *EditorScreen) Title() string { return s.title }

func (s *EditorScreen) Update(msg tea.Msg) (core.Screen, tea.Cmd, bool) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return s, nil, true
		case "tab", "shift+tab":
			dir := 1
			if msg.String() == "shift+tab" {
				dir = -1
			}
			s.inputs[s.focus].Blur()
			s.focus = (s.focus + dir + len(s.inputs)) % len(s.inputs)
			s.inputs[s.focus].Focus()
			return s, nil, false
		case "enter":
			vals := map[string]string{}
			for i, f := range s.fields {
				vals[f.Key] = s.inputs[i].Value()
			}
			if s.onSubmit != nil {
				return s, func() tea.Msg { return s.onSubmit(vals) }, true
			}
			return s, nil, true
		}
	}
	var cmd tea.Cmd
	s.inputs[s.focus], cmd = s.inputs[s.focus].Update(msg)
	return s, cmd, false
}

func (s *EditorScreen) View(width, height int) string {
	lines := []string{s.title, ""}
	for _, in := range s.inputs {
		lines = append(lines, in.View())
	}
	lines = append(lines, "", "enter: save  esc: cancel  tab: next field")
	return strings.Join(lines, "\n")
}

// ConfirmScreen asks a yes/no question. Only "y" confirms.
type ConfirmScreen struct {
	title     string
	question  string
	onConfirm func() tea.Msg
}

func NewConfirmScreen(title, question string, onConfirm func() tea.Msg) *ConfirmScreen {
	return &ConfirmScreen{title: title, question: question, onConfirm: onConfirm}
}

func (s *ConfirmScreen) Title() string { return s.title }

func (s *ConfirmScreen) Update(msg tea.Msg) (core.Screen, tea.Cmd, bool) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return s, nil, false
	}
	switch key.String() {
	case "y":
		if s.onConfirm != nil {
			return s, func() tea.Msg { return s.onConfirm() }, true
		}
		return s, nil, true
	case "n", "esc":
		return s, nil, true
	}
	return s, nil, false
}

func (s *ConfirmScreen) View(width, height int) string {
	return strings.Join([]string{s.title, "", s.question, "", "y: confirm  n/esc: cancel"}, "\n")
}
