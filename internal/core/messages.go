package core

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/dolphinheart/mulastudio/internal/api"
	"github.com/dolphinheart/mulastudio/internal/pagestate"
)

type StatusMsg struct {
	Text  string
	IsErr bool
}

type PushScreenMsg struct {
	Screen Screen
}

type PopScreenMsg struct{}

type ViewSwitchMsg struct {
	ID pagestate.ViewID
}

// ProjectSelectedMsg is emitted when the user picks a project in the
// library. Every view sees it, active or not, so each can refresh the
// state it keys off the project.
type ProjectSelectedMsg struct {
	ID    string
	Title string
}

// TaskEventMsg is one status observation from a running poll loop. Owner is
// the view that started the loop; events route there even when another view
// is active, so a poll survives the user wandering off.
type TaskEventMsg struct {
	Owner  pagestate.ViewID
	Task   api.Task
	Status api.Status
}

// TaskDoneMsg ends a poll loop: either the terminal task record or the
// error that stopped polling.
type TaskDoneMsg struct {
	Owner pagestate.ViewID
	Task  *api.Task
	Err   error
}

func StatusCmd(text string) tea.Cmd {
	return func() tea.Msg { return StatusMsg{Text: text} }
}

func ErrorCmd(err error) tea.Cmd {
	return func() tea.Msg {
		if err == nil {
			return StatusMsg{Text: "", IsErr: false}
		}
		return StatusMsg{Text: err.Error(), IsErr: true}
	}
}

// WaitFor turns one receive from ch into a Cmd. Views that stream task
// events re-issue it from their Update until the channel closes, at which
// point it returns nil and the loop ends.
func WaitFor(ch <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return nil
		}
		return msg
	}
}
