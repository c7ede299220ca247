package core

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dolphinheart/mulastudio/internal/pagestate"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil
	case StatusMsg:
		m.status = msg.Text
		m.statusErr = msg.IsErr
		return m, nil
	case PushScreenMsg:
		m.screens.Push(msg.Screen)
		return m, nil
	case PopScreenMsg:
		m.screens.Pop()
		return m, nil
	case ViewSwitchMsg:
		m.SwitchViewByID(msg.ID)
		return m, nil
	case TaskEventMsg:
		return m, m.routeToOwner(msg.Owner, msg)
	case TaskDoneMsg:
		return m, m.routeToOwner(msg.Owner, msg)
	case ProjectSelectedMsg:
		m.Project = ActiveProject{ID: msg.ID, Title: msg.Title}
		cmds := make([]tea.Cmd, 0, len(m.views))
		for _, v := range m.views {
			if cmd := v.Update(&m, msg); cmd != nil {
				cmds = append(cmds, cmd)
			}
		}
		return m, tea.Batch(cmds...)
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}

		if top := m.screens.Top(); top != nil {
			next, cmd, pop := top.Update(msg)
			if pop {
				m.screens.Pop()
				return m, cmd
			}
			if next != nil {
				m.screens.items[len(m.screens.items)-1] = next
			}
			return m, cmd
		}

		scope := m.ActiveScope()
		if m.keys.IsAction(msg, "quit", scope) {
			m.quitting = true
			return m, tea.Quit
		}
		for i := range m.views {
			if m.keys.IsAction(msg, fmt.Sprintf("switch-view-%d", i+1), scope) {
				m.SwitchView(i)
				return m, nil
			}
		}
		if v := m.ActiveView(); v != nil {
			return m, v.Update(&m, msg)
		}
		return m, nil
	}

	if top := m.screens.Top(); top != nil {
		next, cmd, pop := top.Update(msg)
		if pop {
			m.screens.Pop()
			return m, cmd
		}
		if next != nil {
			m.screens.items[len(m.screens.items)-1] = next
		}
		return m, cmd
	}
	if v := m.ActiveView(); v != nil {
		return m, v.Update(&m, msg)
	}
	return m, nil
}

func (m *Model) routeToOwner(owner pagestate.ViewID, msg tea.Msg) tea.Cmd {
	for _, v := range m.views {
		if v.ID() == owner {
			return v.Update(m, msg)
		}
	}
	return nil
}
