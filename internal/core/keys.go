package core

import (
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

type KeyBinding struct {
	Keys        []string
	Action      string
	Description string
	Scopes      []string
}

type KeyRegistry struct {
	bindings []KeyBinding
}

func NewKeyRegistry(bindings []KeyBinding) *KeyRegistry {
	return &KeyRegistry{bindings: slices.Clone(bindings)}
}

func (r *KeyRegistry) Register(binding KeyBinding) {
	r.bindings = append(r.bindings, binding)
}

func (r *KeyRegistry) BindingsForScope(scope string) []KeyBinding {
	out := make([]KeyBinding, 0, len(r.bindings))
	for _, b := range r.bindings {
		if scopeMatch(scope, b.Scopes) {
			out = append(out, b)
		}
	}
	return out
}

func (r *KeyRegistry) IsAction(msg tea.KeyMsg, action, scope string) bool {
	pressed := normalizeKey(msg.String())
	for _, b := range r.bindings {
		if b.Action != action || !scopeMatch(scope, b.Scopes) {
			continue
		}
		for _, k := range b.Keys {
			if normalizeKey(k) == pressed {
				return true
			}
		}
	}
	return false
}

// DefaultBindings is the stock key map. View-specific actions are scoped to
// that view's id; everything else is global.
func DefaultBindings() []KeyBinding {
	return []KeyBinding{
		{Keys: []string{"q", "ctrl+c"}, Action: "quit", Description: "quit", Scopes: []string{"LIBRARY", "AUDIO_LAB"}},
		{Keys: []string{"ctrl+c"}, Action: "quit", Description: "quit"},
		{Keys: []string{"1"}, Action: "switch-view-1", Description: "library", Scopes: []string{"LIBRARY", "STUDIO", "TRANSCRIBE", "AUDIO_LAB"}},
		{Keys: []string{"2"}, Action: "switch-view-2", Description: "studio", Scopes: []string{"LIBRARY", "STUDIO", "TRANSCRIBE", "AUDIO_LAB"}},
		{Keys: []string{"3"}, Action: "switch-view-3", Description: "transcribe", Scopes: []string{"LIBRARY", "STUDIO", "TRANSCRIBE", "AUDIO_LAB"}},
		{Keys: []string{"4"}, Action: "switch-view-4", Description: "audio lab", Scopes: []string{"LIBRARY", "STUDIO", "TRANSCRIBE", "AUDIO_LAB"}},
	}
}

func normalizeKey(k string) string {
	return strings.ToLower(strings.TrimSpace(k))
}

func scopeMatch(scope string, scopes []string) bool {
	if len(scopes) == 0 {
		return true
	}
	for _, s := range scopes {
		if s == "*" || s == scope {
			return true
		}
	}
	return false
}
