// Package prefs stores small per-user preferences as JSON files, separate
// from the page-state database: currently only the last-active project id.
package prefs

import (
	"encoding/json"
	"os"
	"path/filepath"
)

const projectFile = "project.json"

type projectPref struct {
	ActiveProjectID string `json:"active_project_id"`
}

func projectPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	dir = filepath.Join(dir, "mulastudio")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return filepath.Join(dir, projectFile), nil
}

// SaveActiveProject records the project the user last worked in. An empty id
// clears the preference.
func SaveActiveProject(projectID string) error {
	path, err := projectPath()
	if err != nil {
		return err
	}
	if projectID == "" {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return err
		}
		return nil
	}
	data, err := json.MarshalIndent(projectPref{ActiveProjectID: projectID}, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// LoadActiveProject returns the last-active project id, or "" when none is
// stored.
func LoadActiveProject() (string, error) {
	path, err := projectPath()
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	var p projectPref
	if err := json.Unmarshal(data, &p); err != nil {
		return "", err
	}
	return p.ActiveProjectID, nil
}
