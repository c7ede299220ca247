// Package views holds the four top-level screens of the studio TUI.
//
// Each view is constructed once at startup and registered with the core
// model; switching views only changes which one paints and receives keys.
// Durable per-view state lives in pagestate slices so a restart restores
// the form exactly where the user left it.
package views
