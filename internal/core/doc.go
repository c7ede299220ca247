// Package core contains app-wide contracts and state orchestration for the
// studio TUI.
//
// Allowed here:
//   - model routing, message contracts, key registry
//   - the view composition policy: every top-level view is constructed once at
//     startup and never torn down; switching views only changes which one
//     receives input and paints
//
// Not allowed here:
// - concrete view/modal rendering implementations
// - low-level widget rendering primitives
package core
