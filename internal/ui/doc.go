// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a multi-view workflow for hierarchy migration:
//  1. [PlanView] : Review the planned tasks for the source hierarchy
//  2. [ConfirmView] : Confirm the apply operation (and deletes, when planned)
//  3. [ApplyView] : Monitor real-time progress updates
//  4. [ResultView] : Display per-task outcomes and run totals
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern.
// Progress updates flow through a channel from the migration Engine, providing
// non-blocking status reporting while tasks execute.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, y/n, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
