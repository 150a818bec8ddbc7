// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a multi-view workflow for episode analysis:
//  1. [InputView] : Enter an episode URL to analyze
//  2. [HistoryListView] : Browse previously analyzed episodes
//  3. [MatchPromptView] : Decide what to do when a URL matches stored history
//  4. [ProgressView] : Monitor real-time analysis progress
//  5. [ResultView] : Display the summary with seekable timestamps
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern.
// Progress updates and reconciliation prompts flow through channels from the AnalysisEngine,
// providing non-blocking status reporting during analysis.
//
// Selecting a timestamp in the result view seeks the attached playback synchronizer,
// which debounces rapid selections and waits for the player to become ready.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, y/n, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
