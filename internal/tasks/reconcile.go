package tasks

import (
	"strings"

	"github.com/podlens/podlens/internal/models"
)

// Decision is the outcome of reconciling a submitted URL against stored
// history.
type Decision int

const (
	// NewAnalysis means nothing in history matched; run a fresh analysis.
	NewAnalysis Decision = iota
	// RegenerateSummary means a matching entry exists and the user chose to
	// re-run summarization from its stored transcript.
	RegenerateSummary
	// OpenExisting means a matching entry exists and the user chose to view
	// it as is.
	OpenExisting
)

func (d Decision) String() string {
	switch d {
	case RegenerateSummary:
		return "regenerate"
	case OpenExisting:
		return "open_existing"
	default:
		return "new_analysis"
	}
}

// ConfirmFunc asks the user what to do with a history entry that matches the
// submitted URL. Returning RegenerateSummary re-runs summarization; anything
// else opens the stored result.
type ConfirmFunc func(entry models.HistoryEntry) Decision

// FindExisting looks for a history entry already covering the submitted URL.
//
// Matching runs in priority order: the resolved audio URL against the stored
// audio URL, then the raw input against the stored audio URL, then a soft
// filename match. The first hit wins.
func FindExisting(entries []models.HistoryEntry, rawURL, resolvedURL string) (models.HistoryEntry, bool) {
	for _, entry := range entries {
		if entry.AudioURL == "" {
			continue
		}

		if resolvedURL != "" && entry.AudioURL == resolvedURL {
			return entry, true
		}
	}

	for _, entry := range entries {
		if entry.AudioURL == "" {
			continue
		}

		if rawURL != "" && entry.AudioURL == rawURL {
			return entry, true
		}
	}

	for _, entry := range entries {
		if entry.AudioURL == "" {
			continue
		}

		if softMatch(entry.AudioURL, resolvedURL) || softMatch(entry.AudioURL, rawURL) {
			return entry, true
		}
	}

	return models.HistoryEntry{}, false
}

// softMatch compares two URLs by their final path segment. Either segment
// being a substring of the other URL counts, which tolerates signed URLs and
// mirror hosts serving the same file.
func softMatch(storedURL, candidateURL string) bool {
	if storedURL == "" || candidateURL == "" {
		return false
	}

	storedSeg := finalSegment(storedURL)
	candidateSeg := finalSegment(candidateURL)

	if storedSeg != "" && strings.Contains(candidateURL, storedSeg) {
		return true
	}

	if candidateSeg != "" && strings.Contains(storedURL, candidateSeg) {
		return true
	}

	return false
}

// finalSegment returns the text after the last slash, with any query string
// or fragment stripped. The segment is used unbounded; short or generic
// filenames can over-match, which callers accept in exchange for tolerating
// CDN variance.
func finalSegment(rawURL string) string {
	trimmed := rawURL
	if i := strings.IndexAny(trimmed, "?#"); i >= 0 {
		trimmed = trimmed[:i]
	}

	trimmed = strings.TrimRight(trimmed, "/")

	seg := trimmed
	if i := strings.LastIndex(trimmed, "/"); i >= 0 {
		seg = trimmed[i+1:]
	}

	return seg
}
