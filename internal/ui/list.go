package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"

	"github.com/podlens/podlens/internal/models"
	"github.com/podlens/podlens/internal/timecode"
)

var (
	_ list.Item = historyItem{}
	_ list.Item = timestampItem{}
)

// historyItem wraps [models.HistoryEntry] to implement [list.Item].
type historyItem struct {
	entry models.HistoryEntry
}

func (i historyItem) FilterValue() string { return i.entry.Title }
func (i historyItem) Title() string       { return i.entry.Title }
func (i historyItem) Description() string {
	desc := "no date"
	if !i.entry.Date.IsZero() {
		desc = i.entry.Date.Format("2006-01-02")
	}
	if i.entry.Result.Overview.Type != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.entry.Result.Overview.Type)
	}
	return desc
}

// timestampItem is a seekable reference into the episode audio.
type timestampItem struct {
	label   string
	source  string
	seconds int
}

func (i timestampItem) FilterValue() string { return i.label }
func (i timestampItem) Title() string       { return i.label }
func (i timestampItem) Description() string {
	return fmt.Sprintf("seek to %s", timecode.Format(i.seconds))
}

// seekableItems collects every timestamped reference in a result that can be
// jumped to during playback.
func seekableItems(result *models.AnalysisResult) []list.Item {
	if result == nil {
		return nil
	}

	var items []list.Item

	add := func(label, source string) {
		seconds, err := timecode.FirstComponent(source)
		if err != nil {
			return
		}
		items = append(items, timestampItem{label: label, source: source, seconds: seconds})
	}

	for _, block := range result.TopicBlocks {
		add(block.Title, block.Scope)
	}

	for _, conclusion := range result.CoreConclusions {
		add(conclusion.Point, conclusion.Source)
	}

	for _, concept := range result.Concepts {
		add(concept.Term, concept.Timestamp)
	}

	for _, cs := range result.Cases {
		add(cs.Story, cs.Source)
	}

	return items
}
