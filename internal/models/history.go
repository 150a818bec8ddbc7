package models

import (
	"fmt"
	"time"
)

// HistoryEntry is one previously completed analysis.
//
// Entries are keyed by RemoteID; uniqueness is guaranteed by the remote
// store, not by the client.
type HistoryEntry struct {
	RemoteID string         `json:"id"`
	Title    string         `json:"title"`
	Date     time.Time      `json:"date"`
	Result   AnalysisResult `json:"result"`
	AudioURL string         `json:"audio_url,omitempty"`
}

// PlaybackSource returns the preferred audio source for this entry: the
// locally cached file when one exists, otherwise the stored audio URL.
func (h *HistoryEntry) PlaybackSource() string {
	if h.Result.LocalAudioPath != "" {
		return h.Result.LocalAudioPath
	}
	return h.AudioURL
}

// CachedAnalysis wraps a [HistoryEntry] for local persistence, implementing [Model].
type CachedAnalysis struct {
	id        string
	sequence  int
	entry     HistoryEntry
	createdAt time.Time
	updatedAt time.Time
	deletedAt *time.Time
}

// NewCachedAnalysis creates a cache row for the given entry.
func NewCachedAnalysis(sequence int, entry HistoryEntry) *CachedAnalysis {
	now := time.Now()
	return &CachedAnalysis{
		sequence:  sequence,
		entry:     entry,
		createdAt: now,
		updatedAt: now,
	}
}

func (c *CachedAnalysis) ID() string { return c.id }
func (c *CachedAnalysis) CreatedAt() time.Time { return c.createdAt }
func (c *CachedAnalysis) UpdatedAt() time.Time { return c.updatedAt }

// Validate checks that the cached entry carries the fields the reconciler
// depends on.
func (c *CachedAnalysis) Validate() error {
	if c.entry.RemoteID == "" {
		return fmt.Errorf("cached analysis missing remote id")
	}
	if c.entry.Title == "" {
		return fmt.Errorf("cached analysis missing title")
	}
	return nil
}

func (c *CachedAnalysis) Sequence() int { return c.sequence }
func (c *CachedAnalysis) Entry() HistoryEntry { return c.entry }
func (c *CachedAnalysis) DeletedAt() *time.Time { return c.deletedAt }

func (c *CachedAnalysis) SetID(id string) { c.id = id }
func (c *CachedAnalysis) SetCreatedAt(t time.Time) { c.createdAt = t }
func (c *CachedAnalysis) SetUpdatedAt(t time.Time) { c.updatedAt = t }
func (c *CachedAnalysis) SetDeletedAt(t *time.Time) { c.deletedAt = t }
func (c *CachedAnalysis) SetEntry(e HistoryEntry) { c.entry = e }
