package tasks

import (
	"testing"

	"github.com/podlens/podlens/internal/models"
)

func TestFindExisting(t *testing.T) {
	entries := []models.HistoryEntry{
		{RemoteID: "h1", Title: "First", AudioURL: "https://cdn.example.com/ep123.m4a"},
		{RemoteID: "h2", Title: "Second", AudioURL: "https://cdn.example.com/ep456.m4a"},
		{RemoteID: "h3", Title: "No URL"},
	}

	t.Run("Resolved URL Exact Match Wins", func(t *testing.T) {
		entry, ok := FindExisting(entries, "https://pod.example/page", "https://cdn.example.com/ep456.m4a")
		if !ok || entry.RemoteID != "h2" {
			t.Errorf("expected h2, got %+v (ok=%v)", entry, ok)
		}
	})

	t.Run("Raw URL Exact Match", func(t *testing.T) {
		entry, ok := FindExisting(entries, "https://cdn.example.com/ep123.m4a", "")
		if !ok || entry.RemoteID != "h1" {
			t.Errorf("expected h1, got %+v (ok=%v)", entry, ok)
		}
	})

	t.Run("Signed URL Soft Matches The Stored Segment", func(t *testing.T) {
		entry, ok := FindExisting(entries, "https://pod.example/page", "https://cdn.example.com/ep123.m4a?sig=abc")
		if !ok || entry.RemoteID != "h1" {
			t.Errorf("expected h1 via soft match, got %+v (ok=%v)", entry, ok)
		}
	})

	t.Run("Mirror Host Soft Matches", func(t *testing.T) {
		entry, ok := FindExisting(entries, "", "https://mirror.example.net/files/ep456.m4a")
		if !ok || entry.RemoteID != "h2" {
			t.Errorf("expected h2 via soft match, got %+v (ok=%v)", entry, ok)
		}
	})

	t.Run("Unrelated URL Does Not Match", func(t *testing.T) {
		if entry, ok := FindExisting(entries, "https://elsewhere.example/other.mp3", "https://elsewhere.example/other.mp3"); ok {
			t.Errorf("expected no match, got %+v", entry)
		}
	})

	t.Run("Entries Without URLs Are Skipped", func(t *testing.T) {
		if entry, ok := FindExisting(entries, "", ""); ok {
			t.Errorf("expected no match on empty candidates, got %+v", entry)
		}
	})

	t.Run("Exact Match Beats Soft Match", func(t *testing.T) {
		mixed := []models.HistoryEntry{
			{RemoteID: "soft", AudioURL: "https://old.example/ep999.m4a"},
			{RemoteID: "exact", AudioURL: "https://cdn.example/ep999.m4a"},
		}

		entry, ok := FindExisting(mixed, "https://cdn.example/ep999.m4a", "https://cdn.example/ep999.m4a")
		if !ok || entry.RemoteID != "exact" {
			t.Errorf("expected exact match preferred, got %+v (ok=%v)", entry, ok)
		}
	})
}
