package tasks

import (
	"fmt"

	"github.com/podlens/podlens/internal/models"
)

// ProgressUpdate represents a progress event during a running analysis.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Status  Status  // Coarse lifecycle state after this event
	Stage   string  // Display label for the current stage
	Percent float64 // 0..100 as reported by the service
	Message string  // Human-readable message for display
	Data    any     // Optional event-specific data for advanced UIs
}

func submittingUpdate(target string) ProgressUpdate {
	return ProgressUpdate{
		Status:  Submitting,
		Message: fmt.Sprintf("Submitting %s for analysis...", target),
	}
}

func resolvingUpdate(url string) ProgressUpdate {
	return ProgressUpdate{
		Status:  Submitting,
		Message: fmt.Sprintf("Resolving audio URL for %s...", url),
	}
}

func stageUpdate(status Status, progress ProgressState) ProgressUpdate {
	message := progress.Stage
	if progress.Detail != "" {
		message = fmt.Sprintf("%s: %s", progress.Stage, progress.Detail)
	}

	return ProgressUpdate{
		Status:  status,
		Stage:   progress.Stage,
		Percent: progress.Percent,
		Message: message,
	}
}

func resolvedAudioUpdate(status Status, url string) ProgressUpdate {
	return ProgressUpdate{
		Status:  status,
		Message: "Audio source resolved",
		Data:    url,
	}
}

func completedUpdate(result *models.AnalysisResult) ProgressUpdate {
	return ProgressUpdate{
		Status:  Completed,
		Percent: 100,
		Message: fmt.Sprintf("Analysis complete: %s", result.Title),
		Data:    result,
	}
}

func matchedUpdate(entry models.HistoryEntry) ProgressUpdate {
	return ProgressUpdate{
		Status:  Submitting,
		Message: fmt.Sprintf("Found existing analysis: %s", entry.Title),
		Data:    entry,
	}
}

func failedUpdate(err error) ProgressUpdate {
	return ProgressUpdate{
		Status:  Failed,
		Message: fmt.Sprintf("Analysis failed: %v", err),
	}
}
