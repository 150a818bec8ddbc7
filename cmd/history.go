package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/podlens/podlens/internal/models"
	"github.com/podlens/podlens/internal/shared"
	"github.com/podlens/podlens/internal/timecode"
)

// HistoryList prints analyzed episodes, newest first.
func (r *Runner) HistoryList(ctx context.Context, cmd *cli.Command) error {
	var entries []models.HistoryEntry
	var err error

	if cmd.Bool("cached") && r.repo != nil {
		cached, listErr := r.repo.List()
		if listErr != nil {
			return listErr
		}
		for _, c := range cached {
			entries = append(entries, c.Entry())
		}
	} else {
		entries, err = r.engine.RefreshHistory(ctx)
		if err != nil {
			return err
		}
	}

	if cmd.Bool("json") {
		return r.writeJSON(entries, true)
	}

	if len(entries) == 0 {
		return r.writePlain("No analyzed episodes yet.\n")
	}

	for _, entry := range entries {
		date := "          "
		if !entry.Date.IsZero() {
			date = entry.Date.Format("2006-01-02")
		}
		r.writePlain("%s  %s  %s\n", entry.RemoteID, date, entry.Title)
	}

	return nil
}

// HistoryShow renders one stored analysis.
func (r *Runner) HistoryShow(ctx context.Context, cmd *cli.Command) error {
	entry, err := r.findEntry(ctx, cmd.StringArg("id"))
	if err != nil {
		return err
	}

	if !cmd.Bool("json") && !cmd.Bool("transcript") {
		if source := entry.PlaybackSource(); source != "" {
			r.logger.Info("audio source", "url", source)
		}

		for _, block := range entry.Result.TopicBlocks {
			if seconds, err := timecode.FirstComponent(block.Scope); err == nil {
				r.logger.Debug("seekable topic", "title", block.Title, "offset", timecode.Format(seconds))
			}
		}
	}

	return r.renderResult(cmd, &entry.Result)
}

// HistoryDelete removes a stored analysis remotely and from the local cache.
func (r *Runner) HistoryDelete(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: history id", shared.ErrMissingArgument)
	}

	if err := r.engine.DeleteEntry(ctx, id); err != nil {
		return err
	}

	return r.writePlain("✓ Deleted %s\n", id)
}

// HistoryRegenerate re-runs summarization from a stored transcript.
func (r *Runner) HistoryRegenerate(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: history id", shared.ErrMissingArgument)
	}

	result, err := r.api.RegenerateSummary(ctx, id)
	if err != nil {
		return err
	}

	if _, err := r.engine.RefreshHistory(ctx); err != nil {
		r.logger.Warn("failed to refresh history cache", "error", err)
	}

	return r.renderResult(cmd, result)
}

// HistoryRefresh replaces the local cache with a fresh snapshot.
func (r *Runner) HistoryRefresh(ctx context.Context, cmd *cli.Command) error {
	entries, err := r.engine.RefreshHistory(ctx)
	if err != nil {
		return err
	}

	return r.writePlain("✓ Cached %d episodes\n", len(entries))
}

// findEntry resolves a history id against the service, falling back to the
// local cache when offline.
func (r *Runner) findEntry(ctx context.Context, id string) (models.HistoryEntry, error) {
	if id == "" {
		return models.HistoryEntry{}, fmt.Errorf("%w: history id", shared.ErrMissingArgument)
	}

	entries, err := r.engine.History(ctx)
	if err != nil {
		return models.HistoryEntry{}, err
	}

	for _, entry := range entries {
		if entry.RemoteID == id {
			return entry, nil
		}
	}

	return models.HistoryEntry{}, shared.ErrEntryNotFound
}
