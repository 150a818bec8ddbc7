package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/podlens/podlens/internal/formatter"
	"github.com/podlens/podlens/internal/models"
	"github.com/podlens/podlens/internal/shared"
	"github.com/podlens/podlens/internal/tasks"
)

// Analyze submits an episode URL or local file for analysis, streaming
// progress to stderr via the logger and rendering the terminal result.
func (r *Runner) Analyze(ctx context.Context, cmd *cli.Command) error {
	filePath := cmd.String("file")
	url := cmd.StringArg("url")

	if filePath == "" && url == "" {
		return fmt.Errorf("%w: provide an episode URL or --file", shared.ErrMissingArgument)
	}

	progress := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for update := range progress {
			if update.Stage != "" {
				r.logger.Info(update.Stage, "percent", update.Percent)
			} else if update.Message != "" {
				r.logger.Info(update.Message)
			}
		}
	}()

	var run *tasks.RunResult
	var err error

	if filePath != "" {
		run, err = r.analyzeFile(ctx, filePath, progress)
	} else {
		run, err = r.engine.SubmitURL(ctx, url, progress, r.confirmFunc(cmd.String("on-match")))
	}

	close(progress)
	<-done

	if err != nil {
		classified := shared.Classify(err)
		r.logger.Error(classified.UserMessage())
		return err
	}

	if run.Decision != tasks.NewAnalysis {
		r.logger.Info("resolved from history", "decision", run.Decision.String(), "id", run.Entry.RemoteID)
	}

	if run.AudioSource != "" {
		r.logger.Info("audio source", "url", run.AudioSource)
	}

	return r.renderResult(cmd, run.Result)
}

func (r *Runner) analyzeFile(ctx context.Context, path string, progress chan tasks.ProgressUpdate) (*tasks.RunResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	return r.engine.SubmitFile(ctx, filepath.Base(path), f, progress)
}

// confirmFunc maps the --on-match flag to a reconciliation decision. The
// default asks on the terminal.
func (r *Runner) confirmFunc(mode string) tasks.ConfirmFunc {
	switch mode {
	case "regenerate":
		return func(models.HistoryEntry) tasks.Decision { return tasks.RegenerateSummary }
	case "open":
		return func(models.HistoryEntry) tasks.Decision { return tasks.OpenExisting }
	case "new":
		return nil
	}

	return func(entry models.HistoryEntry) tasks.Decision {
		r.writePlain("This episode was already analyzed: %s\n", entry.Title)
		r.writePlain("Regenerate the summary? [y/N] ")

		var answer string
		fmt.Fscanln(os.Stdin, &answer)

		if answer == "y" || answer == "Y" {
			return tasks.RegenerateSummary
		}
		return tasks.OpenExisting
	}
}

// renderResult writes the analysis result in the requested format.
func (r *Runner) renderResult(cmd *cli.Command, result *models.AnalysisResult) error {
	var rendered []byte
	var err error

	switch {
	case cmd.Bool("json"):
		return r.writeJSON(result, true)
	case cmd.Bool("transcript"):
		rendered, err = formatter.ExportTranscript(result)
	case cmd.Bool("markdown"):
		rendered, err = formatter.ExportToMarkdown(result)
	default:
		rendered, err = formatter.ExportToText(result)
	}

	if err != nil {
		return err
	}

	if outputPath := cmd.String("output"); outputPath != "" {
		if err := os.WriteFile(outputPath, rendered, 0644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		return r.writePlain("Saved to %s\n", outputPath)
	}

	return r.writePlain("%s", rendered)
}
