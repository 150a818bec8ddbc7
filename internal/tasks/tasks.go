// package tasks orchestrates analysis runs against the remote service.
//
// The core abstraction is AnalysisEngine, which submits episodes, folds the
// event stream into renderable state, reconciles submissions against stored
// history, and keeps the local cache fresh. Operations emit progress updates
// via channels for non-blocking status reporting to CLI/UI layers.
package tasks

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"

	"github.com/podlens/podlens/internal/models"
	"github.com/podlens/podlens/internal/services"
	"github.com/podlens/podlens/internal/shared"
	"github.com/podlens/podlens/internal/stream"
)

// HistoryCache is the subset of the repository layer the engine needs to keep
// the local history mirror fresh.
type HistoryCache interface {
	List() ([]*models.CachedAnalysis, error)
	ReplaceAll(entries []models.HistoryEntry) error
}

// RunResult is the terminal outcome of one submission.
type RunResult struct {
	Result      *models.AnalysisResult // Structured summary, nil on failure
	AudioSource string                 // Preferred playback source for the result
	Decision    Decision               // How reconciliation resolved the submission
	Entry       models.HistoryEntry    // Matched history entry when Decision != NewAnalysis
}

// AnalysisEngine submits episodes for analysis and reconciles them against
// stored history.
//
// Each submission is tagged with a generation number. Starting a new
// submission or calling Abandon bumps the generation; events still arriving
// from a previous stream carry a stale generation and are discarded, so a
// late terminal frame can never overwrite the state of a newer run.
type AnalysisEngine struct {
	api    services.API
	cache  HistoryCache
	logger *log.Logger

	generation atomic.Uint64

	mu     sync.Mutex
	active io.Closer
}

// NewAnalysisEngine creates an engine backed by the given service client and
// local cache. The cache may be nil, in which case reconciliation always
// fetches history from the service.
func NewAnalysisEngine(logger *log.Logger, api services.API, cache HistoryCache) *AnalysisEngine {
	return &AnalysisEngine{
		api:    api,
		cache:  cache,
		logger: logger,
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks the
// decode loop.
func (e *AnalysisEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
		// Sent successfully
	default:
		// Channel full or closed, skip this update
	}
}

// SubmitURL runs a full analysis of the episode at the given URL.
//
// The URL is resolved to a direct audio URL when possible, reconciled against
// stored history (confirm decides what to do with a match), and only then
// submitted for a fresh analysis. Progress updates are emitted on the
// channel; the returned RunResult is the terminal state.
func (e *AnalysisEngine) SubmitURL(ctx context.Context, rawURL string, progress chan<- ProgressUpdate, confirm ConfirmFunc) (*RunResult, error) {
	if e.api == nil {
		return nil, fmt.Errorf("%w: analysis service not initialized", shared.ErrServiceUnavailable)
	}

	gen := e.generation.Add(1)

	e.sendProgress(progress, submittingUpdate(rawURL))

	resolved := rawURL
	if !services.IsDirectAudioURL(rawURL) {
		e.sendProgress(progress, resolvingUpdate(rawURL))

		var err error
		resolved, err = e.api.ResolveAudioURL(ctx, rawURL)
		if err != nil {
			e.sendProgress(progress, failedUpdate(err))
			return nil, err
		}
	}

	entries, err := e.History(ctx)
	if err != nil {
		e.logger.Warn("history unavailable, skipping reconciliation", "error", err)
		entries = nil
	}

	if entry, ok := FindExisting(entries, rawURL, resolved); ok && confirm != nil {
		e.sendProgress(progress, matchedUpdate(entry))

		switch confirm(entry) {
		case RegenerateSummary:
			return e.regenerate(ctx, entry, progress)
		case OpenExisting:
			return &RunResult{
				Result:      &entry.Result,
				AudioSource: entry.PlaybackSource(),
				Decision:    OpenExisting,
				Entry:       entry,
			}, nil
		}
	}

	body, err := e.api.AnalyzeURL(ctx, rawURL)
	if err != nil {
		e.sendProgress(progress, failedUpdate(err))
		return nil, err
	}

	return e.consume(ctx, gen, body, resolved, progress)
}

// SubmitFile runs a full analysis of a local audio file. Files skip URL
// resolution and reconciliation; there is no URL to match against history.
func (e *AnalysisEngine) SubmitFile(ctx context.Context, filename string, file io.Reader, progress chan<- ProgressUpdate) (*RunResult, error) {
	if e.api == nil {
		return nil, fmt.Errorf("%w: analysis service not initialized", shared.ErrServiceUnavailable)
	}

	gen := e.generation.Add(1)

	e.sendProgress(progress, submittingUpdate(filename))

	body, err := e.api.AnalyzeFile(ctx, filename, file)
	if err != nil {
		e.sendProgress(progress, failedUpdate(err))
		return nil, err
	}

	return e.consume(ctx, gen, body, "", progress)
}

// regenerate re-runs summarization for a matched history entry and refreshes
// the local cache so the regenerated content persists.
func (e *AnalysisEngine) regenerate(ctx context.Context, entry models.HistoryEntry, progress chan<- ProgressUpdate) (*RunResult, error) {
	result, err := e.api.RegenerateSummary(ctx, entry.RemoteID)
	if err != nil {
		e.sendProgress(progress, failedUpdate(err))
		return nil, err
	}

	// The stored audio URL survives regeneration; only the summary changes.
	entry.Result = *result

	if _, err := e.RefreshHistory(ctx); err != nil {
		e.logger.Warn("failed to refresh history after regeneration", "error", err)
	}

	e.sendProgress(progress, completedUpdate(result))

	return &RunResult{
		Result:      result,
		AudioSource: entry.PlaybackSource(),
		Decision:    RegenerateSummary,
		Entry:       entry,
	}, nil
}

// consume decodes the event stream into an aggregator until a terminal event
// arrives, dropping everything if the run's generation has gone stale.
func (e *AnalysisEngine) consume(ctx context.Context, gen uint64, body io.ReadCloser, resolved string, progress chan<- ProgressUpdate) (*RunResult, error) {
	e.setActive(body)
	defer func() {
		e.clearActive(body)
		body.Close()
	}()

	agg := NewAggregator()
	agg.Begin()

	decoder := stream.NewDecoder(body)

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		event, ok := decoder.Next()
		if !ok {
			break
		}

		if e.generation.Load() != gen {
			e.logger.Debug("dropping event from stale stream", "kind", event.Kind)
			return nil, fmt.Errorf("analysis superseded by a newer submission")
		}

		if !agg.Apply(event) {
			continue
		}

		switch event.Kind {
		case stream.Progress:
			e.sendProgress(progress, stageUpdate(agg.Status(), agg.Progress()))
		case stream.ResolvedAudio:
			e.sendProgress(progress, resolvedAudioUpdate(agg.Status(), event.URL))
		}
	}

	if agg.Status() == Failed {
		err := agg.Err()
		e.sendProgress(progress, failedUpdate(err))
		return nil, err
	}

	result := agg.Result()
	if result == nil {
		err := shared.ErrStreamIncomplete
		e.sendProgress(progress, failedUpdate(err))
		return nil, err
	}

	e.sendProgress(progress, completedUpdate(result))

	if _, err := e.RefreshHistory(ctx); err != nil {
		e.logger.Warn("failed to refresh history after analysis", "error", err)
	}

	return &RunResult{
		Result:      result,
		AudioSource: audioSource(result, agg.AudioURL(), resolved),
		Decision:    NewAnalysis,
	}, nil
}

// audioSource picks the playback source for a completed run: a locally
// cached file beats the URL announced mid-stream, which beats the URL
// resolved before submission.
func audioSource(result *models.AnalysisResult, streamed, resolved string) string {
	if result != nil && result.LocalAudioPath != "" {
		return result.LocalAudioPath
	}
	if streamed != "" {
		return streamed
	}
	return resolved
}

// History returns known history entries, preferring the local cache and
// falling back to the service when the cache is empty or unavailable.
func (e *AnalysisEngine) History(ctx context.Context) ([]models.HistoryEntry, error) {
	if e.cache != nil {
		cached, err := e.cache.List()
		if err == nil && len(cached) > 0 {
			entries := make([]models.HistoryEntry, 0, len(cached))
			for _, c := range cached {
				entries = append(entries, c.Entry())
			}
			return entries, nil
		}

		if err != nil {
			e.logger.Warn("history cache read failed", "error", err)
		}
	}

	return e.RefreshHistory(ctx)
}

// RefreshHistory fetches history from the service and replaces the local
// cache with the fresh snapshot.
func (e *AnalysisEngine) RefreshHistory(ctx context.Context) ([]models.HistoryEntry, error) {
	entries, err := e.api.FetchHistory(ctx)
	if err != nil {
		return nil, err
	}

	if e.cache != nil {
		if err := e.cache.ReplaceAll(entries); err != nil {
			e.logger.Warn("failed to update history cache", "error", err)
		}
	}

	return entries, nil
}

// DeleteEntry removes an analysis from the remote history and refreshes the
// local cache.
func (e *AnalysisEngine) DeleteEntry(ctx context.Context, remoteID string) error {
	if err := e.api.DeleteHistory(ctx, remoteID); err != nil {
		return err
	}

	if _, err := e.RefreshHistory(ctx); err != nil {
		e.logger.Warn("failed to refresh history after delete", "error", err)
	}

	return nil
}

// Abandon invalidates the in-flight run, if any. The active stream body is
// closed so the decode loop unblocks; its remaining events carry a stale
// generation and are discarded.
func (e *AnalysisEngine) Abandon() {
	e.generation.Add(1)

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.active != nil {
		e.active.Close()
		e.active = nil
	}
}

func (e *AnalysisEngine) setActive(body io.Closer) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.active = body
}

func (e *AnalysisEngine) clearActive(body io.Closer) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active == body {
		e.active = nil
	}
}
