// package services defines the client boundary with the remote
// podcast-analysis service.
package services

import (
	"context"
	"io"

	"github.com/podlens/podlens/internal/models"
)

// API defines the operations the analysis service exposes to this client.
type API interface {
	// AnalyzeURL submits a source URL for analysis and returns the streamed
	// frame body. The caller owns closing the returned reader.
	AnalyzeURL(ctx context.Context, url string) (io.ReadCloser, error)

	// AnalyzeFile submits a binary audio payload for analysis and returns
	// the streamed frame body.
	AnalyzeFile(ctx context.Context, filename string, file io.Reader) (io.ReadCloser, error)

	// ResolveAudioURL resolves an indirect episode link to a direct audio
	// URL. On resolution failure the input is returned unchanged.
	ResolveAudioURL(ctx context.Context, url string) (string, error)

	// RegenerateSummary re-runs summarization over the stored transcript of
	// an existing history entry.
	RegenerateSummary(ctx context.Context, historyID string) (*models.AnalysisResult, error)

	// FetchHistory lists all stored analyses for the authenticated user.
	FetchHistory(ctx context.Context) ([]models.HistoryEntry, error)

	// DeleteHistory removes a stored analysis by id.
	DeleteHistory(ctx context.Context, historyID string) error

	// Health checks connectivity and session validity.
	Health(ctx context.Context) error
}

// SessionRevoker is invoked whenever the service reports the session is no
// longer valid. The caller decides what "log out" means; the client only
// guarantees the signal fires once per failed call and the call is never
// retried.
type SessionRevoker interface {
	Revoke()
}

// RevokerFunc adapts a function to the [SessionRevoker] interface.
type RevokerFunc func()

func (f RevokerFunc) Revoke() { f() }
