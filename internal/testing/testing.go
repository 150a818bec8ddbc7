// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"testing"

	"github.com/podlens/podlens/internal/models"
)

// MockAPI is a test double for [services.API]
type MockAPI struct{}

func (m *MockAPI) AnalyzeURL(ctx context.Context, url string) (io.ReadCloser, error) {
	return io.NopCloser(&emptyReader{}), nil
}

func (m *MockAPI) AnalyzeFile(ctx context.Context, filename string, file io.Reader) (io.ReadCloser, error) {
	return io.NopCloser(&emptyReader{}), nil
}

func (m *MockAPI) ResolveAudioURL(ctx context.Context, url string) (string, error) {
	return url, nil
}

func (m *MockAPI) RegenerateSummary(ctx context.Context, historyID string) (*models.AnalysisResult, error) {
	return nil, nil
}

func (m *MockAPI) FetchHistory(ctx context.Context) ([]models.HistoryEntry, error) {
	return []models.HistoryEntry{}, nil
}

func (m *MockAPI) DeleteHistory(ctx context.Context, historyID string) error {
	return nil
}

func (m *MockAPI) Health(ctx context.Context) error { return nil }

type emptyReader struct{}

func (e *emptyReader) Read(p []byte) (n int, err error) { return 0, io.EOF }

// MockRevoker records session revocations
type MockRevoker struct {
	Calls int
}

func (m *MockRevoker) Revoke() { m.Calls++ }

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
