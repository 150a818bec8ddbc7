package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/podlens/podlens/internal/models"
	"github.com/podlens/podlens/internal/shared"
)

// InsightService talks to the analysis backend over HTTP. Streaming
// endpoints hand the raw response body to the caller; everything else is
// decoded here. Non-streaming calls share a rate limiter so bulk operations
// (history refresh, batch deletes) stay polite.
type InsightService struct {
	BaseURL string
	Token   string

	client  *http.Client
	limiter *rate.Limiter
	revoker SessionRevoker
	logger  *log.Logger
}

// InsightOpts collects optional knobs for [NewInsightService].
type InsightOpts struct {
	Client    *http.Client
	Revoker   SessionRevoker
	RateLimit float64
}

// NewInsightService builds a client for the analysis backend. A nil
// http.Client gets a default with a generous timeout suppressed for
// streaming requests (those use a context deadline instead).
func NewInsightService(logger *log.Logger, baseURL, token string, opts InsightOpts) *InsightService {
	client := opts.Client
	if client == nil {
		client = &http.Client{}
	}

	limit := opts.RateLimit
	if limit <= 0 {
		limit = 5
	}

	return &InsightService{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(limit), 1),
		revoker: opts.Revoker,
		logger:  logger,
	}
}

// Login performs the password grant against the backend token endpoint and
// returns the bearer token for subsequent calls.
func (s *InsightService) Login(ctx context.Context, username, password string) (string, error) {
	conf := &oauth2.Config{
		Endpoint: oauth2.Endpoint{
			TokenURL:  s.BaseURL + "/token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, s.client)

	token, err := conf.PasswordCredentialsToken(ctx, username, password)
	if err != nil {
		return "", fmt.Errorf("login failed: %w", err)
	}

	s.Token = token.AccessToken

	return token.AccessToken, nil
}

// AnalyzeURL submits a source URL and returns the streamed response body.
// The backend reads the URL from a form field, not a JSON body. The body is
// not rate limited; streams run as long as the analysis does.
func (s *InsightService) AnalyzeURL(ctx context.Context, sourceURL string) (io.ReadCloser, error) {
	form := url.Values{"url": {sourceURL}}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.BaseURL+"/api/analyze/url", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	return s.stream(req)
}

// AnalyzeFile uploads an audio file as multipart form data and returns the
// streamed response body.
func (s *InsightService) AnalyzeFile(ctx context.Context, filename string, file io.Reader) (io.ReadCloser, error) {
	var body bytes.Buffer

	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}

	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize upload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.BaseURL+"/api/analyze/file", &body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", writer.FormDataContentType())

	return s.stream(req)
}

// stream issues an authorized request and hands back the open body on 200.
func (s *InsightService) stream(req *http.Request) (io.ReadCloser, error) {
	req.Header.Set("Authorization", "Bearer "+s.Token)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()

		return nil, s.statusError(resp)
	}

	return resp.Body, nil
}

// ResolveAudioURL asks the backend to resolve an episode page link to a
// direct audio URL. Resolution is best effort; any failure other than an
// expired session falls back to the input URL.
func (s *InsightService) ResolveAudioURL(ctx context.Context, sourceURL string) (string, error) {
	query := url.Values{"url": {sourceURL}}

	var result struct {
		ResolvedURL string `json:"resolved_url"`
	}

	err := s.getJSON(ctx, "/api/resolve-audio-url?"+query.Encode(), &result)
	if err != nil {
		if shared.Classify(err).Kind == shared.KindUnauthorized {
			return "", err
		}

		s.logger.Warn("audio url resolution failed, using original", "error", err)

		return sourceURL, nil
	}

	if result.ResolvedURL == "" {
		return sourceURL, nil
	}

	return result.ResolvedURL, nil
}

// RegenerateSummary re-runs summarization from the stored transcript of an
// existing entry and returns the refreshed result. The backend answers with
// a flat completed-frame payload, summary and transcript side by side.
func (s *InsightService) RegenerateSummary(ctx context.Context, historyID string) (*models.AnalysisResult, error) {
	var payload struct {
		Summary        *models.AnalysisResult `json:"summary"`
		Transcript     string                 `json:"transcript"`
		LocalAudioPath string                 `json:"local_audio_path"`
	}

	if err := s.postJSON(ctx, "/api/history/"+historyID+"/regenerate-summary", nil, &payload); err != nil {
		return nil, err
	}

	if payload.Summary == nil {
		return nil, fmt.Errorf("regeneration returned no summary")
	}

	result := payload.Summary
	if result.Transcript == "" {
		result.Transcript = payload.Transcript
	}

	if result.LocalAudioPath == "" {
		result.LocalAudioPath = payload.LocalAudioPath
	}

	return result, nil
}

// FetchHistory lists the stored analyses for the authenticated user, newest
// first as the backend orders them. The backend returns a bare array with
// numeric ids and the result nested under "data"; entries are mapped into
// [models.HistoryEntry] here.
func (s *InsightService) FetchHistory(ctx context.Context) ([]models.HistoryEntry, error) {
	var items []struct {
		ID        int                   `json:"id"`
		Title     string                `json:"title"`
		CreatedAt string                `json:"created_at"`
		Data      models.AnalysisResult `json:"data"`
		AudioURL  string                `json:"audio_url"`
	}

	if err := s.getJSON(ctx, "/api/history", &items); err != nil {
		return nil, err
	}

	entries := make([]models.HistoryEntry, 0, len(items))
	for _, item := range items {
		entries = append(entries, models.HistoryEntry{
			RemoteID: strconv.Itoa(item.ID),
			Title:    item.Title,
			Date:     parseHistoryDate(item.CreatedAt),
			Result:   item.Data,
			AudioURL: item.AudioURL,
		})
	}

	return entries, nil
}

// parseHistoryDate reads the backend's created_at, an ISO 8601 timestamp
// that may or may not carry a zone offset. An unparseable value yields the
// zero time rather than failing the whole listing.
func parseHistoryDate(raw string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}

	return time.Time{}
}

// DeleteHistory removes a stored analysis by id.
func (s *InsightService) DeleteHistory(ctx context.Context, historyID string) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, s.BaseURL+"/api/history/"+historyID, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+s.Token)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return s.statusError(resp)
	}

	return nil
}

// Health checks connectivity and session validity against the history
// endpoint, which requires authentication without side effects.
func (s *InsightService) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := s.FetchHistory(ctx)

	return err
}

func (s *InsightService) getJSON(ctx context.Context, path string, out any) error {
	return s.requestJSON(ctx, http.MethodGet, path, nil, out)
}

func (s *InsightService) postJSON(ctx context.Context, path string, body io.Reader, out any) error {
	return s.requestJSON(ctx, http.MethodPost, path, body, out)
}

func (s *InsightService) requestJSON(ctx context.Context, method, path string, body io.Reader, out any) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, method, s.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+s.Token)

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return s.statusError(resp)
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// statusError maps an unexpected HTTP status to a classified error. A 401
// revokes the session exactly once for the failing call and is never
// retried here.
func (s *InsightService) statusError(resp *http.Response) error {
	detail := readErrorDetail(resp.Body)

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		if s.revoker != nil {
			s.revoker.Revoke()
		}

		return shared.ErrUnauthorized
	case http.StatusRequestEntityTooLarge:
		return shared.ErrPayloadTooLarge
	case http.StatusBadRequest:
		if detail == "" {
			detail = "bad request"
		}

		return &shared.AnalysisError{
			Kind:    shared.KindConfiguration,
			Message: detail,
		}
	}

	if detail != "" {
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, detail)
	}

	return fmt.Errorf("server returned %d", resp.StatusCode)
}

// readErrorDetail pulls the backend's {"detail": ...} body when present.
func readErrorDetail(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil {
		return ""
	}

	var payload struct {
		Detail string `json:"detail"`
	}

	if err := json.Unmarshal(raw, &payload); err == nil && payload.Detail != "" {
		return payload.Detail
	}

	return strings.TrimSpace(string(raw))
}

// IsDirectAudioURL reports whether the URL already points at playable audio
// and needs no resolution round trip.
func IsDirectAudioURL(sourceURL string) bool {
	trimmed := sourceURL
	if i := strings.IndexAny(trimmed, "?#"); i >= 0 {
		trimmed = trimmed[:i]
	}

	lower := strings.ToLower(trimmed)

	return strings.HasSuffix(lower, ".m4a") ||
		strings.HasSuffix(lower, ".mp3") ||
		strings.Contains(strings.ToLower(sourceURL), "media.xyzcdn.net")
}
