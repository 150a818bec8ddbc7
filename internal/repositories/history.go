package repositories

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/podlens/podlens/internal/models"
	"github.com/podlens/podlens/internal/shared"
)

// HistoryRepository implements models.Repository[*models.CachedAnalysis] for
// the local analysis cache.
//
// The structured result is stored as a JSON document in result_json; the
// columns the reconciler matches on (remote_id, audio_url) are first-class so
// lookups stay indexed.
type HistoryRepository struct {
	db *sql.DB
}

// NewHistoryRepository creates a new HistoryRepository with the given database connection
func NewHistoryRepository(db *sql.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// Create inserts a cached entry into the database with generated ID and sequence
func (r *HistoryRepository) Create(cached *models.CachedAnalysis) error {
	sequence, err := NextSequence(r.db, "history")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	cached.SetID(id)

	if err := cached.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	entry := cached.Entry()

	resultJSON, err := json.Marshal(entry.Result)
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}

	query := `
		INSERT INTO history (
			id, sequence, remote_id, title, date, audio_url,
			local_audio_path, result_json, created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var audioURL any = entry.AudioURL
	if audioURL == "" {
		audioURL = nil
	}

	var localPath any = entry.Result.LocalAudioPath
	if localPath == "" {
		localPath = nil
	}

	_, err = r.db.Exec(query,
		id,
		sequence,
		entry.RemoteID,
		entry.Title,
		entry.Date,
		audioURL,
		localPath,
		string(resultJSON),
		cached.CreatedAt(),
		cached.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert history entry: %w", err)
	}

	return nil
}

// Get retrieves a cached entry by ID, excluding soft-deleted rows
func (r *HistoryRepository) Get(id string) (*models.CachedAnalysis, error) {
	query := selectColumns + ` WHERE id = ? AND deleted_at IS NULL`

	return r.scanOne(r.db.QueryRow(query, id))
}

// GetByRemoteID retrieves a cached entry by the id the remote service assigned it
func (r *HistoryRepository) GetByRemoteID(remoteID string) (*models.CachedAnalysis, error) {
	query := selectColumns + ` WHERE remote_id = ? AND deleted_at IS NULL`

	return r.scanOne(r.db.QueryRow(query, remoteID))
}

// Update modifies an existing cached entry in the database
func (r *HistoryRepository) Update(cached *models.CachedAnalysis) error {
	if err := cached.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	cached.SetUpdatedAt(now)

	entry := cached.Entry()

	resultJSON, err := json.Marshal(entry.Result)
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}

	query := `
		UPDATE history
		SET title = ?, date = ?, audio_url = ?, local_audio_path = ?,
			result_json = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	var audioURL any = entry.AudioURL
	if audioURL == "" {
		audioURL = nil
	}

	var localPath any = entry.Result.LocalAudioPath
	if localPath == "" {
		localPath = nil
	}

	result, err := r.db.Exec(query,
		entry.Title,
		entry.Date,
		audioURL,
		localPath,
		string(resultJSON),
		now,
		cached.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update history entry: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}

	if rows == 0 {
		return shared.ErrEntryNotFound
	}

	return nil
}

// Delete soft-deletes a cached entry by setting deleted_at
func (r *HistoryRepository) Delete(id string) error {
	query := `UPDATE history SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`

	result, err := r.db.Exec(query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete history entry: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}

	if rows == 0 {
		return shared.ErrEntryNotFound
	}

	return nil
}

// List retrieves all cached entries ordered newest first, excluding
// soft-deleted rows
func (r *HistoryRepository) List() ([]*models.CachedAnalysis, error) {
	query := selectColumns + ` WHERE deleted_at IS NULL ORDER BY date DESC, sequence DESC`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list history entries: %w", err)
	}
	defer rows.Close()

	var entries []*models.CachedAnalysis

	for rows.Next() {
		cached, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}

		entries = append(entries, cached)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate history entries: %w", err)
	}

	return entries, nil
}

// ReplaceAll swaps the cache contents for a fresh snapshot from the remote
// service. Runs in a single transaction so readers never observe a
// half-refreshed cache.
func (r *HistoryRepository) ReplaceAll(entries []models.HistoryEntry) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM history`); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}

	insert := `
		INSERT INTO history (
			id, sequence, remote_id, title, date, audio_url,
			local_audio_path, result_json, created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	now := time.Now()

	for i, entry := range entries {
		resultJSON, err := json.Marshal(entry.Result)
		if err != nil {
			return fmt.Errorf("failed to encode result for %s: %w", entry.RemoteID, err)
		}

		var audioURL any = entry.AudioURL
		if audioURL == "" {
			audioURL = nil
		}

		var localPath any = entry.Result.LocalAudioPath
		if localPath == "" {
			localPath = nil
		}

		_, err = tx.Exec(insert,
			shared.GenerateID(),
			i+1,
			entry.RemoteID,
			entry.Title,
			entry.Date,
			audioURL,
			localPath,
			string(resultJSON),
			now,
			now,
		)
		if err != nil {
			return fmt.Errorf("failed to insert entry %s: %w", entry.RemoteID, err)
		}
	}

	if _, err := tx.Exec(`UPDATE history_sequence SET value = ? WHERE id = 1`, len(entries)); err != nil {
		return fmt.Errorf("failed to reset sequence: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit cache refresh: %w", err)
	}

	return nil
}

const selectColumns = `
	SELECT id, sequence, remote_id, title, date, audio_url,
		local_audio_path, result_json, created_at, updated_at, deleted_at
	FROM history
`

type scannable interface {
	Scan(dest ...any) error
}

func (r *HistoryRepository) scanOne(row *sql.Row) (*models.CachedAnalysis, error) {
	cached, err := r.scanRow(row)
	if err == sql.ErrNoRows {
		return nil, shared.ErrEntryNotFound
	}

	return cached, err
}

func (r *HistoryRepository) scanRow(row scannable) (*models.CachedAnalysis, error) {
	var (
		id, remoteID, title, resultJSON string
		sequence                        int
		date                            sql.NullTime
		audioURL, localPath             sql.NullString
		createdAt, updatedAt            time.Time
		deletedAt                       sql.NullTime
	)

	err := row.Scan(&id, &sequence, &remoteID, &title, &date, &audioURL,
		&localPath, &resultJSON, &createdAt, &updatedAt, &deletedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}

		return nil, fmt.Errorf("failed to scan history entry: %w", err)
	}

	var result models.AnalysisResult
	if err := json.Unmarshal([]byte(resultJSON), &result); err != nil {
		return nil, fmt.Errorf("failed to decode result for %s: %w", remoteID, err)
	}

	if localPath.Valid {
		result.LocalAudioPath = localPath.String
	}

	entry := models.HistoryEntry{
		RemoteID: remoteID,
		Title:    title,
		Result:   result,
		AudioURL: audioURL.String,
	}

	if date.Valid {
		entry.Date = date.Time
	}

	cached := models.NewCachedAnalysis(sequence, entry)
	cached.SetID(id)
	cached.SetCreatedAt(createdAt)
	cached.SetUpdatedAt(updatedAt)

	if deletedAt.Valid {
		t := deletedAt.Time
		cached.SetDeletedAt(&t)
	}

	return cached, nil
}
