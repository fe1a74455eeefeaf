// Package storage persists uploaded datasets and analysis results in SQLite.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/aether-insight/aether-go/analysis/dataset"
	"github.com/aether-insight/aether-go/utils"
)

// Analysis run kinds.
const (
	RunProfile  = "profile"
	RunQuality  = "quality"
	RunClean    = "clean"
	RunInsights = "insights"
	RunTrain    = "train"
	RunFairness = "fairness"
	RunEthical  = "ethical"
)

// ErrNotFound reports a missing dataset or run.
type ErrNotFound struct {
	Kind string
	ID   string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

// DatasetMeta describes a stored dataset without its contents.
type DatasetMeta struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Rows      int       `json:"rows"`
	Columns   int       `json:"columns"`
	CreatedAt time.Time `json:"created_at"`
}

// RunRecord is one stored analysis result.
type RunRecord struct {
	ID        string          `json:"id"`
	DatasetID string          `json:"dataset_id"`
	Kind      string          `json:"kind"`
	Result    json.RawMessage `json:"result"`
	CreatedAt time.Time       `json:"created_at"`
}

// Store is a SQLite-backed repository for datasets and analysis runs.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (or creates) the database at dbPath and ensures the schema.
func Open(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	s := &Store{db: db, path: dbPath}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	utils.GetLogger().Info("storage opened", utils.Component("storage"),
		utils.String("path", dbPath))
	return s, nil
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS datasets (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		rows INTEGER NOT NULL,
		columns INTEGER NOT NULL,
		payload TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_datasets_created_at ON datasets(created_at);

	CREATE TABLE IF NOT EXISTS analysis_runs (
		id TEXT PRIMARY KEY,
		dataset_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		result TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		FOREIGN KEY (dataset_id) REFERENCES datasets(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_runs_dataset_id ON analysis_runs(dataset_id);
	CREATE INDEX IF NOT EXISTS idx_runs_kind ON analysis_runs(kind);
	`

	_, err := s.db.Exec(schema)
	return err
}

// SaveDataset stores a dataset and returns its metadata with a fresh ID.
func (s *Store) SaveDataset(ctx context.Context, name string, ds *dataset.Dataset) (*DatasetMeta, error) {
	payload, err := json.Marshal(encodeDataset(ds))
	if err != nil {
		return nil, fmt.Errorf("failed to serialize dataset: %w", err)
	}

	meta := &DatasetMeta{
		ID:        uuid.New().String(),
		Name:      name,
		Rows:      ds.NumRows(),
		Columns:   ds.NumCols(),
		CreatedAt: time.Now().UTC(),
	}

	query := `
		INSERT INTO datasets (id, name, rows, columns, payload, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err = s.db.ExecContext(ctx, query,
		meta.ID, meta.Name, meta.Rows, meta.Columns, string(payload), meta.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to save dataset: %w", err)
	}
	return meta, nil
}

// ReplaceDataset overwrites a stored dataset's contents in place, keeping its
// ID. Cleaning writes its output back through this.
func (s *Store) ReplaceDataset(ctx context.Context, id string, ds *dataset.Dataset) error {
	payload, err := json.Marshal(encodeDataset(ds))
	if err != nil {
		return fmt.Errorf("failed to serialize dataset: %w", err)
	}

	query := `UPDATE datasets SET rows = ?, columns = ?, payload = ? WHERE id = ?`
	result, err := s.db.ExecContext(ctx, query, ds.NumRows(), ds.NumCols(), string(payload), id)
	if err != nil {
		return fmt.Errorf("failed to update dataset: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return &ErrNotFound{Kind: "dataset", ID: id}
	}
	return nil
}

// GetDataset loads a stored dataset and its metadata by ID.
func (s *Store) GetDataset(ctx context.Context, id string) (*DatasetMeta, *dataset.Dataset, error) {
	query := `
		SELECT id, name, rows, columns, payload, created_at
		FROM datasets
		WHERE id = ?
	`

	var meta DatasetMeta
	var payload string
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&meta.ID, &meta.Name, &meta.Rows, &meta.Columns, &payload, &meta.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil, &ErrNotFound{Kind: "dataset", ID: id}
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get dataset: %w", err)
	}

	var sd storedDataset
	if err := json.Unmarshal([]byte(payload), &sd); err != nil {
		return nil, nil, fmt.Errorf("failed to deserialize dataset: %w", err)
	}
	ds, err := decodeDataset(sd)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode dataset: %w", err)
	}
	return &meta, ds, nil
}

// ListDatasets returns metadata for all stored datasets, newest first.
func (s *Store) ListDatasets(ctx context.Context) ([]*DatasetMeta, error) {
	query := `
		SELECT id, name, rows, columns, created_at
		FROM datasets
		ORDER BY created_at DESC
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list datasets: %w", err)
	}
	defer rows.Close()

	var metas []*DatasetMeta
	for rows.Next() {
		var meta DatasetMeta
		if err := rows.Scan(&meta.ID, &meta.Name, &meta.Rows, &meta.Columns, &meta.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan dataset: %w", err)
		}
		metas = append(metas, &meta)
	}
	return metas, rows.Err()
}

// DeleteDataset removes a dataset and its analysis runs.
func (s *Store) DeleteDataset(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM datasets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete dataset: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return &ErrNotFound{Kind: "dataset", ID: id}
	}
	_, err = s.db.ExecContext(ctx, `DELETE FROM analysis_runs WHERE dataset_id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete dataset runs: %w", err)
	}
	return nil
}

// SaveRun stores an analysis result for a dataset.
func (s *Store) SaveRun(ctx context.Context, datasetID, kind string, result any) (*RunRecord, error) {
	payload, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize %s result: %w", kind, err)
	}

	record := &RunRecord{
		ID:        uuid.New().String(),
		DatasetID: datasetID,
		Kind:      kind,
		Result:    payload,
		CreatedAt: time.Now().UTC(),
	}

	query := `
		INSERT INTO analysis_runs (id, dataset_id, kind, result, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err = s.db.ExecContext(ctx, query,
		record.ID, record.DatasetID, record.Kind, string(payload), record.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to save run: %w", err)
	}
	return record, nil
}

// GetRun retrieves one analysis run by ID.
func (s *Store) GetRun(ctx context.Context, id string) (*RunRecord, error) {
	query := `
		SELECT id, dataset_id, kind, result, created_at
		FROM analysis_runs
		WHERE id = ?
	`

	var record RunRecord
	var payload string
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&record.ID, &record.DatasetID, &record.Kind, &payload, &record.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, &ErrNotFound{Kind: "run", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	record.Result = json.RawMessage(payload)
	return &record, nil
}

// ListRuns returns a dataset's analysis runs, newest first. An empty kind
// matches every kind.
func (s *Store) ListRuns(ctx context.Context, datasetID, kind string) ([]*RunRecord, error) {
	query := `
		SELECT id, dataset_id, kind, result, created_at
		FROM analysis_runs
		WHERE dataset_id = ? AND (? = '' OR kind = ?)
		ORDER BY created_at DESC
	`

	rows, err := s.db.QueryContext(ctx, query, datasetID, kind, kind)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var records []*RunRecord
	for rows.Next() {
		var record RunRecord
		var payload string
		if err := rows.Scan(&record.ID, &record.DatasetID, &record.Kind, &payload, &record.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		record.Result = json.RawMessage(payload)
		records = append(records, &record)
	}
	return records, rows.Err()
}

// Health checks the database connection.
func (s *Store) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
