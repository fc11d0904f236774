package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"

	"github.com/defectlens/defectlens-go/internal/models"
)

// SQLiteStore implements run storage on a local SQLite file. It is the
// default backend; nothing has to be provisioned.
type SQLiteStore struct {
	db     *sqlx.DB
	logger *logrus.Logger
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens (or creates) the database at path.
func NewSQLiteStore(path string, logger *logrus.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = logrus.New()
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sqlx.Connect("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("connect to sqlite: %w", err)
	}

	// Enable foreign keys and WAL mode for better concurrency
	db.Exec("PRAGMA foreign_keys = ON")
	db.Exec("PRAGMA journal_mode = WAL")

	store := &SQLiteStore{
		db:     db,
		logger: logger,
	}

	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		repository TEXT NOT NULL,
		records INTEGER NOT NULL,
		defects INTEGER NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS change_records (
		run_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		repository TEXT NOT NULL,
		timestamp INTEGER NOT NULL,
		commit_id TEXT NOT NULL,
		file TEXT NOT NULL,
		lines_added INTEGER NOT NULL,
		lines_deleted INTEGER NOT NULL,
		author TEXT NOT NULL,
		is_defect INTEGER NOT NULL,
		PRIMARY KEY (run_id, position),
		FOREIGN KEY (run_id) REFERENCES runs(id)
	);

	CREATE INDEX IF NOT EXISTS idx_records_commit ON change_records(run_id, commit_id);
	CREATE INDEX IF NOT EXISTS idx_runs_repository ON runs(repository);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// recordRow is a ChangeRecord pinned to its run and emission position.
type recordRow struct {
	RunID    string `db:"run_id"`
	Position int    `db:"position"`
	models.ChangeRecord
}

const sqliteInsertRecord = `
	INSERT OR IGNORE INTO change_records
	(run_id, position, repository, timestamp, commit_id, file,
	 lines_added, lines_deleted, author, is_defect)
	VALUES (:run_id, :position, :repository, :timestamp, :commit_id, :file,
	 :lines_added, :lines_deleted, :author, :is_defect)
`

const recordColumns = `repository, timestamp, commit_id, file,
	lines_added, lines_deleted, author, is_defect`

func (s *SQLiteStore) SaveRun(ctx context.Context, repository string, records []*models.ChangeRecord) (*Run, error) {
	run := &Run{
		ID:         uuid.New().String(),
		Repository: repository,
		Records:    len(records),
		Defects:    countDefects(records),
		CreatedAt:  time.Now().UTC(),
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	_, err = tx.NamedExecContext(ctx, `
		INSERT INTO runs (id, repository, records, defects, created_at)
		VALUES (:id, :repository, :records, :defects, :created_at)
	`, run)
	if err != nil {
		return nil, err
	}

	for i, rec := range records {
		row := recordRow{RunID: run.ID, Position: i, ChangeRecord: *rec}
		if _, err := tx.NamedExecContext(ctx, sqliteInsertRecord, row); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"run":        run.ID,
		"repository": repository,
		"records":    run.Records,
	}).Debug("saved run")

	return run, nil
}

func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*Run, error) {
	var run Run
	query := `SELECT * FROM runs WHERE id = ?`

	err := s.db.GetContext(ctx, &run, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &run, nil
}

func (s *SQLiteStore) ListRuns(ctx context.Context, repository string, limit int) ([]*Run, error) {
	query := `SELECT * FROM runs`
	args := []interface{}{}

	if repository != "" {
		query += ` WHERE repository = ?`
		args = append(args, repository)
	}
	query += ` ORDER BY created_at DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	var runs []*Run
	if err := s.db.SelectContext(ctx, &runs, query, args...); err != nil {
		return nil, err
	}
	return runs, nil
}

func (s *SQLiteStore) GetRecords(ctx context.Context, runID string) ([]*models.ChangeRecord, error) {
	if _, err := s.GetRun(ctx, runID); err != nil {
		return nil, err
	}

	var records []*models.ChangeRecord
	query := `SELECT ` + recordColumns + ` FROM change_records WHERE run_id = ? ORDER BY position`

	if err := s.db.SelectContext(ctx, &records, query, runID); err != nil {
		return nil, err
	}
	return records, nil
}

func (s *SQLiteStore) GetRecordsByCommits(ctx context.Context, runID string, commitIDs []string) ([]*models.ChangeRecord, error) {
	if _, err := s.GetRun(ctx, runID); err != nil {
		return nil, err
	}
	if len(commitIDs) == 0 {
		return nil, nil
	}

	query, args, err := sqlx.In(`SELECT `+recordColumns+` FROM change_records
		WHERE run_id = ? AND commit_id IN (?) ORDER BY position`, runID, commitIDs)
	if err != nil {
		return nil, err
	}
	query = s.db.Rebind(query)

	var records []*models.ChangeRecord
	if err := s.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, err
	}
	return records, nil
}
