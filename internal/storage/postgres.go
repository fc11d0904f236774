package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/defectlens/defectlens-go/internal/models"
)

// PostgresStore implements run storage on PostgreSQL, for teams sharing one
// extraction database.
type PostgresStore struct {
	db     *sqlx.DB
	logger *logrus.Logger
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore connects to the database at dsn.
func NewPostgresStore(dsn string, logger *logrus.Logger) (*PostgresStore, error) {
	if logger == nil {
		logger = logrus.New()
	}

	db, err := sqlx.Connect("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	store := &PostgresStore{
		db:     db,
		logger: logger,
	}

	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return store, nil
}

func (s *PostgresStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		repository TEXT NOT NULL,
		records INTEGER NOT NULL,
		defects INTEGER NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	);

	CREATE TABLE IF NOT EXISTS change_records (
		run_id TEXT NOT NULL REFERENCES runs(id),
		position INTEGER NOT NULL,
		repository TEXT NOT NULL,
		timestamp BIGINT NOT NULL,
		commit_id TEXT NOT NULL,
		file TEXT NOT NULL,
		lines_added INTEGER NOT NULL,
		lines_deleted INTEGER NOT NULL,
		author TEXT NOT NULL,
		is_defect BOOLEAN NOT NULL,
		PRIMARY KEY (run_id, position)
	);

	CREATE INDEX IF NOT EXISTS idx_records_commit ON change_records(run_id, commit_id);
	CREATE INDEX IF NOT EXISTS idx_runs_repository ON runs(repository);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

const pgInsertRecord = `
	INSERT INTO change_records
	(run_id, position, repository, timestamp, commit_id, file,
	 lines_added, lines_deleted, author, is_defect)
	VALUES (:run_id, :position, :repository, :timestamp, :commit_id, :file,
	 :lines_added, :lines_deleted, :author, :is_defect)
	ON CONFLICT (run_id, position) DO NOTHING
`

func (s *PostgresStore) SaveRun(ctx context.Context, repository string, records []*models.ChangeRecord) (*Run, error) {
	run := &Run{
		ID:         uuid.New().String(),
		Repository: repository,
		Records:    len(records),
		Defects:    countDefects(records),
		CreatedAt:  time.Now().UTC(),
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.NamedExecContext(ctx, `
		INSERT INTO runs (id, repository, records, defects, created_at)
		VALUES (:id, :repository, :records, :defects, :created_at)
		ON CONFLICT (id) DO NOTHING
	`, run)
	if err != nil {
		return nil, fmt.Errorf("save run: %w", err)
	}

	for i, rec := range records {
		row := recordRow{RunID: run.ID, Position: i, ChangeRecord: *rec}
		if _, err := tx.NamedExecContext(ctx, pgInsertRecord, row); err != nil {
			return nil, fmt.Errorf("save record %d: %w", i, err)
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

func (s *PostgresStore) GetRun(ctx context.Context, id string) (*Run, error) {
	var run Run
	query := `SELECT * FROM runs WHERE id = $1`

	err := s.db.GetContext(ctx, &run, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get run: %w", err)
	}

	return &run, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, repository string, limit int) ([]*Run, error) {
	query := `SELECT * FROM runs`
	args := []interface{}{}

	if repository != "" {
		args = append(args, repository)
		query += fmt.Sprintf(" WHERE repository = $%d", len(args))
	}
	query += " ORDER BY created_at DESC"
	if limit > 0 {
		args = append(args, limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	var runs []*Run
	if err := s.db.SelectContext(ctx, &runs, query, args...); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

func (s *PostgresStore) GetRecords(ctx context.Context, runID string) ([]*models.ChangeRecord, error) {
	if _, err := s.GetRun(ctx, runID); err != nil {
		return nil, err
	}

	var records []*models.ChangeRecord
	query := `SELECT ` + recordColumns + ` FROM change_records WHERE run_id = $1 ORDER BY position`

	if err := s.db.SelectContext(ctx, &records, query, runID); err != nil {
		return nil, fmt.Errorf("get records: %w", err)
	}
	return records, nil
}

func (s *PostgresStore) GetRecordsByCommits(ctx context.Context, runID string, commitIDs []string) ([]*models.ChangeRecord, error) {
	if _, err := s.GetRun(ctx, runID); err != nil {
		return nil, err
	}
	if len(commitIDs) == 0 {
		return nil, nil
	}

	var records []*models.ChangeRecord
	query := `SELECT ` + recordColumns + ` FROM change_records
		WHERE run_id = $1 AND commit_id = ANY($2) ORDER BY position`

	if err := s.db.SelectContext(ctx, &records, query, runID, pq.Array(commitIDs)); err != nil {
		return nil, fmt.Errorf("get records by commits: %w", err)
	}
	return records, nil
}
