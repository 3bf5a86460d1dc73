package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/drivemig/internal/models"
	"github.com/desertthunder/drivemig/internal/shared"
)

// RunRepository implements models.Repository[*models.Run] for run records.
//
// Handles run CRUD operations with soft delete support and status-based queries.
type RunRepository struct {
	db *sql.DB
}

// NewRunRepository creates a new RunRepository with the given database connection
func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Create inserts a new run into the database with generated ID and sequence
func (r *RunRepository) Create(run *models.Run) error {
	sequence, err := NextSequence(r.db, "runs")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	if run.RunID == "" {
		run.RunID = shared.GenerateID()
	}
	run.Sequence = int64(sequence)

	now := time.Now().UTC()
	run.CreatedAt = now
	run.UpdatedAt = now

	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO runs (
			id, sequence, source_account, target_account, status,
			tasks_total, tasks_done, tasks_failed, error_message,
			started_at, completed_at, created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		run.RunID,
		run.Sequence,
		run.SourceAccount,
		run.TargetAccount,
		run.Status,
		run.TasksTotal,
		run.TasksDone,
		run.TasksFailed,
		nullable(run.ErrorMessage),
		nullTime(run.StartedAt),
		nullTime(run.CompletedAt),
		run.CreatedAt,
		run.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	return nil
}

// Get retrieves a run by ID, excluding soft-deleted runs
func (r *RunRepository) Get(id string) (*models.Run, error) {
	query := `
		SELECT
			id, sequence, source_account, target_account, status,
			tasks_total, tasks_done, tasks_failed, error_message,
			started_at, completed_at, created_at, updated_at
		FROM runs
		WHERE id = ? AND deleted_at IS NULL
	`

	return scanRun(r.db.QueryRow(query, id))
}

// Update modifies an existing run in the database
func (r *RunRepository) Update(run *models.Run) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now().UTC()
	run.UpdatedAt = now

	query := `
		UPDATE runs
		SET status = ?, tasks_total = ?, tasks_done = ?, tasks_failed = ?,
			error_message = ?, started_at = ?, completed_at = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query,
		run.Status,
		run.TasksTotal,
		run.TasksDone,
		run.TasksFailed,
		nullable(run.ErrorMessage),
		nullTime(run.StartedAt),
		nullTime(run.CompletedAt),
		now,
		run.RunID,
	)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("run not found or already deleted: %s", run.RunID)
	}

	return nil
}

// Delete soft-deletes a run by ID
func (r *RunRepository) Delete(id string) error {
	query := `
		UPDATE runs
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("run not found or already deleted: %s", id)
	}

	return nil
}

// List retrieves all runs matching the given criteria, excluding soft-deleted
// runs, newest first
func (r *RunRepository) List(criteria map[string]any) ([]*models.Run, error) {
	query := `
		SELECT
			id, sequence, source_account, target_account, status,
			tasks_total, tasks_done, tasks_failed, error_message,
			started_at, completed_at, created_at, updated_at
		FROM runs
		WHERE deleted_at IS NULL
	`

	args := []any{}

	if sourceAccount, ok := criteria["source_account"].(string); ok && sourceAccount != "" {
		query += " AND source_account = ?"
		args = append(args, sourceAccount)
	}

	if targetAccount, ok := criteria["target_account"].(string); ok && targetAccount != "" {
		query += " AND target_account = ?"
		args = append(args, targetAccount)
	}

	if status, ok := criteria["status"].(string); ok && status != "" {
		query += " AND status = ?"
		args = append(args, status)
	}

	query += " ORDER BY sequence DESC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.Run
	for rows.Next() {
		run, err := scanRunRow(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

func scanRun(row *sql.Row) (*models.Run, error) {
	run, err := scanRunFrom(row.Scan)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run not found")
	}
	return run, err
}

func scanRunRow(rows *sql.Rows) (*models.Run, error) {
	return scanRunFrom(rows.Scan)
}

func scanRunFrom(scan func(dest ...any) error) (*models.Run, error) {
	var (
		run          models.Run
		errorMessage sql.NullString
		startedAt    sql.NullTime
		completedAt  sql.NullTime
	)

	err := scan(
		&run.RunID,
		&run.Sequence,
		&run.SourceAccount,
		&run.TargetAccount,
		&run.Status,
		&run.TasksTotal,
		&run.TasksDone,
		&run.TasksFailed,
		&errorMessage,
		&startedAt,
		&completedAt,
		&run.CreatedAt,
		&run.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	run.ErrorMessage = errorMessage.String
	run.StartedAt = startedAt.Time
	run.CompletedAt = completedAt.Time

	return &run, nil
}

// nullTime maps a zero time to NULL for insert and update parameters.
func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
