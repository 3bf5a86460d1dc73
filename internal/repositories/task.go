package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/drivemig/internal/models"
	"github.com/desertthunder/drivemig/internal/shared"
)

// TaskRepository implements models.Repository[*models.TaskRecord] for the
// per-entry ledger.
//
// Beyond CRUD, it answers the correspondence query that seeds the matcher on
// reruns: which source entries already have a confirmed target counterpart.
type TaskRepository struct {
	db *sql.DB
}

// NewTaskRepository creates a new TaskRepository with the given database connection
func NewTaskRepository(db *sql.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// Create inserts a new task record into the database with generated ID and sequence
func (r *TaskRepository) Create(record *models.TaskRecord) error {
	sequence, err := NextSequence(r.db, "task_records")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	if record.RecordID == "" {
		record.RecordID = shared.GenerateID()
	}
	record.Sequence = int64(sequence)

	now := time.Now().UTC()
	record.CreatedAt = now
	record.UpdatedAt = now

	if err := record.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO task_records (
			id, sequence, run_id, source_id, target_id, name, kind,
			action, status, attempts, error_message, created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		record.RecordID,
		record.Sequence,
		record.RunID,
		record.SourceID,
		nullable(record.TargetID),
		record.Name,
		record.Kind,
		record.Action,
		record.Status,
		record.Attempts,
		nullable(record.ErrorMessage),
		record.CreatedAt,
		record.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert task record: %w", err)
	}

	return nil
}

// Get retrieves a task record by ID, excluding soft-deleted records
func (r *TaskRepository) Get(id string) (*models.TaskRecord, error) {
	query := taskSelect + " WHERE id = ? AND deleted_at IS NULL"

	record, err := scanTaskFrom(r.db.QueryRow(query, id).Scan)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("task record not found")
	}
	return record, err
}

// Update modifies an existing task record in the database
func (r *TaskRepository) Update(record *models.TaskRecord) error {
	if err := record.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now().UTC()
	record.UpdatedAt = now

	query := `
		UPDATE task_records
		SET target_id = ?, status = ?, attempts = ?, error_message = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query,
		nullable(record.TargetID),
		record.Status,
		record.Attempts,
		nullable(record.ErrorMessage),
		now,
		record.RecordID,
	)
	if err != nil {
		return fmt.Errorf("failed to update task record: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("task record not found or already deleted: %s", record.RecordID)
	}

	return nil
}

// Delete soft-deletes a task record by ID
func (r *TaskRepository) Delete(id string) error {
	query := `
		UPDATE task_records
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to delete task record: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("task record not found or already deleted: %s", id)
	}

	return nil
}

// List retrieves all task records matching the given criteria, excluding
// soft-deleted records, in insertion order
func (r *TaskRepository) List(criteria map[string]any) ([]*models.TaskRecord, error) {
	query := taskSelect + " WHERE deleted_at IS NULL"

	args := []any{}

	if runID, ok := criteria["run_id"].(string); ok && runID != "" {
		query += " AND run_id = ?"
		args = append(args, runID)
	}

	if sourceID, ok := criteria["source_id"].(string); ok && sourceID != "" {
		query += " AND source_id = ?"
		args = append(args, sourceID)
	}

	if status, ok := criteria["status"].(string); ok && status != "" {
		query += " AND status = ?"
		args = append(args, status)
	}

	query += " ORDER BY sequence ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query task records: %w", err)
	}
	defer rows.Close()

	var records []*models.TaskRecord
	for rows.Next() {
		record, err := scanTaskFrom(rows.Scan)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	return records, rows.Err()
}

// Correspondences returns the source-to-target pairs confirmed by prior
// runs between the given accounts. The latest record per source entry wins,
// so a delete after a copy does not resurrect the pair.
func (r *TaskRepository) Correspondences(sourceAccount, targetAccount string) ([]models.Correspondence, error) {
	query := `
		SELECT t.source_id, t.target_id, t.action
		FROM task_records t
		JOIN runs r ON r.id = t.run_id
		WHERE t.deleted_at IS NULL
			AND r.deleted_at IS NULL
			AND r.source_account = ?
			AND r.target_account = ?
			AND t.status = ?
		ORDER BY t.sequence ASC
	`

	rows, err := r.db.Query(query, sourceAccount, targetAccount, models.StatusCompleted)
	if err != nil {
		return nil, fmt.Errorf("failed to query correspondences: %w", err)
	}
	defer rows.Close()

	latest := map[string]models.Correspondence{}
	var order []string
	for rows.Next() {
		var (
			sourceID string
			targetID sql.NullString
			action   models.Action
		)
		if err := rows.Scan(&sourceID, &targetID, &action); err != nil {
			return nil, fmt.Errorf("failed to scan correspondence: %w", err)
		}

		switch {
		case action == models.ActionDelete:
			delete(latest, sourceID)
		case action.ProducesTarget() && targetID.Valid && targetID.String != "":
			if _, seen := latest[sourceID]; !seen {
				order = append(order, sourceID)
			}
			latest[sourceID] = models.Correspondence{SourceID: sourceID, TargetID: targetID.String}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	pairs := make([]models.Correspondence, 0, len(latest))
	for _, sourceID := range order {
		if pair, ok := latest[sourceID]; ok {
			pairs = append(pairs, pair)
		}
	}
	return pairs, nil
}

const taskSelect = `
	SELECT
		id, sequence, run_id, source_id, target_id, name, kind,
		action, status, attempts, error_message, created_at, updated_at
	FROM task_records
`

func scanTaskFrom(scan func(dest ...any) error) (*models.TaskRecord, error) {
	var (
		record       models.TaskRecord
		targetID     sql.NullString
		errorMessage sql.NullString
	)

	err := scan(
		&record.RecordID,
		&record.Sequence,
		&record.RunID,
		&record.SourceID,
		&targetID,
		&record.Name,
		&record.Kind,
		&record.Action,
		&record.Status,
		&record.Attempts,
		&errorMessage,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan task record: %w", err)
	}

	record.TargetID = targetID.String
	record.ErrorMessage = errorMessage.String

	return &record, nil
}
