package repositories

import (
	"database/sql"

	"github.com/desertthunder/drivemig/internal/models"
)

// Store bundles the run and task repositories behind the executor's ledger
// surface.
type Store struct {
	Runs  *RunRepository
	Tasks *TaskRepository
}

// NewStore creates a Store over one database connection.
func NewStore(db *sql.DB) *Store {
	return &Store{
		Runs:  NewRunRepository(db),
		Tasks: NewTaskRepository(db),
	}
}

func (s *Store) CreateRun(run *models.Run) error {
	return s.Runs.Create(run)
}

func (s *Store) UpdateRun(run *models.Run) error {
	return s.Runs.Update(run)
}

func (s *Store) CreateTaskRecord(record *models.TaskRecord) error {
	return s.Tasks.Create(record)
}

func (s *Store) Correspondences(sourceAccount, targetAccount string) ([]models.Correspondence, error) {
	return s.Tasks.Correspondences(sourceAccount, targetAccount)
}
