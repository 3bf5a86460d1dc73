package testing

import (
	"fmt"
	"sync"

	"github.com/desertthunder/drivemig/internal/models"
)

// MemoryLedger is an in-memory stand-in for the sqlite-backed ledger. It
// satisfies the executor's Ledger interface and replays completed copy and
// relink records as correspondences, the way the real store does.
type MemoryLedger struct {
	mu      sync.Mutex
	nextRun int
	nextRec int
	Runs    []*models.Run
	Records []*models.TaskRecord
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{}
}

func (l *MemoryLedger) CreateRun(run *models.Run) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.nextRun++
	if run.RunID == "" {
		run.RunID = fmt.Sprintf("run-%d", l.nextRun)
	}
	l.Runs = append(l.Runs, run)
	return nil
}

func (l *MemoryLedger) UpdateRun(run *models.Run) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i, existing := range l.Runs {
		if existing.RunID == run.RunID {
			l.Runs[i] = run
			return nil
		}
	}
	return fmt.Errorf("run '%s' not found", run.RunID)
}

func (l *MemoryLedger) CreateTaskRecord(record *models.TaskRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.nextRec++
	if record.RecordID == "" {
		record.RecordID = fmt.Sprintf("rec-%d", l.nextRec)
	}
	l.Records = append(l.Records, record)
	return nil
}

func (l *MemoryLedger) Correspondences(sourceAccount, targetAccount string) ([]models.Correspondence, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var pairs []models.Correspondence
	for _, record := range l.Records {
		if record.Status != models.StatusCompleted || record.TargetID == "" {
			continue
		}
		if !record.Action.ProducesTarget() {
			continue
		}
		pairs = append(pairs, models.Correspondence{SourceID: record.SourceID, TargetID: record.TargetID})
	}
	return pairs, nil
}
