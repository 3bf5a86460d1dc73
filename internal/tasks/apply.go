package tasks

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/desertthunder/drivemig/internal/match"
	"github.com/desertthunder/drivemig/internal/models"
	"github.com/desertthunder/drivemig/internal/shared"
)

const baseBackoff = 500 * time.Millisecond

// Outcome is the per-entry result of executing one migration task.
type Outcome struct {
	SourceID string
	Name     string
	Kind     models.Kind
	Action   models.Action
	TargetID string
	Status   models.Status
	Attempts int
	Reason   string
	Err      error
}

// ApplyResult contains the run record and one outcome per planned task, in
// plan order. The report is complete even when tasks failed or dispatch was
// cancelled; undispatched tasks stay pending.
type ApplyResult struct {
	Run      *models.Run
	Outcomes []Outcome
}

// applyState is the coordinator-owned bookkeeping for one apply invocation.
// Workers only touch the matcher, which carries its own lock.
type applyState struct {
	result  *PlanResult
	outcome []Outcome
	blocked map[string]bool
	failed  map[string]bool
	step    int
	total   int
}

type waveResult struct {
	idx      int
	targetID string
	status   models.Status
	attempts int
	err      error
}

// Apply executes a built plan: copy and relink waves top-down, then delete
// waves bottom-up. Every processed task is recorded in the ledger; the run
// record's status reflects whether any task failed. Cancelling ctx stops
// dispatch of further tasks while calls already in flight run to completion,
// so no copy is abandoned half-committed on the remote.
func (e *Engine) Apply(ctx context.Context, progress chan<- ProgressUpdate, pr *PlanResult) (*ApplyResult, error) {
	run := &models.Run{
		SourceAccount: e.config.Accounts.Source.AccountID,
		TargetAccount: e.config.Accounts.Target.AccountID,
		Status:        models.StatusRunning,
		TasksTotal:    len(pr.Plan.Tasks),
		StartedAt:     time.Now().UTC(),
	}
	if err := e.ledger.CreateRun(run); err != nil {
		return nil, fmt.Errorf("failed to create run record: %w", err)
	}

	st := &applyState{
		result:  pr,
		outcome: make([]Outcome, len(pr.Plan.Tasks)),
		blocked: map[string]bool{},
		failed:  map[string]bool{},
		total:   len(pr.Plan.Tasks),
	}
	for i, task := range pr.Plan.Tasks {
		st.outcome[i] = Outcome{
			SourceID: task.SourceID,
			Name:     task.Name,
			Kind:     task.Kind,
			Action:   task.Action,
			TargetID: task.TargetID,
			Status:   models.StatusPending,
			Reason:   task.Reason,
		}
	}

	for _, wave := range waves(pr.Plan.Tasks) {
		if ctx.Err() != nil {
			break
		}
		e.runWave(ctx, run, st, wave, progress)
	}

	run.CompletedAt = time.Now().UTC()
	run.Status = models.StatusCompleted
	if run.TasksFailed > 0 {
		run.Status = models.StatusFailed
	}
	if err := ctx.Err(); err != nil {
		run.Status = models.StatusFailed
		run.ErrorMessage = fmt.Sprintf("interrupted: %v", err)
	}
	if err := e.ledger.UpdateRun(run); err != nil {
		e.logger.Error("failed to finalize run record", "run", run.RunID, "error", err)
	}

	e.sendProgress(progress, runCompleteUpdate(run))
	e.logger.Info("run finished", "run", run.RunID, "status", run.Status,
		"done", run.TasksDone, "failed", run.TasksFailed)

	return &ApplyResult{Run: run, Outcomes: st.outcome}, nil
}

// waves splits the task list into dispatch groups: copy/relink/skip/review
// by depth ascending, then deletes by depth descending. Plan order already
// interleaves correctly; grouping makes the parent-before-child dependency a
// scheduling barrier instead of a hope.
func waves(tasks []models.MigrationTask) [][]int {
	migrate := map[int][]int{}
	deletes := map[int][]int{}
	for i, task := range tasks {
		if task.Action == models.ActionDelete {
			deletes[task.Depth] = append(deletes[task.Depth], i)
		} else {
			migrate[task.Depth] = append(migrate[task.Depth], i)
		}
	}

	var result [][]int
	for _, depth := range sortedKeys(migrate, false) {
		result = append(result, migrate[depth])
	}
	for _, depth := range sortedKeys(deletes, true) {
		result = append(result, deletes[depth])
	}
	return result
}

func sortedKeys(m map[int][]int, descending bool) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	if descending {
		for i, j := 0, len(keys)-1; i < j; i, j = i+1, j-1 {
			keys[i], keys[j] = keys[j], keys[i]
		}
	}
	return keys
}

// runWave executes one dispatch group through the worker pool. Gate checks
// happen here, before dispatch, because they depend only on prior waves.
func (e *Engine) runWave(ctx context.Context, run *models.Run, st *applyState, wave []int, progress chan<- ProgressUpdate) {
	workers := e.config.Executor.Workers
	if workers <= 0 {
		workers = 5
	}
	if workers > 10 {
		workers = 10
	}

	jobs := make(chan int, len(wave))
	results := make(chan waveResult, len(wave))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go e.worker(ctx, &wg, st.result, jobs, results)
	}

	for _, idx := range wave {
		task := st.result.Plan.Tasks[idx]
		if reason, ok := e.gate(st, task); !ok {
			e.record(run, st, waveResult{
				idx:    idx,
				status: models.StatusFailed,
				err:    fmt.Errorf("%s", reason),
			}, progress)
			continue
		}
		jobs <- idx
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	for res := range results {
		e.record(run, st, res, progress)
	}
}

// gate decides whether a task may dispatch given what earlier waves did.
func (e *Engine) gate(st *applyState, task models.MigrationTask) (string, bool) {
	switch task.Action {
	case models.ActionCopy:
		entry, ok := st.result.SourceTree.Entry(task.SourceID)
		if !ok {
			return "source entry missing from snapshot", false
		}
		if _, ok := st.result.Matcher.TargetOf(entry.ParentID); !ok {
			return fmt.Sprintf("parent '%s' was not migrated", entry.ParentID), false
		}
	case models.ActionDelete:
		if _, ok := st.result.Matcher.TargetOf(task.SourceID); !ok {
			return "entry has no confirmed counterpart", false
		}
		if st.blocked[task.SourceID] {
			return "a descendant could not be deleted", false
		}
	}
	return "", true
}

func (e *Engine) worker(ctx context.Context, wg *sync.WaitGroup, pr *PlanResult, jobs <-chan int, results chan<- waveResult) {
	defer wg.Done()

	for idx := range jobs {
		// Tasks still queued when the run is cancelled were never
		// dispatched; they stay pending rather than being marked failed.
		if ctx.Err() != nil {
			continue
		}
		results <- e.execute(ctx, pr, idx)
	}
}

// execute performs the remote work for one task.
func (e *Engine) execute(ctx context.Context, pr *PlanResult, idx int) waveResult {
	task := pr.Plan.Tasks[idx]

	switch task.Action {
	case models.ActionSkip, models.ActionReview:
		return waveResult{idx: idx, status: models.StatusSkipped}

	case models.ActionRelink:
		return waveResult{idx: idx, targetID: task.TargetID, status: models.StatusCompleted}

	case models.ActionCopy:
		return e.executeCopy(ctx, pr, idx, task)

	case models.ActionDelete:
		attempts, err := e.withRetries(ctx, func(callCtx context.Context) error {
			return e.source.Delete(callCtx, task.SourceID)
		})
		if err != nil {
			return waveResult{idx: idx, status: models.StatusFailed, attempts: attempts, err: err}
		}
		return waveResult{idx: idx, status: models.StatusCompleted, attempts: attempts}

	default:
		return waveResult{idx: idx, status: models.StatusFailed,
			err: fmt.Errorf("%w: unknown action '%s'", shared.ErrInvalidInput, task.Action)}
	}
}

func (e *Engine) executeCopy(ctx context.Context, pr *PlanResult, idx int, task models.MigrationTask) waveResult {
	entry, _ := pr.SourceTree.Entry(task.SourceID)
	targetParentID, _ := pr.Matcher.TargetOf(entry.ParentID)
	note := match.BackRef(entry.ID)

	var copied *models.Entry
	attempts, err := e.withRetries(ctx, func(callCtx context.Context) error {
		var callErr error
		if entry.IsFolder() {
			copied, callErr = e.target.CreateFolder(callCtx, entry.Name, targetParentID, note)
		} else {
			copied, callErr = e.target.CreateCopy(callCtx, entry.ID, targetParentID, entry.Name, note)
		}
		return callErr
	})
	if err != nil {
		return waveResult{idx: idx, status: models.StatusFailed, attempts: attempts, err: err}
	}

	if err := pr.Matcher.Register(entry.ID, copied.ID); err != nil {
		return waveResult{idx: idx, status: models.StatusFailed, attempts: attempts,
			err: fmt.Errorf("copy landed but could not be registered: %w", err)}
	}

	if e.config.Actions.KeepSharedPermissions {
		e.carryPermissions(ctx, entry, copied.ID)
	}

	return waveResult{idx: idx, targetID: copied.ID, status: models.StatusCompleted, attempts: attempts}
}

// carryPermissions re-grants non-owner roles from the source entry onto the
// copy. Grant failures degrade to warnings so a permission hiccup does not
// fail an otherwise landed copy.
func (e *Engine) carryPermissions(ctx context.Context, entry *models.Entry, copyID string) {
	for _, permission := range entry.Permissions {
		if permission.Role == models.RoleOwner {
			continue
		}
		if permission.Principal == e.target.AccountID() {
			continue
		}

		p := permission
		_, err := e.withRetries(ctx, func(callCtx context.Context) error {
			return e.target.SetPermission(callCtx, copyID, p.Principal, p.Role)
		})
		if err != nil {
			e.logger.Warn("failed to carry permission onto copy",
				"copy", copyID, "principal", p.Principal, "role", p.Role, "error", err)
		}
	}
}

// record folds one result into the outcome table, the ledger, and the run
// counters. Runs on the coordinator goroutine, so sqlite sees one writer.
func (e *Engine) record(run *models.Run, st *applyState, res waveResult, progress chan<- ProgressUpdate) {
	task := st.result.Plan.Tasks[res.idx]
	st.step++

	out := &st.outcome[res.idx]
	out.Status = res.status
	out.Attempts = res.attempts
	out.Err = res.err
	if res.targetID != "" {
		out.TargetID = res.targetID
	}

	switch res.status {
	case models.StatusFailed:
		run.TasksFailed++
		st.failed[task.SourceID] = true
		if task.Action == models.ActionDelete {
			for _, ancestor := range st.result.SourceTree.AncestorsOf(task.SourceID) {
				st.blocked[ancestor.ID] = true
			}
		}
		e.logger.Error("task failed", "action", task.Action, "source", task.SourceID,
			"name", task.Name, "attempts", res.attempts, "error", res.err)
		e.sendProgress(progress, taskFailedUpdate(st.step, st.total, task, res.err))
	default:
		run.TasksDone++
		e.sendProgress(progress, taskDoneUpdate(st.step, st.total, task))
	}

	record := &models.TaskRecord{
		RunID:    run.RunID,
		SourceID: task.SourceID,
		TargetID: out.TargetID,
		Name:     task.Name,
		Kind:     task.Kind,
		Action:   task.Action,
		Status:   res.status,
		Attempts: res.attempts,
	}
	if res.err != nil {
		record.ErrorMessage = res.err.Error()
	}
	if err := e.ledger.CreateTaskRecord(record); err != nil {
		e.logger.Error("failed to persist task record", "source", task.SourceID, "error", err)
	}
}

// withRetries runs op with the shared rate limiter, a per-call timeout, and
// exponential backoff with jitter on transient failures. Returns the number
// of attempts made. The call context is detached from run cancellation so a
// dispatched remote call always runs to completion under its own timeout;
// cancellation takes effect between attempts, not mid-call.
func (e *Engine) withRetries(ctx context.Context, op func(context.Context) error) (int, error) {
	maxAttempts := e.config.Executor.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 3
	}

	timeout := time.Duration(e.config.Executor.CallTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err = e.limiter.Wait(ctx); err != nil {
			return attempt, err
		}

		callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
		err = op(callCtx)
		cancel()

		if err == nil {
			return attempt, nil
		}
		if !errors.Is(err, shared.ErrRemoteTransient) {
			return attempt, err
		}
		if attempt == maxAttempts {
			break
		}

		backoff := baseBackoff << (attempt - 1)
		backoff += time.Duration(rand.Int63n(int64(backoff / 2)))
		select {
		case <-ctx.Done():
			return attempt, ctx.Err()
		case <-time.After(backoff):
		}
	}

	return maxAttempts, err
}
