package tasks

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/drivemig/internal/classify"
	"github.com/desertthunder/drivemig/internal/drive"
	"github.com/desertthunder/drivemig/internal/match"
	"github.com/desertthunder/drivemig/internal/models"
	"github.com/desertthunder/drivemig/internal/plan"
	"github.com/desertthunder/drivemig/internal/shared"
	"github.com/desertthunder/drivemig/internal/snapshot"
	"golang.org/x/time/rate"
)

// Ledger is the persistence surface the engine needs: run bookkeeping, one
// record per processed task, and the correspondence set from prior runs.
type Ledger interface {
	CreateRun(run *models.Run) error
	UpdateRun(run *models.Run) error
	CreateTaskRecord(record *models.TaskRecord) error
	Correspondences(sourceAccount, targetAccount string) ([]models.Correspondence, error)
}

// PlanResult bundles a built plan with the pipeline state the executor
// needs to run it.
type PlanResult struct {
	Plan       *plan.Plan
	Matcher    *match.Matcher
	SourceTree *snapshot.Tree
	TargetTree *snapshot.Tree
}

// PlanOpts controls plan construction.
type PlanOpts struct {
	// ConfirmDelete enables delete-original tasks. The config switch must
	// also be on; either alone plans no deletes.
	ConfirmDelete bool
}

// Engine drives the migration pipeline for one source/target account pair.
type Engine struct {
	source  drive.Service
	target  drive.Service
	ledger  Ledger
	config  *shared.Config
	limiter *rate.Limiter
	logger  *log.Logger
}

// NewEngine creates an engine. The rate limiter is shared by every worker,
// an account-wide request budget rather than a per-worker one.
func NewEngine(source, target drive.Service, ledger Ledger, config *shared.Config, logger *log.Logger) *Engine {
	rateLimit := config.Executor.RateLimit
	if rateLimit <= 0 {
		rateLimit = 5.0
	}

	return &Engine{
		source:  source,
		target:  target,
		ledger:  ledger,
		config:  config,
		limiter: rate.NewLimiter(rate.Limit(rateLimit), 1),
		logger:  logger,
	}
}

// BuildPlan runs the read-only half of the pipeline: snapshot both accounts,
// match against the persisted ledger, classify, and order into a plan.
func (e *Engine) BuildPlan(ctx context.Context, progress chan<- ProgressUpdate, opts PlanOpts) (*PlanResult, error) {
	e.sendProgress(progress, snapshotSourceUpdate())

	sourceSnap, err := snapshot.Build(ctx, e.source, e.config.Accounts.Source.RootID, e.logger)
	if err != nil {
		return nil, fmt.Errorf("source snapshot failed: %w", err)
	}
	sourceTree, err := snapshot.NewTree(sourceSnap)
	if err != nil {
		return nil, fmt.Errorf("source hierarchy invalid: %w", err)
	}

	e.sendProgress(progress, snapshotTargetUpdate(sourceSnap.Len()))

	targetSnap, err := snapshot.Build(ctx, e.target, e.config.Accounts.Target.RootID, e.logger)
	if err != nil {
		return nil, fmt.Errorf("target snapshot failed: %w", err)
	}
	targetTree, err := snapshot.NewTree(targetSnap)
	if err != nil {
		return nil, fmt.Errorf("target hierarchy invalid: %w", err)
	}

	recorded, err := e.ledger.Correspondences(e.config.Accounts.Source.AccountID, e.config.Accounts.Target.AccountID)
	if err != nil {
		return nil, fmt.Errorf("failed to load recorded correspondences: %w", err)
	}

	matcher, err := match.NewMatcher(sourceTree, targetTree, recorded)
	if err != nil {
		return nil, fmt.Errorf("matching failed: %w", err)
	}
	e.sendProgress(progress, matchUpdate(len(matcher.Pairs())))

	decisions := classify.Classify(sourceTree, models.Principal(e.config.Accounts.Source.AccountID), matcher, classify.Options{
		CopyFiles:   e.config.Actions.CopyFiles,
		CopyFolders: e.config.Actions.CopyFolders,
	})

	built, err := plan.Build(sourceTree, decisions, matcher, plan.Options{
		DeleteOriginals: e.config.Actions.DeleteOriginals && opts.ConfirmDelete,
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("plan built",
		"entries", sourceSnap.Len(),
		"copy", built.Counts[models.ActionCopy],
		"relink", built.Counts[models.ActionRelink],
		"skip", built.Counts[models.ActionSkip],
		"review", built.Counts[models.ActionReview],
		"delete", built.Counts[models.ActionDelete])
	e.sendProgress(progress, planBuiltUpdate(len(built.Tasks)))

	return &PlanResult{
		Plan:       built,
		Matcher:    matcher,
		SourceTree: sourceTree,
		TargetTree: targetTree,
	}, nil
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *Engine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}
