package simulation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"zone-signal-lab/internal/dedup"
	"zone-signal-lab/internal/domain"
	"zone-signal-lab/internal/idhash"
	"zone-signal-lab/internal/logger"
	"zone-signal-lab/internal/lookup"
	"zone-signal-lab/internal/metrics"
	"zone-signal-lab/internal/observability"
	"zone-signal-lab/internal/outcome"
	"zone-signal-lab/internal/params"
	"zone-signal-lab/internal/publish"
	"zone-signal-lab/internal/storage"
)

// DefaultLockTTL bounds how long a crashed run keeps its identity locked.
const DefaultLockTTL = 10 * time.Minute

// Runner evaluates run requests against stored bars and persists the results.
type Runner struct {
	barStore     storage.BarStore
	runStore     storage.RunStore
	summaryStore storage.SummaryStore
	locker       dedup.Locker
	publisher    publish.Publisher
	normalizer   *params.Normalizer
	resolver     *outcome.Resolver
	metrics      *observability.Metrics
	log          *logger.Logger
	lockTTL      time.Duration
	now          func() time.Time
}

// RunnerOptions contains configuration for creating a Runner.
// BarStore and RunStore are required by Run; everything else is optional.
type RunnerOptions struct {
	BarStore     storage.BarStore
	RunStore     storage.RunStore
	SummaryStore storage.SummaryStore // nil skips summary persistence
	Locker       dedup.Locker         // nil never contends
	Publisher    publish.Publisher    // nil skips publishing
	Normalizer   *params.Normalizer   // nil uses default unit sizes
	Resolver     *outcome.Resolver    // nil resolves target-first
	Metrics      *observability.Metrics
	Logger       *logger.Logger
	LockTTL      time.Duration // Default: 10m
	Clock        func() time.Time
}

// RunResult is what Run returns.
type RunResult struct {
	ExecutionID string
	Run         *domain.RunRecord
	Outcomes    []*domain.OutcomeRecord
	Summary     *domain.RunSummary

	// Evaluation is nil when Reused is set.
	Evaluation *Evaluation
	Reused     bool
}

// NewRunner creates a simulation runner.
func NewRunner(opts RunnerOptions) *Runner {
	r := &Runner{
		barStore:     opts.BarStore,
		runStore:     opts.RunStore,
		summaryStore: opts.SummaryStore,
		locker:       opts.Locker,
		publisher:    opts.Publisher,
		normalizer:   opts.Normalizer,
		resolver:     opts.Resolver,
		metrics:      opts.Metrics,
		log:          opts.Logger,
		lockTTL:      opts.LockTTL,
		now:          opts.Clock,
	}
	if r.locker == nil {
		r.locker = dedup.NopLocker{}
	}
	if r.log == nil {
		r.log = logger.Nop()
	}
	if r.normalizer == nil {
		r.normalizer = params.NewNormalizer(params.WithLogger(r.log))
	}
	if r.resolver == nil {
		r.resolver = outcome.NewResolver(outcome.TargetFirst)
	}
	if r.lockTTL == 0 {
		r.lockTTL = DefaultLockTTL
	}
	if r.now == nil {
		r.now = time.Now
	}
	return r
}

// Run evaluates req once per run identity.
// Steps:
//  1. Build descriptor and identity
//  2. Return the stored run if the identity already exists
//  3. Acquire the run lock (ErrRunInProgress if held elsewhere)
//  4. Load bars for the window
//  5. Evaluate
//  6. Persist run + outcomes atomically, then the summary
//  7. Publish (failure is logged, persistence already committed)
//  8. Record metrics, release lock
func (r *Runner) Run(ctx context.Context, req RunRequest) (*RunResult, error) {
	start := r.now()
	execID := uuid.NewString()
	log := r.log.With(logger.String("execution_id", execID), logger.String("strategy", req.StrategyID))

	result, err := r.run(ctx, req, execID, log)

	status := "success"
	switch {
	case err != nil:
		status = "error"
		log.Error("run failed", logger.Error(err))
	case result.Reused:
		status = "reused"
	}
	if r.metrics != nil {
		stats := observability.RunStats{
			Strategy:        req.StrategyID,
			Status:          status,
			DurationSeconds: r.now().Sub(start).Seconds(),
		}
		if result != nil && result.Evaluation != nil {
			stats.Bars = result.Evaluation.BarCount
			stats.Fallback = result.Evaluation.Identity.Fallback
		}
		r.metrics.RecordRun(stats, float64(r.now().Unix()))
	}

	return result, err
}

func (r *Runner) run(ctx context.Context, req RunRequest, execID string, log *logger.Logger) (*RunResult, error) {
	// 1. Build descriptor and identity
	desc, err := r.Describe(req)
	if err != nil {
		return nil, err
	}
	identity := idhash.ComputeRunID(desc)
	runID := identity.ID
	log = log.With(logger.String("run_id", runID))
	if identity.Fallback {
		log.Warn("run identity computed from fallback canonical form")
	}

	// 2. Idempotency
	res, err := r.reuse(ctx, runID, execID)
	if err == nil {
		log.Info("run already stored")
		return res, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	// 3. Run lock
	locked, err := r.locker.TryLock(ctx, runID, r.lockTTL)
	if err != nil {
		return nil, fmt.Errorf("lock run %s: %w", runID, err)
	}
	if !locked {
		if r.metrics != nil {
			r.metrics.RecordLockContention()
		}
		return nil, fmt.Errorf("%w: %s", ErrRunInProgress, runID)
	}
	defer func() {
		if err := r.locker.Unlock(context.WithoutCancel(ctx), runID); err != nil {
			log.Warn("release run lock", logger.Error(err))
		}
	}()

	// 4. Load bars
	from, to, err := desc.Window.Bounds()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	bars, err := r.barStore.GetByTimeRange(ctx, desc.Instrument, desc.Timeframe, from, to)
	if err != nil {
		return nil, fmt.Errorf("load bars: %w", err)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: %s %s %s", lookup.ErrNoBarData, desc.Instrument, desc.Timeframe, desc.Window)
	}

	// 5. Evaluate
	eval, err := r.Evaluate(desc, bars)
	if err != nil {
		return nil, err
	}
	r.recordEvaluation(eval)

	// 6. Persist
	run := &domain.RunRecord{
		RunID:            runID,
		Descriptor:       desc,
		IdentityFallback: eval.Identity.Fallback,
		BarCount:         eval.BarCount,
		SignalCount:      len(eval.Signals),
		OutcomeCount:     len(eval.Outcomes),
		CreatedAtMs:      r.now().UnixMilli(),
	}
	if err := r.runStore.Insert(ctx, run, eval.Outcomes); err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			// Another process finished the same identity without holding our lock.
			return r.reuse(ctx, runID, execID)
		}
		return nil, fmt.Errorf("persist run %s: %w", runID, err)
	}
	if r.summaryStore != nil {
		if err := r.summaryStore.Insert(ctx, eval.Summary); err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
			log.Warn("persist summary", logger.Error(err))
		}
	}

	// 7. Publish
	if r.publisher != nil {
		if err := r.publisher.PublishRun(ctx, run, eval.Outcomes, eval.Summary); err != nil {
			log.Warn("publish run", logger.Error(err))
			if r.metrics != nil {
				r.metrics.RecordPublishError()
			}
		}
	}

	log.Info("run completed",
		logger.Int("bars", eval.BarCount),
		logger.Int("signals", len(eval.Signals)),
		logger.Int("dropped_signals", eval.DroppedSignals),
		logger.Int("skipped_signals", eval.SkippedSignals),
		logger.Int("outcomes", len(eval.Outcomes)),
	)

	return &RunResult{
		ExecutionID: execID,
		Run:         run,
		Outcomes:    eval.Outcomes,
		Summary:     eval.Summary,
		Evaluation:  eval,
	}, nil
}

// reuse loads a stored run. Returns storage.ErrNotFound if absent.
func (r *Runner) reuse(ctx context.Context, runID, execID string) (*RunResult, error) {
	run, err := r.runStore.GetByID(ctx, runID)
	if err != nil {
		return nil, err
	}
	outcomes, err := r.runStore.GetOutcomes(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("load outcomes %s: %w", runID, err)
	}

	summary, err := metrics.NewAggregator(r.runStore, r.summaryStore).Summarize(ctx, runID)
	if err != nil {
		return nil, err
	}

	return &RunResult{
		ExecutionID: execID,
		Run:         run,
		Outcomes:    outcomes,
		Summary:     summary,
		Reused:      true,
	}, nil
}

func (r *Runner) recordEvaluation(eval *Evaluation) {
	if r.metrics == nil {
		return
	}
	s := observability.DetectionStats{
		ZonesCreated:    eval.Stats.ZonesCreated,
		ZonesExpired:    eval.Stats.ZonesExpired,
		ZonesConsumed:   eval.Stats.ZonesConsumed,
		ZonesSkipped:    eval.Stats.ZonesSkipped,
		FilteredTouches: eval.Stats.FilteredTouches,
		Dropped:         eval.DroppedSignals,
	}
	for _, sig := range eval.Signals {
		if sig.Direction == domain.DirectionLong {
			s.Long++
		} else {
			s.Short++
		}
	}
	r.metrics.RecordDetection(s)
	for _, o := range eval.Outcomes {
		r.metrics.RecordOutcome(string(o.Phase), string(o.Result))
	}
}
