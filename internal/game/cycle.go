package game

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ContestedPolicy selects the rule used to flag districts as contested.
type ContestedPolicy string

const (
	// PolicyOnPointClash flags a district when it has at least one
	// pending on-point attack and at least one pending on-point defense.
	// This is the canonical rule.
	PolicyOnPointClash ContestedPolicy = "onpoint-clash"
	// PolicyMultipleClaims additionally flags a district with two or
	// more pending on-point attacks, even without a defense.
	PolicyMultipleClaims ContestedPolicy = "multiple-claims"
)

// Options tunes engine behavior that the game masters may change between
// runs.
type Options struct {
	ContestedPolicy    ContestedPolicy
	AttacksOldestFirst bool
}

// DefaultOptions returns the canonical engine configuration.
func DefaultOptions() Options {
	return Options{
		ContestedPolicy:    PolicyOnPointClash,
		AttacksOldestFirst: true,
	}
}

// CycleContext identifies one orchestrator run. It replaces the implicit
// process-wide cycle timestamp: every phase receives the same context
// value, and its completion time becomes the persisted cycle marker.
type CycleContext struct {
	ID        uuid.UUID
	StartedAt time.Time
}

// NewCycleContext stamps a fresh cycle run.
func NewCycleContext() *CycleContext {
	return &CycleContext{
		ID:        uuid.New(),
		StartedAt: time.Now().UTC(),
	}
}

// Engine is the cycle resolution engine. It runs as a single sequential
// pipeline: no phase overlaps another, and each phase commits its own
// batch of writes. A failure aborts the remainder of the cycle; phases
// already committed stay applied.
type Engine struct {
	store    Store
	notifier Notifier
	news     NewsSink
	rates    *CombatRates
	opts     Options
	log      *zap.Logger
}

// NewEngine wires the engine's collaborators. The notifier and news sink
// may be nil; both degrade to no-ops checked once here rather than
// re-resolved per phase.
func NewEngine(store Store, notifier Notifier, news NewsSink, rates *CombatRates, opts Options, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if notifier == nil {
		logger.Warn("no notifier configured; player notifications disabled")
		notifier = nopNotifier{}
	}
	if news == nil {
		logger.Warn("no news sink configured; audit entries disabled")
		news = nopNewsSink{}
	}
	if opts.ContestedPolicy == "" {
		opts.ContestedPolicy = PolicyOnPointClash
	}
	return &Engine{
		store:    store,
		notifier: notifier,
		news:     news,
		rates:    rates,
		opts:     opts,
		log:      logger,
	}
}

// RunCycle executes one full deterministic pass over all pending actions.
// On success the completion timestamp is persisted as the cycle marker
// consumed by the duel resolver.
func (e *Engine) RunCycle(ctx context.Context) error {
	cc := NewCycleContext()
	e.log.Info("game cycle started",
		zap.String("cycle_id", cc.ID.String()),
		zap.Time("started_at", cc.StartedAt),
	)

	var (
		contested map[int64]bool
		pool      map[int64]int
	)

	steps := []struct {
		name string
		run  func(context.Context) error
	}{
		{"aggregate supports", func(ctx context.Context) error {
			return e.aggregateSupports(ctx)
		}},
		{"detect contested districts", func(ctx context.Context) error {
			var err error
			contested, err = e.detectContested(ctx)
			return err
		}},
		{"build defense pools", func(ctx context.Context) error {
			var err error
			pool, err = e.buildDefensePools(ctx, contested)
			return err
		}},
		{"resolve attacks", func(ctx context.Context) error {
			return e.resolveAttacks(ctx, cc, pool, contested)
		}},
		{"convert leftover defense", func(ctx context.Context) error {
			return e.convertLeftoverDefense(ctx, pool, contested)
		}},
		{"apply politician influence", func(ctx context.Context) error {
			return e.applyPoliticianInfluence(ctx)
		}},
		{"close scouting", func(ctx context.Context) error {
			return e.closeScouting(ctx)
		}},
		{"recalculate resource multipliers", func(ctx context.Context) error {
			return e.recalcResourceMultipliers(ctx)
		}},
		{"grant base resources", func(ctx context.Context) error {
			return e.grantBaseResources(ctx)
		}},
		{"grant district resources", func(ctx context.Context) error {
			return e.grantDistrictResources(ctx, contested)
		}},
		{"refresh action slots", func(ctx context.Context) error {
			return e.refreshActionSlots(ctx, cc)
		}},
	}

	for _, step := range steps {
		if err := e.timed(ctx, step.name, step.run); err != nil {
			return fmt.Errorf("cycle %s aborted: %w", cc.ID, err)
		}
	}

	finished := time.Now().UTC()
	if err := e.store.SetLastCycleFinished(ctx, finished); err != nil {
		return fmt.Errorf("cycle %s: persisting cycle marker: %w", cc.ID, err)
	}

	e.log.Info("game cycle finished",
		zap.String("cycle_id", cc.ID.String()),
		zap.Duration("elapsed", finished.Sub(cc.StartedAt)),
	)
	return nil
}

// timed runs one phase with start/finish logging and duration tracking.
func (e *Engine) timed(ctx context.Context, name string, run func(context.Context) error) error {
	start := time.Now()
	e.log.Info("phase started", zap.String("phase", name))
	if err := run(ctx); err != nil {
		e.log.Error("phase failed",
			zap.String("phase", name),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return err
	}
	e.log.Info("phase finished",
		zap.String("phase", name),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}

// record writes a news entry, logging and swallowing sink failures.
func (e *Engine) record(ctx context.Context, entry NewsEntry) {
	entry.Tag = "auto generated"
	entry.CreatedAt = time.Now().UTC()
	if err := e.news.Record(ctx, entry); err != nil {
		e.log.Warn("failed to record news entry",
			zap.String("title", entry.Title),
			zap.Error(err),
		)
	}
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, int64, string, string) {}

type nopNewsSink struct{}

func (nopNewsSink) Record(context.Context, NewsEntry) error { return nil }
