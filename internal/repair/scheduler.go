package repair

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/uv-repair/internal/mesh"
)

// Outcome is the result of one repair task. Exactly one of Resolution and Err is set.
type Outcome struct {
	Anomaly    mesh.Anomaly
	Resolution *Resolution
	Err        error
	Duration   time.Duration
}

// Results holds the merged output of a scheduler run.
type Results struct {
	// Replacements maps corrupted texture lines to their replacement text.
	Replacements map[int]string
	// Outcomes has one entry per scheduled anomaly, ordered by line.
	Outcomes []Outcome
}

// Repaired returns the number of anomalies that received a replacement.
func (r *Results) Repaired() int {
	return len(r.Replacements)
}

// SchedulerOptions configures parallel repair.
type SchedulerOptions struct {
	// Workers bounds concurrent tasks; zero means runtime.NumCPU().
	Workers int
	// TaskTimeout bounds each task; zero means no timeout.
	TaskTimeout time.Duration
	Logger      *zap.Logger
}

// Scheduler runs one resolver task per anomaly over a shared read-only index.
type Scheduler struct {
	resolver    *Resolver
	workers     int
	taskTimeout time.Duration
	logger      *zap.Logger
}

// NewScheduler creates a Scheduler around resolver.
func NewScheduler(resolver *Resolver, opts SchedulerOptions) *Scheduler {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		resolver:    resolver,
		workers:     workers,
		taskTimeout: opts.TaskTimeout,
		logger:      logger,
	}
}

// Run resolves every anomaly and waits for all tasks before returning.
//
// A task that fails only loses its own anomaly; the error is logged and recorded
// in the outcome. Run returns an error only when ctx itself is cancelled, and
// even then the results gathered so far are returned.
func (s *Scheduler) Run(ctx context.Context, idx *mesh.Index, anomalies []mesh.Anomaly) (*Results, error) {
	results := &Results{
		Replacements: make(map[int]string, len(anomalies)),
		Outcomes:     make([]Outcome, 0, len(anomalies)),
	}
	var mu sync.Mutex // Protects results

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for _, a := range anomalies {
		a := a
		g.Go(func() error {
			outcome := s.runTask(gCtx, idx, a)

			mu.Lock()
			defer mu.Unlock()
			results.Outcomes = append(results.Outcomes, outcome)
			if outcome.Err == nil {
				results.Replacements[a.Line] = outcome.Resolution.Replacement
			}
			return nil
		})
	}

	// Tasks never return errors, so Wait only acts as the barrier
	_ = g.Wait()

	sort.Slice(results.Outcomes, func(i, j int) bool {
		return results.Outcomes[i].Anomaly.Line < results.Outcomes[j].Anomaly.Line
	})

	if err := ctx.Err(); err != nil {
		return results, err
	}
	return results, nil
}

func (s *Scheduler) runTask(ctx context.Context, idx *mesh.Index, a mesh.Anomaly) (outcome Outcome) {
	start := time.Now()
	outcome.Anomaly = a

	defer func() {
		if r := recover(); r != nil {
			outcome.Resolution = nil
			outcome.Err = &Error{Message: fmt.Sprintf("task for line %d panicked", a.Line), Cause: fmt.Errorf("%v", r)}
		}
		outcome.Duration = time.Since(start)
		s.logOutcome(outcome)
	}()

	if s.taskTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.taskTimeout)
		defer cancel()
	}

	res, err := s.resolver.Resolve(ctx, a, idx)
	if err != nil {
		outcome.Err = err
		return outcome
	}
	outcome.Resolution = res
	return outcome
}

func (s *Scheduler) logOutcome(o Outcome) {
	if o.Err != nil {
		s.logger.Warn("Anomaly left unrepaired",
			zap.Int("line", o.Anomaly.Line),
			zap.Int("face_line", o.Anomaly.Group.FaceLine),
			zap.Duration("elapsed", o.Duration),
			zap.Error(o.Err))
		return
	}
	r := o.Resolution
	s.logger.Info("Repaired anomaly",
		zap.Int("line", r.Line),
		zap.Int("face_line", r.FaceLine),
		zap.Int("source_line", r.SourceLine),
		zap.Float64("threshold", r.Threshold),
		zap.Float64("position_distance", r.PositionDistance),
		zap.Float64("texture_distance", r.TextureDistance),
		zap.Int("cycles", r.Cycles),
		zap.Duration("elapsed", o.Duration))
}
