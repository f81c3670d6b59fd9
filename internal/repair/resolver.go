package repair

import (
	"context"
	"fmt"

	"github.com/jonathan/uv-repair/internal/mesh"
	"github.com/jonathan/uv-repair/internal/ranking"
)

const (
	// DefaultInitialThreshold is the texture-space distance a candidate must stay
	// within, against every sibling, on the first pass over the candidates.
	DefaultInitialThreshold = 0.25
	// DefaultThresholdStep is added to the threshold each time the candidates run out.
	DefaultThresholdStep = 0.05
)

// Options controls the relaxation loop. Zero caps mean the loop is unbounded.
type Options struct {
	InitialThreshold float64
	ThresholdStep    float64
	// MaxThreshold stops the loop once the threshold would exceed it.
	MaxThreshold float64
	// MaxCycles stops the loop after this many full passes over the candidates.
	MaxCycles int
}

// DefaultOptions returns the unbounded 0.25 / +0.05 relaxation schedule.
func DefaultOptions() Options {
	return Options{
		InitialThreshold: DefaultInitialThreshold,
		ThresholdStep:    DefaultThresholdStep,
	}
}

func (o Options) withDefaults() Options {
	if o.InitialThreshold <= 0 {
		o.InitialThreshold = DefaultInitialThreshold
	}
	if o.ThresholdStep <= 0 {
		o.ThresholdStep = DefaultThresholdStep
	}
	return o
}

// ThresholdAt returns the threshold in effect after the given number of exhausted
// cycles. It is computed from the cycle count rather than accumulated so that
// thresholds stay exact multiples of the step.
func (o Options) ThresholdAt(cycles int) float64 {
	return o.InitialThreshold + float64(cycles)*o.ThresholdStep
}

// Resolution is an accepted repair for one anomaly.
type Resolution struct {
	Line        int // corrupted texture line
	FaceLine    int
	Replacement string // texture record text copied from the source pair
	SourceLine  int    // texture line the replacement came from
	SourceFace  int
	Threshold   float64
	Cycles      int
	// PositionDistance is the model-space distance to the source vertex.
	PositionDistance float64
	// TextureDistance is the largest texture-space distance to a sibling.
	TextureDistance float64
	CandidatesTried int
}

// Resolver runs the threshold relaxation loop for single anomalies.
// It holds no per-anomaly state and may be shared across goroutines.
type Resolver struct {
	opts Options
}

// NewResolver creates a Resolver; unset thresholds fall back to the defaults.
func NewResolver(opts Options) *Resolver {
	return &Resolver{opts: opts.withDefaults()}
}

// Options returns the effective options.
func (r *Resolver) Options() Options {
	return r.opts
}

// Resolve finds a replacement texture record for a.
//
// Candidates are all valid pairs in idx ordered by distance from the anomaly's
// position. The first candidate whose texture vector is within the threshold of
// every sibling's texture vector is accepted. When the candidates run out the
// threshold is raised by one step and the walk starts over from the nearest
// candidate. Without caps this only stops once a candidate is accepted or ctx is done.
func (r *Resolver) Resolve(ctx context.Context, a mesh.Anomaly, idx *mesh.Index) (*Resolution, error) {
	pair := a.Pair()
	if pair.Err != nil {
		return nil, &ResolveError{Line: a.Line, Message: "corrupted vertex has an unreadable position", Cause: pair.Err}
	}

	siblings := a.Siblings()
	for i := range siblings {
		if siblings[i].Err != nil {
			return nil, &ResolveError{
				Line:    a.Line,
				Message: fmt.Sprintf("sibling at line %d is unreadable", siblings[i].TextureLine),
				Cause:   siblings[i].Err,
			}
		}
	}

	candidates := ranking.RankCandidates(pair.Position, idx)

	res, err := r.relax(ctx, candidates, siblings)
	if err != nil {
		return nil, &ResolveError{Line: a.Line, Message: "relaxation stopped", Cause: err}
	}

	res.Line = a.Line
	res.FaceLine = a.Group.FaceLine
	return res, nil
}

// relax walks candidates, relaxing the threshold after each full pass.
func (r *Resolver) relax(ctx context.Context, candidates []ranking.Candidate, siblings []mesh.AttributePair) (*Resolution, error) {
	cycles := 0
	threshold := r.opts.ThresholdAt(cycles)
	cursor := 0
	tried := 0

	for {
		if cursor == len(candidates) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			cycles++
			if r.opts.MaxCycles > 0 && cycles >= r.opts.MaxCycles {
				return nil, fmt.Errorf("%w after %d cycles (threshold %.2f)", ErrUnresolved, cycles, threshold)
			}
			next := r.opts.ThresholdAt(cycles)
			if r.opts.MaxThreshold > 0 && next > r.opts.MaxThreshold+1e-9 {
				return nil, fmt.Errorf("%w below threshold %.2f", ErrUnresolved, threshold)
			}
			threshold = next
			cursor = 0
			continue
		}

		c := candidates[cursor]
		cursor++
		tried++

		worst, ok := compatible(c.Pair.Texture, siblings, threshold)
		if !ok {
			continue
		}

		return &Resolution{
			Replacement:      c.Pair.TextureText,
			SourceLine:       c.Pair.TextureLine,
			SourceFace:       c.FaceLine,
			Threshold:        threshold,
			Cycles:           cycles,
			PositionDistance: c.Distance,
			TextureDistance:  worst,
			CandidatesTried:  tried,
		}, nil
	}
}

// compatible reports whether proposed is within threshold of every sibling and
// returns the largest sibling distance seen. No siblings is trivially compatible.
func compatible(proposed mesh.TextureVector, siblings []mesh.AttributePair, threshold float64) (float64, bool) {
	worst := 0.0
	for i := range siblings {
		d, ok := proposed.Distance(siblings[i].Texture)
		if !ok || !(d <= threshold) {
			return d, false
		}
		if d > worst {
			worst = d
		}
	}
	return worst, true
}
