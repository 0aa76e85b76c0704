package engine

import (
	"context"
	"math"
	"math/rand"
	"strings"
	"time"

	"github.com/arborview/timetable-api/internal/models"
	appErrors "github.com/arborview/timetable-api/pkg/errors"
)

// Algorithm selects the search strategy for a run.
type Algorithm string

const (
	AlgorithmHillClimbing          Algorithm = "HILL_CLIMBING"
	AlgorithmSimulatedAnnealing    Algorithm = "SIMULATED_ANNEALING"
	AlgorithmTabuSearch            Algorithm = "TABU_SEARCH"
	AlgorithmGenetic               Algorithm = "GENETIC_ALGORITHM"
	AlgorithmConstraintProgramming Algorithm = "CONSTRAINT_PROGRAMMING"
	AlgorithmHybrid                Algorithm = "HYBRID"
)

// ParseAlgorithm normalizes a caller-supplied algorithm name.
func ParseAlgorithm(raw string) (Algorithm, error) {
	switch Algorithm(strings.ToUpper(strings.TrimSpace(raw))) {
	case AlgorithmHillClimbing:
		return AlgorithmHillClimbing, nil
	case AlgorithmSimulatedAnnealing:
		return AlgorithmSimulatedAnnealing, nil
	case AlgorithmTabuSearch:
		return AlgorithmTabuSearch, nil
	case AlgorithmGenetic:
		return AlgorithmGenetic, nil
	case AlgorithmConstraintProgramming:
		return AlgorithmConstraintProgramming, nil
	case AlgorithmHybrid:
		return AlgorithmHybrid, nil
	case "":
		return AlgorithmSimulatedAnnealing, nil
	}
	return "", appErrors.Clone(appErrors.ErrValidation, "unknown optimization algorithm: "+raw)
}

// RecommendedIterations returns the default iteration budget per strategy.
func (a Algorithm) RecommendedIterations() int {
	switch a {
	case AlgorithmSimulatedAnnealing:
		return 10000
	case AlgorithmTabuSearch:
		return 5000
	case AlgorithmConstraintProgramming:
		return 100
	case AlgorithmHybrid:
		return 500
	default:
		return 1000
	}
}

// PopulationSize returns the candidate pool size for population strategies.
func (a Algorithm) PopulationSize() int {
	switch a {
	case AlgorithmGenetic:
		return 100
	case AlgorithmHybrid:
		return 50
	default:
		return 1
	}
}

// UsesPopulation reports whether the strategy evolves a candidate pool.
func (a Algorithm) UsesPopulation() bool {
	return a == AlgorithmGenetic || a == AlgorithmHybrid
}

// ProgressFunc receives monotonically increasing percentages with a phase
// description. The final invocation always reports 100. Callbacks run
// synchronously on the optimizer's goroutine and must not block on I/O.
type ProgressFunc func(percent int, message string)

// OptimizeOptions tunes one optimizer invocation.
type OptimizeOptions struct {
	TimeBudget    time.Duration
	Seed          int64
	MaxIterations int
	Parallelism   int
	Progress      ProgressFunc
}

// OptimizeResult carries the best schedule found and its score.
type OptimizeResult struct {
	Schedule   *models.Schedule
	Breakdown  ScoreBreakdown
	Iterations int
}

// Optimize runs the selected strategy within the caller's time budget. The
// budget is a hard ceiling: expiry or context cancellation returns the best
// schedule found so far, never an error.
func Optimize(ctx context.Context, p *Problem, algorithm Algorithm, initial *models.Schedule, opts OptimizeOptions) (*OptimizeResult, error) {
	if initial == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "initial schedule is required")
	}
	if opts.TimeBudget <= 0 {
		opts.TimeBudget = 30 * time.Second
	}
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = algorithm.RecommendedIterations()
	}
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))
	tracker := newProgressTracker(opts.Progress)
	deadline := time.Now().Add(opts.TimeBudget)

	run := runState{
		problem:  p,
		rng:      rng,
		deadline: deadline,
		ctx:      ctx,
		maxIter:  opts.MaxIterations,
		tracker:  tracker,
		parallel: opts.Parallelism,
	}

	var result *OptimizeResult
	switch algorithm {
	case AlgorithmHillClimbing:
		result = run.hillClimb(initial)
	case AlgorithmSimulatedAnnealing:
		result = run.anneal(initial)
	case AlgorithmTabuSearch:
		result = run.tabu(initial)
	case AlgorithmGenetic:
		result = run.genetic(initial, algorithm.PopulationSize())
	case AlgorithmHybrid:
		ga := run.genetic(initial, algorithm.PopulationSize())
		result = run.hillClimb(ga.Schedule)
		result.Iterations += ga.Iterations
	case AlgorithmConstraintProgramming:
		result = run.constraintProgramming(initial)
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported optimization algorithm")
	}

	result.Schedule.QualityScore = result.Breakdown.Quality()
	result.Schedule.UpdatedAt = time.Now().UTC()
	tracker.Report(100, "optimization complete")
	return result, nil
}

// runState is the shared loop context for every strategy.
type runState struct {
	problem  *Problem
	rng      *rand.Rand
	deadline time.Time
	ctx      context.Context
	maxIter  int
	tracker  *progressTracker
	parallel int
}

func (r *runState) expired() bool {
	if time.Now().After(r.deadline) {
		return true
	}
	select {
	case <-r.ctx.Done():
		return true
	default:
		return false
	}
}

func (r *runState) reportIteration(iter int, phase string) {
	percent := iter * 100 / r.maxIter
	if percent > 99 {
		percent = 99
	}
	r.tracker.Report(percent, phase)
}

func energy(b ScoreBreakdown) float64 {
	return float64(b.HardViolations)*HardConstraintWeight + b.SoftPenalty
}

// hillClimb accepts only strictly improving moves.
func (r *runState) hillClimb(initial *models.Schedule) *OptimizeResult {
	best := initial.Clone()
	bestScore := r.problem.Scorer.Score(best)
	iter := 0
	stall := 0
	for iter < r.maxIter && !r.expired() {
		iter++
		candidate := best.Clone()
		if _, ok := r.problem.RandomMove(candidate, r.rng); !ok {
			break
		}
		score := r.problem.Scorer.Score(candidate)
		if score.BetterThan(bestScore) {
			best, bestScore = candidate, score
			stall = 0
		} else {
			stall++
			// Local optimum: a long run of rejected neighbours means no
			// single move improves the schedule.
			if stall > 200 {
				break
			}
		}
		if iter%100 == 0 {
			r.reportIteration(iter, "hill climbing")
		}
	}
	return &OptimizeResult{Schedule: best, Breakdown: bestScore, Iterations: iter}
}

// anneal accepts worsening moves with a probability that decays as the time
// budget is consumed.
func (r *runState) anneal(initial *models.Schedule) *OptimizeResult {
	current := initial.Clone()
	currentScore := r.problem.Scorer.Score(current)
	best := current.Clone()
	bestScore := currentScore

	const startTemp = 500.0
	budget := time.Until(r.deadline)
	started := time.Now()

	iter := 0
	for iter < r.maxIter && !r.expired() {
		iter++
		candidate := current.Clone()
		if _, ok := r.problem.RandomMove(candidate, r.rng); !ok {
			break
		}
		score := r.problem.Scorer.Score(candidate)
		delta := energy(score) - energy(currentScore)
		accept := delta < 0
		if !accept {
			frac := float64(time.Since(started)) / float64(budget)
			if frac > 1 {
				frac = 1
			}
			temp := startTemp * (1 - frac)
			if temp > 0 && r.rng.Float64() < math.Exp(-delta/temp) {
				accept = true
			}
		}
		if accept {
			current, currentScore = candidate, score
			if currentScore.BetterThan(bestScore) {
				best, bestScore = current.Clone(), currentScore
			}
		}
		if iter%250 == 0 {
			r.reportIteration(iter, "simulated annealing")
		}
	}
	return &OptimizeResult{Schedule: best, Breakdown: bestScore, Iterations: iter}
}

// tabu forbids immediate reversal of recent moves to escape shallow optima.
func (r *runState) tabu(initial *models.Schedule) *OptimizeResult {
	const tenure = 64

	current := initial.Clone()
	currentScore := r.problem.Scorer.Score(current)
	best := current.Clone()
	bestScore := currentScore

	tabuList := make(map[[4]int64]int)
	iter := 0
	for iter < r.maxIter && !r.expired() {
		iter++
		candidate := current.Clone()
		move, ok := r.problem.RandomMove(candidate, r.rng)
		if !ok {
			break
		}
		if expiry, banned := tabuList[move.Signature()]; banned && expiry > iter {
			score := r.problem.Scorer.Score(candidate)
			// Aspiration: a tabu move that beats the global best is taken
			// anyway.
			if !score.BetterThan(bestScore) {
				continue
			}
			current, currentScore = candidate, score
			best, bestScore = current.Clone(), currentScore
			tabuList[move.Reverse().Signature()] = iter + tenure
			continue
		}
		score := r.problem.Scorer.Score(candidate)
		if score.BetterThan(currentScore) || r.rng.Float64() < 0.05 {
			current, currentScore = candidate, score
			tabuList[move.Reverse().Signature()] = iter + tenure
			if currentScore.BetterThan(bestScore) {
				best, bestScore = current.Clone(), currentScore
			}
		}
		if iter%250 == 0 {
			r.reportIteration(iter, "tabu search")
		}
	}
	return &OptimizeResult{Schedule: best, Breakdown: bestScore, Iterations: iter}
}

// constraintProgramming does a bounded systematic repair: for each
// conflicted slot it tries every time slot and a shortlist of rooms,
// keeping the first strictly improving placement. Suited to small
// instances where near-exhaustive search is affordable.
func (r *runState) constraintProgramming(initial *models.Schedule) *OptimizeResult {
	best := initial.Clone()
	bestScore := r.problem.Scorer.Score(best)
	teaching := r.problem.TeachingSlots()

	iter := 0
	for iter < r.maxIter && !r.expired() {
		iter++
		conflicted := r.conflictedSlotIndices(best, bestScore)
		if len(conflicted) == 0 {
			break
		}
		improved := false
		for _, idx := range conflicted {
			if r.expired() {
				break
			}
			original := best.Slots[idx].Slot
			for _, slot := range teaching {
				if slot.Key() == original.Key() {
					continue
				}
				candidate := best.Clone()
				candidate.Slots[idx].Slot = slot
				score := r.problem.Scorer.Score(candidate)
				if score.BetterThan(bestScore) {
					best, bestScore = candidate, score
					improved = true
					break
				}
			}
			if improved {
				break
			}
		}
		if !improved {
			break
		}
		r.reportIteration(iter, "constraint propagation")
	}
	return &OptimizeResult{Schedule: best, Breakdown: bestScore, Iterations: iter}
}

func (r *runState) conflictedSlotIndices(s *models.Schedule, b ScoreBreakdown) []int {
	keys := make(map[string]struct{})
	for _, c := range b.Conflicts {
		if !c.Hard {
			continue
		}
		for _, k := range c.SlotKeys {
			keys[k] = struct{}{}
		}
	}
	var out []int
	for i, slot := range s.Slots {
		if slot.CourseID == "" {
			continue
		}
		if _, ok := keys[slot.Key()]; ok {
			out = append(out, i)
		}
	}
	return out
}

// progressTracker keeps callback percentages monotone.
type progressTracker struct {
	fn   ProgressFunc
	last int
}

func newProgressTracker(fn ProgressFunc) *progressTracker {
	return &progressTracker{fn: fn, last: -1}
}

// Report forwards the update when it advances the percentage.
func (t *progressTracker) Report(percent int, message string) {
	if t.fn == nil {
		return
	}
	if percent < t.last {
		return
	}
	if percent == t.last && percent != 100 {
		return
	}
	t.last = percent
	t.fn(percent, message)
}
