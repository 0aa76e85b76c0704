package engine

import (
	"math/rand"
	"runtime"
	"sort"
	"sync"

	"github.com/arborview/timetable-api/internal/models"
)

type individual struct {
	schedule *models.Schedule
	score    ScoreBreakdown
	scored   bool
}

// genetic evolves a population of schedule variants. Fitness evaluation is
// the dominant cost, so each generation scores unscored individuals in
// parallel over deep copies that never share slot storage.
func (r *runState) genetic(initial *models.Schedule, populationSize int) *OptimizeResult {
	const (
		eliteFraction   = 0.1
		mutationRate    = 0.3
		tournamentSize  = 3
		mutationsPerKid = 2
	)

	workers := r.parallel
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	population := make([]individual, populationSize)
	population[0] = individual{schedule: initial.Clone()}
	for i := 1; i < populationSize; i++ {
		variant := initial.Clone()
		for m := 0; m < 3; m++ {
			r.problem.RandomMove(variant, r.rng)
		}
		population[i] = individual{schedule: variant}
	}
	r.scorePopulation(population, workers)
	sortByFitness(population)

	eliteCount := int(float64(populationSize) * eliteFraction)
	if eliteCount < 1 {
		eliteCount = 1
	}

	generation := 0
	for generation < r.maxIter && !r.expired() {
		generation++
		next := make([]individual, 0, populationSize)
		for i := 0; i < eliteCount; i++ {
			next = append(next, individual{
				schedule: population[i].schedule,
				score:    population[i].score,
				scored:   true,
			})
		}
		for len(next) < populationSize {
			a := r.tournament(population, tournamentSize)
			b := r.tournament(population, tournamentSize)
			child := crossover(a.schedule, b.schedule, r.rng)
			if r.rng.Float64() < mutationRate {
				for m := 0; m < mutationsPerKid; m++ {
					r.problem.RandomMove(child, r.rng)
				}
			}
			next = append(next, individual{schedule: child})
		}
		r.scorePopulation(next, workers)
		sortByFitness(next)
		population = next
		if generation%10 == 0 {
			r.reportIteration(generation, "genetic evolution")
		}
	}

	best := population[0]
	return &OptimizeResult{Schedule: best.schedule, Breakdown: best.score, Iterations: generation}
}

// scorePopulation evaluates unscored individuals across a worker pool.
func (r *runState) scorePopulation(population []individual, workers int) {
	var pending []int
	for i := range population {
		if !population[i].scored {
			pending = append(pending, i)
		}
	}
	if len(pending) == 0 {
		return
	}
	if workers > len(pending) {
		workers = len(pending)
	}

	var wg sync.WaitGroup
	work := make(chan int)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range work {
				population[idx].score = r.problem.Scorer.Score(population[idx].schedule)
				population[idx].scored = true
			}
		}()
	}
	for _, idx := range pending {
		work <- idx
	}
	close(work)
	wg.Wait()
}

func sortByFitness(population []individual) {
	sort.SliceStable(population, func(i, j int) bool {
		return population[i].score.BetterThan(population[j].score)
	})
}

// tournament picks the fittest of k random individuals.
func (r *runState) tournament(population []individual, k int) individual {
	best := population[r.rng.Intn(len(population))]
	for i := 1; i < k; i++ {
		contender := population[r.rng.Intn(len(population))]
		if contender.score.BetterThan(best.score) {
			best = contender
		}
	}
	return best
}

// crossover splices two parents at a random slot index. Moves mutate slot
// fields in place without reordering, so slot i refers to the same course
// meeting in every individual descended from the same initial schedule.
func crossover(a, b *models.Schedule, rng *rand.Rand) *models.Schedule {
	child := a.Clone()
	if len(child.Slots) != len(b.Slots) || len(child.Slots) < 2 {
		return child
	}
	cut := 1 + rng.Intn(len(child.Slots)-1)
	for i := cut; i < len(child.Slots); i++ {
		child.Slots[i] = b.Slots[i].Clone()
	}
	return child
}
