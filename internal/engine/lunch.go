package engine

import (
	"fmt"
	"sort"

	"github.com/arborview/timetable-api/internal/models"
)

// LunchClass identifies the class a group of students attends during the
// lunch period. Students without a concurrent class fall back to grade
// grouping.
type LunchClass struct {
	RoomNumber string
	CourseName string
	StudentIDs []string
}

// BuildLunchCohorts groups the given room-based classes and the remaining
// free-period students (grouped by grade) into named cohorts. Cohort names
// encode room and course ("Room 101 - Algebra I") or grade ("Grade 9").
func BuildLunchCohorts(classes []LunchClass, freeByGrade map[string][]string) []models.LunchCohort {
	cohorts := make([]models.LunchCohort, 0, len(classes)+len(freeByGrade))
	for _, class := range classes {
		if len(class.StudentIDs) == 0 {
			continue
		}
		name := fmt.Sprintf("Room %s - %s", class.RoomNumber, class.CourseName)
		cohorts = append(cohorts, models.NewLunchCohort(name, class.StudentIDs))
	}

	grades := make([]string, 0, len(freeByGrade))
	for grade := range freeByGrade {
		grades = append(grades, grade)
	}
	sort.Strings(grades)
	for _, grade := range grades {
		students := freeByGrade[grade]
		if len(students) == 0 {
			continue
		}
		name := fmt.Sprintf("Grade %s - Free Period", grade)
		cohorts = append(cohorts, models.NewLunchCohort(name, students))
	}
	return cohorts
}

// PackLunchWaves distributes cohorts into waveCount capacity-bounded waves.
// Greedy bin-packing: cohorts descending by size, each placed in the wave
// with the most remaining capacity whose dominant zone matches the cohort's
// zone when possible, otherwise the wave with most remaining capacity.
func PackLunchWaves(cohorts []models.LunchCohort, waveCount, waveCapacity int) []models.LunchWave {
	if waveCount <= 0 {
		waveCount = 1
	}
	waves := make([]models.LunchWave, waveCount)
	for i := range waves {
		waves[i] = models.LunchWave{Number: i + 1, MaxCapacity: waveCapacity}
	}

	sorted := make([]models.LunchCohort, len(cohorts))
	copy(sorted, cohorts)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Size() > sorted[j].Size()
	})

	for _, cohort := range sorted {
		target := -1
		if cohort.RoomBased() {
			best := -1
			for i := range waves {
				if waves[i].RemainingCapacity() < cohort.Size() {
					continue
				}
				if waves[i].DominantZone() != cohort.RoomZone {
					continue
				}
				if best == -1 || waves[i].RemainingCapacity() > waves[best].RemainingCapacity() {
					best = i
				}
			}
			target = best
		}
		if target == -1 {
			for i := range waves {
				if waves[i].RemainingCapacity() < cohort.Size() {
					continue
				}
				if target == -1 || waves[i].RemainingCapacity() > waves[target].RemainingCapacity() {
					target = i
				}
			}
		}
		if target == -1 {
			// Every wave is over capacity; overflow into the least-loaded
			// wave rather than dropping students from lunch.
			target = 0
			for i := range waves {
				if waves[i].TotalSize < waves[target].TotalSize {
					target = i
				}
			}
		}
		waves[target].Cohorts = append(waves[target].Cohorts, cohort)
		waves[target].TotalSize += cohort.Size()
	}
	return waves
}

// BuildWaveWindows splits the lunch window into waveCount evenly-spaced
// seatings and stamps the start/end minutes onto the waves.
func BuildWaveWindows(waves []models.LunchWave, lunchStart, lunchDuration int) []models.LunchWave {
	if len(waves) == 0 || lunchDuration <= 0 {
		return waves
	}
	per := lunchDuration / len(waves)
	for i := range waves {
		waves[i].StartMinute = lunchStart + i*per
		waves[i].EndMinute = waves[i].StartMinute + per
	}
	return waves
}
