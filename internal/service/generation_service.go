package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/arborview/timetable-api/internal/dto"
	"github.com/arborview/timetable-api/internal/engine"
	"github.com/arborview/timetable-api/internal/models"
	appErrors "github.com/arborview/timetable-api/pkg/errors"
	"github.com/arborview/timetable-api/pkg/export"
	"github.com/arborview/timetable-api/pkg/jobs"
)

const lastResultCacheKey = "generation:last-result"

type catalogSource interface {
	Teachers(ctx context.Context) ([]models.Teacher, error)
	Certifications(ctx context.Context) ([]models.SubjectCertification, error)
	Rooms(ctx context.Context) ([]models.Room, error)
	Courses(ctx context.Context) ([]models.Course, error)
	Students(ctx context.Context) ([]models.Student, error)
	Enrollments(ctx context.Context) ([]models.Enrollment, error)
	RoomAssignments(ctx context.Context) ([]models.CourseRoomAssignment, error)
	PeriodPreferences(ctx context.Context) ([]models.PeriodPreference, error)
}

type scheduleStore interface {
	Save(ctx context.Context, schedule *models.Schedule) error
	Get(ctx context.Context, id string) (*models.Schedule, error)
	UpdateStatus(ctx context.Context, id string, status models.ScheduleStatus) error
}

type runStore interface {
	Create(ctx context.Context, run *models.GenerationRun) error
	Update(ctx context.Context, run *models.GenerationRun) error
	Get(ctx context.Context, id string) (*models.GenerationRun, error)
	History(ctx context.Context, page, pageSize int) ([]models.GenerationRun, int, error)
	HealthTrend(ctx context.Context, limit int) ([]models.HealthPoint, error)
}

// GenerationConfig governs engine defaults and worker behaviour.
type GenerationConfig struct {
	DefaultAlgorithm  string
	DefaultTimeBudget time.Duration
	MaxTimeBudget     time.Duration
	ResultCacheTTL    time.Duration
	LunchWaves        int
	LunchWaveCapacity int
	Parallelism       int
	QueueSize         int
	Workers           int
	JobTimeout        time.Duration
}

// GenerationService orchestrates the full timetable generation pipeline:
// catalog snapshot, teacher assignment, slot generation, optimization,
// conflict ranking, and persistence of the run report.
type GenerationService struct {
	catalog   catalogSource
	schedules scheduleStore
	runs      runStore
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       GenerationConfig

	slotCache *engine.SlotCache
	queue     *jobs.Queue

	mu       sync.Mutex
	activeID string
	progress map[string]*runProgress
}

type runProgress struct {
	mu      sync.Mutex
	percent int
	message string
}

func (p *runProgress) set(percent int, message string) {
	p.mu.Lock()
	p.percent = percent
	p.message = message
	p.mu.Unlock()
}

func (p *runProgress) get() (int, string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.percent, p.message
}

type generationJob struct {
	run *models.GenerationRun
	req dto.GenerateRequest
}

// NewGenerationService wires generation dependencies.
func NewGenerationService(
	catalog catalogSource,
	schedules scheduleStore,
	runs runStore,
	cache *CacheService,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg GenerationConfig,
) *GenerationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DefaultAlgorithm == "" {
		cfg.DefaultAlgorithm = string(engine.AlgorithmSimulatedAnnealing)
	}
	if cfg.DefaultTimeBudget <= 0 {
		cfg.DefaultTimeBudget = 30 * time.Second
	}
	if cfg.MaxTimeBudget <= 0 {
		cfg.MaxTimeBudget = 10 * time.Minute
	}
	if cfg.LunchWaves <= 0 {
		cfg.LunchWaves = 3
	}
	if cfg.LunchWaveCapacity <= 0 {
		cfg.LunchWaveCapacity = 300
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = cfg.MaxTimeBudget + time.Minute
	}

	s := &GenerationService{
		catalog:   catalog,
		schedules: schedules,
		runs:      runs,
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
		slotCache: engine.NewSlotCache(),
		progress:  make(map[string]*runProgress),
	}
	s.queue = jobs.NewQueue("generation", s.handleJob, jobs.QueueConfig{
		Workers:    cfg.Workers,
		BufferSize: cfg.QueueSize,
		MaxRetries: 1,
		Logger:     logger,
	})
	return s
}

// StartWorkers launches the background queue for async runs.
func (s *GenerationService) StartWorkers(ctx context.Context) {
	s.queue.Start(ctx)
}

// StopWorkers drains the background queue.
func (s *GenerationService) StopWorkers() {
	s.queue.Stop()
}

// Generate validates the request and executes one generation run. Async
// requests are queued and acknowledged immediately; synchronous requests
// block until the run finishes and return the full report. Only one run may
// be active at a time.
func (s *GenerationService) Generate(ctx context.Context, req dto.GenerateRequest) (*dto.GenerateResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid generation payload")
	}
	if req.Algorithm == "" {
		req.Algorithm = s.cfg.DefaultAlgorithm
	}
	algorithm, err := engine.ParseAlgorithm(req.Algorithm)
	if err != nil {
		return nil, err
	}
	if req.Type == "" {
		req.Type = string(models.ScheduleTypeTraditional)
	}
	if req.TimeBudgetSeconds <= 0 {
		req.TimeBudgetSeconds = int(s.cfg.DefaultTimeBudget / time.Second)
	}
	if budget := time.Duration(req.TimeBudgetSeconds) * time.Second; budget > s.cfg.MaxTimeBudget {
		req.TimeBudgetSeconds = int(s.cfg.MaxTimeBudget / time.Second)
	}
	if req.LunchWaves <= 0 {
		req.LunchWaves = s.cfg.LunchWaves
	}
	if req.LunchWaveCapacity <= 0 {
		req.LunchWaveCapacity = s.cfg.LunchWaveCapacity
	}
	if _, err := engine.GenerateTimeSlots(req.SchoolDay.SchoolDayConfig()); err != nil {
		return nil, err
	}

	run := &models.GenerationRun{
		ID:         uuid.NewString(),
		Status:     models.RunStatusRunning,
		Algorithm:  string(algorithm),
		Simulation: req.Simulation,
		StartedAt:  time.Now().UTC(),
	}
	if req.InitiatedBy != "" {
		run.InitiatedBy = &req.InitiatedBy
	}
	if req.Async {
		run.Status = models.RunStatusQueued
	}

	if !s.acquire(run.ID) {
		return nil, appErrors.ErrRunInProgress
	}
	if err := s.runs.Create(ctx, run); err != nil {
		s.release(run.ID)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record generation run")
	}

	if req.Async {
		if err := s.queue.Enqueue(jobs.Job{ID: run.ID, Type: "generation", Payload: generationJob{run: run, req: req}}); err != nil {
			s.release(run.ID)
			s.failRun(context.Background(), run, err)
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to queue generation run")
		}
		return &dto.GenerateResponse{RunID: run.ID, Status: models.RunStatusQueued}, nil
	}

	report, err := s.execute(ctx, run, req)
	if err != nil {
		return nil, err
	}
	return &dto.GenerateResponse{
		RunID:      run.ID,
		Status:     models.RunStatusCompleted,
		ScheduleID: report.ScheduleID,
		Report:     report,
	}, nil
}

func (s *GenerationService) handleJob(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(generationJob)
	if !ok {
		return fmt.Errorf("unexpected payload type for job %s", job.ID)
	}
	runCtx, cancel := context.WithTimeout(ctx, s.cfg.JobTimeout)
	defer cancel()
	// Failures are recorded on the run itself; retrying a failed run
	// would race with newer runs for the single-flight lock.
	if _, err := s.execute(runCtx, payload.run, payload.req); err != nil {
		s.logger.Error("async generation run failed", zap.String("run_id", job.ID), zap.Error(err))
	}
	return nil
}

func (s *GenerationService) acquire(runID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.activeID != "" {
		return false
	}
	s.activeID = runID
	s.progress[runID] = &runProgress{}
	return true
}

func (s *GenerationService) release(runID string) {
	s.mu.Lock()
	if s.activeID == runID {
		s.activeID = ""
	}
	delete(s.progress, runID)
	s.mu.Unlock()
}

func (s *GenerationService) runProgressFor(runID string) *runProgress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progress[runID]
}

// execute runs the full pipeline for an already-created run record. The
// run lock is held on entry and released on return.
func (s *GenerationService) execute(ctx context.Context, run *models.GenerationRun, req dto.GenerateRequest) (*dto.GenerationReport, error) {
	defer s.release(run.ID)
	start := time.Now().UTC()

	tracker := s.runProgressFor(run.ID)
	progress := func(percent int, message string) {
		if tracker != nil {
			tracker.set(percent, message)
		}
	}
	progress(0, "loading catalog")

	run.Status = models.RunStatusRunning
	if err := s.runs.Update(ctx, run); err != nil {
		s.logger.Warn("failed to mark run as running", zap.String("run_id", run.ID), zap.Error(err))
	}

	input, err := s.loadCatalog(ctx)
	if err != nil {
		return nil, s.failRun(ctx, run, err)
	}
	snapshot, err := engine.NewSnapshot(input)
	if err != nil {
		return nil, s.failRun(ctx, run, err)
	}

	result := &models.AssignmentResult{
		RunID:       run.ID,
		StartTime:   start,
		InitiatedBy: req.InitiatedBy,
		Simulation:  req.Simulation,
	}

	progress(5, "assigning teachers")
	assigner := engine.NewTeacherAssigner(s.logger)
	assigner.AssignAll(snapshot, result)

	dayConfig := req.SchoolDay.SchoolDayConfig()
	slots, err := s.slotCache.Get(dayConfig)
	if err != nil {
		return nil, s.failRun(ctx, run, err)
	}

	problem := engine.NewProblem(snapshot, slots)
	initial := problem.BuildInitialSchedule(req.Name, models.ScheduleType(req.Type))

	progress(10, "optimizing")
	optResult, err := engine.Optimize(ctx, problem, engine.Algorithm(run.Algorithm), initial, engine.OptimizeOptions{
		TimeBudget:  time.Duration(req.TimeBudgetSeconds) * time.Second,
		Seed:        req.Seed,
		Parallelism: s.cfg.Parallelism,
		Progress: func(percent int, message string) {
			// Optimization spans the 10-90 band of overall progress.
			progress(10+percent*80/100, message)
		},
	})
	if err != nil {
		return nil, s.failRun(ctx, run, err)
	}
	schedule := optResult.Schedule
	breakdown := optResult.Breakdown

	progress(90, "ranking conflicts")
	scorer := engine.NewScoreEngine(snapshot)
	scorer.ApplyConflictFlags(schedule, breakdown.Conflicts)
	ranker := engine.NewConflictRanker(problem)
	rankings := ranker.Rank(schedule, breakdown)
	suggestions := ranker.SuggestResolutions(schedule, breakdown, 5)
	waves := s.buildLunchWaves(snapshot, schedule, dayConfig, req.LunchWaves, req.LunchWaveCapacity)

	if breakdown.Feasible() {
		schedule.Status = models.ScheduleStatusReview
	} else {
		schedule.Status = models.ScheduleStatusDraft
	}

	s.fillStudentMetrics(snapshot, schedule, result)
	result.HardViolations = breakdown.HardViolations
	result.SoftPenaltyTotal = breakdown.SoftPenalty
	result.QualityScore = breakdown.Quality()
	result.RankedConflicts = rankings
	result.CalculateDerivedMetrics()

	progress(95, "persisting results")
	if !req.Simulation {
		if err := s.schedules.Save(ctx, schedule); err != nil {
			return nil, s.failRun(ctx, run, err)
		}
	}

	report := &dto.GenerationReport{
		RunID:          run.ID,
		Algorithm:      run.Algorithm,
		Simulation:     req.Simulation,
		DurationMs:     result.DurationMs,
		QualityScore:   result.QualityScore,
		HardViolations: result.HardViolations,
		SoftPenalty:    result.SoftPenaltyTotal,
		Feasible:       breakdown.Feasible(),
		SuccessRate:    result.SuccessRate,
		FairnessScore:  result.FairnessScore,
		BalanceScore:   result.BalanceScore,
		CoursesStaffed: result.CoursesAssigned,
		CoursesFailed:  result.CoursesFailed,
		Conflicts:      rankings,
		Suggestions:    suggestions,
		LunchWaves:     waves,
		Issues:         result.Issues,
		Warnings:       result.Warnings,
	}
	if !req.Simulation {
		report.ScheduleID = schedule.ID
		run.ScheduleID = &schedule.ID
	}

	run.Status = models.RunStatusCompleted
	run.Score = result.QualityScore
	run.HardViolations = result.HardViolations
	now := time.Now().UTC()
	run.FinishedAt = &now
	if raw, err := json.Marshal(report); err == nil {
		run.Report = types.JSONText(raw)
	}
	if err := s.runs.Update(ctx, run); err != nil {
		s.logger.Error("failed to finalize generation run", zap.String("run_id", run.ID), zap.Error(err))
	}

	if err := s.cache.Set(ctx, lastResultCacheKey, report, s.cfg.ResultCacheTTL); err != nil {
		s.logger.Warn("failed to cache run report", zap.String("run_id", run.ID), zap.Error(err))
	}

	s.metrics.ObserveGenerationRun(run.Algorithm, string(models.RunStatusCompleted), time.Since(start))
	s.metrics.SetScheduleHealth(result.QualityScore, result.HardViolations)
	progress(100, "completed")

	s.logger.Info("generation run completed",
		zap.String("run_id", run.ID),
		zap.String("algorithm", run.Algorithm),
		zap.Float64("quality", result.QualityScore),
		zap.Int("hard_violations", result.HardViolations),
		zap.Int("iterations", optResult.Iterations),
		zap.Duration("elapsed", time.Since(start)))

	return report, nil
}

func (s *GenerationService) failRun(ctx context.Context, run *models.GenerationRun, cause error) error {
	run.Status = models.RunStatusFailed
	msg := cause.Error()
	run.Error = &msg
	now := time.Now().UTC()
	run.FinishedAt = &now
	if err := s.runs.Update(ctx, run); err != nil {
		s.logger.Error("failed to record run failure", zap.String("run_id", run.ID), zap.Error(err))
	}
	s.metrics.ObserveGenerationRun(run.Algorithm, string(models.RunStatusFailed), time.Since(run.StartedAt))
	s.logger.Error("generation run failed", zap.String("run_id", run.ID), zap.Error(cause))
	var appErr *appErrors.Error
	if errors.As(cause, &appErr) {
		return cause
	}
	return appErrors.Wrap(cause, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "generation run failed")
}

func (s *GenerationService) loadCatalog(ctx context.Context) (engine.CatalogInput, error) {
	var input engine.CatalogInput
	var err error
	if input.Teachers, err = s.catalog.Teachers(ctx); err != nil {
		return input, fmt.Errorf("load teachers: %w", err)
	}
	if input.Certifications, err = s.catalog.Certifications(ctx); err != nil {
		return input, fmt.Errorf("load certifications: %w", err)
	}
	if input.Rooms, err = s.catalog.Rooms(ctx); err != nil {
		return input, fmt.Errorf("load rooms: %w", err)
	}
	if input.Courses, err = s.catalog.Courses(ctx); err != nil {
		return input, fmt.Errorf("load courses: %w", err)
	}
	if input.Students, err = s.catalog.Students(ctx); err != nil {
		return input, fmt.Errorf("load students: %w", err)
	}
	if input.Enrollments, err = s.catalog.Enrollments(ctx); err != nil {
		return input, fmt.Errorf("load enrollments: %w", err)
	}
	if input.RoomAssignments, err = s.catalog.RoomAssignments(ctx); err != nil {
		return input, fmt.Errorf("load room assignments: %w", err)
	}
	prefs, err := s.catalog.PeriodPreferences(ctx)
	if err != nil {
		return input, fmt.Errorf("load period preferences: %w", err)
	}
	input.PreferredPeriods = make(map[string][]int, len(prefs))
	for _, p := range prefs {
		input.PreferredPeriods[p.TeacherID] = append(input.PreferredPeriods[p.TeacherID], p.Period)
	}
	return input, nil
}

// buildLunchWaves groups students by the class they sit in during the
// period immediately before lunch. Students without a pre-lunch class fall
// back to grade-level cohorts.
func (s *GenerationService) buildLunchWaves(snapshot *engine.Snapshot, schedule *models.Schedule, dayConfig models.SchoolDayConfig, waveCount, waveCapacity int) []models.LunchWave {
	if !dayConfig.LunchEnabled {
		return nil
	}

	day := firstScheduledDay(schedule)
	preLunchPeriod := 0
	for _, slot := range schedule.Slots {
		if slot.CourseID == "" || slot.Slot.Day != day {
			continue
		}
		if slot.Slot.EndMinute <= dayConfig.LunchStart && slot.Slot.Period > preLunchPeriod {
			preLunchPeriod = slot.Slot.Period
		}
	}

	var classes []engine.LunchClass
	seated := make(map[string]struct{})
	for _, slot := range schedule.Slots {
		if slot.CourseID == "" || slot.Slot.Day != day || slot.Slot.Period != preLunchPeriod {
			continue
		}
		course, ok := snapshot.Courses[slot.CourseID]
		if !ok {
			continue
		}
		room, ok := snapshot.Rooms[slot.RoomID]
		if !ok {
			continue
		}
		classes = append(classes, engine.LunchClass{
			RoomNumber: room.Number,
			CourseName: course.Name,
			StudentIDs: slot.StudentIDs,
		})
		for _, id := range slot.StudentIDs {
			seated[id] = struct{}{}
		}
	}

	freeByGrade := make(map[string][]string)
	for _, id := range snapshot.StudentIDs {
		if _, ok := seated[id]; ok {
			continue
		}
		student := snapshot.Students[id]
		grade := student.GradeLevel
		if grade == "" {
			grade = "Ungraded"
		}
		freeByGrade[grade] = append(freeByGrade[grade], id)
	}

	cohorts := engine.BuildLunchCohorts(classes, freeByGrade)
	waves := engine.PackLunchWaves(cohorts, waveCount, waveCapacity)
	return engine.BuildWaveWindows(waves, dayConfig.LunchStart, dayConfig.LunchDuration)
}

func firstScheduledDay(schedule *models.Schedule) time.Weekday {
	day := time.Saturday
	found := false
	for _, slot := range schedule.Slots {
		if slot.CourseID == "" {
			continue
		}
		if !found || slot.Slot.Day < day {
			day = slot.Slot.Day
			found = true
		}
	}
	if !found {
		return time.Monday
	}
	return day
}

// fillStudentMetrics computes per-student coverage, choice satisfaction,
// and the fairness and balance scores over the final schedule.
func (s *GenerationService) fillStudentMetrics(snapshot *engine.Snapshot, schedule *models.Schedule, result *models.AssignmentResult) {
	scheduled := make(map[string]struct{})
	for _, slot := range schedule.Slots {
		if slot.CourseID != "" {
			scheduled[slot.CourseID] = struct{}{}
		}
	}

	result.TotalStudentsProcessed = len(snapshot.StudentIDs)
	result.StudentCourses = make(map[string]int, len(snapshot.StudentIDs))
	var coverages []float64
	for _, studentID := range snapshot.StudentIDs {
		wanted := snapshot.CoursesByStudent[studentID]
		got := 0
		bestRank := 0
		for _, courseID := range wanted {
			if _, ok := scheduled[courseID]; !ok {
				continue
			}
			got++
			rank := snapshot.ChoiceRank(studentID, courseID)
			if bestRank == 0 || rank < bestRank {
				bestRank = rank
			}
		}
		result.StudentCourses[studentID] = got
		switch {
		case len(wanted) > 0 && got == len(wanted):
			result.StudentsWithCompleteSchedules++
		case got > 0:
			result.StudentsWithPartialSchedules++
		}
		switch bestRank {
		case 0:
		case 1:
			result.StudentsGotFirstChoice++
		case 2:
			result.StudentsGotSecondChoice++
		default:
			result.StudentsGotThirdChoice++
		}
		if len(wanted) > 0 {
			coverages = append(coverages, float64(got)/float64(len(wanted)))
		}
	}

	result.FairnessScore = 100 - clampTo(stddev(coverages)*100, 100)

	var sizes []float64
	counted := make(map[string]struct{})
	for _, slot := range schedule.Slots {
		if slot.CourseID == "" {
			continue
		}
		if _, dup := counted[slot.CourseID]; dup {
			continue
		}
		counted[slot.CourseID] = struct{}{}
		sizes = append(sizes, float64(len(snapshot.StudentsByCourse[slot.CourseID])))
	}
	result.BalanceScore = 100 - clampTo(stddev(sizes)*10, 100)
}

func stddev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))
	var variance float64
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}
	return math.Sqrt(variance / float64(len(values)))
}

func clampTo(v, max float64) float64 {
	if v > max {
		return max
	}
	return v
}

// RunStatus reports the live progress of an active run, falling back to the
// persisted record for finished runs.
func (s *GenerationService) RunStatus(ctx context.Context, runID string) (*dto.RunStatusResponse, error) {
	if tracker := s.runProgressFor(runID); tracker != nil {
		percent, message := tracker.get()
		return &dto.RunStatusResponse{
			RunID:    runID,
			Status:   models.RunStatusRunning,
			Progress: percent,
			Message:  message,
		}, nil
	}

	run, err := s.runs.Get(ctx, runID)
	if err != nil {
		return nil, err
	}
	resp := &dto.RunStatusResponse{RunID: run.ID, Status: run.Status}
	if run.Status == models.RunStatusCompleted {
		resp.Progress = 100
	}
	if run.ScheduleID != nil {
		resp.ScheduleID = *run.ScheduleID
	}
	if run.Error != nil {
		resp.Error = *run.Error
	}
	return resp, nil
}

// LastResult returns the most recent run report, preferring the cache over
// the persisted run record.
func (s *GenerationService) LastResult(ctx context.Context) (*dto.GenerationReport, error) {
	var cached dto.GenerationReport
	if hit, err := s.cache.Get(ctx, lastResultCacheKey, &cached); err == nil && hit {
		return &cached, nil
	}

	runs, _, err := s.runs.History(ctx, 1, 20)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load run history")
	}
	for _, run := range runs {
		if run.Status != models.RunStatusCompleted || len(run.Report) == 0 {
			continue
		}
		var report dto.GenerationReport
		if err := json.Unmarshal(run.Report, &report); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to decode run report")
		}
		if err := s.cache.Set(ctx, lastResultCacheKey, &report, s.cfg.ResultCacheTTL); err != nil {
			s.logger.Warn("failed to refresh report cache", zap.Error(err))
		}
		return &report, nil
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "no completed generation run found")
}

// History returns a page of past runs, newest first.
func (s *GenerationService) History(ctx context.Context, page, pageSize int) ([]dto.HistoryItem, models.Pagination, error) {
	runs, total, err := s.runs.History(ctx, page, pageSize)
	if err != nil {
		return nil, models.Pagination{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load run history")
	}
	items := make([]dto.HistoryItem, 0, len(runs))
	for _, run := range runs {
		item := dto.HistoryItem{
			RunID:          run.ID,
			Status:         string(run.Status),
			Algorithm:      run.Algorithm,
			Score:          run.Score,
			HardViolations: run.HardViolations,
			Simulation:     run.Simulation,
			StartedAt:      run.StartedAt,
			FinishedAt:     run.FinishedAt,
		}
		if run.ScheduleID != nil {
			item.ScheduleID = *run.ScheduleID
		}
		items = append(items, item)
	}
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	pagination := models.Pagination{
		Page:       page,
		PageSize:   pageSize,
		TotalItems: total,
		TotalPages: (total + pageSize - 1) / pageSize,
	}
	return items, pagination, nil
}

// HealthTrend returns quality scores of recent completed runs, oldest first.
func (s *GenerationService) HealthTrend(ctx context.Context, limit int) ([]models.HealthPoint, error) {
	points, err := s.runs.HealthTrend(ctx, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load health trend")
	}
	return points, nil
}

// Schedule fetches a persisted schedule by id.
func (s *GenerationService) Schedule(ctx context.Context, id string) (*models.Schedule, error) {
	return s.schedules.Get(ctx, id)
}

// LastResultDataset projects the latest run report into tabular export
// content. When the run persisted a schedule the timetable itself is
// exported; simulation runs fall back to the ranked conflicts.
func (s *GenerationService) LastResultDataset(ctx context.Context) (export.Dataset, string, error) {
	report, err := s.LastResult(ctx)
	if err != nil {
		return export.Dataset{}, "", err
	}
	title := fmt.Sprintf("Generation Run %s (%s)", report.RunID, report.Algorithm)

	if report.ScheduleID != "" {
		schedule, err := s.schedules.Get(ctx, report.ScheduleID)
		if err != nil {
			return export.Dataset{}, "", err
		}
		return scheduleDataset(schedule), title, nil
	}
	return conflictDataset(report), title, nil
}

func scheduleDataset(schedule *models.Schedule) export.Dataset {
	slots := make([]models.ScheduleSlot, 0, len(schedule.Slots))
	for _, slot := range schedule.Slots {
		if slot.CourseID == "" {
			continue
		}
		slots = append(slots, slot)
	}
	sort.Slice(slots, func(i, j int) bool {
		if slots[i].Slot.Day != slots[j].Slot.Day {
			return slots[i].Slot.Day < slots[j].Slot.Day
		}
		if slots[i].Slot.Period != slots[j].Slot.Period {
			return slots[i].Slot.Period < slots[j].Slot.Period
		}
		return slots[i].CourseID < slots[j].CourseID
	})

	data := export.Dataset{Headers: []string{"day", "period", "course", "teacher", "room", "students", "conflict"}}
	for _, slot := range slots {
		data.Rows = append(data.Rows, map[string]string{
			"day":      slot.Slot.Day.String(),
			"period":   fmt.Sprintf("%d", slot.Slot.Period),
			"course":   slot.CourseID,
			"teacher":  slot.TeacherID,
			"room":     slot.RoomID,
			"students": fmt.Sprintf("%d", len(slot.StudentIDs)),
			"conflict": fmt.Sprintf("%t", slot.Conflict),
		})
	}
	return data
}

func conflictDataset(report *dto.GenerationReport) export.Dataset {
	data := export.Dataset{Headers: []string{"severity", "type", "description", "priority", "affected"}}
	for _, c := range report.Conflicts {
		data.Rows = append(data.Rows, map[string]string{
			"severity":    string(c.Severity),
			"type":        c.Type,
			"description": c.Description,
			"priority":    fmt.Sprintf("%.1f", c.PriorityScore),
			"affected":    fmt.Sprintf("%d", c.AffectedCount),
		})
	}
	return data
}
