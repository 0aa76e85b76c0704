package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/arborview/timetable-api/internal/models"
)

// RunRepository persists generation run records and run history.
type RunRepository struct {
	db *sqlx.DB
}

// NewRunRepository creates a new run repository.
func NewRunRepository(db *sqlx.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Create inserts a new run record.
func (r *RunRepository) Create(ctx context.Context, run *models.GenerationRun) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO generation_runs (id, schedule_id, status, algorithm, score, hard_violations,
			simulation, initiated_by, report, error, started_at, finished_at)
		VALUES (:id, :schedule_id, :status, :algorithm, :score, :hard_violations,
			:simulation, :initiated_by, :report, :error, :started_at, :finished_at)`, run)
	return err
}

// Update overwrites the mutable fields of a run record.
func (r *RunRepository) Update(ctx context.Context, run *models.GenerationRun) error {
	_, err := r.db.NamedExecContext(ctx, `
		UPDATE generation_runs SET
			schedule_id = :schedule_id,
			status = :status,
			score = :score,
			hard_violations = :hard_violations,
			report = :report,
			error = :error,
			finished_at = :finished_at
		WHERE id = :id`, run)
	return err
}

// Get returns one run by id.
func (r *RunRepository) Get(ctx context.Context, id string) (*models.GenerationRun, error) {
	var run models.GenerationRun
	if err := r.db.GetContext(ctx, &run, `
		SELECT id, schedule_id, status, algorithm, score, hard_violations,
			simulation, initiated_by, report, error, started_at, finished_at
		FROM generation_runs WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &run, nil
}

// History returns completed and failed runs, newest first, with the total
// count for pagination.
func (r *RunRepository) History(ctx context.Context, page, pageSize int) ([]models.GenerationRun, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM generation_runs`); err != nil {
		return nil, 0, err
	}

	var runs []models.GenerationRun
	if err := r.db.SelectContext(ctx, &runs, `
		SELECT id, schedule_id, status, algorithm, score, hard_violations,
			simulation, initiated_by, report, error, started_at, finished_at
		FROM generation_runs
		ORDER BY started_at DESC
		LIMIT $1 OFFSET $2`, pageSize, offset); err != nil {
		return nil, 0, err
	}
	return runs, total, nil
}

// HealthTrend returns the score trajectory of the most recent completed
// runs, oldest first so clients can plot it directly.
func (r *RunRepository) HealthTrend(ctx context.Context, limit int) ([]models.HealthPoint, error) {
	if limit <= 0 || limit > 365 {
		limit = 30
	}
	var points []models.HealthPoint
	if err := r.db.SelectContext(ctx, &points, `
		SELECT run_id, score, hard_violations, finished_at FROM (
			SELECT id AS run_id, score, hard_violations, finished_at
			FROM generation_runs
			WHERE status = 'COMPLETED' AND finished_at IS NOT NULL
			ORDER BY finished_at DESC
			LIMIT $1
		) recent ORDER BY finished_at ASC`, limit); err != nil {
		return nil, err
	}
	return points, nil
}
