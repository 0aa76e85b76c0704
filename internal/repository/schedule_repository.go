package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/arborview/timetable-api/internal/models"
)

// ScheduleRepository persists generated schedules and their slots.
type ScheduleRepository struct {
	db *sqlx.DB
}

// NewScheduleRepository creates a new schedule repository.
func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// Save writes the schedule header and all slots in one transaction. An
// existing schedule with the same id is replaced wholesale; a failed write
// leaves the previous version untouched.
func (r *ScheduleRepository) Save(ctx context.Context, schedule *models.Schedule) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	meta, err := json.Marshal(map[string]interface{}{"quality_score": schedule.QualityScore})
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	record := models.ScheduleRecord{
		ID:        schedule.ID,
		Name:      schedule.Name,
		Type:      string(schedule.Type),
		Status:    schedule.Status,
		Score:     schedule.QualityScore,
		Meta:      meta,
		CreatedAt: schedule.CreatedAt,
		UpdatedAt: now,
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}

	_, err = tx.NamedExecContext(ctx, `
		INSERT INTO schedules (id, name, type, status, score, meta, created_at, updated_at)
		VALUES (:id, :name, :type, :status, :score, :meta, :created_at, :updated_at)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			type = EXCLUDED.type,
			status = EXCLUDED.status,
			score = EXCLUDED.score,
			meta = EXCLUDED.meta,
			updated_at = EXCLUDED.updated_at`, record)
	if err != nil {
		return err
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM schedule_slots WHERE schedule_id = $1`, schedule.ID); err != nil {
		return err
	}

	for _, slot := range schedule.Slots {
		row := slotRecord(schedule.ID, slot)
		_, err = tx.NamedExecContext(ctx, `
			INSERT INTO schedule_slots (id, schedule_id, day_of_week, period, start_minute, end_minute,
				course_id, teacher_id, room_id, conflict, conflict_reason)
			VALUES (:id, :schedule_id, :day_of_week, :period, :start_minute, :end_minute,
				:course_id, :teacher_id, :room_id, :conflict, :conflict_reason)`, row)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// Get loads a schedule header and reassembles its slots.
func (r *ScheduleRepository) Get(ctx context.Context, id string) (*models.Schedule, error) {
	var record models.ScheduleRecord
	if err := r.db.GetContext(ctx, &record,
		`SELECT id, name, type, status, score, meta, created_at, updated_at FROM schedules WHERE id = $1`, id); err != nil {
		return nil, err
	}

	var rows []models.ScheduleSlotRecord
	if err := r.db.SelectContext(ctx, &rows, `
		SELECT id, schedule_id, day_of_week, period, start_minute, end_minute,
			course_id, teacher_id, room_id, conflict, conflict_reason
		FROM schedule_slots WHERE schedule_id = $1
		ORDER BY day_of_week, start_minute`, id); err != nil {
		return nil, err
	}

	schedule := &models.Schedule{
		ID:           record.ID,
		Name:         record.Name,
		Type:         models.ScheduleType(record.Type),
		Status:       record.Status,
		QualityScore: record.Score,
		CreatedAt:    record.CreatedAt,
		UpdatedAt:    record.UpdatedAt,
	}
	for _, row := range rows {
		slot := models.ScheduleSlot{
			Slot: models.TimeSlot{
				Day:         time.Weekday(row.DayOfWeek),
				Period:      row.Period,
				StartMinute: row.StartMinute,
				EndMinute:   row.EndMinute,
				Lunch:       row.CourseID == nil && row.Period == 0,
			},
			Conflict: row.Conflict,
		}
		if row.CourseID != nil {
			slot.CourseID = *row.CourseID
		}
		if row.TeacherID != nil {
			slot.TeacherID = *row.TeacherID
		}
		if row.RoomID != nil {
			slot.RoomID = *row.RoomID
		}
		if row.Reason != nil {
			slot.ConflictReason = *row.Reason
		}
		schedule.Slots = append(schedule.Slots, slot)
	}
	return schedule, nil
}

// UpdateStatus moves a schedule through its lifecycle.
func (r *ScheduleRepository) UpdateStatus(ctx context.Context, id string, status models.ScheduleStatus) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE schedules SET status = $1, updated_at = NOW() WHERE id = $2`, status, id)
	return err
}

func slotRecord(scheduleID string, slot models.ScheduleSlot) models.ScheduleSlotRecord {
	row := models.ScheduleSlotRecord{
		ID:          uuid.NewString(),
		ScheduleID:  scheduleID,
		DayOfWeek:   int(slot.Slot.Day),
		Period:      slot.Slot.Period,
		StartMinute: slot.Slot.StartMinute,
		EndMinute:   slot.Slot.EndMinute,
		Conflict:    slot.Conflict,
	}
	if slot.CourseID != "" {
		row.CourseID = &slot.CourseID
	}
	if slot.TeacherID != "" {
		row.TeacherID = &slot.TeacherID
	}
	if slot.RoomID != "" {
		row.RoomID = &slot.RoomID
	}
	if slot.ConflictReason != "" {
		row.Reason = &slot.ConflictReason
	}
	return row
}
