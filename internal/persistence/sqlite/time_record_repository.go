package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/labor-tracker/internal/persistence"
)

// TimeRecordRepository implements persistence.TimeRecordRepository on SQLite.
type TimeRecordRepository struct {
	pool *ConnectionPool
}

// NewTimeRecordRepository creates a SQLite time record repository.
func NewTimeRecordRepository(pool *ConnectionPool) *TimeRecordRepository {
	return &TimeRecordRepository{pool: pool}
}

// CreateTimeRecord inserts a new record with its projects and tasks.
func (r *TimeRecordRepository) CreateTimeRecord(ctx context.Context, record persistence.TimeRecord) (persistence.TimeRecord, error) {
	if record.ID == "" {
		return persistence.TimeRecord{}, fmt.Errorf("sqlite: time record id is required")
	}

	err := r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		var exists int
		err := tx.QueryRow(`SELECT COUNT(1) FROM time_records WHERE id = ?`, record.ID).Scan(&exists)
		if err != nil {
			return err
		}
		if exists > 0 {
			return persistence.ErrDuplicate
		}

		_, err = tx.Exec(`
			INSERT INTO time_records
				(id, user_id, start_time, end_time, is_active, is_paused, paused_ms, last_paused_at, duration_minutes, is_overtime, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			record.ID,
			record.UserID,
			encodeTime(record.StartTime),
			encodeNullableTime(record.EndTime),
			boolInt(record.IsActive),
			boolInt(record.IsPaused),
			record.PausedDuration.Milliseconds(),
			encodeNullableTime(record.LastPausedAt),
			record.DurationMinutes,
			boolInt(record.IsOvertime),
			encodeTime(record.CreatedAt),
			encodeTime(record.UpdatedAt),
		)
		if err != nil {
			return err
		}

		if err := insertProjects(tx, record.ID, record.Projects); err != nil {
			return err
		}
		return replaceTasks(tx, record.ID, record.Tasks)
	})
	if err != nil {
		return persistence.TimeRecord{}, err
	}
	return r.GetTimeRecord(ctx, record.ID)
}

// GetTimeRecord retrieves a record by ID.
func (r *TimeRecordRepository) GetTimeRecord(ctx context.Context, id string) (persistence.TimeRecord, error) {
	var record persistence.TimeRecord
	err := r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		loaded, err := loadRecordTx(tx, `SELECT `+recordColumns+` FROM time_records WHERE id = ?`, id)
		if err != nil {
			return err
		}
		record = loaded
		return nil
	})
	if err != nil {
		return persistence.TimeRecord{}, err
	}
	return record, nil
}

// FindActiveByUser returns the user's active record or ErrNotFound.
func (r *TimeRecordRepository) FindActiveByUser(ctx context.Context, userID string) (persistence.TimeRecord, error) {
	var record persistence.TimeRecord
	err := r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		loaded, err := loadRecordTx(tx,
			`SELECT `+recordColumns+` FROM time_records WHERE user_id = ? AND is_active = 1 ORDER BY start_time LIMIT 1`,
			userID)
		if err != nil {
			return err
		}
		record = loaded
		return nil
	})
	if err != nil {
		return persistence.TimeRecord{}, err
	}
	return record, nil
}

// UpdateActiveTimeRecord applies update to the record matching the condition
// inside a single transaction, giving the conditional read-modify-write the
// timer engine requires.
func (r *TimeRecordRepository) UpdateActiveTimeRecord(ctx context.Context, cond persistence.ActiveRecordCondition, update persistence.TimeRecordUpdate) (persistence.TimeRecord, error) {
	var record persistence.TimeRecord
	err := r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		query := `SELECT id FROM time_records WHERE user_id = ? AND is_active = 1`
		args := []any{cond.UserID}
		if cond.IsPaused != nil {
			query += ` AND is_paused = ?`
			args = append(args, boolInt(*cond.IsPaused))
		}
		query += ` ORDER BY start_time LIMIT 1`

		var id string
		if err := tx.QueryRow(query, args...).Scan(&id); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return persistence.ErrNotFound
			}
			return err
		}

		if err := applyUpdateTx(tx, id, update); err != nil {
			return err
		}

		loaded, err := loadRecordTx(tx, `SELECT `+recordColumns+` FROM time_records WHERE id = ?`, id)
		if err != nil {
			return err
		}
		record = loaded
		return nil
	})
	if err != nil {
		return persistence.TimeRecord{}, err
	}
	return record, nil
}

// UpdateTimeRecord applies update to a record by ID.
func (r *TimeRecordRepository) UpdateTimeRecord(ctx context.Context, id string, update persistence.TimeRecordUpdate) (persistence.TimeRecord, error) {
	var record persistence.TimeRecord
	err := r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		var exists int
		if err := tx.QueryRow(`SELECT COUNT(1) FROM time_records WHERE id = ?`, id).Scan(&exists); err != nil {
			return err
		}
		if exists == 0 {
			return persistence.ErrNotFound
		}

		if err := applyUpdateTx(tx, id, update); err != nil {
			return err
		}

		loaded, err := loadRecordTx(tx, `SELECT `+recordColumns+` FROM time_records WHERE id = ?`, id)
		if err != nil {
			return err
		}
		record = loaded
		return nil
	})
	if err != nil {
		return persistence.TimeRecord{}, err
	}
	return record, nil
}

// ListAllActive returns every active record ordered by start time.
func (r *TimeRecordRepository) ListAllActive(ctx context.Context) ([]persistence.TimeRecord, error) {
	return r.listRecords(ctx, `SELECT `+recordColumns+` FROM time_records WHERE is_active = 1 ORDER BY start_time, id`)
}

// ListCompletedInRange returns finished records started within [start, end].
func (r *TimeRecordRepository) ListCompletedInRange(ctx context.Context, start, end time.Time) ([]persistence.TimeRecord, error) {
	return r.listRecords(ctx,
		`SELECT `+recordColumns+` FROM time_records WHERE is_active = 0 AND start_time >= ? AND start_time <= ? ORDER BY start_time, id`,
		encodeTime(start), encodeTime(end))
}

// ListByUserAndRange returns the user's records started within [start, end].
func (r *TimeRecordRepository) ListByUserAndRange(ctx context.Context, userID string, start, end time.Time) ([]persistence.TimeRecord, error) {
	return r.listRecords(ctx,
		`SELECT `+recordColumns+` FROM time_records WHERE user_id = ? AND start_time >= ? AND start_time <= ? ORDER BY start_time, id`,
		userID, encodeTime(start), encodeTime(end))
}

// DeleteTimeRecord removes a record and its projects and tasks.
func (r *TimeRecordRepository) DeleteTimeRecord(ctx context.Context, id string) error {
	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		result, err := tx.Exec(`DELETE FROM time_records WHERE id = ?`, id)
		if err != nil {
			return err
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return persistence.ErrNotFound
		}
		return nil
	})
}

func (r *TimeRecordRepository) listRecords(ctx context.Context, query string, args ...any) ([]persistence.TimeRecord, error) {
	var records []persistence.TimeRecord
	err := r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		rows, err := tx.Query(query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			record, err := scanRecord(rows)
			if err != nil {
				return err
			}
			records = append(records, record)
		}
		if err := rows.Err(); err != nil {
			return err
		}

		for i := range records {
			if err := attachRelations(tx, &records[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

const recordColumns = `id, user_id, start_time, end_time, is_active, is_paused, paused_ms, last_paused_at, duration_minutes, is_overtime, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (persistence.TimeRecord, error) {
	var (
		record       persistence.TimeRecord
		startTime    string
		endTime      sql.NullString
		isActive     int
		isPaused     int
		pausedMS     int64
		lastPausedAt sql.NullString
		isOvertime   int
		createdAt    string
		updatedAt    string
	)

	err := row.Scan(
		&record.ID,
		&record.UserID,
		&startTime,
		&endTime,
		&isActive,
		&isPaused,
		&pausedMS,
		&lastPausedAt,
		&record.DurationMinutes,
		&isOvertime,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return persistence.TimeRecord{}, err
	}

	record.IsActive = isActive != 0
	record.IsPaused = isPaused != 0
	record.IsOvertime = isOvertime != 0
	record.PausedDuration = time.Duration(pausedMS) * time.Millisecond

	if record.StartTime, err = decodeTime(startTime); err != nil {
		return persistence.TimeRecord{}, err
	}
	if record.EndTime, err = decodeNullableTime(endTime); err != nil {
		return persistence.TimeRecord{}, err
	}
	if record.LastPausedAt, err = decodeNullableTime(lastPausedAt); err != nil {
		return persistence.TimeRecord{}, err
	}
	if record.CreatedAt, err = decodeTime(createdAt); err != nil {
		return persistence.TimeRecord{}, err
	}
	if record.UpdatedAt, err = decodeTime(updatedAt); err != nil {
		return persistence.TimeRecord{}, err
	}

	return record, nil
}

func loadRecordTx(tx *sql.Tx, query string, args ...any) (persistence.TimeRecord, error) {
	record, err := scanRecord(tx.QueryRow(query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.TimeRecord{}, persistence.ErrNotFound
		}
		return persistence.TimeRecord{}, err
	}
	if err := attachRelations(tx, &record); err != nil {
		return persistence.TimeRecord{}, err
	}
	return record, nil
}

func attachRelations(tx *sql.Tx, record *persistence.TimeRecord) error {
	projectRows, err := tx.Query(`SELECT project FROM time_record_projects WHERE record_id = ? ORDER BY project`, record.ID)
	if err != nil {
		return err
	}
	defer projectRows.Close()
	for projectRows.Next() {
		var project string
		if err := projectRows.Scan(&project); err != nil {
			return err
		}
		record.Projects = append(record.Projects, project)
	}
	if err := projectRows.Err(); err != nil {
		return err
	}

	taskRows, err := tx.Query(`SELECT text, added_at, duration_minutes FROM time_record_tasks WHERE record_id = ? ORDER BY position`, record.ID)
	if err != nil {
		return err
	}
	defer taskRows.Close()
	for taskRows.Next() {
		var (
			task    persistence.TaskEntry
			addedAt string
		)
		if err := taskRows.Scan(&task.Text, &addedAt, &task.DurationMinutes); err != nil {
			return err
		}
		if task.AddedAt, err = decodeTime(addedAt); err != nil {
			return err
		}
		record.Tasks = append(record.Tasks, task)
	}
	return taskRows.Err()
}

func applyUpdateTx(tx *sql.Tx, id string, update persistence.TimeRecordUpdate) error {
	assignments := make([]string, 0, 8)
	args := make([]any, 0, 8)

	if update.EndTime != nil {
		assignments = append(assignments, "end_time = ?")
		args = append(args, encodeTime(*update.EndTime))
	}
	if update.IsActive != nil {
		assignments = append(assignments, "is_active = ?")
		args = append(args, boolInt(*update.IsActive))
	}
	if update.IsPaused != nil {
		assignments = append(assignments, "is_paused = ?")
		args = append(args, boolInt(*update.IsPaused))
	}
	if update.PausedDuration != nil {
		assignments = append(assignments, "paused_ms = ?")
		args = append(args, update.PausedDuration.Milliseconds())
	}
	if update.LastPausedAt != nil {
		assignments = append(assignments, "last_paused_at = ?")
		args = append(args, encodeTime(*update.LastPausedAt))
	} else if update.ClearLastPausedAt {
		assignments = append(assignments, "last_paused_at = NULL")
	}
	if update.DurationMinutes != nil {
		assignments = append(assignments, "duration_minutes = ?")
		args = append(args, *update.DurationMinutes)
	}

	assignments = append(assignments, "updated_at = ?")
	args = append(args, encodeTime(updateStamp(update.UpdatedAt)))
	args = append(args, id)

	query := "UPDATE time_records SET " + strings.Join(assignments, ", ") + " WHERE id = ?"
	if _, err := tx.Exec(query, args...); err != nil {
		return err
	}

	if update.Tasks != nil {
		if _, err := tx.Exec(`DELETE FROM time_record_tasks WHERE record_id = ?`, id); err != nil {
			return err
		}
		if err := replaceTasks(tx, id, update.Tasks); err != nil {
			return err
		}
	}
	return nil
}

func insertProjects(tx *sql.Tx, recordID string, projects []string) error {
	for _, project := range projects {
		if _, err := tx.Exec(`INSERT INTO time_record_projects (record_id, project) VALUES (?, ?)`, recordID, project); err != nil {
			return err
		}
	}
	return nil
}

func replaceTasks(tx *sql.Tx, recordID string, tasks []persistence.TaskEntry) error {
	for position, task := range tasks {
		_, err := tx.Exec(`INSERT INTO time_record_tasks (record_id, position, text, added_at, duration_minutes) VALUES (?, ?, ?, ?, ?)`,
			recordID, position, task.Text, encodeTime(task.AddedAt), task.DurationMinutes)
		if err != nil {
			return err
		}
	}
	return nil
}

// updateStamp returns the caller supplied row timestamp, or wall clock time
// when none was provided.
func updateStamp(at time.Time) time.Time {
	if at.IsZero() {
		return time.Now().UTC()
	}
	return at
}

func encodeTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func encodeNullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return encodeTime(*t)
}

func decodeTime(value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("sqlite: invalid timestamp %q: %w", value, err)
	}
	return t, nil
}

func decodeNullableTime(value sql.NullString) (*time.Time, error) {
	if !value.Valid {
		return nil, nil
	}
	t, err := decodeTime(value.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func boolInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
