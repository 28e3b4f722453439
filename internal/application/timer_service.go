package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/example/labor-tracker/internal/persistence"
)

// Timer event names published to live subscribers.
const (
	EventTimerStarted   = "timer:started"
	EventTimerPaused    = "timer:paused"
	EventTimerResumed   = "timer:resumed"
	EventTimerStopped   = "timer:stopped"
	EventTimerTaskAdded = "timer:task_added"
)

// Audit action names recorded by the timer service.
const (
	auditActionStart   = "timer_start"
	auditActionPause   = "timer_pause"
	auditActionResume  = "timer_resume"
	auditActionStop    = "timer_stop"
	auditActionAddTask = "timer_add_task"
)

// defaultTaskLabel seeds the first task when the caller supplies no text.
const defaultTaskLabel = "General work"

// EventPublisher notifies subscribers about timer state changes. Delivery is
// fire-and-forget; a publish failure never fails the timer operation.
type EventPublisher interface {
	Publish(ctx context.Context, userID, event string, payload map[string]any) error
}

// TimerService owns the per-user timer lifecycle and the single-active-timer
// invariant. Every mutating operation is serialized per user; operations for
// different users run independently.
type TimerService struct {
	records     persistence.TimeRecordRepository
	publisher   EventPublisher
	audit       *AuditTrail
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger

	userLocks sync.Map // userID -> *sync.Mutex
}

// NewTimerService wires dependencies for timer operations. The publisher and
// audit trail are optional; a nil collaborator disables that side effect.
func NewTimerService(records persistence.TimeRecordRepository, publisher EventPublisher, audit *AuditTrail, idGenerator func() string, now func() time.Time, logger *slog.Logger) *TimerService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &TimerService{
		records:     records,
		publisher:   publisher,
		audit:       audit,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

// Start creates a new active record for the user. An existing active timer is
// implicitly stopped first; starting is never blocked by a running session.
func (s *TimerService) Start(ctx context.Context, userID string, input StartTimerInput) (persistence.TimeRecord, error) {
	if s == nil || s.records == nil {
		return persistence.TimeRecord{}, fmt.Errorf("timer service not configured")
	}

	vErr := &ValidationError{}
	if strings.TrimSpace(userID) == "" {
		vErr.add("user_id", "user is required")
	}
	projects := trimProjects(input.Projects)
	if len(projects) == 0 {
		vErr.add("projects", "at least one project is required")
	}
	if vErr.HasErrors() {
		return persistence.TimeRecord{}, vErr
	}

	task := strings.TrimSpace(input.Task)
	if task == "" {
		task = defaultTaskLabel
	}

	unlock := s.lockUser(userID)
	defer unlock()

	if _, err := s.stopLocked(ctx, userID); err != nil {
		return persistence.TimeRecord{}, err
	}

	now := s.now()
	record := persistence.TimeRecord{
		ID:         s.idGenerator(),
		UserID:     userID,
		Projects:   projects,
		Tasks:      []persistence.TaskEntry{{Text: task, AddedAt: now}},
		StartTime:  now,
		IsActive:   true,
		IsOvertime: input.IsOvertime,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	created, err := s.records.CreateTimeRecord(ctx, record)
	if err != nil {
		return persistence.TimeRecord{}, err
	}

	s.notify(ctx, userID, EventTimerStarted, created)
	s.auditAction(ctx, userID, created.ID, auditActionStart, map[string]string{
		"projects": strings.Join(projects, ","),
		"task":     task,
		"overtime": fmt.Sprintf("%t", input.IsOvertime),
	})

	return created, nil
}

// Pause transitions the user's running timer into the paused state. It
// returns (nil, nil) when there is nothing to pause.
func (s *TimerService) Pause(ctx context.Context, userID string) (*persistence.TimeRecord, error) {
	if s == nil || s.records == nil {
		return nil, fmt.Errorf("timer service not configured")
	}

	unlock := s.lockUser(userID)
	defer unlock()

	now := s.now()
	paused := true
	notPaused := false
	updated, err := s.records.UpdateActiveTimeRecord(ctx,
		persistence.ActiveRecordCondition{UserID: userID, IsPaused: &notPaused},
		persistence.TimeRecordUpdate{IsPaused: &paused, LastPausedAt: &now, UpdatedAt: now},
	)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	s.notify(ctx, userID, EventTimerPaused, updated)
	s.auditAction(ctx, userID, updated.ID, auditActionPause, nil)

	return &updated, nil
}

// Resume closes the open pause interval and folds it into the accumulated
// paused duration. It returns (nil, nil) when no paused timer exists.
func (s *TimerService) Resume(ctx context.Context, userID string) (*persistence.TimeRecord, error) {
	if s == nil || s.records == nil {
		return nil, fmt.Errorf("timer service not configured")
	}

	unlock := s.lockUser(userID)
	defer unlock()

	record, err := s.records.FindActiveByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if !record.IsPaused || record.LastPausedAt == nil {
		return nil, nil
	}

	now := s.now()
	accumulated := record.PausedDuration + now.Sub(*record.LastPausedAt)
	resumed := false
	isPaused := true
	updated, err := s.records.UpdateActiveTimeRecord(ctx,
		persistence.ActiveRecordCondition{UserID: userID, IsPaused: &isPaused},
		persistence.TimeRecordUpdate{
			IsPaused:          &resumed,
			PausedDuration:    &accumulated,
			ClearLastPausedAt: true,
			UpdatedAt:         now,
		},
	)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	s.notify(ctx, userID, EventTimerResumed, updated)
	s.auditAction(ctx, userID, updated.ID, auditActionResume, nil)

	return &updated, nil
}

// Stop finalizes the user's active record, paused or not. It returns
// (nil, nil) when the user has no active timer.
func (s *TimerService) Stop(ctx context.Context, userID string) (*persistence.TimeRecord, error) {
	if s == nil || s.records == nil {
		return nil, fmt.Errorf("timer service not configured")
	}

	unlock := s.lockUser(userID)
	defer unlock()

	stopped, err := s.stopLocked(ctx, userID)
	if err != nil || stopped == nil {
		return nil, err
	}

	s.notify(ctx, userID, EventTimerStopped, *stopped)
	s.auditAction(ctx, userID, stopped.ID, auditActionStop, map[string]string{
		"duration_minutes": fmt.Sprintf("%d", stopped.DurationMinutes),
	})

	return stopped, nil
}

// AddTask finalizes the previous task's duration and appends a fresh task to
// the active record. It returns (nil, nil) when no active timer exists.
func (s *TimerService) AddTask(ctx context.Context, userID, taskText string) (*persistence.TimeRecord, error) {
	if s == nil || s.records == nil {
		return nil, fmt.Errorf("timer service not configured")
	}

	taskText = strings.TrimSpace(taskText)
	if taskText == "" {
		vErr := &ValidationError{}
		vErr.add("task", "task text is required")
		return nil, vErr
	}

	unlock := s.lockUser(userID)
	defer unlock()

	record, err := s.records.FindActiveByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	now := s.now()
	tasks := finalizeLastTask(record.Tasks, record.StartTime, now, record.PausedDuration)
	tasks = append(tasks, persistence.TaskEntry{Text: taskText, AddedAt: now})

	updated, err := s.records.UpdateActiveTimeRecord(ctx,
		persistence.ActiveRecordCondition{UserID: userID},
		persistence.TimeRecordUpdate{Tasks: tasks, UpdatedAt: now},
	)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	s.notify(ctx, userID, EventTimerTaskAdded, updated)
	s.auditAction(ctx, userID, updated.ID, auditActionAddTask, map[string]string{"task": taskText})

	return &updated, nil
}

// GetActive returns the user's active record with its duration computed live,
// including an open pause interval when the timer is currently paused. The
// projection is never persisted. It returns (nil, nil) when the user is idle.
func (s *TimerService) GetActive(ctx context.Context, userID string) (*persistence.TimeRecord, error) {
	if s == nil || s.records == nil {
		return nil, fmt.Errorf("timer service not configured")
	}

	record, err := s.records.FindActiveByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	record.DurationMinutes = LiveWorkedMinutes(record, s.now())
	return &record, nil
}

// StopAllForUser finalizes every active record the user still has open. It
// exists for day-end closure and tolerates legacy data that predates the
// single-active invariant.
func (s *TimerService) StopAllForUser(ctx context.Context, userID string) ([]persistence.TimeRecord, error) {
	if s == nil || s.records == nil {
		return nil, fmt.Errorf("timer service not configured")
	}

	unlock := s.lockUser(userID)
	defer unlock()

	var stopped []persistence.TimeRecord
	for {
		record, err := s.stopLocked(ctx, userID)
		if err != nil {
			return stopped, err
		}
		if record == nil {
			break
		}
		stopped = append(stopped, *record)
		s.notify(ctx, userID, EventTimerStopped, *record)
		s.auditAction(ctx, userID, record.ID, auditActionStop, map[string]string{
			"duration_minutes": fmt.Sprintf("%d", record.DurationMinutes),
			"closure":          "day_end",
		})
	}
	return stopped, nil
}

// stopLocked finalizes the current active record while holding the user lock.
// It returns (nil, nil) when no active record exists.
func (s *TimerService) stopLocked(ctx context.Context, userID string) (*persistence.TimeRecord, error) {
	record, err := s.records.FindActiveByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	now := s.now()
	paused := record.PausedDuration
	if record.IsPaused && record.LastPausedAt != nil {
		paused += now.Sub(*record.LastPausedAt)
	}

	minutes := workedMinutes(record.StartTime, now, paused)
	tasks := finalizeLastTask(record.Tasks, record.StartTime, now, paused)

	inactive := false
	notPaused := false
	updated, err := s.records.UpdateActiveTimeRecord(ctx,
		persistence.ActiveRecordCondition{UserID: userID},
		persistence.TimeRecordUpdate{
			EndTime:           &now,
			IsActive:          &inactive,
			IsPaused:          &notPaused,
			PausedDuration:    &paused,
			ClearLastPausedAt: true,
			DurationMinutes:   &minutes,
			Tasks:             tasks,
			UpdatedAt:         now,
		},
	)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &updated, nil
}

func (s *TimerService) lockUser(userID string) func() {
	value, _ := s.userLocks.LoadOrStore(userID, &sync.Mutex{})
	mu := value.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// notify publishes a timer event. Failures are logged and discarded; the
// publisher is advisory by contract.
func (s *TimerService) notify(ctx context.Context, userID, event string, record persistence.TimeRecord) {
	if s.publisher == nil {
		return
	}
	payload := map[string]any{
		"recordId":        record.ID,
		"projects":        record.Projects,
		"isActive":        record.IsActive,
		"isPaused":        record.IsPaused,
		"durationMinutes": record.DurationMinutes,
	}
	if err := s.publisher.Publish(ctx, userID, event, payload); err != nil {
		serviceLogger(ctx, s.logger, "timer", "publish", "event", event, "user_id", userID).
			WarnContext(ctx, "event publish failed", "error", err)
	}
}

func (s *TimerService) auditAction(ctx context.Context, userID, entryID, action string, metadata map[string]string) {
	if s.audit == nil {
		return
	}
	s.audit.Record(ctx, userID, entryID, action, metadata)
}

// workedMinutes converts a session's wall-clock span minus paused time into
// whole minutes, never negative.
func workedMinutes(start, end time.Time, paused time.Duration) int {
	worked := end.Sub(start) - paused
	if worked < 0 {
		worked = 0
	}
	return int(worked / time.Minute)
}

// LiveWorkedMinutes computes the read-time worked minutes of an active
// record, folding in the open pause interval when the record is paused.
func LiveWorkedMinutes(record persistence.TimeRecord, now time.Time) int {
	paused := record.PausedDuration
	if record.IsPaused && record.LastPausedAt != nil {
		paused += now.Sub(*record.LastPausedAt)
	}
	return workedMinutes(record.StartTime, now, paused)
}

// finalizeLastTask closes the trailing task's duration. Pauses cannot be
// attributed precisely to one task when several share a session, so the task
// is charged a share of the paused time proportional to its own elapsed span.
// A deliberate approximation, not an exact audit figure.
func finalizeLastTask(tasks []persistence.TaskEntry, start, now time.Time, paused time.Duration) []persistence.TaskEntry {
	out := make([]persistence.TaskEntry, len(tasks))
	copy(out, tasks)
	if len(out) == 0 {
		return out
	}

	last := &out[len(out)-1]
	taskElapsed := now.Sub(last.AddedAt)
	if taskElapsed < 0 {
		taskElapsed = 0
	}

	totalElapsed := now.Sub(start)
	var share time.Duration
	if totalElapsed > 0 && paused > 0 {
		share = time.Duration(float64(paused) * (float64(taskElapsed) / float64(totalElapsed)))
	}

	worked := taskElapsed - share
	if worked < 0 {
		worked = 0
	}
	last.DurationMinutes = int(worked / time.Minute)

	return out
}

func trimProjects(projects []string) []string {
	out := make([]string, 0, len(projects))
	seen := make(map[string]struct{}, len(projects))
	for _, project := range projects {
		project = strings.TrimSpace(project)
		if project == "" {
			continue
		}
		if _, ok := seen[project]; ok {
			continue
		}
		seen[project] = struct{}{}
		out = append(out, project)
	}
	return out
}
