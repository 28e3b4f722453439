package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/example/labor-tracker/internal/application"
	"github.com/example/labor-tracker/internal/persistence"
)

type timerService interface {
	Start(ctx context.Context, userID string, input application.StartTimerInput) (persistence.TimeRecord, error)
	Pause(ctx context.Context, userID string) (*persistence.TimeRecord, error)
	Resume(ctx context.Context, userID string) (*persistence.TimeRecord, error)
	Stop(ctx context.Context, userID string) (*persistence.TimeRecord, error)
	AddTask(ctx context.Context, userID, taskText string) (*persistence.TimeRecord, error)
	GetActive(ctx context.Context, userID string) (*persistence.TimeRecord, error)
	StopAllForUser(ctx context.Context, userID string) ([]persistence.TimeRecord, error)
}

type TimerHandler struct {
	service   timerService
	responder responder
}

func NewTimerHandler(service timerService, logger *slog.Logger) *TimerHandler {
	return &TimerHandler{service: service, responder: newResponder(logger)}
}

func (h *TimerHandler) Start(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req startTimerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	auth, _ := AuthFromContext(r.Context())

	record, err := h.service.Start(r.Context(), auth.UserID, application.StartTimerInput{
		Projects:   req.Projects,
		Task:       req.Task,
		IsOvertime: req.IsOvertime,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toTimeRecordDTO(record))
}

func (h *TimerHandler) Pause(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	h.transition(w, r, h.service.Pause)
}

func (h *TimerHandler) Resume(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	h.transition(w, r, h.service.Resume)
}

func (h *TimerHandler) Stop(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	h.transition(w, r, h.service.Stop)
}

// transition runs a pause/resume/stop style operation. A nil record with a
// nil error means there was nothing to act on, reported as 204.
func (h *TimerHandler) transition(w http.ResponseWriter, r *http.Request, op func(context.Context, string) (*persistence.TimeRecord, error)) {
	auth, _ := AuthFromContext(r.Context())

	record, err := op(r.Context(), auth.UserID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	if record == nil {
		h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toTimeRecordDTO(*record))
}

func (h *TimerHandler) AddTask(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req addTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	auth, _ := AuthFromContext(r.Context())

	record, err := h.service.AddTask(r.Context(), auth.UserID, req.Text)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	if record == nil {
		h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toTimeRecordDTO(*record))
}

func (h *TimerHandler) Active(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	auth, _ := AuthFromContext(r.Context())

	record, err := h.service.GetActive(r.Context(), auth.UserID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	if record == nil {
		h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toTimeRecordDTO(*record))
}

func (h *TimerHandler) CloseDay(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	auth, _ := AuthFromContext(r.Context())

	records, err := h.service.StopAllForUser(r.Context(), auth.UserID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, closeDayResponse{
		Closed: toTimeRecordDTOs(records),
	})
}

type startTimerRequest struct {
	Projects   []string `json:"projects"`
	Task       string   `json:"task"`
	IsOvertime bool     `json:"isOvertime"`
}

type addTaskRequest struct {
	Text string `json:"text"`
}

type closeDayResponse struct {
	Closed []timeRecordDTO `json:"closed"`
}

type timeRecordDTO struct {
	ID               string         `json:"id"`
	UserID           string         `json:"userId"`
	Projects         []string       `json:"projects"`
	Tasks            []taskEntryDTO `json:"tasks"`
	StartTime        time.Time      `json:"startTime"`
	EndTime          *time.Time     `json:"endTime,omitempty"`
	IsActive         bool           `json:"isActive"`
	IsPaused         bool           `json:"isPaused"`
	PausedDurationMS int64          `json:"pausedDurationMs"`
	DurationMinutes  int            `json:"durationMinutes"`
	IsOvertime       bool           `json:"isOvertime"`
}

type taskEntryDTO struct {
	Text            string    `json:"text"`
	AddedAt         time.Time `json:"addedAt"`
	DurationMinutes int       `json:"durationMinutes"`
}

func toTimeRecordDTO(record persistence.TimeRecord) timeRecordDTO {
	tasks := make([]taskEntryDTO, 0, len(record.Tasks))
	for _, task := range record.Tasks {
		tasks = append(tasks, taskEntryDTO{
			Text:            task.Text,
			AddedAt:         task.AddedAt,
			DurationMinutes: task.DurationMinutes,
		})
	}

	return timeRecordDTO{
		ID:               record.ID,
		UserID:           record.UserID,
		Projects:         record.Projects,
		Tasks:            tasks,
		StartTime:        record.StartTime,
		EndTime:          record.EndTime,
		IsActive:         record.IsActive,
		IsPaused:         record.IsPaused,
		PausedDurationMS: record.PausedDuration.Milliseconds(),
		DurationMinutes:  record.DurationMinutes,
		IsOvertime:       record.IsOvertime,
	}
}

func toTimeRecordDTOs(records []persistence.TimeRecord) []timeRecordDTO {
	dtos := make([]timeRecordDTO, 0, len(records))
	for _, record := range records {
		dtos = append(dtos, toTimeRecordDTO(record))
	}
	return dtos
}
