package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/labor-tracker/internal/application"
	"github.com/example/labor-tracker/internal/persistence"
)

type budgetService interface {
	Create(ctx context.Context, auth application.AuthContext, input application.BudgetInput) (persistence.Budget, error)
	Get(ctx context.Context, id string) (persistence.Budget, error)
	List(ctx context.Context) ([]persistence.Budget, error)
	Update(ctx context.Context, auth application.AuthContext, id string, input application.BudgetInput) (persistence.Budget, error)
	Delete(ctx context.Context, auth application.AuthContext, id string) error
	Compare(ctx context.Context, auth application.AuthContext, id string) (application.BudgetComparison, error)
}

type BudgetHandler struct {
	service   budgetService
	responder responder
}

func NewBudgetHandler(service budgetService, logger *slog.Logger) *BudgetHandler {
	return &BudgetHandler{service: service, responder: newResponder(logger)}
}

func (h *BudgetHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req budgetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	auth, _ := AuthFromContext(r.Context())

	budget, err := h.service.Create(r.Context(), auth, req.toInput())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toBudgetDTO(budget))
}

func (h *BudgetHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	budgets, err := h.service.List(r.Context())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	dtos := make([]budgetDTO, 0, len(budgets))
	for _, budget := range budgets {
		dtos = append(dtos, toBudgetDTO(budget))
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, listBudgetsResponse{Budgets: dtos})
}

func (h *BudgetHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	budgetID, ok := BudgetIDFromContext(r.Context())
	if !ok || strings.TrimSpace(budgetID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidBudgetID)
		return
	}

	budget, err := h.service.Get(r.Context(), budgetID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toBudgetDTO(budget))
}

func (h *BudgetHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	budgetID, ok := BudgetIDFromContext(r.Context())
	if !ok || strings.TrimSpace(budgetID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidBudgetID)
		return
	}

	var req budgetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	auth, _ := AuthFromContext(r.Context())

	budget, err := h.service.Update(r.Context(), auth, budgetID, req.toInput())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toBudgetDTO(budget))
}

func (h *BudgetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	budgetID, ok := BudgetIDFromContext(r.Context())
	if !ok || strings.TrimSpace(budgetID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidBudgetID)
		return
	}

	auth, _ := AuthFromContext(r.Context())
	if err := h.service.Delete(r.Context(), auth, budgetID); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *BudgetHandler) Compare(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	budgetID, ok := BudgetIDFromContext(r.Context())
	if !ok || strings.TrimSpace(budgetID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidBudgetID)
		return
	}

	auth, _ := AuthFromContext(r.Context())

	comparison, err := h.service.Compare(r.Context(), auth, budgetID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, comparison)
}

type budgetRequest struct {
	Project           *string   `json:"project"`
	StartDate         time.Time `json:"startDate"`
	EndDate           time.Time `json:"endDate"`
	Amount            float64   `json:"amount"`
	Currency          string    `json:"currency"`
	WarningThreshold  float64   `json:"warningThreshold"`
	CriticalThreshold float64   `json:"criticalThreshold"`
}

func (r budgetRequest) toInput() application.BudgetInput {
	return application.BudgetInput{
		Project:           r.Project,
		StartDate:         r.StartDate,
		EndDate:           r.EndDate,
		Amount:            r.Amount,
		Currency:          r.Currency,
		WarningThreshold:  r.WarningThreshold,
		CriticalThreshold: r.CriticalThreshold,
	}
}

type listBudgetsResponse struct {
	Budgets []budgetDTO `json:"budgets"`
}

type budgetDTO struct {
	ID                string    `json:"id"`
	Project           *string   `json:"project,omitempty"`
	StartDate         time.Time `json:"startDate"`
	EndDate           time.Time `json:"endDate"`
	Amount            float64   `json:"amount"`
	Currency          string    `json:"currency"`
	WarningThreshold  float64   `json:"warningThreshold"`
	CriticalThreshold float64   `json:"criticalThreshold"`
	CreatedBy         string    `json:"createdBy"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

func toBudgetDTO(budget persistence.Budget) budgetDTO {
	return budgetDTO{
		ID:                budget.ID,
		Project:           budget.Project,
		StartDate:         budget.StartDate,
		EndDate:           budget.EndDate,
		Amount:            budget.Amount,
		Currency:          budget.Currency,
		WarningThreshold:  budget.WarningThreshold,
		CriticalThreshold: budget.CriticalThreshold,
		CreatedBy:         budget.CreatedBy,
		CreatedAt:         budget.CreatedAt,
		UpdatedAt:         budget.UpdatedAt,
	}
}
