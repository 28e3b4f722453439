package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/labor-tracker/internal/persistence"
)

// Default alert thresholds applied when a budget is created without any.
const (
	defaultWarningThreshold  = 75
	defaultCriticalThreshold = 90
)

// BudgetService manages budget definitions and compares them against actual
// labor cost. Mutation and deletion enforce object-level authorization: only
// the creator, or a caller holding the override permission, may change a
// budget.
type BudgetService struct {
	budgets     persistence.BudgetRepository
	costs       *CostService
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewBudgetService wires dependencies for budget operations.
func NewBudgetService(budgets persistence.BudgetRepository, costs *CostService, idGenerator func() string, now func() time.Time, logger *slog.Logger) *BudgetService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &BudgetService{
		budgets:     budgets,
		costs:       costs,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

// Create validates and stores a new budget owned by the caller.
func (s *BudgetService) Create(ctx context.Context, auth AuthContext, input BudgetInput) (persistence.Budget, error) {
	if s == nil || s.budgets == nil {
		return persistence.Budget{}, fmt.Errorf("budget service not configured")
	}

	vErr := &ValidationError{}
	if strings.TrimSpace(auth.UserID) == "" {
		vErr.add("created_by", "caller is required")
	}
	if input.WarningThreshold == 0 && input.CriticalThreshold == 0 {
		input.WarningThreshold = defaultWarningThreshold
		input.CriticalThreshold = defaultCriticalThreshold
	}
	validateBudgetCore(input, vErr)
	if vErr.HasErrors() {
		return persistence.Budget{}, vErr
	}

	now := s.now()
	budget := persistence.Budget{
		ID:                s.idGenerator(),
		Project:           cloneOptionalString(input.Project),
		StartDate:         input.StartDate,
		EndDate:           input.EndDate,
		Amount:            input.Amount,
		Currency:          strings.TrimSpace(input.Currency),
		WarningThreshold:  input.WarningThreshold,
		CriticalThreshold: input.CriticalThreshold,
		CreatedBy:         auth.UserID,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if budget.Currency == "" {
		budget.Currency = "USD"
	}

	created, err := s.budgets.CreateBudget(ctx, budget)
	if err != nil {
		return persistence.Budget{}, mapBudgetRepoError(err)
	}
	return created, nil
}

// Get returns a single budget by ID.
func (s *BudgetService) Get(ctx context.Context, id string) (persistence.Budget, error) {
	if s == nil || s.budgets == nil {
		return persistence.Budget{}, fmt.Errorf("budget service not configured")
	}
	budget, err := s.budgets.GetBudget(ctx, id)
	if err != nil {
		return persistence.Budget{}, mapBudgetRepoError(err)
	}
	return budget, nil
}

// List returns all budgets ordered by creation time.
func (s *BudgetService) List(ctx context.Context) ([]persistence.Budget, error) {
	if s == nil || s.budgets == nil {
		return nil, fmt.Errorf("budget service not configured")
	}
	return s.budgets.ListBudgets(ctx)
}

// Update applies validated changes to a budget after the ownership check.
func (s *BudgetService) Update(ctx context.Context, auth AuthContext, id string, input BudgetInput) (persistence.Budget, error) {
	if s == nil || s.budgets == nil {
		return persistence.Budget{}, fmt.Errorf("budget service not configured")
	}

	existing, err := s.budgets.GetBudget(ctx, id)
	if err != nil {
		return persistence.Budget{}, mapBudgetRepoError(err)
	}

	if !s.canMutate(auth, existing) {
		err := fmt.Errorf("not authorized to modify this budget: %w", ErrUnauthorized)
		serviceLogger(ctx, s.logger, "budget", "update", "budget_id", id, "user_id", auth.UserID).
			WarnContext(ctx, "mutation refused", "error_kind", ErrorKind(err))
		return persistence.Budget{}, err
	}

	vErr := &ValidationError{}
	validateBudgetCore(input, vErr)
	if vErr.HasErrors() {
		return persistence.Budget{}, vErr
	}

	currency := strings.TrimSpace(input.Currency)
	if currency == "" {
		currency = existing.Currency
	}

	update := persistence.BudgetUpdate{
		StartDate:         &input.StartDate,
		EndDate:           &input.EndDate,
		Amount:            &input.Amount,
		Currency:          &currency,
		WarningThreshold:  &input.WarningThreshold,
		CriticalThreshold: &input.CriticalThreshold,
		UpdatedAt:         s.now(),
	}
	if input.Project != nil {
		update.Project = cloneOptionalString(input.Project)
	} else {
		update.ClearProject = true
	}

	updated, err := s.budgets.UpdateBudget(ctx, id, update)
	if err != nil {
		return persistence.Budget{}, mapBudgetRepoError(err)
	}
	return updated, nil
}

// Delete removes a budget after the ownership check.
func (s *BudgetService) Delete(ctx context.Context, auth AuthContext, id string) error {
	if s == nil || s.budgets == nil {
		return fmt.Errorf("budget service not configured")
	}

	existing, err := s.budgets.GetBudget(ctx, id)
	if err != nil {
		return mapBudgetRepoError(err)
	}

	if !s.canMutate(auth, existing) {
		err := fmt.Errorf("not authorized to delete this budget: %w", ErrUnauthorized)
		serviceLogger(ctx, s.logger, "budget", "delete", "budget_id", id, "user_id", auth.UserID).
			WarnContext(ctx, "mutation refused", "error_kind", ErrorKind(err))
		return err
	}

	if err := s.budgets.DeleteBudget(ctx, id); err != nil {
		return mapBudgetRepoError(err)
	}
	return nil
}

// Compare resolves actual cost for the budget's range and project and derives
// utilization, alert level, and the projected overspend from the current
// daily burn.
func (s *BudgetService) Compare(ctx context.Context, auth AuthContext, id string) (BudgetComparison, error) {
	if s == nil || s.budgets == nil || s.costs == nil {
		return BudgetComparison{}, fmt.Errorf("budget service not configured")
	}

	budget, err := s.budgets.GetBudget(ctx, id)
	if err != nil {
		return BudgetComparison{}, mapBudgetRepoError(err)
	}

	project := ""
	if budget.Project != nil {
		project = *budget.Project
	}

	summary, err := s.costs.CostSummary(ctx, budget.StartDate, budget.EndDate, project)
	if err != nil {
		return BudgetComparison{}, err
	}

	now := s.now()
	totalDays := wholeDaysInclusive(budget.StartDate, budget.EndDate)
	elapsed := wholeDaysInclusive(budget.StartDate, minTime(now, budget.EndDate))
	if elapsed < 1 {
		elapsed = 1
	}
	if elapsed > totalDays {
		elapsed = totalDays
	}

	comparison := BudgetComparison{
		BudgetID:        budget.ID,
		Project:         cloneOptionalString(budget.Project),
		Amount:          budget.Amount,
		Currency:        budget.Currency,
		ActualCost:      summary.TotalCost,
		ActualHours:     summary.TotalHours,
		RemainingBudget: budget.Amount - summary.TotalCost,
		DaysElapsed:     elapsed,
		TotalDays:       totalDays,
	}

	if budget.Amount > 0 {
		comparison.UtilizationPercentage = summary.TotalCost / budget.Amount * 100
	}

	switch {
	case comparison.UtilizationPercentage >= budget.CriticalThreshold:
		comparison.AlertLevel = AlertLevelCritical
	case comparison.UtilizationPercentage >= budget.WarningThreshold:
		comparison.AlertLevel = AlertLevelWarning
	default:
		comparison.AlertLevel = AlertLevelOK
	}

	comparison.ProjectedCost = summary.TotalCost / float64(elapsed) * float64(totalDays)
	comparison.ProjectedOverspend = comparison.ProjectedCost - budget.Amount

	return comparison, nil
}

func (s *BudgetService) canMutate(auth AuthContext, budget persistence.Budget) bool {
	if auth.UserID != "" && auth.UserID == budget.CreatedBy {
		return true
	}
	return auth.HasPermission(PermissionBudgetOverride)
}

func validateBudgetCore(input BudgetInput, vErr *ValidationError) {
	if input.StartDate.IsZero() {
		vErr.add("start_date", "start date is required")
	}
	if input.EndDate.IsZero() {
		vErr.add("end_date", "end date is required")
	}
	if !input.StartDate.IsZero() && !input.EndDate.IsZero() && !input.StartDate.Before(input.EndDate) {
		vErr.add("date_range", "start date must be before end date")
	}
	if input.Amount <= 0 {
		vErr.add("amount", "amount must be positive")
	}
	if input.WarningThreshold <= 0 || input.CriticalThreshold <= 0 {
		vErr.add("thresholds", "alert thresholds must be positive")
	} else if input.WarningThreshold >= input.CriticalThreshold {
		vErr.add("thresholds", "warning threshold must be below critical threshold")
	}
	if input.Project != nil && strings.TrimSpace(*input.Project) == "" {
		vErr.add("project", "project must not be blank when set")
	}
}

func mapBudgetRepoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

func cloneOptionalString(value *string) *string {
	if value == nil {
		return nil
	}
	out := *value
	return &out
}

func wholeDaysInclusive(start, end time.Time) int {
	if end.Before(start) {
		return 0
	}
	return int(end.Sub(start).Hours()/24) + 1
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
