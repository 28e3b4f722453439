package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/example/labor-tracker/internal/persistence"
)

// BudgetRepository implements persistence.BudgetRepository on SQLite.
type BudgetRepository struct {
	pool *ConnectionPool
}

// NewBudgetRepository creates a SQLite budget repository.
func NewBudgetRepository(pool *ConnectionPool) *BudgetRepository {
	return &BudgetRepository{pool: pool}
}

const budgetColumns = `id, project, start_date, end_date, amount, currency, warning_threshold, critical_threshold, created_by, created_at, updated_at`

// CreateBudget inserts a new budget.
func (r *BudgetRepository) CreateBudget(ctx context.Context, budget persistence.Budget) (persistence.Budget, error) {
	var project any
	if budget.Project != nil {
		project = *budget.Project
	}

	_, err := r.pool.DB().ExecContext(ctx, `
		INSERT INTO budgets (`+budgetColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		budget.ID, project,
		encodeTime(budget.StartDate), encodeTime(budget.EndDate),
		budget.Amount, budget.Currency,
		budget.WarningThreshold, budget.CriticalThreshold,
		budget.CreatedBy,
		encodeTime(budget.CreatedAt), encodeTime(budget.UpdatedAt))
	if err != nil {
		return persistence.Budget{}, err
	}
	return r.GetBudget(ctx, budget.ID)
}

// GetBudget retrieves a budget by ID.
func (r *BudgetRepository) GetBudget(ctx context.Context, id string) (persistence.Budget, error) {
	row := r.pool.DB().QueryRowContext(ctx, `SELECT `+budgetColumns+` FROM budgets WHERE id = ?`, id)
	budget, err := scanBudget(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Budget{}, persistence.ErrNotFound
		}
		return persistence.Budget{}, err
	}
	return budget, nil
}

// UpdateBudget applies a partial mutation to a budget.
func (r *BudgetRepository) UpdateBudget(ctx context.Context, id string, update persistence.BudgetUpdate) (persistence.Budget, error) {
	var budget persistence.Budget
	err := r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		assignments := make([]string, 0, 8)
		args := make([]any, 0, 8)

		if update.Project != nil {
			assignments = append(assignments, "project = ?")
			args = append(args, *update.Project)
		} else if update.ClearProject {
			assignments = append(assignments, "project = NULL")
		}
		if update.StartDate != nil {
			assignments = append(assignments, "start_date = ?")
			args = append(args, encodeTime(*update.StartDate))
		}
		if update.EndDate != nil {
			assignments = append(assignments, "end_date = ?")
			args = append(args, encodeTime(*update.EndDate))
		}
		if update.Amount != nil {
			assignments = append(assignments, "amount = ?")
			args = append(args, *update.Amount)
		}
		if update.Currency != nil {
			assignments = append(assignments, "currency = ?")
			args = append(args, *update.Currency)
		}
		if update.WarningThreshold != nil {
			assignments = append(assignments, "warning_threshold = ?")
			args = append(args, *update.WarningThreshold)
		}
		if update.CriticalThreshold != nil {
			assignments = append(assignments, "critical_threshold = ?")
			args = append(args, *update.CriticalThreshold)
		}

		assignments = append(assignments, "updated_at = ?")
		args = append(args, encodeTime(updateStamp(update.UpdatedAt)))
		args = append(args, id)

		result, err := tx.Exec("UPDATE budgets SET "+strings.Join(assignments, ", ")+" WHERE id = ?", args...)
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

		loaded, err := scanBudget(tx.QueryRow(`SELECT ` + budgetColumns + ` FROM budgets WHERE id = ?`, id))
		if err != nil {
			return err
		}
		budget = loaded
		return nil
	})
	if err != nil {
		return persistence.Budget{}, err
	}
	return budget, nil
}

// ListBudgets returns all budgets ordered by creation time.
func (r *BudgetRepository) ListBudgets(ctx context.Context) ([]persistence.Budget, error) {
	rows, err := r.pool.DB().QueryContext(ctx, `SELECT `+budgetColumns+` FROM budgets ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var budgets []persistence.Budget
	for rows.Next() {
		budget, err := scanBudget(rows)
		if err != nil {
			return nil, err
		}
		budgets = append(budgets, budget)
	}
	return budgets, rows.Err()
}

// DeleteBudget removes a budget by ID.
func (r *BudgetRepository) DeleteBudget(ctx context.Context, id string) error {
	result, err := r.pool.DB().ExecContext(ctx, `DELETE FROM budgets WHERE id = ?`, id)
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
}

func scanBudget(row rowScanner) (persistence.Budget, error) {
	var (
		budget    persistence.Budget
		project   sql.NullString
		startDate string
		endDate   string
		createdAt string
		updatedAt string
	)
	err := row.Scan(
		&budget.ID, &project, &startDate, &endDate,
		&budget.Amount, &budget.Currency,
		&budget.WarningThreshold, &budget.CriticalThreshold,
		&budget.CreatedBy, &createdAt, &updatedAt)
	if err != nil {
		return persistence.Budget{}, err
	}

	if project.Valid {
		value := project.String
		budget.Project = &value
	}
	if budget.StartDate, err = decodeTime(startDate); err != nil {
		return persistence.Budget{}, err
	}
	if budget.EndDate, err = decodeTime(endDate); err != nil {
		return persistence.Budget{}, err
	}
	if budget.CreatedAt, err = decodeTime(createdAt); err != nil {
		return persistence.Budget{}, err
	}
	if budget.UpdatedAt, err = decodeTime(updatedAt); err != nil {
		return persistence.Budget{}, err
	}
	return budget, nil
}
