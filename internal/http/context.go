package http

import (
	"context"

	"github.com/example/labor-tracker/internal/application"
)

type contextKey string

const (
	authContextKey     contextKey = "auth"
	budgetIDContextKey contextKey = "budget_id"
)

// ContextWithAuth returns a derived context containing the caller identity.
func ContextWithAuth(ctx context.Context, auth application.AuthContext) context.Context {
	return context.WithValue(ctx, authContextKey, auth)
}

// AuthFromContext extracts the caller identity from context if available.
func AuthFromContext(ctx context.Context) (application.AuthContext, bool) {
	auth, ok := ctx.Value(authContextKey).(application.AuthContext)
	return auth, ok
}

// ContextWithBudgetID injects the budget identifier resolved from the request path.
func ContextWithBudgetID(ctx context.Context, budgetID string) context.Context {
	return context.WithValue(ctx, budgetIDContextKey, budgetID)
}

// BudgetIDFromContext extracts a budget identifier previously associated with the context.
func BudgetIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(budgetIDContextKey).(string)
	return id, ok
}
