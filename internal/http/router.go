package http

import (
	"net/http"
	"strings"
)

type RouterConfig struct {
	Timer      *TimerHandler
	Costs      *CostHandler
	Budgets    *BudgetHandler
	Audit      *AuditHandler
	Middleware []func(http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	if cfg.Timer != nil {
		timerActions := map[string]http.HandlerFunc{
			"start":     cfg.Timer.Start,
			"pause":     cfg.Timer.Pause,
			"resume":    cfg.Timer.Resume,
			"stop":      cfg.Timer.Stop,
			"tasks":     cfg.Timer.AddTask,
			"close-day": cfg.Timer.CloseDay,
		}
		mux.HandleFunc("/timer/", func(w http.ResponseWriter, r *http.Request) {
			action := strings.TrimPrefix(r.URL.Path, "/timer/")
			if action == "active" {
				if r.Method != http.MethodGet {
					methodNotAllowed(w, http.MethodGet)
					return
				}
				cfg.Timer.Active(w, r)
				return
			}
			handler, ok := timerActions[action]
			if !ok {
				http.NotFound(w, r)
				return
			}
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			handler(w, r)
		})
	}

	if cfg.Costs != nil {
		costViews := map[string]http.HandlerFunc{
			"live":               cfg.Costs.Live,
			"live/privileged":    cfg.Costs.LiveWithRates,
			"summary":            cfg.Costs.Summary,
			"summary/privileged": cfg.Costs.SummaryWithRates,
			"forecast":           cfg.Costs.Forecast,
		}
		mux.HandleFunc("/costs/", func(w http.ResponseWriter, r *http.Request) {
			view := strings.TrimPrefix(r.URL.Path, "/costs/")
			handler, ok := costViews[view]
			if !ok {
				http.NotFound(w, r)
				return
			}
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			handler(w, r)
		})
	}

	if cfg.Budgets != nil {
		mux.HandleFunc("/budgets", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Budgets.List(w, r)
			case http.MethodPost:
				cfg.Budgets.Create(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		})
		mux.HandleFunc("/budgets/", func(w http.ResponseWriter, r *http.Request) {
			rest := strings.TrimPrefix(r.URL.Path, "/budgets/")
			if rest == "" {
				http.NotFound(w, r)
				return
			}

			id, sub, _ := strings.Cut(rest, "/")
			ctx := ContextWithBudgetID(r.Context(), id)
			r = r.WithContext(ctx)

			if sub == "comparison" {
				if r.Method != http.MethodGet {
					methodNotAllowed(w, http.MethodGet)
					return
				}
				cfg.Budgets.Compare(w, r)
				return
			}
			if sub != "" {
				http.NotFound(w, r)
				return
			}

			switch r.Method {
			case http.MethodGet:
				cfg.Budgets.Get(w, r)
			case http.MethodPut:
				cfg.Budgets.Update(w, r)
			case http.MethodDelete:
				cfg.Budgets.Delete(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPut, http.MethodDelete)
			}
		})
	}

	if cfg.Audit != nil {
		mux.HandleFunc("/audit/history", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Audit.History(w, r)
		})
	}

	var handler http.Handler = mux
	if len(cfg.Middleware) > 0 {
		for i := len(cfg.Middleware) - 1; i >= 0; i-- {
			if cfg.Middleware[i] != nil {
				handler = cfg.Middleware[i](handler)
			}
		}
	}

	return handler
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	if len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
	}
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}
