package application

import "time"

// Permission names understood by the services. Permission checks on cost
// views happen at the edge; the services only gate budget mutation.
const (
	// PermissionBudgetOverride allows mutating or deleting budgets created by
	// other users.
	PermissionBudgetOverride = "budgets:override"
	// PermissionViewRates allows access to compensation-derived fields. The
	// edge layer verifies it before calling the privileged entry points.
	PermissionViewRates = "rates:view"
)

// AuthContext identifies the caller invoking a service method. It is always
// passed explicitly, never inferred from ambient request state.
type AuthContext struct {
	UserID      string
	Permissions []string
}

// HasPermission reports whether the caller carries the named permission.
func (a AuthContext) HasPermission(name string) bool {
	for _, p := range a.Permissions {
		if p == name {
			return true
		}
	}
	return false
}

// StartTimerInput captures caller provided fields for starting a timer.
type StartTimerInput struct {
	Projects   []string
	Task       string
	IsOvertime bool
}

// BudgetInput captures caller provided budget fields.
type BudgetInput struct {
	Project           *string
	StartDate         time.Time
	EndDate           time.Time
	Amount            float64
	Currency          string
	WarningThreshold  float64
	CriticalThreshold float64
}

// Alert levels reported by budget comparisons.
const (
	AlertLevelOK       = "ok"
	AlertLevelWarning  = "warning"
	AlertLevelCritical = "critical"
)

// BudgetComparison reports budget utilization against actual labor cost.
type BudgetComparison struct {
	BudgetID              string  `json:"budgetId"`
	Project               *string `json:"project,omitempty"`
	Amount                float64 `json:"amount"`
	Currency              string  `json:"currency"`
	ActualCost            float64 `json:"actualCost"`
	ActualHours           float64 `json:"actualHours"`
	RemainingBudget       float64 `json:"remainingBudget"`
	UtilizationPercentage float64 `json:"utilizationPercentage"`
	AlertLevel            string  `json:"alertLevel"`
	ProjectedCost         float64 `json:"projectedCost"`
	ProjectedOverspend    float64 `json:"projectedOverspend"`
	DaysElapsed           int     `json:"daysElapsed"`
	TotalDays             int     `json:"totalDays"`
}

// --- Live cost views ---

// ProjectBurn aggregates the currently active sessions touching one project.
// Cost and minutes are split evenly across a session's projects; burn rate
// sums the full hourly rate of every active contributor on the project.
type ProjectBurn struct {
	Project      string  `json:"project"`
	Cost         float64 `json:"cost"`
	BurnRate     float64 `json:"burnRate"`
	Contributors int     `json:"contributors"`
	Minutes      int     `json:"minutes"`
}

// LiveCostReport is the safe live cost view. It carries no per-user
// compensation fields.
type LiveCostReport struct {
	GeneratedAt   time.Time     `json:"generatedAt"`
	TotalCost     float64       `json:"totalCost"`
	TotalBurnRate float64       `json:"totalBurnRate"`
	ActiveUsers   int           `json:"activeUsers"`
	TotalMinutes  int           `json:"totalMinutes"`
	Projects      []ProjectBurn `json:"projects"`
}

// LiveContributor is the privileged per-user detail of a live cost report.
type LiveContributor struct {
	UserID      string   `json:"userId"`
	DisplayName string   `json:"displayName"`
	Projects    []string `json:"projects"`
	Minutes     int      `json:"minutes"`
	Cost        float64  `json:"cost"`
	HourlyRate  float64  `json:"hourlyRate"`
}

// PrivilegedLiveCostReport extends the live view with per-contributor rates.
type PrivilegedLiveCostReport struct {
	LiveCostReport
	Contributors []LiveContributor `json:"contributors"`
}

// --- Historical cost views ---

// DeveloperCost is the safe per-developer share of a project's cost.
type DeveloperCost struct {
	UserID      string  `json:"userId"`
	DisplayName string  `json:"displayName"`
	Cost        float64 `json:"cost"`
	Hours       float64 `json:"hours"`
}

// PrivilegedDeveloperCost adds compensation-derived fields to DeveloperCost.
type PrivilegedDeveloperCost struct {
	DeveloperCost
	HourlyRate    float64 `json:"hourlyRate"`
	MonthlySalary float64 `json:"monthlySalary"`
}

// ProjectCost is the safe per-project cost breakdown.
type ProjectCost struct {
	Project    string          `json:"project"`
	Cost       float64         `json:"cost"`
	Hours      float64         `json:"hours"`
	Developers []DeveloperCost `json:"developers"`
}

// PrivilegedProjectCost carries the privileged developer breakdown.
type PrivilegedProjectCost struct {
	Project    string                    `json:"project"`
	Cost       float64                   `json:"cost"`
	Hours      float64                   `json:"hours"`
	Developers []PrivilegedDeveloperCost `json:"developers"`
}

// Performer ranks a developer by total tracked hours.
type Performer struct {
	UserID      string  `json:"userId"`
	DisplayName string  `json:"displayName"`
	Hours       float64 `json:"hours"`
	Cost        float64 `json:"cost"`
}

// PrivilegedPerformer adds the hourly rate to a performer ranking.
type PrivilegedPerformer struct {
	Performer
	HourlyRate float64 `json:"hourlyRate"`
}

// DailyCost is one point of the daily cost series, keyed by calendar day.
type DailyCost struct {
	Date string  `json:"date"`
	Cost float64 `json:"cost"`
}

// MonthlyCost is one point of the monthly cost series.
type MonthlyCost struct {
	Month string  `json:"month"`
	Cost  float64 `json:"cost"`
}

// OvertimeSplit separates overtime from regular cost based on each record's
// immutable overtime flag.
type OvertimeSplit struct {
	OvertimeCost  float64 `json:"overtimeCost"`
	OvertimeHours float64 `json:"overtimeHours"`
	RegularCost   float64 `json:"regularCost"`
	RegularHours  float64 `json:"regularHours"`
}

// CostSummary is the safe historical cost view returned by the default entry
// points. It never carries hourly rates or salaries.
type CostSummary struct {
	Start         time.Time     `json:"start"`
	End           time.Time     `json:"end"`
	Project       string        `json:"project,omitempty"`
	TotalCost     float64       `json:"totalCost"`
	TotalHours    float64       `json:"totalHours"`
	Projects      []ProjectCost `json:"projects"`
	TopPerformers []Performer   `json:"topPerformers"`
	Daily         []DailyCost   `json:"daily"`
	Monthly       []MonthlyCost `json:"monthly"`
	Overtime      OvertimeSplit `json:"overtime"`
}

// PrivilegedCostSummary is the full historical cost view including
// compensation-derived fields. Only the separately named privileged entry
// points return it.
type PrivilegedCostSummary struct {
	Start         time.Time               `json:"start"`
	End           time.Time               `json:"end"`
	Project       string                  `json:"project,omitempty"`
	TotalCost     float64                 `json:"totalCost"`
	TotalHours    float64                 `json:"totalHours"`
	Projects      []PrivilegedProjectCost `json:"projects"`
	TopPerformers []PrivilegedPerformer   `json:"topPerformers"`
	Daily         []DailyCost             `json:"daily"`
	Monthly       []MonthlyCost           `json:"monthly"`
	Overtime      OvertimeSplit           `json:"overtime"`
}

// Forecast projects future cost from the historical daily series.
type Forecast struct {
	Start         time.Time `json:"start"`
	End           time.Time `json:"end"`
	Days          int       `json:"days"`
	Project       string    `json:"project,omitempty"`
	ProjectedCost float64   `json:"projectedCost"`
	Confidence    float64   `json:"confidence"`
	Trend         string    `json:"trend"`
	DailyAverage  float64   `json:"dailyAverage"`
	DataPoints    int       `json:"dataPoints"`
}
