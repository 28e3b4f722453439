package application

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/example/labor-tracker/internal/persistence"
)

// standardMonthlyHours is the fixed divisor deriving an hourly rate from a
// monthly salary.
const standardMonthlyHours = 160

// topPerformerLimit caps the performer ranking in a cost summary.
const topPerformerLimit = 20

// dayFormat and monthFormat key the daily and monthly cost series.
const (
	dayFormat   = "2006-01-02"
	monthFormat = "2006-01"
)

// HourlyRate derives the hourly rate from a monthly salary using the
// standard-hours divisor.
func HourlyRate(monthlySalary float64) float64 {
	return monthlySalary / standardMonthlyHours
}

// CostService computes live burn rates and historical cost summaries from
// time records joined against directory compensation data. All operations
// are read-only and side-effect-free. The service always computes the full
// privileged shape internally; the default entry points return the safe
// projection so rate data cannot leak through them.
type CostService struct {
	records   persistence.TimeRecordRepository
	directory persistence.UserDirectory
	profiles  *profileCache
	now       func() time.Time
	logger    *slog.Logger
}

// NewCostService wires dependencies for cost aggregation. cacheTTL bounds how
// long resolved directory profiles are reused; zero applies a short default.
func NewCostService(records persistence.TimeRecordRepository, directory persistence.UserDirectory, cacheTTL time.Duration, now func() time.Time, logger *slog.Logger) *CostService {
	if now == nil {
		now = time.Now
	}
	return &CostService{
		records:   records,
		directory: directory,
		profiles:  newProfileCache(cacheTTL, now),
		now:       now,
		logger:    defaultLogger(logger),
	}
}

// LiveCost returns the safe live cost view for all currently active records.
func (s *CostService) LiveCost(ctx context.Context) (LiveCostReport, error) {
	privileged, err := s.LiveCostWithRates(ctx)
	if err != nil {
		return LiveCostReport{}, err
	}
	return SafeLiveCost(privileged), nil
}

// LiveCostWithRates returns the privileged live cost view including
// per-contributor hourly rates. The caller is responsible for verifying
// elevated permission before invoking it.
func (s *CostService) LiveCostWithRates(ctx context.Context) (PrivilegedLiveCostReport, error) {
	if s == nil || s.records == nil {
		return PrivilegedLiveCostReport{}, fmt.Errorf("cost service not configured")
	}

	now := s.now()
	report := PrivilegedLiveCostReport{LiveCostReport: LiveCostReport{GeneratedAt: now}}

	active, err := s.records.ListAllActive(ctx)
	if err != nil {
		return PrivilegedLiveCostReport{}, err
	}
	if len(active) == 0 {
		report.Projects = []ProjectBurn{}
		report.Contributors = []LiveContributor{}
		return report, nil
	}

	profiles := s.resolveProfiles(ctx, recordUserIDs(active))

	type projectAccumulator struct {
		cost         float64
		burnRate     float64
		minutes      int
		contributors map[string]struct{}
	}
	byProject := make(map[string]*projectAccumulator)
	users := make(map[string]struct{})

	for _, record := range active {
		profile, ok := profiles[record.UserID]
		if !ok {
			// Records whose user cannot be resolved are skipped, not errors.
			continue
		}

		minutes := LiveWorkedMinutes(record, now)
		rate := HourlyRate(profile.MonthlySalary)
		cost := float64(minutes) / 60 * rate

		report.TotalCost += cost
		report.TotalBurnRate += rate
		report.TotalMinutes += minutes
		users[record.UserID] = struct{}{}

		report.Contributors = append(report.Contributors, LiveContributor{
			UserID:      record.UserID,
			DisplayName: profile.DisplayName,
			Projects:    append([]string(nil), record.Projects...),
			Minutes:     minutes,
			Cost:        cost,
			HourlyRate:  rate,
		})

		if len(record.Projects) == 0 {
			continue
		}
		costShare := cost / float64(len(record.Projects))
		// Integer minute shares truncate; remainder minutes stay in
		// TotalMinutes but not in any per-project row.
		minuteShare := minutes / len(record.Projects)
		for _, project := range record.Projects {
			acc := byProject[project]
			if acc == nil {
				acc = &projectAccumulator{contributors: make(map[string]struct{})}
				byProject[project] = acc
			}
			acc.cost += costShare
			acc.burnRate += rate
			acc.minutes += minuteShare
			acc.contributors[record.UserID] = struct{}{}
		}
	}

	report.ActiveUsers = len(users)
	report.Projects = make([]ProjectBurn, 0, len(byProject))
	for project, acc := range byProject {
		report.Projects = append(report.Projects, ProjectBurn{
			Project:      project,
			Cost:         acc.cost,
			BurnRate:     acc.burnRate,
			Contributors: len(acc.contributors),
			Minutes:      acc.minutes,
		})
	}
	sort.Slice(report.Projects, func(i, j int) bool {
		if report.Projects[i].Cost == report.Projects[j].Cost {
			return report.Projects[i].Project < report.Projects[j].Project
		}
		return report.Projects[i].Cost > report.Projects[j].Cost
	})
	sort.Slice(report.Contributors, func(i, j int) bool {
		return report.Contributors[i].UserID < report.Contributors[j].UserID
	})

	return report, nil
}

// CostSummary returns the safe historical cost summary for completed records
// in [start, end], optionally filtered to sessions that include project.
func (s *CostService) CostSummary(ctx context.Context, start, end time.Time, project string) (CostSummary, error) {
	privileged, err := s.CostSummaryWithRates(ctx, start, end, project)
	if err != nil {
		return CostSummary{}, err
	}
	return SafeCostSummary(privileged), nil
}

// CostSummaryWithRates returns the privileged historical summary including
// hourly rates and salaries. The caller is responsible for verifying
// elevated permission before invoking it.
func (s *CostService) CostSummaryWithRates(ctx context.Context, start, end time.Time, project string) (PrivilegedCostSummary, error) {
	if s == nil || s.records == nil {
		return PrivilegedCostSummary{}, fmt.Errorf("cost service not configured")
	}
	if end.Before(start) {
		vErr := &ValidationError{}
		vErr.add("range", "start must not be after end")
		return PrivilegedCostSummary{}, vErr
	}

	summary := PrivilegedCostSummary{
		Start:         start,
		End:           end,
		Project:       project,
		Projects:      []PrivilegedProjectCost{},
		TopPerformers: []PrivilegedPerformer{},
		Daily:         []DailyCost{},
		Monthly:       []MonthlyCost{},
	}

	records, err := s.records.ListCompletedInRange(ctx, start, end)
	if err != nil {
		return PrivilegedCostSummary{}, err
	}
	if project != "" {
		records = filterRecordsByProject(records, project)
	}
	if len(records) == 0 {
		return summary, nil
	}

	profiles := s.resolveProfiles(ctx, recordUserIDs(records))

	type developerAccumulator struct {
		profile persistence.UserProfile
		cost    float64
		hours   float64
	}
	type projectAccumulator struct {
		cost       float64
		hours      float64
		developers map[string]*developerAccumulator
	}

	byProject := make(map[string]*projectAccumulator)
	byUser := make(map[string]*developerAccumulator)
	daily := make(map[string]float64)
	monthly := make(map[string]float64)

	for _, record := range records {
		profile, ok := profiles[record.UserID]
		if !ok {
			continue
		}

		rate := HourlyRate(profile.MonthlySalary)
		hours := float64(record.DurationMinutes) / 60
		cost := hours * rate

		summary.TotalCost += cost
		summary.TotalHours += hours
		daily[record.StartTime.Format(dayFormat)] += cost
		monthly[record.StartTime.Format(monthFormat)] += cost

		if record.IsOvertime {
			summary.Overtime.OvertimeCost += cost
			summary.Overtime.OvertimeHours += hours
		} else {
			summary.Overtime.RegularCost += cost
			summary.Overtime.RegularHours += hours
		}

		user := byUser[record.UserID]
		if user == nil {
			user = &developerAccumulator{profile: profile}
			byUser[record.UserID] = user
		}
		user.cost += cost
		user.hours += hours

		if len(record.Projects) == 0 {
			continue
		}
		// Cost and hours split evenly across the session's projects, not
		// time-weighted. Downstream consumers depend on these numbers.
		costShare := cost / float64(len(record.Projects))
		hourShare := hours / float64(len(record.Projects))
		for _, name := range record.Projects {
			acc := byProject[name]
			if acc == nil {
				acc = &projectAccumulator{developers: make(map[string]*developerAccumulator)}
				byProject[name] = acc
			}
			acc.cost += costShare
			acc.hours += hourShare

			dev := acc.developers[record.UserID]
			if dev == nil {
				dev = &developerAccumulator{profile: profile}
				acc.developers[record.UserID] = dev
			}
			dev.cost += costShare
			dev.hours += hourShare
		}
	}

	for name, acc := range byProject {
		projectCost := PrivilegedProjectCost{
			Project: name,
			Cost:    acc.cost,
			Hours:   acc.hours,
		}
		for _, dev := range acc.developers {
			projectCost.Developers = append(projectCost.Developers, PrivilegedDeveloperCost{
				DeveloperCost: DeveloperCost{
					UserID:      dev.profile.ID,
					DisplayName: dev.profile.DisplayName,
					Cost:        dev.cost,
					Hours:       dev.hours,
				},
				HourlyRate:    HourlyRate(dev.profile.MonthlySalary),
				MonthlySalary: dev.profile.MonthlySalary,
			})
		}
		sort.Slice(projectCost.Developers, func(i, j int) bool {
			if projectCost.Developers[i].Hours == projectCost.Developers[j].Hours {
				return projectCost.Developers[i].UserID < projectCost.Developers[j].UserID
			}
			return projectCost.Developers[i].Hours > projectCost.Developers[j].Hours
		})
		summary.Projects = append(summary.Projects, projectCost)
	}
	sort.Slice(summary.Projects, func(i, j int) bool {
		if summary.Projects[i].Cost == summary.Projects[j].Cost {
			return summary.Projects[i].Project < summary.Projects[j].Project
		}
		return summary.Projects[i].Cost > summary.Projects[j].Cost
	})

	for _, user := range byUser {
		summary.TopPerformers = append(summary.TopPerformers, PrivilegedPerformer{
			Performer: Performer{
				UserID:      user.profile.ID,
				DisplayName: user.profile.DisplayName,
				Hours:       user.hours,
				Cost:        user.cost,
			},
			HourlyRate: HourlyRate(user.profile.MonthlySalary),
		})
	}
	sort.Slice(summary.TopPerformers, func(i, j int) bool {
		if summary.TopPerformers[i].Hours == summary.TopPerformers[j].Hours {
			return summary.TopPerformers[i].UserID < summary.TopPerformers[j].UserID
		}
		return summary.TopPerformers[i].Hours > summary.TopPerformers[j].Hours
	})
	if len(summary.TopPerformers) > topPerformerLimit {
		summary.TopPerformers = summary.TopPerformers[:topPerformerLimit]
	}

	summary.Daily = sortedDailyCosts(daily)
	summary.Monthly = sortedMonthlyCosts(monthly)

	return summary, nil
}

// DailyCosts returns the ordered daily cost series for the range, the input
// the forecast engine regresses over.
func (s *CostService) DailyCosts(ctx context.Context, start, end time.Time, project string) ([]DailyCost, error) {
	summary, err := s.CostSummaryWithRates(ctx, start, end, project)
	if err != nil {
		return nil, err
	}
	return summary.Daily, nil
}

// resolveProfiles resolves user IDs through the cache and the directory. A
// directory failure is logged and swallowed: callers proceed with whatever
// profiles are known and skip records that stay unresolved, so a directory
// outage degrades the report instead of aborting it.
func (s *CostService) resolveProfiles(ctx context.Context, userIDs []string) map[string]persistence.UserProfile {
	out := make(map[string]persistence.UserProfile, len(userIDs))
	var missing []string
	for _, id := range userIDs {
		if profile, ok := s.profiles.Get(id); ok {
			out[id] = profile
			continue
		}
		missing = append(missing, id)
	}
	if len(missing) == 0 || s.directory == nil {
		return out
	}

	resolved, err := s.directory.ListProfiles(ctx, missing)
	if err != nil {
		serviceLogger(ctx, s.logger, "cost", "resolve_profiles", "unresolved", len(missing)).
			WarnContext(ctx, "user directory lookup failed", "error", err)
		return out
	}
	for id, profile := range resolved {
		out[id] = profile
		s.profiles.Store(profile)
	}
	return out
}

func recordUserIDs(records []persistence.TimeRecord) []string {
	seen := make(map[string]struct{}, len(records))
	out := make([]string, 0, len(records))
	for _, record := range records {
		if _, ok := seen[record.UserID]; ok {
			continue
		}
		seen[record.UserID] = struct{}{}
		out = append(out, record.UserID)
	}
	return out
}

func filterRecordsByProject(records []persistence.TimeRecord, project string) []persistence.TimeRecord {
	out := make([]persistence.TimeRecord, 0, len(records))
	for _, record := range records {
		for _, name := range record.Projects {
			if name == project {
				out = append(out, record)
				break
			}
		}
	}
	return out
}

func sortedDailyCosts(daily map[string]float64) []DailyCost {
	out := make([]DailyCost, 0, len(daily))
	for date, cost := range daily {
		out = append(out, DailyCost{Date: date, Cost: cost})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

func sortedMonthlyCosts(monthly map[string]float64) []MonthlyCost {
	out := make([]MonthlyCost, 0, len(monthly))
	for month, cost := range monthly {
		out = append(out, MonthlyCost{Month: month, Cost: cost})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}
