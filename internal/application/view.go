package application

// Pure projections from the privileged cost shapes to the safe ones. The
// safe types structurally lack compensation-derived fields, so the default
// entry points cannot leak rate data even if an edge permission check is
// bypassed.

// SafeLiveCost strips per-contributor compensation detail from a privileged
// live cost report.
func SafeLiveCost(privileged PrivilegedLiveCostReport) LiveCostReport {
	safe := privileged.LiveCostReport
	safe.Projects = append([]ProjectBurn(nil), privileged.Projects...)
	if safe.Projects == nil {
		safe.Projects = []ProjectBurn{}
	}
	return safe
}

// SafeCostSummary strips hourly rates and salaries from a privileged
// historical summary.
func SafeCostSummary(privileged PrivilegedCostSummary) CostSummary {
	safe := CostSummary{
		Start:         privileged.Start,
		End:           privileged.End,
		Project:       privileged.Project,
		TotalCost:     privileged.TotalCost,
		TotalHours:    privileged.TotalHours,
		Projects:      make([]ProjectCost, 0, len(privileged.Projects)),
		TopPerformers: make([]Performer, 0, len(privileged.TopPerformers)),
		Daily:         append([]DailyCost(nil), privileged.Daily...),
		Monthly:       append([]MonthlyCost(nil), privileged.Monthly...),
		Overtime:      privileged.Overtime,
	}
	if safe.Daily == nil {
		safe.Daily = []DailyCost{}
	}
	if safe.Monthly == nil {
		safe.Monthly = []MonthlyCost{}
	}

	for _, project := range privileged.Projects {
		developers := make([]DeveloperCost, 0, len(project.Developers))
		for _, dev := range project.Developers {
			developers = append(developers, dev.DeveloperCost)
		}
		safe.Projects = append(safe.Projects, ProjectCost{
			Project:    project.Project,
			Cost:       project.Cost,
			Hours:      project.Hours,
			Developers: developers,
		})
	}

	for _, performer := range privileged.TopPerformers {
		safe.TopPerformers = append(safe.TopPerformers, performer.Performer)
	}

	return safe
}
