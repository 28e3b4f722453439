package application

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func samplePrivilegedLiveReport() PrivilegedLiveCostReport {
	return PrivilegedLiveCostReport{
		LiveCostReport: LiveCostReport{
			GeneratedAt:   time.Date(2024, time.January, 2, 9, 0, 0, 0, time.UTC),
			TotalCost:     100,
			TotalBurnRate: 100,
			TotalMinutes:  60,
			ActiveUsers:   1,
			Projects: []ProjectBurn{
				{Project: "apollo", Cost: 100, BurnRate: 100, Contributors: 1, Minutes: 60},
			},
		},
		Contributors: []LiveContributor{
			{UserID: "user-1", DisplayName: "User One", Projects: []string{"apollo"}, Minutes: 60, Cost: 100, HourlyRate: 100},
		},
	}
}

func samplePrivilegedSummary() PrivilegedCostSummary {
	return PrivilegedCostSummary{
		Start:      time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		End:        time.Date(2024, time.January, 31, 0, 0, 0, 0, time.UTC),
		TotalCost:  250,
		TotalHours: 3,
		Projects: []PrivilegedProjectCost{
			{
				Project: "apollo",
				Cost:    250,
				Hours:   3,
				Developers: []PrivilegedDeveloperCost{
					{
						DeveloperCost: DeveloperCost{UserID: "user-1", DisplayName: "User One", Cost: 250, Hours: 3},
						HourlyRate:    100,
						MonthlySalary: 16000,
					},
				},
			},
		},
		TopPerformers: []PrivilegedPerformer{
			{
				Performer:  Performer{UserID: "user-1", DisplayName: "User One", Hours: 3, Cost: 250},
				HourlyRate: 100,
			},
		},
		Daily:   []DailyCost{{Date: "2024-01-02", Cost: 250}},
		Monthly: []MonthlyCost{{Month: "2024-01", Cost: 250}},
	}
}

func TestSafeLiveCostOmitsCompensationFields(t *testing.T) {
	t.Parallel()

	safe := SafeLiveCost(samplePrivilegedLiveReport())

	payload, err := json.Marshal(safe)
	if err != nil {
		t.Fatalf("failed to marshal safe report: %v", err)
	}
	body := string(payload)
	if strings.Contains(body, "hourlyRate") || strings.Contains(body, "monthlySalary") {
		t.Fatalf("safe live report leaked compensation fields: %s", body)
	}
	if !strings.Contains(body, "totalBurnRate") {
		t.Fatalf("expected aggregate burn rate retained: %s", body)
	}

	if safe.TotalCost != 100 || len(safe.Projects) != 1 {
		t.Fatalf("expected aggregates preserved, got %+v", safe)
	}
}

func TestPrivilegedLiveCostCarriesContributorRates(t *testing.T) {
	t.Parallel()

	payload, err := json.Marshal(samplePrivilegedLiveReport())
	if err != nil {
		t.Fatalf("failed to marshal privileged report: %v", err)
	}
	if !strings.Contains(string(payload), "hourlyRate") {
		t.Fatalf("expected contributor rates in privileged payload: %s", payload)
	}
}

func TestSafeCostSummaryOmitsCompensationFields(t *testing.T) {
	t.Parallel()

	safe := SafeCostSummary(samplePrivilegedSummary())

	payload, err := json.Marshal(safe)
	if err != nil {
		t.Fatalf("failed to marshal safe summary: %v", err)
	}
	body := string(payload)
	if strings.Contains(body, "hourlyRate") || strings.Contains(body, "monthlySalary") {
		t.Fatalf("safe summary leaked compensation fields: %s", body)
	}

	if safe.TotalCost != 250 {
		t.Fatalf("expected total preserved, got %v", safe.TotalCost)
	}
	if len(safe.Projects) != 1 || len(safe.Projects[0].Developers) != 1 {
		t.Fatalf("expected project breakdown preserved, got %+v", safe.Projects)
	}
	if safe.Projects[0].Developers[0].Cost != 250 {
		t.Fatalf("expected developer cost preserved, got %+v", safe.Projects[0].Developers[0])
	}
	if len(safe.TopPerformers) != 1 || safe.TopPerformers[0].Hours != 3 {
		t.Fatalf("expected performers preserved, got %+v", safe.TopPerformers)
	}
	if len(safe.Daily) != 1 || len(safe.Monthly) != 1 {
		t.Fatalf("expected series preserved, got %+v", safe)
	}
}
