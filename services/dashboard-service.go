package services

import (
	"math"

	"task-dashboard/models"
)

// UnassignedOwner is the bucket for tasks without a responsible party.
const UnassignedOwner = "Unassigned"

// chartStatuses are the statuses the dashboard charts break down; on-hold
// tasks only count toward the total.
var chartStatuses = []models.TaskStatus{
	models.StatusPending,
	models.StatusInProgress,
	models.StatusDone,
}

type StatusCount struct {
	Status models.TaskStatus `json:"status"`
	Count  int               `json:"count"`
}

type OwnerCount struct {
	Owner string `json:"owner"`
	Count int    `json:"count"`
}

// DashboardSummary is a pure aggregation over one group's task snapshot. It is
// recomputed from scratch on every request and never stored.
type DashboardSummary struct {
	Group             string        `json:"group"`
	Total             int           `json:"total"`
	Done              int           `json:"done"`
	CompletionPercent float64       `json:"completionPercent"`
	ByStatus          []StatusCount `json:"byStatus"`
	ByOwner           []OwnerCount  `json:"byOwner"`
}

func BuildDashboard(group string, tasks []models.Task) DashboardSummary {
	summary := DashboardSummary{Group: group, Total: len(tasks)}

	for _, status := range chartStatuses {
		count := 0
		for _, t := range tasks {
			if t.Status == status {
				count++
			}
		}
		summary.ByStatus = append(summary.ByStatus, StatusCount{Status: status, Count: count})
		if status == models.StatusDone {
			summary.Done = count
		}
	}

	counts := map[string]int{}
	var owners []string
	for _, t := range tasks {
		owner := t.Owner
		if owner == "" {
			owner = UnassignedOwner
		}
		if _, ok := counts[owner]; !ok {
			owners = append(owners, owner)
		}
		counts[owner]++
	}
	for _, owner := range owners {
		summary.ByOwner = append(summary.ByOwner, OwnerCount{Owner: owner, Count: counts[owner]})
	}

	if summary.Total > 0 {
		pct := float64(summary.Done) / float64(summary.Total) * 100
		summary.CompletionPercent = math.Round(pct*10) / 10
	}
	return summary
}
