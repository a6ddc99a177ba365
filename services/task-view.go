package services

import (
	"math"
	"sort"
	"strings"

	"task-dashboard/models"
)

// PriorityAll is the sentinel that disables the priority filter.
const PriorityAll = "all"

// Created-date sort states. SortNone means the default group ordering.
const (
	SortNone = ""
	SortDesc = "desc"
	SortAsc  = "asc"
)

// NextCreatedSort cycles the created-date sort toggle: unset -> descending ->
// ascending -> descending on every further press.
func NextCreatedSort(current string) string {
	switch current {
	case SortNone:
		return SortDesc
	case SortDesc:
		return SortAsc
	default:
		return SortDesc
	}
}

// TaskFilter is the presentation state of the task view. It never mutates the
// store; ApplyFilter derives a fresh slice from a snapshot.
type TaskFilter struct {
	Group         string `json:"group"`
	Priority      string `json:"priority"`
	Owner         string `json:"owner"`
	Title         string `json:"title"`
	ShowCompleted bool   `json:"showCompleted"`
	CreatedSort   string `json:"createdSort"`
}

func (f TaskFilter) matches(t models.Task) bool {
	if t.Group != f.Group {
		return false
	}
	if f.Priority != "" && f.Priority != PriorityAll && t.Priority != models.Priority(f.Priority) {
		return false
	}
	if f.Owner != "" && !strings.Contains(strings.ToLower(t.Owner), strings.ToLower(f.Owner)) {
		return false
	}
	if f.Title != "" && !strings.Contains(strings.ToLower(t.Title), strings.ToLower(f.Title)) {
		return false
	}
	if f.ShowCompleted {
		return t.Status == models.StatusDone
	}
	return t.Status != models.StatusDone
}

// ApplyFilter returns the filtered, sorted view of tasks for the given filter
// state. The input slice is left untouched.
func ApplyFilter(tasks []models.Task, f TaskFilter) []models.Task {
	var view []models.Task
	for _, t := range tasks {
		if f.matches(t) {
			view = append(view, t)
		}
	}
	SortTasks(view, f.CreatedSort)
	return view
}

// orderKey sorts tasks without an explicit order after every task with one.
func orderKey(t models.Task) int {
	if t.Order != nil {
		return *t.Order
	}
	return math.MaxInt
}

// SortTasks sorts in place. With createdSort unset, tasks sort ascending by
// explicit order and break ties by creation time, newest first. An explicit
// createdSort overrides that with a pure creation-time sort.
func SortTasks(tasks []models.Task, createdSort string) {
	switch createdSort {
	case SortDesc:
		sort.SliceStable(tasks, func(i, j int) bool {
			return tasks[i].CreatedTime().After(tasks[j].CreatedTime())
		})
	case SortAsc:
		sort.SliceStable(tasks, func(i, j int) bool {
			return tasks[i].CreatedTime().Before(tasks[j].CreatedTime())
		})
	default:
		sort.SliceStable(tasks, func(i, j int) bool {
			oi, oj := orderKey(tasks[i]), orderKey(tasks[j])
			if oi != oj {
				return oi < oj
			}
			return tasks[i].CreatedTime().After(tasks[j].CreatedTime())
		})
	}
}
