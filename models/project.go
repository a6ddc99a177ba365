package models

type ProjectStatus string

const (
	ProjectPending         ProjectStatus = "pending"
	ProjectInProgress      ProjectStatus = "in-progress"
	ProjectInTesting       ProjectStatus = "in-testing"
	ProjectPendingApproval ProjectStatus = "pending-approval"
	ProjectDone            ProjectStatus = "done"
)

// BoardPipeline is the ordered set of board columns.
var BoardPipeline = []ProjectStatus{
	ProjectPending,
	ProjectInProgress,
	ProjectInTesting,
	ProjectPendingApproval,
	ProjectDone,
}

func (s ProjectStatus) IsValid() bool {
	for _, status := range BoardPipeline {
		if s == status {
			return true
		}
	}
	return false
}

// Project is a board entity. It has no grouping concept; its position inside
// a status column is implicit in list order.
type Project struct {
	ID     string        `json:"_id"`
	Name   string        `json:"name"`
	Owner  string        `json:"owner"`
	Status ProjectStatus `json:"status"`
}
