package client

import (
	"context"
	"net/http"
	"net/url"

	"task-dashboard/models"
)

func (c *Client) ListTasks(ctx context.Context) ([]models.Task, error) {
	var tasks []models.Task
	if err := c.do(ctx, c.tasks, http.MethodGet, "/tasks", nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// CreateTask sends the draft and returns the canonical record with the
// server-assigned identifier and timestamp.
func (c *Client) CreateTask(ctx context.Context, draft models.Task) (models.Task, error) {
	var created models.Task
	if err := c.do(ctx, c.tasks, http.MethodPost, "/tasks", draft, &created); err != nil {
		return models.Task{}, err
	}
	return created, nil
}

// UpdateTask sends the full updated record and returns the canonical one; the
// server may normalize fields, so the response wins over the local copy.
func (c *Client) UpdateTask(ctx context.Context, id string, task models.Task) (models.Task, error) {
	var updated models.Task
	if err := c.do(ctx, c.tasks, http.MethodPut, "/tasks/"+url.PathEscape(id), task, &updated); err != nil {
		return models.Task{}, err
	}
	return updated, nil
}

func (c *Client) DeleteTask(ctx context.Context, id string) error {
	return c.do(ctx, c.tasks, http.MethodDelete, "/tasks/"+url.PathEscape(id), nil, nil)
}
