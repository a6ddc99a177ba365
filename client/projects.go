package client

import (
	"context"
	"net/http"
	"net/url"

	"task-dashboard/models"
)

func (c *Client) ListProjects(ctx context.Context) ([]models.Project, error) {
	var projects []models.Project
	if err := c.do(ctx, c.projects, http.MethodGet, "/projects", nil, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

func (c *Client) CreateProject(ctx context.Context, draft models.Project) (models.Project, error) {
	var created models.Project
	if err := c.do(ctx, c.projects, http.MethodPost, "/projects", draft, &created); err != nil {
		return models.Project{}, err
	}
	return created, nil
}

func (c *Client) UpdateProject(ctx context.Context, id string, project models.Project) (models.Project, error) {
	var updated models.Project
	if err := c.do(ctx, c.projects, http.MethodPut, "/projects/"+url.PathEscape(id), project, &updated); err != nil {
		return models.Project{}, err
	}
	return updated, nil
}

func (c *Client) DeleteProject(ctx context.Context, id string) error {
	return c.do(ctx, c.projects, http.MethodDelete, "/projects/"+url.PathEscape(id), nil, nil)
}
