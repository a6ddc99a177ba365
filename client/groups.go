package client

import (
	"context"
	"net/http"
	"net/url"

	"task-dashboard/models"
)

// ListGroups fetches the explicitly registered groups. Not every backend
// variant exposes this endpoint; callers treat an error as "listing
// unavailable" and fall back to groups inferred from task membership.
func (c *Client) ListGroups(ctx context.Context) ([]models.Group, error) {
	var groups []models.Group
	if err := c.do(ctx, c.groups, http.MethodGet, "/groups", nil, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

// CreateGroup registers a group and returns the server-confirmed record. The
// backend may normalize the name; the returned name is canonical.
func (c *Client) CreateGroup(ctx context.Context, name string) (models.Group, error) {
	var created models.Group
	payload := map[string]string{"name": name}
	if err := c.do(ctx, c.groups, http.MethodPost, "/groups", payload, &created); err != nil {
		return models.Group{}, err
	}
	if created.Name == "" {
		created.Name = name
	}
	return created, nil
}

// RenameGroup renames a group; the backend cascades the rename to every
// member task server-side.
func (c *Client) RenameGroup(ctx context.Context, oldName, newName string) error {
	payload := map[string]string{"newName": newName}
	return c.do(ctx, c.groups, http.MethodPut, "/groups/"+url.PathEscape(oldName), payload, nil)
}

// DeleteGroup deletes a group; the backend removes every member task with it.
func (c *Client) DeleteGroup(ctx context.Context, name string) error {
	return c.do(ctx, c.groups, http.MethodDelete, "/groups/"+url.PathEscape(name), nil, nil)
}
