package apcloudy

import (
	"context"
	"fmt"
	"net/http"
)

// ProjectsService manages project resources.
type ProjectsService struct {
	client *Client
}

// UpdateProjectRequest carries the mutable project fields. Nil pointers
// leave the corresponding field untouched on the platform side.
type UpdateProjectRequest struct {
	Name        *string        `json:"name,omitempty"`
	Description *string        `json:"description,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// List returns all projects accessible with the configured API key.
func (s *ProjectsService) List(ctx context.Context) ([]Project, error) {
	var envelope struct {
		Projects []Project `json:"projects"`
	}
	if err := s.client.do(ctx, http.MethodGet, "projects/list", nil, nil, &envelope); err != nil {
		return nil, err
	}
	return envelope.Projects, nil
}

// Get fetches a single project by id.
func (s *ProjectsService) Get(ctx context.Context, projectID string) (*Project, error) {
	if err := requireID("project id", projectID); err != nil {
		return nil, err
	}
	var project Project
	err := s.client.do(ctx, http.MethodGet, "project/"+projectID, nil, nil, &project)
	if err != nil {
		return nil, notFound(err, "project", projectID)
	}
	return &project, nil
}

// Create creates a new project.
func (s *ProjectsService) Create(ctx context.Context, name, description string) (*Project, error) {
	if err := requireID("project name", name); err != nil {
		return nil, err
	}
	body := map[string]any{"name": name, "description": description}
	var project Project
	if err := s.client.do(ctx, http.MethodPost, "projects/create", body, nil, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

// Update modifies a project and returns the new snapshot.
func (s *ProjectsService) Update(ctx context.Context, projectID string, req UpdateProjectRequest) (*Project, error) {
	if err := requireID("project id", projectID); err != nil {
		return nil, err
	}
	var project Project
	err := s.client.do(ctx, http.MethodPut, "project/"+projectID, req, nil, &project)
	if err != nil {
		return nil, notFound(err, "project", projectID)
	}
	return &project, nil
}

// Delete removes a project and everything under it.
func (s *ProjectsService) Delete(ctx context.Context, projectID string) error {
	if err := requireID("project id", projectID); err != nil {
		return err
	}
	err := s.client.do(ctx, http.MethodDelete, "project/"+projectID, nil, nil, nil)
	if err != nil {
		return notFound(err, "project", projectID)
	}
	s.client.logger.Info().Str("project_id", projectID).Msg("Deleted project")
	return nil
}

// String implements fmt.Stringer for log output.
func (p Project) String() string {
	return fmt.Sprintf("%s (%s)", p.Name, p.ID)
}
