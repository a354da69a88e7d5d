package apcloudy

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
)

// SpidersService manages spiders within projects. Every operation is scoped
// to a project id.
type SpidersService struct {
	client *Client
}

// List returns all spiders deployed to the project.
func (s *SpidersService) List(ctx context.Context, projectID string) ([]Spider, error) {
	if err := requireID("project id", projectID); err != nil {
		return nil, err
	}
	query := url.Values{"project": {projectID}}
	var envelope struct {
		Spiders []Spider `json:"spiders"`
	}
	if err := s.client.do(ctx, http.MethodGet, "spiders/list", nil, query, &envelope); err != nil {
		return nil, err
	}
	return envelope.Spiders, nil
}

// Get fetches a single spider by name.
func (s *SpidersService) Get(ctx context.Context, projectID, name string) (*Spider, error) {
	if err := requireID("project id", projectID); err != nil {
		return nil, err
	}
	if err := requireID("spider name", name); err != nil {
		return nil, err
	}
	query := url.Values{"project": {projectID}}
	var spider Spider
	err := s.client.do(ctx, http.MethodGet, "spiders/"+name, nil, query, &spider)
	if err != nil {
		return nil, notFound(err, "spider", name)
	}
	return &spider, nil
}

// Deploy uploads spider code to the project. The code is sent as a
// multipart file together with the serialized settings. Deploying an
// existing spider name replaces the previous version.
func (s *SpidersService) Deploy(ctx context.Context, projectID, name string, code io.Reader, settings map[string]any) error {
	if err := requireID("project id", projectID); err != nil {
		return err
	}
	if err := requireID("spider name", name); err != nil {
		return err
	}

	form := map[string]string{
		"project":     projectID,
		"spider_name": name,
	}
	if len(settings) > 0 {
		encoded, err := json.Marshal(settings)
		if err != nil {
			return &ValidationError{Field: "settings", Reason: err.Error()}
		}
		form["settings"] = string(encoded)
	}

	var result struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	if err := s.client.upload(ctx, "spiders/upload", "spider_file", name, code, form, &result); err != nil {
		return notFound(err, "project", projectID)
	}
	if !result.Success {
		return &APIError{Message: result.Message}
	}
	s.client.logger.Info().Str("project_id", projectID).Str("spider", name).Msg("Deployed spider")
	return nil
}

// Update replaces the spider's settings without re-uploading code.
func (s *SpidersService) Update(ctx context.Context, projectID, name string, settings map[string]any) (*Spider, error) {
	if err := requireID("project id", projectID); err != nil {
		return nil, err
	}
	if err := requireID("spider name", name); err != nil {
		return nil, err
	}
	body := map[string]any{"project": projectID, "settings": settings}
	var spider Spider
	err := s.client.do(ctx, http.MethodPut, "spiders/"+name, body, nil, &spider)
	if err != nil {
		return nil, notFound(err, "spider", name)
	}
	return &spider, nil
}

// Delete removes a spider from the project.
func (s *SpidersService) Delete(ctx context.Context, projectID, name string) error {
	if err := requireID("project id", projectID); err != nil {
		return err
	}
	if err := requireID("spider name", name); err != nil {
		return err
	}
	body := map[string]any{"project": projectID}
	err := s.client.do(ctx, http.MethodDelete, "spiders/"+name, body, nil, nil)
	if err != nil {
		return notFound(err, "spider", name)
	}
	s.client.logger.Info().Str("project_id", projectID).Str("spider", name).Msg("Deleted spider")
	return nil
}
