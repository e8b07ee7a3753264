package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

type ArtifactKind string

const (
	ArtifactJobs         ArtifactKind = "jobs"
	ArtifactModels       ArtifactKind = "models"
	ArtifactApplications ArtifactKind = "applications"
)

var ArtifactKinds = []ArtifactKind{ArtifactJobs, ArtifactModels, ArtifactApplications}

// ListArtifacts returns every job, model or application of a project.
func (c *Client) ListArtifacts(ctx context.Context, projectID string, kind ArtifactKind) ([]map[string]interface{}, error) {
	var all []map[string]interface{}
	token := ""

	for {
		params := url.Values{}
		params.Set("page_size", strconv.Itoa(DefaultPage))
		if token != "" {
			params.Set("page_token", token)
		}
		endpoint := fmt.Sprintf("/api/v2/projects/%s/%s?%s", url.PathEscape(projectID), kind, params.Encode())

		resp, err := c.makeRequest(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		if err := expectStatus(resp, http.MethodGet, endpoint, http.StatusOK); err != nil {
			return nil, err
		}

		var page map[string]json.RawMessage
		if err := json.Unmarshal(resp.Body, &page); err != nil {
			return nil, fmt.Errorf("failed to decode %s page: %w", kind, err)
		}

		var items []map[string]interface{}
		if raw, ok := page[string(kind)]; ok {
			if err := json.Unmarshal(raw, &items); err != nil {
				return nil, fmt.Errorf("failed to decode %s: %w", kind, err)
			}
		}
		all = append(all, items...)

		token = ""
		if raw, ok := page["next_page_token"]; ok {
			_ = json.Unmarshal(raw, &token)
		}
		if token == "" {
			return all, nil
		}
	}
}

func (c *Client) CreateArtifact(ctx context.Context, projectID string, kind ArtifactKind, body map[string]interface{}) error {
	endpoint := fmt.Sprintf("/api/v2/projects/%s/%s", url.PathEscape(projectID), kind)
	resp, err := c.makeRequest(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return err
	}
	return expectStatus(resp, http.MethodPost, endpoint, http.StatusOK, http.StatusCreated)
}
