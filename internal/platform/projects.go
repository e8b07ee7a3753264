package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/kevinfinalboss/cmlporter/pkg/types"
)

// Ping checks that the API is reachable with the configured credentials.
func (c *Client) Ping(ctx context.Context) error {
	endpoint := fmt.Sprintf("/api/v1/users/%s", url.PathEscape(c.username))
	resp, err := c.makeRequest(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	return expectStatus(resp, http.MethodGet, endpoint, http.StatusOK)
}

// ListUserProjects returns every project visible to username, walking the
// offset-paginated v1 listing.
func (c *Client) ListUserProjects(ctx context.Context, username string) ([]types.UserProject, error) {
	var all []types.UserProject
	offset := 0

	for {
		params := url.Values{}
		params.Set("limit", strconv.Itoa(DefaultPage))
		params.Set("offset", strconv.Itoa(offset))
		endpoint := fmt.Sprintf("/api/v1/users/%s/projects?%s", url.PathEscape(username), params.Encode())

		resp, err := c.makeRequest(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		if err := expectStatus(resp, http.MethodGet, endpoint, http.StatusOK); err != nil {
			return nil, err
		}

		var page []types.UserProject
		if err := json.Unmarshal(resp.Body, &page); err != nil {
			return nil, fmt.Errorf("failed to decode project list: %w", err)
		}

		all = append(all, page...)
		if len(page) < DefaultPage {
			return all, nil
		}
		offset += len(page)
	}
}

// FindProjectsByName searches the v2 listing and keeps exact name matches.
func (c *Client) FindProjectsByName(ctx context.Context, name string) ([]types.Project, error) {
	filter, err := json.Marshal(map[string]string{"name": name})
	if err != nil {
		return nil, err
	}

	var matches []types.Project
	token := ""
	for {
		params := url.Values{}
		params.Set("search_filter", string(filter))
		params.Set("page_size", strconv.Itoa(DefaultPage))
		if token != "" {
			params.Set("page_token", token)
		}
		endpoint := "/api/v2/projects?" + params.Encode()

		resp, err := c.makeRequest(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		if err := expectStatus(resp, http.MethodGet, endpoint, http.StatusOK); err != nil {
			return nil, err
		}

		var page types.ProjectPage
		if err := json.Unmarshal(resp.Body, &page); err != nil {
			return nil, fmt.Errorf("failed to decode project search: %w", err)
		}
		for _, p := range page.Projects {
			if p.Name == name {
				matches = append(matches, p)
			}
		}

		if page.NextPageToken == "" {
			return matches, nil
		}
		token = page.NextPageToken
	}
}

func (c *Client) GetProject(ctx context.Context, projectID string) (map[string]interface{}, error) {
	endpoint := "/api/v2/projects/" + url.PathEscape(projectID)
	resp, err := c.makeRequest(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	if err := expectStatus(resp, http.MethodGet, endpoint, http.StatusOK); err != nil {
		return nil, err
	}

	var doc map[string]interface{}
	if err := json.Unmarshal(resp.Body, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode project %s: %w", projectID, err)
	}
	return doc, nil
}

func (c *Client) CreateProject(ctx context.Context, body map[string]interface{}) (string, error) {
	endpoint := "/api/v2/projects"
	resp, err := c.makeRequest(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return "", err
	}
	if err := expectStatus(resp, http.MethodPost, endpoint, http.StatusOK, http.StatusCreated); err != nil {
		return "", err
	}

	var created types.Project
	if err := json.Unmarshal(resp.Body, &created); err != nil {
		return "", fmt.Errorf("failed to decode created project: %w", err)
	}
	if created.ID == "" {
		return "", fmt.Errorf("project creation returned no id")
	}
	return created.ID, nil
}

func (c *Client) PatchProject(ctx context.Context, projectID string, patch map[string]interface{}) error {
	endpoint := "/api/v2/projects/" + url.PathEscape(projectID)
	resp, err := c.makeRequest(ctx, http.MethodPatch, endpoint, patch)
	if err != nil {
		return err
	}
	return expectStatus(resp, http.MethodPatch, endpoint, http.StatusOK, http.StatusNoContent)
}
