package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/kevinfinalboss/cmlporter/pkg/types"
)

// ListRuntimes fetches one page of the runtime catalog. A nil page with a nil
// error means the server answered without a body.
func (c *Client) ListRuntimes(ctx context.Context, pageToken string) (*types.RuntimePage, error) {
	params := url.Values{}
	params.Set("page_size", strconv.Itoa(DefaultPage))
	if pageToken != "" {
		params.Set("page_token", pageToken)
	}
	endpoint := "/api/v2/runtimes?" + params.Encode()

	resp, err := c.makeRequest(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}
	if err := expectStatus(resp, http.MethodGet, endpoint, http.StatusOK); err != nil {
		return nil, err
	}

	trimmed := bytes.TrimSpace(resp.Body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) || bytes.Equal(trimmed, []byte("{}")) {
		return nil, nil
	}

	var page types.RuntimePage
	if err := json.Unmarshal(trimmed, &page); err != nil {
		return nil, fmt.Errorf("failed to decode runtimes page: %w", err)
	}
	return &page, nil
}
