package github

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// rawMediaType asks the contents API for the file bytes instead of JSON
const rawMediaType = "application/vnd.github.raw+json"

// GetConfigFile returns the raw contents of path on the default branch.
// A missing file returns nil, nil.
func (c *Client) GetConfigFile(ctx context.Context, owner, repo, path string) ([]byte, error) {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	endpoint := fmt.Sprintf("%s/repos/%s/%s/contents/%s",
		strings.TrimRight(c.baseURL, "/"), owner, repo, strings.Join(segments, "/"))

	req, err := c.NewRequest(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", rawMediaType)

	resp, err := c.Do(req, nil)
	if err != nil {
		if IsNotFoundError(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch %s: %w", path, err)
	}

	data, err := resp.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}
