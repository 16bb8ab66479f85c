package upstreamci

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Client reports the latest successful build of an upstream job from a
// Jenkins-compatible instance. The instance is part of the job reference in
// the catalog, not of the client, so one client serves every instance.
type Client struct {
	httpClient *http.Client
}

func NewClient() *Client {
	return &Client{httpClient: &http.Client{Timeout: 30 * time.Second}}
}

type buildState struct {
	ID     string `json:"id"`
	Number int    `json:"number"`
}

// GetJobState returns the identifier of the job's last successful build.
func (c *Client) GetJobState(ctx context.Context, instance, job string) (string, error) {
	endpoint := fmt.Sprintf("%s/job/%s/lastSuccessfulBuild/api/json",
		strings.TrimSuffix(instance, "/"), url.PathEscape(job))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", errors.Wrapf(err, "invalid upstream job endpoint %s", endpoint)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", errors.Wrapf(err, "failed to query job %s on %s", job, instance)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", errors.Errorf("job %s on %s returned status %d", job, instance, resp.StatusCode)
	}
	var state buildState
	if err := json.NewDecoder(resp.Body).Decode(&state); err != nil {
		return "", errors.Wrapf(err, "failed to decode build state of job %s on %s", job, instance)
	}
	if state.ID != "" {
		return state.ID, nil
	}
	return strconv.Itoa(state.Number), nil
}
