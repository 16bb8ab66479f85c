package pipelineprovider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	logger "github.com/sirupsen/logrus"
)

// Client talks to the pipeline-provider API that runs deployments. It only
// covers the two calls the engine needs: a pipeline existence probe and the
// fire action.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// GetPipeline reports whether the deployment pipeline exists downstream. A
// 404 is the expected answer for declared-but-unprovisioned targets.
func (c *Client) GetPipeline(ctx context.Context, cluster, namespace, name string) (bool, error) {
	endpoint := fmt.Sprintf("%s/clusters/%s/namespaces/%s/pipelines/%s",
		c.baseURL, url.PathEscape(cluster), url.PathEscape(namespace), url.PathEscape(name))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, errors.Wrapf(err, "invalid pipeline endpoint %s", endpoint)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, errors.Wrapf(err, "failed to probe pipeline %s/%s/%s", cluster, namespace, name)
	}
	defer resp.Body.Close()
	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, errors.Errorf("pipeline probe %s/%s/%s returned status %d", cluster, namespace, name, resp.StatusCode)
	}
}

// Fire submits the rendered manifest for deployment.
func (c *Client) Fire(ctx context.Context, cluster, namespace, manifest string) error {
	endpoint := fmt.Sprintf("%s/clusters/%s/namespaces/%s/trigger",
		c.baseURL, url.PathEscape(cluster), url.PathEscape(namespace))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(manifest))
	if err != nil {
		return errors.Wrapf(err, "invalid trigger endpoint %s", endpoint)
	}
	req.Header.Set("Content-Type", "application/yaml")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrapf(err, "failed to fire trigger for %s/%s", cluster, namespace)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errors.Errorf("trigger for %s/%s returned status %d", cluster, namespace, resp.StatusCode)
	}
	logger.WithField("func", "Fire").Infof("fired deployment trigger for %s/%s", cluster, namespace)
	return nil
}
