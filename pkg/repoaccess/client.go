package repoaccess

import (
	"context"
	"net/url"
	"strings"

	"github.com/google/go-github/github"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"
)

// Client wraps the GitHub API for one repository.
type Client struct {
	owner      string
	repository string
	gh         *github.Client
}

func NewClient(accessToken, repositoryURL string) (Client, error) {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken})
	tc := oauth2.NewClient(context.Background(), ts)
	owner, repository, err := splitOwnerRepository(repositoryURL)
	if err != nil {
		return Client{}, err
	}
	return Client{
		owner:      owner,
		repository: repository,
		gh:         github.NewClient(tc),
	}, nil
}

func splitOwnerRepository(raw string) (owner, repository string, err error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", errors.Wrapf(err, "invalid repository url %s", raw)
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 2 {
		return "", "", errors.Errorf("repository url %s has no owner/name path", raw)
	}
	return parts[0], parts[1], nil
}

// ResolveCommit returns the commit id a ref currently points at.
func (c *Client) ResolveCommit(ctx context.Context, ref string) (string, error) {
	sha, _, err := c.gh.Repositories.GetCommitSHA1(ctx, c.owner, c.repository, ref, "")
	if err != nil {
		return "", errors.Wrapf(err, "failed to resolve ref %s in %s/%s", ref, c.owner, c.repository)
	}
	return sha, nil
}

// GetFileContent fetches one file at a ref.
func (c *Client) GetFileContent(ctx context.Context, path, ref string) ([]byte, error) {
	file, _, _, err := c.gh.Repositories.GetContents(ctx, c.owner, c.repository, path, &github.RepositoryContentGetOptions{Ref: ref})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s@%s from %s/%s", path, ref, c.owner, c.repository)
	}
	if file == nil {
		return nil, errors.Errorf("%s@%s in %s/%s is not a file", path, ref, c.owner, c.repository)
	}
	content, err := file.GetContent()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decode %s@%s", path, ref)
	}
	return []byte(content), nil
}
