package repoaccess

import (
	"context"
	"fmt"

	"github.com/google/go-github/github"
	"github.com/pkg/errors"
)

func (c *Client) BranchExists(ctx context.Context, branch string) (bool, error) {
	found, resp, err := c.gh.Repositories.GetBranch(ctx, c.owner, c.repository, branch)
	if err != nil && (resp == nil || resp.StatusCode != 404) {
		return false, errors.Wrapf(err, "failed to look up branch %s in %s/%s", branch, c.owner, c.repository)
	}
	return found != nil, nil
}

// CreateBranch branches off the tip of sourceBranch.
func (c *Client) CreateBranch(ctx context.Context, sourceBranch, targetBranch string) error {
	source, _, err := c.gh.Repositories.GetBranch(ctx, c.owner, c.repository, sourceBranch)
	if err != nil {
		return errors.Wrapf(err, "failed to read source branch %s in %s/%s", sourceBranch, c.owner, c.repository)
	}
	_, _, err = c.gh.Git.CreateRef(ctx, c.owner, c.repository, &github.Reference{
		Ref:    github.String(fmt.Sprintf("refs/heads/%s", targetBranch)),
		Object: &github.GitObject{SHA: source.Commit.SHA},
	})
	return errors.Wrapf(err, "failed to create branch %s in %s/%s", targetBranch, c.owner, c.repository)
}

func (c *Client) DeleteBranch(ctx context.Context, branch string) error {
	_, err := c.gh.Git.DeleteRef(ctx, c.owner, c.repository, fmt.Sprintf("refs/heads/%s", branch))
	return errors.Wrapf(err, "failed to delete branch %s in %s/%s", branch, c.owner, c.repository)
}
