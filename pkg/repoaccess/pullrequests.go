package repoaccess

import (
	"context"

	"github.com/google/go-github/github"
	"github.com/pkg/errors"
)

type PullRequest struct {
	Number int
	Title  string
	URL    string
}

func (c *Client) GetOpenPullRequest(ctx context.Context, fromBranch, toBranch string) (*PullRequest, error) {
	prs, _, err := c.gh.PullRequests.List(ctx, c.owner, c.repository, &github.PullRequestListOptions{
		Head: fromBranch,
		Base: toBranch,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list pull requests %s -> %s in %s/%s", fromBranch, toBranch, c.owner, c.repository)
	}
	if len(prs) == 0 {
		return nil, nil
	}
	return &PullRequest{
		Number: *prs[0].Number,
		Title:  *prs[0].Title,
		URL:    *prs[0].HTMLURL,
	}, nil
}

func (c *Client) EditPullRequest(ctx context.Context, pr *PullRequest, title, body string) error {
	_, _, err := c.gh.PullRequests.Edit(ctx, c.owner, c.repository, pr.Number, &github.PullRequest{
		Title: &title,
		Body:  &body,
	})
	return errors.Wrapf(err, "failed to edit pull request %d in %s/%s", pr.Number, c.owner, c.repository)
}

func (c *Client) CreatePullRequest(ctx context.Context, fromBranch, toBranch, title, body string) (*PullRequest, error) {
	pr, _, err := c.gh.PullRequests.Create(ctx, c.owner, c.repository, &github.NewPullRequest{
		Title: &title,
		Head:  &fromBranch,
		Base:  &toBranch,
		Body:  &body,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open pull request %s -> %s in %s/%s", fromBranch, toBranch, c.owner, c.repository)
	}
	return &PullRequest{
		Number: *pr.Number,
		Title:  *pr.Title,
		URL:    *pr.HTMLURL,
	}, nil
}
