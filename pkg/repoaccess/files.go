package repoaccess

import (
	"context"

	"github.com/google/go-github/github"
	"github.com/pkg/errors"
	logger "github.com/sirupsen/logrus"
)

const commitAuthorName = "deploykit-automation"
const commitAuthorEmail = "automation@deploykit.invalid"

type RepositoryFile struct {
	Path    string
	Content string
	SHA     string
}

// GetFile fetches one file from a branch. A missing file is not an error;
// the returned pointer is nil.
func (c *Client) GetFile(ctx context.Context, branch, path string) (*RepositoryFile, error) {
	file, _, resp, err := c.gh.Repositories.GetContents(ctx, c.owner, c.repository, path, &github.RepositoryContentGetOptions{Ref: branch})
	if resp != nil && resp.StatusCode == 404 {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s@%s from %s/%s", path, branch, c.owner, c.repository)
	}
	if file == nil {
		return nil, errors.Errorf("%s@%s in %s/%s is a directory", path, branch, c.owner, c.repository)
	}
	content, err := file.GetContent()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decode %s@%s", path, branch)
	}
	return &RepositoryFile{Path: *file.Path, Content: content, SHA: *file.SHA}, nil
}

// UpdateFile commits new content for an existing file to a branch. It is a
// no-op when the content already matches.
func (c *Client) UpdateFile(ctx context.Context, branch string, file RepositoryFile, newContent, message string) (changed bool, err error) {
	if file.Content == newContent {
		logger.WithField("func", "UpdateFile").Infof("file %s on branch %s unchanged, nothing to commit", file.Path, branch)
		return false, nil
	}
	author := &github.CommitAuthor{
		Name:  github.String(commitAuthorName),
		Email: github.String(commitAuthorEmail),
	}
	_, _, err = c.gh.Repositories.UpdateFile(ctx, c.owner, c.repository, file.Path, &github.RepositoryContentFileOptions{
		Message:   github.String(message),
		Branch:    github.String(branch),
		SHA:       github.String(file.SHA),
		Author:    author,
		Committer: author,
		Content:   []byte(newContent),
	})
	if err != nil {
		return false, errors.Wrapf(err, "failed to update %s on branch %s in %s/%s", file.Path, branch, c.owner, c.repository)
	}
	logger.WithField("func", "UpdateFile").Infof("committed %s to branch %s in %s/%s", file.Path, branch, c.owner, c.repository)
	return true, nil
}
