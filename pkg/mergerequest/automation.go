package mergerequest

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	logger "github.com/sirupsen/logrus"

	"deploykit/reconciler-service/pkg/model"
	"deploykit/reconciler-service/pkg/repoaccess"
	"deploykit/reconciler-service/pkg/replacer"
)

const pullRequestTitlePrefix = "deploykit:"
const catalogFilesDir = "files"

// Automation turns a modified promotion decision into a catalog change: it
// rewrites the subscriber's recorded parent hash on a promotion branch and
// opens a pull request against the catalog repository.
type Automation struct {
	accessToken    string
	catalogRepoURL string
	baseBranch     string
	externalURL    string
}

func NewAutomation(accessToken, catalogRepoURL, baseBranch, externalURL string) *Automation {
	if baseBranch == "" {
		baseBranch = "main"
	}
	return &Automation{
		accessToken:    accessToken,
		catalogRepoURL: catalogRepoURL,
		baseBranch:     baseBranch,
		externalURL:    externalURL,
	}
}

// repository is the slice of the catalog repository client the automation
// needs. *repoaccess.Client satisfies it.
type repository interface {
	BranchExists(ctx context.Context, branch string) (bool, error)
	CreateBranch(ctx context.Context, sourceBranch, targetBranch string) error
	DeleteBranch(ctx context.Context, branch string) error
	GetFile(ctx context.Context, branch, path string) (*repoaccess.RepositoryFile, error)
	UpdateFile(ctx context.Context, branch string, file repoaccess.RepositoryFile, newContent, message string) (bool, error)
	GetOpenPullRequest(ctx context.Context, fromBranch, toBranch string) (*repoaccess.PullRequest, error)
	EditPullRequest(ctx context.Context, pr *repoaccess.PullRequest, title, body string) error
	CreatePullRequest(ctx context.Context, fromBranch, toBranch, title, body string) (*repoaccess.PullRequest, error)
}

func (a *Automation) Promote(ctx context.Context, decision model.PromotionDecision) (message string, prLink *string, err error) {
	if !decision.Modified {
		return "decision not modified => nothing to do", nil, nil
	}
	client, err := repoaccess.NewClient(a.accessToken, a.catalogRepoURL)
	if err != nil {
		return "", nil, err
	}
	return a.promote(ctx, &client, decision)
}

func (a *Automation) promote(ctx context.Context, repo repository, decision model.PromotionDecision) (string, *string, error) {
	branch := buildBranchName(decision)
	exists, err := repo.BranchExists(ctx, branch)
	if err != nil {
		return "", nil, err
	}
	if exists {
		return a.refreshExisting(ctx, repo, branch, decision)
	}
	if err := repo.CreateBranch(ctx, a.baseBranch, branch); err != nil {
		return "", nil, err
	}
	path := catalogPath(decision.DeploymentFile)
	file, err := repo.GetFile(ctx, a.baseBranch, path)
	if err != nil {
		return "", nil, err
	}
	if file == nil {
		return "", nil, errors.Errorf("deployment file %s not found at %s in catalog repository", decision.DeploymentFile, path)
	}
	newContent := replacer.Replace(file.Content, fieldsFor(decision))
	changed, err := repo.UpdateFile(ctx, branch, *file, newContent,
		fmt.Sprintf("(promotion) update recorded parent hash of %s", decision.DeploymentFile))
	if err != nil {
		return "", nil, err
	}
	if !changed {
		logger.WithField("func", "promote").Infof("no catalog change for %s, deleting branch %s", decision.DeploymentFile, branch)
		if err := repo.DeleteBranch(ctx, branch); err != nil {
			return "", nil, err
		}
		return "no catalog change necessary", nil, nil
	}
	pr, err := repo.CreatePullRequest(ctx, branch, a.baseBranch, buildTitle(decision), a.buildBody(decision))
	if err != nil {
		return "", nil, err
	}
	logger.WithField("func", "promote").Infof("opened pull request %d for %s (channels %v)", pr.Number, decision.DeploymentFile, decision.Channels)
	return "opened pull request", &pr.URL, nil
}

// refreshExisting handles redelivery of a promotion whose branch is already
// there: the still-open pull request gets its title and body refreshed
// instead of a duplicate being opened.
func (a *Automation) refreshExisting(ctx context.Context, repo repository, branch string, decision model.PromotionDecision) (string, *string, error) {
	pr, err := repo.GetOpenPullRequest(ctx, branch, a.baseBranch)
	if err != nil {
		return "", nil, err
	}
	if pr == nil {
		return "", nil, errors.Errorf("promotion branch %s already exists without an open pull request", branch)
	}
	if err := repo.EditPullRequest(ctx, pr, buildTitle(decision), a.buildBody(decision)); err != nil {
		return "", nil, err
	}
	logger.WithField("func", "refreshExisting").Infof("updated open pull request %d for %s on branch %s", pr.Number, decision.DeploymentFile, branch)
	return "updated pull request", &pr.URL, nil
}

func buildBranchName(decision model.PromotionDecision) string {
	return fmt.Sprintf("promote/%s_%s-%s",
		decision.DeploymentFile, strings.Join(decision.Channels, "_"), shortCommit(decision.Promotion.CommitID))
}

// fieldsFor maps the decision onto the annotation fields the replacer
// rewrites in the subscriber's catalog yaml. The flattened source event is
// included so annotations can reference any of its fields (e.g.
// data.commitId); the per-channel promotion fields win on collision.
func fieldsFor(decision model.PromotionDecision) map[string]string {
	fields := make(map[string]string, len(decision.EventFields)+2*len(decision.Channels))
	for k, v := range decision.EventFields {
		fields[k] = v
	}
	for _, channel := range decision.Channels {
		fields["promotion."+channel+".targetConfigHash"] = decision.Promotion.TargetConfigHash
		fields["promotion."+channel+".commitId"] = decision.Promotion.CommitID
	}
	return fields
}

func buildTitle(decision model.PromotionDecision) string {
	return fmt.Sprintf("%s promote %s via channel %s", pullRequestTitlePrefix,
		decision.DeploymentFile, strings.Join(decision.Channels, ", "))
}

func (a *Automation) buildBody(decision model.PromotionDecision) string {
	return fmt.Sprintf(`Promotion of a successful deployment of *%s* (commit %s).

Channels: *%s*
Target config hash: %s

Opened by the [deploykit reconciler](%s).`,
		decision.Promotion.DeploymentFile, decision.Promotion.CommitID,
		strings.Join(decision.Channels, ", "), decision.Promotion.TargetConfigHash, a.externalURL)
}

func catalogPath(deploymentFile string) string {
	return catalogFilesDir + "/" + deploymentFile + ".yaml"
}

func shortCommit(commit string) string {
	if len(commit) > 8 {
		return commit[:8]
	}
	return commit
}
