package reconciler

import (
	"context"

	"github.com/google/uuid"
	logger "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"deploykit/reconciler-service/pkg/catalog"
	"deploykit/reconciler-service/pkg/diff"
	"deploykit/reconciler-service/pkg/model"
	"deploykit/reconciler-service/pkg/params"
	"deploykit/reconciler-service/pkg/pool"
	"deploykit/reconciler-service/pkg/trigger"
)

// Options is the pass-through run configuration from the CLI.
type Options struct {
	DryRun     bool
	Threads    int
	ShardID    int
	ShardCount int
}

// Report is what one run did. Errors holds every per-target failure; a run
// with a non-empty error list still attempted all other targets and signals
// failure only through the process exit status.
type Report struct {
	RunID    string
	Targets  int
	Skipped  int
	Triggers int
	Result   trigger.Result
	Errors   []error
}

func (r *Report) HasErrors() bool { return len(r.Errors) > 0 }

// Reconciler wires one run of the diff-and-trigger engine.
type Reconciler struct {
	secrets  model.SecretReader
	vcs      model.VCSClient
	ci       model.UpstreamCIClient
	provider model.PipelineProvider
	state    model.StateStore
}

func New(secrets model.SecretReader, vcs model.VCSClient, ci model.UpstreamCIClient, provider model.PipelineProvider, state model.StateStore) *Reconciler {
	return &Reconciler{secrets: secrets, vcs: vcs, ci: ci, provider: provider, state: state}
}

// Run validates the catalog, resolves every active target, diffs all four
// trigger kinds and coordinates the resulting triggers. Only catalog
// validation failures abort the run; everything else is aggregated.
func (r *Reconciler) Run(ctx context.Context, cat *model.Catalog, opts Options) (*Report, error) {
	report := &Report{RunID: uuid.New().String()}
	log := logger.WithField("run", report.RunID)

	if validationErrors := catalog.NewValidator().Validate(cat); len(validationErrors) > 0 {
		return nil, model.NewCatalogInvalid(validationErrors)
	}

	files := catalog.FilterShard(cat.DeploymentFiles, opts.ShardID, opts.ShardCount)
	log.Infof("reconciling %d of %d deployment files (shard %d/%d, dry run %v)",
		len(files), len(cat.DeploymentFiles), opts.ShardID, opts.ShardCount, opts.DryRun)

	targets := r.resolveTargets(ctx, cat, files, report)
	report.Targets = len(targets)

	workers := pool.New(opts.Threads)
	engine := diff.NewEngine(r.vcs, r.ci, r.state, workers)
	results, diffErrs := engine.DiffAll(ctx, targets)
	report.Errors = append(report.Errors, diffErrs...)
	report.Triggers = len(results)
	log.Infof("diff phase produced %d trigger specs and %d errors", len(results), len(diffErrs))

	coordinator := trigger.NewCoordinator(r.provider, r.state, workers, cat.BlockRules, opts.DryRun)
	report.Result = coordinator.Process(ctx, buildItems(results))
	report.Errors = append(report.Errors, report.Result.Errors...)

	log.Infof("run finished: fired=%d wouldFire=%d deduped=%d noPipeline=%d blocked=%d errors=%d",
		report.Result.Fired, report.Result.WouldFire, report.Result.Deduped,
		report.Result.SkippedNoPipeline, report.Result.Blocked, len(report.Errors))
	return report, nil
}

func (r *Reconciler) resolveTargets(ctx context.Context, cat *model.Catalog, files []model.DeploymentFile, report *Report) []model.TargetSpec {
	resolver := params.NewResolver(r.secrets)
	var targets []model.TargetSpec
	for _, file := range files {
		for _, template := range file.ResourceTemplates {
			for _, target := range template.Targets {
				if target.Disabled || target.Deleted {
					logger.WithField("func", "resolveTargets").Infof("skipping %s target %s in %s (disabled=%v deleted=%v)",
						file.Name, target.Name, target.Namespace, target.Disabled, target.Deleted)
					report.Skipped++
					continue
				}
				namespace := cat.Namespaces[target.Namespace]
				ts := model.TargetSpec{
					File:        file,
					Template:    template,
					Target:      target,
					Namespace:   namespace,
					Environment: cat.Environments[namespace.Environment],
				}
				resolved, err := resolver.Resolve(ctx, ts)
				if err != nil {
					report.Errors = append(report.Errors, err)
					continue
				}
				ts.Parameters = resolved
				targets = append(targets, ts)
			}
		}
	}
	return targets
}

func buildItems(results []diff.Result) []trigger.Item {
	items := make([]trigger.Item, 0, len(results))
	for _, result := range results {
		items = append(items, trigger.Item{
			Spec:              result.Spec,
			Manifest:          renderManifest(result.Target),
			Images:            result.Target.Images(),
			EnvironmentLabels: result.Target.Environment.Labels,
		})
	}
	return items
}

// renderManifest serializes the resolved configuration into the document the
// fire action submits. Manifest templating proper happens downstream.
func renderManifest(ts model.TargetSpec) string {
	manifest := map[string]interface{}{
		"deploymentFile":   ts.File.Name,
		"resourceTemplate": ts.Template.Name,
		"target":           ts.Target.Name,
		"ref":              ts.Target.Ref,
		"parameters":       ts.Parameters,
	}
	out, err := yaml.Marshal(manifest)
	if err != nil {
		return ""
	}
	return string(out)
}
