package diff

import (
	"context"
	"sync"

	logger "github.com/sirupsen/logrus"

	"deploykit/reconciler-service/pkg/model"
	"deploykit/reconciler-service/pkg/pool"
)

// Engine computes the four trigger-kind diffs for a batch of targets. Each
// diff compares a target's currently observed value against the value
// recorded at its state key and emits a trigger spec on difference.
type Engine struct {
	vcs   model.VCSClient
	ci    model.UpstreamCIClient
	state model.StateStore
	pool  *pool.Pool
}

func NewEngine(vcs model.VCSClient, ci model.UpstreamCIClient, state model.StateStore, workers *pool.Pool) *Engine {
	return &Engine{vcs: vcs, ci: ci, state: state, pool: workers}
}

// Result pairs an emitted trigger spec with the target it was computed for,
// so the trigger phase can reach the resolved configuration.
type Result struct {
	Spec   model.TriggerSpec
	Target model.TargetSpec
}

// DiffAll runs all four diffs for every target on the worker pool. Failures
// are isolated per target: an error for one target never aborts its
// siblings. Results carry no cross-target ordering.
func (e *Engine) DiffAll(ctx context.Context, targets []model.TargetSpec) ([]Result, []error) {
	var mu sync.Mutex
	var results []Result
	var errs []error
	tasks := make([]func(), 0, len(targets))
	for _, target := range targets {
		target := target
		tasks = append(tasks, func() {
			specs, targetErrs := e.diffTarget(ctx, target)
			mu.Lock()
			defer mu.Unlock()
			for _, spec := range specs {
				results = append(results, Result{Spec: spec, Target: target})
			}
			errs = append(errs, targetErrs...)
		})
	}
	e.pool.Run(tasks)
	return results, errs
}

func (e *Engine) diffTarget(ctx context.Context, ts model.TargetSpec) (specs []model.TriggerSpec, errs []error) {
	diffs := []func(context.Context, model.TargetSpec) (model.TriggerSpec, error){
		e.DiffConfig,
		e.DiffMovingCommit,
		e.DiffUpstreamJob,
		e.DiffContainerImage,
	}
	for _, diff := range diffs {
		spec, err := diff(ctx, ts)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if spec != nil {
			specs = append(specs, spec)
		}
	}
	return specs, errs
}

// DiffConfig hashes the resolved configuration and emits a trigger when the
// recorded hash is absent or different.
func (e *Engine) DiffConfig(ctx context.Context, ts model.TargetSpec) (model.TriggerSpec, error) {
	spec := model.ConfigTrigger{
		TriggerTarget: ts.TriggerTarget(),
		TargetName:    ts.Target.Name,
		ConfigHash:    ConfigHash(ts.Parameters),
	}
	return e.compare(ctx, spec, spec.ConfigHash)
}

// DiffMovingCommit resolves the tip of a moving ref and emits a trigger when
// it no longer matches the recorded commit. A resolution failure is treated
// as "no diff" for this target so the rest of the batch keeps going.
func (e *Engine) DiffMovingCommit(ctx context.Context, ts model.TargetSpec) (model.TriggerSpec, error) {
	if !model.IsMovingRef(ts.Target.Ref) {
		return nil, nil
	}
	commit, err := e.vcs.ResolveCommit(ctx, ts.Template.RepoURL, ts.Target.Ref)
	if err != nil {
		logger.WithField("func", "DiffMovingCommit").WithError(err).
			Warnf("could not resolve ref %s of %s, treating as no diff", ts.Target.Ref, ts.Template.RepoURL)
		return nil, nil
	}
	spec := model.MovingCommitTrigger{
		TriggerTarget: ts.TriggerTarget(),
		Ref:           ts.Target.Ref,
		CommitID:      commit,
	}
	return e.compare(ctx, spec, commit)
}

// DiffUpstreamJob compares the recorded upstream build identifier against
// the CI collaborator's current value.
func (e *Engine) DiffUpstreamJob(ctx context.Context, ts model.TargetSpec) (model.TriggerSpec, error) {
	if ts.Target.UpstreamJob == nil {
		return nil, nil
	}
	job := *ts.Target.UpstreamJob
	spec := model.UpstreamJobTrigger{
		TriggerTarget: ts.TriggerTarget(),
		Instance:      job.Instance,
		Job:           job.Job,
	}
	build, err := e.ci.GetJobState(ctx, job.Instance, job.Job)
	if err != nil {
		return nil, model.WrapExternalLookup(spec.StateKey(), err)
	}
	spec.BuildID = build
	return e.compare(ctx, spec, build)
}

// DiffContainerImage compares the recorded image reference against the
// target's currently configured image.
func (e *Engine) DiffContainerImage(ctx context.Context, ts model.TargetSpec) (model.TriggerSpec, error) {
	if ts.Target.Image == nil {
		return nil, nil
	}
	spec := model.ContainerImageTrigger{
		TriggerTarget: ts.TriggerTarget(),
		Image:         *ts.Target.Image,
	}
	return e.compare(ctx, spec, spec.Image)
}

func (e *Engine) compare(ctx context.Context, spec model.TriggerSpec, current string) (model.TriggerSpec, error) {
	recorded, ok, err := e.state.Get(ctx, spec.StateKey())
	if err != nil {
		return nil, model.WrapExternalLookup(spec.StateKey(), err)
	}
	if ok && recorded == current {
		return nil, nil
	}
	logger.WithField("func", "compare").Infof("%s diff for %s: recorded %q, current %q", spec.Kind(), spec.StateKey(), recorded, current)
	return spec, nil
}
