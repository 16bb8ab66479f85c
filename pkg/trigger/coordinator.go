package trigger

import (
	"context"
	"sync"

	logger "github.com/sirupsen/logrus"

	"deploykit/reconciler-service/pkg/model"
	"deploykit/reconciler-service/pkg/policy"
	"deploykit/reconciler-service/pkg/pool"
)

// Item is one trigger spec together with the rendered manifest and policy
// inputs of its target.
type Item struct {
	Spec              model.TriggerSpec
	Manifest          string
	Images            []string
	EnvironmentLabels map[string]string
}

// Result aggregates what one coordinator run did.
type Result struct {
	Fired             int
	WouldFire         int
	Deduped           int
	SkippedNoPipeline int
	Blocked           int
	Errors            []error
}

// Coordinator consumes trigger specs, deduplicates them by state key, fires
// the pipeline-provider action and persists the newly observed value. One
// Coordinator serves exactly one run; the dedup set dies with it.
type Coordinator struct {
	provider model.PipelineProvider
	state    model.StateStore
	pool     *pool.Pool
	rules    []model.ImagePatternsBlockRule
	dryRun   bool
	seen     *DedupSet
}

func NewCoordinator(provider model.PipelineProvider, state model.StateStore, workers *pool.Pool, rules []model.ImagePatternsBlockRule, dryRun bool) *Coordinator {
	return &Coordinator{
		provider: provider,
		state:    state,
		pool:     workers,
		rules:    rules,
		dryRun:   dryRun,
		seen:     NewDedupSet(),
	}
}

// Process dispatches all items to the worker pool and blocks until done.
// Failures are isolated per item and collected into the result.
func (c *Coordinator) Process(ctx context.Context, items []Item) Result {
	var mu sync.Mutex
	var result Result
	tasks := make([]func(), 0, len(items))
	for _, item := range items {
		item := item
		tasks = append(tasks, func() {
			outcome, err := c.process(ctx, item)
			mu.Lock()
			defer mu.Unlock()
			switch outcome {
			case outcomeFired:
				result.Fired++
			case outcomeWouldFire:
				result.WouldFire++
			case outcomeDeduped:
				result.Deduped++
			case outcomeNoPipeline:
				result.SkippedNoPipeline++
			case outcomeBlocked:
				result.Blocked++
			}
			if err != nil {
				result.Errors = append(result.Errors, err)
			}
		})
	}
	c.pool.Run(tasks)
	return result
}

type outcome int

const (
	outcomeNone outcome = iota
	outcomeFired
	outcomeWouldFire
	outcomeDeduped
	outcomeNoPipeline
	outcomeBlocked
)

func (c *Coordinator) process(ctx context.Context, item Item) (outcome, error) {
	spec := item.Spec
	key := spec.StateKey()
	target := spec.Target()

	if blocked, pattern := policy.Blocked(c.rules, item.EnvironmentLabels, item.Images); blocked {
		logger.WithField("func", "process").Warnf("trigger %s blocked by image pattern %q", key, pattern)
		return outcomeBlocked, nil
	}

	exists, err := c.provider.GetPipeline(ctx, target.Cluster, target.Namespace, target.DeploymentFile)
	if err != nil {
		return outcomeNone, model.WrapExternalLookup(key, err)
	}
	if !exists {
		// expected when a target is declared but not yet provisioned downstream
		logger.WithField("func", "process").Warnf("pipeline %s/%s/%s does not exist yet, skipping trigger %s",
			target.Cluster, target.Namespace, target.DeploymentFile, key)
		return outcomeNoPipeline, nil
	}

	if !c.seen.CheckAndInsert(key) {
		return outcomeDeduped, nil
	}

	if c.dryRun {
		logger.WithField("func", "process").Infof("dry run: would fire %s trigger for %s", spec.Kind(), key)
		return outcomeWouldFire, nil
	}

	if err := c.provider.Fire(ctx, target.Cluster, target.Namespace, item.Manifest); err != nil {
		logger.WithField("func", "process").WithError(err).Errorf("fire action failed for %s", key)
		return outcomeNone, model.WrapTriggerAction(key, err)
	}
	if err := c.state.Set(ctx, key, spec.NewValue()); err != nil {
		logger.WithField("func", "process").WithError(err).Errorf("fired %s but could not persist state", key)
		return outcomeFired, model.WrapExternalLookup(key, err)
	}
	logger.WithField("func", "process").Infof("fired %s trigger for %s and recorded %q", spec.Kind(), key, spec.NewValue())
	return outcomeFired, nil
}
