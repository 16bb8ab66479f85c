package main

import (
	"context"

	"github.com/pkg/errors"
	logger "github.com/sirupsen/logrus"

	"deploykit/reconciler-service/pkg/catalog"
	"deploykit/reconciler-service/pkg/pipelineprovider"
	"deploykit/reconciler-service/pkg/reconciler"
	"deploykit/reconciler-service/pkg/repoaccess"
	"deploykit/reconciler-service/pkg/secretreader"
	"deploykit/reconciler-service/pkg/statestore"
	"deploykit/reconciler-service/pkg/upstreamci"
)

type runFlags struct {
	catalogDir string
	dryRun     bool
	threads    int
	shardID    int
	shardCount int
}

func run(ctx context.Context, env envConfig, flags runFlags) error {
	cat, err := catalog.Load(flags.catalogDir)
	if err != nil {
		return err
	}
	kubeClient, err := newKubeClient()
	if err != nil {
		return errors.Wrap(err, "failed to build kubernetes client")
	}
	r := reconciler.New(
		secretreader.NewKubernetesReader(kubeClient, env.SecretNamespace),
		repoaccess.NewVCS(env.GithubToken),
		upstreamci.NewClient(),
		pipelineprovider.NewClient(env.PipelineProviderURL),
		statestore.NewConfigMapStore(kubeClient, env.StateNamespace, env.StateConfigMap),
	)
	report, err := r.Run(ctx, cat, reconciler.Options{
		DryRun:     flags.dryRun,
		Threads:    flags.threads,
		ShardID:    flags.shardID,
		ShardCount: flags.shardCount,
	})
	if err != nil {
		return err
	}
	if report.HasErrors() {
		for _, runErr := range report.Errors {
			logger.WithError(runErr).Error("target failed")
		}
		return errors.Errorf("run %s finished with %d target errors", report.RunID, len(report.Errors))
	}
	return nil
}
