package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/kelseyhightower/envconfig"
	logger "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
)

type envConfig struct {
	LogLevel            string `split_words:"true" default:"info"`
	GithubToken         string `split_words:"true"`
	CatalogRepoURL      string `envconfig:"CATALOG_REPO_URL"`
	CatalogBaseBranch   string `split_words:"true" default:"main"`
	ExternalURL         string `envconfig:"EXTERNAL_URL"`
	PipelineProviderURL string `envconfig:"PIPELINE_PROVIDER_URL"`
	StateNamespace      string `split_words:"true" default:"deploykit"`
	StateConfigMap      string `split_words:"true" default:"trigger-state"`
	SecretNamespace     string `split_words:"true" default:"deploykit"`
	ListenPort          int    `split_words:"true" default:"8080"`
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ctx = listenOSKillSignalsContext(ctx)

	var env envConfig
	if err := envconfig.Process("reconciler", &env); err != nil {
		logger.WithError(err).Fatal("failed to process environment configuration")
	}
	if level, err := logger.ParseLevel(env.LogLevel); err == nil {
		logger.SetLevel(level)
	}

	app := &cli.App{
		Name:  "reconciler",
		Usage: "diff-and-trigger reconciliation over a declarative deployment catalog",
		Commands: cli.Commands{
			&cli.Command{
				Name:  "run",
				Usage: "run one reconciliation over the catalog",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "catalog-dir",
						Required: true,
					},
					&cli.BoolFlag{
						Name: "dry-run",
					},
					&cli.IntFlag{
						Name:  "threads",
						Value: 10,
					},
					&cli.IntFlag{
						Name: "shard-id",
					},
					&cli.IntFlag{
						Name:  "shard-count",
						Value: 1,
					},
				},
				Action: func(c *cli.Context) error {
					return run(c.Context, env, runFlags{
						catalogDir: c.String("catalog-dir"),
						dryRun:     c.Bool("dry-run"),
						threads:    c.Int("threads"),
						shardID:    c.Int("shard-id"),
						shardCount: c.Int("shard-count"),
					})
				},
			},
			&cli.Command{
				Name:  "listen",
				Usage: "listen for deployment-finished events and drive promotions",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "catalog-dir",
						Required: true,
					},
				},
				Action: func(c *cli.Context) error {
					return listen(c.Context, env, c.String("catalog-dir"))
				},
			},
		},
	}
	if err := app.RunContext(ctx, os.Args); err != nil {
		logger.WithError(err).Fatal("command failed")
	}
}

func newKubeClient() (kubernetes.Interface, error) {
	config, err := rest.InClusterConfig()
	if err != nil {
		// outside the cluster fall back to the local kubeconfig
		config, err = clientcmd.NewNonInteractiveDeferredLoadingClientConfig(
			clientcmd.NewDefaultClientConfigLoadingRules(), nil).ClientConfig()
		if err != nil {
			return nil, err
		}
	}
	return kubernetes.NewForConfig(config)
}

func listenOSKillSignalsContext(ctx context.Context) context.Context {
	var cancel context.CancelFunc
	ctx, cancel = context.WithCancel(ctx)
	go func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGTERM, syscall.SIGINT)
		select {
		case <-ch:
			cancel()
		case <-ctx.Done():
			return
		}
	}()
	return ctx
}
