package main

import (
	"context"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/pkg/errors"
	logger "github.com/sirupsen/logrus"

	"deploykit/reconciler-service/pkg/catalog"
	"deploykit/reconciler-service/pkg/events"
	"deploykit/reconciler-service/pkg/mergerequest"
)

func listen(ctx context.Context, env envConfig, catalogDir string) error {
	cat, err := catalog.Load(catalogDir)
	if err != nil {
		return err
	}
	automation := mergerequest.NewAutomation(env.GithubToken, env.CatalogRepoURL, env.CatalogBaseBranch, env.ExternalURL)
	handler := events.NewDeploymentFinishedHandler(cat, automation)

	client, err := cloudevents.NewClientHTTP(cloudevents.WithPort(env.ListenPort))
	if err != nil {
		return errors.Wrap(err, "failed to create cloudevents client")
	}
	logger.Infof("listening for %s events on port %d", events.DeploymentFinishedEventType, env.ListenPort)
	return client.StartReceiver(ctx, func(ctx context.Context, event cloudevents.Event) error {
		if !handler.IsTypeHandled(event) {
			logger.Debugf("ignoring event of type %s", event.Type())
			return nil
		}
		return handler.Handle(ctx, event)
	})
}
