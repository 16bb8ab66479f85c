package events

import (
	"context"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/pkg/errors"
	logger "github.com/sirupsen/logrus"

	"deploykit/reconciler-service/pkg/model"
	"deploykit/reconciler-service/pkg/promotion"
	"deploykit/reconciler-service/pkg/replacer"
)

const DeploymentFinishedEventType = "com.deploykit.deployment.finished"

// DeploymentFinishedData is the payload of a publisher's successful
// deployment event.
type DeploymentFinishedData struct {
	DeploymentFile   string   `json:"deploymentFile"`
	CommitID         string   `json:"commitId"`
	TargetConfigHash string   `json:"targetConfigHash"`
	Publish          []string `json:"publish"`
}

// DeploymentFinishedHandler feeds deployment-finished events through the
// promotion engine and hands modified decisions to the merge-request
// automation.
type DeploymentFinishedHandler struct {
	catalog  *model.Catalog
	engine   promotion.Engine
	promoter model.Promoter
}

func NewDeploymentFinishedHandler(catalog *model.Catalog, promoter model.Promoter) *DeploymentFinishedHandler {
	return &DeploymentFinishedHandler{
		catalog:  catalog,
		engine:   promotion.NewEngine(),
		promoter: promoter,
	}
}

func (h *DeploymentFinishedHandler) IsTypeHandled(event cloudevents.Event) bool {
	return event.Type() == DeploymentFinishedEventType
}

func (h *DeploymentFinishedHandler) Handle(ctx context.Context, event cloudevents.Event) error {
	data := &DeploymentFinishedData{}
	if err := event.DataAs(data); err != nil {
		return errors.Wrap(err, "failed to parse deployment finished event")
	}
	if data.DeploymentFile == "" || data.TargetConfigHash == "" {
		return errors.Errorf("event %s carries no deployment file or config hash", event.ID())
	}
	eventFields, err := replacer.ConvertToMap(event)
	if err != nil {
		return errors.Wrap(err, "failed to flatten deployment finished event")
	}
	logger.WithField("func", "Handle").Infof("deployment of %s finished with commit %s, hash %s, channels %v",
		data.DeploymentFile, data.CommitID, data.TargetConfigHash, data.Publish)
	promoted := model.Promotion{
		CommitID:         data.CommitID,
		DeploymentFile:   data.DeploymentFile,
		TargetConfigHash: data.TargetConfigHash,
		Publish:          data.Publish,
	}
	var errs []error
	for _, decision := range h.decide(promoted) {
		decision.EventFields = eventFields
		message, prLink, err := h.promoter.Promote(ctx, decision)
		if err != nil {
			logger.WithField("func", "Handle").WithError(err).Errorf("promotion of %s failed", decision.DeploymentFile)
			errs = append(errs, err)
			continue
		}
		link := ""
		if prLink != nil {
			link = *prLink
		}
		logger.WithField("func", "Handle").Infof("promoted %s: %s %s", decision.DeploymentFile, message, link)
	}
	if len(errs) > 0 {
		return errors.Errorf("%d of the subscriber promotions failed", len(errs))
	}
	return nil
}

// decide collects the modified decisions for every auto-promoting subscriber
// target in the catalog.
func (h *DeploymentFinishedHandler) decide(promoted model.Promotion) []model.PromotionDecision {
	var decisions []model.PromotionDecision
	for _, file := range h.catalog.DeploymentFiles {
		if file.Name == promoted.DeploymentFile {
			continue
		}
		for _, template := range file.ResourceTemplates {
			for _, target := range template.Targets {
				if target.Promotion == nil {
					continue
				}
				decision := h.engine.Decide(promoted, file.Name, *target.Promotion)
				if !decision.Modified {
					continue
				}
				if !target.Promotion.Auto {
					logger.WithField("func", "decide").Infof("subscriber %s target %s has auto promotion disabled, skipping", file.Name, target.Name)
					continue
				}
				decisions = append(decisions, decision)
			}
		}
	}
	return decisions
}
