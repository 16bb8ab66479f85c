package events

import (
	"context"
	"testing"

	cloudevents "github.com/cloudevents/sdk-go/v2"

	"deploykit/reconciler-service/pkg/model"
)

type fakePromoter struct {
	promoted []model.PromotionDecision
}

func (f *fakePromoter) Promote(_ context.Context, decision model.PromotionDecision) (string, *string, error) {
	f.promoted = append(f.promoted, decision)
	return "opened pull request", nil, nil
}

func subscriberCatalog(auto bool) *model.Catalog {
	return &model.Catalog{
		DeploymentFiles: []model.DeploymentFile{
			{
				Name: "shop-prod",
				ResourceTemplates: []model.ResourceTemplate{
					{
						Name: "backend",
						Targets: []model.Target{
							{
								Name:      "backend-prod",
								Namespace: "shop-prod",
								Promotion: &model.PromotionSettings{
									Auto:      auto,
									Subscribe: []model.SubscribeChannel{{Channel: "stable", PublisherFile: "shop-staging"}},
								},
							},
						},
					},
				},
			},
			{Name: "unrelated"},
		},
	}
}

func finishedEvent(t *testing.T) cloudevents.Event {
	t.Helper()
	event := cloudevents.NewEvent()
	event.SetID("evt-1")
	event.SetSource("deploykit/pipeline")
	event.SetType(DeploymentFinishedEventType)
	if err := event.SetData(cloudevents.ApplicationJSON, DeploymentFinishedData{
		DeploymentFile:   "shop-staging",
		CommitID:         "deadbeef",
		TargetConfigHash: "H1",
		Publish:          []string{"stable"},
	}); err != nil {
		t.Fatal(err)
	}
	return event
}

func Test_HandlePromotesAutoSubscribers(t *testing.T) {
	promoter := &fakePromoter{}
	handler := NewDeploymentFinishedHandler(subscriberCatalog(true), promoter)

	if !handler.IsTypeHandled(finishedEvent(t)) {
		t.Fatal("deployment finished event must be handled")
	}
	if err := handler.Handle(context.Background(), finishedEvent(t)); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if len(promoter.promoted) != 1 {
		t.Fatalf("promoted %d decisions, want 1", len(promoter.promoted))
	}
	decision := promoter.promoted[0]
	if decision.DeploymentFile != "shop-prod" || decision.Data[0].TargetConfigHash != "H1" {
		t.Errorf("unexpected decision %+v", decision)
	}
	// the flattened event rides along for annotation replacement
	if decision.EventFields["data.deploymentFile"] != "shop-staging" || decision.EventFields["id"] != "evt-1" {
		t.Errorf("unexpected event fields %v", decision.EventFields)
	}
}

func Test_HandleSkipsManualSubscribers(t *testing.T) {
	promoter := &fakePromoter{}
	handler := NewDeploymentFinishedHandler(subscriberCatalog(false), promoter)
	if err := handler.Handle(context.Background(), finishedEvent(t)); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if len(promoter.promoted) != 0 {
		t.Errorf("promoted %d decisions, want 0 for auto=false", len(promoter.promoted))
	}
}

func Test_HandleRejectsIncompleteEvent(t *testing.T) {
	event := cloudevents.NewEvent()
	event.SetID("evt-2")
	event.SetSource("deploykit/pipeline")
	event.SetType(DeploymentFinishedEventType)
	_ = event.SetData(cloudevents.ApplicationJSON, map[string]string{})
	handler := NewDeploymentFinishedHandler(subscriberCatalog(true), &fakePromoter{})
	if err := handler.Handle(context.Background(), event); err == nil {
		t.Error("Handle() expected error for event without deployment file")
	}
}
