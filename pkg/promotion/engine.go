package promotion

import (
	logger "github.com/sirupsen/logrus"

	"deploykit/reconciler-service/pkg/model"
)

// Engine decides whether a subscriber's recorded promotion data must change
// after a publisher deployed successfully. The decision is pure; turning a
// modified decision into a catalog change is the merge-request automation's
// job.
type Engine struct {
}

func NewEngine() Engine {
	return Engine{}
}

// Decide matches the publisher's publish channels against the subscriber's
// subscriptions. For every matched channel whose recorded parent hash is
// missing or stale, the entry is inserted or updated in a copy of the
// subscriber's data. The input record is never mutated.
func (e Engine) Decide(promotion model.Promotion, subscriberFile string, subscriber model.PromotionSettings) model.PromotionDecision {
	decision := model.PromotionDecision{
		DeploymentFile: subscriberFile,
		Promotion:      promotion,
		Data:           copyData(subscriber.Data),
	}
	published := make(map[string]bool, len(promotion.Publish))
	for _, channel := range promotion.Publish {
		published[channel] = true
	}
	for _, subscription := range subscriber.Subscribe {
		if !published[subscription.Channel] {
			continue
		}
		if entry := findEntry(decision.Data, subscription.Channel); entry != nil {
			if entry.TargetConfigHash == promotion.TargetConfigHash {
				continue
			}
			entry.TargetConfigHash = promotion.TargetConfigHash
			entry.CommitID = promotion.CommitID
		} else {
			decision.Data = append(decision.Data, model.PromotionData{
				Channel:          subscription.Channel,
				TargetConfigHash: promotion.TargetConfigHash,
				CommitID:         promotion.CommitID,
			})
		}
		decision.Modified = true
		decision.Channels = append(decision.Channels, subscription.Channel)
	}
	logger.WithField("func", "Decide").Infof("promotion of %s (hash %s) against subscriber %s: modified=%v channels=%v",
		promotion.DeploymentFile, promotion.TargetConfigHash, subscriberFile, decision.Modified, decision.Channels)
	return decision
}

func copyData(data []model.PromotionData) []model.PromotionData {
	if data == nil {
		return nil
	}
	out := make([]model.PromotionData, len(data))
	copy(out, data)
	return out
}

func findEntry(data []model.PromotionData, channel string) *model.PromotionData {
	for i := range data {
		if data[i].Channel == channel {
			return &data[i]
		}
	}
	return nil
}
