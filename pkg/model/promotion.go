package model

// PromotionSettings is a target's channel wiring as declared in the catalog.
type PromotionSettings struct {
	Auto      bool               `yaml:"auto"`
	Publish   []string           `yaml:"publish"`
	Subscribe []SubscribeChannel `yaml:"subscribe"`
	Data      []PromotionData    `yaml:"data"`
}

type SubscribeChannel struct {
	Channel       string `yaml:"channel"`
	PublisherFile string `yaml:"publisherFile"`
}

// PromotionData is the last promotion recorded for one subscribed channel.
type PromotionData struct {
	Channel          string `yaml:"channel"`
	TargetConfigHash string `yaml:"targetConfigHash"`
	CommitID         string `yaml:"commitId"`
}

// Promotion describes one successful deployment of a publishing target.
type Promotion struct {
	CommitID         string
	DeploymentFile   string
	TargetConfigHash string
	Publish          []string
}

// PromotionDecision is the outcome of comparing a publisher's promotion
// against one subscriber's recorded data. When Modified is set, Data holds
// the subscriber's complete updated record and Channels the channels that
// changed.
type PromotionDecision struct {
	Modified       bool
	DeploymentFile string
	Channels       []string
	Data           []PromotionData
	Promotion      Promotion
	// EventFields is the flattened source event, available to annotation
	// replacement alongside the per-channel promotion fields.
	EventFields map[string]string
}
