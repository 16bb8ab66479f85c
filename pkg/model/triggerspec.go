package model

import (
	"strings"
)

type TriggerKind string

const (
	TriggerKindConfig         TriggerKind = "config"
	TriggerKindMovingCommit   TriggerKind = "moving-commit"
	TriggerKindUpstreamJob    TriggerKind = "upstream-job"
	TriggerKindContainerImage TriggerKind = "container-image"
)

// TriggerSpec is one computed "this target is out of date" instruction.
// Every variant identifies its target plus a kind-specific discriminator and
// yields a deterministic state key. The state-key format
// {file}/{template}/{cluster}/{namespace}/{environment}[/{discriminator}]
// is an external contract shared with the persisted state store: changing it
// makes every existing target appear to have no prior state.
type TriggerSpec interface {
	Kind() TriggerKind
	StateKey() string
	// NewValue is the observed value persisted at the state key after a
	// successful fire (hash, commit id, build identifier or image).
	NewValue() string
	Target() TriggerTarget
}

type TriggerTarget struct {
	DeploymentFile   string
	ResourceTemplate string
	Cluster          string
	Namespace        string
	Environment      string
}

func (t TriggerTarget) keyPrefix() string {
	return strings.Join([]string{t.DeploymentFile, t.ResourceTemplate, t.Cluster, t.Namespace, t.Environment}, "/")
}

type ConfigTrigger struct {
	TriggerTarget
	TargetName string
	ConfigHash string
}

func (c ConfigTrigger) Kind() TriggerKind     { return TriggerKindConfig }
func (c ConfigTrigger) StateKey() string      { return c.keyPrefix() + "/" + c.TargetName }
func (c ConfigTrigger) NewValue() string      { return c.ConfigHash }
func (c ConfigTrigger) Target() TriggerTarget { return c.TriggerTarget }

type MovingCommitTrigger struct {
	TriggerTarget
	Ref      string
	CommitID string
}

func (m MovingCommitTrigger) Kind() TriggerKind     { return TriggerKindMovingCommit }
func (m MovingCommitTrigger) StateKey() string      { return m.keyPrefix() + "/" + m.Ref }
func (m MovingCommitTrigger) NewValue() string      { return m.CommitID }
func (m MovingCommitTrigger) Target() TriggerTarget { return m.TriggerTarget }

type UpstreamJobTrigger struct {
	TriggerTarget
	Instance string
	Job      string
	BuildID  string
}

func (u UpstreamJobTrigger) Kind() TriggerKind { return TriggerKindUpstreamJob }
func (u UpstreamJobTrigger) StateKey() string {
	return u.keyPrefix() + "/" + u.Instance + "/" + u.Job
}
func (u UpstreamJobTrigger) NewValue() string      { return u.BuildID }
func (u UpstreamJobTrigger) Target() TriggerTarget { return u.TriggerTarget }

type ContainerImageTrigger struct {
	TriggerTarget
	Image string
}

func (i ContainerImageTrigger) Kind() TriggerKind     { return TriggerKindContainerImage }
func (i ContainerImageTrigger) StateKey() string      { return i.keyPrefix() + "/" + i.Image }
func (i ContainerImageTrigger) NewValue() string      { return i.Image }
func (i ContainerImageTrigger) Target() TriggerTarget { return i.TriggerTarget }

// IsMovingRef reports whether ref can move over time. A pinned ref is a full
// 40 character commit id; everything else (branch, tag) is moving.
func IsMovingRef(ref string) bool {
	if len(ref) != 40 {
		return true
	}
	for _, r := range ref {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			return true
		}
	}
	return false
}
