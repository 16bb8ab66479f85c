package model

import "context"

// SecretReader materializes secret parameter values. Failures carry one of
// the secret error kinds from errors.go.
type SecretReader interface {
	Read(ctx context.Context, path, field string, version *int) (string, error)
	ReadAll(ctx context.Context, path string, version *int) (map[string]string, error)
}

// VCSClient resolves refs and fetches file content from source repositories.
type VCSClient interface {
	ResolveCommit(ctx context.Context, repoURL, ref string) (string, error)
	GetFileContent(ctx context.Context, repoURL, path, ref string) ([]byte, error)
}

// UpstreamCIClient reports the current build identifier of an upstream job.
type UpstreamCIClient interface {
	GetJobState(ctx context.Context, instance, job string) (string, error)
}

// PipelineProvider is the downstream system that actually runs a deployment.
type PipelineProvider interface {
	// GetPipeline reports whether the deployment pipeline for a target has
	// been provisioned downstream yet.
	GetPipeline(ctx context.Context, cluster, namespace, name string) (bool, error)
	Fire(ctx context.Context, cluster, namespace, manifest string) error
}

// StateStore persists the last observed value per state key across runs.
// Concurrent writers to the same key are last-writer-wins.
type StateStore interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
}

// Promoter turns a modified promotion decision into a catalog change.
type Promoter interface {
	Promote(ctx context.Context, decision PromotionDecision) (message string, prLink *string, err error)
}

// CatalogValidator checks a catalog before any diffing or triggering starts.
type CatalogValidator interface {
	Validate(catalog *Catalog) (validationErrors []string)
}
