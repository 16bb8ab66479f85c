package model

// Catalog holds one run's view of the declarative deployment definitions.
// All records are read once per run and treated as immutable afterwards.
type Catalog struct {
	DeploymentFiles []DeploymentFile
	Namespaces      map[string]Namespace
	Environments    map[string]Environment
	BlockRules      []ImagePatternsBlockRule
}

// DeploymentFile is the top-level declarative unit: one application's
// resource templates instantiated per target cluster/namespace/environment.
type DeploymentFile struct {
	Name               string                 `yaml:"name"`
	App                string                 `yaml:"app"`
	PipelineProvider   string                 `yaml:"pipelineProvider"`
	Parameters         map[string]interface{} `yaml:"parameters"`
	SecretParameters   map[string]SecretRef   `yaml:"secretParameters"`
	AllowedSecretPaths []string               `yaml:"allowedSecretPaths"`
	ImagePatterns      []string               `yaml:"imagePatterns"`
	ResourceTemplates  []ResourceTemplate     `yaml:"resourceTemplates"`
}

type ResourceTemplate struct {
	Name             string                 `yaml:"name"`
	RepoURL          string                 `yaml:"repoUrl"`
	Path             string                 `yaml:"path"`
	ProviderTag      *string                `yaml:"providerTag"`
	Parameters       map[string]interface{} `yaml:"parameters"`
	SecretParameters map[string]SecretRef   `yaml:"secretParameters"`
	Targets          []Target               `yaml:"targets"`
}

// Target is one concrete instantiation of a resource template in a namespace.
// Targets are created and updated only by catalog edits, never by this engine.
type Target struct {
	Name             string                 `yaml:"name"`
	Namespace        string                 `yaml:"namespace"`
	Ref              string                 `yaml:"ref"`
	UpstreamJob      *UpstreamJobRef        `yaml:"upstreamJob"`
	Image            *string                `yaml:"image"`
	Promotion        *PromotionSettings     `yaml:"promotion"`
	Parameters       map[string]interface{} `yaml:"parameters"`
	SecretParameters map[string]SecretRef   `yaml:"secretParameters"`
	Disabled         bool                   `yaml:"disabled"`
	Deleted          bool                   `yaml:"deleted"`
}

type UpstreamJobRef struct {
	Instance string `yaml:"instance"`
	Job      string `yaml:"job"`
}

// SecretRef points into the secret backend. Version is optional; backends
// without versioning ignore it.
type SecretRef struct {
	Path    string `yaml:"path"`
	Field   string `yaml:"field"`
	Version *int   `yaml:"version"`
}

// Namespace is read-only reference data owned by the platform inventory.
type Namespace struct {
	Name        string `yaml:"name"`
	Cluster     string `yaml:"cluster"`
	Environment string `yaml:"environment"`
	App         string `yaml:"app"`
}

type Environment struct {
	Name             string                 `yaml:"name"`
	Labels           map[string]string      `yaml:"labels"`
	Parameters       map[string]interface{} `yaml:"parameters"`
	SecretParameters map[string]SecretRef   `yaml:"secretParameters"`
}

// ImagePatternsBlockRule blocks triggers whose targets use images matching
// one of the listed prefixes, in environments matching the selector.
type ImagePatternsBlockRule struct {
	EnvironmentSelector map[string]string `yaml:"environmentSelector"`
	BlockedPatterns     []string          `yaml:"blockedPatterns"`
}

// TargetSpec is a target with its configuration fully resolved, the unit the
// diff engine works on.
type TargetSpec struct {
	File        DeploymentFile
	Template    ResourceTemplate
	Target      Target
	Namespace   Namespace
	Environment Environment
	Parameters  map[string]string
}

func (ts TargetSpec) TriggerTarget() TriggerTarget {
	return TriggerTarget{
		DeploymentFile:   ts.File.Name,
		ResourceTemplate: ts.Template.Name,
		Cluster:          ts.Namespace.Cluster,
		Namespace:        ts.Namespace.Name,
		Environment:      ts.Namespace.Environment,
	}
}

// Images returns the image references a policy gate has to inspect.
func (ts TargetSpec) Images() []string {
	if ts.Target.Image == nil {
		return nil
	}
	return []string{*ts.Target.Image}
}
