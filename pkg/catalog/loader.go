package catalog

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	logger "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"deploykit/reconciler-service/pkg/model"
)

const (
	apiVersion                 = "deploykit/v1"
	kindDeploymentFile         = "DeploymentFile"
	kindNamespace              = "Namespace"
	kindEnvironment            = "Environment"
	kindImagePatternsBlockRule = "ImagePatternsBlockRule"
)

type document struct {
	APIVersion *string   `yaml:"apiVersion"`
	Kind       *string   `yaml:"kind"`
	Spec       yaml.Node `yaml:"spec"`
}

// Load reads every yaml document below dir into one catalog. Unknown kinds
// and non-yaml files are skipped with a warning; a document that fails to
// decode fails the load.
func Load(dir string) (*model.Catalog, error) {
	catalog := &model.Catalog{
		Namespaces:   make(map[string]model.Namespace),
		Environments: make(map[string]model.Environment),
	}
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !isYAML(path) {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return errors.Wrapf(err, "failed to read catalog file %s", path)
		}
		return appendDocument(catalog, path, data)
	})
	if err != nil {
		return nil, err
	}
	logger.WithField("func", "Load").Infof("loaded catalog with %d deployment files, %d namespaces, %d environments, %d block rules",
		len(catalog.DeploymentFiles), len(catalog.Namespaces), len(catalog.Environments), len(catalog.BlockRules))
	return catalog, nil
}

func appendDocument(catalog *model.Catalog, path string, data []byte) error {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return errors.Wrapf(err, "failed to unmarshal catalog file %s", path)
	}
	if doc.Kind == nil || doc.APIVersion == nil || *doc.APIVersion != apiVersion {
		logger.WithField("func", "appendDocument").Warnf("skipping %s: not a %s document", path, apiVersion)
		return nil
	}
	switch *doc.Kind {
	case kindDeploymentFile:
		var file model.DeploymentFile
		if err := doc.Spec.Decode(&file); err != nil {
			return errors.Wrapf(err, "failed to decode deployment file %s", path)
		}
		catalog.DeploymentFiles = append(catalog.DeploymentFiles, file)
	case kindNamespace:
		var namespace model.Namespace
		if err := doc.Spec.Decode(&namespace); err != nil {
			return errors.Wrapf(err, "failed to decode namespace %s", path)
		}
		catalog.Namespaces[namespace.Name] = namespace
	case kindEnvironment:
		var environment model.Environment
		if err := doc.Spec.Decode(&environment); err != nil {
			return errors.Wrapf(err, "failed to decode environment %s", path)
		}
		catalog.Environments[environment.Name] = environment
	case kindImagePatternsBlockRule:
		var rule model.ImagePatternsBlockRule
		if err := doc.Spec.Decode(&rule); err != nil {
			return errors.Wrapf(err, "failed to decode block rule %s", path)
		}
		catalog.BlockRules = append(catalog.BlockRules, rule)
	default:
		logger.WithField("func", "appendDocument").Warnf("skipping %s: unknown kind %s", path, *doc.Kind)
	}
	return nil
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}
