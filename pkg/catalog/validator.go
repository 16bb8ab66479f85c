package catalog

import (
	"fmt"

	logger "github.com/sirupsen/logrus"

	"deploykit/reconciler-service/pkg/model"
	"deploykit/reconciler-service/pkg/secretpath"
)

type validator struct {
}

func NewValidator() model.CatalogValidator {
	return validator{}
}

// Validate runs the pre-flight checks that are fatal to a whole run: the
// (namespace, environment) pair of a target must be unique within its
// deployment file, namespace and environment references must resolve, and
// every secret reference must stay inside the file's allowed path prefixes.
func (v validator) Validate(catalog *model.Catalog) (validationErrors []string) {
	for _, file := range catalog.DeploymentFiles {
		validationErrors = append(validationErrors, v.validateFile(catalog, file)...)
	}
	logger.WithField("func", "Validate").Infof("catalog validation finished with %d validation errors", len(validationErrors))
	return validationErrors
}

func (v validator) validateFile(catalog *model.Catalog, file model.DeploymentFile) (validationErrors []string) {
	validationErrors = append(validationErrors, checkSecretPaths(file, "", file.SecretParameters)...)
	seen := make(map[string]string)
	for _, template := range file.ResourceTemplates {
		prefix := fmt.Sprintf("resourceTemplates[%s]", template.Name)
		validationErrors = append(validationErrors, checkSecretPaths(file, prefix+".", template.SecretParameters)...)
		for _, target := range template.Targets {
			targetPrefix := fmt.Sprintf("%s.targets[%s]", prefix, target.Name)
			validationErrors = append(validationErrors, checkSecretPaths(file, targetPrefix+".", target.SecretParameters)...)
			namespace, ok := catalog.Namespaces[target.Namespace]
			if !ok {
				validationErrors = append(validationErrors, fmt.Sprintf(`%s: unknown namespace %q in deployment file %q`, targetPrefix, target.Namespace, file.Name))
				continue
			}
			if _, ok := catalog.Environments[namespace.Environment]; !ok {
				validationErrors = append(validationErrors, fmt.Sprintf(`%s: unknown environment %q in deployment file %q`, targetPrefix, namespace.Environment, file.Name))
			}
			pair := target.Namespace + "/" + namespace.Environment
			if previous, duplicate := seen[pair]; duplicate {
				validationErrors = append(validationErrors, fmt.Sprintf(`deployment file %q declares targets %q and %q for the same namespace %q and environment %q`,
					file.Name, previous, target.Name, target.Namespace, namespace.Environment))
			} else {
				seen[pair] = target.Name
			}
		}
	}
	return validationErrors
}

func checkSecretPaths(file model.DeploymentFile, prefix string, refs map[string]model.SecretRef) (validationErrors []string) {
	for name, ref := range refs {
		if !secretpath.PermittedByAny(file.AllowedSecretPaths, ref.Path) {
			validationErrors = append(validationErrors, fmt.Sprintf(`%ssecretParameters[%s]: path %q escapes the allowed secret paths of deployment file %q`,
				prefix, name, ref.Path, file.Name))
		}
	}
	return validationErrors
}
