package params

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	logger "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"deploykit/reconciler-service/pkg/model"
)

// Resolver merges the four configuration scopes of a target into one flat
// parameter set and materializes secret values through the injected reader.
type Resolver struct {
	secrets model.SecretReader
}

func NewResolver(secrets model.SecretReader) *Resolver {
	return &Resolver{secrets: secrets}
}

type scope struct {
	name    string
	plain   map[string]interface{}
	secrets map[string]model.SecretRef
}

// Resolve builds the effective parameter mapping for one target. Scopes are
// merged in fixed priority order, later scopes overwriting earlier ones on
// key collision. A secret read failure aborts this target only.
func (r *Resolver) Resolve(ctx context.Context, ts model.TargetSpec) (map[string]string, error) {
	// precedence, lowest first
	scopes := []scope{
		{name: "environment", plain: ts.Environment.Parameters, secrets: ts.Environment.SecretParameters},
		{name: "deployment-file", plain: ts.File.Parameters, secrets: ts.File.SecretParameters},
		{name: "resource-template", plain: ts.Template.Parameters, secrets: ts.Template.SecretParameters},
		{name: "target", plain: ts.Target.Parameters, secrets: ts.Target.SecretParameters},
	}
	merged := make(map[string]string)
	for _, s := range scopes {
		for k, v := range s.plain {
			merged[k] = normalize(v)
		}
		for k, ref := range s.secrets {
			value, err := r.secrets.Read(ctx, ref.Path, ref.Field, ref.Version)
			if err != nil {
				logger.WithField("func", "Resolve").WithError(err).Errorf("could not read secret %s/%s for scope %s", ref.Path, ref.Field, s.name)
				return nil, model.WrapSecretResolution(ref.Path+"/"+ref.Field, err)
			}
			merged[k] = value
		}
	}
	return substitute(merged), nil
}

// normalize flattens a plain catalog value to its string form. Booleans
// become the literals "true"/"false"; lists and mappings are serialized.
func normalize(v interface{}) string {
	switch value := v.(type) {
	case string:
		return value
	case bool:
		if value {
			return "true"
		}
		return "false"
	case nil:
		return ""
	case int, int64, float64:
		return fmt.Sprintf("%v", value)
	default:
		out, err := yaml.Marshal(value)
		if err != nil {
			return fmt.Sprintf("%v", value)
		}
		return strings.TrimSuffix(string(out), "\n")
	}
}

var placeholderPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// substitute performs one replacement pass: every occurrence of ${key} is
// replaced with key's merged value. Replacements are never rescanned, so a
// placeholder resolving to a string that itself contains a placeholder stays
// unresolved. Unknown keys are left literal.
func substitute(merged map[string]string) map[string]string {
	resolved := make(map[string]string, len(merged))
	for k, v := range merged {
		resolved[k] = placeholderPattern.ReplaceAllStringFunc(v, func(match string) string {
			if value, ok := merged[match[2:len(match)-1]]; ok {
				return value
			}
			return match
		})
	}
	return resolved
}
