package policy

import (
	"strings"

	"deploykit/reconciler-service/pkg/model"
)

// Blocked reports whether any rule matching the environment labels blocks
// one of the given image references, and returns the matching pattern. A
// rule matches only when all of its selector entries are present with the
// same value; an empty selector matches every environment.
func Blocked(rules []model.ImagePatternsBlockRule, envLabels map[string]string, images []string) (bool, string) {
	for _, rule := range rules {
		if !selectorMatches(rule.EnvironmentSelector, envLabels) {
			continue
		}
		for _, pattern := range rule.BlockedPatterns {
			for _, image := range images {
				if strings.HasPrefix(image, pattern) {
					return true, pattern
				}
			}
		}
	}
	return false, ""
}

func selectorMatches(selector, labels map[string]string) bool {
	for k, v := range selector {
		if labels[k] != v {
			return false
		}
	}
	return true
}
