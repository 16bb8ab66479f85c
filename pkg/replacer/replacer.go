package replacer

import (
	"regexp"
	"strings"

	logger "github.com/sirupsen/logrus"
)

const prefix = `{"deploykit.promotion.replacewith":"`
const suffix = `"}`

// Replace rewrites values marked by a yaml comment annotation, e.g.
//   targetConfigHash: 0a1b2c # {"deploykit.promotion.replacewith":"promotion.stable.targetConfigHash"}
// Only annotated lines change; everything else passes through untouched.
func Replace(fileData string, fields map[string]string) string {
	replaced := fileData
	// quick containment check before the per-line regex work
	for field, value := range fields {
		if strings.Contains(replaced, prefix+field+suffix) {
			replaced = replaceValue(replaced, field, value)
		}
	}
	logger.WithField("func", "Replace").Debugf("fields: %v, replaced %d bytes", fields, len(replaced))
	return replaced
}

func replaceValue(file, field, value string) string {
	lines := strings.Split(file, "\n")
	annotation := prefix + field + suffix
	re := regexp.MustCompile(`(^.+: ).*( # ` + regexp.QuoteMeta(annotation) + `$)`)
	for i, line := range lines {
		if strings.Contains(line, annotation) {
			lines[i] = re.ReplaceAllString(line, "${1}"+value+"${2}")
		}
	}
	return strings.Join(lines, "\n")
}
