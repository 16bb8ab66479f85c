package secretpath

import "strings"

// Permitted reports whether path stays inside the allowed prefix. The
// comparison is segment-wise: "foo" permits "foo/bar" but not "foobar/baz".
func Permitted(allowedPrefix, path string) bool {
	prefixSegments := split(allowedPrefix)
	pathSegments := split(path)
	if len(pathSegments) < len(prefixSegments) {
		return false
	}
	for i, segment := range prefixSegments {
		if pathSegments[i] != segment {
			return false
		}
	}
	return true
}

// PermittedByAny reports whether any of the allowed prefixes permits path.
// An empty allow-list permits nothing.
func PermittedByAny(allowedPrefixes []string, path string) bool {
	for _, prefix := range allowedPrefixes {
		if Permitted(prefix, path) {
			return true
		}
	}
	return false
}

func split(p string) []string {
	return strings.Split(strings.Trim(p, "/"), "/")
}
