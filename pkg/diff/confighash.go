package diff

import (
	"crypto/sha256"
	"encoding/hex"

	"gopkg.in/yaml.v3"
)

// ConfigHash computes the content hash of a target's fully resolved
// configuration. Map keys are serialized in sorted order, so the hash is
// stable for equal configurations.
func ConfigHash(parameters map[string]string) string {
	out, err := yaml.Marshal(parameters)
	if err != nil {
		// map[string]string cannot fail to marshal; keep the signature small
		out = []byte{}
	}
	sum := sha256.Sum256(out)
	return hex.EncodeToString(sum[:])
}
