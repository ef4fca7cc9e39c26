package v1

import (
	"crypto/sha256"
	"encoding/hex"
)

// generateETag returns a strong ETag for content.
func generateETag(content []byte) string {
	sum := sha256.Sum256(content)
	return `"` + hex.EncodeToString(sum[:16]) + `"`
}
