// Package version centralizes version strings for the logical components of
// the agent. The strings are folded into cache keys, so bumping a version
// here invalidates every cache entry produced under the old logic: edit the
// product catalog, bump Catalog, and stale embedding vectors stop matching.
package version

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComponentVersions holds the version strings for the cached components.
// Increment the relevant version before deploying a change to it.
var ComponentVersions = struct {
	// Catalog tracks the contents of data/products.json.
	Catalog string
	// Prompt tracks the system-prompt construction logic.
	Prompt string
}{
	Catalog: "v1.0",
	Prompt:  "v1.0",
}

// CacheKey returns a stable SHA-256 hex digest of a string, used as the
// fixed-length portion of cache keys.
func CacheKey(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// VersionedCacheKey builds "prefix:<sha256(input)>:cv<catalog>_pv<prompt>".
// Keys produced under older component versions simply stop being matched.
func VersionedCacheKey(prefix, input string) string {
	return fmt.Sprintf("%s:%s:cv%s_pv%s",
		prefix, CacheKey(input), ComponentVersions.Catalog, ComponentVersions.Prompt)
}
