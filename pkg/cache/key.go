package cache

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// Key identifies a cached API response.
type Key struct {
	// Path is the API endpoint path (e.g., "/v1/example.com/whois").
	Path string

	// Params are the query parameters of the lookup. Credentials and
	// signatures are excluded; they would break key stability.
	Params url.Values
}

// String generates a deterministic cache key string.
// Format: dt:endpoint:param1=val1:param2=val2
//
// Example:
//
//	dt:v1/example.com/whois:mode=live
func (k Key) String() string {
	parts := []string{"dt"}

	path := strings.Trim(k.Path, "/")
	if path != "" {
		parts = append(parts, path)
	}

	if len(k.Params) > 0 {
		keys := make([]string, 0, len(k.Params))
		for key := range k.Params {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		for _, key := range keys {
			parts = append(parts, fmt.Sprintf("%s=%s", key, k.Params.Get(key)))
		}
	}

	return strings.Join(parts, ":")
}
