// The cache has no index, so listing keys by pattern walks every cache file; the following module filters that key
// stream with a glob pattern.

package scan

import (
	"fmt"
	"iter"

	"v.io/v23/glob"
)

// MatchGlob lazily filters the `keys` stream with the given glob `pattern` (*, ? and [...] classes).
func MatchGlob(pattern string, keys iter.Seq[string]) (iter.Seq[string], error) {
	parsedPattern, err := glob.Parse(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid glob pattern %q: %w", pattern, err)
	}
	matcher := parsedPattern.Head()
	return func(yield func(string) bool) {
		for key := range keys {
			if matcher.Match(key) && !yield(key) {
				return
			}
		}
	}, nil
}
