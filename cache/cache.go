// Package cache implements the cache-and-resume logic of the sync
// pipeline: mapping a (resource, language, mode) key to its artifact
// path, deciding whether an existing artifact satisfies a run, and
// merging freshly fetched strings with previously cached ones.
//
// Freshness is existence: an artifact on disk is always reused unless
// the caller forces a re-download. There is no TTL and no checksum.
package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/openedx/txsync/records"
)

// Key identifies one unit of work: a resource fetched for one target
// language in one mode.
type Key struct {
	// Resource is the Transifex resource slug.
	Resource string
	// Lang is the target language code.
	Lang string
	// Mode is the string filter (untranslated or unreviewed).
	Mode records.Mode
}

// Resolver maps keys to artifact paths under a fixed output directory.
type Resolver struct {
	// Dir is the output directory holding CSV artifacts.
	Dir string
}

// Path returns the deterministic artifact path for a key.
func (r Resolver) Path(key Key) string {
	name := fmt.Sprintf("%s_%s_%s.csv", key.Mode, slugify(key.Resource), key.Lang)
	return filepath.Join(r.Dir, name)
}

// Resolve reports whether the artifact for key may be reused.
// With force set it always signals a fetch; otherwise the artifact is
// fresh iff it exists, regardless of age or content.
func (r Resolver) Resolve(key Key, force bool) (useCache bool, path string) {
	path = r.Path(key)
	if force {
		return false, path
	}
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false, path
	}
	return true, path
}

// slugify makes a resource name safe for use in a file name.
func slugify(name string) string {
	var b strings.Builder
	for _, c := range strings.ToLower(name) {
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '-':
			b.WriteRune(c)
		default:
			b.WriteByte('-')
		}
	}
	return strings.Trim(b.String(), "-")
}

// Merge combines previously cached records with newly fetched ones.
// Records are keyed by string key: a fetched record replaces the cached
// one with the same key, cached-only records are preserved, and new keys
// are appended in fetch order. Merging the same input twice yields an
// identical result.
func Merge(cached, fetched []records.Record) []records.Record {
	fresh := make(map[string]records.Record, len(fetched))
	for _, rec := range fetched {
		fresh[rec.Key] = rec
	}

	merged := make([]records.Record, 0, len(cached)+len(fetched))
	seen := make(map[string]bool, len(cached))
	for _, rec := range cached {
		if upd, ok := fresh[rec.Key]; ok {
			merged = append(merged, upd)
		} else {
			merged = append(merged, rec)
		}
		seen[rec.Key] = true
	}
	for _, rec := range fetched {
		if !seen[rec.Key] {
			merged = append(merged, fresh[rec.Key])
			seen[rec.Key] = true
		}
	}
	return merged
}
