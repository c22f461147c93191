// Package cache provides the lookup cache used to avoid re-querying external
// geocoders, with interchangeable in-memory and Postgres backends, plus a
// directory-backed cache for static map images.
package cache

import (
	"time"
)

// BaseTag is attached to every entry so a tagless Clear can purge the whole
// namespace regardless of backend.
const BaseTag = "locator"

// maxKeyLen keeps keys within the cache table's key column.
const maxKeyLen = 127

// DefaultTTLMinutes is used when callers pass a non-positive TTL.
const DefaultTTLMinutes = 1440

// LookupCache is a TTL-scoped, tag-taggable key/value store. Entries past
// their expiry are treated as missing even if the backend still holds them.
// A failed write is non-fatal to callers and a failed read is a miss.
type LookupCache interface {
	Set(key string, data []byte, tags []string, ttlMinutes int) error
	Get(key string) ([]byte, bool)
	Delete(key string) error
	Clear(tags ...string) error
}

// MakeKey namespaces a caller key under the base tag and truncates it to the
// maximum length the backends support. Callers must not rely on longer keys
// being distinguishable.
func MakeKey(key string) string {
	key = BaseTag + "_" + key
	if len(key) > maxKeyLen {
		key = key[:maxKeyLen]
	}
	return key
}

// withBaseTag returns tags with the base tag always included first.
func withBaseTag(tags []string) []string {
	out := make([]string, 0, len(tags)+1)
	out = append(out, BaseTag)
	for _, t := range tags {
		if t != "" && t != BaseTag {
			out = append(out, t)
		}
	}
	return out
}

// expiry converts a TTL in minutes to an absolute deadline.
func expiry(ttlMinutes int) time.Time {
	if ttlMinutes <= 0 {
		ttlMinutes = DefaultTTLMinutes
	}
	return time.Now().Add(time.Duration(ttlMinutes) * time.Minute)
}
