// Package speech synthesizes audio for ballot text.
//
// Clips are memoized in the store's speech cache; misses for one language go
// to the cloud API in a single batched request. Texts longer than the
// configured byte limit (speech.max_cacheable_bytes, 2704 by default) are
// never cached and are synthesized again on every export.
package speech
