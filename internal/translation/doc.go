// Package translation turns English ballot text into the other configured
// languages.
//
// Lookups go through three tiers in order: the vendored dictionary embedded
// in this package, the durable translation cache in the store, and finally
// one batched call per language to the cloud translation API. Fresh results
// are written back to the store cache only. English targets short-circuit
// every tier.
//
// Source texts are NFC-normalized before lookup so visually identical
// strings share a cache row.
package translation
