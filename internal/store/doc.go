// Package store defines the persistence port used by the worker and task
// handlers: the task queue, election records, and the translation and speech
// caches.
//
// Adapters live in subpackages: sqlite for the durable single-file database
// and memory for tests. Both must pass the contract suite in storetest.
package store
