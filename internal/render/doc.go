// Package render is the client for the ballot layout service.
//
// The layout engine lives outside this repository. It accepts a template id,
// the election definition, a list of render props, and the UI string
// catalog, and returns one PDF per prop plus the canonical election
// definition and its hash. Large prop lists are split into batches that run
// with bounded concurrency; documents come back in prop order and every
// batch must agree on the election hash.
package render
