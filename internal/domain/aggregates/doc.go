// Package aggregates declares the write boundaries of the school domain.
//
// Each aggregate owns one transaction per call: it loads what its invariants
// need, applies entity mutations, persists, and records audit entries in the
// same transaction. Broad reads stay on the table repos.
package aggregates
