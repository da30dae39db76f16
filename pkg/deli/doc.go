// Package deli defines the resource model shared by every layer of the
// provider: resource kinds, typed attribute sets, computed-field maps,
// resolved references, and the classified error type returned across the
// plugin boundary.
//
// Everything in this package is plain data. Validation lives in
// pkg/schema, pricing in pkg/pricing, and cross-instance computation in
// pkg/aggregate; deli only describes what those layers operate on.
package deli
