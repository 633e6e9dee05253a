// Package delivery holds the delivery-zone engine: the commune and zone
// registry, the fee calculator and the slot availability rules. Everything
// here is pure computation over an immutable Catalog; a CatalogWatcher
// swaps in a new one when the catalog file changes.
package delivery
