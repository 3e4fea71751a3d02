// Package lstore implements an in-memory, single-node store.IStore.
//
// Namespaces and their keys are kept in nested xsync.MapOf maps, so all operations are
// safe for concurrent use without a global lock. A write without overwrite uses LoadOrStore,
// which means that of several concurrent writers of the same key exactly one succeeds.
// Data is not persisted between process restarts.
package lstore
