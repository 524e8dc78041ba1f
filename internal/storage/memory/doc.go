// Package memory provides the in-memory key-value store for respkv.
//
// A single sync.RWMutex guards the whole map. Reads share the lock; writes
// and lazy expiry removal take it exclusively. Expired entries are removed
// only when a read observes them; there is no background sweeper.
package memory
