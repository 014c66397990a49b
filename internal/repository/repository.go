// Package repository holds what the storage adapters share: the not-found
// sentinel and the live snapshot envelope delivered by subscriptions.
package repository

import "errors"

// ErrNotFound is returned when a record does not exist for the owner.
var ErrNotFound = errors.New("record not found")

// Snapshot is one delivery of a live subscription: the owner's full record
// set, or the error that ended the feed. Delivery order across snapshots is
// not guaranteed to match record order; consumers sort.
type Snapshot[T any] struct {
	Items []T
	Err   error
}
