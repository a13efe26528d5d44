package repository

import (
	"context"

	"github.com/rpattn/rulesync/internal/domain"
)

// FingerprintStore is a durable scalar store for content fingerprints,
// one value per well-known key. It is a plain get/put surface with a
// compare-and-put primitive so overlapping runs cannot clobber each
// other's commit.
type FingerprintStore interface {
	// Get returns the stored fingerprint. found is false when no value
	// has ever been written for key (the first run).
	Get(ctx context.Context, key string) (value string, found bool, err error)
	// Put stores value unconditionally.
	Put(ctx context.Context, key, value string) error
	// CompareAndPut stores value only while the currently stored value
	// still equals previous; an empty previous means "expect absent".
	// It returns false, without error, when another writer got there
	// first.
	CompareAndPut(ctx context.Context, key, previous, value string) (bool, error)
}

// RuleStore receives the published record set. Replace is replace-style
// and idempotent on rule ids: after the call the downstream set is
// exactly records, in order.
type RuleStore interface {
	Replace(ctx context.Context, records []domain.RuleRecord) error
}
