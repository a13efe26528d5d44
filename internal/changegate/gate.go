package changegate

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"go.uber.org/zap"

	"github.com/rpattn/rulesync/internal/repository"
)

// Fingerprint returns the deterministic content digest of the raw
// artifact bytes. It is compared by equality only, never diffed.
func Fingerprint(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Result carries the gate decision plus the fingerprints needed to
// commit it once the publish step has acknowledged success.
type Result struct {
	Changed  bool
	Current  string
	Previous string

	// previousKnown is false when the store read failed; Commit then
	// falls back to an unconditional put because no reliable token
	// exists to compare against.
	previousKnown bool
}

// Gate compares a fetched artifact against the last published
// fingerprint. Check never writes: the new fingerprint is persisted by
// Commit only after a successful publish, so a failed publish can never
// masquerade as an already-synced run.
type Gate struct {
	store  repository.FingerprintStore
	key    string
	logger *zap.Logger
}

// New creates a gate over store, persisting under key.
func New(store repository.FingerprintStore, key string, logger *zap.Logger) *Gate {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gate{store: store, key: key, logger: logger}
}

// Check fingerprints data and compares it with the stored value. A store
// fault degrades to "changed": a redundant publish is preferred over
// silently missing an update.
func (g *Gate) Check(ctx context.Context, data []byte) Result {
	current := Fingerprint(data)

	previous, found, err := g.store.Get(ctx, g.key)
	if err != nil {
		g.logger.Warn("fingerprint store read failed, assuming changed", zap.Error(err))
		return Result{Changed: true, Current: current}
	}
	if found && previous == current {
		return Result{Changed: false, Current: current, Previous: previous, previousKnown: true}
	}
	return Result{Changed: true, Current: current, Previous: previous, previousKnown: true}
}

// Commit persists the fingerprint observed by Check. The compare-and-put
// keyed on the value read at check time acts as an optimistic-concurrency
// token: when two runs overlap, the loser sees a failed swap and leaves
// the winner's fingerprint alone.
func (g *Gate) Commit(ctx context.Context, res Result) error {
	if !res.previousKnown {
		return g.store.Put(ctx, g.key, res.Current)
	}

	swapped, err := g.store.CompareAndPut(ctx, g.key, res.Previous, res.Current)
	if err != nil {
		return err
	}
	if !swapped {
		g.logger.Warn("fingerprint changed underneath this run, leaving store as is",
			zap.String("expected_previous", res.Previous),
			zap.String("current", res.Current))
	}
	return nil
}
