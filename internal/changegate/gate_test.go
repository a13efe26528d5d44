package changegate

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
)

type stubFingerprintStore struct {
	values map[string]string
	getErr error
	puts   int
	swaps  int
}

func newStubStore() *stubFingerprintStore {
	return &stubFingerprintStore{values: map[string]string{}}
}

func (s *stubFingerprintStore) Get(ctx context.Context, key string) (string, bool, error) {
	if s.getErr != nil {
		return "", false, s.getErr
	}
	value, ok := s.values[key]
	return value, ok, nil
}

func (s *stubFingerprintStore) Put(ctx context.Context, key, value string) error {
	s.puts++
	s.values[key] = value
	return nil
}

func (s *stubFingerprintStore) CompareAndPut(ctx context.Context, key, previous, value string) (bool, error) {
	s.swaps++
	current, found := s.values[key]
	if found != (previous != "") || (found && current != previous) {
		return false, nil
	}
	s.values[key] = value
	return true, nil
}

func TestGateFirstRunIsChanged(t *testing.T) {
	store := newStubStore()
	gate := New(store, "rules/rules.hash", zap.NewNop())

	res := gate.Check(context.Background(), []byte("v1"))
	if !res.Changed {
		t.Fatalf("expected first run to be changed")
	}
	if len(store.values) != 0 {
		t.Fatalf("check must not write to the store, got %v", store.values)
	}
}

func TestGateIdempotentOnIdenticalContent(t *testing.T) {
	store := newStubStore()
	gate := New(store, "k", zap.NewNop())
	ctx := context.Background()

	first := gate.Check(ctx, []byte("payload"))
	if err := gate.Commit(ctx, first); err != nil {
		t.Fatalf("commit failed: %v", err)
	}
	stored := store.values["k"]

	second := gate.Check(ctx, []byte("payload"))
	if second.Changed {
		t.Fatalf("expected identical content to be unchanged")
	}
	if store.values["k"] != stored {
		t.Fatalf("unchanged path must not rewrite the fingerprint")
	}
}

func TestGateChangeSensitivity(t *testing.T) {
	store := newStubStore()
	gate := New(store, "k", zap.NewNop())
	ctx := context.Background()

	first := gate.Check(ctx, []byte("payload"))
	if err := gate.Commit(ctx, first); err != nil {
		t.Fatalf("commit failed: %v", err)
	}

	// Flip a single byte.
	res := gate.Check(ctx, []byte("paylobd"))
	if !res.Changed {
		t.Fatalf("expected a one-byte flip to be detected")
	}
	if err := gate.Commit(ctx, res); err != nil {
		t.Fatalf("commit failed: %v", err)
	}
	if store.values["k"] != Fingerprint([]byte("paylobd")) {
		t.Fatalf("expected stored fingerprint updated to the new digest")
	}
}

func TestGateUncommittedCheckLeavesStoreUntouched(t *testing.T) {
	store := newStubStore()
	gate := New(store, "k", zap.NewNop())
	ctx := context.Background()

	gate.Check(ctx, []byte("v1"))
	// Simulating a failed publish: no commit happens.

	res := gate.Check(ctx, []byte("v1"))
	if !res.Changed {
		t.Fatalf("expected the next run to re-detect the change after a failed publish")
	}
}

func TestGateStoreFaultAssumesChanged(t *testing.T) {
	store := newStubStore()
	store.getErr = errors.New("store unavailable")
	gate := New(store, "k", zap.NewNop())
	ctx := context.Background()

	res := gate.Check(ctx, []byte("v1"))
	if !res.Changed {
		t.Fatalf("expected a store fault to degrade to changed")
	}

	// With no reliable token, commit falls back to an unconditional put.
	if err := gate.Commit(ctx, res); err != nil {
		t.Fatalf("commit failed: %v", err)
	}
	if store.puts != 1 || store.swaps != 0 {
		t.Fatalf("expected one unconditional put, got puts=%d swaps=%d", store.puts, store.swaps)
	}
}

func TestGateCommitLosesRaceGracefully(t *testing.T) {
	store := newStubStore()
	gate := New(store, "k", zap.NewNop())
	ctx := context.Background()

	res := gate.Check(ctx, []byte("v1"))

	// Another run commits in between.
	winner := Fingerprint([]byte("v2"))
	store.values["k"] = winner

	if err := gate.Commit(ctx, res); err != nil {
		t.Fatalf("losing the race must not be an error: %v", err)
	}
	if store.values["k"] != winner {
		t.Fatalf("loser must not clobber the winner's fingerprint")
	}
}

func TestFingerprintDeterministic(t *testing.T) {
	a := Fingerprint([]byte("content"))
	b := Fingerprint([]byte("content"))
	if a != b {
		t.Fatalf("fingerprint must be deterministic: %s != %s", a, b)
	}
	if len(a) != 64 {
		t.Fatalf("expected hex sha-256 digest, got %q", a)
	}
}
