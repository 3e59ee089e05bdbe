package payments

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeIdempotencyStore struct {
	keys    map[string]string
	deleted []string
}

func newFakeIdempotencyStore() *fakeIdempotencyStore {
	return &fakeIdempotencyStore{keys: map[string]string{}}
}

func (f *fakeIdempotencyStore) Get(_ context.Context, key string) (string, error) {
	return f.keys[key], nil
}

func (f *fakeIdempotencyStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, exists := f.keys[key]; exists {
		return false, nil
	}
	f.keys[key] = "1"
	_ = value
	return true, nil
}

func (f *fakeIdempotencyStore) IdempotencyKey(scope, id string) string {
	return "mc:idempotency:" + scope + ":" + id
}

func (f *fakeIdempotencyStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.keys, key)
		f.deleted = append(f.deleted, key)
	}
	return nil
}

func TestGuardCheckAndMark(t *testing.T) {
	store := newFakeIdempotencyStore()
	guard, err := NewIdempotencyGuard(store, time.Minute, "webhooks:stripe")
	require.NoError(t, err)

	seen, err := guard.CheckAndMark(context.Background(), "evt_1")
	require.NoError(t, err)
	require.False(t, seen)

	seen, err = guard.CheckAndMark(context.Background(), "evt_1")
	require.NoError(t, err)
	require.True(t, seen)
}

func TestGuardDeleteReleasesMark(t *testing.T) {
	store := newFakeIdempotencyStore()
	guard, err := NewIdempotencyGuard(store, time.Minute, "webhooks:square")
	require.NoError(t, err)

	_, err = guard.CheckAndMark(context.Background(), "evt_2")
	require.NoError(t, err)
	require.NoError(t, guard.Delete(context.Background(), "evt_2"))

	seen, err := guard.CheckAndMark(context.Background(), "evt_2")
	require.NoError(t, err)
	require.False(t, seen)
}

func TestGuardScopesAreIndependent(t *testing.T) {
	store := newFakeIdempotencyStore()
	stripeGuard, err := NewIdempotencyGuard(store, time.Minute, "webhooks:stripe")
	require.NoError(t, err)
	squareGuard, err := NewIdempotencyGuard(store, time.Minute, "webhooks:square")
	require.NoError(t, err)

	_, err = stripeGuard.CheckAndMark(context.Background(), "evt_3")
	require.NoError(t, err)

	seen, err := squareGuard.CheckAndMark(context.Background(), "evt_3")
	require.NoError(t, err)
	require.False(t, seen)
}
