package client

import (
	"context"
	"errors"
)

// ErrMutationInFlight is returned when a second mutation targets a key
// whose previous mutation has not settled yet
var ErrMutationInFlight = errors.New("a mutation of this key is already in flight")

type updateConfig struct {
	dependents []string
	derive     func(any) []string
}

// UpdateOption configures WithOptimisticUpdate
type UpdateOption func(*updateConfig)

// Invalidates marks the given keys (or key prefixes) stale once the server
// accepts the mutation
func Invalidates(keys ...string) UpdateOption {
	return func(cfg *updateConfig) {
		cfg.dependents = append(cfg.dependents, keys...)
	}
}

// InvalidatesFrom derives dependents from the server's response, for views
// whose key is only known after the commit (the order behind a payment).
func InvalidatesFrom[T any](fn func(T) []string) UpdateOption {
	return func(cfg *updateConfig) {
		cfg.derive = func(v any) []string {
			typed, ok := v.(T)
			if !ok {
				return nil
			}
			return fn(typed)
		}
	}
}

// WithOptimisticUpdate applies a mutation to the cache before the server
// sees it and reconciles afterwards:
//
//  1. the cached value of key is snapshotted;
//  2. applyLocally's result is stored under key;
//  3. commitRemotely runs; its result replaces the optimistic value and
//     dependents are marked stale;
//  4. on error the snapshot is restored exactly, rollback (if any) is
//     called with it and the error is returned untouched;
//  5. either way key is left stale so the next read revalidates it.
//
// applyLocally receives the zero T when key is not cached and may be nil
// when there is nothing sensible to show before the server answers.
func WithOptimisticUpdate[T any](
	ctx context.Context,
	cache *Cache,
	key string,
	applyLocally func(T) T,
	commitRemotely func(ctx context.Context) (T, error),
	rollback func(Snapshot),
	opts ...UpdateOption,
) (T, error) {
	var zero T
	cfg := &updateConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	if !cache.acquire(key) {
		return zero, ErrMutationInFlight
	}
	defer cache.release(key)
	defer cache.MarkStale(key)

	snapshot := cache.Snapshot(key)
	if applyLocally != nil {
		current, _ := Lookup[T](cache, key)
		cache.put(key, applyLocally(current), !snapshot.Present || snapshot.Stale)
	}

	result, err := commitRemotely(ctx)
	if err != nil {
		cache.Restore(snapshot)
		if rollback != nil {
			rollback(snapshot)
		}
		return zero, err
	}

	cache.Set(key, result)
	dependents := cfg.dependents
	if cfg.derive != nil {
		dependents = append(dependents, cfg.derive(result)...)
	}
	if len(dependents) > 0 {
		cache.Invalidate(dependents...)
	}
	return result, nil
}
