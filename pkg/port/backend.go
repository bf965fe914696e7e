package port

import (
	"errors"
	"fmt"
	"iter"
	"slices"
	"sync"

	"github.com/nobletooth/filecache/pkg/scan"
	"github.com/nobletooth/filecache/pkg/storage"
	"github.com/nobletooth/filecache/pkg/utils"
)

// Store is the cache used by ports; *storage.ShardedFileCache implements it.
type Store interface {
	Save(key string, value any) error
	Load(key string) (any, error)
	Remove(key string) error
	Has(key string) (bool, error)
	Keys() iter.Seq[string]
	Clear() storage.ClearReport
}

var _ Store = (*storage.ShardedFileCache)(nil)

// CacheBackend is the storage backend used by ports, e.g. Redis. It serializes conditional writes issued through this
// process; writers in other processes are not coordinated.
type CacheBackend struct {
	mux   sync.RWMutex
	store Store
}

// NewCacheBackend wraps the given `store`.
func NewCacheBackend(store Store) (*CacheBackend, error) {
	if store == nil {
		return nil, errors.New("expected a non-nil store")
	}
	return &CacheBackend{store: store}, nil
}

// Get looks up the given `key` and returns its value or storage.ErrKeyNotFound.
func (cb *CacheBackend) Get(key string) (any, error) {
	cb.mux.RLock()
	defer cb.mux.RUnlock()
	return cb.store.Load(key)
}

type existenceCheck uint8

const (
	noCheck     existenceCheck = iota
	ifNotExists                // NX
	ifExists                   // XX
)

var allExistenceChecks = []existenceCheck{noCheck, ifExists, ifNotExists}

type SetCommand struct {
	key       string
	value     any
	existence existenceCheck
	get       bool // The Redis GET option; if true, should return the previous value.
}

type SetResult struct {
	previousValue    any  // Only set if the command requires the previous value.
	hasPreviousValue bool // If true, the `key` specified in SetCommand had a previous value.
	couldSet         bool // If true, something was written to the cache.
	err              error
}

// Set executes the given `cmd` and returns the previous value if required.
func (cb *CacheBackend) Set(cmd SetCommand) SetResult {
	if !slices.Contains(allExistenceChecks, cmd.existence) {
		utils.RaiseInvariant("backend", "unknown_set_existence_constraint",
			"Got an unknown existence constraint in the given set command.", "constraint", cmd.existence)
		return SetResult{err: fmt.Errorf("got unknown set constraint '%d'", cmd.existence)}
	}

	cb.mux.Lock()
	defer cb.mux.Unlock()

	// Check if previous value needs to be retrieved.
	var prevValue any
	hasPrevValue := false
	if cmd.existence != noCheck || cmd.get {
		value, err := cb.store.Load(cmd.key)
		if err != nil && !errors.Is(err, storage.ErrKeyNotFound) {
			return SetResult{err: fmt.Errorf("failed to get previous value: %w", err)}
		} else if err == nil {
			prevValue = value
			hasPrevValue = true
		}
	}

	couldSet := cmd.existence == noCheck || // Set any way.
		(cmd.existence == ifNotExists && !hasPrevValue) || // NX; Set only if not exists.
		(cmd.existence == ifExists && hasPrevValue) // XX; Set only if exists.
	if couldSet {
		if err := cb.store.Save(cmd.key, cmd.value); err != nil {
			return SetResult{err: fmt.Errorf("failed to set value: %w", err)}
		}
	}

	if cmd.get { // Client wants the previous value returned.
		return SetResult{previousValue: prevValue, hasPreviousValue: hasPrevValue, couldSet: couldSet}
	}
	return SetResult{couldSet: couldSet}
}

// Delete removes `key`; a missing key yields storage.ErrKeyNotFound.
func (cb *CacheBackend) Delete(key string) error {
	cb.mux.Lock()
	defer cb.mux.Unlock()
	return cb.store.Remove(key)
}

// Exists reports whether `key` is cached.
func (cb *CacheBackend) Exists(key string) (bool, error) {
	cb.mux.RLock()
	defer cb.mux.RUnlock()
	return cb.store.Has(key)
}

// Keys returns the cached keys matching the glob `pattern`, sorted.
func (cb *CacheBackend) Keys(pattern string) ([]string, error) {
	cb.mux.RLock()
	defer cb.mux.RUnlock()
	matched, err := scan.MatchGlob(pattern, cb.store.Keys())
	if err != nil {
		return nil, err
	}
	return slices.Sorted(matched), nil
}

// Flush removes every cached entry.
func (cb *CacheBackend) Flush() storage.ClearReport {
	cb.mux.Lock()
	defer cb.mux.Unlock()
	return cb.store.Clear()
}
