package identity

import (
	"context"
	"hash/fnv"
	"io"
	"sync"

	"github.com/openbnet/presence/internal/model"
)

// DeriveAccountID returns the persistent id for a battle tag.
// The id is a one-way deterministic hash of the canonical tag, stable
// across restarts and across compliant implementations (FNV-1a/64 over
// the UTF-8 bytes of "Name#NNNN"). Identity lookup by tag therefore
// needs no allocation table.
func DeriveAccountID(tag string) (model.AccountID, error) {
	name, code, err := model.ParseBattleTag(tag)
	if err != nil {
		return 0, err
	}
	h := fnv.New64a()
	_, _ = io.WriteString(h, model.FormatBattleTag(name, code))
	return model.AccountID(h.Sum64()), nil
}

// Seeder supplies the one-time seed for the sequential allocator
type Seeder interface {
	NextAvailableID(ctx context.Context) (uint64, error)
}

// Allocator hands out process-wide monotonically increasing persistent
// ids. It is seeded once from the backing store and then increments in
// memory under a mutex; allocations are NOT restart-safe unless the
// process re-seeds from storage on startup.
type Allocator struct {
	store Seeder

	mu     sync.Mutex
	seeded bool
	next   uint64
}

// NewAllocator creates an allocator seeded lazily from the given store
func NewAllocator(store Seeder) *Allocator {
	return &Allocator{store: store}
}

// Next returns the next sequential id, seeding from the store on first
// use. Seeding is the only call that may block on external I/O; it is
// retried on the next allocation if it fails.
func (a *Allocator) Next(ctx context.Context) (uint64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.seeded {
		seed, err := a.store.NextAvailableID(ctx)
		if err != nil {
			return 0, err
		}
		a.next = seed
		a.seeded = true
	}

	a.next++
	return a.next, nil
}
