package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/nestlist/wishlist-scraper/models"
	"github.com/nestlist/wishlist-scraper/registry"
)

// RegistryWriter pushes batches straight into the external registry store.
// The store assigns identities; a failed call may still have persisted a
// prefix of the batch, so written counts are best-effort.
type RegistryWriter struct {
	store registry.Store
	ctx   context.Context

	mu      sync.Mutex
	written int
}

// NewRegistryWriter wires the pipeline to a registry store.
func NewRegistryWriter(ctx context.Context, store registry.Store) *RegistryWriter {
	if ctx == nil {
		ctx = context.Background()
	}
	return &RegistryWriter{store: store, ctx: ctx}
}

// Write inserts one batch into the store.
func (rw *RegistryWriter) Write(items []*models.ScrapedItem) error {
	created, err := rw.store.InsertBatch(rw.ctx, items)
	if err != nil {
		return fmt.Errorf("registry write: %w", err)
	}

	rw.mu.Lock()
	rw.written += len(created)
	rw.mu.Unlock()

	slog.Debug("registry batch inserted", slog.Int("rows", len(created)))
	return nil
}

// Close is a no-op; the store connection is request-scoped.
func (rw *RegistryWriter) Close() error {
	return nil
}

// Validate ensures at least one row reached the store.
func (rw *RegistryWriter) Validate() error {
	rw.mu.Lock()
	defer rw.mu.Unlock()
	if rw.written == 0 {
		return fmt.Errorf("no rows reached the registry store")
	}
	return nil
}

// Written reports how many rows the store acknowledged.
func (rw *RegistryWriter) Written() int {
	rw.mu.Lock()
	defer rw.mu.Unlock()
	return rw.written
}
