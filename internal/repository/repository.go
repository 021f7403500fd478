// Package repository defines the storage contracts of the ledger.
// Backends live in the filestore and postgres subpackages.
package repository

import (
	"context"

	"fsanano/economy/internal/model"
)

// AccountStore persists account records keyed by id.
type AccountStore interface {
	// Load returns the stored record, or model.NewAccount(id) when the id
	// was never written. A missing id is not an error.
	Load(ctx context.Context, id string) (model.Account, error)
	// Save upserts the record by id.
	Save(ctx context.Context, acc model.Account) (model.Account, error)
	// AccountIDs lists every persisted id.
	AccountIDs(ctx context.Context) ([]string, error)
}

// CatalogStore persists the shop catalog as a whole.
type CatalogStore interface {
	ListItems(ctx context.Context) ([]model.Item, error)
	ReplaceAll(ctx context.Context, items []model.Item) ([]model.Item, error)
}

// Atomic runs fn as one serialized read-modify-write unit over both stores.
// Store calls made with the ctx passed to fn join the unit; the unit is
// committed when fn returns nil and discarded otherwise. Nested calls join
// the outer unit.
type Atomic interface {
	RunAtomic(ctx context.Context, fn func(ctx context.Context) error) error
}

// Store is what the services need from a backend.
type Store interface {
	AccountStore
	CatalogStore
	Atomic
	Close() error
}
