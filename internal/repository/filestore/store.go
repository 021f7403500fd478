// Package filestore keeps accounts and the shop catalog in two JSON-array
// documents on disk. Every mutation rewrites the whole document; each
// document has its own lock, so concurrent writers never lose updates.
package filestore

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"fsanano/economy/internal/model"
	"fsanano/economy/internal/repository"
)

var _ repository.Store = (*Store)(nil)

// Store is the file-backed repository.Store.
type Store struct {
	log      *slog.Logger
	accounts *document[model.Account]
	catalog  *document[model.Item]
}

// Open prepares both documents, creating them as empty arrays when missing.
// A single Store must own the files: locking is in-process only.
func Open(log *slog.Logger, accountsPath, catalogPath string) (*Store, error) {
	const op = "filestore.Open"

	log = log.With(slog.String("store", "file"))
	s := &Store{
		log:      log,
		accounts: newDocument[model.Account](accountsPath, log),
		catalog:  newDocument[model.Item](catalogPath, log),
	}

	if err := s.accounts.ensure(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.catalog.ensure(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s, nil
}

// Close is a no-op; documents are not kept open between calls.
func (s *Store) Close() error { return nil }

// ---------------------------------------------------------------------------
// Atomic units
// ---------------------------------------------------------------------------

type snapshot[T any] struct {
	records []T
	loaded  bool
	dirty   bool
}

// unit is the in-memory state of one RunAtomic call.
type unit struct {
	owner    *Store
	accounts snapshot[model.Account]
	catalog  snapshot[model.Item]
}

type unitKey struct{}

func (s *Store) unitFromCtx(ctx context.Context) (*unit, bool) {
	u, ok := ctx.Value(unitKey{}).(*unit)
	if !ok || u.owner != s {
		return nil, false
	}
	return u, true
}

// RunAtomic locks the catalog and then the accounts document for the whole
// of fn. Loads and saves made with fn's ctx work on an in-memory snapshot
// that is written back once, after fn succeeds.
func (s *Store) RunAtomic(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := s.unitFromCtx(ctx); ok {
		return fn(ctx)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.catalog.mu.Lock()
	defer s.catalog.mu.Unlock()
	s.accounts.mu.Lock()
	defer s.accounts.mu.Unlock()

	u := &unit{owner: s}
	if err := fn(context.WithValue(ctx, unitKey{}, u)); err != nil {
		return err
	}

	return s.commit(u)
}

// commit writes the catalog first and the accounts second. If the accounts
// write fails, the previous catalog is put back.
func (s *Store) commit(u *unit) error {
	const op = "filestore.commit"

	var previousCatalog []byte
	if u.catalog.dirty {
		raw, err := s.catalog.readRaw()
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		previousCatalog = raw

		if err := s.catalog.write(u.catalog.records); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	if u.accounts.dirty {
		if err := s.accounts.write(u.accounts.records); err != nil {
			if u.catalog.dirty {
				if rerr := s.catalog.writeRaw(previousCatalog); rerr != nil {
					s.log.Error("failed to restore catalog after aborted commit", slog.Any("error", rerr))
				}
			}
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	return nil
}

// access runs fn over the records of d, inside the unit carried by ctx when
// there is one, or as its own locked read-modify-write cycle otherwise.
// fn reports whether it changed the records.
func access[T any](
	ctx context.Context,
	s *Store,
	d *document[T],
	pick func(*unit) *snapshot[T],
	fn func(records []T) ([]T, bool, error),
) error {
	if u, ok := s.unitFromCtx(ctx); ok {
		snap := pick(u)
		if !snap.loaded {
			records, err := d.read()
			if err != nil {
				return err
			}
			snap.records, snap.loaded = records, true
		}
		next, changed, err := fn(snap.records)
		if err != nil {
			return err
		}
		if changed {
			snap.records, snap.dirty = next, true
		}
		return nil
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	records, err := d.read()
	if err != nil {
		return err
	}
	next, changed, err := fn(records)
	if err != nil || !changed {
		return err
	}
	return d.write(next)
}

func pickAccounts(u *unit) *snapshot[model.Account] { return &u.accounts }
func pickCatalog(u *unit) *snapshot[model.Item]     { return &u.catalog }

// ---------------------------------------------------------------------------
// Accounts
// ---------------------------------------------------------------------------

// Load returns the record for id, or a default record if id was never saved.
func (s *Store) Load(ctx context.Context, id string) (model.Account, error) {
	const op = "filestore.Load"

	acc := model.NewAccount(id)
	err := access(ctx, s, s.accounts, pickAccounts, func(records []model.Account) ([]model.Account, bool, error) {
		for _, r := range records {
			if r.ID == id {
				acc = cloneAccount(r)
				break
			}
		}
		return records, false, nil
	})
	if err != nil {
		return model.Account{}, fmt.Errorf("%s: %w", op, err)
	}

	return acc, nil
}

// Save upserts acc by id.
func (s *Store) Save(ctx context.Context, acc model.Account) (model.Account, error) {
	const op = "filestore.Save"

	acc = cloneAccount(acc)
	err := access(ctx, s, s.accounts, pickAccounts, func(records []model.Account) ([]model.Account, bool, error) {
		for i := range records {
			if records[i].ID == acc.ID {
				records[i] = acc
				return records, true, nil
			}
		}
		return append(records, acc), true, nil
	})
	if err != nil {
		return model.Account{}, fmt.Errorf("%s: %w", op, err)
	}

	return cloneAccount(acc), nil
}

// AccountIDs returns the ids of all saved accounts in document order.
func (s *Store) AccountIDs(ctx context.Context) ([]string, error) {
	const op = "filestore.AccountIDs"

	var ids []string
	err := access(ctx, s, s.accounts, pickAccounts, func(records []model.Account) ([]model.Account, bool, error) {
		ids = make([]string, 0, len(records))
		for _, r := range records {
			ids = append(ids, r.ID)
		}
		return records, false, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return ids, nil
}

// ---------------------------------------------------------------------------
// Catalog
// ---------------------------------------------------------------------------

// ListItems returns the whole catalog in document order.
func (s *Store) ListItems(ctx context.Context) ([]model.Item, error) {
	const op = "filestore.ListItems"

	var items []model.Item
	err := access(ctx, s, s.catalog, pickCatalog, func(records []model.Item) ([]model.Item, bool, error) {
		items = cloneItems(records)
		return records, false, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return items, nil
}

// ReplaceAll overwrites the catalog with items.
func (s *Store) ReplaceAll(ctx context.Context, items []model.Item) ([]model.Item, error) {
	const op = "filestore.ReplaceAll"

	next := cloneItems(items)
	err := access(ctx, s, s.catalog, pickCatalog, func([]model.Item) ([]model.Item, bool, error) {
		return next, true, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return cloneItems(next), nil
}

func cloneAccount(a model.Account) model.Account {
	if a.Items == nil {
		a.Items = []string{}
	} else {
		a.Items = slices.Clone(a.Items)
	}
	return a
}

func cloneItems(items []model.Item) []model.Item {
	out := make([]model.Item, len(items))
	copy(out, items)
	for i := range out {
		if out[i].Stock != nil {
			v := *out[i].Stock
			out[i].Stock = &v
		}
	}
	return out
}
