package service

import (
	"context"
	"fmt"
	"log/slog"

	"fsanano/economy/internal/model"
)

// Shop returns the catalog.
func (s *EconomyService) Shop(ctx context.Context) ([]model.Item, error) {
	const op = "service.Economy.Shop"

	items, err := s.store.ListItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return items, nil
}

func validateShopOp(id, name string, place model.Place) error {
	var errs fieldErrors
	errs.id("id", id)
	if name == "" {
		errs.add("name", "required")
	}
	errs.place("place", place)
	return errs.err()
}

// BuyItem charges the item price from place and adds the item to the
// account inventory.
func (s *EconomyService) BuyItem(ctx context.Context, id, name string, place model.Place) (model.Account, error) {
	const op = "service.Economy.BuyItem"

	if err := validateShopOp(id, name, place); err != nil {
		return model.Account{}, err
	}

	var acc model.Account
	err := s.store.RunAtomic(ctx, func(ctx context.Context) error {
		// 1. Find the item and check stock
		items, err := s.store.ListItems(ctx)
		if err != nil {
			return err
		}
		i := model.FindItem(items, name)
		if i < 0 {
			return fmt.Errorf("%w: %s", model.ErrItemNotFound, name)
		}
		if !items[i].InStock() {
			return fmt.Errorf("%w: %s", model.ErrOutOfStock, name)
		}

		// 2. Charge the buyer
		acc, err = s.store.Load(ctx, id)
		if err != nil {
			return err
		}
		if err := subBalance(&acc, place, items[i].Price); err != nil {
			return err
		}
		acc.Items = append(acc.Items, name)
		if acc, err = s.store.Save(ctx, acc); err != nil {
			return err
		}

		// 3. Update sales counters
		items[i].Solds++
		if items[i].Stock != nil {
			left := *items[i].Stock - 1
			items[i].Stock = &left
		}
		_, err = s.store.ReplaceAll(ctx, items)
		return err
	})
	if err != nil {
		return model.Account{}, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("item bought", slog.String("id", id), slog.String("item", name))
	return acc, nil
}

// SellItem refunds the current catalog price into place and removes one
// copy of the item from the inventory.
func (s *EconomyService) SellItem(ctx context.Context, id, name string, place model.Place) (model.Account, error) {
	const op = "service.Economy.SellItem"

	if err := validateShopOp(id, name, place); err != nil {
		return model.Account{}, err
	}

	var acc model.Account
	err := s.store.RunAtomic(ctx, func(ctx context.Context) error {
		// Catalog before account, the same lock order as BuyItem.
		items, err := s.store.ListItems(ctx)
		if err != nil {
			return err
		}
		acc, err = s.store.Load(ctx, id)
		if err != nil {
			return err
		}
		if !acc.HasItem(name) {
			return fmt.Errorf("%w: %s", model.ErrItemNotOwned, name)
		}

		i := model.FindItem(items, name)
		if i < 0 {
			return fmt.Errorf("%w: %s is no longer sold", model.ErrItemNotFound, name)
		}

		if err := addBalance(&acc, place, items[i].Price); err != nil {
			return err
		}
		acc.RemoveItem(name)
		if acc, err = s.store.Save(ctx, acc); err != nil {
			return err
		}

		if items[i].Stock == nil {
			return nil
		}
		back := *items[i].Stock + 1
		items[i].Stock = &back
		_, err = s.store.ReplaceAll(ctx, items)
		return err
	})
	if err != nil {
		return model.Account{}, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("item sold", slog.String("id", id), slog.String("item", name))
	return acc, nil
}

// AddItem appends a new catalog entry stamped with the current time.
func (s *EconomyService) AddItem(ctx context.Context, in NewItemInput) (model.Item, error) {
	const op = "service.Economy.AddItem"

	if err := in.Validate(); err != nil {
		return model.Item{}, err
	}

	item := model.Item{
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		CreatedAt:   s.nowMillis(),
	}
	if in.Stock != nil {
		stock := *in.Stock
		item.Stock = &stock
	}

	err := s.store.RunAtomic(ctx, func(ctx context.Context) error {
		items, err := s.store.ListItems(ctx)
		if err != nil {
			return err
		}
		if model.FindItem(items, in.Name) >= 0 {
			return fmt.Errorf("%w: %s", model.ErrDuplicateItem, in.Name)
		}
		_, err = s.store.ReplaceAll(ctx, append(items, item))
		return err
	})
	if err != nil {
		return model.Item{}, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("item added", slog.String("item", item.Name), slog.Int64("price", item.Price))
	return item, nil
}

// RemoveItem deletes the catalog entry called name. Copies already owned
// by accounts are kept.
func (s *EconomyService) RemoveItem(ctx context.Context, name string) error {
	const op = "service.Economy.RemoveItem"

	if name == "" {
		return model.NewValidationError("name", "required")
	}

	err := s.store.RunAtomic(ctx, func(ctx context.Context) error {
		items, err := s.store.ListItems(ctx)
		if err != nil {
			return err
		}
		i := model.FindItem(items, name)
		if i < 0 {
			return fmt.Errorf("%w: %s", model.ErrItemNotFound, name)
		}
		_, err = s.store.ReplaceAll(ctx, append(items[:i], items[i+1:]...))
		return err
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("item removed", slog.String("item", name))
	return nil
}

// ReplaceCatalog overwrites the whole catalog. Items with a zero CreatedAt
// are stamped with the current time.
func (s *EconomyService) ReplaceCatalog(ctx context.Context, items []model.Item) ([]model.Item, error) {
	const op = "service.Economy.ReplaceCatalog"

	if err := validateCatalog(items); err != nil {
		return nil, err
	}

	now := s.nowMillis()
	next := make([]model.Item, len(items))
	copy(next, items)
	for i := range next {
		if next[i].CreatedAt == 0 {
			next[i].CreatedAt = now
		}
	}

	var saved []model.Item
	err := s.store.RunAtomic(ctx, func(ctx context.Context) error {
		var err error
		saved, err = s.store.ReplaceAll(ctx, next)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("catalog replaced", slog.Int("items", len(saved)))
	return saved, nil
}
