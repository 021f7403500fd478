package service

import (
	"fmt"
	"time"

	"fsanano/economy/internal/model"
)

type fieldErrors []model.FieldError

func (f *fieldErrors) add(field, message string) {
	*f = append(*f, model.FieldError{Field: field, Message: message})
}

func (f *fieldErrors) id(field, id string) {
	if id == "" {
		f.add(field, "required")
	}
}

func (f *fieldErrors) positive(field string, v int64) {
	if v <= 0 {
		f.add(field, "must be greater than 0")
	}
}

func (f *fieldErrors) place(field string, p model.Place) {
	if !p.Valid() {
		f.add(field, fmt.Sprintf("must be %q or %q", model.PlaceWallet, model.PlaceBank))
	}
}

// bounds checks a [minimum, maximum] range for a random draw.
func (f *fieldErrors) bounds(minimum, maximum int64) {
	if minimum < 0 {
		f.add("minimum", "must not be negative")
	}
	if maximum <= 0 {
		f.add("maximum", "must be greater than 0")
	}
	if minimum >= maximum {
		f.add("maximum", "must be greater than minimum")
	}
}

func (f *fieldErrors) cooldown(d time.Duration) {
	if d < 0 {
		f.add("cooldown", "must not be negative")
	}
}

func (f fieldErrors) err() error {
	if len(f) > 0 {
		return &model.ValidationError{Errors: f}
	}
	return nil
}

func validateBalanceOp(id string, amount int64, place model.Place) error {
	var errs fieldErrors
	errs.id("id", id)
	errs.positive("amount", amount)
	errs.place("place", place)
	return errs.err()
}

// TransferInput moves Amount from one account's Place to the same place of
// another account.
type TransferInput struct {
	FromID string
	ToID   string
	Amount int64
	Place  model.Place
}

func (i TransferInput) Validate() error {
	var errs fieldErrors
	errs.id("from", i.FromID)
	errs.id("to", i.ToID)
	if i.FromID != "" && i.FromID == i.ToID {
		errs.add("to", "must differ from sender")
	}
	errs.positive("amount", i.Amount)
	errs.place("place", i.Place)
	return errs.err()
}

// RobInput holds parameters of a robbery attempt. SuccessPercent is the
// chance of success in percent.
type RobInput struct {
	RobberID       string
	VictimID       string
	Minimum        int64
	Maximum        int64
	SuccessPercent int64
}

func (i RobInput) Validate() error {
	var errs fieldErrors
	errs.id("robber", i.RobberID)
	errs.id("victim", i.VictimID)
	if i.RobberID != "" && i.RobberID == i.VictimID {
		errs.add("victim", "must differ from robber")
	}
	errs.bounds(i.Minimum, i.Maximum)
	if i.SuccessPercent <= 0 || i.SuccessPercent > 100 {
		errs.add("success_percent", "must be in (0, 100]")
	}
	return errs.err()
}

// WorkInput holds parameters of a work claim.
type WorkInput struct {
	AccountID string
	Place     model.Place
	Minimum   int64
	Maximum   int64
	Cooldown  time.Duration
}

func (i WorkInput) Validate() error {
	var errs fieldErrors
	errs.id("id", i.AccountID)
	errs.place("place", i.Place)
	errs.bounds(i.Minimum, i.Maximum)
	errs.cooldown(i.Cooldown)
	return errs.err()
}

// BegInput holds parameters of a beg claim. Begging always pays into the wallet.
type BegInput struct {
	AccountID string
	Minimum   int64
	Maximum   int64
	Cooldown  time.Duration
}

func (i BegInput) Validate() error {
	var errs fieldErrors
	errs.id("id", i.AccountID)
	errs.bounds(i.Minimum, i.Maximum)
	errs.cooldown(i.Cooldown)
	return errs.err()
}

// NewItemInput describes a catalog entry to add. A nil Stock means unlimited.
type NewItemInput struct {
	Name        string
	Description string
	Price       int64
	Stock       *int64
}

func (i NewItemInput) Validate() error {
	var errs fieldErrors
	if i.Name == "" {
		errs.add("name", "required")
	}
	errs.positive("price", i.Price)
	if i.Stock != nil && *i.Stock < 0 {
		errs.add("stock", "must not be negative")
	}
	return errs.err()
}

func validateCatalog(items []model.Item) error {
	var errs fieldErrors
	if len(items) == 0 {
		errs.add("items", "must not be empty")
		return errs.err()
	}

	seen := make(map[string]struct{}, len(items))
	for i, it := range items {
		field := fmt.Sprintf("items[%d]", i)
		if it.Name == "" {
			errs.add(field+".name", "required")
		} else if _, dup := seen[it.Name]; dup {
			errs.add(field+".name", "duplicate name "+it.Name)
		}
		seen[it.Name] = struct{}{}

		errs.positive(field+".price", it.Price)
		if it.Solds < 0 {
			errs.add(field+".solds", "must not be negative")
		}
		if it.Stock != nil && *it.Stock < 0 {
			errs.add(field+".stock", "must not be negative")
		}
	}
	return errs.err()
}
