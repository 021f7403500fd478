package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"golang.org/x/sync/errgroup"

	"fsanano/economy/internal/model"
	"fsanano/economy/internal/repository"
)

// DefaultBatchConcurrency is used when NewLedgerService gets a limit below 1.
const DefaultBatchConcurrency = 8

// LedgerService credits and debits account balances.
type LedgerService struct {
	log        *slog.Logger
	store      repository.Store
	batchLimit int
}

func NewLedgerService(log *slog.Logger, store repository.Store, batchLimit int) *LedgerService {
	if batchLimit < 1 {
		batchLimit = DefaultBatchConcurrency
	}
	return &LedgerService{
		log:        log.With(slog.String("service", "ledger")),
		store:      store,
		batchLimit: batchLimit,
	}
}

// BatchResult is the outcome of a batch operation for one account.
// Err holds a per-account domain failure such as insufficient funds.
type BatchResult struct {
	AccountID string
	Account   model.Account
	Err       error
}

// Account returns the stored record for id, or the default record.
func (s *LedgerService) Account(ctx context.Context, id string) (model.Account, error) {
	const op = "service.Ledger.Account"

	var errs fieldErrors
	errs.id("id", id)
	if err := errs.err(); err != nil {
		return model.Account{}, err
	}

	acc, err := s.store.Load(ctx, id)
	if err != nil {
		return model.Account{}, fmt.Errorf("%s: %w", op, err)
	}
	return acc, nil
}

// Credit adds amount to the balance held in place.
func (s *LedgerService) Credit(ctx context.Context, id string, amount int64, place model.Place) (model.Account, error) {
	const op = "service.Ledger.Credit"

	if err := validateBalanceOp(id, amount, place); err != nil {
		return model.Account{}, err
	}

	acc, err := s.atomic(ctx, id, amount, place, s.credit)
	if err != nil {
		return model.Account{}, fmt.Errorf("%s: %w", op, err)
	}
	return acc, nil
}

// Debit subtracts amount from the balance held in place. A balance lower
// than amount fails with *model.InsufficientFundsError and is left unchanged.
func (s *LedgerService) Debit(ctx context.Context, id string, amount int64, place model.Place) (model.Account, error) {
	const op = "service.Ledger.Debit"

	if err := validateBalanceOp(id, amount, place); err != nil {
		return model.Account{}, err
	}

	acc, err := s.atomic(ctx, id, amount, place, s.debit)
	if err != nil {
		return model.Account{}, fmt.Errorf("%s: %w", op, err)
	}
	return acc, nil
}

// CreditAll credits every known account.
func (s *LedgerService) CreditAll(ctx context.Context, amount int64, place model.Place) ([]BatchResult, error) {
	return s.applyAll(ctx, "service.Ledger.CreditAll", amount, place, s.credit)
}

// DebitAll debits every known account. Accounts that cannot cover amount
// are reported in their BatchResult and do not stop the others.
func (s *LedgerService) DebitAll(ctx context.Context, amount int64, place model.Place) ([]BatchResult, error) {
	return s.applyAll(ctx, "service.Ledger.DebitAll", amount, place, s.debit)
}

type balanceOp func(ctx context.Context, id string, amount int64, place model.Place) (model.Account, error)

func (s *LedgerService) atomic(ctx context.Context, id string, amount int64, place model.Place, apply balanceOp) (model.Account, error) {
	var acc model.Account
	err := s.store.RunAtomic(ctx, func(ctx context.Context) error {
		var err error
		acc, err = apply(ctx, id, amount, place)
		return err
	})
	return acc, err
}

// applyAll fans the operation out over all ids. Each id is its own atomic
// unit; storage failures cancel the remaining ones.
func (s *LedgerService) applyAll(ctx context.Context, op string, amount int64, place model.Place, apply balanceOp) ([]BatchResult, error) {
	var errs fieldErrors
	errs.positive("amount", amount)
	errs.place("place", place)
	if err := errs.err(); err != nil {
		return nil, err
	}

	ids, err := s.store.AccountIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	results := make([]BatchResult, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.batchLimit)

	for i, id := range ids {
		g.Go(func() error {
			acc, err := s.atomic(gctx, id, amount, place, apply)
			results[i] = BatchResult{AccountID: id, Account: acc, Err: err}
			if err != nil && !isDomainError(err) {
				return err
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	s.log.Info("batch applied",
		slog.String("op", op),
		slog.Int64("amount", amount),
		slog.String("place", string(place)),
		slog.Int("accounts", len(results)),
		slog.Int("failed", failed),
	)

	return results, nil
}

// credit and debit expect validated input and run inside a unit.

func (s *LedgerService) credit(ctx context.Context, id string, amount int64, place model.Place) (model.Account, error) {
	acc, err := s.store.Load(ctx, id)
	if err != nil {
		return model.Account{}, err
	}
	if err := addBalance(&acc, place, amount); err != nil {
		return model.Account{}, err
	}
	return s.store.Save(ctx, acc)
}

func (s *LedgerService) debit(ctx context.Context, id string, amount int64, place model.Place) (model.Account, error) {
	acc, err := s.store.Load(ctx, id)
	if err != nil {
		return model.Account{}, err
	}
	if err := subBalance(&acc, place, amount); err != nil {
		return model.Account{}, err
	}
	return s.store.Save(ctx, acc)
}

func addBalance(acc *model.Account, place model.Place, amount int64) error {
	bal := acc.Balance(place)
	if bal > math.MaxInt64-amount {
		return model.NewValidationError("amount", fmt.Sprintf("%s balance would overflow", place))
	}
	acc.SetBalance(place, bal+amount)
	return nil
}

func subBalance(acc *model.Account, place model.Place, amount int64) error {
	bal := acc.Balance(place)
	if bal < amount {
		return &model.InsufficientFundsError{AccountID: acc.ID, Place: place, Balance: bal, Amount: amount}
	}
	acc.SetBalance(place, bal-amount)
	return nil
}

// isDomainError reports whether err is a per-account business failure
// rather than a storage failure.
func isDomainError(err error) bool {
	return errors.Is(err, model.ErrInsufficientFunds) || errors.Is(err, model.ErrValidation)
}
