package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"slices"
	"time"

	"fsanano/economy/internal/model"
	"fsanano/economy/internal/repository"
)

// Random is the source of every draw made by EconomyService.
type Random interface {
	// Int64N returns a uniform value in [0, n). n must be positive.
	Int64N(n int64) int64
}

type globalRandom struct{}

func (globalRandom) Int64N(n int64) int64 { return rand.Int64N(n) }

// EconomyService implements the money-moving actions, timed rewards and the
// shop. Every action runs as one atomic unit of the store.
type EconomyService struct {
	log    *slog.Logger
	store  repository.Store
	ledger *LedgerService
	rand   Random
	now    func() time.Time
}

type Option func(*EconomyService)

// WithRandom replaces the default math/rand/v2 source.
func WithRandom(r Random) Option {
	return func(s *EconomyService) { s.rand = r }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *EconomyService) { s.now = now }
}

func NewEconomyService(log *slog.Logger, store repository.Store, ledger *LedgerService, opts ...Option) *EconomyService {
	s := &EconomyService{
		log:    log.With(slog.String("service", "economy")),
		store:  store,
		ledger: ledger,
		rand:   globalRandom{},
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TransferResult holds both accounts after a transfer.
type TransferResult struct {
	From model.Account
	To   model.Account
}

// GambleResult reports a coin flip. Amount is what was won or lost.
type GambleResult struct {
	Won     bool
	Amount  int64
	Account model.Account
}

// RobResult reports a robbery. Amount is what actually changed hands,
// which may be zero when the paying side had an empty wallet.
type RobResult struct {
	Success bool
	Amount  int64
	Robber  model.Account
	Victim  model.Account
}

// Deposit moves amount from the wallet to the bank.
func (s *EconomyService) Deposit(ctx context.Context, id string, amount int64) (model.Account, error) {
	return s.move(ctx, "service.Economy.Deposit", id, amount, model.PlaceWallet, model.PlaceBank)
}

// Withdraw moves amount from the bank to the wallet.
func (s *EconomyService) Withdraw(ctx context.Context, id string, amount int64) (model.Account, error) {
	return s.move(ctx, "service.Economy.Withdraw", id, amount, model.PlaceBank, model.PlaceWallet)
}

func (s *EconomyService) move(ctx context.Context, op, id string, amount int64, from, to model.Place) (model.Account, error) {
	if err := validateBalanceOp(id, amount, from); err != nil {
		return model.Account{}, err
	}

	var acc model.Account
	err := s.store.RunAtomic(ctx, func(ctx context.Context) error {
		if _, err := s.ledger.debit(ctx, id, amount, from); err != nil {
			return err
		}
		var err error
		acc, err = s.ledger.credit(ctx, id, amount, to)
		return err
	})
	if err != nil {
		return model.Account{}, fmt.Errorf("%s: %w", op, err)
	}

	return acc, nil
}

// Transfer moves in.Amount between two accounts. Either both sides change
// or neither does.
func (s *EconomyService) Transfer(ctx context.Context, in TransferInput) (TransferResult, error) {
	const op = "service.Economy.Transfer"

	if err := in.Validate(); err != nil {
		return TransferResult{}, err
	}

	var res TransferResult
	err := s.store.RunAtomic(ctx, func(ctx context.Context) error {
		if err := s.lockAccounts(ctx, in.FromID, in.ToID); err != nil {
			return err
		}
		var err error
		if res.From, err = s.ledger.debit(ctx, in.FromID, in.Amount, in.Place); err != nil {
			return err
		}
		res.To, err = s.ledger.credit(ctx, in.ToID, in.Amount, in.Place)
		return err
	})
	if err != nil {
		return TransferResult{}, fmt.Errorf("%s: %w", op, err)
	}

	return res, nil
}

// Gamble flips a fair coin. A loss debits amount, a win credits twice the
// amount. A loss the balance cannot cover fails with
// *model.InsufficientFundsError and changes nothing.
func (s *EconomyService) Gamble(ctx context.Context, id string, amount int64, place model.Place) (GambleResult, error) {
	const op = "service.Economy.Gamble"

	if err := validateBalanceOp(id, amount, place); err != nil {
		return GambleResult{}, err
	}
	if amount > math.MaxInt64/2 {
		return GambleResult{}, model.NewValidationError("amount", "too large")
	}

	var res GambleResult
	err := s.store.RunAtomic(ctx, func(ctx context.Context) error {
		acc, err := s.store.Load(ctx, id)
		if err != nil {
			return err
		}
		res.Won = s.rand.Int64N(2) == 1
		if res.Won {
			res.Amount = 2 * amount
			err = addBalance(&acc, place, res.Amount)
		} else {
			res.Amount = amount
			err = subBalance(&acc, place, res.Amount)
		}
		if err != nil {
			return err
		}

		res.Account, err = s.store.Save(ctx, acc)
		return err
	})
	if err != nil {
		return GambleResult{}, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Debug("gamble", slog.String("id", id), slog.Bool("won", res.Won), slog.Int64("amount", res.Amount))
	return res, nil
}

// Rob draws an amount in [Minimum, Maximum] and a luck roll in [0, 99].
// The robbery succeeds when luck <= SuccessPercent: the robber takes the
// amount from the victim's wallet. Otherwise the robber pays it to the
// victim. The transferred amount is capped by the payer's wallet.
func (s *EconomyService) Rob(ctx context.Context, in RobInput) (RobResult, error) {
	const op = "service.Economy.Rob"

	if err := in.Validate(); err != nil {
		return RobResult{}, err
	}

	var res RobResult
	err := s.store.RunAtomic(ctx, func(ctx context.Context) error {
		if err := s.lockAccounts(ctx, in.RobberID, in.VictimID); err != nil {
			return err
		}

		n := s.randomIn(in.Minimum, in.Maximum)
		luck := s.rand.Int64N(100)
		res.Success = luck <= in.SuccessPercent

		payer, payee := in.RobberID, in.VictimID
		if res.Success {
			payer, payee = in.VictimID, in.RobberID
		}

		from, err := s.store.Load(ctx, payer)
		if err != nil {
			return err
		}
		res.Amount = min(from.Wallet, n)

		if res.Amount > 0 {
			if _, err := s.ledger.debit(ctx, payer, res.Amount, model.PlaceWallet); err != nil {
				return err
			}
			if _, err := s.ledger.credit(ctx, payee, res.Amount, model.PlaceWallet); err != nil {
				return err
			}
		}

		if res.Robber, err = s.store.Load(ctx, in.RobberID); err != nil {
			return err
		}
		res.Victim, err = s.store.Load(ctx, in.VictimID)
		return err
	})
	if err != nil {
		return RobResult{}, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Debug("rob",
		slog.String("robber", in.RobberID),
		slog.String("victim", in.VictimID),
		slog.Bool("success", res.Success),
		slog.Int64("amount", res.Amount),
	)
	return res, nil
}

// lockAccounts loads ids in sorted order so that two units touching the same
// pair of accounts acquire their locks in the same order.
func (s *EconomyService) lockAccounts(ctx context.Context, ids ...string) error {
	sorted := slices.Clone(ids)
	slices.Sort(sorted)
	for _, id := range sorted {
		if _, err := s.store.Load(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// randomIn returns a uniform value in [lo, hi], lo >= 0.
func (s *EconomyService) randomIn(lo, hi int64) int64 {
	span := hi - lo
	if span == math.MaxInt64 {
		return lo + s.rand.Int64N(span)
	}
	return lo + s.rand.Int64N(span+1)
}

func (s *EconomyService) nowMillis() int64 {
	return s.now().UnixMilli()
}
