package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"fsanano/economy/internal/model"
)

// RewardResult is what a timed reward paid and the account after the claim.
type RewardResult struct {
	Earned  int64
	Account model.Account
}

// Work pays a random amount in [Minimum, Maximum] into in.Place.
func (s *EconomyService) Work(ctx context.Context, in WorkInput) (RewardResult, error) {
	if err := in.Validate(); err != nil {
		return RewardResult{}, err
	}
	return s.claim(ctx, in.AccountID, model.RewardWork, in.Place, in.Cooldown, func() int64 {
		return s.randomIn(in.Minimum, in.Maximum)
	})
}

// Beg pays a random amount in [Minimum, Maximum] into the wallet.
func (s *EconomyService) Beg(ctx context.Context, in BegInput) (RewardResult, error) {
	if err := in.Validate(); err != nil {
		return RewardResult{}, err
	}
	return s.claim(ctx, in.AccountID, model.RewardBeg, model.PlaceWallet, in.Cooldown, func() int64 {
		return s.randomIn(in.Minimum, in.Maximum)
	})
}

func (s *EconomyService) Hourly(ctx context.Context, id string, amount int64) (RewardResult, error) {
	return s.fixedReward(ctx, id, amount, model.RewardHourly, model.HourlyCooldown)
}

func (s *EconomyService) Daily(ctx context.Context, id string, amount int64) (RewardResult, error) {
	return s.fixedReward(ctx, id, amount, model.RewardDaily, model.DailyCooldown)
}

func (s *EconomyService) Weekly(ctx context.Context, id string, amount int64) (RewardResult, error) {
	return s.fixedReward(ctx, id, amount, model.RewardWeekly, model.WeeklyCooldown)
}

func (s *EconomyService) Monthly(ctx context.Context, id string, amount int64) (RewardResult, error) {
	return s.fixedReward(ctx, id, amount, model.RewardMonthly, model.MonthlyCooldown)
}

func (s *EconomyService) Yearly(ctx context.Context, id string, amount int64) (RewardResult, error) {
	return s.fixedReward(ctx, id, amount, model.RewardYearly, model.YearlyCooldown)
}

func (s *EconomyService) fixedReward(ctx context.Context, id string, amount int64, r model.Reward, cooldown time.Duration) (RewardResult, error) {
	if err := validateBalanceOp(id, amount, model.PlaceWallet); err != nil {
		return RewardResult{}, err
	}
	return s.claim(ctx, id, r, model.PlaceWallet, cooldown, func() int64 { return amount })
}

// claim checks the cooldown of r, credits the drawn amount and stamps the
// claim time in one unit. The amount is drawn only once the claim is allowed.
func (s *EconomyService) claim(
	ctx context.Context,
	id string,
	r model.Reward,
	place model.Place,
	cooldown time.Duration,
	draw func() int64,
) (RewardResult, error) {
	op := "service.Economy." + string(r)

	var res RewardResult
	err := s.store.RunAtomic(ctx, func(ctx context.Context) error {
		acc, err := s.store.Load(ctx, id)
		if err != nil {
			return err
		}

		now := s.nowMillis()
		if last := acc.LastClaim(r); last != nil {
			elapsed := time.Duration(now-*last) * time.Millisecond
			if elapsed < cooldown {
				return &model.CooldownError{Reward: r, Remaining: cooldown - elapsed}
			}
		}

		res.Earned = draw()
		if err := addBalance(&acc, place, res.Earned); err != nil {
			return err
		}
		acc.StampClaim(r, now)

		res.Account, err = s.store.Save(ctx, acc)
		return err
	})
	if err != nil {
		return RewardResult{}, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Debug("reward claimed", slog.String("id", id), slog.String("reward", string(r)), slog.Int64("earned", res.Earned))
	return res, nil
}
