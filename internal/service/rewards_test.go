package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fsanano/economy/internal/model"
	"fsanano/economy/internal/service"
)

func TestDaily_CooldownBoundary(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	start := f.now

	res, err := f.economy.Daily(ctx, "u1", 100)
	require.NoError(t, err)
	assert.Equal(t, int64(100), res.Earned)
	require.NotNil(t, res.Account.LastDaily)
	assert.Equal(t, start, *res.Account.LastDaily)

	f.now = start + 86_399_999
	_, err = f.economy.Daily(ctx, "u1", 100)
	var cooldown *model.CooldownError
	require.ErrorAs(t, err, &cooldown)
	assert.Equal(t, model.RewardDaily, cooldown.Reward)
	assert.Equal(t, time.Millisecond, cooldown.Remaining)
	assert.Equal(t, int64(100), f.account(t, "u1").Wallet)

	f.now = start + 86_400_000
	res, err = f.economy.Daily(ctx, "u1", 100)
	require.NoError(t, err)
	assert.Equal(t, int64(200), res.Account.Wallet)
	assert.Equal(t, f.now, *res.Account.LastDaily)
}

func TestFixedRewards_Cooldowns(t *testing.T) {
	t.Parallel()

	type claimFunc func(s *service.EconomyService, ctx context.Context, id string, amount int64) (service.RewardResult, error)

	tests := []struct {
		name     string
		claim    claimFunc
		cooldown time.Duration
	}{
		{name: "hourly", claim: (*service.EconomyService).Hourly, cooldown: time.Hour},
		{name: "weekly", claim: (*service.EconomyService).Weekly, cooldown: 7 * 24 * time.Hour},
		{name: "monthly", claim: (*service.EconomyService).Monthly, cooldown: 30 * 24 * time.Hour},
		{name: "yearly", claim: (*service.EconomyService).Yearly, cooldown: 365 * 24 * time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture(t)
			ctx := context.Background()
			start := f.now

			_, err := tt.claim(f.economy, ctx, "u1", 10)
			require.NoError(t, err)

			f.now = start + tt.cooldown.Milliseconds() - 1
			_, err = tt.claim(f.economy, ctx, "u1", 10)
			require.ErrorIs(t, err, model.ErrCooldownActive)

			f.now = start + tt.cooldown.Milliseconds()
			res, err := tt.claim(f.economy, ctx, "u1", 10)
			require.NoError(t, err)
			assert.Equal(t, int64(20), res.Account.Wallet)
		})
	}
}

func TestRewards_AreIndependent(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.economy.Hourly(ctx, "u1", 1)
	require.NoError(t, err)
	_, err = f.economy.Daily(ctx, "u1", 1)
	require.NoError(t, err)

	acc := f.account(t, "u1")
	assert.Equal(t, int64(2), acc.Wallet)
	assert.Nil(t, acc.LastWeekly)
}

func TestWork(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	f.random.push(15)

	in := service.WorkInput{AccountID: "u1", Place: model.PlaceBank, Minimum: 10, Maximum: 50, Cooldown: time.Minute}
	res, err := f.economy.Work(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, int64(25), res.Earned)
	assert.Equal(t, int64(25), res.Account.Bank)
	assert.Zero(t, res.Account.Wallet)

	f.now += 30_000
	_, err = f.economy.Work(ctx, in)
	var cooldown *model.CooldownError
	require.ErrorAs(t, err, &cooldown)
	assert.Equal(t, 30*time.Second, cooldown.Remaining)
}

func TestWork_ZeroCooldown(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	in := service.WorkInput{AccountID: "u1", Place: model.PlaceWallet, Minimum: 1, Maximum: 2}
	for i := 0; i < 3; i++ {
		_, err := f.economy.Work(ctx, in)
		require.NoError(t, err)
	}
	assert.Equal(t, int64(3), f.account(t, "u1").Wallet)
}

func TestBeg_PaysIntoWallet(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.random.push(3)

	res, err := f.economy.Beg(context.Background(), service.BegInput{AccountID: "u1", Minimum: 0, Maximum: 5, Cooldown: time.Hour})
	require.NoError(t, err)
	assert.Equal(t, int64(3), res.Earned)
	assert.Equal(t, int64(3), f.account(t, "u1").Wallet)
	require.NotNil(t, f.account(t, "u1").LastBeg)
}

func TestRewards_Validation(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.economy.Daily(ctx, "u1", 0)
	require.ErrorIs(t, err, model.ErrValidation)

	_, err = f.economy.Work(ctx, service.WorkInput{AccountID: "u1", Place: model.PlaceWallet, Minimum: 5, Maximum: 1})
	require.ErrorIs(t, err, model.ErrValidation)

	_, err = f.economy.Beg(ctx, service.BegInput{AccountID: "u1", Minimum: 0, Maximum: 1, Cooldown: -time.Second})
	require.ErrorIs(t, err, model.ErrValidation)
}
