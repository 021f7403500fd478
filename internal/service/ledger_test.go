package service_test

import (
	"context"
	"fmt"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fsanano/economy/internal/model"
)

func TestLedger_Account_DefaultRecord(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	acc, err := f.ledger.Account(context.Background(), "new")
	require.NoError(t, err)
	assert.Equal(t, model.NewAccount("new"), acc)

	_, err = f.ledger.Account(context.Background(), "")
	require.ErrorIs(t, err, model.ErrValidation)
}

func TestLedger_CreditDebitRoundTrip(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	f.fund(t, "u1", 40, 0)

	acc, err := f.ledger.Credit(ctx, "u1", 25, model.PlaceWallet)
	require.NoError(t, err)
	assert.Equal(t, int64(65), acc.Wallet)

	acc, err = f.ledger.Debit(ctx, "u1", 25, model.PlaceWallet)
	require.NoError(t, err)
	assert.Equal(t, int64(40), acc.Wallet)
	assert.Equal(t, int64(40), f.account(t, "u1").Wallet)
}

func TestLedger_Debit_InsufficientFunds(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.fund(t, "u1", 0, 9)

	_, err := f.ledger.Debit(context.Background(), "u1", 10, model.PlaceBank)

	var insufficient *model.InsufficientFundsError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, int64(9), insufficient.Balance)
	assert.Equal(t, int64(10), insufficient.Amount)
	assert.Equal(t, model.PlaceBank, insufficient.Place)
	assert.Equal(t, int64(9), f.account(t, "u1").Bank)
}

func TestLedger_Validation(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		id     string
		amount int64
		place  model.Place
		fields []string
	}{
		{name: "zero amount", id: "u1", amount: 0, place: model.PlaceWallet, fields: []string{"amount"}},
		{name: "negative amount", id: "u1", amount: -5, place: model.PlaceBank, fields: []string{"amount"}},
		{name: "unknown place", id: "u1", amount: 5, place: "pocket", fields: []string{"place"}},
		{name: "everything wrong", id: "", amount: 0, place: "", fields: []string{"id", "amount", "place"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.ledger.Credit(ctx, tt.id, tt.amount, tt.place)

			var verr *model.ValidationError
			require.ErrorAs(t, err, &verr)
			var fields []string
			for _, fe := range verr.Errors {
				fields = append(fields, fe.Field)
			}
			assert.Equal(t, tt.fields, fields)

			_, err = f.ledger.Debit(ctx, tt.id, tt.amount, tt.place)
			require.ErrorIs(t, err, model.ErrValidation)
		})
	}

	ids, err := f.store.AccountIDs(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids, "rejected input must not create accounts")
}

func TestLedger_Credit_Overflow(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.fund(t, "rich", math.MaxInt64-1, 0)

	_, err := f.ledger.Credit(context.Background(), "rich", 2, model.PlaceWallet)
	require.ErrorIs(t, err, model.ErrValidation)
	assert.Equal(t, int64(math.MaxInt64-1), f.account(t, "rich").Wallet)
}

func TestLedger_ConcurrentCredits_NoLostUpdate(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	const rounds = 25
	var wg sync.WaitGroup
	for i := 0; i < rounds; i++ {
		for _, id := range []string{"a", "b"} {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := f.ledger.Credit(ctx, id, 2, model.PlaceWallet)
				assert.NoError(t, err)
			}()
		}
	}
	wg.Wait()

	assert.Equal(t, int64(2*rounds), f.account(t, "a").Wallet)
	assert.Equal(t, int64(2*rounds), f.account(t, "b").Wallet)
}

func TestLedger_DebitAll_ReportsPerAccount(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.fund(t, "u1", 100, 0)
	f.fund(t, "u2", 10, 0)
	f.fund(t, "u3", 50, 0)

	results, err := f.ledger.DebitAll(context.Background(), 50, model.PlaceWallet)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "u1", results[0].AccountID)
	require.NoError(t, results[0].Err)
	assert.Equal(t, int64(50), results[0].Account.Wallet)

	assert.Equal(t, "u2", results[1].AccountID)
	require.ErrorIs(t, results[1].Err, model.ErrInsufficientFunds)

	require.NoError(t, results[2].Err)
	assert.Equal(t, int64(0), results[2].Account.Wallet)

	assert.Equal(t, int64(50), f.account(t, "u1").Wallet)
	assert.Equal(t, int64(10), f.account(t, "u2").Wallet)
	assert.Equal(t, int64(0), f.account(t, "u3").Wallet)
}

func TestLedger_CreditAll(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	const accounts = 12
	for i := 0; i < accounts; i++ {
		f.fund(t, fmt.Sprintf("u%02d", i), 0, int64(i))
	}

	results, err := f.ledger.CreditAll(ctx, 5, model.PlaceBank)
	require.NoError(t, err)
	require.Len(t, results, accounts)

	for i, r := range results {
		require.NoError(t, r.Err)
		assert.Equal(t, fmt.Sprintf("u%02d", i), r.AccountID)
		assert.Equal(t, int64(i+5), f.account(t, r.AccountID).Bank)
	}

	_, err = f.ledger.CreditAll(ctx, 0, model.PlaceBank)
	require.ErrorIs(t, err, model.ErrValidation)
}
