package service_test

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"fsanano/economy/internal/model"
	"fsanano/economy/internal/repository/filestore"
	"fsanano/economy/internal/service"
)

// scriptedRandom returns the queued values in order (modulo n) and 0 once
// the queue is empty.
type scriptedRandom struct {
	mu     sync.Mutex
	values []int64
}

func (r *scriptedRandom) Int64N(n int64) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.values) == 0 {
		return 0
	}
	v := r.values[0]
	r.values = r.values[1:]
	return v % n
}

func (r *scriptedRandom) push(values ...int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values = append(r.values, values...)
}

type fixture struct {
	store   *filestore.Store
	ledger  *service.LedgerService
	economy *service.EconomyService
	random  *scriptedRandom
	now     int64 // ms since epoch returned by the service clock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	dir := t.TempDir()
	store, err := filestore.Open(log, filepath.Join(dir, "users.json"), filepath.Join(dir, "items.json"))
	require.NoError(t, err)

	f := &fixture{store: store, random: &scriptedRandom{}, now: 1_700_000_000_000}
	f.ledger = service.NewLedgerService(log, store, 4)
	f.economy = service.NewEconomyService(log, store, f.ledger,
		service.WithRandom(f.random),
		service.WithClock(func() time.Time { return time.UnixMilli(f.now) }),
	)
	return f
}

// fund sets the balances of id directly.
func (f *fixture) fund(t *testing.T, id string, wallet, bank int64) {
	t.Helper()
	acc := model.NewAccount(id)
	acc.Wallet, acc.Bank = wallet, bank
	_, err := f.store.Save(context.Background(), acc)
	require.NoError(t, err)
}

func (f *fixture) account(t *testing.T, id string) model.Account {
	t.Helper()
	acc, err := f.store.Load(context.Background(), id)
	require.NoError(t, err)
	return acc
}

func (f *fixture) catalog(t *testing.T) []model.Item {
	t.Helper()
	items, err := f.store.ListItems(context.Background())
	require.NoError(t, err)
	return items
}

func ptr[T any](v T) *T { return &v }
