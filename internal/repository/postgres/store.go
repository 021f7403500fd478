// Package postgres implements repository.Store on PostgreSQL through pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"fsanano/economy/internal/model"
	"fsanano/economy/internal/repository"
)

var _ repository.Store = (*Store)(nil)

type Store struct {
	db *pgxpool.Pool
}

// Connect opens a pool for databaseURL and pings it.
func Connect(ctx context.Context, databaseURL string, maxConns int32) (*Store, error) {
	const op = "storage.postgres.Connect"

	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("%s: parse database url: %w", op, err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%s: ping: %w", op, err)
	}

	return New(pool), nil
}

func New(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) Close() error {
	s.db.Close()
	return nil
}

// RunAtomic executes fn within a transaction. A call made while a
// transaction is already in ctx joins it.
func (s *Store) RunAtomic(ctx context.Context, fn func(ctx context.Context) error) error {
	if inTx(ctx) {
		return fn(ctx)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	// Rollback after a successful commit is a no-op.
	defer tx.Rollback(ctx)

	ctx = context.WithValue(ctx, txKey{}, tx)

	if err := fn(ctx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

type txKey struct{}

func inTx(ctx context.Context) bool {
	_, ok := ctx.Value(txKey{}).(pgx.Tx)
	return ok
}

func (s *Store) getExecutor(ctx context.Context) PgxExecutor {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}
	return s.db
}

// PgxExecutor is an interface that matches both *pgxpool.Pool and pgx.Tx
type PgxExecutor interface {
	Exec(ctx context.Context, sql string, arguments ...any) (commandTag pgconn.CommandTag, err error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

const accountColumns = `id, wallet, bank, items, last_work, last_beg, last_hourly, last_daily, last_weekly, last_monthly, last_yearly`

// Load returns the account row, or a default record when none exists.
// Inside a transaction it first takes a transaction-scoped advisory lock on
// the id, so two writers of the same account (even one that does not exist
// yet) are serialized.
func (s *Store) Load(ctx context.Context, id string) (model.Account, error) {
	const op = "storage.postgres.Load"

	exec := s.getExecutor(ctx)
	if inTx(ctx) {
		if _, err := exec.Exec(ctx, "SELECT pg_advisory_xact_lock(hashtextextended($1, 0))", id); err != nil {
			return model.Account{}, fmt.Errorf("%s: lock account: %w", op, err)
		}
	}

	acc, err := scanAccount(exec.QueryRow(ctx, "SELECT "+accountColumns+" FROM accounts WHERE id = $1", id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.NewAccount(id), nil
		}
		return model.Account{}, fmt.Errorf("%s: %w", op, err)
	}

	return acc, nil
}

// Save upserts the account row and returns what was stored.
func (s *Store) Save(ctx context.Context, acc model.Account) (model.Account, error) {
	const op = "storage.postgres.Save"

	items := acc.Items
	if items == nil {
		items = []string{}
	}

	row := s.getExecutor(ctx).QueryRow(ctx, `
		INSERT INTO accounts (`+accountColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			wallet = EXCLUDED.wallet,
			bank = EXCLUDED.bank,
			items = EXCLUDED.items,
			last_work = EXCLUDED.last_work,
			last_beg = EXCLUDED.last_beg,
			last_hourly = EXCLUDED.last_hourly,
			last_daily = EXCLUDED.last_daily,
			last_weekly = EXCLUDED.last_weekly,
			last_monthly = EXCLUDED.last_monthly,
			last_yearly = EXCLUDED.last_yearly
		RETURNING `+accountColumns,
		acc.ID, acc.Wallet, acc.Bank, items,
		acc.LastWork, acc.LastBeg, acc.LastHourly, acc.LastDaily,
		acc.LastWeekly, acc.LastMonthly, acc.LastYearly,
	)

	saved, err := scanAccount(row)
	if err != nil {
		return model.Account{}, fmt.Errorf("%s: %w", op, err)
	}

	return saved, nil
}

// AccountIDs lists every stored account id.
func (s *Store) AccountIDs(ctx context.Context) ([]string, error) {
	const op = "storage.postgres.AccountIDs"

	rows, err := s.getExecutor(ctx).Query(ctx, "SELECT id FROM accounts ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return ids, nil
}

// ListItems returns the catalog in insertion order. Inside a transaction the
// items table is locked first, so catalog read-modify-write cycles serialize.
func (s *Store) ListItems(ctx context.Context) ([]model.Item, error) {
	const op = "storage.postgres.ListItems"

	exec := s.getExecutor(ctx)
	if inTx(ctx) {
		if err := lockItems(ctx, exec); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	rows, err := exec.Query(ctx, "SELECT name, description, price, created_at, solds, stock FROM items ORDER BY position")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Item, error) {
		var it model.Item
		err := row.Scan(&it.Name, &it.Description, &it.Price, &it.CreatedAt, &it.Solds, &it.Stock)
		return it, err
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return items, nil
}

// ReplaceAll deletes the catalog and inserts items in order, in one transaction.
func (s *Store) ReplaceAll(ctx context.Context, items []model.Item) ([]model.Item, error) {
	const op = "storage.postgres.ReplaceAll"

	err := s.RunAtomic(ctx, func(ctx context.Context) error {
		exec := s.getExecutor(ctx)
		if err := lockItems(ctx, exec); err != nil {
			return err
		}
		if _, err := exec.Exec(ctx, "DELETE FROM items"); err != nil {
			return fmt.Errorf("failed to clear items: %w", err)
		}
		if len(items) == 0 {
			return nil
		}

		batch := &pgx.Batch{}
		for i, it := range items {
			batch.Queue(
				"INSERT INTO items (name, description, price, created_at, solds, stock, position) VALUES ($1, $2, $3, $4, $5, $6, $7)",
				it.Name, it.Description, it.Price, it.CreatedAt, it.Solds, it.Stock, i,
			)
		}
		return exec.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}

	out := make([]model.Item, len(items))
	copy(out, items)
	return out, nil
}

func lockItems(ctx context.Context, exec PgxExecutor) error {
	if _, err := exec.Exec(ctx, "LOCK TABLE items IN EXCLUSIVE MODE"); err != nil {
		return fmt.Errorf("failed to lock items: %w", err)
	}
	return nil
}

func scanAccount(row pgx.Row) (model.Account, error) {
	var a model.Account
	err := row.Scan(
		&a.ID, &a.Wallet, &a.Bank, &a.Items,
		&a.LastWork, &a.LastBeg, &a.LastHourly, &a.LastDaily,
		&a.LastWeekly, &a.LastMonthly, &a.LastYearly,
	)
	if err != nil {
		return model.Account{}, err
	}
	if a.Items == nil {
		a.Items = []string{}
	}
	return a, nil
}

// mapError converts constraint violations into model errors.
func mapError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("%w: %s", model.ErrDuplicateItem, pgErr.Detail)
		case "23514": // check_violation
			return fmt.Errorf("%w: %s", model.ErrValidation, pgErr.ConstraintName)
		}
	}
	return err
}
