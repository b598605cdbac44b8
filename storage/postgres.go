package storage

import (
	"context"
	"errors"
	"fmt"
	"sketchroom/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresRepo(ctx context.Context, connString string) (*PostgresRepo, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, err
	}
	return &PostgresRepo{pool: pool}, nil
}

func (pgr *PostgresRepo) Close() {
	pgr.pool.Close()
}

func (pgr *PostgresRepo) Ping(ctx context.Context) error {
	return pgr.pool.Ping(ctx)
}

// AllWords returns the whole word list. Rooms draw from an in-memory copy so
// no query runs inside a room loop.
func (pgr *PostgresRepo) AllWords(ctx context.Context) ([]string, error) {
	rows, err := pgr.pool.Query(ctx, "SELECT word FROM words ORDER BY id")
	if err != nil {
		return nil, wrapDatabaseError(err)
	}

	words, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, wrapDatabaseError(err)
	}
	return words, nil
}

// AddWords inserts words in one batch, skipping case-insensitive duplicates.
// It returns the number of rows actually inserted.
func (pgr *PostgresRepo) AddWords(ctx context.Context, words []string) (int64, error) {
	batch := &pgx.Batch{}
	for _, w := range words {
		batch.Queue("INSERT INTO words(word) VALUES($1) ON CONFLICT DO NOTHING", w)
	}

	results := pgr.pool.SendBatch(ctx, batch)
	defer results.Close()

	var inserted int64
	for range words {
		tag, err := results.Exec()
		if err != nil {
			return inserted, wrapDatabaseError(err)
		}
		inserted += tag.RowsAffected()
	}
	return inserted, nil
}

func wrapDatabaseError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.UnexpectedDatabaseError, err)
}
