package connections

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
)

// Postgres opens a pgx pool and a database/sql handle backed by it. Closing
// the returned func releases both.
func Postgres(ctx context.Context, connString string) (*sql.DB, func(), error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, nil, fmt.Errorf("unable to connect to PostgreSQL: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("unable to ping PostgreSQL: %w", err)
	}

	db := stdlib.OpenDBFromPool(pool)
	closeFn := func() {
		db.Close()
		pool.Close()
	}
	return db, closeFn, nil
}
