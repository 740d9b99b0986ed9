package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/mern-wallet/wallet-api/models/account/migrations"
)

const (
	pgUniqueViolation  = "23505"
	pgInvalidTextInput = "22P02"
)

const accountColumns = `id, name, email, phone, address, password_hash,
	identification_type, identification_number,
	balance, money_send, money_received, request_received,
	is_admin, is_verified, image, created_at, updated_at`

// Postgres is the PostgreSQL account store
type Postgres struct {
	db *sql.DB
}

// NewPostgres wraps an open database handle
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// gooseUp is a seam for tests
var gooseUp = func(ctx context.Context, db *sql.DB, dir string) error {
	return goose.UpContext(ctx, db, dir)
}

// RunMigrations applies the embedded schema migrations
func (p *Postgres) RunMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	if err := gooseUp(ctx, p.db, "."); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// Insert creates a new account. The unique constraint on email makes the
// duplicate check part of the insert itself.
func (p *Postgres) Insert(ctx context.Context, acc *Account) (*Account, error) {
	row := p.db.QueryRowContext(ctx, `
		INSERT INTO accounts (name, email, phone, address, password_hash,
			identification_type, identification_number,
			balance, money_send, money_received, request_received,
			is_admin, is_verified, image)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING `+accountColumns,
		acc.Name, acc.Email, acc.Phone, acc.Address, acc.PasswordHash,
		acc.IdentificationType, acc.IdentificationNumber,
		acc.Balance, acc.MoneySend, acc.MoneyReceived, acc.RequestReceived,
		acc.IsAdmin, acc.IsVerified, acc.Image,
	)

	created, err := scanAccount(row)
	if err != nil {
		return nil, mapPgError("insert account", err)
	}
	return created, nil
}

// FindByID finds an account by ID
func (p *Postgres) FindByID(ctx context.Context, id string) (*Account, error) {
	row := p.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
	acc, err := scanAccount(row)
	if err != nil {
		return nil, mapPgError("find account by id", err)
	}
	return acc, nil
}

// FindByEmail finds an account by email
func (p *Postgres) FindByEmail(ctx context.Context, email string) (*Account, error) {
	row := p.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE email = $1`, email)
	acc, err := scanAccount(row)
	if err != nil {
		return nil, mapPgError("find account by email", err)
	}
	return acc, nil
}

// Update applies a partial update in a single statement
func (p *Postgres) Update(ctx context.Context, id string, changes Changes) (*Account, error) {
	row := p.db.QueryRowContext(ctx, `
		UPDATE accounts SET
			name = COALESCE($2, name),
			email = COALESCE($3, email),
			phone = COALESCE($4, phone),
			address = COALESCE($5, address),
			password_hash = COALESCE($6, password_hash),
			is_verified = COALESCE($7, is_verified),
			image = COALESCE($8, image),
			updated_at = now()
		WHERE id = $1
		RETURNING `+accountColumns,
		id, changes.Name, changes.Email, changes.Phone, changes.Address,
		changes.PasswordHash, changes.IsVerified, changes.Image,
	)

	acc, err := scanAccount(row)
	if err != nil {
		return nil, mapPgError("update account", err)
	}
	return acc, nil
}

// ListExcluding returns every account except the given one
func (p *Postgres) ListExcluding(ctx context.Context, id string) ([]*Account, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE id::text <> $1
		ORDER BY created_at`, id)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	accounts := []*Account{}
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, acc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}

	return accounts, nil
}

func (p *Postgres) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAccount(row scanner) (*Account, error) {
	var acc Account
	err := row.Scan(
		&acc.ID,
		&acc.Name,
		&acc.Email,
		&acc.Phone,
		&acc.Address,
		&acc.PasswordHash,
		&acc.IdentificationType,
		&acc.IdentificationNumber,
		&acc.Balance,
		&acc.MoneySend,
		&acc.MoneyReceived,
		&acc.RequestReceived,
		&acc.IsAdmin,
		&acc.IsVerified,
		&acc.Image,
		&acc.CreatedAt,
		&acc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &acc, nil
}

func mapPgError(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrAccountNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return ErrEmailExists
		case pgInvalidTextInput:
			// malformed uuid can never match a row
			return ErrAccountNotFound
		}
	}

	return fmt.Errorf("%s: %w", op, err)
}
