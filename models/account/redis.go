package account

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/gomodule/redigo/redis"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	redisAccountPrefix = "account:"
	redisEmailPrefix   = "account:email:"
	redisAccountSet    = "accounts"

	redisUpdateRetries = 5
)

// KEYS: email key, account key, id set. ARGV: id, record.
var insertScript = redis.NewScript(3, `
if redis.call('EXISTS', KEYS[1]) == 1 then
	return 0
end
redis.call('SET', KEYS[1], ARGV[1])
redis.call('SET', KEYS[2], ARGV[2])
redis.call('SADD', KEYS[3], ARGV[1])
return 1
`)

// KEYS: account key, current email key, new email key.
// ARGV: record read by the caller, new record, id.
// Returns -1 when the account is gone and -2 when it changed underneath us.
var updateScript = redis.NewScript(3, `
local current = redis.call('GET', KEYS[1])
if not current then
	return -1
end
if current ~= ARGV[1] then
	return -2
end
if KEYS[2] ~= KEYS[3] then
	if redis.call('EXISTS', KEYS[3]) == 1 then
		return 0
	end
	redis.call('DEL', KEYS[2])
	redis.call('SET', KEYS[3], ARGV[3])
end
redis.call('SET', KEYS[1], ARGV[2])
return 1
`)

var errConcurrentUpdate = errors.New("account modified concurrently")

type redisAccount struct {
	ID                   string          `json:"id"`
	Name                 string          `json:"name"`
	Email                string          `json:"email"`
	Phone                string          `json:"phone"`
	Address              string          `json:"address"`
	PasswordHash         string          `json:"password"`
	IdentificationType   string          `json:"identificationType"`
	IdentificationNumber string          `json:"identificationNumber"`
	Balance              decimal.Decimal `json:"balance"`
	MoneySend            decimal.Decimal `json:"moneySend"`
	MoneyReceived        decimal.Decimal `json:"moneyReceived"`
	RequestReceived      decimal.Decimal `json:"requestReceived"`
	IsAdmin              bool            `json:"isAdmin"`
	IsVerified           bool            `json:"isVerified"`
	Image                string          `json:"image,omitempty"`
	CreatedAt            time.Time       `json:"createdAt"`
	UpdatedAt            time.Time       `json:"updatedAt"`
}

// Redis is the Redis account store. Writes that touch the email index run as
// Lua scripts so the uniqueness check and the write happen in one step.
type Redis struct {
	pool *redis.Pool
}

// NewRedis uses connections from pool
func NewRedis(pool *redis.Pool) *Redis {
	return &Redis{pool: pool}
}

func accountKey(id string) string { return redisAccountPrefix + id }
func emailKey(email string) string { return redisEmailPrefix + email }

func (r *Redis) Insert(ctx context.Context, acc *Account) (*Account, error) {
	conn, err := r.pool.GetContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("redis conn: %w", err)
	}
	defer conn.Close()

	cp := *acc
	cp.ID = uuid.NewString()
	now := time.Now().UTC()
	cp.CreatedAt = now
	cp.UpdatedAt = now

	record, err := json.Marshal(toRedis(&cp))
	if err != nil {
		return nil, err
	}

	ok, err := redis.Int(insertScript.Do(conn, emailKey(cp.Email), accountKey(cp.ID), redisAccountSet, cp.ID, record))
	if err != nil {
		return nil, fmt.Errorf("insert account: %w", err)
	}
	if ok == 0 {
		return nil, ErrEmailExists
	}
	return &cp, nil
}

func (r *Redis) FindByID(ctx context.Context, id string) (*Account, error) {
	conn, err := r.pool.GetContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("redis conn: %w", err)
	}
	defer conn.Close()

	acc, _, err := r.load(conn, id)
	return acc, err
}

func (r *Redis) FindByEmail(ctx context.Context, email string) (*Account, error) {
	conn, err := r.pool.GetContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("redis conn: %w", err)
	}
	defer conn.Close()

	id, err := redis.String(conn.Do("GET", emailKey(email)))
	if err != nil {
		if errors.Is(err, redis.ErrNil) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("find account by email: %w", err)
	}

	acc, _, err := r.load(conn, id)
	return acc, err
}

func (r *Redis) load(conn redis.Conn, id string) (*Account, []byte, error) {
	raw, err := redis.Bytes(conn.Do("GET", accountKey(id)))
	if err != nil {
		if errors.Is(err, redis.ErrNil) {
			return nil, nil, ErrAccountNotFound
		}
		return nil, nil, fmt.Errorf("load account: %w", err)
	}

	var rec redisAccount
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, nil, fmt.Errorf("decode account: %w", err)
	}
	return fromRedis(rec), raw, nil
}

// Update reads the record, applies changes and writes it back with a
// compare-and-swap script, retrying when a concurrent writer got there first.
func (r *Redis) Update(ctx context.Context, id string, changes Changes) (*Account, error) {
	conn, err := r.pool.GetContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("redis conn: %w", err)
	}
	defer conn.Close()

	for i := 0; i < redisUpdateRetries; i++ {
		acc, raw, err := r.load(conn, id)
		if err != nil {
			return nil, err
		}

		oldEmail := acc.Email
		changes.Apply(acc)
		acc.UpdatedAt = time.Now().UTC()

		record, err := json.Marshal(toRedis(acc))
		if err != nil {
			return nil, err
		}

		res, err := redis.Int(updateScript.Do(conn, accountKey(id), emailKey(oldEmail), emailKey(acc.Email), raw, record, id))
		if err != nil {
			return nil, fmt.Errorf("update account: %w", err)
		}

		switch res {
		case 1:
			return acc, nil
		case 0:
			return nil, ErrEmailExists
		case -1:
			return nil, ErrAccountNotFound
		}

		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	return nil, errConcurrentUpdate
}

func (r *Redis) ListExcluding(ctx context.Context, id string) ([]*Account, error) {
	conn, err := r.pool.GetContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("redis conn: %w", err)
	}
	defer conn.Close()

	ids, err := redis.Strings(conn.Do("SMEMBERS", redisAccountSet))
	if err != nil {
		return nil, fmt.Errorf("list account ids: %w", err)
	}

	keys := make([]interface{}, 0, len(ids))
	for _, other := range ids {
		if other != id {
			keys = append(keys, accountKey(other))
		}
	}

	accounts := []*Account{}
	if len(keys) == 0 {
		return accounts, nil
	}

	raws, err := redis.ByteSlices(conn.Do("MGET", keys...))
	if err != nil {
		return nil, fmt.Errorf("load accounts: %w", err)
	}

	for _, raw := range raws {
		if raw == nil {
			continue
		}
		var rec redisAccount
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("decode account: %w", err)
		}
		accounts = append(accounts, fromRedis(rec))
	}

	sort.Slice(accounts, func(i, j int) bool {
		return accounts[i].CreatedAt.Before(accounts[j].CreatedAt)
	})
	return accounts, nil
}

func (r *Redis) Ping(ctx context.Context) error {
	conn, err := r.pool.GetContext(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	_, err = conn.Do("PING")
	return err
}

func toRedis(a *Account) redisAccount {
	return redisAccount{
		ID:                   a.ID,
		Name:                 a.Name,
		Email:                a.Email,
		Phone:                a.Phone,
		Address:              a.Address,
		PasswordHash:         a.PasswordHash,
		IdentificationType:   a.IdentificationType,
		IdentificationNumber: a.IdentificationNumber,
		Balance:              a.Balance,
		MoneySend:            a.MoneySend,
		MoneyReceived:        a.MoneyReceived,
		RequestReceived:      a.RequestReceived,
		IsAdmin:              a.IsAdmin,
		IsVerified:           a.IsVerified,
		Image:                a.Image,
		CreatedAt:            a.CreatedAt,
		UpdatedAt:            a.UpdatedAt,
	}
}

func fromRedis(r redisAccount) *Account {
	return &Account{
		ID:                   r.ID,
		Name:                 r.Name,
		Email:                r.Email,
		Phone:                r.Phone,
		Address:              r.Address,
		PasswordHash:         r.PasswordHash,
		IdentificationType:   r.IdentificationType,
		IdentificationNumber: r.IdentificationNumber,
		Balance:              r.Balance,
		MoneySend:            r.MoneySend,
		MoneyReceived:        r.MoneyReceived,
		RequestReceived:      r.RequestReceived,
		IsAdmin:              r.IsAdmin,
		IsVerified:           r.IsVerified,
		Image:                r.Image,
		CreatedAt:            r.CreatedAt,
		UpdatedAt:            r.UpdatedAt,
	}
}
