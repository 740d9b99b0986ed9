package account

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultIdentificationType is used when registration omits one
const DefaultIdentificationType = "driver license"

var (
	ErrEmailExists     = errors.New("email already exists")
	ErrAccountNotFound = errors.New("account not found")
	ErrNoImage         = errors.New("no account image")
)

func init() {
	// amounts are pass-through values; clients send and receive JSON numbers
	decimal.MarshalJSONWithoutQuotes = true
}

// ValidationError lists every offending input field. Malformed is set when
// the fields were supplied but could not be used.
type ValidationError struct {
	Fields    []string
	Malformed bool
}

func (e *ValidationError) Error() string {
	if e.Malformed {
		return "invalid fields: " + strings.Join(e.Fields, ", ")
	}
	return "missing fields: " + strings.Join(e.Fields, ", ")
}

// Account represents a wallet user account
type Account struct {
	ID                   string          `json:"id"`
	Name                 string          `json:"name"`
	Email                string          `json:"email"`
	Phone                string          `json:"phone"`
	Address              string          `json:"address"`
	PasswordHash         string          `json:"-"`
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

// Changes is a partial update. Nil fields are left untouched.
type Changes struct {
	Name         *string
	Email        *string
	Phone        *string
	Address      *string
	PasswordHash *string
	IsVerified   *bool
	Image        *string
}

// Empty reports whether the update would modify nothing
func (c Changes) Empty() bool {
	return c.Name == nil && c.Email == nil && c.Phone == nil && c.Address == nil &&
		c.PasswordHash == nil && c.IsVerified == nil && c.Image == nil
}

// Apply copies the non-nil fields of c onto a
func (c Changes) Apply(a *Account) {
	if c.Name != nil {
		a.Name = *c.Name
	}
	if c.Email != nil {
		a.Email = *c.Email
	}
	if c.Phone != nil {
		a.Phone = *c.Phone
	}
	if c.Address != nil {
		a.Address = *c.Address
	}
	if c.PasswordHash != nil {
		a.PasswordHash = *c.PasswordHash
	}
	if c.IsVerified != nil {
		a.IsVerified = *c.IsVerified
	}
	if c.Image != nil {
		a.Image = *c.Image
	}
}

// Store is the persistent account collection. Implementations must enforce
// email uniqueness atomically on Insert and Update.
type Store interface {
	Insert(ctx context.Context, acc *Account) (*Account, error)
	FindByID(ctx context.Context, id string) (*Account, error)
	FindByEmail(ctx context.Context, email string) (*Account, error)
	Update(ctx context.Context, id string, changes Changes) (*Account, error)
	ListExcluding(ctx context.Context, id string) ([]*Account, error)
	Ping(ctx context.Context) error
}
