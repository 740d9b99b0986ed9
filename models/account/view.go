package account

import (
	"time"

	"github.com/shopspring/decimal"
)

// PublicView is an account as returned to clients
type PublicView struct {
	ID                   string          `json:"id"`
	Name                 string          `json:"name"`
	Email                string          `json:"email"`
	Phone                string          `json:"phone"`
	Address              string          `json:"address"`
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

// CurrentView is the minimal principal view
type CurrentView struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// VerificationView is returned by the admin verification toggle
type VerificationView struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	IsVerified bool   `json:"isVerified"`
}

func (a *Account) Public() PublicView {
	return PublicView{
		ID:                   a.ID,
		Name:                 a.Name,
		Email:                a.Email,
		Phone:                a.Phone,
		Address:              a.Address,
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

func (a *Account) Current() CurrentView {
	return CurrentView{ID: a.ID, Email: a.Email, Name: a.Name}
}

func (a *Account) Verification() VerificationView {
	return VerificationView{ID: a.ID, Name: a.Name, IsVerified: a.IsVerified}
}

// WithoutSecret returns a copy with the password hash cleared
func (a *Account) WithoutSecret() *Account {
	cp := *a
	cp.PasswordHash = ""
	return &cp
}
