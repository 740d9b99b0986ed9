package accounts

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"
	"sync"
	"time"

	log "github.com/Ptt-Alertor/logrus"
	"github.com/shopspring/decimal"

	"github.com/mern-wallet/wallet-api/auth"
	"github.com/mern-wallet/wallet-api/events"
	"github.com/mern-wallet/wallet-api/images"
	"github.com/mern-wallet/wallet-api/models/account"
)

const publishTimeout = 5 * time.Second

// RegisterInput is the payload of a registration request
type RegisterInput struct {
	Name               string           `json:"name"`
	Email              string           `json:"email"`
	Phone              string           `json:"phone"`
	Password           string           `json:"password"`
	Address            string           `json:"address"`
	IdentificationType *string          `json:"identificationType"`
	Balance            *decimal.Decimal `json:"balance"`
	MoneySend          *decimal.Decimal `json:"moneySend"`
	MoneyReceived      *decimal.Decimal `json:"moneyReceived"`
	RequestReceived    *decimal.Decimal `json:"requestReceived"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ProfileInput holds optional profile changes. Nil and blank values are
// both treated as not supplied.
type ProfileInput struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Phone    *string `json:"phone"`
	Address  *string `json:"address"`
	Password *string `json:"password"`
}

type VerificationInput struct {
	IsVerified *bool `json:"isVerified"`
}

type ImageInput struct {
	Photo string `json:"photo"`
}

// AuthResult is an account view plus a fresh session token
type AuthResult struct {
	account.PublicView
	Token string `json:"token"`
}

// Service implements the account use cases
type Service struct {
	store     account.Store
	hasher    *auth.Hasher
	tokens    *auth.TokenService
	images    images.Store
	publisher events.Publisher

	dummyOnce sync.Once
	dummyHash string
}

// NewService creates an account Service
func NewService(store account.Store, hasher *auth.Hasher, tokens *auth.TokenService, imageStore images.Store, publisher events.Publisher) *Service {
	if imageStore == nil {
		imageStore = images.Inline{}
	}
	if publisher == nil {
		publisher = events.Fallback{}
	}
	return &Service{
		store:     store,
		hasher:    hasher,
		tokens:    tokens,
		images:    imageStore,
		publisher: publisher,
	}
}

// Register creates an account and signs it in
func (s *Service) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	fields := []struct {
		name  string
		value string
	}{
		{"name", in.Name},
		{"email", in.Email},
		{"phone", in.Phone},
		{"password", in.Password},
		{"address", in.Address},
	}
	var missing []string
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return nil, &account.ValidationError{Fields: missing}
	}

	hash, err := s.hasher.Hash(ctx, in.Password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) {
			return nil, &account.ValidationError{Fields: []string{"password"}, Malformed: true}
		}
		return nil, err
	}

	idNumber, err := identificationNumber()
	if err != nil {
		return nil, err
	}

	idType := account.DefaultIdentificationType
	if in.IdentificationType != nil && strings.TrimSpace(*in.IdentificationType) != "" {
		idType = strings.TrimSpace(*in.IdentificationType)
	}

	created, err := s.store.Insert(ctx, &account.Account{
		Name:                 strings.TrimSpace(in.Name),
		Email:                strings.TrimSpace(in.Email),
		Phone:                strings.TrimSpace(in.Phone),
		Address:              strings.TrimSpace(in.Address),
		PasswordHash:         hash,
		IdentificationType:   idType,
		IdentificationNumber: idNumber,
		Balance:              amount(in.Balance),
		MoneySend:            amount(in.MoneySend),
		MoneyReceived:        amount(in.MoneyReceived),
		RequestReceived:      amount(in.RequestReceived),
		IsAdmin:              false,
		IsVerified:           true,
	})
	if err != nil {
		return nil, err
	}

	result, err := s.signIn(created)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.AccountRegistered, events.Registered{
		AccountID:  created.ID,
		Email:      created.Email,
		Name:       created.Name,
		OccurredAt: created.CreatedAt,
	})

	log.WithFields(log.Fields{
		"id":    created.ID,
		"email": created.Email,
	}).Info("Account Registered")

	return result, nil
}

// Login exchanges credentials for a session token. Unknown emails and wrong
// passwords fail the same way.
func (s *Service) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	acc, err := s.store.FindByEmail(ctx, strings.TrimSpace(in.Email))
	if err != nil {
		if !errors.Is(err, account.ErrAccountNotFound) {
			return nil, err
		}
		s.hasher.Verify(ctx, in.Password, s.dummy())
		return nil, auth.ErrInvalidCredentials
	}

	if !s.hasher.Verify(ctx, in.Password, acc.PasswordHash) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, auth.ErrInvalidCredentials
	}

	return s.signIn(acc)
}

// CurrentPrincipal returns the minimal view of the signed in account
func (s *Service) CurrentPrincipal(principal *account.Account) account.CurrentView {
	return principal.Current()
}

// ListOthers returns every account except the principal's
func (s *Service) ListOthers(ctx context.Context, principal *account.Account) ([]account.PublicView, error) {
	others, err := s.store.ListExcluding(ctx, principal.ID)
	if err != nil {
		return nil, err
	}

	views := make([]account.PublicView, 0, len(others))
	for _, acc := range others {
		views = append(views, acc.Public())
	}
	return views, nil
}

// SetVerification sets the verification flag of targetID
func (s *Service) SetVerification(ctx context.Context, admin *account.Account, targetID string, in VerificationInput) (account.VerificationView, error) {
	if admin == nil || !admin.IsAdmin {
		return account.VerificationView{}, auth.ErrNotAdmin
	}
	if in.IsVerified == nil {
		return account.VerificationView{}, &account.ValidationError{Fields: []string{"isVerified"}}
	}

	updated, err := s.store.Update(ctx, targetID, account.Changes{IsVerified: in.IsVerified})
	if err != nil {
		return account.VerificationView{}, err
	}

	s.publish(ctx, events.AccountVerificationChanged, events.VerificationChanged{
		AccountID:  updated.ID,
		IsVerified: updated.IsVerified,
		ChangedBy:  admin.ID,
		OccurredAt: updated.UpdatedAt,
	})

	return updated.Verification(), nil
}

// GetImage returns the stored image reference of the principal
func (s *Service) GetImage(ctx context.Context, principal *account.Account) (string, error) {
	acc, err := s.store.FindByID(ctx, principal.ID)
	if err != nil {
		return "", err
	}
	if acc.Image == "" {
		return "", account.ErrNoImage
	}
	return acc.Image, nil
}

// AttachImage stores an uploaded image and records its reference on the principal
func (s *Service) AttachImage(ctx context.Context, principal *account.Account, in ImageInput) (account.PublicView, error) {
	img, err := images.Decode(in.Photo)
	if err != nil {
		return account.PublicView{}, &account.ValidationError{Fields: []string{"photo"}, Malformed: true}
	}

	ref, err := s.images.Put(ctx, principal.ID, img)
	if err != nil {
		return account.PublicView{}, err
	}

	updated, err := s.store.Update(ctx, principal.ID, account.Changes{Image: &ref})
	if err != nil {
		return account.PublicView{}, err
	}
	return updated.Public(), nil
}

// UpdateProfile applies the supplied profile changes and issues a fresh token
func (s *Service) UpdateProfile(ctx context.Context, principal *account.Account, in ProfileInput) (*AuthResult, error) {
	changes := account.Changes{
		Name:    supplied(in.Name),
		Email:   supplied(in.Email),
		Phone:   supplied(in.Phone),
		Address: supplied(in.Address),
	}
	if changes.Email != nil && *changes.Email == principal.Email {
		changes.Email = nil
	}

	if in.Password != nil && strings.TrimSpace(*in.Password) != "" {
		hash, err := s.hasher.Hash(ctx, *in.Password)
		if err != nil {
			if errors.Is(err, auth.ErrPasswordTooLong) {
				return nil, &account.ValidationError{Fields: []string{"password"}, Malformed: true}
			}
			return nil, err
		}
		changes.PasswordHash = &hash
	}

	var (
		updated *account.Account
		err     error
	)
	if changes.Empty() {
		updated, err = s.store.FindByID(ctx, principal.ID)
	} else {
		updated, err = s.store.Update(ctx, principal.ID, changes)
	}
	if err != nil {
		return nil, err
	}

	return s.signIn(updated)
}

func (s *Service) signIn(acc *account.Account) (*AuthResult, error) {
	token, err := s.tokens.Issue(acc.ID)
	if err != nil {
		return nil, err
	}
	return &AuthResult{PublicView: acc.Public(), Token: token}, nil
}

// dummy returns a hash compared against when the account does not exist
func (s *Service) dummy() string {
	s.dummyOnce.Do(func() {
		hash, err := s.hasher.Hash(context.Background(), "wallet-api-dummy-password")
		if err != nil {
			log.WithError(err).Error("Dummy Hash Failed")
			return
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}

// publish sends an event without failing the request that produced it
func (s *Service) publish(ctx context.Context, routingKey string, body interface{}) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := s.publisher.Publish(ctx, routingKey, body); err != nil {
		log.WithError(err).WithField("routingKey", routingKey).Error("Publish Event Failed")
	}
}

func identificationNumber() (string, error) {
	b := make([]byte, 6)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func amount(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}

func supplied(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
