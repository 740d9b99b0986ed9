package accounts

import (
	"context"
	"encoding/base64"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mern-wallet/wallet-api/auth"
	"github.com/mern-wallet/wallet-api/models/account"
)

type publishedEvent struct {
	routingKey string
	body       interface{}
}

type eventsSpy struct {
	mu     sync.Mutex
	events []publishedEvent
	err    error
}

func (s *eventsSpy) Publish(_ context.Context, routingKey string, body interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, publishedEvent{routingKey, body})
	return s.err
}

func (s *eventsSpy) Close() {}

func (s *eventsSpy) keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var keys []string
	for _, e := range s.events {
		keys = append(keys, e.routingKey)
	}
	return keys
}

type fixture struct {
	svc    *Service
	store  *account.Memory
	tokens *auth.TokenService
	events *eventsSpy
}

func newFixture() *fixture {
	f := &fixture{
		store:  account.NewMemory(),
		tokens: auth.NewTokenService([]byte("test-secret"), time.Hour),
		events: &eventsSpy{},
	}
	f.svc = NewService(f.store, auth.NewHasher(bcrypt.MinCost, 4), f.tokens, nil, f.events)
	return f
}

func validRegistration(email string) RegisterInput {
	return RegisterInput{
		Name:     "Ann",
		Email:    email,
		Phone:    "555-0100",
		Password: "secret1",
		Address:  "1 Main St",
	}
}

func (f *fixture) principal(id string) *account.Account {
	acc, err := f.store.FindByID(context.Background(), id)
	if err != nil {
		panic(err)
	}
	return acc.WithoutSecret()
}

func (f *fixture) makeAdmin(email string) *account.Account {
	acc, err := f.store.Insert(context.Background(), &account.Account{
		Name:         "Root",
		Email:        email,
		PasswordHash: "x",
		IsAdmin:      true,
		IsVerified:   true,
	})
	if err != nil {
		panic(err)
	}
	return acc.WithoutSecret()
}

var pngPhoto = "data:image/png;base64," + base64.StdEncoding.EncodeToString(
	append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 16)...),
)

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool { return &b }
