package events

import (
	"context"
	"time"

	log "github.com/Ptt-Alertor/logrus"
)

// Routing keys
const (
	AccountRegistered          = "account.registered"
	AccountVerificationChanged = "account.verification_changed"
)

// Registered is published after a new account is stored
type Registered struct {
	AccountID  string    `json:"accountId"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	OccurredAt time.Time `json:"occurredAt"`
}

// VerificationChanged is published after an administrator sets an account's
// verification flag
type VerificationChanged struct {
	AccountID  string    `json:"accountId"`
	IsVerified bool      `json:"isVerified"`
	ChangedBy  string    `json:"changedBy"`
	OccurredAt time.Time `json:"occurredAt"`
}

// Publisher sends account events to downstream consumers
type Publisher interface {
	Publish(ctx context.Context, routingKey string, body interface{}) error
	Close()
}

// Fallback logs events instead of sending them. It is used when no broker
// is configured or the broker is unreachable at startup.
type Fallback struct{}

func (Fallback) Publish(_ context.Context, routingKey string, body interface{}) error {
	log.WithFields(log.Fields{
		"routingKey": routingKey,
		"body":       body,
	}).Debug("Event Not Published")
	return nil
}

func (Fallback) Close() {}
