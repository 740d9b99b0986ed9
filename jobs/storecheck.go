package jobs

import (
	"context"
	"sync/atomic"
	"time"

	log "github.com/Ptt-Alertor/logrus"
)

// Pinger is implemented by every account store
type Pinger interface {
	Ping(ctx context.Context) error
}

// StoreCheck pings the account store, on a schedule and on demand from the
// health route, and logs every state change
type StoreCheck struct {
	store   Pinger
	timeout time.Duration
	healthy atomic.Bool
}

// NewStoreCheck creates a new StoreCheck
func NewStoreCheck(store Pinger) *StoreCheck {
	sc := &StoreCheck{store: store, timeout: 5 * time.Second}
	sc.healthy.Store(true)
	return sc
}

// Run executes one scheduled check
func (sc *StoreCheck) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), sc.timeout)
	defer cancel()

	sc.Ping(ctx)
}

// Ping checks the store now and records the result
func (sc *StoreCheck) Ping(ctx context.Context) error {
	err := sc.store.Ping(ctx)
	was := sc.healthy.Swap(err == nil)

	switch {
	case err != nil && was:
		log.WithError(err).Error("Account Store Unreachable")
	case err != nil:
		log.WithError(err).Warn("Account Store Still Unreachable")
	case !was:
		log.Info("Account Store Recovered")
	}
	return err
}
