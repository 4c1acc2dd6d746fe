package auth

import (
	"context"
	"log"
	"time"
)

// Sweeper deletes expired refresh-token and revocation rows once a day at a
// configured off-peak hour. It only ever touches rows already past expiry,
// which the verifier rejects on the signature check anyway, so it is safe to
// run concurrently with live traffic and idempotent across runs.
type Sweeper struct {
	refreshTokens RefreshTokenRepositoryInterface
	ledger        RevocationLedgerInterface
	hour          int // 0-23, local time

	stop chan struct{}
	done chan struct{}
}

func NewSweeper(refreshTokens RefreshTokenRepositoryInterface, ledger RevocationLedgerInterface, hour int) *Sweeper {
	return &Sweeper{
		refreshTokens: refreshTokens,
		ledger:        ledger,
		hour:          hour,
		stop:          make(chan struct{}),
		done:          make(chan struct{}),
	}
}

// Start launches the sweep loop. Call Stop to shut it down.
func (s *Sweeper) Start(ctx context.Context) {
	go s.run(ctx)
}

func (s *Sweeper) Stop() {
	close(s.stop)
	<-s.done
}

func (s *Sweeper) run(ctx context.Context) {
	defer close(s.done)
	for {
		timer := time.NewTimer(time.Until(nextRunAfter(time.Now(), s.hour)))
		select {
		case <-timer.C:
			if _, _, err := s.RunOnce(ctx); err != nil {
				// Not fatal: the next scheduled run self-heals.
				log.Printf("token sweep failed err=%v", err)
			}
		case <-s.stop:
			timer.Stop()
			return
		case <-ctx.Done():
			timer.Stop()
			return
		}
	}
}

// RunOnce performs a single sweep and returns the deleted row counts.
func (s *Sweeper) RunOnce(ctx context.Context) (refreshDeleted, revokedDeleted int64, err error) {
	now := time.Now()

	refreshDeleted, err = s.refreshTokens.DeleteExpired(ctx, now)
	if err != nil {
		return refreshDeleted, 0, err
	}

	revokedDeleted, err = s.ledger.DeleteExpired(ctx, now)
	if err != nil {
		return refreshDeleted, revokedDeleted, err
	}

	log.Printf("token sweep completed refresh_tokens=%d revoked_tokens=%d", refreshDeleted, revokedDeleted)
	return refreshDeleted, revokedDeleted, nil
}

func nextRunAfter(now time.Time, hour int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
