package auth

import (
	"context"
	"log"
	"time"

	"techservice/internal/cache"
)

// RevocationChecker answers "is this jti revoked?" through a two-tier cache
// in front of the durable ledger. Lookup order is local tier, shared tier,
// ledger; each miss falls through and each answer is written back into the
// tiers above it.
//
// Consistency contract: cache-aside and eventually consistent. The node that
// performed a revocation invalidates its own local tier synchronously; other
// nodes converge within the shared-tier TTL.
type RevocationChecker struct {
	local  cache.Store
	shared cache.Store // nil when no shared tier is configured
	ledger RevocationLedgerInterface

	localTTL  time.Duration
	sharedTTL time.Duration

	// timeout bounds shared-tier and ledger lookups per verification.
	timeout time.Duration

	// degradedLocalOnly trades safety for continuity: when the tiers below
	// the local cache are unreachable, treat the token as not revoked
	// instead of failing closed. Must be opted into explicitly.
	degradedLocalOnly bool
}

func NewRevocationChecker(
	local cache.Store,
	shared cache.Store,
	ledger RevocationLedgerInterface,
	localTTL, sharedTTL, timeout time.Duration,
	degradedLocalOnly bool,
) *RevocationChecker {
	return &RevocationChecker{
		local:             local,
		shared:            shared,
		ledger:            ledger,
		localTTL:          localTTL,
		sharedTTL:         sharedTTL,
		timeout:           timeout,
		degradedLocalOnly: degradedLocalOnly,
	}
}

// IsRevoked resolves the revocation verdict for a jti. expiresAt is the
// token's own expiry and caps every cached verdict: there is no point holding
// an entry past the moment the signature check rejects the token anyway.
func (rc *RevocationChecker) IsRevoked(ctx context.Context, jti string, expiresAt time.Time) (bool, error) {
	if revoked, found, err := rc.local.Get(ctx, jti); err == nil && found {
		return revoked, nil
	}

	ioCtx := ctx
	if rc.timeout > 0 {
		var cancel context.CancelFunc
		ioCtx, cancel = context.WithTimeout(ctx, rc.timeout)
		defer cancel()
	}

	if rc.shared != nil {
		revoked, found, err := rc.shared.Get(ioCtx, jti)
		if err != nil {
			// Shared-tier outage is not fatal: the ledger below is
			// authoritative and still reachable in most failure modes.
			log.Printf("revocation shared-tier lookup failed jti=%s err=%v", jti, err)
		} else if found {
			_ = rc.local.Set(ctx, jti, revoked, capTTL(rc.localTTL, expiresAt))
			return revoked, nil
		}
	}

	revoked, err := rc.ledger.ExistsByJTI(ioCtx, jti)
	if err != nil {
		if rc.degradedLocalOnly {
			log.Printf("revocation ledger unreachable, degraded local-only verdict jti=%s err=%v", jti, err)
			return false, nil
		}
		return false, ErrNotVerifiable
	}

	if rc.shared != nil {
		if serr := rc.shared.Set(ioCtx, jti, revoked, capTTL(rc.sharedTTL, expiresAt)); serr != nil {
			log.Printf("revocation shared-tier store failed jti=%s err=%v", jti, serr)
		}
	}
	_ = rc.local.Set(ctx, jti, revoked, capTTL(rc.localTTL, expiresAt))

	return revoked, nil
}

// Invalidate overwrites any stale "not revoked" entry after a ledger write.
// The local tier is updated synchronously so the revoking node observes its
// own revocation immediately; the shared tier write is best-effort and other
// nodes converge within the shared TTL regardless.
func (rc *RevocationChecker) Invalidate(ctx context.Context, jti string, expiresAt time.Time) {
	if rc.shared != nil {
		if err := rc.shared.Set(ctx, jti, true, capTTL(rc.sharedTTL, expiresAt)); err != nil {
			log.Printf("revocation shared-tier invalidate failed jti=%s err=%v", jti, err)
		}
	}
	_ = rc.local.Set(ctx, jti, true, capTTL(rc.localTTL, expiresAt))
}

// capTTL bounds a tier TTL by the token's remaining lifetime.
func capTTL(tierTTL time.Duration, expiresAt time.Time) time.Duration {
	remaining := time.Until(expiresAt)
	if remaining <= 0 {
		// Already past exp; signature check rejects regardless. Keep the
		// entry just long enough to absorb a burst of retries.
		return time.Second
	}
	if remaining < tierTTL {
		return remaining
	}
	return tierTTL
}
