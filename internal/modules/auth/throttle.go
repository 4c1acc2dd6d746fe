package auth

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

var loginAttemptScript = redis.NewScript(`
-- KEYS[1] = attempt counter key
-- ARGV[1] = max attempts (int)
-- ARGV[2] = window_ms (int)
--
-- Returns:
--  1 if the attempt is admitted
--  0 if rejected (window exhausted)
local current = redis.call('INCR', KEYS[1])
if current == 1 then
  redis.call('PEXPIRE', KEYS[1], ARGV[2])
else
  -- Ensure TTL exists even if key already existed without TTL
  if redis.call('PTTL', KEYS[1]) < 0 then
    redis.call('PEXPIRE', KEYS[1], ARGV[2])
  end
end

if current > tonumber(ARGV[1]) then
  return 0
end
return 1
`)

// LoginThrottle is a fixed-window rate limit on login attempts, keyed by
// (client IP, attempted email) so one address cannot brute-force one account
// without also locking itself out of guessing others cheaply.
type LoginThrottle struct {
	rdb    redis.Scripter // nil disables throttling (single-node dev)
	window time.Duration
	max    int
}

func NewLoginThrottle(rdb redis.Scripter, window time.Duration, max int) *LoginThrottle {
	return &LoginThrottle{rdb: rdb, window: window, max: max}
}

// Allow reports whether a login attempt for (ip, email) is admitted.
// Throttle-store failures admit the attempt: locking every user out because
// redis is down is worse than briefly losing brute-force protection.
func (t *LoginThrottle) Allow(ctx context.Context, ip, email string) bool {
	if t == nil || t.rdb == nil {
		return true
	}

	key := fmt.Sprintf("login_attempts:%s:%s", ip, strings.ToLower(strings.TrimSpace(email)))
	res, err := loginAttemptScript.Run(ctx, t.rdb, []string{key}, t.max, t.window.Milliseconds()).Int()
	if err != nil {
		log.Printf("login throttle check failed ip=%s err=%v", ip, err)
		return true
	}
	return res == 1
}
