package cache

import (
	"context"
	"sync"
	"time"
)

type localEntry struct {
	revoked   bool
	expiresAt time.Time
}

// Local is the per-process cache tier. Lookups never do I/O; a background
// janitor evicts expired entries so the map stays bounded between lookups.
type Local struct {
	mu      sync.RWMutex
	entries map[string]localEntry

	defaultTTL time.Duration

	hits   uint64
	misses uint64

	stop chan struct{}
	done chan struct{}
}

func NewLocal(defaultTTL, sweepInterval time.Duration) *Local {
	l := &Local{
		entries:    make(map[string]localEntry),
		defaultTTL: defaultTTL,
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
	go l.janitor(sweepInterval)
	return l
}

func (l *Local) Get(_ context.Context, key string) (bool, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[key]
	if !ok || time.Now().After(e.expiresAt) {
		if ok {
			delete(l.entries, key)
		}
		l.misses++
		return false, false, nil
	}
	l.hits++
	return e.revoked, true, nil
}

func (l *Local) Set(_ context.Context, key string, revoked bool, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = l.defaultTTL
	}
	l.mu.Lock()
	l.entries[key] = localEntry{revoked: revoked, expiresAt: time.Now().Add(ttl)}
	l.mu.Unlock()
	return nil
}

func (l *Local) Delete(_ context.Context, key string) error {
	l.mu.Lock()
	delete(l.entries, key)
	l.mu.Unlock()
	return nil
}

func (l *Local) Stats() Stats {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return Stats{Keys: len(l.entries), Hits: l.hits, Misses: l.misses}
}

// Close stops the janitor. Safe to call once, at process shutdown.
func (l *Local) Close() {
	close(l.stop)
	<-l.done
}

func (l *Local) janitor(interval time.Duration) {
	defer close(l.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			now := time.Now()
			l.mu.Lock()
			for key, e := range l.entries {
				if now.After(e.expiresAt) {
					delete(l.entries, key)
				}
			}
			l.mu.Unlock()
		case <-l.stop:
			return
		}
	}
}
