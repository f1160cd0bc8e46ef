package repository

import (
	"context"
	"log"
	"sync"
	"time"
)

// RevocationRegistry tracks access tokens invalidated before their natural
// expiry.  Entries are the raw token strings, so membership can be checked
// without decoding the token first.  The registry is process-local.
type RevocationRegistry struct {
	mu      sync.RWMutex
	revoked map[string]time.Time // raw token -> expiry, zero when unknown
}

func NewRevocationRegistry() *RevocationRegistry {
	return &RevocationRegistry{revoked: make(map[string]time.Time)}
}

// Revoke adds token with no known expiry; such entries are never pruned.
func (r *RevocationRegistry) Revoke(token string) {
	r.RevokeUntil(token, time.Time{})
}

// RevokeUntil adds token and remembers when it would have expired anyway.
// Revoking twice is a no-op except that an unknown expiry is never replaced
// by a known one that would let the entry be pruned early.
func (r *RevocationRegistry) RevokeUntil(token string, exp time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev, ok := r.revoked[token]
	switch {
	case !ok:
		r.revoked[token] = exp
	case prev.IsZero():
	case exp.IsZero() || exp.After(prev):
		r.revoked[token] = exp
	}
}

// IsRevoked reports whether token has been revoked.
func (r *RevocationRegistry) IsRevoked(token string) bool {
	r.mu.RLock()
	_, ok := r.revoked[token]
	r.mu.RUnlock()
	return ok
}

// Prune drops entries whose expiry is before now and returns how many were
// removed.  An expired token fails verification on its own, so dropping it
// from the set changes no outcome.
func (r *RevocationRegistry) Prune(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for tok, exp := range r.revoked {
		if !exp.IsZero() && exp.Before(now) {
			delete(r.revoked, tok)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked tokens.
func (r *RevocationRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.revoked)
}

// RunJanitor prunes the registry every interval until ctx is cancelled.
func (r *RevocationRegistry) RunJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			if n := r.Prune(now); n > 0 {
				log.Printf("revocation: pruned %d expired tokens", n)
			}
		}
	}
}
