package utils

import (
	"sync"
	"time"
)

// revocationList remembers logged-out token IDs until the tokens would have expired
// anyway.
type revocationList struct {
	mu      sync.RWMutex
	revoked map[string]time.Time
}

func newRevocationList() *revocationList {
	return &revocationList{revoked: make(map[string]time.Time)}
}

func (r *revocationList) add(id string, expiresAt time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	for k, exp := range r.revoked {
		if now.After(exp) {
			delete(r.revoked, k)
		}
	}
	r.revoked[id] = expiresAt
}

func (r *revocationList) contains(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	exp, ok := r.revoked[id]
	return ok && time.Now().Before(exp)
}
