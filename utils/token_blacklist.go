package utils

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

const blacklistPrefix = "blogicum:jwt:blacklist:"

var (
	blacklist   = map[string]time.Time{}
	blacklistMu sync.Mutex
)

// NewTokenID returns a random JWT id. Revocation is keyed by it.
func NewTokenID() string {
	return uuid.NewString()
}

// BlacklistToken revokes a token id until its natural expiration.
func BlacklistToken(tokenID string, expiresAt time.Time) {
	ttl := time.Until(expiresAt)
	if ttl <= 0 || tokenID == "" {
		return
	}
	if rc := GetRedis(); rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := rc.Set(ctx, blacklistPrefix+tokenID, "1", ttl).Err(); err == nil {
			return
		}
	}
	blacklistMu.Lock()
	defer blacklistMu.Unlock()
	pruneBlacklistLocked()
	blacklist[tokenID] = expiresAt
}

// IsTokenBlacklisted checks if a token was revoked before natural expiration.
func IsTokenBlacklisted(tokenID string) bool {
	if rc := GetRedis(); rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if n, err := rc.Exists(ctx, blacklistPrefix+tokenID).Result(); err == nil && n > 0 {
			return true
		}
	}
	blacklistMu.Lock()
	defer blacklistMu.Unlock()
	exp, ok := blacklist[tokenID]
	if !ok {
		return false
	}
	if time.Now().After(exp) {
		delete(blacklist, tokenID)
		return false
	}
	return true
}

func pruneBlacklistLocked() {
	now := time.Now()
	for id, exp := range blacklist {
		if now.After(exp) {
			delete(blacklist, id)
		}
	}
}
