package utils

import (
	"context"
	"sync"
	"time"
)

const statePrefix = "blogicum:oauth:state:"

var (
	stateStore   = map[string]stateEntry{}
	stateStoreMu sync.Mutex
)

type stateEntry struct {
	next      string
	expiresAt time.Time
}

// SaveState stores an OAuth state token with the post-login redirect target.
func SaveState(state, next string, ttl time.Duration) {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if rc := GetRedis(); rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		// The value is never empty so ConsumeState can tell a hit from a miss.
		if err := rc.Set(ctx, statePrefix+state, "n:"+next, ttl).Err(); err == nil {
			return
		}
	}
	stateStoreMu.Lock()
	stateStore[state] = stateEntry{next: next, expiresAt: time.Now().Add(ttl)}
	stateStoreMu.Unlock()
}

// ConsumeState validates and removes a state token, returning the stored redirect target.
func ConsumeState(state string) (string, bool) {
	if rc := GetRedis(); rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if v, err := rc.GetDel(ctx, statePrefix+state).Result(); err == nil && len(v) >= 2 {
			return v[2:], true
		}
	}
	stateStoreMu.Lock()
	entry, ok := stateStore[state]
	if ok {
		delete(stateStore, state)
	}
	stateStoreMu.Unlock()
	if !ok || time.Now().After(entry.expiresAt) {
		return "", false
	}
	return entry.next, true
}
