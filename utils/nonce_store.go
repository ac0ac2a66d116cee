package utils

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

type nonceEntry struct {
	nonce     string
	expiresAt time.Time
}

var (
	nonceStore   = map[string]nonceEntry{}
	nonceStoreMu sync.Mutex
)

func nonceKey(address string) string {
	return "auth:nonce:" + strings.ToLower(address)
}

// IssueNonce creates a fresh single-use login nonce for address, replacing
// any outstanding one.
func IssueNonce(address string, ttl time.Duration) string {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	nonce := strings.ReplaceAll(uuid.NewString(), "-", "")
	if rc := GetRedis(); rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := rc.Set(ctx, nonceKey(address), nonce, ttl).Err(); err == nil {
			return nonce
		}
	}
	nonceStoreMu.Lock()
	nonceStore[nonceKey(address)] = nonceEntry{nonce: nonce, expiresAt: time.Now().Add(ttl)}
	nonceStoreMu.Unlock()
	return nonce
}

// TakeNonce returns and removes the outstanding nonce for address. A nonce
// can be taken once; expired nonces are not returned.
func TakeNonce(address string) (string, bool) {
	key := nonceKey(address)
	if rc := GetRedis(); rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		// GETDEL needs Redis >= 6.2
		if v, err := rc.GetDel(ctx, key).Result(); err == nil {
			return v, v != ""
		}
		script := `local v=redis.call('GET', KEYS[1]); if v then redis.call('DEL', KEYS[1]); end; return v`
		if res, err := rc.Eval(ctx, script, []string{key}).Result(); err == nil {
			s, ok := res.(string)
			return s, ok && s != ""
		}
		// network error: fall through to memory
	}
	nonceStoreMu.Lock()
	defer nonceStoreMu.Unlock()
	entry, ok := nonceStore[key]
	if !ok {
		return "", false
	}
	delete(nonceStore, key)
	if time.Now().After(entry.expiresAt) {
		return "", false
	}
	return entry.nonce, true
}
