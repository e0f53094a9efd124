package cache

import (
	"fmt"
	"time"
)

const (
	UserKeyPrefix      = "user:%d"
	BlacklistKeyPrefix = "blacklist:%s"
	RateLimitKeyPrefix = "ratelimit:%s:%s"
)

const (
	UserTTL = 5 * time.Minute
)

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

// BlacklistKey is the key marking a revoked token id.
func BlacklistKey(jti string) string {
	return fmt.Sprintf(BlacklistKeyPrefix, jti)
}

// RateLimitKey scopes a limiter counter to a resource and an identity.
func RateLimitKey(resource, identity string) string {
	return fmt.Sprintf(RateLimitKeyPrefix, resource, identity)
}
