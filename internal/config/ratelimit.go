package config

import "time"

// RateLimitConfig drives the Redis token bucket guarding the payment
// and reservation endpoints. The defaults allow a burst of 60 requests
// and refill one token per second per key, which is generous for a
// human buyer and tight for a seat-grabbing script.
type RateLimitConfig struct {
    Enabled        bool
    Capacity       int           // bucket size (burst allowance)
    RefillTokens   int           // tokens added per interval
    RefillInterval time.Duration // how often tokens are added
    TTL            time.Duration // idle bucket expiry in Redis
    KeyStrategy    string        // what identifies a caller (ip/user/route mix)
    Prefix         string        // Redis key namespace
    Debug          bool          // expose bucket state in headers/logs
}

// LoadRateLimitConfig reads the RATE_LIMIT_* environment variables.
// RATE_LIMIT_BURST and RATE_LIMIT_REFILL_EVERY are accepted as
// shorthand overrides; all values are clamped to something the bucket
// arithmetic can work with.
func LoadRateLimitConfig() RateLimitConfig {
    cfg := RateLimitConfig{
        Enabled:        envBool("RATE_LIMIT_ENABLED", true),
        Capacity:       envInt("RATE_LIMIT_CAPACITY", 60),
        RefillTokens:   envInt("RATE_LIMIT_REFILL_TOKENS", 1),
        RefillInterval: envDur("RATE_LIMIT_REFILL_INTERVAL", time.Second),
        TTL:            envDur("RATE_LIMIT_TTL", 10*time.Minute),
        KeyStrategy:    envStr("RATE_LIMIT_KEY_STRATEGY", "ip_user_route"),
        Prefix:         envStr("RATE_LIMIT_PREFIX", "tickethub:rl"),
        Debug:          envBool("RATE_LIMIT_DEBUG", false),
    }
    if b := envInt("RATE_LIMIT_BURST", -1); b > 0 {
        cfg.Capacity = b
    }
    if every := envDur("RATE_LIMIT_REFILL_EVERY", 0); every > 0 {
        cfg.RefillTokens = 1
        cfg.RefillInterval = every
    }

    if cfg.Capacity < 1 {
        cfg.Capacity = 1
    }
    if cfg.RefillTokens < 1 {
        cfg.RefillTokens = 1
    }
    if cfg.RefillInterval <= 0 {
        cfg.RefillInterval = time.Second
    }
    // Buckets must outlive several refill intervals or idle callers
    // would reset their own limits.
    if min := 5 * cfg.RefillInterval; cfg.TTL < min {
        cfg.TTL = min
    }
    return cfg
}
