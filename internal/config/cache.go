package config

import (
    "strings"
    "time"
)

// CacheConfig drives the Redis response cache that sits in front of
// the public browse surface (event listing and event detail). Seat
// maps are always served live, so the cache only ever sees the routes
// the router puts behind it.
type CacheConfig struct {
    Enabled      bool            // master switch; also off when Redis is down
    Methods      map[string]bool // HTTP methods eligible for caching
    TTL          time.Duration   // entry lifetime
    KeyStrategy  string          // which request parts form the key
    Prefix       string          // Redis key namespace
    MaxBodyBytes int             // bodies larger than this are not cached
}

// LoadCacheConfig reads the CACHE_* environment variables. The 30s
// default TTL keeps event listings fresh while still absorbing the
// burst of identical reads when a sale opens.
func LoadCacheConfig() CacheConfig {
    return CacheConfig{
        Enabled:      envBool("CACHE_ENABLED", true),
        Methods:      parseMethods(envStr("CACHE_METHODS", "GET")),
        TTL:          envDur("CACHE_TTL", 30*time.Second),
        KeyStrategy:  envStr("CACHE_KEY_STRATEGY", "route_query"),
        Prefix:       envStr("CACHE_PREFIX", "tickethub:cache"),
        MaxBodyBytes: envInt("CACHE_MAX_BODY_BYTES", 1<<20),
    }
}

// parseMethods turns a comma list like "GET,HEAD" into a lookup set.
func parseMethods(s string) map[string]bool {
    m := map[string]bool{}
    for _, p := range strings.Split(s, ",") {
        if p = strings.TrimSpace(strings.ToUpper(p)); p != "" {
            m[p] = true
        }
    }
    return m
}
