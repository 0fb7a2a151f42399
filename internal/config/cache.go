package config

import "time"

// SearchCacheConfig controls the Redis cache in front of restaurant
// search. Search is the hottest read path and tolerates slightly stale
// results, so responses are cached for a short TTL keyed by the full
// set of search parameters.
type SearchCacheConfig struct {
	Enabled bool
	TTL     time.Duration
	Prefix  string
}

// LoadSearchCacheConfig reads search cache settings from the
// environment.
func LoadSearchCacheConfig() SearchCacheConfig {
	return SearchCacheConfig{
		Enabled: envBool("SEARCH_CACHE_ENABLED", true),
		TTL:     envDur("SEARCH_CACHE_TTL", 30*time.Second),
		Prefix:  envStr("SEARCH_CACHE_PREFIX", "search"),
	}
}
