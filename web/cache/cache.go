package cache

import (
	"time"

	"github.com/cardtracker/cardtracker/logger"
	"github.com/goccy/go-json"
)

// TTLReference bounds how stale a cached reference list can be.
const TTLReference = 5 * time.Minute

// Cache keys
const (
	KeySeriesList    = "ref:series"
	KeySetList       = "ref:sets"
	KeyCardTypeList  = "ref:card_types"
	KeyRateLimitBase = "ratelimit:"
)

// GetJSON loads key and unmarshals it into dest.
func GetJSON(key string, dest any) error {
	val, err := Get(key)
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(val), dest)
}

// SetJSON stores value as JSON under key.
func SetJSON(key string, value any, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return Set(key, data, expiration)
}

// GetOrSet fills dest from the cache, or from fn on a miss. A cache that is
// unavailable degrades to calling fn every time.
func GetOrSet[T any](key string, expiration time.Duration, fn func() (T, error)) (T, error) {
	var cached T
	if err := GetJSON(key, &cached); err == nil {
		logger.Debugf("Cache hit for key: %s", key)
		return cached, nil
	}

	value, err := fn()
	if err != nil {
		return value, err
	}
	if err := SetJSON(key, value, expiration); err != nil {
		logger.Debugf("Failed to set cache for key %s: %v", key, err)
	}
	return value, nil
}

// Invalidate drops the given keys, logging rather than failing.
func Invalidate(keys ...string) {
	if err := Delete(keys...); err != nil {
		logger.Debugf("Failed to invalidate %v: %v", keys, err)
	}
}
