package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// SessionKey returns the cache key holding the principal of an issued session.
func (r *CacheKeyStruct) SessionKey(sessionID string) string {
	return fmt.Sprintf("session:%s", sessionID)
}

// ContentEventsChannel returns the Redis PubSub channel for quiz content changes.
func (r *CacheKeyStruct) ContentEventsChannel() string {
	return "content:events"
}

var CacheKey = NewCacheKeyStruct()
