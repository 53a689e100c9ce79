package session

import (
	"fmt"
	"time"
)

// DefaultTTL is how long an untouched draft survives.
const DefaultTTL = 24 * time.Hour

func validateTTL(ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("session ttl must be positive, got %s", ttl)
	}
	return nil
}
