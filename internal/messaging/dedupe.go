package messaging

import (
	"crypto/sha256"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Deduper suppresses repeated inbound payloads per subject within a TTL.
// The cache is size-bounded, so under sustained unique traffic old entries
// are evicted before they expire.
type Deduper struct {
	cache *lru.Cache[string, time.Time]
	ttl   time.Duration
}

func NewDeduper(max int, ttl time.Duration) (*Deduper, error) {
	cache, err := lru.New[string, time.Time](max)
	if err != nil {
		return nil, fmt.Errorf("create dedupe cache: %w", err)
	}
	return &Deduper{cache: cache, ttl: ttl}, nil
}

// Seen reports whether this subject/payload pair was already observed within
// the TTL, recording it either way.
func (d *Deduper) Seen(subject string, data []byte) bool {
	sum := sha256.Sum256(data)
	key := fmt.Sprintf("%s:%x", subject, sum)

	if expires, found := d.cache.Get(key); found {
		if time.Now().Before(expires) {
			return true
		}
		d.cache.Remove(key)
	}

	d.cache.Add(key, time.Now().Add(d.ttl))
	return false
}
