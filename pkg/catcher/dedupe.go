package catcher

import (
	"crypto/md5" //nolint:gosec // content fingerprint, not authentication
	"encoding/hex"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// dedupeCapacity is how many recent message digests are remembered.
const dedupeCapacity = 1000

// deduper suppresses datagrams whose content was seen recently. UDP can
// duplicate packets in flight and the wire format carries no sequence
// numbers, so a digest of the payload is the cheapest idempotence check
// available. Two different messages that collide would be misclassified, but
// with a 128-bit digest that is negligible.
type deduper struct {
	seen *lru.Cache[string, struct{}]
}

func newDeduper(capacity int) (*deduper, error) {
	seen, err := lru.New[string, struct{}](capacity)
	if err != nil {
		return nil, fmt.Errorf("failed to create dedupe cache: %w", err)
	}

	return &deduper{seen: seen}, nil
}

// checkAndMark reports whether data was seen recently, marking it as seen
// when it was not. The digest covers exactly the received byte span, never
// the surrounding read buffer, so a short packet is not confused with the
// stale tail of a longer one. A duplicate hit does not refresh recency.
func (d *deduper) checkAndMark(data []byte) (digest string, duplicate bool) {
	sum := md5.Sum(data)
	digest = hex.EncodeToString(sum[:])

	if d.seen.Contains(digest) {
		return digest, true
	}

	d.seen.Add(digest, struct{}{})

	return digest, false
}
