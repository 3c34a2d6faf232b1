package processing

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"docuflow/internal/intake"
	id "docuflow/pkg/domain"
)

// DedupStore remembers which attachments were already forwarded, so a
// redelivered message does not mail the downstream inbox twice. It is best
// effort: a lost or missing marker means a duplicate forward, never a lost
// document, so the marker is written only after a successful send.
type DedupStore interface {
	AlreadyForwarded(ctx context.Context, key string) (bool, error)
	MarkForwarded(ctx context.Context, key string, ttl time.Duration) error
}

// forwardKey identifies one attachment's forward: same requirement, same
// file name, same bytes.
func forwardKey(reqID id.RequirementID, att intake.Attachment) string {
	sum := sha256.Sum256(att.Content)
	return fmt.Sprintf("forward:%s:%s:%s", reqID, att.FileName, hex.EncodeToString(sum[:8]))
}

// RedisDedup implements DedupStore with expiring Redis markers.
type RedisDedup struct {
	client *redis.Client
}

func NewRedisDedup(client *redis.Client) *RedisDedup {
	return &RedisDedup{client: client}
}

func (d *RedisDedup) AlreadyForwarded(ctx context.Context, key string) (bool, error) {
	n, err := d.client.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (d *RedisDedup) MarkForwarded(ctx context.Context, key string, ttl time.Duration) error {
	return d.client.Set(ctx, key, "1", ttl).Err()
}

// NoopDedup disables deduplication; every attachment looks new.
type NoopDedup struct{}

func (NoopDedup) AlreadyForwarded(context.Context, string) (bool, error) { return false, nil }

func (NoopDedup) MarkForwarded(context.Context, string, time.Duration) error { return nil }
