package jobs

import (
	"context"

	"github.com/redis/go-redis/v9"

	"dogify/api/internal/ids"
)

const orphanStream = "dogify:orphans"

// OrphanQueue records object-store keys whose compensating delete failed
// during ingestion, so the sweeper can retry instead of leaking blobs
// forever. Queueing is best-effort: without redis the orphan is only
// logged by the caller.
type OrphanQueue struct {
	client *redis.Client
}

func NewOrphanQueue(client *redis.Client) *OrphanQueue {
	return &OrphanQueue{client: client}
}

func (q *OrphanQueue) Enqueue(ctx context.Context, key string) error {
	if q == nil || q.client == nil {
		return nil
	}
	_, err := q.client.XAdd(ctx, &redis.XAddArgs{
		Stream: orphanStream,
		Values: map[string]any{
			"task": ids.NewTaskID(),
			"key":  key,
		},
	}).Result()
	return err
}

type orphanEntry struct {
	StreamID string
	Key      string
}

func (q *OrphanQueue) pending(ctx context.Context, count int64) ([]orphanEntry, error) {
	if q == nil || q.client == nil {
		return nil, nil
	}
	msgs, err := q.client.XRangeN(ctx, orphanStream, "-", "+", count).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]orphanEntry, 0, len(msgs))
	for _, msg := range msgs {
		key, _ := msg.Values["key"].(string)
		if key == "" {
			// Unreadable entry, drop it rather than loop on it.
			_ = q.client.XDel(ctx, orphanStream, msg.ID).Err()
			continue
		}
		entries = append(entries, orphanEntry{StreamID: msg.ID, Key: key})
	}
	return entries, nil
}

func (q *OrphanQueue) ack(ctx context.Context, streamID string) error {
	if q == nil || q.client == nil {
		return nil
	}
	return q.client.XDel(ctx, orphanStream, streamID).Err()
}
