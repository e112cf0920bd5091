package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	corestore "github.com/tkarvine/draftgate/internal/store"
	"github.com/tkarvine/draftgate/pkg/api"
)

// RedisStore is a RecordStore backed by Redis. It uses a simple key
// structure:
//
//	<prefix>post:<id>     => JSON-encoded PostRecord
//	<prefix>idx:pending   => ZSET of pending record ids scored by creation time
//
// The pending index is maintained inside the same transaction as every state
// write, so ListPending never returns records that already left
// pending_approval.
type RedisStore struct {
	client *redis.Client
	prefix string
}

var _ corestore.RecordStore = (*RedisStore)(nil)

// NewRedisStore creates a RedisStore.
// prefix is optional but recommended (e.g. "draftgate:").
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "draftgate:"
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (r *RedisStore) keyPost(id string) string {
	return r.prefix + "post:" + id
}

func (r *RedisStore) keyPending() string {
	return r.prefix + "idx:pending"
}

func (r *RedisStore) Create(ctx context.Context, req api.GenerationRequest) (*api.PostRecord, error) {
	now := time.Now()
	rec := &api.PostRecord{
		ID:                uuid.NewString(),
		Topic:             req.Topic,
		Platform:          req.Platform,
		Tone:              req.Tone,
		AdditionalContext: req.AdditionalContext,
		State:             api.StateGenerating,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	rec.AppendHistory("created", "gateway", "")

	data, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}
	if err := r.client.Set(ctx, r.keyPost(rec.ID), data, 0).Err(); err != nil {
		return nil, err
	}
	return rec, nil
}

func (r *RedisStore) Get(ctx context.Context, id string) (*api.PostRecord, error) {
	data, err := r.client.Get(ctx, r.keyPost(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, corestore.ErrNotFound
		}
		return nil, err
	}

	var rec api.PostRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *RedisStore) ListPending(ctx context.Context) ([]*api.PostRecord, error) {
	ids, err := r.client.ZRange(ctx, r.keyPending(), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.keyPost(id)
	}

	// One MGET for the whole queue instead of a round trip per id.
	vals, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	out := make([]*api.PostRecord, 0, len(ids))
	for _, v := range vals {
		raw, ok := v.(string)
		if !ok {
			// Index member whose record is gone; skip it.
			continue
		}
		var rec api.PostRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, err
		}
		out = append(out, &rec)
	}
	return out, nil
}

// CompareAndTransition runs the read-check-write under WATCH: if any other
// writer touches the record between the read and the MULTI/EXEC, the
// transaction aborts and the caller observes ErrStateConflict.
func (r *RedisStore) CompareAndTransition(ctx context.Context, id string, expected api.State, mut corestore.Mutator) (*api.PostRecord, error) {
	key := r.keyPost(id)
	var result *api.PostRecord

	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return corestore.ErrNotFound
			}
			return err
		}

		var rec api.PostRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			return err
		}
		if rec.State != expected {
			return corestore.ErrStateConflict
		}

		if err := mut(&rec); err != nil {
			return err
		}
		rec.UpdatedAt = time.Now()

		next, err := json.Marshal(&rec)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, next, 0)
			if rec.State == api.StatePendingApproval {
				pipe.ZAdd(ctx, r.keyPending(), redis.Z{
					Score:  float64(rec.CreatedAt.UnixNano()),
					Member: rec.ID,
				})
			} else {
				pipe.ZRem(ctx, r.keyPending(), rec.ID)
			}
			return nil
		})
		if err != nil {
			return err
		}

		result = &rec
		return nil
	}

	if err := r.client.Watch(ctx, txf, key); err != nil {
		if errors.Is(err, redis.TxFailedErr) {
			return nil, corestore.ErrStateConflict
		}
		return nil, err
	}
	return result, nil
}
