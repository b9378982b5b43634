package progress

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "github.com/Taichi-iskw/ytshelf/internal/errors"
)

const keyPrefix = "progress:"

// RedisStore keeps sessions in Redis so every server instance sees them
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time
}

// NewRedisStore creates a RedisStore whose keys expire ttl after their last write
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &RedisStore{client: client, ttl: ttl, now: time.Now}
}

func (r *RedisStore) Start(ctx context.Context, id, userID, operation string, total int) (*Session, error) {
	s := newSession(id, userID, operation, total, r.now())
	data, err := json.Marshal(s)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "failed to encode progress session")
	}

	ok, err := r.client.SetNX(ctx, keyPrefix+id, data, r.ttl).Result()
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodePersistence, "failed to store progress session")
	}
	if !ok {
		existing, err := r.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if !existing.Done() {
			return nil, apperrors.New(apperrors.CodeConflict, "session is already running")
		}
		if err := r.save(ctx, s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (r *RedisStore) Update(ctx context.Context, id string, item ItemState) (*Session, error) {
	return r.modify(ctx, id, func(s *Session) { s.apply(item, r.now()) })
}

func (r *RedisStore) Finish(ctx context.Context, id string, cause error) (*Session, error) {
	return r.modify(ctx, id, func(s *Session) { s.finish(cause, r.now()) })
}

func (r *RedisStore) Get(ctx context.Context, id string) (*Session, error) {
	val, err := r.client.Get(ctx, keyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperrors.New(apperrors.CodeNotFound, "progress session not found")
		}
		return nil, apperrors.Wrap(err, apperrors.CodePersistence, "failed to read progress session")
	}

	var s Session
	if err := json.Unmarshal(val, &s); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "failed to decode progress session")
	}
	return &s, nil
}

// modify does a read-modify-write under WATCH so concurrent updates to one
// session are not lost
func (r *RedisStore) modify(ctx context.Context, id string, fn func(*Session)) (*Session, error) {
	key := keyPrefix + id
	var out *Session

	txf := func(tx *redis.Tx) error {
		val, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			return err
		}
		var s Session
		if err := json.Unmarshal(val, &s); err != nil {
			return err
		}
		fn(&s)
		data, err := json.Marshal(&s)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, r.ttl)
			return nil
		})
		if err == nil {
			out = &s
		}
		return err
	}

	const maxRetries = 5
	for i := 0; i < maxRetries; i++ {
		err := r.client.Watch(ctx, txf, key)
		switch {
		case err == nil:
			return out, nil
		case errors.Is(err, redis.TxFailedErr):
			continue
		case errors.Is(err, redis.Nil):
			return nil, apperrors.New(apperrors.CodeNotFound, "progress session not found")
		default:
			return nil, apperrors.Wrap(err, apperrors.CodePersistence, "failed to update progress session")
		}
	}
	return nil, apperrors.New(apperrors.CodeConflict, "progress session update contended")
}

func (r *RedisStore) save(ctx context.Context, s *Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeInternal, "failed to encode progress session")
	}
	if err := r.client.Set(ctx, keyPrefix+s.ID, data, r.ttl).Err(); err != nil {
		return apperrors.Wrap(err, apperrors.CodePersistence, "failed to store progress session")
	}
	return nil
}
