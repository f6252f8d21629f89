// Package jobs is a Redis-backed deferred-job queue with at most one pending
// job per key.
//
// Schedule state lives in two Redis keys: a sorted set of job keys scored by
// their run time in epoch milliseconds, and a hash from job key to the JSON
// job envelope. Enqueueing under an existing key overwrites both entries, so a
// key never carries more than one pending job.
package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// ErrNotFound is returned by Pending when no job exists under the key.
var ErrNotFound = errors.New("job not found")

// Job is one pending unit of deferred work.
type Job struct {
	ID      string          `json:"id"`
	Key     string          `json:"key"`
	RunAt   time.Time       `json:"runAt"`
	Payload json.RawMessage `json:"payload"`
}

type Queue struct {
	redis  *redis.Client
	prefix string
}

func NewQueue(client *redis.Client, prefix string) *Queue {
	if prefix == "" {
		prefix = "taskera"
	}
	return &Queue{redis: client, prefix: prefix}
}

func (q *Queue) scheduleKey() string { return q.prefix + ":jobs:schedule" }
func (q *Queue) payloadKey() string  { return q.prefix + ":jobs:payload" }

// EnqueueUnique schedules payload under key to run at runAt, replacing any
// job already pending under the same key.
func (q *Queue) EnqueueUnique(ctx context.Context, key string, runAt time.Time, payload any) (Job, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Job{}, fmt.Errorf("marshal payload for %s: %w", key, err)
	}
	job := Job{
		ID:      uuid.NewString(),
		Key:     key,
		RunAt:   runAt.UTC(),
		Payload: data,
	}
	envelope, err := json.Marshal(job)
	if err != nil {
		return Job{}, fmt.Errorf("marshal job %s: %w", key, err)
	}

	_, err = q.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZAdd(ctx, q.scheduleKey(), redis.Z{Score: float64(runAt.UnixMilli()), Member: key})
		pipe.HSet(ctx, q.payloadKey(), key, envelope)
		return nil
	})
	if err != nil {
		return Job{}, fmt.Errorf("enqueue %s: %w", key, err)
	}
	return job, nil
}

// CancelUnique removes the job pending under key. Cancelling a key with no
// job is not an error.
func (q *Queue) CancelUnique(ctx context.Context, key string) error {
	_, err := q.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRem(ctx, q.scheduleKey(), key)
		pipe.HDel(ctx, q.payloadKey(), key)
		return nil
	})
	if err != nil {
		return fmt.Errorf("cancel %s: %w", key, err)
	}
	return nil
}

// Pending returns the job currently scheduled under key.
func (q *Queue) Pending(ctx context.Context, key string) (Job, error) {
	raw, err := q.redis.HGet(ctx, q.payloadKey(), key).Result()
	if errors.Is(err, redis.Nil) {
		return Job{}, fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	if err != nil {
		return Job{}, fmt.Errorf("read job %s: %w", key, err)
	}
	return decodeJob(key, raw)
}

// Len is the number of pending jobs.
func (q *Queue) Len(ctx context.Context) (int64, error) {
	return q.redis.ZCard(ctx, q.scheduleKey()).Result()
}

// claimScript removes a job and returns its envelope only if it is still due,
// so a job rescheduled between listing and claiming stays pending.
var claimScript = redis.NewScript(`
local score = redis.call('ZSCORE', KEYS[1], ARGV[1])
if not score or tonumber(score) > tonumber(ARGV[2]) then
	return false
end
redis.call('ZREM', KEYS[1], ARGV[1])
local payload = redis.call('HGET', KEYS[2], ARGV[1])
redis.call('HDEL', KEYS[2], ARGV[1])
return payload
`)

// ClaimDue removes and returns up to limit jobs whose run time is at or
// before now. A claimed job belongs to the caller alone. Jobs whose envelope
// cannot be decoded are removed and skipped.
func (q *Queue) ClaimDue(ctx context.Context, now time.Time, limit int64) ([]Job, error) {
	nowMs := now.UnixMilli()
	keys, err := q.redis.ZRangeByScore(ctx, q.scheduleKey(), &redis.ZRangeBy{
		Min:   "-inf",
		Max:   strconv.FormatInt(nowMs, 10),
		Count: limit,
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("list due jobs: %w", err)
	}

	var claimed []Job
	for _, key := range keys {
		raw, err := claimScript.Run(ctx, q.redis, []string{q.scheduleKey(), q.payloadKey()}, key, nowMs).Text()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return claimed, fmt.Errorf("claim %s: %w", key, err)
		}
		job, err := decodeJob(key, raw)
		if err != nil {
			log.WithError(err).WithField("job", key).Error("dropping job with unreadable envelope")
			continue
		}
		claimed = append(claimed, job)
	}
	return claimed, nil
}

// requeueScript puts a claimed job back unless a newer one took its key.
var requeueScript = redis.NewScript(`
if redis.call('HEXISTS', KEYS[2], ARGV[1]) == 1 then
	return 0
end
redis.call('ZADD', KEYS[1], ARGV[2], ARGV[1])
redis.call('HSET', KEYS[2], ARGV[1], ARGV[3])
return 1
`)

// Requeue schedules a claimed job again at runAt. It reports false and
// leaves the queue alone when another job is already pending under the key.
func (q *Queue) Requeue(ctx context.Context, job Job, runAt time.Time) (bool, error) {
	job.RunAt = runAt.UTC()
	envelope, err := json.Marshal(job)
	if err != nil {
		return false, fmt.Errorf("marshal job %s: %w", job.Key, err)
	}
	n, err := requeueScript.Run(ctx, q.redis, []string{q.scheduleKey(), q.payloadKey()},
		job.Key, runAt.UnixMilli(), envelope).Int()
	if err != nil {
		return false, fmt.Errorf("requeue %s: %w", job.Key, err)
	}
	return n == 1, nil
}

func decodeJob(key, raw string) (Job, error) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		return Job{}, fmt.Errorf("decode job %s: %w", key, err)
	}
	return job, nil
}
