package worker

// Failed email jobs are not dropped: they are parked in a Redis sorted set
// keyed by their next attempt time and re-enqueued by a background cron.
// Jobs that exhaust their attempts land in a dead-letter list per source
// queue (dlq:{queue}) for manual inspection.

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	DLQPrefix = "dlq:"
	RetryKey  = "jobs:retry"

	MaxEmailAttempts  = 3
	retryTickInterval = 30 * time.Second
	retryBatchSize    = 50
)

// DLQEntry wraps an exhausted job with enough metadata to debug it.
type DLQEntry struct {
	OriginalQueue string          `json:"original_queue"`
	JobType       string          `json:"job_type"`
	Payload       json.RawMessage `json:"payload"`
	Reason        string          `json:"reason"`
	FailedAt      string          `json:"failed_at"` // RFC 3339
	Attempts      int             `json:"attempts"`
}

// retryEntry is what sits in the retry set: the job plus where it came from.
type retryEntry struct {
	Queue string `json:"queue"`
	Job   Job    `json:"job"`
}

// retryBackoff spaces attempts a minute further apart each time.
func retryBackoff(attempts int) time.Duration {
	return time.Duration(attempts) * time.Minute
}

func newDLQEntry(queue string, job Job, reason string) DLQEntry {
	return DLQEntry{
		OriginalQueue: queue,
		JobType:       job.Type,
		Payload:       job.Payload,
		Reason:        reason,
		FailedAt:      time.Now().UTC().Format(time.RFC3339),
		Attempts:      job.Attempts,
	}
}

// scheduleRetry re-queues a failed job with linear backoff, or moves it to
// the DLQ once its attempts are spent.
func scheduleRetry(ctx context.Context, rdb *redis.Client, queue string, job Job, cause error) {
	if rdb == nil {
		return
	}
	job.Attempts++
	if job.Attempts >= MaxEmailAttempts {
		sendToDLQ(ctx, rdb, queue, job, cause.Error())
		return
	}

	entry := retryEntry{Queue: queue, Job: job}
	data, err := json.Marshal(entry)
	if err != nil {
		log.Error().Err(err).Str("queue", queue).Msg("retry: failed to marshal entry")
		return
	}

	nextAttempt := time.Now().Add(retryBackoff(job.Attempts))
	if err := rdb.ZAdd(ctx, RetryKey, redis.Z{Score: float64(nextAttempt.Unix()), Member: data}).Err(); err != nil {
		log.Error().Err(err).Str("queue", queue).Msg("retry: failed to park job")
		return
	}
	log.Warn().
		Str("queue", queue).
		Str("job_type", job.Type).
		Int("attempt", job.Attempts).
		Time("next_attempt_at", nextAttempt).
		Msg("retry: job parked for re-delivery")
}

// sendToDLQ pushes an exhausted job to the dead-letter list for its queue.
func sendToDLQ(ctx context.Context, rdb *redis.Client, queue string, job Job, reason string) {
	entry := newDLQEntry(queue, job, reason)
	data, err := json.Marshal(entry)
	if err != nil {
		log.Error().Err(err).Str("queue", queue).Msg("dlq: failed to marshal entry")
		return
	}
	if err := rdb.LPush(ctx, DLQPrefix+queue, data).Err(); err != nil {
		log.Error().Err(err).Str("queue", queue).Msg("dlq: failed to push entry")
		return
	}
	log.Error().
		Str("queue", queue).
		Str("job_type", job.Type).
		Str("reason", reason).
		Int("attempts", job.Attempts).
		Msg("dlq: job moved to dead letter queue")
}

// DLQLength reports the number of dead-lettered jobs for a queue.
func DLQLength(ctx context.Context, rdb *redis.Client, queue string) (int64, error) {
	return rdb.LLen(ctx, DLQPrefix+queue).Result()
}

// StartRetryCron launches a goroutine that periodically moves due retry
// entries back onto their original queue. It respects the context for
// graceful shutdown.
func StartRetryCron(ctx context.Context, rdb *redis.Client) {
	go func() {
		ticker := time.NewTicker(retryTickInterval)
		defer ticker.Stop()

		log.Info().Msg("retry_cron: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("retry_cron: shutting down")
				return
			case <-ticker.C:
				redeliverDue(ctx, rdb)
			}
		}
	}()
}

func redeliverDue(ctx context.Context, rdb *redis.Client) {
	now := time.Now().Unix()
	members, err := rdb.ZRangeByScore(ctx, RetryKey, &redis.ZRangeBy{
		Min: "-inf", Max: strconv.FormatInt(now, 10), Count: retryBatchSize,
	}).Result()
	if err != nil {
		log.Error().Err(err).Msg("retry_cron: failed to query due jobs")
		return
	}
	if len(members) == 0 {
		return
	}

	log.Info().Int("count", len(members)).Msg("retry_cron: re-enqueueing due jobs")
	for _, raw := range members {
		var entry retryEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			log.Error().Err(err).Msg("retry_cron: bad entry, discarding")
			rdb.ZRem(ctx, RetryKey, raw)
			continue
		}
		encoded, err := json.Marshal(entry.Job)
		if err != nil {
			rdb.ZRem(ctx, RetryKey, raw)
			continue
		}
		if err := rdb.LPush(ctx, entry.Queue, encoded).Err(); err != nil {
			log.Error().Err(err).Str("queue", entry.Queue).Msg("retry_cron: re-enqueue failed")
			continue
		}
		rdb.ZRem(ctx, RetryKey, raw)
	}
}
