package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/MetaStark/vision-IoS-sub013/pkg/logger"
)

// RedisQueue is a small Redis-list backed work queue. Producers LPUSH
// envelopes, workers BRPOP them; a failed message is requeued until its
// retry limit is exhausted.
type RedisQueue struct {
	logger    *logger.Logger
	config    *Config
	client    *redis.Client
	jobs      map[string]Job
	keyPrefix string

	wg     sync.WaitGroup
	cancel context.CancelFunc
	mu     sync.Mutex
}

// Option configures RedisQueue.
type Option func(*RedisQueue)

// WithKeyPrefix sets a custom key prefix.
func WithKeyPrefix(prefix string) Option {
	return func(r *RedisQueue) { r.keyPrefix = prefix }
}

// NewRedisQueue creates a queue over an existing Redis client.
func NewRedisQueue(lgr *logger.Logger, cfg *Config, client *redis.Client, opts ...Option) *RedisQueue {
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.RetryLimit <= 0 {
		cfg.RetryLimit = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 5 * time.Second
	}
	q := &RedisQueue{
		logger:    lgr,
		config:    cfg,
		client:    client,
		jobs:      make(map[string]Job),
		keyPrefix: "vision:queue",
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// RegisterJob registers the handler for one message type.
func (r *RedisQueue) RegisterJob(job Job) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[job.Type()] = job
}

// Publish enqueues a message of the given type.
func (r *RedisQueue) Publish(ctx context.Context, msgType string, payload interface{}) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	env := Message{
		ID:        uuid.NewString(),
		Type:      msgType,
		Payload:   raw,
		Timestamp: time.Now().UTC(),
	}
	return r.push(ctx, &env)
}

func (r *RedisQueue) push(ctx context.Context, env *Message) error {
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}
	if err := r.client.LPush(ctx, r.key(env.Type), data).Err(); err != nil {
		return fmt.Errorf("lpush %s: %w", env.Type, err)
	}
	return nil
}

// Start launches the worker goroutines, one set per registered type.
func (r *RedisQueue) Start(ctx context.Context) {
	r.mu.Lock()
	if r.cancel != nil {
		r.mu.Unlock()
		return
	}
	ctx, r.cancel = context.WithCancel(ctx)
	jobs := make([]Job, 0, len(r.jobs))
	for _, j := range r.jobs {
		jobs = append(jobs, j)
	}
	r.mu.Unlock()

	for _, job := range jobs {
		for i := 0; i < r.config.Workers; i++ {
			r.wg.Add(1)
			go r.worker(ctx, job)
		}
	}
}

// Stop cancels workers and waits for in-flight handlers.
func (r *RedisQueue) Stop() {
	r.mu.Lock()
	cancel := r.cancel
	r.cancel = nil
	r.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	r.wg.Wait()
}

func (r *RedisQueue) worker(ctx context.Context, job Job) {
	defer r.wg.Done()
	key := r.key(job.Type())
	for {
		res, err := r.client.BRPop(ctx, 2*time.Second, key).Result()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if !errors.Is(err, redis.Nil) {
				r.logger.Warn("queue pop failed", logger.String("key", key), logger.Error(err))
				select {
				case <-time.After(r.config.RetryDelay):
				case <-ctx.Done():
					return
				}
			}
			continue
		}
		if len(res) != 2 {
			continue
		}
		r.dispatch(ctx, job, []byte(res[1]))
	}
}

func (r *RedisQueue) dispatch(ctx context.Context, job Job, raw []byte) {
	var env Message
	if err := json.Unmarshal(raw, &env); err != nil {
		r.logger.Error("queue envelope decode failed", logger.Error(err))
		return
	}
	if err := job.Handle(ctx, env.Payload); err != nil {
		env.Attempts++
		if env.Attempts >= r.config.RetryLimit {
			r.logger.Error("queue message dropped after retries",
				logger.String("type", env.Type),
				logger.String("id", env.ID),
				logger.Int("attempts", env.Attempts),
				logger.Error(err),
			)
			return
		}
		r.logger.Warn("queue message requeued",
			logger.String("type", env.Type),
			logger.String("id", env.ID),
			logger.Int("attempts", env.Attempts),
			logger.Error(err),
		)
		if perr := r.push(ctx, &env); perr != nil {
			r.logger.Error("queue requeue failed", logger.Error(perr))
		}
	}
}

func (r *RedisQueue) key(msgType string) string {
	return r.keyPrefix + ":" + msgType
}
