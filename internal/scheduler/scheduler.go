// Package scheduler defers post publication until a requested time.
//
// The Redis-backed implementation keeps due times in a sorted set so
// schedules survive restarts; a polling loop fires everything whose score
// has passed. When Redis is unavailable the in-process fallback keeps the
// same behavior with timers, minus durability.
package scheduler

import (
	"context"
	"strconv"
	"sync"
	"time"

	"chirp/internal/middleware"
	"chirp/internal/observability"

	"github.com/redis/go-redis/v9"
)

// scheduleKey is the sorted set holding post IDs scored by due unix time.
const scheduleKey = "publish:schedule"

// pollInterval bounds how late a due publish can fire.
const pollInterval = time.Second

// PublishFunc applies the publish transition for one post. It must be
// idempotent: the scheduler may invoke it more than once for the same post.
type PublishFunc func(ctx context.Context, postID uint, firedAt time.Time) error

// Scheduler defers the publication of posts.
type Scheduler interface {
	Schedule(ctx context.Context, postID uint, at time.Time) error
	Cancel(ctx context.Context, postID uint) error
	Start(ctx context.Context)
	Stop()
}

// New returns a Redis-backed scheduler, or the in-process fallback when
// client is nil.
func New(client *redis.Client, publish PublishFunc) Scheduler {
	if client == nil {
		middleware.Logger.Warn("Redis unavailable, scheduled publishes will not survive restarts")
		return newMemoryScheduler(publish)
	}
	return &redisScheduler{
		client:  client,
		publish: publish,
		done:    make(chan struct{}),
	}
}

type redisScheduler struct {
	client  *redis.Client
	publish PublishFunc
	done    chan struct{}
	once    sync.Once
}

func (s *redisScheduler) Schedule(ctx context.Context, postID uint, at time.Time) error {
	err := s.client.ZAdd(ctx, scheduleKey, redis.Z{
		Score:  float64(at.Unix()),
		Member: formatPostID(postID),
	}).Err()
	if err != nil {
		return err
	}
	observability.ScheduledPublishes.WithLabelValues("scheduled").Inc()
	return nil
}

func (s *redisScheduler) Cancel(ctx context.Context, postID uint) error {
	return s.client.ZRem(ctx, scheduleKey, formatPostID(postID)).Err()
}

// Start runs the polling loop until Stop is called or ctx is cancelled.
func (s *redisScheduler) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(pollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-s.done:
				return
			case <-ticker.C:
				s.fireDue(ctx, time.Now().UTC())
			}
		}
	}()
}

func (s *redisScheduler) Stop() {
	s.once.Do(func() { close(s.done) })
}

// fireDue publishes every post whose due time has passed. A failed publish
// stays in the set and is retried on the next tick.
func (s *redisScheduler) fireDue(ctx context.Context, now time.Time) {
	members, err := s.client.ZRangeByScore(ctx, scheduleKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(now.Unix(), 10),
	}).Result()
	if err != nil {
		middleware.Logger.Error("scheduler poll failed", "error", err)
		return
	}

	for _, member := range members {
		postID, err := parsePostID(member)
		if err != nil {
			// Unparseable members would otherwise be retried forever.
			middleware.Logger.Error("dropping malformed schedule entry", "member", member)
			s.client.ZRem(ctx, scheduleKey, member)
			continue
		}

		if err := s.publish(ctx, postID, now); err != nil {
			observability.ScheduledPublishes.WithLabelValues("error").Inc()
			middleware.Logger.Error("scheduled publish failed", "post_id", postID, "error", err)
			continue
		}

		s.client.ZRem(ctx, scheduleKey, member)
		observability.ScheduledPublishes.WithLabelValues("published").Inc()
		middleware.Logger.Info("published scheduled post", "post_id", postID)
	}
}

func formatPostID(postID uint) string {
	return strconv.FormatUint(uint64(postID), 10)
}

func parsePostID(member string) (uint, error) {
	id, err := strconv.ParseUint(member, 10, 64)
	return uint(id), err
}

// memoryScheduler fires publishes from per-post timers. Used when Redis is
// not configured; pending schedules are lost on restart.
type memoryScheduler struct {
	publish PublishFunc

	mu     sync.Mutex
	timers map[uint]*time.Timer
}

func newMemoryScheduler(publish PublishFunc) *memoryScheduler {
	return &memoryScheduler{
		publish: publish,
		timers:  make(map[uint]*time.Timer),
	}
}

func (s *memoryScheduler) Schedule(_ context.Context, postID uint, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if timer, ok := s.timers[postID]; ok {
		timer.Stop()
	}
	s.timers[postID] = time.AfterFunc(time.Until(at), func() {
		firedAt := time.Now().UTC()
		if err := s.publish(context.Background(), postID, firedAt); err != nil {
			observability.ScheduledPublishes.WithLabelValues("error").Inc()
			middleware.Logger.Error("scheduled publish failed", "post_id", postID, "error", err)
			return
		}
		observability.ScheduledPublishes.WithLabelValues("published").Inc()

		s.mu.Lock()
		delete(s.timers, postID)
		s.mu.Unlock()
	})
	observability.ScheduledPublishes.WithLabelValues("scheduled").Inc()
	return nil
}

func (s *memoryScheduler) Cancel(_ context.Context, postID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if timer, ok := s.timers[postID]; ok {
		timer.Stop()
		delete(s.timers, postID)
	}
	return nil
}

func (s *memoryScheduler) Start(context.Context) {}

func (s *memoryScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, timer := range s.timers {
		timer.Stop()
		delete(s.timers, id)
	}
}
