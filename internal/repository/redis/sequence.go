package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jwalitptl/clinic-checkin/internal/repository"
	"github.com/jwalitptl/clinic-checkin/pkg/circuitbreaker"
)

// counterTTL keeps a day's counter around long enough to survive clock skew
// between nodes while still letting Redis reclaim old keys.
const counterTTL = 72 * time.Hour

// seedScript raises the counter to ARGV[1] without ever lowering it.
var seedScript = redis.NewScript(`
local cur = tonumber(redis.call("GET", KEYS[1]) or "0")
local floor = tonumber(ARGV[1])
if floor > cur then
	redis.call("SET", KEYS[1], floor)
end
redis.call("PEXPIRE", KEYS[1], ARGV[2])
return math.max(cur, floor)
`)

type counterRepository struct {
	client redis.UniversalClient
	cb     *circuitbreaker.CircuitBreaker
}

func NewCounterRepository(client redis.UniversalClient) repository.CounterRepository {
	return &counterRepository{
		client: client,
		cb: circuitbreaker.NewCircuitBreaker(circuitbreaker.Settings{
			Name:             "redis-sequence",
			MaxRequests:      1,
			Interval:         10 * time.Second,
			Timeout:          5 * time.Second,
			FailureThreshold: 5,
		}),
	}
}

func counterKey(prefix string, date time.Time) string {
	return fmt.Sprintf("seq:%s:%s", prefix, date.Format("20060102"))
}

func (r *counterRepository) Increment(ctx context.Context, prefix string, date time.Time) (int64, error) {
	key := counterKey(prefix, date)
	var value int64
	err := r.cb.Execute(func() error {
		pipe := r.client.TxPipeline()
		incr := pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, counterTTL)
		if _, err := pipe.Exec(ctx); err != nil {
			return err
		}
		value = incr.Val()
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to increment sequence %s: %w", key, err)
	}
	return value, nil
}

func (r *counterRepository) Seed(ctx context.Context, prefix string, date time.Time, floor int64) error {
	key := counterKey(prefix, date)
	err := r.cb.Execute(func() error {
		return seedScript.Run(ctx, r.client, []string{key}, floor, counterTTL.Milliseconds()).Err()
	})
	if err != nil {
		return fmt.Errorf("failed to seed sequence %s: %w", key, err)
	}
	return nil
}
