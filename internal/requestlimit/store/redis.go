package store

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	platformredis "veriflow/internal/platform/redis"
	"veriflow/internal/verification/models"
	dErrors "veriflow/pkg/errors"
)

// reserveScript performs the check-and-increment atomically on the server so
// concurrent creations can never push the counter above max. KEYS[1] is the
// pair counter, KEYS[2] the customer-year total; ARGV[1] is max.
var reserveScript = goredis.NewScript(`
local count = tonumber(redis.call('GET', KEYS[1]) or '0')
local max = tonumber(ARGV[1])
if count >= max then
  return {count, tonumber(redis.call('GET', KEYS[2]) or '0'), 0}
end
count = redis.call('INCR', KEYS[1])
local total = redis.call('INCR', KEYS[2])
return {count, total, 1}
`)

// RedisStore keeps counters in Redis, one key per (customer, requestor, year)
// pair plus a customer-year total.
type RedisStore struct {
	client *platformredis.Client
}

func NewRedisStore(client *platformredis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context, key Key) (*models.RequestLimit, error) {
	count, err := s.client.Get(ctx, key.String()).Int()
	if err == goredis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeDatabase, "read limit counter")
	}

	total, err := s.client.Get(ctx, key.CustomerTotalKey()).Int()
	if err != nil && err != goredis.Nil {
		return nil, dErrors.Wrap(err, dErrors.CodeDatabase, "read customer total counter")
	}

	return &models.RequestLimit{
		CustomerID:            key.CustomerID,
		RequestorID:           key.RequestorID,
		Year:                  key.Year,
		RequestCount:          count,
		TotalCustomerRequests: total,
	}, nil
}

func (s *RedisStore) Reserve(ctx context.Context, key Key, max int) (*models.RequestLimit, bool, error) {
	res, err := reserveScript.Run(ctx, s.client.Client,
		[]string{key.String(), key.CustomerTotalKey()}, max).Slice()
	if err != nil {
		return nil, false, dErrors.Wrap(err, dErrors.CodeDatabase, "reserve limit counter")
	}
	if len(res) != 3 {
		return nil, false, dErrors.New(dErrors.CodeDatabase, fmt.Sprintf("unexpected reserve script reply of length %d", len(res)))
	}

	count, _ := res[0].(int64)
	total, _ := res[1].(int64)
	granted, _ := res[2].(int64)

	limit := &models.RequestLimit{
		CustomerID:            key.CustomerID,
		RequestorID:           key.RequestorID,
		Year:                  key.Year,
		RequestCount:          int(count),
		TotalCustomerRequests: int(total),
		MaxAllowed:            max,
	}
	return limit, granted == 1, nil
}
