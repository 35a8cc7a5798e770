package incidentstore

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/postloop/growthd/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var redisIncidentPrefix string = "incident/"

// Incidents are kept in one sorted set per type, scored by unix
// milliseconds, so trailing-window counts are a single ZCOUNT.
type RedisIncidentStore struct {
	Client *redis.Client
	// entries older than this are trimmed on write
	Retention time.Duration
}

var _ IncidentStore = (*RedisIncidentStore)(nil)

func NewRedisIncidentStore(redisURL string) (*RedisIncidentStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opt)
	// check redis connection
	_, err = rdb.Ping(context.TODO()).Result()
	if err != nil {
		return nil, err
	}
	ris := RedisIncidentStore{
		Client:    rdb,
		Retention: 48 * time.Hour,
	}
	return &ris, nil
}

func (s *RedisIncidentStore) Close() error {
	return s.Client.Close()
}

func redisIncidentKey(typ models.IncidentType) string {
	return redisIncidentPrefix + string(typ)
}

func (s *RedisIncidentStore) Record(ctx context.Context, inc models.Incident) error {
	if err := inc.Validate(); err != nil {
		return err
	}
	key := redisIncidentKey(inc.Type)
	at := inc.CreatedAt.UnixMilli()
	// set members must be unique per incident, even for repeated reports
	member := fmt.Sprintf("%d/%s/%s", inc.CreatedAt.UnixNano(), uuid.NewString(), inc.Detail)

	// record and trim in a single redis round-trip
	multi := s.Client.Pipeline()
	multi.ZAdd(ctx, key, redis.Z{Score: float64(at), Member: member})
	cutoff := inc.CreatedAt.Add(-s.Retention).UnixMilli()
	multi.ZRemRangeByScore(ctx, key, "-inf", "("+strconv.FormatInt(cutoff, 10))
	multi.Expire(ctx, key, s.Retention)
	_, err := multi.Exec(ctx)
	return err
}

func (s *RedisIncidentStore) Count(ctx context.Context, typ models.IncidentType, start, end time.Time) (int, error) {
	min, max := scoreRange(start, end)
	c, err := s.Client.ZCount(ctx, redisIncidentKey(typ), min, max).Result()
	if err == redis.Nil {
		return 0, nil
	} else if err != nil {
		return 0, err
	}
	return int(c), nil
}

// scoreRange converts [start, end) into ZCOUNT bounds over millisecond
// scores. An end inside a millisecond still covers that whole millisecond.
func scoreRange(start, end time.Time) (string, string) {
	min := strconv.FormatInt(start.UnixMilli(), 10)
	if end.Sub(time.UnixMilli(end.UnixMilli())) > 0 {
		return min, strconv.FormatInt(end.UnixMilli(), 10)
	}
	return min, "(" + strconv.FormatInt(end.UnixMilli(), 10)
}
