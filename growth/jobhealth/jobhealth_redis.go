package jobhealth

import (
	"context"
	"time"

	"github.com/postloop/growthd/models"

	"github.com/redis/go-redis/v9"
)

var redisJobPrefix string = "job/"

type RedisHeartbeatStore struct {
	Client *redis.Client
}

var _ HeartbeatStore = (*RedisHeartbeatStore)(nil)

func NewRedisHeartbeatStore(redisURL string) (*RedisHeartbeatStore, error) {
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
	rhs := RedisHeartbeatStore{
		Client: rdb,
	}
	return &rhs, nil
}

func (s *RedisHeartbeatStore) Record(ctx context.Context, job string, status models.JobStatus, msg string, at time.Time) error {
	key := redisJobPrefix + job
	ts := at.UTC().Format(time.RFC3339Nano)
	fields := map[string]any{
		"status":     string(status),
		"updated_at": ts,
	}
	switch status {
	case models.JobStarted:
		fields["last_started_at"] = ts
	case models.JobSucceeded:
		fields["last_succeeded_at"] = ts
		fields["last_error"] = ""
	case models.JobFailed:
		fields["last_failed_at"] = ts
		fields["last_error"] = msg
	}
	return s.Client.HSet(ctx, key, fields).Err()
}

func parseRedisTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func (s *RedisHeartbeatStore) Get(ctx context.Context, job string) (*models.JobHeartbeat, error) {
	vals, err := s.Client.HGetAll(ctx, redisJobPrefix+job).Result()
	if err != nil {
		return nil, err
	}
	if len(vals) == 0 {
		return nil, ErrUnknownJob
	}
	return &models.JobHeartbeat{
		Job:             job,
		Status:          models.JobStatus(vals["status"]),
		LastStartedAt:   parseRedisTime(vals["last_started_at"]),
		LastSucceededAt: parseRedisTime(vals["last_succeeded_at"]),
		LastFailedAt:    parseRedisTime(vals["last_failed_at"]),
		LastError:       vals["last_error"],
		UpdatedAt:       parseRedisTime(vals["updated_at"]),
	}, nil
}
