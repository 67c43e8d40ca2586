package scheduler

import (
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis"
	"github.com/pkg/errors"

	"github.com/parallelproc/fanout/internal/common/batchcontext"
	"github.com/parallelproc/fanout/internal/common/fanouterrors"
	"github.com/parallelproc/fanout/internal/fanout/descriptor"
)

const RedisName = "redis"

// RedisScheduler pushes descriptors onto a redis list consumed by a pool of queue workers.
type RedisScheduler struct {
	client redis.UniversalClient
	key    string
}

// JobsKey is the list descriptors are pushed to.
func JobsKey(prefix string) string {
	return prefix + ":jobs"
}

func NewRedisScheduler(client redis.UniversalClient, keyPrefix string) *RedisScheduler {
	return &RedisScheduler{client: client, key: JobsKey(keyPrefix)}
}

func (s *RedisScheduler) Name() string {
	return RedisName
}

func (s *RedisScheduler) Submit(ctx *batchcontext.Context, d *descriptor.JobDescriptor) (*SubmissionResult, error) {
	payload, err := json.Marshal(d)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	length, err := s.client.RPush(s.key, payload).Result()
	if err != nil {
		return nil, errors.WithStack(&fanouterrors.ErrSchedulerUnavailable{
			JobIndex:  d.Index,
			Scheduler: RedisName,
			Message:   err.Error(),
		})
	}
	ctx.Log.Debugf("pushed job %d to %s", d.Index, s.key)
	return &SubmissionResult{
		JobIndex:  d.Index,
		Scheduler: RedisName,
		ClusterId: fmt.Sprintf("%s/%d", s.key, length-1),
	}, nil
}
