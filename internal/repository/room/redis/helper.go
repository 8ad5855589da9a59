package redis

import (
	"context"

	"github.com/redis/go-redis/v9"
)

func (r repo) addToJoinOrder(ctx context.Context, c redis.Scripter, key, memberId string) {
	c.EvalSha(ctx, r.joinOrderScript, []string{key}, memberId)
}

func (r repo) executePipe(ctx context.Context, pipe redis.Pipeliner) error {
	cmds, err := pipe.Exec(ctx)
	if err != nil {
		for _, cmd := range cmds {
			if err := cmd.Err(); err != nil {
				return err
			}
		}

		return err
	}

	return nil
}
