package redis

import (
	"context"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

type repo struct {
	rc              *redis.Client
	logger          *slog.Logger
	joinOrderScript string
}

func NewRepo(rc *redis.Client, logger *slog.Logger) *repo {
	return &repo{
		rc:     rc,
		logger: logger,
		// adds the member with score max+1 unless it is already in the
		// list, so re-joins keep their original position
		joinOrderScript: rc.ScriptLoad(context.Background(), `
			local existing = redis.call('ZSCORE', KEYS[1], ARGV[1])
			if existing then
				return tonumber(existing)
			end
			local maxScore = redis.call('ZREVRANGE', KEYS[1], 0, 0, 'WITHSCORES')
			local nextScore = 1
			if #maxScore > 0 then
				nextScore = tonumber(maxScore[2]) + 1
			end
			redis.call('ZADD', KEYS[1], nextScore, ARGV[1])
			return nextScore
		`).Val(),
	}
}
