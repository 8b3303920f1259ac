package redis_client

import (
	"context"
	"time"

	redis "github.com/go-redis/redis/v8"
	"github.com/leeforge/hookkit/logging"
	"go.uber.org/zap"
)

const pingTimeout = 5 * time.Second

// NewRedis connects and pings. The client is closed again if the ping fails.
func NewRedis(ctx context.Context, cnf Config, logger logging.Logger) (*redis.Client, error) {
	if logger == nil {
		logger = logging.Nop()
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cnf.Addr(),
		Password: cnf.Password,
		DB:       cnf.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	logger.Info("redis connected", redisConfigLogFields(cnf)...)
	return client, nil
}

func redisConfigLogFields(cnf Config) []zap.Field {
	return []zap.Field{
		zap.String("addr", cnf.Addr()),
		zap.Int("db", cnf.DB),
		zap.String("password", redactedPassword(cnf.Password)),
	}
}

func redactedPassword(password string) string {
	if password == "" {
		return "<empty>"
	}
	return "[REDACTED]"
}
