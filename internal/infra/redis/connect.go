package redis

import (
	"context"
	"fmt"

	"github.com/rembayung/waitroom/config"
	pkgLog "github.com/rembayung/waitroom/pkg/logger"
	pkgRedis "github.com/rembayung/waitroom/pkg/redis"
)

func Connect(ctx context.Context, cfg config.RedisConfig, l pkgLog.Logger) (*pkgRedis.Client, error) {
	cli := pkgRedis.NewClient(cfg)

	if err := cli.Ping(ctx); err != nil {
		cli.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	l.Infof(ctx, "Connected to Redis at %s", cfg.Addr)

	return cli, nil
}

func Disconnect(ctx context.Context, cli *pkgRedis.Client, l pkgLog.Logger) {
	if cli == nil {
		return
	}

	if err := cli.Close(); err != nil {
		l.Errorf(ctx, "infra.redis.Disconnect: %v", err)
		return
	}

	l.Info(ctx, "Connection to Redis closed.")
}
