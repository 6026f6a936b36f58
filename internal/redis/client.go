package redisx

import (
	"context"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// NewClient connects to addr and checks the server answers.
func NewClient(ctx context.Context, addr string) (*redis.Client, error) {
	c := redis.NewClient(&redis.Options{Addr: addr})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := c.Ping(pingCtx).Err(); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}
