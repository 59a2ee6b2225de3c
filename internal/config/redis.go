package config

import (
	"context"
	"os"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient builds the client behind the response cache and the auth
// rate limiter.  Connection parameters come from the environment:
//
//	REDIS_URL      full redis:// URL, wins over everything else
//	REDIS_ADDR     host:port shorthand
//	REDIS_HOST / REDIS_PORT
//	REDIS_PASSWORD, REDIS_DB
//
// Redis is an accelerator here, not a hard dependency: when the ping fails
// the function returns nil and the cache and limiter middleware run as
// no-ops, so the API stays up without it.
func NewRedisClient() *redis.Client {
	var opts *redis.Options
	if url := os.Getenv("REDIS_URL"); url != "" {
		parsed, err := redis.ParseURL(url)
		if err != nil {
			return nil
		}
		opts = parsed
	} else {
		addr := os.Getenv("REDIS_ADDR")
		if host, port := os.Getenv("REDIS_HOST"), os.Getenv("REDIS_PORT"); host != "" && port != "" {
			addr = host + ":" + port
		}
		if addr == "" {
			addr = "localhost:6379"
		}
		db := 0
		if s := os.Getenv("REDIS_DB"); s != "" {
			if n, err := strconv.Atoi(s); err == nil {
				db = n
			}
		}
		opts = &redis.Options{Addr: addr, Password: os.Getenv("REDIS_PASSWORD"), DB: db}
	}

	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil
	}
	return client
}
