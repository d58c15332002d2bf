// Package suite spins up the throwaway infrastructure the integration
// tests need. Only the online-play relay uses it; everything else in the
// firmware runs against in-memory fakes.
package suite

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/redis/go-redis/v9"
)

const (
	// containerTTL hard-kills the container even if cleanup never runs.
	containerTTL = 120
	maxWait      = 120 * time.Second

	redisPort  = "6379/tcp"
	redisImage = "redis"
	redisTag   = "alpine"
)

// RedisSuite bundles a test with a disposable Redis instance playing the
// role of the shared-game relay.
type RedisSuite struct {
	*testing.T
	Logger *slog.Logger
	Relay  *redis.Client
}

// NewRedis starts a Redis container, waits for it to accept connections,
// flushes it and hands back a connected client. The container is purged
// on test cleanup.
func NewRedis(t *testing.T) (context.Context, *RedisSuite) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), maxWait)
	t.Cleanup(cancel)

	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Fatalf("could not connect to docker: %v", err)
	}

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: redisImage,
		Tag:        redisTag,
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("could not start redis container: %v", err)
	}
	_ = resource.Expire(containerTTL)

	t.Cleanup(func() {
		if purgeErr := pool.Purge(resource); purgeErr != nil {
			t.Fatalf("could not purge redis container: %v", purgeErr)
		}
	})

	// The container may not accept connections right away.
	pool.MaxWait = maxWait
	var client *redis.Client
	if err = pool.Retry(func() error {
		client = redis.NewClient(&redis.Options{Addr: resource.GetHostPort(redisPort)})
		return client.Ping(ctx).Err()
	}); err != nil {
		t.Fatalf("could not connect to redis: %v", err)
	}

	if err = client.FlushDB(ctx).Err(); err != nil {
		t.Fatalf("could not flush redis: %v", err)
	}

	return ctx, &RedisSuite{
		T:      t,
		Logger: slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})),
		Relay:  client,
	}
}
