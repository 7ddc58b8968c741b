// Package suite starts throwaway backing services in docker for integration tests.
package suite

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	natsgo "github.com/nats-io/nats.go"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/redis/go-redis/v9"
)

const (
	expireDuration  = 120
	maxWaitDuration = 120 * time.Second
)

const (
	redisPort  = "6379/tcp"
	redisImage = "redis"
	redisTag   = "alpine"

	natsPort  = "4222/tcp"
	natsImage = "nats"
	natsTag   = "2.10-alpine"
)

type Suite struct {
	*testing.T
	Logger *slog.Logger

	Storage *redis.Client
	NATSURL string
}

func newContext(t *testing.T) context.Context {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), maxWaitDuration)
	t.Cleanup(cancel)
	return ctx
}

func newLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
}

// runContainer starts image:tag and retries ready until it succeeds against the mapped port.
func runContainer(t *testing.T, image, tag, port string, ready func(hostPort string) error) {
	t.Helper()

	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Fatalf("could not connect to docker: %v", err)
	}

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: image,
		Tag:        tag,
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("could not start %s: %v", image, err)
	}

	// hard kill even if cleanup never runs
	_ = resource.Expire(expireDuration)

	pool.MaxWait = maxWaitDuration

	hostPort := resource.GetHostPort(port)
	if err = pool.Retry(func() error { return ready(hostPort) }); err != nil {
		if purgeErr := pool.Purge(resource); purgeErr != nil {
			t.Fatalf("could not purge %s: %v", image, purgeErr)
		}
		t.Fatalf("could not connect to %s: %v", image, err)
	}

	t.Cleanup(func() {
		if err := pool.Purge(resource); err != nil {
			t.Fatalf("could not purge %s: %v", image, err)
		}
	})
}

// New starts redis and returns a client for an empty database.
func New(t *testing.T) (context.Context, *Suite) {
	t.Helper()

	ctx := newContext(t)

	var redisClient *redis.Client
	runContainer(t, redisImage, redisTag, redisPort, func(hostPort string) error {
		redisClient = redis.NewClient(&redis.Options{Addr: hostPort})
		return redisClient.Ping(ctx).Err()
	})

	if err := redisClient.FlushDB(ctx).Err(); err != nil {
		t.Fatalf("could not flush database: %v", err)
	}

	return ctx, &Suite{
		T:       t,
		Logger:  newLogger(),
		Storage: redisClient,
	}
}

// NewNATS starts a NATS server and returns its client url.
func NewNATS(t *testing.T) (context.Context, *Suite) {
	t.Helper()

	ctx := newContext(t)

	var url string
	runContainer(t, natsImage, natsTag, natsPort, func(hostPort string) error {
		url = "nats://" + hostPort
		conn, err := natsgo.Connect(url)
		if err != nil {
			return err
		}
		conn.Close()
		return nil
	})

	return ctx, &Suite{
		T:       t,
		Logger:  newLogger(),
		NATSURL: url,
	}
}
