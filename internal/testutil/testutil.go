// Package testutil provides Redis and fixture helpers shared by package tests.
package testutil

import (
	"context"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// TestingTB is the subset of testing.TB the helpers need.
type TestingTB interface {
	Helper()
	Skip(args ...any)
	Skipf(format string, args ...any)
	Fatalf(format string, args ...any)
	Logf(format string, args ...any)
	Cleanup(func())
}

const defaultTestRedisDB = 9

// FixedTimeFunc returns a clock frozen at t.
func FixedTimeFunc(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// TestTime is the reference instant used across fixtures.
func TestTime() time.Time {
	return time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
}

func truthyEnv(key string) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "y":
		return true
	}
	return false
}

// redisCandidates lists addresses to probe: REDIS_ADDR first, then the
// compose service name, then local defaults.
func redisCandidates() []string {
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		return []string{addr}
	}
	return []string{"redis:6379", "localhost:6379", "localhost:56379"}
}

func testRedisDB(t TestingTB) int {
	raw := os.Getenv("TEST_REDIS_DB")
	if raw == "" {
		return defaultTestRedisDB
	}
	db, err := strconv.Atoi(raw)
	if err != nil || db < 0 {
		t.Logf("ignoring invalid TEST_REDIS_DB=%q", raw)
		return defaultTestRedisDB
	}
	return db
}

func ping(client *redis.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return client.Ping(ctx).Err()
}

// SetupTestRedis returns a client on a flushed test database. The test is
// skipped when no server answers, unless TEST_REQUIRE_REDIS is set.
func SetupTestRedis(t TestingTB) *redis.Client {
	t.Helper()

	db := testRedisDB(t)
	for _, addr := range redisCandidates() {
		client := redis.NewClient(&redis.Options{Addr: addr, DB: db})
		if err := ping(client); err != nil {
			t.Logf("redis not reachable at %s: %v", addr, err)
			_ = client.Close()
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		client.FlushDB(ctx)
		cancel()

		t.Cleanup(func() {
			if err := client.Close(); err != nil {
				t.Logf("warning: failed to close redis client: %v", err)
			}
		})
		return client
	}

	if truthyEnv("TEST_REQUIRE_REDIS") {
		t.Fatalf("redis not available for testing")
	}
	t.Skip("redis not available for testing")
	return nil
}
