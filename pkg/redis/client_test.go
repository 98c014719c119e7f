package redis

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/Adithya-Monish-Kumar-K/ngram-classifier/pkg/config"
	"github.com/redis/go-redis/v9"
)

func TestOptions(t *testing.T) {
	opts := options(config.RedisConfig{Addr: "cache:6379", DB: 2, PoolSize: 4})
	if opts.Addr != "cache:6379" || opts.DB != 2 || opts.PoolSize != 4 {
		t.Errorf("options = %+v", opts)
	}
	if opts.ClientName != clientName {
		t.Errorf("ClientName = %q", opts.ClientName)
	}
	if opts.DialTimeout != 2*time.Second {
		t.Errorf("DialTimeout = %v", opts.DialTimeout)
	}
}

func TestIsNilError(t *testing.T) {
	if !IsNilError(fmt.Errorf("get: %w", redis.Nil)) {
		t.Error("wrapped redis.Nil should be a nil error")
	}
	if IsNilError(errors.New("connection refused")) {
		t.Error("other errors are not nil errors")
	}
}
