package redis

import (
	"testing"
)

func TestClientOptionsDefaults(t *testing.T) {
	opts := ClientConfig{Addr: "localhost:6379"}.options()
	if opts.PoolSize != defaultPoolSize || opts.MaxRetries != defaultMaxRetries {
		t.Fatalf("expected default pool and retries, got %d/%d", opts.PoolSize, opts.MaxRetries)
	}
	if opts.WriteTimeout != writeTimeout {
		t.Fatalf("expected write timeout %v, got %v", writeTimeout, opts.WriteTimeout)
	}
	if opts.TLSConfig != nil {
		t.Fatalf("expected no tls by default")
	}
}

func TestClientOptionsOverrides(t *testing.T) {
	opts := ClientConfig{Addr: "cache:6380", Password: "pw", DB: 2, PoolSize: 4, MaxRetries: -1, TLSEnabled: true}.options()
	if opts.Addr != "cache:6380" || opts.Password != "pw" || opts.DB != 2 {
		t.Fatalf("unexpected connection options %+v", opts)
	}
	// -1 disables retries in go-redis and must be kept.
	if opts.PoolSize != 4 || opts.MaxRetries != -1 {
		t.Fatalf("expected pool 4 and retries -1, got %d/%d", opts.PoolSize, opts.MaxRetries)
	}
	if opts.TLSConfig == nil {
		t.Fatalf("expected tls config")
	}
}
