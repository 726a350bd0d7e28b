package app

import (
	"context"
	"fmt"
	"log/slog"

	s3blob "github.com/jackleZac/trading-algorithm/internal/blob/s3"
	"github.com/jackleZac/trading-algorithm/internal/cache/redis"
	"github.com/jackleZac/trading-algorithm/internal/config"
	"github.com/jackleZac/trading-algorithm/internal/domain"
	"github.com/jackleZac/trading-algorithm/internal/store/postgres"
)

// Dependencies bundles the optional backends. A nil field means the backend
// is not configured for this run.
type Dependencies struct {
	Postgres *postgres.Client

	// Stores
	BarStore    domain.BarStore
	IntentStore domain.IntentStore
	RunStore    domain.RunStore

	// Bus
	IntentBus domain.IntentBus

	// Blob storage
	BlobReader domain.BlobReader
	BlobWriter domain.BlobWriter
	Archiver   *s3blob.Archiver
}

// PostgresConfig maps the config section onto the client parameters.
func PostgresConfig(cfg config.PostgresConfig) postgres.ClientConfig {
	return postgres.ClientConfig{
		DSN:      cfg.DSN,
		Host:     cfg.Host,
		Port:     cfg.Port,
		Database: cfg.Database,
		User:     cfg.User,
		Password: cfg.Password,
		SSLMode:  cfg.SSLMode,
		MaxConns: cfg.PoolMaxConns,
		MinConns: cfg.PoolMinConns,
	}
}

// Wire constructs the backends the configuration enables and returns them
// together with a cleanup function that should be called on shutdown.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	logger = logger.With(slog.String("component", "wire"))

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- PostgreSQL (bar feed, intent sink, run rows) ---
	if cfg.NeedsPostgres() {
		pgClient, err := postgres.New(ctx, PostgresConfig(cfg.Postgres))
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pgClient.Close)

		if cfg.Postgres.RunMigrations {
			applied, err := pgClient.RunMigrations(ctx)
			if err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
			}
			if len(applied) > 0 {
				logger.InfoContext(ctx, "applied migrations", slog.Any("files", applied))
			}
		}

		pool := pgClient.Pool()
		deps.Postgres = pgClient
		deps.BarStore = postgres.NewBarStore(pool)
		deps.IntentStore = postgres.NewIntentStore(pool)
		deps.RunStore = postgres.NewRunStore(pool)
	}

	// --- Redis (intent stream for the execution engine) ---
	if cfg.Sink.Redis {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })
		bus := redis.NewIntentBus(redisClient, cfg.Sink.RedisStream)
		logger.InfoContext(ctx, "intent stream ready",
			slog.String("addr", redisClient.Addr()),
			slog.String("stream", bus.Stream()),
		)
		deps.IntentBus = bus
	}

	// --- S3 (bar files, journal upload, run archive) ---
	if cfg.NeedsS3() {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		if err := s3Client.Health(ctx); err != nil {
			logger.WarnContext(ctx, "s3 health check failed", slog.String("error", err.Error()))
		}

		deps.BlobReader = s3blob.NewReader(s3Client)
		deps.BlobWriter = s3blob.NewWriter(s3Client)
		// Intent archives need the intent table.
		var intents domain.IntentStore
		if cfg.Sink.Postgres {
			intents = deps.IntentStore
		}
		deps.Archiver = s3blob.NewArchiver(deps.BlobWriter, intents, cfg.Sink.ArchivePrefix)
	}

	return deps, cleanup, nil
}
