package di

import (
	"context"
	"fmt"
	"time"

	domrepo "TipsEngine/internal/domain/repository"
	"TipsEngine/internal/handler/api"
	internalrepo "TipsEngine/internal/repository"
	"TipsEngine/internal/service/lock"
	"TipsEngine/internal/service/ratelimit"
	"TipsEngine/internal/usecase"
	"TipsEngine/pkg/cache"
	pkgch "TipsEngine/pkg/clickhouse"
	"TipsEngine/pkg/config"
	xhttp "TipsEngine/pkg/http"
	pkgkafka "TipsEngine/pkg/kafka"
	applogger "TipsEngine/pkg/logger"
	"TipsEngine/pkg/metrics"
	"TipsEngine/pkg/queue"
	"TipsEngine/pkg/server"
	"TipsEngine/pkg/sqldb"
)

const initTimeout = 10 * time.Second

// ProvideLogger creates the structured logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() *metrics.Recorder {
	return metrics.New()
}

// ProvideModelRegistry resolves the configured model versions.
func ProvideModelRegistry(cfg *config.Config) (*config.ModelRegistry, error) {
	return config.NewModelRegistry(cfg.Engine)
}

// ProvideSQLClient opens the relational database.
func ProvideSQLClient(cfg *config.Config) (*sqldb.Client, error) {
	client, err := sqldb.NewClient(
		sqldb.WithDriver(cfg.Database.Driver),
		sqldb.WithDSN(cfg.Database.DSN),
		sqldb.WithMaxConnections(cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns),
		sqldb.WithConnMaxLifetime(cfg.Database.ConnMaxLifetime),
	)
	if err != nil {
		return nil, fmt.Errorf("sql client: %w", err)
	}
	return client, nil
}

// ProvideSQLStore creates the authoritative store and its schema.
func ProvideSQLStore(client *sqldb.Client, cfg *config.Config, l *applogger.Logger) (*internalrepo.SQLStore, error) {
	store := internalrepo.NewSQLStore(client)
	store.SetLogger(l)
	if !cfg.Database.InitSchema {
		return store, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), initTimeout)
	defer cancel()
	if err := store.Init(ctx); err != nil {
		return nil, fmt.Errorf("sql schema: %w", err)
	}
	return store, nil
}

// ProvideCache returns Redis when enabled and an in-process cache otherwise.
func ProvideCache(cfg *config.Config) (cache.Service, error) {
	if !cfg.Redis.Enabled {
		return cache.NewMemoryCache(cache.WithMemoryCleanup(time.Minute)), nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), initTimeout)
	defer cancel()
	rc, err := cache.NewRedisCache(ctx,
		cache.WithRedisAddr(cfg.RedisAddr()),
		cache.WithRedisAuth(cfg.Redis.Password, cfg.Redis.DB),
		cache.WithRedisPool(cfg.Redis.PoolSize, cfg.Redis.PoolSize/2, 5*time.Second),
		cache.WithRedisPrefix(cfg.Redis.KeyPrefix),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return rc, nil
}

// ProvideLocker creates the match and team locker on top of the cache.
func ProvideLocker(c cache.Service, cfg *config.Config, l *applogger.Logger) domrepo.Locker {
	return lock.NewCacheLocker(c, lock.WithTTL(cfg.Redis.LockTTL), lock.WithLogger(l))
}

// ProvideClickHouseClient connects to ClickHouse. It returns nil when the
// history log is disabled.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !cfg.ClickHouse.Enabled {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host, cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvideHistory creates the analytical log, or a no-op without ClickHouse.
func ProvideHistory(ch *pkgch.Client, l *applogger.Logger) (domrepo.RatingHistory, error) {
	if ch == nil {
		return internalrepo.NoopHistory{}, nil
	}
	h := internalrepo.NewCHRatingHistory(ch)
	h.SetLogger(l)

	ctx, cancel := context.WithTimeout(context.Background(), initTimeout)
	defer cancel()
	if err := h.Init(ctx); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return h, nil
}

// ProvideKafkaProducer creates a Kafka producer. It returns nil when Kafka
// is disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatching(cfg.Kafka.Producer.BatchSize, cfg.Kafka.Producer.Linger),
		pkgkafka.WithWriteTimeout(cfg.Kafka.Producer.WriteTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideEventPublisher publishes engine events, or drops them without Kafka.
func ProvideEventPublisher(p *pkgkafka.Producer, cfg *config.Config, l *applogger.Logger) domrepo.EventPublisher {
	if p == nil {
		return internalrepo.NoopPublisher{}
	}
	pub := internalrepo.NewKafkaEventPublisher(p, internalrepo.EventTopics{
		Statistics: cfg.Kafka.Topics.StatisticsCalculated,
		Ratings:    cfg.Kafka.Topics.RatingsUpdated,
	})
	pub.SetLogger(l)
	return pub
}

// ProvideCachedRatings puts the cache in front of the rating store.
func ProvideCachedRatings(store *internalrepo.SQLStore, c cache.Service, cfg *config.Config, l *applogger.Logger) *internalrepo.CachedRatings {
	r := internalrepo.NewCachedRatings(store, c, cfg.Redis.RatingTTL)
	r.SetLogger(l)
	return r
}

// ProvideStatisticsEngine reads ratings through the cache.
func ProvideStatisticsEngine(
	cfg *config.Config,
	store *internalrepo.SQLStore,
	cached *internalrepo.CachedRatings,
	history domrepo.RatingHistory,
	events domrepo.EventPublisher,
	registry *config.ModelRegistry,
	locker domrepo.Locker,
	rec *metrics.Recorder,
	l *applogger.Logger,
) *usecase.StatisticsEngine {
	stores := usecase.Stores{
		Matches:    store,
		Ratings:    cached,
		Statistics: store,
		History:    history,
		Events:     events,
	}
	return usecase.NewStatisticsEngine(stores, usecase.DefaultCalculators(), registry, locker, rec,
		usecase.WithEngineLogger(l),
		usecase.WithBatchWorkers(cfg.Engine.BatchWorkers),
		usecase.WithLockTimeout(cfg.Engine.LockTimeout),
	)
}

// ProvideRatingService writes ratings to the store directly and evicts the
// cached copies afterwards.
func ProvideRatingService(
	cfg *config.Config,
	store *internalrepo.SQLStore,
	cached *internalrepo.CachedRatings,
	history domrepo.RatingHistory,
	events domrepo.EventPublisher,
	registry *config.ModelRegistry,
	locker domrepo.Locker,
	rec *metrics.Recorder,
	l *applogger.Logger,
) *usecase.RatingService {
	stores := usecase.Stores{
		Matches:    store,
		Ratings:    store,
		Statistics: store,
		History:    history,
		Events:     events,
	}
	return usecase.NewRatingService(stores, usecase.DefaultCalculators(), registry, locker, rec,
		usecase.WithRatingLogger(l),
		usecase.WithRatingCache(cached),
		usecase.WithRatingLockTimeout(cfg.Engine.LockTimeout),
	)
}

// ProvideQueue creates the Redis job queue for batch recalculation. It
// returns nil when the queue is disabled.
func ProvideQueue(cfg *config.Config, c cache.Service, engine *usecase.StatisticsEngine, l *applogger.Logger) (*queue.RedisQueue, error) {
	if !cfg.Queue.Enabled {
		return nil, nil
	}
	rc, ok := c.(*cache.RedisCache)
	if !ok {
		return nil, fmt.Errorf("job queue requires redis to be enabled")
	}

	q := queue.NewRedisQueue(l, queue.Config{
		Workers:    cfg.Queue.Workers,
		RetryLimit: cfg.Queue.RetryLimit,
		RetryDelay: cfg.Queue.RetryDelay,
	}, rc.Client(), queue.WithKeyPrefix(cache.Key(cfg.Redis.KeyPrefix, "queue", cfg.Queue.Name)))
	q.RegisterJob(usecase.NewRecalculateJob(engine, l))
	return q, nil
}

// ProvideKafkaConsumer creates the match.finished consumer. It returns nil
// when consuming is disabled.
func ProvideKafkaConsumer(cfg *config.Config, l *applogger.Logger) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled || !cfg.Kafka.Consumer.Enabled {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	consumer.SetLogger(l)
	consumer.WithConsumerHook(pkgkafka.LoggingHook{L: l, Slow: cfg.Metrics.SlowThreshold})
	return consumer, nil
}

// ProvideMatchFinishedHandler handles final scores announced on Kafka.
func ProvideMatchFinishedHandler(
	cfg *config.Config,
	ratings *usecase.RatingService,
	engine *usecase.StatisticsEngine,
	l *applogger.Logger,
) *usecase.MatchFinishedHandler {
	h := usecase.NewMatchFinishedHandler(cfg.Kafka.Topics.MatchFinished, ratings, engine)
	h.SetLogger(l)
	return h
}

// ProvideLimiter creates the per-client limiter for write endpoints.
func ProvideLimiter(cfg *config.Config) *ratelimit.Limiter {
	rl := cfg.Server.RateLimit
	return ratelimit.New(rl.Capacity, rl.RefillPerSec, rl.IdleTTL)
}

// ProvideStatisticsHandler creates the HTTP API handler.
func ProvideStatisticsHandler(
	l *applogger.Logger,
	engine *usecase.StatisticsEngine,
	ratings *usecase.RatingService,
	store *internalrepo.SQLStore,
	q *queue.RedisQueue,
	limiter *ratelimit.Limiter,
) *api.StatisticsEchoHandler {
	h := api.NewStatisticsEchoHandler(l, engine, ratings, store)
	if q != nil {
		h.SetQueue(q)
	}
	h.SetLimiter(limiter)
	return h
}

// ProvideHTTPServer creates the Echo server with health checks for every
// enabled backend.
func ProvideHTTPServer(
	cfg *config.Config,
	l *applogger.Logger,
	h *api.StatisticsEchoHandler,
	sqlClient *sqldb.Client,
	c cache.Service,
	ch *pkgch.Client,
) *xhttp.Server {
	opts := []xhttp.ServerOption{
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout),
		xhttp.WithMetrics(cfg.Metrics.Enabled),
		xhttp.WithLogger(l),
		xhttp.WithSlowThreshold(cfg.Metrics.SlowThreshold),
		xhttp.WithHealthCheck("database", sqlClient.Health),
		xhttp.WithHealthCheck("cache", func(ctx context.Context) error {
			_, err := c.Exists(ctx, "health")
			return err
		}),
	}
	if ch != nil {
		opts = append(opts, xhttp.WithHealthCheck("clickhouse", ch.Health))
	}
	return xhttp.NewServer([]xhttp.Handler{h}, opts...)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	srv *xhttp.Server,
	consumer *pkgkafka.Consumer,
	mfh *usecase.MatchFinishedHandler,
	q *queue.RedisQueue,
	events domrepo.EventPublisher,
	history domrepo.RatingHistory,
	c cache.Service,
	sqlClient *sqldb.Client,
) *server.App {
	opts := []server.Option{
		server.WithShutdownTimeout(cfg.Server.ShutdownTimeout),
		server.WithClosers(
			server.Closer{Name: "events", Close: events.Close},
			server.Closer{Name: "history", Close: history.Close},
			server.Closer{Name: "cache", Close: c.Close},
			server.Closer{Name: "database", Close: sqlClient.Close},
		),
	}
	if consumer != nil {
		opts = append(opts, server.WithConsumer(consumer, mfh))
	}
	if q != nil {
		opts = append(opts, server.WithQueue(q))
	}
	return server.New(l, srv, opts...)
}
