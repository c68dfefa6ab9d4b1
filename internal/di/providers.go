package di

import (
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MetaStark/vision-IoS-sub013/internal/domain/repository"
	domsvc "github.com/MetaStark/vision-IoS-sub013/internal/domain/service"
	"github.com/MetaStark/vision-IoS-sub013/internal/handler/api"
	mid "github.com/MetaStark/vision-IoS-sub013/internal/middleware"
	internalrepo "github.com/MetaStark/vision-IoS-sub013/internal/repository"
	icache "github.com/MetaStark/vision-IoS-sub013/internal/service/cache"
	"github.com/MetaStark/vision-IoS-sub013/internal/services/mapping"
	"github.com/MetaStark/vision-IoS-sub013/internal/services/signer"
	"github.com/MetaStark/vision-IoS-sub013/internal/services/upstream"
	"github.com/MetaStark/vision-IoS-sub013/internal/services/verify"
	"github.com/MetaStark/vision-IoS-sub013/internal/usecase"
	pkgch "github.com/MetaStark/vision-IoS-sub013/pkg/clickhouse"
	"github.com/MetaStark/vision-IoS-sub013/pkg/config"
	xhttp "github.com/MetaStark/vision-IoS-sub013/pkg/http"
	pkgkafka "github.com/MetaStark/vision-IoS-sub013/pkg/kafka"
	applogger "github.com/MetaStark/vision-IoS-sub013/pkg/logger"
	"github.com/MetaStark/vision-IoS-sub013/pkg/metrics"
	"github.com/MetaStark/vision-IoS-sub013/pkg/queue"
	"github.com/MetaStark/vision-IoS-sub013/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	level := "info"
	format := "json"
	if cfg.Environment == "development" {
		level = "debug"
		format = "console"
	}
	l, err := applogger.New(&applogger.Config{Level: level, Format: format, Output: "stdout"})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideClickHouseClient creates a ClickHouse client.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvideKafkaProducer creates a Kafka producer.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.BatchTimeout),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideRedisClient creates a Redis client, or nil when Redis is disabled.
func ProvideRedisClient(cfg *config.Config) *redis.Client {
	if !cfg.Redis.Enabled {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideVectorStore creates the ClickHouse vector history.
func ProvideVectorStore(chClient *pkgch.Client, l *applogger.Logger) repository.VectorStore {
	store := internalrepo.NewCHVectorStore(chClient)
	store.SetLogger(l)
	return store
}

// ProvideRegistry creates the mapping version registry.
func ProvideRegistry(cfg *config.Config) (*mapping.Registry, error) {
	active := cfg.Synthesis.MappingVersion
	if active == "" {
		active = mapping.VersionV1_1
	}
	return mapping.NewRegistry(active)
}

// ProvideSnapshotProvider creates the indicator snapshot client.
func ProvideSnapshotProvider(cfg *config.Config) domsvc.SnapshotProvider {
	return upstream.NewHTTPSnapshotProvider(cfg.Indicators.URL, cfg.Indicators.Timeout)
}

// ProvideSafetyProvider creates the safety level client.
func ProvideSafetyProvider(cfg *config.Config) domsvc.SafetyProvider {
	return upstream.NewHTTPSafetyProvider(cfg.Safety.URL, cfg.Safety.Timeout)
}

// ProvideSigner creates the external signing client.
func ProvideSigner(cfg *config.Config) domsvc.Signer {
	return signer.NewHTTPSigner(cfg.Signer.URL, cfg.Signer.Timeout)
}

// ProvideAssembler creates the verification assembler.
func ProvideAssembler(s domsvc.Signer, cfg *config.Config) *verify.Assembler {
	return verify.NewAssembler(s, cfg.Signer.Timeout)
}

// ProvidePublishPipeline puts the buffered pipeline in front of Kafka.
func ProvidePublishPipeline(producer *pkgkafka.Producer, m repository.Metrics, cfg *config.Config) *mid.PublishPipeline {
	pub := internalrepo.NewKafkaPublisher(producer, cfg.Kafka.Topic)
	return mid.NewPublishPipeline(pub, m, mid.WithBufferSize(2000))
}

// ProvideVectorCache creates the latest-vector cache.
func ProvideVectorCache(cfg *config.Config, rdb *redis.Client) *icache.VectorCache {
	ttl := cfg.Synthesis.CacheTTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return icache.NewVectorCache(ttl, rdb)
}

// ProvideSynthesizer creates the synthesis use case.
func ProvideSynthesizer(
	snapshots domsvc.SnapshotProvider,
	safety domsvc.SafetyProvider,
	registry *mapping.Registry,
	assembler *verify.Assembler,
	store repository.VectorStore,
	pipeline *mid.PublishPipeline,
	m repository.Metrics,
	l *applogger.Logger,
	cache *icache.VectorCache,
) *usecase.Synthesizer {
	synth := usecase.NewSynthesizer(snapshots, safety, registry, assembler, store, pipeline, m, l)
	synth.SetCache(cache)
	return synth
}

// ProvideAuditQueue creates the Redis replay-audit queue, or nil without Redis.
func ProvideAuditQueue(
	l *applogger.Logger,
	rdb *redis.Client,
	synth *usecase.Synthesizer,
	cfg *config.Config,
) *queue.RedisQueue {
	if rdb == nil {
		return nil
	}
	workers := cfg.Synthesis.AuditWorkers
	if workers <= 0 {
		workers = 2
	}
	q := queue.NewRedisQueue(l, &queue.Config{
		Workers:    workers,
		RetryLimit: 3,
		RetryDelay: 5 * time.Second,
	}, rdb)
	q.RegisterJob(usecase.NewAuditWorker(synth, l))
	return q
}

// ProvideScheduler creates the per-asset synthesis scheduler.
func ProvideScheduler(
	synth *usecase.Synthesizer,
	cfg *config.Config,
	l *applogger.Logger,
	auditQueue *queue.RedisQueue,
) *usecase.Scheduler {
	s := usecase.NewScheduler(synth, cfg.Synthesis.Assets, cfg.Synthesis.Interval, l)
	if auditQueue != nil && cfg.Synthesis.AuditEvery > 0 {
		s.SetAuditSampling(auditQueue, cfg.Synthesis.AuditEvery)
	}
	return s
}

// ProvideHTTPHandler creates the state API handler.
func ProvideHTTPHandler(
	l *applogger.Logger,
	synth *usecase.Synthesizer,
	store repository.VectorStore,
	cache *icache.VectorCache,
	registry *mapping.Registry,
	pipeline *mid.PublishPipeline,
) xhttp.Handler {
	return api.NewStateEchoHandler(l, synth, store, cache, registry, pipeline)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	scheduler *usecase.Scheduler,
	pipeline *mid.PublishPipeline,
	store repository.VectorStore,
	chClient *pkgch.Client,
	handler xhttp.Handler,
	auditQueue *queue.RedisQueue,
) *server.App {
	app := server.New(cfg, l, scheduler, pipeline, store, chClient, handler)
	if auditQueue != nil {
		app.SetAuditQueue(auditQueue)
	}
	return app
}
