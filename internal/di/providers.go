package di

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"MarketSim/internal/domain/market"
	"MarketSim/internal/domain/models"
	drepo "MarketSim/internal/domain/repository"
	"MarketSim/internal/handler/api"
	"MarketSim/internal/handler/chat"
	mid "MarketSim/internal/middleware"
	internalrepo "MarketSim/internal/repository"
	"MarketSim/internal/service/ratelimit"
	"MarketSim/internal/usecase"
	"MarketSim/pkg/cache"
	pkgch "MarketSim/pkg/clickhouse"
	"MarketSim/pkg/config"
	xhttp "MarketSim/pkg/http"
	pkgkafka "MarketSim/pkg/kafka"
	applogger "MarketSim/pkg/logger"
	"MarketSim/pkg/metrics"
	"MarketSim/pkg/server"
)

const (
	tickTable      = "price_ticks"
	portfolioL1TTL = time.Minute
)

// ProvideLogger builds the application logger from config.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideRegistry returns the registry every collector in the process registers on.
func ProvideRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics(reg *prometheus.Registry) drepo.Metrics {
	return metrics.New(reg)
}

func ProvideIndexes(cfg *config.Config) []models.IndexDefinition {
	return cfg.IndexDefinitions()
}

// ProvidePriceBook seeds the book and attaches the price metrics, which run for every
// sink backend.
func ProvidePriceBook(cfg *config.Config, m drepo.Metrics) *market.PriceBook {
	book := market.NewPriceBook(cfg.Instruments(), market.WithHistorySize(cfg.Market.HistorySize))
	usecase.ObservePriceMetrics(book, m)
	return book
}

func ProvideEventLedger(book *market.PriceBook) *market.EventLedger {
	return market.NewEventLedger(book)
}

// ProvideKafkaProducer creates a Kafka producer when ticks or aggregated logs go to Kafka.
// It returns nil otherwise.
func ProvideKafkaProducer(cfg *config.Config, reg *prometheus.Registry) (*pkgkafka.Producer, error) {
	k := cfg.Sink.Kafka
	if cfg.Sink.Backend != usecase.BackendKafka && (k.LogTopic == "" || len(k.Brokers) == 0) {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(k.Brokers),
		pkgkafka.WithCompression(k.Compression),
		pkgkafka.WithRequiredAcks(k.RequiredAcks),
		pkgkafka.WithBatching(k.BatchSize, k.Linger),
		pkgkafka.WithTimeouts(k.WriteTimeout, k.WriteTimeout),
		pkgkafka.WithMaxAttempts(k.MaxAttempts),
		pkgkafka.WithHashByKey(true),
		pkgkafka.WithAutoCreateTopics(true),
		pkgkafka.WithRegisterer(reg),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideClickHouseClient connects to ClickHouse when it is the tick sink, nil otherwise.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if cfg.Sink.Backend != usecase.BackendClickHouse {
		return nil, nil
	}
	ch := cfg.Sink.ClickHouse
	client, err := pkgch.NewClient(
		pkgch.WithHost(ch.Host),
		pkgch.WithPort(ch.Port),
		pkgch.WithDatabase(ch.Database),
		pkgch.WithCredentials(ch.User, ch.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(ch.UseHTTP),
		pkgch.WithAsyncInsert(ch.AsyncInsert, false),
		pkgch.WithTimeouts(ch.DialTimeout, ch.ReadTimeout, ch.WriteTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvideTickRecorder routes ticks to the configured sink and prepares its schema.
func ProvideTickRecorder(
	cfg *config.Config,
	producer *pkgkafka.Producer,
	chClient *pkgch.Client,
	m drepo.Metrics,
) (*usecase.TickRecorder, error) {
	var (
		pub   drepo.TickPublisher
		store drepo.TickStorage
	)
	switch cfg.Sink.Backend {
	case usecase.BackendKafka:
		pub = internalrepo.NewKafkaTickPublisher(producer, cfg.Sink.Kafka.Topic, cfg.Sink.Kafka.EventTopic)
	case usecase.BackendClickHouse:
		store = internalrepo.NewClickHouseTickStorage(chClient.DB(), cfg.Sink.ClickHouse.Database, tickTable)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := store.Init(ctx); err != nil {
			_ = chClient.Close()
			return nil, fmt.Errorf("clickhouse schema: %w", err)
		}
	}
	return usecase.NewTickRecorder(pub, store, m, cfg.Sink.Backend), nil
}

func ProvidePriceStream(logger *applogger.Logger, book *market.PriceBook) *api.PriceStream {
	s := api.NewPriceStream(logger, book)
	book.Subscribe(s.Observe)
	return s
}

// ProvideTickPipeline buffers every committed tick between the book and the recorder.
func ProvideTickPipeline(
	cfg *config.Config,
	book *market.PriceBook,
	recorder *usecase.TickRecorder,
	m drepo.Metrics,
) *mid.TickPipeline {
	p := mid.NewTickPipeline(recorder, m,
		mid.WithBufferSize(cfg.Sink.BufferSize),
		mid.WithBatchSize(cfg.Sink.BatchSize),
	)
	if recorder.Backend() != usecase.BackendNone {
		book.Subscribe(p.Observe)
	}
	return p
}

// ProvideRedisCache connects to Redis when portfolios live there, nil otherwise.
func ProvideRedisCache(cfg *config.Config) (*cache.RedisCache, error) {
	if cfg.Portfolio.Backend != "redis" {
		return nil, nil
	}
	r := cfg.Portfolio.Redis
	rc, err := cache.NewRedisCache(cache.RedisConfig{
		Host:     r.Host,
		Port:     r.Port,
		Password: r.Password,
		DB:       r.DB,
		Prefix:   r.Prefix,
	})
	if err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}
	return rc, nil
}

// ProvidePortfolioStore selects the portfolio persistence backend.
func ProvidePortfolioStore(cfg *config.Config, rc *cache.RedisCache) (drepo.PortfolioStore, error) {
	switch cfg.Portfolio.Backend {
	case "memory":
		return internalrepo.NewCachePortfolioStore(cache.NewMemoryCache(cache.WithMemoryMaxSize(0))), nil
	case "redis":
		return internalrepo.NewCachePortfolioStore(cache.NewLayeredCache(rc, portfolioL1TTL)), nil
	default:
		s, err := internalrepo.NewFilePortfolioStore(cfg.Portfolio.FilePath)
		if err != nil {
			return nil, fmt.Errorf("portfolio store: %w", err)
		}
		return s, nil
	}
}

func ProvidePortfolioService(
	cfg *config.Config,
	store drepo.PortfolioStore,
	book *market.PriceBook,
	logger *applogger.Logger,
) *usecase.PortfolioService {
	return usecase.NewPortfolioService(store, book, cfg.Portfolio.StartingCash, logger)
}

func ProvideRateLimiter(cfg *config.Config) *ratelimit.Limiter {
	return ratelimit.New(cfg.Commands.RatePerSec, cfg.Commands.Burst)
}

func ProvideCommandRouter(
	cfg *config.Config,
	book *market.PriceBook,
	ledger *market.EventLedger,
	indexes []models.IndexDefinition,
	portfolios *usecase.PortfolioService,
	recorder *usecase.TickRecorder,
	limiter *ratelimit.Limiter,
	m drepo.Metrics,
	logger *applogger.Logger,
) *usecase.CommandRouter {
	return usecase.NewCommandRouter(book, ledger, indexes, cfg.Discord.OperatorID, m, logger,
		usecase.WithPortfolios(portfolios),
		usecase.WithEventRecorder(recorder),
		usecase.WithRateLimiter(limiter),
		usecase.WithPrefix(cfg.Discord.CommandPrefix),
	)
}

func ProvideBot(cfg *config.Config, router *usecase.CommandRouter, logger *applogger.Logger) (*chat.Bot, error) {
	return chat.NewBot(cfg.Discord.Token, router, logger)
}

func ProvideRandomWalker(cfg *config.Config, book *market.PriceBook, m drepo.Metrics, logger *applogger.Logger) *usecase.RandomWalker {
	return usecase.NewRandomWalker(book, m, logger, cfg.Market.TickInterval, cfg.Market.MaxStep)
}

// ProvideReportScheduler broadcasts reports through the chat bot.
func ProvideReportScheduler(
	cfg *config.Config,
	book *market.PriceBook,
	indexes []models.IndexDefinition,
	bot *chat.Bot,
	m drepo.Metrics,
	logger *applogger.Logger,
) *usecase.ReportScheduler {
	return usecase.NewReportScheduler(book, indexes, cfg.ScheduleRules(), bot, cfg.Discord.ChannelID, m, logger,
		usecase.WithDefaultInterval(cfg.Market.Schedule.DefaultMinutes),
	)
}

// ProvideHealthChecks probes whichever external stores are enabled.
func ProvideHealthChecks(chClient *pkgch.Client, rc *cache.RedisCache) map[string]api.HealthCheck {
	checks := make(map[string]api.HealthCheck)
	if chClient != nil {
		checks["clickhouse"] = chClient.Health
	}
	if rc != nil {
		checks["redis"] = rc.Ping
	}
	return checks
}

func ProvideMarketHandler(
	logger *applogger.Logger,
	book *market.PriceBook,
	indexes []models.IndexDefinition,
	scheduler *usecase.ReportScheduler,
	checks map[string]api.HealthCheck,
) *api.MarketEchoHandler {
	return api.NewMarketEchoHandler(logger, book, indexes, scheduler, checks)
}

func ProvideHTTPServer(
	cfg *config.Config,
	logger *applogger.Logger,
	reg *prometheus.Registry,
	handler *api.MarketEchoHandler,
	stream *api.PriceStream,
) *xhttp.Server {
	opts := []xhttp.ServerOption{
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithLogger(logger),
	}
	if cfg.Metrics.Enabled {
		opts = append(opts, xhttp.WithMetrics(reg, reg))
	}
	return xhttp.NewServer([]xhttp.Handler{handler, stream}, opts...)
}

// ProvideApp creates the application server. The Kafka producer, when present, also
// carries aggregated error logs.
func ProvideApp(
	cfg *config.Config,
	logger *applogger.Logger,
	book *market.PriceBook,
	walker *usecase.RandomWalker,
	scheduler *usecase.ReportScheduler,
	pipeline *mid.TickPipeline,
	recorder *usecase.TickRecorder,
	stream *api.PriceStream,
	bot *chat.Bot,
	httpServer *xhttp.Server,
	limiter *ratelimit.Limiter,
	producer *pkgkafka.Producer,
	chClient *pkgch.Client,
	store drepo.PortfolioStore,
) *server.App {
	if producer != nil && cfg.Sink.Kafka.LogTopic != "" {
		logger.AddCollector(&applogger.CollectionConfig{
			Topic:     cfg.Sink.Kafka.LogTopic,
			Publisher: producer,
		})
	}

	closers := []io.Closer{store}
	if chClient != nil {
		closers = append(closers, chClient)
	}
	// The Kafka tick publisher closes the producer itself.
	if producer != nil && recorder.Backend() != usecase.BackendKafka {
		closers = append(closers, producer)
	}

	return server.New(cfg, logger, server.Components{
		Book:      book,
		Walker:    walker,
		Scheduler: scheduler,
		Pipeline:  pipeline,
		Recorder:  recorder,
		Stream:    stream,
		Bot:       bot,
		HTTP:      httpServer,
		Limiter:   limiter,
		Closers:   closers,
	})
}
