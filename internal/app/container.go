package app

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/dig"

	"service-dispatch/internal/config"
	ordersgw "service-dispatch/internal/gateway/orders"
	"service-dispatch/internal/http/handlers"
	"service-dispatch/internal/http/middleware"
	"service-dispatch/internal/http/middleware/ratelimit"
	"service-dispatch/internal/http/pprofserver"
	"service-dispatch/internal/http/router"
	"service-dispatch/internal/logx"
	"service-dispatch/internal/metrics"
	"service-dispatch/internal/repository"
	"service-dispatch/internal/service/agent"
	"service-dispatch/internal/service/dispatch"
	"service-dispatch/internal/service/orders"
	"service-dispatch/internal/transport/kafka"
)

// ContainerBuilder is a dig container builder.
type ContainerBuilder struct {
	dbConnect func(context.Context, string, int, time.Duration) (*pgxpool.Pool, error)
	logFatalf func(string, ...interface{})
	worker    bool
}

// NewContainerBuilder returns a builder for the HTTP server container.
func NewContainerBuilder() *ContainerBuilder {
	return &ContainerBuilder{
		dbConnect: connectDbWithRetry,
		logFatalf: log.Fatalf,
	}
}

// NewWorkerContainerBuilder returns a builder for the Kafka worker container.
func NewWorkerContainerBuilder() *ContainerBuilder {
	b := NewContainerBuilder()
	b.worker = true
	return b
}

// WithDBConnect sets the database connection function.
func (b *ContainerBuilder) WithDBConnect(
	fn func(context.Context, string, int, time.Duration) (*pgxpool.Pool, error),
) *ContainerBuilder {
	if fn != nil {
		b.dbConnect = fn
	}
	return b
}

// WithLogFatalf sets the log.Fatalf function.
func (b *ContainerBuilder) WithLogFatalf(fn func(string, ...interface{})) *ContainerBuilder {
	if fn != nil {
		b.logFatalf = fn
	}
	return b
}

// MustBuild builds and returns a new dig container.
func (b *ContainerBuilder) MustBuild(ctx context.Context) *dig.Container {
	container, err := b.build(ctx)
	if err != nil {
		b.logFatalf("failed to build container: %v", err)
	}
	return container
}

func (b *ContainerBuilder) build(ctx context.Context) (*dig.Container, error) {
	container := dig.New()

	if err := registerCore(container, ctx); err != nil {
		return nil, fmt.Errorf("core: %w", err)
	}
	if err := registerDb(container, b.dbConnect); err != nil {
		return nil, fmt.Errorf("DB: %w", err)
	}
	if err := registerService(container); err != nil {
		return nil, fmt.Errorf("service: %w", err)
	}
	if b.worker {
		if err := registerKafka(container); err != nil {
			return nil, fmt.Errorf("kafka: %w", err)
		}
		return container, nil
	}
	if err := registerHTTP(container); err != nil {
		return nil, fmt.Errorf("http: %w", err)
	}
	return container, nil
}

// MustBuildContainer builds the HTTP server container.
func MustBuildContainer(ctx context.Context) *dig.Container {
	return NewContainerBuilder().MustBuild(ctx)
}

// MustBuildWorkerContainer builds the Kafka worker container.
func MustBuildWorkerContainer(ctx context.Context) *dig.Container {
	return NewWorkerContainerBuilder().MustBuild(ctx)
}

func provideAll(container *dig.Container, providers ...any) error {
	for _, provider := range providers {
		if err := container.Provide(provider); err != nil {
			return fmt.Errorf("provide %T: %w", provider, err)
		}
	}
	return nil
}

type countersOut struct {
	dig.Out

	RateLimitExceeded prometheus.Counter `name:"rate_limit_exceeded_total"`
	GatewayRetries    prometheus.Counter `name:"gateway_retries_total"`
}

func newCounters() countersOut {
	rl := metrics.NewRateLimitExceededTotal()
	gw := metrics.NewGatewayRetriesTotal()
	prometheus.MustRegister(rl, gw)
	return countersOut{RateLimitExceeded: rl, GatewayRetries: gw}
}

func newAssignmentsTotal() *prometheus.CounterVec {
	vec := metrics.NewAssignmentsTotal()
	prometheus.MustRegister(vec)
	return vec
}

func registerCore(container *dig.Container, ctx context.Context) error {
	return provideAll(container,
		func() context.Context { return ctx },
		func() *log.Logger { return log.Default() },
		NewLogger,
		config.Load,
		newCounters,
		newAssignmentsTotal,
	)
}

func registerDb(
	container *dig.Container,
	dbConnect func(context.Context, string, int, time.Duration) (*pgxpool.Pool, error),
) error {
	providerDB := func(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
		return dbConnect(ctx, cfg.DB.DSN(), 10, time.Second)
	}
	return provideAll(container, providerDB)
}

type checkoutGatewayIn struct {
	dig.In

	Cfg     *config.Config
	Logger  logx.Logger
	Retries prometheus.Counter `name:"gateway_retries_total"`
}

// newCheckoutGateway builds the retrying checkout client. Returns nil when
// no base URL is configured.
func newCheckoutGateway(in checkoutGatewayIn) *ordersgw.RetryingGateway {
	base := ordersgw.NewHTTPGateway(in.Cfg.Checkout.BaseURL, nil)
	if base == nil {
		return nil
	}
	return ordersgw.NewRetryingGateway(base, in.Logger, in.Retries, ordersgw.RetryConfig{
		MaxAttempts: in.Cfg.Checkout.MaxAttempts,
		BaseDelay:   in.Cfg.Checkout.BaseDelay,
		MaxDelay:    in.Cfg.Checkout.MaxDelay,
	})
}

func registerService(container *dig.Container) error {
	return provideAll(container,
		repository.NewAgentRepo,
		repository.NewOrderRepo,
		repository.NewAssignmentRepo,
		newCheckoutGateway,
		func(cfg *config.Config) time.Duration { return cfg.Dispatch.OperationTimeout },
		func(repo *repository.AgentRepo, timeout time.Duration) *agent.Service {
			return agent.NewService(repo, timeout)
		},
		func(
			cfg *config.Config,
			repo *repository.AssignmentRepo,
			ordersRepo *repository.OrderRepo,
			gw *ordersgw.RetryingGateway,
			vec *prometheus.CounterVec,
			timeout time.Duration,
			logger logx.Logger,
		) *dispatch.Engine {
			if gw == nil {
				return dispatch.NewEngine(repo, repo, ordersRepo, nil, vec, timeout, logger).
					WithPoolPageSize(cfg.Dispatch.PoolPageSize)
			}
			return dispatch.NewEngine(repo, repo, ordersRepo, gw, vec, timeout, logger).
				WithPoolPageSize(cfg.Dispatch.PoolPageSize)
		},
		func(e *dispatch.Engine, ordersRepo *repository.OrderRepo) *orders.Processor {
			return orders.NewProcessor(e, ordersRepo)
		},
	)
}

func registerKafka(container *dig.Container) error {
	return provideAll(container,
		func(p *orders.Processor, gw *ordersgw.RetryingGateway) kafka.HandleFunc {
			// a nil *RetryingGateway in a non-nil interface would defeat the
			// gw == nil check inside the handler
			if gw == nil {
				return makeOrdersKafka(p, nil)
			}
			return makeOrdersKafka(p, gw)
		},
		func(cfg *config.Config, logger logx.Logger, h kafka.HandleFunc) (*kafka.Consumer, error) {
			return kafka.NewConsumer(logger, cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.Topic, h)
		},
	)
}

func registerHTTP(container *dig.Container) error {
	serverProvider := func(cfg *config.Config, mux http.Handler) *http.Server {
		return &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      15 * time.Second,
			IdleTimeout:       60 * time.Second,
		}
	}
	middlewaresProvider := func(logger logx.Logger, rl *ratelimit.Middleware) router.Middlewares {
		return router.Middlewares{
			middleware.Observability(logger),
			rl.Handler(),
		}
	}
	debugProvider := func(cfg *config.Config) router.Debug {
		return pprofserver.Handler(pprofserver.Config{
			User: cfg.Pprof.User,
			Pass: cfg.Pprof.Pass,
		})
	}
	return provideAll(container,
		newRateLimitClock,
		newRateLimiter,
		newRateLimitMiddleware,
		handlers.New,
		handlers.NewAgentUsecase,
		handlers.NewAgentHandler,
		handlers.NewDispatchUsecase,
		handlers.NewAssignmentHandler,
		handlers.NewOrdersHandler,
		middlewaresProvider,
		debugProvider,
		router.New,
		serverProvider,
	)
}
