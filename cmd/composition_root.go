package cmd

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	httpadapter "labtrack/internal/adapters/in/http"
	"labtrack/internal/adapters/out/notifiers"
	"labtrack/internal/adapters/out/postgres"
	"labtrack/internal/adapters/out/postgres/clientrepo"
	"labtrack/internal/adapters/out/postgres/orderrepo"
	"labtrack/internal/core/application/usecases/commands"
	"labtrack/internal/core/application/usecases/queries"
	"labtrack/internal/core/domain/services"
	"labtrack/internal/core/ports"
	"labtrack/internal/jobs"
	"labtrack/internal/pkg/metrics"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	pgdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type CompositionRoot struct {
	cfg        Config
	gormDB     *gorm.DB
	uowFactory *postgres.GormUnitOfWorkFactory
	clients    *clientrepo.GormClientRepository
	dispatcher services.NotificationDispatcher
	collectors *metrics.Collectors
	logger     *zap.Logger
}

func NewCompositionRoot(
	cfg Config,
	gormDB *gorm.DB,
	pushNotifier ports.PushNotifier,
	collectors *metrics.Collectors,
	logger *zap.Logger,
) CompositionRoot {
	dispatcher := services.NewNotificationDispatcher(
		notifiers.NewHTTPNotifier(cfg.NotificationAttemptTimeout(), cfg.NotificationRetries, logger),
		pushNotifier,
		collectors,
		logger,
		services.WithTimeout(cfg.NotificationTimeout),
		services.WithConcurrency(cfg.NotificationConcurrency),
	)

	return CompositionRoot{
		cfg:        cfg,
		gormDB:     gormDB,
		uowFactory: postgres.NewGormUnitOfWorkFactory(gormDB, cfg.ScanPageSize),
		clients:    clientrepo.NewGormClientRepository(gormDB),
		dispatcher: dispatcher,
		collectors: collectors,
		logger:     logger,
	}
}

func (c *CompositionRoot) orderUoWFactory() commands.OrderUoWFactory {
	return FuncOrderUoWFactory(func() commands.OrderUoW {
		return c.uowFactory.Create()
	})
}

func (c *CompositionRoot) orderRepository() *orderrepo.GormOrderRepository {
	return orderrepo.NewGormOrderRepository(c.gormDB, orderrepo.WithScanPageSize(c.cfg.ScanPageSize))
}

func (c *CompositionRoot) CreateRegisterOrderCommandHandler() commands.RegisterOrderCommandHandler {
	return commands.NewRegisterOrderCommandHandler(c.orderUoWFactory(), systemRandom{}, time.Now, c.logger)
}

func (c *CompositionRoot) CreateUpdateResultCommandHandler() commands.UpdateResultCommandHandler {
	return commands.NewUpdateResultCommandHandler(c.orderUoWFactory(), c.dispatcher, time.Now, c.collectors, c.logger)
}

func (c *CompositionRoot) CreateBulkUpdateResultsCommandHandler() commands.BulkUpdateResultsCommandHandler {
	single := c.CreateUpdateResultCommandHandler()
	return commands.NewBulkUpdateResultsCommandHandler(&single, c.logger)
}

func (c *CompositionRoot) CreateGetOrderResultQueryHandler() queries.GetOrderResultQueryHandler {
	return queries.NewGetOrderResultQueryHandler(c.orderRepository())
}

func (c *CompositionRoot) CreateGenerateReportQueryHandler() queries.GenerateReportQueryHandler {
	return queries.NewGenerateReportQueryHandler(c.clients, c.orderRepository(), c.cfg.MaxScanCalls, c.collectors, c.logger)
}

func (c *CompositionRoot) CreateCountStaleOrdersQueryHandler() queries.CountStaleOrdersQueryHandler {
	return queries.NewCountStaleOrdersQueryHandler(c.orderRepository(), time.Now)
}

func (c *CompositionRoot) CreateServer() *httpadapter.Server {
	register := c.CreateRegisterOrderCommandHandler()
	update := c.CreateUpdateResultCommandHandler()
	bulk := c.CreateBulkUpdateResultsCommandHandler()
	return httpadapter.NewServer(
		&register,
		&update,
		&bulk,
		c.CreateGetOrderResultQueryHandler(),
		c.CreateGenerateReportQueryHandler(),
		c.logger,
	)
}

func (c *CompositionRoot) CreateJobManager() *jobs.JobManager {
	return jobs.NewJobManager(
		c.CreateCountStaleOrdersQueryHandler(),
		c.cfg.StaleOrderThreshold,
		c.cfg.StaleOrderSchedule,
		c.collectors,
		c.logger,
	)
}

type FuncOrderUoWFactory func() commands.OrderUoW

func (f FuncOrderUoWFactory) Create() commands.OrderUoW {
	return f()
}

// systemRandom draws from the runtime's concurrency-safe generator.
type systemRandom struct{}

func (systemRandom) IntN(n int) int { return rand.IntN(n) }

// OpenDatabase connects to postgres with constraint violations translated to
// gorm errors.
func OpenDatabase(cfg Config) (*gorm.DB, error) {
	db, err := gorm.Open(pgdriver.Open(cfg.DSN()), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	return db, nil
}

// NewPushNotifier builds the configured app-push transport. The returned
// function releases its connection.
func NewPushNotifier(ctx context.Context, cfg Config, logger *zap.Logger) (ports.PushNotifier, func(), error) {
	switch cfg.PushTransport {
	case PushTransportRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("connect to redis: %w", err)
		}
		closeFn := func() {
			if err := client.Close(); err != nil {
				logger.Warn("Failed to close redis client", zap.Error(err))
			}
		}
		return notifiers.NewRedisPushNotifier(client, cfg.RedisPushStream, cfg.RedisStreamMaxLen, logger), closeFn, nil

	case PushTransportMQTT:
		client, err := notifiers.NewMQTTClient(cfg.MQTTBroker, cfg.MQTTClientID, cfg.MQTTUsername, cfg.MQTTPassword)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to mqtt: %w", err)
		}
		return notifiers.NewMQTTPushNotifier(client, cfg.MQTTPushTopic, logger), func() { client.Disconnect(250) }, nil

	default:
		return notifiers.NewLogPushNotifier(logger), func() {}, nil
	}
}
