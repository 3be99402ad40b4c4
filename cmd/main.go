package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/SergeyBogomolovv/lafete-order-service/internal/app"
	"github.com/SergeyBogomolovv/lafete-order-service/internal/config"
	"github.com/SergeyBogomolovv/lafete-order-service/internal/delivery"
	"github.com/SergeyBogomolovv/lafete-order-service/internal/entities"
	"github.com/SergeyBogomolovv/lafete-order-service/internal/handler"
	"github.com/SergeyBogomolovv/lafete-order-service/internal/payment"
	"github.com/SergeyBogomolovv/lafete-order-service/internal/postgres"
	"github.com/SergeyBogomolovv/lafete-order-service/internal/repo"
	"github.com/SergeyBogomolovv/lafete-order-service/internal/service"
	"github.com/SergeyBogomolovv/lafete-order-service/pkg/cache"
	"github.com/SergeyBogomolovv/lafete-order-service/pkg/idempotency"
	"github.com/SergeyBogomolovv/lafete-order-service/pkg/outbox"
	"github.com/SergeyBogomolovv/lafete-order-service/pkg/trm"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
)

//go:generate swag init -g main.go -d ./,../internal/handler,../pkg/utils -o ../docs

// @title           La Fête Order Service API
// @version         1.0
// @description     Оформление заказов кондитерской: корзина, окна доставки, оплата, курьерская доставка
// @BasePath        /
func main() {
	conf := config.New()
	logger := newLogger(conf.Env)
	panicIfErr("invalid config", conf.Validate())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	db, err := postgres.New(ctx, conf.Postgres)
	panicIfErr("failed to connect to db", err)
	defer db.Close()
	logger.Info("postgres connected")

	if conf.Postgres.AutoMigrate {
		panicIfErr("failed to migrate db", postgres.Migrate(ctx, db))
		logger.Info("migrations applied")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     conf.Redis.Addr,
		Password: conf.Redis.Password,
		DB:       conf.Redis.DB,
	})
	defer rdb.Close()
	panicIfErr("failed to connect to redis", rdb.Ping(ctx).Err())
	logger.Info("redis connected")

	store := repo.NewPostgresRepo(db)
	txManager := trm.NewManager(db)
	orderCache := cache.NewLRUCache[string, entities.Order](conf.Cache.Capacity, conf.Cache.TTL)
	idem := idempotency.NewStore(rdb, conf.Redis.IdempotencyTTL)

	borzo := delivery.NewBorzoClient(conf.Borzo, conf.Store)
	razorpay := payment.NewRazorpayClient(conf.Razorpay)

	orderConfig := service.OrderConfig{
		NumberPrefix:        conf.Orders.NumberPrefix,
		FallbackDeliveryFee: conf.Orders.FallbackDeliveryFee,
		RestockOnCancel:     conf.Orders.RestockOnCancel,
	}

	orderService := service.NewOrderService(logger, txManager, store, store, store, store, orderCache, orderConfig)
	paymentService := service.NewPaymentService(logger, txManager, razorpay, store, orderService)
	placementService := service.NewPlacementService(logger, txManager, service.PlacementDeps{
		Carts:     store,
		Inventory: store,
		Slots:     store,
		Addresses: store,
		Orders:    store,
		Estimator: borzo,
		Payments:  paymentService,
		Events:    store,
	}, orderConfig)
	cartService := service.NewCartService(logger, store, store)
	slotService := service.NewSlotService(logger, store, borzo, conf.Orders.FallbackDeliveryFee, conf.Orders.DefaultSlotCapacity)
	deliveryService := service.NewDeliveryService(logger, txManager, store, store, borzo)

	eventsWriter := &kafka.Writer{
		Addr:         kafka.TCP(conf.Kafka.Brokers...),
		Balancer:     &kafka.Hash{},
		BatchTimeout: conf.Kafka.BatchTimeout,
		RequiredAcks: kafka.RequireAll,
	}
	relay := outbox.NewRelay(logger, store, outbox.NewDispatcher(logger, eventsWriter, conf.Kafka.EventsTopic), outbox.Config{
		Interval:    conf.Outbox.Interval,
		BatchSize:   conf.Outbox.BatchSize,
		MaxAttempts: conf.Outbox.MaxAttempts,
	})

	handler.RegisterMetrics()
	kafkaHandler := handler.NewKafkaHandler(logger, conf.Kafka, orderService, idem)
	httpHandler := handler.NewHTTPHandler(logger, handler.Services{
		Orders:      orderService,
		Placement:   placementService,
		Carts:       cartService,
		Slots:       slotService,
		Payments:    paymentService,
		Delivery:    deliveryService,
		Idempotency: idem,
	})

	app := app.New(logger, conf)

	app.SetHTTPHandlers(httpHandler)
	app.SetConsumers(kafkaHandler)
	app.SetStarters(orderCache, relay, cacheWarmUpAdapter{svc: orderService, count: conf.Cache.Capacity})
	app.OnStop(eventsWriter.Close)

	panicIfErr("failed to start app", app.Start(ctx))
	<-ctx.Done()
	panicIfErr("failed to stop app", app.Stop())
}

func init() {
	godotenv.Load()
}

func newLogger(env string) *slog.Logger {
	switch env {
	case "production":
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}

func panicIfErr(prefix string, err error) {
	if err != nil {
		panic(prefix + ": " + err.Error())
	}
}

type warmUpper interface {
	WarmUpCache(ctx context.Context, count int) error
}

type cacheWarmUpAdapter struct {
	svc   warmUpper
	count int
}

func (a cacheWarmUpAdapter) Start(ctx context.Context) error {
	return a.svc.WarmUpCache(ctx, a.count)
}
