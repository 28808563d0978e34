package main

import (
	"context"

	"github.com/go-zookeeper/zk"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/smiles-unlimited/ufund/internal/pkg/bootstrap"
	"github.com/smiles-unlimited/ufund/internal/pkg/config"
	"github.com/smiles-unlimited/ufund/internal/pkg/logger"
	"github.com/smiles-unlimited/ufund/internal/pkg/mq"
	basketapp "github.com/smiles-unlimited/ufund/internal/service/basket/application"
	basketdomain "github.com/smiles-unlimited/ufund/internal/service/basket/domain"
	basketinfra "github.com/smiles-unlimited/ufund/internal/service/basket/infrastructure"
	"github.com/smiles-unlimited/ufund/internal/service/basket/infrastructure/adapter"
	basketiface "github.com/smiles-unlimited/ufund/internal/service/basket/interfaces"
	basketport "github.com/smiles-unlimited/ufund/internal/service/basket/port"
	catalogapp "github.com/smiles-unlimited/ufund/internal/service/catalog/application"
	catalogdomain "github.com/smiles-unlimited/ufund/internal/service/catalog/domain"
	cataloginfra "github.com/smiles-unlimited/ufund/internal/service/catalog/infrastructure"
	catalogiface "github.com/smiles-unlimited/ufund/internal/service/catalog/interfaces"
	userapp "github.com/smiles-unlimited/ufund/internal/service/user/application"
	userdomain "github.com/smiles-unlimited/ufund/internal/service/user/domain"
	userinfra "github.com/smiles-unlimited/ufund/internal/service/user/infrastructure"
	useriface "github.com/smiles-unlimited/ufund/internal/service/user/interfaces"
)

const serviceName = "ufund-server"

func main() {
	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName:      serviceName,
		RegisterHandlers: registerHandlers,
	})
}

func registerHandlers(appCtx bootstrap.AppCtx) func() {
	cfg := appCtx.Cfg
	tracer := otel.Tracer(serviceName)
	var closers []func()

	toyRepo, basketRepo, userRepo := buildRepositories(cfg)

	locker, lockerClose := buildLocker(cfg)
	if lockerClose != nil {
		closers = append(closers, lockerClose)
	}

	var notifier basketport.ReceiptNotifier
	if len(cfg.Infra.Kafka.Brokers) > 0 {
		writer := mq.NewKafkaWriter(cfg.Infra.Kafka.Brokers, cfg.Infra.Kafka.ReceiptTopic)
		kafkaNotifier := adapter.NewReceiptKafkaAdapter(writer)
		notifier = kafkaNotifier
		closers = append(closers, func() { _ = kafkaNotifier.Close() })
	} else {
		logger.Ctx(context.Background()).Warn().Msg("kafka brokers not configured, checkout receipts disabled")
	}

	basketService := basketapp.NewBasketService(basketRepo, toyRepo, tracer)
	reconciler := basketapp.NewStockReconciler(toyRepo, locker, tracer)
	checkout := basketapp.NewCheckoutOrchestrator(basketRepo, reconciler, notifier, tracer, cfg.Checkout.LineTimeout)
	catalogService := catalogapp.NewCatalogService(toyRepo, basketService, tracer)
	userService := userapp.NewUserService(userRepo, basketService, tracer)

	catalogiface.NewCatalogHandler(catalogService).RegisterRoutes(appCtx.Mux)
	basketiface.NewBasketHandler(basketService, checkout).RegisterRoutes(appCtx.Mux)
	useriface.NewUserHandler(userService).RegisterRoutes(appCtx.Mux)

	return func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
}

// buildRepositories picks MySQL when a DSN is configured and falls back to
// the in-memory stores otherwise, so the server runs with zero infrastructure
// in development.
func buildRepositories(cfg *config.Config) (catalogdomain.Repository, basketdomain.Repository, userdomain.Repository) {
	if cfg.Infra.MySQL.DSN == "" {
		logger.Ctx(context.Background()).Info().Msg("mysql dsn not configured, using in-memory stores")
		return cataloginfra.NewMemoryToyRepository(),
			basketinfra.NewMemoryBasketRepository(),
			userinfra.NewMemoryUserRepository()
	}

	db, err := gorm.Open(gormmysql.Open(cfg.Infra.MySQL.DSN), &gorm.Config{})
	if err != nil {
		logger.Ctx(context.Background()).Fatal().Err(err).Msg("failed to connect to mysql")
	}
	if err := db.AutoMigrate(
		&cataloginfra.ToyModel{},
		&basketinfra.BasketModel{},
		&basketinfra.BasketLineModel{},
		&userinfra.UserModel{},
		&userinfra.ApplicationModel{},
	); err != nil {
		logger.Ctx(context.Background()).Fatal().Err(err).Msg("failed to migrate schema")
	}
	return cataloginfra.NewGormToyRepository(db),
		basketinfra.NewGormBasketRepository(db),
		userinfra.NewGormUserRepository(db)
}

// buildLocker selects the per-toy serialization backend. The local locker is
// correct for a single process; redis and zookeeper extend the guarantee
// across replicas.
func buildLocker(cfg *config.Config) (basketport.StockLocker, func()) {
	switch cfg.Checkout.Locker {
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.Infra.Redis.Addr})
		return basketinfra.NewRedisStockLocker(client, cfg.Checkout.LockTTL), func() { _ = client.Close() }
	case "zookeeper":
		conn, _, err := zk.Connect(cfg.Infra.Zookeeper.Servers, cfg.Checkout.LockTTL)
		if err != nil {
			logger.Ctx(context.Background()).Fatal().Err(err).Msg("failed to connect to zookeeper")
		}
		return basketinfra.NewZkStockLocker(conn), conn.Close
	default:
		return basketinfra.NewLocalStockLocker(), nil
	}
}
