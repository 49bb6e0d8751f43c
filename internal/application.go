package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/rocketscienceinc/gomoku-backend/internal/channel"
	"github.com/rocketscienceinc/gomoku-backend/internal/config"
	"github.com/rocketscienceinc/gomoku-backend/internal/pubsub"
	"github.com/rocketscienceinc/gomoku-backend/internal/repository"
	"github.com/rocketscienceinc/gomoku-backend/internal/repository/storage"
	"github.com/rocketscienceinc/gomoku-backend/internal/usecase"
	"github.com/rocketscienceinc/gomoku-backend/transport/rest"
	"github.com/rocketscienceinc/gomoku-backend/transport/websocket"
)

var ErrAddrNotFound = errors.New("redis address string is empty")

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	redisAddrString := conf.Redis.GetRedisAddr()
	if redisAddrString == "" {
		return ErrAddrNotFound
	}

	redisStorage, err := storage.NewRedisStorage(ctx, redisAddrString)
	if err != nil {
		return fmt.Errorf("could not connect to redis storage: %w", err)
	}

	defer func() {
		if err = redisStorage.Close(); err != nil {
			log.Error("could not close redis storage", "error", err)
		}
	}()

	roomRepo, closeStore, err := openRoomStore(ctx, conf, redisStorage)
	if err != nil {
		return err
	}
	defer closeStore()

	upstream, err := openBroker(conf, redisStorage)
	if err != nil {
		return err
	}

	if upstream != nil {
		defer func() {
			if err = upstream.Close(); err != nil {
				log.Error("could not close broker", "error", err)
			}
		}()
	}

	hub := websocket.NewHub(logger, upstream)
	defer func() {
		if err = hub.Close(); err != nil {
			log.Error("could not close relay hub", "error", err)
		}
	}()

	directory := usecase.NewRoomDirectory(
		logger,
		roomRepo,
		channel.NewLobby(logger, hub),
		usecase.WithCodeAttempts(conf.Room.CodeAttempts),
	)
	presenceRepo := repository.NewPresenceRepository(redisStorage.Connection)

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		log.Info("Starting HTTP server", "port", conf.HTTPPort)
		if httpErr := rest.New(logger, directory, presenceRepo).Start(ctx, conf.HTTPPort); httpErr != nil {
			return fmt.Errorf("HTTP server error: %w", httpErr)
		}
		return nil
	})

	group.Go(func() error {
		log.Info("Starting WebSocket server", "port", conf.SocketPort, "broker", conf.Broker.Driver)
		if wsErr := websocket.New(logger, hub).Start(ctx, conf.SocketPort); wsErr != nil {
			return fmt.Errorf("WebSocket server error: %w", wsErr)
		}
		return nil
	})

	if err = group.Wait(); err != nil {
		return err
	}

	log.Info("Application context canceled, shutting down")

	return nil
}

func openRoomStore(
	ctx context.Context,
	conf *config.Config,
	redisStorage *storage.RedisStorage,
) (repository.RoomRepository, func(), error) {
	if conf.Store.Driver != config.StorePostgres {
		return repository.NewRoomRepository(redisStorage.Connection), func() {}, nil
	}

	pgStorage, err := storage.NewPostgresStorage(ctx, conf.Postgres.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("could not connect to postgres storage: %w", err)
	}

	if err = pgStorage.Init(ctx); err != nil {
		pgStorage.Close()
		return nil, nil, fmt.Errorf("could not init postgres storage: %w", err)
	}

	return repository.NewPostgresRoomRepository(pgStorage.Connection), pgStorage.Close, nil
}

// openBroker - returns the bus relays share; nil keeps the relay local to this process.
func openBroker(conf *config.Config, redisStorage *storage.RedisStorage) (pubsub.Bus, error) {
	switch conf.Broker.Driver {
	case config.BrokerRedis:
		return pubsub.NewRedis(redisStorage.Connection), nil
	case config.BrokerNATS:
		bus, err := pubsub.DialNATS(conf.NATS.URL)
		if err != nil {
			return nil, fmt.Errorf("could not connect to nats: %w", err)
		}
		return bus, nil
	default:
		return nil, nil
	}
}
