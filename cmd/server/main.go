package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-pg/pg/v10"
	"github.com/joho/godotenv"
	goredis "github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	mongoactor "github.com/1345AbhishekKumar/AI-Study-buddy-sub000/internal/actors/mongo"
	"github.com/1345AbhishekKumar/AI-Study-buddy-sub000/internal/actors/postgres"
	produceractor "github.com/1345AbhishekKumar/AI-Study-buddy-sub000/internal/actors/pubsub/producer"
	redisactor "github.com/1345AbhishekKumar/AI-Study-buddy-sub000/internal/actors/redis"
	"github.com/1345AbhishekKumar/AI-Study-buddy-sub000/internal/actors/webhook"
	"github.com/1345AbhishekKumar/AI-Study-buddy-sub000/internal/config"
	"github.com/1345AbhishekKumar/AI-Study-buddy-sub000/internal/core/ports"
	"github.com/1345AbhishekKumar/AI-Study-buddy-sub000/internal/core/usecase"

	"cloud.google.com/go/pubsub"
)

func init() {
	// Log as JSON instead of the default ASCII formatter.
	log.SetFormatter(&log.JSONFormatter{})

	// Output to stdout instead of the default stderr
	log.SetOutput(os.Stdout)

	// Only log the DebugLevel severity or above.
	log.SetLevel(log.DebugLevel)
}

func run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_ = godotenv.Load()
	cfg := config.Load()

	repository, closeRepo, err := buildRepository(ctx, cfg)
	if err != nil {
		log.WithError(err).Error("could not initialize repository")
		return err
	}
	defer closeRepo()

	pubsubClient, err := pubsub.NewClient(ctx, cfg.PubsubProjectID)
	if err != nil {
		log.WithError(err).Error("could not initialize pubsub client")
		return err
	}
	defer pubsubClient.Close()

	notifier, err := produceractor.NewProducer(pubsubClient.Topic(cfg.EmailTopicID))
	if err != nil {
		log.WithError(err).Error("could not initialize email producer")
		return err
	}

	syncSvc := usecase.NewSyncService(usecase.SyncServiceArgs{
		Repository: repository,
		Notifier:   notifier,
	})

	// A missing secret leaves the verifier nil: the handler keeps answering
	// but rejects every delivery with 500 instead of skipping verification.
	var verifier *webhook.Verifier
	if cfg.ClerkWebhookSecret == "" {
		log.Error("CLERK_WEBHOOK_SECRET is not set, webhook endpoint will reject all deliveries")
	} else {
		verifier, err = webhook.NewVerifier(webhook.VerifierArgs{Secret: cfg.ClerkWebhookSecret})
		if err != nil {
			log.WithError(err).Error("could not initialize webhook verifier")
			return err
		}
	}

	var handlerOpts []webhook.HandlerOptArgs
	if cfg.RedisAddr != "" {
		redisClient := goredis.NewClient(&goredis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		defer redisClient.Close()
		replayCache, err := redisactor.NewReplayCache(redisactor.ReplayCacheArgs{Client: redisClient})
		if err != nil {
			log.WithError(err).Error("could not initialize replay cache")
			return err
		}
		handlerOpts = append(handlerOpts, webhook.WithReplayCache(replayCache))
	}

	handler := webhook.NewHandler(webhook.HandlerArgs{
		Verifier: verifier,
		Usecase:  syncSvc,
	}, handlerOpts...)

	router := gin.New()
	router.Use(gin.Recovery())
	handler.Register(router)

	server := &http.Server{Addr: cfg.HTTPAddr, Handler: router}
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			panic(err)
		}
	}()

	log.
		WithField("http-server-addr", cfg.HTTPAddr).
		WithField("storage-backend", cfg.StorageBackend).
		Info("server up or soon to be up. listening to SIGTERM, SIGINT, SIGQUIT for stopping the server")

	// Wait for signal
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)
	<-ch

	// Stop server
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	return server.Shutdown(shutdownCtx)
}

func buildRepository(ctx context.Context, cfg config.Config) (ports.Repository, func(), error) {
	switch cfg.StorageBackend {
	case "mongo":
		clientOptions := options.Client().ApplyURI(cfg.MongoURL)
		db, err := mongodriver.Connect(ctx, clientOptions)
		if err != nil {
			return nil, nil, err
		}
		if err := db.Ping(ctx, nil); err != nil {
			return nil, nil, err
		}
		collection := db.Database("studybuddy").Collection("users")
		mongoActor, err := mongoactor.NewMongoDB(mongoactor.MongoDBArgs{UserCollection: collection})
		if err != nil {
			return nil, nil, err
		}
		if err := mongoActor.EnsureIndexes(ctx); err != nil {
			return nil, nil, err
		}
		return mongoActor, func() { _ = db.Disconnect(ctx) }, nil
	default:
		opts, err := pg.ParseURL(cfg.PostgresURL)
		if err != nil {
			return nil, nil, err
		}
		db := pg.Connect(opts)
		if err := db.Ping(ctx); err != nil {
			return nil, nil, err
		}
		pgActor, err := postgres.NewPostgresDB(postgres.PostgresDBArgs{DB: db})
		if err != nil {
			return nil, nil, err
		}
		return pgActor, func() { _ = db.Close() }, nil
	}
}

func main() {
	if err := run(); err != nil {
		panic(err)
	}
}
