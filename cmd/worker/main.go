package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/pubsub"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	subscriberactor "github.com/1345AbhishekKumar/AI-Study-buddy-sub000/internal/actors/pubsub/subscriber"
	smtpactor "github.com/1345AbhishekKumar/AI-Study-buddy-sub000/internal/actors/smtp"
	"github.com/1345AbhishekKumar/AI-Study-buddy-sub000/internal/config"
	"github.com/1345AbhishekKumar/AI-Study-buddy-sub000/internal/core/usecase"
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

	client, err := pubsub.NewClient(ctx, cfg.PubsubProjectID)
	if err != nil {
		return err
	}
	defer client.Close()

	var senderOpts []smtpactor.SenderOptArgs
	if cfg.SMTPUsername != "" {
		senderOpts = append(senderOpts, smtpactor.WithPlainAuth(cfg.SMTPUsername, cfg.SMTPPassword))
	}
	sender, err := smtpactor.NewSender(smtpactor.SenderArgs{
		Addr: cfg.SMTPAddr,
		From: cfg.SMTPFrom,
	}, senderOpts...)
	if err != nil {
		return err
	}

	deliverer := usecase.NewDeliverer(sender)

	subscription := client.Subscription(cfg.EmailSubscriptionID)
	subscriber := subscriberactor.NewSubscriber(subscriberactor.SubscriberArgs{
		EmailTaskHandler: deliverer,
		Subscription:     subscription,
	})

	// start subscriber
	go func(ctx context.Context) {
		if err := subscriber.Consume(ctx); err != nil {
			panic(err)
		}
	}(ctx)

	router := gin.New()
	router.Use(gin.Recovery())
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "Ok"})
	})

	server := &http.Server{Addr: cfg.WorkerHTTPAddr, Handler: router}
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			panic(err)
		}
	}()

	log.
		WithField("http-server-addr", cfg.WorkerHTTPAddr).
		WithField("subscription", cfg.EmailSubscriptionID).
		Info("worker up or soon to be up. listening to SIGTERM, SIGINT, SIGQUIT for stopping the worker")

	// Wait for signal
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)
	<-ch

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	return server.Shutdown(shutdownCtx)
}

func main() {
	if err := run(); err != nil {
		panic(err)
	}
}
