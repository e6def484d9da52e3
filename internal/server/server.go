package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/OFFIS-RIT/niemgraph/internal/config"
	"github.com/OFFIS-RIT/niemgraph/internal/queue"
	mid "github.com/OFFIS-RIT/niemgraph/internal/server/middleware"
	"github.com/OFFIS-RIT/niemgraph/internal/storage"
	"github.com/OFFIS-RIT/niemgraph/pkg/graph"
	"github.com/OFFIS-RIT/niemgraph/pkg/logger"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/go-playground/validator"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i any) error {
	if err := cv.validator.Struct(i); err != nil {
		return err
	}
	return nil
}

// New builds the echo instance serving app.
func New(app *mid.App, bodyLimit string) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = &CustomValidator{validator: validator.New()}

	e.Use(mid.AppContextMiddleware(app))
	e.Use(middleware.CORS())
	e.Use(middleware.RequestLogger())
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit(bodyLimit))

	RegisterRoutes(e)
	return e
}

// Init wires the API from the environment and serves until SIGINT or
// SIGTERM.
func Init(cfg *config.Config) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var s3Client *s3.Client
	if cfg.MappingStore == config.MappingStoreS3 {
		client, err := storage.NewS3ClientFromConfig(ctx, cfg.S3)
		if err != nil {
			logger.Fatal("Failed to create S3 client", "err", err)
		}
		s3Client = client
	}
	var objects storage.ObjectAPI
	if s3Client != nil {
		objects = s3Client
	}
	store, err := storage.NewMappingStore(cfg, objects)
	if err != nil {
		logger.Fatal("Failed to create mapping store", "err", err)
	}

	params, err := cfg.GraphClientParams()
	if err != nil {
		logger.Fatal("Invalid converter settings", "err", err)
	}
	graphClient, err := graph.NewGraphClient(params)
	if err != nil {
		logger.Fatal("Failed to create graph client", "err", err)
	}

	app := &mid.App{
		Store:        store,
		Graph:        graphClient,
		Compile:      cfg.CompileOptions(),
		ConvertQueue: cfg.Queue.ConvertQueue,
		MasterAPIKey: cfg.Server.MasterAPIKey,
	}

	if cfg.Server.AuthURL != "" {
		jwksURL := strings.TrimSuffix(cfg.Server.AuthURL, "/") + "/jwks"
		k, err := keyfunc.NewDefault([]string{jwksURL})
		if err != nil {
			logger.Fatal("Failed to load jwks keys", "err", err)
		}
		app.Keyfunc = k.Keyfunc
	}

	if cfg.Queue.Host != "" {
		que, err := queue.Init(cfg.Queue)
		if err != nil {
			logger.Fatal("Failed to connect to RabbitMQ", "err", err)
		}
		defer que.Close()
		ch, err := que.Channel()
		if err != nil {
			logger.Fatal("Failed to open channel", "err", err)
		}
		defer ch.Close()
		if err := queue.SetupQueues(ch, []string{cfg.Queue.ConvertQueue}); err != nil {
			logger.Fatal("Failed to set up queues", "err", err)
		}
		app.Queue = ch
	} else {
		logger.Warn("RABBITMQ_HOST not set, upload queueing disabled")
	}

	e := New(app, cfg.Server.BodyLimit)

	go func() {
		logger.Info("Starting server", "port", cfg.Server.Port)
		if err := e.Start(":" + cfg.Server.Port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed shutting down server", "err", err)
		}
	}()

	<-ctx.Done()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Error("Failed to shutdown server", "err", err)
	}
}
