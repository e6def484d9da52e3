package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/OFFIS-RIT/niemgraph/internal/config"
	"github.com/OFFIS-RIT/niemgraph/internal/queue"
	"github.com/OFFIS-RIT/niemgraph/internal/storage"
	"github.com/OFFIS-RIT/niemgraph/pkg/graph"
	"github.com/OFFIS-RIT/niemgraph/pkg/loader"
	s3loader "github.com/OFFIS-RIT/niemgraph/pkg/loader/s3"
	"github.com/OFFIS-RIT/niemgraph/pkg/logger"
	"github.com/OFFIS-RIT/niemgraph/pkg/logger/console"

	amqp "github.com/rabbitmq/amqp091-go"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Init(console.NewConsoleLogger(console.ConsoleLoggerParams{}))
		logger.Fatal("Invalid configuration", "err", err)
	}

	// logger
	logger.Init(console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: cfg.Debug,
	}))

	if cfg.S3.Bucket == "" {
		logger.Fatal("AWS_BUCKET is required by the worker")
	}
	if cfg.Queue.Host == "" {
		logger.Fatal("RABBITMQ_HOST is required by the worker")
	}

	// Init s3 client
	s3Client, err := storage.NewS3ClientFromConfig(ctx, cfg.S3)
	if err != nil {
		logger.Fatal("Could not create S3 client", "err", err)
	}

	store, err := storage.NewMappingStore(cfg, s3Client)
	if err != nil {
		logger.Fatal("Could not create mapping store", "err", err)
	}

	params, err := cfg.GraphClientParams()
	if err != nil {
		logger.Fatal("Invalid converter settings", "err", err)
	}
	graphClient, err := graph.NewGraphClient(params)
	if err != nil {
		logger.Fatal("Could not create graph client", "err", err)
	}

	processor := queue.NewProcessor(queue.NewProcessorParams{
		Store:  store,
		Client: graphClient,
		NewLoader: func() loader.GraphFileLoader {
			return s3loader.NewS3GraphFileLoaderWithClient(cfg.S3.Bucket, s3Client)
		},
		Objects:   s3Client,
		Bucket:    cfg.S3.Bucket,
		Prefix:    cfg.Queue.OutputPrefix,
		DoneTopic: cfg.Queue.DoneTopic,
	})

	// Init rabbitmq
	conn, err := queue.Init(cfg.Queue)
	if err != nil {
		logger.Fatal("Failed to connect to RabbitMQ", "err", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		logger.Fatal("Failed to open channel", "err", err)
	}
	defer ch.Close()

	queueName := cfg.Queue.ConvertQueue
	if err := queue.SetupQueues(ch, []string{queueName}); err != nil {
		logger.Fatal("Failed to set up queues", "err", err)
	}

	// prefetch=1 so a worker holds only the batch it is converting
	consumerCh, err := conn.Channel()
	if err != nil {
		logger.Fatal("Failed to open consumer channel", "err", err)
	}
	defer consumerCh.Close()

	if err := consumerCh.Qos(1, 0, false); err != nil {
		logger.Fatal("Failed to set QoS", "err", err)
	}

	msgs, err := consumerCh.Consume(
		queueName,
		fmt.Sprintf("%s_consumer", queueName),
		false, // autoAck
		false, // exclusive
		false, // noLocal
		false, // noWait
		nil,   // args
	)
	if err != nil {
		logger.Fatal("Failed to start consuming", "queue", queueName, "err", err)
	}

	logger.Info("Listening for messages", "queue", queueName)

	for {
		select {
		case <-ctx.Done():
			logger.Info("Shutdown signal received, exiting...")
			return
		case msg, ok := <-msgs:
			if !ok {
				logger.Info("Message channel closed", "queue", queueName)
				return
			}
			handle(ctx, processor, ch, consumerCh, msg, queueName, cfg.Queue.MaxRetries)
		}
	}
}

func handle(
	ctx context.Context,
	processor *queue.Processor,
	ch *amqp.Channel,
	consumerCh *amqp.Channel,
	msg amqp.Delivery,
	queueName string,
	maxRetries int,
) {
	startTime := time.Now()
	logger.Info("Received message", "queue", queueName)

	if err := processor.ProcessConvertMessage(ctx, ch, msg.Body); err != nil {
		logger.Error("Error processing message", "queue", queueName, "err", err)
		queue.HandleProcessingError(consumerCh, msg, queueName, maxRetries, err)
	} else {
		if err := msg.Ack(false); err != nil {
			logger.Error("Failed to ack message", "err", err)
		}
		logger.Info("Message processed successfully", "queue", queueName)
	}

	processingDuration := time.Since(startTime)
	hours := int(processingDuration.Hours())
	minutes := int(processingDuration.Minutes()) % 60
	seconds := int(processingDuration.Seconds()) % 60
	logger.Info(
		"Processing time",
		"duration", fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds),
	)
	logger.Info("Waiting for next message")
}
