package queue

import (
	"fmt"
	"time"

	"github.com/OFFIS-RIT/niemgraph/internal/config"
	"github.com/OFFIS-RIT/niemgraph/pkg/logger"

	"github.com/rabbitmq/amqp091-go"
)

// TopicExchange receives the completion events of the worker.
const TopicExchange = "pubsub_exchange"

// RetryDelay is how long a failed message waits in its retry queue before
// it is dead-lettered back to the work queue.
const RetryDelay = 10 * time.Second

// Channel is the subset of *amqp091.Channel used for declaring and
// publishing.
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp091.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp091.Table) (amqp091.Queue, error)
	Publish(exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
}

// Init dials RabbitMQ with the configured credentials.
func Init(cfg config.Queue) (*amqp091.Connection, error) {
	conn, err := amqp091.Dial(cfg.URL())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ at %s:%s: %w", cfg.Host, cfg.Port, err)
	}
	return conn, nil
}

func declareTopicExchange(ch Channel) error {
	return ch.ExchangeDeclare(
		TopicExchange,
		"topic",
		true,  // durable
		false, // autoDelete
		false, // internal
		false, // noWait
		nil,
	)
}

// SetupQueues declares the topic exchange and, for every name, a durable
// work queue with its "_dlq" and "_retry" companions. The retry queue
// dead-letters expired messages back to the work queue.
func SetupQueues(ch Channel, queueNames []string) error {
	if err := declareTopicExchange(ch); err != nil {
		return fmt.Errorf("failed to declare exchange %s: %w", TopicExchange, err)
	}

	for _, name := range queueNames {
		_, err := ch.QueueDeclare(
			name,
			true,  // durable
			false, // autoDelete
			false, // exclusive
			false, // noWait
			nil,   // args
		)
		if err != nil {
			return fmt.Errorf("failed to declare queue %s: %w", name, err)
		}

		dlqName := DeadLetterQueue(name)
		_, err = ch.QueueDeclare(dlqName, true, false, false, false, nil)
		if err != nil {
			return fmt.Errorf("failed to declare queue %s: %w", dlqName, err)
		}

		retryName := RetryQueue(name)
		_, err = ch.QueueDeclare(
			retryName,
			true,
			false,
			false,
			false,
			amqp091.Table{
				"x-message-ttl":             int32(RetryDelay / time.Millisecond),
				"x-dead-letter-exchange":    "",
				"x-dead-letter-routing-key": name,
			},
		)
		if err != nil {
			return fmt.Errorf("failed to declare queue %s: %w", retryName, err)
		}
		logger.Debug("[Queue] Declared queue", "queue", name)
	}

	return nil
}

func DeadLetterQueue(name string) string { return name + "_dlq" }

func RetryQueue(name string) string { return name + "_retry" }

// PublishFIFO publishes a persistent JSON message to the named durable
// queue through the default exchange.
func PublishFIFO(ch Channel, queueName string, data []byte) error {
	q, err := ch.QueueDeclare(
		queueName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", queueName, err)
	}

	err = ch.Publish(
		"",
		q.Name,
		false,
		false,
		publishing(data, nil),
	)
	if err != nil {
		return fmt.Errorf("failed to publish to %s: %w", queueName, err)
	}

	return nil
}

// PublishTopic publishes a persistent JSON message to TopicExchange.
func PublishTopic(ch Channel, topic string, data []byte) error {
	if err := declareTopicExchange(ch); err != nil {
		return fmt.Errorf("failed to declare exchange %s: %w", TopicExchange, err)
	}

	err := ch.Publish(
		TopicExchange,
		topic,
		false,
		false,
		publishing(data, nil),
	)
	if err != nil {
		return fmt.Errorf("failed to publish topic %s: %w", topic, err)
	}

	return nil
}

func publishing(data []byte, headers amqp091.Table) amqp091.Publishing {
	return amqp091.Publishing{
		ContentType:  "application/json",
		Body:         data,
		Headers:      headers,
		DeliveryMode: amqp091.Persistent,
		Timestamp:    time.Now(),
	}
}
