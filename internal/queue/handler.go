package queue

import (
	"errors"

	"github.com/OFFIS-RIT/niemgraph/pkg/logger"

	"github.com/rabbitmq/amqp091-go"
)

// RetriesHeader counts how often a message went through its retry queue.
const RetriesHeader = "x-retries"

// Retries reads RetriesHeader. Brokers and clients disagree on the integer
// width, so every signed width is accepted.
func Retries(headers amqp091.Table) int {
	switch v := headers[RetriesHeader].(type) {
	case int:
		return v
	case int8:
		return int(v)
	case int16:
		return int(v)
	case int32:
		return int(v)
	case int64:
		return int(v)
	default:
		return 0
	}
}

// HandleProcessingError routes a failed delivery. Invalid messages and
// messages retried maxRetries times go to the dead-letter queue, the rest
// to the retry queue with an incremented RetriesHeader. The delivery is
// acked once republished and requeued if republishing fails.
func HandleProcessingError(ch Channel, msg amqp091.Delivery, queueName string, maxRetries int, cause error) {
	retries := Retries(msg.Headers)

	if retries >= maxRetries || errors.Is(cause, ErrInvalidMessage) {
		dlqName := DeadLetterQueue(queueName)
		logger.Info("[Queue] Sending message to DLQ", "dlq", dlqName, "retries", retries, "err", cause)
		if err := ch.Publish("", dlqName, false, false, publishing(msg.Body, msg.Headers)); err != nil {
			logger.Error("[Queue] Failed to publish to DLQ", "dlq", dlqName, "err", err)
			nack(msg)
			return
		}
		ack(msg)
		return
	}

	retryName := RetryQueue(queueName)
	headers := amqp091.Table{}
	for k, v := range msg.Headers {
		headers[k] = v
	}
	headers[RetriesHeader] = int32(retries + 1)

	if err := ch.Publish("", retryName, false, false, publishing(msg.Body, headers)); err != nil {
		logger.Error("[Queue] Failed to publish to retry queue", "retry_queue", retryName, "err", err)
		nack(msg)
		return
	}
	logger.Info("[Queue] Scheduled retry", "retry_queue", retryName, "retries", retries+1)
	ack(msg)
}

func ack(msg amqp091.Delivery) {
	if err := msg.Ack(false); err != nil {
		logger.Error("[Queue] Failed to ack message", "err", err)
	}
}

func nack(msg amqp091.Delivery) {
	if err := msg.Nack(false, true); err != nil {
		logger.Error("[Queue] Failed to nack message", "err", err)
	}
}
