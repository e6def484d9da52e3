package queue

import (
	"errors"
	"sync"
	"testing"

	"github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type published struct {
	exchange string
	key      string
	msg      amqp091.Publishing
}

type fakeChannel struct {
	mu          sync.Mutex
	exchanges   []string
	queues      map[string]amqp091.Table
	published   []published
	failPublish bool
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{queues: map[string]amqp091.Table{}}
}

func (c *fakeChannel) ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp091.Table) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.exchanges = append(c.exchanges, name+":"+kind)
	return nil
}

func (c *fakeChannel) QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp091.Table) (amqp091.Queue, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queues[name] = args
	return amqp091.Queue{Name: name}, nil
}

func (c *fakeChannel) Publish(exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failPublish {
		return errors.New("channel closed")
	}
	c.published = append(c.published, published{exchange: exchange, key: key, msg: msg})
	return nil
}

func TestSetupQueues(t *testing.T) {
	ch := newFakeChannel()
	require.NoError(t, SetupQueues(ch, []string{"convert_queue"}))

	assert.Equal(t, []string{"pubsub_exchange:topic"}, ch.exchanges)
	assert.Len(t, ch.queues, 3)
	assert.Contains(t, ch.queues, "convert_queue")
	assert.Contains(t, ch.queues, "convert_queue_dlq")

	retry := ch.queues["convert_queue_retry"]
	require.NotNil(t, retry)
	assert.Equal(t, int32(10000), retry["x-message-ttl"])
	assert.Equal(t, "convert_queue", retry["x-dead-letter-routing-key"])
}

func TestPublishFIFO(t *testing.T) {
	ch := newFakeChannel()
	require.NoError(t, PublishFIFO(ch, "convert_queue", []byte(`{"schema_id":"justice-6"}`)))

	require.Len(t, ch.published, 1)
	p := ch.published[0]
	assert.Equal(t, "", p.exchange)
	assert.Equal(t, "convert_queue", p.key)
	assert.Equal(t, amqp091.Persistent, p.msg.DeliveryMode)
	assert.Equal(t, "application/json", p.msg.ContentType)
}

func TestPublishTopic(t *testing.T) {
	ch := newFakeChannel()
	require.NoError(t, PublishTopic(ch, "convert.done", []byte("{}")))

	require.Len(t, ch.published, 1)
	assert.Equal(t, TopicExchange, ch.published[0].exchange)
	assert.Equal(t, "convert.done", ch.published[0].key)

	ch.failPublish = true
	assert.Error(t, PublishTopic(ch, "convert.done", []byte("{}")))
}

func TestDecodeConvertMsg(t *testing.T) {
	msg, err := DecodeConvertMsg([]byte(`{"schema_id":"justice-6","files":["a.xml"]}`))
	require.NoError(t, err)
	assert.Equal(t, "justice-6", msg.SchemaID)
	assert.Equal(t, []string{"a.xml"}, msg.Files)

	for _, body := range []string{
		`not json`,
		`{"files":["a.xml"]}`,
		`{"schema_id":"justice-6","files":[]}`,
		`{"schema_id":"justice-6","files":[""]}`,
	} {
		_, err := DecodeConvertMsg([]byte(body))
		assert.True(t, errors.Is(err, ErrInvalidMessage), body)
	}
}
