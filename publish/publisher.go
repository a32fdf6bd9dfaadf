package publish

import (
	"context"
	"time"

	"github.com/goccy/go-json"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"pricebook/domain"
	"pricebook/metrics"
)

const writeTimeout = 5 * time.Second

// messageWriter is the part of *kafka.Writer the publisher uses
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher forwards every applied diff update to a Kafka topic
// Messages are keyed by symbol and balanced with kafka.Hash, so one symbol
// always lands on one partition and keeps its order.
type Publisher struct {
	writer messageWriter
	logger *zap.Logger
}

// New creates a publisher with an async writer; delivery errors are reported
// through the writer's completion callback.
func New(brokers []string, topic string, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Publisher{logger: logger}
	p.writer = &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: writeTimeout,
		RequiredAcks: kafka.RequireOne,
		Compression:  kafka.Snappy,
		Async:        true,
		Completion:   p.completed,
	}
	return p
}

// newWithWriter is used by tests to swap the broker connection
func newWithWriter(w messageWriter, logger *zap.Logger) *Publisher {
	return &Publisher{writer: w, logger: logger}
}

// Observe is a dispatch.Observer; it must not block the dispatch worker
func (p *Publisher) Observe(update domain.DiffUpdate) {
	value, err := json.Marshal(update)
	if err != nil {
		p.failed(1, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(update.Symbol),
		Value: value,
		Time:  time.Now(),
	})
	if err != nil {
		p.failed(1, err, zap.String("symbol", update.Symbol), zap.String("update_id", update.ID))
	}
}

func (p *Publisher) completed(messages []kafka.Message, err error) {
	if err != nil {
		p.failed(len(messages), err)
	}
}

func (p *Publisher) failed(n int, err error, fields ...zap.Field) {
	metrics.PublishErrorsTotal.Add(float64(n))
	p.logger.Warn("publish failed", append(fields, zap.Int("messages", n), zap.Error(err))...)
}

// Close flushes pending messages and closes the writer
func (p *Publisher) Close() error {
	return p.writer.Close()
}
