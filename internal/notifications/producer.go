package notifications

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"bookly/pkg/logger"

	"github.com/IBM/sarama"
)

// Publisher hands email jobs to whatever delivers them.
type Publisher interface {
	Publish(ctx context.Context, job *EmailJob) error
	Close() error
}

// KafkaProducerConfig contains configuration for the Kafka email producer
type KafkaProducerConfig struct {
	Brokers          []string
	Topic            string
	RetryMax         int
	Timeout          time.Duration
	RequiredAcks     sarama.RequiredAcks
	CompressionType  sarama.CompressionCodec
	IdempotentWrites bool
	MaxMessageBytes  int
}

// DefaultKafkaProducerConfig returns a default producer configuration
func DefaultKafkaProducerConfig() *KafkaProducerConfig {
	return &KafkaProducerConfig{
		Brokers:          []string{"localhost:9092"},
		Topic:            "bookly.emails",
		RetryMax:         3,
		Timeout:          10 * time.Second,
		RequiredAcks:     sarama.WaitForAll,
		CompressionType:  sarama.CompressionSnappy,
		IdempotentWrites: true,
		MaxMessageBytes:  1000000,
	}
}

// SaramaConfig translates the producer settings into a sarama config.
func (c *KafkaProducerConfig) SaramaConfig() *sarama.Config {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.Return.Errors = true
	cfg.Producer.RequiredAcks = c.RequiredAcks
	cfg.Producer.Compression = c.CompressionType
	cfg.Producer.Retry.Max = c.RetryMax
	cfg.Producer.Timeout = c.Timeout
	cfg.Producer.Idempotent = c.IdempotentWrites
	cfg.Producer.MaxMessageBytes = c.MaxMessageBytes
	if c.IdempotentWrites {
		cfg.Net.MaxOpenRequests = 1
	}
	// hash partitioner keeps one recipient on one partition
	cfg.Producer.Partitioner = sarama.NewHashPartitioner
	return cfg
}

// KafkaPublisher publishes email jobs to a Kafka topic
type KafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string
}

// NewKafkaPublisher dials the brokers and returns a publisher for config.Topic
func NewKafkaPublisher(config *KafkaProducerConfig) (*KafkaPublisher, error) {
	producer, err := sarama.NewSyncProducer(config.Brokers, config.SaramaConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}
	return NewKafkaPublisherWithProducer(producer, config.Topic), nil
}

// NewKafkaPublisherWithProducer wraps an existing producer
func NewKafkaPublisherWithProducer(producer sarama.SyncProducer, topic string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

func (p *KafkaPublisher) Publish(ctx context.Context, job *EmailJob) error {
	job.Status = EmailStatusQueued

	payload, err := job.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to marshal email job: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic:     p.topic,
		Key:       sarama.StringEncoder(job.GetPartitionKey()),
		Value:     sarama.ByteEncoder(payload),
		Headers:   createHeaders(job),
		Timestamp: job.CreatedAt,
	}

	partition, offset, err := p.producer.SendMessage(message)
	if err != nil {
		job.MarkFailed(err)
		return fmt.Errorf("failed to send email job to Kafka: %w", err)
	}

	logger.GetDefault().InfoContext(ctx, "email job published",
		slog.String("topic", p.topic),
		slog.Int("partition", int(partition)),
		slog.Int64("offset", offset),
		slog.String("type", string(job.Type)),
		slog.String("recipient", job.RecipientEmail))
	return nil
}

func createHeaders(job *EmailJob) []sarama.RecordHeader {
	return []sarama.RecordHeader{
		{Key: []byte("job_id"), Value: []byte(job.ID.String())},
		{Key: []byte("email_type"), Value: []byte(job.Type)},
		{Key: []byte("recipient_email"), Value: []byte(job.RecipientEmail)},
		{Key: []byte("producer"), Value: []byte("bookly-api")},
		{Key: []byte("created_at"), Value: []byte(job.CreatedAt.Format(time.RFC3339))},
	}
}

func (p *KafkaPublisher) Close() error {
	if err := p.producer.Close(); err != nil {
		return fmt.Errorf("failed to close Kafka producer: %w", err)
	}
	return nil
}

// InlinePublisher delivers jobs in background goroutines without a broker.
// Close waits for outstanding deliveries.
type InlinePublisher struct {
	mailer Mailer
	wg     sync.WaitGroup
}

func NewInlinePublisher(mailer Mailer) *InlinePublisher {
	return &InlinePublisher{mailer: mailer}
}

func (p *InlinePublisher) Publish(ctx context.Context, job *EmailJob) error {
	job.Status = EmailStatusQueued
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Minute)
		defer cancel()
		if err := p.mailer.Send(sendCtx, job); err != nil {
			job.MarkFailed(err)
			logger.GetDefault().ErrorWithContext(sendCtx, "email delivery failed", err, map[string]interface{}{
				"recipient": job.RecipientEmail,
				"type":      string(job.Type),
			})
			return
		}
		job.MarkSent()
	}()
	return nil
}

func (p *InlinePublisher) Close() error {
	p.wg.Wait()
	return nil
}
