package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"bookly/pkg/logger"

	"github.com/IBM/sarama"
)

type ConsumerConfig struct {
	Brokers              []string
	GroupID              string
	Topics               []string
	SessionTimeout       time.Duration
	Heartbeat            time.Duration
	MaxProcessingTime    time.Duration
	OffsetOldest         bool
	MaxRetries           int
	RetryBackoffDuration time.Duration
}

func DefaultConsumerConfig() *ConsumerConfig {
	return &ConsumerConfig{
		Brokers:              []string{"localhost:9092"},
		GroupID:              "bookly-email-workers",
		Topics:               []string{"bookly.emails"},
		SessionTimeout:       30 * time.Second,
		Heartbeat:            3 * time.Second,
		MaxProcessingTime:    5 * time.Minute,
		OffsetOldest:         true,
		MaxRetries:           3,
		RetryBackoffDuration: time.Second,
	}
}

// KafkaConsumer runs a consumer group that delivers email jobs through a Mailer.
type KafkaConsumer struct {
	group  sarama.ConsumerGroup
	config *ConsumerConfig
	mailer Mailer
	wg     sync.WaitGroup
}

func NewKafkaConsumer(config *ConsumerConfig, mailer Mailer) (*KafkaConsumer, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Consumer.Group.Session.Timeout = config.SessionTimeout
	saramaConfig.Consumer.Group.Heartbeat.Interval = config.Heartbeat
	saramaConfig.Consumer.MaxProcessingTime = config.MaxProcessingTime
	saramaConfig.Consumer.Return.Errors = true
	saramaConfig.Consumer.Offsets.AutoCommit.Enable = true
	saramaConfig.Consumer.Offsets.AutoCommit.Interval = time.Second
	if config.OffsetOldest {
		saramaConfig.Consumer.Offsets.Initial = sarama.OffsetOldest
	} else {
		saramaConfig.Consumer.Offsets.Initial = sarama.OffsetNewest
	}

	group, err := sarama.NewConsumerGroup(config.Brokers, config.GroupID, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer group: %w", err)
	}

	return &KafkaConsumer{group: group, config: config, mailer: mailer}, nil
}

// Start launches numWorkers consume loops that run until ctx is cancelled.
func (c *KafkaConsumer) Start(ctx context.Context, numWorkers int) {
	log := logger.GetDefault()
	log.Info("starting email consumer workers",
		slog.Int("workers", numWorkers),
		slog.Any("topics", c.config.Topics))

	go func() {
		for err := range c.group.Errors() {
			log.Error("consumer group error", slog.String("error", err.Error()))
		}
	}()

	for i := 0; i < numWorkers; i++ {
		c.wg.Add(1)
		go func(workerID int) {
			defer c.wg.Done()
			c.runWorker(ctx, workerID)
		}(i)
	}
}

func (c *KafkaConsumer) runWorker(ctx context.Context, workerID int) {
	handler := &consumerGroupHandler{
		workerID:   workerID,
		mailer:     c.mailer,
		maxRetries: c.config.MaxRetries,
		backoff:    c.config.RetryBackoffDuration,
	}

	for {
		if err := c.group.Consume(ctx, c.config.Topics, handler); err != nil {
			if errors.Is(err, sarama.ErrClosedConsumerGroup) {
				return
			}
			logger.GetDefault().Warn("email worker consume error",
				slog.Int("worker", workerID), slog.String("error", err.Error()))
			select {
			case <-time.After(time.Second):
			case <-ctx.Done():
			}
		}
		if ctx.Err() != nil {
			return
		}
	}
}

// Stop closes the consumer group and waits for the workers to exit.
func (c *KafkaConsumer) Stop() error {
	err := c.group.Close()
	c.wg.Wait()
	if err != nil {
		return fmt.Errorf("failed to close consumer group: %w", err)
	}
	return nil
}

type consumerGroupHandler struct {
	workerID   int
	mailer     Mailer
	maxRetries int
	backoff    time.Duration
}

func (h *consumerGroupHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h *consumerGroupHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (h *consumerGroupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case message, ok := <-claim.Messages():
			if !ok {
				return nil
			}
			if err := h.processMessage(session.Context(), message); err != nil {
				logger.GetDefault().Error("email job dropped",
					slog.Int("worker", h.workerID),
					slog.Int64("offset", message.Offset),
					slog.String("error", err.Error()))
			}
			// failed jobs are logged and skipped so one bad message cannot block the partition
			session.MarkMessage(message, "")
		case <-session.Context().Done():
			return nil
		}
	}
}

func (h *consumerGroupHandler) processMessage(ctx context.Context, message *sarama.ConsumerMessage) error {
	var job EmailJob
	if err := json.Unmarshal(message.Value, &job); err != nil {
		return fmt.Errorf("failed to unmarshal email job: %w", err)
	}

	job.Status = EmailStatusSending
	if err := h.executeWithRetry(ctx, &job); err != nil {
		job.MarkFailed(err)
		return err
	}
	job.MarkSent()
	return nil
}

func (h *consumerGroupHandler) executeWithRetry(ctx context.Context, job *EmailJob) error {
	maxRetries := h.maxRetries
	if job.MaxRetries > 0 && job.MaxRetries < maxRetries {
		maxRetries = job.MaxRetries
	}

	for attempt := 0; ; attempt++ {
		err := h.mailer.Send(ctx, job)
		if err == nil {
			return nil
		}
		job.RetryCount = attempt
		if attempt >= maxRetries {
			return fmt.Errorf("giving up after %d attempts: %w", attempt+1, err)
		}

		// exponential backoff
		delay := h.backoff * time.Duration(1<<attempt)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
