package notifications

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"bookly/internal/shared/config"
	"bookly/pkg/logger"
)

// Service owns the email pipeline: the publisher used on the request path
// and, when Kafka is configured, the consumer workers that deliver mail.
type Service struct {
	publisher Publisher
	consumer  *KafkaConsumer
	workers   int

	mu        sync.Mutex
	isRunning bool
	cancel    context.CancelFunc
}

// NewService picks SMTP or log delivery and Kafka or inline queueing from cfg.
func NewService(cfg *config.Config) (*Service, error) {
	log := logger.GetDefault()

	var mailer Mailer = NewLogMailer()
	if cfg.SMTPEnabled() {
		smtpMailer, err := NewSMTPMailer(&SMTPConfig{
			Host:      cfg.Email.SMTPHost,
			Port:      cfg.Email.SMTPPort,
			Username:  cfg.Email.SMTPUsername,
			Password:  cfg.Email.SMTPPassword,
			FromEmail: cfg.Email.FromEmail,
			FromName:  cfg.Email.FromName,
			UseTLS:    true,
		})
		if err != nil {
			return nil, err
		}
		mailer = smtpMailer
	}

	if !cfg.KafkaEnabled() {
		log.Info("email queue: inline delivery (KAFKA_BROKERS not set)")
		return NewServiceWithPublisher(NewInlinePublisher(mailer)), nil
	}

	producerConfig := DefaultKafkaProducerConfig()
	producerConfig.Brokers = cfg.Kafka.Brokers
	producerConfig.Topic = cfg.Kafka.EmailTopic
	publisher, err := NewKafkaPublisher(producerConfig)
	if err != nil {
		return nil, err
	}

	consumerConfig := DefaultConsumerConfig()
	consumerConfig.Brokers = cfg.Kafka.Brokers
	consumerConfig.Topics = []string{cfg.Kafka.EmailTopic}
	consumerConfig.GroupID = cfg.Kafka.ConsumerGroupID
	consumer, err := NewKafkaConsumer(consumerConfig, mailer)
	if err != nil {
		_ = publisher.Close()
		return nil, err
	}

	log.Info("email queue: kafka",
		slog.Any("brokers", cfg.Kafka.Brokers),
		slog.String("topic", cfg.Kafka.EmailTopic))

	return &Service{publisher: publisher, consumer: consumer, workers: cfg.Kafka.NumConsumerWorkers}, nil
}

// NewServiceWithPublisher builds a Service without background consumers.
func NewServiceWithPublisher(publisher Publisher) *Service {
	return &Service{publisher: publisher}
}

// Start launches the consumer workers, if any.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("notification service is already running")
	}
	ctx, s.cancel = context.WithCancel(ctx)
	if s.consumer != nil {
		s.consumer.Start(ctx, s.workers)
	}
	s.isRunning = true
	return nil
}

// Stop shuts down consumers and flushes the publisher.
func (s *Service) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}
	var firstErr error
	if s.consumer != nil {
		if err := s.consumer.Stop(); err != nil {
			firstErr = err
		}
	}
	if err := s.publisher.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	s.isRunning = false
	return firstErr
}

// SendVerificationEmail queues the account verification mail for email.
func (s *Service) SendVerificationEmail(ctx context.Context, email, name, link string) error {
	if err := s.publisher.Publish(ctx, NewVerificationEmail(email, name, link)); err != nil {
		return fmt.Errorf("queue verification email: %w", err)
	}
	return nil
}
