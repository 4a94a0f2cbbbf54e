package notifications

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type EmailType string

const (
	EmailTypeVerification EmailType = "ACCOUNT_VERIFICATION"
)

type EmailStatus string

const (
	EmailStatusPending EmailStatus = "PENDING"
	EmailStatusQueued  EmailStatus = "QUEUED"
	EmailStatusSending EmailStatus = "SENDING"
	EmailStatusSent    EmailStatus = "SENT"
	EmailStatusFailed  EmailStatus = "FAILED"
)

// EmailJob is the message carried on the email topic.
type EmailJob struct {
	ID   uuid.UUID `json:"id"`
	Type EmailType `json:"type"`

	RecipientEmail string `json:"recipient_email"`
	RecipientName  string `json:"recipient_name"`

	Subject      string            `json:"subject"`
	TemplateData map[string]string `json:"template_data"`

	Status     EmailStatus `json:"status"`
	RetryCount int         `json:"retry_count"`
	MaxRetries int         `json:"max_retries"`
	LastError  *string     `json:"last_error,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
	SentAt     *time.Time  `json:"sent_at,omitempty"`
}

type EmailJobBuilder struct {
	job *EmailJob
}

func NewEmailJobBuilder() *EmailJobBuilder {
	return &EmailJobBuilder{
		job: &EmailJob{
			ID:           uuid.New(),
			Status:       EmailStatusPending,
			CreatedAt:    time.Now(),
			MaxRetries:   3,
			TemplateData: make(map[string]string),
		},
	}
}

func (b *EmailJobBuilder) WithType(t EmailType) *EmailJobBuilder {
	b.job.Type = t
	return b
}

func (b *EmailJobBuilder) WithRecipient(email, name string) *EmailJobBuilder {
	b.job.RecipientEmail = email
	b.job.RecipientName = name
	return b
}

func (b *EmailJobBuilder) WithSubject(subject string) *EmailJobBuilder {
	b.job.Subject = subject
	return b
}

func (b *EmailJobBuilder) WithData(key, value string) *EmailJobBuilder {
	b.job.TemplateData[key] = value
	return b
}

func (b *EmailJobBuilder) WithMaxRetries(n int) *EmailJobBuilder {
	b.job.MaxRetries = n
	return b
}

func (b *EmailJobBuilder) Build() *EmailJob {
	return b.job
}

// NewVerificationEmail builds the job sent after signup.
func NewVerificationEmail(email, name, link string) *EmailJob {
	return NewEmailJobBuilder().
		WithType(EmailTypeVerification).
		WithRecipient(email, name).
		WithSubject("Account Verification - Bookly").
		WithData("link", link).
		Build()
}

// GetPartitionKey keeps all mail for one recipient on one partition.
func (j *EmailJob) GetPartitionKey() string {
	return j.RecipientEmail
}

func (j *EmailJob) ToJSON() ([]byte, error) {
	return json.Marshal(j)
}

func (j *EmailJob) MarkSent() {
	now := time.Now()
	j.Status = EmailStatusSent
	j.SentAt = &now
}

func (j *EmailJob) MarkFailed(err error) {
	msg := err.Error()
	j.Status = EmailStatusFailed
	j.LastError = &msg
}
