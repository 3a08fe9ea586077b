package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/scullers68/sprintintel/audit"
	"github.com/scullers68/sprintintel/model"
)

// Outcome is the result of an Ingest call.
type Outcome string

const (
	Accepted Outcome = "accepted"
	Duplicate Outcome = "duplicate"
	Rejected Outcome = "rejected"
)

// Store is the persistence boundary the ingestor and worker depend on.
type Store interface {
	EventByEventID(ctx context.Context, eventID string) (*model.WebhookEvent, error)
	SaveEvent(ctx context.Context, e *model.WebhookEvent) error
	EventByID(ctx context.Context, id uint) (*model.WebhookEvent, error)
	RecentFailedEvents(ctx context.Context, maxAttempts int, since time.Time, limit int) ([]model.WebhookEvent, error)
	DeleteTerminalEventsOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// Ingestor accepts inbound webhook deliveries, deduplicates them by
// event-id, persists them, and enqueues them for the worker pool
// (section 4.5).
type Ingestor struct {
	store     Store
	queue     *Queue
	auditLog  *audit.Log
	secret    string
	log       *logrus.Entry
}

// IngestorConfig configures an Ingestor.
type IngestorConfig struct {
	Store    Store
	Queue    *Queue
	AuditLog *audit.Log
	Secret   string // optional shared-secret for signature validation
	Logger   *logrus.Logger
}

// NewIngestor constructs an Ingestor.
func NewIngestor(cfg IngestorConfig) *Ingestor {
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Ingestor{
		store:    cfg.Store,
		queue:    cfg.Queue,
		auditLog: cfg.AuditLog,
		secret:   cfg.Secret,
		log:      logger.WithField("component", "webhook.Ingestor"),
	}
}

// ValidateSignature compares the HMAC-SHA256 of body against the
// X-Hub-Signature-style header value, using constant-time comparison.
func (i *Ingestor) ValidateSignature(body []byte, signatureHeader string) bool {
	if i.secret == "" {
		return true
	}
	mac := hmac.New(sha256.New, []byte(i.secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signatureHeader))
}

// Ingest persists and enqueues an inbound event, deduplicating by eventID.
func (i *Ingestor) Ingest(ctx context.Context, eventID, eventType string, payload model.JSONMap, rawBody []byte, signatureHeader, sourceIP string) (Outcome, error) {
	if i.secret != "" && !i.ValidateSignature(rawBody, signatureHeader) {
		if i.auditLog != nil {
			_, _ = i.auditLog.RecordViolation(ctx, "webhook", eventID, sourceIP, "webhook signature mismatch")
		}
		i.log.WithField("event_id", eventID).Warn("rejecting webhook: signature mismatch")
		return Rejected, nil
	}

	existing, err := i.store.EventByEventID(ctx, eventID)
	if err == nil && existing != nil {
		return Duplicate, nil
	}

	event := &model.WebhookEvent{
		EventID:          eventID,
		EventType:        eventType,
		Payload:          payload,
		ProcessingStatus: model.ProcessingPending,
	}
	if err := i.store.SaveEvent(ctx, event); err != nil {
		return Rejected, err
	}

	if i.queue != nil {
		if err := i.queue.Enqueue(ctx, Job{EventID: event.ID, EnqueuedAt: time.Now()}); err != nil {
			// The event is durably persisted as pending; a periodic scanner
			// (Pool.RetryFailed) will pick it up even if enqueue failed here.
			i.log.WithError(err).WithField("event_id", eventID).Warn("failed to enqueue webhook event, relying on periodic scan")
		}
	}

	return Accepted, nil
}
