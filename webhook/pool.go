package webhook

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Dispatcher applies a decoded webhook event to local state. Implemented
// by bridge.WebhookDispatcher.
type Dispatcher interface {
	HandleIssueEvent(ctx context.Context, event WebhookEventView) error
	HandleSprintEvent(ctx context.Context, event WebhookEventView) error
}

// WebhookEventView is the subset of a persisted WebhookEvent the
// dispatcher needs.
type WebhookEventView struct {
	ID        uint
	EventType string
	Payload   map[string]interface{}
}

// PoolConfig configures the worker pool. Size is the number of concurrent
// workers pulling from the queue (section 4.6: "pool size >= 2").
type PoolConfig struct {
	Size int
}

// DefaultPoolConfig returns the spec's minimum pool size.
func DefaultPoolConfig() PoolConfig { return PoolConfig{Size: 2} }

// Pool is the Webhook Worker (C6): a pool of goroutines pulling events
// from the queue concurrently, each event processed by exactly one worker.
type Pool struct {
	store      Store
	queue      *Queue
	dispatcher Dispatcher
	cfg        PoolConfig
	log        *logrus.Entry
	stop       chan struct{}
}

// NewPool constructs a worker Pool.
func NewPool(store Store, queue *Queue, dispatcher Dispatcher, cfg PoolConfig, logger *logrus.Logger) *Pool {
	if cfg.Size <= 0 {
		cfg.Size = 2
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Pool{
		store:      store,
		queue:      queue,
		dispatcher: dispatcher,
		cfg:        cfg,
		log:        logger.WithField("component", "webhook.Pool"),
		stop:       make(chan struct{}),
	}
}

// Start launches cfg.Size workers, each running until ctx is cancelled or
// Stop is called.
func (p *Pool) Start(ctx context.Context) {
	p.log.WithField("workers", p.cfg.Size).Info("starting webhook worker pool")
	for i := 0; i < p.cfg.Size; i++ {
		go p.runWorker(ctx, i)
	}
}

// Stop signals every worker to exit after its current job.
func (p *Pool) Stop() {
	close(p.stop)
}

func (p *Pool) runWorker(ctx context.Context, id int) {
	log := p.log.WithField("worker", id)
	log.Info("worker started")
	for {
		select {
		case <-ctx.Done():
			log.Info("worker stopping: context cancelled")
			return
		case <-p.stop:
			log.Info("worker stopping")
			return
		default:
			if err := p.processNext(ctx); err != nil {
				log.WithError(err).Warn("error processing job")
				time.Sleep(time.Second)
			}
		}
	}
}

func (p *Pool) processNext(ctx context.Context) error {
	job, err := p.queue.Dequeue(ctx, 5*time.Second)
	if err != nil {
		return err
	}
	if job == nil {
		return nil
	}
	return p.processEvent(ctx, job.EventID, job.RetryCount)
}

// processEvent implements the per-event state machine of section 4.6.
func (p *Pool) processEvent(ctx context.Context, eventID uint, retryCount int) error {
	event, err := p.store.EventByID(ctx, eventID)
	if err != nil {
		return err
	}

	event.ProcessingStatus = "processing"
	event.Attempts++
	now := time.Now()
	event.LastProcessedAt = &now
	if err := p.store.SaveEvent(ctx, event); err != nil {
		return err
	}

	view := WebhookEventView{ID: event.ID, EventType: event.EventType, Payload: event.Payload}
	dispatchErr := p.dispatch(ctx, view)

	if dispatchErr == nil {
		event.ProcessingStatus = "completed"
		event.Error = ""
		return p.store.SaveEvent(ctx, event)
	}

	event.Error = dispatchErr.Error()
	if event.Attempts < 3 {
		event.ProcessingStatus = "pending"
		if err := p.store.SaveEvent(ctx, event); err != nil {
			return err
		}
		backoff := time.Duration(60*(1<<uint(event.Attempts))) * time.Second
		go p.requeueAfter(event.ID, retryCount+1, backoff)
		return nil
	}

	event.ProcessingStatus = "failed"
	return p.store.SaveEvent(ctx, event)
}

func (p *Pool) requeueAfter(eventID uint, retryCount int, delay time.Duration) {
	timer := time.NewTimer(delay)
	<-timer.C
	_ = p.queue.Enqueue(context.Background(), Job{EventID: eventID, EnqueuedAt: time.Now(), RetryCount: retryCount})
}

// dispatch routes an event to the issue or sprint handler by event-type
// prefix (e.g. "jira:issue_updated" -> issue handler).
func (p *Pool) dispatch(ctx context.Context, event WebhookEventView) error {
	_, kind, found := strings.Cut(event.EventType, ":")
	if !found {
		kind = event.EventType
	}
	switch {
	case strings.HasPrefix(kind, "issue"):
		return p.dispatcher.HandleIssueEvent(ctx, event)
	case strings.HasPrefix(kind, "sprint"):
		return p.dispatcher.HandleSprintEvent(ctx, event)
	default:
		return nil
	}
}

// RetryFailed re-enqueues events with attempts<3 received within the
// last 24h, in batches of 50 (section 4.6 periodic task).
func (p *Pool) RetryFailed(ctx context.Context) (int, error) {
	events, err := p.store.RecentFailedEvents(ctx, 3, time.Now().Add(-24*time.Hour), 50)
	if err != nil {
		return 0, err
	}
	for _, e := range events {
		if err := p.queue.Enqueue(ctx, Job{EventID: e.ID, EnqueuedAt: time.Now(), RetryCount: e.Attempts}); err != nil {
			p.log.WithError(err).WithField("event_id", e.ID).Warn("failed to re-enqueue event")
		}
	}
	return len(events), nil
}

// Cleanup deletes terminal-status events older than 30 days (section 4.6
// periodic task).
func (p *Pool) Cleanup(ctx context.Context) (int64, error) {
	return p.store.DeleteTerminalEventsOlderThan(ctx, time.Now().Add(-30*24*time.Hour))
}

// ThroughputSample is one observation window for the throughput monitor.
type ThroughputSample struct {
	EventsPerMinute float64
	FailureRate     float64
	Alert           bool
}

// ThroughputMonitor counts events processed and failed over the last 5
// minutes and flags an alert if throughput exceeds 200/min or the failure
// rate exceeds 10% (section 4.6).
func ThroughputMonitor(totalLast5Min, failedLast5Min int) ThroughputSample {
	perMinute := float64(totalLast5Min) / 5.0
	failureRate := 0.0
	if totalLast5Min > 0 {
		failureRate = float64(failedLast5Min) / float64(totalLast5Min) * 100
	}
	return ThroughputSample{
		EventsPerMinute: perMinute,
		FailureRate:     failureRate,
		Alert:           perMinute > 200 || failureRate > 10,
	}
}
