package bridge

import (
	"context"

	"github.com/google/uuid"

	"github.com/scullers68/sprintintel/audit"
	"github.com/scullers68/sprintintel/sync"
	"github.com/scullers68/sprintintel/webhook"
)

// CacheInvalidator marks a cached sprint projection stale so the next
// read refetches live data.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, trackerSprintID int64) error
}

// WebhookDispatcher applies ingested webhook events to local state: issue
// events invalidate the affected sprint's cache (issues are never
// persisted locally, only fetched live per section 4.1/4.7), sprint
// events trigger an incremental sync of the sprint's board (section 4.6:
// "for state transitions, enqueue a per-sprint sync").
type WebhookDispatcher struct {
	Engine *sync.Engine
	Cache  CacheInvalidator
	Audit  *audit.Log
}

// NewWebhookDispatcher constructs a WebhookDispatcher.
func NewWebhookDispatcher(engine *sync.Engine, cache CacheInvalidator, auditLog *audit.Log) *WebhookDispatcher {
	return &WebhookDispatcher{Engine: engine, Cache: cache, Audit: auditLog}
}

// HandleIssueEvent satisfies webhook.Dispatcher.
func (d *WebhookDispatcher) HandleIssueEvent(ctx context.Context, event webhook.WebhookEventView) error {
	issueKey := ""
	if issue, ok := event.Payload["issue"].(map[string]interface{}); ok {
		issueKey, _ = issue["key"].(string)
	}

	sprintID := extractIssueSprintID(event.Payload)
	if sprintID != 0 && d.Cache != nil {
		if err := d.Cache.Invalidate(ctx, sprintID); err != nil {
			return err
		}
	}

	if d.Audit != nil {
		_, err := d.Audit.RecordDataAccess(ctx, "", "issue", issueKey, "webhook issue event invalidated sprint cache")
		return err
	}
	return nil
}

// HandleSprintEvent satisfies webhook.Dispatcher.
func (d *WebhookDispatcher) HandleSprintEvent(ctx context.Context, event webhook.WebhookEventView) error {
	boardID := extractSprintBoardID(event.Payload)
	if boardID == 0 || d.Engine == nil {
		return nil
	}
	_, _, err := d.Engine.SyncSprintsBidirectional(ctx, boardID, true, uuid.NewString())
	return err
}

func extractIssueSprintID(payload map[string]interface{}) int64 {
	issue, ok := payload["issue"].(map[string]interface{})
	if !ok {
		return 0
	}
	fields, ok := issue["fields"].(map[string]interface{})
	if !ok {
		return 0
	}
	sprints, ok := fields["sprint"].([]interface{})
	if !ok || len(sprints) == 0 {
		if sprint, ok := fields["sprint"].(map[string]interface{}); ok {
			return asInt64(sprint["id"])
		}
		return 0
	}
	if first, ok := sprints[0].(map[string]interface{}); ok {
		return asInt64(first["id"])
	}
	return 0
}

func extractSprintBoardID(payload map[string]interface{}) int64 {
	sprint, ok := payload["sprint"].(map[string]interface{})
	if !ok {
		return 0
	}
	return asInt64(sprint["originBoardId"])
}

func asInt64(v interface{}) int64 {
	switch n := v.(type) {
	case float64:
		return int64(n)
	case int64:
		return n
	case int:
		return int64(n)
	default:
		return 0
	}
}
