package bridge

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scullers68/sprintintel/audit"
	"github.com/scullers68/sprintintel/errs"
	"github.com/scullers68/sprintintel/model"
	"github.com/scullers68/sprintintel/sync"
	"github.com/scullers68/sprintintel/trackerclient"
	"github.com/scullers68/sprintintel/webhook"
)

type fakeCache struct {
	invalidated []int64
	err         error
}

func (f *fakeCache) Invalidate(ctx context.Context, trackerSprintID int64) error {
	f.invalidated = append(f.invalidated, trackerSprintID)
	return f.err
}

type nullAuditStore struct{}

func (nullAuditStore) LastEvent(ctx context.Context) (*model.SecurityEvent, error) { return nil, nil }
func (nullAuditStore) SaveEvent(ctx context.Context, e *model.SecurityEvent) error { return nil }
func (nullAuditStore) EventByID(ctx context.Context, id uint) (*model.SecurityEvent, error) {
	return nil, errs.NotFound("security event")
}
func (nullAuditStore) EventByChecksumBefore(ctx context.Context, checksum string, beforeID uint) (*model.SecurityEvent, error) {
	return nil, nil
}
func (nullAuditStore) EventsInRange(ctx context.Context, start, end time.Time) ([]model.SecurityEvent, error) {
	return nil, nil
}
func (nullAuditStore) EventsOrderedByID(ctx context.Context, start, end *time.Time) ([]model.SecurityEvent, error) {
	return nil, nil
}
func (nullAuditStore) EventsPastRetention(ctx context.Context, asOf time.Time) ([]model.SecurityEvent, error) {
	return nil, nil
}
func (nullAuditStore) DeleteEvents(ctx context.Context, ids []uint) error { return nil }

func TestWebhookDispatcher_HandleIssueEvent_InvalidatesSprintCache(t *testing.T) {
	cache := &fakeCache{}
	dispatcher := NewWebhookDispatcher(nil, cache, nil)

	event := webhook.WebhookEventView{
		EventType: "jira:issue_updated",
		Payload: model.JSONMap{
			"issue": map[string]interface{}{
				"key": "SI-1",
				"fields": map[string]interface{}{
					"sprint": map[string]interface{}{"id": float64(55)},
				},
			},
		},
	}

	err := dispatcher.HandleIssueEvent(context.Background(), event)
	require.NoError(t, err)
	assert.Equal(t, []int64{55}, cache.invalidated)
}

func TestWebhookDispatcher_HandleIssueEvent_NoSprintIDSkipsInvalidation(t *testing.T) {
	cache := &fakeCache{}
	dispatcher := NewWebhookDispatcher(nil, cache, nil)

	err := dispatcher.HandleIssueEvent(context.Background(), webhook.WebhookEventView{Payload: model.JSONMap{}})
	require.NoError(t, err)
	assert.Empty(t, cache.invalidated)
}

func TestWebhookDispatcher_HandleIssueEvent_RecordsDataAccessAuditEvent(t *testing.T) {
	auditLog := audit.New(nullAuditStore{})
	dispatcher := NewWebhookDispatcher(nil, nil, auditLog)

	event := webhook.WebhookEventView{
		Payload: model.JSONMap{"issue": map[string]interface{}{"key": "SI-1"}},
	}

	err := dispatcher.HandleIssueEvent(context.Background(), event)
	require.NoError(t, err)
}

func TestWebhookDispatcher_HandleSprintEvent_NoBoardIDIsNoop(t *testing.T) {
	dispatcher := NewWebhookDispatcher(nil, nil, nil)

	err := dispatcher.HandleSprintEvent(context.Background(), webhook.WebhookEventView{Payload: model.JSONMap{}})
	require.NoError(t, err)
}

type fakeSyncStore struct{}

func (fakeSyncStore) SprintByTrackerID(ctx context.Context, trackerSprintID int64) (*model.Sprint, error) {
	return nil, errs.NotFound("sprint")
}
func (fakeSyncStore) SaveSprint(ctx context.Context, s *model.Sprint) error { return nil }
func (fakeSyncStore) SprintsByBoard(ctx context.Context, boardID int64) ([]model.Sprint, error) {
	return nil, nil
}
func (fakeSyncStore) SyncMetadataFor(ctx context.Context, entityType model.EntityType, entityID uint) (*model.SyncMetadata, error) {
	return nil, nil
}
func (fakeSyncStore) SaveSyncMetadata(ctx context.Context, m *model.SyncMetadata) error { return nil }
func (fakeSyncStore) SaveSyncHistory(ctx context.Context, h *model.SyncHistory) error   { return nil }
func (fakeSyncStore) LatestSuccessfulSyncHistory(ctx context.Context, opType model.OperationType) (*model.SyncHistory, error) {
	return nil, nil
}
func (fakeSyncStore) SaveConflictResolution(ctx context.Context, c *model.ConflictResolution) error {
	return nil
}
func (fakeSyncStore) ConflictResolutionByID(ctx context.Context, id uint) (*model.ConflictResolution, error) {
	return nil, errs.NotFound("conflict resolution")
}

type fakeTracker struct {
	sprints []trackerclient.SprintDTO
}

func (f fakeTracker) GetSprints(ctx context.Context, boardID int64) ([]trackerclient.SprintDTO, error) {
	return f.sprints, nil
}
func (f fakeTracker) GetBoards(ctx context.Context, projectKey string) ([]trackerclient.BoardDTO, error) {
	return nil, nil
}

func TestWebhookDispatcher_HandleSprintEvent_TriggersIncrementalSync(t *testing.T) {
	tracker := fakeTracker{sprints: []trackerclient.SprintDTO{
		{ID: 1, Name: "Sprint 1", State: "active", OriginBoardID: 77},
	}}
	engine := sync.New(fakeSyncStore{}, tracker, nil)
	auditLog := audit.New(nullAuditStore{})
	dispatcher := NewWebhookDispatcher(engine, nil, auditLog)

	event := webhook.WebhookEventView{
		Payload: model.JSONMap{
			"sprint": map[string]interface{}{"originBoardId": float64(77)},
		},
	}

	err := dispatcher.HandleSprintEvent(context.Background(), event)
	require.NoError(t, err)
}
