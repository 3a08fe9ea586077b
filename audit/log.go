package audit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/scullers68/sprintintel/model"
)

// DefaultRetentionDays matches the compliance-oriented 7-year default the
// original service used.
const DefaultRetentionDays = 2555

// Log is the hash-chained security event log. Chain-append is serialized
// under mu so two concurrent writers never observe the same tail event
// (section 5: "chain-linking must be performed under a per-process lock").
type Log struct {
	mu    sync.Mutex
	store Store
	now   func() time.Time
}

// New constructs a Log.
func New(store Store) *Log {
	return &Log{store: store, now: time.Now}
}

// EventParams describes a security event to be recorded.
type EventParams struct {
	EventType      string
	Category       string
	Severity       model.Severity
	Description    string
	ActorUserID    string
	ActorEmail     string
	ActorIP        string
	ResourceType   string
	ResourceID     string
	ResourceName   string
	Success        bool
	Metadata       model.JSONMap
	ComplianceTags []string
	CorrelationID  string
	RetentionDays  int
}

// canonicalFields returns the stable, checksum-relevant projection of an
// event, excluding the checksum itself, encoded with deterministic key
// order so the digest is reproducible.
func canonicalFields(e *model.SecurityEvent) []byte {
	fields := map[string]interface{}{
		"event_type":        e.EventType,
		"category":          e.Category,
		"severity":          string(e.Severity),
		"actor_user_id":     e.ActorUserID,
		"actor_email":       e.ActorEmail,
		"actor_ip":          e.ActorIP,
		"resource_type":     e.ResourceType,
		"resource_id":       e.ResourceID,
		"resource_name":     e.ResourceName,
		"success":           e.Success,
		"description":       e.Description,
		"correlation_id":    e.CorrelationID,
		"previous_checksum": e.PreviousChecksum,
		"created_at":        e.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	ordered := make([]interface{}, 0, len(keys)*2)
	for _, k := range keys {
		ordered = append(ordered, k, fields[k])
	}
	encoded, _ := json.Marshal(ordered)
	return encoded
}

func checksum(e *model.SecurityEvent) string {
	sum := sha256.Sum256(canonicalFields(e))
	return hex.EncodeToString(sum[:])
}

// CreateSecurityEvent persists a new chained event (section 4.9 steps 1-6).
func (l *Log) CreateSecurityEvent(ctx context.Context, p EventParams) (*model.SecurityEvent, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	retentionDays := p.RetentionDays
	if retentionDays <= 0 {
		retentionDays = DefaultRetentionDays
	}
	now := l.now()

	event := &model.SecurityEvent{
		EventType:      p.EventType,
		Category:       p.Category,
		Severity:       p.Severity,
		ActorUserID:    p.ActorUserID,
		ActorEmail:     p.ActorEmail,
		ActorIP:        p.ActorIP,
		ResourceType:   p.ResourceType,
		ResourceID:     p.ResourceID,
		ResourceName:   p.ResourceName,
		Success:        p.Success,
		Description:    p.Description,
		Metadata:       p.Metadata,
		ComplianceTags: p.ComplianceTags,
		CorrelationID:  p.CorrelationID,
		RetentionDate:  now.Add(time.Duration(retentionDays) * 24 * time.Hour),
	}

	previous, err := l.store.LastEvent(ctx)
	if err != nil {
		return nil, err
	}
	if previous != nil {
		event.PreviousChecksum = previous.Checksum
	}

	if err := l.store.SaveEvent(ctx, event); err != nil {
		return nil, err
	}

	event.Checksum = checksum(event)
	if err := l.store.SaveEvent(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
}

// EventVerification is the result of verifying one event's integrity.
type EventVerification struct {
	Valid               bool
	EventID             uint
	ChecksumValid       bool
	ChainValid          bool
	ChainError          string
	CalculatedChecksum  string
	StoredChecksum      string
}

// VerifyEventIntegrity recomputes eventID's checksum and validates that
// its previous-checksum resolves to a real prior event.
func (l *Log) VerifyEventIntegrity(ctx context.Context, eventID uint) (*EventVerification, error) {
	event, err := l.store.EventByID(ctx, eventID)
	if err != nil {
		return nil, err
	}

	calculated := checksum(event)
	checksumValid := calculated == event.Checksum

	chainValid := true
	chainError := ""
	if event.PreviousChecksum != "" {
		previous, err := l.store.EventByChecksumBefore(ctx, event.PreviousChecksum, event.ID)
		if err != nil || previous == nil {
			chainValid = false
			chainError = "previous event not found in chain"
		}
	}

	return &EventVerification{
		Valid:              checksumValid && chainValid,
		EventID:            event.ID,
		ChecksumValid:      checksumValid,
		ChainValid:         chainValid,
		ChainError:         chainError,
		CalculatedChecksum: calculated,
		StoredChecksum:     event.Checksum,
	}, nil
}

// ChainVerification is the result of walking the entire chain.
type ChainVerification struct {
	Valid              bool
	TotalEvents        int
	VerifiedEvents     int
	InvalidEvents      []uint
	BrokenChainEvents  []uint
}

// VerifyChainIntegrity walks events by ascending id within [start, end]
// (both optional) and reports every break.
func (l *Log) VerifyChainIntegrity(ctx context.Context, start, end *time.Time) (*ChainVerification, error) {
	events, err := l.store.EventsOrderedByID(ctx, start, end)
	if err != nil {
		return nil, err
	}
	result := &ChainVerification{Valid: true, TotalEvents: len(events)}
	if len(events) == 0 {
		return result, nil
	}

	for i := range events {
		verification, err := l.VerifyEventIntegrity(ctx, events[i].ID)
		if err != nil {
			return nil, err
		}
		if verification.ChecksumValid {
			result.VerifiedEvents++
		} else {
			result.InvalidEvents = append(result.InvalidEvents, events[i].ID)
		}
		if !verification.ChainValid {
			result.BrokenChainEvents = append(result.BrokenChainEvents, events[i].ID)
		}
	}

	result.Valid = len(result.InvalidEvents) == 0 && len(result.BrokenChainEvents) == 0
	return result, nil
}

// RetentionResult is the outcome of applying the retention policy.
type RetentionResult struct {
	DryRun             bool
	ExpiredEventsCount int
	ExpiredEventIDs    []uint
	DeletedCount       int
}

// ApplyRetentionPolicy selects events whose retention date has passed and,
// unless dryRun, hard-deletes them. A compliance report should be taken
// before a non-dry-run call since deletion may break chain semantics going
// forward for the deleted span.
func (l *Log) ApplyRetentionPolicy(ctx context.Context, dryRun bool) (*RetentionResult, error) {
	expired, err := l.store.EventsPastRetention(ctx, l.now())
	if err != nil {
		return nil, err
	}
	ids := make([]uint, len(expired))
	for i, e := range expired {
		ids[i] = e.ID
	}

	result := &RetentionResult{DryRun: dryRun, ExpiredEventsCount: len(expired), ExpiredEventIDs: ids}
	if dryRun || len(ids) == 0 {
		return result, nil
	}

	if err := l.store.DeleteEvents(ctx, ids); err != nil {
		return nil, err
	}
	result.DeletedCount = len(ids)
	return result, nil
}

// ComplianceReport summarizes audit events tagged for a compliance
// framework within a date range.
type ComplianceReport struct {
	Framework           string
	StartDate           time.Time
	EndDate             time.Time
	GeneratedAt         time.Time
	TotalEvents         int
	EventsByType        map[string]int
	EventsByCategory    map[string]int
	SuccessRate         float64
	SeverityCounts      map[model.Severity]int
	Checksum            string
}

// GenerateComplianceReport filters events by date range and a compliance
// tag, then emits aggregate statistics. It does not persist a summary row
// itself; callers that want a durable AuditLog snapshot should write one
// with the returned Checksum.
func (l *Log) GenerateComplianceReport(ctx context.Context, framework string, start, end time.Time) (*ComplianceReport, error) {
	events, err := l.store.EventsInRange(ctx, start, end)
	if err != nil {
		return nil, err
	}

	var tagged []model.SecurityEvent
	for _, e := range events {
		for _, tag := range e.ComplianceTags {
			if tag == framework {
				tagged = append(tagged, e)
				break
			}
		}
	}

	report := &ComplianceReport{
		Framework:        framework,
		StartDate:        start,
		EndDate:          end,
		GeneratedAt:      l.now(),
		TotalEvents:      len(tagged),
		EventsByType:     map[string]int{},
		EventsByCategory: map[string]int{},
		SeverityCounts:   map[model.Severity]int{},
	}

	successCount := 0
	for _, e := range tagged {
		report.EventsByType[e.EventType]++
		report.EventsByCategory[e.Category]++
		report.SeverityCounts[e.Severity]++
		if e.Success {
			successCount++
		}
	}
	if len(tagged) > 0 {
		report.SuccessRate = float64(successCount) / float64(len(tagged)) * 100
	}

	encoded, _ := json.Marshal(report)
	sum := sha256.Sum256(encoded)
	report.Checksum = hex.EncodeToString(sum[:])

	return report, nil
}

// --- convenience wrappers (section 4.9) ---

// RecordAuthentication logs a login success/failure event.
func (l *Log) RecordAuthentication(ctx context.Context, userID, email, ip string, success bool, description string) (*model.SecurityEvent, error) {
	eventType := model.EventTypeLoginSuccess
	severity := model.SeverityInfo
	if !success {
		eventType = model.EventTypeLoginFailure
		severity = model.SeverityWarning
	}
	return l.CreateSecurityEvent(ctx, EventParams{
		EventType:   eventType,
		Category:    model.CategoryAuthentication,
		Severity:    severity,
		Description: description,
		ActorUserID: userID,
		ActorEmail:  email,
		ActorIP:     ip,
		Success:     success,
	})
}

// RecordAuthorization logs an access-granted/access-denied event.
func (l *Log) RecordAuthorization(ctx context.Context, userID, resourceType, resourceID string, granted bool, description string) (*model.SecurityEvent, error) {
	eventType := model.EventTypeAccessGranted
	if !granted {
		eventType = model.EventTypeAccessDenied
	}
	return l.CreateSecurityEvent(ctx, EventParams{
		EventType:    eventType,
		Category:     model.CategoryAuthorization,
		Severity:     model.SeverityInfo,
		Description:  description,
		ActorUserID:  userID,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Success:      granted,
	})
}

// RecordDataAccess logs a data-access event.
func (l *Log) RecordDataAccess(ctx context.Context, userID, resourceType, resourceID, description string) (*model.SecurityEvent, error) {
	return l.CreateSecurityEvent(ctx, EventParams{
		EventType:    model.EventTypeDataAccess,
		Category:     model.CategoryDataAccess,
		Severity:     model.SeverityInfo,
		Description:  description,
		ActorUserID:  userID,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Success:      true,
	})
}

// RecordViolation logs a security violation (e.g. a webhook signature
// mismatch) at critical severity.
func (l *Log) RecordViolation(ctx context.Context, resourceType, resourceID, ip, description string) (*model.SecurityEvent, error) {
	return l.CreateSecurityEvent(ctx, EventParams{
		EventType:    model.EventTypeSecurityViolation,
		Category:     model.CategoryViolation,
		Severity:     model.SeverityCritical,
		Description:  description,
		ActorIP:      ip,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Success:      false,
	})
}
