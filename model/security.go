package model

import "time"

// SecurityEventTypes and SecurityEventCategories group common values used
// by the audit log convenience wrappers (authentication, authorization,
// data access, violations).
const (
	EventTypeLoginSuccess     = "login.success"
	EventTypeLoginFailure     = "login.failure"
	EventTypeLogout           = "logout"
	EventTypeAccessGranted    = "access.granted"
	EventTypeAccessDenied     = "access.denied"
	EventTypeDataAccess       = "data.access"
	EventTypeSecurityViolation = "security.violation"
	EventTypeSyncOperation    = "sync.operation"
	EventTypeConfigChange     = "config.change"

	CategoryAuthentication = "authentication"
	CategoryAuthorization  = "authorization"
	CategoryDataAccess     = "data_access"
	CategoryViolation      = "violation"
	CategorySystem         = "system"
)

// Severity enumerates SecurityEvent.Severity values.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// SecurityEvent is an append-only, hash-chained audit log row. It carries
// no DeletedAt column: retention enforcement performs a hard delete, it
// never soft-deletes a tamper-evident row.
type SecurityEvent struct {
	Base

	EventType string   `gorm:"size:64;not null;index"`
	Category  string   `gorm:"size:32;not null"`
	Severity  Severity `gorm:"size:16;not null;default:info"`

	ActorUserID string `gorm:"size:64"`
	ActorEmail  string `gorm:"size:200"`
	ActorIP     string `gorm:"size:64"`

	ResourceType string `gorm:"size:64"`
	ResourceID   string `gorm:"size:128"`
	ResourceName string `gorm:"size:200"`

	Success     bool
	Description string `gorm:"type:text"`

	Metadata       JSONMap  `gorm:"serializer:json"`
	ComplianceTags []string `gorm:"serializer:json"`
	CorrelationID  string   `gorm:"size:64;index"`

	Checksum         string `gorm:"size:64;not null"`
	PreviousChecksum string `gorm:"size:64"`

	RetentionDate time.Time `gorm:"index"`
}
