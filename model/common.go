// Package model defines the persisted domain entities of the sprint
// intelligence platform: sprints, project workstreams, sync metadata,
// conflict records, webhook events, security events, and field mapping
// templates. Entities are plain GORM models; no entity method talks to a
// database directly — that is the repository package's job.
package model

import (
	"time"

	"gorm.io/gorm"
)

// Base mirrors gorm.Model but spells out the fields explicitly since
// several entities (e.g. SecurityEvent) are append-only and must not
// carry a DeletedAt column.
type Base struct {
	ID        uint `gorm:"primarykey"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SoftDeleteBase is Base plus GORM soft-delete support, used by entities
// that support logical deletion (e.g. FieldMapping).
type SoftDeleteBase struct {
	Base
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

// JSONMap is a convenience alias for JSON-valued columns.
type JSONMap map[string]interface{}
