package model

import "time"

// FieldType enumerates the canonical field types a FieldMapping may
// coerce raw tracker values into.
type FieldType string

const (
	FieldString   FieldType = "string"
	FieldInteger  FieldType = "integer"
	FieldFloat    FieldType = "float"
	FieldBoolean  FieldType = "boolean"
	FieldList     FieldType = "list"
	FieldObject   FieldType = "object"
	FieldDate     FieldType = "date"
	FieldDatetime FieldType = "datetime"
)

// MappingType enumerates how a FieldMapping derives its target value.
type MappingType string

const (
	MappingDirect         MappingType = "direct"
	MappingTransformation MappingType = "transformation"
	MappingLookup         MappingType = "lookup"
)

// FieldMappingTemplate is a named set of mappings; only one template is
// "active" per context (e.g. per tracker project).
type FieldMappingTemplate struct {
	SoftDeleteBase

	Name        string `gorm:"size:100;uniqueIndex;not null"`
	Description string `gorm:"type:text"`
	Active      bool   `gorm:"not null;default:false"`
	Version     int    `gorm:"not null;default:1"`
}

// FieldMapping translates one raw tracker field into one canonical field.
type FieldMapping struct {
	SoftDeleteBase

	TemplateID uint `gorm:"index;not null"`

	SourceFieldID string      `gorm:"size:100;not null"`
	TargetField   string      `gorm:"size:100;not null"`
	FieldType     FieldType   `gorm:"size:16;not null"`
	MappingType   MappingType `gorm:"size:16;not null;default:direct"`

	TransformationConfig JSONMap `gorm:"serializer:json"`
	ValidationRules      JSONMap `gorm:"serializer:json"`

	DefaultValue string `gorm:"type:text"`
	Required     bool

	IsActive bool `gorm:"not null;default:true"`
	Version  int  `gorm:"not null;default:1"`
}

// ChangeType enumerates FieldMappingVersion.ChangeType values.
type ChangeType string

const (
	ChangeCreated ChangeType = "created"
	ChangeUpdated ChangeType = "updated"
	ChangeDeleted ChangeType = "deleted"
)

// FieldMappingVersion is an append-only audit trail of FieldMapping
// create/update/delete operations, written on every mutation.
type FieldMappingVersion struct {
	Base

	FieldMappingID uint       `gorm:"index;not null"`
	ChangeType     ChangeType `gorm:"size:16;not null"`
	Description    string     `gorm:"type:text"`

	PreviousConfig JSONMap `gorm:"serializer:json"`
	NewConfig      JSONMap `gorm:"serializer:json"`

	ChangedAt time.Time
	ChangedBy string `gorm:"size:100"`
}
