// Package repository provides the GORM/PostgreSQL-backed implementations
// of the persistence boundaries each domain package depends on (sync.Store,
// fieldmap.Store, webhook.Store, audit.Store, portfolio.Store, rbac.Store).
package repository

import (
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/scullers68/sprintintel/errs"
	"github.com/scullers68/sprintintel/model"
)

// DB wraps a *gorm.DB with the connection pool settings the service
// expects in production.
type DB struct {
	*gorm.DB
}

// Connect opens a PostgreSQL connection and configures the pool.
func Connect(dsn string) (*DB, error) {
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, errs.ExternalService("failed to connect to database", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, errs.Internal("failed to access underlying sql.DB", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return &DB{gdb}, nil
}

// Migrate runs AutoMigrate across every model the service persists.
func (d *DB) Migrate() error {
	err := d.AutoMigrate(
		&model.Sprint{},
		&model.SprintAnalysis{},
		&model.ProjectWorkstream{},
		&model.ProjectSprintAssociation{},
		&model.ProjectSprintMetrics{},
		&model.DisciplineTeamCapacity{},
		&model.ProjectCapacityAllocation{},
		&model.SyncMetadata{},
		&model.ConflictResolution{},
		&model.SyncHistory{},
		&model.WebhookEvent{},
		&model.SecurityEvent{},
		&model.FieldMappingTemplate{},
		&model.FieldMapping{},
		&model.FieldMappingVersion{},
		&model.CachedSprint{},
		&model.Role{},
		&model.UserRole{},
	)
	if err != nil {
		return errs.Internal("schema migration failed", err)
	}
	return nil
}

// translateGormError maps GORM's not-found sentinel into the shared error
// taxonomy so callers never branch on gorm.ErrRecordNotFound directly.
func translateGormError(err error, resource string) error {
	if err == nil {
		return nil
	}
	if err == gorm.ErrRecordNotFound {
		return errs.NotFound(resource)
	}
	return errs.Internal("database operation failed", err)
}
