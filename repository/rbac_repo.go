package repository

import (
	"context"

	"github.com/scullers68/sprintintel/model"
)

// RBACRepository resolves a user's assigned roles.
type RBACRepository struct {
	db *DB
}

// NewRBACRepository constructs an RBACRepository.
func NewRBACRepository(db *DB) *RBACRepository { return &RBACRepository{db: db} }

func (r *RBACRepository) RolesForUser(ctx context.Context, userID string) ([]model.Role, error) {
	var userRoles []model.UserRole
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Find(&userRoles).Error; err != nil {
		return nil, translateGormError(err, "user roles")
	}
	if len(userRoles) == 0 {
		return nil, nil
	}

	names := make([]string, len(userRoles))
	for i, ur := range userRoles {
		names[i] = ur.RoleName
	}

	var roles []model.Role
	if err := r.db.WithContext(ctx).Where("name IN ?", names).Find(&roles).Error; err != nil {
		return nil, translateGormError(err, "roles")
	}
	return roles, nil
}
