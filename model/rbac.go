package model

// Role is a named bundle of permission strings. User account storage
// itself (registration, password hashes, sessions) is an external
// collaborator per spec.md section 1; this module only owns the
// role -> permission lookup the authorization gate consults.
type Role struct {
	Base

	Name        string   `gorm:"size:100;uniqueIndex;not null"`
	Description string   `gorm:"type:text"`
	Permissions []string `gorm:"serializer:json"`
}

// UserRole links an external user id to a Role by name. It is the only
// piece of the user/role relationship this module persists.
type UserRole struct {
	Base

	UserID   string `gorm:"size:64;uniqueIndex:idx_user_role;not null"`
	RoleName string `gorm:"size:100;uniqueIndex:idx_user_role;not null"`
}
