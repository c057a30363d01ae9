package models

import "gorm.io/gorm"

// Role determines what a user may do in the marketplace.
type Role string

const (
	RoleBuyer  Role = "buyer"
	RoleVendor Role = "vendor"
	RoleAdmin  Role = "admin"
)

// Valid reports whether the role is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleBuyer, RoleVendor, RoleAdmin:
		return true
	}
	return false
}

// User represents an account in the marketplace: a buyer, a vendor, or an admin.
type User struct {
	ID         string `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Username   string `json:"username" gorm:"uniqueIndex;type:varchar(100)" validate:"required,min=3,max=100"`
	Email      string `json:"email" gorm:"uniqueIndex;type:varchar(255)" validate:"required,email"`
	Password   string `json:"password,omitempty" gorm:"type:varchar(255)" validate:"required,min=6"`
	Role       Role   `json:"role" gorm:"type:varchar(16);default:buyer" validate:"omitempty,oneof=buyer vendor admin"`
	EmailOptIn bool   `json:"email_opt_in" gorm:"default:true"`
	gorm.Model        // Embed gorm.Model for CreatedAt, UpdatedAt, DeletedAt
}
