package services

import "bazar/internal/models"

// Actor identifies the authenticated caller of a service operation, as
// extracted from the JWT claims by the auth middleware.
type Actor struct {
	ID   string
	Role models.Role
}
