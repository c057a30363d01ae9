package models

import "gorm.io/gorm"

// Address is a saved shipping address. Coordinates are filled in by the
// geocoder at creation time and default to (0,0) when geocoding fails.
type Address struct {
	ID         string  `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	UserID     string  `json:"user_id" gorm:"index;type:varchar(36)"`
	Label      string  `json:"label" validate:"omitempty,max=50"`
	Street     string  `json:"street" validate:"required,max=200"`
	City       string  `json:"city" validate:"required,max=100"`
	Country    string  `json:"country" validate:"required,max=100"`
	PostalCode string  `json:"postal_code" validate:"omitempty,max=20"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	gorm.Model         // Embed gorm.Model for CreatedAt, UpdatedAt, DeletedAt
}

// FullText renders the address as a single line for geocoding.
func (a *Address) FullText() string {
	s := a.Street + ", " + a.City
	if a.PostalCode != "" {
		s += " " + a.PostalCode
	}
	return s + ", " + a.Country
}

// HasCoordinates reports whether geocoding produced a usable location.
func (a *Address) HasCoordinates() bool {
	return a.Latitude != 0 || a.Longitude != 0
}
