package services

import (
	"log"

	"bazar/internal/models"
	"bazar/internal/repositories"
	"bazar/pkg/geocode"
)

// AddressService handles the saved-address book. Geocoding is best-effort:
// a failed lookup stores (0,0) and never fails address creation.
type AddressService struct {
	addressRepo repositories.AddressRepository
	geocoder    geocode.Geocoder
}

// NewAddressService creates a new AddressService. The geocoder may be nil.
func NewAddressService(addressRepo repositories.AddressRepository, geocoder geocode.Geocoder) *AddressService {
	return &AddressService{
		addressRepo: addressRepo,
		geocoder:    geocoder,
	}
}

// CreateAddress stores a new address for the user, geocoding it when a
// geocoder is configured.
func (s *AddressService) CreateAddress(userID string, address *models.Address) error {
	address.UserID = userID
	if s.geocoder != nil {
		lat, lon, err := s.geocoder.Geocode(address.FullText())
		if err != nil {
			log.Printf("Warning: geocoding failed for address %q: %v", address.FullText(), err)
			lat, lon = 0, 0
		}
		address.Latitude = lat
		address.Longitude = lon
	}
	return s.addressRepo.Create(address)
}

// ListAddresses returns all saved addresses of a user.
func (s *AddressService) ListAddresses(userID string) ([]models.Address, error) {
	return s.addressRepo.ListByUser(userID)
}
