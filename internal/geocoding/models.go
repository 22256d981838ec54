// Package geocoding resolves free-form location input to coordinates and
// back using a pluggable geocoder.
package geocoding

import "errors"

// Geocoding errors.
var (
	ErrNotFound            = errors.New("location not found")
	ErrEmptyQuery          = errors.New("empty location query")
	ErrProviderUnavailable = errors.New("geocoding provider unavailable")
)

// Location is a resolved place.
type Location struct {
	Lat         float64 `json:"latitude"`
	Lon         float64 `json:"longitude"`
	DisplayName string  `json:"displayName"`
	PlaceID     int64   `json:"placeId,omitempty"`
	Type        string  `json:"type,omitempty"`
	Importance  float64 `json:"importance,omitempty"`
	Address     Address `json:"address"`

	// Source identifies the resolver ("nominatim" or "coordinates" when
	// the input was a raw lat,lon pair).
	Source string `json:"source"`
}

// Address holds the common structured address fields a geocoder returns.
type Address struct {
	Road        string `json:"road,omitempty"`
	City        string `json:"city,omitempty"`
	State       string `json:"state,omitempty"`
	Postcode    string `json:"postcode,omitempty"`
	Country     string `json:"country,omitempty"`
	CountryCode string `json:"countryCode,omitempty"`
}
