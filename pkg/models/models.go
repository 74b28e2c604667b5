package models

// Record is one discovered photo. Coordinates stay nil until the geodata
// lookup for the photo succeeds.
type Record struct {
	ID        string   `json:"id"`
	ImageURL  string   `json:"url"`
	Longitude *float64 `json:"x,omitempty"`
	Latitude  *float64 `json:"y,omitempty"`
}

// SetLocation records the photo's coordinates. Only the first call has an
// effect; a record is enriched at most once.
func (r *Record) SetLocation(latitude, longitude float64) bool {
	if r.HasLocation() {
		return false
	}
	r.Latitude = &latitude
	r.Longitude = &longitude
	return true
}

// HasLocation reports whether both coordinates are set
func (r *Record) HasLocation() bool {
	return r.Latitude != nil && r.Longitude != nil
}
