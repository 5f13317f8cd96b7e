// internal/models/property.go
package models

// Property is a saved listing. Numeric listing facts are pointers so an
// unknown value stays NULL instead of collapsing to zero.
type Property struct {
	ID        int64    `json:"id"`
	Address   string   `json:"address"`
	MLSNumber string   `json:"mls_number"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Beds      *int     `json:"beds"`
	Baths     *int     `json:"baths"`
	Sqft      *int     `json:"sqft"`
	YearBuilt *int     `json:"year_built"`
	Notes     string   `json:"notes"`
	CreatedAt string   `json:"created_at"`
	UpdatedAt string   `json:"updated_at"`
}
