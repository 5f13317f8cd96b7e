// internal/models/scenario.go
package models

import "encoding/json"

// Scenario is a named set of simulation assumptions attached to a property.
// Params is the raw params document; it round-trips through storage without
// reordering or losing unknown fields.
type Scenario struct {
	ID         int64           `json:"id"`
	PropertyID int64           `json:"property_id"`
	Name       string          `json:"name"`
	Params     json.RawMessage `json:"params"`
	CreatedAt  string          `json:"created_at"`
	UpdatedAt  string          `json:"updated_at"`
}
