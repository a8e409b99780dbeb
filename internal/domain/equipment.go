package domain

import "time"

// Equipment is a tracked vehicle or machine with an odometer-like usage
// counter. Usage only moves forward; corrections go through the registry's
// audited path.
type Equipment struct {
	ID           int32     `json:"id"`
	Plate        string    `json:"plate"`
	Brand        string    `json:"brand"`
	Model        string    `json:"model"`
	Year         int32     `json:"year"`
	TankCapacity int32     `json:"tank_capacity"`
	CurrentUsage int32     `json:"current_usage"`
	Active       bool      `json:"active"`
	CreatedOn    time.Time `json:"created_on"`
	UpdatedOn    time.Time `json:"updated_on"`
}
