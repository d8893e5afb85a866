package domain

import "time"

// Convoy is a scheduled batch of shipments moving together on one date in
// one direction. The pair (Date, Direction) is unique: at most one convoy
// per day per route. Convoys are created lazily when the first shipment
// for that date and direction is registered.
type Convoy struct {
	ID        string    `json:"id"`
	Date      time.Time `json:"date"` // day granularity
	Direction Direction `json:"direction"`
	CreatedAt time.Time `json:"created_at"`

	// ShipmentCount is derived at read time, not stored.
	ShipmentCount int `json:"shipment_count"`
}

// DateLabel renders the convoy date the way notification emails show it,
// e.g. "2 January 2026".
func (c *Convoy) DateLabel() string {
	return c.Date.Format("2 January 2006")
}
