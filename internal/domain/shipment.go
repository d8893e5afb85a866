package domain

import "time"

// Shipment is one physical parcel in transit.
//
// The tracking code is globally unique and immutable after creation.
// Status is always one of the canonical enum values, never empty.
type Shipment struct {
	ID           string `json:"id"`
	TrackingCode string `json:"tracking_code"`

	ReceiverName    string  `json:"receiver_name"`
	ReceiverEmail   string  `json:"receiver_email"`
	ReceiverPhone   string  `json:"receiver_phone"`
	ReceiverAddress string  `json:"receiver_address"`
	ReceiverCity    string  `json:"receiver_city"`
	PostalCode      string  `json:"postal_code"`
	WeightKg        float64 `json:"weight_kg"`
	Notes           string  `json:"notes,omitempty"`

	Status          Status `json:"status"`
	CurrentLocation string `json:"current_location"`

	OriginCountry      string  `json:"origin_country"`
	DestinationCountry string  `json:"destination_country"`
	ConvoyID           *string `json:"convoy_id,omitempty"`

	// ThankYouEmailSent is the one-shot flag for the post-delivery
	// thank-you email.
	ThankYouEmailSent bool `json:"thank_you_email_sent"`

	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Direction derives the shipment's route from its country labels.
func (s *Shipment) Direction() (Direction, bool) {
	return DirectionFor(s.OriginCountry, s.DestinationCountry)
}

// ShipmentEvent is one append-only history entry for a shipment. Events
// are never updated or removed except by the cascading admin delete of
// their shipment.
type ShipmentEvent struct {
	ID          string    `json:"id"`
	ShipmentID  string    `json:"shipment_id"`
	Type        EventType `json:"type"`
	Description string    `json:"description"`
	Location    string    `json:"location,omitempty"`

	// OccurredAt defaults to creation time but may be backdated when an
	// agent records an event after the fact.
	OccurredAt time.Time `json:"occurred_at"`
	CreatedAt  time.Time `json:"created_at"`
}
