package domain

// Status is the canonical shipment status vocabulary. Older flows used an
// alternate vocabulary (ARRIVED_IN_CANADA, OUT_FOR_DELIVERY, PICKED_UP);
// CanonicalStatus maps those legacy labels onto this one so the rest of the
// system only ever sees canonical values.
type Status string

const (
	StatusCreated          Status = "CREATED"
	StatusReceivedInNiger  Status = "RECEIVED_IN_NIGER"
	StatusReceivedInCanada Status = "RECEIVED_IN_CANADA"
	StatusReceivedInGuinea Status = "RECEIVED_IN_GUINEA"
	StatusInTransit        Status = "IN_TRANSIT"
	StatusInTransitStop    Status = "IN_TRANSIT_STOP"
	StatusInCustoms        Status = "IN_CUSTOMS"
	StatusReadyForPickup   Status = "READY_FOR_PICKUP"
	StatusDelivered        Status = "DELIVERED"
)

// legacyStatusLabels maps retired labels to their canonical equivalents.
// RECEIVED_IN_CANADA is authoritative for arrival at the Canadian hub and
// READY_FOR_PICKUP / DELIVERED for the last leg; the legacy labels only
// survive as accepted input.
var legacyStatusLabels = map[string]Status{
	"ARRIVED_IN_CANADA": StatusReceivedInCanada,
	"OUT_FOR_DELIVERY":  StatusReadyForPickup,
	"PICKED_UP":         StatusDelivered,
}

var allStatuses = []Status{
	StatusCreated,
	StatusReceivedInNiger,
	StatusReceivedInCanada,
	StatusReceivedInGuinea,
	StatusInTransit,
	StatusInTransitStop,
	StatusInCustoms,
	StatusReadyForPickup,
	StatusDelivered,
}

// CanonicalStatus resolves a status label, canonical or legacy, to the
// canonical value. Returns false for anything else.
func CanonicalStatus(label string) (Status, bool) {
	s := Status(label)
	for _, known := range allStatuses {
		if s == known {
			return s, true
		}
	}
	if mapped, ok := legacyStatusLabels[label]; ok {
		return mapped, true
	}
	return "", false
}

// AllStatuses returns the canonical statuses in forward pipeline order.
func AllStatuses() []Status {
	out := make([]Status, len(allStatuses))
	copy(out, allStatuses)
	return out
}

// EventType labels a shipment history event. Status-change events reuse the
// status vocabulary; free-text entries use EventCustom.
type EventType string

const EventCustom EventType = "CUSTOM"

// EventTypeFor returns the event type recorded for a transition to s.
func EventTypeFor(s Status) EventType {
	return EventType(s)
}
