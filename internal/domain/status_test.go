package domain

import "testing"

func TestCanonicalStatus(t *testing.T) {
	cases := []struct {
		label string
		want  Status
		ok    bool
	}{
		{"CREATED", StatusCreated, true},
		{"RECEIVED_IN_NIGER", StatusReceivedInNiger, true},
		{"IN_TRANSIT_STOP", StatusInTransitStop, true},
		{"DELIVERED", StatusDelivered, true},

		// legacy vocabulary maps onto the canonical enum
		{"ARRIVED_IN_CANADA", StatusReceivedInCanada, true},
		{"OUT_FOR_DELIVERY", StatusReadyForPickup, true},
		{"PICKED_UP", StatusDelivered, true},

		{"", "", false},
		{"delivered", "", false}, // labels are case-sensitive
		{"LOST", "", false},
	}
	for _, tc := range cases {
		got, ok := CanonicalStatus(tc.label)
		if ok != tc.ok || got != tc.want {
			t.Errorf("CanonicalStatus(%q) = (%q, %v), want (%q, %v)", tc.label, got, ok, tc.want, tc.ok)
		}
	}
}

func TestEventTypeFor(t *testing.T) {
	if EventTypeFor(StatusInCustoms) != EventType("IN_CUSTOMS") {
		t.Errorf("EventTypeFor(IN_CUSTOMS) = %q", EventTypeFor(StatusInCustoms))
	}
}

func TestDirectionFor(t *testing.T) {
	cases := []struct {
		origin, destination string
		want                Direction
		ok                  bool
	}{
		{"Niger", "Canada", DirectionNigerToCanada, true},
		{"Canada", "Niger", DirectionCanadaToNiger, true},
		{"Canada", "Guinée", DirectionCanadaToGuinea, true},
		{"Canada", "Guinea", DirectionCanadaToGuinea, true},
		{"Guinée", "Canada", DirectionGuineaToCanada, true},
		{"Niger", "Guinée", "", false}, // not a served route
		{"France", "Canada", "", false},
	}
	for _, tc := range cases {
		got, ok := DirectionFor(tc.origin, tc.destination)
		if ok != tc.ok || got != tc.want {
			t.Errorf("DirectionFor(%q, %q) = (%q, %v), want (%q, %v)",
				tc.origin, tc.destination, got, ok, tc.want, tc.ok)
		}
	}
}

func TestDirectionHelpers(t *testing.T) {
	if got := DirectionNigerToCanada.TrackingPrefix(); got != "NECA" {
		t.Errorf("TrackingPrefix = %q, want NECA", got)
	}
	if !DirectionGuineaToCanada.TowardCanada() {
		t.Error("GN_TO_CA should be toward Canada")
	}
	if DirectionCanadaToNiger.TowardCanada() {
		t.Error("CA_TO_NE should not be toward Canada")
	}
	if !DirectionCanadaToGuinea.InvolvesGuinea() {
		t.Error("CA_TO_GN should involve Guinea")
	}
	if DirectionNigerToCanada.InvolvesGuinea() {
		t.Error("NE_TO_CA should not involve Guinea")
	}
}
