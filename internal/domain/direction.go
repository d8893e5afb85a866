package domain

import "strings"

// Direction is a directed route pair a convoy (and its shipments) moves
// along.
type Direction string

const (
	DirectionNigerToCanada  Direction = "NE_TO_CA"
	DirectionCanadaToNiger  Direction = "CA_TO_NE"
	DirectionCanadaToGuinea Direction = "CA_TO_GN"
	DirectionGuineaToCanada Direction = "GN_TO_CA"
)

// ParseDirection validates a direction label.
func ParseDirection(label string) (Direction, bool) {
	switch d := Direction(strings.ToUpper(strings.TrimSpace(label))); d {
	case DirectionNigerToCanada, DirectionCanadaToNiger,
		DirectionCanadaToGuinea, DirectionGuineaToCanada:
		return d, true
	}
	return "", false
}

// countryCodes maps the country labels agents enter to route codes. Both
// French and English spellings of Guinea are accepted.
var countryCodes = map[string]string{
	"Niger":  "NE",
	"Canada": "CA",
	"Guinée": "GN",
	"Guinea": "GN",
}

// DirectionFor derives the direction from origin/destination country
// labels. Returns false when either country is unknown or the pair is not
// a served route.
func DirectionFor(origin, destination string) (Direction, bool) {
	o, ok := countryCodes[strings.TrimSpace(origin)]
	if !ok {
		return "", false
	}
	d, ok := countryCodes[strings.TrimSpace(destination)]
	if !ok {
		return "", false
	}
	return ParseDirection(o + "_TO_" + d)
}

// TrackingPrefix is the tracking-code prefix for shipments on this route.
func (d Direction) TrackingPrefix() string {
	return strings.ReplaceAll(string(d), "_TO_", "")
}

// TowardCanada reports whether the route's destination is Canada.
func (d Direction) TowardCanada() bool {
	return strings.HasSuffix(string(d), "_TO_CA")
}

// InvolvesGuinea reports whether either endpoint of the route is Guinea.
func (d Direction) InvolvesGuinea() bool {
	return strings.Contains(string(d), "GN")
}
