package notify

import "github.com/transsahel/colis-tracker/internal/pkg/strutil"

// PickupPoint is a partner location where receivers collect their parcels.
type PickupPoint struct {
	City    string
	Address string
	Hours   string
}

// pickupDirectory is the static directory of known pickup points, keyed by
// normalized city (strutil.NormalizeCity), so "Montréal", "montreal" and
// "MONTREAL" all resolve to the same entry. Cities without an entry get the
// generic contact-us fallback in the composed email.
var pickupDirectory = map[string]PickupPoint{
	"montreal": {
		City:    "Montréal",
		Address: "7240 Rue Saint-Hubert, Montréal, QC H2R 2N1",
		Hours:   "lun–sam 10h–19h",
	},
	"sherbrooke": {
		City:    "Sherbrooke",
		Address: "1650 Rue King Ouest, Sherbrooke, QC J1J 2C3",
		Hours:   "mar–sam 11h–18h",
	},
	"quebec": {
		City:    "Québec",
		Address: "325 Rue de la Couronne, Québec, QC G1K 6E1",
		Hours:   "lun–ven 10h–18h",
	},
	"laval": {
		City:    "Laval",
		Address: "1555 Boulevard Chomedey, Laval, QC H7V 3Z1",
		Hours:   "lun–sam 10h–19h",
	},
	"ottawa": {
		City:    "Ottawa",
		Address: "211 Montreal Road, Ottawa, ON K1L 8K1",
		Hours:   "lun–sam 10h–18h",
	},
	"niamey": {
		City:    "Niamey",
		Address: "Boulevard Mali Béro, quartier Plateau, Niamey",
		Hours:   "lun–sam 9h–18h",
	},
	"conakry": {
		City:    "Conakry",
		Address: "Avenue de la République, Kaloum, Conakry",
		Hours:   "lun–sam 9h–18h",
	},
}

// LookupPickupPoint finds the pickup point for a receiver city. The match
// is case-insensitive and diacritic-tolerant; ok is false for unknown
// cities and the caller must fall back to generic contact copy.
func LookupPickupPoint(city string) (PickupPoint, bool) {
	p, ok := pickupDirectory[strutil.NormalizeCity(city)]
	return p, ok
}
