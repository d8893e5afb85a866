// Package convoy implements bulk status propagation across a convoy's
// shipments: whole-convoy updates and city-scoped updates. The bulk path
// is intentionally cheaper than the single-shipment path; it does not
// append per-shipment history events.
package convoy
