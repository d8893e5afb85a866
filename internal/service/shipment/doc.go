// Package shipment implements the shipment status machine: creation with
// tracking-code generation, status transitions with append-only history
// events, custom event annotations, and the detached best-effort receiver
// notification fired on each transition.
package shipment
