// Package domain holds the core types of the Trans-Sahel colis tracking
// platform: shipments, their history events, convoys, users, and the
// status/direction vocabularies shared by every layer.
//
// Rules for this package:
//   - No imports of other internal packages. Domain types are the
//     bottom of the dependency graph.
//   - No I/O, no logging. Pure data and small derivation helpers only.
//   - JSON tags here define the external API representation; handlers
//     must not redeclare shadow structs for these types.
package domain
