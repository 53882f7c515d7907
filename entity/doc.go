// Package entity holds the records of the campaign platform and the registry
// describing them.
//
// Every entity is a plain struct with bun, msgpack and json tags, a UUID
// primary key and created/updated stamps. Pointers implement Model, values
// implement Named:
//
//	d := entity.DescriptorOf[entity.Signature]()
//	d.Plural               // "signatures"
//	d.Policy.DefaultLimit  // {0 20}, signatures page by default
//
// Validate applies the business rules checked before a create or update is
// sent and again by the backend. Failures are go-errors validation errors
// carrying the per field messages.
package entity
