// Package entity implements the inventory's resource-management core.
//
// An entity is a uniquely named object of a registered driver (see package
// driver). Entities carry typed attributes and sit in a containment graph:
// a pool may contain servers, a rack may contain switches, and a pool may
// even contain another pool. The graph lives in the Store; this package
// only ever references entities by name and never holds owning pointers
// between them.
//
// The package is layered:
//
//   - Store is the persistence contract. SQLiteStore implements it over
//     the tables created by the migrations package.
//   - Resolver turns a name, optionally with an expected driver, into a
//     live entity or one of ErrNotFound, ErrTypeMismatch, ErrUnknownDriver.
//   - Service applies the bulk policies: List, Create (partial success,
//     reporting pre-existing names as a warning), Delete (all or nothing)
//     and Insert (containment, all members must exist).
//   - Serialize, Reference and Describe render entities into the JSON
//     shapes returned by the API.
//
// Bulk operations issue one store call per item and are not wrapped in a
// single transaction. Each store call is atomic on its own.
//
// Errors returned by the Service are *Error values. Use errors.Is with the
// package sentinels to classify them; Error.Message is safe to show to
// clients.
package entity
