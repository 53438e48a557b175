// Package driver holds the registry of entity kinds ("drivers") the
// inventory accepts.
//
// A driver name such as "pool" or "basicserver" is the first path segment
// of every entity route and the first segment of an entity reference
// ("/pool/p1"). The registry is filled once at start-up, from the drivers
// section of config.yaml or the built-in set, and frozen before the API
// starts serving. After Freeze it is read-only and safe for concurrent use.
package driver
