// Package record defines the persistence contract shared by every entity
// type: the Persistable interface, the Key identity state, and the two error
// classes.
//
// # Identity
//
// A Key is either Unsaved or Persisted(id). Save switches on it: an Unsaved
// key means INSERT, a Persisted key means UPDATE. Only an entity's own
// persistence operations may change its key; callers read it through PK().
//
// # Errors
//
// Statement failures (malformed SQL, driver-level constraint violations) are
// returned as *StatementError carrying the driver text. They are programming
// errors: never retried, and the process boundary is expected to terminate.
//
// Expected absence is not an error. Get reports found=false and Delete on an
// unsaved entity reports false.
package record
