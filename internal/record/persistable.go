package record

import (
	"context"
	"errors"

	"github.com/jmoiron/sqlx"
)

// ErrNoProvider is returned by entities that were not built with a Provider.
var ErrNoProvider = errors.New("no connection provider")

// Provider supplies a connection scoped to one persistence operation.
// The caller closes the connection when the operation ends.
type Provider interface {
	Conn(ctx context.Context) (*sqlx.Conn, error)
}

// Persistable is the contract every entity type satisfies.
//
// T is the entity's pointer type. Get and All never touch the receiver's
// fields except its provider; they return brand-new values.
type Persistable[T any] interface {
	// Connection returns a handle from the entity's provider.
	Connection(ctx context.Context) (*sqlx.Conn, error)

	// Save inserts the entity when its key is Unsaved and updates it otherwise.
	Save(ctx context.Context) error

	// Delete removes the stored row. It returns false, and executes nothing,
	// when the key is Unsaved.
	Delete(ctx context.Context) (bool, error)

	// Get loads the row stored under pk. found is false when no row matches.
	Get(ctx context.Context, pk int64) (entity T, found bool, err error)

	// All loads every stored row in the store's natural order.
	All(ctx context.Context) ([]T, error)
}
