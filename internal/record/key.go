package record

import (
	"encoding/json"
	"strconv"
)

// Key is the identity state of an entity.
// The zero value is Unsaved.
type Key struct {
	id        int64
	persisted bool
}

// Unsaved is the key of an entity with no stored row.
var Unsaved = Key{}

// Persisted returns the key of an entity stored under id.
func Persisted(id int64) Key {
	return Key{id: id, persisted: true}
}

// ID returns the stored primary key and whether there is one.
func (k Key) ID() (int64, bool) {
	return k.id, k.persisted
}

// IsPersisted reports whether the key refers to a stored row.
func (k Key) IsPersisted() bool {
	return k.persisted
}

func (k Key) String() string {
	if !k.persisted {
		return "unsaved"
	}
	return strconv.FormatInt(k.id, 10)
}

// MarshalJSON encodes an Unsaved key as null and a Persisted key as its id.
func (k Key) MarshalJSON() ([]byte, error) {
	if !k.persisted {
		return []byte("null"), nil
	}
	return json.Marshal(k.id)
}
