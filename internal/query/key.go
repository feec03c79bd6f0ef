package query

import (
	"strconv"
	"strings"
)

// Key identifies a cached query: a resource name plus an optional member id.
// Collection keys have an empty ID.
type Key struct {
	Resource string
	ID       string
}

// Collection returns the key for the whole resource, e.g. "/item-types".
func Collection(resource string) Key { return Key{Resource: resource} }

// Member returns the key for one resource member, e.g. "/item-types/7".
func Member(resource string, id int64) Key {
	return Key{Resource: resource, ID: strconv.FormatInt(id, 10)}
}

// Sub returns a key for a sub-query of resource that is not a plain member,
// e.g. the items of one user and item type.
func Sub(resource string, parts ...string) Key {
	return Key{Resource: resource, ID: strings.Join(parts, "/")}
}

// String renders the key as a path.
func (k Key) String() string {
	if k.ID == "" {
		return k.Resource
	}
	return k.Resource + "/" + k.ID
}
