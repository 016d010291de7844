package engine

import "fmt"

// Clone returns an independent copy of r.
func (r *Resource) Clone() *Resource {
	clone := *r
	return &clone
}

// CopyTo returns a copy of r owned by the named collection. The id and
// data carry over; the copy is not yet persisted.
func (r *Resource) CopyTo(collection string) *Resource {
	clone := r.Clone()
	clone.Type = collection
	return clone
}

// IDOnly returns a copy of r that keeps only its identity.
func (r *Resource) IDOnly() *Resource {
	return &Resource{ID: r.ID, Type: r.Type, State: r.State}
}

// String is the row printed for a resource: id, collection, data.
func (r *Resource) String() string {
	return fmt.Sprintf("%s, %s, %s", r.ID, r.Type, r.Data)
}
