package engine

import (
	"fmt"
	"math/rand/v2"
	"strings"
)

// Len is the number of resources in the collection.
func (c *Collection) Len() int {
	return len(c.Resources)
}

// Add appends r. The collection takes ownership and sets r.Type.
func (c *Collection) Add(r *Resource) {
	r.Type = c.Name
	c.Resources = append(c.Resources, r)
}

// Get returns the first resource with the given id.
func (c *Collection) Get(id string) (*Resource, bool) {
	for _, r := range c.Resources {
		if r.ID == id {
			return r, true
		}
	}
	return nil, false
}

// Delete removes the first resource with the given id from memory. The file
// on disk is left alone.
func (c *Collection) Delete(id string) bool {
	for i, r := range c.Resources {
		if r.ID == id {
			c.Resources = append(c.Resources[:i], c.Resources[i+1:]...)
			return true
		}
	}
	return false
}

// Update replaces the data of the resource with the given id.
func (c *Collection) Update(id, data string) (*Resource, error) {
	r, ok := c.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: resource %s in %s", ErrNotFound, id, c.Name)
	}
	r.Data = data
	return r, nil
}

// Clear drops every resource from memory.
func (c *Collection) Clear() {
	c.Resources = nil
}

// Reverse flips the order of the resources in place.
func (c *Collection) Reverse() {
	for i, j := 0, len(c.Resources)-1; i < j; i, j = i+1, j-1 {
		c.Resources[i], c.Resources[j] = c.Resources[j], c.Resources[i]
	}
}

// Randomise shuffles the resources in place. A nil rng uses the global source.
func (c *Collection) Randomise(rng *rand.Rand) {
	swap := func(i, j int) {
		c.Resources[i], c.Resources[j] = c.Resources[j], c.Resources[i]
	}
	if rng == nil {
		rand.Shuffle(len(c.Resources), swap)
		return
	}
	rng.Shuffle(len(c.Resources), swap)
}

// Search returns, in collection order, the resources whose data contains text.
func (c *Collection) Search(text string) []*Resource {
	var found []*Resource
	for _, r := range c.Resources {
		if strings.Contains(r.Data, text) {
			found = append(found, r)
		}
	}
	return found
}

// SearchComplex returns the resources whose data contains every one of texts.
func (c *Collection) SearchComplex(texts []string) []*Resource {
	var found []*Resource
	for _, r := range c.Resources {
		matched := true
		for _, text := range texts {
			if !strings.Contains(r.Data, text) {
				matched = false
				break
			}
		}
		if matched {
			found = append(found, r)
		}
	}
	return found
}
