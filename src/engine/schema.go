package engine

import (
	"fmt"

	"resourcedb/src/helpers"
)

// NewSchema returns an empty registry with default metadata.
func NewSchema(name string) *Schema {
	if name == "" {
		name = DefaultSchemaName
	}
	return &Schema{
		ID:              helpers.GenerateUUID(),
		Name:            name,
		Version:         DefaultSchemaVersion,
		Author:          DefaultSchemaAuthor,
		NumberOfResults: DefaultNumberOfResults,
		State:           StateLoaded,
		byName:          make(map[string]*Collection),
	}
}

// Collections returns the registered collections in registration order.
func (s *Schema) Collections() []*Collection {
	return s.collections
}

func (s *Schema) GetCollection(name string) (*Collection, bool) {
	c, ok := s.byName[name]
	return c, ok
}

// CreateCollection registers a new, empty collection named name.
func (s *Schema) CreateCollection(name string) (*Collection, error) {
	c := newCollection(name)
	if err := s.AddCollection(c); err != nil {
		return nil, err
	}
	return c, nil
}

// AddCollection registers c. Names are unique and registration is permanent.
func (s *Schema) AddCollection(c *Collection) error {
	if _, exists := s.byName[c.Name]; exists {
		return fmt.Errorf("%w: %s", ErrCollectionExists, c.Name)
	}
	s.collections = append(s.collections, c)
	s.byName[c.Name] = c
	return nil
}

// SetNumberOfResults changes the result cap applied when printing queries.
func (s *Schema) SetNumberOfResults(n int) error {
	if n <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidNumberOfResults, n)
	}
	s.NumberOfResults = n
	return nil
}

// Search runs a substring search over each named collection. Unknown names
// are skipped. A single text uses Search, several use SearchComplex.
func (s *Schema) Search(collections []string, texts []string) map[string][]*Resource {
	found := make(map[string][]*Resource)
	for _, name := range collections {
		c, ok := s.GetCollection(name)
		if !ok {
			continue
		}
		if len(texts) == 1 {
			found[name] = c.Search(texts[0])
		} else {
			found[name] = c.SearchComplex(texts)
		}
	}
	return found
}
