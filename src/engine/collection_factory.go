package engine

import "resourcedb/src/helpers"

type CollectionFactory interface {
	NewCollection(name string) *Collection
}

type ResourceFactory interface {
	NewResource(collection, data string) *Resource
}

type CollectionFactoryImpl struct{}

func NewCollectionFactory() CollectionFactory {
	return &CollectionFactoryImpl{}
}

func (f *CollectionFactoryImpl) NewCollection(name string) *Collection {
	return newCollection(name)
}

func newCollection(name string) *Collection {
	return &Collection{
		ID:        helpers.GenerateUUID(),
		Name:      name,
		Resources: []*Resource{},
		State:     StateLoaded,
	}
}

// ResourceFactoryImpl creates resources with fresh random ids.
type ResourceFactoryImpl struct{}

func NewResourceFactory() ResourceFactory {
	return &ResourceFactoryImpl{}
}

func (f *ResourceFactoryImpl) NewResource(collection, data string) *Resource {
	return &Resource{
		ID:    helpers.GenerateUUID(),
		Type:  collection,
		Data:  data,
		State: StateLoaded,
	}
}
