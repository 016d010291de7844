package engine

// State is the lifecycle tag of a Resource, Collection or Schema.
type State string

const (
	StateLoaded    State = "loaded"
	StateSaved     State = "Saved"
	StateLoadError State = "LoadError"
	StateSaveError State = "SaveError"
)

const (
	// DefaultRoot is the storage root used when none is configured.
	DefaultRoot = "Collection"
	// ResultCollection holds the history of query results.
	ResultCollection = "Result"

	DefaultSchemaName      = "Schema"
	DefaultSchemaVersion   = "0.2"
	DefaultSchemaAuthor    = "resourcedb"
	DefaultNumberOfResults = 10
)

// Resource is a single JSON document owned by exactly one Collection.
type Resource struct {
	// ID names the file the resource lives in.
	ID string
	// Type is the name of the owning collection.
	Type  string
	Data  string
	State State
}

// Collection is an ordered, named group of resources. Order is insertion
// order until a reverse, randomise or sort changes it.
type Collection struct {
	ID        string
	Name      string
	Resources []*Resource
	State     State
}

// Schema is the registry of collections for one store.
type Schema struct {
	ID              string
	Name            string
	Version         string
	Author          string
	NumberOfResults int
	State           State

	collections []*Collection
	byName      map[string]*Collection
}
