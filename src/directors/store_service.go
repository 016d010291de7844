package directors

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"resourcedb/src/document"
	"resourcedb/src/engine"
	"resourcedb/src/helpers"
	"resourcedb/src/settings"

	"go.uber.org/zap"
)

// StoreService owns one loaded store: the schema, its storage engines and
// the optional journal. The methods are not synchronised; Execute is the
// entry point for callers that share a service.
type StoreService struct {
	schema            *engine.Schema
	resources         engine.ResourceStore
	schemas           engine.SchemaStore
	collectionFactory engine.CollectionFactory
	resourceFactory   engine.ResourceFactory
	journal           *engine.Journal
	sortStrategy      engine.SortStrategy
	settings          *settings.Arguments
	logger            *zap.SugaredLogger
	mu                sync.Mutex
}

// Open loads the store rooted at args.DataDir. The journal may be nil.
func Open(args *settings.Arguments, journal *engine.Journal, logger *zap.SugaredLogger) (*StoreService, error) {
	resources, err := engine.NewResourceStore(args.DataDir, logger)
	if err != nil {
		return nil, err
	}

	strategy, err := engine.ParseSortStrategy(args.SortStrategy)
	if err != nil {
		return nil, err
	}

	s := &StoreService{
		schema:            engine.NewSchema(args.SchemaName),
		resources:         resources,
		schemas:           engine.NewSchemaStore(args.DataDir, logger),
		collectionFactory: engine.NewCollectionFactory(),
		resourceFactory:   engine.NewResourceFactory(),
		journal:           journal,
		sortStrategy:      strategy,
		settings:          args,
		logger:            logger,
	}

	if args.NumberOfResults > 0 {
		if err := s.schema.SetNumberOfResults(args.NumberOfResults); err != nil {
			return nil, err
		}
	}

	if err := s.schemas.LoadSchema(s.schema, s.resources); err != nil {
		return nil, err
	}

	if _, ok := s.schema.GetCollection(engine.ResultCollection); !ok {
		if _, err := s.createCollection(engine.ResultCollection); err != nil {
			return nil, fmt.Errorf("failed to create %s collection: %w", engine.ResultCollection, err)
		}
	}

	logger.Infow("Store opened", "root", args.DataDir, "collections", len(s.schema.Collections()))
	return s, nil
}

// Execute runs one command while holding the store lock.
func (s *StoreService) Execute(command string) (*CommandResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return CommandDirector(s, command, s.logger)
}

func (s *StoreService) Schema() *engine.Schema {
	return s.schema
}

func (s *StoreService) collection(name string) (*engine.Collection, error) {
	c, ok := s.schema.GetCollection(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", engine.ErrInvalidCollection, name)
	}
	return c, nil
}

func (s *StoreService) history() (*engine.Collection, error) {
	return s.collection(engine.ResultCollection)
}

func (s *StoreService) record(command, collection, details string) {
	if s.journal == nil {
		return
	}
	if err := s.journal.AddEntry(command, collection, details); err != nil {
		s.logger.Warnw("Journal entry not written", "command", command, "error", err)
	}
}

func (s *StoreService) createCollection(name string) (*engine.Collection, error) {
	if err := s.schemas.CreateCollectionDirectory(name); err != nil {
		return nil, err
	}
	c := s.collectionFactory.NewCollection(name)
	if err := s.schema.AddCollection(c); err != nil {
		return nil, err
	}
	return c, nil
}

// CreateCollection registers a new collection and makes its directory.
func (s *StoreService) CreateCollection(name string) error {
	if strings.HasPrefix(name, ".") || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: %q is not a valid collection name", engine.ErrMalformedQuery, name)
	}
	if _, ok := s.schema.GetCollection(name); ok {
		return fmt.Errorf("%w: %s", engine.ErrCollectionExists, name)
	}

	if _, err := s.createCollection(name); err != nil {
		return err
	}
	s.record("create", name, "")
	s.logger.Infow("Collection created", "collection", name)
	return nil
}

// Select runs a query over every named collection. All names are checked
// before any collection is scanned.
func (s *StoreService) Select(req *QueryRequest) ([]string, error) {
	collections := make([]*engine.Collection, 0, len(req.Collections))
	for _, name := range req.Collections {
		c, err := s.collection(name)
		if err != nil {
			return nil, err
		}
		collections = append(collections, c)
	}

	history, err := s.history()
	if err != nil {
		return nil, err
	}

	var filter engine.Filter
	if req.Filter != nil {
		filter = req.Filter.Filter()
	}

	var rows []string
	for _, c := range collections {
		var matches []*engine.Resource
		switch {
		case filter != nil:
			matches = c.Scan(filter, req.Distinct)
		case req.Distinct && c.Len() > 0:
			matches = c.Resources[:1]
		default:
			matches = c.Resources
		}

		if req.Qualifier == QualifyCount {
			rows = append(rows, strconv.Itoa(len(matches)))
			continue
		}

		// the history collection may itself be queried
		matches = append([]*engine.Resource(nil), matches...)
		for i, r := range matches {
			if i >= s.schema.NumberOfResults {
				break
			}
			switch req.Qualifier {
			case QualifyAll:
				rows = append(rows, r.String())
				history.Add(r.CopyTo(engine.ResultCollection))
			case QualifyID:
				rows = append(rows, r.ID)
				history.Add(r.IDOnly())
			case QualifyData:
				rows = append(rows, r.Data)
				history.Add(r.IDOnly())
			}
		}
	}
	return rows, nil
}

// Get returns the resource with the given id and records it in the history.
func (s *StoreService) Get(id, collection string) (*engine.Resource, error) {
	c, err := s.collection(collection)
	if err != nil {
		return nil, err
	}
	history, err := s.history()
	if err != nil {
		return nil, err
	}

	r, ok := c.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: resource %s in %s", engine.ErrNotFound, id, collection)
	}
	history.Add(r.CopyTo(engine.ResultCollection))
	return r, nil
}

// readPayload reads a resource body from a file. Line breaks are dropped.
func (s *StoreService) readPayload(filename string) (string, error) {
	if !helpers.FileExists(filename, s.logger) {
		return "", fmt.Errorf("%w: file %s", engine.ErrNotFound, filename)
	}
	content, err := helpers.ReadDataFile(filename)
	if err != nil {
		return "", fmt.Errorf("%w: %v", engine.ErrPersistence, err)
	}
	return strings.ReplaceAll(string(content), "\n", ""), nil
}

func (s *StoreService) insert(c *engine.Collection, data string) (*engine.Resource, error) {
	r := s.resourceFactory.NewResource(c.Name, data)
	c.Add(r)
	if err := s.resources.Save(r); err != nil {
		return r, err
	}
	return r, nil
}

// Insert stores data as a new resource of collection and returns it.
func (s *StoreService) Insert(collection, data string) (*engine.Resource, error) {
	c, err := s.collection(collection)
	if err != nil {
		return nil, err
	}

	r, err := s.insert(c, data)
	if err != nil {
		return nil, err
	}
	s.record("insert", collection, r.ID)
	return r, nil
}

// InsertFile stores the content of filename as a new resource.
func (s *StoreService) InsertFile(collection, filename string) (*engine.Resource, error) {
	if _, err := s.collection(collection); err != nil {
		return nil, err
	}
	data, err := s.readPayload(filename)
	if err != nil {
		return nil, err
	}
	return s.Insert(collection, data)
}

// BulkLoad inserts the content of filename count times. Failed saves are
// logged and skipped; the number of resources saved is returned.
func (s *StoreService) BulkLoad(collection, filename string, count int) (int, error) {
	if count <= 0 {
		return 0, fmt.Errorf("%w: load count must be positive", engine.ErrMalformedQuery)
	}
	c, err := s.collection(collection)
	if err != nil {
		return 0, err
	}
	data, err := s.readPayload(filename)
	if err != nil {
		return 0, err
	}

	saved := 0
	for i := 0; i < count; i++ {
		r, err := s.insert(c, data)
		if err != nil {
			s.logger.Warnw("Bulk load skipped a resource", "collection", collection, "id", r.ID, "error", err)
			continue
		}
		saved++
	}
	s.record("load", collection, fmt.Sprintf("%d x %s", saved, filename))
	return saved, nil
}

// Update replaces the data of an existing resource and saves it.
func (s *StoreService) Update(collection, id, data string) (*engine.Resource, error) {
	c, err := s.collection(collection)
	if err != nil {
		return nil, err
	}

	r, err := c.Update(id, data)
	if err != nil {
		return nil, err
	}
	if err := s.resources.Save(r); err != nil {
		return nil, err
	}
	s.record("update", collection, id)
	return r, nil
}

// UpdateFile replaces the data of an existing resource with a file's content.
func (s *StoreService) UpdateFile(collection, id, filename string) (*engine.Resource, error) {
	if _, err := s.collection(collection); err != nil {
		return nil, err
	}
	data, err := s.readPayload(filename)
	if err != nil {
		return nil, err
	}
	return s.Update(collection, id, data)
}

// Copy copies every resource of from into to, keeping ids. The target is
// created when missing. Returns the number of resources saved.
func (s *StoreService) Copy(from, to string) (int, error) {
	if from == to {
		return 0, fmt.Errorf("%w: cannot copy %s onto itself", engine.ErrMalformedQuery, from)
	}
	source, err := s.collection(from)
	if err != nil {
		return 0, err
	}

	target, ok := s.schema.GetCollection(to)
	if !ok {
		if target, err = s.createCollection(to); err != nil {
			return 0, err
		}
	}

	saved := 0
	for _, r := range source.Resources {
		clone := r.CopyTo(to)
		target.Add(clone)
		if err := s.resources.Save(clone); err != nil {
			s.logger.Warnw("Copy skipped a resource", "from", from, "to", to, "id", r.ID, "error", err)
			continue
		}
		saved++
	}
	s.record("copy", to, "from "+from)
	return saved, nil
}

func (s *StoreService) Reverse(collection string) error {
	c, err := s.collection(collection)
	if err != nil {
		return err
	}
	c.Reverse()
	return nil
}

func (s *StoreService) Randomise(collection string) error {
	c, err := s.collection(collection)
	if err != nil {
		return err
	}
	c.Randomise(nil)
	return nil
}

// Order sorts a collection in memory by the value at path.
func (s *StoreService) Order(collection string, path document.Path, strategy engine.SortStrategy, reverse bool) error {
	c, err := s.collection(collection)
	if err != nil {
		return err
	}
	c.SortWith(strategy, path, reverse)
	s.logger.Debugw("Collection ordered", "collection", collection, "path", path.String(), "strategy", strategy)
	return nil
}

// SetNumberOfResults changes the result cap and persists it in the schema
// metadata.
func (s *StoreService) SetNumberOfResults(n int) error {
	if err := s.schema.SetNumberOfResults(n); err != nil {
		return err
	}
	if err := s.schemas.SaveMetadata(s.schema); err != nil {
		return err
	}
	s.record("results", "", strconv.Itoa(n))
	return nil
}

// History returns the rows of the Result collection. Entries kept as an id
// only print the id.
func (s *StoreService) History() ([]string, error) {
	history, err := s.history()
	if err != nil {
		return nil, err
	}

	rows := make([]string, 0, history.Len())
	for _, r := range history.Resources {
		if r.Data == "" {
			rows = append(rows, r.ID)
		} else {
			rows = append(rows, r.String())
		}
	}
	return rows, nil
}

func (s *StoreService) ClearHistory() error {
	history, err := s.history()
	if err != nil {
		return err
	}
	history.Clear()
	return nil
}

// Info describes the schema and the size of every collection.
func (s *StoreService) Info() []string {
	rows := []string{fmt.Sprintf("%s, %s by %s", s.schema.Name, s.schema.Version, s.schema.Author)}
	for _, c := range s.schema.Collections() {
		rows = append(rows, fmt.Sprintf("%s: %d entries", c.Name, c.Len()))
	}
	return rows
}

// Search returns the rows of the resources containing every text, per
// collection and capped like a select.
func (s *StoreService) Search(collections, texts []string) ([]string, error) {
	for _, name := range collections {
		if _, err := s.collection(name); err != nil {
			return nil, err
		}
	}

	found := s.schema.Search(collections, texts)
	var rows []string
	for _, name := range collections {
		for i, r := range found[name] {
			if i >= s.schema.NumberOfResults {
				break
			}
			rows = append(rows, r.String())
		}
	}
	return rows, nil
}

// Remove is not supported.
func (s *StoreService) Remove(collection string) error {
	return fmt.Errorf("%w: remove %s", engine.ErrNotImplemented, collection)
}

// Close releases the journal.
func (s *StoreService) Close() error {
	if s.journal == nil {
		return nil
	}
	return s.journal.Close()
}

// IsCommandError reports whether err only aborted the current command.
func IsCommandError(err error) bool {
	return errors.Is(err, engine.ErrNotFound) ||
		errors.Is(err, engine.ErrMalformedQuery) ||
		errors.Is(err, engine.ErrInvalidCollection) ||
		errors.Is(err, engine.ErrCollectionExists) ||
		errors.Is(err, engine.ErrNotImplemented) ||
		errors.Is(err, engine.ErrInvalidNumberOfResults)
}
