package engine

import (
	"fmt"
	"os"
	"path/filepath"

	"resourcedb/src/helpers"

	"go.uber.org/zap"
)

// ResourceStore persists resources one file each, at
// <DataDirectory>/<collection>/<resource id>.
type ResourceStore interface {
	Load(r *Resource, id string) error
	Save(r *Resource) error
	ResourcePath(collection, id string) string
	LoadCollection(c *Collection) error
	SaveCollection(c *Collection) error
}

type ResourceStorageEngine struct {
	DataDirectory string
	logger        *zap.SugaredLogger
}

// NewResourceStore returns a store rooted at dataDir. The root must exist.
func NewResourceStore(dataDir string, logger *zap.SugaredLogger) (*ResourceStorageEngine, error) {
	if !helpers.DirExists(dataDir) {
		return nil, fmt.Errorf("%w: %s", ErrRootNotFound, dataDir)
	}

	return &ResourceStorageEngine{
		DataDirectory: dataDir,
		logger:        logger,
	}, nil
}

func (e *ResourceStorageEngine) ResourcePath(collection, id string) string {
	return filepath.Join(e.DataDirectory, collection, id)
}

// Load reads the file for id in r's collection into r. On failure r is left
// in the LoadError state with its id and data cleared.
func (e *ResourceStorageEngine) Load(r *Resource, id string) error {
	path := e.ResourcePath(r.Type, id)

	content, err := helpers.ReadDataFile(path)
	if err != nil {
		r.ID = ""
		r.Data = ""
		r.State = StateLoadError
		e.logger.Debugw("Resource load failed", "collection", r.Type, "id", id, "error", err)
		return fmt.Errorf("%w: loading %s/%s: %v", ErrPersistence, r.Type, id, err)
	}

	r.ID = id
	r.Data = Canonicalize(string(content))
	r.State = StateLoaded
	return nil
}

// Save writes the canonical form of r's data and then reloads it, so that
// r.Data always matches what is on disk. The write is neither atomic nor
// synced. On failure r is left in the SaveError state.
func (e *ResourceStorageEngine) Save(r *Resource) error {
	path := e.ResourcePath(r.Type, r.ID)
	if err := helpers.WriteDataFile(path, []byte(Canonicalize(r.Data))); err != nil {
		r.State = StateSaveError
		e.logger.Warnw("Resource save failed", "collection", r.Type, "id", r.ID, "error", err)
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	if err := e.Load(r, r.ID); err != nil {
		return err
	}
	r.State = StateSaved
	return nil
}

// LoadCollection appends every resource file found in c's directory to c,
// in file name order. Files that fail to load are logged and skipped.
func (e *ResourceStorageEngine) LoadCollection(c *Collection) error {
	dir := filepath.Join(e.DataDirectory, c.Name)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("%w: reading collection %s: %v", ErrPersistence, c.Name, err)
	}

	for _, entry := range entries {
		if entry.IsDir() || helpers.IsHidden(entry.Name()) {
			continue
		}

		r := &Resource{Type: c.Name}
		if err := e.Load(r, entry.Name()); err != nil {
			e.logger.Warnw("Skipping unreadable resource", "collection", c.Name, "file", entry.Name(), "error", err)
			continue
		}
		c.Resources = append(c.Resources, r)
	}

	c.State = StateLoaded
	e.logger.Debugf("Loaded %d resources into collection %s", len(c.Resources), c.Name)
	return nil
}

// SaveCollection saves every resource of c. A failed save is recorded on the
// resource and does not stop the others.
func (e *ResourceStorageEngine) SaveCollection(c *Collection) error {
	var first error
	failed := 0
	for _, r := range c.Resources {
		if err := e.Save(r); err != nil {
			failed++
			if first == nil {
				first = err
			}
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d resources in %s not saved: %w", failed, len(c.Resources), c.Name, first)
	}
	c.State = StateSaved
	return nil
}
