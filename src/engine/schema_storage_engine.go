package engine

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"resourcedb/src/helpers"

	"go.uber.org/zap"
)

// MetadataFile holds the schema metadata inside the storage root. It is
// hidden so the collection walk never mistakes it for a collection.
const MetadataFile = ".schema"

// SchemaStore discovers collections under the storage root and keeps the
// schema metadata next to them.
type SchemaStore interface {
	LoadSchema(schema *Schema, resources ResourceStore) error
	CreateCollectionDirectory(name string) error
	SaveMetadata(schema *Schema) error
	LoadMetadata(schema *Schema) error
}

type SchemaStorageEngine struct {
	DataDirectory string
	logger        *zap.SugaredLogger
}

func NewSchemaStore(dataDir string, logger *zap.SugaredLogger) *SchemaStorageEngine {
	return &SchemaStorageEngine{
		DataDirectory: dataDir,
		logger:        logger,
	}
}

// LoadSchema walks the storage root. Every first level directory becomes a
// collection and every file inside it a resource. A missing root is an
// error the caller is expected to treat as fatal.
func (e *SchemaStorageEngine) LoadSchema(schema *Schema, resources ResourceStore) error {
	if !helpers.DirExists(e.DataDirectory) {
		return fmt.Errorf("%w: %s", ErrRootNotFound, e.DataDirectory)
	}

	if err := e.LoadMetadata(schema); err != nil {
		e.logger.Warnw("Ignoring unreadable schema metadata", "error", err)
	}

	err := filepath.WalkDir(e.DataDirectory, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == e.DataDirectory || !d.IsDir() {
			return nil
		}
		if helpers.IsHidden(path) {
			return filepath.SkipDir
		}

		name := d.Name()
		collection, ok := schema.GetCollection(name)
		if !ok {
			if collection, err = schema.CreateCollection(name); err != nil {
				return err
			}
		}

		if err := resources.LoadCollection(collection); err != nil {
			e.logger.Warnw("Collection could not be loaded", "collection", name, "error", err)
		}
		e.logger.Infow("Collection loaded", "collection", name, "resources", collection.Len())

		// nested directories are not collections
		return filepath.SkipDir
	})
	if err != nil {
		return fmt.Errorf("%w: walking %s: %v", ErrPersistence, e.DataDirectory, err)
	}

	schema.State = StateLoaded
	return nil
}

// CreateCollectionDirectory makes the directory for a collection. An
// existing directory is not an error.
func (e *SchemaStorageEngine) CreateCollectionDirectory(name string) error {
	dir := filepath.Join(e.DataDirectory, name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("%w: creating collection directory %s: %v", ErrPersistence, dir, err)
	}
	return nil
}

// SaveMetadata writes the schema metadata as BSON.
func (e *SchemaStorageEngine) SaveMetadata(schema *Schema) error {
	encoded, err := helpers.EncodeBSON(SchemaToMap(schema))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	if err := helpers.WriteDataFile(filepath.Join(e.DataDirectory, MetadataFile), encoded); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	schema.State = StateSaved
	return nil
}

// LoadMetadata reads the schema metadata. A missing file leaves the
// defaults in place.
func (e *SchemaStorageEngine) LoadMetadata(schema *Schema) error {
	path := filepath.Join(e.DataDirectory, MetadataFile)

	data, err := helpers.ReadDataFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	decoded, err := helpers.DecodeBSON(data)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return MapToSchema(decoded, schema)
}

func SchemaToMap(schema *Schema) map[string]interface{} {
	return map[string]interface{}{
		"id":                schema.ID,
		"name":              schema.Name,
		"version":           schema.Version,
		"author":            schema.Author,
		"number_of_results": int64(schema.NumberOfResults),
	}
}

// MapToSchema copies decoded metadata onto schema. Collections are never
// part of the metadata; they come from the directory walk.
func MapToSchema(data map[string]interface{}, schema *Schema) error {
	if id, ok := data["id"].(string); ok && id != "" {
		schema.ID = id
	}
	if name, ok := data["name"].(string); ok && name != "" {
		schema.Name = name
	}
	if version, ok := data["version"].(string); ok && version != "" {
		schema.Version = version
	}
	if author, ok := data["author"].(string); ok {
		schema.Author = author
	}

	switch n := data["number_of_results"].(type) {
	case nil:
	case int32:
		return schema.SetNumberOfResults(int(n))
	case int64:
		return schema.SetNumberOfResults(int(n))
	case float64:
		return schema.SetNumberOfResults(int(n))
	default:
		return fmt.Errorf("invalid number_of_results field of type %T", n)
	}
	return nil
}
