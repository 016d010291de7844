package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestSchemaDefaults(t *testing.T) {
	s := NewSchema("")
	assert.Equal(t, DefaultSchemaName, s.Name)
	assert.Equal(t, "0.2", s.Version)
	assert.Equal(t, 10, s.NumberOfResults)
	assert.NotEmpty(t, s.ID)
	assert.Empty(t, s.Collections())
}

func TestSchemaCreateAndGetCollection(t *testing.T) {
	s := NewSchema("test")

	patients, err := s.CreateCollection("Patient")
	require.NoError(t, err)
	_, err = s.CreateCollection("Observation")
	require.NoError(t, err)

	got, ok := s.GetCollection("Patient")
	require.True(t, ok)
	assert.Same(t, patients, got)

	_, ok = s.GetCollection("patient")
	assert.False(t, ok)

	_, err = s.CreateCollection("Patient")
	assert.ErrorIs(t, err, ErrCollectionExists)

	names := []string{}
	for _, c := range s.Collections() {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"Patient", "Observation"}, names)
}

func TestSchemaSetNumberOfResults(t *testing.T) {
	s := NewSchema("test")
	require.NoError(t, s.SetNumberOfResults(3))
	assert.Equal(t, 3, s.NumberOfResults)

	assert.ErrorIs(t, s.SetNumberOfResults(0), ErrInvalidNumberOfResults)
	assert.Equal(t, 3, s.NumberOfResults)
}

func TestSchemaSearch(t *testing.T) {
	s := NewSchema("test")
	a, _ := s.CreateCollection("A")
	b, _ := s.CreateCollection("B")
	a.Add(&Resource{ID: "1", Data: `{"city":"Leeds","name":"Smith"}`})
	b.Add(&Resource{ID: "2", Data: `{"city":"Leeds","name":"Jones"}`})

	found := s.Search([]string{"A", "B", "Nope"}, []string{"Leeds"})
	assert.Len(t, found["A"], 1)
	assert.Len(t, found["B"], 1)
	assert.NotContains(t, found, "Nope")

	found = s.Search([]string{"A", "B"}, []string{"Leeds", "Jones"})
	assert.Empty(t, found["A"])
	assert.Equal(t, "2", found["B"][0].ID)
}

func TestLoadSchemaWalksCollections(t *testing.T) {
	store := newTestStore(t, "Patient", "Observation", ".trash")
	root := store.DataDirectory
	require.NoError(t, os.WriteFile(filepath.Join(root, "Patient", "p1"), []byte(`{"a" : 1}`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "Patient", "p2"), []byte(`{"a":2}`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "stray.txt"), []byte(`x`), 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "Patient", "deeper", "still"), 0755))

	schemaStore := NewSchemaStore(root, zaptest.NewLogger(t).Sugar())
	s := NewSchema("test")
	require.NoError(t, schemaStore.LoadSchema(s, store))

	require.Len(t, s.Collections(), 2)
	_, ok := s.GetCollection(".trash")
	assert.False(t, ok)
	_, ok = s.GetCollection("deeper")
	assert.False(t, ok)

	patients, ok := s.GetCollection("Patient")
	require.True(t, ok)
	require.Equal(t, 2, patients.Len())
	assert.Equal(t, `{"a":1}`, patients.Resources[0].Data)
	assert.Equal(t, "Patient", patients.Resources[0].Type)

	observations, ok := s.GetCollection("Observation")
	require.True(t, ok)
	assert.Equal(t, 0, observations.Len())
}

func TestLoadSchemaMissingRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "missing")
	schemaStore := NewSchemaStore(root, zaptest.NewLogger(t).Sugar())

	err := schemaStore.LoadSchema(NewSchema("test"), nil)
	assert.ErrorIs(t, err, ErrRootNotFound)
}

func TestCreateCollectionDirectory(t *testing.T) {
	store := newTestStore(t)
	schemaStore := NewSchemaStore(store.DataDirectory, zaptest.NewLogger(t).Sugar())

	require.NoError(t, schemaStore.CreateCollectionDirectory("Patient"))
	require.NoError(t, schemaStore.CreateCollectionDirectory("Patient"))

	info, err := os.Stat(filepath.Join(store.DataDirectory, "Patient"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestSchemaMetadataRoundTrip(t *testing.T) {
	store := newTestStore(t)
	schemaStore := NewSchemaStore(store.DataDirectory, zaptest.NewLogger(t).Sugar())

	original := NewSchema("clinic")
	original.Author = "ward 9"
	require.NoError(t, original.SetNumberOfResults(25))
	require.NoError(t, schemaStore.SaveMetadata(original))
	assert.Equal(t, StateSaved, original.State)

	loaded := NewSchema("")
	require.NoError(t, schemaStore.LoadSchema(loaded, store))

	assert.Equal(t, original.ID, loaded.ID)
	assert.Equal(t, "clinic", loaded.Name)
	assert.Equal(t, "ward 9", loaded.Author)
	assert.Equal(t, 25, loaded.NumberOfResults)
	assert.Empty(t, loaded.Collections(), "metadata file is not a collection")
}

func TestLoadMetadataMissingFileKeepsDefaults(t *testing.T) {
	store := newTestStore(t)
	schemaStore := NewSchemaStore(store.DataDirectory, zaptest.NewLogger(t).Sugar())

	s := NewSchema("test")
	require.NoError(t, schemaStore.LoadMetadata(s))
	assert.Equal(t, DefaultNumberOfResults, s.NumberOfResults)
}

func TestMapToSchemaRejectsBadNumberOfResults(t *testing.T) {
	s := NewSchema("test")
	assert.Error(t, MapToSchema(map[string]interface{}{"number_of_results": "ten"}, s))
	assert.ErrorIs(t, MapToSchema(map[string]interface{}{"number_of_results": int32(-1)}, s), ErrInvalidNumberOfResults)
}
