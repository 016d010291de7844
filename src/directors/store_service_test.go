package directors

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"resourcedb/src/engine"
	"resourcedb/src/settings"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func testArguments(t *testing.T, collections ...string) *settings.Arguments {
	t.Helper()

	root := t.TempDir()
	for _, name := range collections {
		require.NoError(t, os.MkdirAll(filepath.Join(root, name), 0755))
	}
	return &settings.Arguments{DataDir: root, NumberOfResults: 10, SortStrategy: "native"}
}

func openService(t *testing.T, args *settings.Arguments) *StoreService {
	t.Helper()

	service, err := Open(args, nil, zaptest.NewLogger(t).Sugar())
	require.NoError(t, err)
	t.Cleanup(func() { service.Close() })
	return service
}

func run(t *testing.T, service *StoreService, command string) []string {
	t.Helper()

	resp, err := service.Execute(command)
	require.NoError(t, err, command)
	return resp.Result
}

func insert(t *testing.T, service *StoreService, collection, data string) string {
	t.Helper()

	rows := run(t, service, "insert json "+data+" into "+collection)
	require.Len(t, rows, 1)
	return rows[0]
}

func TestOpenRequiresRoot(t *testing.T) {
	args := testArguments(t)
	args.DataDir = filepath.Join(args.DataDir, "missing")

	_, err := Open(args, nil, zaptest.NewLogger(t).Sugar())
	assert.ErrorIs(t, err, engine.ErrRootNotFound)
}

func TestOpenCreatesResultCollection(t *testing.T) {
	args := testArguments(t, "Patient")
	service := openService(t, args)

	_, ok := service.Schema().GetCollection(engine.ResultCollection)
	assert.True(t, ok)
	assert.DirExists(t, filepath.Join(args.DataDir, engine.ResultCollection))
}

func TestInsertAndSelect(t *testing.T) {
	service := openService(t, testArguments(t, "Patient"))

	ann := insert(t, service, "Patient", `{"name":"Ann","age":42}`)
	insert(t, service, "Patient", `{"name":"Bob","age":17}`)
	assert.Len(t, ann, 36)

	assert.Equal(t, []string{ann}, run(t, service, "select id from Patient where age > 40"))
	assert.Equal(t, []string{`{"name":"Ann","age":42}`}, run(t, service, "select data from Patient where name = Ann"))
	assert.Equal(t, []string{ann + `, Patient, {"name":"Ann","age":42}`}, run(t, service, "select * from Patient where age = 40 : 50"))
	assert.Equal(t, []string{"2"}, run(t, service, "select count from Patient"))
	assert.Equal(t, []string{"1"}, run(t, service, "select count from Patient where age < 18"))
	assert.Equal(t, []string{"1"}, run(t, service, "selectDistinct count from Patient"))
}

func TestInsertJSONWithSpaces(t *testing.T) {
	service := openService(t, testArguments(t, "Patient"))

	insert(t, service, "Patient", `{ "name" : "Ann", "age" : 42 }`)
	assert.Equal(t, []string{"1"}, run(t, service, "select count from Patient where age = 42"))
}

func TestSelectSegments(t *testing.T) {
	service := openService(t, testArguments(t, "Patient"))

	insert(t, service, "Patient", `{"name":{"family":"Smith"},"contact":{"address":{"city":"Leeds"}}}`)
	insert(t, service, "Patient", `{"name":{"family":"Jones"},"contact":{"address":{"city":"York"}}}`)

	assert.Equal(t, []string{"1"}, run(t, service, "select count from Patient where name family = Smith"))
	assert.Equal(t, []string{"1"}, run(t, service, "select count from Patient where contact with address city = York"))
	assert.Equal(t, []string{"2"}, run(t, service, "select count from Patient where contact with address city != Hull"))
}

func TestSelectChecksEveryCollectionFirst(t *testing.T) {
	service := openService(t, testArguments(t, "Patient"))
	insert(t, service, "Patient", `{"age":1}`)

	_, err := service.Execute("select * from Patient,Missing")
	assert.ErrorIs(t, err, engine.ErrInvalidCollection)
	assert.Empty(t, run(t, service, "history"))
}

func TestSelectOverSeveralCollections(t *testing.T) {
	service := openService(t, testArguments(t, "Patient", "Observation"))
	insert(t, service, "Patient", `{"age":1}`)
	insert(t, service, "Observation", `{"age":2}`)
	insert(t, service, "Observation", `{"age":3}`)

	assert.Equal(t, []string{"1", "2"}, run(t, service, "select count from Patient,Observation"))
	assert.Len(t, run(t, service, "selectDistinct id from Patient,Observation"), 2)
}

func TestHistory(t *testing.T) {
	service := openService(t, testArguments(t, "Patient"))
	id := insert(t, service, "Patient", `{"age":1}`)

	run(t, service, "select id from Patient")
	run(t, service, "select * from Patient")
	run(t, service, "select count from Patient")
	run(t, service, "get "+id+" from Patient")

	assert.Equal(t, []string{
		id,
		id + `, Result, {"age":1}`,
		id + `, Result, {"age":1}`,
	}, run(t, service, "history"))

	run(t, service, "clear")
	assert.Empty(t, run(t, service, "history"))
}

func TestResultCapIsPersisted(t *testing.T) {
	args := testArguments(t, "Patient")
	service := openService(t, args)
	for i := 0; i < 3; i++ {
		insert(t, service, "Patient", `{"age":1}`)
	}

	run(t, service, "results = 2")
	assert.Len(t, run(t, service, "select id from Patient"), 2)
	assert.Equal(t, []string{"3"}, run(t, service, "select count from Patient"))

	_, err := service.Execute("results = 0")
	assert.ErrorIs(t, err, engine.ErrInvalidNumberOfResults)

	reopened := openService(t, args)
	assert.Equal(t, 2, reopened.Schema().NumberOfResults)
	assert.Equal(t, []string{"3"}, run(t, reopened, "select count from Patient"))
}

func TestGetUpdate(t *testing.T) {
	service := openService(t, testArguments(t, "Patient"))
	id := insert(t, service, "Patient", `{"age":1}`)

	_, err := service.Execute("get nobody from Patient")
	assert.ErrorIs(t, err, engine.ErrNotFound)

	rows := run(t, service, `update Patient json {"age" : 2} where id = `+id)
	assert.Equal(t, []string{id + `, Patient, {"age":2}`}, rows)
	assert.Equal(t, []string{id + `, Patient, {"age":2}`}, run(t, service, "get "+id+" from Patient"))

	_, err = service.Execute(`update Patient json {"age":3} where id = nobody`)
	assert.ErrorIs(t, err, engine.ErrNotFound)

	_, err = service.Execute(`update Patient json {"age":3} where name = Ann`)
	assert.ErrorIs(t, err, engine.ErrMalformedQuery)
}

func TestFilePayloads(t *testing.T) {
	service := openService(t, testArguments(t, "Patient"))
	file := filepath.Join(t.TempDir(), "patient.json")
	require.NoError(t, os.WriteFile(file, []byte("{\n\"age\":7\n}\n"), 0644))

	id := run(t, service, "insert file "+file+" into Patient")[0]
	assert.Equal(t, []string{`{"age":7}`}, run(t, service, "select data from Patient"))

	assert.Equal(t, []string{"Loaded 3 resources into 'Patient'"}, run(t, service, "load 3 "+file+" into Patient"))
	assert.Equal(t, []string{"4"}, run(t, service, "select count from Patient where age = 7"))

	run(t, service, "update Patient file "+file+" where id = "+id)

	_, err := service.Execute("insert file " + filepath.Join(t.TempDir(), "missing") + " into Patient")
	assert.ErrorIs(t, err, engine.ErrNotFound)

	_, err = service.Execute("load 0 " + file + " into Patient")
	assert.ErrorIs(t, err, engine.ErrMalformedQuery)
}

func TestCopy(t *testing.T) {
	args := testArguments(t, "Patient")
	service := openService(t, args)
	id := insert(t, service, "Patient", `{"age":1}`)

	assert.Equal(t, []string{"Copied 1 resources from 'Patient' to 'Archive'"}, run(t, service, "copy Patient to Archive"))
	assert.Equal(t, []string{id + `, Archive, {"age":1}`}, run(t, service, "get "+id+" from Archive"))
	assert.FileExists(t, filepath.Join(args.DataDir, "Archive", id))

	_, err := service.Execute("copy Patient to Patient")
	assert.ErrorIs(t, err, engine.ErrMalformedQuery)
	_, err = service.Execute("copy Missing to Archive")
	assert.ErrorIs(t, err, engine.ErrInvalidCollection)
}

func TestOrder(t *testing.T) {
	service := openService(t, testArguments(t, "Patient"))
	for _, doc := range []string{`{"age":3}`, `{"age":10}`, `{"name":"x"}`, `{"age":2}`} {
		insert(t, service, "Patient", doc)
	}

	run(t, service, "order Patient on age")
	assert.Equal(t, []string{`{"name":"x"}`, `{"age":2}`, `{"age":3}`, `{"age":10}`}, run(t, service, "select data from Patient"))

	run(t, service, "orderPartition Patient on age reverse")
	assert.Equal(t, []string{`{"age":10}`, `{"age":3}`, `{"age":2}`, `{"name":"x"}`}, run(t, service, "select data from Patient"))

	run(t, service, "reverse Patient")
	assert.Equal(t, []string{`{"name":"x"}`, `{"age":2}`, `{"age":3}`, `{"age":10}`}, run(t, service, "select data from Patient"))

	run(t, service, "randomise Patient")
	assert.Len(t, run(t, service, "select data from Patient"), 4)

	_, err := service.Execute("order Patient by age")
	assert.ErrorIs(t, err, engine.ErrMalformedQuery)

	_, err = service.Execute("order Patient on reverse")
	assert.ErrorIs(t, err, engine.ErrMalformedQuery)
}

func TestOrderOnSegments(t *testing.T) {
	service := openService(t, testArguments(t, "Patient"))
	for _, doc := range []string{
		`{"contact":{"address":{"city":"York"}}}`,
		`{"contact":{"address":{"city":"Leeds"}}}`,
		`{"contact":{}}`,
	} {
		insert(t, service, "Patient", doc)
	}

	assert.Equal(t, []string{"Collection 'Patient' ordered on contact.address.city"},
		run(t, service, "order Patient on contact address city"))
	assert.Equal(t, []string{
		`{"contact":{}}`,
		`{"contact":{"address":{"city":"Leeds"}}}`,
		`{"contact":{"address":{"city":"York"}}}`,
	}, run(t, service, "select data from Patient"))

	run(t, service, "orderPartition Patient on contact.address.city reverse")
	assert.Equal(t, []string{
		`{"contact":{"address":{"city":"York"}}}`,
		`{"contact":{"address":{"city":"Leeds"}}}`,
		`{"contact":{}}`,
	}, run(t, service, "select data from Patient"))
}

func TestOrderStrategiesAgreeOnTies(t *testing.T) {
	service := openService(t, testArguments(t, "Patient"))
	for i := 0; i < 6; i++ {
		insert(t, service, "Patient", fmt.Sprintf(`{"k":%d,"n":%d}`, i%2, i))
	}

	run(t, service, "orderFast Patient on k reverse")
	native := run(t, service, "select data from Patient")
	run(t, service, "randomise Patient")
	run(t, service, "order Patient on n")
	run(t, service, "orderPartition Patient on k reverse")
	assert.Equal(t, native, run(t, service, "select data from Patient"))
}

func TestSearch(t *testing.T) {
	service := openService(t, testArguments(t, "Patient"))
	insert(t, service, "Patient", `{"name":"Ann Smith"}`)
	bob := insert(t, service, "Patient", `{"name":"Bob Smith"}`)

	assert.Len(t, run(t, service, "search Smith in Patient"), 2)
	assert.Equal(t, []string{bob + `, Patient, {"name":"Bob Smith"}`}, run(t, service, "search Smith Bob in Patient"))

	_, err := service.Execute("search Smith in Missing")
	assert.ErrorIs(t, err, engine.ErrInvalidCollection)
}

func TestCollectionCommands(t *testing.T) {
	args := testArguments(t)
	service := openService(t, args)

	run(t, service, "create Patient")
	assert.DirExists(t, filepath.Join(args.DataDir, "Patient"))

	_, err := service.Execute("create Patient")
	assert.ErrorIs(t, err, engine.ErrCollectionExists)
	_, err = service.Execute("create .hidden")
	assert.ErrorIs(t, err, engine.ErrMalformedQuery)

	insert(t, service, "Patient", `{"age":1}`)
	info := run(t, service, "info")
	assert.Equal(t, "Schema, 0.2 by resourcedb", info[0])
	assert.Contains(t, info, "Patient: 1 entries")

	_, err = service.Execute("remove Patient")
	assert.ErrorIs(t, err, engine.ErrNotImplemented)
	assert.True(t, IsCommandError(err))
}

func TestMiscCommands(t *testing.T) {
	service := openService(t, testArguments(t))

	resp, err := service.Execute("exit")
	require.NoError(t, err)
	assert.True(t, resp.Exit)

	assert.Equal(t, HelpText(), run(t, service, "help"))
	assert.Empty(t, run(t, service, "   "))

	_, err = service.Execute("drop Patient")
	assert.ErrorIs(t, err, engine.ErrMalformedQuery)
	_, err = service.Execute("insert yaml a into Patient")
	assert.ErrorIs(t, err, engine.ErrMalformedQuery)
}

func TestJournalRecordsMutations(t *testing.T) {
	args := testArguments(t)
	journal, err := engine.NewJournal(filepath.Join(t.TempDir(), "store.journal"))
	require.NoError(t, err)

	service, err := Open(args, journal, zaptest.NewLogger(t).Sugar())
	require.NoError(t, err)

	run(t, service, "create Patient")
	id := insert(t, service, "Patient", `{"age":1}`)
	run(t, service, "select * from Patient")
	path := journal.Path()
	require.NoError(t, service.Close())

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), `"command":"create","collection":"Patient"`)
	assert.Contains(t, string(content), `"command":"insert","collection":"Patient","details":"`+id+`"`)
	assert.NotContains(t, string(content), "select")
}
