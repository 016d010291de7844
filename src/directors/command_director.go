package directors

import (
	"fmt"
	"strconv"
	"strings"

	"resourcedb/src/document"
	"resourcedb/src/engine"
	"resourcedb/src/helpers"

	"go.uber.org/zap"
)

// CommandResponse is what a command hands back to the shell or the server.
type CommandResponse struct {
	ResultCount int      `json:"resultCount"`
	Result      []string `json:"result"`
	// Exit asks the caller to end the session.
	Exit bool `json:"-"`
}

func rowsResponse(rows []string) *CommandResponse {
	if rows == nil {
		rows = []string{}
	}
	return &CommandResponse{ResultCount: len(rows), Result: rows}
}

func messageResponse(format string, args ...interface{}) *CommandResponse {
	return &CommandResponse{ResultCount: 0, Result: []string{fmt.Sprintf(format, args...)}}
}

func malformed(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", engine.ErrMalformedQuery, fmt.Sprintf(format, args...))
}

// CommandDirector parses one command line and runs it against the service.
// It must be called with the service lock held; see StoreService.Execute.
func CommandDirector(service *StoreService, command string, logger *zap.SugaredLogger) (*CommandResponse, error) {
	tokens := strings.Fields(command)
	if len(tokens) == 0 {
		return rowsResponse(nil), nil
	}

	logger.Debugw("Command received", "verb", tokens[0], "tokens", len(tokens))

	switch tokens[0] {
	case "exit":
		return &CommandResponse{Result: []string{}, Exit: true}, nil

	case "help":
		return rowsResponse(HelpText()), nil

	case "info":
		return rowsResponse(service.Info()), nil

	case "history":
		rows, err := service.History()
		if err != nil {
			return nil, err
		}
		return rowsResponse(rows), nil

	case "clear":
		if err := service.ClearHistory(); err != nil {
			return nil, err
		}
		return messageResponse("%s cleared", engine.ResultCollection), nil

	case "create":
		if len(tokens) != 2 {
			return nil, malformed("usage: create <collection>")
		}
		if err := service.CreateCollection(tokens[1]); err != nil {
			return nil, err
		}
		return messageResponse("Collection '%s' created", tokens[1]), nil

	case "remove":
		if len(tokens) != 2 {
			return nil, malformed("usage: remove <collection>")
		}
		return nil, service.Remove(tokens[1])

	case "results":
		if len(tokens) != 3 || tokens[1] != "=" {
			return nil, malformed("usage: results = <n>")
		}
		n, err := strconv.Atoi(tokens[2])
		if err != nil {
			return nil, malformed("%q is not a number", tokens[2])
		}
		if err := service.SetNumberOfResults(n); err != nil {
			return nil, err
		}
		return messageResponse("Number of results set to %d", n), nil

	case "reverse", "randomise":
		if len(tokens) != 2 {
			return nil, malformed("usage: %s <collection>", tokens[0])
		}
		var err error
		if tokens[0] == "reverse" {
			err = service.Reverse(tokens[1])
		} else {
			err = service.Randomise(tokens[1])
		}
		if err != nil {
			return nil, err
		}
		return messageResponse("Collection '%s' reordered", tokens[1]), nil

	case "select", "selectDistinct":
		req, err := ParseSelect(tokens, tokens[0] == "selectDistinct")
		if err != nil {
			return nil, err
		}
		rows, err := service.Select(req)
		if err != nil {
			return nil, err
		}
		return rowsResponse(rows), nil

	case "get":
		if len(tokens) != 4 || tokens[2] != "from" {
			return nil, malformed("usage: get <id> from <collection>")
		}
		r, err := service.Get(tokens[1], tokens[3])
		if err != nil {
			return nil, err
		}
		return rowsResponse([]string{r.String()}), nil

	case "insert":
		return directInsert(service, tokens)

	case "update":
		return directUpdate(service, tokens)

	case "copy":
		if len(tokens) != 4 || tokens[2] != "to" {
			return nil, malformed("usage: copy <collection> to <collection>")
		}
		n, err := service.Copy(tokens[1], tokens[3])
		if err != nil {
			return nil, err
		}
		return messageResponse("Copied %d resources from '%s' to '%s'", n, tokens[1], tokens[3]), nil

	case "load":
		if len(tokens) != 5 || tokens[3] != "into" {
			return nil, malformed("usage: load <n> <filename> into <collection>")
		}
		count, err := strconv.Atoi(tokens[1])
		if err != nil {
			return nil, malformed("%q is not a number", tokens[1])
		}
		n, err := service.BulkLoad(tokens[4], tokens[2], count)
		if err != nil {
			return nil, err
		}
		return messageResponse("Loaded %d resources into '%s'", n, tokens[4]), nil

	case "order", "orderFast", "orderPartition":
		return directOrder(service, tokens)

	case "search":
		if len(tokens) < 4 || tokens[len(tokens)-2] != "in" {
			return nil, malformed("usage: search <text> in <collection[,collection...]>")
		}
		rows, err := service.Search(helpers.SplitList(tokens[len(tokens)-1]), tokens[1:len(tokens)-2])
		if err != nil {
			return nil, err
		}
		return rowsResponse(rows), nil
	}

	return nil, malformed("unknown command %q, type help for the command list", tokens[0])
}

// directInsert handles
//
//	insert json <json> into <collection>
//	insert file <filename> into <collection>
func directInsert(service *StoreService, tokens []string) (*CommandResponse, error) {
	n := len(tokens)
	if n < 5 || tokens[n-2] != "into" {
		return nil, malformed("usage: insert json|file <payload> into <collection>")
	}
	collection := tokens[n-1]

	switch tokens[1] {
	case "json":
		r, err := service.Insert(collection, strings.Join(tokens[2:n-2], " "))
		if err != nil {
			return nil, err
		}
		return rowsResponse([]string{r.ID}), nil
	case "file":
		if n != 5 {
			return nil, malformed("usage: insert file <filename> into <collection>")
		}
		r, err := service.InsertFile(collection, tokens[2])
		if err != nil {
			return nil, err
		}
		return rowsResponse([]string{r.ID}), nil
	}
	return nil, malformed("insert takes json or file, not %q", tokens[1])
}

// directUpdate handles
//
//	update <collection> json <json> where id = <id>
//	update <collection> file <filename> where id = <id>
func directUpdate(service *StoreService, tokens []string) (*CommandResponse, error) {
	n := len(tokens)
	if n < 8 || tokens[n-4] != "where" || tokens[n-3] != "id" || tokens[n-2] != "=" {
		return nil, malformed("usage: update <collection> json|file <payload> where id = <id>")
	}
	collection, id := tokens[1], tokens[n-1]

	var (
		r   *engine.Resource
		err error
	)
	switch tokens[2] {
	case "json":
		r, err = service.Update(collection, id, strings.Join(tokens[3:n-4], " "))
	case "file":
		if n != 8 {
			return nil, malformed("usage: update <collection> file <filename> where id = <id>")
		}
		r, err = service.UpdateFile(collection, id, tokens[3])
	default:
		return nil, malformed("update takes json or file, not %q", tokens[2])
	}
	if err != nil {
		return nil, err
	}
	return rowsResponse([]string{r.String()}), nil
}

// directOrder handles order, orderFast and orderPartition:
//
//	order <collection> on [segment ...] <attribute> [reverse]
//
// A single dotted path such as name.family is split into its segments.
func directOrder(service *StoreService, tokens []string) (*CommandResponse, error) {
	path := tokens[min(3, len(tokens)):]
	reverse := len(path) > 0 && path[len(path)-1] == "reverse"
	if reverse {
		path = path[:len(path)-1]
	}
	if len(tokens) < 4 || tokens[2] != "on" || len(path) == 0 {
		return nil, malformed("usage: %s <collection> on [segment ...] <attribute> [reverse]", tokens[0])
	}

	attribute := document.Path(path)
	if len(path) == 1 {
		attribute = document.ParsePath(path[0])
	}

	strategy := service.sortStrategy
	switch tokens[0] {
	case "orderFast":
		strategy = engine.SortNative
	case "orderPartition":
		strategy = engine.SortPartition
	}

	if err := service.Order(tokens[1], attribute, strategy, reverse); err != nil {
		return nil, err
	}
	return messageResponse("Collection '%s' ordered on %s", tokens[1], attribute), nil
}
