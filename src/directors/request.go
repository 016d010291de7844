package directors

import (
	"fmt"
	"strconv"

	"resourcedb/src/document"
	"resourcedb/src/engine"
	"resourcedb/src/helpers"
)

// Qualifier selects what a query prints for each match.
type Qualifier string

const (
	QualifyAll   Qualifier = "*"
	QualifyID    Qualifier = "id"
	QualifyData  Qualifier = "data"
	QualifyCount Qualifier = "count"
)

func parseQualifier(s string) (Qualifier, error) {
	switch q := Qualifier(s); q {
	case QualifyAll, QualifyID, QualifyData, QualifyCount:
		return q, nil
	}
	return "", fmt.Errorf("%w: unknown qualifier %q, expected *, id, data or count", engine.ErrMalformedQuery, s)
}

// FilterClause is the where part of a select. Segments holds zero, one or
// two enclosing attributes, outermost first.
type FilterClause struct {
	Segments  []string
	Attribute string
	Operator  engine.Operator
	Value     string
	Low       float64
	High      float64
	IsRange   bool
}

// Filter returns the engine filter for the clause.
func (f *FilterClause) Filter() engine.Filter {
	path := document.Path(append(append([]string(nil), f.Segments...), f.Attribute))
	if f.IsRange {
		return engine.NewRangeFilter(path, f.Low, f.High)
	}
	return engine.NewValueFilter(path, f.Operator, f.Value)
}

type QueryRequest struct {
	Qualifier   Qualifier
	Collections []string
	Filter      *FilterClause
	// Distinct keeps only the first match of each collection.
	Distinct bool
}

// ParseSelect reads the positional select shapes. tokens[0] is the verb and
// is not checked here.
//
//	select q from cs
//	select q from cs where attr op value
//	select q from cs where seg attr op value
//	select q from cs where attr = low : high
//	select q from cs where seg1 with seg2 attr op value
//	select q from cs where seg attr = low : high
//	select q from cs where seg1 with seg2 attr = low : high
func ParseSelect(tokens []string, distinct bool) (*QueryRequest, error) {
	if len(tokens) < 4 {
		return nil, fmt.Errorf("%w: select needs a qualifier and a collection", engine.ErrMalformedQuery)
	}
	if tokens[2] != "from" {
		return nil, fmt.Errorf("%w: expected 'from' but found %q", engine.ErrMalformedQuery, tokens[2])
	}

	qualifier, err := parseQualifier(tokens[1])
	if err != nil {
		return nil, err
	}

	collections := helpers.SplitList(tokens[3])
	if len(collections) == 0 {
		return nil, fmt.Errorf("%w: no collection named", engine.ErrMalformedQuery)
	}

	req := &QueryRequest{
		Qualifier:   qualifier,
		Collections: collections,
		Distinct:    distinct,
	}
	if len(tokens) == 4 {
		return req, nil
	}

	if tokens[4] != "where" {
		return nil, fmt.Errorf("%w: expected 'where' but found %q", engine.ErrMalformedQuery, tokens[4])
	}

	clause := tokens[5:]
	switch {
	case len(tokens) == 8:
		req.Filter, err = valueClause(nil, clause)
	case len(tokens) == 9:
		req.Filter, err = valueClause(clause[:1], clause[1:])
	case len(tokens) == 10:
		req.Filter, err = rangeClause(nil, clause)
	case len(tokens) == 11 && tokens[6] == "with":
		req.Filter, err = valueClause([]string{clause[0], clause[2]}, clause[3:])
	case len(tokens) == 11:
		req.Filter, err = rangeClause(clause[:1], clause[1:])
	case len(tokens) == 13 && tokens[6] == "with":
		req.Filter, err = rangeClause([]string{clause[0], clause[2]}, clause[3:])
	default:
		return nil, fmt.Errorf("%w: unrecognised where clause %v", engine.ErrMalformedQuery, clause)
	}
	if err != nil {
		return nil, err
	}
	return req, nil
}

// valueClause reads "attr op value".
func valueClause(segments, clause []string) (*FilterClause, error) {
	op, err := engine.ParseOperator(clause[1])
	if err != nil {
		return nil, err
	}
	return &FilterClause{
		Segments:  segments,
		Attribute: clause[0],
		Operator:  op,
		Value:     clause[2],
	}, nil
}

// rangeClause reads "attr = low : high". Bounds are inclusive.
func rangeClause(segments, clause []string) (*FilterClause, error) {
	if clause[1] != string(engine.OpEqual) || clause[3] != ":" {
		return nil, fmt.Errorf("%w: a range reads 'attr = low : high'", engine.ErrMalformedQuery)
	}

	low, err := strconv.ParseFloat(clause[2], 64)
	if err != nil {
		return nil, fmt.Errorf("%w: range bound %q is not a number", engine.ErrMalformedQuery, clause[2])
	}
	high, err := strconv.ParseFloat(clause[4], 64)
	if err != nil {
		return nil, fmt.Errorf("%w: range bound %q is not a number", engine.ErrMalformedQuery, clause[4])
	}
	if low > high {
		return nil, fmt.Errorf("%w: range low %v is above high %v", engine.ErrMalformedQuery, low, high)
	}

	return &FilterClause{
		Segments:  segments,
		Attribute: clause[0],
		Low:       low,
		High:      high,
		IsRange:   true,
	}, nil
}
