package kryptos

import (
	"errors"
	"fmt"
	"strconv"

	"go.uber.org/multierr"
)

// ErrorKind classifies a Problem.
type ErrorKind string

const (
	// MalformedJSON is raised when the input is not parseable JSON, or when a
	// value has the wrong JSON type.
	MalformedJSON ErrorKind = "MalformedJSON"
	// MissingField is raised when a required field is absent.
	MissingField ErrorKind = "MissingField"
	// UnknownVariant is raised when a closed enumeration or a tagged union
	// discriminant holds a value outside of its set.
	UnknownVariant ErrorKind = "UnknownVariant"
	// InvalidNumericString is raised when a decimal amount does not parse.
	InvalidNumericString ErrorKind = "InvalidNumericString"
	// InvariantViolation is raised when a cross-field rule does not hold.
	InvariantViolation ErrorKind = "InvariantViolation"
	// UnorderedInput is raised when aggregation input is not timestamp-ascending.
	UnorderedInput ErrorKind = "UnorderedInput"
)

// Problem is a single validation or decoding failure.
//
// Path locates the offending field (e.g. "incomingAssets[0].toAccount"), Name
// carries the invariant name for InvariantViolation or the rejected value for
// UnknownVariant.
type Problem struct {
	Kind   ErrorKind
	Path   string
	Name   string
	Detail string
	Err    error // underlying parse error, if any
}

func (p *Problem) Error() string {
	msg := string(p.Kind)
	if p.Name != "" {
		msg += fmt.Sprintf("(%q)", p.Name)
	}
	if p.Path != "" {
		msg += " at " + p.Path
	}
	if p.Detail != "" {
		msg += ": " + p.Detail
	}
	return msg
}

func (p *Problem) Unwrap() error { return p.Err }

// Problems lists every Problem aggregated in err, in the order they were found.
// err may wrap the aggregate, e.g. with fmt.Errorf("...: %w", err).
func Problems(err error) []*Problem {
	var list []*Problem
	for _, e := range multierr.Errors(err) {
		var p *Problem
		switch {
		case errors.As(e, &p) && p == e:
			list = append(list, p)
		case errors.Unwrap(e) != nil:
			list = append(list, Problems(errors.Unwrap(e))...)
		case errors.As(e, &p):
			list = append(list, p)
		}
	}
	return list
}

// HasProblem reports whether err contains a problem of the given kind. An
// empty name matches any name.
func HasProblem(err error, kind ErrorKind, name string) bool {
	for _, p := range Problems(err) {
		if p.Kind == kind && (name == "" || p.Name == name) {
			return true
		}
	}
	return false
}

// report accumulates problems found under a base path.
//
// Its zero value is ready to use. Nested values are checked with at, which
// shares the same accumulator.
type report struct {
	path string
	errs *error
}

func newReport() report {
	return report{errs: new(error)}
}

// at returns a report for the field key below the current path.
func (r report) at(key string) report {
	if r.errs == nil {
		r.errs = new(error)
	}
	return report{path: joinPath(r.path, key), errs: r.errs}
}

// index returns a report for the i-th element of the current path.
func (r report) index(i int) report {
	if r.errs == nil {
		r.errs = new(error)
	}
	return report{path: r.path + "[" + strconv.Itoa(i) + "]", errs: r.errs}
}

func (r report) add(p *Problem) {
	if p.Path == "" {
		p.Path = r.path
	}
	*r.errs = multierr.Append(*r.errs, p)
}

// missing records a MissingField problem for key.
func (r report) missing(key string) {
	r.add(&Problem{Kind: MissingField, Path: joinPath(r.path, key), Name: key})
}

// violation records a broken invariant on the current path.
func (r report) violation(name, format string, args ...any) {
	r.add(&Problem{Kind: InvariantViolation, Path: r.path, Name: name, Detail: fmt.Sprintf(format, args...)})
}

// violationAt records a broken invariant on field key.
func (r report) violationAt(key, name, format string, args ...any) {
	r.add(&Problem{Kind: InvariantViolation, Path: joinPath(r.path, key), Name: name, Detail: fmt.Sprintf(format, args...)})
}

// err returns the aggregated problems, or nil.
func (r report) err() error {
	if r.errs == nil {
		return nil
	}
	return *r.errs
}

func joinPath(base, key string) string {
	if base == "" {
		return key
	}
	return base + "." + key
}
