// Package filter selects movies with expr-lang boolean expressions such as
//
//	AcademyAwardWins > 0 && RuntimeInMinutes < 200
//	Name contains "Two Towers"
//	lower(Name) startsWith "the"
//
// Expressions are type-checked against model.Movie at compile time, so a
// misspelled field fails before any request is made.
package filter

import (
	"fmt"
	"slices"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/Sternrassler/oneapi-client/pkg/model"
)

// CompilationError reports an expression that could not be compiled.
type CompilationError struct {
	Expression string
	Reason     string
	Err        error
}

func (e *CompilationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("filter %q: %s: %v", e.Expression, e.Reason, e.Err)
	}
	return fmt.Sprintf("filter %q: %s", e.Expression, e.Reason)
}

func (e *CompilationError) Unwrap() error {
	return e.Err
}

// MovieFilter is a compiled movie predicate.
type MovieFilter struct {
	expression string
	program    *vm.Program
}

// Compile compiles a boolean expression over model.Movie fields.
func Compile(expression string) (*MovieFilter, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return nil, &CompilationError{Expression: expression, Reason: "empty expression"}
	}

	program, err := expr.Compile(expression, expr.Env(model.Movie{}), expr.AsBool())
	if err != nil {
		return nil, &CompilationError{Expression: expression, Reason: "failed to compile expression", Err: err}
	}

	return &MovieFilter{expression: expression, program: program}, nil
}

// String returns the source expression.
func (f *MovieFilter) String() string {
	return f.expression
}

// Match evaluates the filter against one movie.
func (f *MovieFilter) Match(movie model.Movie) (bool, error) {
	out, err := expr.Run(f.program, movie)
	if err != nil {
		return false, fmt.Errorf("evaluate filter on movie %s: %w", movie.ID, err)
	}
	return out.(bool), nil
}

// Apply returns the matching movies sorted by name, then id.
// A nil filter matches everything.
func Apply(f *MovieFilter, movies map[model.MovieID]model.Movie) ([]model.Movie, error) {
	matched := make([]model.Movie, 0, len(movies))
	for _, m := range movies {
		if f != nil {
			ok, err := f.Match(m)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
		}
		matched = append(matched, m)
	}

	slices.SortFunc(matched, func(a, b model.Movie) int {
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return matched, nil
}
