// Package filter selects items returned by the Discourse client with
// expr-lang expressions such as `posts_count > 10 and daysSince(last_posted_at) < 30`.
//
// Items are evaluated by their JSON form, so the identifiers available in an
// expression are the JSON member names of the item (id, title, username,
// created_at and so on). Members kept in an entry's extra map are promoted to
// the top level. Besides the expr-lang builtins the following helpers exist:
//
//	daysSince(date)         whole days between date and now
//	daysAgo(n)              the time n days before now
//	parseDate("2006-01-02") a date from a string
//	includes(text, part)    case-insensitive substring test
package filter

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/file"
	"github.com/expr-lang/expr/vm"
)

// Filter is a compiled filter expression
type Filter struct {
	program    *vm.Program
	expression string
}

// Option configures filter compilation
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock sets the clock used by the date helpers
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// Compile compiles a filter expression
func Compile(expression string, opts ...Option) (*Filter, error) {
	if strings.TrimSpace(expression) == "" {
		return nil, &CompilationError{
			Expression: expression,
			Reason:     "empty expression",
			Position:   -1,
		}
	}

	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	compileOpts := append([]expr.Option{
		expr.Env(map[string]any{}),
		expr.AllowUndefinedVariables(),
	}, helpers(o.now)...)

	program, err := expr.Compile(expression, compileOpts...)
	if err != nil {
		cerr := &CompilationError{
			Expression: expression,
			Reason:     err.Error(),
			Position:   -1,
			Err:        err,
		}
		var fileErr *file.Error
		if errors.As(err, &fileErr) {
			cerr.Reason = fileErr.Message
			cerr.Position = fileErr.Column
		}
		return nil, cerr
	}

	return &Filter{
		program:    program,
		expression: expression,
	}, nil
}

// Expression returns the original expression
func (f *Filter) Expression() string {
	return f.expression
}

// String returns the original expression
func (f *Filter) String() string {
	return f.expression
}

// Match reports whether item satisfies the filter.
func (f *Filter) Match(item any) (bool, error) {
	env, err := itemEnv(item)
	if err != nil {
		return false, &EvaluationError{
			Expression: f.expression,
			Item:       fmt.Sprintf("%T", item),
			Reason:     err.Error(),
			Err:        err,
		}
	}

	result, err := expr.Run(f.program, env)
	if err != nil {
		return false, &EvaluationError{
			Expression: f.expression,
			Item:       describe(env),
			Reason:     err.Error(),
			Err:        err,
		}
	}

	matched, ok := result.(bool)
	if !ok {
		return false, &EvaluationError{
			Expression: f.expression,
			Item:       describe(env),
			Reason:     fmt.Sprintf("expression returned %T, not bool", result),
		}
	}
	return matched, nil
}

// Apply returns the items that satisfy f, keeping their order. A nil filter
// matches everything.
func Apply[T any](f *Filter, items []T) ([]T, error) {
	if f == nil {
		return items, nil
	}

	matched := make([]T, 0, len(items))
	for _, item := range items {
		ok, err := f.Match(item)
		if err != nil {
			return nil, err
		}
		if ok {
			matched = append(matched, item)
		}
	}
	return matched, nil
}

// itemEnv turns item into the variables of an expression run.
func itemEnv(item any) (map[string]any, error) {
	if m, ok := item.(map[string]any); ok {
		return m, nil
	}

	data, err := json.Marshal(item)
	if err != nil {
		return nil, fmt.Errorf("encoding item: %w", err)
	}
	var env map[string]any
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("item is not an object: %w", err)
	}
	if env == nil {
		env = map[string]any{}
	}

	if extra, ok := env["extra"].(map[string]any); ok {
		delete(env, "extra")
		for k, v := range extra {
			if _, exists := env[k]; !exists {
				env[k] = v
			}
		}
	}
	return env, nil
}

// describe names an item in error messages.
func describe(env map[string]any) string {
	var name string
	for _, key := range []string{"title", "username", "name", "slug"} {
		if s, ok := env[key].(string); ok && s != "" {
			name = s
			break
		}
	}

	id, hasID := env["id"]
	switch {
	case hasID && name != "":
		return fmt.Sprintf("item %v (%s)", id, name)
	case hasID:
		return fmt.Sprintf("item %v", id)
	case name != "":
		return fmt.Sprintf("item '%s'", name)
	default:
		return "item"
	}
}

func helpers(now func() time.Time) []expr.Option {
	return []expr.Option{
		expr.Function("daysSince", func(params ...any) (any, error) {
			t, err := toTime(params[0])
			if err != nil {
				return nil, fmt.Errorf("daysSince: %w", err)
			}
			return int(now().Sub(t).Hours() / 24), nil
		}, new(func(any) int)),
		expr.Function("daysAgo", func(params ...any) (any, error) {
			return now().AddDate(0, 0, -params[0].(int)), nil
		}, new(func(int) time.Time)),
		expr.Function("parseDate", func(params ...any) (any, error) {
			return toTime(params[0])
		}, new(func(string) time.Time)),
		expr.Function("includes", func(params ...any) (any, error) {
			return strings.Contains(strings.ToLower(params[0].(string)), strings.ToLower(params[1].(string))), nil
		}, new(func(string, string) bool)),
	}
}

// toTime accepts a time.Time or a date string in RFC 3339 or 2006-01-02 form.
func toTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case string:
		if parsed, err := time.Parse(time.RFC3339, t); err == nil {
			return parsed, nil
		}
		parsed, err := time.Parse("2006-01-02", t)
		if err != nil {
			return time.Time{}, fmt.Errorf("unrecognized date %q", t)
		}
		return parsed, nil
	case nil:
		return time.Time{}, errors.New("date is null")
	default:
		return time.Time{}, fmt.Errorf("unsupported date value %T", v)
	}
}
