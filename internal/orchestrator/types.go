// Package orchestrator runs independently authored analyzers in dependency
// order. Every execution attempt resolves to exactly one Result; faults are
// converted to data here and never propagate to the caller.
package orchestrator

import (
	"context"
	"encoding/json"
	"time"

	"modplan/internal/errors"
)

// Status is the final state of one analyzer
type Status string

const (
	StatusSuccess Status = "success"
	StatusSkipped Status = "skipped"
	StatusError   Status = "error"
)

// Skip reasons that are not specific to one dependency or input
const (
	ReasonDeclined  = "declined"
	ReasonCancelled = "cancelled"
)

// Result is the outcome of one analyzer. Data is set only on success; Reason
// explains a skip or an error.
type Result struct {
	ID       string           `json:"id"`
	Status   Status           `json:"status"`
	Data     any              `json:"data,omitempty"`
	Reason   string           `json:"reason,omitempty"`
	Code     errors.ErrorCode `json:"code,omitempty"`
	Duration time.Duration    `json:"-"`
	Pass     int              `json:"pass"`
}

// MarshalJSON renders Duration as durationMs.
func (r Result) MarshalJSON() ([]byte, error) {
	type plain Result
	return json.Marshal(struct {
		plain
		DurationMs float64 `json:"durationMs"`
	}{plain(r), float64(r.Duration.Microseconds()) / 1000})
}

// AnalyzeFunc produces an analyzer's data. Returning an error or panicking
// yields a StatusError result.
type AnalyzeFunc func(ctx context.Context, rc *RunContext) (any, error)

// Registration declares one analyzer.
type Registration struct {
	// ID must be unique within an orchestrator
	ID string

	// DependsOn lists analyzers that must run first. If any of them errors
	// this analyzer is skipped.
	DependsOn []string

	// Inputs lists the typed values this analyzer consumes.
	Inputs []Input

	// Provides extracts typed values from this analyzer's data for others.
	Provides []Provider

	// ShouldRun may decline execution; nil means always run.
	ShouldRun func(rc *RunContext) bool

	Analyze AnalyzeFunc
}

// Key names a typed value passed between analyzers.
type Key[T any] struct {
	name string
}

// NewKey creates a key. Keys with the same name and type are equal.
func NewKey[T any](name string) Key[T] {
	return Key[T]{name: name}
}

// Name returns the key name.
func (k Key[T]) Name() string {
	return k.name
}

// Input is a declared dependency on a typed value.
type Input struct {
	Key      string
	Optional bool

	valid func(any) bool
}

// Requires declares a required input. The analyzer is skipped with reason
// "missing input <key>" when no value of type T is available.
func Requires[T any](k Key[T]) Input {
	return Input{Key: k.name, valid: isType[T]}
}

// Accepts declares an optional input.
func Accepts[T any](k Key[T]) Input {
	return Input{Key: k.name, Optional: true, valid: isType[T]}
}

func isType[T any](v any) bool {
	_, ok := v.(T)
	return ok
}

// Provider extracts one typed value from an analyzer's data.
type Provider struct {
	Key string

	extract func(data any) (any, bool)
}

// Provide registers fn to derive the value for k from data of type D. The
// value is stored only when data has type D and fn reports ok.
func Provide[D, T any](k Key[T], fn func(D) (T, bool)) Provider {
	return Provider{
		Key: k.name,
		extract: func(data any) (any, bool) {
			d, ok := data.(D)
			if !ok {
				return nil, false
			}
			v, ok := fn(d)
			if !ok {
				return nil, false
			}
			return v, true
		},
	}
}
