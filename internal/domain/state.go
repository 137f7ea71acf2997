// Package domain contains pure, dependency-free domain models and types
// for the weighted policy index pipeline.
package domain

import (
	"fmt"
	"maps"
	"reflect"
	"slices"
	"time"
)

// Key represents a type-safe generic key for accessing values in State.
// The type parameter T ensures compile-time type safety when getting and
// setting values, eliminating the need for runtime type assertions.
type Key[T any] struct{ name string }

// NewKey creates a new Key with the specified name and type.
// This function is provided for creating keys outside of the domain package.
func NewKey[T any](name string) Key[T] {
	return Key[T]{name: name}
}

// Name returns the string name under which the key stores its value.
func (k Key[T]) Name() string { return k.name }

// Predefined state keys used throughout the pipeline.
// Each key is strongly typed to ensure type safety at compile time.
var (
	// KeyCorpus stores the decoded classifier output, keyed by party.
	KeyCorpus = Key[Corpus]{"corpus"}

	// KeyAccumulators stores the per-party, per-policy accumulators built
	// by the transform stage.
	KeyAccumulators = Key[map[string]PolicyAccumulators]{"accumulators"}

	// KeyAggregates stores the per-party aggregates, including the Total
	// accumulator and the percentage denominator.
	KeyAggregates = Key[map[string]PartyAggregate]{"aggregates"}

	// KeyReport stores the final per-policy report.
	KeyReport = Key[PolicyReport]{"report"}

	// Execution context keys for tracking metadata across the run.

	// KeyRunID stores the unique identifier of this pipeline run.
	KeyRunID = Key[string]{"execution.run_id"}

	// KeyPipelineName stores the name of the configured pipeline.
	KeyPipelineName = Key[string]{"execution.pipeline_name"}

	// KeyStartedAt stores the time the run started.
	KeyStartedAt = Key[time.Time]{"execution.started_at"}
)

// deepCopyValue creates a deep copy of a value to ensure true immutability.
// It handles slices, maps, and other reference types that would otherwise
// allow external modification of State data.
func deepCopyValue(value any) any {
	if value == nil {
		return nil
	}

	// time.Time is immutable and can be returned directly.
	if val, ok := value.(time.Time); ok {
		return val
	}

	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Slice:
		newSlice := reflect.MakeSlice(v.Type(), v.Len(), v.Cap())
		for i := 0; i < v.Len(); i++ {
			newSlice.Index(i).Set(reflect.ValueOf(deepCopyValue(v.Index(i).Interface())))
		}
		return newSlice.Interface()

	case reflect.Map:
		newMap := reflect.MakeMap(v.Type())
		for _, key := range v.MapKeys() {
			copiedKey := deepCopyValue(key.Interface())
			copiedValue := deepCopyValue(v.MapIndex(key).Interface())
			newMap.SetMapIndex(reflect.ValueOf(copiedKey), reflect.ValueOf(copiedValue))
		}
		return newMap.Interface()

	case reflect.Ptr:
		if v.IsNil() {
			return v.Interface()
		}
		newPtr := reflect.New(v.Elem().Type())
		newPtr.Elem().Set(reflect.ValueOf(deepCopyValue(v.Elem().Interface())))
		return newPtr.Interface()

	case reflect.Struct:
		// This performs a shallow copy for unexported fields but deep copies
		// exported fields.
		newStruct := reflect.New(v.Type()).Elem()
		for i := 0; i < v.NumField(); i++ {
			if newStruct.Field(i).CanSet() {
				newStruct.Field(i).Set(reflect.ValueOf(deepCopyValue(v.Field(i).Interface())))
			}
		}
		return newStruct.Interface()

	default:
		// Primitive types are returned as-is since they are copied by value.
		return value
	}
}

// State represents an immutable collection of pipeline data that flows
// from stage to stage. It uses copy-on-write semantics to ensure
// thread-safety and prevent unintended mutations. State is the primary
// data structure for passing information between Units.
type State struct {
	// data holds the key-value pairs that make up the state.
	// It is unexported to maintain immutability guarantees.
	data map[string]any
}

// NewState creates a new empty State.
// The returned State is ready to use and can be safely shared across
// goroutines.
func NewState() State {
	return State{
		data: make(map[string]any),
	}
}

// Get retrieves a value from the State with compile-time type safety.
// It returns the value and a boolean indicating whether the key exists
// and contains a value of the correct type. The returned value is a deep
// copy to maintain immutability.
//
// Example:
//
//	corpus, ok := Get(state, KeyCorpus)
//	if !ok {
//	    // handle missing value
//	}
//	// corpus is typed as Corpus, no type assertion needed
func Get[T any](s State, key Key[T]) (T, bool) {
	var zero T
	value, exists := s.data[key.name]
	if !exists {
		return zero, false
	}

	copied := deepCopyValue(value)
	val, ok := copied.(T)
	return val, ok
}

// With creates a new State with the specified key-value pair added or
// updated. It implements copy-on-write semantics, returning a new State
// instance while leaving the original unchanged. This function is the
// primary way to add or update data in a State.
//
// Example:
//
//	newState := With(state, KeyRunID, "2f1c...")
func With[T any](s State, key Key[T], value T) State {
	newData := maps.Clone(s.data)
	newData[key.name] = deepCopyValue(value)
	return State{data: newData}
}

// WithRaw is a method version of With that uses a string key and allows
// chaining. For type safety, use the generic With function instead.
func (s State) WithRaw(keyName string, value any) State {
	newData := maps.Clone(s.data)
	newData[keyName] = deepCopyValue(value)
	return State{data: newData}
}

// WithMultiple creates a new State with multiple key-value pairs added
// or updated. It is more efficient than chaining multiple With calls as
// it performs a single clone operation. The updates map uses string keys
// for flexibility when updating multiple values at once.
//
// Example:
//
//	updates := map[string]any{
//	    KeyRunID.Name():        "2f1c...",
//	    KeyPipelineName.Name(): "weighted-policy-index",
//	}
//	newState := state.WithMultiple(updates)
func (s State) WithMultiple(updates map[string]any) State {
	newData := maps.Clone(s.data)
	for k, v := range updates {
		newData[k] = deepCopyValue(v)
	}
	return State{data: newData}
}

// Keys returns all keys present in the State in sorted order.
// The returned slice is safe to modify without affecting the original State.
func (s State) Keys() []string {
	return slices.Sorted(maps.Keys(s.data))
}

// String returns a string representation of the State for debugging purposes.
func (s State) String() string {
	return fmt.Sprintf("State%v", s.data)
}

// Require retrieves a value like Get but returns a StateError wrapping
// ErrKeyNotFound when the key is absent or holds a different type.
func Require[T any](s State, key Key[T]) (T, error) {
	value, ok := Get(s, key)
	if !ok {
		return value, NewStateError(key, "get", ErrKeyNotFound)
	}
	return value, nil
}

// ExecutionContext contains metadata about the current run that flows
// through the State. It provides consistent access to run metadata for
// logging and observability.
type ExecutionContext struct {
	// RunID is a unique identifier for this run, useful for correlating
	// logs, spans and metrics.
	RunID string

	// PipelineName is the metadata name of the pipeline configuration.
	PipelineName string

	// StartedAt is the wall-clock time at which the run began.
	StartedAt time.Time
}

// WithExecutionContext creates a new State with execution context metadata
// included. This method should be called before the first stage executes.
func (s State) WithExecutionContext(ctx ExecutionContext) State {
	updates := map[string]any{
		KeyRunID.name:        ctx.RunID,
		KeyPipelineName.name: ctx.PipelineName,
		KeyStartedAt.name:    ctx.StartedAt,
	}
	return s.WithMultiple(updates)
}

// GetExecutionContext extracts execution context metadata from the State.
// It returns the execution context and a boolean indicating whether all
// required context fields are present and valid.
func (s State) GetExecutionContext() (ExecutionContext, bool) {
	runID, ok1 := Get(s, KeyRunID)
	name, ok2 := Get(s, KeyPipelineName)
	startedAt, ok3 := Get(s, KeyStartedAt)

	if !ok1 || !ok2 || !ok3 {
		return ExecutionContext{}, false
	}

	return ExecutionContext{
		RunID:        runID,
		PipelineName: name,
		StartedAt:    startedAt,
	}, true
}
