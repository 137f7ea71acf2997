package ports

import (
	"context"
	"time"

	"github.com/ahrav/go-polindex/internal/domain"
)

// Executable defines the core contract for components that can run as a
// step of a pipeline.
type Executable interface {
	// Execute processes the given state and returns the updated state along
	// with any execution error. The context allows for cancellation between
	// steps.
	//
	// IMPORTANT: The input state is immutable and MUST NOT be modified.
	// domain.State uses copy-on-write semantics - use domain.With() or
	// state.WithMultiple() to create a new state with modifications.
	Execute(ctx context.Context, state domain.State) (domain.State, error)

	// ID returns the unique string identifier for this executable component.
	ID() string
}

// Pipeline defines a sequential execution container that runs multiple
// executables in strict order, where each executable's output becomes
// the input for the next executable in the sequence.
type Pipeline interface {
	Executable

	// Add appends an executable to the end of this pipeline's execution
	// sequence. Add returns an error if an executable with the same ID is
	// already present.
	Add(exec Executable) error

	// Executables returns the complete ordered list of executables
	// in this pipeline, preserving the sequence in which they will execute.
	// The returned slice should not be modified by callers.
	Executables() []Executable
}

// StageObserver receives notifications around each pipeline step.
// Implementations attach tracing, metrics or logging without the pipeline
// knowing about them.
type StageObserver interface {
	// StageStarted is called before a step executes. The returned context
	// is passed to the step, allowing observers to attach spans.
	StageStarted(ctx context.Context, pipelineID, stageID string) context.Context

	// StageFinished is called after a step returns, with its duration and
	// error (nil on success).
	StageFinished(ctx context.Context, pipelineID, stageID string, elapsed time.Duration, err error)
}
