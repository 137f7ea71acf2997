package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ahrav/go-polindex/internal/domain"
	"github.com/ahrav/go-polindex/internal/ports"
)

var _ ports.Pipeline = (*Pipeline)(nil)

// Pipeline is a sequential execution container that processes executables
// in strict order, where each executable's output state becomes the input
// of the next one.
type Pipeline struct {
	// id is the unique identifier for this pipeline, used in error
	// messages and as the pipeline label of stage observations.
	id string
	// executables contains the ordered list of steps.
	executables []ports.Executable
	// idSet tracks executable IDs for O(1) duplicate detection.
	idSet map[string]struct{}
	// observers are notified before and after every step.
	observers []ports.StageObserver
	// mu provides thread-safe access to executables and observers.
	mu sync.RWMutex
}

// NewPipeline creates a new sequential execution pipeline with the specified
// identifier, ready to accept executable components.
func NewPipeline(id string) *Pipeline {
	return &Pipeline{
		id:          id,
		executables: make([]ports.Executable, 0),
		idSet:       make(map[string]struct{}),
	}
}

// Execute processes all executables sequentially, passing the output state
// from each executable as input to the next.
// Execute checks for context cancellation before every step and stops at
// the first failing step, wrapping its error with the pipeline and step IDs.
// The state returned on error is the last successful state.
func (p *Pipeline) Execute(ctx context.Context, state domain.State) (domain.State, error) {
	p.mu.RLock()
	executables := make([]ports.Executable, len(p.executables))
	copy(executables, p.executables)
	observers := make([]ports.StageObserver, len(p.observers))
	copy(observers, p.observers)
	p.mu.RUnlock()

	currentState := state
	for _, exec := range executables {
		if err := ctx.Err(); err != nil {
			return currentState, err
		}

		stageCtx := ctx
		for _, o := range observers {
			stageCtx = o.StageStarted(stageCtx, p.id, exec.ID())
		}

		start := time.Now()
		newState, err := exec.Execute(stageCtx, currentState)
		elapsed := time.Since(start)

		for _, o := range observers {
			o.StageFinished(stageCtx, p.id, exec.ID(), elapsed, err)
		}

		if err != nil {
			return currentState, fmt.Errorf("pipeline %s: execution failed at %s: %w", p.id, exec.ID(), err)
		}
		currentState = newState
	}

	return currentState, nil
}

// ID returns the unique string identifier for this pipeline.
func (p *Pipeline) ID() string {
	return p.id
}

// Add appends an executable to the end of this pipeline's execution
// sequence.
// Add returns an error if the executable is nil or if an executable
// with the same ID already exists in the pipeline.
// Add is safe for concurrent use with Execute.
func (p *Pipeline) Add(exec ports.Executable) error {
	if exec == nil {
		return fmt.Errorf("cannot add nil executable to pipeline")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	execID := exec.ID()
	if _, exists := p.idSet[execID]; exists {
		return fmt.Errorf("executable with ID %s already exists in pipeline", execID)
	}

	p.executables = append(p.executables, exec)
	p.idSet[execID] = struct{}{}
	return nil
}

// Executables returns a copy of the ordered list of executables.
// The returned slice is safe to modify without affecting the pipeline.
func (p *Pipeline) Executables() []ports.Executable {
	p.mu.RLock()
	defer p.mu.RUnlock()

	result := make([]ports.Executable, len(p.executables))
	copy(result, p.executables)
	return result
}

// Observe registers an observer for every subsequent Execute call.
// Observers are called in registration order; the context returned by one
// observer's StageStarted is passed to the next.
func (p *Pipeline) Observe(observer ports.StageObserver) {
	if observer == nil {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.observers = append(p.observers, observer)
}
