package pipeline

import (
	"errors"
	"sync"

	"github.com/syssam/crudl"
)

// Pipeline is the ordered list of steps executed for one operation. Steps
// registered with RegisterBefore run ahead of the steps already present,
// so the step the pipeline was created with stays last.
//
// The step list is replaced, never modified in place, on registration:
// executions in flight keep the list they started with.
type Pipeline struct {
	op     crudl.Op
	mu     sync.RWMutex
	steps  []crudl.Step
	frozen bool
}

// New returns a pipeline for op running the given steps in order.
func New(op crudl.Op, steps ...crudl.Step) *Pipeline {
	return &Pipeline{op: op, steps: compact(steps)}
}

// Op returns the operation of the pipeline.
func (p *Pipeline) Op() crudl.Op { return p.op }

// RegisterBefore inserts steps, in the given order, ahead of the current
// first step. It fails with crudl.ErrPipelineFrozen once the pipeline was
// frozen.
//
//	p := pipeline.New(crudl.OpDelete, pipeline.Persist(crudl.OpDelete))
//	p.RegisterBefore(a, b) // a, b, persist
//	p.RegisterBefore(c)    // c, a, b, persist
func (p *Pipeline) RegisterBefore(steps ...crudl.Step) error {
	for _, s := range steps {
		if s == nil {
			return errors.New("crudl: nil step")
		}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.frozen {
		return crudl.ErrPipelineFrozen
	}
	next := make([]crudl.Step, 0, len(steps)+len(p.steps))
	next = append(next, steps...)
	p.steps = append(next, p.steps...)
	return nil
}

// Freeze ends the setup phase of the pipeline. It is called when the
// pipeline is mounted into a schema.
func (p *Pipeline) Freeze() {
	p.mu.Lock()
	p.frozen = true
	p.mu.Unlock()
}

// Frozen reports whether the pipeline was frozen.
func (p *Pipeline) Frozen() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.frozen
}

// Len returns the number of steps.
func (p *Pipeline) Len() int {
	return len(p.snapshot())
}

func (p *Pipeline) snapshot() []crudl.Step {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.steps
}

// Run executes the pipeline steps on c.
func (p *Pipeline) Run(c *crudl.Context) error {
	return Run(c, p.snapshot(), nil)
}

// Run executes steps in order on c, then calls final if every step called
// next. A step calling next more than once gets crudl.ErrNextCalledTwice.
func Run(c *crudl.Context, steps []crudl.Step, final crudl.Next) error {
	var dispatch func(i int) error
	dispatch = func(i int) error {
		if i == len(steps) {
			if final != nil {
				return final()
			}
			return nil
		}
		called := false
		return steps[i](c, func() error {
			if called {
				return crudl.ErrNextCalledTwice
			}
			called = true
			return dispatch(i + 1)
		})
	}
	return dispatch(0)
}

// Compose returns a step running steps in order before its own next.
func Compose(steps ...crudl.Step) crudl.Step {
	steps = compact(steps)
	return func(c *crudl.Context, next crudl.Next) error {
		return Run(c, steps, next)
	}
}

func compact(steps []crudl.Step) []crudl.Step {
	out := make([]crudl.Step, 0, len(steps))
	for _, s := range steps {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}
