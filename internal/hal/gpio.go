package hal

import "sync"

// InputPin is the read side of a GPIO line. Edges delivers a
// notification after any level change; the current level is read
// separately so consumers can debounce by comparing against the last
// level they saw.
type InputPin interface {
	Level() bool
	Edges() <-chan struct{}
}

// OutputPin is the drive side of a GPIO line.
type OutputPin interface {
	Set(high bool)
	Level() bool
}

// SimInput is an in-memory InputPin for tests and --simulate mode.
type SimInput struct {
	mu    sync.Mutex
	level bool
	edges chan struct{}
}

// NewSimInput creates a simulated input at the given level.
func NewSimInput(level bool) *SimInput {
	return &SimInput{level: level, edges: make(chan struct{}, 8)}
}

func (p *SimInput) Level() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.level
}

func (p *SimInput) Edges() <-chan struct{} {
	return p.edges
}

// SetLevel drives the simulated line. A level change queues an edge
// notification; if the queue is full the edge is dropped, which matches
// a consumer that reads levels rather than counting interrupts.
func (p *SimInput) SetLevel(level bool) {
	p.mu.Lock()
	changed := p.level != level
	p.level = level
	p.mu.Unlock()

	if changed {
		select {
		case p.edges <- struct{}{}:
		default:
		}
	}
}

// SimOutput is an in-memory OutputPin.
type SimOutput struct {
	mu    sync.Mutex
	level bool
}

// NewSimOutput creates a simulated output at the given level.
func NewSimOutput(level bool) *SimOutput {
	return &SimOutput{level: level}
}

func (p *SimOutput) Set(high bool) {
	p.mu.Lock()
	p.level = high
	p.mu.Unlock()
}

func (p *SimOutput) Level() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.level
}
