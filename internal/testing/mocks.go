package testing

import (
	"context"
	"sync"

	"github.com/aristath/qfactor/internal/circuit"
	"github.com/aristath/qfactor/internal/simulator"
)

// MockBackend is a mock implementation of simulator.Backend for testing.
// It replays a configurable sequence of measurement values instead of
// simulating anything, and records how many executions it served.
type MockBackend struct {
	mu         sync.Mutex
	values     []uint64
	compileErr error
	executeErr error
	executions int
}

// NewMockBackend creates a mock backend replaying values in order,
// cycling when the sequence runs out.
func NewMockBackend(values ...uint64) *MockBackend {
	return &MockBackend{values: values}
}

// SetCompileError makes Compile fail.
func (m *MockBackend) SetCompileError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.compileErr = err
}

// SetExecuteError makes Execute fail.
func (m *MockBackend) SetExecuteError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.executeErr = err
}

// Executions returns how many Execute calls were served.
func (m *MockBackend) Executions() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.executions
}

// Compile implements simulator.Backend.
func (m *MockBackend) Compile(c *circuit.Circuit) (simulator.Executable, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.compileErr != nil {
		return nil, m.compileErr
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &mockExecutable{backend: m}, nil
}

type mockExecutable struct {
	backend *MockBackend
}

// Execute implements simulator.Executable.
func (e *mockExecutable) Execute(ctx context.Context) (*simulator.Measurement, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m := e.backend
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.executeErr != nil {
		return nil, m.executeErr
	}
	v := uint64(0)
	if len(m.values) > 0 {
		v = m.values[m.executions%len(m.values)]
	}
	m.executions++
	return &simulator.Measurement{Value: v, Probabilities: []float64{1}}, nil
}
