package events

import (
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventDataTypes(t *testing.T) {
	tests := []struct {
		name     string
		data     EventData
		expected EventType
	}{
		{"run started", &RunStartedData{RunID: "r1", N: 15}, RunStarted},
		{"attempt started", &AttemptStartedData{RunID: "r1", N: 15, Attempt: 1, Base: 7}, AttemptStarted},
		{"order found", &OrderFoundData{RunID: "r1", N: 15, Base: 7, Order: 4}, OrderFound},
		{"run completed", &RunCompletedData{RunID: "r1", N: 15, P: 3, Q: 5}, RunCompleted},
		{"run failed", &RunFailedData{RunID: "r1", N: 15, Error: "boom"}, RunFailed},
		{"job completed", &JobCompletedData{Job: "prune"}, JobCompleted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.data.EventType())
		})
	}
}

func TestRunCompletedDataJSON(t *testing.T) {
	data := &RunCompletedData{
		RunID:      "abc",
		N:          15,
		P:          3,
		Q:          5,
		Method:     "quantum",
		DurationMS: 120,
	}

	jsonData, err := json.Marshal(data)
	require.NoError(t, err)
	assert.Contains(t, string(jsonData), `"run_id":"abc"`)
	assert.Contains(t, string(jsonData), `"method":"quantum"`)
}

func TestBusPublishReachesSubscribers(t *testing.T) {
	bus := NewBus(zerolog.Nop())

	var received []*Event
	bus.Subscribe(RunCompleted, func(e *Event) {
		received = append(received, e)
	})

	bus.Publish("shor", &RunCompletedData{RunID: "r1", N: 15, P: 3, Q: 5})

	require.Len(t, received, 1)
	assert.Equal(t, RunCompleted, received[0].Type)
	assert.Equal(t, "shor", received[0].Module)
	assert.False(t, received[0].Timestamp.IsZero())

	data, ok := received[0].Data.(*RunCompletedData)
	require.True(t, ok)
	assert.Equal(t, uint64(3), data.P)
}

func TestBusDeliversOnlyMatchingType(t *testing.T) {
	bus := NewBus(zerolog.Nop())

	var completed, failed int
	bus.Subscribe(RunCompleted, func(*Event) { completed++ })
	bus.Subscribe(RunFailed, func(*Event) { failed++ })

	bus.Publish("shor", &RunFailedData{RunID: "r1", Error: "exhausted"})

	assert.Zero(t, completed)
	assert.Equal(t, 1, failed)
}

func TestBusUnsubscribe(t *testing.T) {
	bus := NewBus(zerolog.Nop())

	var calls int
	sub := bus.Subscribe(RunStarted, func(*Event) { calls++ })

	bus.Publish("shor", &RunStartedData{RunID: "r1"})
	bus.Unsubscribe(sub)
	bus.Publish("shor", &RunStartedData{RunID: "r2"})

	assert.Equal(t, 1, calls)
}

func TestAllTypesCoversEveryConstant(t *testing.T) {
	assert.Len(t, AllTypes(), 6)
	assert.Contains(t, AllTypes(), JobCompleted)
}
