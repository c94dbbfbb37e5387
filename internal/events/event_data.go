package events

// EventType identifies a category of event on the bus.
type EventType string

const (
	// RunStarted fires when the driver begins factoring an input.
	RunStarted EventType = "run_started"
	// AttemptStarted fires at the top of each driver attempt.
	AttemptStarted EventType = "attempt_started"
	// OrderFound fires when order finding accepts a candidate order.
	OrderFound EventType = "order_found"
	// RunCompleted fires when the driver produces factors.
	RunCompleted EventType = "run_completed"
	// RunFailed fires when the driver exhausts its attempts or hits an error.
	RunFailed EventType = "run_failed"
	// JobCompleted fires when a scheduled maintenance job finishes.
	JobCompleted EventType = "job_completed"
)

// AllTypes lists every event type, for subscribers that want the full
// stream.
func AllTypes() []EventType {
	return []EventType{
		RunStarted,
		AttemptStarted,
		OrderFound,
		RunCompleted,
		RunFailed,
		JobCompleted,
	}
}

// EventData is the interface that all event data types must implement
// This allows for type-safe event data while maintaining flexibility
type EventData interface {
	// EventType returns the event type this data is associated with
	EventType() EventType
}

// RunStartedData contains data for RunStarted events
type RunStartedData struct {
	RunID string `json:"run_id"`
	N     uint64 `json:"n"`
}

// EventType returns the event type for RunStartedData
func (d *RunStartedData) EventType() EventType { return RunStarted }

// AttemptStartedData contains data for AttemptStarted events
type AttemptStartedData struct {
	RunID   string `json:"run_id"`
	N       uint64 `json:"n"`
	Attempt int    `json:"attempt"`
	Base    uint64 `json:"base"`
}

// EventType returns the event type for AttemptStartedData
func (d *AttemptStartedData) EventType() EventType { return AttemptStarted }

// OrderFoundData contains data for OrderFound events
type OrderFoundData struct {
	RunID  string `json:"run_id"`
	N      uint64 `json:"n"`
	Base   uint64 `json:"base"`
	Order  uint64 `json:"order"`
	Sample uint64 `json:"sample"`
	Runs   int    `json:"runs"`
}

// EventType returns the event type for OrderFoundData
func (d *OrderFoundData) EventType() EventType { return OrderFound }

// RunCompletedData contains data for RunCompleted events
type RunCompletedData struct {
	RunID      string `json:"run_id"`
	N          uint64 `json:"n"`
	P          uint64 `json:"p"`
	Q          uint64 `json:"q"`
	Method     string `json:"method"`
	DurationMS int64  `json:"duration_ms"`
}

// EventType returns the event type for RunCompletedData
func (d *RunCompletedData) EventType() EventType { return RunCompleted }

// RunFailedData contains data for RunFailed events
type RunFailedData struct {
	RunID string `json:"run_id"`
	N     uint64 `json:"n"`
	Error string `json:"error"`
}

// EventType returns the event type for RunFailedData
func (d *RunFailedData) EventType() EventType { return RunFailed }

// JobCompletedData contains data for JobCompleted events
type JobCompletedData struct {
	Job        string `json:"job"`
	DurationMS int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
}

// EventType returns the event type for JobCompletedData
func (d *JobCompletedData) EventType() EventType { return JobCompleted }
