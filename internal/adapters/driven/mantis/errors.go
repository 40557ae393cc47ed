package mantis

import (
	"errors"
	"fmt"
)

// Mantis backend errors.
var (
	// ErrNoTaskID indicates the submission response carried no task id.
	ErrNoTaskID = errors.New("mantis: no task id in response")

	// ErrPollBudgetExhausted indicates the status poll gave up after its
	// configured attempt budget.
	ErrPollBudgetExhausted = errors.New("mantis: poll budget exhausted")
)

// APIError represents a non-2xx response from the backend.
type APIError struct {
	StatusCode int
	Message    string
	URL        string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("mantis: API error %d: %s (URL: %s)", e.StatusCode, e.Message, e.URL)
}

// TaskError represents a backend task that reached a terminal failure,
// either an explicit FAILURE state or a SUCCESS carrying a stacktrace.
// Detail preserves the server-provided failure text verbatim.
type TaskError struct {
	TaskID string
	State  string
	Detail string
}

func (e *TaskError) Error() string {
	return fmt.Sprintf("mantis: task %s failed: %s", e.TaskID, e.Detail)
}

// IsTaskFailure checks if the error came from a terminal task failure.
func IsTaskFailure(err error) bool {
	var taskErr *TaskError
	return errors.As(err, &taskErr)
}
