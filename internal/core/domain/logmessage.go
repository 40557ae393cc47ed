package domain

import "time"

// LogMessageType classifies a streamed log entry.
type LogMessageType string

const (
	// LogTypeLog is a plain diagnostic entry.
	LogTypeLog LogMessageType = "log"

	// LogTypeProgress reports synthesis progress.
	LogTypeProgress LogMessageType = "progress"

	// LogTypeError reports a backend-side error.
	LogTypeError LogMessageType = "error"
)

// LogMessage is one unit of progress or diagnostic information streamed
// from the backend for a space. The list of messages for a job is
// append-only; ordering is receipt order, not guaranteed causal order,
// because messages in flight during a stream drop are lost.
type LogMessage struct {
	// Type classifies the entry.
	Type LogMessageType

	// Message is the human-readable text.
	Message string

	// Level is the log level (INFO, WARNING, ERROR).
	Level string

	// Timestamp is the time the entry was produced, when reported.
	Timestamp time.Time

	// Logger names the backend logger that produced the entry, if any.
	Logger string

	// ErrorDetails carries structured error information, if any.
	ErrorDetails map[string]any
}

// StreamStatus describes the state of a log stream connection.
type StreamStatus string

const (
	// StreamConnecting means a connection attempt is in progress.
	StreamConnecting StreamStatus = "connecting"

	// StreamConnected means the stream is live.
	StreamConnected StreamStatus = "connected"

	// StreamDisconnected means the stream is down; a reconnect is
	// scheduled unless the stream was stopped.
	StreamDisconnected StreamStatus = "disconnected"
)
