package mantis

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mantis-labs/mantis-cli/internal/core/domain"
	"github.com/mantis-labs/mantis-cli/internal/core/ports/driven"
)

var _ driven.LogStream = (*logStream)(nil)

// updatesBuffer sizes the update channel. A slow consumer drops updates
// rather than stalling the read loop; Messages always has the full list.
const updatesBuffer = 256

// OpenLogStream connects to the synthesis progress stream for spaceID and
// starts its reconnect loop. The stream keeps reconnecting after a fixed
// delay until Close is called or ctx ends; messages accumulate across
// reconnects.
func (c *Client) OpenLogStream(ctx context.Context, spaceID string) driven.LogStream {
	s := &logStream{
		url:            fmt.Sprintf("%s/ws/synthesis_progress/%s/", c.wsBaseURL, spaceID),
		dialer:         websocket.DefaultDialer,
		reconnectDelay: c.reconnectDelay,
		status:         domain.StreamConnecting,
		updates:        make(chan domain.LogMessage, updatesBuffer),
		done:           make(chan struct{}),
	}
	go s.run(ctx)
	return s
}

// logStream is a reconnecting websocket feed of synthesis progress.
type logStream struct {
	url            string
	dialer         *websocket.Dialer
	reconnectDelay time.Duration

	mu       sync.Mutex
	status   domain.StreamStatus
	messages []domain.LogMessage

	updates   chan domain.LogMessage
	done      chan struct{}
	closeOnce sync.Once
}

// logFrame is one inbound websocket frame. Older backends send the text
// under "log" with no type; newer ones send typed frames.
type logFrame struct {
	Type         string         `json:"type,omitempty"`
	Log          string         `json:"log,omitempty"`
	Message      string         `json:"message,omitempty"`
	Level        string         `json:"level,omitempty"`
	Timestamp    string         `json:"timestamp,omitempty"`
	Logger       string         `json:"logger,omitempty"`
	ErrorDetails map[string]any `json:"error_details,omitempty"`
}

// run is the connect-read-reconnect loop. Every disconnect schedules a
// reconnect after the fixed delay; there is no backoff and no attempt cap,
// because synthesis jobs routinely outlive flaky connections.
func (s *logStream) run(ctx context.Context) {
	defer close(s.updates)

	for {
		s.setStatus(domain.StreamConnecting)

		conn, _, err := s.dialer.DialContext(ctx, s.url, nil)
		if err == nil {
			s.setStatus(domain.StreamConnected)
			s.append(domain.LogMessage{
				Type:      domain.LogTypeLog,
				Message:   "Connected to log stream",
				Level:     "INFO",
				Timestamp: time.Now(),
			})

			s.readLoop(ctx, conn)
			conn.Close()
		}

		s.setStatus(domain.StreamDisconnected)

		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		case <-time.After(s.reconnectDelay):
		}
	}
}

// readLoop consumes frames until the connection drops or the stream stops.
func (s *logStream) readLoop(ctx context.Context, conn *websocket.Conn) {
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
		case <-s.done:
		case <-stop:
			return
		}
		conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			s.append(domain.LogMessage{
				Type:      domain.LogTypeLog,
				Message:   fmt.Sprintf("Connection closed: %v", err),
				Level:     "WARNING",
				Timestamp: time.Now(),
			})
			return
		}

		msg, ok := parseFrame(data)
		if !ok {
			continue
		}
		s.append(msg)
	}
}

// parseFrame decodes one inbound frame into a log message. Unparseable
// and unrecognised frames are skipped, not fatal.
func parseFrame(data []byte) (domain.LogMessage, bool) {
	var frame logFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		return domain.LogMessage{}, false
	}

	msgType := domain.LogMessageType(frame.Type)
	if frame.Type == "" {
		if frame.Log == "" {
			return domain.LogMessage{}, false
		}
		msgType = domain.LogTypeLog
	}

	switch msgType {
	case domain.LogTypeLog, domain.LogTypeProgress, domain.LogTypeError:
	default:
		return domain.LogMessage{}, false
	}

	text := frame.Message
	if text == "" {
		text = frame.Log
	}
	level := frame.Level
	if level == "" {
		level = "INFO"
	}
	timestamp := time.Now()
	if frame.Timestamp != "" {
		if parsed, err := time.Parse(time.RFC3339, frame.Timestamp); err == nil {
			timestamp = parsed
		}
	}

	return domain.LogMessage{
		Type:         msgType,
		Message:      text,
		Level:        level,
		Timestamp:    timestamp,
		Logger:       frame.Logger,
		ErrorDetails: frame.ErrorDetails,
	}, true
}

// append records a message and notifies the update channel. Updates are
// best-effort; the accumulated list is the source of truth.
func (s *logStream) append(msg domain.LogMessage) {
	s.mu.Lock()
	s.messages = append(s.messages, msg)
	s.mu.Unlock()

	select {
	case s.updates <- msg:
	default:
	}
}

func (s *logStream) setStatus(status domain.StreamStatus) {
	s.mu.Lock()
	s.status = status
	s.mu.Unlock()
}

// Messages returns a snapshot of all messages received so far.
func (s *logStream) Messages() []domain.LogMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.LogMessage, len(s.messages))
	copy(out, s.messages)
	return out
}

// Status returns the current connection status.
func (s *logStream) Status() domain.StreamStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Updates returns the live update channel. It is closed when the stream
// stops.
func (s *logStream) Updates() <-chan domain.LogMessage {
	return s.updates
}

// Close stops the stream and any pending reconnect.
func (s *logStream) Close() error {
	s.closeOnce.Do(func() { close(s.done) })
	return nil
}
