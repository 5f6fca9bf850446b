package logging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/alexandr-studio/enigma-ai/internal/redact"
)

type EventType string

const (
	EventRotorCreated     EventType = "rotor_created"
	EventRotorUpdated     EventType = "rotor_updated"
	EventRotorDeleted     EventType = "rotor_deleted"
	EventRotorsImported   EventType = "rotors_imported"
	EventRotorsExported   EventType = "rotors_exported"
	EventPresetSaved      EventType = "preset_saved"
	EventPresetDeleted    EventType = "preset_deleted"
	EventMessageEncoded   EventType = "message_encoded"
	EventMessageDecoded   EventType = "message_decoded"
	EventValidationFailed EventType = "validation_failed"
)

type Decision string

const (
	DecisionInfo  Decision = "info"
	DecisionAllow Decision = "allow"
	DecisionDeny  Decision = "deny"
)

// AuditEvent is one line of the audit log. Metadata is redacted before it is
// written, so message text and permutations never reach the log.
type AuditEvent struct {
	ID        string         `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	Component string         `json:"component"`
	RotorID   string         `json:"rotor_id,omitempty"`
	EventType EventType      `json:"event_type"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Decision  Decision       `json:"decision,omitempty"`
	Reason    string         `json:"reason,omitempty"`
}

// ErrNoSink is returned when every output has been switched off.
var ErrNoSink = errors.New("audit: no writers configured")

type Option func(*sinks) error

type sinks struct {
	stdout bool
	extra  []io.Writer
	files  []*os.File
	now    func() time.Time
	mirror *slog.Logger
}

func (s *sinks) release() {
	for _, f := range s.files {
		_ = f.Close()
	}
	s.files = nil
}

// WithWriter adds w as an additional destination.
func WithWriter(w io.Writer) Option {
	return func(s *sinks) error {
		if w == nil {
			return errors.New("audit: writer cannot be nil")
		}
		s.extra = append(s.extra, w)
		return nil
	}
}

// WithFile appends events to path, creating it with owner-only permissions.
func WithFile(path string) Option {
	return func(s *sinks) error {
		path = strings.TrimSpace(path)
		if path == "" {
			return errors.New("audit: file path cannot be empty")
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			return fmt.Errorf("audit: open %s: %w", path, err)
		}
		s.files = append(s.files, f)
		return nil
	}
}

// WithoutStdout stops events from being echoed to standard output.
func WithoutStdout() Option {
	return func(s *sinks) error {
		s.stdout = false
		return nil
	}
}

// WithClock overrides the time source used to stamp events.
func WithClock(now func() time.Time) Option {
	return func(s *sinks) error {
		if now == nil {
			return errors.New("audit: clock cannot be nil")
		}
		s.now = now
		return nil
	}
}

// WithMirror also logs every event to logger at debug level, after
// redaction.
func WithMirror(logger *slog.Logger) Option {
	return func(s *sinks) error {
		s.mirror = logger
		return nil
	}
}

// shared is the state every named view of one logger writes through.
type shared struct {
	mu     sync.Mutex
	enc    *json.Encoder
	files  []*os.File
	now    func() time.Time
	mirror *slog.Logger
	closed bool
}

// AuditLogger writes AuditEvents as JSON lines. It is safe for concurrent
// use; loggers returned by Named share the same outputs.
type AuditLogger struct {
	component string
	owner     bool
	out       *shared
}

func NewAuditLogger(component string, opts ...Option) (*AuditLogger, error) {
	s := &sinks{stdout: true, now: time.Now}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			s.release()
			return nil, err
		}
	}

	var writers []io.Writer
	if s.stdout {
		writers = append(writers, os.Stdout)
	}
	writers = append(writers, s.extra...)
	for _, f := range s.files {
		writers = append(writers, f)
	}
	if len(writers) == 0 {
		return nil, ErrNoSink
	}

	enc := json.NewEncoder(io.MultiWriter(writers...))
	enc.SetEscapeHTML(false)
	return &AuditLogger{
		component: component,
		owner:     true,
		out:       &shared{enc: enc, files: s.files, now: s.now, mirror: s.mirror},
	}, nil
}

// Discard returns a logger that drops every event.
func Discard() *AuditLogger {
	return &AuditLogger{
		component: "discard",
		owner:     true,
		out:       &shared{enc: json.NewEncoder(io.Discard), now: time.Now},
	}
}

// Named returns a logger that stamps events with component and writes to the
// same outputs. Closing it is a no-op; close the original instead.
func (l *AuditLogger) Named(component string) *AuditLogger {
	if l == nil {
		return nil
	}
	return &AuditLogger{component: component, out: l.out}
}

// Emit fills in the id, timestamp, component and decision when they are
// unset, redacts the reason and metadata, and writes the event.
func (l *AuditLogger) Emit(event AuditEvent) error {
	if l == nil || l.out == nil {
		return errors.New("audit: nil logger")
	}
	if event.EventType == "" {
		return errors.New("audit: event type required")
	}

	if event.Timestamp.IsZero() {
		event.Timestamp = l.out.now()
	}
	event.Timestamp = event.Timestamp.UTC()
	if event.ID == "" {
		event.ID = ulid.MustNew(ulid.Timestamp(event.Timestamp), ulid.DefaultEntropy()).String()
	}
	if event.Component == "" {
		event.Component = l.component
	}
	if event.Decision == "" {
		event.Decision = DecisionInfo
	}
	event.Reason = redact.String(event.Reason)
	if len(event.Metadata) > 0 {
		event.Metadata = redact.Map(event.Metadata)
	}

	l.out.mu.Lock()
	defer l.out.mu.Unlock()
	if l.out.closed {
		return errors.New("audit: logger closed")
	}
	if err := l.out.enc.Encode(event); err != nil {
		return fmt.Errorf("audit: write %s: %w", event.EventType, err)
	}
	if l.out.mirror != nil {
		l.out.mirror.LogAttrs(context.Background(), slog.LevelDebug, "audit",
			slog.String("id", event.ID),
			slog.String("event", string(event.EventType)),
			slog.String("component", event.Component),
			slog.String("decision", string(event.Decision)),
		)
	}
	return nil
}

// Close flushes and closes any files opened by WithFile.
func (l *AuditLogger) Close() error {
	if l == nil || !l.owner || l.out == nil {
		return nil
	}
	l.out.mu.Lock()
	defer l.out.mu.Unlock()
	if l.out.closed {
		return nil
	}
	l.out.closed = true
	var errs []error
	for _, f := range l.out.files {
		if err := f.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	l.out.files = nil
	return errors.Join(errs...)
}
