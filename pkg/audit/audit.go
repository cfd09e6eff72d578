package audit

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// AppName is the RFC5424 APP-NAME of every record.
const AppName = "admin-transfer"

// SDID constants for structured data IDs (RFC5424). 32473 is the example
// Private Enterprise Number reserved by RFC5612.
const (
	PEN          = 32473
	SDIDAuth     = "auth@32473"
	SDIDSubject  = "subject@32473"
	SDIDAction   = "action@32473"
	SDIDClient   = "client@32473"
	SDIDTransfer = "transfer@32473"
)

// Syslog facility constants
const (
	FacilityAuth     = 4  // LOG_AUTH - security/authorization messages
	FacilityAuthPriv = 10 // LOG_AUTHPRIV - security/authorization messages (private)
)

// Severity levels matching syslog (RFC5424)
type Severity int

const (
	SeverityEmergency Severity = iota // 0
	SeverityAlert                     // 1
	SeverityCritical                  // 2
	SeverityError                     // 3
	SeverityWarning                   // 4
	SeverityNotice                    // 5
	SeverityInfo                      // 6
	SeverityDebug                     // 7
)

// Event represents an audit event
type Event interface {
	MessageID() string
	Message() string
	Severity() Severity
	Facility() int
	StructuredData() map[string]map[string]string
}

// Sink receives audit events.
type Sink interface {
	Log(event Event)
}

// SinkFunc adapts a function into a Sink.
type SinkFunc func(Event)

func (f SinkFunc) Log(event Event) { f(event) }

// Discard drops every event.
var Discard Sink = SinkFunc(func(Event) {})

// Logger writes audit events in RFC5424 syslog format
type Logger struct {
	mu       sync.Mutex
	writer   io.Writer
	hostname string
	pid      int
	now      func() time.Time
}

// NewLogger creates a logger writing to stdout
func NewLogger() *Logger {
	hostname, _ := os.Hostname()
	return &Logger{
		writer:   os.Stdout,
		hostname: hostname,
		pid:      os.Getpid(),
		now:      time.Now,
	}
}

// SetWriter sets the output writer for the logger
func (l *Logger) SetWriter(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.writer = w
}

// Log writes an audit event as one line.
// Format: <PRI>VERSION TIMESTAMP HOSTNAME APP-NAME PROCID MSGID SD MSG
func (l *Logger) Log(event Event) {
	pri := event.Facility()*8 + int(event.Severity())
	timestamp := l.now().UTC().Format("2006-01-02T15:04:05.000Z")

	sd := formatStructuredData(event.StructuredData())
	if sd == "" {
		sd = "-"
	}

	hostname := l.hostname
	if hostname == "" {
		hostname = "-"
	}

	line := fmt.Sprintf("<%d>1 %s %s %s %d %s %s %s\n",
		pri,
		timestamp,
		hostname,
		AppName,
		l.pid,
		event.MessageID(),
		sd,
		event.Message(),
	)

	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = io.WriteString(l.writer, line)
}

// formatStructuredData renders [sdid key="value" ...] elements with SDIDs
// and keys in sorted order.
func formatStructuredData(sd map[string]map[string]string) string {
	if len(sd) == 0 {
		return ""
	}

	ids := make([]string, 0, len(sd))
	for id := range sd {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var b strings.Builder
	for _, id := range ids {
		params := sd[id]
		keys := make([]string, 0, len(params))
		for k := range params {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		b.WriteString("[")
		b.WriteString(id)
		for _, k := range keys {
			fmt.Fprintf(&b, " %s=%s", k, escapeSDValue(params[k]))
		}
		b.WriteString("]")
	}
	return b.String()
}

// escapeSDValue escapes special characters per RFC5424 section 6.3.3
func escapeSDValue(value string) string {
	value = strings.ReplaceAll(value, "\\", "\\\\")
	value = strings.ReplaceAll(value, "\"", "\\\"")
	value = strings.ReplaceAll(value, "]", "\\]")
	return "\"" + value + "\""
}

// Recorder writes events to a Logger and, when configured, a Store.
type Recorder struct {
	Logger *Logger
	Store  *Store
}

// Log implements Sink. Store failures are reported on the process log and
// never reach the caller.
func (r *Recorder) Log(event Event) {
	if r.Logger != nil {
		r.Logger.Log(event)
	}
	if r.Store != nil {
		if err := r.Store.Save(event); err != nil {
			log.Error().Err(err).Str("msgid", event.MessageID()).Msg("failed to save audit event")
		}
	}
}

var (
	defaultOnce sync.Once
	defaultSink Sink
)

// Default returns the process-wide sink. It is built on first use from the
// environment: TRANSFER_AUDIT_ENABLED=false disables auditing and
// AUDIT_DATABASE_URL adds database persistence.
func Default() Sink {
	defaultOnce.Do(func() {
		if !enabledFromEnv() {
			defaultSink = Discard
			return
		}

		rec := &Recorder{Logger: NewLogger()}
		store, err := NewStore(os.Getenv("AUDIT_DATABASE_URL"))
		if err != nil {
			log.Error().Err(err).Msg("failed to connect to audit database")
		}
		rec.Store = store
		defaultSink = rec
	})
	return defaultSink
}

func enabledFromEnv() bool {
	env := strings.ToLower(os.Getenv("TRANSFER_AUDIT_ENABLED"))
	return env != "false" && env != "0" && env != "no"
}

// Log writes an event to the default sink
func Log(event Event) {
	Default().Log(event)
}
