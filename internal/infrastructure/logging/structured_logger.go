// Package logging provides ELK-compatible JSON structured logging for
// the compression and routing services.
package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// LogLevel represents logging severity levels.
type LogLevel int

const (
	DebugLevel LogLevel = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

// String returns the string representation of the log level.
func (l LogLevel) String() string {
	switch l {
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel maps a configuration string to a LogLevel. Unknown values
// default to InfoLevel.
func ParseLevel(s string) LogLevel {
	switch strings.ToLower(s) {
	case "debug":
		return DebugLevel
	case "warn", "warning":
		return WarnLevel
	case "error":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

// LogEntry is a single log line in ELK-compatible format.
type LogEntry struct {
	Timestamp string                 `json:"@timestamp"`
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Logger    string                 `json:"logger,omitempty"`
	Host      string                 `json:"host,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
	Tier      string                 `json:"tier,omitempty"`
	Error     string                 `json:"error,omitempty"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

// StructuredLogger writes thread-safe JSON log lines with a minimum
// level filter and a set of global fields attached to every entry.
type StructuredLogger struct {
	mu       sync.Mutex
	writer   io.Writer
	minLevel LogLevel
	fields   map[string]interface{}
}

// NewStructuredLogger creates a logger writing to the given writer.
func NewStructuredLogger(writer io.Writer, minLevel LogLevel) *StructuredLogger {
	if writer == nil {
		writer = os.Stdout
	}

	hostname, _ := os.Hostname()

	return &StructuredLogger{
		writer:   writer,
		minLevel: minLevel,
		fields: map[string]interface{}{
			"service": "globalmcp",
			"host":    hostname,
		},
	}
}

// NewDefaultLogger creates a logger with INFO level to stdout.
func NewDefaultLogger() *StructuredLogger {
	return NewStructuredLogger(os.Stdout, InfoLevel)
}

// WithField adds a global field to all log entries.
func (l *StructuredLogger) WithField(key string, value interface{}) *StructuredLogger {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.fields[key] = value
	return l
}

// Debug logs a debug-level message.
func (l *StructuredLogger) Debug(message string, fields ...map[string]interface{}) {
	l.log(DebugLevel, message, nil, fields...)
}

// Info logs an info-level message.
func (l *StructuredLogger) Info(message string, fields ...map[string]interface{}) {
	l.log(InfoLevel, message, nil, fields...)
}

// Warn logs a warning-level message.
func (l *StructuredLogger) Warn(message string, fields ...map[string]interface{}) {
	l.log(WarnLevel, message, nil, fields...)
}

// Error logs an error-level message.
func (l *StructuredLogger) Error(message string, err error, fields ...map[string]interface{}) {
	l.log(ErrorLevel, message, err, fields...)
}

func (l *StructuredLogger) log(level LogLevel, message string, err error, fields ...map[string]interface{}) {
	if level < l.minLevel {
		return
	}

	entry := LogEntry{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Level:     level.String(),
		Message:   message,
		Logger:    "globalmcp",
		Fields:    make(map[string]interface{}),
	}

	l.mu.Lock()
	for k, v := range l.fields {
		entry.Fields[k] = v
	}
	l.mu.Unlock()

	for _, fieldMap := range fields {
		for k, v := range fieldMap {
			// Promote well-known fields to top-level entry members.
			switch k {
			case "request_id":
				if id, ok := v.(string); ok {
					entry.RequestID = id
					continue
				}
			case "tier":
				if tier, ok := v.(string); ok {
					entry.Tier = tier
					continue
				}
			}
			entry.Fields[k] = v
		}
	}

	if err != nil {
		entry.Error = err.Error()
	}

	data, marshalErr := json.Marshal(entry)
	if marshalErr != nil {
		fmt.Fprintf(l.writer, "{\"error\":\"failed to encode log entry\",\"original_message\":%q}\n", message)
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.writer.Write(data)
	l.writer.Write([]byte("\n"))
}
