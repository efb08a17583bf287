// Package report writes a JSONL audit trail of reconciliation
// outcomes, one event per line, alongside the catalog's import log.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// EventType represents the type of event
type EventType string

const (
	EventDecision  EventType = "decision"
	EventArchive   EventType = "archive"
	EventAdmit     EventType = "admit"
	EventReject    EventType = "reject"
	EventDuplicate EventType = "duplicate"
	EventError     EventType = "error"
)

// EventLevel represents the severity level
type EventLevel string

const (
	LevelDebug   EventLevel = "debug"
	LevelInfo    EventLevel = "info"
	LevelWarning EventLevel = "warning"
	LevelError   EventLevel = "error"
)

var levelPriority = map[EventLevel]int{
	LevelDebug:   0,
	LevelInfo:    1,
	LevelWarning: 2,
	LevelError:   3,
}

// Event represents a single reconciliation event
type Event struct {
	Timestamp    time.Time         `json:"ts"`
	Level        EventLevel        `json:"level"`
	Event        EventType         `json:"event"`
	ASIN         string            `json:"asin,omitempty"`
	SourcePath   string            `json:"source_path,omitempty"`
	TargetPath   string            `json:"target_path,omitempty"`
	ArchivedPath string            `json:"archived_path,omitempty"`
	Decision     string            `json:"decision,omitempty"`
	Rule         string            `json:"rule,omitempty"`
	Reason       string            `json:"reason,omitempty"`
	Error        string            `json:"error,omitempty"`
	Extra        map[string]string `json:"extra,omitempty"`
}

// EventLogger writes events to a JSONL file
type EventLogger struct {
	file     *os.File
	encoder  *json.Encoder
	mu       sync.Mutex
	path     string
	minLevel EventLevel
}

// NewEventLogger creates a new event logger. minLevel filters which
// events get written (e.g. LevelInfo skips LevelDebug).
func NewEventLogger(outputDir string, minLevel EventLevel) (*EventLogger, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	timestamp := time.Now().Format("20060102-150405")
	filename := fmt.Sprintf("reconcile-%s.jsonl", timestamp)
	path := filepath.Join(outputDir, filename)

	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create event log: %w", err)
	}

	return &EventLogger{
		file:     file,
		encoder:  json.NewEncoder(file),
		path:     path,
		minLevel: minLevel,
	}, nil
}

// Log writes an event to the JSONL file
func (l *EventLogger) Log(event *Event) error {
	if l == nil || l.file == nil {
		return nil // Silently ignore if logger not initialized
	}

	if levelPriority[event.Level] < levelPriority[l.minLevel] {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	if err := l.encoder.Encode(event); err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	return nil
}

// LogDecision logs the raw outcome of a quality comparison
func (l *EventLogger) LogDecision(asin, sourcePath, decision, rule, reason string) error {
	return l.Log(&Event{
		Level:      LevelInfo,
		Event:      EventDecision,
		ASIN:       asin,
		SourcePath: sourcePath,
		Decision:   decision,
		Rule:       rule,
		Reason:     reason,
	})
}

// LogArchive logs the retirement of a superseded folder
func (l *EventLogger) LogArchive(asin, sourcePath, archivedPath, reason string) error {
	return l.Log(&Event{
		Level:        LevelWarning,
		Event:        EventArchive,
		ASIN:         asin,
		SourcePath:   sourcePath,
		ArchivedPath: archivedPath,
		Reason:       reason,
	})
}

// LogAdmit logs an incoming release accepted into the catalog
func (l *EventLogger) LogAdmit(asin, sourcePath, targetPath string, duplicate bool) error {
	event := EventAdmit
	if duplicate {
		event = EventDuplicate
	}

	return l.Log(&Event{
		Level:      LevelInfo,
		Event:      event,
		ASIN:       asin,
		SourcePath: sourcePath,
		TargetPath: targetPath,
	})
}

// LogReject logs an incoming release discarded without catalog changes
func (l *EventLogger) LogReject(asin, sourcePath, reason string) error {
	return l.Log(&Event{
		Level:      LevelInfo,
		Event:      EventReject,
		ASIN:       asin,
		SourcePath: sourcePath,
		Reason:     reason,
	})
}

// LogError logs a reconciliation failure
func (l *EventLogger) LogError(asin, sourcePath string, err error) error {
	return l.Log(&Event{
		Level:      LevelError,
		Event:      EventError,
		ASIN:       asin,
		SourcePath: sourcePath,
		Error:      err.Error(),
	})
}

// Close closes the event log file
func (l *EventLogger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	return l.file.Close()
}

// Path returns the path to the event log file
func (l *EventLogger) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// NullLogger returns a no-op event logger
func NullLogger() *EventLogger {
	return nil
}
