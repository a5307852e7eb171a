package logging

import "log/slog"

// Common field names for consistent logging across both binaries.
const (
	FieldComponent = "component"
	FieldPath      = "path"
	FieldEventID   = "event_id"
	FieldEventType = "event_type"
	FieldCount     = "count"
	FieldError     = "error"
	FieldDuration  = "duration_ms"
	FieldStatus    = "status"
)

// Component returns a slog attribute for the emitting component.
func Component(name string) slog.Attr {
	return slog.String(FieldComponent, name)
}

// Path returns a slog attribute for a file path.
func Path(path string) slog.Attr {
	return slog.String(FieldPath, path)
}

// EventID returns a slog attribute for an event ID.
func EventID(id string) slog.Attr {
	return slog.String(FieldEventID, id)
}

// EventType returns a slog attribute for an event type.
func EventType(t string) slog.Attr {
	return slog.String(FieldEventType, t)
}

// Count returns a slog attribute for a count of items.
func Count(n int) slog.Attr {
	return slog.Int(FieldCount, n)
}

// Error returns a slog attribute for an error.
func Error(err error) slog.Attr {
	return slog.String(FieldError, err.Error())
}

// Duration returns a slog attribute for duration in milliseconds.
func Duration(ms int64) slog.Attr {
	return slog.Int64(FieldDuration, ms)
}

// Status returns a slog attribute for an HTTP status code.
func Status(code int) slog.Attr {
	return slog.Int(FieldStatus, code)
}
