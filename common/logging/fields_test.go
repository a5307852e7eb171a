package logging

import (
	"errors"
	"testing"
)

func TestComponent(t *testing.T) {
	attr := Component("monitor")
	if attr.Key != FieldComponent {
		t.Errorf("expected key %q, got %q", FieldComponent, attr.Key)
	}
	if attr.Value.String() != "monitor" {
		t.Errorf("expected value %q, got %q", "monitor", attr.Value.String())
	}
}

func TestPath(t *testing.T) {
	attr := Path("/etc/passwd")
	if attr.Key != FieldPath {
		t.Errorf("expected key %q, got %q", FieldPath, attr.Key)
	}
	if attr.Value.String() != "/etc/passwd" {
		t.Errorf("expected value %q, got %q", "/etc/passwd", attr.Value.String())
	}
}

func TestEventID(t *testing.T) {
	attr := EventID("evt-123")
	if attr.Key != FieldEventID {
		t.Errorf("expected key %q, got %q", FieldEventID, attr.Key)
	}
	if attr.Value.String() != "evt-123" {
		t.Errorf("expected value %q, got %q", "evt-123", attr.Value.String())
	}
}

func TestEventType(t *testing.T) {
	attr := EventType("modify")
	if attr.Key != FieldEventType {
		t.Errorf("expected key %q, got %q", FieldEventType, attr.Key)
	}
	if attr.Value.String() != "modify" {
		t.Errorf("expected value %q, got %q", "modify", attr.Value.String())
	}
}

func TestCount(t *testing.T) {
	attr := Count(7)
	if attr.Key != FieldCount {
		t.Errorf("expected key %q, got %q", FieldCount, attr.Key)
	}
	if attr.Value.Int64() != 7 {
		t.Errorf("expected value 7, got %d", attr.Value.Int64())
	}
}

func TestError(t *testing.T) {
	attr := Error(errors.New("disk full"))
	if attr.Key != FieldError {
		t.Errorf("expected key %q, got %q", FieldError, attr.Key)
	}
	if attr.Value.String() != "disk full" {
		t.Errorf("expected value %q, got %q", "disk full", attr.Value.String())
	}
}

func TestDuration(t *testing.T) {
	attr := Duration(250)
	if attr.Key != FieldDuration {
		t.Errorf("expected key %q, got %q", FieldDuration, attr.Key)
	}
	if attr.Value.Int64() != 250 {
		t.Errorf("expected value 250, got %d", attr.Value.Int64())
	}
}

func TestStatus(t *testing.T) {
	attr := Status(404)
	if attr.Key != FieldStatus {
		t.Errorf("expected key %q, got %q", FieldStatus, attr.Key)
	}
	if attr.Value.Int64() != 404 {
		t.Errorf("expected value 404, got %d", attr.Value.Int64())
	}
}
