package core

import (
	"errors"
	"testing"
)

// TestNewIDUniqueness tests that NewID generates unique identifiers
func TestNewIDUniqueness(t *testing.T) {
	const numIDs = 10000

	// Generate many IDs
	ids := make(map[ID]bool, numIDs)
	for i := 0; i < numIDs; i++ {
		id := NewID()
		if id.IsEmpty() {
			t.Errorf("Generated empty ID at iteration %d", i)
		}
		if ids[id] {
			t.Errorf("Generated duplicate ID: %s", id)
		}
		ids[id] = true
	}

	if len(ids) != numIDs {
		t.Errorf("Expected %d unique IDs, got %d", numIDs, len(ids))
	}
}

// TestIDString tests ID string conversion
func TestIDString(t *testing.T) {
	id := ID("test-123")
	if id.String() != "test-123" {
		t.Errorf("Expected String() to return 'test-123', got '%s'", id.String())
	}
}

// TestParseFrameKey tests frame key parsing
func TestParseFrameKey(t *testing.T) {
	tests := []struct {
		input    string
		expected FrameKey
		hasError bool
	}{
		{"frame-7f2c", FrameKey("frame-7f2c"), false},
		{"", "", true},
		{"   ", "", true},
	}

	for _, test := range tests {
		result, err := ParseFrameKey(test.input)
		if test.hasError && err == nil {
			t.Errorf("Expected error for input '%s', but got none", test.input)
		}
		if !test.hasError && err != nil {
			t.Errorf("Unexpected error for input '%s': %v", test.input, err)
		}
		if result != test.expected {
			t.Errorf("Expected %s, got %s", test.expected, result)
		}
	}
}

// TestParseModelKey tests model key parsing
func TestParseModelKey(t *testing.T) {
	tests := []struct {
		input    string
		expected ModelKey
		hasError bool
	}{
		{"gbm-001", ModelKey("gbm-001"), false},
		{"", "", true},
	}

	for _, test := range tests {
		result, err := ParseModelKey(test.input)
		if test.hasError && err == nil {
			t.Errorf("Expected error for input '%s', but got none", test.input)
		}
		if !test.hasError && err != nil {
			t.Errorf("Unexpected error for input '%s': %v", test.input, err)
		}
		if result != test.expected {
			t.Errorf("Expected %s, got %s", test.expected, result)
		}
	}
}

// TestErrorHelpers tests sentinel classification helpers
func TestErrorHelpers(t *testing.T) {
	if !IsNotFoundError(NewNotFoundError("frame", "frame-1")) {
		t.Error("Expected wrapped not-found error to classify as not found")
	}
	if !IsUsageError(ErrMultiColumn) {
		t.Error("Expected ErrMultiColumn to classify as usage error")
	}
	if !IsUsageError(NewColumnError("sepal_len", ErrEmptySelection)) {
		t.Error("Expected wrapped usage error to keep its classification")
	}
	if IsUsageError(ErrNonNumeric) {
		t.Error("ErrNonNumeric is a data error, not a usage error")
	}
	if !IsDataError(ErrEmptyData) {
		t.Error("Expected ErrEmptyData to classify as data error")
	}
	if !errors.Is(ErrFrameNotFound, ErrNotFound) {
		t.Error("Expected ErrFrameNotFound to wrap ErrNotFound")
	}
}
