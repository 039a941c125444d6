package qr

import (
	"strings"
	"testing"
)

func TestDataURI(t *testing.T) {
	enc := NewPNGEncoder()
	uri, err := enc.DataURI("https://example.com/assessment?link=abc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(uri, "data:image/png;base64,") {
		t.Errorf("expected PNG data URI, got %.40s", uri)
	}
}

func TestDataURI_EmptyURL(t *testing.T) {
	enc := NewPNGEncoder()
	if _, err := enc.DataURI(""); err == nil {
		t.Error("expected error for empty url")
	}
}

func TestDataURI_ZeroSizeDefaults(t *testing.T) {
	enc := &PNGEncoder{}
	uri, err := enc.DataURI("https://example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if uri == "" {
		t.Error("expected non-empty data URI")
	}
}
