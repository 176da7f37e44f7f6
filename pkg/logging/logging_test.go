package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestNewWithWriter(t *testing.T) {
	tests := []struct {
		name   string
		level  string
		format string
	}{
		{"text info", "info", "text"},
		{"json debug", "debug", "json"},
		{"unknown falls back", "verbose", "xml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			log := NewWithWriter(&buf, tt.level, tt.format)
			log.Info("hello", "k", "v")
			if !strings.Contains(buf.String(), "hello") {
				t.Errorf("log output missing message: %q", buf.String())
			}
		})
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "error", "text")
	log.Info("suppressed")
	if buf.Len() != 0 {
		t.Errorf("info should be filtered at error level, got %q", buf.String())
	}
	log.Error("kept")
	if !strings.Contains(buf.String(), "kept") {
		t.Errorf("error log missing: %q", buf.String())
	}
}
