package shared

import (
	"bytes"
	"testing"

	"github.com/charmbracelet/log"
)

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf)
	logger.Info("hello")

	if buf.Len() == 0 {
		t.Error("Expected log output")
	}
}

func TestNewLoggerNilWriter(t *testing.T) {
	if NewLogger(nil) == nil {
		t.Error("Expected logger with default writer")
	}
}

func TestWithLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf)
	child := WithLogger(logger, "run_id", "abc")
	child.Info("hello")

	if !bytes.Contains(buf.Bytes(), []byte("run_id")) {
		t.Errorf("Expected child logger fields in output, got %q", buf.String())
	}
}

func TestSetLogLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf)
	SetLogLevel(logger, log.ErrorLevel)
	logger.Info("suppressed")

	if buf.Len() != 0 {
		t.Errorf("Expected info output suppressed, got %q", buf.String())
	}
}

func TestGenerateID(t *testing.T) {
	a := GenerateID()
	b := GenerateID()

	if a == "" || b == "" {
		t.Error("Expected non-empty ids")
	}
	if a == b {
		t.Error("Expected unique ids")
	}
	if len(a) != 36 {
		t.Errorf("Expected uuid v4 string length 36, got %d", len(a))
	}
}
