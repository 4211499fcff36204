package core

import (
	"bytes"
	"strings"
	"testing"
)

func TestLogWithReportsDirectCaller(t *testing.T) {
	var buf bytes.Buffer
	sub := LogWith("subsystem", "test")
	sub.SetOutput(&buf)
	sub.SetReportTimestamp(false)
	sub.SetLevel(DebugLevel)

	sub.Info("hello")

	line := buf.String()
	if !strings.Contains(line, "logging_test.go") {
		t.Errorf("caller should be this file, got %q", line)
	}
	if !strings.Contains(line, "subsystem=test") {
		t.Errorf("missing key/value pair in %q", line)
	}
}
