package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestDebugfRespectsFlag(t *testing.T) {
	var buf bytes.Buffer
	saved, savedDebug := Logger, Debug
	defer func() { Logger, Debug = saved, savedDebug }()

	Logger = New(&buf)
	Setup(false)
	Debugf("hidden %d", 1)
	if buf.Len() != 0 {
		t.Fatalf("expected no output with debug off, got %q", buf.String())
	}

	Logger = New(&buf)
	Setup(true)
	Debugf("shown %d", 2)
	if !strings.Contains(buf.String(), "shown 2") {
		t.Fatalf("expected debug output, got %q", buf.String())
	}
}
